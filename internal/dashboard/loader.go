package dashboard

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"eduadmin/internal/apiclient"
	"eduadmin/internal/entity"
)

// Fetcher lists one upstream collection. *apiclient.Client satisfies it.
type Fetcher interface {
	List(ctx context.Context, col apiclient.Collection) ([]entity.Record, error)
}

// Snapshot holds whatever loaded. A collection that failed has an entry in
// Errors and none in Collections.
type Snapshot struct {
	Collections map[apiclient.Collection][]entity.Record
	Errors      map[apiclient.Collection]error
}

func (s Snapshot) Get(col apiclient.Collection) []entity.Record {
	return s.Collections[col]
}

// Load fetches every collection concurrently. Each fetch settles on its own;
// one failure never cancels or hides the others.
func Load(ctx context.Context, f Fetcher, cols ...apiclient.Collection) Snapshot {
	snap := Snapshot{
		Collections: make(map[apiclient.Collection][]entity.Record, len(cols)),
		Errors:      make(map[apiclient.Collection]error),
	}
	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	for _, col := range cols {
		col := col
		g.Go(func() error {
			records, err := f.List(ctx, col)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				snap.Errors[col] = err
				return nil
			}
			snap.Collections[col] = records
			return nil
		})
	}
	_ = g.Wait()
	return snap
}

// FirstAuthError returns an auth failure among the snapshot errors. Auth
// failures are not partial: the whole page has to send the operator to login.
func (s Snapshot) FirstAuthError() error {
	for _, err := range s.Errors {
		if apiclient.IsAuth(err) {
			return err
		}
	}
	return nil
}
