package session

import (
	"sync"
	"testing"
)

func testSession(access string) Session {
	return Session{
		AccessToken:  access,
		RefreshToken: "refresh-" + access,
		User:         User{ID: "u1", FullName: "Dilnoza Rahimova", Role: "mentor"},
	}
}

func TestStoreGetSetClear(t *testing.T) {
	store := NewStore()
	if _, ok := store.Get(); ok {
		t.Fatalf("expected empty store")
	}

	store.Set(testSession("a1"))
	got, ok := store.Get()
	if !ok || got.AccessToken != "a1" || got.User.Role != "mentor" {
		t.Fatalf("unexpected session %+v", got)
	}

	store.Clear()
	if _, ok := store.Get(); ok {
		t.Fatalf("expected session cleared")
	}
}

func TestStoreGetReturnsCopy(t *testing.T) {
	store := NewStore()
	store.Set(testSession("a1"))
	got, _ := store.Get()
	got.AccessToken = "mutated"
	again, _ := store.Get()
	if again.AccessToken != "a1" {
		t.Fatalf("store leaked internal state")
	}
}

func TestStoreSubscribers(t *testing.T) {
	store := NewStore()
	var events []bool
	var tokens []string
	cancel := store.Subscribe(func(s Session, ok bool) {
		events = append(events, ok)
		tokens = append(tokens, s.AccessToken)
	})

	store.Set(testSession("a1"))
	store.Clear()
	cancel()
	store.Set(testSession("a2"))

	if len(events) != 2 || !events[0] || events[1] {
		t.Fatalf("unexpected events %v", events)
	}
	if tokens[0] != "a1" || tokens[1] != "" {
		t.Fatalf("unexpected tokens %v", tokens)
	}
	cancel()
}

func TestCommitIfAbandonsAfterClear(t *testing.T) {
	store := NewStore()
	store.Set(testSession("a1"))
	_, gen, ok := store.Snapshot()
	if !ok {
		t.Fatalf("expected session")
	}

	store.Clear()
	if store.CommitIf(gen, testSession("a2")) {
		t.Fatalf("commit after clear must be rejected")
	}
	if _, ok := store.Get(); ok {
		t.Fatalf("cleared session was resurrected")
	}
}

func TestCommitIfRejectsStaleGeneration(t *testing.T) {
	store := NewStore()
	store.Set(testSession("a1"))
	_, gen, _ := store.Snapshot()
	store.Set(testSession("a2"))

	if store.CommitIf(gen, testSession("a3")) {
		t.Fatalf("stale commit must be rejected")
	}
	_, gen, _ = store.Snapshot()
	if !store.CommitIf(gen, testSession("a4")) {
		t.Fatalf("current commit must succeed")
	}
	got, _ := store.Get()
	if got.AccessToken != "a4" {
		t.Fatalf("expected a4, got %s", got.AccessToken)
	}
}

func TestStoreConcurrentAccess(t *testing.T) {
	store := NewStore()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			store.Set(testSession("x"))
		}()
		go func() {
			defer wg.Done()
			store.Get()
		}()
	}
	wg.Wait()
	if _, ok := store.Get(); !ok {
		t.Fatalf("expected session after concurrent writes")
	}
}

func TestClearIfKeepsNewerSession(t *testing.T) {
	store := NewStore()
	store.Set(testSession("a1"))
	_, gen, _ := store.Snapshot()

	store.Set(testSession("relogin"))
	if store.ClearIf(gen) {
		t.Fatalf("stale clear must be rejected")
	}
	if got, ok := store.Get(); !ok || got.AccessToken != "relogin" {
		t.Fatalf("newer session lost: %+v", got)
	}

	_, gen, _ = store.Snapshot()
	if !store.ClearIf(gen) {
		t.Fatalf("current clear must succeed")
	}
	if _, ok := store.Get(); ok {
		t.Fatalf("expected session cleared")
	}
}
