package jobs

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"eduadmin/internal/apiclient"
	"eduadmin/internal/entity"
	"eduadmin/internal/logging"
	"eduadmin/internal/metrics"
	"eduadmin/internal/schedule"
)

// ErrRunInProgress is returned when another console holds the freeze lock.
var ErrRunInProgress = errors.New("freeze run already in progress")

// Upstream is the part of the API client the freeze batch needs.
type Upstream interface {
	List(ctx context.Context, col apiclient.Collection) ([]entity.Record, error)
	FreezeStudent(ctx context.Context, studentID string) error
}

// Report summarizes one freeze run.
type Report struct {
	Groups    []string `json:"groups"`
	Attempted int      `json:"attempted"`
	Frozen    int      `json:"frozen"`
	Failed    int      `json:"failed"`
	Skipped   int      `json:"skipped"`
}

type Freezer struct {
	upstream Upstream
	locker   Locker
	logger   *zap.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
}

// NewFreezer builds the batch. A nil locker falls back to a LocalLocker.
func NewFreezer(upstream Upstream, locker Locker, logger *zap.Logger, m *metrics.Metrics) *Freezer {
	if locker == nil {
		locker = &LocalLocker{}
	}
	return &Freezer{
		upstream: upstream,
		locker:   locker,
		logger:   logging.OrNop(logger),
		metrics:  m,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Run sets every non-frozen member of every expired group to muzlagan.
// A failed freeze is counted and logged and the run moves on to the next
// student. Only a failure to load the collections aborts the run.
func (f *Freezer) Run(ctx context.Context) (Report, error) {
	report := Report{Groups: []string{}}
	release, err := f.locker.Acquire(ctx)
	if err != nil {
		return report, err
	}
	defer release()

	groups, err := f.upstream.List(ctx, apiclient.Groups)
	if err != nil {
		return report, errors.Wrap(err, "list groups")
	}
	courses, err := f.upstream.List(ctx, apiclient.Courses)
	if err != nil {
		return report, errors.Wrap(err, "list courses")
	}
	students, err := f.upstream.List(ctx, apiclient.Students)
	if err != nil {
		return report, errors.Wrap(err, "list students")
	}

	now := f.now()
	seen := map[string]bool{}
	for _, group := range groups {
		course, _ := entity.CourseOf(group, courses)
		if !schedule.IsGroupExpired(group, course, now) {
			continue
		}
		groupID := entity.NormalizeID(group, entity.KindGroup)
		if groupID == "" {
			continue
		}
		report.Groups = append(report.Groups, groupID)
		for _, student := range entity.StudentsOfGroup(groupID, students) {
			studentID := entity.NormalizeID(student, entity.KindStudent)
			if studentID == "" || seen[studentID] {
				continue
			}
			seen[studentID] = true
			if student.String("status") == apiclient.StatusFrozen {
				report.Skipped++
				continue
			}
			report.Attempted++
			if err := f.upstream.FreezeStudent(ctx, studentID); err != nil {
				report.Failed++
				f.metrics.ObserveFreeze("failed")
				f.logger.Warn("freeze student failed", zap.String("group_id", groupID), zap.String("student_id", studentID), zap.Error(err))
				if ctx.Err() != nil {
					return report, ctx.Err()
				}
				continue
			}
			report.Frozen++
			f.metrics.ObserveFreeze("frozen")
		}
	}
	return report, nil
}
