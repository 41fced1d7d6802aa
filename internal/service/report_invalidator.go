package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/consistify-api/pkg/jobs"
)

// JobInvalidateReports is the job type that drops cached analytics reports.
const JobInvalidateReports = "analytics.invalidate"

// InvalidationPayload identifies the reports to drop. Bumped records whether
// the write path already advanced the subject's generation.
type InvalidationPayload struct {
	Variant   string
	SubjectID string
	Bumped    bool
}

type jobEnqueuer interface {
	Enqueue(job jobs.Job) error
}

type subjectInvalidator interface {
	BumpGeneration(ctx context.Context, variant, subjectID string) error
	PurgeSubject(ctx context.Context, variant, subjectID string) error
}

// ReportInvalidator retires cached reports after record writes. The
// generation bump happens before the write returns, so the next read after a
// write always misses; deleting the retired entries is left to the queue.
type ReportInvalidator struct {
	queue     jobEnqueuer
	analytics subjectInvalidator
	logger    *zap.Logger
}

// NewReportInvalidator constructs a ReportInvalidator.
func NewReportInvalidator(queue jobEnqueuer, analytics subjectInvalidator, logger *zap.Logger) *ReportInvalidator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportInvalidator{queue: queue, analytics: analytics, logger: logger}
}

// Handle is the queue handler for JobInvalidateReports. A generation the
// write path failed to bump is retried here along with the purge.
func (r *ReportInvalidator) Handle(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(InvalidationPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %s", job.Payload, job.Type)
	}
	if !payload.Bumped {
		if err := r.analytics.BumpGeneration(ctx, payload.Variant, payload.SubjectID); err != nil {
			return err
		}
	}
	return r.analytics.PurgeSubject(ctx, payload.Variant, payload.SubjectID)
}

// Invalidate retires a subject's cached reports. Failures are logged; the
// day-scoped cache keys bound staleness to the configured TTL.
func (r *ReportInvalidator) Invalidate(ctx context.Context, variant, subjectID string) {
	if r == nil {
		return
	}
	bumped := false
	if r.analytics != nil {
		if err := r.analytics.BumpGeneration(ctx, variant, subjectID); err != nil {
			r.logger.Warn("bump report generation", zap.String("variant", variant), zap.String("subject_id", subjectID), zap.Error(err))
		} else {
			bumped = true
		}
	}
	if r.queue == nil {
		return
	}
	job := jobs.Job{
		ID:      uuid.NewString(),
		Type:    JobInvalidateReports,
		Payload: InvalidationPayload{Variant: variant, SubjectID: subjectID, Bumped: bumped},
	}
	if err := r.queue.Enqueue(job); err != nil {
		r.logger.Warn("schedule report purge", zap.String("variant", variant), zap.String("subject_id", subjectID), zap.Error(err))
	}
}
