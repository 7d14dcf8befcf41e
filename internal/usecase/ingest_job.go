package usecase

import (
	"context"
	"fmt"

	"catalytics/internal/domain/models"
	"catalytics/pkg/queue"
	"catalytics/pkg/util"
)

// IngestJobType is the queue message type handled by IngestCategoryJob.
const IngestJobType = "ingest_category"

// IngestPayload is the queue payload of one category ingestion.
type IngestPayload struct {
	Category string `json:"category"`
	// Date is optional; empty means the day the job runs.
	Date string `json:"date,omitempty"`
}

// IngestCategoryJob runs IngestProcessor for queued categories.
type IngestCategoryJob struct {
	proc *IngestProcessor
}

func NewIngestCategoryJob(proc *IngestProcessor) *IngestCategoryJob {
	return &IngestCategoryJob{proc: proc}
}

func (j *IngestCategoryJob) Name() string { return "ingest category" }

func (j *IngestCategoryJob) Type() string { return IngestJobType }

func (j *IngestCategoryJob) Handle(ctx context.Context, payload interface{}) error {
	p, err := queue.ParsePayload[IngestPayload](payload)
	if err != nil {
		return err
	}
	cat, err := models.ParseCategory(p.Category)
	if err != nil {
		return err
	}
	day := j.proc.now()
	if p.Date != "" {
		if day, err = util.ParseDay(p.Date); err != nil {
			return fmt.Errorf("%w: %v", models.ErrMalformedDate, err)
		}
	}
	_, err = j.proc.Ingest(ctx, cat, day)
	return err
}

var _ queue.Job = (*IngestCategoryJob)(nil)
