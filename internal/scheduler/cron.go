package scheduler

import (
	"context"
	"fmt"
	"time"

	"catalytics/internal/domain/models"
	"catalytics/internal/usecase"
	applogger "catalytics/pkg/logger"
	"catalytics/pkg/queue"
	"catalytics/pkg/util"

	"github.com/robfig/cron/v3"
)

// Ingester runs one category ingestion in-process.
type Ingester interface {
	Ingest(ctx context.Context, category models.Category, day time.Time) (usecase.IngestReport, error)
}

// IngestScheduler triggers daily ingestion of every configured category.
// With a queue publisher the runs are enqueued as jobs, otherwise they run inline.
type IngestScheduler struct {
	cron       *cron.Cron
	schedule   string
	categories []models.Category
	ingester   Ingester
	publisher  queue.Publisher
	timeout    time.Duration
	logger     *applogger.Logger
	now        func() time.Time
}

type Option func(*IngestScheduler)

func WithPublisher(p queue.Publisher) Option {
	return func(s *IngestScheduler) { s.publisher = p }
}

func WithTimeout(d time.Duration) Option {
	return func(s *IngestScheduler) {
		if d > 0 {
			s.timeout = d
		}
	}
}

func WithLogger(l *applogger.Logger) Option {
	return func(s *IngestScheduler) {
		if l != nil {
			s.logger = l
		}
	}
}

func NewIngestScheduler(schedule string, categories []models.Category, ingester Ingester, opts ...Option) *IngestScheduler {
	s := &IngestScheduler{
		cron:       cron.New(cron.WithLocation(time.UTC)),
		schedule:   schedule,
		categories: categories,
		ingester:   ingester,
		timeout:    30 * time.Minute,
		logger:     applogger.Nop(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start registers the schedule and starts the cron runner.
func (s *IngestScheduler) Start() error {
	if s.schedule == "" {
		return fmt.Errorf("ingest schedule is empty")
	}
	if _, err := s.cron.AddFunc(s.schedule, s.runAll); err != nil {
		return fmt.Errorf("add ingest schedule %q: %w", s.schedule, err)
	}
	s.cron.Start()
	s.logger.Info("ingest scheduler started",
		applogger.String("schedule", s.schedule),
		applogger.Int("categories", len(s.categories)),
		applogger.Bool("queued", s.publisher != nil),
	)
	return nil
}

// Stop waits for a running ingestion to finish or ctx to expire.
func (s *IngestScheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.logger.Warn("ingest scheduler stop timed out")
	}
	s.logger.Info("ingest scheduler stopped")
}

func (s *IngestScheduler) runAll() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	s.RunOnce(ctx)
}

// RunOnce triggers every category for today and returns the number of failures.
func (s *IngestScheduler) RunOnce(ctx context.Context) int {
	day := util.Day(s.now())
	failed := 0
	for _, cat := range s.categories {
		if err := s.trigger(ctx, cat, day); err != nil {
			failed++
			s.logger.Error("scheduled ingest failed",
				applogger.String("category", string(cat)),
				applogger.Error(err),
			)
		}
	}
	return failed
}

func (s *IngestScheduler) trigger(ctx context.Context, cat models.Category, day time.Time) error {
	if s.publisher != nil {
		return s.publisher.Enqueue(ctx, usecase.IngestJobType, usecase.IngestPayload{
			Category: string(cat),
			Date:     util.DayKey(day),
		})
	}
	_, err := s.ingester.Ingest(ctx, cat, day)
	return err
}
