package feeds

import (
	"context"
	"fmt"
	"time"

	"catalytics/internal/domain/models"
	"catalytics/internal/domain/service"
)

// Router dispatches a benchmark id to the first family that serves it.
type Router struct {
	families []service.BenchmarkFamily
}

var _ service.BenchmarkSource = (*Router)(nil)

func NewRouter(families ...service.BenchmarkFamily) *Router {
	return &Router{families: families}
}

// Family returns the name of the family serving id, or "" if none does.
func (r *Router) Family(id string) string {
	if f := r.lookup(id); f != nil {
		return f.Name()
	}
	return ""
}

func (r *Router) Fetch(ctx context.Context, start, end time.Time, id string) (models.Series, error) {
	f := r.lookup(id)
	if f == nil {
		return nil, fmt.Errorf("%w: %q", models.ErrUnknownBenchmark, id)
	}
	return f.Fetch(ctx, start, end, id)
}

func (r *Router) lookup(id string) service.BenchmarkFamily {
	for _, f := range r.families {
		if f.Supports(id) {
			return f
		}
	}
	return nil
}
