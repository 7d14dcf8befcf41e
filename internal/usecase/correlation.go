package usecase

import (
	"fmt"

	"catalytics/internal/domain/models"
	"catalytics/internal/services/features"
	"catalytics/pkg/util"
)

// CorrelationUseCase computes ad-hoc rolling correlations between two series.
type CorrelationUseCase struct{}

func NewCorrelationUseCase() *CorrelationUseCase { return &CorrelationUseCase{} }

// Compute returns the Pearson correlation of the last window days both series share.
func (uc *CorrelationUseCase) Compute(a, b models.Series, window int) models.Correlation {
	return features.RollingCorrelation(a, b, window)
}

// ComputeKeyed is Compute over date-keyed maps as received from the API.
func (uc *CorrelationUseCase) ComputeKeyed(a, b map[string]float64, window int) (models.Correlation, error) {
	sa, err := keyedSeries(a)
	if err != nil {
		return models.Correlation{}, fmt.Errorf("series_a: %w", err)
	}
	sb, err := keyedSeries(b)
	if err != nil {
		return models.Correlation{}, fmt.Errorf("series_b: %w", err)
	}
	return uc.Compute(sa, sb, window), nil
}

func keyedSeries(m map[string]float64) (models.Series, error) {
	out := make(models.Series, 0, len(m))
	for k, v := range m {
		d, err := util.ParseDay(k)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", models.ErrMalformedDate, err)
		}
		out = append(out, models.Point{Date: d, Value: v})
	}
	return out.Sorted(), nil
}
