package features

import (
	"fmt"

	"catalytics/internal/domain/models"
)

// Rebase normalizes a series so its chronologically first value becomes 100.
// The input may be unordered; the result is sorted ascending.
func Rebase(s models.Series) (models.Series, error) {
	if len(s) == 0 {
		return models.Series{}, nil
	}
	sorted := s.Sorted()
	anchor := sorted[0].Value
	if anchor == 0 {
		return nil, fmt.Errorf("rebase from %s: %w", sorted[0].Date.Format("2006-01-02"), models.ErrZeroAnchor)
	}
	out := make(models.Series, len(sorted))
	for i, p := range sorted {
		out[i] = models.Point{Date: p.Date, Value: p.Value / anchor * 100}
	}
	return out, nil
}
