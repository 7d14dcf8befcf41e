package index

import (
	"sort"
	"time"

	"catalytics/internal/domain/models"
	"catalytics/internal/services/features"
	"catalytics/pkg/util"

	"github.com/shopspring/decimal"
)

// Window is an inclusive zero-based rank range applied per day.
type Window struct {
	Start int
	End   int
}

// slice clips the window to n ranked entries.
func (w Window) slice(n int) (int, int) {
	start := w.Start
	if start < 0 {
		start = 0
	}
	end := w.End + 1
	if end > n {
		end = n
	}
	if end < 0 {
		end = 0
	}
	if start > end {
		start = end
	}
	return start, end
}

type dayBasket struct {
	date      time.Time
	snapshots []models.Snapshot
}

// Build groups snapshots by UTC day, drops excluded assets, ranks each day by
// descending market cap and sums the caps inside the window. Every non-excluded
// asset seen gets a participation record.
func Build(snapshots []models.Snapshot, w Window, excluded map[string]struct{}) (models.IndexSeries, []models.ParticipationRecord) {
	baskets := make(map[time.Time]*dayBasket)
	var seen []string
	seenSet := make(map[string]struct{})
	for _, s := range snapshots {
		if _, skip := excluded[s.AssetID]; skip {
			continue
		}
		d := util.Day(s.Date)
		b, ok := baskets[d]
		if !ok {
			b = &dayBasket{date: d}
			baskets[d] = b
		}
		b.snapshots = append(b.snapshots, s)
		if _, ok := seenSet[s.AssetID]; !ok {
			seenSet[s.AssetID] = struct{}{}
			seen = append(seen, s.AssetID)
		}
	}

	days := make([]*dayBasket, 0, len(baskets))
	for _, b := range baskets {
		days = append(days, b)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].date.Before(days[j].date) })

	series := make(models.IndexSeries, 0, len(days))
	counts := make(map[string]int, len(seen))
	for _, b := range days {
		ranked := b.snapshots
		sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].MarketCap.GreaterThan(ranked[j].MarketCap) })
		lo, hi := w.slice(len(ranked))
		sum := decimal.Zero
		for _, s := range ranked[lo:hi] {
			sum = sum.Add(s.MarketCap)
			counts[s.AssetID]++
		}
		series = append(series, models.IndexPoint{Date: b.date, Value: sum})
	}

	return series, participation(seen, counts, len(days))
}

func participation(seen []string, counts map[string]int, totalDays int) []models.ParticipationRecord {
	records := make([]models.ParticipationRecord, 0, len(seen))
	for _, id := range seen {
		pct := 0.0
		if totalDays > 0 {
			pct = features.Round2(float64(counts[id]) / float64(totalDays) * 100)
		}
		records = append(records, models.ParticipationRecord{
			AssetID:          id,
			Percentage:       pct,
			DaysParticipated: counts[id],
		})
	}
	sort.SliceStable(records, func(i, j int) bool { return records[i].Percentage > records[j].Percentage })
	return records
}

// AttachIcons fills the icon of each record from the category's asset metadata.
func AttachIcons(records []models.ParticipationRecord, assets []models.Asset) {
	icons := make(map[string]string, len(assets))
	for _, a := range assets {
		if a.Image != "" {
			icons[a.ID] = a.Image
		}
	}
	for i := range records {
		if icon, ok := icons[records[i].AssetID]; ok {
			records[i].Icon = &icon
		}
	}
}
