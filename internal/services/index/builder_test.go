package index

import (
	"testing"
	"time"

	"catalytics/internal/domain/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(n int) time.Time {
	return time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func snap(id string, d int, cap int64) models.Snapshot {
	return models.Snapshot{
		AssetID:   id,
		Category:  models.CategoryMemes,
		MarketCap: decimal.NewFromInt(cap),
		Price:     decimal.NewFromInt(1),
		Date:      day(d),
	}
}

func TestBuildTopTwoAcrossTwoDays(t *testing.T) {
	snaps := []models.Snapshot{
		snap("A", 0, 100), snap("B", 0, 50), snap("C", 0, 10),
		snap("A", 1, 90), snap("B", 1, 60), snap("C", 1, 5),
	}

	series, records := Build(snaps, Window{Start: 0, End: 1}, nil)

	require.Len(t, series, 2)
	assert.True(t, series[0].Value.Equal(decimal.NewFromInt(150)))
	assert.True(t, series[1].Value.Equal(decimal.NewFromInt(150)))

	require.Len(t, records, 3)
	assert.Equal(t, "A", records[0].AssetID)
	assert.Equal(t, 100.0, records[0].Percentage)
	assert.Equal(t, "B", records[1].AssetID)
	assert.Equal(t, 100.0, records[1].Percentage)
	assert.Equal(t, "C", records[2].AssetID)
	assert.Equal(t, 0.0, records[2].Percentage)
	assert.Equal(t, 0, records[2].DaysParticipated)
}

func TestBuildWindowLargerThanDay(t *testing.T) {
	snaps := []models.Snapshot{snap("A", 0, 7), snap("B", 0, 3)}
	series, _ := Build(snaps, Window{Start: 0, End: 9}, nil)
	require.Len(t, series, 1)
	assert.True(t, series[0].Value.Equal(decimal.NewFromInt(10)))
}

func TestBuildSumsExactlyTopK(t *testing.T) {
	var snaps []models.Snapshot
	caps := []int64{5, 40, 15, 30, 25, 10, 35, 20}
	for i, c := range caps {
		snaps = append(snaps, snap(string(rune('a'+i)), 0, c))
	}
	series, _ := Build(snaps, Window{Start: 1, End: 3}, nil)
	require.Len(t, series, 1)
	// ranks 1..3 of 40,35,30,25,... are 35+30+25
	assert.True(t, series[0].Value.Equal(decimal.NewFromInt(90)), series[0].Value.String())
}

func TestBuildExcludesAssets(t *testing.T) {
	snaps := []models.Snapshot{snap("A", 0, 100), snap("B", 0, 50), snap("C", 0, 10)}
	series, records := Build(snaps, Window{Start: 0, End: 1}, map[string]struct{}{"A": {}})
	require.Len(t, series, 1)
	assert.True(t, series[0].Value.Equal(decimal.NewFromInt(60)))
	for _, r := range records {
		assert.NotEqual(t, "A", r.AssetID)
	}
}

func TestBuildParticipationBounds(t *testing.T) {
	snaps := []models.Snapshot{
		snap("A", 0, 100), snap("B", 0, 50),
		snap("B", 1, 80), snap("A", 1, 20),
		snap("B", 2, 80),
	}
	_, records := Build(snaps, Window{Start: 0, End: 0}, nil)
	require.Len(t, records, 2)
	assert.Equal(t, "B", records[0].AssetID)
	assert.Equal(t, 66.67, records[0].Percentage)
	assert.Equal(t, 33.33, records[1].Percentage)
	for _, r := range records {
		assert.GreaterOrEqual(t, r.Percentage, 0.0)
		assert.LessOrEqual(t, r.Percentage, 100.0)
	}
}

func TestBuildStableOnTies(t *testing.T) {
	snaps := []models.Snapshot{snap("X", 0, 10), snap("Y", 0, 10), snap("Z", 0, 1)}
	_, records := Build(snaps, Window{Start: 0, End: 0}, nil)
	assert.Equal(t, "X", records[0].AssetID)
	assert.Equal(t, 100.0, records[0].Percentage)
}

func TestBuildDegenerateWindows(t *testing.T) {
	snaps := []models.Snapshot{snap("A", 0, 100), snap("B", 0, 50), snap("A", 1, 90), snap("B", 1, 60)}
	windows := []struct {
		name string
		w    Window
	}{
		{"negative end", Window{Start: 0, End: -3}},
		{"negative start and end", Window{Start: -5, End: -1}},
		{"inverted", Window{Start: 3, End: 1}},
		{"start past day size", Window{Start: 5, End: 9}},
	}
	for _, tc := range windows {
		t.Run(tc.name, func(t *testing.T) {
			var (
				series  models.IndexSeries
				records []models.ParticipationRecord
			)
			require.NotPanics(t, func() { series, records = Build(snaps, tc.w, nil) })
			require.Len(t, series, 2)
			for _, p := range series {
				assert.True(t, p.Value.IsZero())
			}
			require.Len(t, records, 2)
			for _, r := range records {
				assert.Equal(t, 0.0, r.Percentage)
			}
		})
	}
}

func TestBuildEmpty(t *testing.T) {
	series, records := Build(nil, Window{Start: 0, End: 9}, nil)
	assert.Empty(t, series)
	assert.Empty(t, records)
}

func TestAttachIcons(t *testing.T) {
	records := []models.ParticipationRecord{{AssetID: "A"}, {AssetID: "B"}}
	AttachIcons(records, []models.Asset{{ID: "A", Image: "https://img/a.png"}})
	require.NotNil(t, records[0].Icon)
	assert.Equal(t, "https://img/a.png", *records[0].Icon)
	assert.Nil(t, records[1].Icon)
}
