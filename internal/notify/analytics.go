package notify

import (
	"sort"
	"time"

	"github.com/freshmartlabs/freshmart-admin/backend/internal/view"
)

// SeriesPoint is one day of the performance chart.
type SeriesPoint struct {
	Date         string `json:"date"` // YYYY-MM-DD
	Sent         int    `json:"sent"`
	Opened       int    `json:"opened"`
	Interactions int    `json:"interactions"`
}

// ChartSeries groups the report's notifications by send day, oldest day
// first. An empty report yields an empty series.
func ChartSeries(report AnalyticsReport) []SeriesPoint {
	grouped := make(map[string]*SeriesPoint)
	for _, record := range report.Notifications {
		day := record.SentAt.Format(time.DateOnly)
		point, ok := grouped[day]
		if !ok {
			point = &SeriesPoint{Date: day}
			grouped[day] = point
		}
		point.Sent += record.TargetCount
		point.Opened += record.OpenCount
		point.Interactions += record.InteractionCount
	}

	series := make([]SeriesPoint, 0, len(grouped))
	for _, point := range grouped {
		series = append(series, *point)
	}
	sort.Slice(series, func(i, j int) bool {
		return series[i].Date < series[j].Date
	})
	return series
}

// OpenRate computes a notification's open percentage with the
// zero-denominator convention (0, never NaN).
func OpenRate(record NotificationRecord) float64 {
	return view.Rate(record.OpenCount, record.SentCount)
}

// VariantResult is a variant annotated with whether it is the designated
// winner.
type VariantResult struct {
	Variant
	IsWinner bool `json:"isWinner"`
}

// ABComparison is the rendered A/B view: at most one variant is marked
// the winner.
type ABComparison struct {
	Variants []VariantResult `json:"variants"`
	// HasWinner is false when the winner id matches no variant; the view
	// renders "no winner marked" instead of guessing.
	HasWinner bool `json:"hasWinner"`
}

// Compare marks exactly the variant whose id equals the designated
// winner's id. When none matches, every variant stays unmarked.
func Compare(result ABResult) ABComparison {
	comparison := ABComparison{Variants: make([]VariantResult, 0, len(result.Variants))}
	for _, variant := range result.Variants {
		marked := variant.ID != "" && variant.ID == result.Winner.ID
		if marked {
			comparison.HasWinner = true
		}
		comparison.Variants = append(comparison.Variants, VariantResult{Variant: variant, IsWinner: marked})
	}
	return comparison
}
