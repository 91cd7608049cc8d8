package pipeline

import (
	"math"
	"time"

	"github.com/theirongolddev/stashstat/internal/model"
)

// minProjectionSpan is the shortest record span a rate is derived from.
const minProjectionSpan = time.Minute

// Project scales an aggregate to its estimated value at the end of the
// window, using the consumption rate observed across records. The returned
// result always carries a ProjectionScale of at least 1.
func Project(
	agg model.StatsResult,
	records []model.ActivityRecord,
	period model.Period,
	window Window,
	now time.Time,
) model.StatsResult {
	scale := ProjectionScale(agg.TotalQuantity, records, period, window, now)
	return applyScale(agg, scale)
}

// ProjectionScale derives the factor a total of quantity observed across
// records is multiplied by to reach the end of the window.
func ProjectionScale(
	total float64,
	records []model.ActivityRecord,
	period model.Period,
	window Window,
	now time.Time,
) float64 {
	if len(records) < 2 || total <= 0 {
		return 1
	}

	first, last := timeBounds(records)
	span := last.Sub(first)
	if span < minProjectionSpan {
		return 1
	}
	ratePerHour := total / span.Hours()

	var scale float64
	switch period {
	case model.PeriodToday:
		remaining := nextMidnight(now).Sub(now).Hours()
		scale = (total + ratePerHour*remaining) / total
	case model.PeriodHour:
		ratePerMinute := total / span.Minutes()
		remaining := nextHour(now).Sub(now).Minutes()
		scale = (total + ratePerMinute*remaining) / total
	case model.PeriodTwelveHour:
		anchor := now.Add(-12 * time.Hour)
		if first.After(anchor) {
			anchor = first
		}
		remaining := anchor.Add(12 * time.Hour).Sub(now)
		if remaining < 0 {
			remaining = 0
		}
		scale = (total + ratePerHour*remaining.Hours()) / total
	default:
		scale = float64(window.Duration()) / float64(span)
	}

	return clampScale(scale)
}

// clampScale keeps a projection from ever shrinking the observed total.
func clampScale(scale float64) float64 {
	if math.IsNaN(scale) || math.IsInf(scale, 0) || scale < 1 {
		return 1
	}
	return scale
}

// applyScale returns a copy of res with every count, quantity and cost
// multiplied by scale. Counts are rounded to the nearest integer and
// consumer percentages are unchanged.
func applyScale(res model.StatsResult, scale float64) model.StatsResult {
	out := res
	out.ProjectionScale = &scale

	out.CountsByCategory = make(map[model.Category]int, len(res.CountsByCategory))
	for c, n := range res.CountsByCategory {
		out.CountsByCategory[c] = scaleCount(n, scale)
	}
	out.QuantityByCategory = make(map[model.Category]float64, len(res.QuantityByCategory))
	for c, q := range res.QuantityByCategory {
		out.QuantityByCategory[c] = q * scale
	}
	out.CostByCategory = make(map[model.Category]float64, len(res.CostByCategory))
	for c, v := range res.CostByCategory {
		out.CostByCategory[c] = v * scale
	}
	out.TotalQuantity = res.TotalQuantity * scale
	out.TotalCost = res.TotalCost * scale

	out.Consumers = make([]model.ConsumerShare, len(res.Consumers))
	for i, cs := range res.Consumers {
		counts := make(map[model.Category]int, len(cs.Counts))
		for c, n := range cs.Counts {
			counts[c] = scaleCount(n, scale)
		}
		out.Consumers[i] = model.ConsumerShare{
			ConsumerID: cs.ConsumerID,
			Counts:     counts,
			Quantity:   cs.Quantity * scale,
			Cost:       cs.Cost * scale,
			Percentage: cs.Percentage,
		}
	}

	return out
}

func scaleCount(n int, scale float64) int {
	return int(math.Round(float64(n) * scale))
}
