package pipeline

import (
	"sort"
	"time"

	"github.com/theirongolddev/stashstat/internal/model"
)

// Aggregate folds records into per-category counts, quantities and costs and
// a per-consumer breakdown. Only the aggregate fields of the result are set;
// mode, period, scope and window are left to the caller.
//
// The breakdown is sorted by quantity descending and is empty when the total
// quantity is zero.
func Aggregate(records []model.ActivityRecord) model.StatsResult {
	res := model.EmptyResult(model.StatsRequest{}, time.Time{}, time.Time{})

	consumers := make(map[string]*model.ConsumerShare)
	for _, r := range records {
		res.CountsByCategory[r.Category]++
		res.QuantityByCategory[r.Category] += r.Quantity
		res.CostByCategory[r.Category] += r.Cost
		res.TotalQuantity += r.Quantity
		res.TotalCost += r.Cost

		cs, ok := consumers[r.ConsumerID]
		if !ok {
			cs = &model.ConsumerShare{
				ConsumerID: r.ConsumerID,
				Counts:     zeroCounts(),
			}
			consumers[r.ConsumerID] = cs
		}
		cs.Counts[r.Category]++
		cs.Quantity += r.Quantity
		cs.Cost += r.Cost
	}

	if res.TotalQuantity <= 0 {
		return res
	}

	shares := make([]model.ConsumerShare, 0, len(consumers))
	for _, cs := range consumers {
		cs.Percentage = cs.Quantity / res.TotalQuantity * 100
		shares = append(shares, *cs)
	}
	sort.Slice(shares, func(i, j int) bool {
		if shares[i].Quantity != shares[j].Quantity {
			return shares[i].Quantity > shares[j].Quantity
		}
		return shares[i].ConsumerID < shares[j].ConsumerID
	})
	res.Consumers = shares

	return res
}

func zeroCounts() map[model.Category]int {
	counts := make(map[model.Category]int, len(model.AllCategories))
	for _, c := range model.AllCategories {
		counts[c] = 0
	}
	return counts
}

// timeBounds returns the earliest and latest record timestamps.
func timeBounds(records []model.ActivityRecord) (first, last time.Time) {
	for i, r := range records {
		if i == 0 || r.Timestamp.Before(first) {
			first = r.Timestamp
		}
		if i == 0 || r.Timestamp.After(last) {
			last = r.Timestamp
		}
	}
	return first, last
}
