package review

import (
	"sort"
	"strings"

	"github.com/BrunoRangell/app-muran-sub008/internal/model"

	"github.com/shopspring/decimal"
)

// FilterNeedsAdjustment keeps reviews where either basis recommends a change.
func FilterNeedsAdjustment(reviews []model.Review) []model.Review {
	var out []model.Review
	for _, r := range reviews {
		if r.NeedsAdjustment() {
			out = append(out, r)
		}
	}
	return out
}

// FilterByClient keeps reviews whose client name contains substr, ignoring case.
func FilterByClient(reviews []model.Review, substr string) []model.Review {
	if substr == "" {
		return reviews
	}
	substr = strings.ToLower(substr)
	var out []model.Review
	for _, r := range reviews {
		if strings.Contains(strings.ToLower(r.ClientName), substr) {
			out = append(out, r)
		}
	}
	return out
}

// SortByUrgency orders reviews by their largest recommended change, biggest first.
func SortByUrgency(reviews []model.Review) {
	sort.SliceStable(reviews, func(i, j int) bool {
		return urgency(reviews[i]).GreaterThan(urgency(reviews[j]))
	})
}

func urgency(r model.Review) decimal.Decimal {
	m := decimal.Zero
	if r.Current.Actionable() {
		m = r.Current.Magnitude
	}
	if r.Average.Actionable() && r.Average.Magnitude.GreaterThan(m) {
		m = r.Average.Magnitude
	}
	return m
}
