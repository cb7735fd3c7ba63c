package budget

import (
	"time"

	"github.com/BrunoRangell/app-muran-sub008/internal/model"
)

// SelectActiveCustomBudget picks the custom budget that overrides the
// monthly cycle on today, or nil when none applies.
//
// Candidates must be active and contain today. When accountID is set, a
// budget scoped to that account wins over a client-wide one and budgets
// of other accounts are ignored. The most recently created budget wins
// within a scope, or among all candidates when accountID is empty.
func SelectActiveCustomBudget(candidates []model.CustomBudget, today time.Time, accountID string) *model.CustomBudget {
	var scoped, wide *model.CustomBudget

	for i := range candidates {
		c := &candidates[i]
		if !c.IsActive {
			continue
		}
		if !(DateRange{Start: c.StartDate, End: c.EndDate}).Contains(today) {
			continue
		}

		switch {
		case accountID == "" || c.ClientWide():
			wide = newer(wide, c)
		case c.AccountID == accountID:
			scoped = newer(scoped, c)
		}
	}

	pick := scoped
	if pick == nil {
		pick = wide
	}
	if pick == nil {
		return nil
	}
	out := *pick
	return &out
}

func newer(cur, cand *model.CustomBudget) *model.CustomBudget {
	if cur == nil || cand.CreatedAt.After(cur.CreatedAt) {
		return cand
	}
	return cur
}
