package statement

import (
	"github.com/mkacik/budget/internal/models"
)

// Deduplicate drops freshly parsed expenses that are already stored for the
// account. The stored side is only the most recent transaction date and its
// transactions, so everything on an earlier date is assumed stored and
// discarded, everything on a later date is assumed new and kept, and rows on
// the boundary date are matched individually against the stored ones.
//
// Matching compares date, time, description and amount. Two legitimately
// identical purchases on the boundary date collapse into one, and a statement
// whose raw text changed between downloads still matches; both are accepted
// costs of not having a stable transaction id in the source data.
func Deduplicate(fresh []models.ExpenseFields, latest *models.LatestExpenses) []models.ExpenseFields {
	if latest == nil {
		return fresh
	}

	var newer []models.ExpenseFields
	var candidates []models.ExpenseFields
	for _, expense := range fresh {
		switch {
		case expense.TransactionDate > latest.Date:
			newer = append(newer, expense)
		case expense.TransactionDate == latest.Date:
			candidates = append(candidates, expense)
		}
	}

	stored := make([]models.Expense, len(latest.Transactions))
	copy(stored, latest.Transactions)

	result := newer
	for _, candidate := range candidates {
		var removed bool
		stored, removed = removeFirstMatch(stored, candidate)
		if !removed {
			result = append(result, candidate)
		}
	}

	return result
}

// removeFirstMatch removes the first stored expense matching the candidate
// and reports whether one was found. Each stored row can absorb only one
// candidate, so duplicated purchases within a statement survive correctly.
func removeFirstMatch(stored []models.Expense, candidate models.ExpenseFields) ([]models.Expense, bool) {
	for i, expense := range stored {
		if isDuplicate(expense.ExpenseFields, candidate) {
			return append(stored[:i], stored[i+1:]...), true
		}
	}
	return stored, false
}

func isDuplicate(a, b models.ExpenseFields) bool {
	return a.TransactionDate == b.TransactionDate &&
		compareTime(a.TransactionTime, b.TransactionTime) == 0 &&
		a.Description == b.Description &&
		a.Amount.Equal(b.Amount)
}
