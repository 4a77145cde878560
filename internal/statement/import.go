// Package statement is the statement import engine: it streams an uploaded
// tabular file through a record mapping, deduplicates the result against the
// most recently stored transactions for the account, and orders the survivors
// for persistence. Repeated imports of overlapping date ranges are idempotent.
package statement

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/mkacik/budget/internal/mapping"
	"github.com/mkacik/budget/internal/models"
)

// ImportError is a data-quality failure in the uploaded file. It aborts the
// whole import and carries the 0-based index of the offending row; callers
// should surface it as a bad request, not a server fault.
type ImportError struct {
	Row int
	Err error
}

func (e *ImportError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Row, e.Err)
}

func (e *ImportError) Unwrap() error {
	return e.Err
}

// ReadExpenses reads the statement file at path and applies the mapping row
// by row. Rows are comma-separated with no header and may vary in column
// count. A skipped row silently drops out of the result; any other mapping
// failure or a structurally malformed row aborts the whole import.
func ReadExpenses(path string, m *mapping.RecordMapping, accountID int64) ([]models.ExpenseFields, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening statement file: %w", err)
	}
	defer f.Close()

	return readExpenses(f, m, accountID)
}

func readExpenses(r io.Reader, m *mapping.RecordMapping, accountID int64) ([]models.ExpenseFields, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	var expenses []models.ExpenseFields
	for row := 0; ; row++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &ImportError{Row: row, Err: fmt.Errorf("malformed csv row: %w", err)}
		}

		expense, err := m.ToExpense(record, accountID)
		if err != nil {
			if errors.Is(err, mapping.ErrSkip) {
				continue
			}
			return nil, &ImportError{Row: row, Err: err}
		}
		expenses = append(expenses, expense)
	}

	return expenses, nil
}

// compareTime orders optional transaction times: no time sorts before any
// actual time on the same date.
func compareTime(a, b *string) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	default:
		return strings.Compare(*a, *b)
	}
}

// SortByOccurrence orders expenses by (transaction_date, transaction_time)
// ascending, in place.
func SortByOccurrence(expenses []models.ExpenseFields) {
	sort.SliceStable(expenses, func(i, j int) bool {
		a, b := expenses[i], expenses[j]
		if a.TransactionDate != b.TransactionDate {
			return a.TransactionDate < b.TransactionDate
		}
		return compareTime(a.TransactionTime, b.TransactionTime) < 0
	})
}
