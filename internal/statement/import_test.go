package statement

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkacik/budget/internal/datetime"
	"github.com/mkacik/budget/internal/mapping"
	"github.com/mkacik/budget/internal/models"
)

func testMapping() *mapping.RecordMapping {
	return &mapping.RecordMapping{
		TransactionDate: mapping.DateField{Col: 0, TZ: datetime.Local},
		TransactionTime: mapping.TimeField{Variant: mapping.VariantEmpty},
		Description:     mapping.TextField{Col: 1},
		Amount:          mapping.AmountField{Variant: mapping.VariantFromColumn, Col: 2},
	}
}

func TestReadExpenses(t *testing.T) {
	statement := strings.Join([]string{
		`2025-02-04,Coffee,4.50`,
		`2025-02-05,"Lamp, tall",79.99`,
	}, "\n")

	expenses, err := readExpenses(strings.NewReader(statement), testMapping(), 7)
	require.NoError(t, err)
	require.Len(t, expenses, 2)

	assert.Equal(t, int64(7), expenses[0].AccountID)
	assert.Equal(t, "2025-02-04", expenses[0].TransactionDate)
	assert.Nil(t, expenses[0].TransactionTime)
	assert.Equal(t, "Coffee", expenses[0].Description)
	assert.True(t, decimal.NewFromFloat(4.50).Equal(expenses[0].Amount))

	assert.Equal(t, "Lamp, tall", expenses[1].Description)
}

func TestReadExpensesSkipsFlaggedRows(t *testing.T) {
	m := testMapping()
	m.Amount = mapping.AmountField{
		Variant:     mapping.VariantFromColumn,
		Col:         2,
		SkipPattern: strptr("PENDING"),
	}

	statement := strings.Join([]string{
		`2025-02-04,Coffee,4.50`,
		`2025-02-05,Groceries,PENDING`,
		`2025-02-06,Lunch,12.00`,
	}, "\n")

	expenses, err := readExpenses(strings.NewReader(statement), m, 1)
	require.NoError(t, err)
	require.Len(t, expenses, 2)
	assert.Equal(t, "Coffee", expenses[0].Description)
	assert.Equal(t, "Lunch", expenses[1].Description)
}

func TestReadExpensesBadRowAbortsWithRowIndex(t *testing.T) {
	statement := strings.Join([]string{
		`2025-02-04,Coffee,4.50`,
		`not a date,Lunch,12.00`,
	}, "\n")

	expenses, err := readExpenses(strings.NewReader(statement), testMapping(), 1)
	assert.Nil(t, expenses)

	var importErr *ImportError
	require.ErrorAs(t, err, &importErr)
	assert.Equal(t, 1, importErr.Row)
	assert.Contains(t, importErr.Error(), "row 1")
}

func TestReadExpensesMalformedCSV(t *testing.T) {
	statement := "2025-02-04,Coffee,4.50\n\"unterminated,12.00"

	_, err := readExpenses(strings.NewReader(statement), testMapping(), 1)

	var importErr *ImportError
	require.ErrorAs(t, err, &importErr)
	assert.Equal(t, 1, importErr.Row)
	assert.Contains(t, importErr.Error(), "malformed csv row")
}

func TestReadExpensesEmptyFile(t *testing.T) {
	expenses, err := readExpenses(strings.NewReader(""), testMapping(), 1)
	require.NoError(t, err)
	assert.Empty(t, expenses)
}

func TestReadExpensesFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "statement.csv")
	require.NoError(t, os.WriteFile(path, []byte("2025-02-04,Coffee,4.50\n"), 0o600))

	expenses, err := ReadExpenses(path, testMapping(), 3)
	require.NoError(t, err)
	require.Len(t, expenses, 1)
	assert.Equal(t, int64(3), expenses[0].AccountID)
}

func TestReadExpensesMissingFile(t *testing.T) {
	_, err := ReadExpenses(filepath.Join(t.TempDir(), "nope.csv"), testMapping(), 3)
	assert.Error(t, err)
}

func TestSortByOccurrence(t *testing.T) {
	expenses := []models.ExpenseFields{
		fields("2025-02-05", strptr("09:00:00"), "c", "1"),
		fields("2025-02-04", strptr("12:00:00"), "b", "1"),
		fields("2025-02-05", nil, "d", "1"),
		fields("2025-02-04", nil, "a", "1"),
	}

	SortByOccurrence(expenses)

	var order []string
	for _, e := range expenses {
		order = append(order, e.Description)
	}
	assert.Equal(t, []string{"a", "b", "d", "c"}, order)
}

func fields(date string, txTime *string, description string, amount string) models.ExpenseFields {
	return models.ExpenseFields{
		AccountID:       1,
		TransactionDate: date,
		TransactionTime: txTime,
		Description:     description,
		Amount:          decimal.RequireFromString(amount),
	}
}

func strptr(s string) *string {
	return &s
}
