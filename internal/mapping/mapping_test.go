package mapping

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkacik/budget/internal/datetime"
)

func testMapping() *RecordMapping {
	return &RecordMapping{
		TransactionDate: DateField{Col: 1, TZ: datetime.Local},
		TransactionTime: TimeField{Variant: VariantFromColumn, Col: 1, TZ: datetime.Local},
		Description:     TextField{Col: 2},
		Amount:          AmountField{Variant: VariantFromColumn, Col: 3},
	}
}

func TestToExpense(t *testing.T) {
	record := []string{"", "2025-02-04T23:41:32.506Z", "Lamp 64\"", "79.99"}

	expense, err := testMapping().ToExpense(record, 7)
	require.NoError(t, err)

	assert.Equal(t, int64(7), expense.AccountID)
	assert.Equal(t, "2025-02-04", expense.TransactionDate)
	require.NotNil(t, expense.TransactionTime)
	assert.Equal(t, "17:41:32", *expense.TransactionTime)
	assert.Equal(t, "Lamp 64\"", expense.Description)
	assert.True(t, expense.Amount.Equal(decimal.RequireFromString("79.99")))
	require.NotNil(t, expense.RawCSV)
}

func TestToExpenseShortCircuitsOnFirstFailure(t *testing.T) {
	record := []string{"", "not a date", "desc", "also not an amount"}

	_, err := testMapping().ToExpense(record, 1)
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, KindDate, parseErr.Kind)
}

func TestToExpensePropagatesSkip(t *testing.T) {
	m := testMapping()
	m.Amount.SkipPattern = strptr("No transaction")
	record := []string{"", "2025-02-04", "desc", "No transaction available"}

	_, err := m.ToExpense(record, 1)
	assert.ErrorIs(t, err, ErrSkip)
}

func TestRawCSVRoundTrip(t *testing.T) {
	// Fields containing commas, quotes and separator-lookalike text must
	// survive the join/split cycle byte for byte.
	record := []string{"", "2025-02-04T23:41:32.506Z", "Lamp 64\"", "one, \"two\"", "79.99"}

	m := &RecordMapping{
		TransactionDate: DateField{Col: 1, TZ: datetime.Local},
		TransactionTime: TimeField{Variant: VariantEmpty},
		Description:     TextField{Col: 2},
		Amount:          AmountField{Variant: VariantFromColumn, Col: 4},
	}

	expense, err := m.ToExpense(record, 1)
	require.NoError(t, err)
	require.NotNil(t, expense.RawCSV)

	reconstructed := strings.Split(*expense.RawCSV, Separator)
	assert.Equal(t, record, reconstructed)
}

func TestToExpenseEmptyTime(t *testing.T) {
	m := testMapping()
	m.TransactionTime = TimeField{Variant: VariantEmpty}
	record := []string{"", "2/4/2025", "desc", "5.00"}

	expense, err := m.ToExpense(record, 1)
	require.NoError(t, err)
	assert.Nil(t, expense.TransactionTime)
}
