package statement

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkacik/budget/internal/mapping"
	"github.com/mkacik/budget/internal/models"
)

func TestSchemaSuccess(t *testing.T) {
	response := TestSchema(testMapping(), `2025-02-04,"Lamp, tall",79.99`)

	assert.Equal(t, models.TestSchemaSuccess, response.Result)
	assert.Nil(t, response.Error)
	require.NotNil(t, response.Expense)
	assert.Equal(t, "2025-02-04", response.Expense.TransactionDate)
	assert.Equal(t, "Lamp, tall", response.Expense.Description)
	assert.True(t, decimal.NewFromFloat(79.99).Equal(response.Expense.Amount))
}

func TestSchemaSkip(t *testing.T) {
	m := testMapping()
	m.Amount = mapping.AmountField{
		Variant:     mapping.VariantFromColumn,
		Col:         2,
		SkipPattern: strptr("PENDING"),
	}

	response := TestSchema(m, `2025-02-04,Groceries,PENDING`)

	assert.Equal(t, models.TestSchemaSkip, response.Result)
	assert.Nil(t, response.Error)
	assert.Nil(t, response.Expense)
}

func TestSchemaMappingError(t *testing.T) {
	response := TestSchema(testMapping(), `not a date,Coffee,4.50`)

	assert.Equal(t, models.TestSchemaError, response.Result)
	require.NotNil(t, response.Error)
	assert.Contains(t, *response.Error, "not a date")
	assert.Nil(t, response.Expense)
}

func TestSchemaEmptyRow(t *testing.T) {
	response := TestSchema(testMapping(), "")

	assert.Equal(t, models.TestSchemaError, response.Result)
	require.NotNil(t, response.Error)
	assert.Equal(t, "test row is empty", *response.Error)
}

func TestSchemaUnparseableRow(t *testing.T) {
	response := TestSchema(testMapping(), `"unterminated,4.50`)

	assert.Equal(t, models.TestSchemaError, response.Result)
	require.NotNil(t, response.Error)
	assert.Equal(t, "could not parse test row as csv", *response.Error)
}
