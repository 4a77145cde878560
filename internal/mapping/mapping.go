// Package mapping turns one raw statement row into canonical expense fields.
//
// A RecordMapping is the serializable contract between an arbitrary tabular
// export format and the expense shape: one extractor per output field, each a
// closed set of strategies. The {"variant": ..., "params": {...}} JSON shape
// is consumed by the interactive schema editor in the UI and must stay stable
// byte for byte.
package mapping

import (
	"strings"

	"github.com/mkacik/budget/internal/models"
)

// Separator joins the original row fields inside ExpenseFields.RawCSV.
// U+241F (symbol for unit separator) cannot appear in normal statement text,
// so splitting on it reconstructs the original row exactly.
const Separator = "␟"

// RecordMapping maps raw statement columns onto the canonical expense fields.
type RecordMapping struct {
	TransactionDate DateField   `json:"transaction_date"`
	TransactionTime TimeField   `json:"transaction_time"`
	Description     TextField   `json:"description"`
	Amount          AmountField `json:"amount"`
}

// ToExpense applies the mapping to one parsed row. Extractors run in a fixed
// order (date, time, description, amount) and the first failure wins; ErrSkip
// from any extractor marks the whole row as intentionally excluded. Pure:
// no side effects, same inputs always give the same result.
func (m *RecordMapping) ToExpense(record []string, accountID int64) (models.ExpenseFields, error) {
	transactionDate, err := m.TransactionDate.fromRecord(record)
	if err != nil {
		return models.ExpenseFields{}, err
	}
	transactionTime, err := m.TransactionTime.fromRecord(record)
	if err != nil {
		return models.ExpenseFields{}, err
	}
	description, err := m.Description.fromRecord(record)
	if err != nil {
		return models.ExpenseFields{}, err
	}
	amount, err := m.Amount.fromRecord(record)
	if err != nil {
		return models.ExpenseFields{}, err
	}

	raw := strings.Join(record, Separator)

	return models.ExpenseFields{
		AccountID:       accountID,
		TransactionDate: transactionDate,
		TransactionTime: transactionTime,
		Description:     description,
		Amount:          amount,
		RawCSV:          &raw,
	}, nil
}
