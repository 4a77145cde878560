package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

const (
	weeksPerYear  = 52
	monthsPerYear = 12
)

// BudgetAmount cadence variants. The tag set is closed; the schema editor UI
// round-trips these exact names.
const (
	BudgetWeekly      = "Weekly"
	BudgetMonthly     = "Monthly"
	BudgetYearly      = "Yearly"
	BudgetEveryXYears = "EveryXYears"
)

// BudgetAmount is a budgeted dollar amount with a cadence. Serialized as
// {"variant": ..., "params": {...}} and stored in a TEXT column as that JSON.
type BudgetAmount struct {
	Variant string
	Amount  decimal.Decimal
	X       int64 // EveryXYears only
}

// PerYear returns the amount normalized to a yearly figure.
func (a BudgetAmount) PerYear() decimal.Decimal {
	switch a.Variant {
	case BudgetWeekly:
		return a.Amount.Mul(decimal.NewFromInt(weeksPerYear))
	case BudgetMonthly:
		return a.Amount.Mul(decimal.NewFromInt(monthsPerYear))
	case BudgetEveryXYears:
		return a.Amount.Div(decimal.NewFromInt(a.X))
	default:
		return a.Amount
	}
}

// PerMonth returns the amount normalized to a monthly figure.
func (a BudgetAmount) PerMonth() decimal.Decimal {
	return a.PerYear().Div(decimal.NewFromInt(monthsPerYear))
}

type budgetAmountEnvelope struct {
	Variant string          `json:"variant"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type budgetAmountParams struct {
	Amount decimal.Decimal `json:"amount"`
}

type everyXYearsParams struct {
	X      int64           `json:"x"`
	Amount decimal.Decimal `json:"amount"`
}

func (a BudgetAmount) MarshalJSON() ([]byte, error) {
	var params any
	switch a.Variant {
	case BudgetWeekly, BudgetMonthly, BudgetYearly:
		params = budgetAmountParams{Amount: a.Amount}
	case BudgetEveryXYears:
		params = everyXYearsParams{X: a.X, Amount: a.Amount}
	default:
		return nil, fmt.Errorf("unknown budget amount variant %q", a.Variant)
	}

	raw, err := json.Marshal(params)
	if err != nil {
		return nil, err
	}
	return json.Marshal(budgetAmountEnvelope{Variant: a.Variant, Params: raw})
}

func (a *BudgetAmount) UnmarshalJSON(data []byte) error {
	var envelope budgetAmountEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return err
	}

	switch envelope.Variant {
	case BudgetWeekly, BudgetMonthly, BudgetYearly:
		var params budgetAmountParams
		if err := json.Unmarshal(envelope.Params, &params); err != nil {
			return err
		}
		*a = BudgetAmount{Variant: envelope.Variant, Amount: params.Amount}
	case BudgetEveryXYears:
		var params everyXYearsParams
		if err := json.Unmarshal(envelope.Params, &params); err != nil {
			return err
		}
		if params.X <= 0 {
			return fmt.Errorf("EveryXYears budget amount needs a positive x, got %d", params.X)
		}
		*a = BudgetAmount{Variant: envelope.Variant, Amount: params.Amount, X: params.X}
	default:
		return fmt.Errorf("unknown budget amount variant %q", envelope.Variant)
	}
	return nil
}

// Value stores the amount as its wire JSON in a TEXT column.
func (a BudgetAmount) Value() (driver.Value, error) {
	raw, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

// Scan restores the amount from its stored JSON.
func (a *BudgetAmount) Scan(src any) error {
	switch v := src.(type) {
	case string:
		return json.Unmarshal([]byte(v), a)
	case []byte:
		return json.Unmarshal(v, a)
	default:
		return fmt.Errorf("cannot scan %T into BudgetAmount", src)
	}
}

// BudgetCategory groups budget items for display.
type BudgetCategory struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// BudgetItem is one budgeted line with a cadence amount.
type BudgetItem struct {
	ID         int64        `db:"id" json:"id"`
	CategoryID int64        `db:"category_id" json:"category_id"`
	Name       string       `db:"name" json:"name"`
	Amount     BudgetAmount `db:"amount" json:"amount"`
}

// Budget is the full budget: every category and every item.
type Budget struct {
	Categories []BudgetCategory `json:"categories"`
	Items      []BudgetItem     `json:"items"`
}

// PerYear sums all item amounts normalized to a year.
func (b *Budget) PerYear() decimal.Decimal {
	total := decimal.Zero
	for _, item := range b.Items {
		total = total.Add(item.Amount.PerYear())
	}
	return total
}

// PerMonth sums all item amounts normalized to a month.
func (b *Budget) PerMonth() decimal.Decimal {
	return b.PerYear().Div(decimal.NewFromInt(monthsPerYear))
}
