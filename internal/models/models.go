package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Amounts travel over the wire as bare JSON numbers; the schema editor UI
	// and stored record mappings depend on that shape.
	decimal.MarshalJSONWithoutQuotes = true
}

// User represents a user in the system
type User struct {
	ID        string    `db:"id" json:"id"`
	Email     string    `db:"email" json:"email"`
	Name      string    `db:"name" json:"name"`
	Password  string    `db:"password" json:"-"` // Password hash, not returned in JSON
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// AccountClass groups accounts by the kind of statement they export.
type AccountClass string

const (
	AccountBank       AccountClass = "Bank"
	AccountCreditCard AccountClass = "CreditCard"
	AccountShop       AccountClass = "Shop"
)

// Valid reports whether c is one of the known account classes.
func (c AccountClass) Valid() bool {
	switch c {
	case AccountBank, AccountCreditCard, AccountShop:
		return true
	}
	return false
}

// AccountFields is the user-editable part of an account. An account references
// at most one statement schema; deleting or repointing the account never
// touches the schema itself.
type AccountFields struct {
	Name              string       `db:"name" json:"name"`
	Class             AccountClass `db:"class" json:"class"`
	StatementSchemaID *int64       `db:"statement_schema_id" json:"statement_schema_id"`
}

// Account represents a bank account, credit card or shop login that
// statements are imported for.
type Account struct {
	ID int64 `db:"id" json:"id"`
	AccountFields
}

// Accounts wraps the account list for API responses.
type Accounts struct {
	Accounts []Account `json:"accounts"`
}

// StatementSchemaFields is the user-editable part of a statement schema.
// RecordMapping is kept as raw JSON so the exact bytes the schema editor
// emitted round-trip through storage unchanged; it is decoded into a typed
// mapping only when a statement is imported or a schema is validated.
type StatementSchemaFields struct {
	Name          string          `db:"name" json:"name"`
	Notes         string          `db:"notes" json:"notes"`
	RecordMapping json.RawMessage `db:"record_mapping" json:"record_mapping"`
}

// StatementSchema is a named, persisted mapping from one raw statement format
// to canonical expense fields. Owned by zero or more accounts.
type StatementSchema struct {
	ID int64 `db:"id" json:"id"`
	StatementSchemaFields
}

// StatementSchemas wraps the schema list for API responses.
type StatementSchemas struct {
	Schemas []StatementSchema `json:"schemas"`
}

// ExpenseFields is the canonical record produced by applying a statement
// schema to one raw row. TransactionDate is always rendered in the display
// timezone. RawCSV preserves the original row, fields joined with a private
// separator, for audit and debugging.
type ExpenseFields struct {
	AccountID       int64           `db:"account_id" json:"account_id"`
	TransactionDate string          `db:"transaction_date" json:"transaction_date"`
	TransactionTime *string         `db:"transaction_time" json:"transaction_time"`
	Description     string          `db:"description" json:"description"`
	Amount          decimal.Decimal `db:"amount" json:"amount"`
	RawCSV          *string         `db:"raw_csv" json:"raw_csv"`
}

// Expense is a persisted expense row. Created only by the import pipeline;
// afterwards only the budget item assignment is mutated.
type Expense struct {
	ID           int64  `db:"id" json:"id"`
	BudgetItemID *int64 `db:"budget_item_id" json:"budget_item_id"`
	ExpenseFields
}

// Expenses wraps the expense list for API responses.
type Expenses struct {
	Expenses []Expense `json:"expenses"`
}

// LatestExpenses holds the most recent transaction date stored for an account
// and every expense sharing that date. Input to the deduplication pass; never
// persisted itself.
type LatestExpenses struct {
	Date         string
	Transactions []Expense
}

// SpendingDataPoint is one (budget item, month) aggregate.
type SpendingDataPoint struct {
	BudgetItemID int64           `db:"budget_item_id" json:"budget_item_id"`
	Month        string          `db:"month" json:"month"`
	Amount       decimal.Decimal `db:"amount" json:"amount"`
}

// SpendingData wraps the spending aggregates for API responses.
type SpendingData struct {
	Data []SpendingDataPoint `json:"data"`
}

// WriteLogEntry records one mutating API request for auditing.
type WriteLogEntry struct {
	ID       int64   `db:"id"`
	URI      string  `db:"uri"`
	Method   string  `db:"method"`
	Username string  `db:"username"`
	Content  *string `db:"content"`
	Status   *string `db:"status"`
	StartTS  int64   `db:"start_ts"`
	EndTS    *int64  `db:"end_ts"`
}
