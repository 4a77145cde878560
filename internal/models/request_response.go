package models

import "encoding/json"

// Request models
type SignUpRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Name     string `json:"name" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type AccountRequest struct {
	Name              string       `json:"name" binding:"required"`
	Class             AccountClass `json:"class" binding:"required"`
	StatementSchemaID *int64       `json:"statement_schema_id"`
}

type StatementSchemaRequest struct {
	Name          string          `json:"name" binding:"required"`
	Notes         string          `json:"notes"`
	RecordMapping json.RawMessage `json:"record_mapping" binding:"required"`
}

type BudgetCategoryRequest struct {
	Name string `json:"name" binding:"required"`
}

type BudgetItemRequest struct {
	CategoryID int64        `json:"category_id" binding:"required"`
	Name       string       `json:"name" binding:"required"`
	Amount     BudgetAmount `json:"amount" binding:"required"`
}

// UpdateExpenseRequest assigns or clears the budget item for one expense.
type UpdateExpenseRequest struct {
	BudgetItemID *int64 `json:"budget_item_id"`
}

// TestSchemaRequest asks to run a schema against one pasted sample row
// without persisting anything.
type TestSchemaRequest struct {
	Schema StatementSchemaFields `json:"schema" binding:"required"`
	Row    string                `json:"row" binding:"required"`
}

// TestSchemaResult is the outcome tag of a schema test run.
type TestSchemaResult string

const (
	TestSchemaSuccess TestSchemaResult = "Success"
	TestSchemaSkip    TestSchemaResult = "Skip"
	TestSchemaError   TestSchemaResult = "Error"
)

type TestSchemaResponse struct {
	Result  TestSchemaResult `json:"result"`
	Error   *string          `json:"error"`
	Expense *ExpenseFields   `json:"expense"`
}

// Response models
type AuthResponse struct {
	Status    string `json:"status"`
	UserID    string `json:"userId,omitempty"`
	Email     string `json:"email,omitempty"`
	Name      string `json:"name,omitempty"`
	Token     string `json:"token,omitempty"`
	ExpiresIn int    `json:"expiresIn,omitempty"`
}

type ImportResponse struct {
	Status   string `json:"status"`
	Imported int    `json:"imported"`
}

type ErrorResponse struct {
	Status  string `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}
