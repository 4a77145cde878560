package repository

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/mkacik/budget/internal/models"
)

// Repository interface defines the methods that any repository implementation must satisfy
type Repository interface {
	// User operations
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)

	// Account operations
	CreateAccount(ctx context.Context, fields models.AccountFields) (*models.Account, error)
	GetAccount(ctx context.Context, id int64) (*models.Account, error)
	GetAccounts(ctx context.Context) ([]models.Account, error)
	UpdateAccount(ctx context.Context, id int64, fields models.AccountFields) error
	DeleteAccount(ctx context.Context, id int64) error

	// Statement schema operations
	CreateStatementSchema(ctx context.Context, fields models.StatementSchemaFields) (*models.StatementSchema, error)
	GetStatementSchema(ctx context.Context, id int64) (*models.StatementSchema, error)
	GetStatementSchemas(ctx context.Context) ([]models.StatementSchema, error)
	UpdateStatementSchema(ctx context.Context, id int64, fields models.StatementSchemaFields) error
	DeleteStatementSchema(ctx context.Context, id int64) error

	// Budget operations
	GetBudget(ctx context.Context) (*models.Budget, error)
	CreateBudgetCategory(ctx context.Context, name string) (*models.BudgetCategory, error)
	UpdateBudgetCategory(ctx context.Context, id int64, name string) error
	DeleteBudgetCategory(ctx context.Context, id int64) error
	CreateBudgetItem(ctx context.Context, categoryID int64, name string, amount models.BudgetAmount) (*models.BudgetItem, error)
	UpdateBudgetItem(ctx context.Context, id int64, categoryID int64, name string, amount models.BudgetAmount) error
	DeleteBudgetItem(ctx context.Context, id int64) error

	// Expense operations
	CreateExpenses(ctx context.Context, expenses []models.ExpenseFields) error
	GetExpenses(ctx context.Context, accountID int64) ([]models.Expense, error)
	GetExpense(ctx context.Context, id int64) (*models.Expense, error)
	SetExpenseBudgetItem(ctx context.Context, id int64, budgetItemID *int64) error
	DeleteExpense(ctx context.Context, id int64) error
	GetLatestExpenses(ctx context.Context, accountID int64) (*models.LatestExpenses, error)

	// Spending aggregation
	GetSpendingData(ctx context.Context, year int) ([]models.SpendingDataPoint, error)

	// Write log operations
	LogWriteStart(ctx context.Context, entry *models.WriteLogEntry) error
	LogWriteEnd(ctx context.Context, id int64, status string) error
}

// ErrNotFound is returned by mutating methods when the target row does not exist.
var ErrNotFound = errors.New("row not found")

// SQLiteRepository implements the Repository interface using SQLite
type SQLiteRepository struct {
	db *sqlx.DB
}

// NewSQLiteRepository creates a new SQLite repository
func NewSQLiteRepository(db *sqlx.DB) *SQLiteRepository {
	return &SQLiteRepository{
		db: db,
	}
}

// GetDB returns the underlying database connection
func (r *SQLiteRepository) GetDB() *sqlx.DB {
	return r.db
}

// User repository methods
func (r *SQLiteRepository) CreateUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, email, name, password, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	// Generate a new UUID if not provided
	if user.ID == "" {
		user.ID = uuid.New().String()
	}

	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, query,
		user.ID, user.Email, user.Name, user.Password, user.CreatedAt, user.UpdatedAt)

	return err
}

func (r *SQLiteRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT * FROM users WHERE email = ?`

	var user models.User
	err := r.db.GetContext(ctx, &user, query, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // User not found
		}
		return nil, err
	}

	return &user, nil
}

func (r *SQLiteRepository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT * FROM users WHERE id = ?`

	var user models.User
	err := r.db.GetContext(ctx, &user, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // User not found
		}
		return nil, err
	}

	return &user, nil
}

// Account repository methods
func (r *SQLiteRepository) CreateAccount(ctx context.Context, fields models.AccountFields) (*models.Account, error) {
	query := `INSERT INTO accounts (name, class, statement_schema_id) VALUES (?, ?, ?)`

	result, err := r.db.ExecContext(ctx, query, fields.Name, fields.Class, fields.StatementSchemaID)
	if err != nil {
		return nil, err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}

	return &models.Account{ID: id, AccountFields: fields}, nil
}

func (r *SQLiteRepository) GetAccount(ctx context.Context, id int64) (*models.Account, error) {
	query := `SELECT * FROM accounts WHERE id = ?`

	var account models.Account
	err := r.db.GetContext(ctx, &account, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Account not found
		}
		return nil, err
	}

	return &account, nil
}

func (r *SQLiteRepository) GetAccounts(ctx context.Context) ([]models.Account, error) {
	query := `SELECT * FROM accounts ORDER BY name ASC`

	var accounts []models.Account
	err := r.db.SelectContext(ctx, &accounts, query)
	if err != nil {
		return nil, err
	}

	return accounts, nil
}

func (r *SQLiteRepository) UpdateAccount(ctx context.Context, id int64, fields models.AccountFields) error {
	query := `UPDATE accounts SET name = ?, class = ?, statement_schema_id = ? WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, fields.Name, fields.Class, fields.StatementSchemaID, id)
	if err != nil {
		return err
	}

	return requireRowAffected(result)
}

func (r *SQLiteRepository) DeleteAccount(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, id)
	if err != nil {
		return err
	}

	return requireRowAffected(result)
}

// Statement schema repository methods
func (r *SQLiteRepository) CreateStatementSchema(ctx context.Context, fields models.StatementSchemaFields) (*models.StatementSchema, error) {
	query := `INSERT INTO statement_schemas (name, notes, record_mapping) VALUES (?, ?, ?)`

	result, err := r.db.ExecContext(ctx, query, fields.Name, fields.Notes, string(fields.RecordMapping))
	if err != nil {
		return nil, err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}

	return &models.StatementSchema{ID: id, StatementSchemaFields: fields}, nil
}

func (r *SQLiteRepository) GetStatementSchema(ctx context.Context, id int64) (*models.StatementSchema, error) {
	query := `SELECT * FROM statement_schemas WHERE id = ?`

	var schema models.StatementSchema
	err := r.db.GetContext(ctx, &schema, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Schema not found
		}
		return nil, err
	}

	return &schema, nil
}

func (r *SQLiteRepository) GetStatementSchemas(ctx context.Context) ([]models.StatementSchema, error) {
	query := `SELECT * FROM statement_schemas ORDER BY name ASC`

	var schemas []models.StatementSchema
	err := r.db.SelectContext(ctx, &schemas, query)
	if err != nil {
		return nil, err
	}

	return schemas, nil
}

func (r *SQLiteRepository) UpdateStatementSchema(ctx context.Context, id int64, fields models.StatementSchemaFields) error {
	query := `UPDATE statement_schemas SET name = ?, notes = ?, record_mapping = ? WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, fields.Name, fields.Notes, string(fields.RecordMapping), id)
	if err != nil {
		return err
	}

	return requireRowAffected(result)
}

func (r *SQLiteRepository) DeleteStatementSchema(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM statement_schemas WHERE id = ?`, id)
	if err != nil {
		return err
	}

	return requireRowAffected(result)
}

// Budget repository methods
func (r *SQLiteRepository) GetBudget(ctx context.Context) (*models.Budget, error) {
	var categories []models.BudgetCategory
	err := r.db.SelectContext(ctx, &categories, `SELECT * FROM budget_categories ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}

	var items []models.BudgetItem
	err = r.db.SelectContext(ctx, &items, `SELECT * FROM budget_items ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}

	return &models.Budget{Categories: categories, Items: items}, nil
}

func (r *SQLiteRepository) CreateBudgetCategory(ctx context.Context, name string) (*models.BudgetCategory, error) {
	result, err := r.db.ExecContext(ctx, `INSERT INTO budget_categories (name) VALUES (?)`, name)
	if err != nil {
		return nil, err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}

	return &models.BudgetCategory{ID: id, Name: name}, nil
}

func (r *SQLiteRepository) UpdateBudgetCategory(ctx context.Context, id int64, name string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE budget_categories SET name = ? WHERE id = ?`, name, id)
	if err != nil {
		return err
	}

	return requireRowAffected(result)
}

func (r *SQLiteRepository) DeleteBudgetCategory(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM budget_categories WHERE id = ?`, id)
	if err != nil {
		return err
	}

	return requireRowAffected(result)
}

func (r *SQLiteRepository) CreateBudgetItem(ctx context.Context, categoryID int64, name string, amount models.BudgetAmount) (*models.BudgetItem, error) {
	query := `INSERT INTO budget_items (category_id, name, amount) VALUES (?, ?, ?)`

	result, err := r.db.ExecContext(ctx, query, categoryID, name, amount)
	if err != nil {
		return nil, err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}

	return &models.BudgetItem{ID: id, CategoryID: categoryID, Name: name, Amount: amount}, nil
}

func (r *SQLiteRepository) UpdateBudgetItem(ctx context.Context, id int64, categoryID int64, name string, amount models.BudgetAmount) error {
	query := `UPDATE budget_items SET category_id = ?, name = ?, amount = ? WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, categoryID, name, amount, id)
	if err != nil {
		return err
	}

	return requireRowAffected(result)
}

func (r *SQLiteRepository) DeleteBudgetItem(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM budget_items WHERE id = ?`, id)
	if err != nil {
		return err
	}

	return requireRowAffected(result)
}

// Expense repository methods

// CreateExpenses persists an imported batch in a single transaction: either
// every expense lands or none do, so a failed import can be retried safely.
func (r *SQLiteRepository) CreateExpenses(ctx context.Context, expenses []models.ExpenseFields) error {
	if len(expenses) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if err != nil {
			tx.Rollback()
			return
		}
	}()

	query := `
		INSERT INTO expenses (account_id, transaction_date, transaction_time, description, amount, raw_csv)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	for _, expense := range expenses {
		_, err = tx.ExecContext(ctx, query,
			expense.AccountID, expense.TransactionDate, expense.TransactionTime,
			expense.Description, expense.Amount, expense.RawCSV)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *SQLiteRepository) GetExpenses(ctx context.Context, accountID int64) ([]models.Expense, error) {
	query := `
		SELECT * FROM expenses
		WHERE account_id = ?
		ORDER BY transaction_date DESC, transaction_time DESC, id DESC
	`

	var expenses []models.Expense
	err := r.db.SelectContext(ctx, &expenses, query, accountID)
	if err != nil {
		return nil, err
	}

	return expenses, nil
}

func (r *SQLiteRepository) GetExpense(ctx context.Context, id int64) (*models.Expense, error) {
	query := `SELECT * FROM expenses WHERE id = ?`

	var expense models.Expense
	err := r.db.GetContext(ctx, &expense, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Expense not found
		}
		return nil, err
	}

	return &expense, nil
}

func (r *SQLiteRepository) SetExpenseBudgetItem(ctx context.Context, id int64, budgetItemID *int64) error {
	result, err := r.db.ExecContext(ctx, `UPDATE expenses SET budget_item_id = ? WHERE id = ?`, budgetItemID, id)
	if err != nil {
		return err
	}

	return requireRowAffected(result)
}

func (r *SQLiteRepository) DeleteExpense(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = ?`, id)
	if err != nil {
		return err
	}

	return requireRowAffected(result)
}

// GetLatestExpenses returns every stored expense sharing the most recent
// transaction date for the account, or nil when the account has no expenses.
func (r *SQLiteRepository) GetLatestExpenses(ctx context.Context, accountID int64) (*models.LatestExpenses, error) {
	var date sql.NullString
	err := r.db.GetContext(ctx, &date,
		`SELECT MAX(transaction_date) FROM expenses WHERE account_id = ?`, accountID)
	if err != nil {
		return nil, err
	}
	if !date.Valid {
		return nil, nil // No expenses stored yet
	}

	query := `SELECT * FROM expenses WHERE account_id = ? AND transaction_date = ?`

	var transactions []models.Expense
	err = r.db.SelectContext(ctx, &transactions, query, accountID, date.String)
	if err != nil {
		return nil, err
	}

	return &models.LatestExpenses{Date: date.String, Transactions: transactions}, nil
}

// Spending aggregation

// GetSpendingData sums categorized expenses per (budget item, month) for one
// calendar year. Uncategorized expenses are excluded.
func (r *SQLiteRepository) GetSpendingData(ctx context.Context, year int) ([]models.SpendingDataPoint, error) {
	query := `
		SELECT budget_item_id, substr(transaction_date, 1, 7) AS month, SUM(CAST(amount AS REAL)) AS amount
		FROM expenses
		WHERE budget_item_id IS NOT NULL AND substr(transaction_date, 1, 4) = ?
		GROUP BY budget_item_id, month
		ORDER BY month ASC, budget_item_id ASC
	`

	var data []models.SpendingDataPoint
	err := r.db.SelectContext(ctx, &data, query, strconv.Itoa(year))
	if err != nil {
		return nil, err
	}

	return data, nil
}

// Write log repository methods
func (r *SQLiteRepository) LogWriteStart(ctx context.Context, entry *models.WriteLogEntry) error {
	query := `
		INSERT INTO write_log (uri, method, username, content, start_ts)
		VALUES (?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		entry.URI, entry.Method, entry.Username, entry.Content, entry.StartTS)
	if err != nil {
		return err
	}

	entry.ID, err = result.LastInsertId()
	return err
}

func (r *SQLiteRepository) LogWriteEnd(ctx context.Context, id int64, status string) error {
	query := `UPDATE write_log SET status = ?, end_ts = ? WHERE id = ?`

	_, err := r.db.ExecContext(ctx, query, status, time.Now().Unix(), id)
	return err
}

func requireRowAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
