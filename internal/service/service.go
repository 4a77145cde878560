package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/mkacik/budget/internal/mapping"
	"github.com/mkacik/budget/internal/models"
	"github.com/mkacik/budget/internal/repository"
	"github.com/mkacik/budget/internal/statement"
)

// Service defines all the business logic operations
type Service interface {
	// Authentication
	SignUp(ctx context.Context, req models.SignUpRequest) (*models.AuthResponse, error)
	Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error)

	// Account operations
	CreateAccount(ctx context.Context, req models.AccountRequest) (*models.Account, error)
	GetAccounts(ctx context.Context) (*models.Accounts, error)
	UpdateAccount(ctx context.Context, id int64, req models.AccountRequest) (*models.Account, error)
	DeleteAccount(ctx context.Context, id int64) error

	// Statement schema operations
	CreateSchema(ctx context.Context, req models.StatementSchemaRequest) (*models.StatementSchema, error)
	GetSchemas(ctx context.Context) (*models.StatementSchemas, error)
	UpdateSchema(ctx context.Context, id int64, req models.StatementSchemaRequest) (*models.StatementSchema, error)
	DeleteSchema(ctx context.Context, id int64) error
	TestSchema(ctx context.Context, req models.TestSchemaRequest) (*models.TestSchemaResponse, error)

	// Statement import
	ImportStatement(ctx context.Context, accountID int64, path string) (*models.ImportResponse, error)

	// Expense operations
	GetExpenses(ctx context.Context, accountID int64) (*models.Expenses, error)
	UpdateExpense(ctx context.Context, id int64, req models.UpdateExpenseRequest) error
	DeleteExpense(ctx context.Context, id int64) error

	// Budget operations
	GetBudget(ctx context.Context) (*models.Budget, error)
	CreateBudgetCategory(ctx context.Context, req models.BudgetCategoryRequest) (*models.BudgetCategory, error)
	UpdateBudgetCategory(ctx context.Context, id int64, req models.BudgetCategoryRequest) error
	DeleteBudgetCategory(ctx context.Context, id int64) error
	CreateBudgetItem(ctx context.Context, req models.BudgetItemRequest) (*models.BudgetItem, error)
	UpdateBudgetItem(ctx context.Context, id int64, req models.BudgetItemRequest) error
	DeleteBudgetItem(ctx context.Context, id int64) error

	// Spending aggregation
	GetSpendingData(ctx context.Context, year int) (*models.SpendingData, error)
}

// DefaultService implements the Service interface
type DefaultService struct {
	repo          repository.Repository
	jwtSecret     []byte
	tokenDuration time.Duration
}

// NewDefaultService creates a new DefaultService
func NewDefaultService(repo repository.Repository, jwtSecret string) Service {
	return &DefaultService{
		repo:          repo,
		jwtSecret:     []byte(jwtSecret),
		tokenDuration: 24 * time.Hour, // 24 hours token validity
	}
}

// Authentication methods
func (s *DefaultService) SignUp(ctx context.Context, req models.SignUpRequest) (*models.AuthResponse, error) {
	// Check if user already exists
	existingUser, err := s.repo.GetUserByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("error checking user existence: %w", err)
	}

	if existingUser != nil {
		return nil, &ValidationError{Message: "user with this email already exists"}
	}

	// Hash the password
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	// Create the user
	user := &models.User{
		ID:       uuid.New().String(),
		Email:    req.Email,
		Name:     req.Name,
		Password: string(hashedPassword),
	}

	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	return &models.AuthResponse{
		Status: "success",
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.Name,
	}, nil
}

func (s *DefaultService) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	// Get the user
	user, err := s.repo.GetUserByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("error getting user: %w", err)
	}

	if user == nil {
		return nil, &ValidationError{Message: "invalid email or password"}
	}

	// Verify password
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, &ValidationError{Message: "invalid email or password"}
	}

	// Generate JWT token
	token, err := s.generateJWT(user)
	if err != nil {
		return nil, fmt.Errorf("error generating token: %w", err)
	}

	return &models.AuthResponse{
		Status:    "success",
		UserID:    user.ID,
		Token:     token,
		ExpiresIn: int(s.tokenDuration.Seconds()),
	}, nil
}

// Account operations
func (s *DefaultService) CreateAccount(ctx context.Context, req models.AccountRequest) (*models.Account, error) {
	fields, err := s.accountFields(ctx, req)
	if err != nil {
		return nil, err
	}

	account, err := s.repo.CreateAccount(ctx, *fields)
	if err != nil {
		return nil, fmt.Errorf("error creating account: %w", err)
	}

	return account, nil
}

func (s *DefaultService) GetAccounts(ctx context.Context) (*models.Accounts, error) {
	accounts, err := s.repo.GetAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing accounts: %w", err)
	}

	return &models.Accounts{Accounts: accounts}, nil
}

func (s *DefaultService) UpdateAccount(ctx context.Context, id int64, req models.AccountRequest) (*models.Account, error) {
	fields, err := s.accountFields(ctx, req)
	if err != nil {
		return nil, err
	}

	if err := s.repo.UpdateAccount(ctx, id, *fields); err != nil {
		return nil, mapRepoError(err, "error updating account")
	}

	return &models.Account{ID: id, AccountFields: *fields}, nil
}

func (s *DefaultService) DeleteAccount(ctx context.Context, id int64) error {
	if err := s.repo.DeleteAccount(ctx, id); err != nil {
		return mapRepoError(err, "error deleting account")
	}
	return nil
}

// accountFields validates an account request. The referenced schema must
// exist; the account class is a closed set.
func (s *DefaultService) accountFields(ctx context.Context, req models.AccountRequest) (*models.AccountFields, error) {
	if !req.Class.Valid() {
		return nil, validationErrorf("unknown account class %q", req.Class)
	}

	if req.StatementSchemaID != nil {
		schema, err := s.repo.GetStatementSchema(ctx, *req.StatementSchemaID)
		if err != nil {
			return nil, fmt.Errorf("error getting statement schema: %w", err)
		}
		if schema == nil {
			return nil, validationErrorf("statement schema %d does not exist", *req.StatementSchemaID)
		}
	}

	return &models.AccountFields{
		Name:              req.Name,
		Class:             req.Class,
		StatementSchemaID: req.StatementSchemaID,
	}, nil
}

// Statement schema operations
func (s *DefaultService) CreateSchema(ctx context.Context, req models.StatementSchemaRequest) (*models.StatementSchema, error) {
	fields, err := schemaFields(req)
	if err != nil {
		return nil, err
	}

	schema, err := s.repo.CreateStatementSchema(ctx, *fields)
	if err != nil {
		return nil, fmt.Errorf("error creating statement schema: %w", err)
	}

	return schema, nil
}

func (s *DefaultService) GetSchemas(ctx context.Context) (*models.StatementSchemas, error) {
	schemas, err := s.repo.GetStatementSchemas(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing statement schemas: %w", err)
	}

	return &models.StatementSchemas{Schemas: schemas}, nil
}

func (s *DefaultService) UpdateSchema(ctx context.Context, id int64, req models.StatementSchemaRequest) (*models.StatementSchema, error) {
	fields, err := schemaFields(req)
	if err != nil {
		return nil, err
	}

	if err := s.repo.UpdateStatementSchema(ctx, id, *fields); err != nil {
		return nil, mapRepoError(err, "error updating statement schema")
	}

	return &models.StatementSchema{ID: id, StatementSchemaFields: *fields}, nil
}

func (s *DefaultService) DeleteSchema(ctx context.Context, id int64) error {
	if err := s.repo.DeleteStatementSchema(ctx, id); err != nil {
		return mapRepoError(err, "error deleting statement schema")
	}
	return nil
}

func (s *DefaultService) TestSchema(ctx context.Context, req models.TestSchemaRequest) (*models.TestSchemaResponse, error) {
	m, err := mapping.Parse(req.Schema.RecordMapping)
	if err != nil {
		return nil, validationErrorf("invalid record mapping: %v", err)
	}

	response := statement.TestSchema(m, req.Row)
	return &response, nil
}

// schemaFields validates a schema request. The record mapping must parse into
// a complete typed mapping; the raw bytes are what gets stored.
func schemaFields(req models.StatementSchemaRequest) (*models.StatementSchemaFields, error) {
	if _, err := mapping.Parse(req.RecordMapping); err != nil {
		return nil, validationErrorf("invalid record mapping: %v", err)
	}

	return &models.StatementSchemaFields{
		Name:          req.Name,
		Notes:         req.Notes,
		RecordMapping: req.RecordMapping,
	}, nil
}

// Statement import

// ImportStatement runs the whole import pipeline for one uploaded file:
// resolve the account's schema, parse every row, drop what is already
// stored, and persist the remainder in one transaction.
func (s *DefaultService) ImportStatement(ctx context.Context, accountID int64, path string) (*models.ImportResponse, error) {
	account, err := s.repo.GetAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("error getting account: %w", err)
	}
	if account == nil {
		return nil, ErrNotFound
	}
	if account.StatementSchemaID == nil {
		return nil, validationErrorf("account %q has no statement schema configured", account.Name)
	}

	schema, err := s.repo.GetStatementSchema(ctx, *account.StatementSchemaID)
	if err != nil {
		return nil, fmt.Errorf("error getting statement schema: %w", err)
	}
	if schema == nil {
		return nil, validationErrorf("statement schema %d does not exist", *account.StatementSchemaID)
	}

	m, err := mapping.Parse(schema.RecordMapping)
	if err != nil {
		return nil, validationErrorf("invalid record mapping: %v", err)
	}

	expenses, err := statement.ReadExpenses(path, m, accountID)
	if err != nil {
		return nil, err
	}

	latest, err := s.repo.GetLatestExpenses(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("error getting latest expenses: %w", err)
	}

	expenses = statement.Deduplicate(expenses, latest)
	statement.SortByOccurrence(expenses)

	if err := s.repo.CreateExpenses(ctx, expenses); err != nil {
		return nil, fmt.Errorf("error storing expenses: %w", err)
	}

	return &models.ImportResponse{Status: "success", Imported: len(expenses)}, nil
}

// Expense operations
func (s *DefaultService) GetExpenses(ctx context.Context, accountID int64) (*models.Expenses, error) {
	account, err := s.repo.GetAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("error getting account: %w", err)
	}
	if account == nil {
		return nil, ErrNotFound
	}

	expenses, err := s.repo.GetExpenses(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("error listing expenses: %w", err)
	}

	return &models.Expenses{Expenses: expenses}, nil
}

func (s *DefaultService) UpdateExpense(ctx context.Context, id int64, req models.UpdateExpenseRequest) error {
	if req.BudgetItemID != nil {
		budget, err := s.repo.GetBudget(ctx)
		if err != nil {
			return fmt.Errorf("error getting budget: %w", err)
		}
		if !budgetItemExists(budget, *req.BudgetItemID) {
			return validationErrorf("budget item %d does not exist", *req.BudgetItemID)
		}
	}

	if err := s.repo.SetExpenseBudgetItem(ctx, id, req.BudgetItemID); err != nil {
		return mapRepoError(err, "error updating expense")
	}
	return nil
}

func (s *DefaultService) DeleteExpense(ctx context.Context, id int64) error {
	if err := s.repo.DeleteExpense(ctx, id); err != nil {
		return mapRepoError(err, "error deleting expense")
	}
	return nil
}

// Budget operations
func (s *DefaultService) GetBudget(ctx context.Context) (*models.Budget, error) {
	budget, err := s.repo.GetBudget(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting budget: %w", err)
	}
	return budget, nil
}

func (s *DefaultService) CreateBudgetCategory(ctx context.Context, req models.BudgetCategoryRequest) (*models.BudgetCategory, error) {
	category, err := s.repo.CreateBudgetCategory(ctx, req.Name)
	if err != nil {
		return nil, fmt.Errorf("error creating budget category: %w", err)
	}
	return category, nil
}

func (s *DefaultService) UpdateBudgetCategory(ctx context.Context, id int64, req models.BudgetCategoryRequest) error {
	if err := s.repo.UpdateBudgetCategory(ctx, id, req.Name); err != nil {
		return mapRepoError(err, "error updating budget category")
	}
	return nil
}

func (s *DefaultService) DeleteBudgetCategory(ctx context.Context, id int64) error {
	if err := s.repo.DeleteBudgetCategory(ctx, id); err != nil {
		return mapRepoError(err, "error deleting budget category")
	}
	return nil
}

func (s *DefaultService) CreateBudgetItem(ctx context.Context, req models.BudgetItemRequest) (*models.BudgetItem, error) {
	if err := s.checkBudgetCategory(ctx, req.CategoryID); err != nil {
		return nil, err
	}

	item, err := s.repo.CreateBudgetItem(ctx, req.CategoryID, req.Name, req.Amount)
	if err != nil {
		return nil, fmt.Errorf("error creating budget item: %w", err)
	}
	return item, nil
}

func (s *DefaultService) UpdateBudgetItem(ctx context.Context, id int64, req models.BudgetItemRequest) error {
	if err := s.checkBudgetCategory(ctx, req.CategoryID); err != nil {
		return err
	}

	if err := s.repo.UpdateBudgetItem(ctx, id, req.CategoryID, req.Name, req.Amount); err != nil {
		return mapRepoError(err, "error updating budget item")
	}
	return nil
}

func (s *DefaultService) DeleteBudgetItem(ctx context.Context, id int64) error {
	if err := s.repo.DeleteBudgetItem(ctx, id); err != nil {
		return mapRepoError(err, "error deleting budget item")
	}
	return nil
}

func (s *DefaultService) checkBudgetCategory(ctx context.Context, categoryID int64) error {
	budget, err := s.repo.GetBudget(ctx)
	if err != nil {
		return fmt.Errorf("error getting budget: %w", err)
	}
	for _, category := range budget.Categories {
		if category.ID == categoryID {
			return nil
		}
	}
	return validationErrorf("budget category %d does not exist", categoryID)
}

func budgetItemExists(budget *models.Budget, itemID int64) bool {
	for _, item := range budget.Items {
		if item.ID == itemID {
			return true
		}
	}
	return false
}

// Spending aggregation
func (s *DefaultService) GetSpendingData(ctx context.Context, year int) (*models.SpendingData, error) {
	data, err := s.repo.GetSpendingData(ctx, year)
	if err != nil {
		return nil, fmt.Errorf("error getting spending data: %w", err)
	}
	return &models.SpendingData{Data: data}, nil
}

// Helper methods
func (s *DefaultService) generateJWT(user *models.User) (string, error) {
	expirationTime := time.Now().Add(s.tokenDuration)

	claims := jwt.MapClaims{
		"sub": user.ID, // subject
		"exp": expirationTime.Unix(),
		"iat": time.Now().Unix(), // issued at
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

func mapRepoError(err error, msg string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	return fmt.Errorf("%s: %w", msg, err)
}
