package api

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/mkacik/budget/internal/models"
	"github.com/mkacik/budget/internal/repository"
	"github.com/mkacik/budget/internal/service"
	"github.com/mkacik/budget/internal/statement"
)

// Handler holds the HTTP handlers for all API routes
type Handler struct {
	svc  service.Service
	repo repository.Repository
	log  *logrus.Logger
}

// NewHandler creates a new API handler
func NewHandler(svc service.Service, repo repository.Repository, log *logrus.Logger) *Handler {
	return &Handler{svc: svc, repo: repo, log: log}
}

// SetupRoutes registers all API routes on the router
func (h *Handler) SetupRoutes(router *gin.Engine) {
	api := router.Group("/api")

	auth := api.Group("/auth")
	auth.POST("/signup", h.SignUp)
	auth.POST("/login", h.Login)
	auth.POST("/logout", h.Logout)

	protected := api.Group("")
	protected.Use(AuthMiddleware())
	protected.Use(WriteLogMiddleware(h.repo, h.log))

	protected.GET("/accounts", h.GetAccounts)
	protected.POST("/accounts", h.CreateAccount)
	protected.PUT("/accounts/:id", h.UpdateAccount)
	protected.DELETE("/accounts/:id", h.DeleteAccount)
	protected.GET("/accounts/:id/expenses", h.GetExpenses)
	protected.POST("/accounts/:id/statements", h.ImportStatement)

	protected.PUT("/expenses/:id", h.UpdateExpense)
	protected.DELETE("/expenses/:id", h.DeleteExpense)

	protected.GET("/schemas", h.GetSchemas)
	protected.POST("/schemas", h.CreateSchema)
	protected.PUT("/schemas/:id", h.UpdateSchema)
	protected.DELETE("/schemas/:id", h.DeleteSchema)
	protected.POST("/schemas/test", h.TestSchema)

	protected.GET("/budget", h.GetBudget)
	protected.POST("/budget/categories", h.CreateBudgetCategory)
	protected.PUT("/budget/categories/:id", h.UpdateBudgetCategory)
	protected.DELETE("/budget/categories/:id", h.DeleteBudgetCategory)
	protected.POST("/budget/items", h.CreateBudgetItem)
	protected.PUT("/budget/items/:id", h.UpdateBudgetItem)
	protected.DELETE("/budget/items/:id", h.DeleteBudgetItem)

	protected.GET("/spending", h.GetSpendingData)
}

// Authentication handlers
func (h *Handler) SignUp(c *gin.Context) {
	var req models.SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	resp, err := h.svc.SignUp(c.Request.Context(), req)
	if err != nil {
		var validationErr *service.ValidationError
		if errors.As(err, &validationErr) {
			c.JSON(http.StatusConflict, models.ErrorResponse{
				Status:  "error",
				Code:    "CONFLICT",
				Message: validationErr.Message,
			})
			return
		}
		h.internalError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

func (h *Handler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	resp, err := h.svc.Login(c.Request.Context(), req)
	if err != nil {
		var validationErr *service.ValidationError
		if errors.As(err, &validationErr) {
			c.JSON(http.StatusUnauthorized, models.ErrorResponse{
				Status:  "error",
				Code:    "UNAUTHORIZED",
				Message: validationErr.Message,
			})
			return
		}
		h.internalError(c, err)
		return
	}

	// Browser sessions ride on the cookie, API clients use the token field.
	c.SetCookie(AuthCookieName, resp.Token, resp.ExpiresIn, "/", "", false, true)
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) Logout(c *gin.Context) {
	c.SetCookie(AuthCookieName, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

// Account handlers
func (h *Handler) GetAccounts(c *gin.Context) {
	accounts, err := h.svc.GetAccounts(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, accounts)
}

func (h *Handler) CreateAccount(c *gin.Context) {
	var req models.AccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	account, err := h.svc.CreateAccount(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, account)
}

func (h *Handler) UpdateAccount(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req models.AccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	account, err := h.svc.UpdateAccount(c.Request.Context(), id, req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, account)
}

func (h *Handler) DeleteAccount(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.svc.DeleteAccount(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

// Expense handlers
func (h *Handler) GetExpenses(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	expenses, err := h.svc.GetExpenses(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, expenses)
}

func (h *Handler) UpdateExpense(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req models.UpdateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	if err := h.svc.UpdateExpense(c.Request.Context(), id, req); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

func (h *Handler) DeleteExpense(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.svc.DeleteExpense(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

// ImportStatement accepts a multipart statement upload for an account. The
// file is staged under a unique temp path so concurrent uploads never clash,
// and removed once the import finishes either way.
func (h *Handler) ImportStatement(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		badRequest(c, "statement file is required")
		return
	}

	path := filepath.Join(os.TempDir(), fmt.Sprintf("statement-%s.csv", uuid.New().String()))
	if err := c.SaveUploadedFile(file, path); err != nil {
		h.internalError(c, fmt.Errorf("error staging uploaded statement: %w", err))
		return
	}
	defer os.Remove(path)

	resp, err := h.svc.ImportStatement(c.Request.Context(), id, path)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Statement schema handlers
func (h *Handler) GetSchemas(c *gin.Context) {
	schemas, err := h.svc.GetSchemas(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, schemas)
}

func (h *Handler) CreateSchema(c *gin.Context) {
	var req models.StatementSchemaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	schema, err := h.svc.CreateSchema(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, schema)
}

func (h *Handler) UpdateSchema(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req models.StatementSchemaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	schema, err := h.svc.UpdateSchema(c.Request.Context(), id, req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, schema)
}

func (h *Handler) DeleteSchema(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.svc.DeleteSchema(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

func (h *Handler) TestSchema(c *gin.Context) {
	var req models.TestSchemaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	resp, err := h.svc.TestSchema(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Budget handlers
func (h *Handler) GetBudget(c *gin.Context) {
	budget, err := h.svc.GetBudget(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, budget)
}

func (h *Handler) CreateBudgetCategory(c *gin.Context) {
	var req models.BudgetCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	category, err := h.svc.CreateBudgetCategory(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, category)
}

func (h *Handler) UpdateBudgetCategory(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req models.BudgetCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	if err := h.svc.UpdateBudgetCategory(c.Request.Context(), id, req); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

func (h *Handler) DeleteBudgetCategory(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.svc.DeleteBudgetCategory(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

func (h *Handler) CreateBudgetItem(c *gin.Context) {
	var req models.BudgetItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	item, err := h.svc.CreateBudgetItem(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (h *Handler) UpdateBudgetItem(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req models.BudgetItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	if err := h.svc.UpdateBudgetItem(c.Request.Context(), id, req); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

func (h *Handler) DeleteBudgetItem(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.svc.DeleteBudgetItem(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

// Spending handlers
func (h *Handler) GetSpendingData(c *gin.Context) {
	year := time.Now().Year()
	if raw := c.Query("year"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			badRequest(c, fmt.Sprintf("invalid year %q", raw))
			return
		}
		year = parsed
	}

	data, err := h.svc.GetSpendingData(c.Request.Context(), year)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, data)
}

// Helpers

// pathID parses the :id path parameter, replying 400 itself on failure.
func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		badRequest(c, fmt.Sprintf("invalid id %q", c.Param("id")))
		return 0, false
	}
	return id, true
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Status:  "error",
		Code:    "BAD_REQUEST",
		Message: message,
	})
}

// respondError maps service errors onto HTTP statuses: caller mistakes get
// 400s, missing entities 404s, anything else a logged 500.
func (h *Handler) respondError(c *gin.Context, err error) {
	var validationErr *service.ValidationError
	var importErr *statement.ImportError

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Status:  "error",
			Code:    "VALIDATION_ERROR",
			Message: validationErr.Message,
		})
	case errors.As(err, &importErr):
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Status:  "error",
			Code:    "IMPORT_ERROR",
			Message: importErr.Error(),
		})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Status:  "error",
			Code:    "NOT_FOUND",
			Message: "not found",
		})
	default:
		h.internalError(c, err)
	}
}

func (h *Handler) internalError(c *gin.Context, err error) {
	h.log.WithError(err).WithFields(logrus.Fields{
		"method": c.Request.Method,
		"path":   c.FullPath(),
	}).Error("request failed")

	c.JSON(http.StatusInternalServerError, models.ErrorResponse{
		Status:  "error",
		Code:    "INTERNAL_ERROR",
		Message: "Internal server error",
	})
}
