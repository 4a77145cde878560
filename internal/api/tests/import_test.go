package api_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkacik/budget/internal/api/testutils"
	"github.com/mkacik/budget/internal/models"
)

// createImportFixtures sets up a schema and an account wired to it, returning
// the account id.
func createImportFixtures(t *testing.T, testCtx *testutils.TestContext, headers map[string]string) int64 {
	schemaReq := models.StatementSchemaRequest{
		Name:          "Bank CSV",
		RecordMapping: validRecordMapping(),
	}
	w := testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/schemas", schemaReq, headers)
	require.Equal(t, http.StatusCreated, w.Code)

	var schema models.StatementSchema
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &schema))

	accountReq := models.AccountRequest{
		Name:              "Checking",
		Class:             models.AccountBank,
		StatementSchemaID: &schema.ID,
	}
	w = testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/accounts", accountReq, headers)
	require.Equal(t, http.StatusCreated, w.Code)

	var account models.Account
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &account))
	return account.ID
}

func TestImportStatement(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	headers := testutils.AuthHeaders(testCtx.TestUserJWT)
	accountID := createImportFixtures(t, testCtx, headers)
	uploadPath := fmt.Sprintf("/api/accounts/%d/statements", accountID)

	statement := strings.Join([]string{
		`2025-02-04,Coffee,4.50`,
		`2025-02-04,Groceries,82.19`,
		`2025-02-05,Lunch,12.00`,
	}, "\n")

	// First upload stores every row
	w := testutils.PerformUpload(t, testCtx.Router, uploadPath, statement, headers)
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.ImportResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 3, resp.Imported)

	// Same file again is a no-op
	w = testutils.PerformUpload(t, testCtx.Router, uploadPath, statement, headers)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 0, resp.Imported)

	// Overlapping follow-up statement only stores the new rows
	statement = strings.Join([]string{
		`2025-02-05,Lunch,12.00`,
		`2025-02-06,Gas,40.00`,
	}, "\n")
	w = testutils.PerformUpload(t, testCtx.Router, uploadPath, statement, headers)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Imported)

	// All four expenses are listed, newest first
	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodGet,
		fmt.Sprintf("/api/accounts/%d/expenses", accountID),
		nil,
		headers,
	)
	require.Equal(t, http.StatusOK, w.Code)

	var expenses models.Expenses
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &expenses))
	require.Len(t, expenses.Expenses, 4)
	assert.Equal(t, "Gas", expenses.Expenses[0].Description)
	assert.Equal(t, "2025-02-04", expenses.Expenses[3].TransactionDate)
}

func TestImportStatementBadFile(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	headers := testutils.AuthHeaders(testCtx.TestUserJWT)
	accountID := createImportFixtures(t, testCtx, headers)
	uploadPath := fmt.Sprintf("/api/accounts/%d/statements", accountID)

	// One bad row poisons the whole upload
	statement := strings.Join([]string{
		`2025-02-04,Coffee,4.50`,
		`not a date,Lunch,12.00`,
	}, "\n")
	w := testutils.PerformUpload(t, testCtx.Router, uploadPath, statement, headers)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var errResp models.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &errResp))
	assert.Equal(t, "IMPORT_ERROR", errResp.Code)
	assert.Contains(t, errResp.Message, "row 1")

	// Nothing was stored
	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodGet,
		fmt.Sprintf("/api/accounts/%d/expenses", accountID),
		nil,
		headers,
	)
	require.Equal(t, http.StatusOK, w.Code)

	var expenses models.Expenses
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &expenses))
	assert.Empty(t, expenses.Expenses)
}

func TestImportStatementRequiresSchema(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	headers := testutils.AuthHeaders(testCtx.TestUserJWT)

	accountReq := models.AccountRequest{Name: "Cash", Class: models.AccountBank}
	w := testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/accounts", accountReq, headers)
	require.Equal(t, http.StatusCreated, w.Code)

	var account models.Account
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &account))

	w = testutils.PerformUpload(
		t,
		testCtx.Router,
		fmt.Sprintf("/api/accounts/%d/statements", account.ID),
		"2025-02-04,Coffee,4.50",
		headers,
	)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Unknown account is a 404, not a validation failure
	w = testutils.PerformUpload(
		t,
		testCtx.Router,
		"/api/accounts/999/statements",
		"2025-02-04,Coffee,4.50",
		headers,
	)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
