package api_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkacik/budget/internal/api/testutils"
	"github.com/mkacik/budget/internal/models"
)

func TestCreateAccount(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	headers := testutils.AuthHeaders(testCtx.TestUserJWT)

	// Test case 1: Successful creation
	req := models.AccountRequest{
		Name:  "Checking",
		Class: models.AccountBank,
	}

	w := testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/accounts", req, headers)
	assert.Equal(t, http.StatusCreated, w.Code)

	var account models.Account
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &account))
	assert.NotZero(t, account.ID)
	assert.Equal(t, "Checking", account.Name)
	assert.Nil(t, account.StatementSchemaID)

	// Test case 2: Unknown account class
	req.Class = "Mattress"
	w = testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/accounts", req, headers)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Test case 3: Dangling schema reference
	missingSchema := int64(999)
	req = models.AccountRequest{
		Name:              "Visa",
		Class:             models.AccountCreditCard,
		StatementSchemaID: &missingSchema,
	}
	w = testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/accounts", req, headers)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAccountLifecycle(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	headers := testutils.AuthHeaders(testCtx.TestUserJWT)

	// Create two accounts
	for _, name := range []string{"Checking", "Amazon"} {
		req := models.AccountRequest{Name: name, Class: models.AccountShop}
		w := testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/accounts", req, headers)
		require.Equal(t, http.StatusCreated, w.Code)
	}

	// List them back, sorted by name
	w := testutils.PerformRequest(testCtx.Router, http.MethodGet, "/api/accounts", nil, headers)
	require.Equal(t, http.StatusOK, w.Code)

	var accounts models.Accounts
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &accounts))
	require.Len(t, accounts.Accounts, 2)
	assert.Equal(t, "Amazon", accounts.Accounts[0].Name)
	assert.Equal(t, "Checking", accounts.Accounts[1].Name)

	// Update the first one
	target := accounts.Accounts[0]
	update := models.AccountRequest{Name: "Amazon Prime", Class: models.AccountShop}
	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodPut,
		fmt.Sprintf("/api/accounts/%d", target.ID),
		update,
		headers,
	)
	require.Equal(t, http.StatusOK, w.Code)

	var updated models.Account
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.Equal(t, "Amazon Prime", updated.Name)

	// Delete it
	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodDelete,
		fmt.Sprintf("/api/accounts/%d", target.ID),
		nil,
		headers,
	)
	assert.Equal(t, http.StatusOK, w.Code)

	// Deleting again reports not found
	w = testutils.PerformRequest(
		testCtx.Router,
		http.MethodDelete,
		fmt.Sprintf("/api/accounts/%d", target.ID),
		nil,
		headers,
	)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Non-numeric id is rejected before hitting the service
	w = testutils.PerformRequest(testCtx.Router, http.MethodDelete, "/api/accounts/abc", nil, headers)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
