package routes_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meinhoongagan/petrent-api/models"
)

func TestWalletDepositAndWithdrawal(t *testing.T) {
	env, app := newApp(t)
	u := env.CreateUser(t, "user@example.com", models.RoleUser)
	tok := env.Token(t, u)

	status, body := doJSON(t, app, http.MethodPut, "/api/users/wallet", map[string]any{"type": "deposit", "amount": 200}, tok)
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, 200.0, body["wallet_balance"])

	status, body = doJSON(t, app, http.MethodPut, "/api/users/wallet", map[string]any{"type": "withdrawal", "amount": 50.5}, tok)
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, 149.5, body["wallet_balance"])

	cases := []struct {
		name string
		body map[string]any
	}{
		{"overdraw", map[string]any{"type": "withdrawal", "amount": 500}},
		{"above maximum", map[string]any{"type": "deposit", "amount": 20000}},
		{"negative", map[string]any{"type": "deposit", "amount": -5}},
		{"unknown type", map[string]any{"type": "earning", "amount": 5}},
	}
	for _, tc := range cases {
		status, _ := doJSON(t, app, http.MethodPut, "/api/users/wallet", tc.body, tok)
		assert.Equal(t, http.StatusBadRequest, status, tc.name)
	}

	_, body = doJSON(t, app, http.MethodGet, "/api/users/wallet/balance", nil, tok)
	assert.Equal(t, 149.5, body["wallet_balance"])

	ledger, err := models.LedgerBalance(env.DB, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 149.5, ledger)

	_, body = doJSON(t, app, http.MethodGet, "/api/transactions?type=withdrawal", nil, tok)
	assert.Equal(t, 1, num(body, "total"))
}

func TestPayoutLifecycle(t *testing.T) {
	env, app := newApp(t)
	u := env.CreateUser(t, "owner@example.com", models.RoleUser)
	admin := env.CreateUser(t, "admin@example.com", models.RoleAdmin)
	tok, adminTok := env.Token(t, u), env.Token(t, admin)
	doJSON(t, app, http.MethodPut, "/api/users/wallet", map[string]any{"type": "deposit", "amount": 300}, tok)

	status, _ := doJSON(t, app, http.MethodPost, "/api/transactions/payouts",
		map[string]any{"amount": 10, "method": "paypal"}, tok)
	assert.Equal(t, http.StatusBadRequest, status, "below the minimum payout")
	status, _ = doJSON(t, app, http.MethodPost, "/api/transactions/payouts",
		map[string]any{"amount": 100, "method": "cheque"}, tok)
	assert.Equal(t, http.StatusBadRequest, status)

	status, body := doJSON(t, app, http.MethodPost, "/api/transactions/payouts", map[string]any{
		"amount": 100, "method": "bank_transfer", "account_details": map[string]any{"iban": "DE00"},
	}, tok)
	require.Equal(t, http.StatusCreated, status, body)
	assert.Equal(t, "pending", body["status"])
	assert.Equal(t, 2.5, body["processing_fee"])
	assert.Equal(t, 97.5, body["net_amount"])
	failedID := num(body, "id")

	_, body = doJSON(t, app, http.MethodPost, "/api/transactions/payouts",
		map[string]any{"amount": 150, "method": "paypal"}, tok)
	paidID := num(body, "id")

	_, body = doJSON(t, app, http.MethodGet, "/api/transactions/wallet", nil, tok)
	assert.Equal(t, 50.0, body["current_balance"])
	assert.Equal(t, 250.0, body["pending_payouts"])
	assert.Equal(t, 50.0, body["available_for_withdrawal"])
	assert.Equal(t, 0.0, body["total_withdrawn"])
	assert.Len(t, body["recent_transactions"], 3)

	status, _ = doJSON(t, app, http.MethodPost, "/api/transactions/payouts",
		map[string]any{"amount": 60, "method": "paypal"}, tok)
	assert.Equal(t, http.StatusBadRequest, status, "insufficient balance")

	payoutStatus := func(id int, st string) (int, map[string]any) {
		return doJSON(t, app, http.MethodPut, fmt.Sprintf("/api/admin/payouts/%d/status", id),
			map[string]any{"status": st, "failure_reason": "account closed"}, adminTok)
	}
	status, _ = payoutStatus(failedID, "failed")
	require.Equal(t, http.StatusOK, status)
	status, _ = payoutStatus(failedID, "processing")
	assert.Equal(t, http.StatusConflict, status, "failed is terminal")

	status, _ = payoutStatus(paidID, "completed")
	assert.Equal(t, http.StatusConflict, status, "must be processing first")
	status, _ = payoutStatus(paidID, "processing")
	require.Equal(t, http.StatusOK, status)
	status, body = payoutStatus(paidID, "completed")
	require.Equal(t, http.StatusOK, status, body)
	assert.NotNil(t, body["completed_at"])

	status, _ = doJSON(t, app, http.MethodPut, fmt.Sprintf("/api/admin/payouts/%d/status", paidID),
		map[string]any{"status": "failed"}, tok)
	assert.Equal(t, http.StatusForbidden, status)

	_, body = doJSON(t, app, http.MethodGet, "/api/transactions/wallet", nil, tok)
	assert.Equal(t, 150.0, body["current_balance"])
	assert.Equal(t, 0.0, body["pending_payouts"])
	assert.Equal(t, 150.0, body["total_withdrawn"])

	ledger, err := models.LedgerBalance(env.DB, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 150.0, ledger)

	var refunds int64
	env.DB.Model(&models.Transaction{}).Where("user_id = ? AND type = ?", u.ID, models.TxRefund).Count(&refunds)
	assert.EqualValues(t, 1, refunds)

	_, body = doJSON(t, app, http.MethodGet, "/api/transactions/payouts?status=failed", nil, tok)
	assert.Equal(t, 1, num(body, "total"))

	var n int64
	env.DB.Model(&models.Notification{}).Where("user_id = ? AND type = ?", u.ID, models.NotifyPayoutUpdated).Count(&n)
	assert.EqualValues(t, 3, n)
}

func TestTransactionsAreOwnerScoped(t *testing.T) {
	env, app := newApp(t)
	u := env.CreateUser(t, "user@example.com", models.RoleUser)
	other := env.CreateUser(t, "other@example.com", models.RoleUser)
	tok, otherTok := env.Token(t, u), env.Token(t, other)

	_, body := doJSON(t, app, http.MethodPut, "/api/users/wallet", map[string]any{"type": "deposit", "amount": 20}, tok)
	txID := num(body["transaction"].(map[string]any), "id")

	status, _ := doJSON(t, app, http.MethodGet, fmt.Sprintf("/api/transactions/%d", txID), nil, tok)
	assert.Equal(t, http.StatusOK, status)
	status, _ = doJSON(t, app, http.MethodGet, fmt.Sprintf("/api/transactions/%d", txID), nil, otherTok)
	assert.Equal(t, http.StatusNotFound, status)
}
