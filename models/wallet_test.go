package models_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/meinhoongagan/petrent-api/models"
	"github.com/meinhoongagan/petrent-api/testutil"
)

func balanceOf(t *testing.T, env *testutil.Env, userID uint) float64 {
	t.Helper()
	var u models.User
	require.NoError(t, env.DB.First(&u, userID).Error)
	return u.WalletBalance
}

func TestPostWalletEntryKeepsLedgerInSync(t *testing.T) {
	env := testutil.Setup(t)
	u := env.CreateUser(t, "wallet@example.com", models.RoleUser)

	_, err := models.PostWalletEntry(env.DB, models.WalletEntry{UserID: u.ID, Type: models.TxDeposit, Amount: 150})
	require.NoError(t, err)
	_, err = models.PostWalletEntry(env.DB, models.WalletEntry{UserID: u.ID, Type: models.TxEarning, Amount: 50})
	require.NoError(t, err)
	tx, err := models.PostWalletEntry(env.DB, models.WalletEntry{UserID: u.ID, Type: models.TxWithdrawal, Amount: 100})
	require.NoError(t, err)
	assert.Equal(t, 100.0, tx.BalanceAfter)

	_, err = models.PostWalletEntry(env.DB, models.WalletEntry{UserID: u.ID, Type: models.TxPayment, Amount: 100.01})
	assert.ErrorIs(t, err, models.ErrInsufficientFunds)

	_, err = models.PostWalletEntry(env.DB, models.WalletEntry{UserID: u.ID, Type: models.TxDeposit, Amount: 10000})
	assert.ErrorIs(t, err, models.ErrWalletLimit)

	_, err = models.PostWalletEntry(env.DB, models.WalletEntry{UserID: u.ID, Type: models.TxDeposit, Amount: -5})
	assert.ErrorIs(t, err, models.ErrInvalidAmount)

	ledger, err := models.LedgerBalance(env.DB, u.ID)
	require.NoError(t, err)
	assert.Equal(t, balanceOf(t, env, u.ID), ledger)
	assert.Equal(t, 100.0, ledger)
}

func TestPayoutLifecycle(t *testing.T) {
	env := testutil.Setup(t)
	u := env.CreateUser(t, "payee@example.com", models.RoleUser)
	_, err := models.PostWalletEntry(env.DB, models.WalletEntry{UserID: u.ID, Type: models.TxEarning, Amount: 200})
	require.NoError(t, err)

	_, err = models.RequestPayout(env.DB, u.ID, 10, models.PayoutPayPal, nil)
	assert.ErrorIs(t, err, models.ErrInvalidAmount, "below minimum")

	_, err = models.RequestPayout(env.DB, u.ID, 500, models.PayoutPayPal, nil)
	assert.ErrorIs(t, err, models.ErrInsufficientFunds)

	p, err := models.RequestPayout(env.DB, u.ID, 100, models.PayoutBankTransfer, datatypes.JSON(`{"iban":"DE00"}`))
	require.NoError(t, err)
	assert.Equal(t, 2.5, p.ProcessingFee)
	assert.Equal(t, 97.5, p.NetAmount)
	assert.Equal(t, models.PayoutPending, p.Status)
	require.NotNil(t, p.TransactionID)
	assert.Equal(t, 100.0, balanceOf(t, env, u.ID), "debited on request")

	assert.ErrorIs(t, p.UpdateStatus(env.DB, models.PayoutCompleted, ""), models.ErrInvalidTransition)
	require.NoError(t, p.UpdateStatus(env.DB, models.PayoutProcessing, ""))
	require.NoError(t, p.UpdateStatus(env.DB, models.PayoutFailed, "bank rejected"))
	assert.Equal(t, "bank rejected", p.FailureReason)
	assert.Equal(t, 200.0, balanceOf(t, env, u.ID), "refunded on failure")

	var payoutTx models.Transaction
	require.NoError(t, env.DB.First(&payoutTx, *p.TransactionID).Error)
	assert.Equal(t, models.TxStatusFailed, payoutTx.Status)

	ledger, err := models.LedgerBalance(env.DB, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 200.0, ledger)
}
