package models

import (
	"fmt"
	"slices"
	"time"

	"github.com/meinhoongagan/petrent-api/config"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TransactionType string

const (
	TxEarning    TransactionType = "earning"
	TxDeposit    TransactionType = "deposit"
	TxRefund     TransactionType = "refund"
	TxPayout     TransactionType = "payout"
	TxPayment    TransactionType = "payment"
	TxWithdrawal TransactionType = "withdrawal"
)

func (t TransactionType) Valid() bool {
	switch t {
	case TxEarning, TxDeposit, TxRefund, TxPayout, TxPayment, TxWithdrawal:
		return true
	}
	return false
}

// IsCredit reports whether the type adds to the balance.
func (t TransactionType) IsCredit() bool {
	return t == TxEarning || t == TxDeposit || t == TxRefund
}

const (
	TxStatusPending   = "pending"
	TxStatusCompleted = "completed"
	TxStatusFailed    = "failed"
)

// Transaction is one wallet ledger row. Amount is always positive; the
// direction comes from Type.
type Transaction struct {
	ID           uint            `json:"id" gorm:"primaryKey"`
	UserID       uint            `json:"user_id" gorm:"index;not null"`
	Type         TransactionType `json:"type" gorm:"index;not null"`
	Amount       float64         `json:"amount" gorm:"type:decimal(12,2);not null"`
	Status       string          `json:"status" gorm:"not null"`
	BalanceAfter float64         `json:"balance_after" gorm:"type:decimal(12,2)"`
	PlatformFee  float64         `json:"platform_fee" gorm:"type:decimal(12,2)"`
	BookingID    *uint           `json:"booking_id,omitempty" gorm:"index"`
	PayoutID     *uint           `json:"payout_id,omitempty" gorm:"index"`
	Description  string          `json:"description"`
	CreatedAt    time.Time       `json:"created_at" gorm:"index"`
}

func (t *Transaction) SignedAmount() float64 {
	if t.Type.IsCredit() {
		return t.Amount
	}
	return -t.Amount
}

type WalletEntry struct {
	UserID      uint
	Type        TransactionType
	Amount      float64
	PlatformFee float64
	Status      string
	BookingID   *uint
	PayoutID    *uint
	Description string
}

// PostWalletEntry is the only place a wallet balance changes. It locks the
// user row, applies the bounds, writes the new balance and appends the ledger
// row, all in tx.
func PostWalletEntry(tx *gorm.DB, e WalletEntry) (*Transaction, error) {
	if !e.Type.Valid() {
		return nil, fmt.Errorf("unknown transaction type %q", e.Type)
	}
	amount := RoundMoney(e.Amount)
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	var user User
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id", "wallet_balance").
		First(&user, e.UserID).Error
	if err != nil {
		return nil, err
	}

	balance := user.WalletBalance
	if e.Type.IsCredit() {
		balance = RoundMoney(balance + amount)
		if e.Type == TxDeposit && balance > config.App.MaxWalletBalance {
			return nil, fmt.Errorf("%w: maximum is %.2f", ErrWalletLimit, config.App.MaxWalletBalance)
		}
	} else {
		balance = RoundMoney(balance - amount)
		if balance < config.App.MinWalletBalance {
			return nil, fmt.Errorf("%w: available %.2f", ErrInsufficientFunds, user.WalletBalance)
		}
	}

	if err := tx.Model(&User{}).Where("id = ?", user.ID).Update("wallet_balance", balance).Error; err != nil {
		return nil, err
	}

	status := e.Status
	if status == "" {
		status = TxStatusCompleted
	}
	t := &Transaction{
		UserID:       e.UserID,
		Type:         e.Type,
		Amount:       amount,
		Status:       status,
		BalanceAfter: balance,
		PlatformFee:  e.PlatformFee,
		BookingID:    e.BookingID,
		PayoutID:     e.PayoutID,
		Description:  e.Description,
	}
	if err := tx.Create(t).Error; err != nil {
		return nil, err
	}
	return t, nil
}

// LedgerBalance recomputes a user's balance from the ledger.
func LedgerBalance(tx *gorm.DB, userID uint) (float64, error) {
	var rows []Transaction
	if err := tx.Select("type", "amount").Where("user_id = ?", userID).Find(&rows).Error; err != nil {
		return 0, err
	}
	var sum float64
	for i := range rows {
		sum += rows[i].SignedAmount()
	}
	return RoundMoney(sum), nil
}

type PayoutStatus string

const (
	PayoutPending    PayoutStatus = "pending"
	PayoutProcessing PayoutStatus = "processing"
	PayoutCompleted  PayoutStatus = "completed"
	PayoutFailed     PayoutStatus = "failed"
)

var payoutTransitions = map[PayoutStatus][]PayoutStatus{
	PayoutPending:    {PayoutProcessing, PayoutFailed},
	PayoutProcessing: {PayoutCompleted, PayoutFailed},
}

func (s PayoutStatus) CanTransitionTo(next PayoutStatus) bool {
	return slices.Contains(payoutTransitions[s], next)
}

const (
	PayoutBankTransfer = "bank_transfer"
	PayoutPayPal       = "paypal"
)

type Payout struct {
	ID             uint           `json:"id" gorm:"primaryKey"`
	UserID         uint           `json:"user_id" gorm:"index;not null"`
	Amount         float64        `json:"amount" gorm:"type:decimal(12,2);not null"`
	ProcessingFee  float64        `json:"processing_fee" gorm:"type:decimal(12,2)"`
	NetAmount      float64        `json:"net_amount" gorm:"type:decimal(12,2)"`
	Method         string         `json:"method"`
	AccountDetails datatypes.JSON `json:"account_details,omitempty"`
	Status         PayoutStatus   `json:"status" gorm:"index;not null"`
	FailureReason  string         `json:"failure_reason,omitempty"`
	TransactionID  *uint          `json:"transaction_id,omitempty"`
	ProcessedAt    *time.Time     `json:"processed_at,omitempty"`
	CompletedAt    *time.Time     `json:"completed_at,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// RequestPayout records a pending payout and debits the wallet immediately.
func RequestPayout(tx *gorm.DB, userID uint, amount float64, method string, details datatypes.JSON) (*Payout, error) {
	amount = RoundMoney(amount)
	if amount < config.App.MinPayoutAmount {
		return nil, fmt.Errorf("%w: minimum payout is %.2f", ErrInvalidAmount, config.App.MinPayoutAmount)
	}
	fee := Percentage(amount, config.App.PayoutFeePercentage)
	p := &Payout{
		UserID:         userID,
		Amount:         amount,
		ProcessingFee:  fee,
		NetAmount:      RoundMoney(amount - fee),
		Method:         method,
		AccountDetails: details,
		Status:         PayoutPending,
	}
	if err := tx.Create(p).Error; err != nil {
		return nil, err
	}

	payoutID := p.ID
	t, err := PostWalletEntry(tx, WalletEntry{
		UserID:      userID,
		Type:        TxPayout,
		Amount:      amount,
		PlatformFee: fee,
		Status:      TxStatusPending,
		PayoutID:    &payoutID,
		Description: fmt.Sprintf("Payout #%d via %s", p.ID, method),
	})
	if err != nil {
		return nil, err
	}
	p.TransactionID = &t.ID
	if err := tx.Model(p).Update("transaction_id", t.ID).Error; err != nil {
		return nil, err
	}
	return p, nil
}

// UpdateStatus advances a payout. A failure refunds the debited amount.
func (p *Payout) UpdateStatus(tx *gorm.DB, next PayoutStatus, reason string) error {
	if !p.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w: from %s to %s", ErrInvalidTransition, p.Status, next)
	}
	now := time.Now()
	updates := map[string]any{"status": next, "updated_at": now}
	txStatus := ""
	switch next {
	case PayoutProcessing:
		updates["processed_at"] = now
	case PayoutCompleted:
		updates["completed_at"] = now
		txStatus = TxStatusCompleted
	case PayoutFailed:
		updates["failure_reason"] = reason
		txStatus = TxStatusFailed
	}

	res := tx.Model(&Payout{}).Where("id = ? AND status = ?", p.ID, p.Status).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected != 1 {
		return fmt.Errorf("%w: payout %d changed concurrently", ErrInvalidTransition, p.ID)
	}

	if txStatus != "" && p.TransactionID != nil {
		if err := tx.Model(&Transaction{}).Where("id = ?", *p.TransactionID).Update("status", txStatus).Error; err != nil {
			return err
		}
	}
	if next == PayoutFailed {
		payoutID := p.ID
		if _, err := PostWalletEntry(tx, WalletEntry{
			UserID:      p.UserID,
			Type:        TxRefund,
			Amount:      p.Amount,
			PayoutID:    &payoutID,
			Description: fmt.Sprintf("Refund for failed payout #%d", p.ID),
		}); err != nil {
			return err
		}
	}
	return tx.First(p, p.ID).Error
}
