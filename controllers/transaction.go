package controllers

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"github.com/meinhoongagan/petrent-api/config"
	"github.com/meinhoongagan/petrent-api/db"
	"github.com/meinhoongagan/petrent-api/logger"
	"github.com/meinhoongagan/petrent-api/models"
	"github.com/meinhoongagan/petrent-api/utils"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const recentTransactions = 5

// GetTransactions lists the caller's ledger, newest first.
func GetTransactions(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	p := utils.GetPagination(c)

	q := db.DB.Model(&models.Transaction{}).Where("user_id = ?", userID)
	if t := c.Query("type"); t != "" {
		if !models.TransactionType(t).Valid() {
			return utils.ValidationFailed(c, map[string]string{"type": "oneof"})
		}
		q = q.Where("type = ?", t)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return utils.InternalError(c, err, "Failed to count transactions")
	}
	var items []models.Transaction
	if err := q.Order("created_at DESC").Order("id DESC").Offset(p.Offset).Limit(p.Limit).Find(&items).Error; err != nil {
		return utils.InternalError(c, err, "Failed to fetch transactions")
	}
	return c.JSON(p.Envelope(items, total))
}

func GetTransaction(c *fiber.Ctx) error {
	id, err := utils.ParamID(c, "id")
	if err != nil {
		return utils.BadID(c, "transaction id")
	}
	var t models.Transaction
	if err := db.DB.Where("user_id = ?", c.Locals("userID").(uint)).First(&t, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Transaction not found"})
	}
	return c.JSON(t)
}

func sumTransactions(userID uint, types []models.TransactionType, statuses ...string) (float64, error) {
	q := db.DB.Model(&models.Transaction{}).Where("user_id = ? AND type IN ?", userID, types)
	if len(statuses) > 0 {
		q = q.Where("status IN ?", statuses)
	}
	var sum float64
	err := q.Select("COALESCE(SUM(amount), 0)").Scan(&sum).Error
	return models.RoundMoney(sum), err
}

// GetWalletInfo godoc
// @Summary Wallet overview
// @Description Balance, payouts in flight, lifetime totals and the latest ledger rows.
// @Tags transactions
// @Produce json
// @Router /api/transactions/wallet [get]
func GetWalletInfo(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	var user models.User
	if err := db.DB.Select("id", "wallet_balance").First(&user, userID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	}

	var pending float64
	err := db.DB.Model(&models.Payout{}).
		Where("user_id = ? AND status IN ?", userID, []models.PayoutStatus{models.PayoutPending, models.PayoutProcessing}).
		Select("COALESCE(SUM(amount), 0)").Scan(&pending).Error
	if err != nil {
		return utils.InternalError(c, err, "Failed to load wallet")
	}
	earned, err := sumTransactions(userID, []models.TransactionType{models.TxEarning})
	if err != nil {
		return utils.InternalError(c, err, "Failed to load wallet")
	}
	withdrawn, err := sumTransactions(userID,
		[]models.TransactionType{models.TxPayout, models.TxWithdrawal}, models.TxStatusCompleted)
	if err != nil {
		return utils.InternalError(c, err, "Failed to load wallet")
	}

	var recent []models.Transaction
	if err := db.DB.Where("user_id = ?", userID).Order("created_at DESC").Order("id DESC").
		Limit(recentTransactions).Find(&recent).Error; err != nil {
		return utils.InternalError(c, err, "Failed to load wallet")
	}

	available := max(models.RoundMoney(user.WalletBalance-config.App.MinWalletBalance), 0)
	return c.JSON(fiber.Map{
		"current_balance":          user.WalletBalance,
		"pending_payouts":          models.RoundMoney(pending),
		"available_for_withdrawal": available,
		"total_earned":             earned,
		"total_withdrawn":          withdrawn,
		"recent_transactions":      recent,
	})
}

type payoutInput struct {
	Amount         float64        `json:"amount" validate:"required,gt=0"`
	Method         string         `json:"method" validate:"required,oneof=bank_transfer paypal"`
	AccountDetails map[string]any `json:"account_details"`
}

func RequestPayout(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	var input payoutInput
	if ok, err := utils.ParseBody(c, &input); !ok {
		return err
	}
	var details datatypes.JSON
	if input.AccountDetails != nil {
		raw, err := json.Marshal(input.AccountDetails)
		if err != nil {
			return utils.ValidationFailed(c, map[string]string{"account_details": "object"})
		}
		details = raw
	}

	var payout *models.Payout
	err := db.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		payout, err = models.RequestPayout(tx, userID, input.Amount, input.Method, details)
		return err
	})
	if err != nil {
		return utils.DomainError(c, err, "Failed to request payout")
	}
	logger.Log.WithFields(logrus.Fields{
		"user_id": userID, "payout_id": payout.ID, "amount": payout.Amount,
	}).Info("payout requested")
	return c.Status(fiber.StatusCreated).JSON(payout)
}

func GetPayouts(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	p := utils.GetPagination(c)
	q := db.DB.Model(&models.Payout{}).Where("user_id = ?", userID)
	if s := c.Query("status"); s != "" {
		q = q.Where("status = ?", s)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return utils.InternalError(c, err, "Failed to count payouts")
	}
	var items []models.Payout
	if err := q.Order("created_at DESC").Offset(p.Offset).Limit(p.Limit).Find(&items).Error; err != nil {
		return utils.InternalError(c, err, "Failed to fetch payouts")
	}
	return c.JSON(p.Envelope(items, total))
}
