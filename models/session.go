package models

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Session is a server-side record of an issued token pair. Tokens carry the
// session id and are rejected once the row is gone or expired.
type Session struct {
	ID         string    `json:"id" gorm:"primaryKey;size:36"`
	UserID     uint      `json:"user_id" gorm:"index;not null"`
	IP         string    `json:"ip"`
	UserAgent  string    `json:"user_agent"`
	CreatedAt  time.Time `json:"created_at"`
	LastSeenAt time.Time `json:"last_seen_at"`
	ExpiresAt  time.Time `json:"expires_at" gorm:"index"`
	Current    bool      `json:"current" gorm:"-"`
}

func CreateSession(tx *gorm.DB, userID uint, ip, userAgent string, ttl time.Duration) (*Session, error) {
	now := time.Now()
	s := &Session{
		ID:         uuid.NewString(),
		UserID:     userID,
		IP:         ip,
		UserAgent:  userAgent,
		CreatedAt:  now,
		LastSeenAt: now,
		ExpiresAt:  now.Add(ttl),
	}
	if err := tx.Create(s).Error; err != nil {
		return nil, err
	}
	return s, nil
}

// ActiveSession loads a non-expired session belonging to userID.
func ActiveSession(tx *gorm.DB, id string, userID uint, now time.Time) (*Session, error) {
	var s Session
	err := tx.Where("id = ? AND user_id = ? AND expires_at > ?", id, userID, now).First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func RevokeSession(tx *gorm.DB, userID uint, id string) (bool, error) {
	res := tx.Where("id = ? AND user_id = ?", id, userID).Delete(&Session{})
	return res.RowsAffected > 0, res.Error
}

// RevokeOtherSessions deletes every session of the user except keepID.
// An empty keepID revokes all of them.
func RevokeOtherSessions(tx *gorm.DB, userID uint, keepID string) (int64, error) {
	q := tx.Where("user_id = ?", userID)
	if keepID != "" {
		q = q.Where("id <> ?", keepID)
	}
	res := q.Delete(&Session{})
	return res.RowsAffected, res.Error
}

type PasswordResetToken struct {
	ID        uint       `json:"id" gorm:"primaryKey"`
	UserID    uint       `json:"user_id" gorm:"index;not null"`
	TokenHash string     `json:"-" gorm:"uniqueIndex;size:64;not null"`
	ExpiresAt time.Time  `json:"expires_at"`
	UsedAt    *time.Time `json:"used_at"`
	CreatedAt time.Time  `json:"created_at"`
}

// HashToken returns the hex SHA-256 of a raw token; only hashes are stored.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func FindValidResetToken(tx *gorm.DB, raw string, now time.Time) (*PasswordResetToken, error) {
	var t PasswordResetToken
	err := tx.Where("token_hash = ? AND used_at IS NULL AND expires_at > ?", HashToken(raw), now).First(&t).Error
	if err != nil {
		return nil, ErrTokenInvalid
	}
	return &t, nil
}

// ConsumeResetToken marks a valid token used. The conditional update lets
// exactly one of several concurrent callers win.
func ConsumeResetToken(tx *gorm.DB, raw string, now time.Time) (*PasswordResetToken, error) {
	t, err := FindValidResetToken(tx, raw, now)
	if err != nil {
		return nil, err
	}
	res := tx.Model(&PasswordResetToken{}).
		Where("id = ? AND used_at IS NULL", t.ID).
		Update("used_at", now)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected != 1 {
		return nil, ErrTokenInvalid
	}
	t.UsedAt = &now
	return t, nil
}
