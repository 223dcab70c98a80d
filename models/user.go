package models

import (
	"strings"
	"time"

	"gorm.io/datatypes"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type PrivacySettings struct {
	ShowEmail     bool `json:"show_email"`
	ShowPhone     bool `json:"show_phone"`
	ShowLocation  bool `json:"show_location"`
	AllowMessages bool `json:"allow_messages"`
}

func DefaultPrivacySettings() PrivacySettings {
	return PrivacySettings{ShowLocation: true, AllowMessages: true}
}

type User struct {
	ID              uint                                `json:"id" gorm:"primaryKey"`
	Email           string                              `json:"email" gorm:"uniqueIndex;not null"`
	Password        string                              `json:"-"`
	FullName        string                              `json:"full_name"`
	Username        *string                             `json:"username,omitempty" gorm:"uniqueIndex"`
	Phone           string                              `json:"phone,omitempty"`
	Bio             string                              `json:"bio,omitempty"`
	Location        string                              `json:"location,omitempty"`
	AvatarURL       string                              `json:"avatar_url,omitempty"`
	Role            string                              `json:"role" gorm:"default:user;not null"`
	IsVerified      bool                                `json:"is_verified"`
	IsActive        bool                                `json:"is_active" gorm:"default:true;not null"`
	GoogleID        *string                             `json:"-" gorm:"uniqueIndex"`
	OAuthProvider   string                              `json:"oauth_provider,omitempty"`
	WalletBalance   float64                             `json:"wallet_balance" gorm:"type:decimal(12,2);default:0;not null"`
	PrivacySettings datatypes.JSONType[PrivacySettings] `json:"privacy_settings"`
	LastActiveAt    *time.Time                          `json:"last_active_at,omitempty"`
	CreatedAt       time.Time                           `json:"created_at"`
	UpdatedAt       time.Time                           `json:"updated_at"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// HasPassword is false for accounts created through Google sign-in.
func (u *User) HasPassword() bool {
	return u.Password != ""
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// PublicProfile is what other users see, filtered by the owner's privacy settings.
type PublicProfile struct {
	ID        uint      `json:"id"`
	FullName  string    `json:"full_name"`
	Username  *string   `json:"username,omitempty"`
	Bio       string    `json:"bio,omitempty"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Location  string    `json:"location,omitempty"`
	Verified  bool      `json:"is_verified"`
	JoinedAt  time.Time `json:"joined_at"`
}

func (u *User) PublicProfile() PublicProfile {
	p := PublicProfile{
		ID:        u.ID,
		FullName:  u.FullName,
		Username:  u.Username,
		Bio:       u.Bio,
		AvatarURL: u.AvatarURL,
		Verified:  u.IsVerified,
		JoinedAt:  u.CreatedAt,
	}
	privacy := u.PrivacySettings.Data()
	if privacy.ShowEmail {
		p.Email = u.Email
	}
	if privacy.ShowPhone {
		p.Phone = u.Phone
	}
	if privacy.ShowLocation {
		p.Location = u.Location
	}
	return p
}
