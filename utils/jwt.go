package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/meinhoongagan/petrent-api/config"
	"github.com/meinhoongagan/petrent-api/models"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

var ErrInvalidToken = errors.New("invalid or expired token")

func signToken(user *models.User, sessionID, tokenType string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"id":    user.ID,
		"email": user.Email,
		"role":  user.Role,
		"sid":   sessionID,
		"type":  tokenType,
		"iat":   now.Unix(),
		"exp":   now.Add(ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(config.App.JWTSecret))
}

func IssueAccessToken(user *models.User, sessionID string) (string, error) {
	return signToken(user, sessionID, TokenTypeAccess, config.App.AccessTokenTTL)
}

// IssueTokens signs an access and a refresh token bound to sessionID.
func IssueTokens(user *models.User, sessionID string) (string, string, error) {
	access, err := IssueAccessToken(user, sessionID)
	if err != nil {
		return "", "", err
	}
	refresh, err := signToken(user, sessionID, TokenTypeRefresh, config.App.RefreshTokenTTL)
	if err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

// ParseToken verifies signature, expiry and token type.
func ParseToken(tokenString, tokenType string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(config.App.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || claims["type"] != tokenType {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ClaimUserID reads the numeric id claim, which decodes as float64.
func ClaimUserID(claims jwt.MapClaims) (uint, bool) {
	switch v := claims["id"].(type) {
	case float64:
		return uint(v), v > 0
	case int:
		return uint(v), v > 0
	case uint:
		return v, v > 0
	}
	return 0, false
}
