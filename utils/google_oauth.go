package utils

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/meinhoongagan/petrent-api/config"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/idtoken"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

var (
	ErrTokenExchange  = errors.New("token exchange failed")
	ErrInvalidIDToken = errors.New("invalid google id token")
)

// validateIDToken checks signature, expiry and audience of a Google ID token.
var validateIDToken = idtoken.Validate

type GoogleUser struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// OAuthProvider turns an authorization code into a verified identity.
type OAuthProvider interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*GoogleUser, error)
}

// GoogleOAuth is nil until InitGoogleOAuth finds credentials.
var GoogleOAuth OAuthProvider

type GoogleProvider struct {
	cfg         *oauth2.Config
	userInfoURL string
}

func NewGoogleProvider(cfg *config.Config) *GoogleProvider {
	return &GoogleProvider{
		cfg: &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleRedirectURI,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
		userInfoURL: googleUserInfoURL,
	}
}

func InitGoogleOAuth() {
	if config.App.GoogleEnabled() {
		GoogleOAuth = NewGoogleProvider(config.App)
	}
}

func (p *GoogleProvider) AuthCodeURL(state string) string {
	return p.cfg.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.SetAuthURLParam("prompt", "consent"))
}

// Exchange trades the code at Google's token endpoint. The identity comes
// from the verified ID token; the userinfo endpoint is only asked when the
// response carries none.
func (p *GoogleProvider) Exchange(ctx context.Context, code string) (*GoogleUser, error) {
	token, err := p.cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenExchange, err)
	}
	if raw, ok := token.Extra("id_token").(string); ok && raw != "" {
		return VerifyIDToken(ctx, raw, p.cfg.ClientID)
	}

	resp, err := p.cfg.Client(ctx, token).Get(p.userInfoURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenExchange, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("%w: userinfo returned %d", ErrTokenExchange, resp.StatusCode)
	}

	var user GoogleUser
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenExchange, err)
	}
	return &user, nil
}

// VerifyIDToken validates raw against Google's keys with clientID as the
// required audience and reads the identity from its claims.
func VerifyIDToken(ctx context.Context, raw, clientID string) (*GoogleUser, error) {
	payload, err := validateIDToken(ctx, raw, clientID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidIDToken, err)
	}
	if payload.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidIDToken)
	}
	user := &GoogleUser{ID: payload.Subject}
	user.Email, _ = payload.Claims["email"].(string)
	user.Name, _ = payload.Claims["name"].(string)
	user.Picture, _ = payload.Claims["picture"].(string)
	switch v := payload.Claims["email_verified"].(type) {
	case bool:
		user.VerifiedEmail = v
	case string:
		user.VerifiedEmail = v == "true"
	}
	return user, nil
}

// EmailDomainAllowed checks the address against the allowlist; an empty
// allowlist accepts everything.
func EmailDomainAllowed(email string, allowed []string) bool {
	if len(allowed) == 0 {
		return true
	}
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return false
	}
	return slices.Contains(allowed, strings.ToLower(email[at+1:]))
}
