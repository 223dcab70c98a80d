package routes_test

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meinhoongagan/petrent-api/config"
	"github.com/meinhoongagan/petrent-api/models"
	"github.com/meinhoongagan/petrent-api/redis"
	"github.com/meinhoongagan/petrent-api/testutil"
	"github.com/meinhoongagan/petrent-api/utils"
)

func googleLogin(t *testing.T, app *fiber.App, code string) (int, map[string]any) {
	t.Helper()
	return testutil.Do(t, app, testutil.JSONRequest(http.MethodPost, "/api/auth/google/login",
		map[string]any{"code": code}, ""))
}

func TestGoogleAuthURL(t *testing.T) {
	_, app := newApp(t)
	status, body := testutil.Do(t, app, testutil.JSONRequest(http.MethodGet, "/api/auth/google", nil, ""))
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body["auth_url"], "state=")
}

func TestGoogleLoginCreatesUserAndRejectsCodeReuse(t *testing.T) {
	env, app := newApp(t)
	env.Google.Users["code-1"] = &utils.GoogleUser{
		ID: "g-1", Email: "Hana@Example.com", VerifiedEmail: true, Name: "Hana", Picture: "https://img.test/hana.png",
	}

	status, body := googleLogin(t, app, "code-1")
	require.Equal(t, http.StatusOK, status, body)
	assert.NotEmpty(t, body["token"])

	var user models.User
	require.NoError(t, env.DB.Where("email = ?", "hana@example.com").First(&user).Error)
	require.NotNil(t, user.GoogleID)
	assert.Equal(t, "g-1", *user.GoogleID)
	assert.True(t, user.IsVerified)
	assert.Equal(t, "https://img.test/hana.png", user.AvatarURL)

	status, body = googleLogin(t, app, "code-1")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Authorization code already used", body["error"])
	// the provider saw the code once
	assert.Equal(t, 1, env.Google.ExchangeCount())
}

func TestGoogleLoginLinksExistingAccount(t *testing.T) {
	env, app := newApp(t)
	existing := env.CreateUser(t, "ivan@example.com", models.RoleUser)
	env.Google.Users["code-2"] = &utils.GoogleUser{ID: "g-2", Email: "ivan@example.com", VerifiedEmail: true, Name: "Ivan"}

	status, _ := googleLogin(t, app, "code-2")
	require.Equal(t, http.StatusOK, status)

	var count int64
	env.DB.Model(&models.User{}).Count(&count)
	assert.Equal(t, int64(1), count)
	var linked models.User
	require.NoError(t, env.DB.First(&linked, existing.ID).Error)
	require.NotNil(t, linked.GoogleID)
	assert.Equal(t, "google", linked.OAuthProvider)
}

func TestGoogleLoginRejections(t *testing.T) {
	env, app := newApp(t)
	env.Google.Users["unverified"] = &utils.GoogleUser{ID: "g-3", Email: "x@example.com", VerifiedEmail: false}
	env.Google.Users["other-domain"] = &utils.GoogleUser{ID: "g-4", Email: "y@elsewhere.com", VerifiedEmail: true}
	config.App.GoogleAllowedDomains = "example.com"

	status, _ := googleLogin(t, app, "unverified")
	assert.Equal(t, http.StatusUnauthorized, status)
	status, _ = googleLogin(t, app, "other-domain")
	assert.Equal(t, http.StatusUnauthorized, status)
	status, _ = googleLogin(t, app, "unknown-code")
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestGoogleLoginUnavailableWithoutRedis(t *testing.T) {
	env, app := newApp(t)
	env.Google.Users["code-5"] = &utils.GoogleUser{ID: "g-5", Email: "z@example.com", VerifiedEmail: true}
	client := redis.Client
	redis.Client = nil
	t.Cleanup(func() { redis.Client = client })

	status, _ := googleLogin(t, app, "code-5")
	assert.Equal(t, http.StatusServiceUnavailable, status)
}

func TestGoogleCallbackRedirects(t *testing.T) {
	env, app := newApp(t)
	env.Google.Users["code-6"] = &utils.GoogleUser{ID: "g-6", Email: "jo@example.com", VerifiedEmail: true}

	resp, err := app.Test(testutil.JSONRequest(http.MethodGet, "/api/auth/google/callback?code=code-6", nil, ""), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.True(t, strings.HasPrefix(resp.Header.Get("Location"), "http://frontend.test/auth/success?"))

	resp, err = app.Test(testutil.JSONRequest(http.MethodGet, "/api/auth/google/callback?code=code-6", nil, ""), -1)
	require.NoError(t, err)
	assert.Equal(t, "http://frontend.test/auth/error?message=code_already_used", resp.Header.Get("Location"))

	resp, err = app.Test(testutil.JSONRequest(http.MethodGet, "/api/auth/google/callback", nil, ""), -1)
	require.NoError(t, err)
	assert.Equal(t, "http://frontend.test/auth/error?message=missing_code", resp.Header.Get("Location"))
}

// unsignedIDToken builds a structurally valid RS256 JWT with a dummy signature.
func unsignedIDToken(t *testing.T, claims map[string]any) string {
	t.Helper()
	enc := func(v any) string {
		raw, err := json.Marshal(v)
		require.NoError(t, err)
		return base64.RawURLEncoding.EncodeToString(raw)
	}
	return enc(map[string]string{"alg": "RS256", "kid": "test-key", "typ": "JWT"}) + "." +
		enc(claims) + "." + base64.RawURLEncoding.EncodeToString([]byte("signature"))
}

func TestGoogleLoginRejectsIDTokenForAnotherClient(t *testing.T) {
	env, app := newApp(t)
	env.Google.IDTokens["foreign"] = unsignedIDToken(t, map[string]any{
		"iss":            "https://accounts.google.com",
		"aud":            "someone-else.apps.googleusercontent.com",
		"sub":            "g-evil",
		"email":          "victim@example.com",
		"email_verified": true,
		"iat":            time.Now().Unix(),
		"exp":            time.Now().Add(time.Hour).Unix(),
	})

	status, body := googleLogin(t, app, "foreign")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Invalid Google ID token", body["error"])

	var count int64
	env.DB.Model(&models.User{}).Where("email = ?", "victim@example.com").Count(&count)
	assert.Zero(t, count)
}

func TestGoogleLoginSameCodeConcurrently(t *testing.T) {
	env, app := newApp(t)
	env.Google.Users["shared"] = &utils.GoogleUser{ID: "g-7", Email: "kai@example.com", VerifiedEmail: true, Name: "Kai"}

	const attempts = 8
	statuses := make(chan int, attempts)
	var wg sync.WaitGroup
	for range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req := testutil.JSONRequest(http.MethodPost, "/api/auth/google/login", map[string]any{"code": "shared"}, "")
			resp, err := app.Test(req, -1)
			if err != nil {
				statuses <- 0
				return
			}
			resp.Body.Close()
			statuses <- resp.StatusCode
		}()
	}
	wg.Wait()
	close(statuses)

	counts := map[int]int{}
	for s := range statuses {
		counts[s]++
	}
	assert.Equal(t, map[int]int{http.StatusOK: 1, http.StatusUnauthorized: attempts - 1}, counts)
	assert.Equal(t, 1, env.Google.ExchangeCount())
}
