// Package testutil wires an isolated database, redis and fake collaborators
// for package tests.
package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/meinhoongagan/petrent-api/config"
	"github.com/meinhoongagan/petrent-api/db"
	"github.com/meinhoongagan/petrent-api/logger"
	"github.com/meinhoongagan/petrent-api/models"
	"github.com/meinhoongagan/petrent-api/redis"
	"github.com/meinhoongagan/petrent-api/utils"
)

// Env is one test's isolated world.
type Env struct {
	DB      *gorm.DB
	Mail    *MailRecorder
	Storage *FakeUploader
	Google  *FakeGoogle
	Redis   *miniredis.Miniredis
}

// Setup loads test configuration, opens a private in-memory database and
// swaps every external collaborator for a fake. Globals are restored on cleanup.
func Setup(t *testing.T) *Env {
	t.Helper()

	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("FRONTEND_URL", "http://frontend.test")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "0")
	_, err := config.Load()
	require.NoError(t, err)
	logger.Log.SetLevel(logrus.ErrorLevel)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=5000", uuid.NewString())
	gdb, err := db.Open(sqlite.Open(dsn))
	require.NoError(t, err)
	gdb.Logger = gormlogger.Default.LogMode(gormlogger.Silent)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	// one connection keeps the shared in-memory database alive and serializes writers.
	// sqlite has no row locks; the FOR UPDATE statement is covered in models/lock_test.go.
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(gdb))

	mr := miniredis.RunT(t)
	env := &Env{
		DB:      gdb,
		Mail:    &MailRecorder{},
		Storage: &FakeUploader{},
		Google:  &FakeGoogle{Users: map[string]*utils.GoogleUser{}, IDTokens: map[string]string{}, ClientID: "petrent-test.apps.googleusercontent.com"},
		Redis:   mr,
	}

	prevDB, prevMail, prevStorage, prevGoogle, prevRedis, prevCost := db.DB, utils.Mail, utils.Storage, utils.GoogleOAuth, redis.Client, utils.BcryptCost
	db.DB = gdb
	utils.Mail = env.Mail
	utils.Storage = env.Storage
	utils.GoogleOAuth = env.Google
	redis.Client = goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	utils.BcryptCost = bcrypt.MinCost

	t.Cleanup(func() {
		redis.Client.Close()
		sqlDB.Close()
		db.DB, utils.Mail, utils.Storage, utils.GoogleOAuth, redis.Client, utils.BcryptCost = prevDB, prevMail, prevStorage, prevGoogle, prevRedis, prevCost
	})
	return env
}

// CreateUser inserts an active user with password "password123".
func (e *Env) CreateUser(t *testing.T, email, role string) *models.User {
	t.Helper()
	hash, err := utils.HashPassword("password123")
	require.NoError(t, err)
	u := &models.User{
		Email:    email,
		Password: hash,
		FullName: strings.Split(email, "@")[0],
		Role:     role,
		IsActive: true,
	}
	u.PrivacySettings = datatypes.NewJSONType(models.DefaultPrivacySettings())
	require.NoError(t, e.DB.Create(u).Error)
	return u
}

// Token opens a session for u and returns a bearer access token.
func (e *Env) Token(t *testing.T, u *models.User) string {
	t.Helper()
	s, err := models.CreateSession(e.DB, u.ID, "127.0.0.1", "testutil", config.App.RefreshTokenTTL)
	require.NoError(t, err)
	access, err := utils.IssueAccessToken(u, s.ID)
	require.NoError(t, err)
	return access
}

// CreatePet inserts an active rentable pet; mutate may adjust it first.
func (e *Env) CreatePet(t *testing.T, ownerID uint, mutate func(*models.Pet)) *models.Pet {
	t.Helper()
	p := &models.Pet{
		OwnerID:     ownerID,
		Name:        "Rex",
		Species:     "dog",
		Breed:       "Labrador",
		Age:         3,
		ListingType: models.ListingRent,
		DailyRate:   25,
		City:        "Austin",
		Status:      models.PetActive,
	}
	if mutate != nil {
		mutate(p)
	}
	require.NoError(t, e.DB.Create(p).Error)
	return p
}

// JSONRequest builds a request with an optional JSON body and bearer token.
func JSONRequest(method, path string, body any, token string) *http.Request {
	var r io.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	return req
}

// MultipartRequest builds a multipart form with text fields and files.
// files maps a form field to filename -> content.
func MultipartRequest(method, path string, fields map[string]string, files map[string]map[string]string, token string) *http.Request {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		_ = w.WriteField(k, v)
	}
	for field, named := range files {
		for name, content := range named {
			part, _ := w.CreateFormFile(field, name)
			_, _ = part.Write([]byte(content))
		}
	}
	_ = w.Close()

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(fiber.HeaderContentType, w.FormDataContentType())
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	return req
}

// Do runs req through app without a timeout and decodes a JSON object body.
func Do(t *testing.T, app *fiber.App, req *http.Request) (int, map[string]any) {
	t.Helper()
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]any{}
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

// Items extracts a list field from a decoded response.
func Items(t *testing.T, body map[string]any, key string) []any {
	t.Helper()
	items, ok := body[key].([]any)
	require.True(t, ok, "field %q is not a list: %v", key, body[key])
	return items
}

type SentMail struct {
	To, Subject, Body string
}

type MailRecorder struct {
	mu   sync.Mutex
	Sent []SentMail
	Err  error
}

func (m *MailRecorder) Send(to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Sent = append(m.Sent, SentMail{To: to, Subject: subject, Body: body})
	return nil
}

func (m *MailRecorder) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Sent)
}

func (m *MailRecorder) Last() SentMail {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Sent) == 0 {
		return SentMail{}
	}
	return m.Sent[len(m.Sent)-1]
}

type FakeUploader struct {
	mu      sync.Mutex
	Uploads []string
}

func (f *FakeUploader) Upload(_ context.Context, file io.Reader, publicID, folder string) (string, error) {
	if _, err := io.Copy(io.Discard, file); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	url := fmt.Sprintf("https://cdn.test/%s/%s", folder, publicID)
	f.Uploads = append(f.Uploads, url)
	return url, nil
}

// FakeGoogle answers Exchange from a fixed code table.
type FakeGoogle struct {
	mu        sync.Mutex
	Users     map[string]*utils.GoogleUser
	// IDTokens maps a code to the raw ID token Google would return for it;
	// those go through the real ID token validation against ClientID.
	IDTokens  map[string]string
	ClientID  string
	Exchanges int
}

func (g *FakeGoogle) AuthCodeURL(state string) string {
	return "https://accounts.google.test/o/oauth2/auth?state=" + state
}

func (g *FakeGoogle) Exchange(ctx context.Context, code string) (*utils.GoogleUser, error) {
	g.mu.Lock()
	g.Exchanges++
	raw, hasToken := g.IDTokens[code]
	u, ok := g.Users[code]
	g.mu.Unlock()

	if hasToken {
		return utils.VerifyIDToken(ctx, raw, g.ClientID)
	}
	if !ok {
		return nil, utils.ErrTokenExchange
	}
	return u, nil
}

// ExchangeCount is Exchanges read under the lock.
func (g *FakeGoogle) ExchangeCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.Exchanges
}
