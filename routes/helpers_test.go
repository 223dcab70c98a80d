package routes_test

import (
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/meinhoongagan/petrent-api/config"
	"github.com/meinhoongagan/petrent-api/routes"
	"github.com/meinhoongagan/petrent-api/testutil"
)

func newApp(t *testing.T) (*testutil.Env, *fiber.App) {
	t.Helper()
	env := testutil.Setup(t)
	return env, routes.NewApp(config.App)
}

// num reads a JSON number field as an int.
func num(body map[string]any, key string) int {
	v, _ := body[key].(float64)
	return int(v)
}

func mustDate(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body any, token string) (int, map[string]any) {
	t.Helper()
	return testutil.Do(t, app, testutil.JSONRequest(method, path, body, token))
}
