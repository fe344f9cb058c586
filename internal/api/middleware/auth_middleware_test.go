package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	config "github.com/maheshrc27/igscheduler/configs"
	"github.com/maheshrc27/igscheduler/pkg/utils"
)

func newTestApp(cfg config.Config) *fiber.App {
	app := fiber.New()
	app.Use(NewAuthMiddleware(cfg).AuthMiddleware())
	app.Get("/whoami", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"user_id": c.Locals("user_id")})
	})
	return app
}

func TestAuthMiddleware(t *testing.T) {
	cfg := config.Config{SecretKey: "secret", CookieName: "session"}
	app := newTestApp(cfg)

	valid, _ := utils.GenerateToken(cfg.SecretKey, 7, time.Hour)
	expired, _ := utils.GenerateToken(cfg.SecretKey, 7, -time.Hour)

	tests := []struct {
		name       string
		cookie     string
		header     string
		wantStatus int
	}{
		{"cookie", valid, "", http.StatusOK},
		{"bearer", "", "Bearer " + valid, http.StatusOK},
		{"lowercase scheme", "", "bearer " + valid, http.StatusOK},
		{"missing", "", "", http.StatusUnauthorized},
		{"expired cookie", expired, "", http.StatusUnauthorized},
		{"basic scheme", "", "Basic " + valid, http.StatusUnauthorized},
		{"garbage", "", "Bearer nope", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: cfg.CookieName, Value: tt.cookie})
			}
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			resp, err := app.Test(req, -1)
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
		})
	}
}

func TestBearerToken(t *testing.T) {
	tests := map[string]string{
		"Bearer abc":  "abc",
		"Bearer  abc": "abc",
		"Token abc":   "",
		"Bearer":      "",
		"":            "",
	}
	for header, want := range tests {
		if got := bearerToken(header); got != want {
			t.Errorf("bearerToken(%q) = %q, want %q", header, got, want)
		}
	}
}
