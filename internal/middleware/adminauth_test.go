package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
)

func setupAdminApp(t *testing.T, keyHash string) *fiber.App {
	t.Helper()
	app := fiber.New()
	app.Put("/admin/fee", AdminAuth(keyHash), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	return app
}

func TestAdminAuth(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("super-secret"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash key: %v", err)
	}
	app := setupAdminApp(t, string(hash))

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", fiber.StatusUnauthorized},
		{"not bearer", "Basic abc", fiber.StatusUnauthorized},
		{"wrong key", "Bearer nope", fiber.StatusUnauthorized},
		{"correct key", "Bearer super-secret", fiber.StatusOK},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(fiber.MethodPut, "/admin/fee", nil)
		if tc.header != "" {
			req.Header.Set(fiber.HeaderAuthorization, tc.header)
		}
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("%s: app.Test: %v", tc.name, err)
		}
		if resp.StatusCode != tc.want {
			t.Fatalf("%s: expected %d got %d", tc.name, tc.want, resp.StatusCode)
		}
		resp.Body.Close()
	}
}

func TestAdminAuthUnconfigured(t *testing.T) {
	app := setupAdminApp(t, "")

	req := httptest.NewRequest(fiber.MethodPut, "/admin/fee", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer anything")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("expected %d got %d", fiber.StatusUnauthorized, resp.StatusCode)
	}
	resp.Body.Close()
}
