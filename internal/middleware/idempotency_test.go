package middleware

import (
	"io"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/agentvault/agentvault/internal/logging"
)

type idempotencyHarness struct {
	app           *fiber.App
	resourceCalls atomic.Int64
	otherCalls    atomic.Int64
}

func setupIdempotencyApp(t *testing.T) (*idempotencyHarness, func()) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}

	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	h := &idempotencyHarness{app: fiber.New()}
	h.app.Use(Idempotency(cache, time.Minute, logging.Discard()))
	h.app.Post("/resource", func(c *fiber.Ctx) error {
		h.resourceCalls.Add(1)
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"route": "resource"})
	})
	h.app.Post("/other", func(c *fiber.Ctx) error {
		h.otherCalls.Add(1)
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"route": "other"})
	})

	cleanup := func() {
		cache.Close()
		mr.Close()
	}

	return h, cleanup
}

func postJSON(t *testing.T, app *fiber.App, path, key string) (int, string) {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodPost, path, strings.NewReader("{}"))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	if key != "" {
		req.Header.Set(idempotencyKeyHeader, key)
	}

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	resp.Body.Close()
	return resp.StatusCode, string(payload)
}

func TestIdempotencyRequiresHeader(t *testing.T) {
	h, cleanup := setupIdempotencyApp(t)
	defer cleanup()

	status, _ := postJSON(t, h.app, "/resource", "")
	if status != fiber.StatusBadRequest {
		t.Fatalf("expected %d got %d", fiber.StatusBadRequest, status)
	}
	if got := h.resourceCalls.Load(); got != 0 {
		t.Fatalf("handler should not run without a key, ran %d times", got)
	}
}

func TestIdempotencyReturnsCachedResponse(t *testing.T) {
	h, cleanup := setupIdempotencyApp(t)
	defer cleanup()

	status, payload := postJSON(t, h.app, "/resource", "abc123")
	if status != fiber.StatusCreated {
		t.Fatalf("expected status %d got %d", fiber.StatusCreated, status)
	}

	// The duplicate must replay the stored response without a second
	// handler invocation.
	status2, payload2 := postJSON(t, h.app, "/resource", "abc123")
	if status2 != fiber.StatusCreated {
		t.Fatalf("expected cached status %d got %d", fiber.StatusCreated, status2)
	}
	if payload2 != payload {
		t.Fatalf("expected cached payload %s got %s", payload, payload2)
	}
	if got := h.resourceCalls.Load(); got != 1 {
		t.Fatalf("handler ran %d times, expected 1", got)
	}
}

func TestIdempotencyKeyScopedToRoute(t *testing.T) {
	h, cleanup := setupIdempotencyApp(t)
	defer cleanup()

	status, _ := postJSON(t, h.app, "/resource", "shared-key")
	if status != fiber.StatusCreated {
		t.Fatalf("first route: expected %d got %d", fiber.StatusCreated, status)
	}

	// The same key against a different operation is a fresh request.
	status, payload := postJSON(t, h.app, "/other", "shared-key")
	if status != fiber.StatusCreated {
		t.Fatalf("second route: expected %d got %d", fiber.StatusCreated, status)
	}
	if !strings.Contains(payload, `"other"`) {
		t.Fatalf("second route replayed the wrong response: %s", payload)
	}
	if got := h.otherCalls.Load(); got != 1 {
		t.Fatalf("other handler ran %d times, expected 1", got)
	}
}
