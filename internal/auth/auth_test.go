package auth

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/transfer-service/internal/domain"
	apperrors "github.com/spec-kit/transfer-service/pkg/util/errorutil"
)

func operator() domain.Caller {
	return domain.Caller{UserID: "u-1", UserName: "Kim", TenantID: "tenant-1", Department: "HR", Role: domain.CallerRoleOperator}
}

func TestTokenRoundTripCarriesCaller(t *testing.T) {
	t.Parallel()

	tm := NewTokenManager("secret", 5)
	token, expires, err := tm.GenerateToken(operator())
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if !expires.After(time.Now()) {
		t.Fatalf("expiry should be in the future")
	}

	claims, err := tm.ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if got := claims.Caller(); got != operator() {
		t.Fatalf("caller mismatch: %+v", got)
	}
}

func TestParseTokenRejectsForeignSecretAndExpiry(t *testing.T) {
	t.Parallel()

	token, _, err := NewTokenManager("other", 5).GenerateToken(operator())
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if _, err := NewTokenManager("secret", 5).ParseToken(token); err == nil {
		t.Fatalf("expected signature error")
	}

	tm := NewTokenManager("secret", 1)
	token, _, _ = tm.GenerateToken(operator())
	tm.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	if _, err := tm.ParseToken(token); err == nil {
		t.Fatalf("expected expiry error")
	}
}

func TestClaimsDefaultRoleIsOperator(t *testing.T) {
	t.Parallel()

	claims := &Claims{TenantID: "tenant-1"}
	claims.Subject = "u-1"
	if claims.Caller().Role != domain.CallerRoleOperator {
		t.Fatalf("expected operator role")
	}
}

func newProtectedApp(tm *TokenManager, extra ...fiber.Handler) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(apperrors.ToDomainError(err).HTTPStatus).SendString(apperrors.ToDomainError(err).Code)
		},
	})
	handlers := append([]fiber.Handler{NewAuthMiddleware(tm).Handle}, extra...)
	handlers = append(handlers, func(c *fiber.Ctx) error {
		caller, _ := CallerFromContext(c)
		return c.SendString(caller.TenantID)
	})
	app.Get("/whoami", handlers...)
	return app
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	tm := NewTokenManager("secret", 5)
	valid, _, _ := tm.GenerateToken(operator())
	noTenant, _, _ := tm.GenerateToken(domain.Caller{UserID: "u-2"})

	cases := []struct {
		name   string
		header string
		status int
		body   string
	}{
		{"missing header", "", http.StatusUnauthorized, apperrors.CodeUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized, apperrors.CodeUnauthorized},
		{"garbage token", "Bearer abc", http.StatusUnauthorized, apperrors.CodeUnauthorized},
		{"operator without tenant", "Bearer " + noTenant, http.StatusUnauthorized, apperrors.CodeUnauthorized},
		{"valid", "Bearer " + valid, http.StatusOK, "tenant-1"},
	}

	app := newProtectedApp(tm)
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		body, _ := io.ReadAll(resp.Body)
		if resp.StatusCode != tc.status || string(body) != tc.body {
			t.Errorf("%s: got %d %q", tc.name, resp.StatusCode, body)
		}
	}
}

func TestRequireRole(t *testing.T) {
	t.Parallel()

	tm := NewTokenManager("secret", 5)
	app := newProtectedApp(tm, RequireRole(domain.CallerRoleSystem))

	operatorToken, _, _ := tm.GenerateToken(operator())
	systemToken, _, _ := tm.GenerateToken(domain.SystemCaller("batch"))

	for token, want := range map[string]int{operatorToken: http.StatusForbidden, systemToken: http.StatusOK} {
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("request: %v", err)
		}
		if resp.StatusCode != want {
			t.Errorf("expected %d, got %d", want, resp.StatusCode)
		}
	}
}
