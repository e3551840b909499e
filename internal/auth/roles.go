package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/transfer-service/internal/domain"
	apperrors "github.com/spec-kit/transfer-service/pkg/util/errorutil"
)

// RequireRole ensures the caller carries one of the allowed roles.
func RequireRole(allowed ...domain.CallerRole) fiber.Handler {
	allowedSet := make(map[domain.CallerRole]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		caller, err := MustCaller(c)
		if err != nil {
			return err
		}
		if len(allowedSet) == 0 {
			return c.Next()
		}
		if _, exists := allowedSet[caller.Role]; !exists {
			return apperrors.NewForbidden("insufficient role", map[string]any{"role": caller.Role})
		}
		return c.Next()
	}
}

// RequireAuthenticated ensures any caller is present.
func RequireAuthenticated() fiber.Handler {
	return RequireRole()
}
