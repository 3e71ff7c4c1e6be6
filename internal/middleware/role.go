package middleware // middleware provides shared request processing for handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// RequireRole returns a middleware function that enforces that the
// authenticated user has one of the specified roles. The values must
// match what Authenticate stored in the context under CtxRole. Requests
// with a missing or disallowed role are rejected with 403; the policy
// denies by default.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, ok := c.Get(CtxRole).(string)
			if !ok || !allowed[role] {
				return c.JSON(http.StatusForbidden,
					echo.Map{"statusCode": http.StatusForbidden, "statusMessage": "Acesso negado"})
			}
			return next(c)
		}
	}
}
