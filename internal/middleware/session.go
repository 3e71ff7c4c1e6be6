package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/collabus/transit-admin/internal/model"
	"github.com/collabus/transit-admin/internal/repository"
	"github.com/collabus/transit-admin/internal/session"
	"github.com/collabus/transit-admin/internal/utils"
)

// Context keys set by Authenticate and consumed by RequireRole and the
// handlers.
const (
	CtxIdentity  = "identity"
	CtxRole      = "role"
	CtxSessionID = "session_id"
)

// Authenticate returns the authorization gate applied to every
// non-public route. A caller is resolved, in order, from:
//
//  1. the opaque session cookie, looked up in the session store;
//  2. a Bearer access JWT, verified and re-resolved against the users
//     table so a deactivated account cannot ride out its token;
//  3. the static API_TOKEN, for service-to-service calls. These act with
//     administrator privileges and no company.
//
// Requests with none of the three receive 401. On success the identity
// snapshot is stored in the request context.
func Authenticate(jwtSecret, apiToken string, sessions session.Store, users *repository.UserRepo) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()

			if cookie, err := c.Cookie(session.CookieName); err == nil && cookie.Value != "" {
				snap, err := sessions.Get(ctx, cookie.Value)
				if err == nil {
					c.Set(CtxIdentity, snap.Identity)
					c.Set(CtxRole, snap.Identity.Role)
					c.Set(CtxSessionID, cookie.Value)
					return next(c)
				}
				if !errors.Is(err, session.ErrNotFound) {
					return c.JSON(http.StatusInternalServerError,
						echo.Map{"statusCode": http.StatusInternalServerError, "statusMessage": "Erro interno do servidor"})
				}
				// Stale cookie: fall through to the other schemes.
			}

			auth := c.Request().Header.Get("Authorization")
			if strings.HasPrefix(auth, "Bearer ") {
				raw := strings.TrimPrefix(auth, "Bearer ")

				if apiToken != "" && subtle.ConstantTimeCompare([]byte(raw), []byte(apiToken)) == 1 {
					id := model.Identity{Role: model.RoleAdministrator, Email: "service@collabus"}
					c.Set(CtxIdentity, id)
					c.Set(CtxRole, id.Role)
					return next(c)
				}

				claims, err := utils.ParseToken(jwtSecret, raw)
				if err == nil && claims.Kind == utils.KindAccess {
					u, err := users.GetByID(ctx, claims.UserID)
					if err == nil && u.IsActive {
						id := model.IdentityOf(u)
						c.Set(CtxIdentity, id)
						c.Set(CtxRole, id.Role)
						return next(c)
					}
				}
			}

			return c.JSON(http.StatusUnauthorized,
				echo.Map{"statusCode": http.StatusUnauthorized, "statusMessage": "Não autenticado"})
		}
	}
}

// IdentityFrom extracts the authenticated identity stored by
// Authenticate. The boolean is false when the gate did not run.
func IdentityFrom(c echo.Context) (model.Identity, bool) {
	id, ok := c.Get(CtxIdentity).(model.Identity)
	return id, ok
}
