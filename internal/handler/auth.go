package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/collabus/transit-admin/internal/config"
	"github.com/collabus/transit-admin/internal/model"
	"github.com/collabus/transit-admin/internal/repository"
	"github.com/collabus/transit-admin/internal/session"
	"github.com/collabus/transit-admin/internal/utils"
)

// AuthHandler bundles dependencies for the sign-in/sign-out/refresh
// endpoints.
type AuthHandler struct {
	Cfg      config.Config
	Users    *repository.UserRepo
	Tokens   *repository.TokenRepo
	Sessions session.Store
	Log      *zap.Logger
}

func NewAuthHandler(cfg config.Config, u *repository.UserRepo, t *repository.TokenRepo, s session.Store, log *zap.Logger) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u, Tokens: t, Sessions: s, Log: log}
}

// ----- DTOs -----

type signInReq struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}
type refreshReq struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

type tokenPart struct {
	AccessToken string    `json:"accessToken"`
	ExpiresAt   time.Time `json:"expiresAt"`
}
type signInResp struct {
	Token tokenPart      `json:"token"`
	User  model.Identity `json:"user"`
}

// SignIn handles POST /api/auth/sign-in. The failure taxonomy is fixed:
// 400 missing fields, 401 unknown email or bad password (same client
// message for both), 403 inactive account, 500 when the session cannot
// be persisted — in that last case the client receives no token at all.
func (h *AuthHandler) SignIn(c echo.Context) error {
	var req signInReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Corpo da requisição inválido")
	}
	if err := c.Validate(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Email e senha são obrigatórios")
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	u, err := h.Users.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrUnknownEmail), errors.Is(err, repository.ErrBadPassword):
			return fail(c, http.StatusUnauthorized, "Credenciais inválidas")
		case errors.Is(err, repository.ErrInactiveAccount):
			return fail(c, http.StatusForbidden, "Conta não ativada. Verifique seu email.")
		}
		return fail(c, http.StatusInternalServerError, "Erro interno do servidor")
	}

	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, h.Cfg.AccessTTLMin)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "Erro interno do servidor")
	}
	refresh, err := utils.NewRefreshToken(h.Cfg.JWTSecret, u.ID, h.Cfg.RefreshTTLDays)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "Erro interno do servidor")
	}
	if err := h.Tokens.SetRefresh(ctx, u.ID, utils.HashTokenRaw(refresh.Token), refresh.Exp); err != nil {
		return fail(c, http.StatusInternalServerError, "Erro interno do servidor")
	}

	sid, err := h.Sessions.Create(ctx, session.Snapshot{
		Identity:     model.IdentityOf(u),
		RefreshToken: refresh.Token,
	})
	if err != nil {
		// No session, no token: the pair must never outlive a failed
		// session write.
		h.Log.Error("session persist failed", zap.Uint64("user_id", u.ID), zap.Error(err))
		return fail(c, http.StatusInternalServerError, "Erro ao criar sessão")
	}
	h.setSessionCookie(c, sid)

	return c.JSON(http.StatusOK, signInResp{
		Token: tokenPart{AccessToken: access.Token, ExpiresAt: access.Exp},
		User:  model.IdentityOf(u),
	})
}

// SignOut handles POST /api/auth/sign-out. Token revocation is best
// effort; the session is cleared no matter what, and calling without a
// session still succeeds.
func (h *AuthHandler) SignOut(c echo.Context) error {
	ctx, cancel := reqContext(c)
	defer cancel()

	if cookie, err := c.Cookie(session.CookieName); err == nil && cookie.Value != "" {
		if snap, err := h.Sessions.Get(ctx, cookie.Value); err == nil {
			if err := h.Tokens.RevokeAllForUser(ctx, snap.Identity.UserID, model.TokenRefresh); err != nil {
				// Leaving a revoked-but-stale token row is better than
				// leaving the client stuck with a session.
				h.Log.Warn("token revocation failed during sign-out",
					zap.Uint64("user_id", snap.Identity.UserID), zap.Error(err))
			}
		}
		if err := h.Sessions.Delete(ctx, cookie.Value); err != nil {
			h.Log.Warn("session delete failed during sign-out", zap.Error(err))
		}
	}
	h.clearSessionCookie(c)

	return c.JSON(http.StatusOK, echo.Map{"message": "Desconectado com sucesso!"})
}

// Refresh handles POST /api/auth/refresh: validates the refresh token
// against its stored hash, rotates it (the old one is burned in the
// same transaction that persists the new one) and returns a new pair.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return fail(c, http.StatusBadRequest, "refreshToken é obrigatório")
	}
	raw := strings.TrimSpace(req.RefreshToken)

	claims, err := utils.ParseToken(h.Cfg.JWTSecret, raw)
	if err != nil || claims.Kind != utils.KindRefresh {
		return fail(c, http.StatusUnauthorized, "Token inválido")
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	userID, err := h.Tokens.Validate(ctx, utils.HashTokenRaw(raw), model.TokenRefresh)
	if err != nil {
		if errors.Is(err, repository.ErrTokenInvalid) {
			return fail(c, http.StatusUnauthorized, "Token inválido")
		}
		return fail(c, http.StatusInternalServerError, "Erro interno do servidor")
	}

	u, err := h.Users.GetByID(ctx, userID)
	if err != nil || !u.IsActive {
		return fail(c, http.StatusUnauthorized, "Token inválido")
	}

	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, h.Cfg.AccessTTLMin)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "Erro interno do servidor")
	}
	refresh, err := utils.NewRefreshToken(h.Cfg.JWTSecret, u.ID, h.Cfg.RefreshTTLDays)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "Erro interno do servidor")
	}
	if err := h.Tokens.SetRefresh(ctx, u.ID, utils.HashTokenRaw(refresh.Token), refresh.Exp); err != nil {
		return fail(c, http.StatusInternalServerError, "Erro interno do servidor")
	}

	// Re-bind the session to the fresh token pair when a session cookie
	// accompanies the request.
	if cookie, err := c.Cookie(session.CookieName); err == nil && cookie.Value != "" {
		_ = h.Sessions.Delete(ctx, cookie.Value)
		if sid, err := h.Sessions.Create(ctx, session.Snapshot{
			Identity:     model.IdentityOf(u),
			RefreshToken: refresh.Token,
		}); err == nil {
			h.setSessionCookie(c, sid)
		}
	}

	return c.JSON(http.StatusOK, echo.Map{
		"token":        tokenPart{AccessToken: access.Token, ExpiresAt: access.Exp},
		"refreshToken": refresh.Token,
		"user":         model.IdentityOf(u),
	})
}

// Me handles GET /api/auth/me and returns the caller's identity
// snapshot.
func (h *AuthHandler) Me(c echo.Context) error {
	id, ok := callerIdentity(c)
	if !ok {
		return fail(c, http.StatusUnauthorized, "Não autenticado")
	}
	return c.JSON(http.StatusOK, echo.Map{"user": id})
}

func (h *AuthHandler) setSessionCookie(c echo.Context, sid string) {
	c.SetCookie(&http.Cookie{
		Name:     session.CookieName,
		Value:    sid,
		Path:     "/",
		MaxAge:   h.Cfg.SessionTTLHour * 3600,
		HttpOnly: true,
		Secure:   h.Cfg.Env == "prod",
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) clearSessionCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     session.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.Cfg.Env == "prod",
		SameSite: http.SameSiteLaxMode,
	})
}
