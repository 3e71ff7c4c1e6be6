package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/collabus/transit-admin/internal/config"
	"github.com/collabus/transit-admin/internal/middleware"
	"github.com/collabus/transit-admin/internal/model"
	"github.com/collabus/transit-admin/internal/queue"
	"github.com/collabus/transit-admin/internal/repository"
	"github.com/collabus/transit-admin/internal/session"
	"github.com/collabus/transit-admin/internal/templates"
	"github.com/collabus/transit-admin/internal/utils"
)

// UserHandler bundles dependencies for account lifecycle endpoints:
// sign-up, activation, profile updates, password reset and self
// deletion.
type UserHandler struct {
	Cfg      config.Config
	Users    *repository.UserRepo
	Tokens   *repository.TokenRepo
	Sessions session.Store
	Log      *zap.Logger
}

func NewUserHandler(cfg config.Config, u *repository.UserRepo, t *repository.TokenRepo, s session.Store, log *zap.Logger) *UserHandler {
	return &UserHandler{Cfg: cfg, Users: u, Tokens: t, Sessions: s, Log: log}
}

type signUpReq struct {
	Name            string `json:"name" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=6"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required"`
}

// SignUp handles POST /api/user/sign-up. New accounts start inactive;
// the activation email is published to the lifecycle queue and its
// failure never fails the request.
func (h *UserHandler) SignUp(c echo.Context) error {
	var req signUpReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Corpo da requisição inválido")
	}
	if err := c.Validate(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Nome, email e senha são obrigatórios")
	}
	if req.Password != req.PasswordConfirm {
		return fail(c, http.StatusBadRequest, "As senhas não coincidem")
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	uid, err := h.Users.Create(ctx, req.Name, req.Email, req.Password, model.RolePassenger, h.Cfg.BcryptCost)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return fail(c, http.StatusConflict, "Email já cadastrado")
		}
		return fail(c, http.StatusInternalServerError, "Erro interno do servidor")
	}

	activation, err := utils.NewOpaqueToken(time.Duration(h.Cfg.ActivationTTLHour) * time.Hour)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "Erro interno do servidor")
	}
	if err := h.Tokens.Store(ctx, uid, utils.HashTokenRaw(activation.Token),
		model.TokenEmailVerification, activation.Exp); err != nil {
		return fail(c, http.StatusInternalServerError, "Erro interno do servidor")
	}

	// Notification is fire-and-forget: a broker outage must not undo a
	// successful sign-up.
	_ = queue.PublishLifecycle(ctx, h.Log, h.Cfg.RabbitURL, queue.LifecycleEvent{
		Kind:          queue.EventSignedUp,
		UserID:        uid,
		Name:          req.Name,
		Email:         req.Email,
		ActivationURL: h.Cfg.BaseURL + "/api/user/activate?token=" + activation.Token,
	})

	return c.JSON(http.StatusCreated, echo.Map{
		"success": true,
		"user": userView{
			ID: uid, Name: req.Name, Email: req.Email,
			Role: model.RolePassenger, IsActive: false,
		},
	})
}

// Activate handles GET /api/user/activate?token=... — opened from an
// email client, so it answers with an HTML page rather than JSON. A
// second call with the same token gets 401, since the token was burned
// by the first.
func (h *UserHandler) Activate(c echo.Context) error {
	raw := c.QueryParam("token")
	if raw == "" {
		return c.HTML(http.StatusBadRequest,
			templates.ActivationErrorPage("Token de ativação é obrigatório."))
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	hash := utils.HashTokenRaw(raw)
	userID, err := h.Tokens.Validate(ctx, hash, model.TokenEmailVerification)
	if err != nil {
		if errors.Is(err, repository.ErrTokenInvalid) {
			return c.HTML(http.StatusUnauthorized,
				templates.ActivationErrorPage("Token inválido ou conta já ativada."))
		}
		return c.HTML(http.StatusInternalServerError,
			templates.ActivationErrorPage("Erro interno do servidor."))
	}
	if err := h.Tokens.MarkUsed(ctx, hash); err != nil {
		return c.HTML(http.StatusInternalServerError,
			templates.ActivationErrorPage("Erro interno do servidor."))
	}
	if err := h.Users.Activate(ctx, userID); err != nil {
		return c.HTML(http.StatusInternalServerError,
			templates.ActivationErrorPage("Erro interno do servidor."))
	}

	if u, err := h.Users.GetByID(ctx, userID); err == nil {
		_ = queue.PublishLifecycle(ctx, h.Log, h.Cfg.RabbitURL, queue.LifecycleEvent{
			Kind:   queue.EventActivated,
			UserID: u.ID,
			Name:   u.Name,
			Email:  u.Email,
		})
	}

	return c.HTML(http.StatusOK, templates.ActivationSuccessPage())
}

type updateUserReq struct {
	Name     string `json:"name"`
	Email    string `json:"email" validate:"omitempty,email"`
	Password string `json:"password" validate:"omitempty,min=6"`
}

// Update handles PATCH /api/user/:userId. Users may edit themselves;
// administrators may edit anyone.
func (h *UserHandler) Update(c echo.Context) error {
	id, ok := callerIdentity(c)
	if !ok {
		return fail(c, http.StatusUnauthorized, "Não autenticado")
	}
	targetID, err := parseID(c, "userId")
	if err != nil {
		return fail(c, http.StatusBadRequest, "ID inválido")
	}
	if targetID != id.UserID && id.Role != model.RoleAdministrator {
		return fail(c, http.StatusForbidden, "Acesso negado")
	}

	var req updateUserReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Corpo da requisição inválido")
	}
	if err := c.Validate(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Dados inválidos")
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	var hash string
	if req.Password != "" {
		if hash, err = utils.HashPassword(req.Password, h.Cfg.BcryptCost); err != nil {
			return fail(c, http.StatusInternalServerError, "Erro interno do servidor")
		}
	}
	if err := h.Users.UpdateProfile(ctx, targetID, req.Name, req.Email, hash); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return fail(c, http.StatusConflict, "Email já cadastrado")
		}
		return fail(c, http.StatusInternalServerError, "Erro interno do servidor")
	}

	u, err := h.Users.GetByID(ctx, targetID)
	if err != nil {
		return fail(c, http.StatusNotFound, "Usuário não encontrado")
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "user": viewOf(u)})
}

// Delete handles DELETE /api/user/:userId/delete — self-service account
// deletion, restricted to passengers. The goodbye email is published
// before the row disappears so the recipient address still resolves.
func (h *UserHandler) Delete(c echo.Context) error {
	id, ok := callerIdentity(c)
	if !ok {
		return fail(c, http.StatusUnauthorized, "Não autenticado")
	}
	targetID, err := parseID(c, "userId")
	if err != nil {
		return fail(c, http.StatusBadRequest, "ID inválido")
	}
	if id.Role != model.RolePassenger || targetID != id.UserID {
		return fail(c, http.StatusForbidden, "Apenas passageiros podem excluir a própria conta")
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	u, err := h.Users.GetByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(c, http.StatusNotFound, "Usuário não encontrado")
		}
		return fail(c, http.StatusInternalServerError, "Erro interno do servidor")
	}

	// Goodbye email first, while the address is still resolvable.
	_ = queue.PublishLifecycle(ctx, h.Log, h.Cfg.RabbitURL, queue.LifecycleEvent{
		Kind:   queue.EventDeleted,
		UserID: u.ID,
		Name:   u.Name,
		Email:  u.Email,
	})

	if err := h.Tokens.RevokeAllForUser(ctx, u.ID, ""); err != nil {
		h.Log.Warn("token revocation failed during account deletion",
			zap.Uint64("user_id", u.ID), zap.Error(err))
	}
	if sid, ok := c.Get(middleware.CtxSessionID).(string); ok && sid != "" {
		_ = h.Sessions.Delete(ctx, sid)
	}
	if err := h.Users.Delete(ctx, u.ID); err != nil {
		return fail(c, http.StatusInternalServerError, "Erro interno do servidor")
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "message": "Conta excluída com sucesso"})
}

type forgotPasswordReq struct {
	Email string `json:"email" validate:"required,email"`
}

// ForgotPassword handles POST /api/user/forgot-password. The response
// is the same whether or not the email exists, to avoid account
// enumeration.
func (h *UserHandler) ForgotPassword(c echo.Context) error {
	var req forgotPasswordReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Corpo da requisição inválido")
	}
	if err := c.Validate(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Email é obrigatório")
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	if u, err := h.Users.GetByEmail(ctx, req.Email); err == nil {
		reset, err := utils.NewOpaqueToken(time.Duration(h.Cfg.ResetTTLMin) * time.Minute)
		if err == nil {
			if err := h.Tokens.Store(ctx, u.ID, utils.HashTokenRaw(reset.Token),
				model.TokenPasswordReset, reset.Exp); err == nil {
				_ = queue.PublishLifecycle(ctx, h.Log, h.Cfg.RabbitURL, queue.LifecycleEvent{
					Kind:     queue.EventResetRequested,
					UserID:   u.ID,
					Name:     u.Name,
					Email:    u.Email,
					ResetURL: h.Cfg.BaseURL + "/reset-password?token=" + reset.Token,
				})
			}
		}
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message": "Se o email estiver cadastrado, enviaremos as instruções de redefinição.",
	})
}

type resetPasswordReq struct {
	Token           string `json:"token" validate:"required"`
	Password        string `json:"password" validate:"required,min=6"`
	PasswordConfirm string `json:"passwordConfirm" validate:"required"`
}

// ResetPassword handles POST /api/user/reset-password. A successful
// reset burns the token and revokes all refresh tokens, forcing every
// open session of the account to re-authenticate.
func (h *UserHandler) ResetPassword(c echo.Context) error {
	var req resetPasswordReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Corpo da requisição inválido")
	}
	if err := c.Validate(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Token e nova senha são obrigatórios")
	}
	if req.Password != req.PasswordConfirm {
		return fail(c, http.StatusBadRequest, "As senhas não coincidem")
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	hash := utils.HashTokenRaw(req.Token)
	userID, err := h.Tokens.Validate(ctx, hash, model.TokenPasswordReset)
	if err != nil {
		if errors.Is(err, repository.ErrTokenInvalid) {
			return fail(c, http.StatusUnauthorized, "Token inválido")
		}
		return fail(c, http.StatusInternalServerError, "Erro interno do servidor")
	}
	if err := h.Tokens.MarkUsed(ctx, hash); err != nil {
		return fail(c, http.StatusInternalServerError, "Erro interno do servidor")
	}

	newHash, err := utils.HashPassword(req.Password, h.Cfg.BcryptCost)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "Erro interno do servidor")
	}
	if err := h.Users.UpdateProfile(ctx, userID, "", "", newHash); err != nil {
		return fail(c, http.StatusInternalServerError, "Erro interno do servidor")
	}
	if err := h.Tokens.RevokeAllForUser(ctx, userID, model.TokenRefresh); err != nil {
		h.Log.Warn("refresh revocation failed after password reset",
			zap.Uint64("user_id", userID), zap.Error(err))
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "Senha redefinida com sucesso!"})
}
