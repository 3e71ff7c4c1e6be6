package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/collabus/transit-admin/internal/model"
	"github.com/collabus/transit-admin/internal/repository"
)

// CompanyHandler serves the small company catalogue.
type CompanyHandler struct {
	Companies *repository.CompanyRepo
}

func NewCompanyHandler(co *repository.CompanyRepo) *CompanyHandler {
	return &CompanyHandler{Companies: co}
}

type createCompanyReq struct {
	Name string `json:"name" validate:"required"`
}

// Create handles POST /api/companies. Administrator only.
func (h *CompanyHandler) Create(c echo.Context) error {
	var req createCompanyReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Corpo da requisição inválido")
	}
	if err := c.Validate(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Nome é obrigatório")
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	co := model.Company{Name: req.Name}
	if err := h.Companies.Create(ctx, &co); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return fail(c, http.StatusConflict, "Já existe uma empresa com esse nome")
		}
		return fail(c, http.StatusInternalServerError, "Erro interno do servidor")
	}
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "company": co})
}

// List handles GET /api/companies. Administrator only; the catalogue is
// small so it is returned whole.
func (h *CompanyHandler) List(c echo.Context) error {
	ctx, cancel := reqContext(c)
	defer cancel()

	companies, err := h.Companies.List(ctx)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "Erro interno do servidor")
	}
	return c.JSON(http.StatusOK, echo.Map{"data": companies})
}

// MyCompany handles GET /api/companies/my-company: the supervisor's own
// company record.
func (h *CompanyHandler) MyCompany(c echo.Context) error {
	id, ok := callerIdentity(c)
	if !ok {
		return fail(c, http.StatusUnauthorized, "Não autenticado")
	}
	if id.CompanyID == 0 {
		return fail(c, http.StatusBadRequest, "Supervisor não está vinculado a nenhuma empresa")
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	co, err := h.Companies.GetByID(ctx, id.CompanyID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(c, http.StatusNotFound, "Empresa não encontrada")
		}
		return fail(c, http.StatusInternalServerError, "Erro interno do servidor")
	}
	return c.JSON(http.StatusOK, echo.Map{"company": co})
}
