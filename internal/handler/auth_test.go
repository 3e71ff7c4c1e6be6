package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/collabus/transit-admin/internal/config"
	"github.com/collabus/transit-admin/internal/model"
	"github.com/collabus/transit-admin/internal/repository"
	"github.com/collabus/transit-admin/internal/session"
	"github.com/collabus/transit-admin/internal/utils"
)

func testConfig() config.Config {
	return config.Config{
		Env:            "test",
		JWTSecret:      "handler-secret",
		AccessTTLMin:   60,
		RefreshTTLDays: 7,
		SessionTTLHour: 24,
		BcryptCost:     4,
	}
}

type authFixture struct {
	h        *AuthHandler
	e        *echo.Echo
	mock     sqlmock.Sqlmock
	sessions session.Store
}

func newAuthFixture(t *testing.T) authFixture {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	e := echo.New()
	e.Validator = NewValidator()
	sessions := session.NewMemoryStore(time.Hour)
	h := NewAuthHandler(testConfig(), repository.NewUserRepo(db),
		repository.NewTokenRepo(db), sessions, zap.NewNop())
	return authFixture{h: h, e: e, mock: mock, sessions: sessions}
}

func (f authFixture) post(path, body string) (*httptest.ResponseRecorder, echo.Context) {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return rec, f.e.NewContext(req, rec)
}

func activeUserRows(t *testing.T, id uint64, email, password, role string) *sqlmock.Rows {
	t.Helper()
	hash, err := utils.HashPassword(password, 4)
	require.NoError(t, err)
	return sqlmock.NewRows([]string{
		"id", "name", "email", "password_hash", "role", "is_active",
		"company_id", "created_at", "updated_at",
	}).AddRow(id, "Fulano", email, hash, role, true, nil, time.Now(), time.Now())
}

func TestSignInSuccessSetsSessionCookie(t *testing.T) {
	f := newAuthFixture(t)

	f.mock.ExpectQuery("SELECT (.+) FROM users WHERE email=").
		WithArgs("fulano@collabus.com").
		WillReturnRows(activeUserRows(t, 9, "fulano@collabus.com", "senha123", model.RolePassenger))
	f.mock.ExpectBegin()
	f.mock.ExpectExec("UPDATE tokens SET used_at=NOW\\(\\)").
		WillReturnResult(sqlmock.NewResult(0, 0))
	f.mock.ExpectExec("INSERT INTO tokens").
		WillReturnResult(sqlmock.NewResult(1, 1))
	f.mock.ExpectCommit()

	rec, c := f.post("/api/auth/sign-in", `{"email":"fulano@collabus.com","password":"senha123"}`)
	require.NoError(t, f.h.SignIn(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "accessToken")
	assert.NotContains(t, rec.Body.String(), "password")

	var sessionCookie *http.Cookie
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == session.CookieName {
			sessionCookie = ck
		}
	}
	require.NotNil(t, sessionCookie, "sign-in must set the session cookie")
	assert.True(t, sessionCookie.HttpOnly)
	assert.NotEmpty(t, sessionCookie.Value)
}

func TestSignInWrongPasswordIs401(t *testing.T) {
	f := newAuthFixture(t)

	f.mock.ExpectQuery("SELECT (.+) FROM users WHERE email=").
		WithArgs("fulano@collabus.com").
		WillReturnRows(activeUserRows(t, 9, "fulano@collabus.com", "senha123", model.RolePassenger))

	rec, c := f.post("/api/auth/sign-in", `{"email":"fulano@collabus.com","password":"errada!"}`)
	require.NoError(t, f.h.SignIn(c))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Credenciais inválidas")
}

func TestSignInUnknownEmailSameMessage(t *testing.T) {
	// Unknown email and bad password must be indistinguishable to the
	// client.
	f := newAuthFixture(t)

	f.mock.ExpectQuery("SELECT (.+) FROM users WHERE email=").
		WithArgs("ghost@collabus.com").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	rec, c := f.post("/api/auth/sign-in", `{"email":"ghost@collabus.com","password":"qualquer"}`)
	require.NoError(t, f.h.SignIn(c))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Credenciais inválidas")
}

func TestSignInInactiveAccountIs403(t *testing.T) {
	f := newAuthFixture(t)

	hash, err := utils.HashPassword("senha123", 4)
	require.NoError(t, err)
	rows := sqlmock.NewRows([]string{
		"id", "name", "email", "password_hash", "role", "is_active",
		"company_id", "created_at", "updated_at",
	}).AddRow(9, "Fulano", "novo@collabus.com", hash, model.RolePassenger, false, nil, time.Now(), time.Now())
	f.mock.ExpectQuery("SELECT (.+) FROM users WHERE email=").
		WithArgs("novo@collabus.com").
		WillReturnRows(rows)

	rec, c := f.post("/api/auth/sign-in", `{"email":"novo@collabus.com","password":"senha123"}`)
	require.NoError(t, f.h.SignIn(c))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "Conta não ativada")
}

func TestSignInMissingFieldsIs400(t *testing.T) {
	f := newAuthFixture(t)

	rec, c := f.post("/api/auth/sign-in", `{"email":"fulano@collabus.com"}`)
	require.NoError(t, f.h.SignIn(c))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSignOutWithoutSessionStillSucceeds(t *testing.T) {
	f := newAuthFixture(t)

	rec, c := f.post("/api/auth/sign-out", "")
	require.NoError(t, f.h.SignOut(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Desconectado com sucesso!")
}

func TestRefreshRejectsGarbageToken(t *testing.T) {
	f := newAuthFixture(t)

	rec, c := f.post("/api/auth/refresh", `{"refreshToken":"not-a-jwt"}`)
	require.NoError(t, f.h.Refresh(c))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Token inválido")
}

func TestRefreshRejectsAccessTokenKind(t *testing.T) {
	f := newAuthFixture(t)

	access, err := utils.NewAccessToken("handler-secret", 9, 60)
	require.NoError(t, err)

	rec, c := f.post("/api/auth/refresh", `{"refreshToken":"`+access.Token+`"}`)
	require.NoError(t, f.h.Refresh(c))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRefreshRejectsRevokedToken(t *testing.T) {
	f := newAuthFixture(t)

	refresh, err := utils.NewRefreshToken("handler-secret", 9, 7)
	require.NoError(t, err)

	rows := sqlmock.NewRows([]string{"user_id", "expires_at", "used_at"}).
		AddRow(9, time.Now().Add(time.Hour), time.Now())
	f.mock.ExpectQuery("SELECT user_id, expires_at, used_at FROM tokens").
		WillReturnRows(rows)

	rec, c := f.post("/api/auth/refresh", `{"refreshToken":"`+refresh.Token+`"}`)
	require.NoError(t, f.h.Refresh(c))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
