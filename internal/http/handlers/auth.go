package handlers

import (
	stderrors "errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dropDatabas3/syncgate/internal/http/errors"
	jwtx "github.com/dropDatabas3/syncgate/internal/jwt"
	"github.com/dropDatabas3/syncgate/internal/observability/logger"
	"github.com/dropDatabas3/syncgate/internal/security/password"
	tokens "github.com/dropDatabas3/syncgate/internal/security/token"
	"github.com/dropDatabas3/syncgate/internal/store/core"
)

// Auth maneja registro, login y el ciclo de refresh tokens.
type Auth struct {
	Store  core.Repository
	Issuer *jwtx.Issuer
}

// ─────────────── DTOs ───────────────

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"` // "Bearer"
	ExpiresIn    int64  `json:"expires_in"` // segundos
	RefreshToken string `json:"refresh_token"`
}

type userResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// ─────────────── Handlers ───────────────

// Register crea una cuenta nueva con rol user.
// POST /v1/auth/register
func (h *Auth) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || req.Password == "" {
		errors.WriteError(w, errors.ErrMissingFields)
		return
	}

	phc, err := password.Hash(password.Default, req.Password)
	if err != nil {
		errors.WriteError(w, errors.ErrInternal.WithCause(err))
		return
	}

	now := time.Now().UTC()
	u := &core.User{
		ID:           uuid.New(),
		Email:        req.Email,
		PasswordHash: phc,
		Role:         core.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := h.Store.CreateUser(r.Context(), u); err != nil {
		if stderrors.Is(err, core.ErrConflict) {
			errors.WriteError(w, errors.ErrEmailAlreadyInUse)
			return
		}
		errors.WriteError(w, errors.ErrStore.WithCause(err))
		return
	}

	logger.From(r.Context()).Info("user registered", logger.UserID(u.ID.String()))
	writeJSON(w, http.StatusCreated, userResponse{
		ID:    u.ID.String(),
		Email: u.Email,
		Role:  string(u.Role),
	})
}

// Login verifica credenciales y emite el par access + refresh.
// POST /v1/auth/login
func (h *Auth) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || req.Password == "" {
		errors.WriteError(w, errors.ErrMissingFields)
		return
	}

	// Usuario inexistente y password inválido responden igual.
	u, err := h.Store.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		errors.WriteError(w, errors.ErrInvalidCredentials)
		return
	}
	if !password.Verify(req.Password, u.PasswordHash) {
		logger.From(r.Context()).Debug("password check failed", logger.UserID(u.ID.String()))
		errors.WriteError(w, errors.ErrInvalidCredentials)
		return
	}

	h.issueTokens(w, r, u)
}

// Refresh rota el refresh token: el consumido queda revocado y se emite un
// par nuevo. Tokens revocados o expirados responden 401.
// POST /v1/auth/refresh
func (h *Auth) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.RefreshToken) == "" {
		errors.WriteError(w, errors.ErrMissingFields)
		return
	}

	rt, err := h.Store.GetRefreshTokenByHash(r.Context(), tokens.SHA256Base64URL(req.RefreshToken))
	if err != nil {
		errors.WriteError(w, errors.ErrTokenInvalid)
		return
	}
	if rt.RevokedAt != nil || time.Now().UTC().After(rt.ExpiresAt) {
		errors.WriteError(w, errors.ErrTokenInvalid)
		return
	}

	u, err := h.Store.GetUserByID(r.Context(), rt.UserID)
	if err != nil {
		errors.WriteError(w, errors.ErrUnauthorized)
		return
	}

	// Rotación: revocar antes de emitir para que el token viejo no sobreviva
	// a un fallo posterior.
	if err := h.Store.RevokeRefreshToken(r.Context(), rt.ID); err != nil {
		errors.WriteError(w, errors.ErrStore.WithCause(err))
		return
	}

	h.issueTokens(w, r, u)
}

// Logout revoca el refresh token presentado. Idempotente: un token ya
// revocado o desconocido responde 204 igual.
// POST /v1/auth/logout
func (h *Auth) Logout(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.RefreshToken) == "" {
		errors.WriteError(w, errors.ErrMissingFields)
		return
	}

	rt, err := h.Store.GetRefreshTokenByHash(r.Context(), tokens.SHA256Base64URL(req.RefreshToken))
	if err == nil && rt.RevokedAt == nil {
		if err := h.Store.RevokeRefreshToken(r.Context(), rt.ID); err != nil {
			errors.WriteError(w, errors.ErrStore.WithCause(err))
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

// ChangePassword rota el password del usuario autenticado. Todas sus
// sesiones de refresh quedan revocadas: el password nuevo exige re-login.
// POST /v1/auth/password
func (h *Auth) ChangePassword(w http.ResponseWriter, r *http.Request) {
	u := currentUser(w, r)
	if u == nil {
		return
	}
	var req changePasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		errors.WriteError(w, errors.ErrMissingFields)
		return
	}
	if !password.Verify(req.CurrentPassword, u.PasswordHash) {
		errors.WriteError(w, errors.ErrInvalidCredentials)
		return
	}

	phc, err := password.Hash(password.Default, req.NewPassword)
	if err != nil {
		errors.WriteError(w, errors.ErrInternal.WithCause(err))
		return
	}
	if err := h.Store.UpdatePasswordHash(r.Context(), u.ID, phc); err != nil {
		errors.WriteError(w, errors.ErrStore.WithCause(err))
		return
	}
	if err := h.Store.RevokeAllRefreshTokens(r.Context(), u.ID); err != nil {
		errors.WriteError(w, errors.ErrStore.WithCause(err))
		return
	}

	logger.From(r.Context()).Info("password changed", logger.UserID(u.ID.String()))
	w.WriteHeader(http.StatusNoContent)
}

// Me devuelve el usuario autenticado.
// GET /v1/auth/me
func (h *Auth) Me(w http.ResponseWriter, r *http.Request) {
	u := currentUser(w, r)
	if u == nil {
		return
	}
	writeJSON(w, http.StatusOK, userResponse{
		ID:    u.ID.String(),
		Email: u.Email,
		Role:  string(u.Role),
	})
}

func (h *Auth) issueTokens(w http.ResponseWriter, r *http.Request, u *core.User) {
	access, exp, err := h.Issuer.IssueAccess(u.ID, u.Email, u.Role)
	if err != nil {
		errors.WriteError(w, errors.ErrInternal.WithCause(err))
		return
	}
	refresh, _, err := h.Issuer.IssueRefresh(r.Context(), u.ID)
	if err != nil {
		errors.WriteError(w, errors.ErrStore.WithCause(err))
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken:  access,
		TokenType:    "Bearer",
		ExpiresIn:    int64(time.Until(exp).Seconds()),
		RefreshToken: refresh,
	})
}
