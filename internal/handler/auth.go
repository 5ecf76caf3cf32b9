package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/adeolu/marketplace/internal/apperror"
	"github.com/adeolu/marketplace/internal/auth"
	"github.com/adeolu/marketplace/internal/service"
)

// AuthHandler serves the account endpoints: signup, login, refresh, and the
// current-user lookup.
type AuthHandler struct {
	auth     *service.AuthService
	validate *validator.Validate
	logger   *slog.Logger
}

func NewAuthHandler(auth *service.AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		auth:     auth,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger,
	}
}

type signUpRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=4"`
	// AdminKey, when it matches the server's admin secret, makes the new
	// account a superuser. A wrong key is ignored, not rejected.
	AdminKey string `json:"admin_key" validate:"omitempty"`
}

// HandleSignUp registers a new account.
//
// POST /auth/signup with a JSON body {"email": ..., "password": ...} and an
// optional "admin_key". Responds 201 with the created user, 409 if the email
// is taken.
func (h *AuthHandler) HandleSignUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		writeError(w, validationError(err))
		return
	}

	user, err := h.auth.SignUp(r.Context(), req.Email, req.Password, req.AdminKey)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

// HandleLogin exchanges credentials for a token pair.
//
// POST /auth/login, form-encoded with "username" (the email) and "password"
// fields. The field is called username even though it carries an email, to
// stay compatible with standard OAuth2 password-flow clients.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid form body"))
		return
	}

	email := r.PostFormValue("username")
	password := r.PostFormValue("password")
	if email == "" || password == "" {
		writeError(w, apperror.ValidationFailed("username", "username and password are required"))
		return
	}

	pair, err := h.auth.Login(r.Context(), email, password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, pair)
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// HandleRefresh mints a new access token from a refresh token.
//
// POST /auth/refresh with {"refresh_token": ...}. The same refresh token is
// echoed back; it is not rotated.
func (h *AuthHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, validationError(err))
		return
	}

	pair, err := h.auth.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, pair)
}

// HandleMe returns the authenticated caller's own account.
//
// GET /api/me, requires a bearer token.
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.CurrentUser(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("authentication required"))
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// validationError converts a validator.ValidationErrors into the apperror
// taxonomy, naming the first failing field.
func validationError(err error) error {
	if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
		first := verrs[0]
		return apperror.ValidationFailed(first.Field(), "failed validation rule "+first.Tag())
	}
	return apperror.ValidationFailed("body", "invalid request")
}
