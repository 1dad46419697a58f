package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/xid"

	"github.com/pupaakdev/userd/internal/apperror"
	"github.com/pupaakdev/userd/internal/auth"
	"github.com/pupaakdev/userd/internal/service"
)

// OAuthProvider is the slice of auth.GitHubProvider the handler needs;
// tests substitute a fake.
type OAuthProvider interface {
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) (*auth.Profile, error)
}

// AuthHandler serves registration, password login, and the GitHub OAuth
// flow.
//
// github is nil when OAuth credentials aren't configured; the OAuth routes
// stay registered and answer with a configuration error.
type AuthHandler struct {
	auth        *service.AuthService
	github      OAuthProvider
	frontendURL string
	validate    *validator.Validate
	logger      *slog.Logger
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(
	authService *service.AuthService,
	github OAuthProvider,
	frontendURL string,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		auth:        authService,
		github:      github,
		frontendURL: frontendURL,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
		logger:      logger,
	}
}

type registerRequest struct {
	Username string `json:"username" validate:"required,min=3,max=32"`
	FullName string `json:"fullname" validate:"omitempty,max=100"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// HandleRegister creates a local account.
//
// HTTP: POST /register → 201 {username, email} | 400 | 409
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := h.decodeValid(r, &req); err != nil {
		writeError(w, err)
		return
	}

	user, err := h.auth.Register(r.Context(), service.RegisterParams{
		Username: req.Username,
		FullName: req.FullName,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"username": user.Username,
		"email":    user.Email,
	})
}

// HandleLogin authenticates a username/password pair.
//
// HTTP: POST /login → 200 {message, username, accessToken, tokenType} | 401
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := h.decodeValid(r, &req); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// HandleOAuthLogin redirects the browser to the provider's consent screen.
//
// HTTP: GET /oauth/{provider}/login → 307 | 404 (unknown provider) | 500
//
// A random state value is set in a short-lived HttpOnly cookie and echoed
// through the provider; the callback verifies it to block CSRF.
func (h *AuthHandler) HandleOAuthLogin(w http.ResponseWriter, r *http.Request) {
	if err := h.checkProvider(r); err != nil {
		writeError(w, err)
		return
	}

	state := xid.New().String()
	http.SetCookie(w, &http.Cookie{
		Name:     "oauth_state",
		Value:    state,
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.github.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleOAuthCallback completes the OAuth login.
//
// HTTP: GET /oauth/{provider}/callback?code=...&state=...
//
// On success the browser is redirected to the configured frontend callback
// URL with the issued token as a query value.
func (h *AuthHandler) HandleOAuthCallback(w http.ResponseWriter, r *http.Request) {
	if err := h.checkProvider(r); err != nil {
		writeError(w, err)
		return
	}

	stateCookie, err := r.Cookie("oauth_state")
	if err != nil || stateCookie.Value == "" || r.URL.Query().Get("state") != stateCookie.Value {
		h.logger.Warn("oauth callback: state mismatch")
		writeError(w, apperror.ValidationFailed("state", "invalid OAuth state"))
		return
	}

	// The state cookie is single-use.
	http.SetCookie(w, &http.Cookie{
		Name:   "oauth_state",
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.logger.Info("oauth callback: user denied authorization", slog.String("error", errParam))
		http.Redirect(w, r, h.frontendRedirect("error", "access_denied"), http.StatusSeeOther)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		writeError(w, apperror.ValidationFailed("code", "missing GitHub code"))
		return
	}

	profile, err := h.github.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("oauth callback: exchange failed", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	result, err := h.auth.LoginOrLinkGitHub(r.Context(), profile)
	if err != nil {
		h.logger.Error("oauth callback: resolving user failed", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	http.Redirect(w, r, h.frontendRedirect("token", result.Token), http.StatusSeeOther)
}

// checkProvider rejects unknown providers and unconfigured credentials.
func (h *AuthHandler) checkProvider(r *http.Request) error {
	if provider := chi.URLParam(r, "provider"); provider != "github" {
		return apperror.NotFound("provider", provider)
	}
	if h.github == nil {
		return apperror.Config("GitHub OAuth credentials are not set")
	}
	return nil
}

// frontendRedirect appends a query parameter to the frontend callback URL.
func (h *AuthHandler) frontendRedirect(key, value string) string {
	u, err := url.Parse(h.frontendURL)
	if err != nil {
		// Validated at startup; fall back to naive concatenation.
		return h.frontendURL + "?" + key + "=" + url.QueryEscape(value)
	}
	q := u.Query()
	q.Set(key, value)
	u.RawQuery = q.Encode()
	return u.String()
}

// decodeValid decodes a JSON body into dst and runs struct validation,
// returning a Validation apperror on any failure.
func (h *AuthHandler) decodeValid(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperror.ValidationFailed("body", "invalid request body")
	}

	if err := h.validate.Struct(dst); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			e := fieldErrs[0]
			return apperror.ValidationFailed(e.Field(),
				fmt.Sprintf("field %s failed validation on %s", e.Field(), e.Tag()))
		}
		return apperror.ValidationFailed("body", "invalid request body")
	}

	return nil
}
