package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/campusreach/directory/internal/directory/service"
	"github.com/campusreach/directory/pkg/httpx"
	"github.com/campusreach/directory/pkg/jwtx"
	"github.com/campusreach/directory/pkg/slogx"
)

type AuthHandler struct {
	IdentityService *service.IdentityService
}

// HandleRegister godoc
//
//	@Summary		Register Admin Identity
//	@Description	Redeem an invitation code and create the admin identity bound to the invitation's entity.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		RegisterRequest	true	"Registration request"
//	@Success		201		{object}	AdminResponse
//	@Failure		400		{object}	httpx.ErrorResponse
//	@Router			/v1/auth/register [post].
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}
	if req.Email == "" || req.Password == "" || req.InvitationCode == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "email, password and invitation_code are required")
		return
	}

	admin, err := h.IdentityService.Register(ctx, req.Email, req.Password, req.InvitationCode)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidInvitation):
			httpx.WriteError(w, http.StatusBadRequest, "invalid_invitation", "Invalid or expired invitation code")
		case errors.Is(err, service.ErrEmailConflict):
			httpx.WriteError(w, http.StatusBadRequest, "email_conflict", "Email already registered")
		case errors.Is(err, service.ErrWeakPassword):
			httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Password must be at least 8 characters")
		case errors.Is(err, service.ErrInvalidCredentials):
			httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "A valid email address is required")
		default:
			log.Error("registration failed", "err", err)
			httpx.WriteError(w, http.StatusInternalServerError, "server_error", "Registration failed")
		}
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, toAdminResponse(admin))
}

// HandleLogin godoc
//
//	@Summary		Admin Login
//	@Description	Exchange email and password for a bearer access token. Form-encoded like an OAuth2 password grant.
//	@Tags			Auth
//	@Accept			x-www-form-urlencoded
//	@Produce		json
//	@Param			email		formData	string	true	"Admin email"
//	@Param			password	formData	string	true	"Password"
//	@Success		200			{object}	TokenResponse
//	@Failure		401			{object}	httpx.ErrorResponse
//	@Router			/v1/auth/login [post].
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	if err := r.ParseForm(); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid form body")
		return
	}
	email := r.PostFormValue("email")
	password := r.PostFormValue("password")
	if email == "" || password == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "email and password are required")
		return
	}

	token, admin, err := h.IdentityService.Authenticate(ctx, email, password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			httpx.WriteError(w, http.StatusUnauthorized, "invalid_credentials", "Invalid email or password")
		case errors.Is(err, service.ErrInactiveAccount):
			httpx.WriteError(w, http.StatusUnauthorized, "inactive_account", "Account is inactive")
		default:
			log.Error("login failed", "err", err)
			httpx.WriteError(w, http.StatusInternalServerError, "server_error", "Login failed")
		}
		return
	}

	httpx.WriteJSON(w, http.StatusOK, TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(jwtx.DefaultAccessTokenTTL.Seconds()),
		Admin:       toAdminResponse(admin),
	})
}

// HandleMe godoc
//
//	@Summary		Current Admin
//	@Description	Return the identity behind the presented access token.
//	@Tags			Auth
//	@Produce		json
//	@Success		200	{object}	AdminResponse
//	@Failure		401	{object}	httpx.ErrorResponse
//	@Security		BearerAuth
//	@Router			/v1/auth/me [get].
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	claims, ok := httpx.ClaimsFromContext(ctx)
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
		return
	}

	admin, err := h.IdentityService.GetAdmin(ctx, claims.Subject)
	if err != nil {
		log.Error("failed to load admin", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "Failed to load identity")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, toAdminResponse(admin))
}
