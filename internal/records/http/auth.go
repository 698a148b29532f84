package http

import (
	"encoding/json"
	"net/http"

	"github.com/caliperhq/labrecords/internal/records/service"
	"github.com/caliperhq/labrecords/pkg/httpx"
	"github.com/caliperhq/labrecords/pkg/recordsdk"
	"github.com/caliperhq/labrecords/pkg/slogx"
)

type LoginHandler struct {
	AuthService *service.AuthService
}

// ServeHTTP handles first-party login.
//
//	@Summary		Log in
//	@Description	Verifies credentials and issues a bearer token. Any previously issued token for the identity stops working.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		recordsdk.LoginRequest	true	"Credentials"
//	@Success		200		{object}	recordsdk.LoginResponse
//	@Failure		401		{object}	recordsdk.ErrorResponse	"Unknown user or wrong password"
//	@Failure		403		{object}	recordsdk.ErrorResponse	"Account deactivated"
//	@Router			/v1/auth/login [post].
func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req recordsdk.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	identity, token, err := h.AuthService.Login(ctx, req.Username, req.Password, req.OTP)
	if err != nil {
		writeError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, recordsdk.LoginResponse{
		Token:     token.Token,
		ExpiresAt: token.ExpiresAt,
		Identity:  toSDKIdentity(identity),
	})
}

type LogoutAllHandler struct {
	AuthService *service.AuthService
}

// ServeHTTP invalidates every outstanding token for the caller.
//
//	@Summary		Log out all devices
//	@Description	Bumps the session version so all issued tokens (including the calling one) are superseded. The response carries a re-issued token for callers that want to keep working.
//	@Tags			Auth
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	recordsdk.TokenResponse
//	@Failure		401	{object}	recordsdk.ErrorResponse
//	@Router			/v1/auth/logout-all [post].
func (h *LogoutAllHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	identity, ok := identityFromCtx(ctx)
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "missing bearer token")
		return
	}

	token, err := h.AuthService.LogoutAll(ctx, identity)
	if err != nil {
		log.Warn("logout all failed", "identity_id", identity.ID, "err", err)
		writeError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, recordsdk.TokenResponse{
		Message:   "all sessions logged out",
		Token:     token.Token,
		ExpiresAt: token.ExpiresAt,
	})
}

type PasswordHandler struct {
	AuthService *service.AuthService
}

// ServeHTTP rotates the caller's password.
//
//	@Summary		Change password
//	@Description	Verifies the current password, stores a new hash and bumps the session version; other devices are logged out.
//	@Tags			Auth
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		recordsdk.ChangePasswordRequest	true	"Password change"
//	@Success		200		{object}	recordsdk.TokenResponse
//	@Failure		401		{object}	recordsdk.ErrorResponse
//	@Router			/v1/auth/password [post].
func (h *PasswordHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	identity, ok := identityFromCtx(ctx)
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "missing bearer token")
		return
	}

	var req recordsdk.ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	token, err := h.AuthService.ChangePassword(ctx, identity, req.CurrentPassword, req.NewPassword)
	if err != nil {
		writeError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, recordsdk.TokenResponse{
		Message:   "password changed",
		Token:     token.Token,
		ExpiresAt: token.ExpiresAt,
	})
}
