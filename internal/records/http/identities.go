package http

import (
	"encoding/json"
	"net/http"

	"github.com/caliperhq/labrecords/internal/records/domain"
	"github.com/caliperhq/labrecords/internal/records/service"
	"github.com/caliperhq/labrecords/pkg/httpx"
	"github.com/caliperhq/labrecords/pkg/recordsdk"
	"github.com/caliperhq/labrecords/pkg/slogx"
)

func toSDKIdentity(i domain.Identity) recordsdk.IdentityInfo {
	return recordsdk.IdentityInfo{
		ID:          i.ID,
		Username:    i.Username,
		DisplayName: i.DisplayName,
		Role:        i.Role,
		Active:      i.Active,
	}
}

type WhoamiHandler struct{}

// ServeHTTP returns the caller's identity summary.
//
//	@Summary	Current identity
//	@Tags		Identities
//	@Security	BearerAuth
//	@Produce	json
//	@Success	200	{object}	recordsdk.IdentityInfo
//	@Failure	401	{object}	recordsdk.ErrorResponse
//	@Router		/v1/identity [get].
func (h *WhoamiHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFromCtx(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "missing bearer token")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toSDKIdentity(identity))
}

type IdentitiesHandler struct {
	IdentityService *service.IdentityService
}

// HandleCreate provisions a new identity.
//
//	@Summary		Provision identity
//	@Description	Creates a member or admin account. Admin only.
//	@Tags			Identities
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		recordsdk.CreateIdentityRequest	true	"New identity"
//	@Success		201		{object}	recordsdk.IdentityInfo
//	@Failure		403		{object}	recordsdk.ErrorResponse
//	@Failure		409		{object}	recordsdk.ErrorResponse	"Username already taken"
//	@Router			/v1/identities [post].
func (h *IdentitiesHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req recordsdk.CreateIdentityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	identity, err := h.IdentityService.CreateIdentity(
		ctx, req.Username, req.DisplayName, req.Password, req.Role,
	)
	if err != nil {
		writeError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, toSDKIdentity(identity))
}

// HandleDeactivate soft-deactivates an identity and kills its sessions.
//
//	@Summary		Deactivate identity
//	@Description	Marks the account inactive and bumps its session version so outstanding tokens stop working immediately. Admin only.
//	@Tags			Identities
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	recordsdk.MessageResponse
//	@Failure		403	{object}	recordsdk.ErrorResponse
//	@Failure		404	{object}	recordsdk.ErrorResponse
//	@Router			/v1/identities/{id}/deactivate [post].
func (h *IdentitiesHandler) HandleDeactivate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	id := r.PathValue("id")
	if err := h.IdentityService.Deactivate(ctx, id); err != nil {
		log.Warn("deactivate failed", "target_id", id, "err", err)
		writeError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, recordsdk.MessageResponse{Message: "identity deactivated"})
}
