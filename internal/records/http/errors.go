package http

import (
	"errors"
	"net/http"

	"github.com/caliperhq/labrecords/internal/records/service"
	"github.com/caliperhq/labrecords/internal/records/store"
	"github.com/caliperhq/labrecords/pkg/httpx"
	"github.com/caliperhq/labrecords/pkg/recordsdk"
)

// writeError maps service and store errors onto the failure envelope. The
// envelope's code field, not the HTTP status, is the machine-readable
// signal clients key off; SESSION_REPLACED in particular must be
// distinguishable from a plain 401.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		writeMessage(w, http.StatusUnauthorized, "invalid username or password")
	case errors.Is(err, service.ErrAccountDeactivated):
		httpx.WriteJSON(w, http.StatusForbidden, recordsdk.ErrorResponse{
			Message: "account is deactivated",
			Code:    recordsdk.CodeAccountDeactivated,
		})
	case errors.Is(err, service.ErrTokenMissing):
		writeMessage(w, http.StatusUnauthorized, "missing bearer token")
	case errors.Is(err, service.ErrTokenMalformed),
		errors.Is(err, service.ErrIdentityUnknown):
		writeMessage(w, http.StatusUnauthorized, "invalid token")
	case errors.Is(err, service.ErrTokenExpired):
		writeMessage(w, http.StatusUnauthorized, "token expired")
	case errors.Is(err, service.ErrSessionSuperseded):
		httpx.WriteJSON(w, http.StatusUnauthorized, recordsdk.ErrorResponse{
			Message: "session superseded by a newer login",
			Code:    recordsdk.CodeSessionReplaced,
		})
	case errors.Is(err, service.ErrForbidden):
		writeMessage(w, http.StatusForbidden, "not allowed")
	case errors.Is(err, service.ErrUsernameTaken):
		writeMessage(w, http.StatusConflict, "username already taken")
	case errors.Is(err, service.ErrWeakPassword):
		writeMessage(w, http.StatusBadRequest, "password too weak")
	case errors.Is(err, service.ErrInvalidRole):
		writeMessage(w, http.StatusBadRequest, "invalid role")
	case errors.Is(err, service.ErrInvalidRequest):
		writeMessage(w, http.StatusBadRequest, "invalid request")
	case errors.Is(err, service.ErrInvalidPayload):
		writeMessage(w, http.StatusBadRequest, "payload must be a JSON object")
	case errors.Is(err, store.ErrNotFound):
		writeMessage(w, http.StatusNotFound, "not found")
	default:
		var conflict *store.VersionConflictError
		if errors.As(err, &conflict) {
			latest := toSDKRecord(conflict.Latest)
			httpx.WriteJSON(w, http.StatusConflict, recordsdk.ErrorResponse{
				Message:    "record was modified by a concurrent edit",
				Code:       recordsdk.CodeVersionConflict,
				LatestData: &latest,
			})
			return
		}
		writeMessage(w, http.StatusInternalServerError, "internal error")
	}
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	httpx.WriteJSON(w, status, recordsdk.ErrorResponse{Message: message})
}
