package http

import (
	"encoding/json"
	"net/http"

	"github.com/caliperhq/labrecords/internal/records/domain"
	"github.com/caliperhq/labrecords/internal/records/service"
	"github.com/caliperhq/labrecords/pkg/httpx"
	"github.com/caliperhq/labrecords/pkg/recordsdk"
)

func toSDKRecord(r domain.Record) recordsdk.Record {
	return recordsdk.Record{
		ID:            r.ID,
		OwnerID:       r.OwnerID,
		ReferenceCode: r.ReferenceCode,
		Title:         r.Title,
		Payload:       r.Payload,
		ItemCount:     r.ItemCount,
		Version:       r.Version,
		UpdatedBy:     r.UpdatedBy,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

type RecordsHandler struct {
	RecordService *service.RecordService
}

// HandleCreate creates a record with a freshly allocated reference code.
//
//	@Summary	Create record
//	@Tags		Records
//	@Security	BearerAuth
//	@Accept		json
//	@Produce	json
//	@Param		request	body		recordsdk.CreateRecordRequest	true	"New record"
//	@Success	201		{object}	recordsdk.Record
//	@Failure	401		{object}	recordsdk.ErrorResponse
//	@Router		/v1/records [post].
func (h *RecordsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	identity, ok := identityFromCtx(ctx)
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "missing bearer token")
		return
	}

	var req recordsdk.CreateRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	record, err := h.RecordService.Create(ctx, identity, req.Title, req.Payload, req.Period)
	if err != nil {
		writeError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, toSDKRecord(record))
}

// HandleList returns the caller's records.
//
//	@Summary	List records
//	@Tags		Records
//	@Security	BearerAuth
//	@Produce	json
//	@Success	200	{array}		recordsdk.Record
//	@Failure	401	{object}	recordsdk.ErrorResponse
//	@Router		/v1/records [get].
func (h *RecordsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	identity, ok := identityFromCtx(ctx)
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "missing bearer token")
		return
	}

	records, err := h.RecordService.List(ctx, identity)
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]recordsdk.Record, 0, len(records))
	for _, record := range records {
		out = append(out, toSDKRecord(record))
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

// HandleGet returns one record.
//
//	@Summary	Get record
//	@Tags		Records
//	@Security	BearerAuth
//	@Produce	json
//	@Success	200	{object}	recordsdk.Record
//	@Failure	404	{object}	recordsdk.ErrorResponse
//	@Router		/v1/records/{id} [get].
func (h *RecordsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	identity, ok := identityFromCtx(ctx)
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "missing bearer token")
		return
	}

	record, err := h.RecordService.Get(ctx, identity, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, toSDKRecord(record))
}

// HandleUpdate applies a versioned write.
//
//	@Summary		Update record
//	@Description	Applies the write only if base_version still matches the stored version. A stale base is rejected with 409 and the authoritative record in latest_data.
//	@Tags			Records
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		recordsdk.UpdateRecordRequest	true	"Versioned write"
//	@Success		200		{object}	recordsdk.Record
//	@Failure		409		{object}	recordsdk.ErrorResponse	"Version conflict; latest_data carries the current record"
//	@Router			/v1/records/{id} [put].
func (h *RecordsHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	identity, ok := identityFromCtx(ctx)
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "missing bearer token")
		return
	}

	var req recordsdk.UpdateRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	record, err := h.RecordService.Update(
		ctx, identity, r.PathValue("id"), req.BaseVersion, req.Title, req.Payload,
	)
	if err != nil {
		writeError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, toSDKRecord(record))
}

// HandleDelete removes a record.
//
//	@Summary	Delete record
//	@Tags		Records
//	@Security	BearerAuth
//	@Produce	json
//	@Success	200	{object}	recordsdk.MessageResponse
//	@Failure	404	{object}	recordsdk.ErrorResponse
//	@Router		/v1/records/{id} [delete].
func (h *RecordsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	identity, ok := identityFromCtx(ctx)
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "missing bearer token")
		return
	}

	if err := h.RecordService.Delete(ctx, identity, r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, recordsdk.MessageResponse{Message: "record deleted"})
}
