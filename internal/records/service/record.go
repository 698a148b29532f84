package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/caliperhq/labrecords/internal/records/domain"
	"github.com/caliperhq/labrecords/internal/records/store"
	"github.com/caliperhq/labrecords/pkg/idx"
	"github.com/caliperhq/labrecords/pkg/slogx"
)

var (
	ErrForbidden      = errors.New("forbidden")
	ErrInvalidPayload = errors.New("invalid_payload")
)

// RecordService owns the versioned-record lifecycle. Reads never lock;
// every write declares the version it was based on and goes through the
// store's conditional update, so a stale write is rejected with the
// authoritative record instead of silently clobbering a concurrent edit.
type RecordService struct {
	Store store.Store
}

// recordItems is the payload portion the service actually interprets: the
// item count backs the conflict summary shown to users.
type recordItems struct {
	Items []json.RawMessage `json:"items"`
}

func countItems(payload json.RawMessage) (int, error) {
	if len(payload) == 0 {
		return 0, nil
	}
	var parsed recordItems
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return 0, ErrInvalidPayload
	}
	return len(parsed.Items), nil
}

// Create allocates a reference code in the record's (owner, period) scope
// and inserts the record at version 0, atomically.
func (s *RecordService) Create(
	ctx context.Context,
	owner domain.Identity,
	title string,
	payload json.RawMessage,
	period string,
) (domain.Record, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return domain.Record{}, ErrInvalidRequest
	}
	itemCount, err := countItems(payload)
	if err != nil {
		return domain.Record{}, err
	}
	if period == "" {
		period = strconv.Itoa(time.Now().UTC().Year())
	}

	scope := domain.SequenceScope{Period: period, Prefix: OwnerPrefix(owner.Username)}

	record := domain.Record{
		ID:        idx.New().String(),
		OwnerID:   owner.ID,
		Title:     title,
		Payload:   payload,
		ItemCount: itemCount,
		Version:   0,
		UpdatedBy: owner.Username,
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		value, err := tx.Sequences().NextValue(ctx, scope.Key())
		if err != nil {
			return err
		}
		record.ReferenceCode = scope.ReferenceCode(value)
		return tx.Records().CreateRecord(ctx, record)
	})
	if err != nil {
		return domain.Record{}, err
	}

	slogx.FromContext(ctx).Info("record created",
		slog.String("record_id", record.ID),
		slog.String("reference_code", record.ReferenceCode),
	)

	// Re-read so timestamps come from the store, not from the insert-side zero values.
	return s.Store.Records().GetRecordByID(ctx, record.ID)
}

// Get returns a record the caller may see: its owner, or any admin.
func (s *RecordService) Get(ctx context.Context, caller domain.Identity, id string) (domain.Record, error) {
	record, err := s.Store.Records().GetRecordByID(ctx, id)
	if err != nil {
		return domain.Record{}, err
	}
	if record.OwnerID != caller.ID && caller.Role != domain.RoleAdmin {
		return domain.Record{}, ErrForbidden
	}
	return record, nil
}

// List returns the caller's records, newest first.
func (s *RecordService) List(ctx context.Context, caller domain.Identity) ([]domain.Record, error) {
	return s.Store.Records().ListRecordsByOwner(ctx, caller.ID)
}

// Update applies a versioned write. A stale baseVersion yields a
// *store.VersionConflictError carrying the current record; the caller
// resolves it by reloading or deliberately resubmitting on the new base.
func (s *RecordService) Update(
	ctx context.Context,
	caller domain.Identity,
	id string,
	baseVersion int64,
	title string,
	payload json.RawMessage,
) (domain.Record, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return domain.Record{}, ErrInvalidRequest
	}
	itemCount, err := countItems(payload)
	if err != nil {
		return domain.Record{}, err
	}

	// Ownership gate reads the record once, but the version decision is NOT
	// made here: only the store's conditional update may decide staleness.
	existing, err := s.Store.Records().GetRecordByID(ctx, id)
	if err != nil {
		return domain.Record{}, err
	}
	if existing.OwnerID != caller.ID && caller.Role != domain.RoleAdmin {
		return domain.Record{}, ErrForbidden
	}

	updated, err := s.Store.Records().UpdateRecordVersioned(ctx, id, baseVersion, domain.RecordWrite{
		Title:     title,
		Payload:   payload,
		ItemCount: itemCount,
		UpdatedBy: caller.Username,
	})
	if err != nil {
		var conflict *store.VersionConflictError
		if errors.As(err, &conflict) {
			slogx.FromContext(ctx).Info("record write conflict",
				slog.String("record_id", id),
				slog.Int64("base_version", baseVersion),
				slog.Int64("latest_version", conflict.Latest.Version),
			)
		}
		return domain.Record{}, err
	}
	return updated, nil
}

// Delete removes a record owned by the caller (admins may delete any).
func (s *RecordService) Delete(ctx context.Context, caller domain.Identity, id string) error {
	record, err := s.Store.Records().GetRecordByID(ctx, id)
	if err != nil {
		return err
	}
	if record.OwnerID != caller.ID && caller.Role != domain.RoleAdmin {
		return ErrForbidden
	}
	return s.Store.Records().DeleteRecord(ctx, id)
}
