package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/caliperhq/labrecords/internal/records/domain"
	"github.com/caliperhq/labrecords/internal/records/store"
)

type recordsRepo struct {
	q querier
}

const recordColumns = `id, owner_id, reference_code, title, payload,
	item_count, version, updated_by, created_at, updated_at`

func scanRecordRow(row *sql.Row) (domain.Record, error) {
	var (
		rec     domain.Record
		payload string
	)
	err := row.Scan(
		&rec.ID, &rec.OwnerID, &rec.ReferenceCode, &rec.Title, &payload,
		&rec.ItemCount, &rec.Version, &rec.UpdatedBy, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return domain.Record{}, mapNotFound(err)
	}
	rec.Payload = []byte(payload)
	return rec, nil
}

func (r *recordsRepo) GetRecordByID(ctx context.Context, id string) (domain.Record, error) {
	return scanRecordRow(r.q.QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM records WHERE id = ?`, id))
}

func (r *recordsRepo) ListRecordsByOwner(ctx context.Context, ownerID string) ([]domain.Record, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT `+recordColumns+` FROM records WHERE owner_id = ? ORDER BY created_at DESC`,
		ownerID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Record
	for rows.Next() {
		var (
			rec     domain.Record
			payload string
		)
		if err := rows.Scan(
			&rec.ID, &rec.OwnerID, &rec.ReferenceCode, &rec.Title, &payload,
			&rec.ItemCount, &rec.Version, &rec.UpdatedBy, &rec.CreatedAt, &rec.UpdatedAt,
		); err != nil {
			return nil, err
		}
		rec.Payload = []byte(payload)
		result = append(result, rec)
	}
	return result, rows.Err()
}

func (r *recordsRepo) CreateRecord(ctx context.Context, record domain.Record) error {
	now := time.Now().UTC()
	payload := string(record.Payload)
	if payload == "" {
		payload = "{}"
	}
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO records
			(id, owner_id, reference_code, title, payload, item_count,
			 version, updated_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID, record.OwnerID, record.ReferenceCode, record.Title, payload,
		record.ItemCount, record.Version, record.UpdatedBy, now, now,
	)
	return err
}

// UpdateRecordVersioned performs the version check and the write as one
// conditional statement. Comparing in application code and then writing
// would leave a race window between compare and write, so the filter and
// the increment live in the same UPDATE.
func (r *recordsRepo) UpdateRecordVersioned(
	ctx context.Context,
	id string,
	baseVersion int64,
	write domain.RecordWrite,
) (domain.Record, error) {
	res, err := r.q.ExecContext(ctx, `
		UPDATE records
		SET title = ?, payload = ?, item_count = ?, updated_by = ?,
		    version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?`,
		write.Title, string(write.Payload), write.ItemCount, write.UpdatedBy,
		time.Now().UTC(), id, baseVersion,
	)
	if err != nil {
		return domain.Record{}, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return domain.Record{}, err
	}
	if n == 1 {
		return r.GetRecordByID(ctx, id)
	}

	// Zero rows matched: either the base version is stale or the record is
	// gone. Re-read to tell the two apart and hand back the authoritative row.
	latest, err := r.GetRecordByID(ctx, id)
	if err != nil {
		return domain.Record{}, err // ErrNotFound when the record was deleted
	}
	return domain.Record{}, &store.VersionConflictError{Latest: latest}
}

func (r *recordsRepo) DeleteRecord(ctx context.Context, id string) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM records WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}
