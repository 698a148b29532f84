package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/caliperhq/labrecords/internal/records/domain"
	"github.com/caliperhq/labrecords/internal/records/store"
)

type identitiesRepo struct {
	q querier
}

const identityColumns = `id, username, display_name, password_hash, role,
	totp_secret, session_version, active, created_at, updated_at`

func scanIdentity(row *sql.Row) (domain.Identity, error) {
	var (
		i          domain.Identity
		totpSecret sql.NullString
	)
	err := row.Scan(
		&i.ID, &i.Username, &i.DisplayName, &i.PasswordHash, &i.Role,
		&totpSecret, &i.SessionVersion, &i.Active, &i.CreatedAt, &i.UpdatedAt,
	)
	if err != nil {
		return domain.Identity{}, mapNotFound(err)
	}
	i.TOTPSecret = mapNullStringPtr(totpSecret)
	return i, nil
}

func (r *identitiesRepo) GetIdentityByID(ctx context.Context, id string) (domain.Identity, error) {
	return scanIdentity(r.q.QueryRowContext(ctx,
		`SELECT `+identityColumns+` FROM identities WHERE id = ?`, id))
}

func (r *identitiesRepo) GetIdentityByUsername(ctx context.Context, username string) (domain.Identity, error) {
	return scanIdentity(r.q.QueryRowContext(ctx,
		`SELECT `+identityColumns+` FROM identities WHERE username = ?`, username))
}

func (r *identitiesRepo) CreateIdentity(ctx context.Context, identity domain.Identity) error {
	now := time.Now().UTC()
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO identities
			(id, username, display_name, password_hash, role, totp_secret,
			 session_version, active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		identity.ID, identity.Username, identity.DisplayName,
		identity.PasswordHash, identity.Role, mapOptionalString(identity.TOTPSecret),
		identity.SessionVersion, identity.Active, now, now,
	)
	if err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return store.ErrAlreadyExists
	}
	return err
}

// BumpSessionVersion is a single increment-and-fetch statement so concurrent
// logins can never lose an update.
func (r *identitiesRepo) BumpSessionVersion(ctx context.Context, id string) (int64, error) {
	var version int64
	err := r.q.QueryRowContext(ctx, `
		UPDATE identities
		SET session_version = session_version + 1, updated_at = ?
		WHERE id = ?
		RETURNING session_version`,
		time.Now().UTC(), id,
	).Scan(&version)
	if err != nil {
		return 0, mapNotFound(err)
	}
	return version, nil
}

func (r *identitiesRepo) UpdatePasswordHash(ctx context.Context, id string, newHash string) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE identities SET password_hash = ?, updated_at = ? WHERE id = ?`,
		newHash, time.Now().UTC(), id,
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *identitiesRepo) Deactivate(ctx context.Context, id string) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE identities SET active = 0, updated_at = ? WHERE id = ?`,
		time.Now().UTC(), id,
	)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *identitiesRepo) IsEmpty(ctx context.Context) (bool, error) {
	var count int64
	if err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM identities`).Scan(&count); err != nil {
		return false, err
	}
	return count == 0, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
