package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/caliperhq/labrecords/internal/records/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// VersionConflictError is returned by conditional record writes when the
// caller's base version no longer matches the stored version. Latest carries
// the authoritative record so the caller can resolve without a second read.
type VersionConflictError struct {
	Latest domain.Record
}

func (e *VersionConflictError) Error() string {
	return fmt.Sprintf("store: version conflict, latest version is %d", e.Latest.Version)
}

// Store is the root data access interface. Concrete drivers (sqlite today)
// implement this. Sub-repositories keep concerns tidy; the three shared
// counters (session versions, record versions, sequence counters) are
// mutated only through the atomic operations below, never read-then-written.
type Store interface {
	Identities() Identities
	Records() Records
	Sequences() Sequences

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction, committing on nil and rolling
	// back on error. Prefer this over Tx for multi-step writes.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Identities interface {
	// GetIdentityByID returns an identity by id.
	GetIdentityByID(ctx context.Context, id string) (domain.Identity, error)

	// GetIdentityByUsername is used during login.
	GetIdentityByUsername(ctx context.Context, username string) (domain.Identity, error)

	// CreateIdentity inserts a new identity (id is provided by app via ULID).
	CreateIdentity(ctx context.Context, identity domain.Identity) error

	// BumpSessionVersion atomically increments the identity's session version
	// and returns the new value. This is the only mutation path for the
	// counter; there is deliberately no SetSessionVersion.
	BumpSessionVersion(ctx context.Context, id string) (int64, error)

	// UpdatePasswordHash sets the password_hash (argon2id) and bumps updated_at.
	UpdatePasswordHash(ctx context.Context, id string, newHash string) error

	// Deactivate soft-deactivates the identity. Identities referenced by
	// records are never hard-deleted.
	Deactivate(ctx context.Context, id string) error

	// IsEmpty returns true if there are no identities.
	IsEmpty(ctx context.Context) (bool, error)
}

type Records interface {
	// GetRecordByID returns a record by id.
	GetRecordByID(ctx context.Context, id string) (domain.Record, error)

	// ListRecordsByOwner returns the owner's records, newest first.
	ListRecordsByOwner(ctx context.Context, ownerID string) ([]domain.Record, error)

	// CreateRecord inserts a new record at version 0.
	CreateRecord(ctx context.Context, record domain.Record) error

	// UpdateRecordVersioned applies the write only if the stored version still
	// equals baseVersion, bumping version by 1 in the same statement. On a
	// stale base it returns *VersionConflictError carrying the current record;
	// if the record is gone it returns ErrNotFound.
	UpdateRecordVersioned(ctx context.Context, id string, baseVersion int64, write domain.RecordWrite) (domain.Record, error)

	// DeleteRecord removes a record.
	DeleteRecord(ctx context.Context, id string) error
}

type Sequences interface {
	// NextValue atomically increments the counter for scopeKey (creating it
	// at 1 on first use) and returns the allocated value. Distinct concurrent
	// callers always receive distinct values.
	NextValue(ctx context.Context, scopeKey string) (int64, error)

	// CurrentValue returns the last allocated value, or 0 if the scope has
	// never allocated. Read-only; never used to derive the next value.
	CurrentValue(ctx context.Context, scopeKey string) (int64, error)
}
