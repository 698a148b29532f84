package sqlite_test

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/caliperhq/labrecords/internal/records/domain"
	"github.com/caliperhq/labrecords/internal/records/store"
	"github.com/caliperhq/labrecords/internal/records/store/drivers/sqlite"
	"github.com/caliperhq/labrecords/pkg/idx"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL",
		filepath.Join(t.TempDir(), "test.db"))

	st, err := sqlite.NewStore(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, st.ApplyMigrations())
	return st
}

func seedIdentity(t *testing.T, st store.Store, username string) domain.Identity {
	t.Helper()

	identity := domain.Identity{
		ID:           idx.New().String(),
		Username:     username,
		DisplayName:  "Test User",
		PasswordHash: "$argon2id$v=19$m=65536,t=3,p=2$c2FsdA$aGFzaA",
		Role:         domain.RoleMember,
		Active:       true,
	}
	require.NoError(t, st.Identities().CreateIdentity(context.Background(), identity))
	return identity
}

func seedRecord(t *testing.T, st store.Store, ownerID string) domain.Record {
	t.Helper()

	rec := domain.Record{
		ID:            idx.New().String(),
		OwnerID:       ownerID,
		ReferenceCode: "2025-T-" + idx.New().String()[22:],
		Title:         "Test record",
		Payload:       []byte(`{"items":[{"a":1}]}`),
		ItemCount:     1,
		Version:       0,
		UpdatedBy:     "tester",
	}
	require.NoError(t, st.Records().CreateRecord(context.Background(), rec))
	return rec
}

func TestIdentityRoundTrip(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	created := seedIdentity(t, st, "alice")

	byID, err := st.Identities().GetIdentityByID(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, "alice", byID.Username)
	require.Equal(t, int64(0), byID.SessionVersion)
	require.True(t, byID.Active)
	require.Nil(t, byID.TOTPSecret)

	byName, err := st.Identities().GetIdentityByUsername(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, created.ID, byName.ID)
}

func TestIdentityNotFound(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	_, err := st.Identities().GetIdentityByID(ctx, "missing")
	require.ErrorIs(t, err, store.ErrNotFound)

	_, err = st.Identities().BumpSessionVersion(ctx, "missing")
	require.ErrorIs(t, err, store.ErrNotFound)

	require.ErrorIs(t, st.Identities().Deactivate(ctx, "missing"), store.ErrNotFound)
}

func TestCreateIdentityDuplicateUsername(t *testing.T) {
	st := newTestStore(t)

	seedIdentity(t, st, "alice")

	dup := domain.Identity{
		ID:           idx.New().String(),
		Username:     "alice",
		PasswordHash: "hash",
		Role:         domain.RoleMember,
		Active:       true,
	}
	err := st.Identities().CreateIdentity(context.Background(), dup)
	require.ErrorIs(t, err, store.ErrAlreadyExists)
}

func TestBumpSessionVersionIsMonotonic(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	identity := seedIdentity(t, st, "alice")

	v1, err := st.Identities().BumpSessionVersion(ctx, identity.ID)
	require.NoError(t, err)
	require.Equal(t, int64(1), v1)

	v2, err := st.Identities().BumpSessionVersion(ctx, identity.ID)
	require.NoError(t, err)
	require.Equal(t, int64(2), v2)

	got, err := st.Identities().GetIdentityByID(ctx, identity.ID)
	require.NoError(t, err)
	require.Equal(t, int64(2), got.SessionVersion)
}

func TestBumpSessionVersionConcurrent(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	identity := seedIdentity(t, st, "alice")

	const n = 20
	results := make(chan int64, n)
	var wg sync.WaitGroup
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := st.Identities().BumpSessionVersion(ctx, identity.ID)
			require.NoError(t, err)
			results <- v
		}()
	}
	wg.Wait()
	close(results)

	// Every bump must observe a distinct value; a lost update would repeat one.
	seen := make(map[int64]bool, n)
	for v := range results {
		require.False(t, seen[v], "version %d returned twice", v)
		seen[v] = true
	}

	got, err := st.Identities().GetIdentityByID(ctx, identity.ID)
	require.NoError(t, err)
	require.Equal(t, int64(n), got.SessionVersion)
}

func TestUpdateRecordVersioned(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	owner := seedIdentity(t, st, "alice")
	rec := seedRecord(t, st, owner.ID)

	updated, err := st.Records().UpdateRecordVersioned(ctx, rec.ID, 0, domain.RecordWrite{
		Title:     "Updated",
		Payload:   []byte(`{"items":[{"a":1},{"b":2}]}`),
		ItemCount: 2,
		UpdatedBy: "alice",
	})
	require.NoError(t, err)
	require.Equal(t, int64(1), updated.Version)
	require.Equal(t, "Updated", updated.Title)
	require.Equal(t, 2, updated.ItemCount)
	require.Equal(t, "alice", updated.UpdatedBy)
}

func TestUpdateRecordVersionedStaleBase(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	owner := seedIdentity(t, st, "alice")
	rec := seedRecord(t, st, owner.ID)

	// First writer wins
	_, err := st.Records().UpdateRecordVersioned(ctx, rec.ID, 0, domain.RecordWrite{
		Title: "First write", Payload: []byte(`{}`), UpdatedBy: "alice",
	})
	require.NoError(t, err)

	// Second writer still holds base 0 and must be rejected
	_, err = st.Records().UpdateRecordVersioned(ctx, rec.ID, 0, domain.RecordWrite{
		Title: "Second write", Payload: []byte(`{}`), UpdatedBy: "bob",
	})

	var conflict *store.VersionConflictError
	require.ErrorAs(t, err, &conflict)
	require.Equal(t, int64(1), conflict.Latest.Version)
	require.Equal(t, "First write", conflict.Latest.Title)
	require.Equal(t, "alice", conflict.Latest.UpdatedBy)

	// The stale write must not have touched the row
	got, err := st.Records().GetRecordByID(ctx, rec.ID)
	require.NoError(t, err)
	require.Equal(t, "First write", got.Title)
}

func TestUpdateRecordVersionedConcurrent(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	owner := seedIdentity(t, st, "alice")
	rec := seedRecord(t, st, owner.ID)

	// All writers share the same base version; exactly one may win.
	const n = 10
	var wg sync.WaitGroup
	wins := make(chan struct{}, n)
	conflicts := make(chan struct{}, n)
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := st.Records().UpdateRecordVersioned(ctx, rec.ID, 0, domain.RecordWrite{
				Title:     fmt.Sprintf("writer %d", i),
				Payload:   []byte(`{}`),
				UpdatedBy: "tester",
			})
			var conflict *store.VersionConflictError
			switch {
			case err == nil:
				wins <- struct{}{}
			default:
				require.ErrorAs(t, err, &conflict)
				conflicts <- struct{}{}
			}
		}()
	}
	wg.Wait()

	require.Len(t, wins, 1, "exactly one writer may win on a shared base")
	require.Len(t, conflicts, n-1)

	got, err := st.Records().GetRecordByID(ctx, rec.ID)
	require.NoError(t, err)
	require.Equal(t, int64(1), got.Version)
}

func TestUpdateDeletedRecord(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	owner := seedIdentity(t, st, "alice")
	rec := seedRecord(t, st, owner.ID)

	require.NoError(t, st.Records().DeleteRecord(ctx, rec.ID))

	_, err := st.Records().UpdateRecordVersioned(ctx, rec.ID, 0, domain.RecordWrite{
		Title: "ghost", Payload: []byte(`{}`),
	})
	require.ErrorIs(t, err, store.ErrNotFound,
		"a deleted record is not a version conflict")
}

func TestListRecordsByOwner(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	alice := seedIdentity(t, st, "alice")
	bob := seedIdentity(t, st, "bob")

	seedRecord(t, st, alice.ID)
	seedRecord(t, st, alice.ID)
	seedRecord(t, st, bob.ID)

	records, err := st.Records().ListRecordsByOwner(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, records, 2)
	for _, rec := range records {
		require.Equal(t, alice.ID, rec.OwnerID)
	}
}

func TestSequenceNextValue(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	// First allocation creates the counter at 1
	v, err := st.Sequences().NextValue(ctx, "2025-B")
	require.NoError(t, err)
	require.Equal(t, int64(1), v)

	v, err = st.Sequences().NextValue(ctx, "2025-B")
	require.NoError(t, err)
	require.Equal(t, int64(2), v)

	// Distinct scopes are independent
	v, err = st.Sequences().NextValue(ctx, "2025-C")
	require.NoError(t, err)
	require.Equal(t, int64(1), v)
}

func TestSequenceCurrentValue(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	// Never-allocated scope reads as 0
	v, err := st.Sequences().CurrentValue(ctx, "2099-Z")
	require.NoError(t, err)
	require.Equal(t, int64(0), v)

	_, err = st.Sequences().NextValue(ctx, "2099-Z")
	require.NoError(t, err)

	v, err = st.Sequences().CurrentValue(ctx, "2099-Z")
	require.NoError(t, err)
	require.Equal(t, int64(1), v)
}

func TestSequenceConcurrentAllocation(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	const n = 25
	results := make(chan int64, n)
	var wg sync.WaitGroup
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := st.Sequences().NextValue(ctx, "2025-B")
			require.NoError(t, err)
			results <- v
		}()
	}
	wg.Wait()
	close(results)

	// N concurrent allocations yield N distinct values with max == N.
	seen := make(map[int64]bool, n)
	var maxVal int64
	for v := range results {
		require.False(t, seen[v], "value %d allocated twice", v)
		seen[v] = true
		if v > maxVal {
			maxVal = v
		}
	}
	require.Equal(t, int64(n), maxVal)
}

func TestWithTxCommitsAndRollsBack(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	identity := seedIdentity(t, st, "alice")

	// A failing fn rolls everything back
	boom := fmt.Errorf("boom")
	err := st.WithTx(ctx, func(tx store.Tx) error {
		if _, err := tx.Identities().BumpSessionVersion(ctx, identity.ID); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := st.Identities().GetIdentityByID(ctx, identity.ID)
	require.NoError(t, err)
	require.Equal(t, int64(0), got.SessionVersion, "rolled-back bump must not be visible")

	// A successful fn commits both writes
	err = st.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Identities().UpdatePasswordHash(ctx, identity.ID, "new-hash"); err != nil {
			return err
		}
		_, err := tx.Identities().BumpSessionVersion(ctx, identity.ID)
		return err
	})
	require.NoError(t, err)

	got, err = st.Identities().GetIdentityByID(ctx, identity.ID)
	require.NoError(t, err)
	require.Equal(t, "new-hash", got.PasswordHash)
	require.Equal(t, int64(1), got.SessionVersion)
}

func TestDeactivate(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	identity := seedIdentity(t, st, "alice")
	require.NoError(t, st.Identities().Deactivate(ctx, identity.ID))

	got, err := st.Identities().GetIdentityByID(ctx, identity.ID)
	require.NoError(t, err)
	require.False(t, got.Active)
}

func TestIsEmpty(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	empty, err := st.Identities().IsEmpty(ctx)
	require.NoError(t, err)
	require.True(t, empty)

	seedIdentity(t, st, "alice")

	empty, err = st.Identities().IsEmpty(ctx)
	require.NoError(t, err)
	require.False(t, empty)
}
