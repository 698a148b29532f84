package service_test

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/caliperhq/labrecords/internal/records/domain"
	"github.com/caliperhq/labrecords/internal/records/service"
	"github.com/caliperhq/labrecords/internal/records/store"
	"github.com/caliperhq/labrecords/internal/records/store/drivers/sqlite"
	"github.com/caliperhq/labrecords/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

const testIssuer = "labrecords-test"

// env wires real services over a throwaway sqlite store, the same stack the
// application assembles at startup.
type env struct {
	store      store.Store
	auth       *service.AuthService
	identities *service.IdentityService
	records    *service.RecordService
	sequences  *service.SequenceService
}

func newEnv(t *testing.T) *env {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL",
		filepath.Join(t.TempDir(), "test.db"))
	st, err := sqlite.NewStore(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	signer, err := jwtx.NewSignerEdDSA("test-key", priv)
	require.NoError(t, err)

	return &env{
		store: st,
		auth: &service.AuthService{
			Signer:   signer,
			Verifier: jwtx.NewVerifierEdDSA(pub, testIssuer),
			Store:    st,
			Issuer:   testIssuer,
			TokenTTL: time.Hour,
		},
		identities: &service.IdentityService{Store: st},
		records:    &service.RecordService{Store: st},
		sequences:  &service.SequenceService{Store: st},
	}
}

// withTokenTTL returns an AuthService sharing this env's key and store but
// issuing tokens with a different lifetime.
func (e *env) withTokenTTL(ttl time.Duration) *service.AuthService {
	return &service.AuthService{
		Signer:   e.auth.Signer,
		Verifier: e.auth.Verifier,
		Store:    e.auth.Store,
		Issuer:   e.auth.Issuer,
		TokenTTL: ttl,
	}
}

func (e *env) createMember(t *testing.T, username, password string) domain.Identity {
	t.Helper()
	identity, err := e.identities.CreateIdentity(
		context.Background(), username, "Test User", password, domain.RoleMember,
	)
	require.NoError(t, err)
	return identity
}

func (e *env) createAdmin(t *testing.T, username, password string) domain.Identity {
	t.Helper()
	identity, err := e.identities.CreateIdentity(
		context.Background(), username, "Test Admin", password, domain.RoleAdmin,
	)
	require.NoError(t, err)
	return identity
}

func (e *env) login(t *testing.T, username, password string) (domain.Identity, domain.IssuedToken) {
	t.Helper()
	identity, token, err := e.auth.Login(context.Background(), username, password, "")
	require.NoError(t, err)
	return identity, token
}
