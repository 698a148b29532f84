package records_test

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	httpapi "github.com/caliperhq/labrecords/internal/records/http"
	"github.com/caliperhq/labrecords/internal/records/service"
	"github.com/caliperhq/labrecords/internal/records/store/drivers/sqlite"
	"github.com/caliperhq/labrecords/pkg/jwtx"
	"github.com/caliperhq/labrecords/pkg/recordsdk"
	"github.com/caliperhq/labrecords/pkg/slogx"
	"github.com/stretchr/testify/require"
)

const (
	testIssuer    = "labrecords-e2e"
	adminUser     = "root"
	adminPassword = "admin-password-1"
)

// startServer boots the full HTTP stack in-process: sqlite store with
// migrations, real token signing, real services, the production router. Only
// the listener is synthetic.
func startServer(t *testing.T) *recordsdk.Client {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL",
		filepath.Join(t.TempDir(), "e2e.db"))
	st, err := sqlite.NewStore(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	signer, err := jwtx.NewSignerEdDSA("e2e-key", priv)
	require.NoError(t, err)
	verifier := jwtx.NewVerifierEdDSA(pub, testIssuer)

	auth := &service.AuthService{
		Signer:   signer,
		Verifier: verifier,
		Store:    st,
		Issuer:   testIssuer,
		TokenTTL: time.Hour,
	}
	identities := &service.IdentityService{Store: st}

	require.NoError(t, identities.EnsureSeedAdmin(context.Background(), adminUser, adminPassword))

	logger := slogx.New(slogx.Config{
		Service: "records-service",
		Version: "e2e",
		Env:     "test",
		Level:   "error",
		Format:  "text",
	})

	router := httpapi.NewRouter(signer, "e2e", st, logger)
	router.AuthService = auth
	router.IdentityService = identities
	router.RecordService = &service.RecordService{Store: st}
	router.ApplyRoutes()

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return recordsdk.NewClient(srv.URL)
}

func loginAdmin(t *testing.T, client *recordsdk.Client) *recordsdk.Session {
	t.Helper()
	session, err := client.Login(context.Background(), recordsdk.LoginRequest{
		Username: adminUser,
		Password: adminPassword,
	})
	require.NoError(t, err)
	return session
}

// provisionMember creates a member account through the admin API and returns
// a logged-in session for it. Costs two logins against the per-IP limit.
func provisionMember(t *testing.T, client *recordsdk.Client, username, password string) *recordsdk.Session {
	t.Helper()
	ctx := context.Background()

	admin := loginAdmin(t, client)
	_, err := admin.CreateIdentity(ctx, recordsdk.CreateIdentityRequest{
		Username:    username,
		DisplayName: "E2E Member",
		Password:    password,
		Role:        "member",
	})
	require.NoError(t, err)

	session, err := client.Login(ctx, recordsdk.LoginRequest{Username: username, Password: password})
	require.NoError(t, err)
	return session
}
