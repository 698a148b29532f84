package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/caliperhq/labrecords/internal/records/domain"
	"github.com/caliperhq/labrecords/internal/records/store"
	"github.com/caliperhq/labrecords/pkg/cryptox"
	"github.com/caliperhq/labrecords/pkg/jwtx"
	"github.com/caliperhq/labrecords/pkg/slogx"
	"github.com/pquerna/otp/totp"
)

var (
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrAccountDeactivated = errors.New("account_deactivated")

	ErrTokenMissing      = errors.New("token_missing")
	ErrTokenMalformed    = errors.New("token_malformed")
	ErrTokenExpired      = errors.New("token_expired")
	ErrIdentityUnknown   = errors.New("identity_unknown")
	ErrSessionSuperseded = errors.New("session_superseded")
)

// AuthService issues and verifies bearer tokens and owns every operation
// that moves an identity's session version. A token is honoured only while
// its embedded version snapshot matches the identity's live counter, which
// is how "one login session per identity" is enforced without token state
// on the server.
type AuthService struct {
	Signer   jwtx.Signer
	Verifier jwtx.Verifier
	Store    store.Store
	Issuer   string
	TokenTTL time.Duration
}

// dummyHash keeps the login timing profile flat for unknown usernames.
const dummyHash = "$argon2id$v=19$m=65536,t=3,p=2$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

// Login verifies first-party credentials, bumps the identity's session
// version (superseding every previously issued token) and returns a token
// stamped with the new version.
//
// Unknown username and wrong password are indistinguishable to the caller.
func (s *AuthService) Login(
	ctx context.Context,
	username, password, otpCode string,
) (domain.Identity, domain.IssuedToken, error) {
	l := slogx.FromContext(ctx)

	identity, err := s.Store.Identities().GetIdentityByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Burn a hash comparison anyway; no account enumeration.
			_ = cryptox.VerifyPassword(password, dummyHash)
			return domain.Identity{}, domain.IssuedToken{}, ErrInvalidCredentials
		}
		return domain.Identity{}, domain.IssuedToken{}, err
	}

	if err := cryptox.VerifyPassword(password, identity.PasswordHash); err != nil {
		l.Info("login failed", slog.String("username", username))
		return domain.Identity{}, domain.IssuedToken{}, ErrInvalidCredentials
	}

	if identity.TOTPSecret != nil && *identity.TOTPSecret != "" {
		if !totp.Validate(otpCode, *identity.TOTPSecret) {
			l.Info("login totp failed", slog.String("username", username))
			return domain.Identity{}, domain.IssuedToken{}, ErrInvalidCredentials
		}
	}

	if !identity.Active {
		return domain.Identity{}, domain.IssuedToken{}, ErrAccountDeactivated
	}

	newVersion, err := s.Store.Identities().BumpSessionVersion(ctx, identity.ID)
	if err != nil {
		return domain.Identity{}, domain.IssuedToken{}, err
	}
	identity.SessionVersion = newVersion

	token, err := s.issue(identity)
	if err != nil {
		return domain.Identity{}, domain.IssuedToken{}, err
	}

	l.Info("login succeeded",
		slog.String("identity_id", identity.ID),
		slog.Int64("session_version", newVersion),
	)
	return identity, token, nil
}

// Authenticate verifies a bearer token and classifies every failure mode.
// The distinction between ErrTokenExpired/ErrTokenMalformed and
// ErrSessionSuperseded is load-bearing: clients destroy local state on the
// former and must not on the latter.
func (s *AuthService) Authenticate(ctx context.Context, rawToken string) (domain.Identity, jwtx.Claims, error) {
	if strings.TrimSpace(rawToken) == "" {
		return domain.Identity{}, jwtx.Claims{}, ErrTokenMissing
	}

	claims, err := s.Verifier.Verify(rawToken)
	if err != nil {
		return domain.Identity{}, jwtx.Claims{}, ErrTokenMalformed
	}

	if err := claims.ValidateExpiry(); err != nil {
		return domain.Identity{}, jwtx.Claims{}, ErrTokenExpired
	}

	identity, err := s.Store.Identities().GetIdentityByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Identity{}, jwtx.Claims{}, ErrIdentityUnknown
		}
		return domain.Identity{}, jwtx.Claims{}, err
	}

	if !identity.Active {
		return domain.Identity{}, jwtx.Claims{}, ErrAccountDeactivated
	}

	if claims.SessionVersion != identity.SessionVersion {
		return domain.Identity{}, jwtx.Claims{}, ErrSessionSuperseded
	}

	return identity, claims, nil
}

// LogoutAll bumps the session version, invalidating every outstanding token
// including the one that made this call, then issues a fresh token for the
// caller so it can keep working if it chooses to adopt it.
func (s *AuthService) LogoutAll(ctx context.Context, identity domain.Identity) (domain.IssuedToken, error) {
	newVersion, err := s.Store.Identities().BumpSessionVersion(ctx, identity.ID)
	if err != nil {
		return domain.IssuedToken{}, err
	}
	identity.SessionVersion = newVersion

	slogx.FromContext(ctx).Info("logout all sessions",
		slog.String("identity_id", identity.ID),
		slog.Int64("session_version", newVersion),
	)
	return s.issue(identity)
}

// ChangePassword verifies the current password, stores the new hash and
// bumps the session version in one transaction, then re-issues a token.
func (s *AuthService) ChangePassword(
	ctx context.Context,
	identity domain.Identity,
	currentPassword, newPassword string,
) (domain.IssuedToken, error) {
	if err := cryptox.VerifyPassword(currentPassword, identity.PasswordHash); err != nil {
		return domain.IssuedToken{}, ErrInvalidCredentials
	}
	if len(newPassword) < 8 {
		return domain.IssuedToken{}, ErrWeakPassword
	}

	newHash, err := cryptox.HashPassword(newPassword)
	if err != nil {
		return domain.IssuedToken{}, err
	}

	var newVersion int64
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Identities().UpdatePasswordHash(ctx, identity.ID, newHash); err != nil {
			return err
		}
		newVersion, err = tx.Identities().BumpSessionVersion(ctx, identity.ID)
		return err
	})
	if err != nil {
		return domain.IssuedToken{}, err
	}
	identity.SessionVersion = newVersion

	slogx.FromContext(ctx).Info("password changed",
		slog.String("identity_id", identity.ID),
		slog.Int64("session_version", newVersion),
	)
	return s.issue(identity)
}

func (s *AuthService) issue(identity domain.Identity) (domain.IssuedToken, error) {
	now := time.Now()
	claims := jwtx.NewClaims(
		identity.ID,
		identity.SessionVersion,
		identity.Role,
		identity.Username,
		s.TokenTTL,
		s.Issuer,
		now,
	)
	signed, err := s.Signer.Sign(claims)
	if err != nil {
		return domain.IssuedToken{}, err
	}
	return domain.IssuedToken{
		Token:     signed,
		ExpiresAt: now.Add(s.TokenTTL).UTC(),
	}, nil
}
