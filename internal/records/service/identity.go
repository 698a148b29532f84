package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/caliperhq/labrecords/internal/records/domain"
	"github.com/caliperhq/labrecords/internal/records/store"
	"github.com/caliperhq/labrecords/pkg/cryptox"
	"github.com/caliperhq/labrecords/pkg/idx"
	"github.com/caliperhq/labrecords/pkg/slogx"
)

var (
	ErrUsernameTaken  = errors.New("username_taken")
	ErrWeakPassword   = errors.New("weak_password")
	ErrInvalidRole    = errors.New("invalid_role")
	ErrInvalidRequest = errors.New("invalid_request")
)

// IdentityService handles identity provisioning and administrative actions.
type IdentityService struct {
	Store store.Store
}

// CreateIdentity provisions a new identity with the given credentials.
func (s *IdentityService) CreateIdentity(
	ctx context.Context,
	username, displayName, password, role string,
) (domain.Identity, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return domain.Identity{}, ErrInvalidRequest
	}
	if len(password) < 8 {
		return domain.Identity{}, ErrWeakPassword
	}
	if role != domain.RoleAdmin && role != domain.RoleMember {
		return domain.Identity{}, ErrInvalidRole
	}

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return domain.Identity{}, err
	}

	identity := domain.Identity{
		ID:           idx.New().String(),
		Username:     username,
		DisplayName:  displayName,
		PasswordHash: hash,
		Role:         role,
		Active:       true,
	}

	if err := s.Store.Identities().CreateIdentity(ctx, identity); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.Identity{}, ErrUsernameTaken
		}
		return domain.Identity{}, err
	}

	slogx.FromContext(ctx).Info("identity provisioned",
		slog.String("identity_id", identity.ID),
		slog.String("role", role),
	)
	return identity, nil
}

// GetIdentityByID returns an identity by id.
func (s *IdentityService) GetIdentityByID(ctx context.Context, id string) (domain.Identity, error) {
	return s.Store.Identities().GetIdentityByID(ctx, id)
}

// Deactivate soft-deactivates an identity and bumps its session version so
// every outstanding token dies immediately rather than at expiry. The two
// writes share a transaction; a deactivated account with live tokens must
// not be observable.
func (s *IdentityService) Deactivate(ctx context.Context, id string) error {
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Identities().Deactivate(ctx, id); err != nil {
			return err
		}
		_, err := tx.Identities().BumpSessionVersion(ctx, id)
		return err
	})
	if err != nil {
		return err
	}

	slogx.FromContext(ctx).Info("identity deactivated", slog.String("identity_id", id))
	return nil
}

// EnsureSeedAdmin provisions the initial admin account when the identity
// table is empty. No-op otherwise.
func (s *IdentityService) EnsureSeedAdmin(ctx context.Context, username, password string) error {
	if username == "" || password == "" {
		return nil
	}

	empty, err := s.Store.Identities().IsEmpty(ctx)
	if err != nil {
		return err
	}
	if !empty {
		return nil
	}

	_, err = s.CreateIdentity(ctx, username, "Administrator", password, domain.RoleAdmin)
	return err
}
