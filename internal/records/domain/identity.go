package domain

import "time"

// Roles assignable to identities. Members own records; admins additionally
// provision and deactivate identities.
const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

type Identity struct {
	ID           string
	Username     string
	DisplayName  string
	PasswordHash string  // argon2id PHC encoded
	Role         string  // RoleAdmin or RoleMember
	TOTPSecret   *string // optional TOTP secret (base32), nil when MFA is off

	// SessionVersion is the per-identity monotonic counter that gates token
	// validity. It only ever moves through Identities.BumpSessionVersion.
	SessionVersion int64

	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PublicIdentity is the client-visible projection of an Identity.
type PublicIdentity struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
	Active      bool   `json:"active"`
}

// Public strips credential and session fields for API responses.
func (i Identity) Public() PublicIdentity {
	return PublicIdentity{
		ID:          i.ID,
		Username:    i.Username,
		DisplayName: i.DisplayName,
		Role:        i.Role,
		Active:      i.Active,
	}
}
