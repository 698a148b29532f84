package recordsdk

import (
	"encoding/json"
	"time"
)

// IdentityInfo is the client-visible identity projection.
type IdentityInfo struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
	Active      bool   `json:"active"`
}

// Record mirrors the server's record shape.
type Record struct {
	ID            string          `json:"id"`
	OwnerID       string          `json:"owner_id"`
	ReferenceCode string          `json:"reference_code"`
	Title         string          `json:"title"`
	Payload       json.RawMessage `json:"payload"`
	ItemCount     int             `json:"item_count"`
	Version       int64           `json:"version"`
	UpdatedBy     string          `json:"updated_by"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// LoginRequest carries first-party credentials. OTP is required only for
// identities with TOTP enabled.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	OTP      string `json:"otp,omitempty"`
}

// LoginResponse is returned on successful login.
type LoginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	Identity  IdentityInfo `json:"identity"`
}

// TokenResponse is returned by operations that re-issue the bearer token
// (logout-all, password change).
type TokenResponse struct {
	Message   string    `json:"message"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// MessageResponse is a plain acknowledgement.
type MessageResponse struct {
	Message string `json:"message"`
}

// CreateRecordRequest creates a record; Period defaults server-side to the
// current year when empty.
type CreateRecordRequest struct {
	Title   string          `json:"title"`
	Payload json.RawMessage `json:"payload"`
	Period  string          `json:"period,omitempty"`
}

// UpdateRecordRequest is a versioned write. BaseVersion must be the version
// the caller read; a stale value is rejected with a VersionConflictError.
type UpdateRecordRequest struct {
	BaseVersion int64           `json:"base_version"`
	Title       string          `json:"title"`
	Payload     json.RawMessage `json:"payload"`
}

// CreateIdentityRequest provisions a new identity (admin only).
type CreateIdentityRequest struct {
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Password    string `json:"password"`
	Role        string `json:"role"`
}

// ChangePasswordRequest rotates the caller's password and session version.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// HealthChecks reports per-dependency health on the readiness probe.
type HealthChecks struct {
	Database string `json:"database"`
	Signer   string `json:"signer"`
}

// HealthResponse is returned by the liveness and readiness probes.
type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime"`
	Version string        `json:"version"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

// ErrorResponse is the service's failure envelope.
type ErrorResponse struct {
	Message    string  `json:"message"`
	Code       string  `json:"code,omitempty"`
	LatestData *Record `json:"latest_data,omitempty"`
}
