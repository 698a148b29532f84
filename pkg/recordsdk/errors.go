package recordsdk

import "fmt"

// Machine-readable failure codes carried in the error envelope. Clients key
// off these, never off the HTTP status alone.
const (
	CodeSessionReplaced    = "SESSION_REPLACED"
	CodeVersionConflict    = "VERSION_CONFLICT"
	CodeAccountDeactivated = "ACCOUNT_DEACTIVATED"
)

// APIError represents a non-2xx response from the service.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("labrecords: %s (%d %s)", e.Message, e.StatusCode, e.Code)
	}
	return fmt.Sprintf("labrecords: %s (%d)", e.Message, e.StatusCode)
}

// IsSessionReplaced reports whether the failure means another login has
// superseded this session.
func (e *APIError) IsSessionReplaced() bool {
	return e.Code == CodeSessionReplaced
}

// IsAuthFailure reports whether the failure invalidates the session itself:
// any 401, or a deactivated account. A plain 403 (e.g. insufficient role on
// one endpoint) leaves the session usable and is not counted.
func (e *APIError) IsAuthFailure() bool {
	return e.StatusCode == 401 || e.Code == CodeAccountDeactivated
}

// VersionConflictError is returned when a versioned write is rejected.
// Latest is the authoritative record at rejection time; Submitted is the
// write that was refused, kept so the caller can force-overwrite it.
type VersionConflictError struct {
	Latest    Record
	Submitted UpdateRecordRequest
}

func (e *VersionConflictError) Error() string {
	return fmt.Sprintf(
		"labrecords: version conflict on %s: submitted base %d, latest is %d",
		e.Latest.ID, e.Submitted.BaseVersion, e.Latest.Version,
	)
}

// ConflictSummary describes the competing edit for display before the user
// chooses a resolution.
type ConflictSummary struct {
	// ModifiedBy is the identity that produced the latest version, when known.
	ModifiedBy string
	// LatestVersion is the authoritative version number.
	LatestVersion int64
	// ItemCountDelta is latest item count minus the local item count, a
	// coarse magnitude-of-difference indicator.
	ItemCountDelta int
}

// Summary builds a ConflictSummary against the caller's local item count.
func (e *VersionConflictError) Summary(localItemCount int) ConflictSummary {
	return ConflictSummary{
		ModifiedBy:     e.Latest.UpdatedBy,
		LatestVersion:  e.Latest.Version,
		ItemCountDelta: e.Latest.ItemCount - localItemCount,
	}
}
