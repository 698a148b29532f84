package recordsdk

import "context"

// The conflict resolution flow offers exactly two outcomes, both explicit:
// reload (discard local edits) or force overwrite (discard the competing
// edit). There is no field-level merge; conflicts are whole-record.

// Reload resolves a conflict by accepting the authoritative record. The
// caller replaces its local state with the returned record and re-edits
// from there.
func (e *VersionConflictError) Reload() Record {
	return e.Latest
}

// ForceOverwrite resolves a conflict by resubmitting the rejected write
// with the authoritative version as its base: last write wins, chosen
// deliberately by the user. It fails with a fresh conflict if a third
// writer got in between.
func (s *Session) ForceOverwrite(ctx context.Context, conflict *VersionConflictError) (Record, error) {
	resubmit := conflict.Submitted
	resubmit.BaseVersion = conflict.Latest.Version
	return s.UpdateRecord(ctx, conflict.Latest.ID, resubmit)
}
