package domain

import "fmt"

// SequenceScope identifies one reference-code counter: a period (usually a
// year, e.g. "2025") plus a short owner prefix. Counters are created lazily
// on first allocation and never deleted.
type SequenceScope struct {
	Period string
	Prefix string
}

// Key returns the scope's storage key, e.g. "2025-B".
func (s SequenceScope) Key() string {
	return s.Period + "-" + s.Prefix
}

// ReferenceCode formats an allocated sequence value into the human-readable
// code, e.g. "2025-B-0042". Pure formatting; the uniqueness guarantee lives
// entirely in the allocated integer.
func (s SequenceScope) ReferenceCode(value int64) string {
	return fmt.Sprintf("%s-%s-%04d", s.Period, s.Prefix, value)
}
