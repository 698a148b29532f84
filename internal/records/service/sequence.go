package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/caliperhq/labrecords/internal/records/domain"
	"github.com/caliperhq/labrecords/internal/records/store"
)

// SequenceService allocates reference-code numbers per (owner, period)
// scope. Allocation is a single atomic increment in the store; the service
// never reads a counter to compute the next value.
type SequenceService struct {
	Store store.Store
}

// Next allocates the next value for the scope. Values are unique and
// strictly increasing per scope; gaps (e.g. after a failed record creation)
// are tolerated, duplicates never occur.
func (s *SequenceService) Next(ctx context.Context, scope domain.SequenceScope) (int64, error) {
	value, err := s.Store.Sequences().NextValue(ctx, scope.Key())
	if err != nil {
		return 0, fmt.Errorf("allocate sequence %q: %w", scope.Key(), err)
	}
	return value, nil
}

// AllocateCode allocates the next value and formats it as a reference code.
func (s *SequenceService) AllocateCode(ctx context.Context, scope domain.SequenceScope) (string, error) {
	value, err := s.Next(ctx, scope)
	if err != nil {
		return "", err
	}
	return scope.ReferenceCode(value), nil
}

// OwnerPrefix derives the scope prefix from a username: its first letter,
// uppercased. Formatting convention only; uniqueness comes from the counter.
func OwnerPrefix(username string) string {
	username = strings.TrimSpace(username)
	if username == "" {
		return "X"
	}
	return strings.ToUpper(username[:1])
}
