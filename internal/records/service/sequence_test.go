package service_test

import (
	"context"
	"testing"

	"github.com/caliperhq/labrecords/internal/records/domain"
	"github.com/caliperhq/labrecords/internal/records/service"
	"github.com/stretchr/testify/require"
)

func TestOwnerPrefix(t *testing.T) {
	tests := []struct {
		username string
		want     string
	}{
		{"bob", "B"},
		{"Bob", "B"},
		{"carol", "C"},
		{"  dave  ", "D"},
		{"", "X"},
		{"   ", "X"},
		{"1337user", "1"},
	}

	for _, tt := range tests {
		require.Equal(t, tt.want, service.OwnerPrefix(tt.username), "username %q", tt.username)
	}
}

func TestSequenceScopeFormatting(t *testing.T) {
	scope := domain.SequenceScope{Period: "2025", Prefix: "B"}

	require.Equal(t, "2025-B", scope.Key())
	require.Equal(t, "2025-B-0001", scope.ReferenceCode(1))
	require.Equal(t, "2025-B-0042", scope.ReferenceCode(42))
	require.Equal(t, "2025-B-12345", scope.ReferenceCode(12345), "values beyond 4 digits keep their width")
}

func TestSequenceServiceAllocation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	scope := domain.SequenceScope{Period: "2025", Prefix: "B"}

	// Same scope allocates 1, 2, 3
	for want := int64(1); want <= 3; want++ {
		v, err := e.sequences.Next(ctx, scope)
		require.NoError(t, err)
		require.Equal(t, want, v)
	}

	code, err := e.sequences.AllocateCode(ctx, scope)
	require.NoError(t, err)
	require.Equal(t, "2025-B-0004", code)

	// Another scope starts fresh
	other := domain.SequenceScope{Period: "2026", Prefix: "B"}
	v, err := e.sequences.Next(ctx, other)
	require.NoError(t, err)
	require.Equal(t, int64(1), v)
}
