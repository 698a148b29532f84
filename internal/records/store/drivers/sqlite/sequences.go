package sqlite

import (
	"context"
	"database/sql"
	"errors"
)

type sequencesRepo struct {
	q querier
}

// NextValue allocates with a single upsert-increment so N concurrent callers
// for one scope always receive N distinct values. Reading the current max and
// writing max+1 in two steps would race under concurrent creation.
func (r *sequencesRepo) NextValue(ctx context.Context, scopeKey string) (int64, error) {
	var value int64
	err := r.q.QueryRowContext(ctx, `
		INSERT INTO sequence_counters (scope_key, last_value)
		VALUES (?, 1)
		ON CONFLICT (scope_key) DO UPDATE SET last_value = last_value + 1
		RETURNING last_value`,
		scopeKey,
	).Scan(&value)
	if err != nil {
		return 0, err
	}
	return value, nil
}

func (r *sequencesRepo) CurrentValue(ctx context.Context, scopeKey string) (int64, error) {
	var value int64
	err := r.q.QueryRowContext(ctx,
		`SELECT last_value FROM sequence_counters WHERE scope_key = ?`, scopeKey,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return value, nil
}
