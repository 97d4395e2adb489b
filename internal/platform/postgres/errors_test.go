package postgres_test

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/scry-study/internal/platform/postgres"
	"github.com/phrazzld/scry-study/internal/store"
	"github.com/stretchr/testify/assert"
)

func newPgError(code string) *pgconn.PgError {
	return &pgconn.PgError{
		Code:           code,
		Message:        "error message",
		TableName:      "cards",
		ColumnName:     "content",
		ConstraintName: "cards_deck_id_fkey",
	}
}

type fakeResult struct {
	rows int64
	err  error
}

func (r fakeResult) LastInsertId() (int64, error) { return 0, nil }
func (r fakeResult) RowsAffected() (int64, error) { return r.rows, r.err }

func TestMapError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		notFound error
		want     error
	}{
		{"no rows with default", sql.ErrNoRows, nil, store.ErrNotFound},
		{"no rows with entity", fmt.Errorf("scan: %w", sql.ErrNoRows), store.ErrCardNotFound, store.ErrCardNotFound},
		{"unique violation", newPgError("23505"), nil, store.ErrDuplicate},
		{"foreign key violation", newPgError("23503"), nil, store.ErrInvalidEntity},
		{"check violation", newPgError("23514"), nil, store.ErrInvalidEntity},
		{"not null violation", newPgError("23502"), nil, store.ErrInvalidEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := postgres.MapError(tt.err, tt.notFound)
			assert.ErrorIs(t, got, tt.want)
		})
	}

	t.Run("nil stays nil", func(t *testing.T) {
		t.Parallel()
		assert.NoError(t, postgres.MapError(nil, nil))
	})

	t.Run("unmapped errors pass through", func(t *testing.T) {
		t.Parallel()
		original := errors.New("connection reset")
		assert.Same(t, original, postgres.MapError(original, nil))
		pgErr := newPgError("42P01")
		assert.Equal(t, error(pgErr), postgres.MapError(pgErr, nil))
	})
}

func TestViolationPredicates(t *testing.T) {
	t.Parallel()

	assert.True(t, postgres.IsUniqueViolation(fmt.Errorf("insert: %w", newPgError("23505"))))
	assert.False(t, postgres.IsUniqueViolation(newPgError("23503")))
	assert.True(t, postgres.IsForeignKeyViolation(newPgError("23503")))
	assert.False(t, postgres.IsForeignKeyViolation(errors.New("plain")))
}

func TestCheckRowsAffected(t *testing.T) {
	t.Parallel()

	assert.NoError(t, postgres.CheckRowsAffected(fakeResult{rows: 1}, store.ErrCardNotFound))
	assert.ErrorIs(t, postgres.CheckRowsAffected(fakeResult{rows: 0}, store.ErrCardNotFound), store.ErrCardNotFound)
	assert.ErrorIs(t, postgres.CheckRowsAffected(fakeResult{rows: 0}, nil), store.ErrNotFound)
	assert.Error(t, postgres.CheckRowsAffected(fakeResult{err: errors.New("driver")}, nil))
	assert.Error(t, postgres.CheckRowsAffected(nil, nil))
}
