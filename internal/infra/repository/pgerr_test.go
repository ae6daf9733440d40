//go:build unit

package repository

import (
	"errors"
	"testing"

	"github.com/mukuljibh/airbnb-backend-sub000/internal/infra"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestWrapWriteErr(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind infra.RepositoryErrorKind
	}{
		{
			// The daterange exclusion constraint is what turns a double
			// booking into a conflict the usecase can map to a 409.
			name: "exclusion violation becomes conflict",
			err:  &pgconn.PgError{Code: "23P01", ConstraintName: "reservations_no_overlap"},
			kind: infra.KindConflict,
		},
		{
			name: "unique violation becomes duplicate key",
			err:  &pgconn.PgError{Code: "23505"},
			kind: infra.KindDuplicateKey,
		},
		{
			name: "foreign key violation",
			err:  &pgconn.PgError{Code: "23503"},
			kind: infra.KindForeignKeyViolated,
		},
		{
			name: "other postgres error is a db failure",
			err:  &pgconn.PgError{Code: "40001"},
			kind: infra.KindDBFailure,
		},
		{
			name: "non-postgres error is a db failure",
			err:  errors.New("connection reset"),
			kind: infra.KindDBFailure,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := wrapWriteErr("insert reservation", tt.err)
			assert.True(t, infra.IsKind(wrapped, tt.kind))
			assert.ErrorAs(t, wrapped, new(infra.RepositoryError))
		})
	}
}

func TestWrapWriteErr_WrappedPgError(t *testing.T) {
	// Drivers often hand back the PgError inside another layer.
	inner := &pgconn.PgError{Code: "23P01"}
	wrapped := wrapWriteErr("insert reservation", errors.Join(errors.New("exec failed"), inner))
	assert.True(t, infra.IsKind(wrapped, infra.KindConflict))
}
