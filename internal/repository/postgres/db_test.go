package postgres

import (
	"errors"
	"fmt"
	"testing"

	"go-placement-portal/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestMapError(t *testing.T) {
	assert.NoError(t, mapError(nil))
	assert.ErrorIs(t, mapError(pgx.ErrNoRows), domain.ErrNotFound)
	assert.ErrorIs(t, mapError(fmt.Errorf("scan: %w", pgx.ErrNoRows)), domain.ErrNotFound)
	assert.ErrorIs(t, mapError(&pgconn.PgError{Code: pgUniqueViolation}), domain.ErrConflict)

	other := &pgconn.PgError{Code: "23503"}
	assert.Equal(t, other, mapError(other))

	plain := errors.New("connection reset")
	assert.Equal(t, plain, mapError(plain))
}

func TestExpectOne(t *testing.T) {
	assert.NoError(t, expectOne(pgconn.NewCommandTag("UPDATE 1"), nil))
	assert.ErrorIs(t, expectOne(pgconn.NewCommandTag("UPDATE 0"), nil), domain.ErrNotFound)
	assert.ErrorIs(t, expectOne(pgconn.CommandTag{}, pgx.ErrNoRows), domain.ErrNotFound)
}

func TestExpectTransition(t *testing.T) {
	assert.NoError(t, expectTransition(pgconn.NewCommandTag("UPDATE 1"), nil))
	assert.ErrorIs(t, expectTransition(pgconn.NewCommandTag("UPDATE 0"), nil), domain.ErrStateChanged)
	assert.ErrorIs(t, expectTransition(pgconn.CommandTag{}, &pgconn.PgError{Code: pgUniqueViolation}), domain.ErrConflict)
}

func TestEmailTaken(t *testing.T) {
	assert.ErrorIs(t, emailTaken(mapError(&pgconn.PgError{Code: pgUniqueViolation})), domain.ErrEmailTaken)
	plain := errors.New("connection reset")
	assert.Equal(t, plain, emailTaken(plain))
}

func TestOffset(t *testing.T) {
	assert.Equal(t, 0, offset(1, 20))
	assert.Equal(t, 40, offset(3, 20))
}
