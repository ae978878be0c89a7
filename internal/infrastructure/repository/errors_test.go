package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestHandleDBError_NoRows(t *testing.T) {
	err := handleDBError(pgx.ErrNoRows)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestHandleDBError_WrappedNoRows(t *testing.T) {
	err := handleDBError(fmt.Errorf("scan issue: %w", pgx.ErrNoRows))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestHandleDBError_UniqueViolation(t *testing.T) {
	pgErr := &pgconn.PgError{
		Code: "23505",
	}
	err := handleDBError(pgErr)
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestHandleDBError_InvalidInputCodes(t *testing.T) {
	// foreign key, not null, check, invalid text representation
	for _, code := range []string{"23503", "23502", "23514", "22P02"} {
		err := handleDBError(&pgconn.PgError{Code: code})
		assert.ErrorIs(t, err, ErrInvalidInput, code)
	}
}

func TestHandleDBError_UnknownError(t *testing.T) {
	unknownErr := errors.New("unknown error")
	err := handleDBError(unknownErr)
	assert.Equal(t, unknownErr, err)
}

func TestHandleDBError_Nil(t *testing.T) {
	err := handleDBError(nil)
	assert.NoError(t, err)
}

func TestErrUserNotFound_IsNotFound(t *testing.T) {
	assert.ErrorIs(t, ErrUserNotFound, ErrNotFound)
	assert.NotErrorIs(t, ErrNotFound, ErrUserNotFound)
}

func TestDerefOr(t *testing.T) {
	v := int64(7)
	assert.Equal(t, int64(7), derefOr(&v, 0))
	assert.Equal(t, int64(0), derefOr[int64](nil, 0))
}
