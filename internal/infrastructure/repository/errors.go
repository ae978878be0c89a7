package repository

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound      = errors.New("resource not found")
	ErrAlreadyExists = errors.New("resource already exists")
	ErrInvalidInput  = errors.New("invalid input")
	ErrForbidden     = errors.New("resource belongs to another organization")

	// ErrUserNotFound частный случай ErrNotFound для пользователя из identity
	ErrUserNotFound = fmt.Errorf("user %w", ErrNotFound)
)

func handleDBError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return ErrAlreadyExists
		case "23503", "23502", "23514", "22P02":
			return ErrInvalidInput
		}
	}
	return err
}
