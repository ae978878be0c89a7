package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/niklvrr/IssueTracker/internal/domain"
	"github.com/niklvrr/IssueTracker/internal/infrastructure/repository"
)

var (
	incorrectIdError = errors.New("incorrect id error")
)

type DomainError struct {
	Code    string
	Message string
	Err     error
}

func WrapError(domainError *DomainError, err error) error {
	return &DomainError{
		Code:    domainError.Code,
		Message: domainError.Message,
		Err:     err,
	}
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is сравнивает по коду и сообщению, чтобы errors.Is работал с обернутыми копиями
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

const (
	CodeNotFound     = "NOT_FOUND"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"
	CodeInvalidInput = "INVALID_INPUT"
)

var (
	// NOT_FOUND
	ErrProjectNotFound = &DomainError{
		Code:    CodeNotFound,
		Message: "project not found",
	}
	ErrSprintNotFound = &DomainError{
		Code:    CodeNotFound,
		Message: "sprint not found",
	}
	ErrIssueNotFound = &DomainError{
		Code:    CodeNotFound,
		Message: "issue not found",
	}
	ErrUserNotFound = &DomainError{
		Code:    CodeNotFound,
		Message: "user not found",
	}
	ErrFormNotFound = &DomainError{
		Code:    CodeNotFound,
		Message: "form not found",
	}

	// UNAUTHORIZED
	ErrUnauthorized = &DomainError{
		Code:    CodeUnauthorized,
		Message: "authentication required",
	}

	// FORBIDDEN
	ErrForbidden = &DomainError{
		Code:    CodeForbidden,
		Message: "access to resource denied",
	}

	// INVALID_INPUT
	ErrInvalidInput = &DomainError{
		Code:    CodeInvalidInput,
		Message: "invalid input",
	}
)

// normalizeID убирает пробелы вокруг идентификатора и проверяет, что он не пустой
func normalizeID(id, field string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", fmt.Errorf("%w: %s is empty", incorrectIdError, field)
	}
	return id, nil
}

func requireIdentity(identity domain.Identity) error {
	if identity.Empty() {
		return ErrUnauthorized
	}
	return nil
}

// mapRepositoryError переводит ошибки репозитория в доменные,
// неизвестные ошибки оборачиваются ошибкой операции
func mapRepositoryError(err error, notFound *DomainError, opError error) error {
	switch {
	case errors.Is(err, repository.ErrUserNotFound):
		return WrapError(ErrUserNotFound, err)
	case errors.Is(err, repository.ErrNotFound):
		return WrapError(notFound, err)
	case errors.Is(err, repository.ErrForbidden):
		return WrapError(ErrForbidden, err)
	case errors.Is(err, repository.ErrInvalidInput), errors.Is(err, repository.ErrAlreadyExists):
		return WrapError(ErrInvalidInput, err)
	}

	// Неизвестная ошибка
	return fmt.Errorf(`%w: %w`, opError, err)
}
