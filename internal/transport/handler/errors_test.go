package handler

import (
	"errors"
	"net/http"
	"testing"

	"github.com/niklvrr/IssueTracker/internal/usecase/service"
	"github.com/stretchr/testify/assert"
)

func TestHandleError_DomainCodes(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{err: service.ErrProjectNotFound, status: http.StatusNotFound, code: "NOT_FOUND"},
		{err: service.ErrUnauthorized, status: http.StatusUnauthorized, code: "UNAUTHORIZED"},
		{err: service.ErrForbidden, status: http.StatusForbidden, code: "FORBIDDEN"},
		{err: service.WrapError(service.ErrInvalidInput, errors.New("bad")), status: http.StatusBadRequest, code: "INVALID_INPUT"},
		{err: &service.DomainError{Code: "SOMETHING_ELSE", Message: "x"}, status: http.StatusInternalServerError, code: "SOMETHING_ELSE"},
		{err: errors.New("boom"), status: http.StatusInternalServerError, code: "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		status, resp := HandleError(tt.err)
		assert.Equal(t, tt.status, status, tt.code)
		assert.Equal(t, tt.code, resp.Error.Code)
	}
}

func TestHandleError_Nil(t *testing.T) {
	status, resp := HandleError(nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Empty(t, resp.Error.Code)
}

func TestParseDate(t *testing.T) {
	from, err := parseDate("2025-02-03", false)
	assert.NoError(t, err)
	assert.Equal(t, "2025-02-03T00:00:00Z", from.Format("2006-01-02T15:04:05Z07:00"))

	to, err := parseDate("2025-02-03T10:00:00+03:00", true)
	assert.NoError(t, err)
	assert.Equal(t, 7, to.UTC().Hour())

	empty, err := parseDate("  ", false)
	assert.NoError(t, err)
	assert.Nil(t, empty)

	_, err = parseDate("03.02.2025", false)
	assert.Error(t, err)
}
