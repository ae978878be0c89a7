package handler

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/niklvrr/IssueTracker/internal/usecase/service"
)

const maxBodyBytes = 1 << 20

var validate = validator.New(validator.WithRequiredStructEnabled())

// decodeBody читает json тело запроса в dst. Пустое тело допустимо.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil && err != io.EOF {
		return service.WrapError(service.ErrInvalidInput, fmt.Errorf("decode body: %w", err))
	}
	return nil
}

func validateRequest(req any) error {
	if err := validate.Struct(req); err != nil {
		return service.WrapError(service.ErrInvalidInput, err)
	}
	return nil
}

// parseDate принимает RFC3339 или YYYY-MM-DD. Для даты без времени
// верхняя граница сдвигается на конец дня, чтобы включить его целиком.
func parseDate(raw string, endOfDay bool) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return nil, service.WrapError(service.ErrInvalidInput, fmt.Errorf("invalid date %q", raw))
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}

func respondError(w http.ResponseWriter, err error) {
	statusCode, errResp := HandleError(err)
	WriteError(w, statusCode, errResp)
}
