package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/niklvrr/IssueTracker/internal/usecase/service"
)

type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// HandleError маппит доменные ошибки на HTTP коды и ErrorResponse
func HandleError(err error) (int, ErrorResponse) {
	if err == nil {
		return http.StatusOK, ErrorResponse{}
	}

	var domainErr *service.DomainError
	if errors.As(err, &domainErr) {
		statusCode := mapErrorCodeToHTTPStatus(domainErr.Code)
		return statusCode, ErrorResponse{
			Error: ErrorDetail{
				Code:    domainErr.Code,
				Message: domainErr.Message,
			},
		}
	}

	// Неизвестная ошибка - возвращаем 500 без подробностей
	return http.StatusInternalServerError, ErrorResponse{
		Error: ErrorDetail{
			Code:    "INTERNAL_ERROR",
			Message: "internal server error",
		},
	}
}

func mapErrorCodeToHTTPStatus(code string) int {
	switch code {
	case service.CodeNotFound:
		return http.StatusNotFound // 404
	case service.CodeUnauthorized:
		return http.StatusUnauthorized // 401
	case service.CodeForbidden:
		return http.StatusForbidden // 403
	case service.CodeInvalidInput:
		return http.StatusBadRequest // 400
	default:
		return http.StatusInternalServerError // 500
	}
}

// WriteError отправляет ErrorResponse клиенту
func WriteError(w http.ResponseWriter, statusCode int, errResp ErrorResponse) {
	writeJSON(w, statusCode, errResp)
}

func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}
