package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/niklvrr/IssueTracker/internal/domain"
	"github.com/niklvrr/IssueTracker/internal/transport/dto/request"
	"github.com/niklvrr/IssueTracker/internal/transport/dto/response"
	"github.com/niklvrr/IssueTracker/internal/transport/middleware"
	"github.com/niklvrr/IssueTracker/internal/usecase/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockIssueService мок сервиса для тестов
type MockIssueService struct {
	mock.Mock
}

func (m *MockIssueService) Create(ctx context.Context, identity domain.Identity, req *request.CreateIssueRequest) (*response.IssueResponse, error) {
	args := m.Called(ctx, identity, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*response.IssueResponse), args.Error(1)
}

func (m *MockIssueService) Update(ctx context.Context, identity domain.Identity, req *request.UpdateIssueRequest) (*response.IssueResponse, error) {
	args := m.Called(ctx, identity, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*response.IssueResponse), args.Error(1)
}

func (m *MockIssueService) Reorder(ctx context.Context, identity domain.Identity, req *request.ReorderIssuesRequest) (*response.ReorderIssuesResponse, error) {
	args := m.Called(ctx, identity, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*response.ReorderIssuesResponse), args.Error(1)
}

func (m *MockIssueService) Delete(ctx context.Context, identity domain.Identity, req *request.DeleteIssueRequest) error {
	args := m.Called(ctx, identity, req)
	return args.Error(0)
}

func (m *MockIssueService) ListForSprint(ctx context.Context, identity domain.Identity, req *request.SprintIssuesRequest) (*response.SprintIssuesResponse, error) {
	args := m.Called(ctx, identity, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*response.SprintIssuesResponse), args.Error(1)
}

var handlerIdentity = domain.Identity{UserId: "ext-1", OrganizationId: "org-1"}

// newRequest собирает запрос с параметрами пути chi и identity в контексте
func newRequest(method, target, body string, params map[string]string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}

	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	ctx = middleware.WithIdentity(ctx, handlerIdentity)
	return req.WithContext(ctx)
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var errResp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &errResp))
	return errResp
}

func TestIssueHandler_CreateIssue_Success(t *testing.T) {
	mockService := new(MockIssueService)
	handler := NewIssueHandler(mockService, zap.NewNop())

	mockService.On("Create", mock.Anything, handlerIdentity, mock.MatchedBy(func(req *request.CreateIssueRequest) bool {
		return req.ProjectId == "p1" && req.Title == "Fix login" && req.Priority == "HIGH"
	})).Return(&response.IssueResponse{Id: "i1", Title: "Fix login", Status: "TODO", Priority: "HIGH"}, nil)

	req := newRequest(http.MethodPost, "/api/v1/projects/p1/issues",
		`{"title":"Fix login","priority":"HIGH"}`, map[string]string{"projectId": "p1"})
	w := httptest.NewRecorder()

	handler.CreateIssue(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	var body map[string]response.IssueResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "i1", body["issue"].Id)
	mockService.AssertExpectations(t)
}

func TestIssueHandler_CreateIssue_ValidationError(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "missing title", body: `{"priority":"LOW"}`},
		{name: "unknown status", body: `{"title":"x","status":"BLOCKED"}`},
		{name: "malformed json", body: `{"title":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockIssueService)
			handler := NewIssueHandler(mockService, zap.NewNop())

			req := newRequest(http.MethodPost, "/api/v1/projects/p1/issues", tt.body, map[string]string{"projectId": "p1"})
			w := httptest.NewRecorder()

			handler.CreateIssue(w, req)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, "INVALID_INPUT", decodeError(t, w).Error.Code)
			mockService.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestIssueHandler_UpdateIssue_Forbidden(t *testing.T) {
	mockService := new(MockIssueService)
	handler := NewIssueHandler(mockService, zap.NewNop())

	mockService.On("Update", mock.Anything, handlerIdentity, mock.MatchedBy(func(req *request.UpdateIssueRequest) bool {
		return req.IssueId == "i1" && req.Status != nil && *req.Status == "DONE"
	})).Return(nil, service.ErrForbidden)

	req := newRequest(http.MethodPatch, "/api/v1/issues/i1", `{"status":"DONE"}`, map[string]string{"issueId": "i1"})
	w := httptest.NewRecorder()

	handler.UpdateIssue(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "FORBIDDEN", decodeError(t, w).Error.Code)
	mockService.AssertExpectations(t)
}

func TestIssueHandler_UpdateIssue_NotFound(t *testing.T) {
	mockService := new(MockIssueService)
	handler := NewIssueHandler(mockService, zap.NewNop())
	mockService.On("Update", mock.Anything, mock.Anything, mock.Anything).Return(nil, service.ErrIssueNotFound)

	req := newRequest(http.MethodPatch, "/api/v1/issues/nope", `{"priority":"LOW"}`, map[string]string{"issueId": "nope"})
	w := httptest.NewRecorder()

	handler.UpdateIssue(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "issue not found", decodeError(t, w).Error.Message)
}

func TestIssueHandler_ReorderIssues(t *testing.T) {
	mockService := new(MockIssueService)
	handler := NewIssueHandler(mockService, zap.NewNop())

	mockService.On("Reorder", mock.Anything, handlerIdentity, mock.MatchedBy(func(req *request.ReorderIssuesRequest) bool {
		return len(req.Items) == 2 && req.Items[1].Status == "DONE"
	})).Return(&response.ReorderIssuesResponse{Updated: 2, StatusChanges: 1}, nil)

	req := newRequest(http.MethodPost, "/api/v1/issues/reorder",
		`{"items":[{"issue_id":"a","status":"TODO","order":0},{"issue_id":"b","status":"DONE","order":1}]}`, nil)
	w := httptest.NewRecorder()

	handler.ReorderIssues(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp response.ReorderIssuesResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Updated)
	assert.Equal(t, 1, resp.StatusChanges)
}

func TestIssueHandler_ReorderIssues_EmptyItems(t *testing.T) {
	mockService := new(MockIssueService)
	handler := NewIssueHandler(mockService, zap.NewNop())

	req := newRequest(http.MethodPost, "/api/v1/issues/reorder", `{"items":[]}`, nil)
	w := httptest.NewRecorder()

	handler.ReorderIssues(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockService.AssertNotCalled(t, "Reorder", mock.Anything, mock.Anything, mock.Anything)
}

func TestIssueHandler_DeleteIssue(t *testing.T) {
	mockService := new(MockIssueService)
	handler := NewIssueHandler(mockService, zap.NewNop())
	mockService.On("Delete", mock.Anything, handlerIdentity, &request.DeleteIssueRequest{IssueId: "i1"}).Return(nil)

	req := newRequest(http.MethodDelete, "/api/v1/issues/i1", "", map[string]string{"issueId": "i1"})
	w := httptest.NewRecorder()

	handler.DeleteIssue(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	mockService.AssertExpectations(t)
}

func TestIssueHandler_ListSprintIssues_Unauthorized(t *testing.T) {
	mockService := new(MockIssueService)
	handler := NewIssueHandler(mockService, zap.NewNop())
	mockService.On("ListForSprint", mock.Anything, mock.Anything, mock.Anything).Return(nil, service.ErrUnauthorized)

	req := newRequest(http.MethodGet, "/api/v1/sprints/s1/issues", "", map[string]string{"sprintId": "s1"})
	w := httptest.NewRecorder()

	handler.ListSprintIssues(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "UNAUTHORIZED", decodeError(t, w).Error.Code)
}
