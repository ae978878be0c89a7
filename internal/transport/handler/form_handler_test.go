package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/niklvrr/IssueTracker/internal/domain"
	"github.com/niklvrr/IssueTracker/internal/transport/dto/request"
	"github.com/niklvrr/IssueTracker/internal/transport/dto/response"
	"github.com/niklvrr/IssueTracker/internal/usecase/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockFormService мок сервиса для тестов
type MockFormService struct {
	mock.Mock
}

func (m *MockFormService) SubmitResponse(ctx context.Context, req *request.SubmitFormRequest) (*response.SubmitFormResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*response.SubmitFormResponse), args.Error(1)
}

func (m *MockFormService) TrackView(ctx context.Context, req *request.TrackViewRequest) (*response.TrackViewResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*response.TrackViewResponse), args.Error(1)
}

func (m *MockFormService) Analytics(ctx context.Context, identity domain.Identity, req *request.FormAnalyticsRequest) (*response.FormAnalyticsResponse, error) {
	args := m.Called(ctx, identity, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*response.FormAnalyticsResponse), args.Error(1)
}

func (m *MockFormService) CreateForm(ctx context.Context, identity domain.Identity, req *request.CreateFormRequest) (*response.FormResponse, error) {
	args := m.Called(ctx, identity, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*response.FormResponse), args.Error(1)
}

func (m *MockFormService) GetForm(ctx context.Context, req *request.GetFormRequest) (*response.FormResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*response.FormResponse), args.Error(1)
}

func (m *MockFormService) ListOrganizationForms(ctx context.Context, identity domain.Identity, req *request.OrganizationFormsRequest) (*response.FormListResponse, error) {
	args := m.Called(ctx, identity, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*response.FormListResponse), args.Error(1)
}

func (m *MockFormService) ListProjectForms(ctx context.Context, identity domain.Identity, req *request.ProjectFormsRequest) (*response.FormListResponse, error) {
	args := m.Called(ctx, identity, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*response.FormListResponse), args.Error(1)
}

func (m *MockFormService) ListSubmissions(ctx context.Context, identity domain.Identity, req *request.FormSubmissionsRequest) (*response.FormSubmissionsResponse, error) {
	args := m.Called(ctx, identity, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*response.FormSubmissionsResponse), args.Error(1)
}

func TestFormHandler_CreateForm_Success(t *testing.T) {
	mockService := new(MockFormService)
	handler := NewFormHandler(mockService, zap.NewNop())

	mockService.On("CreateForm", mock.Anything, handlerIdentity, mock.MatchedBy(func(req *request.CreateFormRequest) bool {
		return req.Title == "Feedback" &&
			req.ProjectId == "p1" &&
			len(req.Fields) == 1 &&
			req.Fields[0].Label == "Rating" &&
			req.Fields[0].Required
	})).Return(&response.FormResponse{Id: "f1", Title: "Feedback", OrganizationId: "org-1"}, nil)

	req := newRequest(http.MethodPost, "/api/v1/forms",
		`{"title":"Feedback","project_id":"p1","fields":[{"label":"Rating","type":"number","required":true}]}`, nil)
	w := httptest.NewRecorder()

	handler.CreateForm(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	var body struct {
		Form response.FormResponse `json:"form"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "f1", body.Form.Id)
	mockService.AssertExpectations(t)
}

func TestFormHandler_CreateForm_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "missing title", body: `{"project_id":"p1","fields":[]}`},
		{name: "missing project", body: `{"title":"Feedback","fields":[]}`},
		{name: "missing fields", body: `{"title":"Feedback","project_id":"p1"}`},
		{name: "field without type", body: `{"title":"Feedback","project_id":"p1","fields":[{"label":"Rating"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockFormService)
			handler := NewFormHandler(mockService, zap.NewNop())

			req := newRequest(http.MethodPost, "/api/v1/forms", tt.body, nil)
			w := httptest.NewRecorder()

			handler.CreateForm(w, req)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, "INVALID_INPUT", decodeError(t, w).Error.Code)
			mockService.AssertNotCalled(t, "CreateForm", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestFormHandler_CreateForm_ForeignProject(t *testing.T) {
	mockService := new(MockFormService)
	handler := NewFormHandler(mockService, zap.NewNop())
	mockService.On("CreateForm", mock.Anything, handlerIdentity, mock.Anything).Return(nil, service.ErrForbidden)

	req := newRequest(http.MethodPost, "/api/v1/forms",
		`{"title":"Feedback","project_id":"p-other","fields":[]}`, nil)
	w := httptest.NewRecorder()

	handler.CreateForm(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "FORBIDDEN", decodeError(t, w).Error.Code)
}

func TestFormHandler_GetForm(t *testing.T) {
	mockService := new(MockFormService)
	handler := NewFormHandler(mockService, zap.NewNop())
	mockService.On("GetForm", mock.Anything, &request.GetFormRequest{FormId: "f1"}).
		Return(&response.FormResponse{Id: "f1", Title: "Feedback"}, nil)

	req := newRequest(http.MethodGet, "/api/v1/forms/f1", "", map[string]string{"formId": "f1"})
	w := httptest.NewRecorder()

	handler.GetForm(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"form"`)
	mockService.AssertExpectations(t)
}

func TestFormHandler_ListOrganizationForms(t *testing.T) {
	mockService := new(MockFormService)
	handler := NewFormHandler(mockService, zap.NewNop())
	mockService.On("ListOrganizationForms", mock.Anything, handlerIdentity, &request.OrganizationFormsRequest{OrganizationId: "org-1"}).
		Return(&response.FormListResponse{Forms: []response.FormSummaryResponse{{Id: "f1", SubmissionCount: 2}}}, nil)

	req := newRequest(http.MethodGet, "/api/v1/organizations/org-1/forms", "", map[string]string{"orgId": "org-1"})
	w := httptest.NewRecorder()

	handler.ListOrganizationForms(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp response.FormListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Forms, 1)
	assert.Equal(t, 2, resp.Forms[0].SubmissionCount)
}

func TestFormHandler_ListProjectForms_NotFound(t *testing.T) {
	mockService := new(MockFormService)
	handler := NewFormHandler(mockService, zap.NewNop())
	mockService.On("ListProjectForms", mock.Anything, handlerIdentity, &request.ProjectFormsRequest{ProjectId: "nope"}).
		Return(nil, service.ErrProjectNotFound)

	req := newRequest(http.MethodGet, "/api/v1/projects/nope/forms", "", map[string]string{"projectId": "nope"})
	w := httptest.NewRecorder()

	handler.ListProjectForms(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestFormHandler_ListSubmissions(t *testing.T) {
	mockService := new(MockFormService)
	handler := NewFormHandler(mockService, zap.NewNop())
	mockService.On("ListSubmissions", mock.Anything, handlerIdentity, &request.FormSubmissionsRequest{FormId: "f1"}).
		Return(&response.FormSubmissionsResponse{FormId: "f1", Submissions: []response.FormSubmissionResponse{
			{Id: "s1", FormId: "f1", UserName: "Anonymous", UserEmail: "N/A"},
		}}, nil)

	req := newRequest(http.MethodGet, "/api/v1/forms/f1/submissions", "", map[string]string{"formId": "f1"})
	w := httptest.NewRecorder()

	handler.ListSubmissions(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp response.FormSubmissionsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Submissions, 1)
	assert.Equal(t, "Anonymous", resp.Submissions[0].UserName)
}

func TestFormHandler_SubmitResponse(t *testing.T) {
	mockService := new(MockFormService)
	handler := NewFormHandler(mockService, zap.NewNop())

	mockService.On("SubmitResponse", mock.Anything, mock.MatchedBy(func(req *request.SubmitFormRequest) bool {
		return req.FormId == "f1" && req.Data["Rating"] == float64(5)
	})).Return(&response.SubmitFormResponse{Id: "s1", FormId: "f1"}, nil)

	req := newRequest(http.MethodPost, "/api/v1/forms/f1/submissions", `{"data":{"Rating":5}}`, map[string]string{"formId": "f1"})
	w := httptest.NewRecorder()

	handler.SubmitResponse(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	mockService.AssertExpectations(t)
}

func TestFormHandler_SubmitResponse_InvalidEmail(t *testing.T) {
	mockService := new(MockFormService)
	handler := NewFormHandler(mockService, zap.NewNop())

	req := newRequest(http.MethodPost, "/api/v1/forms/f1/submissions",
		`{"data":{},"user_email":"not-an-email"}`, map[string]string{"formId": "f1"})
	w := httptest.NewRecorder()

	handler.SubmitResponse(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockService.AssertNotCalled(t, "SubmitResponse", mock.Anything, mock.Anything)
}

func TestFormHandler_TrackView_FormNotFound(t *testing.T) {
	mockService := new(MockFormService)
	handler := NewFormHandler(mockService, zap.NewNop())
	mockService.On("TrackView", mock.Anything, mock.Anything).Return(nil, service.ErrFormNotFound)

	req := newRequest(http.MethodPost, "/api/v1/forms/nope/views", "", map[string]string{"formId": "nope"})
	w := httptest.NewRecorder()

	handler.TrackView(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestFormHandler_FormAnalytics_DateRange(t *testing.T) {
	mockService := new(MockFormService)
	handler := NewFormHandler(mockService, zap.NewNop())

	mockService.On("Analytics", mock.Anything, handlerIdentity, mock.MatchedBy(func(req *request.FormAnalyticsRequest) bool {
		return req.FormId == "f1" &&
			req.From != nil && req.From.Equal(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)) &&
			req.To != nil && req.To.Equal(time.Date(2025, 1, 31, 23, 59, 59, 999999999, time.UTC))
	})).Return(&response.FormAnalyticsResponse{FormId: "f1"}, nil)

	req := newRequest(http.MethodGet, "/api/v1/forms/f1/analytics?from=2025-01-01&to=2025-01-31", "", map[string]string{"formId": "f1"})
	w := httptest.NewRecorder()

	handler.FormAnalytics(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mockService.AssertExpectations(t)
}

func TestFormHandler_FormAnalytics_BadDate(t *testing.T) {
	mockService := new(MockFormService)
	handler := NewFormHandler(mockService, zap.NewNop())

	req := newRequest(http.MethodGet, "/api/v1/forms/f1/analytics?from=yesterday", "", map[string]string{"formId": "f1"})
	w := httptest.NewRecorder()

	handler.FormAnalytics(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockService.AssertNotCalled(t, "Analytics", mock.Anything, mock.Anything, mock.Anything)
}
