package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/niklvrr/IssueTracker/internal/domain"
	"github.com/niklvrr/IssueTracker/internal/transport/dto/request"
	"github.com/niklvrr/IssueTracker/internal/transport/dto/response"
	"github.com/niklvrr/IssueTracker/internal/transport/middleware"
	"go.uber.org/zap"
)

type FormService interface {
	CreateForm(ctx context.Context, identity domain.Identity, req *request.CreateFormRequest) (*response.FormResponse, error)
	GetForm(ctx context.Context, req *request.GetFormRequest) (*response.FormResponse, error)
	ListOrganizationForms(ctx context.Context, identity domain.Identity, req *request.OrganizationFormsRequest) (*response.FormListResponse, error)
	ListProjectForms(ctx context.Context, identity domain.Identity, req *request.ProjectFormsRequest) (*response.FormListResponse, error)
	ListSubmissions(ctx context.Context, identity domain.Identity, req *request.FormSubmissionsRequest) (*response.FormSubmissionsResponse, error)
	SubmitResponse(ctx context.Context, req *request.SubmitFormRequest) (*response.SubmitFormResponse, error)
	TrackView(ctx context.Context, req *request.TrackViewRequest) (*response.TrackViewResponse, error)
	Analytics(ctx context.Context, identity domain.Identity, req *request.FormAnalyticsRequest) (*response.FormAnalyticsResponse, error)
}

type FormHandler struct {
	svc FormService
	log *zap.Logger
}

func NewFormHandler(svc FormService, log *zap.Logger) *FormHandler {
	return &FormHandler{
		svc: svc,
		log: log,
	}
}

func (h *FormHandler) CreateForm(w http.ResponseWriter, r *http.Request) {
	h.log.Info("createForm request received",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
	)

	var req request.CreateFormRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.log.Warn("failed to decode request body", zap.Error(err))
		respondError(w, err)
		return
	}

	if err := validateRequest(&req); err != nil {
		h.log.Warn("validation failed", zap.Error(err))
		respondError(w, err)
		return
	}

	resp, err := h.svc.CreateForm(r.Context(), middleware.IdentityFromContext(r.Context()), &req)
	if err != nil {
		h.log.Error("failed to create form",
			zap.String("project_id", req.ProjectId),
			zap.Error(err),
		)
		respondError(w, err)
		return
	}

	h.log.Info("form created", zap.String("form_id", resp.Id))
	writeJSON(w, http.StatusCreated, map[string]any{
		"form": resp,
	})
}

func (h *FormHandler) GetForm(w http.ResponseWriter, r *http.Request) {
	req := request.GetFormRequest{FormId: chi.URLParam(r, "formId")}
	if err := validateRequest(&req); err != nil {
		respondError(w, err)
		return
	}

	resp, err := h.svc.GetForm(r.Context(), &req)
	if err != nil {
		h.log.Error("failed to get form", zap.String("form_id", req.FormId), zap.Error(err))
		respondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"form": resp,
	})
}

func (h *FormHandler) ListOrganizationForms(w http.ResponseWriter, r *http.Request) {
	req := request.OrganizationFormsRequest{OrganizationId: chi.URLParam(r, "orgId")}
	if err := validateRequest(&req); err != nil {
		respondError(w, err)
		return
	}

	resp, err := h.svc.ListOrganizationForms(r.Context(), middleware.IdentityFromContext(r.Context()), &req)
	if err != nil {
		h.log.Error("failed to list organization forms", zap.String("organization_id", req.OrganizationId), zap.Error(err))
		respondError(w, err)
		return
	}

	h.log.Info("organization forms retrieved", zap.Int("forms_count", len(resp.Forms)))
	writeJSON(w, http.StatusOK, resp)
}

func (h *FormHandler) ListProjectForms(w http.ResponseWriter, r *http.Request) {
	req := request.ProjectFormsRequest{ProjectId: chi.URLParam(r, "projectId")}
	if err := validateRequest(&req); err != nil {
		respondError(w, err)
		return
	}

	resp, err := h.svc.ListProjectForms(r.Context(), middleware.IdentityFromContext(r.Context()), &req)
	if err != nil {
		h.log.Error("failed to list project forms", zap.String("project_id", req.ProjectId), zap.Error(err))
		respondError(w, err)
		return
	}

	h.log.Info("project forms retrieved", zap.Int("forms_count", len(resp.Forms)))
	writeJSON(w, http.StatusOK, resp)
}

func (h *FormHandler) ListSubmissions(w http.ResponseWriter, r *http.Request) {
	req := request.FormSubmissionsRequest{FormId: chi.URLParam(r, "formId")}
	if err := validateRequest(&req); err != nil {
		respondError(w, err)
		return
	}

	resp, err := h.svc.ListSubmissions(r.Context(), middleware.IdentityFromContext(r.Context()), &req)
	if err != nil {
		h.log.Error("failed to list form submissions", zap.String("form_id", req.FormId), zap.Error(err))
		respondError(w, err)
		return
	}

	h.log.Info("form submissions retrieved", zap.Int("submissions_count", len(resp.Submissions)))
	writeJSON(w, http.StatusOK, resp)
}

func (h *FormHandler) SubmitResponse(w http.ResponseWriter, r *http.Request) {
	h.log.Info("submitResponse request received",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
	)

	var req request.SubmitFormRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.log.Warn("failed to decode request body", zap.Error(err))
		respondError(w, err)
		return
	}
	req.FormId = chi.URLParam(r, "formId")

	if err := validateRequest(&req); err != nil {
		h.log.Warn("validation failed", zap.Error(err))
		respondError(w, err)
		return
	}

	resp, err := h.svc.SubmitResponse(r.Context(), &req)
	if err != nil {
		h.log.Error("failed to submit form response",
			zap.String("form_id", req.FormId),
			zap.Error(err),
		)
		respondError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, resp)
}

func (h *FormHandler) TrackView(w http.ResponseWriter, r *http.Request) {
	var req request.TrackViewRequest
	if err := decodeBody(w, r, &req); err != nil {
		respondError(w, err)
		return
	}
	req.FormId = chi.URLParam(r, "formId")

	if err := validateRequest(&req); err != nil {
		respondError(w, err)
		return
	}

	resp, err := h.svc.TrackView(r.Context(), &req)
	if err != nil {
		h.log.Error("failed to track form view",
			zap.String("form_id", req.FormId),
			zap.Error(err),
		)
		respondError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, resp)
}

func (h *FormHandler) FormAnalytics(w http.ResponseWriter, r *http.Request) {
	h.log.Info("formAnalytics request received",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
	)

	query := r.URL.Query()
	from, err := parseDate(query.Get("from"), false)
	if err != nil {
		respondError(w, err)
		return
	}
	to, err := parseDate(query.Get("to"), true)
	if err != nil {
		respondError(w, err)
		return
	}

	req := request.FormAnalyticsRequest{
		FormId: chi.URLParam(r, "formId"),
		From:   from,
		To:     to,
	}
	if err := validateRequest(&req); err != nil {
		respondError(w, err)
		return
	}

	resp, err := h.svc.Analytics(r.Context(), middleware.IdentityFromContext(r.Context()), &req)
	if err != nil {
		h.log.Error("failed to compute form analytics",
			zap.String("form_id", req.FormId),
			zap.Error(err),
		)
		respondError(w, err)
		return
	}

	h.log.Info("form analytics retrieved",
		zap.String("form_id", resp.FormId),
		zap.Int("submissions", resp.TotalSubmissions),
	)
	writeJSON(w, http.StatusOK, resp)
}
