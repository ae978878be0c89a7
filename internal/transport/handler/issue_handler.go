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

type IssueService interface {
	Create(ctx context.Context, identity domain.Identity, req *request.CreateIssueRequest) (*response.IssueResponse, error)
	Update(ctx context.Context, identity domain.Identity, req *request.UpdateIssueRequest) (*response.IssueResponse, error)
	Reorder(ctx context.Context, identity domain.Identity, req *request.ReorderIssuesRequest) (*response.ReorderIssuesResponse, error)
	Delete(ctx context.Context, identity domain.Identity, req *request.DeleteIssueRequest) error
	ListForSprint(ctx context.Context, identity domain.Identity, req *request.SprintIssuesRequest) (*response.SprintIssuesResponse, error)
}

type IssueHandler struct {
	svc IssueService
	log *zap.Logger
}

func NewIssueHandler(svc IssueService, log *zap.Logger) *IssueHandler {
	return &IssueHandler{
		svc: svc,
		log: log,
	}
}

func (h *IssueHandler) CreateIssue(w http.ResponseWriter, r *http.Request) {
	h.log.Info("createIssue request received",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
	)

	var req request.CreateIssueRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.log.Warn("failed to decode request body", zap.Error(err))
		respondError(w, err)
		return
	}
	req.ProjectId = chi.URLParam(r, "projectId")

	// Валидация
	if err := validateRequest(&req); err != nil {
		h.log.Warn("validation failed", zap.Error(err))
		respondError(w, err)
		return
	}

	resp, err := h.svc.Create(r.Context(), middleware.IdentityFromContext(r.Context()), &req)
	if err != nil {
		h.log.Error("failed to create issue",
			zap.String("project_id", req.ProjectId),
			zap.Error(err),
		)
		respondError(w, err)
		return
	}

	h.log.Info("issue created", zap.String("issue_id", resp.Id))

	writeJSON(w, http.StatusCreated, map[string]any{
		"issue": resp,
	})
}

func (h *IssueHandler) UpdateIssue(w http.ResponseWriter, r *http.Request) {
	h.log.Info("updateIssue request received",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
	)

	var req request.UpdateIssueRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.log.Warn("failed to decode request body", zap.Error(err))
		respondError(w, err)
		return
	}
	req.IssueId = chi.URLParam(r, "issueId")

	if err := validateRequest(&req); err != nil {
		h.log.Warn("validation failed", zap.Error(err))
		respondError(w, err)
		return
	}

	resp, err := h.svc.Update(r.Context(), middleware.IdentityFromContext(r.Context()), &req)
	if err != nil {
		h.log.Error("failed to update issue",
			zap.String("issue_id", req.IssueId),
			zap.Error(err),
		)
		respondError(w, err)
		return
	}

	h.log.Info("issue updated",
		zap.String("issue_id", resp.Id),
		zap.String("status", resp.Status),
	)

	writeJSON(w, http.StatusOK, map[string]any{
		"issue": resp,
	})
}

func (h *IssueHandler) ReorderIssues(w http.ResponseWriter, r *http.Request) {
	h.log.Info("reorderIssues request received",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
	)

	var req request.ReorderIssuesRequest
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

	resp, err := h.svc.Reorder(r.Context(), middleware.IdentityFromContext(r.Context()), &req)
	if err != nil {
		h.log.Error("failed to reorder issues", zap.Error(err))
		respondError(w, err)
		return
	}

	h.log.Info("issues reordered",
		zap.Int("updated", resp.Updated),
		zap.Int("status_changes", resp.StatusChanges),
	)

	writeJSON(w, http.StatusOK, resp)
}

func (h *IssueHandler) DeleteIssue(w http.ResponseWriter, r *http.Request) {
	h.log.Info("deleteIssue request received",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
	)

	req := request.DeleteIssueRequest{IssueId: chi.URLParam(r, "issueId")}
	if err := validateRequest(&req); err != nil {
		respondError(w, err)
		return
	}

	if err := h.svc.Delete(r.Context(), middleware.IdentityFromContext(r.Context()), &req); err != nil {
		h.log.Error("failed to delete issue",
			zap.String("issue_id", req.IssueId),
			zap.Error(err),
		)
		respondError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *IssueHandler) ListSprintIssues(w http.ResponseWriter, r *http.Request) {
	h.log.Info("listSprintIssues request received",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
	)

	req := request.SprintIssuesRequest{SprintId: chi.URLParam(r, "sprintId")}
	if err := validateRequest(&req); err != nil {
		respondError(w, err)
		return
	}

	resp, err := h.svc.ListForSprint(r.Context(), middleware.IdentityFromContext(r.Context()), &req)
	if err != nil {
		h.log.Error("failed to list sprint issues",
			zap.String("sprint_id", req.SprintId),
			zap.Error(err),
		)
		respondError(w, err)
		return
	}

	h.log.Info("sprint issues retrieved",
		zap.String("sprint_id", resp.SprintId),
		zap.Int("issues_count", len(resp.Issues)),
	)

	writeJSON(w, http.StatusOK, resp)
}
