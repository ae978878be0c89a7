package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/niklvrr/IssueTracker/internal/domain"
	"github.com/niklvrr/IssueTracker/internal/transport/dto/request"
	"github.com/niklvrr/IssueTracker/internal/transport/dto/response"
	"github.com/niklvrr/IssueTracker/internal/transport/middleware"
	"github.com/niklvrr/IssueTracker/internal/usecase/service"
	"github.com/spf13/cast"
	"go.uber.org/zap"
)

type AnalyticsService interface {
	ProjectAnalytics(ctx context.Context, identity domain.Identity, req *request.ScopeAnalyticsRequest) (*response.AnalyticsResponse, error)
	SprintAnalytics(ctx context.Context, identity domain.Identity, req *request.ScopeAnalyticsRequest) (*response.AnalyticsResponse, error)
	OrganizationAnalytics(ctx context.Context, identity domain.Identity, req *request.ScopeAnalyticsRequest) (*response.AnalyticsResponse, error)
	UserCompletion(ctx context.Context, identity domain.Identity, req *request.ScopeAnalyticsRequest) (*response.UserCompletionListResponse, error)
	ListSnapshots(ctx context.Context, identity domain.Identity, req *request.ListSnapshotsRequest) (*response.SnapshotListResponse, error)
}

type AnalyticsHandler struct {
	svc AnalyticsService
	log *zap.Logger
}

func NewAnalyticsHandler(svc AnalyticsService, log *zap.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		svc: svc,
		log: log,
	}
}

type scopeFunc func(ctx context.Context, identity domain.Identity, req *request.ScopeAnalyticsRequest) (*response.AnalyticsResponse, error)

func (h *AnalyticsHandler) ProjectAnalytics(w http.ResponseWriter, r *http.Request) {
	h.serveScope(w, r, "projectId", h.svc.ProjectAnalytics)
}

func (h *AnalyticsHandler) SprintAnalytics(w http.ResponseWriter, r *http.Request) {
	h.serveScope(w, r, "sprintId", h.svc.SprintAnalytics)
}

func (h *AnalyticsHandler) OrganizationAnalytics(w http.ResponseWriter, r *http.Request) {
	h.serveScope(w, r, "orgId", h.svc.OrganizationAnalytics)
}

func (h *AnalyticsHandler) UserCompletion(w http.ResponseWriter, r *http.Request) {
	h.log.Info("userCompletion request received",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
	)

	req := request.ScopeAnalyticsRequest{Id: chi.URLParam(r, "orgId")}
	if err := validateRequest(&req); err != nil {
		respondError(w, err)
		return
	}

	resp, err := h.svc.UserCompletion(r.Context(), middleware.IdentityFromContext(r.Context()), &req)
	if err != nil {
		h.log.Error("failed to rank users", zap.String("organization_id", req.Id), zap.Error(err))
		respondError(w, err)
		return
	}

	h.log.Info("user completion retrieved", zap.Int("users_count", len(resp.Users)))
	writeJSON(w, http.StatusOK, resp)
}

func (h *AnalyticsHandler) ListSnapshots(w http.ResponseWriter, r *http.Request) {
	h.log.Info("listSnapshots request received",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
	)

	req := request.ListSnapshotsRequest{OrganizationId: chi.URLParam(r, "orgId")}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := parseLimit(raw)
		if err != nil {
			h.log.Warn("invalid limit query parameter", zap.String("limit", raw))
			respondError(w, service.WrapError(service.ErrInvalidInput, err))
			return
		}
		req.Limit = limit
	}

	if err := validateRequest(&req); err != nil {
		respondError(w, err)
		return
	}

	resp, err := h.svc.ListSnapshots(r.Context(), middleware.IdentityFromContext(r.Context()), &req)
	if err != nil {
		h.log.Error("failed to list snapshots", zap.String("organization_id", req.OrganizationId), zap.Error(err))
		respondError(w, err)
		return
	}

	h.log.Info("snapshots retrieved", zap.Int("snapshots_count", len(resp.Snapshots)))
	writeJSON(w, http.StatusOK, resp)
}

func (h *AnalyticsHandler) serveScope(w http.ResponseWriter, r *http.Request, param string, fn scopeFunc) {
	h.log.Info("analytics request received",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
	)

	req := request.ScopeAnalyticsRequest{Id: chi.URLParam(r, param)}
	if err := validateRequest(&req); err != nil {
		h.log.Warn("validation failed", zap.String("param", param))
		respondError(w, err)
		return
	}

	resp, err := fn(r.Context(), middleware.IdentityFromContext(r.Context()), &req)
	if err != nil {
		h.log.Error("failed to compute analytics",
			zap.String(param, req.Id),
			zap.Error(err),
		)
		respondError(w, err)
		return
	}

	h.log.Info("analytics retrieved",
		zap.String("scope", resp.Scope),
		zap.String("scope_id", resp.ScopeId),
		zap.Int("total_issues", resp.TotalIssues),
	)
	writeJSON(w, http.StatusOK, resp)
}

// parseLimit принимает только десятичные цифры, ведущие нули не меняют основание
func parseLimit(raw string) (int, error) {
	if err := validate.Var(raw, "numeric"); err != nil || strings.ContainsAny(raw, "+-.") {
		return 0, fmt.Errorf("limit must be a decimal number: %q", raw)
	}
	trimmed := strings.TrimLeft(raw, "0")
	if trimmed == "" {
		trimmed = "0"
	}
	return cast.ToIntE(trimmed)
}
