package transport

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/niklvrr/IssueTracker/internal/transport/handler"
	transportMiddleware "github.com/niklvrr/IssueTracker/internal/transport/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type Handlers struct {
	Issue     *handler.IssueHandler
	Analytics *handler.AnalyticsHandler
	Form      *handler.FormHandler
	Health    *handler.HealthHandler
}

func NewRouter(h Handlers, requestTimeout time.Duration, log *zap.Logger) *chi.Mux {
	router := chi.NewRouter()

	// Recovery должен быть первым для обработки паник во всех middleware
	router.Use(transportMiddleware.Recovery(log))

	// RequestID для трейсинга запросов
	router.Use(middleware.RequestID)

	router.Use(transportMiddleware.Logging(log))
	router.Use(transportMiddleware.Metrics)

	router.Handle("/metrics", promhttp.Handler())
	router.Get("/health", h.Health.HealthCheck)

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(transportMiddleware.Timeout(requestTimeout, log))
		r.Use(transportMiddleware.Identity)

		r.Route("/projects/{projectId}", func(r chi.Router) {
			r.Get("/analytics", h.Analytics.ProjectAnalytics)
			r.Post("/issues", h.Issue.CreateIssue)
			r.Get("/forms", h.Form.ListProjectForms)
		})

		r.Route("/sprints/{sprintId}", func(r chi.Router) {
			r.Get("/analytics", h.Analytics.SprintAnalytics)
			r.Get("/issues", h.Issue.ListSprintIssues)
		})

		r.Route("/issues", func(r chi.Router) {
			r.Post("/reorder", h.Issue.ReorderIssues)
			r.Patch("/{issueId}", h.Issue.UpdateIssue)
			r.Delete("/{issueId}", h.Issue.DeleteIssue)
		})

		r.Get("/organizations/{orgId}/forms", h.Form.ListOrganizationForms)

		r.Route("/organizations/{orgId}/analytics", func(r chi.Router) {
			r.Get("/", h.Analytics.OrganizationAnalytics)
			r.Get("/users", h.Analytics.UserCompletion)
			r.Get("/snapshots", h.Analytics.ListSnapshots)
		})

		// Схема, отправка и просмотр формы публичные, остальное только для своей организации
		r.Post("/forms", h.Form.CreateForm)
		r.Route("/forms/{formId}", func(r chi.Router) {
			r.Get("/", h.Form.GetForm)
			r.Get("/submissions", h.Form.ListSubmissions)
			r.Post("/submissions", h.Form.SubmitResponse)
			r.Post("/views", h.Form.TrackView)
			r.Get("/analytics", h.Form.FormAnalytics)
		})
	})

	return router
}
