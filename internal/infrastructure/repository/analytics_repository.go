package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/niklvrr/IssueTracker/internal/domain"
	"github.com/niklvrr/IssueTracker/internal/infrastructure/models/dto"
	"github.com/niklvrr/IssueTracker/internal/infrastructure/models/result"
	"go.uber.org/zap"
)

const (
	analyticColumns = `
    a.id, a.time_in_todo, a.time_in_progress, a.time_in_review,
    a.last_status_change, a.status_changes, a.completion_time`

	selectProjectQuery = `
SELECT id, name, key, organization_id, admin_ids, created_at
FROM projects
WHERE id = $1;`

	selectSprintQuery = `
SELECT s.id, s.name, s.status, s.project_id, s.start_date, s.end_date, p.organization_id
FROM sprints s
JOIN projects p ON p.id = s.project_id
WHERE s.id = $1;`

	selectProjectIssuesQuery = `
SELECT` + issueColumns + `,` + analyticColumns + `
FROM issues i
LEFT JOIN issue_analytics a ON a.issue_id = i.id
WHERE i.project_id = $1
ORDER BY i.created_at, i.id;`

	selectSprintIssuesWithAnalyticsQuery = `
SELECT` + issueColumns + `,` + analyticColumns + `
FROM issues i
LEFT JOIN issue_analytics a ON a.issue_id = i.id
WHERE i.sprint_id = $1
ORDER BY i.created_at, i.id;`

	selectOrganizationProjectsQuery = `
SELECT
    p.id,
    p.name,
    p.key,
    p.organization_id,
    p.admin_ids,
    p.created_at,
    (SELECT COUNT(*) FROM sprints s WHERE s.project_id = p.id) AS sprint_count
FROM projects p
WHERE p.organization_id = $1
ORDER BY p.created_at, p.id;`

	selectOrganizationIssuesQuery = `
SELECT` + issueColumns + `,` + analyticColumns + `
FROM issues i
JOIN projects p ON p.id = i.project_id
LEFT JOIN issue_analytics a ON a.issue_id = i.id
WHERE p.organization_id = $1
ORDER BY i.created_at, i.id;`

	selectAssigneesQuery = `
SELECT
    u.id,
    u.name,
    u.email,
    u.image_url,
    u.created_at,
    i.id,
    i.status
FROM users u
JOIN issues i ON i.assignee_id = u.id
JOIN projects p ON p.id = i.project_id
WHERE p.organization_id = $1
ORDER BY u.created_at, u.id, i.created_at, i.id;`

	selectOrganizationIdsQuery = `
SELECT DISTINCT organization_id
FROM projects
ORDER BY organization_id;`

	insertSnapshotQuery = `
INSERT INTO analytics_snapshots (id, organization_id, taken_at, payload)
VALUES ($1, $2, $3, $4);`

	selectSnapshotsQuery = `
SELECT id, organization_id, taken_at, payload
FROM analytics_snapshots
WHERE organization_id = $1
ORDER BY taken_at DESC
LIMIT $2;`

	tryAdvisoryLockQuery = `SELECT pg_try_advisory_lock($1);`
	advisoryUnlockQuery  = `SELECT pg_advisory_unlock($1);`
)

type AnalyticsRepository struct {
	db  *pgxpool.Pool
	log *zap.Logger
}

func NewAnalyticsRepository(db *pgxpool.Pool, log *zap.Logger) *AnalyticsRepository {
	return &AnalyticsRepository{
		db:  db,
		log: log,
	}
}

func (r *AnalyticsRepository) GetProject(ctx context.Context, projectId string) (*domain.Project, error) {
	r.log.Debug("get project", zap.String("project_id", projectId))

	p := &domain.Project{}
	err := r.db.QueryRow(ctx, selectProjectQuery, projectId).Scan(
		&p.Id,
		&p.Name,
		&p.Key,
		&p.OrganizationId,
		&p.AdminIds,
		&p.CreatedAt,
	)
	if err != nil {
		return nil, handleDBError(err)
	}
	return p, nil
}

func (r *AnalyticsRepository) GetSprint(ctx context.Context, sprintId string) (*result.SprintResult, error) {
	r.log.Debug("get sprint", zap.String("sprint_id", sprintId))

	res := &result.SprintResult{}
	err := r.db.QueryRow(ctx, selectSprintQuery, sprintId).Scan(
		&res.Sprint.Id,
		&res.Sprint.Name,
		&res.Sprint.Status,
		&res.Sprint.ProjectId,
		&res.Sprint.StartDate,
		&res.Sprint.EndDate,
		&res.OrganizationId,
	)
	if err != nil {
		return nil, handleDBError(err)
	}
	return res, nil
}

func (r *AnalyticsRepository) ListProjectIssues(ctx context.Context, projectId string) ([]domain.Issue, error) {
	return r.listIssues(ctx, selectProjectIssuesQuery, projectId)
}

func (r *AnalyticsRepository) ListSprintIssues(ctx context.Context, sprintId string) ([]domain.Issue, error) {
	return r.listIssues(ctx, selectSprintIssuesWithAnalyticsQuery, sprintId)
}

func (r *AnalyticsRepository) ListOrganizationProjects(ctx context.Context, organizationId string) ([]result.ProjectIssuesResult, error) {
	r.log.Debug("list organization projects", zap.String("organization_id", organizationId))

	rows, err := r.db.Query(ctx, selectOrganizationProjectsQuery, organizationId)
	if err != nil {
		return nil, handleDBError(err)
	}

	projects := make([]result.ProjectIssuesResult, 0)
	index := make(map[string]int)
	for rows.Next() {
		var p result.ProjectIssuesResult
		if err := rows.Scan(
			&p.Project.Id,
			&p.Project.Name,
			&p.Project.Key,
			&p.Project.OrganizationId,
			&p.Project.AdminIds,
			&p.Project.CreatedAt,
			&p.SprintCount,
		); err != nil {
			rows.Close()
			return nil, handleDBError(err)
		}
		index[p.Project.Id] = len(projects)
		projects = append(projects, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, handleDBError(err)
	}

	issues, err := r.listIssues(ctx, selectOrganizationIssuesQuery, organizationId)
	if err != nil {
		return nil, err
	}

	// Раскладываем задачи по проектам
	for _, issue := range issues {
		i, ok := index[issue.ProjectId]
		if !ok {
			continue
		}
		projects[i].Issues = append(projects[i].Issues, issue)
	}

	r.log.Debug("organization projects loaded",
		zap.String("organization_id", organizationId),
		zap.Int("projects", len(projects)),
		zap.Int("issues", len(issues)),
	)
	return projects, nil
}

func (r *AnalyticsRepository) ListAssignees(ctx context.Context, organizationId string) ([]result.AssigneeIssuesResult, error) {
	r.log.Debug("list assignees", zap.String("organization_id", organizationId))

	rows, err := r.db.Query(ctx, selectAssigneesQuery, organizationId)
	if err != nil {
		return nil, handleDBError(err)
	}
	defer rows.Close()

	assignees := make([]result.AssigneeIssuesResult, 0)
	for rows.Next() {
		var (
			u     domain.User
			name  *string
			issue domain.Issue
		)
		if err := rows.Scan(
			&u.Id,
			&name,
			&u.Email,
			&u.ImageUrl,
			&u.CreatedAt,
			&issue.Id,
			&issue.Status,
		); err != nil {
			return nil, handleDBError(err)
		}
		if name != nil {
			u.Name = *name
		}
		issue.AssigneeId = &u.Id

		// Строки отсортированы по пользователю, группируем соседние
		last := len(assignees) - 1
		if last < 0 || assignees[last].User.Id != u.Id {
			assignees = append(assignees, result.AssigneeIssuesResult{User: u})
			last++
		}
		assignees[last].Issues = append(assignees[last].Issues, issue)
	}
	if err := rows.Err(); err != nil {
		return nil, handleDBError(err)
	}

	return assignees, nil
}

func (r *AnalyticsRepository) ListOrganizationIds(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx, selectOrganizationIdsQuery)
	if err != nil {
		return nil, handleDBError(err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, handleDBError(err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, handleDBError(err)
	}
	return ids, nil
}

func (r *AnalyticsRepository) InsertSnapshot(ctx context.Context, d *dto.SnapshotDTO) error {
	if _, err := r.db.Exec(ctx, insertSnapshotQuery, d.Id, d.OrganizationId, d.TakenAt, []byte(d.Payload)); err != nil {
		r.log.Error("failed to insert analytics snapshot",
			zap.String("organization_id", d.OrganizationId),
			zap.Error(err),
		)
		return handleDBError(err)
	}

	r.log.Info("analytics snapshot stored",
		zap.String("organization_id", d.OrganizationId),
		zap.Time("taken_at", d.TakenAt),
	)
	return nil
}

func (r *AnalyticsRepository) ListSnapshots(ctx context.Context, d *dto.ListSnapshotsDTO) ([]result.SnapshotResult, error) {
	rows, err := r.db.Query(ctx, selectSnapshotsQuery, d.OrganizationId, d.Limit)
	if err != nil {
		return nil, handleDBError(err)
	}
	defer rows.Close()

	snapshots := make([]result.SnapshotResult, 0)
	for rows.Next() {
		var (
			s       result.SnapshotResult
			payload []byte
		)
		if err := rows.Scan(&s.Id, &s.OrganizationId, &s.TakenAt, &payload); err != nil {
			return nil, handleDBError(err)
		}
		s.Payload = payload
		snapshots = append(snapshots, s)
	}
	if err := rows.Err(); err != nil {
		return nil, handleDBError(err)
	}
	return snapshots, nil
}

// WithAdvisoryLock выполняет fn, удерживая advisory lock на выделенном соединении.
// Если блокировка занята другим процессом, fn не вызывается и возвращается false.
func (r *AnalyticsRepository) WithAdvisoryLock(ctx context.Context, key int64, fn func(ctx context.Context) error) (bool, error) {
	conn, err := r.db.Acquire(ctx)
	if err != nil {
		return false, handleDBError(err)
	}
	defer conn.Release()

	var locked bool
	if err := conn.QueryRow(ctx, tryAdvisoryLockQuery, key).Scan(&locked); err != nil {
		return false, handleDBError(err)
	}
	if !locked {
		return false, nil
	}
	defer func() {
		unlockCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if _, err := conn.Exec(unlockCtx, advisoryUnlockQuery, key); err != nil {
			r.log.Error("failed to release advisory lock", zap.Int64("key", key), zap.Error(err))
		}
	}()

	return true, fn(ctx)
}

func (r *AnalyticsRepository) listIssues(ctx context.Context, query, id string) ([]domain.Issue, error) {
	rows, err := r.db.Query(ctx, query, id)
	if err != nil {
		return nil, handleDBError(err)
	}
	defer rows.Close()

	issues := make([]domain.Issue, 0)
	for rows.Next() {
		issue, err := scanIssueWithAnalytics(rows)
		if err != nil {
			return nil, handleDBError(err)
		}
		issues = append(issues, *issue)
	}
	if err := rows.Err(); err != nil {
		return nil, handleDBError(err)
	}
	return issues, nil
}

// вспомогательная функция чтения задачи с необязательной записью аналитики (LEFT JOIN)
func scanIssueWithAnalytics(row rowScanner) (*domain.Issue, error) {
	var (
		analyticId       *string
		timeInTodo       *int64
		timeInProgress   *int64
		timeInReview     *int64
		lastStatusChange *time.Time
		statusChanges    *int
		completionTime   *int64
	)
	issue, err := scanIssue(row,
		&analyticId,
		&timeInTodo,
		&timeInProgress,
		&timeInReview,
		&lastStatusChange,
		&statusChanges,
		&completionTime,
	)
	if err != nil {
		return nil, err
	}
	if analyticId == nil {
		return issue, nil
	}

	issue.Analytics = &domain.IssueAnalytic{
		Id:             *analyticId,
		IssueId:        issue.Id,
		TimeInTodo:     derefOr(timeInTodo, 0),
		TimeInProgress: derefOr(timeInProgress, 0),
		TimeInReview:   derefOr(timeInReview, 0),
		StatusChanges:  derefOr(statusChanges, 0),
		CompletionTime: completionTime,
	}
	if lastStatusChange != nil {
		issue.Analytics.LastStatusChange = *lastStatusChange
	}
	return issue, nil
}

func derefOr[T any](v *T, fallback T) T {
	if v == nil {
		return fallback
	}
	return *v
}
