package repository

import (
	"context"
	"errors"
	"slices"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/niklvrr/IssueTracker/internal/domain"
	"github.com/niklvrr/IssueTracker/internal/infrastructure/models/dto"
	"github.com/niklvrr/IssueTracker/internal/infrastructure/models/result"
	"go.uber.org/zap"
)

const (
	issueColumns = `
    i.id, i.title, i.description, i.status, i.priority, i.sort_order,
    i.project_id, i.sprint_id, i.department_id, i.assignee_id, i.reporter_id,
    i.created_at, i.updated_at`

	selectProjectOrgQuery = `
SELECT organization_id FROM projects
WHERE id = $1;`

	selectUserByExternalIdQuery = `
SELECT id FROM users
WHERE external_id = $1;`

	selectLastOrderQuery = `
SELECT COALESCE(MAX(sort_order), -1) FROM issues
WHERE project_id = $1 AND status = $2;`

	insertIssueQuery = `
INSERT INTO issues AS i (id, title, description, status, priority, sort_order,
                         project_id, sprint_id, department_id, assignee_id, reporter_id,
                         created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $12)
RETURNING` + issueColumns + `;`

	insertAnalyticQuery = `
INSERT INTO issue_analytics (id, issue_id, last_status_change)
VALUES ($1, $2, $3);`

	selectIssueForUpdateQuery = `
SELECT` + issueColumns + `, p.organization_id
FROM issues i
JOIN projects p ON p.id = i.project_id
WHERE i.id = $1
FOR UPDATE OF i;`

	updateIssueQuery = `
UPDATE issues AS i
SET status        = COALESCE($2, i.status),
    priority      = COALESCE($3, i.priority),
    assignee_id   = COALESCE($4, i.assignee_id),
    description   = COALESCE($5, i.description),
    department_id = COALESCE($6, i.department_id),
    updated_at    = CURRENT_TIMESTAMP
WHERE i.id = $1
RETURNING` + issueColumns + `;`

	selectIssuesForReorderQuery = `
SELECT i.id, i.status, i.created_at, p.organization_id
FROM issues i
JOIN projects p ON p.id = i.project_id
WHERE i.id = ANY($1)
FOR UPDATE OF i;`

	updateIssueOrderQuery = `
UPDATE issues
SET status     = $2,
    sort_order = $3,
    updated_at = CURRENT_TIMESTAMP
WHERE id = $1;`

	selectAnalyticForUpdateQuery = `
SELECT id, issue_id, time_in_todo, time_in_progress, time_in_review,
       last_status_change, status_changes, completion_time
FROM issue_analytics
WHERE issue_id = $1
FOR UPDATE;`

	upsertAnalyticQuery = `
INSERT INTO issue_analytics (id, issue_id, time_in_todo, time_in_progress, time_in_review,
                             last_status_change, status_changes, completion_time)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (issue_id) DO UPDATE
    SET time_in_todo       = EXCLUDED.time_in_todo,
        time_in_progress   = EXCLUDED.time_in_progress,
        time_in_review     = EXCLUDED.time_in_review,
        last_status_change = EXCLUDED.last_status_change,
        status_changes     = EXCLUDED.status_changes,
        completion_time    = EXCLUDED.completion_time,
        updated_at         = CURRENT_TIMESTAMP
RETURNING id;`

	selectIssueOwnershipQuery = `
SELECT i.reporter_id, p.admin_ids, p.organization_id
FROM issues i
JOIN projects p ON p.id = i.project_id
WHERE i.id = $1;`

	deleteIssueQuery = `
DELETE FROM issues
WHERE id = $1;`

	selectSprintOrgQuery = `
SELECT p.organization_id
FROM sprints s
JOIN projects p ON p.id = s.project_id
WHERE s.id = $1;`

	selectSprintIssuesQuery = `
SELECT` + issueColumns + `
FROM issues i
WHERE i.sprint_id = $1
ORDER BY array_position(ARRAY['TODO', 'IN_PROGRESS', 'IN_REVIEW', 'DONE'], i.status), i.sort_order, i.created_at;`
)

// TransitionRecorder пересчитывает аналитику задачи при смене статуса
type TransitionRecorder interface {
	Record(current *domain.IssueAnalytic, issue *domain.Issue, previous, next domain.IssueStatus) *domain.IssueAnalytic
}

type IssueRepository struct {
	db       *pgxpool.Pool
	recorder TransitionRecorder
	log      *zap.Logger
}

func NewIssueRepository(db *pgxpool.Pool, recorder TransitionRecorder, log *zap.Logger) *IssueRepository {
	return &IssueRepository{
		db:       db,
		recorder: recorder,
		log:      log,
	}
}

func (r *IssueRepository) Create(ctx context.Context, d *dto.CreateIssueDTO) (*domain.Issue, error) {
	r.log.Info("create issue started",
		zap.String("issue_id", d.IssueId),
		zap.String("project_id", d.ProjectId),
		zap.String("status", string(d.Status)),
	)

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, handleDBError(err)
	}
	defer tx.Rollback(ctx)

	// Проект должен принадлежать организации пользователя
	if err := checkOrganization(ctx, tx, selectProjectOrgQuery, d.ProjectId, d.OrganizationId); err != nil {
		r.log.Warn("project check failed",
			zap.String("project_id", d.ProjectId),
			zap.Error(err),
		)
		return nil, err
	}

	reporterId, err := lookupUser(ctx, tx, d.ReporterExternalId)
	if err != nil {
		r.log.Error("failed to load reporter",
			zap.String("external_id", d.ReporterExternalId),
			zap.Error(err),
		)
		return nil, err
	}

	// Новая задача встает в конец своей колонки
	var lastOrder int
	if err := tx.QueryRow(ctx, selectLastOrderQuery, d.ProjectId, string(d.Status)).Scan(&lastOrder); err != nil {
		return nil, handleDBError(err)
	}

	issue, err := scanIssue(tx.QueryRow(ctx, insertIssueQuery,
		d.IssueId,
		d.Title,
		d.Description,
		string(d.Status),
		string(d.Priority),
		lastOrder+1,
		d.ProjectId,
		d.SprintId,
		d.DepartmentId,
		d.AssigneeId,
		reporterId,
		d.CreatedAt,
	))
	if err != nil {
		r.log.Error("failed to insert issue",
			zap.String("issue_id", d.IssueId),
			zap.Error(err),
		)
		return nil, handleDBError(err)
	}

	// Аналитика создается в той же транзакции, что и задача
	if _, err := tx.Exec(ctx, insertAnalyticQuery, d.AnalyticId, issue.Id, d.CreatedAt); err != nil {
		r.log.Error("failed to insert issue analytics",
			zap.String("issue_id", issue.Id),
			zap.Error(err),
		)
		return nil, handleDBError(err)
	}

	if err := tx.Commit(ctx); err != nil {
		r.log.Error("failed to commit issue creation", zap.String("issue_id", issue.Id), zap.Error(err))
		return nil, handleDBError(err)
	}

	issue.Analytics = &domain.IssueAnalytic{
		Id:               d.AnalyticId,
		IssueId:          issue.Id,
		LastStatusChange: d.CreatedAt,
	}

	r.log.Info("issue created",
		zap.String("issue_id", issue.Id),
		zap.Int("order", issue.Order),
	)
	return issue, nil
}

func (r *IssueRepository) Update(ctx context.Context, d *dto.UpdateIssueDTO) (*result.UpdateIssueResult, error) {
	r.log.Info("update issue started", zap.String("issue_id", d.IssueId))

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, handleDBError(err)
	}
	defer tx.Rollback(ctx)

	// Блокируем задачу, чтобы статус и аналитика менялись согласованно
	var orgId string
	current, err := scanIssue(tx.QueryRow(ctx, selectIssueForUpdateQuery, d.IssueId), &orgId)
	if err != nil {
		r.log.Warn("failed to load issue before update",
			zap.String("issue_id", d.IssueId),
			zap.Error(err),
		)
		return nil, handleDBError(err)
	}
	if orgId != d.OrganizationId {
		return nil, ErrForbidden
	}

	updated, err := scanIssue(tx.QueryRow(ctx, updateIssueQuery,
		d.IssueId,
		enumArg(d.Status),
		enumArg(d.Priority),
		d.AssigneeId,
		d.Description,
		d.DepartmentId,
	))
	if err != nil {
		r.log.Error("failed to update issue",
			zap.String("issue_id", d.IssueId),
			zap.Error(err),
		)
		return nil, handleDBError(err)
	}

	res := &result.UpdateIssueResult{Issue: updated}

	if d.Status != nil && *d.Status != current.Status {
		analytic, err := r.recordTransition(ctx, tx, current, current.Status, *d.Status)
		if err != nil {
			r.log.Error("failed to record status transition",
				zap.String("issue_id", d.IssueId),
				zap.String("from", string(current.Status)),
				zap.String("to", string(*d.Status)),
				zap.Error(err),
			)
			return nil, handleDBError(err)
		}
		updated.Analytics = analytic
		res.Analytics = analytic
		res.Transition = &result.Transition{
			IssueId: d.IssueId,
			From:    current.Status,
			To:      *d.Status,
		}
	}

	if err := tx.Commit(ctx); err != nil {
		r.log.Error("failed to commit issue update", zap.String("issue_id", d.IssueId), zap.Error(err))
		return nil, handleDBError(err)
	}

	r.log.Info("issue updated",
		zap.String("issue_id", updated.Id),
		zap.String("status", string(updated.Status)),
		zap.Bool("status_changed", res.Transition != nil),
	)
	return res, nil
}

func (r *IssueRepository) Reorder(ctx context.Context, d *dto.ReorderIssuesDTO) (*result.ReorderResult, error) {
	r.log.Info("reorder issues started", zap.Int("issues", len(d.Items)))

	ids := make([]string, 0, len(d.Items))
	for _, item := range d.Items {
		ids = append(ids, item.IssueId)
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, handleDBError(err)
	}
	defer tx.Rollback(ctx)

	// Читаем текущие статусы для сравнения
	rows, err := tx.Query(ctx, selectIssuesForReorderQuery, ids)
	if err != nil {
		return nil, handleDBError(err)
	}
	currentIssues := make(map[string]*domain.Issue, len(ids))
	for rows.Next() {
		issue := &domain.Issue{}
		var orgId string
		if err := rows.Scan(&issue.Id, &issue.Status, &issue.CreatedAt, &orgId); err != nil {
			rows.Close()
			return nil, handleDBError(err)
		}
		if orgId != d.OrganizationId {
			rows.Close()
			return nil, ErrForbidden
		}
		currentIssues[issue.Id] = issue
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, handleDBError(err)
	}

	for _, id := range ids {
		if _, ok := currentIssues[id]; !ok {
			r.log.Warn("issue not found for reorder", zap.String("issue_id", id))
			return nil, ErrNotFound
		}
	}

	batch := &pgx.Batch{}
	for _, item := range d.Items {
		batch.Queue(updateIssueOrderQuery, item.IssueId, string(item.Status), item.Order)
	}
	br := tx.SendBatch(ctx, batch)
	for range d.Items {
		if _, err := br.Exec(); err != nil {
			br.Close()
			r.log.Error("failed to update issue order", zap.Error(err))
			return nil, handleDBError(err)
		}
	}
	if err := br.Close(); err != nil {
		return nil, handleDBError(err)
	}

	res := &result.ReorderResult{Updated: len(d.Items)}
	for _, item := range d.Items {
		current := currentIssues[item.IssueId]
		if current.Status == item.Status {
			continue
		}
		if _, err := r.recordTransition(ctx, tx, current, current.Status, item.Status); err != nil {
			r.log.Error("failed to record status transition",
				zap.String("issue_id", item.IssueId),
				zap.Error(err),
			)
			return nil, handleDBError(err)
		}
		res.Transitions = append(res.Transitions, result.Transition{
			IssueId: item.IssueId,
			From:    current.Status,
			To:      item.Status,
		})
		// Повтор того же id в запросе сравниваем уже с новым статусом
		current.Status = item.Status
	}

	if err := tx.Commit(ctx); err != nil {
		r.log.Error("failed to commit reorder", zap.Error(err))
		return nil, handleDBError(err)
	}

	r.log.Info("issues reordered",
		zap.Int("updated", res.Updated),
		zap.Int("transitions", len(res.Transitions)),
	)
	return res, nil
}

func (r *IssueRepository) Delete(ctx context.Context, d *dto.DeleteIssueDTO) error {
	r.log.Info("delete issue started", zap.String("issue_id", d.IssueId))

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return handleDBError(err)
	}
	defer tx.Rollback(ctx)

	var (
		reporterId string
		adminIds   []string
		orgId      string
	)
	if err := tx.QueryRow(ctx, selectIssueOwnershipQuery, d.IssueId).Scan(&reporterId, &adminIds, &orgId); err != nil {
		return handleDBError(err)
	}
	if orgId != d.OrganizationId {
		return ErrForbidden
	}

	userId, err := lookupUser(ctx, tx, d.UserExternalId)
	if err != nil {
		return err
	}

	// Удалять может только автор задачи или администратор проекта
	if reporterId != userId && !slices.Contains(adminIds, userId) {
		r.log.Warn("issue delete not permitted",
			zap.String("issue_id", d.IssueId),
			zap.String("user_id", userId),
		)
		return ErrForbidden
	}

	// issue_analytics удаляется каскадно
	if _, err := tx.Exec(ctx, deleteIssueQuery, d.IssueId); err != nil {
		return handleDBError(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return handleDBError(err)
	}

	r.log.Info("issue deleted", zap.String("issue_id", d.IssueId))
	return nil
}

func (r *IssueRepository) ListBySprint(ctx context.Context, d *dto.SprintIssuesDTO) ([]*domain.Issue, error) {
	r.log.Debug("list sprint issues", zap.String("sprint_id", d.SprintId))

	if err := checkOrganization(ctx, r.db, selectSprintOrgQuery, d.SprintId, d.OrganizationId); err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, selectSprintIssuesQuery, d.SprintId)
	if err != nil {
		return nil, handleDBError(err)
	}
	defer rows.Close()

	issues := make([]*domain.Issue, 0)
	for rows.Next() {
		issue, err := scanIssue(rows)
		if err != nil {
			return nil, handleDBError(err)
		}
		issues = append(issues, issue)
	}
	if err := rows.Err(); err != nil {
		return nil, handleDBError(err)
	}

	return issues, nil
}

// recordTransition читает аналитику под блокировкой, пересчитывает и сохраняет ее
func (r *IssueRepository) recordTransition(ctx context.Context, tx pgx.Tx, issue *domain.Issue, previous, next domain.IssueStatus) (*domain.IssueAnalytic, error) {
	current, err := readAnalytic(ctx, tx, issue.Id)
	if err != nil && !errors.Is(handleDBError(err), ErrNotFound) {
		return nil, err
	}

	updated := r.recorder.Record(current, issue, previous, next)
	if updated.Id == "" {
		updated.Id = uuid.NewString()
	}
	updated.IssueId = issue.Id

	err = tx.QueryRow(ctx, upsertAnalyticQuery,
		updated.Id,
		updated.IssueId,
		updated.TimeInTodo,
		updated.TimeInProgress,
		updated.TimeInReview,
		updated.LastStatusChange,
		updated.StatusChanges,
		updated.CompletionTime,
	).Scan(&updated.Id)
	if err != nil {
		return nil, err
	}

	r.log.Debug("status transition recorded",
		zap.String("issue_id", issue.Id),
		zap.String("from", string(previous)),
		zap.String("to", string(next)),
		zap.Int("status_changes", updated.StatusChanges),
	)
	return updated, nil
}

type queryExecutor interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type rowScanner interface {
	Scan(dest ...any) error
}

// вспомогательная функция проверки принадлежности сущности организации
func checkOrganization(ctx context.Context, exec queryExecutor, query, id, organizationId string) error {
	var orgId string
	if err := exec.QueryRow(ctx, query, id).Scan(&orgId); err != nil {
		return handleDBError(err)
	}
	if orgId != organizationId {
		return ErrForbidden
	}
	return nil
}

// lookupUser находит внутренний id пользователя по id провайдера аутентификации
func lookupUser(ctx context.Context, exec queryExecutor, externalId string) (string, error) {
	var id string
	if err := exec.QueryRow(ctx, selectUserByExternalIdQuery, externalId).Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrUserNotFound
		}
		return "", handleDBError(err)
	}
	return id, nil
}

// вспомогательная функция чтения задачи, extra сканируются после колонок задачи
func scanIssue(row rowScanner, extra ...any) (*domain.Issue, error) {
	issue := &domain.Issue{}
	dest := []any{
		&issue.Id,
		&issue.Title,
		&issue.Description,
		&issue.Status,
		&issue.Priority,
		&issue.Order,
		&issue.ProjectId,
		&issue.SprintId,
		&issue.DepartmentId,
		&issue.AssigneeId,
		&issue.ReporterId,
		&issue.CreatedAt,
		&issue.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return issue, nil
}

func readAnalytic(ctx context.Context, exec queryExecutor, issueId string) (*domain.IssueAnalytic, error) {
	a := &domain.IssueAnalytic{}
	err := exec.QueryRow(ctx, selectAnalyticForUpdateQuery, issueId).Scan(
		&a.Id,
		&a.IssueId,
		&a.TimeInTodo,
		&a.TimeInProgress,
		&a.TimeInReview,
		&a.LastStatusChange,
		&a.StatusChanges,
		&a.CompletionTime,
	)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// enumArg переводит необязательное значение перечисления в nullable text
func enumArg[T ~string](v *T) *string {
	if v == nil {
		return nil
	}
	s := string(*v)
	return &s
}
