package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/niklvrr/IssueTracker/internal/domain"
	"github.com/niklvrr/IssueTracker/internal/infrastructure/models/dto"
	"github.com/niklvrr/IssueTracker/internal/infrastructure/models/result"
	"go.uber.org/zap"
)

const (
	selectFormQuery = `
SELECT id, title, description, organization_id, project_id, fields, created_at
FROM forms
WHERE id = $1;`

	insertFormQuery = `
INSERT INTO forms (id, title, description, organization_id, project_id, fields, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7);`

	formSummaryColumns = `
    f.id, f.title, f.description, f.project_id, p.name, f.created_at,
    (SELECT COUNT(*) FROM form_submissions s WHERE s.form_id = f.id) AS submission_count,
    (SELECT COUNT(*) FROM form_views v WHERE v.form_id = f.id) AS view_count`

	selectOrganizationFormsQuery = `
SELECT` + formSummaryColumns + `
FROM forms f
LEFT JOIN projects p ON p.id = f.project_id
WHERE f.organization_id = $1
ORDER BY f.created_at DESC, f.id;`

	selectProjectFormsQuery = `
SELECT` + formSummaryColumns + `
FROM forms f
JOIN projects p ON p.id = f.project_id
WHERE f.project_id = $1
ORDER BY f.created_at DESC, f.id;`

	selectAllSubmissionsQuery = `
SELECT id, form_id, data, user_name, user_email, created_at
FROM form_submissions
WHERE form_id = $1
ORDER BY created_at DESC, id;`

	insertSubmissionQuery = `
INSERT INTO form_submissions (id, form_id, data, user_name, user_email, created_at)
VALUES ($1, $2, $3, $4, $5, $6);`

	insertViewQuery = `
INSERT INTO form_views (id, form_id, user_id, user_email, user_name, created_at)
VALUES ($1, $2, $3, $4, $5, $6);`

	selectSubmissionsQuery = `
SELECT id, form_id, data, user_name, user_email, created_at
FROM form_submissions
WHERE form_id = $1
  AND ($2::timestamptz IS NULL OR created_at >= $2)
  AND ($3::timestamptz IS NULL OR created_at <= $3)
ORDER BY created_at, id;`

	selectViewsQuery = `
SELECT id, form_id, user_id, user_email, user_name, created_at
FROM form_views
WHERE form_id = $1
  AND ($2::timestamptz IS NULL OR created_at >= $2)
  AND ($3::timestamptz IS NULL OR created_at <= $3)
ORDER BY created_at, id;`
)

type FormRepository struct {
	db  *pgxpool.Pool
	log *zap.Logger
}

func NewFormRepository(db *pgxpool.Pool, log *zap.Logger) *FormRepository {
	return &FormRepository{
		db:  db,
		log: log,
	}
}

func (r *FormRepository) GetForm(ctx context.Context, formId string) (*domain.Form, error) {
	f := &domain.Form{}
	var fields []byte
	err := r.db.QueryRow(ctx, selectFormQuery, formId).Scan(
		&f.Id,
		&f.Title,
		&f.Description,
		&f.OrganizationId,
		&f.ProjectId,
		&fields,
		&f.CreatedAt,
	)
	if err != nil {
		return nil, handleDBError(err)
	}

	if len(fields) > 0 {
		if err := json.Unmarshal(fields, &f.Fields); err != nil {
			r.log.Error("malformed form fields", zap.String("form_id", formId), zap.Error(err))
			return nil, fmt.Errorf("decode form fields: %w", err)
		}
	}
	return f, nil
}

// CreateForm сохраняет схему формы. Проект должен принадлежать организации формы.
func (r *FormRepository) CreateForm(ctx context.Context, d *dto.CreateFormDTO) (*domain.Form, error) {
	r.log.Info("create form",
		zap.String("project_id", d.ProjectId),
		zap.String("organization_id", d.OrganizationId),
	)

	fields, err := json.Marshal(d.Fields)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, handleDBError(err)
	}
	defer tx.Rollback(ctx)

	if err := checkOrganization(ctx, tx, selectProjectOrgQuery, d.ProjectId, d.OrganizationId); err != nil {
		r.log.Warn("form project check failed",
			zap.String("project_id", d.ProjectId),
			zap.Error(err),
		)
		return nil, err
	}

	if _, err := tx.Exec(ctx, insertFormQuery,
		d.Id,
		d.Title,
		d.Description,
		d.OrganizationId,
		d.ProjectId,
		fields,
		d.CreatedAt,
	); err != nil {
		r.log.Error("failed to insert form", zap.String("form_id", d.Id), zap.Error(err))
		return nil, handleDBError(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, handleDBError(err)
	}

	r.log.Info("form created", zap.String("form_id", d.Id))
	return &domain.Form{
		Id:             d.Id,
		Title:          d.Title,
		Description:    d.Description,
		OrganizationId: d.OrganizationId,
		ProjectId:      &d.ProjectId,
		Fields:         d.Fields,
		CreatedAt:      d.CreatedAt,
	}, nil
}

func (r *FormRepository) ListOrganizationForms(ctx context.Context, organizationId string) ([]result.FormSummaryResult, error) {
	r.log.Debug("list organization forms", zap.String("organization_id", organizationId))
	return r.listForms(ctx, selectOrganizationFormsQuery, organizationId)
}

// ListProjectForms формы проекта. ErrForbidden, если проект чужой организации.
func (r *FormRepository) ListProjectForms(ctx context.Context, d *dto.ProjectFormsDTO) ([]result.FormSummaryResult, error) {
	r.log.Debug("list project forms", zap.String("project_id", d.ProjectId))

	if err := checkOrganization(ctx, r.db, selectProjectOrgQuery, d.ProjectId, d.OrganizationId); err != nil {
		return nil, err
	}
	return r.listForms(ctx, selectProjectFormsQuery, d.ProjectId)
}

// ListSubmissions все ответы формы, новые первыми
func (r *FormRepository) ListSubmissions(ctx context.Context, formId string) ([]domain.FormSubmission, error) {
	rows, err := r.db.Query(ctx, selectAllSubmissionsQuery, formId)
	if err != nil {
		return nil, handleDBError(err)
	}
	defer rows.Close()

	return r.scanSubmissions(rows)
}

func (r *FormRepository) listForms(ctx context.Context, query, id string) ([]result.FormSummaryResult, error) {
	rows, err := r.db.Query(ctx, query, id)
	if err != nil {
		return nil, handleDBError(err)
	}
	defer rows.Close()

	forms := make([]result.FormSummaryResult, 0)
	for rows.Next() {
		var f result.FormSummaryResult
		if err := rows.Scan(
			&f.Id,
			&f.Title,
			&f.Description,
			&f.ProjectId,
			&f.ProjectName,
			&f.CreatedAt,
			&f.SubmissionCount,
			&f.ViewCount,
		); err != nil {
			return nil, handleDBError(err)
		}
		forms = append(forms, f)
	}
	if err := rows.Err(); err != nil {
		return nil, handleDBError(err)
	}
	return forms, nil
}

func (r *FormRepository) InsertSubmission(ctx context.Context, d *dto.SubmitFormDTO) error {
	data, err := json.Marshal(d.Data)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	if _, err := r.db.Exec(ctx, insertSubmissionQuery,
		d.Id,
		d.FormId,
		data,
		d.UserName,
		d.UserEmail,
		d.CreatedAt,
	); err != nil {
		r.log.Error("failed to insert form submission",
			zap.String("form_id", d.FormId),
			zap.Error(err),
		)
		return handleDBError(err)
	}

	r.log.Info("form submission stored",
		zap.String("form_id", d.FormId),
		zap.String("submission_id", d.Id),
	)
	return nil
}

func (r *FormRepository) InsertView(ctx context.Context, d *dto.TrackViewDTO) error {
	if _, err := r.db.Exec(ctx, insertViewQuery,
		d.Id,
		d.FormId,
		d.UserId,
		d.UserEmail,
		d.UserName,
		d.CreatedAt,
	); err != nil {
		r.log.Error("failed to insert form view",
			zap.String("form_id", d.FormId),
			zap.Error(err),
		)
		return handleDBError(err)
	}

	r.log.Debug("form view stored", zap.String("form_id", d.FormId))
	return nil
}

func (r *FormRepository) GetFormAnalytics(ctx context.Context, d *dto.FormRangeDTO) (*result.FormAnalyticsResult, error) {
	r.log.Debug("load form analytics", zap.String("form_id", d.FormId))

	form, err := r.GetForm(ctx, d.FormId)
	if err != nil {
		return nil, err
	}

	submissions, err := r.listSubmissions(ctx, d)
	if err != nil {
		return nil, err
	}

	views, err := r.listViews(ctx, d)
	if err != nil {
		return nil, err
	}

	return &result.FormAnalyticsResult{
		Form:        form,
		Submissions: submissions,
		Views:       views,
	}, nil
}

func (r *FormRepository) listSubmissions(ctx context.Context, d *dto.FormRangeDTO) ([]domain.FormSubmission, error) {
	rows, err := r.db.Query(ctx, selectSubmissionsQuery, d.FormId, d.From, d.To)
	if err != nil {
		return nil, handleDBError(err)
	}
	defer rows.Close()

	return r.scanSubmissions(rows)
}

func (r *FormRepository) scanSubmissions(rows pgx.Rows) ([]domain.FormSubmission, error) {
	submissions := make([]domain.FormSubmission, 0)
	for rows.Next() {
		var (
			s    domain.FormSubmission
			data []byte
		)
		if err := rows.Scan(&s.Id, &s.FormId, &data, &s.UserName, &s.UserEmail, &s.CreatedAt); err != nil {
			return nil, handleDBError(err)
		}
		if err := json.Unmarshal(data, &s.Data); err != nil {
			// Битая запись не должна ломать отчет целиком
			r.log.Warn("skipping malformed submission",
				zap.String("submission_id", s.Id),
				zap.Error(err),
			)
			continue
		}
		submissions = append(submissions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, handleDBError(err)
	}
	return submissions, nil
}

func (r *FormRepository) listViews(ctx context.Context, d *dto.FormRangeDTO) ([]domain.FormView, error) {
	rows, err := r.db.Query(ctx, selectViewsQuery, d.FormId, d.From, d.To)
	if err != nil {
		return nil, handleDBError(err)
	}
	defer rows.Close()

	views := make([]domain.FormView, 0)
	for rows.Next() {
		var v domain.FormView
		if err := rows.Scan(&v.Id, &v.FormId, &v.UserId, &v.UserEmail, &v.UserName, &v.CreatedAt); err != nil {
			return nil, handleDBError(err)
		}
		views = append(views, v)
	}
	if err := rows.Err(); err != nil {
		return nil, handleDBError(err)
	}
	return views, nil
}
