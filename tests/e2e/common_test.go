//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/niklvrr/IssueTracker/internal/domain"
	"github.com/niklvrr/IssueTracker/internal/infrastructure/db"
	"github.com/niklvrr/IssueTracker/internal/infrastructure/repository"
	"github.com/niklvrr/IssueTracker/internal/transport"
	"github.com/niklvrr/IssueTracker/internal/transport/handler"
	"github.com/niklvrr/IssueTracker/internal/transport/middleware"
	"github.com/niklvrr/IssueTracker/internal/usecase/analytics"
	"github.com/niklvrr/IssueTracker/internal/usecase/service"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"go.uber.org/zap"
)

var (
	testServer       *httptest.Server
	testDB           *postgres.PostgresContainer
	testPool         *pgxpool.Pool
	analyticsService *service.AnalyticsService
	analyticsRepo    *repository.AnalyticsRepository
)

var (
	reporter = domain.Identity{UserId: "ext-ann", OrganizationId: "org-e2e"}
	outsider = domain.Identity{UserId: "ext-eve", OrganizationId: "org-other"}
)

// seedSQL пользователи, проекты и спринты, которые API не создает
const seedSQL = `
INSERT INTO users (id, external_id, name, email) VALUES
    ('u-ann', 'ext-ann', 'Ann', 'ann@example.com'),
    ('u-bob', 'ext-bob', 'Bob', 'bob@example.com'),
    ('u-eve', 'ext-eve', 'Eve', 'eve@example.com');

INSERT INTO projects (id, name, key, organization_id, admin_ids) VALUES
    ('p-flow', 'Flow', 'FLW', 'org-e2e', '{u-ann}'),
    ('p-board', 'Board', 'BRD', 'org-e2e', '{u-ann}'),
    ('p-other', 'Other', 'OTH', 'org-other', '{u-eve}');

INSERT INTO sprints (id, name, status, project_id) VALUES
    ('s-flow', 'Sprint 1', 'COMPLETED', 'p-flow'),
    ('s-board', 'Board sprint', 'ACTIVE', 'p-board');
`

// migrationsPath ищет каталог миграций относительно tests/e2e
func migrationsPath() (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}

	root := wd
	if filepath.Base(wd) == "e2e" {
		root = filepath.Join(wd, "..", "..")
	}
	return "file://" + filepath.Join(root, "migrations"), nil
}

// setupTestServer собирает приложение так же, как cmd/main.go
func setupTestServer(ctx context.Context, dbURL string) (*httptest.Server, error) {
	logger := zap.NewNop()

	path, err := migrationsPath()
	if err != nil {
		return nil, err
	}

	testPool, err = db.NewDatabase(ctx, dbURL, path, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to init database: %w", err)
	}

	if _, err := testPool.Exec(ctx, seedSQL); err != nil {
		return nil, fmt.Errorf("failed to seed database: %w", err)
	}

	issueRepo := repository.NewIssueRepository(testPool, analytics.NewRecorder(time.Now), logger)
	analyticsRepo = repository.NewAnalyticsRepository(testPool, logger)
	formRepo := repository.NewFormRepository(testPool, logger)

	analyticsService = service.NewAnalyticsService(analyticsRepo, logger)

	router := transport.NewRouter(transport.Handlers{
		Issue:     handler.NewIssueHandler(service.NewIssueService(issueRepo, logger), logger),
		Analytics: handler.NewAnalyticsHandler(analyticsService, logger),
		Form:      handler.NewFormHandler(service.NewFormService(formRepo, logger), logger),
		Health:    handler.NewHealthHandler(testPool, logger),
	}, 5*time.Second, logger)

	return httptest.NewServer(router), nil
}

// TestMain поднимает postgres в контейнере на весь пакет
func TestMain(m *testing.M) {
	ctx := context.Background()

	var err error
	testDB, err = postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		panic(fmt.Sprintf("failed to start test container: %v", err))
	}

	dbURL, err := testDB.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		panic(fmt.Sprintf("failed to get connection string: %v", err))
	}

	testServer, err = setupTestServer(ctx, dbURL)
	if err != nil {
		panic(fmt.Sprintf("failed to setup test server: %v", err))
	}

	code := m.Run()

	testServer.Close()
	testPool.Close()
	if err := testcontainers.TerminateContainer(testDB); err != nil {
		panic(fmt.Sprintf("failed to terminate container: %v", err))
	}

	os.Exit(code)
}

// doRequest отправляет JSON запрос от имени identity, пустая identity без заголовков
func doRequest(t *testing.T, method, path string, body any, identity domain.Identity) (int, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, testServer.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if identity.UserId != "" {
		req.Header.Set(middleware.UserIdHeader, identity.UserId)
	}
	if identity.OrganizationId != "" {
		req.Header.Set(middleware.OrganizationIdHeader, identity.OrganizationId)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, raw
}

func decode[T any](t *testing.T, raw []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v), string(raw))
	return v
}

func errorCode(t *testing.T, raw []byte) string {
	t.Helper()
	return decode[handler.ErrorResponse](t, raw).Error.Code
}
