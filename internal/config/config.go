package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cast"
)

var (
	dbUserEmptyError     = errors.New("DB User is Empty")
	dbNameEmptyError     = errors.New("DB Name is Empty")
	envLoadError         = errors.New(".env load Error")
	invalidDurationError = errors.New("invalid duration")
	invalidCronError     = errors.New("invalid snapshot cron expression")
	invalidTimezoneError = errors.New("invalid snapshot timezone")
)

type AppConfig struct {
	Env             string
	Port            string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

type DatabaseConfig struct {
	Host           string
	Port           string
	Name           string
	Password       string
	User           string
	URL            string
	MigrationsPath string
}

// SnapshotConfig расписание ежедневных снимков аналитики, пустой Cron отключает задачу
type SnapshotConfig struct {
	Cron     string
	Location *time.Location
}

func (s SnapshotConfig) Enabled() bool {
	return s.Cron != ""
}

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Snapshot SnapshotConfig
}

func LoadConfig() (*Config, error) {
	// .env необязателен, в контейнере переменные приходят из окружения
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %w", envLoadError, err)
	}

	requestTimeout, err := getDuration("APP_REQUEST_TIMEOUT", 2*time.Second)
	if err != nil {
		return nil, err
	}
	shutdownTimeout, err := getDuration("APP_SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}

	c := &Config{
		App: AppConfig{
			Env:             getEnv("APP_ENV", "dev"),
			Port:            getEnv("APP_PORT", "8080"),
			RequestTimeout:  requestTimeout,
			ShutdownTimeout: shutdownTimeout,
		},
		Database: DatabaseConfig{
			Host:           getEnv("DATABASE_HOST", "localhost"),
			Port:           getEnv("DATABASE_PORT", "5432"),
			Name:           getEnv("DATABASE_NAME", "postgres"),
			Password:       getEnv("DATABASE_PASSWORD", "postgres"),
			User:           getEnv("DATABASE_USER", "postgres"),
			URL:            os.Getenv("DATABASE_URL"),
			MigrationsPath: getEnv("MIGRATIONS_PATH", "file://migrations"),
		},
	}

	if err := makeDbUrl(c); err != nil {
		return nil, err
	}
	if err := loadSnapshot(c); err != nil {
		return nil, err
	}

	return c, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := cast.ToDurationE(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%w: %s=%q", invalidDurationError, key, v)
	}
	return d, nil
}

func makeDbUrl(cfg *Config) error {
	if cfg.Database.URL == "" {
		if cfg.Database.User == "" {
			return dbUserEmptyError
		}
		if cfg.Database.Name == "" {
			return dbNameEmptyError
		}
		cfg.Database.URL = fmt.Sprintf("postgresql://%s:%s@%s:%s/%s?sslmode=disable",
			cfg.Database.User,
			cfg.Database.Password,
			cfg.Database.Host,
			cfg.Database.Port,
			cfg.Database.Name,
		)
	}
	return nil
}

func loadSnapshot(cfg *Config) error {
	expr, ok := os.LookupEnv("SNAPSHOT_CRON")
	if !ok {
		expr = "0 3 * * *"
	}
	if expr != "" {
		if _, err := cron.ParseStandard(expr); err != nil {
			return fmt.Errorf("%w: %w", invalidCronError, err)
		}
	}

	loc, err := time.LoadLocation(getEnv("SNAPSHOT_TZ", "UTC"))
	if err != nil {
		return fmt.Errorf("%w: %w", invalidTimezoneError, err)
	}

	cfg.Snapshot = SnapshotConfig{Cron: expr, Location: loc}
	return nil
}
