package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"finance-app-go/pkg/logger"
)

type Config struct {
	HTTPPort       string
	Env            string
	AllowedOrigins []string
	DB             DBConfig
	Supabase       SupabaseConfig
	Analysis       AnalysisConfig
	Retention      RetentionConfig
	Scheduler      SchedulerConfig
	Metrics        MetricsConfig
}

type DBConfig struct {
	DSN             string
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	SSLMode         string
	TimeZone        string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	AutoMigrate     bool
}

type SupabaseConfig struct {
	URL            string
	PublishableKey string
	AuthTimeout    time.Duration
	SkipAuth       bool
	MockUserID     string
	MockUserEmail  string
	MockUserName   string
	MockUserAvatar string
	AccountSyncTTL time.Duration
}

type AnalysisConfig struct {
	TopExpenses        int
	GeneratePerHour    int
	RecentDefaultLimit int
	RecentMaxLimit     int
}

type RetentionConfig struct {
	DefaultMonths          int
	BatchSize              int
	BatchPause             time.Duration
	MinAccountAge          time.Duration
	OwnerCleanupsPerHour   int
	GlobalCleanupsPerDay   int
	SettingsUpdatesPerHour int
	OwnerConfirmation      string
	GlobalConfirmation     string
}

type SchedulerConfig struct {
	Enabled          bool
	Timezone         string
	DailyCleanup     string
	WeeklyAnalysis   string
	MonthlyCleanup   string
	OwnerBatchSize   int
	OwnerConcurrency int
	OwnerBatchDelay  time.Duration
}

type MetricsConfig struct {
	Enabled bool
	Path    string
}

func Load(log logger.Logger) (Config, error) {
	err := loadDotEnv(log)
	if err != nil {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	return Config{
		HTTPPort:       getEnv("HTTP_PORT", "8080"),
		Env:            getEnv("ENV", "development"),
		AllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173"}),
		DB: DBConfig{
			DSN:             getEnv("DB_DSN", ""),
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", "postgres"),
			Name:            getEnv("DB_NAME", "finance_app"),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			TimeZone:        getEnv("DB_TIMEZONE", "UTC"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		Supabase: SupabaseConfig{
			URL:            getEnv("SUPABASE_URL", ""),
			PublishableKey: getEnv("SUPABASE_PUBLISHABLE_KEY", getEnv("VITE_SUPABASE_PUBLISHABLE_KEY", "")),
			AuthTimeout:    getEnvDuration("SUPABASE_AUTH_TIMEOUT", 5*time.Second),
			SkipAuth:       getEnvBool("AUTH_SKIP", false),
			MockUserID:     getEnv("AUTH_MOCK_USER_ID", "00000000-0000-0000-0000-000000000001"),
			MockUserEmail:  getEnv("AUTH_MOCK_USER_EMAIL", ""),
			MockUserName:   getEnv("AUTH_MOCK_USER_NAME", ""),
			MockUserAvatar: getEnv("AUTH_MOCK_USER_AVATAR_URL", ""),
			AccountSyncTTL: getEnvDuration("AUTH_ACCOUNT_SYNC_TTL", 5*time.Minute),
		},
		Analysis: AnalysisConfig{
			TopExpenses:        getEnvInt("ANALYSIS_TOP_EXPENSES", 5),
			GeneratePerHour:    getEnvInt("ANALYSIS_GENERATE_PER_HOUR", 10),
			RecentDefaultLimit: getEnvInt("ANALYSIS_RECENT_DEFAULT_LIMIT", 10),
			RecentMaxLimit:     getEnvInt("ANALYSIS_RECENT_MAX_LIMIT", 52),
		},
		Retention: RetentionConfig{
			DefaultMonths:          getEnvInt("RETENTION_DEFAULT_MONTHS", 3),
			BatchSize:              getEnvInt("RETENTION_BATCH_SIZE", 50),
			BatchPause:             getEnvDuration("RETENTION_BATCH_PAUSE", 100*time.Millisecond),
			MinAccountAge:          getEnvDuration("RETENTION_MIN_ACCOUNT_AGE", 24*time.Hour),
			OwnerCleanupsPerHour:   getEnvInt("RETENTION_OWNER_CLEANUPS_PER_HOUR", 2),
			GlobalCleanupsPerDay:   getEnvInt("RETENTION_GLOBAL_CLEANUPS_PER_DAY", 1),
			SettingsUpdatesPerHour: getEnvInt("RETENTION_SETTINGS_UPDATES_PER_HOUR", 5),
			OwnerConfirmation:      getEnv("RETENTION_OWNER_CONFIRMATION", "DELETE_MY_DATA"),
			GlobalConfirmation:     getEnv("RETENTION_GLOBAL_CONFIRMATION", "GLOBAL_CLEANUP_CONFIRMED"),
		},
		Scheduler: SchedulerConfig{
			Enabled:          getEnvBool("SCHEDULER_ENABLED", true),
			Timezone:         getEnv("SCHEDULER_TIMEZONE", "UTC"),
			DailyCleanup:     getEnv("SCHEDULER_DAILY_CLEANUP", "0 2 * * *"),
			WeeklyAnalysis:   getEnv("SCHEDULER_WEEKLY_ANALYSIS", "0 9 * * 1"),
			MonthlyCleanup:   getEnv("SCHEDULER_MONTHLY_CLEANUP", "0 3 1 * *"),
			OwnerBatchSize:   getEnvInt("SCHEDULER_OWNER_BATCH_SIZE", 10),
			OwnerConcurrency: getEnvInt("SCHEDULER_OWNER_CONCURRENCY", 5),
			OwnerBatchDelay:  getEnvDuration("SCHEDULER_OWNER_BATCH_DELAY", time.Second),
		},
		Metrics: MetricsConfig{
			Enabled: getEnvBool("METRICS_ENABLED", true),
			Path:    getEnv("METRICS_PATH", "/metrics"),
		},
	}, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvList(key string, fallback []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	var items []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			items = append(items, part)
		}
	}
	if len(items) == 0 {
		return fallback
	}
	return items
}

func (c DBConfig) GetDSN() string {
	if c.DSN != "" {
		return c.DSN
	}
	return "host=" + c.Host +
		" user=" + c.User +
		" password=" + c.Password +
		" dbname=" + c.Name +
		" port=" + c.Port +
		" sslmode=" + c.SSLMode +
		" TimeZone=" + c.TimeZone
}
