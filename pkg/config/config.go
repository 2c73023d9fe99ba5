package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port             string
	Environment      string
	LogLevel         string
	LogEncoding      string
	JWTSecret        string
	JWTAccessExpiry  time.Duration
	JWTRefreshExpiry time.Duration

	// Database
	DBDriver    string // "postgres" or "sqlite"
	DBDSN       string
	AutoMigrate bool

	// Mail
	MailFrom            string
	GoogleClientID      string
	GoogleClientSecret  string
	GmailRefreshToken   string
	FirebaseCredentials string
	GoogleProjectID     string
	GoogleCredentials   string
	ActivityPubSubTopic string

	// Attachments
	StorageBackend  string // "local", "s3" or "gcs"
	StorageBucket   string
	StorageRegion   string
	StorageEndpoint string
	StoragePrefix   string
	StorageLocalDir string

	// Leader scope cache
	RedisURL      string
	ScopeCacheTTL time.Duration

	// Notification outbox
	OutboxPath        string
	OutboxInterval    time.Duration
	OutboxWorkers     int
	NotifyMaxRetries  int
	ReminderDaysAhead int
	ReminderCron      string
}

func Load() *Config {
	// Load .env file if it exists
	_ = godotenv.Load()

	return &Config{
		Port:             getEnv("PORT", "8080"),
		Environment:      getEnv("APP_ENV", "development"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		LogEncoding:      getEnv("LOG_ENCODING", "json"),
		JWTSecret:        getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
		JWTAccessExpiry:  getDuration("JWT_ACCESS_EXPIRY", 15*time.Minute),
		JWTRefreshExpiry: getDuration("JWT_REFRESH_EXPIRY", 168*time.Hour), // 7 days

		DBDriver:    getEnv("DB_DRIVER", "postgres"),
		DBDSN:       getEnv("DATABASE_URL", "host=localhost user=postgres password=postgres dbname=ticktask port=5432 sslmode=disable"),
		AutoMigrate: getBool("AUTO_MIGRATE", true),

		MailFrom:            getEnv("MAIL_FROM", "noreply@ticktask.local"),
		GoogleClientID:      getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret:  getEnv("GOOGLE_CLIENT_SECRET", ""),
		GmailRefreshToken:   getEnv("GMAIL_REFRESH_TOKEN", ""),
		FirebaseCredentials: getEnv("FIREBASE_CREDENTIALS", ""),
		GoogleProjectID:     getEnv("GOOGLE_PROJECT_ID", ""),
		GoogleCredentials:   getEnv("GOOGLE_APPLICATION_CREDENTIALS", ""),
		ActivityPubSubTopic: getEnv("ACTIVITY_PUBSUB_TOPIC", ""),

		StorageBackend:  getEnv("STORAGE_BACKEND", "local"),
		StorageBucket:   getEnv("STORAGE_BUCKET", ""),
		StorageRegion:   getEnv("STORAGE_REGION", "eu-central-1"),
		StorageEndpoint: getEnv("STORAGE_ENDPOINT", ""),
		StoragePrefix:   getEnv("STORAGE_PREFIX", "attachments/"),
		StorageLocalDir: getEnv("STORAGE_LOCAL_DIR", "./data/attachments"),

		RedisURL:      getEnv("REDIS_URL", ""),
		ScopeCacheTTL: getDuration("SCOPE_CACHE_TTL", 5*time.Minute),

		OutboxPath:        getEnv("OUTBOX_PATH", "./data/outbox.db"),
		OutboxInterval:    getDuration("OUTBOX_INTERVAL", 10*time.Second),
		OutboxWorkers:     getInt("OUTBOX_WORKERS", 3),
		NotifyMaxRetries:  getInt("NOTIFY_MAX_RETRIES", 5),
		ReminderDaysAhead: getInt("REMINDER_DAYS_AHEAD", 2),
		ReminderCron:      getEnv("REMINDER_CRON", ""),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
