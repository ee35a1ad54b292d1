package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// LoggingConfig holds logging-related configuration.
type LoggingConfig struct {
	Level      string
	Pretty     bool
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// AxiomConfig holds Axiom logging configuration.
type AxiomConfig struct {
	Send          bool
	APIKey        string
	OrgID         string
	Dataset       string
	FlushInterval time.Duration
}

// ServerConfig defines the HTTP listener and upload limits.
type ServerConfig struct {
	Port        string
	MaxUploadMB int
}

// ProcessConfig tunes the staged split run.
type ProcessConfig struct {
	TickInterval   time.Duration
	TickStep       int
	ExtractWorkers int
}

// OracleConfig selects and tunes the suggestion provider.
type OracleConfig struct {
	Provider       string // "openai"|"anthropic"|"" to disable
	OpenAIModel    string
	AnthropicModel string
	Timeout        time.Duration
	MaxSuggestions int
	SamplePages    int // pages of text sampled into the prompt
	SampleChars    int // per-page character cap
	CacheTTL       time.Duration
	RedisURL       string // empty disables the suggestion cache
}

// StoreConfig selects where split artifacts live.
type StoreConfig struct {
	Backend            string // "memory"|"disk"|"s3"
	ResultDir          string
	S3Bucket           string
	S3Region           string
	S3AccessKey        string
	S3SecretKey        string
	EncryptionPassword string
}

// SessionConfig bounds session lifetime and plan history.
type SessionConfig struct {
	TTL           time.Duration
	SweepInterval time.Duration
	HistoryLimit  int
}

// WebConfig gates the browser dashboard.
type WebConfig struct {
	Username string
	Password string
}

// Config is the top-level configuration.
type Config struct {
	Server  ServerConfig
	Logging LoggingConfig
	Axiom   AxiomConfig
	Process ProcessConfig
	Oracle  OracleConfig
	Store   StoreConfig
	Session SessionConfig
	Web     WebConfig
}

// FromEnv loads configuration from environment with sensible defaults.
func FromEnv() Config {
	cfg := Config{}

	cfg.Server = ServerConfig{
		Port:        getEnv("PORT", "8080"),
		MaxUploadMB: parseInt(getEnv("MAX_UPLOAD_MB", "100"), 100),
	}

	cfg.Logging = LoggingConfig{
		Level:      getEnv("LOG_LEVEL", "info"),
		Pretty:     parseBool(getEnv("LOG_PRETTY", devDefaultPretty())),
		File:       getEnv("LOG_FILE", "logs/pdfsplitter.log"),
		MaxSizeMB:  parseInt(getEnv("LOG_MAX_SIZE_MB", "100"), 100),
		MaxBackups: parseInt(getEnv("LOG_MAX_BACKUPS", "10"), 10),
		MaxAgeDays: parseInt(getEnv("LOG_MAX_AGE_DAYS", "30"), 30),
		Compress:   parseBool(getEnv("LOG_COMPRESS", "true")),
	}

	baseDataset := getEnv("AXIOM_DATASET", "dev")
	cfg.Axiom = AxiomConfig{
		Send:          parseBool(getEnv("SEND_LOGS_TO_AXIOM", "0")),
		APIKey:        getEnv("AXIOM_API_KEY", ""),
		OrgID:         getEnv("AXIOM_ORG_ID", ""),
		Dataset:       baseDataset + "_pdfsplitter",
		FlushInterval: parseDuration(getEnv("AXIOM_FLUSH_INTERVAL", "10s"), 10*time.Second),
	}

	cfg.Process = ProcessConfig{
		TickInterval:   parseDuration(getEnv("PROCESS_TICK_INTERVAL", "150ms"), 150*time.Millisecond),
		TickStep:       parseInt(getEnv("PROCESS_TICK_STEP", "25"), 25),
		ExtractWorkers: parseInt(getEnv("EXTRACT_WORKERS", "3"), 3),
	}

	cfg.Oracle = OracleConfig{
		Provider:       strings.ToLower(getEnv("ORACLE_PROVIDER", "openai")),
		OpenAIModel:    getEnv("OPENAI_MODEL", "gpt-4.1-mini"),
		AnthropicModel: getEnv("ANTHROPIC_MODEL", "claude-3-5-sonnet"),
		Timeout:        parseDuration(getEnv("ORACLE_TIMEOUT", "60s"), 60*time.Second),
		MaxSuggestions: parseInt(getEnv("ORACLE_MAX_SUGGESTIONS", "12"), 12),
		SamplePages:    parseInt(getEnv("ORACLE_SAMPLE_PAGES", "8"), 8),
		SampleChars:    parseInt(getEnv("ORACLE_SAMPLE_CHARS", "600"), 600),
		CacheTTL:       parseDuration(getEnv("SUGGEST_CACHE_TTL", "10m"), 10*time.Minute),
		RedisURL:       getEnv("REDIS_URL", ""),
	}

	cfg.Store = StoreConfig{
		Backend:            strings.ToLower(getEnv("STORE_BACKEND", "memory")),
		ResultDir:          getEnv("RESULT_DIR", "uploads/results"),
		S3Bucket:           getEnv("AWS_S3_BUCKET", ""),
		S3Region:           getEnv("AWS_REGION", "us-east-1"),
		S3AccessKey:        getEnv("AWS_ACCESS_KEY_ID", ""),
		S3SecretKey:        getEnv("AWS_SECRET_ACCESS_KEY", ""),
		EncryptionPassword: getEnv("FILE_ENCRYPTION_PASSWORD", ""),
	}

	cfg.Session = SessionConfig{
		TTL:           parseDuration(getEnv("SESSION_TTL", "2h"), 2*time.Hour),
		SweepInterval: parseDuration(getEnv("SESSION_SWEEP_INTERVAL", "10m"), 10*time.Minute),
		HistoryLimit:  parseInt(getEnv("HISTORY_LIMIT", "50"), 50),
	}

	cfg.Web = WebConfig{
		Username: getEnv("WEB_USERNAME", ""),
		Password: getEnv("WEB_PASSWORD", ""),
	}

	return cfg
}

// Helpers
func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

func parseBool(s string) bool {
	v := strings.ToLower(strings.TrimSpace(s))
	return v == "1" || v == "true" || v == "yes" || v == "on"
}

func parseDuration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	return def
}

func devDefaultPretty() string {
	env := strings.ToLower(os.Getenv("ENVIRONMENT"))
	if env == "dev" || env == "development" || env == "local" {
		return "true"
	}
	return "false"
}
