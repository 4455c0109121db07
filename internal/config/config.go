package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Database    DatabaseConfig    `yaml:"database"`
	Events      EventsConfig      `yaml:"events"`
	Redis       RedisConfig       `yaml:"redis"`
	Storage     StorageConfig     `yaml:"storage"`
	Auth        AuthConfig        `yaml:"auth"`
	Assistant   AssistantConfig   `yaml:"assistant"`
	Matching    MatchingConfig    `yaml:"matching"`
	Maintenance MaintenanceConfig `yaml:"maintenance"`
	Scrape      ScrapeConfig      `yaml:"scrape"`
	Logging     LoggingConfig     `yaml:"logging"`
}

type ServerConfig struct {
	Port              int    `yaml:"port"`
	MetricsPort       int    `yaml:"metrics_port"`
	AdminToken        string `yaml:"admin_token"`
	RequestsPerSecond int    `yaml:"requests_per_second"`
	Burst             int    `yaml:"burst"`
}

type DatabaseConfig struct {
	URL         string `yaml:"url"`
	AutoMigrate bool   `yaml:"auto_migrate"`
}

type EventsConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	Addr           string `yaml:"addr"`
	Password       string `yaml:"password"`
	DB             int    `yaml:"db"`
	ResumeTTLHours int    `yaml:"resume_ttl_hours"`
}

// StorageConfig configures the S3-compatible bucket used to archive uploaded resumes.
// An empty bucket disables archiving.
type StorageConfig struct {
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
}

// AuthConfig configures Auth0 bearer token verification. With neither a
// signing secret nor a public key configured, verification is disabled.
type AuthConfig struct {
	Issuer        string `yaml:"issuer"`
	Audience      string `yaml:"audience"`
	SigningSecret string `yaml:"signing_secret"`
	PublicKeyFile string `yaml:"public_key_file"`
}

func (a AuthConfig) Enabled() bool {
	return a.SigningSecret != "" || a.PublicKeyFile != ""
}

type AssistantConfig struct {
	Provider       string `yaml:"provider"` // ollama, gemini
	OllamaURL      string `yaml:"ollama_url"`
	OllamaModel    string `yaml:"ollama_model"`
	GeminiAPIKey   string `yaml:"gemini_api_key"`
	GeminiModel    string `yaml:"gemini_model"`
	TimeoutMs      int    `yaml:"timeout_ms"`
	MaxUploadBytes int64  `yaml:"max_upload_bytes"`
}

type MatchingConfig struct {
	Weights MatchWeights `yaml:"weights"`
}

type MatchWeights struct {
	GradeLevel  float64 `yaml:"grade_level"`
	Subject     float64 `yaml:"subject"`
	District    float64 `yaml:"district"`
	FundingType float64 `yaml:"funding_type"`
	Amount      float64 `yaml:"amount"`
}

type MaintenanceConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Schedule string `yaml:"schedule"`
}

// ScrapeConfig controls the listing scrapers. Scheduled runs ride on the
// maintenance scheduler, so they need maintenance enabled as well.
type ScrapeConfig struct {
	Enabled           bool           `yaml:"enabled"`
	Schedule          string         `yaml:"schedule"`
	UserAgent         string         `yaml:"user_agent"`
	RequestsPerSecond float64        `yaml:"requests_per_second"`
	TimeoutMs         int            `yaml:"timeout_ms"`
	Retries           int            `yaml:"retries"`
	MaxPageBytes      int64          `yaml:"max_page_bytes"`
	UseAssistant      bool           `yaml:"use_assistant"`
	Sources           []ScrapeSource `yaml:"sources"`
}

// ScrapeSource is one listing page. Kind is "scholarships" or "discounts";
// Label becomes the record source and Organization the owner when the page
// does not name one.
type ScrapeSource struct {
	Name         string   `yaml:"name"`
	Kind         string   `yaml:"kind"`
	URL          string   `yaml:"url"`
	Organization string   `yaml:"organization"`
	Label        string   `yaml:"label"`
	Headings     []string `yaml:"headings"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func (c *Config) AssistantTimeout() time.Duration {
	return time.Duration(c.Assistant.TimeoutMs) * time.Millisecond
}

func (c *Config) ScrapeTimeout() time.Duration {
	return time.Duration(c.Scrape.TimeoutMs) * time.Millisecond
}

func (c *Config) ResumeTTL() time.Duration {
	return time.Duration(c.Redis.ResumeTTLHours) * time.Hour
}

// SlogLevel maps the configured level name onto a slog.Level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.Logging.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func Load(path string) (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:              5000,
			MetricsPort:       5001,
			RequestsPerSecond: 20,
			Burst:             40,
		},
		Database: DatabaseConfig{
			URL:         "postgres://localhost:5432/teacheasy?sslmode=disable",
			AutoMigrate: true,
		},
		Events: EventsConfig{
			URL: "nats://localhost:4222",
		},
		Redis: RedisConfig{
			ResumeTTLHours: 24 * 30,
		},
		Assistant: AssistantConfig{
			Provider:       "ollama",
			OllamaURL:      "http://localhost:11434",
			OllamaModel:    "mistral:7b",
			GeminiModel:    "gemini-2.0-flash",
			TimeoutMs:      30000,
			MaxUploadBytes: 10 << 20,
		},
		Matching: MatchingConfig{
			Weights: MatchWeights{
				GradeLevel:  0.30,
				Subject:     0.25,
				District:    0.20,
				FundingType: 0.15,
				Amount:      0.10,
			},
		},
		Maintenance: MaintenanceConfig{
			Enabled:  true,
			Schedule: "@hourly",
		},
		Scrape: ScrapeConfig{
			Schedule:          "@weekly",
			UserAgent:         "TeachEasyBot/1.0",
			RequestsPerSecond: 0.5,
			TimeoutMs:         15000,
			Retries:           3,
			MaxPageBytes:      5 << 20,
			Sources: []ScrapeSource{
				{
					Name:         "weareteachers",
					Kind:         "scholarships",
					URL:          "https://www.weareteachers.com/education-grants/",
					Organization: "Various Organizations",
					Label:        "Education Organization",
					Headings:     []string{"h3", "h4"},
				},
				{
					Name:         "grantwatch-texas",
					Kind:         "scholarships",
					URL:          "https://texas.grantwatch.com/cat/42/teachers-grants.html",
					Organization: "Texas Organizations",
					Label:        "State/Local Government",
				},
				{
					Name:         "teachers-of-tomorrow",
					Kind:         "scholarships",
					URL:          "https://www.teachersoftomorrow.org/blog/insights/teacher-scholarships-texas/",
					Organization: "Various Organizations",
					Label:        "Education Organization",
				},
				{
					Name:  "neamb",
					Kind:  "discounts",
					URL:   "https://www.neamb.com/member-benefits",
					Label: "NEA Perks",
				},
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("TEACHEASY_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = n
		}
	}
	if v := os.Getenv("TEACHEASY_METRICS_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.MetricsPort = n
		}
	}
	if v := os.Getenv("TEACHEASY_ADMIN_TOKEN"); v != "" {
		cfg.Server.AdminToken = v
	}
	if v := os.Getenv("TEACHEASY_DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("TEACHEASY_AUTO_MIGRATE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Database.AutoMigrate = b
		}
	}
	if v := os.Getenv("TEACHEASY_NATS_URL"); v != "" {
		cfg.Events.URL = v
	}
	if v := os.Getenv("TEACHEASY_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("TEACHEASY_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("TEACHEASY_S3_BUCKET"); v != "" {
		cfg.Storage.Bucket = v
	}
	if v := os.Getenv("TEACHEASY_S3_REGION"); v != "" {
		cfg.Storage.Region = v
	}
	if v := os.Getenv("TEACHEASY_S3_ENDPOINT"); v != "" {
		cfg.Storage.Endpoint = v
	}
	if v := os.Getenv("TEACHEASY_S3_ACCESS_KEY"); v != "" {
		cfg.Storage.AccessKey = v
	}
	if v := os.Getenv("TEACHEASY_S3_SECRET_KEY"); v != "" {
		cfg.Storage.SecretKey = v
	}
	if v := os.Getenv("TEACHEASY_AUTH_ISSUER"); v != "" {
		cfg.Auth.Issuer = v
	}
	if v := os.Getenv("TEACHEASY_AUTH_AUDIENCE"); v != "" {
		cfg.Auth.Audience = v
	}
	if v := os.Getenv("TEACHEASY_AUTH_SECRET"); v != "" {
		cfg.Auth.SigningSecret = v
	}
	if v := os.Getenv("TEACHEASY_AUTH_PUBLIC_KEY_FILE"); v != "" {
		cfg.Auth.PublicKeyFile = v
	}
	if v := os.Getenv("TEACHEASY_ASSISTANT_PROVIDER"); v != "" {
		cfg.Assistant.Provider = v
	}
	if v := os.Getenv("TEACHEASY_OLLAMA_URL"); v != "" {
		cfg.Assistant.OllamaURL = v
	}
	if v := os.Getenv("TEACHEASY_OLLAMA_MODEL"); v != "" {
		cfg.Assistant.OllamaModel = v
	}
	if v := os.Getenv("TEACHEASY_GEMINI_API_KEY"); v != "" {
		cfg.Assistant.GeminiAPIKey = v
	}
	if v := os.Getenv("TEACHEASY_MAINTENANCE_SCHEDULE"); v != "" {
		cfg.Maintenance.Schedule = v
	}
	if v := os.Getenv("TEACHEASY_MAINTENANCE_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Maintenance.Enabled = b
		}
	}
	if v := os.Getenv("TEACHEASY_SCRAPE_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Scrape.Enabled = b
		}
	}
	if v := os.Getenv("TEACHEASY_SCRAPE_SCHEDULE"); v != "" {
		cfg.Scrape.Schedule = v
	}
	if v := os.Getenv("TEACHEASY_SCRAPE_USE_ASSISTANT"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Scrape.UseAssistant = b
		}
	}
	if v := os.Getenv("TEACHEASY_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}
