package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"

	"interview-backend/internal/shared/telemetry"
)

// Config holds application configuration.
type Config struct {
	Port               string
	CORSAllowOrigin    []string
	LLMProvider        string
	LLMModel           string
	OpenAIAPIKey       string
	GeminiAPIKey       string
	LLMTimeout         time.Duration
	DefaultTrials      int
	MaxUploadBytes     int64
	DatabaseURL        string
	Env                string
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
	UIRedirectURL      string
	JWTSecret          string
	ObjectStoreType    string
	LocalStoreDir      string
	S3Region           string
	S3Bucket           string
	S3Prefix           string
	S3KMSKeyID         string
	LLMRatePerMinute   int
	LLMRateBurst       int
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("ENV", "dev")
	v.SetDefault("PORT", "8080")
	v.SetDefault("CORS_ALLOW_ORIGINS", "http://localhost:3000")
	v.SetDefault("LLM_PROVIDER", "openai")
	v.SetDefault("LLM_MODEL", "")
	v.SetDefault("LLM_TIMEOUT_SECONDS", 60)
	v.SetDefault("DEFAULT_TRIALS", 2)
	v.SetDefault("MAX_UPLOAD_BYTES", 10<<20)
	v.SetDefault("OBJECT_STORE", "local")
	v.SetDefault("LOCAL_STORE_DIR", "./data")
	v.SetDefault("LLM_RATE_PER_MINUTE", 10)
	v.SetDefault("LLM_RATE_BURST", 3)

	cfg := fromViper(v)
	if cfg.Env == "production" && cfg.DatabaseURL == "" {
		telemetry.Error("config.invalid", map[string]any{"reason": "DATABASE_URL is required in production"})
	}
	return cfg
}

func fromViper(v *viper.Viper) Config {
	timeout := time.Duration(v.GetInt("LLM_TIMEOUT_SECONDS")) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	trials := v.GetInt("DEFAULT_TRIALS")
	if trials < 0 {
		trials = 0
	}
	return Config{
		Port:               v.GetString("PORT"),
		CORSAllowOrigin:    splitAndTrim(v.GetString("CORS_ALLOW_ORIGINS")),
		LLMProvider:        normalizeProvider(v.GetString("LLM_PROVIDER")),
		LLMModel:           strings.TrimSpace(v.GetString("LLM_MODEL")),
		OpenAIAPIKey:       v.GetString("OPENAI_API_KEY"),
		GeminiAPIKey:       v.GetString("GEMINI_API_KEY"),
		LLMTimeout:         timeout,
		DefaultTrials:      trials,
		MaxUploadBytes:     v.GetInt64("MAX_UPLOAD_BYTES"),
		DatabaseURL:        v.GetString("DATABASE_URL"),
		Env:                normalizeEnv(v.GetString("ENV")),
		GoogleClientID:     v.GetString("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: v.GetString("GOOGLE_CLIENT_SECRET"),
		GoogleRedirectURL:  v.GetString("GOOGLE_REDIRECT_URL"),
		UIRedirectURL:      v.GetString("UI_REDIRECT_URL"),
		JWTSecret:          v.GetString("JWT_SECRET"),
		ObjectStoreType:    normalizeStoreType(v.GetString("OBJECT_STORE")),
		LocalStoreDir:      v.GetString("LOCAL_STORE_DIR"),
		S3Region:           v.GetString("AWS_REGION"),
		S3Bucket:           v.GetString("S3_BUCKET"),
		S3Prefix:           v.GetString("S3_PREFIX"),
		S3KMSKeyID:         v.GetString("S3_KMS_KEY_ID"),
		LLMRatePerMinute:   v.GetInt("LLM_RATE_PER_MINUTE"),
		LLMRateBurst:       v.GetInt("LLM_RATE_BURST"),
	}
}

// IsDevLike reports whether the environment allows in-memory fallbacks and dev headers.
func (c Config) IsDevLike() bool {
	return c.Env == "dev" || c.Env == "local"
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	case "development", "dev":
		return "dev"
	default:
		return "dev"
	}
}

func normalizeProvider(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "gemini", "google":
		return "gemini"
	case "none", "placeholder", "":
		return "none"
	default:
		return "openai"
	}
}

func normalizeStoreType(v string) string {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "s3":
		return "s3"
	case "none", "off":
		return "none"
	default:
		return "local"
	}
}
