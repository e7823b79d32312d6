package config

import (
	"log"
	"os"
	"strconv"
	"strings"
)

// Config holds application configuration.
type Config struct {
	Port            string
	Env             string
	CORSAllowOrigin []string
	UploadDir       string
	MaxUploadBytes  int64
	LLMAPIURL       string
	LLMModel        string
	LLMTemperature  float32
	LLMTimeoutSecs  int
	LLMMaxRetries   int
	LLMAppURL       string
	LLMAppTitle     string
	RateLimitRPS    float64
	RateLimitBurst  int
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	return Config{
		Port:            getEnv("PORT", "5000"),
		Env:             normalizeEnv(getEnv("ENV", "dev")),
		CORSAllowOrigin: splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "*")),
		UploadDir:       getEnv("UPLOAD_DIR", "uploads"),
		MaxUploadBytes:  getInt64("MAX_UPLOAD_BYTES", 0),
		LLMAPIURL:       getEnv("LLM_API_URL", "https://openrouter.ai/api/v1/chat/completions"),
		LLMModel:        getEnv("LLM_MODEL", "openai/gpt-3.5-turbo"),
		LLMTemperature:  float32(getFloat("LLM_TEMPERATURE", 0.7)),
		LLMTimeoutSecs:  int(getInt64("LLM_TIMEOUT_SECONDS", 120)),
		LLMMaxRetries:   int(getInt64("LLM_MAX_RETRIES", 0)),
		LLMAppURL:       getEnv("LLM_APP_URL", ""),
		LLMAppTitle:     getEnv("LLM_APP_TITLE", ""),
		RateLimitRPS:    getFloat("RATE_LIMIT_RPS", 0),
		RateLimitBurst:  int(getInt64("RATE_LIMIT_BURST", 0)),
	}
}

func getEnv(key, def string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return def
}

func getInt64(key string, def int64) int64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	parsed, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || parsed < 0 {
		log.Printf("config: ignoring invalid %s=%q", key, raw)
		return def
	}
	return parsed
}

func getFloat(key string, def float64) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(raw, 64)
	if err != nil || parsed < 0 {
		log.Printf("config: ignoring invalid %s=%q", key, raw)
		return def
	}
	return parsed
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
	default:
		return "dev"
	}
}
