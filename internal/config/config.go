package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	HTTPAddr string

	DBDriver string
	DBDSN    string

	BlobBasePath string

	AuthSecret    string
	AdminUser     string
	AdminPassHash string // bcrypt

	CORSOrigins []string

	// Vision extraction (Gemini)
	GeminiAPIKey string
	GeminiModel  string

	// Arbiter chat model (OpenAI-compatible; OpenRouter by default)
	ArbiterAPIKey  string
	ArbiterBaseURL string
	ArbiterModel   string

	// Hosted inference collaborators
	NLIEndpoint   string
	EmbedEndpoint string
	MathEndpoint  string
	InferenceKey  string

	// Bound on each collaborator call; expiry degrades to the heuristic.
	CollabTimeout time.Duration

	// Worker fan-out for batch grading.
	GradeWorkers int
}

func FromEnv() Config {
	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	return Config{
		HTTPAddr:     addr,
		DBDriver:     envOr("DB_DRIVER", "sqlite"),
		DBDSN:        envOr("DB_DSN", ""),
		BlobBasePath: envOr("BLOB_BASE_PATH", "./data"),

		AuthSecret:    envOr("AUTH_HMAC_SECRET", "supersecret-dev-key"),
		AdminUser:     envOr("ADMIN_USER", "admin"),
		AdminPassHash: envOr("ADMIN_PASS_HASH", "$2y$12$pyZAiWaTfVtM7UElIRStvOC3gNbnp70nmQU4eYopLGBfCJr1DOvji"),

		CORSOrigins: csvOr("CORS_ORIGINS", "http://localhost:3000"),

		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
		GeminiModel:  envOr("GEMINI_MODEL", "gemini-2.5-flash"),

		ArbiterAPIKey:  os.Getenv("OPENROUTER_API_KEY"),
		ArbiterBaseURL: envOr("ARBITER_BASE_URL", "https://openrouter.ai/api/v1"),
		ArbiterModel:   envOr("ARBITER_MODEL", "meta-llama/llama-3.3-70b-instruct:free"),

		NLIEndpoint:   os.Getenv("NLI_ENDPOINT"),
		EmbedEndpoint: os.Getenv("EMBED_ENDPOINT"),
		MathEndpoint:  os.Getenv("MATH_ENDPOINT"),
		InferenceKey:  os.Getenv("INFERENCE_API_KEY"),

		CollabTimeout: envDur("COLLAB_TIMEOUT", 30*time.Second),
		GradeWorkers:  envInt("GRADE_WORKERS", 4),
	}
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func envInt(k string, def int) int {
	if v, err := strconv.Atoi(os.Getenv(k)); err == nil && v > 0 {
		return v
	}
	return def
}

func envDur(k string, def time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(k)); err == nil && v > 0 {
		return v
	}
	return def
}

func csvOr(k, def string) []string {
	v := envOr(k, def)
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
