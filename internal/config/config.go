package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Mode string

const (
	ModeOffline Mode = "offline" // LAN deployment, relaxed CORS
	ModeOnline  Mode = "online"
)

type Config struct {
	Mode     Mode
	HTTPAddr string

	DBDriver string // sqlite|postgres
	DBDSN    string

	AuthSecret string
	TokenTTL   time.Duration
	// Accept token claim roles when the user row is missing (dev only).
	AllowClaimRoleFallback bool

	// Bootstrap admin, created at startup if absent.
	AdminUser     string
	AdminPassword string

	CORSOrigins  []string
	BlobBasePath string
}

// FromEnv loads .env if present, then reads the environment.
func FromEnv() Config {
	_ = godotenv.Load()

	mode := Mode(envOr("MODE", string(ModeOffline)))
	return Config{
		Mode:                   mode,
		HTTPAddr:               envOr("HTTP_ADDR", ":8080"),
		DBDriver:               envOr("DB_DRIVER", "sqlite"),
		DBDSN:                  os.Getenv("DB_DSN"),
		AuthSecret:             envOr("AUTH_HMAC_SECRET", "peakprep-dev-secret"),
		TokenTTL:               envDuration("TOKEN_TTL", 8*time.Hour),
		AllowClaimRoleFallback: envBool("ALLOW_CLAIM_ROLE_FALLBACK", mode == ModeOffline),
		AdminUser:              envOr("ADMIN_USER", "admin"),
		AdminPassword:          os.Getenv("ADMIN_PASSWORD"),
		CORSOrigins:            csvOr("CORS_ORIGINS", "http://localhost:3000"),
		BlobBasePath:           envOr("BLOB_BASE_PATH", "./data/assets"),
	}
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envBool(k string, def bool) bool {
	switch os.Getenv(k) {
	case "1", "true", "TRUE", "yes", "YES":
		return true
	case "0", "false", "FALSE", "no", "NO":
		return false
	default:
		return def
	}
}

func envDuration(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
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
