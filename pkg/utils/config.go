package utils

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type AuthConfig struct {
	JWTSecret   string
	JWTIssuer   string
	JWTDuration time.Duration
}

// BackendConfig points at the remote image-pipeline API (background removal
// and try-on compositing). The pipeline itself is an external service; we
// only call it.
type BackendConfig struct {
	BaseURL string
	Timeout time.Duration
}

// LoadDotenv reads a local .env if present. Missing files are fine; real
// environments set variables directly.
func LoadDotenv() {
	if err := godotenv.Load(); err == nil {
		log.Println("[config] loaded .env")
	}
}

func LoadAuthConfig() AuthConfig {
	secret := os.Getenv("TRYONHUB_JWT_SECRET")
	if secret == "" {
		// dev default (change for demo / production)
		secret = "dev-secret-change-me"
	}

	issuer := os.Getenv("TRYONHUB_JWT_ISSUER")
	if issuer == "" {
		issuer = "tryonhub"
	}

	duration := 24 * time.Hour
	if ttl := os.Getenv("TRYONHUB_JWT_TTL_HOURS"); ttl != "" {
		if hours, err := strconv.Atoi(ttl); err == nil && hours > 0 {
			duration = time.Duration(hours) * time.Hour
		}
	}

	return AuthConfig{
		JWTSecret:   secret,
		JWTIssuer:   issuer,
		JWTDuration: duration,
	}
}

// StoreSource is one configured shop backend for unified search.
type StoreSource struct {
	Name string
	URL  string
}

// LoadStoreSources reads store configs from the environment. Format is a
// comma-separated name=url list, e.g.
//
//	TRYONHUB_STORE_APIS=zalando=https://api.zalando.example,asos=https://api.asos.example
//	TRYONHUB_STORE_PAGES=hm=https://hm.example/search?q={query}
func LoadStoreSources(envVar string) []StoreSource {
	raw := strings.TrimSpace(os.Getenv(envVar))
	if raw == "" {
		return nil
	}

	var out []StoreSource
	for _, part := range strings.Split(raw, ",") {
		name, u, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok || name == "" || u == "" {
			log.Printf("[config] skipping malformed store entry %q in %s", part, envVar)
			continue
		}
		out = append(out, StoreSource{Name: name, URL: u})
	}
	return out
}

func LoadBackendConfig() BackendConfig {
	base := os.Getenv("TRYONHUB_PIPELINE_URL")
	if base == "" {
		base = "http://localhost:5000"
	}

	timeout := 60 * time.Second
	if s := os.Getenv("TRYONHUB_PIPELINE_TIMEOUT_SECONDS"); s != "" {
		if secs, err := strconv.Atoi(s); err == nil && secs > 0 {
			timeout = time.Duration(secs) * time.Second
		}
	}

	return BackendConfig{BaseURL: base, Timeout: timeout}
}
