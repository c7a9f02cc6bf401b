// Package gateway implements the dispatch gateway: an HTTP service that
// executes plugin operation payloads against their upstream APIs and
// relays the responses verbatim.
package gateway

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the gateway's runtime configuration.
type Config struct {
	Addr string

	// Secret signs and verifies dispatch tokens.
	Secret string
	// TokenTTL bounds how long an issued dispatch token stays valid.
	TokenTTL time.Duration

	// AllowedHosts restricts which upstream hosts dispatches may reach.
	// Empty means any host.
	AllowedHosts map[string]struct{}

	MaxBodyBytes    int64
	UpstreamTimeout time.Duration

	ReadHeaderTimeout   time.Duration
	ReadTimeout         time.Duration
	ShutdownGracePeriod time.Duration
}

// LoadFromEnv builds a Config from PARLEY_GATEWAY_* environment
// variables, applying defaults and validating the result.
func LoadFromEnv() (Config, error) {
	cfg := Config{
		Addr:                envOr("PARLEY_GATEWAY_ADDR", ":8090"),
		Secret:              strings.TrimSpace(os.Getenv("PARLEY_GATEWAY_SECRET")),
		TokenTTL:            envDurationOr("PARLEY_GATEWAY_TOKEN_TTL", 24*time.Hour),
		AllowedHosts:        make(map[string]struct{}),
		MaxBodyBytes:        envInt64Or("PARLEY_GATEWAY_MAX_BODY_BYTES", 1<<20), // 1 MiB
		UpstreamTimeout:     envDurationOr("PARLEY_GATEWAY_UPSTREAM_TIMEOUT", 30*time.Second),
		ReadHeaderTimeout:   envDurationOr("PARLEY_GATEWAY_READ_HEADER_TIMEOUT", 10*time.Second),
		ReadTimeout:         envDurationOr("PARLEY_GATEWAY_READ_TIMEOUT", 30*time.Second),
		ShutdownGracePeriod: envDurationOr("PARLEY_GATEWAY_SHUTDOWN_GRACE_PERIOD", 30*time.Second),
	}

	for _, host := range splitCSV(os.Getenv("PARLEY_GATEWAY_ALLOWED_HOSTS")) {
		cfg.AllowedHosts[strings.ToLower(host)] = struct{}{}
	}

	if cfg.Secret == "" {
		return Config{}, fmt.Errorf("PARLEY_GATEWAY_SECRET must be set")
	}
	if cfg.TokenTTL <= 0 {
		return Config{}, fmt.Errorf("PARLEY_GATEWAY_TOKEN_TTL must be > 0")
	}
	if cfg.MaxBodyBytes <= 0 {
		return Config{}, fmt.Errorf("PARLEY_GATEWAY_MAX_BODY_BYTES must be > 0")
	}
	if cfg.UpstreamTimeout <= 0 {
		return Config{}, fmt.Errorf("PARLEY_GATEWAY_UPSTREAM_TIMEOUT must be > 0")
	}
	if cfg.ReadHeaderTimeout <= 0 {
		return Config{}, fmt.Errorf("PARLEY_GATEWAY_READ_HEADER_TIMEOUT must be > 0")
	}
	if cfg.ReadTimeout <= 0 {
		return Config{}, fmt.Errorf("PARLEY_GATEWAY_READ_TIMEOUT must be > 0")
	}
	if cfg.ShutdownGracePeriod <= 0 {
		return Config{}, fmt.Errorf("PARLEY_GATEWAY_SHUTDOWN_GRACE_PERIOD must be > 0")
	}

	return cfg, nil
}

// hostAllowed reports whether dispatches may reach the given host.
func (c Config) hostAllowed(host string) bool {
	if len(c.AllowedHosts) == 0 {
		return true
	}
	_, ok := c.AllowedHosts[strings.ToLower(host)]
	return ok
}

func envOr(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func envInt64Or(key string, def int64) int64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return def
	}
	return n
}

func envDurationOr(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return def
	}
	return d
}

func splitCSV(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}
