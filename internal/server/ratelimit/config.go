package ratelimit

import (
	"net/http"
	"time"
)

// EndpointConfig limits one route per client.
type EndpointConfig struct {
	Method string        // HTTP method
	Path   string        // Exact request path
	Limit  int           // Requests per window
	Window time.Duration // Refill window
	Burst  int           // Burst capacity (defaults to Limit if 0)
}

// Config holds rate limiting configuration.
type Config struct {
	Enabled         bool
	CleanupInterval time.Duration
	IdleTTL         time.Duration
	Whitelist       map[string]bool
	EndpointConfigs []EndpointConfig
}

// DefaultConfig limits the endpoints that reach out to job boards or the
// mailbox. Everything else is unlimited.
func DefaultConfig() *Config {
	return &Config{
		Enabled:         true,
		CleanupInterval: 5 * time.Minute,
		IdleTTL:         time.Hour,
		Whitelist:       map[string]bool{},
		EndpointConfigs: []EndpointConfig{
			{Method: http.MethodPost, Path: "/jobs/refresh", Limit: 6, Window: time.Minute, Burst: 2},
			{Method: http.MethodPost, Path: "/jobs/refresh/stream", Limit: 6, Window: time.Minute, Burst: 2},
			{Method: http.MethodPost, Path: "/email/sync", Limit: 4, Window: time.Minute, Burst: 1},
		},
	}
}

// MatchEndpoint returns the configuration for method and path, or nil when
// the route is unlimited.
func MatchEndpoint(method, path string, configs []EndpointConfig) *EndpointConfig {
	for i := range configs {
		if configs[i].Method == method && configs[i].Path == path {
			return &configs[i]
		}
	}
	return nil
}
