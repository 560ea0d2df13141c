// Package config provides configuration loading and validation for the tracker.
package config

import (
	"crypto/tls"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Defaults applied when neither the config file nor the environment sets a value.
const (
	DefaultPort               = 8080
	DefaultFetchTimeout       = 15 * time.Second
	DefaultBatchSize          = 5
	DefaultBatchDelay         = 200 * time.Millisecond
	DefaultMailAddress        = "imap.gmail.com:993"
	DefaultMailCommandTimeout = 30 * time.Second
	DefaultMailSyncTimeout    = 5 * time.Minute
)

// Config represents the process configuration.
type Config struct {
	DatabaseURL string
	Port        int

	LogLevel  string
	LogFormat string

	FetchTimeout time.Duration

	BatchSize  int
	BatchDelay time.Duration

	RateLimit bool

	Mail MailConfig
}

// MailConfig holds the mailbox credentials and session bounds used by email sync.
type MailConfig struct {
	Username       string
	AppPassword    string
	Address        string
	CommandTimeout time.Duration
	SyncTimeout    time.Duration

	// TLS overrides the client TLS settings, e.g. to trust a private CA.
	// Nil uses the system roots and the server name from Address.
	TLS *tls.Config
}

// Error is a configuration error naming the offending setting.
type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("config error: %s: %s", e.Field, e.Message)
}

// envBindings maps config keys to the environment variables that override them.
var envBindings = map[string]string{
	"database_url":         "DATABASE_URL",
	"port":                 "PORT",
	"log.level":            "LOG_LEVEL",
	"log.format":           "LOG_FORMAT",
	"fetch.timeout":        "FETCH_TIMEOUT",
	"ingest.batch_size":    "INGEST_BATCH_SIZE",
	"ingest.batch_delay":   "INGEST_BATCH_DELAY",
	"ratelimit.enabled":    "RATE_LIMIT_ENABLED",
	"mail.username":        "GMAIL_USER",
	"mail.app_password":    "GMAIL_APP_PASSWORD",
	"mail.address":         "MAIL_ADDRESS",
	"mail.command_timeout": "MAIL_COMMAND_TIMEOUT",
	"mail.sync_timeout":    "MAIL_SYNC_TIMEOUT",
}

// Load reads configuration from an optional file and the environment.
// When path is empty, config.yaml is looked up in the working directory and ./configs;
// a missing file is not an error. Environment variables always win.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	cfg := &Config{
		DatabaseURL:  strings.TrimSpace(v.GetString("database_url")),
		Port:         v.GetInt("port"),
		LogLevel:     strings.ToLower(v.GetString("log.level")),
		LogFormat:    strings.ToLower(v.GetString("log.format")),
		FetchTimeout: v.GetDuration("fetch.timeout"),
		BatchSize:    v.GetInt("ingest.batch_size"),
		BatchDelay:   v.GetDuration("ingest.batch_delay"),
		RateLimit:    v.GetBool("ratelimit.enabled"),
		Mail: MailConfig{
			Username:       strings.TrimSpace(v.GetString("mail.username")),
			AppPassword:    v.GetString("mail.app_password"),
			Address:        v.GetString("mail.address"),
			CommandTimeout: v.GetDuration("mail.command_timeout"),
			SyncTimeout:    v.GetDuration("mail.sync_timeout"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", DefaultPort)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("fetch.timeout", DefaultFetchTimeout)
	v.SetDefault("ingest.batch_size", DefaultBatchSize)
	v.SetDefault("ingest.batch_delay", DefaultBatchDelay)
	v.SetDefault("ratelimit.enabled", true)
	v.SetDefault("mail.address", DefaultMailAddress)
	v.SetDefault("mail.command_timeout", DefaultMailCommandTimeout)
	v.SetDefault("mail.sync_timeout", DefaultMailSyncTimeout)
}

// Validate checks that the configuration has valid values.
// Required settings are checked by the commands that need them.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return &Error{Field: "port", Message: fmt.Sprintf("must be between 1 and 65535, got %d", c.Port)}
	}
	if c.BatchSize < 1 {
		return &Error{Field: "ingest.batch_size", Message: "must be at least 1"}
	}
	if c.BatchDelay < 0 {
		return &Error{Field: "ingest.batch_delay", Message: "must be non-negative"}
	}
	if c.FetchTimeout <= 0 {
		return &Error{Field: "fetch.timeout", Message: "must be positive"}
	}
	if c.Mail.CommandTimeout <= 0 || c.Mail.SyncTimeout <= 0 {
		return &Error{Field: "mail", Message: "timeouts must be positive"}
	}
	switch c.LogFormat {
	case "json", "console":
	default:
		return &Error{Field: "log.format", Message: fmt.Sprintf("unknown format %q", c.LogFormat)}
	}
	return nil
}

// RequireDatabase returns an error when DATABASE_URL is not configured.
func (c *Config) RequireDatabase() error {
	if c.DatabaseURL == "" {
		return &Error{Field: "database_url", Message: "DATABASE_URL environment variable is required"}
	}
	return nil
}

// RequireCredentials returns an error naming the missing mailbox credentials.
func (m MailConfig) RequireCredentials() error {
	var missing []string
	if m.Username == "" {
		missing = append(missing, "GMAIL_USER")
	}
	if m.AppPassword == "" {
		missing = append(missing, "GMAIL_APP_PASSWORD")
	}
	if len(missing) > 0 {
		return &Error{
			Field:   "mail",
			Message: strings.Join(missing, " and ") + " must be set to sync email",
		}
	}
	return nil
}
