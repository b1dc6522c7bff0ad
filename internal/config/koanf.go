// Listening Booth Dashboard - Event Aggregation and Reporting
// Copyright 2026 Marissa Lerer
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marissalerer/listening-booth-dashboard

package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths are searched in order when CONFIG_PATH is unset.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/listening-booth/config.yaml",
}

// ConfigPathEnvVar names an explicit config file.
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		Upstream: UpstreamConfig{
			SiteHeader:     "X-Site-Id",
			Timeout:        10 * time.Second,
			MaxRetries:     3,
			RetryBaseDelay: time.Second,
			PageSize:       100,
			MaxPages:       1000,
			Burst:          1,
			CircuitBreaker: CircuitBreakerConfig{
				Enabled:      false,
				MaxRequests:  3,
				Interval:     time.Minute,
				Timeout:      2 * time.Minute,
				MinRequests:  10,
				FailureRatio: 0.6,
			},
		},
		Enrichment: EnrichmentConfig{
			Sources:     []string{"rsvps", "tickets", "orders"},
			Concurrency: 5,
		},
		Classifier: ClassifierConfig{
			RecurringKeywords: []string{"open mic", "jam", "weekly", "monthly", "every"},
			RSVPOnlyKeywords:  []string{"open mic", "jam", "free", "rsvp"},
			HighThreshold:     25,
			MediumThreshold:   10,
			UrgentDays:        7,
		},
		Report: ReportConfig{
			Mode:         "upcoming",
			TopN:         5,
			ThisWeekDays: 7,
			VenueName:    "The Listening Booth",
		},
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            3000,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    5 * time.Minute,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Security: SecurityConfig{
			CORSOrigins:     []string{"*"},
			RateLimitReqs:   60,
			RateLimitWindow: time.Minute,
		},
		Cache: CacheConfig{
			Backend:   "memory",
			RedisAddr: "localhost:6379",
			RedisKey:  "listening-booth:report:latest",
		},
		Schedule: ScheduleConfig{
			Enabled:       true,
			RefreshCron:   "0 * * * *",
			CheckInterval: 30 * time.Second,
			RunOnStart:    true,
		},
		Email: EmailConfig{
			SMTPPort:      587,
			FromName:      "The Listening Booth",
			UseTLS:        true,
			Timeout:       30 * time.Second,
			DigestCron:    "0 8 * * 1",
			SubjectPrefix: "[Listening Booth]",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// LoadWithKoanf loads configuration in three layers, later layers winning:
//
//  1. built-in defaults
//  2. optional YAML file (CONFIG_PATH or DefaultConfigPaths)
//  3. environment variables listed in envMappings
//
// The result is validated before it is returned.
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// sliceConfigPaths are split on commas when they arrive as strings from
// the environment.
var sliceConfigPaths = []string{
	"enrichment.sources",
	"classifier.recurring_keywords",
	"classifier.rsvp_only_keywords",
	"security.cors_origins",
	"email.recipients",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		raw, ok := k.Get(path).(string)
		if !ok {
			continue
		}
		parts := splitList(raw)
		if len(parts) == 0 {
			continue
		}
		if err := k.Set(path, parts); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// envMappings maps environment variables (lower-cased) to koanf paths.
// Variables not listed here are ignored.
var envMappings = map[string]string{
	"events_api_url":          "upstream.base_url",
	"events_api_token":        "upstream.token",
	"events_site_id":          "upstream.site_id",
	"events_site_header":      "upstream.site_header",
	"events_api_timeout":      "upstream.timeout",
	"events_api_max_retries":  "upstream.max_retries",
	"events_api_retry_delay":  "upstream.retry_base_delay",
	"events_page_size":        "upstream.page_size",
	"events_api_rps":          "upstream.requests_per_second",
	"circuit_breaker_enabled": "upstream.circuit_breaker.enabled",
	"enrichment_sources":      "enrichment.sources",
	"enrichment_concurrency":  "enrichment.concurrency",
	"recurring_keywords":      "classifier.recurring_keywords",
	"rsvp_only_keywords":      "classifier.rsvp_only_keywords",
	"high_sales_threshold":    "classifier.high_threshold",
	"medium_sales_threshold":  "classifier.medium_threshold",
	"urgent_days":             "classifier.urgent_days",
	"report_mode":             "report.mode",
	"report_top_n":            "report.top_n",
	"report_timezone":         "report.timezone",
	"venue_name":              "report.venue_name",
	"venue_address":           "report.venue_address",
	"venue_url":               "report.venue_url",
	"http_host":               "server.host",
	"http_port":               "server.port",
	"http_write_timeout":      "server.write_timeout",
	"cors_origins":            "security.cors_origins",
	"rate_limit_requests":     "security.rate_limit_reqs",
	"rate_limit_window":       "security.rate_limit_window",
	"disable_rate_limit":      "security.rate_limit_disabled",
	"cache_backend":           "cache.backend",
	"redis_addr":              "cache.redis_addr",
	"redis_password":          "cache.redis_password",
	"redis_db":                "cache.redis_db",
	"redis_key":               "cache.redis_key",
	"cache_ttl":               "cache.ttl",
	"schedule_enabled":        "schedule.enabled",
	"refresh_cron":            "schedule.refresh_cron",
	"schedule_check_interval": "schedule.check_interval",
	"schedule_run_on_start":   "schedule.run_on_start",
	"pipeline_timeout":        "schedule.pipeline_timeout",
	"schedule_timezone":       "schedule.timezone",
	"email_enabled":           "email.enabled",
	"smtp_host":               "email.smtp_host",
	"smtp_port":               "email.smtp_port",
	"smtp_user":               "email.smtp_user",
	"smtp_password":           "email.smtp_password",
	"smtp_from":               "email.from",
	"smtp_from_name":          "email.from_name",
	"smtp_use_tls":            "email.use_tls",
	"digest_recipients":       "email.recipients",
	"digest_enabled":          "email.digest_enabled",
	"digest_cron":             "email.digest_cron",
	"email_subject_prefix":    "email.subject_prefix",
	"log_level":               "logging.level",
	"log_format":              "logging.format",
	"log_caller":              "logging.caller",
}

func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}

func joinHostPort(host string, port int) string {
	return net.JoinHostPort(host, strconv.Itoa(port))
}
