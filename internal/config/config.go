// Listening Booth Dashboard - Event Aggregation and Reporting
// Copyright 2026 Marissa Lerer
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marissalerer/listening-booth-dashboard

// Package config loads application configuration from defaults, an optional
// YAML file and environment variables. See LoadWithKoanf for precedence.
package config

import (
	"time"
)

// Config is the complete application configuration.
type Config struct {
	Upstream   UpstreamConfig   `koanf:"upstream"`
	Enrichment EnrichmentConfig `koanf:"enrichment"`
	Classifier ClassifierConfig `koanf:"classifier"`
	Report     ReportConfig     `koanf:"report"`
	Server     ServerConfig     `koanf:"server"`
	Security   SecurityConfig   `koanf:"security"`
	Cache      CacheConfig      `koanf:"cache"`
	Schedule   ScheduleConfig   `koanf:"schedule"`
	Email      EmailConfig      `koanf:"email"`
	Logging    LoggingConfig    `koanf:"logging"`
}

// UpstreamConfig describes the third-party event-management API.
type UpstreamConfig struct {
	// BaseURL is the API root, e.g. https://api.example.com/v1
	BaseURL string `koanf:"base_url"`

	// Token is sent as "Authorization: Bearer <token>".
	Token string `koanf:"token"`

	// SiteID is sent in the SiteHeader header on every request.
	SiteID     string `koanf:"site_id"`
	SiteHeader string `koanf:"site_header"`

	// Timeout is the per-request connect+read timeout.
	Timeout time.Duration `koanf:"timeout"`

	// MaxRetries bounds retries on HTTP 429. Delay grows linearly from
	// RetryBaseDelay.
	MaxRetries     int           `koanf:"max_retries"`
	RetryBaseDelay time.Duration `koanf:"retry_base_delay"`

	// PageSize is the list-events batch size. MaxPages guards runaway paging.
	PageSize int `koanf:"page_size"`
	MaxPages int `koanf:"max_pages"`

	// RequestsPerSecond paces outbound requests. Zero disables pacing.
	RequestsPerSecond float64 `koanf:"requests_per_second"`
	Burst             int     `koanf:"burst"`

	CircuitBreaker CircuitBreakerConfig `koanf:"circuit_breaker"`
}

// CircuitBreakerConfig configures the optional upstream circuit breaker.
type CircuitBreakerConfig struct {
	Enabled      bool          `koanf:"enabled"`
	MaxRequests  uint32        `koanf:"max_requests"`
	Interval     time.Duration `koanf:"interval"`
	Timeout      time.Duration `koanf:"timeout"`
	MinRequests  uint32        `koanf:"min_requests"`
	FailureRatio float64       `koanf:"failure_ratio"`
}

// EnrichmentConfig controls the per-event secondary fetches.
type EnrichmentConfig struct {
	// Sources lists enabled enrichment sources: rsvps, tickets, orders.
	Sources []string `koanf:"sources"`

	// Concurrency caps outstanding per-event fetches.
	Concurrency int `koanf:"concurrency"`
}

// TypeRule maps title keywords to an event type. Rules are evaluated in
// order and the first rule with a matching keyword wins.
type TypeRule struct {
	Type     string   `koanf:"type"`
	Keywords []string `koanf:"keywords"`
}

// ClassifierConfig holds the keyword tables and sales thresholds.
type ClassifierConfig struct {
	// TypeRules overrides the built-in type table when non-empty.
	TypeRules []TypeRule `koanf:"type_rules"`

	RecurringKeywords []string `koanf:"recurring_keywords"`
	RSVPOnlyKeywords  []string `koanf:"rsvp_only_keywords"`

	HighThreshold   int `koanf:"high_threshold"`
	MediumThreshold int `koanf:"medium_threshold"`
	UrgentDays      int `koanf:"urgent_days"`
}

// ReportConfig controls aggregation and presentation.
type ReportConfig struct {
	// Mode is the default report mode: upcoming, past or all.
	Mode         string `koanf:"mode"`
	TopN         int    `koanf:"top_n"`
	ThisWeekDays int    `koanf:"this_week_days"`

	// Timezone formats event dates. Empty means the process local zone.
	Timezone string `koanf:"timezone"`

	VenueName    string `koanf:"venue_name"`
	VenueAddress string `koanf:"venue_address"`
	VenueURL     string `koanf:"venue_url"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// SecurityConfig holds CORS and rate limiting for the HTTP surface.
type SecurityConfig struct {
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// CacheConfig selects where the latest report is held.
type CacheConfig struct {
	// Backend is "memory" or "redis".
	Backend string `koanf:"backend"`

	RedisAddr     string        `koanf:"redis_addr"`
	RedisPassword string        `koanf:"redis_password"`
	RedisDB       int           `koanf:"redis_db"`
	RedisKey      string        `koanf:"redis_key"`
	TTL           time.Duration `koanf:"ttl"`
}

// ScheduleConfig controls the background refresh loop of the server.
type ScheduleConfig struct {
	Enabled bool `koanf:"enabled"`

	// RefreshCron is a five-field cron expression. Default: hourly.
	RefreshCron string `koanf:"refresh_cron"`

	// CheckInterval is how often due jobs are evaluated.
	CheckInterval time.Duration `koanf:"check_interval"`

	RunOnStart bool `koanf:"run_on_start"`

	// PipelineTimeout bounds one scheduled run. Zero means no bound.
	PipelineTimeout time.Duration `koanf:"pipeline_timeout"`

	// Timezone evaluates cron expressions. Empty means UTC.
	Timezone string `koanf:"timezone"`
}

// EmailConfig configures SMTP digest delivery.
type EmailConfig struct {
	Enabled      bool          `koanf:"enabled"`
	SMTPHost     string        `koanf:"smtp_host"`
	SMTPPort     int           `koanf:"smtp_port"`
	SMTPUser     string        `koanf:"smtp_user"`
	SMTPPassword string        `koanf:"smtp_password"`
	From         string        `koanf:"from"`
	FromName     string        `koanf:"from_name"`
	UseTLS       bool          `koanf:"use_tls"`
	Timeout      time.Duration `koanf:"timeout"`

	// Recipients receive the scheduled digest.
	Recipients    []string `koanf:"recipients"`
	DigestEnabled bool     `koanf:"digest_enabled"`
	DigestCron    string   `koanf:"digest_cron"`
	SubjectPrefix string   `koanf:"subject_prefix"`
}

// LoggingConfig is passed to logging.Init.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Load reads configuration using LoadWithKoanf.
func Load() (*Config, error) {
	return LoadWithKoanf()
}

// Addr returns host:port for the HTTP listener.
func (s ServerConfig) Addr() string {
	return joinHostPort(s.Host, s.Port)
}

// Location resolves the report timezone, falling back to time.Local.
func (r ReportConfig) Location() *time.Location {
	if r.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(r.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// Location resolves the cron timezone, falling back to UTC.
func (s ScheduleConfig) Location() *time.Location {
	if s.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
