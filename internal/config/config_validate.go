// Listening Booth Dashboard - Event Aggregation and Reporting
// Copyright 2026 Marissa Lerer
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marissalerer/listening-booth-dashboard

package config

import (
	"fmt"
	"net/url"
	"strings"
)

// knownSources are the enrichment sources the pipeline can build.
var knownSources = map[string]bool{
	"rsvps":   true,
	"tickets": true,
	"orders":  true,
}

// Validate checks the configuration. A missing upstream credential is a
// fatal configuration error and must stop the process before any network
// call is made.
func (c *Config) Validate() error {
	if err := c.validateUpstream(); err != nil {
		return err
	}
	if err := c.validateEnrichment(); err != nil {
		return err
	}
	if err := c.validateClassifier(); err != nil {
		return err
	}
	if err := c.validateReport(); err != nil {
		return err
	}
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateCache(); err != nil {
		return err
	}
	if err := c.validateSchedule(); err != nil {
		return err
	}
	if err := c.validateEmail(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateUpstream() error {
	u := c.Upstream
	if u.BaseURL == "" {
		return fmt.Errorf("EVENTS_API_URL is required")
	}
	if err := validateHTTPURL(u.BaseURL); err != nil {
		return fmt.Errorf("EVENTS_API_URL is invalid: %w", err)
	}
	if u.Token == "" {
		return fmt.Errorf("EVENTS_API_TOKEN is required")
	}
	if u.SiteID == "" {
		return fmt.Errorf("EVENTS_SITE_ID is required")
	}
	if u.Timeout <= 0 {
		return fmt.Errorf("upstream.timeout must be positive, got %v", u.Timeout)
	}
	if u.MaxRetries < 0 {
		return fmt.Errorf("upstream.max_retries must be >= 0, got %d", u.MaxRetries)
	}
	if u.PageSize <= 0 {
		return fmt.Errorf("upstream.page_size must be positive, got %d", u.PageSize)
	}
	if u.RequestsPerSecond < 0 {
		return fmt.Errorf("upstream.requests_per_second must be >= 0, got %v", u.RequestsPerSecond)
	}
	if cb := u.CircuitBreaker; cb.Enabled && (cb.FailureRatio <= 0 || cb.FailureRatio > 1) {
		return fmt.Errorf("upstream.circuit_breaker.failure_ratio must be in (0,1], got %v", cb.FailureRatio)
	}
	return nil
}

func (c *Config) validateEnrichment() error {
	if c.Enrichment.Concurrency <= 0 {
		return fmt.Errorf("ENRICHMENT_CONCURRENCY must be positive, got %d", c.Enrichment.Concurrency)
	}
	for _, s := range c.Enrichment.Sources {
		if !knownSources[strings.ToLower(s)] {
			return fmt.Errorf("ENRICHMENT_SOURCES contains unknown source %q (valid: rsvps, tickets, orders)", s)
		}
	}
	return nil
}

func (c *Config) validateClassifier() error {
	cl := c.Classifier
	if cl.HighThreshold <= cl.MediumThreshold {
		return fmt.Errorf("classifier.high_threshold (%d) must exceed medium_threshold (%d)", cl.HighThreshold, cl.MediumThreshold)
	}
	if cl.MediumThreshold <= 0 {
		return fmt.Errorf("classifier.medium_threshold must be positive, got %d", cl.MediumThreshold)
	}
	if cl.UrgentDays < 0 {
		return fmt.Errorf("classifier.urgent_days must be >= 0, got %d", cl.UrgentDays)
	}
	for i, rule := range cl.TypeRules {
		if rule.Type == "" {
			return fmt.Errorf("classifier.type_rules[%d] has no type", i)
		}
		if len(rule.Keywords) == 0 {
			return fmt.Errorf("classifier.type_rules[%d] (%s) has no keywords", i, rule.Type)
		}
	}
	return nil
}

func (c *Config) validateReport() error {
	switch c.Report.Mode {
	case "upcoming", "past", "all":
	default:
		return fmt.Errorf("REPORT_MODE must be upcoming, past or all, got %q", c.Report.Mode)
	}
	if c.Report.TopN <= 0 {
		return fmt.Errorf("REPORT_TOP_N must be positive, got %d", c.Report.TopN)
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if !c.Security.RateLimitDisabled && c.Security.RateLimitReqs <= 0 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be positive when rate limiting is enabled")
	}
	return nil
}

func (c *Config) validateCache() error {
	switch c.Cache.Backend {
	case "memory":
		return nil
	case "redis":
		if c.Cache.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required when CACHE_BACKEND=redis")
		}
		if c.Cache.RedisKey == "" {
			return fmt.Errorf("cache.redis_key must not be empty")
		}
		return nil
	default:
		return fmt.Errorf("CACHE_BACKEND must be memory or redis, got %q", c.Cache.Backend)
	}
}

func (c *Config) validateSchedule() error {
	if !c.Schedule.Enabled {
		return nil
	}
	if err := validateCronFields(c.Schedule.RefreshCron); err != nil {
		return fmt.Errorf("REFRESH_CRON is invalid: %w", err)
	}
	if c.Schedule.CheckInterval <= 0 {
		return fmt.Errorf("schedule.check_interval must be positive, got %v", c.Schedule.CheckInterval)
	}
	return nil
}

func (c *Config) validateEmail() error {
	e := c.Email
	if !e.Enabled {
		return nil
	}
	if e.SMTPHost == "" {
		return fmt.Errorf("SMTP_HOST is required when EMAIL_ENABLED=true")
	}
	if e.SMTPPort < 1 || e.SMTPPort > 65535 {
		return fmt.Errorf("SMTP_PORT must be between 1 and 65535, got %d", e.SMTPPort)
	}
	if e.From == "" {
		return fmt.Errorf("SMTP_FROM is required when EMAIL_ENABLED=true")
	}
	if e.DigestEnabled {
		if len(e.Recipients) == 0 {
			return fmt.Errorf("DIGEST_RECIPIENTS is required when DIGEST_ENABLED=true")
		}
		if err := validateCronFields(e.DigestCron); err != nil {
			return fmt.Errorf("DIGEST_CRON is invalid: %w", err)
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "disabled", "off":
	default:
		return fmt.Errorf("LOG_LEVEL %q is not a valid level", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
		return nil
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}
}

func validateHTTPURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("missing host")
	}
	return nil
}

// validateCronFields performs a shallow syntax check. Full parsing happens
// in the scheduler when jobs are registered.
func validateCronFields(expr string) error {
	if n := len(strings.Fields(expr)); n != 5 {
		return fmt.Errorf("expected 5 fields, got %d", n)
	}
	return nil
}
