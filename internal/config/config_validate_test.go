// Listening Booth Dashboard - Event Aggregation and Reporting
// Copyright 2026 Marissa Lerer
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marissalerer/listening-booth-dashboard

package config

import (
	"strings"
	"testing"
)

func validConfig() *Config {
	cfg := defaultConfig()
	cfg.Upstream.BaseURL = "https://api.example.test"
	cfg.Upstream.Token = "tok"
	cfg.Upstream.SiteID = "site"
	return cfg
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid defaults", func(*Config) {}, ""},
		{"bad url scheme", func(c *Config) { c.Upstream.BaseURL = "ftp://x" }, "scheme must be http or https"},
		{"url without host", func(c *Config) { c.Upstream.BaseURL = "https://" }, "missing host"},
		{"zero concurrency", func(c *Config) { c.Enrichment.Concurrency = 0 }, "ENRICHMENT_CONCURRENCY"},
		{"unknown source", func(c *Config) { c.Enrichment.Sources = []string{"bookings"} }, "unknown source"},
		{"inverted thresholds", func(c *Config) { c.Classifier.HighThreshold = 5 }, "must exceed"},
		{"rule without keywords", func(c *Config) {
			c.Classifier.TypeRules = []TypeRule{{Type: "Workshop"}}
		}, "has no keywords"},
		{"bad mode", func(c *Config) { c.Report.Mode = "future" }, "REPORT_MODE"},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }, "HTTP_PORT"},
		{"bad backend", func(c *Config) { c.Cache.Backend = "memcached" }, "CACHE_BACKEND"},
		{"redis without addr", func(c *Config) {
			c.Cache.Backend = "redis"
			c.Cache.RedisAddr = ""
		}, "REDIS_ADDR"},
		{"bad cron", func(c *Config) { c.Schedule.RefreshCron = "hourly" }, "REFRESH_CRON"},
		{"disabled schedule skips cron", func(c *Config) {
			c.Schedule.Enabled = false
			c.Schedule.RefreshCron = ""
		}, ""},
		{"email without host", func(c *Config) { c.Email.Enabled = true }, "SMTP_HOST"},
		{"digest without recipients", func(c *Config) {
			c.Email.Enabled = true
			c.Email.SMTPHost = "smtp.test"
			c.Email.From = "booth@example.test"
			c.Email.DigestEnabled = true
		}, "DIGEST_RECIPIENTS"},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, "LOG_FORMAT"},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }, "LOG_LEVEL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}
