// Listening Booth Dashboard - Event Aggregation and Reporting
// Copyright 2026 Marissa Lerer
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/marissalerer/listening-booth-dashboard

package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("EVENTS_API_URL", "https://api.example.test/v1")
	t.Setenv("EVENTS_API_TOKEN", "secret-token")
	t.Setenv("EVENTS_SITE_ID", "site-42")
	t.Setenv(ConfigPathEnvVar, "")
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Upstream.Timeout != 10*time.Second {
		t.Errorf("Upstream.Timeout = %v, want 10s", cfg.Upstream.Timeout)
	}
	if cfg.Upstream.MaxRetries != 3 {
		t.Errorf("Upstream.MaxRetries = %d, want 3", cfg.Upstream.MaxRetries)
	}
	if cfg.Upstream.PageSize != 100 {
		t.Errorf("Upstream.PageSize = %d, want 100", cfg.Upstream.PageSize)
	}
	if cfg.Upstream.CircuitBreaker.Enabled {
		t.Error("circuit breaker should be disabled by default")
	}
	if cfg.Enrichment.Concurrency != 5 {
		t.Errorf("Enrichment.Concurrency = %d, want 5", cfg.Enrichment.Concurrency)
	}
	if want := []string{"rsvps", "tickets", "orders"}; !reflect.DeepEqual(cfg.Enrichment.Sources, want) {
		t.Errorf("Enrichment.Sources = %v, want %v", cfg.Enrichment.Sources, want)
	}
	if cfg.Classifier.HighThreshold != 25 || cfg.Classifier.MediumThreshold != 10 || cfg.Classifier.UrgentDays != 7 {
		t.Errorf("classifier thresholds = %+v", cfg.Classifier)
	}
	if cfg.Report.TopN != 5 {
		t.Errorf("Report.TopN = %d, want 5", cfg.Report.TopN)
	}
	if cfg.Schedule.RefreshCron != "0 * * * *" {
		t.Errorf("Schedule.RefreshCron = %q, want hourly", cfg.Schedule.RefreshCron)
	}
	if cfg.Cache.Backend != "memory" {
		t.Errorf("Cache.Backend = %q, want memory", cfg.Cache.Backend)
	}
	if cfg.Upstream.Token != "" || cfg.Upstream.SiteID != "" {
		t.Error("credentials must not have defaults")
	}
}

func TestEnvTransformFunc(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"EVENTS_API_URL", "upstream.base_url"},
		{"EVENTS_API_TOKEN", "upstream.token"},
		{"EVENTS_SITE_ID", "upstream.site_id"},
		{"HTTP_PORT", "server.port"},
		{"LOG_LEVEL", "logging.level"},
		{"REFRESH_CRON", "schedule.refresh_cron"},
		{"DIGEST_RECIPIENTS", "email.recipients"},
		{"log_format", "logging.format"},
		{"PATH", ""},
		{"HOME", ""},
	}
	for _, tt := range tests {
		if got := envTransformFunc(tt.in); got != tt.want {
			t.Errorf("envTransformFunc(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLoadWithKoanfEnvVars(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("HTTP_PORT", "9000")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("ENRICHMENT_CONCURRENCY", "8")
	t.Setenv("ENRICHMENT_SOURCES", "rsvps, tickets")
	t.Setenv("CORS_ORIGINS", "https://a.test,https://b.test")
	t.Setenv("EVENTS_API_TIMEOUT", "5s")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}

	if cfg.Upstream.BaseURL != "https://api.example.test/v1" {
		t.Errorf("BaseURL = %q", cfg.Upstream.BaseURL)
	}
	if cfg.Upstream.Token != "secret-token" {
		t.Errorf("Token = %q", cfg.Upstream.Token)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("Server.Port = %d, want 9000", cfg.Server.Port)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
	if cfg.Enrichment.Concurrency != 8 {
		t.Errorf("Enrichment.Concurrency = %d, want 8", cfg.Enrichment.Concurrency)
	}
	if want := []string{"rsvps", "tickets"}; !reflect.DeepEqual(cfg.Enrichment.Sources, want) {
		t.Errorf("Enrichment.Sources = %v, want %v", cfg.Enrichment.Sources, want)
	}
	if len(cfg.Security.CORSOrigins) != 2 {
		t.Errorf("CORSOrigins = %v, want 2 entries", cfg.Security.CORSOrigins)
	}
	if cfg.Upstream.Timeout != 5*time.Second {
		t.Errorf("Upstream.Timeout = %v, want 5s", cfg.Upstream.Timeout)
	}
}

func TestLoadWithKoanfConfigFile(t *testing.T) {
	setRequiredEnv(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
report:
  mode: past
  top_n: 3
  venue_name: Basement Stage
classifier:
  type_rules:
    - type: Workshop
      keywords: ["masterclass"]
server:
  port: 8088
logging:
  level: warn
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("HTTP_PORT", "9999")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}

	if cfg.Report.Mode != "past" {
		t.Errorf("Report.Mode = %q, want past", cfg.Report.Mode)
	}
	if cfg.Report.TopN != 3 {
		t.Errorf("Report.TopN = %d, want 3", cfg.Report.TopN)
	}
	if cfg.Report.VenueName != "Basement Stage" {
		t.Errorf("Report.VenueName = %q", cfg.Report.VenueName)
	}
	if len(cfg.Classifier.TypeRules) != 1 || cfg.Classifier.TypeRules[0].Keywords[0] != "masterclass" {
		t.Errorf("TypeRules = %+v", cfg.Classifier.TypeRules)
	}
	if cfg.Server.Port != 9999 {
		t.Errorf("env should override file: Server.Port = %d, want 9999", cfg.Server.Port)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Logging.Level = %q, want warn", cfg.Logging.Level)
	}
	if cfg.Upstream.PageSize != 100 {
		t.Errorf("defaults should survive file layer: PageSize = %d", cfg.Upstream.PageSize)
	}
}

func TestLoadWithKoanfMissingCredentials(t *testing.T) {
	tests := []struct {
		name    string
		unset   string
		wantErr string
	}{
		{"missing url", "EVENTS_API_URL", "EVENTS_API_URL is required"},
		{"missing token", "EVENTS_API_TOKEN", "EVENTS_API_TOKEN is required"},
		{"missing site", "EVENTS_SITE_ID", "EVENTS_SITE_ID is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv(tt.unset, "")

			_, err := LoadWithKoanf()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestFindConfigFile(t *testing.T) {
	t.Run("CONFIG_PATH takes precedence", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "custom.yaml")
		if err := os.WriteFile(path, []byte("report: {}"), 0o600); err != nil {
			t.Fatal(err)
		}
		t.Setenv(ConfigPathEnvVar, path)
		if got := findConfigFile(); got != path {
			t.Errorf("findConfigFile() = %q, want %q", got, path)
		}
	})

	t.Run("missing CONFIG_PATH file is ignored", func(t *testing.T) {
		t.Setenv(ConfigPathEnvVar, "/does/not/exist.yaml")
		if got := findConfigFile(); got == "/does/not/exist.yaml" {
			t.Errorf("findConfigFile() returned missing path")
		}
	})
}

func TestSplitList(t *testing.T) {
	t.Parallel()

	got := splitList(" a, b ,,c ")
	if want := []string{"a", "b", "c"}; !reflect.DeepEqual(got, want) {
		t.Errorf("splitList() = %v, want %v", got, want)
	}
	if got := splitList(" , "); len(got) != 0 {
		t.Errorf("splitList(blank) = %v, want empty", got)
	}
}

func TestServerAddr(t *testing.T) {
	t.Parallel()

	if got := (ServerConfig{Host: "0.0.0.0", Port: 3000}).Addr(); got != "0.0.0.0:3000" {
		t.Errorf("Addr() = %q", got)
	}
}
