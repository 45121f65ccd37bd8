package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestRequireEnv(t *testing.T) {
	tests := []struct {
		name      string
		key       string
		value     string
		shouldSet bool
		wantPanic bool
	}{
		{
			name:      "variable set",
			key:       "TEST_VAR",
			value:     "test_value",
			shouldSet: true,
			wantPanic: false,
		},
		{
			name:      "variable not set",
			key:       "TEST_VAR_MISSING",
			shouldSet: false,
			wantPanic: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.shouldSet {
				t.Setenv(tt.key, tt.value)
			}

			if tt.wantPanic {
				defer func() {
					if r := recover(); r == nil {
						t.Errorf("requireEnv() should have panicked")
					}
				}()
			}

			result := requireEnv(tt.key)
			if !tt.wantPanic && result != tt.value {
				t.Errorf("requireEnv() = %v, want %v", result, tt.value)
			}
		})
	}
}

func TestMustDuration(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		value    string
		def      time.Duration
		expected time.Duration
	}{
		{"valid duration", "TEST_DURATION", "5s", time.Second, 5 * time.Second},
		{"bare seconds", "TEST_DURATION_SECS", "300", time.Second, 300 * time.Second},
		{"invalid duration uses default", "TEST_DURATION_INVALID", "invalid", 10 * time.Second, 10 * time.Second},
		{"missing variable uses default", "TEST_DURATION_MISSING", "", 15 * time.Second, 15 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value != "" {
				t.Setenv(tt.key, tt.value)
			}
			if got := mustDuration(tt.key, tt.def); got != tt.expected {
				t.Errorf("mustDuration() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestMustBool(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		value    string
		def      bool
		expected bool
	}{
		{"true value", "TEST_BOOL", "true", false, true},
		{"false value", "TEST_BOOL_FALSE", "false", true, false},
		{"invalid value uses default", "TEST_BOOL_INVALID", "invalid", true, true},
		{"missing variable uses default", "TEST_BOOL_MISSING", "", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value != "" {
				t.Setenv(tt.key, tt.value)
			}
			if got := mustBool(tt.key, tt.def); got != tt.expected {
				t.Errorf("mustBool() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestSplitAndTrim(t *testing.T) {
	got := splitAndTrim(` 10.0.0.0/8, "127.0.0.1" ,,'::1' `)
	want := []string{"10.0.0.0/8", "127.0.0.1", "::1"}
	if len(got) != len(want) {
		t.Fatalf("splitAndTrim() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("splitAndTrim()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PSHARE_WEBHOOK_SECRET", "s3cret")

	cfg := Load()
	if cfg.ShareTTL != 300*time.Second {
		t.Errorf("ShareTTL = %v, want 300s", cfg.ShareTTL)
	}
	if cfg.RateLimitPoints != 10 || cfg.RateLimitWindow != time.Minute {
		t.Errorf("rate limit = %d/%v, want 10/1m", cfg.RateLimitPoints, cfg.RateLimitWindow)
	}
	if cfg.StoreBackend != StoreMemory || cfg.AuditDriver != AuditSQLite {
		t.Errorf("backends = %s/%s", cfg.StoreBackend, cfg.AuditDriver)
	}
	if cfg.SigningEndpoint {
		t.Error("signing endpoint should be disabled by default")
	}
	if cfg.NeedsRedis() {
		t.Error("NeedsRedis() = true with memory backends")
	}
}

func TestLoadPanics(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing secret", map[string]string{}},
		{"unknown store", map[string]string{"PSHARE_WEBHOOK_SECRET": "x", "PSHARE_STORE_BACKEND": "etcd"}},
		{"redis without addr", map[string]string{"PSHARE_WEBHOOK_SECRET": "x", "PSHARE_RATE_LIMIT_BACKEND": "redis"}},
		{"zero points", map[string]string{"PSHARE_WEBHOOK_SECRET": "x", "PSHARE_RATE_LIMIT_POINTS": "0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("PSHARE_WEBHOOK_SECRET", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			defer func() {
				if r := recover(); r == nil {
					t.Error("Load() should have panicked")
				}
			}()
			Load()
		})
	}
}

func TestLoadOverlayFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "patientshare.yaml")
	yaml := `
webhook_secret: from-file
base_url: https://share.example.org
share_ttl: 120s
rate_limit:
  points: 20
  window: 30s
allowed_cidrs:
  - 10.0.0.0/8
  - 192.168.0.0/16
store_backend: redis
redis:
  addr: localhost:6379
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PSHARE_CONFIG_FILE", path)
	t.Setenv("PSHARE_RATE_LIMIT_POINTS", "5") // env wins over file

	cfg := Load()
	if cfg.WebhookSecret != "from-file" {
		t.Errorf("WebhookSecret = %q", cfg.WebhookSecret)
	}
	if cfg.BaseURL != "https://share.example.org" {
		t.Errorf("BaseURL = %q", cfg.BaseURL)
	}
	if cfg.ShareTTL != 120*time.Second {
		t.Errorf("ShareTTL = %v", cfg.ShareTTL)
	}
	if cfg.RateLimitPoints != 5 {
		t.Errorf("RateLimitPoints = %d, want env override 5", cfg.RateLimitPoints)
	}
	if cfg.RateLimitWindow != 30*time.Second {
		t.Errorf("RateLimitWindow = %v", cfg.RateLimitWindow)
	}
	if len(cfg.AllowedCIDRS) != 2 || cfg.AllowedCIDRS[1] != "192.168.0.0/16" {
		t.Errorf("AllowedCIDRS = %v", cfg.AllowedCIDRS)
	}
	if cfg.RedisAddr != "localhost:6379" || !cfg.NeedsRedis() {
		t.Errorf("redis = %q needs=%v", cfg.RedisAddr, cfg.NeedsRedis())
	}
}

func TestReadOverlayErrors(t *testing.T) {
	if _, err := readOverlay(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("readOverlay() on missing file should fail")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("rate_limit: [unclosed"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := readOverlay(path); err == nil {
		t.Error("readOverlay() on invalid yaml should fail")
	}
}
