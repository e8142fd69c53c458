package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load(viper.New(), "")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.APIURL != "http://localhost:3000" {
		t.Errorf("APIURL = %q", cfg.APIURL)
	}
	if cfg.PageSize != 10 {
		t.Errorf("PageSize = %d, want 10", cfg.PageSize)
	}
	if cfg.SearchDebounce != 300*time.Millisecond {
		t.Errorf("SearchDebounce = %v, want 300ms", cfg.SearchDebounce)
	}
	if !strings.HasSuffix(cfg.TokenFile, filepath.Join(AppName, "token")) {
		t.Errorf("TokenFile = %q", cfg.TokenFile)
	}
	if cfg.File != "" {
		t.Errorf("File = %q, want none", cfg.File)
	}
}

func TestLoad_FileAndEnv(t *testing.T) {
	home := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", home)

	dir := filepath.Join(home, AppName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	content := "api_url: https://api.example.com\npage_size: 25\nsearch_debounce: 150ms\nlog_level: DEBUG\n"
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("DASHBOARD_PAGE_SIZE", "50")

	cfg, err := Load(viper.New(), "")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.APIURL != "https://api.example.com" {
		t.Errorf("APIURL = %q", cfg.APIURL)
	}
	if cfg.PageSize != 50 {
		t.Errorf("PageSize = %d, want env override 50", cfg.PageSize)
	}
	if cfg.SearchDebounce != 150*time.Millisecond {
		t.Errorf("SearchDebounce = %v", cfg.SearchDebounce)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
	}
	if cfg.File == "" {
		t.Error("File should name the config file read")
	}
}

func TestLoad_ExplicitFileMustExist(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	_, err := Load(viper.New(), filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("Load() with missing explicit file should fail")
	}
}

func TestValidate(t *testing.T) {
	valid := Config{
		APIURL:    "http://localhost:3000",
		TokenFile: "/tmp/token",
		PageSize:  10,
		LogLevel:  "info",
		UserAgent: "ua",
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantKey string
	}{
		{"valid", func(*Config) {}, ""},
		{"bad url", func(c *Config) { c.APIURL = "localhost" }, KeyAPIURL},
		{"page size zero", func(c *Config) { c.PageSize = 0 }, KeyPageSize},
		{"page size too large", func(c *Config) { c.PageSize = 500 }, KeyPageSize},
		{"unknown level", func(c *Config) { c.LogLevel = "loud" }, KeyLogLevel},
		{"no user agent", func(c *Config) { c.UserAgent = "" }, KeyUserAgent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantKey == "" {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantKey) {
				t.Errorf("Validate() error = %v, want mention of %s", err, tt.wantKey)
			}
		})
	}
}
