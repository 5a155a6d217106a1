package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/osvaldoandrade/soapgate/pkg/domain"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(p, []byte(body), 0644); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}
	return p
}

// TestLoadConfigOptional_EmptyPath tests loading when file path is empty
func TestLoadConfigOptional_EmptyPath(t *testing.T) {
	t.Setenv("PORT", "9999")

	cfg, err := LoadConfigOptional("")
	if err != nil {
		t.Fatalf("LoadConfigOptional with empty path should not error: %v", err)
	}
	if cfg.Port != 9999 {
		t.Errorf("Expected Port=9999 from env, got %d", cfg.Port)
	}
}

func TestLoadConfigOptional_WhitespacePath(t *testing.T) {
	cfg, err := LoadConfigOptional("   ")
	if err != nil {
		t.Fatalf("LoadConfigOptional with whitespace path should not error: %v", err)
	}
	if cfg == nil {
		t.Fatal("Expected non-nil config")
	}
}

func TestLoadConfigOptional_FileNotExist(t *testing.T) {
	cfg, err := LoadConfigOptional(filepath.Join(t.TempDir(), "config-does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("LoadConfigOptional with non-existent file should not error: %v", err)
	}
	if cfg == nil {
		t.Fatal("Expected non-nil config")
	}
}

func TestLoadConfig_FileNotExist(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("LoadConfig must fail for a missing file")
	}
}

func TestLoadConfigOptional_InvalidYAML(t *testing.T) {
	p := writeConfig(t, `
port: 8080
baseUrl: "http://svc"
  invalid indentation here
`)
	if _, err := LoadConfigOptional(p); err == nil {
		t.Fatal("Expected error when loading invalid YAML, got nil")
	}
}

func TestLoadConfigOptional_InvalidMode(t *testing.T) {
	p := writeConfig(t, "mode: loud\n")
	if _, err := LoadConfigOptional(p); err == nil {
		t.Fatal("Expected error for an unknown mode")
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfigOptional("")
	if err != nil {
		t.Fatalf("LoadConfigOptional: %v", err)
	}
	if cfg.Port != 8080 || cfg.Env != "dev" {
		t.Errorf("port/env = %d/%q", cfg.Port, cfg.Env)
	}
	if cfg.Mode != domain.ModeSilent || cfg.ThrowErrors {
		t.Errorf("mode/throw = %q/%t", cfg.Mode, cfg.ThrowErrors)
	}
	if cfg.TimeoutSeconds != 5 || cfg.Timeout().Seconds() != 5 {
		t.Errorf("timeout = %d", cfg.TimeoutSeconds)
	}
	if cfg.LogChannel != "SoapHandler" {
		t.Errorf("logChannel = %q", cfg.LogChannel)
	}
	if cfg.AuditRetentionSeconds != 86400 || cfg.AuditMaxPerMethod != 1000 {
		t.Errorf("audit = %d/%d", cfg.AuditRetentionSeconds, cfg.AuditMaxPerMethod)
	}
	if cfg.Tracing.ServiceName != "soapgate" {
		t.Errorf("tracing service = %q", cfg.Tracing.ServiceName)
	}
}

func TestLoadConfigOptional_ValidConfig(t *testing.T) {
	p := writeConfig(t, `
port: 8081
env: test
baseUrl: "http://legacy.local"
endpoint: "users.asmx?wsdl"
mode: debug
throwErrors: true
timeoutSeconds: 12
soap:
  login: svc
  password: pw
  soapVersion: "1.2"
redisAddr: "localhost:6379"
redisPassword: "secret"
authProvider: static
authConfig:
  token: t-1
rateLimit:
  callers:
    requests: 10
    windowSeconds: 60
`)
	cfg, err := LoadConfigOptional(p)
	if err != nil {
		t.Fatalf("LoadConfigOptional with valid config should not error: %v", err)
	}
	if cfg.Port != 8081 || cfg.Env != "test" {
		t.Errorf("port/env = %d/%q", cfg.Port, cfg.Env)
	}
	if cfg.BaseURL != "http://legacy.local" || cfg.Endpoint != "users.asmx?wsdl" {
		t.Errorf("baseUrl/endpoint = %q/%q", cfg.BaseURL, cfg.Endpoint)
	}
	if !cfg.IsDebug() || !cfg.ThrowErrors || cfg.TimeoutSeconds != 12 {
		t.Errorf("mode=%q throw=%t timeout=%d", cfg.Mode, cfg.ThrowErrors, cfg.TimeoutSeconds)
	}
	if cfg.SOAP.Login != "svc" || cfg.SOAP.Password != "pw" || cfg.SOAP.SOAPVersion != "1.2" {
		t.Errorf("soap = %+v", cfg.SOAP)
	}
	if cfg.RedisPassword != "secret" {
		t.Errorf("Expected RedisPassword='secret', got %q", cfg.RedisPassword)
	}
	if cfg.RateLimit.Callers.Requests != 10 || cfg.RateLimit.Callers.WindowSeconds != 60 {
		t.Errorf("rateLimit = %+v", cfg.RateLimit)
	}
	raw, err := cfg.AuthConfigJSON()
	if err != nil || string(raw) != `{"token":"t-1"}` {
		t.Errorf("AuthConfigJSON() = %s, %v", raw, err)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestLoadConfigOptional_EnvOverrides(t *testing.T) {
	p := writeConfig(t, `
port: 8080
baseUrl: "http://file.local"
redisAddr: "localhost:6379"
redisPassword: "file-password"
mode: silent
`)
	t.Setenv("PORT", "9090")
	t.Setenv("SOAP_BASE_URL", "https://env.local")
	t.Setenv("SOAP_MODE", "DEBUG")
	t.Setenv("SOAP_THROW_ERRORS", "true")
	t.Setenv("SOAP_TIMEOUT_SECONDS", "3")
	t.Setenv("SOAP_PASSWORD", "env-soap")
	t.Setenv("REDIS_ADDR", "env-redis:6380")
	t.Setenv("REDIS_PASSWORD", "env-password")
	t.Setenv("LOG_CHANNEL", "Billing")
	t.Setenv("AUTH_PROVIDER", "hmac")
	t.Setenv("AUTH_CONFIG", `{"secret":"s"}`)
	t.Setenv("OTEL_ENABLED", "true")
	t.Setenv("OTEL_SAMPLE_RATIO", "0.25")

	cfg, err := LoadConfigOptional(p)
	if err != nil {
		t.Fatalf("LoadConfigOptional should not error: %v", err)
	}
	if cfg.Port != 9090 || cfg.BaseURL != "https://env.local" {
		t.Errorf("port/baseUrl = %d/%q", cfg.Port, cfg.BaseURL)
	}
	if cfg.Mode != domain.ModeDebug || !cfg.ThrowErrors || cfg.TimeoutSeconds != 3 {
		t.Errorf("mode=%q throw=%t timeout=%d", cfg.Mode, cfg.ThrowErrors, cfg.TimeoutSeconds)
	}
	if cfg.SOAP.Password != "env-soap" {
		t.Errorf("soap password not overridden")
	}
	if cfg.RedisAddr != "env-redis:6380" || cfg.RedisPassword != "env-password" {
		t.Errorf("redis = %q/%q", cfg.RedisAddr, cfg.RedisPassword)
	}
	if cfg.LogChannel != "Billing" || cfg.AuthProvider != "hmac" || cfg.AuthConfig["secret"] != "s" {
		t.Errorf("channel=%q provider=%q authConfig=%v", cfg.LogChannel, cfg.AuthProvider, cfg.AuthConfig)
	}
	if !cfg.Tracing.Enabled || cfg.Tracing.SampleRatio != 0.25 {
		t.Errorf("tracing = %+v", cfg.Tracing)
	}
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()
	valid := func() *Config {
		c := &Config{BaseURL: "http://svc.local"}
		c.applyDefaults()
		return c
	}

	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"ok", func(*Config) {}, ""},
		{"missing base url", func(c *Config) { c.BaseURL = "" }, "baseUrl is required"},
		{"bad base url", func(c *Config) { c.BaseURL = "ftp://svc" }, "valid http(s) URL"},
		{"bad mode", func(c *Config) { c.Mode = "loud" }, "mode must be"},
		{"bad level", func(c *Config) { c.LogLevel = "trace" }, "logLevel"},
		{"bad format", func(c *Config) { c.LogFormat = "xml" }, "logFormat"},
		{"log path dir", func(c *Config) { c.LogPath = dir }, "logPath"},
		{"prod needs auth", func(c *Config) { c.Env = "prod" }, "authProvider is required"},
		{"prod with auth", func(c *Config) { c.Env = "prod"; c.AuthProvider = "static" }, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := valid()
			tc.mutate(c)
			err := c.Validate()
			if tc.want == "" {
				if err != nil {
					t.Fatalf("Validate() = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("Validate() = %v, want %q", err, tc.want)
			}
		})
	}
}
