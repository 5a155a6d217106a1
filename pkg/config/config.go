package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/osvaldoandrade/soapgate/pkg/domain"
	"github.com/osvaldoandrade/soapgate/pkg/soap"

	"gopkg.in/yaml.v3"
)

type RateLimitBucketConfig struct {
	Requests      int `yaml:"requests"`
	WindowSeconds int `yaml:"windowSeconds"`
}

type RateLimitConfig struct {
	Callers RateLimitBucketConfig `yaml:"callers"`
	Admin   RateLimitBucketConfig `yaml:"admin"`
}

type TracingConfig struct {
	Enabled      bool    `yaml:"enabled"`
	ServiceName  string  `yaml:"serviceName"`
	OTLPEndpoint string  `yaml:"otlpEndpoint"`
	OTLPInsecure bool    `yaml:"otlpInsecure"`
	SampleRatio  float64 `yaml:"sampleRatio"`
}

type Config struct {
	Port int    `yaml:"port"`
	Env  string `yaml:"env"`

	BaseURL        string       `yaml:"baseUrl"`
	Endpoint       string       `yaml:"endpoint"`
	Mode           domain.Mode  `yaml:"mode"`
	ThrowErrors    bool         `yaml:"throwErrors"`
	TimeoutSeconds int          `yaml:"timeoutSeconds"`
	SOAP           soap.Options `yaml:"soap"`

	LogLevel   string `yaml:"logLevel"`
	LogFormat  string `yaml:"logFormat"`
	LogPath    string `yaml:"logPath"`
	LogChannel string `yaml:"logChannel"`

	RedisAddr             string `yaml:"redisAddr"`
	RedisPassword         string `yaml:"redisPassword"`
	AuditRetentionSeconds int    `yaml:"auditRetentionSeconds"`
	AuditMaxPerMethod     int    `yaml:"auditMaxPerMethod"`

	AuthProvider string         `yaml:"authProvider"`
	AuthConfig   map[string]any `yaml:"authConfig"`

	RateLimit RateLimitConfig `yaml:"rateLimit"`
	Tracing   TracingConfig   `yaml:"tracing"`
}

// LoadConfig reads filePath and applies env overrides and defaults.
func LoadConfig(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse %s: %w", filePath, err)
	}
	if err := c.finish(); err != nil {
		return nil, err
	}
	return &c, nil
}

// LoadConfigOptional behaves like LoadConfig but treats an empty path or a
// missing file as an empty document.
func LoadConfigOptional(filePath string) (*Config, error) {
	if strings.TrimSpace(filePath) != "" {
		cfg, err := LoadConfig(filePath)
		if err == nil || !errors.Is(err, os.ErrNotExist) {
			return cfg, err
		}
	}
	var c Config
	if err := c.finish(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) finish() error {
	if err := c.applyEnv(); err != nil {
		return err
	}
	c.applyDefaults()
	log.Printf("Gateway Config: {Port:%d BaseURL:%s Endpoint:%s Mode:%s Throw:%t Redis:%s}\n",
		c.Port, c.BaseURL, c.Endpoint, c.Mode, c.ThrowErrors, c.RedisAddr)
	return nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.Port = p
		}
	}
	if v := os.Getenv("SOAP_BASE_URL"); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv("SOAP_ENDPOINT"); v != "" {
		c.Endpoint = v
	}
	if v := os.Getenv("SOAP_MODE"); v != "" {
		m, err := domain.ParseMode(v)
		if err != nil {
			return fmt.Errorf("SOAP_MODE: %w", err)
		}
		c.Mode = m
	}
	if v := os.Getenv("SOAP_THROW_ERRORS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.ThrowErrors = b
		}
	}
	if v := os.Getenv("SOAP_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.TimeoutSeconds = n
		}
	}
	if v := os.Getenv("SOAP_LOGIN"); v != "" {
		c.SOAP.Login = v
	}
	if v := os.Getenv("SOAP_PASSWORD"); v != "" {
		c.SOAP.Password = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.RedisAddr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.RedisPassword = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		c.LogFormat = v
	}
	if v := os.Getenv("LOG_PATH"); v != "" {
		c.LogPath = v
	}
	if v := os.Getenv("LOG_CHANNEL"); v != "" {
		c.LogChannel = v
	}
	if v := os.Getenv("AUTH_PROVIDER"); v != "" {
		c.AuthProvider = v
	}
	if v := os.Getenv("AUTH_CONFIG"); v != "" {
		var m map[string]any
		if err := json.Unmarshal([]byte(v), &m); err != nil {
			return fmt.Errorf("AUTH_CONFIG: %w", err)
		}
		c.AuthConfig = m
	}
	if v := os.Getenv("OTEL_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Tracing.Enabled = b
		}
	}
	if v := os.Getenv("OTEL_SAMPLE_RATIO"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Tracing.SampleRatio = f
		}
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Port == 0 {
		c.Port = 8080
	}
	if c.Env == "" {
		c.Env = "dev"
	}
	if c.Mode == "" {
		c.Mode = domain.ModeSilent
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 5
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogFormat == "" {
		c.LogFormat = "json"
	}
	if c.LogChannel == "" {
		c.LogChannel = "SoapHandler"
	}
	if c.AuditRetentionSeconds <= 0 {
		c.AuditRetentionSeconds = 86400
	}
	if c.AuditMaxPerMethod <= 0 {
		c.AuditMaxPerMethod = 1000
	}
	if c.Tracing.ServiceName == "" {
		c.Tracing.ServiceName = "soapgate"
	}
}

func (c *Config) IsDebug() bool { return c.Mode == domain.ModeDebug }

func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func (c *Config) AuditRetention() time.Duration {
	return time.Duration(c.AuditRetentionSeconds) * time.Second
}

// AuthConfigJSON is the authConfig block in the form auth providers expect.
func (c *Config) AuthConfigJSON() (json.RawMessage, error) {
	if c.AuthConfig == nil {
		return nil, nil
	}
	b, err := json.Marshal(c.AuthConfig)
	if err != nil {
		return nil, fmt.Errorf("authConfig: %w", err)
	}
	return b, nil
}

func (c *Config) Validate() error {
	var errs []string
	env := strings.ToLower(strings.TrimSpace(c.Env))
	dev := env == "dev"

	if strings.TrimSpace(c.BaseURL) == "" {
		errs = append(errs, "baseUrl is required")
	} else {
		u, err := url.Parse(c.BaseURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, "baseUrl must be a valid http(s) URL")
		}
	}
	if c.Mode != domain.ModeDebug && c.Mode != domain.ModeSilent {
		errs = append(errs, "mode must be debug or silent")
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, "logLevel must be one of debug, info, warn, error")
	}
	if c.LogFormat != "json" && c.LogFormat != "text" {
		errs = append(errs, "logFormat must be json or text")
	}
	if p := strings.TrimSpace(c.LogPath); p != "" {
		if fi, err := os.Stat(p); err == nil && fi.IsDir() {
			errs = append(errs, "logPath must be a file, not a directory")
		}
	}
	if strings.TrimSpace(c.AuthProvider) == "" && !dev {
		errs = append(errs, "authProvider is required in non-dev")
	}
	if c.RateLimit.Callers.Requests < 0 || c.RateLimit.Callers.WindowSeconds < 0 {
		errs = append(errs, "rateLimit.callers must not be negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
