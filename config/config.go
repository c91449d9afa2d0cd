// Package config loads the server configuration from an optional YAML file
// with environment variable overrides. Environment always wins, so a deploy
// can run without any file at all.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level server configuration.
type Config struct {
	Cin7     Cin7Config     `yaml:"cin7"`
	Server   ServerConfig   `yaml:"server"`
	Auth     AuthConfig     `yaml:"auth"`
	Snapshot SnapshotConfig `yaml:"snapshot"`
	LogLevel string         `yaml:"log_level"`
}

// Cin7Config holds the Cin7 Core API credentials.
type Cin7Config struct {
	AccountID      string `yaml:"account_id"`
	ApplicationKey string `yaml:"application_key"`
	BaseURL        string `yaml:"base_url"`
}

// ServerConfig selects the MCP transport.
type ServerConfig struct {
	Transport string `yaml:"transport"` // stdio | http
	HTTPAddr  string `yaml:"http_addr"`
}

// AuthConfig gates the HTTP transport.
type AuthConfig struct {
	Mode          string   `yaml:"mode"` // none | token | jwt
	BearerToken   string   `yaml:"bearer_token"`
	JWTSecret     string   `yaml:"jwt_secret"`
	AllowedEmails []string `yaml:"allowed_emails"`
}

// SnapshotConfig tunes the in-memory snapshot stores.
type SnapshotConfig struct {
	TTL      time.Duration `yaml:"ttl"`
	MaxItems int           `yaml:"max_items"`
}

// Load reads the YAML file at path (skipped when path is empty or the file
// does not exist), applies environment overrides, then defaults.
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("config: read %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	if cfg.Cin7.AccountID == "" || cfg.Cin7.ApplicationKey == "" {
		return nil, fmt.Errorf("config: CIN7_ACCOUNT_ID and CIN7_APPLICATION_KEY are required")
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	setString(&c.Cin7.AccountID, "CIN7_ACCOUNT_ID")
	setString(&c.Cin7.ApplicationKey, "CIN7_APPLICATION_KEY", "CIN7_API_KEY")
	setString(&c.Cin7.BaseURL, "CIN7_BASE_URL")
	setString(&c.Server.Transport, "MCP_TRANSPORT")
	setString(&c.Server.HTTPAddr, "HTTP_ADDR")
	setString(&c.Auth.Mode, "AUTH_MODE")
	setString(&c.Auth.BearerToken, "BEARER_TOKEN")
	setString(&c.Auth.JWTSecret, "JWT_SECRET")
	setString(&c.LogLevel, "LOG_LEVEL")

	if v := os.Getenv("ALLOWED_EMAILS"); v != "" {
		var emails []string
		for _, e := range strings.Split(v, ",") {
			if e = strings.TrimSpace(e); e != "" {
				emails = append(emails, e)
			}
		}
		c.Auth.AllowedEmails = emails
	}
	if v := os.Getenv("SNAPSHOT_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Snapshot.TTL = d
		}
	}
	if v := os.Getenv("SNAPSHOT_MAX_ITEMS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Snapshot.MaxItems = n
		}
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Transport == "" {
		c.Server.Transport = "stdio"
	}
	if c.Server.HTTPAddr == "" {
		c.Server.HTTPAddr = ":8080"
	}
	if c.Auth.Mode == "" {
		c.Auth.Mode = "none"
	}
	if c.Snapshot.TTL <= 0 {
		c.Snapshot.TTL = 15 * time.Minute
	}
	if c.Snapshot.MaxItems <= 0 {
		c.Snapshot.MaxItems = 250_000
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

func setString(dst *string, keys ...string) {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			*dst = v
			return
		}
	}
}
