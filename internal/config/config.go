// Package config loads and validates the socksd configuration file.
package config

import (
	"fmt"
	"net"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration for socksd.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Auth     AuthConfig     `yaml:"auth"`
	Logging  LoggingConfig  `yaml:"logging"`
	Security SecurityConfig `yaml:"security"`
}

// ServerConfig holds bind address, ports, and connection limits.
type ServerConfig struct {
	BindAddress       string `yaml:"bind_address"`
	Socks5Port        int    `yaml:"socks5_port"`
	HTTPPort          int    `yaml:"http_port"`
	APIPort           int    `yaml:"api_port"` // status/health/metrics/dashboard, 0 disables
	MaxConnections    int    `yaml:"max_connections"`
	ConnectionTimeout int    `yaml:"connection_timeout"` // seconds
	BufferSize        int    `yaml:"buffer_size"`        // bytes
}

// AuthConfig selects whether authentication is enforced and by which backend.
type AuthConfig struct {
	Enabled bool              `yaml:"enabled"`
	Backend AuthBackendConfig `yaml:",inline"`
}

// AuthBackendConfig is a tagged union over the four supported backends,
// discriminated by Type. Only the fields relevant to Type are populated.
type AuthBackendConfig struct {
	Type string `yaml:"type"`

	// simple
	UserConfigFile string `yaml:"user_config_file,omitempty"`

	// pam
	Service string `yaml:"service,omitempty"`

	// ldap
	URL          string `yaml:"url,omitempty"`
	BaseDN       string `yaml:"base_dn,omitempty"`
	BindDN       string `yaml:"bind_dn,omitempty"`
	BindPassword string `yaml:"bind_password,omitempty"`
	UserFilter   string `yaml:"user_filter,omitempty"`

	// database
	DBType   string `yaml:"db_type,omitempty"`
	DBURL    string `yaml:"url_db,omitempty"`
	Query    string `yaml:"query,omitempty"`
	HashType string `yaml:"hash_type,omitempty"`
}

const (
	BackendNone     = "none"
	BackendSimple   = "simple"
	BackendPAM      = "pam"
	BackendLDAP     = "ldap"
	BackendDatabase = "database"
)

// LoggingConfig selects verbosity and the active sinks.
type LoggingConfig struct {
	Level    string `yaml:"level"`
	File     string `yaml:"file,omitempty"`
	Console  bool   `yaml:"console"`
	Journald bool   `yaml:"journald"`
}

// SecurityConfig carries ACL/rate-limit/size-cap fields. AllowedNetworks
// is validated; BlockedDomains and RateLimit are only parsed. None of the
// three is enforced — see
// DESIGN.md's Open Question decisions; socksd preserves that behavior
// rather than silently adding enforcement the original never shipped.
type SecurityConfig struct {
	AllowedNetworks []string         `yaml:"allowed_networks"`
	BlockedDomains  []string         `yaml:"blocked_domains"`
	MaxRequestSize  int              `yaml:"max_request_size"`
	RateLimit       *RateLimitConfig `yaml:"rate_limit,omitempty"`
}

// RateLimitConfig is parsed for forward-compatibility only; see SecurityConfig.
type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute"`
	BurstSize         int `yaml:"burst_size"`
}

// Default returns the built-in configuration used when no file is given
// and by the -g/--generate-config flag.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			BindAddress:       "127.0.0.1",
			Socks5Port:        1080,
			HTTPPort:          8080,
			APIPort:           9080,
			MaxConnections:    1000,
			ConnectionTimeout: 300,
			BufferSize:        64 * 1024,
		},
		Auth: AuthConfig{
			Enabled: false,
			Backend: AuthBackendConfig{Type: BackendNone},
		},
		Logging: LoggingConfig{
			Level:   "info",
			Console: true,
		},
		Security: SecurityConfig{
			AllowedNetworks: []string{"0.0.0.0/0"},
			BlockedDomains:  []string{},
			MaxRequestSize:  1024 * 1024,
		},
	}
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// substituteEnvVars replaces ${VAR_NAME} patterns with environment variable
// values, leaving the placeholder untouched when the variable is unset.
func substituteEnvVars(data []byte) []byte {
	return envVarPattern.ReplaceAllFunc(data, func(match []byte) []byte {
		varName := envVarPattern.FindSubmatch(match)[1]
		if val, ok := os.LookupEnv(string(varName)); ok {
			return []byte(val)
		}
		return match
	})
}

// Load reads and parses a YAML config file with env var substitution,
// then validates it. A missing file is reported as a wrapped
// os.ErrNotExist, so the caller can decide whether to fall back to
// Default.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	data = substituteEnvVars(data)

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Validate enforces every rule in the configuration file contract: ports
// non-zero and unequal, a parseable bind address, sane size floors, and
// a fully-specified auth backend whenever auth is enabled.
func Validate(cfg *Config) error {
	if cfg.Server.Socks5Port == 0 {
		return fmt.Errorf("invalid socks5 port: %d", cfg.Server.Socks5Port)
	}
	if cfg.Server.HTTPPort == 0 {
		return fmt.Errorf("invalid http port: %d", cfg.Server.HTTPPort)
	}
	if cfg.Server.Socks5Port == cfg.Server.HTTPPort {
		return fmt.Errorf("socks5 and http ports cannot be the same")
	}
	if cfg.Server.APIPort != 0 && (cfg.Server.APIPort == cfg.Server.Socks5Port || cfg.Server.APIPort == cfg.Server.HTTPPort) {
		return fmt.Errorf("api_port must differ from socks5_port and http_port")
	}
	if net.ParseIP(cfg.Server.BindAddress) == nil {
		return fmt.Errorf("invalid bind address: %q", cfg.Server.BindAddress)
	}
	if cfg.Server.MaxConnections <= 0 {
		return fmt.Errorf("max_connections must be greater than 0")
	}
	if cfg.Server.BufferSize < 1024 {
		return fmt.Errorf("buffer_size must be at least 1024 bytes")
	}

	if cfg.Auth.Enabled {
		b := cfg.Auth.Backend
		switch b.Type {
		case BackendSimple:
			if b.UserConfigFile == "" {
				return fmt.Errorf("authentication enabled (simple) but no user_config_file specified")
			}
		case BackendPAM:
			if b.Service == "" {
				return fmt.Errorf("pam service name cannot be empty")
			}
		case BackendLDAP:
			if b.URL == "" {
				return fmt.Errorf("ldap url cannot be empty")
			}
			if b.BaseDN == "" {
				return fmt.Errorf("ldap base_dn cannot be empty")
			}
			if b.UserFilter == "" {
				return fmt.Errorf("ldap user_filter cannot be empty")
			}
		case BackendDatabase:
			if b.DBURL == "" {
				return fmt.Errorf("database url cannot be empty")
			}
			if b.Query == "" {
				return fmt.Errorf("database query cannot be empty")
			}
		case BackendNone, "":
			return fmt.Errorf("authentication enabled but backend is configured as none")
		default:
			return fmt.Errorf("unknown auth backend type: %q", b.Type)
		}
	}

	for _, network := range cfg.Security.AllowedNetworks {
		if !strings.Contains(network, "/") {
			if net.ParseIP(network) == nil {
				return fmt.Errorf("invalid network address: %q", network)
			}
		} else if _, _, err := net.ParseCIDR(network); err != nil {
			return fmt.Errorf("invalid network CIDR: %q", network)
		}
	}

	switch cfg.Logging.Level {
	case "trace", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %q", cfg.Logging.Level)
	}

	return nil
}

// Socks5BindAddr returns the "host:port" string for the SOCKS5 listener.
func (c *Config) Socks5BindAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.BindAddress, c.Server.Socks5Port)
}

// HTTPBindAddr returns the "host:port" string for the HTTP proxy listener.
func (c *Config) HTTPBindAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.BindAddress, c.Server.HTTPPort)
}

// APIBindAddr returns the "host:port" string for the status/metrics API
// listener.
func (c *Config) APIBindAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.BindAddress, c.Server.APIPort)
}

// Save writes the configuration back out as YAML, used by -g/--generate-config.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}
