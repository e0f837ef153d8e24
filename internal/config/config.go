package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"

	"github.com/zithekhosa/propflow/internal/domain"
)

// Config holds all application configuration.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Policy      PolicyConfig      `mapstructure:"policy"`
	Maintenance MaintenanceConfig `mapstructure:"maintenance"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port              int           `mapstructure:"port"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig holds SQLite configuration.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// PolicyConfig is the operator-tunable notice-period table, days per
// eviction reason. Jurisdictions differ; the defaults are a baseline, not
// law.
type PolicyConfig struct {
	NoticePeriods map[string]int `mapstructure:"notice_periods"`
}

// MaintenanceConfig holds marketplace tuning.
type MaintenanceConfig struct {
	// BidCap rejects bids above this amount; zero disables the cap.
	BidCap float64 `mapstructure:"bid_cap"`
}

// Load reads configuration from an optional YAML file, a .env file if
// present, and PROPFLOW_* environment variables, in increasing precedence.
func Load(configPath string) (*Config, error) {
	// A missing .env is fine; values already in the environment win.
	_ = gotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("propflow")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_header_timeout", 10*time.Second)
	v.SetDefault("server.shutdown_timeout", 5*time.Second)

	v.SetDefault("database.path", "propflow.db")

	for reason, days := range domain.DefaultNoticePolicy().Days {
		v.SetDefault("policy.notice_periods."+string(reason), days)
	}

	v.SetDefault("maintenance.bid_cap", 0.0)
}

// validate rejects malformed operator input up front. A bad policy table is
// fatal at startup, never a runtime fallback.
func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path must not be empty")
	}
	if c.Maintenance.BidCap < 0 {
		return fmt.Errorf("maintenance.bid_cap must not be negative")
	}

	known := domain.DefaultNoticePolicy().Days
	for reason, days := range c.Policy.NoticePeriods {
		if _, ok := known[domain.NoticeReason(reason)]; !ok {
			return fmt.Errorf("policy.notice_periods: unknown reason %q", reason)
		}
		if days <= 0 {
			return fmt.Errorf("policy.notice_periods.%s: %d days is not a valid period", reason, days)
		}
	}

	return nil
}

// NoticePolicy builds the domain policy table from configuration, starting
// from the defaults and applying overrides.
func (c *Config) NoticePolicy() domain.NoticePolicy {
	policy := domain.DefaultNoticePolicy()
	for reason, days := range c.Policy.NoticePeriods {
		policy.Days[domain.NoticeReason(reason)] = days
	}
	return policy
}
