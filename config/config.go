/*
Package config loads server configuration.

PURPOSE:
  One place for every tunable: listen address, database path, seed
  balances, scheduler cadence, save tuning, log level. Values come
  from an optional YAML file with environment overrides (PIGGY_*
  prefix), so a bare binary still starts with sensible defaults.

PRECEDENCE:
  defaults < config file < environment variables

USAGE:
  cfg, err := config.Load("./config.yaml")
  if err != nil {
      log.Fatal(err)
  }
*/
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type ServerConfig struct {
	Address string `mapstructure:"address"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

type LedgerConfig struct {
	SeedChildBalance  int64 `mapstructure:"seed_child_balance"`
	SeedParentBalance int64 `mapstructure:"seed_parent_balance"`
}

type SchedulerConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Interval time.Duration `mapstructure:"interval"`
}

type SaveConfig struct {
	QuietPeriod   time.Duration `mapstructure:"quiet_period"`
	RetryInterval time.Duration `mapstructure:"retry_interval"`
	MaxRetries    uint64        `mapstructure:"max_retries"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Ledger    LedgerConfig    `mapstructure:"ledger"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Save      SaveConfig      `mapstructure:"save"`
	Log       LogConfig       `mapstructure:"log"`
}

// Load reads configuration from the given file path. An empty path skips
// the file and uses defaults plus environment overrides, e.g.
// PIGGY_SERVER_ADDRESS=:9000.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.address", ":8080")
	v.SetDefault("database.path", "./data/piggy.db")
	v.SetDefault("ledger.seed_child_balance", 5000)
	v.SetDefault("ledger.seed_parent_balance", 100000)
	v.SetDefault("scheduler.enabled", true)
	v.SetDefault("scheduler.interval", time.Minute)
	v.SetDefault("save.quiet_period", 300*time.Millisecond)
	v.SetDefault("save.retry_interval", 50*time.Millisecond)
	v.SetDefault("save.max_retries", 2)
	v.SetDefault("log.level", "info")

	v.SetEnvPrefix("PIGGY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}
