// Package config loads service configuration from a YAML file and the
// process environment, with environment values taking precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config captures the runtime settings of the workshop scheduler.
type Config struct {
	Server struct {
		Address  string `mapstructure:"address"`
		HTTPPort int    `mapstructure:"http_port"`
	} `mapstructure:"server"`

	Database struct {
		// DSN is the SQLite data source. Empty means in-memory state only.
		DSN string `mapstructure:"dsn"`
	} `mapstructure:"database"`

	Booking struct {
		// SlotStepMinutes is the granularity of the availability grid.
		SlotStepMinutes int `mapstructure:"slot_step_minutes"`
		// MaintenanceBypassesEligibility lets admins place maintenance
		// blocks on machines they hold no licence for.
		MaintenanceBypassesEligibility bool `mapstructure:"maintenance_bypasses_eligibility"`
	} `mapstructure:"booking"`

	Logging struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"`
	} `mapstructure:"logs"`
}

// Load reads configuration from the file named by WORKSHOP_CONFIG_FILE (or
// config.yaml in the working directory) with environment overrides such as
// SERVER_HTTP_PORT and DATABASE_DSN.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.address", "0.0.0.0")
	v.SetDefault("server.http_port", 8080)
	v.SetDefault("database.dsn", "file:workshop.db")
	v.SetDefault("booking.slot_step_minutes", 30)
	v.SetDefault("booking.maintenance_bypasses_eligibility", true)
	v.SetDefault("logs.level", "info")
	v.SetDefault("logs.format", "json")

	if cfgFile := os.Getenv("WORKSHOP_CONFIG_FILE"); cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/workshop-scheduler")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config read error: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config unmarshal error: %w", err)
	}
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func validate(c *Config) error {
	if strings.TrimSpace(c.Server.Address) == "" {
		return errors.New("server.address must not be empty")
	}
	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		return fmt.Errorf("server.http_port must be a valid port, got %d", c.Server.HTTPPort)
	}
	if c.Booking.SlotStepMinutes <= 0 {
		return fmt.Errorf("booking.slot_step_minutes must be positive, got %d", c.Booking.SlotStepMinutes)
	}
	return nil
}
