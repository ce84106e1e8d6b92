package config

import (
	"fmt"
	"time"
)

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Study    StudyConfig    `mapstructure:"study" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port            int           `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel        string        `mapstructure:"log_level" validate:"required,oneof=debug info warn error fatal"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gte=0"`
}

// DatabaseConfig selects and locates the item store.
type DatabaseConfig struct {
	// Driver is either "postgres" or "sqlite".
	Driver string `mapstructure:"driver" validate:"required,oneof=postgres sqlite"`
	// URL is a postgres connection URL or a sqlite DSN (a file path or ":memory:").
	URL string `mapstructure:"url" validate:"required"`
}

// RedisConfig configures the optional redis-backed snapshot store. When Addr
// is empty the snapshot is kept in the item database.
type RedisConfig struct {
	Addr      string `mapstructure:"addr" validate:"omitempty,hostname_port"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db" validate:"gte=0"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

// Enabled reports whether a redis address is configured.
func (c RedisConfig) Enabled() bool {
	return c.Addr != ""
}

// StudyConfig contains the daily goals and recovery policy of a study session.
type StudyConfig struct {
	NewItemsPerDayGoal int `mapstructure:"new_items_per_day_goal" validate:"gte=0"`
	ReviewsPerDayGoal  int `mapstructure:"reviews_per_day_goal" validate:"gte=0"`
	// RecoverySnapshotTTL bounds how long an interrupted session can be
	// resumed. Zero means until the end of the calendar day it was taken.
	RecoverySnapshotTTL time.Duration `mapstructure:"recovery_snapshot_ttl" validate:"gte=0"`
	// Timezone is an IANA location name used for calendar-day boundaries.
	Timezone string `mapstructure:"timezone" validate:"required"`
}

// Location resolves the configured timezone.
func (c StudyConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid study timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}
