package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	DiscordToken string `env:"DISCORD_TOKEN,required,unset"`

	// DB
	Env              string `env:"ROLLCALL_ENV"                envDefault:"dev"` // "dev" | "prod"
	DBPath           string `env:"ROLLCALL_DB_PATH"            envDefault:"./data/rollcall.db"`
	LegacyMirrorFile string `env:"ROLLCALL_LEGACY_MIRROR_FILE" envDefault:"attendance_message.json"`

	// Admin surfaces; an empty address disables the listener.
	HTTPAddr   string `env:"ROLLCALL_HTTP_ADDR"   envDefault:"127.0.0.1:8080"`
	GRPCAddr   string `env:"ROLLCALL_GRPC_ADDR"`
	AdminToken string `env:"ROLLCALL_ADMIN_TOKEN"`

	Locale        string `env:"ROLLCALL_LOCALE"         envDefault:"en"`
	Timezone      string `env:"ROLLCALL_TIMEZONE"       envDefault:"Local"`
	CommandPrefix string `env:"ROLLCALL_COMMAND_PREFIX" envDefault:"!"`

	// Mirror refresh
	ResyncInterval   time.Duration `env:"ROLLCALL_RESYNC_INTERVAL"   envDefault:"0s"` // 0 = startup only
	SyncConcurrency  int           `env:"ROLLCALL_SYNC_CONCURRENCY"  envDefault:"4"`
	TransportTimeout time.Duration `env:"ROLLCALL_TRANSPORT_TIMEOUT" envDefault:"10s"`
}

// FromEnv loads the configuration from the process environment.
func FromEnv() (Config, error) {
	return parse(env.Options{})
}

// FromMap loads the configuration from the given variables only.
func FromMap(vars map[string]string) (Config, error) {
	return parse(env.Options{Environment: vars})
}

func parse(opts env.Options) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	cfg.Env = strings.ToLower(strings.TrimSpace(cfg.Env))
	if cfg.Env != "dev" && cfg.Env != "prod" {
		// fail-soft: treat unknown as dev
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.CommandPrefix) == "" {
		cfg.CommandPrefix = "!"
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if strings.TrimSpace(c.DiscordToken) == "" {
		return fmt.Errorf("DISCORD_TOKEN is empty")
	}
	if c.ResyncInterval < 0 {
		return fmt.Errorf("ROLLCALL_RESYNC_INTERVAL must not be negative, got %s", c.ResyncInterval)
	}
	if c.SyncConcurrency <= 0 {
		return fmt.Errorf("ROLLCALL_SYNC_CONCURRENCY must be positive, got %d", c.SyncConcurrency)
	}
	if c.TransportTimeout <= 0 {
		return fmt.Errorf("ROLLCALL_TRANSPORT_TIMEOUT must be positive, got %s", c.TransportTimeout)
	}
	return nil
}

// Location resolves Timezone; "Local" and "" mean the host zone.
func (c Config) Location() (*time.Location, error) {
	switch c.Timezone {
	case "", "Local":
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("ROLLCALL_TIMEZONE: %w", err)
	}
	return loc, nil
}
