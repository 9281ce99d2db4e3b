package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

const (
	backendMemory   = "memory"
	backendPostgres = "postgres"
)

type AccountConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

type Config struct {
	Server struct {
		Port           string   `yaml:"port"`
		SecureCookies  bool     `yaml:"secure_cookies"`
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"server"`

	Store struct {
		Backend string `yaml:"backend"`
	} `yaml:"store"`

	Countdown struct {
		ResyncSeconds   int    `yaml:"resync_seconds"`
		InitialDeadline string `yaml:"initial_deadline"`
		Label           string `yaml:"label"`
	} `yaml:"countdown"`

	Auth struct {
		SessionTTLMinutes int           `yaml:"session_ttl_minutes"`
		BcryptCost        int           `yaml:"bcrypt_cost"`
		Admin             AccountConfig `yaml:"admin"`
		Team              AccountConfig `yaml:"team"`
		// TeamName is the directory entry the seeded team account belongs to.
		TeamName string `yaml:"team_name"`
	} `yaml:"auth"`

	Teams struct {
		TotalSlots  int  `yaml:"total_slots"`
		SeedSamples bool `yaml:"seed_samples"`
	} `yaml:"teams"`

	NATS struct {
		URL     string `yaml:"url"`
		Subject string `yaml:"subject"`
	} `yaml:"nats"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

func defaultConfig() *Config {
	cfg := &Config{}
	cfg.Server.Port = "8080"
	cfg.Server.AllowedOrigins = []string{"*"}
	cfg.Store.Backend = backendMemory
	cfg.Countdown.ResyncSeconds = 15
	cfg.Auth.SessionTTLMinutes = 12 * 60
	cfg.Auth.BcryptCost = 12
	cfg.Auth.Admin = AccountConfig{Username: "admin", Password: "admin123"}
	cfg.Auth.Team = AccountConfig{Username: "team1", Password: "team123"}
	cfg.Auth.TeamName = "Team Alpha"
	cfg.Teams.TotalSlots = 12
	cfg.Teams.SeedSamples = true
	cfg.Log.Level = "info"
	return cfg
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// loadConfig starts from defaults, overlays the YAML file at path when given, then
// applies environment overrides.
func loadConfig(path string) (*Config, error) {
	config := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	applyEnv(config)

	if err := config.validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func applyEnv(c *Config) {
	c.Server.Port = getEnv("PORT", c.Server.Port)
	c.Server.SecureCookies = getEnvAsBool("SECURE_COOKIES", c.Server.SecureCookies)
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		c.Server.AllowedOrigins = strings.Split(origins, ",")
	}

	c.Store.Backend = getEnv("STORE_BACKEND", c.Store.Backend)

	c.Countdown.ResyncSeconds = getEnvAsInt("COUNTDOWN_RESYNC_SECONDS", c.Countdown.ResyncSeconds)
	c.Countdown.InitialDeadline = getEnv("AUCTION_INITIAL_DEADLINE", c.Countdown.InitialDeadline)
	c.Countdown.Label = getEnv("AUCTION_LABEL", c.Countdown.Label)

	c.Auth.SessionTTLMinutes = getEnvAsInt("SESSION_TTL_MINUTES", c.Auth.SessionTTLMinutes)
	c.Auth.BcryptCost = getEnvAsInt("BCRYPT_COST", c.Auth.BcryptCost)
	c.Auth.Admin.Username = getEnv("ADMIN_USERNAME", c.Auth.Admin.Username)
	c.Auth.Admin.Password = getEnv("ADMIN_PASSWORD", c.Auth.Admin.Password)
	c.Auth.Team.Username = getEnv("TEAM_USERNAME", c.Auth.Team.Username)
	c.Auth.Team.Password = getEnv("TEAM_PASSWORD", c.Auth.Team.Password)

	c.Teams.TotalSlots = getEnvAsInt("TOTAL_SLOTS", c.Teams.TotalSlots)
	c.Teams.SeedSamples = getEnvAsBool("SEED_SAMPLE_TEAMS", c.Teams.SeedSamples)

	c.NATS.URL = getEnv("NATS_URL", c.NATS.URL)
	c.NATS.Subject = getEnv("NATS_SUBJECT", c.NATS.Subject)

	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
}

func (c *Config) validate() error {
	switch c.Store.Backend {
	case backendMemory, backendPostgres:
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	if c.Countdown.ResyncSeconds <= 0 {
		return fmt.Errorf("countdown resync interval must be positive")
	}
	if c.Auth.SessionTTLMinutes <= 0 {
		return fmt.Errorf("session ttl must be positive")
	}
	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	return nil
}

func (c *Config) ResyncInterval() time.Duration {
	return time.Duration(c.Countdown.ResyncSeconds) * time.Second
}

func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.Auth.SessionTTLMinutes) * time.Minute
}
