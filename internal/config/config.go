package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/caarlos0/env/v10"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/tazuo/autoloot/internal/loader"
)

const appName = "autoloot"

// Rule file base names inside a profile directory.
const (
	HighlightFile = "grid_highlight"
	AutoLootFile  = "autoloot"
)

// Config holds all configuration for the auto-loot engine and lootctl.
type Config struct {
	Server struct {
		Port         int           `env:"PORT" envDefault:"8087" validate:"min=1,max=65535"`
		ReadTimeout  time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
		WriteTimeout time.Duration `env:"WRITE_TIMEOUT" envDefault:"5s"`
		BodyLimit    int           `env:"BODY_LIMIT" envDefault:"1048576" validate:"min=1"`
		RateLimitRPS int           `env:"RATE_LIMIT_RPS" envDefault:"50" validate:"min=0"`
	}

	Storage struct {
		// DataDir defaults to $XDG_DATA_HOME/autoloot when empty.
		DataDir    string `env:"DATA_DIR"`
		Profile    string `env:"PROFILE" envDefault:"local/default/player" validate:"required"`
		Backups    int    `env:"RULE_BACKUPS" envDefault:"3" validate:"min=0,max=20"`
		RuleFormat string `env:"RULE_FORMAT" envDefault:"json" validate:"oneof=json yaml toml"`
	}

	Loot struct {
		AutoLootEnabled  bool          `env:"AUTOLOOT_ENABLED" envDefault:"true"`
		ScavengerEnabled bool          `env:"SCAVENGER_ENABLED" envDefault:"false"`
		LootHumanCorpses bool          `env:"LOOT_HUMAN_CORPSES" envDefault:"false"`
		AutoOpenRange    int           `env:"AUTO_OPEN_RANGE" envDefault:"2" validate:"min=0,max=24"`
		ActionDelay      time.Duration `env:"MOVE_ACTION_DELAY" envDefault:"1000ms"`
		BatchSize        int           `env:"SCANNER_BATCH_SIZE" envDefault:"3" validate:"min=1,max=64"`
	}

	Cache struct {
		NormalizeSize int `env:"NORMALIZE_CACHE_SIZE" envDefault:"4096" validate:"min=16"`
	}

	Security struct {
		CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:"," validate:"cors_origins"`
	}

	Logging struct {
		Level  string `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn error"`
		Format string `env:"LOG_FORMAT" envDefault:"" validate:"omitempty,oneof=json text"`
	}
}

// Load loads configuration from environment variables and .env files
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment variables: %w", err)
	}

	if cfg.Storage.DataDir == "" {
		cfg.Storage.DataDir = filepath.Join(xdg.DataHome, appName)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration using struct tags
func Validate(cfg *Config) error {
	validator := validator.New()

	if err := validator.RegisterValidation("cors_origins", validateCORSOrigins); err != nil {
		return fmt.Errorf("failed to register cors_origins validation: %w", err)
	}

	if err := validator.Struct(cfg); err != nil {
		return formatValidationError(err)
	}

	return validateCustomRules(cfg)
}

func validateCORSOrigins(fl validator.FieldLevel) bool {
	origins := fl.Field().Interface().([]string)
	for _, origin := range origins {
		origin = strings.TrimSpace(origin)
		if origin == "" {
			continue
		}
		if origin != "*" && !strings.HasPrefix(origin, "http://") && !strings.HasPrefix(origin, "https://") {
			return false
		}
	}
	return true
}

// validateCustomRules performs additional validation beyond struct tags
func validateCustomRules(cfg *Config) error {
	if cfg.Storage.DataDir == "" {
		return fmt.Errorf("data directory cannot be empty")
	}
	if filepath.IsAbs(cfg.Storage.Profile) || strings.Contains(cfg.Storage.Profile, "..") {
		return fmt.Errorf("profile must be a relative path without '..'")
	}

	if cfg.Server.ReadTimeout < time.Millisecond {
		return fmt.Errorf("read timeout must be at least 1ms")
	}
	if cfg.Server.WriteTimeout < time.Millisecond {
		return fmt.Errorf("write timeout must be at least 1ms")
	}
	if cfg.Loot.ActionDelay < 0 {
		return fmt.Errorf("move action delay cannot be negative")
	}

	return nil
}

// EnsureDirectories creates all required directories
func (cfg *Config) EnsureDirectories() error {
	for _, dir := range []string{cfg.Storage.DataDir, cfg.ProfileDir()} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("cannot create directory %s: %w", dir, err)
		}
	}
	return nil
}

// ProfilesRoot is the account/shard/character tree scanned for imports.
func (cfg *Config) ProfilesRoot() string {
	return filepath.Join(cfg.Storage.DataDir, "profiles")
}

// ProfileDir is the active character's directory.
func (cfg *Config) ProfileDir() string {
	return filepath.Join(cfg.ProfilesRoot(), filepath.FromSlash(cfg.Storage.Profile))
}

// RuleFileName returns base+extension for the configured rule format.
func (cfg *Config) RuleFileName(base string) string {
	format, err := loader.ParseFormat(cfg.Storage.RuleFormat)
	if err != nil {
		format = loader.FormatJSON
	}
	return base + format.Extension()
}

func (cfg *Config) HighlightRulesPath() string {
	return filepath.Join(cfg.ProfileDir(), cfg.RuleFileName(HighlightFile))
}

func (cfg *Config) AutoLootPath() string {
	return filepath.Join(cfg.ProfileDir(), cfg.RuleFileName(AutoLootFile))
}

func (cfg *Config) SettingsDBPath() string {
	return filepath.Join(cfg.Storage.DataDir, "settings.db")
}

func (cfg *Config) FriendsDBPath() string {
	return filepath.Join(cfg.Storage.DataDir, "friendlies.db")
}

func (cfg *Config) JournalPath() string {
	return filepath.Join(cfg.ProfileDir(), "loot_journal.db")
}

// Profile returns the loot behaviour switches as a domain.Profile.
func (cfg *Config) Profile() Profile {
	return Profile{
		AutoLoot:     cfg.Loot.AutoLootEnabled,
		Scavenger:    cfg.Loot.ScavengerEnabled,
		HumanCorpses: cfg.Loot.LootHumanCorpses,
		OpenRange:    cfg.Loot.AutoOpenRange,
		Delay:        cfg.Loot.ActionDelay,
	}
}

// Profile is a fixed-value domain.Profile.
type Profile struct {
	AutoLoot     bool
	Scavenger    bool
	HumanCorpses bool
	OpenRange    int
	Delay        time.Duration
}

func (p Profile) AutoLootEnabled() bool      { return p.AutoLoot }
func (p Profile) ScavengerEnabled() bool     { return p.Scavenger }
func (p Profile) LootHumanCorpses() bool     { return p.HumanCorpses }
func (p Profile) AutoOpenRange() int         { return p.OpenRange }
func (p Profile) ActionDelay() time.Duration { return p.Delay }

// formatValidationError formats validation errors into readable messages
func formatValidationError(err error) error {
	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		var messages []string
		for _, e := range validationErrors {
			switch e.Tag() {
			case "required":
				messages = append(messages, fmt.Sprintf("%s is required", e.Field()))
			case "min":
				messages = append(messages, fmt.Sprintf("%s must be at least %s", e.Field(), e.Param()))
			case "max":
				messages = append(messages, fmt.Sprintf("%s must be at most %s", e.Field(), e.Param()))
			case "oneof":
				messages = append(messages, fmt.Sprintf("%s must be one of: %s", e.Field(), e.Param()))
			case "cors_origins":
				messages = append(messages, fmt.Sprintf("%s contains invalid origin format", e.Field()))
			default:
				messages = append(messages, fmt.Sprintf("%s failed validation: %s", e.Field(), e.Tag()))
			}
		}
		return fmt.Errorf("validation errors: %s", strings.Join(messages, "; "))
	}
	return err
}
