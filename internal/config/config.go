package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type ServerConfig struct {
	Address      string   `mapstructure:"address"`
	Port         int      `mapstructure:"port"`
	Mode         string   `mapstructure:"mode"`
	BaseURL      string   `mapstructure:"base_url"`
	AllowOrigins []string `mapstructure:"allow_origins"`
}

type DatabaseConfig struct {
	Driver  string `mapstructure:"driver"` // mysql or sqlite
	DSN     string `mapstructure:"dsn"`
	LogMode bool   `mapstructure:"log_mode"`
}

type JWTConfig struct {
	Secret      string `mapstructure:"secret"`
	ExpireHours int    `mapstructure:"expire_hours"`
}

type DraftConfig struct {
	DebounceMS int `mapstructure:"debounce_ms"`
}

type AIConfig struct {
	GeminiAPIKey string `mapstructure:"gemini_api_key"`
	Model        string `mapstructure:"model"`
}

type Config struct {
	Server            ServerConfig   `mapstructure:"server"`
	Database          DatabaseConfig `mapstructure:"database"`
	JWT               JWTConfig      `mapstructure:"jwt"`
	Drafts            DraftConfig    `mapstructure:"drafts"`
	AI                AIConfig       `mapstructure:"ai"`
	AllowRegistration bool           `mapstructure:"allow_registration"`
}

// Debounce is the inactivity delay before a draft is written.
func (c *Config) Debounce() time.Duration {
	if c.Drafts.DebounceMS <= 0 {
		return 500 * time.Millisecond
	}
	return time.Duration(c.Drafts.DebounceMS) * time.Millisecond
}

// TokenTTL is how long a login token stays valid.
func (c *Config) TokenTTL() time.Duration {
	if c.JWT.ExpireHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(c.JWT.ExpireHours) * time.Hour
}

// Addr is the listen address of the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", "")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.base_url", "http://localhost:8080")
	v.SetDefault("server.allow_origins", []string{"http://localhost:5173"})
	v.SetDefault("database.driver", "mysql")
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.log_mode", false)
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.expire_hours", 24)
	v.SetDefault("drafts.debounce_ms", 500)
	v.SetDefault("ai.gemini_api_key", "")
	v.SetDefault("ai.model", "gemini-2.0-flash-001")
	v.SetDefault("allow_registration", false)
}

// Load reads .env (if any) into the environment, then the optional YAML file
// at path, then BEY_* environment overrides such as BEY_DATABASE_DSN.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: No .env file found")
	}

	v := viper.New()
	setDefaults(v)

	if path == "" {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	} else {
		v.SetConfigFile(path)
	}

	v.SetEnvPrefix("BEY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// the plain Gemini variable is honoured too
	if err := v.BindEnv("ai.gemini_api_key", "BEY_AI_GEMINI_API_KEY", "GEMINI_API_KEY"); err != nil {
		return nil, fmt.Errorf("bind env: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		log.Println("Warning: No config file found, using defaults and environment")
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) validate() error {
	if c.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required (set BEY_DATABASE_DSN)")
	}
	if c.Database.Driver != "mysql" && c.Database.Driver != "sqlite" {
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("jwt.secret is required (set BEY_JWT_SECRET)")
	}
	return nil
}
