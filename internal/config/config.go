package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App struct {
		Name string `mapstructure:"NAME"`
		ENV  string `mapstructure:"ENV"`
	} `mapstructure:"APP"`

	Log struct {
		Level     string `mapstructure:"LEVEL"`
		Format    string `mapstructure:"FORMAT"`
		Component string `mapstructure:"COMPONENT"`
		Source    bool   `mapstructure:"SOURCE"`
	} `mapstructure:"LOG"`

	DB struct {
		DSN      string `mapstructure:"DSN"`
		Host     string `mapstructure:"HOST"`
		Port     string `mapstructure:"PORT"`
		User     string `mapstructure:"USER"`
		Password string `mapstructure:"PASSWORD"`
		Name     string `mapstructure:"NAME"`
	} `mapstructure:"DB"`

	Redis struct {
		Addr     string `mapstructure:"ADDR"`
		Password string `mapstructure:"PASSWORD"`
		DB       int    `mapstructure:"DB"`
	} `mapstructure:"REDIS"`

	HTTP struct {
		Host           string        `mapstructure:"HOST"`
		Port           string        `mapstructure:"PORT"`
		ReadTimeout    time.Duration `mapstructure:"READ_TIMEOUT"`
		WriteTimeout   time.Duration `mapstructure:"WRITE_TIMEOUT"`
		AllowedOrigins []string      `mapstructure:"ALLOWED_ORIGINS"`
	} `mapstructure:"HTTP"`

	Auth struct {
		JWTSecret string        `mapstructure:"JWT_SECRET"`
		JWTExpiry time.Duration `mapstructure:"JWT_EXPIRY"`
	} `mapstructure:"AUTH"`

	Discovery struct {
		DefaultLimit int `mapstructure:"DEFAULT_LIMIT"`
		MaxLimit     int `mapstructure:"MAX_LIMIT"`
	} `mapstructure:"DISCOVERY"`

	Undo struct {
		Window time.Duration `mapstructure:"WINDOW"`
	} `mapstructure:"UNDO"`
}

// New loads configuration from an optional yaml file plus environment
// variables. Defaults are sufficient to run against a local MySQL + Redis.
func New() *Config {
	cfg, err := Load("")
	if err != nil {
		// defaults always unmarshal cleanly; a broken config file is fatal
		panic(fmt.Sprintf("config: %v", err))
	}
	return cfg
}

// Load reads configuration from the given file path, falling back to
// ./config/config.yaml and then to defaults + environment variables.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("APP.NAME", "match-engine")
	v.SetDefault("APP.ENV", "development")

	v.SetDefault("LOG.LEVEL", "info")
	v.SetDefault("LOG.FORMAT", "text")
	v.SetDefault("LOG.COMPONENT", "http_server")
	v.SetDefault("LOG.SOURCE", false)

	v.SetDefault("DB.DSN", "")
	v.SetDefault("DB.HOST", "localhost")
	v.SetDefault("DB.PORT", "3306")
	v.SetDefault("DB.USER", "root")
	v.SetDefault("DB.PASSWORD", "root")
	v.SetDefault("DB.NAME", "emberdate")

	v.SetDefault("REDIS.ADDR", "localhost:6379")
	v.SetDefault("REDIS.PASSWORD", "")
	v.SetDefault("REDIS.DB", 0)

	v.SetDefault("HTTP.HOST", "0.0.0.0")
	v.SetDefault("HTTP.PORT", "8080")
	v.SetDefault("HTTP.READ_TIMEOUT", 15*time.Second)
	v.SetDefault("HTTP.WRITE_TIMEOUT", 15*time.Second)
	v.SetDefault("HTTP.ALLOWED_ORIGINS", []string{"*"})

	v.SetDefault("AUTH.JWT_SECRET", "dev-only-secret-change-me")
	v.SetDefault("AUTH.JWT_EXPIRY", 24*time.Hour)

	v.SetDefault("DISCOVERY.DEFAULT_LIMIT", 30)
	v.SetDefault("DISCOVERY.MAX_LIMIT", 100)

	v.SetDefault("UNDO.WINDOW", 300*time.Second)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		// no config file is fine, defaults + env cover everything
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}

	// assemble the MySQL DSN unless one was provided verbatim
	if cfg.DB.DSN == "" {
		cfg.DB.DSN = fmt.Sprintf(
			"%s:%s@tcp(%s:%s)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
			cfg.DB.User, cfg.DB.Password, cfg.DB.Host, cfg.DB.Port, cfg.DB.Name,
		)
	}

	return cfg, nil
}
