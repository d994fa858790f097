package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Port          string        `mapstructure:"PORT" validate:"required,numeric"`
	GinMode       string        `mapstructure:"GIN_MODE" validate:"oneof=debug release test"`
	LogLevel      string        `mapstructure:"LOG_LEVEL" validate:"oneof=debug info warn error"`
	DBDriver      string        `mapstructure:"DB_DRIVER" validate:"oneof=mysql postgres sqlite"`
	DBHost        string        `mapstructure:"DB_HOST" validate:"required_unless=DBDriver sqlite"`
	DBPort        string        `mapstructure:"DB_PORT" validate:"required_unless=DBDriver sqlite"`
	DBUser        string        `mapstructure:"DB_USER" validate:"required_unless=DBDriver sqlite"`
	DBPassword    string        `mapstructure:"DB_PASSWORD"`
	DBName        string        `mapstructure:"DB_NAME" validate:"required_unless=DBDriver sqlite"`
	DBPath        string        `mapstructure:"DB_PATH" validate:"required_if=DBDriver sqlite"`
	JWTSecret     string        `mapstructure:"JWT_SECRET" validate:"min=32"`
	JWTTTL        time.Duration `mapstructure:"JWT_TTL" validate:"gt=0"`
	RedisAddr     string        `mapstructure:"REDIS_ADDR"`
	RedisPassword string        `mapstructure:"REDIS_PASSWORD"`
	OpenAIAPIKey  string        `mapstructure:"OPENAI_API_KEY"`
}

var defaults = map[string]any{
	"PORT":           "8080",
	"GIN_MODE":       "debug",
	"LOG_LEVEL":      "info",
	"DB_DRIVER":      "mysql",
	"DB_HOST":        "localhost",
	"DB_PORT":        "3306",
	"DB_USER":        "taskuser",
	"DB_PASSWORD":    "taskpassword",
	"DB_NAME":        "task_tracker",
	"DB_PATH":        "task_tracker.db",
	"JWT_SECRET":     "development-secret-change-me-before-deploying",
	"JWT_TTL":        "24h",
	"REDIS_ADDR":     "",
	"REDIS_PASSWORD": "",
	"OPENAI_API_KEY": "",
}

// Load reads configuration from the environment. Values from a .env file in
// the working directory are applied first when the file exists; real
// environment variables always win.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env file: %w", err)
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// IsProduction reports whether gin runs in release mode
func (c *Config) IsProduction() bool {
	return c.GinMode == "release"
}
