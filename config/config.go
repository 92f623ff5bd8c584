package config

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Hypixel   HypixelConfig   `mapstructure:"hypixel"`
	Collector CollectorConfig `mapstructure:"collector"`
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Postgres  PostgresConfig  `mapstructure:"postgres"`
}

type HypixelConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	APIKey  string        `mapstructure:"api_key"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type CollectorConfig struct {
	Interval     time.Duration `mapstructure:"interval"`
	FetchTimeout time.Duration `mapstructure:"fetch_timeout"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// LogConfig defines the logger configuration options.
type LogConfig struct {
	Level       string `mapstructure:"level"`       // log level: "debug", "info", "warn", "error"
	Format      string `mapstructure:"format"`      // log format: "json" or "console"
	OutputFile  string `mapstructure:"output_file"` // file path to store logs (optional)
	Environment string `mapstructure:"environment"` // environment: "dev" or "prod"
}

// Load loads application configuration using Viper.
// It reads from config.yaml and overrides with environment variables.
func Load() *Config {
	v := viper.New()

	v.SetConfigName("config") // config.yaml
	v.SetConfigType("yaml")

	ex, _ := os.Executable()
	if strings.Contains(ex, "go-build") {
		pwd, _ := os.Getwd()
		v.AddConfigPath(filepath.Join(pwd, "../../config"))
	} else {
		v.AddConfigPath(filepath.Join(filepath.Dir(ex), "../config"))
	}

	// Support environment variables with dot notation (e.g., HYPIXEL_API_KEY)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		log.Fatalf("failed to read config: %v", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		log.Fatalf("failed to unmarshal config: %v", err)
	}

	return &cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("hypixel.base_url", "https://api.hypixel.net")
	v.SetDefault("hypixel.timeout", "30s")
	v.SetDefault("collector.interval", "5m")
	v.SetDefault("collector.fetch_timeout", "30s")
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.environment", "dev")
}
