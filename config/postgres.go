package config

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

// PostgresConfig defines the configuration for connecting to a PostgreSQL database.
type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
	TimeZone string `mapstructure:"timezone"`

	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// DSN builds the connection string. In prod the credentials come from
// Parameter Store instead of the config file.
func (cfg *PostgresConfig) DSN(env string) string {
	host, user, password := cfg.Host, cfg.User, cfg.Password
	if env == "prod" {
		host = getParameterStoreValue("BAZAAR_DB_HOST", true)
		user = getParameterStoreValue("BAZAAR_DB_USER", true)
		password = getParameterStoreValue("BAZAAR_DB_PASSWORD", true)
	}

	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		host, cfg.Port, user, password, cfg.DBName, cfg.SSLMode,
	)

	if cfg.TimeZone != "" {
		dsn += fmt.Sprintf(" TimeZone=%s", cfg.TimeZone)
	}

	return dsn
}

// AdminDSN connects to the default 'postgres' database, used only for
// creating the application database on first start.
func (cfg *PostgresConfig) AdminDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=postgres sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.SSLMode,
	)
}

func getParameterStoreValue(parameterName string, decrypt bool) string {
	baseCtx := context.Background()
	ctxWithTimeout, cancel := context.WithTimeout(baseCtx, 5*time.Second)
	defer cancel()

	cfg, err := config.LoadDefaultConfig(ctxWithTimeout)
	if err != nil {
		return ""
	}

	client := ssm.NewFromConfig(cfg)

	input := &ssm.GetParameterInput{
		Name:           &parameterName,
		WithDecryption: &decrypt,
	}

	result, err := client.GetParameter(ctxWithTimeout, input)
	if err != nil {
		return ""
	}

	if result.Parameter.Value == nil {
		return ""
	}

	return *result.Parameter.Value
}
