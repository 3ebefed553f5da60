// Package config loads service configuration from the environment.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// DSN returns the GORM/pgx connection string.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// URL returns the database URL used by the migration runner.
func (c DatabaseConfig) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode)
}

// JWTConfig holds token verification settings.
type JWTConfig struct {
	Secret string
}

// KafkaConfig holds event broker settings.
type KafkaConfig struct {
	Brokers []string
}

// RedisConfig holds the dashboard cache settings. An empty Addr disables
// the cache.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// ServiceConfig holds all configuration for the rental service.
type ServiceConfig struct {
	Port   string
	AppEnv string
	DB     DatabaseConfig
	JWT    JWTConfig
	Kafka  KafkaConfig
	Redis  RedisConfig
}

// Load reads configuration from RENTAL_-prefixed environment variables,
// falling back to local development defaults.
func Load() (*ServiceConfig, error) {
	v := viper.New()
	v.SetEnvPrefix("RENTAL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("service_port", ":8080")
	v.SetDefault("app_env", "development")
	v.SetDefault("db_host", "localhost")
	v.SetDefault("db_port", 5432)
	v.SetDefault("db_user", "postgres")
	v.SetDefault("db_password", "postgres")
	v.SetDefault("db_name", "rental")
	v.SetDefault("db_sslmode", "disable")
	v.SetDefault("jwt_secret", "")
	v.SetDefault("kafka_brokers", "localhost:9092")
	v.SetDefault("redis_addr", "")
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)

	cfg := &ServiceConfig{
		Port:   v.GetString("service_port"),
		AppEnv: v.GetString("app_env"),
		DB: DatabaseConfig{
			Host:     v.GetString("db_host"),
			Port:     v.GetInt("db_port"),
			User:     v.GetString("db_user"),
			Password: v.GetString("db_password"),
			DBName:   v.GetString("db_name"),
			SSLMode:  v.GetString("db_sslmode"),
		},
		JWT: JWTConfig{
			Secret: v.GetString("jwt_secret"),
		},
		Kafka: KafkaConfig{
			Brokers: strings.Split(v.GetString("kafka_brokers"), ","),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("redis_addr"),
			Password: v.GetString("redis_password"),
			DB:       v.GetInt("redis_db"),
		},
	}

	if cfg.AppEnv != "development" && cfg.JWT.Secret == "" {
		return nil, fmt.Errorf("RENTAL_JWT_SECRET is required outside development")
	}
	if !strings.HasPrefix(cfg.Port, ":") {
		cfg.Port = ":" + cfg.Port
	}

	return cfg, nil
}
