package main

import (
	"context"
	"fmt"
	"os"

	awspkg "github.com/felixojiambo/customer-order-system/pkg/aws"
)

type Config struct {
	Env              string
	Port             string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresHost     string
	PostgresPort     string
	PostgresSSLMode  string
	PostgresTimeZone string
	SNSTopicARN      string
}

func LoadConfig() (*Config, error) {
	cfg := &Config{
		Env:              getEnv("APP_ENV", "development"),
		Port:             getEnv("PORT", "8080"),
		PostgresUser:     os.Getenv("POSTGRES_USER"),
		PostgresPassword: os.Getenv("POSTGRES_PASSWORD"),
		PostgresDB:       os.Getenv("POSTGRES_DB"),
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		PostgresTimeZone: getEnv("POSTGRES_TIMEZONE", "Africa/Nairobi"),
		SNSTopicARN:      os.Getenv("ORDER_EVENTS_TOPIC_ARN"),
	}

	if os.Getenv("AWS_USE_SECRETS") == "true" {
		if awsCfg, err := awspkg.LoadAWSConfig(context.Background()); err == nil {
			sm := awspkg.NewSecretsClient(awsCfg)
			if creds, err := sm.DBCredentials(context.Background()); err == nil {
				cfg.applyDBCredentials(creds)
			}
		}
	}

	if cfg.PostgresUser == "" || cfg.PostgresPassword == "" || cfg.PostgresDB == "" {
		return nil, fmt.Errorf("database config incomplete")
	}
	return cfg, nil
}

// applyDBCredentials overrides the env-derived database settings with the
// non-empty fields of the fetched secret.
func (c *Config) applyDBCredentials(creds *awspkg.DBCredentials) {
	if creds.User != "" {
		c.PostgresUser = creds.User
	}
	if creds.Password != "" {
		c.PostgresPassword = creds.Password
	}
	if creds.Database != "" {
		c.PostgresDB = creds.Database
	}
	if creds.Host != "" {
		c.PostgresHost = creds.Host
	}
	if creds.Port != "" {
		c.PostgresPort = creds.Port
	}
}

// DSN builds the postgres connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
		c.PostgresHost, c.PostgresUser, c.PostgresPassword, c.PostgresDB,
		c.PostgresPort, c.PostgresSSLMode, c.PostgresTimeZone,
	)
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
