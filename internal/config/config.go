// Package config holds the broker settings every component receives at
// construction time. Nothing in the codebase reads the environment
// directly; FromEnv is the single place process configuration enters.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// DefaultExchange is the topic exchange chat messages are published to.
const DefaultExchange = "de_.*._para_.*"

// Config carries the broker connection settings.
type Config struct {
	User     string
	Password string
	Host     string
	Port     int
	Exchange string
}

// Default returns a config pointing at a local broker.
func Default() *Config {
	return &Config{
		Host:     "localhost",
		Port:     5672,
		Exchange: DefaultExchange,
	}
}

// FromEnv builds a Config from the process environment, falling back to
// defaults for unset variables.
//
// Recognized variables: RABBITMQ_DEFAULT_USER, RABBITMQ_DEFAULT_PASS,
// RABBIT_HOST, RABBIT_PORT, RABBIT_EXCHANGE.
func FromEnv() *Config {
	cfg := Default()
	cfg.User = getEnv("RABBITMQ_DEFAULT_USER", "")
	cfg.Password = getEnv("RABBITMQ_DEFAULT_PASS", "")
	cfg.Host = getEnv("RABBIT_HOST", cfg.Host)
	cfg.Exchange = getEnv("RABBIT_EXCHANGE", cfg.Exchange)
	if port, err := strconv.Atoi(getEnv("RABBIT_PORT", "")); err == nil {
		cfg.Port = port
	}
	return cfg
}

// URL renders the amqp connection string.
func (c *Config) URL() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%d", c.User, c.Password, c.Host, c.Port)
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
