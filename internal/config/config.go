// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config carries all environment-derived settings for the daemon. Values
// come from the process environment; cmd mains load a .env file first via
// godotenv autoload.
type Config struct {
	// NATS connection settings.
	NatsHost       string // required, e.g. "nats.example.com:4222"
	NatsUser       string
	NatsPassword   string
	NatsCA         string // path to a root CA certificate file
	NatsCAContents string // inline PEM contents, materialized to a temp file
	NatsInsecure   bool   // disable TLS requirement entirely
	ConnectRetries int    // per-candidate transport retry bound

	// Lobby settings.
	MaxRooms     int    // ceiling on active (non-started) rooms
	FakeClientIP string // client_ip placed in deployment requests

	// HTTP listen address.
	Addr string
}

// Load reads configuration from the environment. NATS_HOST is the only
// required variable.
func Load() (*Config, error) {
	host := os.Getenv("NATS_HOST")
	if host == "" {
		return nil, fmt.Errorf("missing NATS_HOST env")
	}

	cfg := &Config{
		NatsHost:       host,
		NatsUser:       os.Getenv("NATS_USER"),
		NatsPassword:   os.Getenv("NATS_PASSWORD"),
		NatsCA:         os.Getenv("NATS_CA"),
		NatsCAContents: os.Getenv("NATS_CA_CONTENTS"),
		NatsInsecure:   getEnvBool("NATS_INSECURE", false),
		ConnectRetries: getEnvInt("NATS_CONNECT_RETRIES", 10),
		MaxRooms:       getEnvInt("LOBBYD_MAX_ROOMS", 10),
		FakeClientIP:   getEnv("LOBBYD_FAKE_CLIENT_IP", "127.0.0.1"),
		Addr:           ":" + getEnv("PORT", "8080"),
	}
	return cfg, nil
}

// getEnv is a helper to read an environment variable or return a default value.
func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

// getEnvInt is a helper to parse an environment variable as integer, else a default value.
func getEnvInt(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

// getEnvBool reports whether the variable is set at all. Flags like
// NATS_INSECURE are presence-based, not value-parsed.
func getEnvBool(key string, def bool) bool {
	if _, ok := os.LookupEnv(key); ok {
		return true
	}
	return def
}
