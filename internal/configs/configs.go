/*
Package configs is responsible for loading and parsing the application's configuration settings.

It configures server parameters by reading operating system environment
variables, including the running environment, the chat and ops listen ports,
the handshake timeout, channel buffer sizes, and per-session rate limits.
*/
package configs

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// AppConfig contains all configuration parameters required for the application to run.
// All configuration values are loaded from environment variables.
type AppConfig struct {
	// General Server Settings
	Environment string
	Port        int
	OpsPort     int

	// Handshake Settings
	HandshakeTimeout time.Duration

	// Channel Buffer Settings
	MailboxBuffer   int
	BroadcastBuffer int
	CommandBuffer   int

	// Per-Session Rate Limit Settings
	MessageRate  float64
	MessageBurst int

	// Ops API Settings
	AllowedOrigins []string
}

// LoadConfig reads and parses the application configuration from environment variables.
// It provides default values for each configuration item and performs
// necessary type conversions and validation.
func LoadConfig() (*AppConfig, error) {
	cfg := &AppConfig{}

	// --- General Server Settings ---
	cfg.Environment = os.Getenv("ENVIRONMENT")
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}

	port, err := intFromEnv("PORT", 4040)
	if err != nil {
		return nil, err
	}
	cfg.Port = port

	if cfg.Port < 1024 || cfg.Port > 65535 {
		return nil, fmt.Errorf("port number %d is outside the recommended range (%d-%d) to avoid privileged ports", cfg.Port, 1024, 65535)
	}

	opsPort, err := intFromEnv("OPS_PORT", 8080)
	if err != nil {
		return nil, err
	}
	cfg.OpsPort = opsPort

	if cfg.OpsPort == cfg.Port {
		return nil, fmt.Errorf("OPS_PORT must differ from PORT (both set to %d)", cfg.Port)
	}

	// --- Handshake Settings ---
	timeoutStr := os.Getenv("HANDSHAKE_TIMEOUT")
	if timeoutStr == "" {
		timeoutStr = "5s"
	}
	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid HANDSHAKE_TIMEOUT environment variable: %w", err)
	}
	if timeout <= 0 {
		return nil, fmt.Errorf("HANDSHAKE_TIMEOUT must be positive, got %s", timeout)
	}
	cfg.HandshakeTimeout = timeout

	// --- Channel Buffer Settings ---
	if cfg.MailboxBuffer, err = intFromEnv("MAILBOX_BUFFER", 32); err != nil {
		return nil, err
	}
	if cfg.BroadcastBuffer, err = intFromEnv("BROADCAST_BUFFER", 64); err != nil {
		return nil, err
	}
	if cfg.CommandBuffer, err = intFromEnv("COMMAND_BUFFER", 64); err != nil {
		return nil, err
	}

	for name, v := range map[string]int{
		"MAILBOX_BUFFER":   cfg.MailboxBuffer,
		"BROADCAST_BUFFER": cfg.BroadcastBuffer,
		"COMMAND_BUFFER":   cfg.CommandBuffer,
	} {
		if v < 1 {
			return nil, fmt.Errorf("%s must be at least 1, got %d", name, v)
		}
	}

	// --- Per-Session Rate Limit Settings ---
	rateStr := os.Getenv("MESSAGE_RATE")
	if rateStr == "" {
		rateStr = "20"
	}
	msgRate, err := strconv.ParseFloat(rateStr, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid MESSAGE_RATE environment variable: %w", err)
	}
	if msgRate <= 0 {
		return nil, fmt.Errorf("MESSAGE_RATE must be positive, got %v", msgRate)
	}
	cfg.MessageRate = msgRate

	if cfg.MessageBurst, err = intFromEnv("MESSAGE_BURST", 40); err != nil {
		return nil, err
	}
	if cfg.MessageBurst < 1 {
		return nil, fmt.Errorf("MESSAGE_BURST must be at least 1, got %d", cfg.MessageBurst)
	}

	// --- Ops API Settings ---
	originsStr := os.Getenv("ALLOWED_ORIGINS")
	if originsStr != "" {
		for _, origin := range strings.Split(originsStr, ",") {
			trimmed := strings.TrimSpace(origin)
			if trimmed != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, trimmed)
			}
		}
	} else {
		cfg.AllowedOrigins = []string{}
	}

	return cfg, nil
}

// intFromEnv reads an integer environment variable, falling back to the
// given default when the variable is unset.
func intFromEnv(name string, fallback int) (int, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", name, err)
	}
	return v, nil
}
