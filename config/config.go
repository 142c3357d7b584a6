// Package config provides configuration management for caprun.
package config

import (
	"github.com/victoralfred/caprun/auth"
	"github.com/victoralfred/caprun/observability"
)

// Config is the main configuration for caprun.
type Config struct {
	Telemetry      observability.TelemetryConfig
	Audit          observability.AuditConfig
	Auth           auth.GateConfig
	PolicyPath     string
	PolicyBasePath string
	PAMService     string
	ShellPath      string
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Telemetry:      observability.DefaultTelemetryConfig(),
		Audit:          observability.DefaultAuditConfig(),
		Auth:           auth.DefaultGateConfig(),
		PolicyPath:     "policy.yaml",
		PolicyBasePath: "/etc/caprun",
		PAMService:     "caprun",
		ShellPath:      "/bin/sh",
	}
}

// ProductionConfig returns configuration suitable for production.
func ProductionConfig() Config {
	cfg := DefaultConfig()
	cfg.Audit.LogLevel = observability.AuditLogAll
	cfg.Auth.AttemptsPerMinute = 3
	cfg.Auth.Burst = 1
	return cfg
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.PolicyPath == "" {
		c.PolicyPath = "policy.yaml"
	}

	if c.PolicyBasePath == "" {
		c.PolicyBasePath = "/etc/caprun"
	}

	if c.PAMService == "" {
		c.PAMService = "caprun"
	}

	if c.ShellPath == "" {
		c.ShellPath = "/bin/sh"
	}

	if c.Auth.AttemptsPerMinute <= 0 {
		c.Auth = auth.DefaultGateConfig()
	}

	return nil
}
