// Package config provides configuration loading for guardd.
package config

import (
	"fmt"
	"time"

	"github.com/fyrsmithlabs/guardd/internal/analyze"
	"github.com/fyrsmithlabs/guardd/internal/classify"
	"github.com/fyrsmithlabs/guardd/internal/guardrail/pii"
	"github.com/fyrsmithlabs/guardd/internal/guardrail/secrets"
	"github.com/fyrsmithlabs/guardd/internal/guardrail/topic"
	"github.com/fyrsmithlabs/guardd/internal/guardrail/wordfilter"
	"github.com/fyrsmithlabs/guardd/internal/logging"
)

// Config is the top-level guardd configuration.
type Config struct {
	Server        ServerConfig      `koanf:"server"`
	Logging       logging.Config    `koanf:"logging"`
	Observability Observability     `koanf:"observability"`
	Analyzer      analyze.Config    `koanf:"analyzer"`
	Classifier    classify.Config   `koanf:"classifier"`
	Guardrails    GuardrailDefaults `koanf:"guardrails"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// Observability holds telemetry configuration.
type Observability struct {
	ServiceName    string `koanf:"service_name"`
	MetricsEnabled bool   `koanf:"metrics_enabled"`
}

// GuardrailDefaults lets deployments replace each check's default
// options at startup. Request overrides still merge on top per call.
type GuardrailDefaults struct {
	PII     pii.Options        `koanf:"pii"`
	Topic   topic.Options      `koanf:"topic"`
	Word    wordfilter.Options `koanf:"word"`
	Secrets secrets.Options    `koanf:"secrets"`
}

// Default returns the configuration defaults. Loading merges file and
// environment values over this.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host:            "localhost",
			Port:            9090,
			ShutdownTimeout: 10 * time.Second,
		},
		Logging: logging.DefaultConfig(),
		Observability: Observability{
			ServiceName:    "guardd",
			MetricsEnabled: true,
		},
		Analyzer: analyze.Config{
			BaseURL: "http://localhost:5002",
			Timeout: 30 * time.Second,
		},
		Classifier: classify.Config{
			BaseURL: "http://localhost:5003",
			Timeout: 30 * time.Second,
		},
		Guardrails: GuardrailDefaults{
			PII:     pii.DefaultOptions(),
			Topic:   topic.DefaultOptions(),
			Word:    wordfilter.DefaultOptions(),
			Secrets: secrets.DefaultOptions(),
		},
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in [1,65535], got %d", c.Server.Port)
	}
	if err := c.Logging.Validate(); err != nil {
		return err
	}
	if err := c.Analyzer.Validate(); err != nil {
		return err
	}
	if err := c.Classifier.Validate(); err != nil {
		return err
	}
	if err := c.Guardrails.PII.Validate(); err != nil {
		return fmt.Errorf("guardrails.pii: %w", err)
	}
	if err := c.Guardrails.Topic.Validate(); err != nil {
		return fmt.Errorf("guardrails.topic: %w", err)
	}
	if err := c.Guardrails.Word.Validate(); err != nil {
		return fmt.Errorf("guardrails.word: %w", err)
	}
	if err := c.Guardrails.Secrets.Validate(); err != nil {
		return fmt.Errorf("guardrails.secrets: %w", err)
	}
	return nil
}
