package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Config represents the persistent fiekchat configuration stored as
// config.toml in the .fiekchat/ directory. The TOML layout uses sections for
// logical grouping.
type Config struct {
	Version     int               `toml:"version"`
	API         APIConfig         `toml:"api"`
	Chat        ChatConfig        `toml:"chat"`
	Log         LogConfig         `toml:"log"`
	EventStream EventStreamConfig `toml:"eventstream"`
	MCP         MCPConfig         `toml:"mcp"`
}

// APIConfig locates the chatbot server and its endpoints.
type APIConfig struct {
	BaseURL        string `toml:"base_url,omitempty"`
	StreamPath     string `toml:"stream_path,omitempty"`
	ChatPath       string `toml:"chat_path,omitempty"`
	HealthPath     string `toml:"health_path,omitempty"`
	InitializePath string `toml:"initialize_path,omitempty"`

	// Timeout is a Go duration string, e.g. "5m".
	Timeout string `toml:"timeout,omitempty"`
}

// TimeoutDuration parses Timeout.
func (a APIConfig) TimeoutDuration() (time.Duration, error) {
	if a.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(a.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid value for api.timeout: %w", err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid value for api.timeout: %s is negative", a.Timeout)
	}
	return d, nil
}

// ChatConfig parameterizes the chat shell.
type ChatConfig struct {
	// Streaming selects the streaming endpoint. Nil means true.
	Streaming *bool `toml:"streaming,omitempty"`

	SystemPrompt string `toml:"system_prompt,omitempty"`

	// Temperature is sent to the server when set.
	Temperature *float64 `toml:"temperature,omitempty"`

	// Language picks the welcome text and input placeholder ("en" or "sq").
	Language string `toml:"language,omitempty"`

	// Welcome overrides the language's welcome message.
	Welcome string `toml:"welcome,omitempty"`
}

// StreamingEnabled reports whether the streaming endpoint should be used.
func (c ChatConfig) StreamingEnabled() bool {
	return c.Streaming == nil || *c.Streaming
}

// LogConfig holds log output settings.
type LogConfig struct {
	JSON   bool `toml:"json,omitempty"`
	Pretty bool `toml:"pretty,omitempty"`
}

// EventStreamConfig holds turn event publishing settings.
type EventStreamConfig struct {
	// Provider is "nop" or "kafka".
	Provider string `toml:"provider,omitempty"`

	// Brokers is a comma-separated list of host:port pairs.
	Brokers string `toml:"brokers,omitempty"`

	Topic string `toml:"topic,omitempty"`
}

// BrokerList splits Brokers, dropping empty entries.
func (e EventStreamConfig) BrokerList() []string {
	var out []string
	for _, b := range strings.Split(e.Brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

// MCPConfig holds MCP bridge settings.
type MCPConfig struct {
	// Listen is the HTTP address to serve on. Empty means stdio.
	Listen string `toml:"listen,omitempty"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

func stringKey(field func(c *Config) *string) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string { return *field(c) },
		set: func(c *Config, v string) error { *field(c) = v; return nil },
	}
}

func boolKey(name string, field func(c *Config) *bool) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string { return strconv.FormatBool(*field(c)) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", name, err)
			}
			*field(c) = b
			return nil
		},
	}
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"api.base_url":        stringKey(func(c *Config) *string { return &c.API.BaseURL }),
	"api.stream_path":     stringKey(func(c *Config) *string { return &c.API.StreamPath }),
	"api.chat_path":       stringKey(func(c *Config) *string { return &c.API.ChatPath }),
	"api.health_path":     stringKey(func(c *Config) *string { return &c.API.HealthPath }),
	"api.initialize_path": stringKey(func(c *Config) *string { return &c.API.InitializePath }),
	"api.timeout": {
		get: func(c *Config) string { return c.API.Timeout },
		set: func(c *Config, v string) error {
			probe := APIConfig{Timeout: v}
			if _, err := probe.TimeoutDuration(); err != nil {
				return err
			}
			c.API.Timeout = v
			return nil
		},
	},
	"chat.streaming": {
		get: func(c *Config) string { return strconv.FormatBool(c.Chat.StreamingEnabled()) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for chat.streaming: %w", err)
			}
			c.Chat.Streaming = &b
			return nil
		},
	},
	"chat.system_prompt": stringKey(func(c *Config) *string { return &c.Chat.SystemPrompt }),
	"chat.temperature": {
		get: func(c *Config) string {
			if c.Chat.Temperature == nil {
				return ""
			}
			return strconv.FormatFloat(*c.Chat.Temperature, 'f', -1, 64)
		},
		set: func(c *Config, v string) error {
			t, err := ParseTemperature(v)
			if err != nil {
				return err
			}
			c.Chat.Temperature = t
			return nil
		},
	},
	"chat.language": {
		get: func(c *Config) string { return c.Chat.Language },
		set: func(c *Config, v string) error {
			v = strings.ToLower(v)
			if v != "en" && v != "sq" {
				return fmt.Errorf("invalid value for chat.language: %q (available: en, sq)", v)
			}
			c.Chat.Language = v
			return nil
		},
	},
	"chat.welcome": stringKey(func(c *Config) *string { return &c.Chat.Welcome }),
	"log.json":     boolKey("log.json", func(c *Config) *bool { return &c.Log.JSON }),
	"log.pretty":   boolKey("log.pretty", func(c *Config) *bool { return &c.Log.Pretty }),
	"eventstream.provider": {
		get: func(c *Config) string { return c.EventStream.Provider },
		set: func(c *Config, v string) error {
			if v != "nop" && v != "kafka" {
				return fmt.Errorf("invalid value for eventstream.provider: %q (available: nop, kafka)", v)
			}
			c.EventStream.Provider = v
			return nil
		},
	},
	"eventstream.brokers": stringKey(func(c *Config) *string { return &c.EventStream.Brokers }),
	"eventstream.topic":   stringKey(func(c *Config) *string { return &c.EventStream.Topic }),
	"mcp.listen":          stringKey(func(c *Config) *string { return &c.MCP.Listen }),
}

// ParseTemperature parses a sampling temperature. An empty string means unset.
func ParseTemperature(v string) (*float64, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, nil
	}

	t, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid value for chat.temperature: %w", err)
	}
	if t < 0 || t > 2 {
		return nil, fmt.Errorf("invalid value for chat.temperature: %v is outside [0, 2]", t)
	}
	return &t, nil
}
