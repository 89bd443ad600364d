package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/fiekai/fiekchat/pkg/dotdir"
)

// EnvPrefix prefixes the environment variables viper reads, e.g.
// FIEKCHAT_API_BASE_URL.
const EnvPrefix = "FIEKCHAT"

// InitViper creates and returns a configured *viper.Viper.
// It sets defaults from NewDefaultConfig(), reads the config.toml file
// (if found via dotdir resolution), and binds environment variables
// with the FIEKCHAT_ prefix.
//
// Config precedence (highest to lowest):
//  1. CLI flags (once bound via BindRegisteredFlags)
//  2. Environment variables (FIEKCHAT_API_BASE_URL, FIEKCHAT_CHAT_LANGUAGE, etc.)
//  3. config.toml file values
//  4. Defaults from NewDefaultConfig()
func InitViper(configDir string) (*viper.Viper, error) {
	v := viper.New()

	// 1. Register all defaults from NewDefaultConfig().
	setViperDefaults(v)

	// 2. Config file discovery via dotdir resolution.
	v.SetConfigName("config")
	v.SetConfigType("toml")

	ddm := dotdir.NewManager()
	target, err := ddm.Target(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}

	if target != "" {
		v.AddConfigPath(target)
	}

	if err := v.ReadInConfig(); err != nil {
		// Config file not found errors are fine, defaults will apply.
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	// 3. Environment variables: FIEKCHAT_API_BASE_URL, FIEKCHAT_MCP_LISTEN, etc.
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// setViperDefaults registers defaults from NewDefaultConfig() into viper
// using dotted-key notation. This keeps defaults.go as the single source of truth.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("version", d.Version)

	// API
	v.SetDefault("api.base_url", d.API.BaseURL)
	v.SetDefault("api.stream_path", d.API.StreamPath)
	v.SetDefault("api.chat_path", d.API.ChatPath)
	v.SetDefault("api.health_path", d.API.HealthPath)
	v.SetDefault("api.initialize_path", d.API.InitializePath)
	v.SetDefault("api.timeout", d.API.Timeout)

	// Chat. chat.temperature has no default: unset means the server decides.
	v.SetDefault("chat.streaming", d.Chat.StreamingEnabled())
	v.SetDefault("chat.system_prompt", d.Chat.SystemPrompt)
	v.SetDefault("chat.language", d.Chat.Language)
	v.SetDefault("chat.welcome", d.Chat.Welcome)

	// Log
	v.SetDefault("log.json", d.Log.JSON)
	v.SetDefault("log.pretty", d.Log.Pretty)

	// Event stream
	v.SetDefault("eventstream.provider", d.EventStream.Provider)
	v.SetDefault("eventstream.brokers", d.EventStream.Brokers)
	v.SetDefault("eventstream.topic", d.EventStream.Topic)

	// MCP
	v.SetDefault("mcp.listen", d.MCP.Listen)
}

// FromViper resolves the effective Config from v's precedence chain and
// validates the values that have a format.
func FromViper(v *viper.Viper) (*Config, error) {
	streaming := v.GetBool("chat.streaming")

	cfg := &Config{
		Version: v.GetInt("version"),
		API: APIConfig{
			BaseURL:        v.GetString("api.base_url"),
			StreamPath:     v.GetString("api.stream_path"),
			ChatPath:       v.GetString("api.chat_path"),
			HealthPath:     v.GetString("api.health_path"),
			InitializePath: v.GetString("api.initialize_path"),
			Timeout:        v.GetString("api.timeout"),
		},
		Chat: ChatConfig{
			Streaming:    &streaming,
			SystemPrompt: v.GetString("chat.system_prompt"),
			Language:     strings.ToLower(v.GetString("chat.language")),
			Welcome:      v.GetString("chat.welcome"),
		},
		Log: LogConfig{
			JSON:   v.GetBool("log.json"),
			Pretty: v.GetBool("log.pretty"),
		},
		EventStream: EventStreamConfig{
			Provider: v.GetString("eventstream.provider"),
			Brokers:  v.GetString("eventstream.brokers"),
			Topic:    v.GetString("eventstream.topic"),
		},
		MCP: MCPConfig{
			Listen: v.GetString("mcp.listen"),
		},
	}

	if _, err := cfg.API.TimeoutDuration(); err != nil {
		return nil, err
	}

	if v.IsSet("chat.temperature") {
		t, err := ParseTemperature(v.GetString("chat.temperature"))
		if err != nil {
			return nil, err
		}
		cfg.Chat.Temperature = t
	}

	return cfg, nil
}
