package config

const (
	defaultBaseURL        = "http://localhost:5001"
	defaultStreamPath     = "/api/chat/stream"
	defaultChatPath       = "/api/chat"
	defaultHealthPath     = "/api/health"
	defaultInitializePath = "/api/initialize"
	defaultTimeout        = "5m"

	defaultLanguage = "en"

	defaultEventStreamProvider = "nop"
	defaultEventStreamTopic    = "fiekchat.turns"

	// renderBaseURL is the hosted deployment of the chatbot server.
	renderBaseURL = "https://fiek-ai-chatbot.onrender.com"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	streaming := true

	return &Config{
		Version: CurrentV,
		API: APIConfig{
			BaseURL:        defaultBaseURL,
			StreamPath:     defaultStreamPath,
			ChatPath:       defaultChatPath,
			HealthPath:     defaultHealthPath,
			InitializePath: defaultInitializePath,
			Timeout:        defaultTimeout,
		},
		Chat: ChatConfig{
			Streaming: &streaming,
			Language:  defaultLanguage,
		},
		EventStream: EventStreamConfig{
			Provider: defaultEventStreamProvider,
			Topic:    defaultEventStreamTopic,
		},
	}
}
