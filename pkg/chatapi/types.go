package chatapi

// Roles used in chat requests.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Message is one turn of the conversation history sent to the server.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the request body for both the streaming and the plain
// chat endpoints.
type ChatRequest struct {
	Messages     []Message `json:"messages"`
	SystemPrompt string    `json:"system_prompt,omitempty"`
	Temperature  *float64  `json:"temperature,omitempty"`
}

// ChatResponse is the body returned by the plain chat endpoint.
type ChatResponse struct {
	Reply   string   `json:"reply"`
	Sources []string `json:"sources,omitempty"`
	Error   string   `json:"error,omitempty"`
}

// HealthStatus is the body returned by the health endpoint.
type HealthStatus struct {
	Status             string `json:"status"`
	ChatbotInitialized bool   `json:"chatbot_initialized"`
}

// Healthy reports whether the server answered and its chatbot is ready.
func (h *HealthStatus) Healthy() bool {
	return h != nil && h.ChatbotInitialized
}

// errorBody is the error shape the server uses on non-2xx responses.
type errorBody struct {
	Error string `json:"error"`
}
