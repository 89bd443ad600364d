package mcp

import (
	"context"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/fiekai/fiekchat/pkg/conversation"
	"github.com/fiekai/fiekchat/pkg/logger"
	"github.com/fiekai/fiekchat/pkg/utils"
)

var (
	askToolName    = "ask_fiek"
	askDescription = "Ask the FIEK AI Chatbot a question about the Faculty of Electrical and Computer Engineering " +
		"(University of Prishtina): study programs, exams, schedules, admissions and staff. Answers in the " +
		"language of the question (English or Albanian) and may cite sources."
)

// AskInput represents the input arguments for the ask tool.
type AskInput struct {
	Question string `json:"question" jsonschema:"the question to ask, in English or Albanian"`
}

// AskOutput represents the output of the ask tool.
type AskOutput struct {
	RequestID string `json:"request_id"`
	Reply     string `json:"reply"`

	// Truncated is true when the server stopped without finishing the reply.
	Truncated bool `json:"truncated,omitempty"`
}

// handleAsk processes an ask request.
func (s *Server) handleAsk(ctx context.Context, _ *mcp.CallToolRequest, input AskInput) (*mcp.CallToolResult, AskOutput, error) {
	question := strings.TrimSpace(input.Question)
	if question == "" {
		return errorResult("question must not be empty"), AskOutput{}, nil
	}

	s.logger.Debug("MCP ask request", "question", utils.Truncate(question, 80))

	res, err := s.config.Asker.Ask(ctx, question, nil)
	if err != nil {
		s.logger.Error("ask failed", "request_id", res.RequestID, logger.Err(err))
		return errorResult(conversation.ErrorText(err)), AskOutput{}, nil
	}

	out := AskOutput{
		RequestID: res.RequestID,
		Reply:     res.Text,
		Truncated: res.Truncated,
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: res.Text},
		},
	}, out, nil
}

func errorResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}
}
