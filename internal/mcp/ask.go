package mcp

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// maxQuestionRunes matches the HTTP surface's question cap.
const maxQuestionRunes = 2000

// AskInput defines the input schema for the ask tool.
type AskInput struct {
	Question string `json:"question" jsonschema:"The groundwater question, in English or Hindi. Location names, year ranges, and terms like 'trend' or 'stage' are all understood."`
}

func (s *Server) registerAskTool() error {
	schema, err := jsonschema.For[AskInput](nil)
	if err != nil {
		return fmt.Errorf("schema for ask: %w", err)
	}
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a groundwater question over the assessment data. Returns the structured answer as JSON: text, stage, readings table, citations, and an insufficient flag when the data cannot support an answer.",
		InputSchema: schema,
	}, s.Ask)
	return nil
}

// Ask handles the ask MCP tool call.
func (s *Server) Ask(ctx context.Context, req *mcp.CallToolRequest, input AskInput) (*mcp.CallToolResult, any, error) {
	question := strings.TrimSpace(input.Question)
	if question == "" {
		return errorResult("question must not be empty"), nil, nil
	}
	if utf8.RuneCountInString(question) > maxQuestionRunes {
		return errorResult("question exceeds %d characters", maxQuestionRunes), nil, nil
	}

	answer, err := s.pipe.Ask(ctx, question)
	if err != nil {
		return nil, nil, fmt.Errorf("ask failed: %w", err)
	}

	s.logger.Debug("mcp ask answered",
		"intent", answer.Intent,
		"language", answer.Language,
		"insufficient", answer.Insufficient)
	return dataToMCP(answer), nil, nil
}
