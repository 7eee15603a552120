package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	searchuc "github.com/lorehub/lore/internal/usecase/search"
)

// MCP error codes.
const (
	ErrorCodeInvalidParams = -32602 // Invalid method parameters
	ErrorCodeInternalError = -32603 // Internal JSON-RPC error
	ErrorCodeEmptyQuery    = -32001 // Query parameter is empty
)

const maxSearchLimit = 50

// handleSearchPortal handles the search_portal tool invocation.
func (s *Server) handleSearchPortal(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	query, ok := args["query"].(string)
	if !ok || query == "" {
		return nil, newMCPError(ErrorCodeEmptyQuery, "query parameter is required and cannot be empty", map[string]interface{}{
			"param":  "query",
			"reason": "missing or empty",
		})
	}

	limit := getIntDefault(args, "limit", 10)
	if limit < 1 || limit > maxSearchLimit {
		return nil, newMCPError(ErrorCodeInvalidParams, fmt.Sprintf("limit must be between 1 and %d", maxSearchLimit), map[string]interface{}{
			"param": "limit",
			"value": limit,
		})
	}

	category := getStringDefault(args, "category", "")
	mode := getStringDefault(args, "mode", "rrf")

	opts := searchuc.Options{Limit: limit, Category: category}
	var (
		results []searchuc.Result
		err     error
	)
	switch mode {
	case "rrf":
		results, err = s.search.Hybrid(ctx, query, opts)
	case "weighted":
		results, err = s.search.Weighted(ctx, query, opts)
	default:
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid mode", map[string]interface{}{
			"param":   "mode",
			"value":   mode,
			"allowed": []string{"rrf", "weighted"},
		})
	}
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "search failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	items := make([]map[string]interface{}, len(results))
	for i, r := range results {
		items[i] = map[string]interface{}{
			"id":       r.Doc.ID(),
			"title":    r.Doc.Title(),
			"content":  r.Doc.Content(),
			"category": r.Doc.Category(),
			"score":    r.Score,
		}
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"items": items,
		"total": len(items),
	})), nil
}

// handleAskAgent handles the ask_agent tool invocation.
func (s *Server) handleAskAgent(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	query, ok := args["query"].(string)
	if !ok || query == "" {
		return nil, newMCPError(ErrorCodeEmptyQuery, "query parameter is required and cannot be empty", map[string]interface{}{
			"param":  "query",
			"reason": "missing or empty",
		})
	}

	result, err := s.agent.Run(ctx, query)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "agent run failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	steps := make([]map[string]interface{}, len(result.Steps))
	for i, step := range result.Steps {
		entry := map[string]interface{}{}
		if step.Thought != "" {
			entry["thought"] = step.Thought
		}
		if step.Action != "" {
			entry["action"] = step.Action
			entry["action_input"] = map[string]interface{}(step.ActionInput)
		}
		if step.Observation != "" {
			entry["observation"] = step.Observation
		}
		steps[i] = entry
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"run_id":     result.RunID,
		"answer":     result.Answer,
		"outcome":    string(result.Outcome),
		"iterations": result.Iterations,
		"elapsed_ms": result.Elapsed.Milliseconds(),
		"steps":      steps,
	})), nil
}

func newMCPError(code int, message string, data interface{}) error {
	// MCP errors are returned as regular errors, the framework handles encoding
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error.
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// getIntDefault extracts an integer parameter with a default value.
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}

// getStringDefault extracts a string parameter with a default value.
func getStringDefault(args map[string]interface{}, key string, defaultValue string) string {
	if val, ok := args[key].(string); ok {
		return val
	}
	return defaultValue
}
