package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// searchPortalTool returns the tool definition for search_portal.
func searchPortalTool() mcp.Tool {
	return mcp.Tool{
		Name:        "search_portal",
		Description: "Search the documentation and news portal with hybrid vector and keyword retrieval",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Search query (natural language or keywords)",
				},
				"category": map[string]interface{}{
					"type":        "string",
					"description": "Restrict results to one category ('docs' or 'news')",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of results to return (1-50)",
					"default":     10,
					"minimum":     1,
					"maximum":     50,
				},
				"mode": map[string]interface{}{
					"type":        "string",
					"description": "Fusion strategy: 'rrf' (default) or 'weighted'",
					"default":     "rrf",
				},
			},
			Required: []string{"query"},
		},
	}
}

// askAgentTool returns the tool definition for ask_agent.
func askAgentTool() mcp.Tool {
	return mcp.Tool{
		Name:        "ask_agent",
		Description: "Ask the portal's reasoning agent a question; it searches and computes as needed and returns an answer with its full step transcript",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "The question to answer",
				},
			},
			Required: []string{"query"},
		},
	}
}
