package tools

import (
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// Argument readers over request.Params.Arguments. JSON numbers arrive as
// float64.

func requireString(request mcp.CallToolRequest, key string) (string, error) {
	value, ok := request.Params.Arguments[key].(string)
	if !ok || value == "" {
		return "", fmt.Errorf("%s is required", key)
	}
	return value, nil
}

func argString(request mcp.CallToolRequest, key string) string {
	value, _ := request.Params.Arguments[key].(string)
	return value
}

func argInt(request mcp.CallToolRequest, key string, fallback int) int {
	switch value := request.Params.Arguments[key].(type) {
	case float64:
		return int(value)
	case int:
		return value
	}
	return fallback
}

func argBool(request mcp.CallToolRequest, key string, fallback bool) bool {
	if value, ok := request.Params.Arguments[key].(bool); ok {
		return value
	}
	return fallback
}
