// Package tools implements the MCP tool handlers for quill.
//
// Each tool is a struct holding its dependencies, with Definition()
// returning the mcp.Tool schema and Handle() processing a call. One file
// per tool.
//
// Validation and not-found failures are returned as an error result whose
// text is {"success":false,"error":"..."}. Storage failures are returned
// as a Go error so the caller knows the write was lost.
package tools

import (
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/quill/internal/patterns"
)

// failure is the body of every structured error result.
type failure struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// failResult builds a structured error result.
func failResult(msg string) *mcp.CallToolResult {
	data, _ := json.Marshal(failure{Success: false, Error: msg})
	return mcp.NewToolResultError(string(data))
}

// engineError routes a patterns error: user errors become failure
// results, anything else is returned as a Go error.
func engineError(err error) (*mcp.CallToolResult, error) {
	if patterns.IsUserError(err) {
		return failResult(err.Error()), nil
	}
	return nil, err
}

// jsonResult marshals v as indented JSON text.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

// intArg extracts an integer argument, returning defaultVal if the key is
// missing or not a number (JSON numbers are float64).
func intArg(req mcp.CallToolRequest, key string, defaultVal int) int {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return defaultVal
	}
	return int(v)
}

// optInt is intArg for optional values; nil when absent.
func optInt(args map[string]any, key string) *int {
	v, ok := args[key].(float64)
	if !ok {
		return nil
	}
	n := int(v)
	return &n
}

// optString returns nil when key is absent or not a string.
func optString(args map[string]any, key string) *string {
	v, ok := args[key].(string)
	if !ok {
		return nil
	}
	return &v
}

// optBool returns nil when key is absent or not a boolean.
func optBool(args map[string]any, key string) *bool {
	v, ok := args[key].(bool)
	if !ok {
		return nil
	}
	return &v
}

// boolArg extracts a boolean argument.
func boolArg(req mcp.CallToolRequest, key string, defaultVal bool) bool {
	v, ok := req.GetArguments()[key].(bool)
	if !ok {
		return defaultVal
	}
	return v
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}
