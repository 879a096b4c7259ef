package mcp

import (
	"fmt"
	"sort"
	"strings"

	z "github.com/Oudwins/zog"
	"github.com/mark3labs/mcp-go/mcp"
)

// NewToolResultZogIssueMap renders argument validation issues as a tool
// error, one line per argument in name order.
func NewToolResultZogIssueMap(issues z.ZogIssueMap) *mcp.CallToolResult {
	sanitized := z.Issues.SanitizeMap(issues)
	keys := make([]string, 0, len(sanitized))
	for k := range sanitized {
		if strings.HasPrefix(k, "$") {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteString("Invalid arguments:\n")
	for _, k := range keys {
		sb.WriteString(fmt.Sprintf("- %s: %s\n", k, strings.Join(sanitized[k], ", ")))
	}
	return mcp.NewToolResultError(sb.String())
}

func NewToolResultInvalidArgumentError(message string) *mcp.CallToolResult {
	return mcp.NewToolResultError(fmt.Sprintf("Invalid argument: %s", message))
}
