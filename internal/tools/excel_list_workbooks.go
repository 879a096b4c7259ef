package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

type workbookInfo struct {
	WorkbookID string `json:"workbookId"`
	SheetName  string `json:"sheetName"`
	SavedAs    string `json:"savedAs,omitempty"`
}

func AddExcelListWorkbooksTool(server *server.MCPServer, ws *Workspace) {
	server.AddTool(mcp.NewTool("excel_list_workbooks",
		mcp.WithDescription("List the workbooks created through this server that are still open"),
	), WithRecovery(ws.handleListWorkbooks))
}

func (w *Workspace) handleListWorkbooks(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return w.run(ctx, w.listWorkbooks)
}

func (w *Workspace) listWorkbooks() (*mcp.CallToolResult, error) {
	books := w.list()
	workbooks := make([]workbookInfo, 0, len(books))
	for _, tb := range books {
		workbooks = append(workbooks, workbookInfo{
			WorkbookID: tb.id,
			SheetName:  tb.sheet,
			SavedAs:    tb.path,
		})
	}

	jsonData, err := json.MarshalIndent(workbooks, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal workbook list: %w", err)
	}

	result := "# Open Workbooks\n"
	result += fmt.Sprintf("Found %d open workbook(s):\n\n", len(workbooks))
	result += "```json\n"
	result += string(jsonData) + "\n"
	result += "```\n"
	return mcp.NewToolResultText(result), nil
}
