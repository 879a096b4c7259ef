package tools

import (
	"context"
	"fmt"
	"html"

	z "github.com/Oudwins/zog"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/negokaz/excel-com/internal/config"
	imcp "github.com/negokaz/excel-com/internal/mcp"
)

type ExcelRenameSheetArguments struct {
	WorkbookId   string `zog:"workbookId"`
	NewSheetName string `zog:"newSheetName"`
}

var excelRenameSheetArgumentsSchema = z.Struct(z.Shape{
	"workbookId":   z.String().Required(),
	"newSheetName": config.SheetNameString().Required(),
})

func AddExcelRenameSheetTool(server *server.MCPServer, ws *Workspace) {
	server.AddTool(mcp.NewTool("excel_rename_sheet",
		mcp.WithDescription("Rename the active sheet of a tracked workbook"),
		mcp.WithString("workbookId",
			mcp.Required(),
			mcp.Description("Workbook id returned by excel_create_workbook"),
		),
		mcp.WithString("newSheetName",
			mcp.Required(),
			mcp.Description("New name for the sheet"),
		),
	), WithRecovery(ws.handleRenameSheet))
}

func (w *Workspace) handleRenameSheet(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := ExcelRenameSheetArguments{}
	if issues := excelRenameSheetArgumentsSchema.Parse(request.Params.Arguments, &args); len(issues) != 0 {
		return imcp.NewToolResultZogIssueMap(issues), nil
	}
	return w.run(ctx, func() (*mcp.CallToolResult, error) {
		return w.renameSheet(args.WorkbookId, args.NewSheetName)
	})
}

func (w *Workspace) renameSheet(workbookID string, newSheetName string) (*mcp.CallToolResult, error) {
	tb, err := w.lookup(workbookID)
	if err != nil {
		return nil, err
	}
	sheet, err := tb.book.ActiveSheet()
	if err != nil {
		return nil, err
	}
	defer sheet.Release()

	if err := sheet.SetName(newSheetName); err != nil {
		return nil, err
	}
	oldSheetName := tb.sheet
	tb.sheet = newSheetName

	result := "# Notice\n"
	result += fmt.Sprintf("workbookId: %s\n", tb.id)
	result += fmt.Sprintf("Sheet [%s] renamed to [%s].\n", html.EscapeString(oldSheetName), html.EscapeString(newSheetName))
	return mcp.NewToolResultText(result), nil
}
