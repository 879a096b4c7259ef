package tools

import (
	"context"
	"fmt"

	z "github.com/Oudwins/zog"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	imcp "github.com/negokaz/excel-com/internal/mcp"
)

type ExcelCloseWorkbookArguments struct {
	WorkbookId  string `zog:"workbookId"`
	SaveChanges bool   `zog:"saveChanges"`
}

var excelCloseWorkbookArgumentsSchema = z.Struct(z.Shape{
	"workbookId":  z.String().Required(),
	"saveChanges": z.Bool().Default(false),
})

func AddExcelCloseWorkbookTool(server *server.MCPServer, ws *Workspace) {
	server.AddTool(mcp.NewTool("excel_close_workbook",
		mcp.WithDescription("Close a tracked workbook and stop tracking it"),
		mcp.WithString("workbookId",
			mcp.Required(),
			mcp.Description("Workbook id returned by excel_create_workbook"),
		),
		mcp.WithBoolean("saveChanges",
			mcp.Description("Save pending changes before closing (default: false)"),
		),
	), WithRecovery(ws.handleCloseWorkbook))
}

func (w *Workspace) handleCloseWorkbook(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := ExcelCloseWorkbookArguments{}
	if issues := excelCloseWorkbookArgumentsSchema.Parse(request.Params.Arguments, &args); len(issues) != 0 {
		return imcp.NewToolResultZogIssueMap(issues), nil
	}
	return w.run(ctx, func() (*mcp.CallToolResult, error) {
		return w.closeWorkbook(args.WorkbookId, args.SaveChanges)
	})
}

func (w *Workspace) closeWorkbook(workbookID string, saveChanges bool) (*mcp.CallToolResult, error) {
	tb, err := w.lookup(workbookID)
	if err != nil {
		return nil, err
	}
	if err := tb.book.Close(saveChanges); err != nil {
		return nil, err
	}
	w.forget(tb)
	w.log.Info().Str("workbook", tb.id).Bool("saveChanges", saveChanges).Msg("workbook closed")

	result := "# Notice\n"
	result += fmt.Sprintf("Workbook %s closed.\n", tb.id)
	return mcp.NewToolResultText(result), nil
}
