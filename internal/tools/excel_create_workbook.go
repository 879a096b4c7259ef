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

type ExcelCreateWorkbookArguments struct {
	SheetName string `zog:"sheetName"`
}

var excelCreateWorkbookArgumentsSchema = z.Struct(z.Shape{
	"sheetName": config.SheetNameString(),
})

func AddExcelCreateWorkbookTool(server *server.MCPServer, ws *Workspace) {
	server.AddTool(mcp.NewTool("excel_create_workbook",
		mcp.WithDescription("Create a new workbook in the running Excel application and start tracking it"),
		mcp.WithString("sheetName",
			mcp.Description("Name to give the active sheet of the new workbook"),
		),
	), WithRecovery(ws.handleCreateWorkbook))
}

func (w *Workspace) handleCreateWorkbook(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := ExcelCreateWorkbookArguments{}
	if issues := excelCreateWorkbookArgumentsSchema.Parse(request.Params.Arguments, &args); len(issues) != 0 {
		return imcp.NewToolResultZogIssueMap(issues), nil
	}
	return w.run(ctx, func() (*mcp.CallToolResult, error) {
		return w.createWorkbook(args.SheetName)
	})
}

func (w *Workspace) createWorkbook(sheetName string) (*mcp.CallToolResult, error) {
	app, err := w.application()
	if err != nil {
		return nil, err
	}
	book, err := app.AddWorkbook()
	if err != nil {
		return nil, err
	}
	sheet, err := book.ActiveSheet()
	if err != nil {
		book.Release()
		return nil, err
	}
	defer sheet.Release()

	if sheetName != "" {
		if err := sheet.SetName(sheetName); err != nil {
			book.Release()
			return nil, err
		}
	}
	name, err := sheet.Name()
	if err != nil {
		book.Release()
		return nil, err
	}

	tb := w.track(book, name)
	w.log.Info().Str("workbook", tb.id).Str("sheet", name).Msg("workbook created")

	result := "# Notice\n"
	result += fmt.Sprintf("workbookId: %s\n", tb.id)
	result += fmt.Sprintf("New workbook created with active sheet [%s].\n", html.EscapeString(name))
	return mcp.NewToolResultText(result), nil
}
