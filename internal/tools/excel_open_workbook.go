package tools

import (
	"context"
	"fmt"
	"html"
	"path/filepath"

	z "github.com/Oudwins/zog"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/negokaz/excel-com/internal/config"
	imcp "github.com/negokaz/excel-com/internal/mcp"
)

type ExcelOpenWorkbookArguments struct {
	FileAbsolutePath string `zog:"fileAbsolutePath"`
}

var excelOpenWorkbookArgumentsSchema = z.Struct(z.Shape{
	"fileAbsolutePath": z.String().Required(),
})

func AddExcelOpenWorkbookTool(server *server.MCPServer, ws *Workspace) {
	server.AddTool(mcp.NewTool("excel_open_workbook",
		mcp.WithDescription("Open an existing workbook file in the running Excel application and start tracking it"),
		mcp.WithString("fileAbsolutePath",
			mcp.Required(),
			mcp.Description("Absolute path to the Excel file to open"),
		),
	), WithRecovery(ws.handleOpenWorkbook))
}

func (w *Workspace) handleOpenWorkbook(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := ExcelOpenWorkbookArguments{}
	if issues := excelOpenWorkbookArgumentsSchema.Parse(request.Params.Arguments, &args); len(issues) != 0 {
		return imcp.NewToolResultZogIssueMap(issues), nil
	}
	if !filepath.IsAbs(args.FileAbsolutePath) {
		return imcp.NewToolResultInvalidArgumentError(fmt.Sprintf("path is not absolute: %s", args.FileAbsolutePath)), nil
	}
	if !config.FileExists(args.FileAbsolutePath) {
		return imcp.NewToolResultInvalidArgumentError(fmt.Sprintf("file not found: %s", args.FileAbsolutePath)), nil
	}
	return w.run(ctx, func() (*mcp.CallToolResult, error) {
		return w.openWorkbook(args.FileAbsolutePath)
	})
}

func (w *Workspace) openWorkbook(fileAbsolutePath string) (*mcp.CallToolResult, error) {
	app, err := w.application()
	if err != nil {
		return nil, err
	}
	book, err := app.OpenWorkbook(fileAbsolutePath)
	if err != nil {
		return nil, err
	}
	sheet, err := book.ActiveSheet()
	if err != nil {
		book.Release()
		return nil, err
	}
	defer sheet.Release()
	name, err := sheet.Name()
	if err != nil {
		book.Release()
		return nil, err
	}

	tb := w.track(book, name)
	tb.path = fileAbsolutePath
	w.log.Info().Str("workbook", tb.id).Str("path", fileAbsolutePath).Msg("workbook opened")

	result := "# Notice\n"
	result += fmt.Sprintf("workbookId: %s\n", tb.id)
	result += fmt.Sprintf("Workbook opened in Excel: %s (active sheet [%s])\n", fileAbsolutePath, html.EscapeString(name))
	return mcp.NewToolResultText(result), nil
}
