package tools

import (
	"context"
	"fmt"
	"path/filepath"

	z "github.com/Oudwins/zog"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/negokaz/excel-com/internal/config"
	"github.com/negokaz/excel-com/internal/excel"
	imcp "github.com/negokaz/excel-com/internal/mcp"
)

type ExcelSaveAsArguments struct {
	WorkbookId       string `zog:"workbookId"`
	FileAbsolutePath string `zog:"fileAbsolutePath"`
}

var excelSaveAsArgumentsSchema = z.Struct(z.Shape{
	"workbookId":       z.String().Required(),
	"fileAbsolutePath": z.String().Required(),
})

func AddExcelSaveAsTool(server *server.MCPServer, ws *Workspace) {
	server.AddTool(mcp.NewTool("excel_save_as",
		mcp.WithDescription("Save a tracked workbook to a file"),
		mcp.WithString("workbookId",
			mcp.Required(),
			mcp.Description("Workbook id returned by excel_create_workbook"),
		),
		mcp.WithString("fileAbsolutePath",
			mcp.Required(),
			mcp.Description("Absolute path where the workbook will be saved"),
		),
	), WithRecovery(ws.handleSaveAs))
}

func (w *Workspace) handleSaveAs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := ExcelSaveAsArguments{}
	if issues := excelSaveAsArgumentsSchema.Parse(request.Params.Arguments, &args); len(issues) != 0 {
		return imcp.NewToolResultZogIssueMap(issues), nil
	}
	if !filepath.IsAbs(args.FileAbsolutePath) {
		return imcp.NewToolResultInvalidArgumentError(fmt.Sprintf("path is not absolute: %s", args.FileAbsolutePath)), nil
	}
	if config.FileExists(args.FileAbsolutePath) && excel.FileIsNotWritable(args.FileAbsolutePath) {
		return imcp.NewToolResultInvalidArgumentError(fmt.Sprintf("file is not writable: %s", args.FileAbsolutePath)), nil
	}
	return w.run(ctx, func() (*mcp.CallToolResult, error) {
		return w.saveAs(args.WorkbookId, args.FileAbsolutePath)
	})
}

func (w *Workspace) saveAs(workbookID string, fileAbsolutePath string) (*mcp.CallToolResult, error) {
	tb, err := w.lookup(workbookID)
	if err != nil {
		return nil, err
	}
	saved, err := tb.book.SaveAs(fileAbsolutePath)
	if err != nil {
		return nil, err
	}
	tb.path = saved
	w.log.Info().Str("workbook", tb.id).Str("path", saved).Msg("workbook saved")

	result := "# Notice\n"
	result += fmt.Sprintf("workbookId: %s\n", tb.id)
	result += fmt.Sprintf("Workbook saved to: %s\n", saved)
	return mcp.NewToolResultText(result), nil
}
