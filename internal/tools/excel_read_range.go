package tools

import (
	"context"
	"fmt"

	z "github.com/Oudwins/zog"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/negokaz/excel-com/internal/excel"
	imcp "github.com/negokaz/excel-com/internal/mcp"
)

type ExcelReadRangeArguments struct {
	WorkbookId string `zog:"workbookId"`
	Range      string `zog:"range"`
}

var excelReadRangeArgumentsSchema = z.Struct(z.Shape{
	"workbookId": z.String().Required(),
	"range":      z.String().Required(),
})

func AddExcelReadRangeTool(server *server.MCPServer, ws *Workspace) {
	server.AddTool(mcp.NewTool("excel_read_range",
		mcp.WithDescription("Read values from the active sheet of a tracked workbook"),
		mcp.WithString("workbookId",
			mcp.Required(),
			mcp.Description("Workbook id returned by excel_create_workbook"),
		),
		mcp.WithString("range",
			mcp.Required(),
			mcp.Description("Range to read (e.g., \"A1:B2\")"),
		),
	), WithRecovery(ws.handleReadRange))
}

func (w *Workspace) handleReadRange(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := ExcelReadRangeArguments{}
	if issues := excelReadRangeArgumentsSchema.Parse(request.Params.Arguments, &args); len(issues) != 0 {
		return imcp.NewToolResultZogIssueMap(issues), nil
	}
	if _, _, _, _, err := excel.ParseRange(args.Range); err != nil {
		return imcp.NewToolResultInvalidArgumentError(err.Error()), nil
	}
	return w.run(ctx, func() (*mcp.CallToolResult, error) {
		return w.readRange(args.WorkbookId, excel.NormalizeRange(args.Range))
	})
}

func (w *Workspace) readRange(workbookID string, rangeStr string) (*mcp.CallToolResult, error) {
	tb, err := w.lookup(workbookID)
	if err != nil {
		return nil, err
	}
	sheet, err := tb.book.ActiveSheet()
	if err != nil {
		return nil, err
	}
	defer sheet.Release()

	rng, err := sheet.Range(rangeStr)
	if err != nil {
		return nil, err
	}
	defer rng.Release()

	v, err := rng.Value()
	if err != nil {
		return nil, err
	}
	defer v.Release()

	result := "# Values\n"
	result += fmt.Sprintf("workbookId: %s\n", tb.id)
	result += fmt.Sprintf("range: %s\n", rangeStr)
	result += "```\n"
	result += v.String() + "\n"
	result += "```\n"
	return mcp.NewToolResultText(result), nil
}
