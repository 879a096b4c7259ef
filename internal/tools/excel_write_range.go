package tools

import (
	"context"
	"fmt"

	z "github.com/Oudwins/zog"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/negokaz/excel-com/internal/automation"
	"github.com/negokaz/excel-com/internal/excel"
	imcp "github.com/negokaz/excel-com/internal/mcp"
)

type ExcelWriteRangeArguments struct {
	WorkbookId string `zog:"workbookId"`
	Range      string `zog:"range"`
}

var excelWriteRangeArgumentsSchema = z.Struct(z.Shape{
	"workbookId": z.String().Required(),
	"range":      z.String().Required(),
})

func AddExcelWriteRangeTool(server *server.MCPServer, ws *Workspace) {
	server.AddTool(mcp.NewTool("excel_write_range",
		mcp.WithDescription("Write a block of values to the active sheet of a tracked workbook"),
		mcp.WithString("workbookId",
			mcp.Required(),
			mcp.Description("Workbook id returned by excel_create_workbook"),
		),
		mcp.WithString("range",
			mcp.Required(),
			mcp.Description("Top-left cell (e.g., \"A1\") or the full range (e.g., \"A1:B2\") to write"),
		),
		mcp.WithArray("values",
			mcp.Required(),
			mcp.Description("Rows of cell values. Cells may be numbers, strings, booleans or null"),
			mcp.Items(map[string]any{
				"type": "array",
			}),
		),
	), WithRecovery(ws.handleWriteRange))
}

func (w *Workspace) handleWriteRange(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := ExcelWriteRangeArguments{}
	if issues := excelWriteRangeArgumentsSchema.Parse(request.Params.Arguments, &args); len(issues) != 0 {
		return imcp.NewToolResultZogIssueMap(issues), nil
	}
	if _, _, _, _, err := excel.ParseRange(args.Range); err != nil {
		return imcp.NewToolResultInvalidArgumentError(err.Error()), nil
	}
	values, err := matrixFromJSON(request.GetArguments()["values"])
	if err != nil {
		return imcp.NewToolResultInvalidArgumentError(err.Error()), nil
	}
	return w.run(ctx, func() (*mcp.CallToolResult, error) {
		return w.writeRange(args.WorkbookId, args.Range, values)
	})
}

func (w *Workspace) writeRange(workbookID string, rangeStr string, values automation.Value) (*mcp.CallToolResult, error) {
	tb, err := w.lookup(workbookID)
	if err != nil {
		return nil, err
	}
	sheet, err := tb.book.ActiveSheet()
	if err != nil {
		return nil, err
	}
	defer sheet.Release()

	var written string
	if excel.IsSingleCell(rangeStr) {
		written, err = sheet.WriteAt(rangeStr, values)
		if err != nil {
			return nil, err
		}
	} else {
		rng, err := sheet.Range(excel.NormalizeRange(rangeStr))
		if err != nil {
			return nil, err
		}
		defer rng.Release()
		if err := rng.SetValue(values); err != nil {
			return nil, err
		}
		written = excel.NormalizeRange(rangeStr)
	}
	w.log.Debug().Str("workbook", tb.id).Str("range", written).Msg("range written")

	result := "# Notice\n"
	result += fmt.Sprintf("workbookId: %s\n", tb.id)
	result += fmt.Sprintf("Values written to %s.\n", written)
	return mcp.NewToolResultText(result), nil
}
