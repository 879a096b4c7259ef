package tools

import (
	"context"
	"encoding/csv"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"strconv"

	z "github.com/Oudwins/zog"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/negokaz/excel-com/internal/automation"
	"github.com/negokaz/excel-com/internal/excel"
	imcp "github.com/negokaz/excel-com/internal/mcp"
)

type ExcelExportCsvArguments struct {
	FileAbsolutePath string `zog:"fileAbsolutePath"`
	SheetName        string `zog:"sheetName"`
	OutputPath       string `zog:"outputPath"`
	Range            string `zog:"range"`
	Delimiter        string `zog:"delimiter"`
}

var excelExportCsvArgumentsSchema = z.Struct(z.Shape{
	"fileAbsolutePath": z.String().Required(),
	"sheetName":        z.String(),
	"outputPath":       z.String().Required(),
	"range":            z.String(),
	"delimiter":        z.String().Default(","),
})

func AddExcelExportCsvTool(server *server.MCPServer, ws *Workspace) {
	server.AddTool(mcp.NewTool("excel_export_csv",
		mcp.WithDescription("Export a range of a saved workbook file to a CSV file"),
		mcp.WithString("fileAbsolutePath",
			mcp.Required(),
			mcp.Description("Absolute path to the Excel file"),
		),
		mcp.WithString("sheetName",
			mcp.Description("Sheet name in the Excel file. Defaults to the first sheet"),
		),
		mcp.WithString("outputPath",
			mcp.Required(),
			mcp.Description("Absolute path for the output CSV file"),
		),
		mcp.WithString("range",
			mcp.Description("Range to export (e.g., \"A1:D10\"). If omitted, exports the entire used range"),
		),
		mcp.WithString("delimiter",
			mcp.Description("CSV delimiter character (default: \",\")"),
		),
	), WithRecovery(ws.handleExportCsv))
}

func (w *Workspace) handleExportCsv(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := ExcelExportCsvArguments{}
	if issues := excelExportCsvArgumentsSchema.Parse(request.Params.Arguments, &args); len(issues) != 0 {
		return imcp.NewToolResultZogIssueMap(issues), nil
	}
	for _, p := range []string{args.FileAbsolutePath, args.OutputPath} {
		if !filepath.IsAbs(p) {
			return imcp.NewToolResultInvalidArgumentError(fmt.Sprintf("path is not absolute: %s", p)), nil
		}
	}
	return exportCsv(args.FileAbsolutePath, args.SheetName, args.OutputPath, args.Range, args.Delimiter)
}

func exportCsv(fileAbsolutePath string, sheetName string, outputPath string, rangeStr string, delimiter string) (*mcp.CallToolResult, error) {
	workbook, err := excel.OpenSavedWorkbook(fileAbsolutePath)
	if err != nil {
		return imcp.NewToolResultInvalidArgumentError(err.Error()), nil
	}
	defer workbook.Close()

	if rangeStr == "" {
		dim, err := workbook.Dimension(sheetName)
		if err != nil {
			return imcp.NewToolResultInvalidArgumentError(err.Error()), nil
		}
		rangeStr = dim
	}
	values, err := workbook.Read(sheetName, rangeStr)
	if err != nil {
		return imcp.NewToolResultInvalidArgumentError(err.Error()), nil
	}

	delimRune := ','
	if len(delimiter) > 0 {
		delimRune = rune(delimiter[0])
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), os.ModePerm); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	file, err := os.Create(outputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	writer.Comma = delimRune

	rows, _ := values.Matrix()
	for _, row := range rows {
		if err := writer.Write(csvRecord(row)); err != nil {
			return nil, fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV write error: %w", err)
	}

	result := "# Notice\n"
	result += fmt.Sprintf("Exported %d rows of %s from sheet [%s] to %s\n", len(rows), excel.NormalizeRange(rangeStr), html.EscapeString(sheetName), outputPath)
	return mcp.NewToolResultText(result), nil
}

// csvRecord renders cells without the fixed six digits used for display.
func csvRecord(row []automation.Value) []string {
	record := make([]string, len(row))
	for i, c := range row {
		if f, ok := c.Double(); ok {
			record[i] = strconv.FormatFloat(f, 'g', -1, 64)
			continue
		}
		record[i] = c.String()
	}
	return record
}
