package tools

import (
	"context"
	"fmt"
	"html"
	"path/filepath"
	"strings"

	z "github.com/Oudwins/zog"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/negokaz/excel-com/internal/excel"
	imcp "github.com/negokaz/excel-com/internal/mcp"
)

type ExcelReadFileArguments struct {
	FileAbsolutePath  string   `zog:"fileAbsolutePath"`
	SheetName         string   `zog:"sheetName"`
	Range             string   `zog:"range"`
	KnownPagingRanges []string `zog:"knownPagingRanges"`
}

var excelReadFileArgumentsSchema = z.Struct(z.Shape{
	"fileAbsolutePath":  z.String().Required(),
	"sheetName":         z.String(),
	"range":             z.String(),
	"knownPagingRanges": z.Slice(z.String()),
})

func AddExcelReadFileTool(server *server.MCPServer, ws *Workspace) {
	server.AddTool(mcp.NewTool("excel_read_file",
		mcp.WithDescription("Read values from a saved workbook file without going through Excel. Large sheets are returned page by page"),
		mcp.WithString("fileAbsolutePath",
			mcp.Required(),
			mcp.Description("Absolute path to the Excel file"),
		),
		mcp.WithString("sheetName",
			mcp.Description("Sheet name in the Excel file. Defaults to the first sheet"),
		),
		mcp.WithString("range",
			mcp.Description("Range to read (e.g., \"A1:C10\"). Defaults to the first page of the used range. At most the page size in cells"),
		),
		mcp.WithArray("knownPagingRanges",
			mcp.Description("Pages already read. When given, the result lists the pages still unread"),
			mcp.Items(map[string]any{
				"type": "string",
			}),
		),
	), WithRecovery(ws.handleReadFile))
}

func (w *Workspace) handleReadFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := ExcelReadFileArguments{}
	if issues := excelReadFileArgumentsSchema.Parse(request.Params.Arguments, &args); len(issues) != 0 {
		return imcp.NewToolResultZogIssueMap(issues), nil
	}
	if !filepath.IsAbs(args.FileAbsolutePath) {
		return imcp.NewToolResultInvalidArgumentError(fmt.Sprintf("path is not absolute: %s", args.FileAbsolutePath)), nil
	}
	if args.Range != "" {
		if err := excel.CheckRangeSize(args.Range, w.pageSize); err != nil {
			return imcp.NewToolResultInvalidArgumentError(err.Error()), nil
		}
	}
	return w.readFile(args.FileAbsolutePath, args.SheetName, args.Range, args.KnownPagingRanges)
}

func (w *Workspace) readFile(fileAbsolutePath string, sheetName string, rangeStr string, known []string) (*mcp.CallToolResult, error) {
	workbook, err := excel.OpenSavedWorkbook(fileAbsolutePath)
	if err != nil {
		return imcp.NewToolResultInvalidArgumentError(err.Error()), nil
	}
	defer workbook.Close()

	dimension, err := workbook.Dimension(sheetName)
	if err != nil {
		return imcp.NewToolResultInvalidArgumentError(err.Error()), nil
	}
	pager := excel.NewPager(dimension, w.pageSize)
	if rangeStr == "" {
		rangeStr = pager.First()
		if rangeStr == "" {
			rangeStr = dimension
		}
	}
	rangeStr = excel.NormalizeRange(rangeStr)

	values, err := workbook.Read(sheetName, rangeStr)
	if err != nil {
		return nil, err
	}

	result := "# Values\n"
	if sheetName != "" {
		result += fmt.Sprintf("sheet: %s\n", html.EscapeString(sheetName))
	}
	result += fmt.Sprintf("range: %s\n", rangeStr)
	result += "```\n"
	result += values.String() + "\n"
	result += "```\n"
	result += "# Notice\n"
	result += fmt.Sprintf("Sheets in this workbook: %s\n", html.EscapeString(strings.Join(workbook.SheetNames(), ", ")))
	if len(known) > 0 {
		remaining := pager.Remaining(append(known, rangeStr))
		if len(remaining) == 0 {
			result += "All pages of this sheet have been read.\n"
		} else {
			result += fmt.Sprintf("Unread pages: %s\n", strings.Join(remaining, ", "))
		}
	} else if next := pager.Next(rangeStr); next != "" {
		result += fmt.Sprintf("This sheet has more data. Read the next page with range %s.\n", next)
	}
	return mcp.NewToolResultText(result), nil
}
