package tools

import (
	"context"
	"fmt"

	z "github.com/Oudwins/zog"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/negokaz/excel-com/internal/automation"
	imcp "github.com/negokaz/excel-com/internal/mcp"
)

type ExcelRunMacroArguments struct {
	MacroName string   `zog:"macroName"`
	Args      []string `zog:"args"`
}

var excelRunMacroArgumentsSchema = z.Struct(z.Shape{
	"macroName": z.String().Required(),
	"args":      z.Slice(z.String()),
})

func AddExcelRunMacroTool(server *server.MCPServer, ws *Workspace) {
	server.AddTool(mcp.NewTool("excel_run_macro",
		mcp.WithDescription("Run a VBA macro in the Excel application"),
		mcp.WithString("macroName",
			mcp.Required(),
			mcp.Description("Name of the macro to run (e.g., \"Book1!MyMacro\")"),
		),
		mcp.WithArray("args",
			mcp.Description("Arguments to pass to the macro (up to 10 string arguments)"),
			mcp.Items(map[string]any{
				"type": "string",
			}),
		),
	), WithRecovery(ws.handleRunMacro))
}

func (w *Workspace) handleRunMacro(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := ExcelRunMacroArguments{}
	if issues := excelRunMacroArgumentsSchema.Parse(request.Params.Arguments, &args); len(issues) != 0 {
		return imcp.NewToolResultZogIssueMap(issues), nil
	}
	if len(args.Args) > 10 {
		return imcp.NewToolResultInvalidArgumentError("macro supports at most 10 arguments"), nil
	}
	return w.run(ctx, func() (*mcp.CallToolResult, error) {
		return w.runMacro(args.MacroName, args.Args)
	})
}

func (w *Workspace) runMacro(macroName string, args []string) (*mcp.CallToolResult, error) {
	app, err := w.application()
	if err != nil {
		return nil, err
	}
	values := make([]automation.Value, len(args))
	for i, a := range args {
		values[i] = automation.Text(a)
	}
	macroResult, err := app.Run(macroName, values...)
	if err != nil {
		return nil, err
	}
	defer macroResult.Release()

	result := "# Notice\n"
	result += fmt.Sprintf("Macro '%s' executed successfully.\n", macroName)
	if !macroResult.IsEmpty() {
		result += fmt.Sprintf("Return value: %s\n", macroResult)
	}
	return mcp.NewToolResultText(result), nil
}
