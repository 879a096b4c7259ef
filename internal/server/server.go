package server

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/negokaz/excel-com/internal/tools"
)

type ExcelServer struct {
	server *server.MCPServer
}

func New(version string, ws *tools.Workspace) *ExcelServer {
	s := &ExcelServer{}
	s.server = server.NewMCPServer(
		"excel-com",
		version,
	)
	tools.AddExcelCreateWorkbookTool(s.server, ws)
	tools.AddExcelWriteRangeTool(s.server, ws)
	tools.AddExcelReadRangeTool(s.server, ws)
	tools.AddExcelRenameSheetTool(s.server, ws)
	tools.AddExcelSaveAsTool(s.server, ws)
	tools.AddExcelCloseWorkbookTool(s.server, ws)
	tools.AddExcelOpenWorkbookTool(s.server, ws)
	tools.AddExcelListWorkbooksTool(s.server, ws)
	tools.AddExcelRunMacroTool(s.server, ws)
	// Reads saved files directly, no server needed.
	tools.AddExcelReadFileTool(s.server, ws)
	tools.AddExcelExportCsvTool(s.server, ws)
	return s
}

// MCPServer returns the underlying MCP server.
func (s *ExcelServer) MCPServer() *server.MCPServer {
	return s.server
}

func (s *ExcelServer) Start() error {
	return server.ServeStdio(s.server)
}
