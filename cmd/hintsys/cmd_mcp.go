package main

import (
	"flag"

	mcpserver "github.com/yangjiwoo8465/proj-hint-system/internal/mcp"
)

// cmdMCP starts the MCP server for editor integration
func cmdMCP(args []string) error {
	fs := flag.NewFlagSet("mcp", flag.ContinueOnError)
	httpAddr := fs.String("http", "", "serve over HTTP on this address instead of stdio")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	app, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	srv := mcpserver.NewServer(mcpserver.Config{
		Grader:  app.Grading,
		Badges:  app.Badges,
		Version: Version,
	})

	if *httpAddr != "" {
		return srv.ServeHTTP(ctx, *httpAddr)
	}
	return srv.ServeStdio(ctx)
}
