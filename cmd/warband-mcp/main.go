package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"

	"github.com/peterkuimelis/warband/internal/config"
	wbmcp "github.com/peterkuimelis/warband/internal/mcp"
)

func main() {
	configPath := flag.String("config", "", "path to config file (default ./warband.yaml if present)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	logger, err := config.NewLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	coll, err := cfg.Collection()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	m := wbmcp.NewManager(coll, cfg.DuelConfig(), cfg.AI.Seed, logger)
	defer m.Close()

	s := server.NewMCPServer("warband", "1.0.0")
	m.RegisterTools(s)

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
