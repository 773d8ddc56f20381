package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"go.uber.org/zap"

	"github.com/peterkuimelis/warband/internal/config"
	"github.com/peterkuimelis/warband/internal/web"
)

func main() {
	configPath := flag.String("config", "", "path to config file (default ./warband.yaml if present)")
	port := flag.Int("port", 0, "HTTP port to listen on (default from config)")
	staticDir := flag.String("static", "", "directory of UI files to serve at /")
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

	if *port == 0 {
		*port = cfg.Server.WebPort
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	srv := web.NewServer(web.Options{Files: cfg.Files, StaticDir: *staticDir, Logger: logger})

	addr := fmt.Sprintf(":%d", *port)
	logger.Info("warband web listening", zap.String("url", fmt.Sprintf("http://localhost:%d", *port)))
	if err := srv.ListenAndServe(ctx, addr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
