package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/golang/glog"

	"github.com/ironsheep/cigraph/internal/config"
	"github.com/ironsheep/cigraph/internal/logging"
	"github.com/ironsheep/cigraph/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func usage() {
	fmt.Println("cigraph-mcp - MCP server for image graph rendering")
	fmt.Println()
	fmt.Println("Usage: cigraph-mcp [options]")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --version, -v    Print version information")
	fmt.Println("  --help, -h       Print this help message")
	fmt.Println("  -v=<n>           glog verbosity (2 enables debug records)")
	fmt.Println("  -logtostderr     glog output to stderr instead of files")
	fmt.Println()
	fmt.Println("Environment variables:")
	fmt.Printf("  %s=debug|info|warn|error   Log level (default info)\n", config.EnvLogLevel)
	fmt.Printf("  %s=<n>                    Render budget in pixels per node\n", config.EnvMaxPixels)
	fmt.Printf("  %s=<n>                       Parallel subtree evaluation\n", config.EnvWorkers)
	fmt.Printf("  %s=true|false            Apply EXIF orientation on decode\n", config.EnvAutoOrient)
	fmt.Println()
	fmt.Println("This server communicates via MCP protocol over stdin/stdout.")
	fmt.Println("Configure it in your MCP client (e.g., Claude Desktop).")
}

func main() {
	// Handle --version and --help before glog sees the flags
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("cigraph-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			usage()
			return
		}
	}

	// stdout is for MCP protocol
	if flag.Lookup("logtostderr") != nil {
		_ = flag.Set("logtostderr", "true")
	}
	flag.Parse()
	defer glog.Flush()

	cfg, err := config.Load()
	if err != nil {
		glog.Exitf("Configuration error: %v", err)
	}
	logging.SetLogger(slog.New(logging.NewGlogHandler(cfg.LogLevel)))
	logging.Logger().Debug("starting", "version", Version, "built", BuildTime, "commit", GitCommit,
		"max_pixels", cfg.MaxPixels, "workers", cfg.Workers)

	server.Version = Version
	srv, err := server.New(cfg)
	if err != nil {
		glog.Exitf("Server setup failed: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil && ctx.Err() == nil {
		glog.Errorf("Server error: %v", err)
		glog.Flush()
		os.Exit(1)
	}
}
