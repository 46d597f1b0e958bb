package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"runtime"
)

// version is stamped by the release build; "dev" otherwise.
var version = "dev"

func main() {
	var (
		configPath  = flag.String("config", "", "path to a YAML config file (optional, env vars override)")
		showVersion = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("carwise %s %s/%s\n", version, runtime.GOOS, runtime.GOARCH)
		os.Exit(ExitSuccess)
	}

	os.Exit(run(*configPath))
}

func run(configPath string) int {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "carwise: %v\n", err)
		return ExitConfigError
	}

	logger := SetupLogger(cfg)
	logger.Info("carwise starting",
		"version", version,
		"listen", cfg.Server.Address(),
		"database", cfg.Database.DSN,
	)

	server, err := NewServer(cfg, logger)
	if err != nil {
		return exitCode(logger, "startup failed", err)
	}

	if err := server.Start(context.Background()); err != nil {
		return exitCode(logger, "server stopped with error", err)
	}

	return ExitSuccess
}

// exitCode logs err and maps it to a process exit status.
func exitCode(logger *slog.Logger, msg string, err error) int {
	var sErr *ServerError
	if errors.As(err, &sErr) {
		logger.Error(msg, "error", sErr.Err, "operation", sErr.Op)
		return sErr.ExitCode
	}
	logger.Error(msg, "error", err)
	return ExitConfigError
}
