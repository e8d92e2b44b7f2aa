// Command mccbrowse serves a directory of cache files for inspection.
//
//	mccbrowse [-config file.yaml] [-i addr] [-dir path]
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/robert-malhotra/go-mayacache/internal/browse"
)

func main() {
	var (
		configPath string
		addr       string
		dir        string
		verbose    bool
	)
	flag.StringVar(&configPath, "config", "", "YAML config file")
	flag.StringVar(&addr, "i", "", "listen address, overrides the config")
	flag.StringVar(&dir, "dir", "", "directory to serve, overrides the config")
	flag.BoolVar(&verbose, "v", false, "debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	cfg := browse.DefaultConfig()
	if configPath != "" {
		var err error
		if cfg, err = browse.LoadConfig(configPath); err != nil {
			logger.Error("loading config", "err", err)
			os.Exit(1)
		}
	}
	if addr != "" {
		cfg.Addr = addr
	}
	if dir != "" {
		cfg.Dir = dir
	}

	s, err := browse.New(cfg, browse.WithLogger(logger))
	if err != nil {
		logger.Error("starting server", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := s.ListenAndServe(ctx, cfg.Addr); err != nil {
		logger.Error("server stopped", "err", err)
		os.Exit(1)
	}
}
