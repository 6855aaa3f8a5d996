package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/charmbracelet/log"

	"github.com/tyefraser/nab-nai-files/pkg/config"
	"github.com/tyefraser/nab-nai-files/pkg/server"
)

func main() {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportCaller:    true,
		ReportTimestamp: true,
		Prefix:          "nai",
	})

	var (
		port    = flag.String("port", "3000", "Server port")
		cfgFile = flag.String("config", "", "Config file path")
	)
	flag.Parse()

	cfg, err := config.Build(*cfgFile, nil)
	if err != nil {
		logger.Fatal("config error", "err", err)
	}
	codes, err := cfg.CodeTable()
	if err != nil {
		logger.Fatal("code table error", "err", err)
	}

	srv := server.New(cfg, logger, codes)
	addr := fmt.Sprintf("0.0.0.0:%s", *port)
	logger.Info("starting server", "addr", addr)
	if err := srv.Start(addr); err != nil {
		logger.Fatal("server error", "err", err)
	}
}
