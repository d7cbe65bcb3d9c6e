package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"perftracker/internal/config"
	"perftracker/internal/ledger"
	"perftracker/internal/router"
	"perftracker/internal/tracker"
	"perftracker/internal/util"
)

func LoggerInitialize(cfg config.Config) (*util.PerfLogger, error) {
	if err := ConstructAndCreateLogFolder(cfg); err != nil {
		return nil, err
	}

	logger := &util.PerfLogger{}
	logger.SetLevel(cfg.Level())
	if err := logger.Init(cfg.LogFile, false); err != nil {
		return nil, err
	}

	logger.LogEvent(util.LOG_LEVEL_INFO, "Service started")

	currentTime := time.Now().Format(time.RFC3339)
	fmt.Fprintf(os.Stderr, "\n%s: perftracker API started on %s\n", currentTime, cfg.Addr)

	return logger, nil
}

func main() {
	cfgFile := flag.String("config", os.Getenv(config.EnvPrefix+"_CONFIG"), "config file (yaml)")
	flag.Parse()

	cfg, err := config.Load(*cfgFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := LoggerInitialize(cfg)
	if err != nil {
		log.Fatalf("Error while initializing the logger: %v", err)
	}
	defer logger.DeInit()

	l := ledger.Default()
	t := tracker.New(l, tracker.Options{MaxEntries: cfg.Retention(), Logger: logger})

	if err := router.Run(cfg.Addr, router.NewRouter(l, t, logger), cfg.ShutdownTimeout, logger); err != nil {
		logger.LogEvent(util.LOG_LEVEL_ERROR, err)
		logger.DeInit()
		os.Exit(1)
	}
}

func ConstructAndCreateLogFolder(cfg config.Config) error {
	util.SetLoggerPath(cfg.LogDir)
	util.SetCommonLoggerAttributes(cfg.Level())
	return util.CheckAndCreateLogFolder(cfg.LogDir)
}
