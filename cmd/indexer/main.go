package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/blobledger/indexer/cmd/indexer/services"
	"github.com/blobledger/indexer/config"
	indexerLogger "github.com/blobledger/indexer/internal/logger"
	"github.com/blobledger/indexer/internal/version"
)

func main() {
	err := run()
	if err != nil {
		log.Fatalf("failed to run indexer: %v", err)
	}

	os.Exit(0)
}

func run() error {
	configDir, dumpConfigFile := parseFlags()

	indexerConfig, err := config.Load(configDir)
	if err != nil {
		return fmt.Errorf("failed to load app config: %w", err)
	}

	if dumpConfigFile != "" {
		return config.DumpConfig(indexerConfig, dumpConfigFile)
	}

	hostname, err := os.Hostname()
	if err != nil {
		return fmt.Errorf("failed to get host name: %v", err)
	}

	logger, err := indexerLogger.NewLogger(indexerConfig.LogLevel, indexerConfig.LogFormat, indexerLogger.WithService("indexer"))
	if err != nil {
		return fmt.Errorf("failed to create logger: %v", err)
	}

	logger = logger.With(slog.String("host", hostname))

	logger.Info("Starting indexer", slog.String("version", version.Version), slog.String("commit", version.Commit))

	go func() {
		if indexerConfig.ProfilerAddr != "" {
			logger.Info(fmt.Sprintf("Starting profiler on http://%s/debug/pprof", indexerConfig.ProfilerAddr))

			err := http.ListenAndServe(indexerConfig.ProfilerAddr, nil)
			if err != nil {
				logger.Error("failed to start profiler server", slog.String("err", err.Error()))
			}
		}
	}()

	go func() {
		if indexerConfig.Prometheus.IsEnabled() {
			logger.Info("Starting prometheus", slog.String("endpoint", indexerConfig.Prometheus.Endpoint))
			mux := http.NewServeMux()
			mux.Handle(indexerConfig.Prometheus.Endpoint, promhttp.Handler())
			err := http.ListenAndServe(indexerConfig.Prometheus.Addr, mux)
			if err != nil {
				logger.Error("failed to start prometheus server", slog.String("err", err.Error()))
			}
		}
	}()

	shutdownCh := make(chan string, 1)

	shutdown, err := services.StartIndexer(logger, indexerConfig, shutdownCh)
	if err != nil {
		return fmt.Errorf("failed to start indexer: %v", err)
	}

	// setup signal catching
	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGTERM, syscall.SIGINT)

	select {
	case reason := <-shutdownCh:
		logger.Info("Received shutdown signal", slog.String("reason", reason))
	case sig := <-signalChan:
		logger.Info("Received shutdown signal", slog.String("reason", sig.String()))
	}

	logger.Info("cleaning up")
	shutdown()

	return nil
}

func parseFlags() (string, string) {
	help := flag.Bool("help", false, "Show help")
	dumpConfigFile := flag.String("dump_config", "", "dump config to specified file and exit")
	configDir := flag.String("config", "", "path to configuration file")

	flag.Parse()

	if *help {
		fmt.Println("usage: indexer [options]")
		fmt.Println("where options are:")
		fmt.Println("")
		fmt.Println("    -config=/location")
		fmt.Println("          directory to look for config.yaml (default='')")
		fmt.Println("")
		fmt.Println("    -dump_config=/file.yaml")
		fmt.Println("          dump config to specified file and exit")
		fmt.Println("")
		os.Exit(0)
	}

	return *configDir, *dumpConfigFile
}
