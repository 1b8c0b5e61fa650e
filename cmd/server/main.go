package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"coordchat/pkg/logging"
	"coordchat/pkg/oplog"
	"coordchat/pkg/server"
	"coordchat/pkg/version"
)

func main() {
	cfg := server.DefaultConfig()

	flag.StringVar(&cfg.Addr, "addr", cfg.Addr, "TCP bind address for the chat server")
	flag.IntVar(&cfg.MaxClients, "max-clients", cfg.MaxClients, "Maximum number of concurrently served clients")
	flag.StringVar(&cfg.OplogPath, "oplog-db", cfg.OplogPath, "SQLite file for the operational log (empty for in-memory)")
	flag.StringVar(&cfg.MetricsAddr, "metrics", cfg.MetricsAddr, "HTTP bind address for Prometheus /metrics (empty to disable)")
	configFile := flag.String("config", "", "YAML config file (flags override file values)")

	logLevel := flag.String("log-level", "info", "Log level: "+logging.LevelNames())
	logFormat := flag.String("log-format", "text", "Log format: text or json")
	showVersion := flag.Bool("version", false, "Print the version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.Full())
		return
	}

	// Configure structured logging
	if err := logging.Setup(logging.Options{
		Level:  *logLevel,
		Format: *logFormat,
		Output: os.Stdout,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "invalid logging config: %v\n", err)
		os.Exit(1)
	}

	if *configFile != "" {
		fc, err := server.LoadFileConfig(*configFile)
		if err != nil {
			slog.Error("load config", "path", *configFile, "err", err)
			os.Exit(1)
		}
		// Flags given on the command line win over file values.
		set := map[string]bool{}
		flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
		saved := cfg
		fc.Apply(&cfg)
		if set["addr"] {
			cfg.Addr = saved.Addr
		}
		if set["max-clients"] {
			cfg.MaxClients = saved.MaxClients
		}
		if set["oplog-db"] {
			cfg.OplogPath = saved.OplogPath
		}
		if set["metrics"] {
			cfg.MetricsAddr = saved.MetricsAddr
		}
		if !set["log-level"] && fc.Log.Level != "" {
			*logLevel = fc.Log.Level
		}
		if !set["log-format"] && fc.Log.Format != "" {
			*logFormat = fc.Log.Format
		}
		if err := logging.Setup(logging.Options{
			Level:  *logLevel,
			Format: *logFormat,
			Output: os.Stdout,
		}); err != nil {
			fmt.Fprintf(os.Stderr, "invalid logging config: %v\n", err)
			os.Exit(1)
		}
	}

	var log oplog.Log
	if cfg.OplogPath != "" {
		sq, err := oplog.New(cfg.OplogPath)
		if err != nil {
			slog.Error("open oplog database", "path", cfg.OplogPath, "err", err)
			os.Exit(1)
		}
		log = sq
	} else {
		log = oplog.NewMemory()
	}

	slog.Info("starting chat server", "version", version.String(), "addr", cfg.Addr, "max_clients", cfg.MaxClients)

	srv := server.New(cfg, server.Dependencies{Log: log})
	if err := srv.Run(); err != nil {
		slog.Error("server error", "err", err)
		os.Exit(1)
	}
}
