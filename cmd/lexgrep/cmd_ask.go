package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/dhamidi/lexgrep"
	"github.com/dhamidi/lexgrep/session"
)

// handleAskCommand starts the interactive research agent.
func handleAskCommand(args []string) {
	askCmd := flag.NewFlagSet("ask", flag.ExitOnError)
	configPath := askCmd.String("config", "", "Path to the config file")
	modelName := askCmd.String("model", "", "Model to use")
	sessionDB := askCmd.String("session-db", "", "Path to the session log database")
	esHost := askCmd.String("es-host", "", "Elasticsearch host; empty disables the elasticsearch_search tool")
	esPort := askCmd.Int("es-port", 9200, "Elasticsearch port")
	askCmd.Parse(args)

	cfg := loadConfig(*configPath)
	kit, err := lexgrep.NewToolkit(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "lexgrep ask: %v\n", err)
		os.Exit(1)
	}
	if *esHost != "" {
		kit.WithElastic(*esHost, *esPort)
	}

	sessionLog, err := session.Open(*sessionDB)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: session log unavailable: %v\n", err)
		sessionLog = nil
	} else {
		defer sessionLog.Close()
	}

	if err := lexgrep.Research(kit, *modelName, sessionLog); err != nil {
		fmt.Fprintf(os.Stderr, "lexgrep ask: %v\n", err)
		os.Exit(1)
	}
}
