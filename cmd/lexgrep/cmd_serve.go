package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/dhamidi/lexgrep"
	"github.com/dhamidi/lexgrep/mcp"
	"github.com/dhamidi/lexgrep/session"
)

// handleServeCommand runs the JSON-RPC tool server on stdin/stdout, the
// boundary an external agent process talks to.
func handleServeCommand(args []string) {
	serveCmd := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := serveCmd.String("config", "", "Path to the config file")
	sessionDB := serveCmd.String("session-db", "", "Path to the session log database")
	esHost := serveCmd.String("es-host", "", "Elasticsearch host; empty disables the elasticsearch_search tool")
	esPort := serveCmd.Int("es-port", 9200, "Elasticsearch port")
	serveCmd.Parse(args)

	cfg := loadConfig(*configPath)
	kit, err := lexgrep.NewToolkit(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "lexgrep serve: %v\n", err)
		os.Exit(1)
	}
	if *esHost != "" {
		kit.WithElastic(*esHost, *esPort)
	}

	sessionLog, err := session.Open(*sessionDB)
	if err != nil {
		// The server still works without an audit trail.
		fmt.Fprintf(os.Stderr, "Warning: session log unavailable: %v\n", err)
		sessionLog = nil
	} else {
		defer sessionLog.Close()
		fmt.Fprintf(os.Stderr, "Session %s\n", sessionLog.ID)
	}

	server := mcp.NewServer(kit.Tools(), sessionLog)
	if err := server.Serve(os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "lexgrep serve: %v\n", err)
		os.Exit(1)
	}
}
