package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dhamidi/lexgrep/config"
)

const usage = `Usage: lexgrep <command> [options]

Commands:
  rg      Line search with boolean queries, context and byte ranges
  files   Whole-file boolean content search
  read    Read a byte range (or lines) from a corpus file
  list    List corpus files under a subdirectory
  search  Relevance-ranked full-text search via Elasticsearch
  serve   Run the JSON-RPC tool server on stdin/stdout
  ask     Interactive research agent

Global environment:
  LEGAL_DOC_ROOT  overrides the corpus root from the config file
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "rg":
		handleRGCommand(args)
	case "files":
		handleFilesCommand(args)
	case "read":
		handleReadCommand(args)
	case "list":
		handleListCommand(args)
	case "search":
		handleSearchCommand(args)
	case "serve":
		handleServeCommand(args)
	case "ask":
		handleAskCommand(args)
	case "help", "-h", "--help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "lexgrep: unknown command %q\n\n%s", command, usage)
		os.Exit(1)
	}
}

// loadConfig loads the configuration or exits; every subcommand needs it.
func loadConfig(path string) *config.Config {
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "lexgrep: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

// printJSON writes an indented result document to stdout, the way the tool
// results appear on the wire.
func printJSON(value any) {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(value); err != nil {
		fmt.Fprintf(os.Stderr, "lexgrep: encoding result: %v\n", err)
		os.Exit(1)
	}
}
