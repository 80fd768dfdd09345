package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/dhamidi/lexgrep"
	"github.com/dhamidi/lexgrep/search"
)

// handleFilesCommand runs the whole-file boolean content search.
func handleFilesCommand(args []string) {
	filesCmd := flag.NewFlagSet("files", flag.ExitOnError)
	configPath := filesCmd.String("config", "", "Path to the config file")
	query := filesCmd.String("query", "", "Boolean content query, e.g. 'bgb AND (Kündigung OR Frist)'")
	glob := filesCmd.String("glob", "", "Glob limiting considered files")
	caseSensitive := filesCmd.Bool("case-sensitive", false, "Match terms case-sensitively")
	maxResults := filesCmd.Int("max-results", 0, "Maximum number of files (default from config)")
	filesCmd.Parse(args)

	cfg := loadConfig(*configPath)
	kit, err := lexgrep.NewToolkit(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "lexgrep files: %v\n", err)
		os.Exit(1)
	}

	req := search.FileSearchRequest{
		Query:         *query,
		Glob:          *glob,
		CaseSensitive: *caseSensitive,
		MaxResults:    *maxResults,
	}
	printJSON(map[string]any{
		"tool":   "file_search",
		"args":   req,
		"result": kit.FileSearcher.Search(req),
	})
}
