package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/dhamidi/lexgrep"
	"github.com/dhamidi/lexgrep/search"
)

// handleRGCommand runs the precise line search from the command line.
func handleRGCommand(args []string) {
	rgCmd := flag.NewFlagSet("rg", flag.ExitOnError)
	configPath := rgCmd.String("config", "", "Path to the config file")
	fileList := rgCmd.String("files", "", "Comma-separated files, directories or globs to search")
	maxResults := rgCmd.Int("max-results", search.DefaultMaxResults, "Maximum number of matches")
	contextLines := rgCmd.Int("context-lines", search.DefaultContextLines, "Context lines on each side")
	regex := rgCmd.Bool("regex", false, "Treat the query as a regular expression")
	caseSensitive := rgCmd.Bool("case-sensitive", false, "Match case-sensitively")
	rgCmd.Parse(args)

	if rgCmd.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "lexgrep rg: missing query")
		os.Exit(1)
	}
	query := strings.Join(rgCmd.Args(), " ")

	cfg := loadConfig(*configPath)
	kit, err := lexgrep.NewToolkit(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "lexgrep rg: %v\n", err)
		os.Exit(1)
	}

	req := search.SearchRequest{
		Query:         query,
		MaxResults:    *maxResults,
		ContextLines:  *contextLines,
		Regex:         *regex,
		CaseSensitive: *caseSensitive,
	}
	if *fileList != "" {
		for _, entry := range strings.Split(*fileList, ",") {
			if entry = strings.TrimSpace(entry); entry != "" {
				req.FileList = append(req.FileList, entry)
			}
		}
	}

	printJSON(map[string]any{
		"tool":   "search_rg",
		"args":   req,
		"result": kit.Engine.Search(context.Background(), req),
	})
}
