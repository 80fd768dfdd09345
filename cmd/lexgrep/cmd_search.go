package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/dhamidi/lexgrep"
	"github.com/dhamidi/lexgrep/elastic"
)

// handleSearchCommand runs a relevance-ranked full-text search against the
// external Elasticsearch index.
func handleSearchCommand(args []string) {
	searchCmd := flag.NewFlagSet("search", flag.ExitOnError)
	configPath := searchCmd.String("config", "", "Path to the config file")
	documentType := searchCmd.String("document-type", "all", "Limit to 'gesetze' or 'urteile'")
	maxResults := searchCmd.Int("max-results", 10, "Maximum number of results")
	contextLines := searchCmd.Int("context-lines", 2, "Context lines around matches")
	esHost := searchCmd.String("es-host", "localhost", "Elasticsearch host")
	esPort := searchCmd.Int("es-port", 9200, "Elasticsearch port")
	searchCmd.Parse(args)

	if searchCmd.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "lexgrep search: missing query")
		os.Exit(1)
	}
	query := strings.Join(searchCmd.Args(), " ")

	cfg := loadConfig(*configPath)
	kit, err := lexgrep.NewToolkit(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "lexgrep search: %v\n", err)
		os.Exit(1)
	}
	kit.WithElastic(*esHost, *esPort)

	req := elastic.SearchRequest{
		Query:        query,
		DocumentType: *documentType,
		MaxResults:   *maxResults,
		ContextLines: *contextLines,
	}
	printJSON(map[string]any{
		"tool":   "elasticsearch_search",
		"args":   req,
		"result": kit.Elastic.Search(context.Background(), req),
	})
}
