package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/dhamidi/lexgrep"
	"github.com/dhamidi/lexgrep/sandbox"
)

// handleListCommand lists corpus files under a subdirectory.
func handleListCommand(args []string) {
	listCmd := flag.NewFlagSet("list", flag.ExitOnError)
	configPath := listCmd.String("config", "", "Path to the config file")
	subdir := listCmd.String("subdir", ".", "Subdirectory under the corpus root")
	listCmd.Parse(args)

	cfg := loadConfig(*configPath)
	kit, err := lexgrep.NewToolkit(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "lexgrep list: %v\n", err)
		os.Exit(1)
	}

	files, err := kit.Sandbox.ListPaths(*subdir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "lexgrep list: %v\n", err)
		os.Exit(1)
	}
	printJSON(map[string]any{
		"tool":   "list_paths",
		"args":   map[string]any{"subdir": *subdir},
		"result": map[string]any{"files": sandbox.SortedPaths(files)},
	})
}
