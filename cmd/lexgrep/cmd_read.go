package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/dhamidi/lexgrep"
)

// handleReadCommand reads an excerpt by byte range or by line number.
func handleReadCommand(args []string) {
	readCmd := flag.NewFlagSet("read", flag.ExitOnError)
	configPath := readCmd.String("config", "", "Path to the config file")
	path := readCmd.String("path", "", "File path relative to the corpus root")
	start := readCmd.Int("start", 0, "Start byte offset")
	end := readCmd.Int("end", 0, "End byte offset")
	contextBytes := readCmd.Int("context", -1, "Extra bytes on both sides (default from config)")
	lineNumber := readCmd.Int("line", 0, "1-based line number instead of start/end")
	contextLines := readCmd.Int("context-lines", 0, "Lines on each side when using -line")
	maxLines := readCmd.Int("max-lines", 0, "Maximum lines of text to return")
	readCmd.Parse(args)

	if *path == "" {
		fmt.Fprintln(os.Stderr, "lexgrep read: -path is required")
		os.Exit(1)
	}

	cfg := loadConfig(*configPath)
	kit, err := lexgrep.NewToolkit(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "lexgrep read: %v\n", err)
		os.Exit(1)
	}

	if *lineNumber > 0 {
		result, err := kit.Reader.ReadFileLines(*path, *lineNumber, *contextLines, *maxLines)
		if err != nil {
			fmt.Fprintf(os.Stderr, "lexgrep read: %v\n", err)
			os.Exit(1)
		}
		printJSON(map[string]any{"tool": "read_file_range", "result": result})
		return
	}

	result, err := kit.Reader.ReadFileRange(*path, *start, *end, *contextBytes, *maxLines)
	if err != nil {
		fmt.Fprintf(os.Stderr, "lexgrep read: %v\n", err)
		os.Exit(1)
	}
	printJSON(map[string]any{"tool": "read_file_range", "result": result})
}
