package search

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"strconv"

	"github.com/dhamidi/lexgrep/query"
	"github.com/dhamidi/lexgrep/sandbox"
)

// RipgrepMatcher shells out to ripgrep with --json and translates its event
// stream into Events. It is the production matcher; the native scanner
// exists for portability and tests.
type RipgrepMatcher struct {
	sandbox *sandbox.Sandbox
	binary  string
}

// NewRipgrepMatcher returns a matcher running the rg binary found on PATH.
func NewRipgrepMatcher(sb *sandbox.Sandbox) *RipgrepMatcher {
	return &RipgrepMatcher{sandbox: sb, binary: "rg"}
}

// Available checks that the ripgrep binary can be located. The error text
// is surfaced verbatim in search results, so it tells the caller what to
// install.
func (m *RipgrepMatcher) Available() error {
	if _, err := exec.LookPath(m.binary); err != nil {
		return fmt.Errorf("ripgrep (%s) not found on PATH", m.binary)
	}
	return nil
}

// rgEvent mirrors the subset of ripgrep's --json schema the engine needs.
type rgEvent struct {
	Type string `json:"type"`
	Data struct {
		Path struct {
			Text string `json:"text"`
		} `json:"path"`
		LineNumber int `json:"line_number"`
		Lines      struct {
			Text string `json:"text"`
		} `json:"lines"`
		Submatches []struct {
			Start int `json:"start"`
			End   int `json:"end"`
		} `json:"submatches"`
	} `json:"data"`
}

// Search runs ripgrep once over req.Files with the sandbox root as working
// directory. Unparseable output lines are skipped; exit code 1 (no matches)
// yields an empty event list, not an error.
func (m *RipgrepMatcher) Search(ctx context.Context, req Request) ([]Event, error) {
	if err := m.Available(); err != nil {
		return nil, err
	}

	pattern := req.Pattern
	pcre := req.PCRE
	if len(req.Conjunctions) > 0 {
		pattern = query.LookaheadPattern(req.Conjunctions, false)
		pcre = true
	}

	args := []string{"--json", "--line-number", "--with-filename", "--color=never"}
	if !req.CaseSensitive {
		args = append(args, "-i")
	}
	if req.Literal {
		args = append(args, "-F")
	}
	if pcre {
		args = append(args, "-P")
	}
	if req.ContextLines > 0 {
		args = append(args, "-C", strconv.Itoa(req.ContextLines))
	}
	if req.MaxCount > 0 {
		args = append(args, "-m", strconv.Itoa(req.MaxCount))
	}
	args = append(args, "--", pattern)
	args = append(args, req.Files...)

	cmd := exec.CommandContext(ctx, m.binary, args...)
	cmd.Dir = m.sandbox.Root()
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("search: starting %s: %w", m.binary, err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("search: starting %s: %w", m.binary, err)
	}

	events, scanErr := decodeRGEvents(stdout)

	if err := cmd.Wait(); err != nil {
		var exitErr *exec.ExitError
		// rg exits 1 when nothing matched; that is a normal empty result.
		if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
			return events, nil
		}
		return nil, fmt.Errorf("search: %s failed: %w (stderr: %s)", m.binary, err, stderr.String())
	}
	if scanErr != nil {
		return nil, fmt.Errorf("search: reading %s output: %w", m.binary, scanErr)
	}
	return events, nil
}

// decodeRGEvents translates ripgrep's --json line stream into Events.
// Malformed lines and event types other than match/context are skipped.
func decodeRGEvents(r io.Reader) ([]Event, error) {
	var events []Event
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var raw rgEvent
		if err := json.Unmarshal(line, &raw); err != nil {
			continue
		}
		if raw.Type != "match" && raw.Type != "context" {
			continue
		}
		ev := Event{
			Type:       raw.Type,
			Path:       filepath.ToSlash(raw.Data.Path.Text),
			LineNumber: raw.Data.LineNumber,
			LineText:   trimLineEnd(raw.Data.Lines.Text),
		}
		if raw.Type == "match" {
			if len(raw.Data.Submatches) == 0 {
				continue
			}
			ev.SubStart = raw.Data.Submatches[0].Start
			ev.SubEnd = raw.Data.Submatches[0].End
		}
		events = append(events, ev)
	}
	return events, scanner.Err()
}

func trimLineEnd(s string) string {
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r') {
		s = s[:len(s)-1]
	}
	return s
}
