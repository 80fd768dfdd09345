package search

import (
	"strings"

	"github.com/dhamidi/lexgrep/sandbox"
)

// DefaultMaxLines caps the decoded text of a range read.
const DefaultMaxLines = 20

// RangeResult is the outcome of a clamped range read. Start and End are the
// padded, clamped offsets actually used, so text == file_bytes[start:end]
// modulo UTF-8 replacement decoding.
type RangeResult struct {
	Path  string `json:"path"`
	Start int    `json:"start"`
	End   int    `json:"end"`
	Text  string `json:"text"`
}

// Reader serves byte-range and line-addressed excerpt reads. The contract
// is "best available slice": out-of-range bounds clamp, inverted ranges
// collapse, invalid UTF-8 decodes with replacement runes. Only path
// breakout is an error.
type Reader struct {
	sandbox *sandbox.Sandbox
	// contextBytes is the default symmetric padding applied around the
	// requested range.
	contextBytes int
}

// NewReader creates a reader with the configured default padding.
func NewReader(sb *sandbox.Sandbox, contextBytes int) *Reader {
	return &Reader{sandbox: sb, contextBytes: contextBytes}
}

// ReadFileRange returns a decoded slice around [start, end) padded by
// context bytes on both sides. context < 0 means the configured default;
// maxLines <= 0 means DefaultMaxLines. When the line cap truncates the
// text, End is recomputed so the byte-slice contract still holds.
func (r *Reader) ReadFileRange(path string, start, end, context, maxLines int) (RangeResult, error) {
	if context < 0 {
		context = r.contextBytes
	}
	if maxLines <= 0 {
		maxLines = DefaultMaxLines
	}

	fileBytes, err := r.sandbox.ReadFileBytes(path)
	if err != nil {
		return RangeResult{}, err
	}

	start -= context
	end += context
	if start < 0 {
		start = 0
	}
	if start > len(fileBytes) {
		start = len(fileBytes)
	}
	if end < start {
		end = start
	}
	if end > len(fileBytes) {
		end = len(fileBytes)
	}

	raw := fileBytes[start:end]
	raw = truncateLines(raw, maxLines)
	end = start + len(raw)

	return RangeResult{
		Path:  toPosix(path),
		Start: start,
		End:   end,
		Text:  decodeUTF8(raw),
	}, nil
}

// ReadFileLines is the line-addressed variant: it resolves the window
// [lineNumber-contextLines, lineNumber+contextLines] to byte offsets via
// the sandbox line index and delegates to the same clamped read with no
// extra byte padding.
func (r *Reader) ReadFileLines(path string, lineNumber, contextLines, maxLines int) (RangeResult, error) {
	if contextLines < 0 {
		contextLines = 0
	}
	count, err := r.sandbox.LineCount(path)
	if err != nil {
		return RangeResult{}, err
	}
	first := lineNumber - contextLines
	if first < 1 {
		first = 1
	}
	last := lineNumber + contextLines
	if last > count {
		last = count
	}

	start, err := r.sandbox.LineStartOffset(path, first)
	if err != nil {
		return RangeResult{}, err
	}
	var end int
	if last >= count {
		info, statErr := r.sandbox.Stat(path)
		if statErr != nil {
			return RangeResult{}, statErr
		}
		end = int(info.Size())
	} else {
		end, err = r.sandbox.LineStartOffset(path, last+1)
		if err != nil {
			return RangeResult{}, err
		}
	}
	return r.ReadFileRange(path, start, end, 0, maxLines)
}

// truncateLines keeps at most maxLines lines of raw, terminators included,
// so the caller can recompute exact byte offsets from the result.
func truncateLines(raw []byte, maxLines int) []byte {
	count := 0
	for i, b := range raw {
		if b == '\n' {
			count++
			if count >= maxLines {
				return raw[:i+1]
			}
		}
	}
	return raw
}

// decodeUTF8 converts raw bytes to a string, replacing invalid sequences
// with the replacement character instead of failing.
func decodeUTF8(raw []byte) string {
	return strings.ToValidUTF8(string(raw), "�")
}

func toPosix(path string) string {
	return strings.ReplaceAll(path, "\\", "/")
}
