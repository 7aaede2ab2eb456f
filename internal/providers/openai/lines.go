package openai

import (
	"bytes"
	"strings"

	"github.com/tidwall/gjson"
)

const (
	dataPrefix   = "data: "
	doneSentinel = "[DONE]"
)

// lineBuffer reassembles SSE lines from arbitrarily split network reads.
// The last fragment of every feed is held until a newline completes it.
type lineBuffer struct {
	pending []byte
}

// Feed appends p and returns every line completed by it, without the newline.
func (b *lineBuffer) Feed(p []byte) []string {
	b.pending = append(b.pending, p...)

	var lines []string
	for {
		idx := bytes.IndexByte(b.pending, '\n')
		if idx < 0 {
			break
		}
		lines = append(lines, string(b.pending[:idx]))
		b.pending = b.pending[idx+1:]
	}

	if len(b.pending) == 0 {
		b.pending = nil
	}
	return lines
}

// Flush returns the unterminated remainder, if any, and resets the buffer.
func (b *lineBuffer) Flush() (string, bool) {
	if len(b.pending) == 0 {
		return "", false
	}
	line := string(b.pending)
	b.pending = nil
	return line, true
}

type lineKind int

const (
	lineIgnored lineKind = iota
	lineMalformed
	lineDelta
)

// parseLine classifies one SSE line and returns its content fragment.
// Blank lines, non-data lines, the [DONE] sentinel and empty deltas are ignored.
func parseLine(line string) (string, lineKind) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || !strings.HasPrefix(trimmed, dataPrefix) {
		return "", lineIgnored
	}

	payload := trimmed[len(dataPrefix):]
	if payload == doneSentinel {
		return "", lineIgnored
	}
	if !gjson.Valid(payload) {
		return "", lineMalformed
	}

	content := gjson.Get(payload, "choices.0.delta.content")
	if content.Type != gjson.String || content.Str == "" {
		return "", lineIgnored
	}
	return content.Str, lineDelta
}
