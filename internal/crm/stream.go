package crm

import (
	"bufio"
	"encoding/json"
	"io"
	"strings"
)

const (
	dataPrefix = "data: "
	doneMarker = "[DONE]"
)

// StreamParser reads the ai-response event stream: one "data: <json>" line
// per event, terminated by "data: [DONE]".
type StreamParser struct {
	scanner *bufio.Scanner
}

// NewStreamParser creates a new stream parser.
func NewStreamParser(reader io.Reader) *StreamParser {
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &StreamParser{scanner: scanner}
}

// StreamChunk is one decoded event.
type StreamChunk struct {
	Content string
	Done    bool
}

type streamEvent struct {
	Content string `json:"content"`
}

// Next reads the next chunk. At the end of the body without a [DONE] marker it
// returns a Done chunk.
func (p *StreamParser) Next() (*StreamChunk, error) {
	for p.scanner.Scan() {
		line := strings.TrimRight(p.scanner.Text(), "\r")

		if !strings.HasPrefix(line, dataPrefix) {
			continue
		}
		data := strings.TrimPrefix(line, dataPrefix)

		if data == doneMarker {
			return &StreamChunk{Done: true}, nil
		}

		var evt streamEvent
		if err := json.Unmarshal([]byte(data), &evt); err != nil {
			// skip lines that are not JSON
			continue
		}
		return &StreamChunk{Content: evt.Content}, nil
	}

	if err := p.scanner.Err(); err != nil {
		return nil, err
	}
	return &StreamChunk{Done: true}, nil
}

// Each calls fn with every non-empty content fragment until the stream ends.
func (p *StreamParser) Each(fn func(content string)) error {
	for {
		chunk, err := p.Next()
		if err != nil {
			return err
		}
		if chunk.Content != "" {
			fn(chunk.Content)
		}
		if chunk.Done {
			return nil
		}
	}
}
