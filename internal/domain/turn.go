package domain

import "strings"

// TranscriptTurn is the latest assistant turn read from a transcript. It is
// recomputed on every response-ready event and never persisted.
type TranscriptTurn struct {
	Text  string
	Tools []string
	Model string
	Usage Usage
}

// ToolsUsed returns the sorted tool names joined with commas.
func (t *TranscriptTurn) ToolsUsed() string {
	return strings.Join(t.Tools, ",")
}
