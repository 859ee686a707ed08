package parser

import (
	"bufio"
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/emiliopalmerini/ccptracker/internal/domain"
	"github.com/emiliopalmerini/ccptracker/internal/util"
)

const (
	// MaxResponseRunes caps the text stored in a ledger cell.
	MaxResponseRunes = 10000
	TruncationMarker = "...(truncated)"

	syntheticModel = "<synthetic>"
)

// TranscriptEntry is one JSONL line of a transcript.
type TranscriptEntry struct {
	Type      string   `json:"type"`
	Timestamp string   `json:"timestamp,omitempty"`
	Model     string   `json:"model,omitempty"`
	Message   *Message `json:"message,omitempty"`
	Usage     *Usage   `json:"usage,omitempty"`
}

// Message is the chat message carried by an entry. Content is either a
// string or a list of Content blocks.
type Message struct {
	ID      string          `json:"id,omitempty"`
	Role    string          `json:"role"`
	Model   string          `json:"model,omitempty"`
	Content json.RawMessage `json:"content,omitempty"`
	Usage   *Usage          `json:"usage,omitempty"`
}

// Content is a single text or tool_use block of a message.
type Content struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
	Name string `json:"name,omitempty"`
}

// Usage holds the token counters reported for an assistant message.
type Usage struct {
	InputTokens              int64 `json:"input_tokens"`
	OutputTokens             int64 `json:"output_tokens"`
	CacheReadInputTokens     int64 `json:"cache_read_input_tokens"`
	CacheCreationInputTokens int64 `json:"cache_creation_input_tokens"`
}

func (u *Usage) empty() bool {
	return u == nil || (u.InputTokens == 0 && u.OutputTokens == 0 &&
		u.CacheReadInputTokens == 0 && u.CacheCreationInputTokens == 0)
}

// line is one parsed transcript entry with its content blocks decoded.
type line struct {
	entry     TranscriptEntry
	blocks    []Content
	stringMsg bool
}

func (l *line) assistant() bool {
	return l.entry.Message != nil && l.entry.Message.Role == "assistant"
}

// humanPrompt reports whether the line is a prompt typed by the user rather
// than a tool result fed back to the model.
func (l *line) humanPrompt() bool {
	if l.entry.Message == nil || l.entry.Message.Role != "user" {
		return false
	}
	if l.stringMsg {
		return true
	}
	for _, b := range l.blocks {
		if b.Type == "tool_result" {
			return false
		}
	}
	return len(l.blocks) > 0
}

func (l *line) text() string {
	var parts []string
	for _, b := range l.blocks {
		if b.Type != "text" {
			continue
		}
		if t := strings.TrimSpace(b.Text); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}

func (l *line) messageID() string {
	if l.entry.Message == nil {
		return ""
	}
	return l.entry.Message.ID
}

func (l *line) addTools(set map[string]struct{}) {
	for _, b := range l.blocks {
		if b.Type == "tool_use" && b.Name != "" {
			set[b.Name] = struct{}{}
		}
	}
}

// ExtractTurn reads the transcript at path and returns its latest assistant
// turn. A missing file yields an empty turn. Lines that are not valid JSON
// are skipped.
func ExtractTurn(path string) (*domain.TranscriptTurn, error) {
	turn := &domain.TranscriptTurn{Tools: []string{}}
	if path == "" {
		return turn, nil
	}

	lines, err := readLines(path)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return turn, nil
		}
		return turn, err
	}

	tools := make(map[string]struct{})
	if sel := latestTextLine(lines); sel >= 0 {
		turn.Text = lines[sel].text()
		collectTurnTools(lines, sel, tools)
	} else if sel := newestAssistantLine(lines); sel >= 0 {
		turn.Text = lines[sel].text()
		lines[sel].addTools(tools)
	}

	turn.Text = util.Truncate(turn.Text, MaxResponseRunes, TruncationMarker)
	for name := range tools {
		turn.Tools = append(turn.Tools, name)
	}
	sort.Strings(turn.Tools)
	turn.Usage = latestUsage(lines)
	turn.Model = latestModel(lines)

	return turn, nil
}

func readLines(path string) ([]line, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	// Increase buffer size for large lines
	buf := make([]byte, 0, 1024*1024)
	scanner.Buffer(buf, 10*1024*1024)

	var lines []line
	for scanner.Scan() {
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}

		var entry TranscriptEntry
		if err := json.Unmarshal(raw, &entry); err != nil {
			// Skip malformed lines
			continue
		}
		l := line{entry: entry}
		if entry.Message != nil {
			l.blocks, l.stringMsg = decodeContent(entry.Message.Content)
		}
		lines = append(lines, l)
	}

	if err := scanner.Err(); err != nil {
		return lines, fmt.Errorf("error reading transcript: %w", err)
	}
	return lines, nil
}

// decodeContent accepts both the block array and the plain string form of
// message content.
func decodeContent(raw json.RawMessage) ([]Content, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, false
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, false
		}
		return []Content{{Type: "text", Text: s}}, true
	}

	var blocks []Content
	if err := json.Unmarshal(raw, &blocks); err != nil {
		return nil, false
	}
	return blocks, false
}

// latestTextLine returns the index of the last assistant line carrying
// non-empty text, or -1.
func latestTextLine(lines []line) int {
	for i := len(lines) - 1; i >= 0; i-- {
		if lines[i].assistant() && lines[i].text() != "" {
			return i
		}
	}
	return -1
}

// collectTurnTools gathers tool names from the assistant lines between the
// human prompts surrounding sel, plus any line that is part of the same
// message as sel.
func collectTurnTools(lines []line, sel int, tools map[string]struct{}) {
	start := 0
	for i := sel - 1; i >= 0; i-- {
		if lines[i].humanPrompt() {
			start = i + 1
			break
		}
	}
	end := len(lines)
	for i := sel + 1; i < len(lines); i++ {
		if lines[i].humanPrompt() {
			end = i
			break
		}
	}

	for i := start; i < end; i++ {
		if lines[i].assistant() {
			lines[i].addTools(tools)
		}
	}

	if id := lines[sel].messageID(); id != "" {
		for i := range lines {
			if lines[i].assistant() && lines[i].messageID() == id {
				lines[i].addTools(tools)
			}
		}
	}
}

// newestAssistantLine scans forward and keeps the assistant line with the
// highest timestamp; a later line with an equal timestamp replaces the
// earlier one. Lines without a parseable timestamp count as the zero time.
func newestAssistantLine(lines []line) int {
	sel := -1
	var newest time.Time
	for i := range lines {
		if !lines[i].assistant() || len(lines[i].blocks) == 0 {
			continue
		}
		ts, _ := time.Parse(time.RFC3339Nano, lines[i].entry.Timestamp)
		if sel < 0 || !ts.Before(newest) {
			sel = i
			newest = ts
		}
	}
	return sel
}

func latestUsage(lines []line) domain.Usage {
	for i := len(lines) - 1; i >= 0; i-- {
		if !lines[i].assistant() {
			continue
		}
		u := lines[i].entry.Message.Usage
		if u.empty() {
			u = lines[i].entry.Usage
		}
		if u.empty() {
			continue
		}
		return domain.Usage{
			InputTokens:         u.InputTokens + u.CacheCreationInputTokens + u.CacheReadInputTokens,
			OutputTokens:        u.OutputTokens,
			CacheCreationTokens: u.CacheCreationInputTokens,
			CacheReadTokens:     u.CacheReadInputTokens,
		}
	}
	return domain.Usage{}
}

func latestModel(lines []line) string {
	for i := len(lines) - 1; i >= 0; i-- {
		if !lines[i].assistant() {
			continue
		}
		for _, m := range []string{lines[i].entry.Model, lines[i].entry.Message.Model} {
			if m != "" && m != syntheticModel {
				return m
			}
		}
	}
	return ""
}
