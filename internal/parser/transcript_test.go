package parser

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeTranscript(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "transcript.jsonl")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write test transcript: %v", err)
	}
	return path
}

func TestExtractTurn_LatestTurnOnly(t *testing.T) {
	content := `{"type":"user","timestamp":"2025-01-17T10:00:00Z","message":{"role":"user","content":"First question"}}
{"type":"assistant","timestamp":"2025-01-17T10:00:05Z","message":{"id":"msg_1","role":"assistant","content":[{"type":"tool_use","id":"t1","name":"Read","input":{}}]}}
{"type":"user","timestamp":"2025-01-17T10:00:06Z","message":{"role":"user","content":[{"type":"tool_result","tool_use_id":"t1","content":"ok"}]}}
{"type":"assistant","timestamp":"2025-01-17T10:00:07Z","message":{"id":"msg_2","role":"assistant","content":[{"type":"text","text":"First answer"}]}}
{"type":"user","timestamp":"2025-01-17T10:01:00Z","message":{"role":"user","content":[{"type":"text","text":"Second question"}]}}
{"type":"assistant","timestamp":"2025-01-17T10:01:05Z","message":{"id":"msg_3","role":"assistant","content":[{"type":"text","text":"Second answer"},{"type":"tool_use","id":"t2","name":"Write","input":{}}]}}
{"type":"user","timestamp":"2025-01-17T10:02:00Z","message":{"role":"user","content":"Third question"}}
{"type":"assistant","timestamp":"2025-01-17T10:02:05Z","message":{"id":"msg_4","role":"assistant","content":[{"type":"tool_use","id":"t3","name":"Grep","input":{}}]}}
{"type":"user","timestamp":"2025-01-17T10:02:06Z","message":{"role":"user","content":[{"type":"tool_result","tool_use_id":"t3","content":"match"}]}}
{"type":"assistant","timestamp":"2025-01-17T10:02:07Z","message":{"id":"msg_5","role":"assistant","content":[{"type":"tool_use","id":"t4","name":"Bash","input":{}}]}}
{"type":"user","timestamp":"2025-01-17T10:02:08Z","message":{"role":"user","content":[{"type":"tool_result","tool_use_id":"t4","content":"done"}]}}
{"type":"assistant","timestamp":"2025-01-17T10:02:09Z","message":{"id":"msg_6","role":"assistant","content":[{"type":"text","text":"Third"},{"type":"text","text":"  answer  "}]}}
`
	turn, err := ExtractTurn(writeTranscript(t, content))
	if err != nil {
		t.Fatalf("ExtractTurn failed: %v", err)
	}

	assertEqual(t, "Text", "Third answer", turn.Text)
	assertEqual(t, "ToolsUsed", "Bash,Grep", turn.ToolsUsed())
	assertEqual(t, "len(Tools)", 2, len(turn.Tools))
}

func TestExtractTurn_SplitMessageSharesTools(t *testing.T) {
	content := `{"type":"assistant","message":{"id":"msg_1","role":"assistant","content":[{"type":"text","text":"Looking"}]}}
{"type":"assistant","message":{"id":"msg_1","role":"assistant","content":[{"type":"tool_use","id":"t1","name":"Glob","input":{}}]}}
`
	turn, err := ExtractTurn(writeTranscript(t, content))
	if err != nil {
		t.Fatalf("ExtractTurn failed: %v", err)
	}

	assertEqual(t, "Text", "Looking", turn.Text)
	assertEqual(t, "ToolsUsed", "Glob", turn.ToolsUsed())
}

func TestExtractTurn_MissingFile(t *testing.T) {
	turn, err := ExtractTurn(filepath.Join(t.TempDir(), "nope.jsonl"))
	if err != nil {
		t.Fatalf("expected no error for missing file, got %v", err)
	}

	assertEqual(t, "Text", "", turn.Text)
	assertEqual(t, "ToolsUsed", "", turn.ToolsUsed())
	assertEqual(t, "Model", "", turn.Model)
	assertEqual(t, "Usage.HasActual", false, turn.Usage.HasActual())
}

func TestExtractTurn_EmptyPath(t *testing.T) {
	turn, err := ExtractTurn("")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	assertEqual(t, "Text", "", turn.Text)
}

func TestExtractTurn_SkipsMalformedLines(t *testing.T) {
	content := `not json at all
{"type":"assistant","message":{"role":"assistant","content":[{"type":"text","text":"Valid"}]}}
{"type":"assistant","message":{"role":"assistant","content":[{"type":"text","text":"broken"
`
	turn, err := ExtractTurn(writeTranscript(t, content))
	if err != nil {
		t.Fatalf("ExtractTurn failed: %v", err)
	}
	assertEqual(t, "Text", "Valid", turn.Text)
}

func TestExtractTurn_NoAssistantTurns(t *testing.T) {
	content := `{"type":"user","message":{"role":"user","content":"Hello"}}
`
	turn, err := ExtractTurn(writeTranscript(t, content))
	if err != nil {
		t.Fatalf("ExtractTurn failed: %v", err)
	}
	assertEqual(t, "Text", "", turn.Text)
	assertEqual(t, "Usage.InputTokens", int64(0), turn.Usage.InputTokens)
}

func TestExtractTurn_UsageIncludesCache(t *testing.T) {
	content := `{"type":"assistant","message":{"role":"assistant","content":[{"type":"text","text":"Earlier"}],"usage":{"input_tokens":1,"output_tokens":1}}}
{"type":"assistant","message":{"role":"assistant","content":[{"type":"text","text":"Now"}],"usage":{"input_tokens":1000,"output_tokens":500,"cache_creation_input_tokens":50,"cache_read_input_tokens":100}}}
{"type":"assistant","message":{"role":"assistant","content":[{"type":"tool_use","id":"t","name":"Read","input":{}}]}}
`
	turn, err := ExtractTurn(writeTranscript(t, content))
	if err != nil {
		t.Fatalf("ExtractTurn failed: %v", err)
	}

	assertEqual(t, "Usage.InputTokens", int64(1150), turn.Usage.InputTokens)
	assertEqual(t, "Usage.OutputTokens", int64(500), turn.Usage.OutputTokens)
	assertEqual(t, "Usage.CacheCreationTokens", int64(50), turn.Usage.CacheCreationTokens)
	assertEqual(t, "Usage.CacheReadTokens", int64(100), turn.Usage.CacheReadTokens)
	assertEqual(t, "Usage.RegularInput", int64(1000), turn.Usage.RegularInput())
}

func TestExtractTurn_EntryLevelUsage(t *testing.T) {
	content := `{"type":"assistant","message":{"role":"assistant","content":[{"type":"text","text":"Hi"}]},"usage":{"input_tokens":100,"output_tokens":50}}
`
	turn, err := ExtractTurn(writeTranscript(t, content))
	if err != nil {
		t.Fatalf("ExtractTurn failed: %v", err)
	}
	assertEqual(t, "Usage.InputTokens", int64(100), turn.Usage.InputTokens)
	assertEqual(t, "Usage.OutputTokens", int64(50), turn.Usage.OutputTokens)
}

func TestExtractTurn_ModelPrefersEventLevel(t *testing.T) {
	content := `{"type":"assistant","message":{"role":"assistant","model":"claude-opus-3","content":[{"type":"text","text":"a"}]}}
{"type":"assistant","model":"claude-sonnet-4-5-20250929","message":{"role":"assistant","model":"claude-3-5-sonnet","content":[{"type":"text","text":"b"}]}}
{"type":"assistant","message":{"role":"assistant","model":"<synthetic>","content":[{"type":"text","text":"c"}]}}
`
	turn, err := ExtractTurn(writeTranscript(t, content))
	if err != nil {
		t.Fatalf("ExtractTurn failed: %v", err)
	}
	assertEqual(t, "Model", "claude-sonnet-4-5-20250929", turn.Model)
	assertEqual(t, "Text", "c", turn.Text)
}

func TestExtractTurn_TruncatesLongText(t *testing.T) {
	long := strings.Repeat("가", MaxResponseRunes+10)
	content := `{"type":"assistant","message":{"role":"assistant","content":[{"type":"text","text":"` + long + `"}]}}
`
	turn, err := ExtractTurn(writeTranscript(t, content))
	if err != nil {
		t.Fatalf("ExtractTurn failed: %v", err)
	}

	if !strings.HasSuffix(turn.Text, TruncationMarker) {
		t.Errorf("expected truncation marker, got suffix %q", turn.Text[len(turn.Text)-20:])
	}
	assertEqual(t, "rune count", MaxResponseRunes+len([]rune(TruncationMarker)), len([]rune(turn.Text)))
}

func TestExtractTurn_FallbackPicksNewestTimestamp(t *testing.T) {
	// No assistant line carries text, so the newest assistant line by
	// timestamp wins even though it is not the last line in the file.
	content := `{"type":"assistant","timestamp":"2025-01-17T10:00:05Z","message":{"role":"assistant","content":[{"type":"tool_use","id":"a","name":"Read","input":{}}]}}
{"type":"assistant","timestamp":"2025-01-17T10:00:30Z","message":{"role":"assistant","content":[{"type":"tool_use","id":"b","name":"Edit","input":{}}]}}
{"type":"assistant","timestamp":"2025-01-17T10:00:10Z","message":{"role":"assistant","content":[{"type":"tool_use","id":"c","name":"Bash","input":{}},{"type":"text","text":"   "}]}}
`
	turn, err := ExtractTurn(writeTranscript(t, content))
	if err != nil {
		t.Fatalf("ExtractTurn failed: %v", err)
	}
	assertEqual(t, "Text", "", turn.Text)
	assertEqual(t, "ToolsUsed", "Edit", turn.ToolsUsed())
}

func TestExtractTurn_FallbackEqualTimestampTakesLater(t *testing.T) {
	content := `{"type":"assistant","timestamp":"2025-01-17T10:00:05Z","message":{"role":"assistant","content":[{"type":"tool_use","id":"a","name":"Read","input":{}}]}}
{"type":"assistant","timestamp":"2025-01-17T10:00:05Z","message":{"role":"assistant","content":[{"type":"tool_use","id":"b","name":"Write","input":{}}]}}
`
	turn, err := ExtractTurn(writeTranscript(t, content))
	if err != nil {
		t.Fatalf("ExtractTurn failed: %v", err)
	}
	assertEqual(t, "ToolsUsed", "Write", turn.ToolsUsed())
}

func TestFindTranscript(t *testing.T) {
	projects := t.TempDir()
	matching := filepath.Join(projects, "-work-myapp")
	other := filepath.Join(projects, "-work-other")
	for _, dir := range []string{matching, other} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatal(err)
		}
	}

	older := filepath.Join(matching, "a.jsonl")
	newer := filepath.Join(matching, "b.jsonl")
	elsewhere := filepath.Join(other, "c.jsonl")
	for _, p := range []string{older, newer, elsewhere} {
		if err := os.WriteFile(p, []byte("{}\n"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	now := time.Now()
	_ = os.Chtimes(older, now.Add(-time.Hour), now.Add(-time.Hour))
	_ = os.Chtimes(newer, now.Add(-time.Minute), now.Add(-time.Minute))
	_ = os.Chtimes(elsewhere, now, now)

	assertEqual(t, "by project name", newer, FindTranscript("/work/myapp", projects))
	assertEqual(t, "fallback to newest anywhere", elsewhere, FindTranscript("/work/unknown", projects))
	assertEqual(t, "missing projects dir", "", FindTranscript("/work/myapp", filepath.Join(projects, "missing")))
}

func assertEqual[T comparable](t *testing.T, name string, expected, actual T) {
	t.Helper()
	if expected != actual {
		t.Errorf("%s: expected %v, got %v", name, expected, actual)
	}
}
