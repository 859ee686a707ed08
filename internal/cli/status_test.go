package cli

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus_SummarizesLedger(t *testing.T) {
	env := setupHookEnv(t)

	_, err := runHookWithInput(t, promptInput(env, "Refactor the parser"))
	require.NoError(t, err)
	_, err = runHookWithInput(t, map[string]any{
		"session_id":      "sess-1",
		"transcript_path": writeTranscript(t, env.project),
		"cwd":             env.project,
		"hook_event_name": "Stop",
	})
	require.NoError(t, err)
	_, err = runHookWithInput(t, promptInput(env, "5"))
	require.NoError(t, err)

	var out bytes.Buffer
	statusCmd.SetOut(&out)
	defer statusCmd.SetOut(nil)

	require.NoError(t, runStatus(statusCmd, nil))

	text := out.String()
	assert.Contains(t, text, env.ledgerPath())
	assert.Contains(t, text, "Conversations:   1 (1 answered, 1 rated)")
	assert.Contains(t, text, "Average rating:  5.00 / 5")
	assert.Contains(t, text, "Estimated cost:  0.002250 USD")
	assert.NotContains(t, text, "Awaiting rating")
}

func TestStatus_EmptyLedger(t *testing.T) {
	setupHookEnv(t)

	var out bytes.Buffer
	statusCmd.SetOut(&out)
	defer statusCmd.SetOut(nil)

	require.NoError(t, runStatus(statusCmd, nil))
	assert.Contains(t, out.String(), "Conversations:   0 (0 answered, 0 rated)")
	assert.Contains(t, out.String(), "Average rating:  -")
}

func TestSync_UpsertsLedgerIntoArchive(t *testing.T) {
	env := setupHookEnv(t)
	t.Setenv("CCPTRACKER_ARCHIVE_URL", "file:"+filepath.Join(t.TempDir(), "archive.db"))

	_, err := runHookWithInput(t, promptInput(env, "first"))
	require.NoError(t, err)
	_, err = runHookWithInput(t, promptInput(env, "second"))
	require.NoError(t, err)

	var out bytes.Buffer
	syncCmd.SetOut(&out)
	defer syncCmd.SetOut(nil)

	require.NoError(t, runSync(syncCmd, nil))
	require.NoError(t, runSync(syncCmd, nil))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Synced 2 conversations (archive holds 2)", lines[1])
}

func TestSync_RequiresArchiveURL(t *testing.T) {
	setupHookEnv(t)

	err := runSync(syncCmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CCPTRACKER_ARCHIVE_URL")
}
