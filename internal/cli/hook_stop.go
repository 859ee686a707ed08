package cli

import (
	"context"

	"github.com/emiliopalmerini/ccptracker/internal/domain"
	"github.com/emiliopalmerini/ccptracker/internal/tracker"
)

func handleStop(event *domain.StopInput) error {
	// Prevent infinite loop: if this stop hook triggered another stop, bail out
	if event.StopHookActive {
		return outputJSON(domain.Proceed(""))
	}

	ctx := context.Background()
	app, err := NewAppContext(ctx, scopeFlag, event.Cwd)
	if err != nil {
		return finishHook(domain.Proceed(""), err)
	}
	defer closeApp(ctx, app)

	decision, err := app.Tracker.OnResponseReady(ctx, tracker.ResponseEvent{
		SessionID:      event.SessionID,
		TranscriptPath: event.TranscriptPath,
		StopHookActive: event.StopHookActive,
	})
	return finishHook(decision, err)
}
