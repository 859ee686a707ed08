package cli

import (
	"context"

	"github.com/emiliopalmerini/ccptracker/internal/domain"
	"github.com/emiliopalmerini/ccptracker/internal/tracker"
)

func handlePromptSubmit(event *domain.UserPromptSubmitInput) error {
	ctx := context.Background()
	app, err := NewAppContext(ctx, scopeFlag, event.Cwd)
	if err != nil {
		return finishHook(domain.Proceed(""), err)
	}
	defer closeApp(ctx, app)

	decision, err := app.Tracker.OnPromptSubmit(ctx, tracker.PromptEvent{
		SessionID: event.SessionID,
		Prompt:    event.Text(),
	})
	return finishHook(decision, err)
}
