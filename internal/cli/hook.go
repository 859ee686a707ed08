package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/emiliopalmerini/ccptracker/internal/domain"
	"github.com/emiliopalmerini/ccptracker/internal/errors"
)

var hookCmd = &cobra.Command{
	Use:   "hook [prompt-submit|stop]",
	Short: "Handle Claude Code hook events",
	Long: `Reads hook event JSON from stdin, updates the ledger and prints the
hook decision as JSON on stdout.

Without an argument the event is taken from hook_event_name. Configure
your hooks like this:

  {
    "hooks": {
      "UserPromptSubmit": [{"hooks": [{"type": "command", "command": "ccptracker hook prompt-submit"}]}],
      "Stop":             [{"hooks": [{"type": "command", "command": "ccptracker hook stop"}]}]
    }
  }`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHook,
}

var hookEventArgs = map[string]string{
	"prompt-submit": domain.EventUserPromptSubmit,
	"stop":          domain.EventStop,
}

func runHook(cmd *cobra.Command, args []string) error {
	name := ""
	if len(args) > 0 {
		var ok bool
		if name, ok = hookEventArgs[args[0]]; !ok {
			_ = outputJSON(domain.Proceed(""))
			return fmt.Errorf("unknown hook event %q", args[0])
		}
	}

	input, err := io.ReadAll(os.Stdin)
	if err != nil {
		return finishHook(domain.Proceed(""), errors.NewInvalidInput("failed to read stdin", err))
	}

	event, err := parseHookInput(name, input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}

	switch e := event.(type) {
	case *domain.UserPromptSubmitInput:
		return handlePromptSubmit(e)
	case *domain.StopInput:
		return handleStop(e)
	default:
		return outputJSON(domain.Proceed(""))
	}
}

// parseHookInput decodes the payload as the named event, or by its
// hook_event_name when name is empty. Input that is not JSON at all is a
// raw prompt unless the event is known to be something else. A malformed
// payload still yields an event with default fields; a prompt that could
// not be decoded falls back to the raw input. The event is nil only when
// it cannot be identified.
func parseHookInput(name string, input []byte) (any, error) {
	if !json.Valid(input) && (name == "" || name == domain.EventUserPromptSubmit) {
		return &domain.UserPromptSubmitInput{Prompt: strings.TrimRight(string(input), "\r\n")}, nil
	}

	var (
		event any
		err   error
	)
	if name == "" {
		event, err = domain.ParseHookEvent(input)
	} else {
		event, err = domain.ParseHookEventAs(name, input)
	}
	if err != nil {
		err = errors.NewInvalidInput("malformed hook payload", err)
	}

	if e, ok := event.(*domain.UserPromptSubmitInput); ok && err != nil && e.Text() == "" {
		e.Prompt = strings.TrimSpace(string(input))
	}
	return event, err
}

// finishHook prints the decision and turns err into a warning. Only an
// unwritable ledger location fails the command.
func finishHook(decision domain.HookDecision, err error) error {
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}
	if outErr := outputJSON(decision); outErr != nil {
		return outErr
	}
	if errors.Is(err, errors.ErrUnwritable) {
		return err
	}
	return nil
}

func closeApp(ctx context.Context, app *AppContext) {
	if err := app.Close(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}
}

// outputJSON writes a hook decision as JSON to stdout.
func outputJSON(decision domain.HookDecision) error {
	data, err := json.Marshal(decision)
	if err != nil {
		return fmt.Errorf("failed to marshal response: %w", err)
	}
	fmt.Println(string(data))
	return nil
}
