package domain

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Hook event names sent by Claude Code.
const (
	EventUserPromptSubmit = "UserPromptSubmit"
	EventStop             = "Stop"
)

// HookEventBase contains fields common to all hook events from Claude Code.
type HookEventBase struct {
	SessionID      string `json:"session_id"`
	TranscriptPath string `json:"transcript_path"`
	Cwd            string `json:"cwd"`
	PermissionMode string `json:"permission_mode"`
	HookEventName  string `json:"hook_event_name"`
}

// UserPromptSubmitInput is sent when the user submits a prompt.
type UserPromptSubmitInput struct {
	HookEventBase
	Prompt    string `json:"prompt"`
	UserInput string `json:"user_input"`
}

// Text returns the submitted prompt. Older hosts send it as user_input.
func (e *UserPromptSubmitInput) Text() string {
	if e.UserInput != "" {
		return e.UserInput
	}
	return e.Prompt
}

// StopInput is sent when the assistant finishes responding.
type StopInput struct {
	HookEventBase
	StopHookActive bool `json:"stop_hook_active"`
}

// ParseHookEvent parses raw JSON into the typed event named by its
// hook_event_name. Malformed fields are handled as in ParseHookEventAs.
func ParseHookEvent(data []byte) (any, error) {
	var base HookEventBase
	if err := json.Unmarshal(data, &base); err != nil {
		var typeErr *json.UnmarshalTypeError
		if !errors.As(err, &typeErr) {
			return nil, fmt.Errorf("failed to parse hook event: %w", err)
		}
	}

	if base.HookEventName == "" {
		return nil, fmt.Errorf("missing hook_event_name")
	}

	return ParseHookEventAs(base.HookEventName, data)
}

// ParseHookEventAs decodes data as the named event, ignoring any
// hook_event_name in the payload. A field of the wrong type keeps its zero
// value and a payload that is not JSON yields an empty event; in both cases
// the event is returned together with the decode error. Only an unknown name
// returns a nil event.
func ParseHookEventAs(name string, data []byte) (any, error) {
	var event any
	switch name {
	case EventUserPromptSubmit:
		event = &UserPromptSubmitInput{}
	case EventStop:
		event = &StopInput{}
	default:
		return nil, fmt.Errorf("unknown hook event: %s", name)
	}

	if err := json.Unmarshal(data, event); err != nil {
		return event, fmt.Errorf("malformed %s event: %w", name, err)
	}
	return event, nil
}
