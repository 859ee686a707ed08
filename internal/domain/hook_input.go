package domain

// Decision values returned to the host.
const (
	DecisionProceed = "proceed"
	DecisionBlock   = "block"
)

// HookDecision is the structured result of a lifecycle callback. A block
// decision stops the prompt from reaching the assistant; Reason is shown to
// the user. Message carries informational feedback on proceed.
type HookDecision struct {
	Decision string `json:"decision"`
	Reason   string `json:"reason,omitempty"`
	Message  string `json:"message,omitempty"`
}

// Blocked reports whether the prompt must not be forwarded.
func (d HookDecision) Blocked() bool {
	return d.Decision == DecisionBlock
}

// Proceed returns a decision that lets the host continue.
func Proceed(message string) HookDecision {
	return HookDecision{Decision: DecisionProceed, Message: message}
}

// Block returns a decision that consumes the prompt.
func Block(reason string) HookDecision {
	return HookDecision{Decision: DecisionBlock, Reason: reason}
}
