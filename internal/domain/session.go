package domain

// SessionState links a prompt to its response and rating across hook
// processes. At most one exists at a time; its absence means nothing is
// pending.
type SessionState struct {
	SessionID   string `json:"session_id"`
	Timestamp   string `json:"timestamp"`
	ProjectPath string `json:"project_path"`
	ProjectName string `json:"project_name,omitempty"`
}
