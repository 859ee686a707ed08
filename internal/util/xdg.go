package util

import (
	"fmt"
	"os"
	"path/filepath"
)

// GetGlobalDir returns the base directory for global deployments.
// It respects CCPTRACKER_HOME if set, otherwise falls back to ~/.ccptracker
func GetGlobalDir() (string, error) {
	if home := os.Getenv("CCPTRACKER_HOME"); home != "" {
		return home, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	return filepath.Join(homeDir, ".ccptracker"), nil
}

// GetClaudeProjectsDir returns the directory where Claude Code keeps
// per-project transcripts.
func GetClaudeProjectsDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".claude", "projects"), nil
}
