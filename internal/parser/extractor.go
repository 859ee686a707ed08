package parser

import (
	"os"

	"github.com/emiliopalmerini/ccptracker/internal/domain"
)

// Extractor reads turns for the tracker. When the host passes no usable
// transcript path it falls back to FindTranscript under ProjectsDir.
type Extractor struct {
	ProjectsDir string
}

func NewExtractor(projectsDir string) *Extractor {
	return &Extractor{ProjectsDir: projectsDir}
}

// Extract returns the latest turn of the transcript at path, locating one
// for projectPath if path is empty or missing.
func (e *Extractor) Extract(path, projectPath string) (*domain.TranscriptTurn, error) {
	if path == "" || !exists(path) {
		if found := FindTranscript(projectPath, e.ProjectsDir); found != "" {
			path = found
		}
	}
	return ExtractTurn(path)
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
