package parser

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

// FindTranscript guesses the transcript of the most recent session for
// projectPath when the host did not pass one. It looks in project
// directories matching the project name, then the encoded project path,
// then anywhere under projectsDir. It returns "" when nothing is found.
func FindTranscript(projectPath, projectsDir string) string {
	if projectsDir == "" {
		return ""
	}
	entries, err := os.ReadDir(projectsDir)
	if err != nil {
		return ""
	}

	name := filepath.Base(projectPath)
	encoded := strings.NewReplacer("/", "-", `\`, "-").Replace(projectPath)

	for _, needle := range []string{name, encoded} {
		if needle == "" || needle == "." || needle == "-" {
			continue
		}
		for _, e := range entries {
			if !e.IsDir() || !strings.Contains(e.Name(), needle) {
				continue
			}
			if path := newestJSONL(filepath.Join(projectsDir, e.Name()), false); path != "" {
				return path
			}
		}
	}

	return newestJSONL(projectsDir, true)
}

func newestJSONL(dir string, recursive bool) string {
	var (
		best     string
		bestTime time.Time
	)
	consider := func(path string, info os.FileInfo) {
		if best == "" || info.ModTime().After(bestTime) {
			best = path
			bestTime = info.ModTime()
		}
	}

	if recursive {
		_ = filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			if d.IsDir() || !strings.HasSuffix(d.Name(), ".jsonl") {
				return nil
			}
			if info, err := d.Info(); err == nil {
				consider(path, info)
			}
			return nil
		})
		return best
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".jsonl") {
			continue
		}
		if info, err := e.Info(); err == nil {
			consider(filepath.Join(dir, e.Name()), info)
		}
	}
	return best
}
