package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/emiliopalmerini/ccptracker/internal/domain"
	"github.com/emiliopalmerini/ccptracker/internal/util"
)

const (
	// DirName is the per-project directory holding ledger, state and logs.
	DirName = "ccptracker"

	ledgerFile  = "ccptracker.csv"
	sessionFile = "current-session.json"
	logFile     = "ccptracker.log"
)

// Data locations for global deployments.
const (
	LocationGlobal  = "global"
	LocationProject = "project"
)

// Env holds configuration read from CCPTRACKER_* environment variables.
type Env struct {
	Home        string        `envconfig:"CCPTRACKER_HOME"`
	Scope       string        `envconfig:"CCPTRACKER_SCOPE" default:"global"`
	LockTimeout time.Duration `envconfig:"CCPTRACKER_LOCK_TIMEOUT" default:"5s"`
	Debug       bool          `envconfig:"CCPTRACKER_DEBUG" default:"true"`

	OTELEnabled  bool   `envconfig:"CCPTRACKER_OTEL_ENABLED"`
	OTELEndpoint string `envconfig:"CCPTRACKER_OTEL_ENDPOINT"`
	OTELInsecure bool   `envconfig:"CCPTRACKER_OTEL_INSECURE"`

	ArchiveURL   string `envconfig:"CCPTRACKER_ARCHIVE_URL"`
	ArchiveToken string `envconfig:"CCPTRACKER_ARCHIVE_TOKEN"`
}

// File is the global config.json written by the installer.
type File struct {
	// DataLocation is "global" (one ledger for all projects) or "project"
	// (a ledger inside each project, still with project columns).
	DataLocation string `json:"data_location"`

	// CSVPath overrides the global ledger location.
	CSVPath string `json:"csv_path,omitempty"`
}

// Config is the resolved configuration of one hook invocation.
type Config struct {
	Scope       domain.Scope
	BaseDir     string
	LedgerPath  string
	SessionPath string
	LogPath     string

	ProjectPath string
	ProjectName string

	LockTimeout time.Duration
	Debug       bool

	OTELEnabled  bool
	OTELEndpoint string
	OTELInsecure bool

	ArchiveURL   string
	ArchiveToken string
}

// LoadEnv loads configuration from environment variables.
func LoadEnv() (*Env, error) {
	var env Env
	if err := envconfig.Process("", &env); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}
	return &env, nil
}

// LoadFile loads baseDir/config.json. A missing or unparseable file yields
// the defaults.
func LoadFile(baseDir string) File {
	cfg := File{DataLocation: LocationGlobal}

	data, err := os.ReadFile(filepath.Join(baseDir, "config.json"))
	if err != nil {
		return cfg
	}

	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return cfg
	}
	if f.DataLocation == LocationProject {
		cfg.DataLocation = LocationProject
	}
	cfg.CSVPath = f.CSVPath
	return cfg
}

// Resolve builds the configuration for a hook running in projectPath.
// scopeOverride, when non-empty, takes precedence over CCPTRACKER_SCOPE.
func Resolve(env *Env, scopeOverride, projectPath string) (*Config, error) {
	scopeName := env.Scope
	if scopeOverride != "" {
		scopeName = scopeOverride
	}
	scope, err := domain.ParseScope(scopeName)
	if err != nil {
		return nil, err
	}

	if projectPath != "" {
		if abs, err := filepath.Abs(projectPath); err == nil {
			projectPath = abs
		}
	}

	cfg := &Config{
		Scope:        scope,
		ProjectPath:  projectPath,
		LockTimeout:  env.LockTimeout,
		Debug:        env.Debug,
		OTELEnabled:  env.OTELEnabled,
		OTELEndpoint: env.OTELEndpoint,
		OTELInsecure: env.OTELInsecure,
		ArchiveURL:   env.ArchiveURL,
		ArchiveToken: env.ArchiveToken,
	}
	if projectPath != "" {
		cfg.ProjectName = filepath.Base(projectPath)
	}

	switch scope {
	case domain.ScopeProject:
		if projectPath == "" {
			return nil, fmt.Errorf("project scope requires a project path")
		}
		cfg.BaseDir = filepath.Join(projectPath, DirName)
		cfg.LedgerPath = filepath.Join(cfg.BaseDir, "data", ledgerFile)

	case domain.ScopeGlobal:
		base := env.Home
		if base == "" {
			base, err = util.GetGlobalDir()
			if err != nil {
				return nil, err
			}
		}
		cfg.BaseDir = base

		file := LoadFile(base)
		switch {
		case file.DataLocation == LocationProject && projectPath != "":
			cfg.LedgerPath = filepath.Join(projectPath, DirName, "data", ledgerFile)
		case file.CSVPath != "":
			cfg.LedgerPath = file.CSVPath
		default:
			cfg.LedgerPath = filepath.Join(base, "data", ledgerFile)
		}
	}

	cfg.SessionPath = filepath.Join(cfg.BaseDir, "temp", sessionFile)
	cfg.LogPath = filepath.Join(cfg.BaseDir, "logs", logFile)

	return cfg, nil
}
