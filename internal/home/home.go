package home

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// DefaultDirName is the default name for the redpen home directory.
	DefaultDirName = ".redpen"

	// DataDirName is the subdirectory for project data.
	DataDirName = "data"

	// ConfigFileName is the default config file name.
	ConfigFileName = "config.yaml"
)

// Dir represents the redpen home directory structure.
type Dir struct {
	path string
}

// New creates a new Dir with the given path.
// If path is empty, uses the default (~/.redpen).
func New(path string) (*Dir, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		path = filepath.Join(home, DefaultDirName)
	}

	return &Dir{path: path}, nil
}

// Path returns the root path of the home directory.
func (d *Dir) Path() string {
	return d.path
}

// DataPath returns the path to the data directory.
func (d *Dir) DataPath() string {
	return filepath.Join(d.path, DataDirName)
}

// ConfigPath returns the path to the default config file.
func (d *Dir) ConfigPath() string {
	return filepath.Join(d.path, ConfigFileName)
}

// EnsureExists creates the home directory and subdirectories if they don't exist.
func (d *Dir) EnsureExists() error {
	// Create data directory (this also creates the parent)
	if err := os.MkdirAll(d.DataPath(), 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	return nil
}

// Exists returns true if the home directory exists.
func (d *Dir) Exists() bool {
	_, err := os.Stat(d.path)
	return err == nil
}

// ConfigExists returns true if the config file exists in the home directory.
func (d *Dir) ConfigExists() bool {
	_, err := os.Stat(d.ConfigPath())
	return err == nil
}

// ProjectDir returns the data directory of a project.
func (d *Dir) ProjectDir(projectID string) string {
	return filepath.Join(d.DataPath(), "projects", projectID)
}

// ResultsDir returns the directory holding a project's per-chapter edit results.
func (d *Dir) ResultsDir(projectID string) string {
	return filepath.Join(d.ProjectDir(projectID), "results")
}

// ResultPath returns the path of one chapter's edit result.
func (d *Dir) ResultPath(projectID, chapterID string) string {
	return filepath.Join(d.ResultsDir(projectID), chapterID+".json")
}

// StatusPath returns the path of a project's chapter status index.
func (d *Dir) StatusPath(projectID string) string {
	return filepath.Join(d.ProjectDir(projectID), "status.json")
}

// PromptsDir returns the directory searched for a project's prompt overrides.
func (d *Dir) PromptsDir(projectID string) string {
	return filepath.Join(d.ProjectDir(projectID), "prompts")
}

// ExportsDir returns the directory for reassembled, edited chapter files.
func (d *Dir) ExportsDir(projectID string) string {
	return filepath.Join(d.ProjectDir(projectID), "exports")
}

// EnsureProjectDir creates the results directory (and its parents) for a project.
func (d *Dir) EnsureProjectDir(projectID string) error {
	return os.MkdirAll(d.ResultsDir(projectID), 0o755)
}
