// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// DefaultMarkerDelimiter is the character that separates the start marker
// from the first template line, as in "const tmpl = `first line".
const DefaultMarkerDelimiter = "`"

// ExtractorConfig holds the settings for one extraction run.
type ExtractorConfig struct {
	// SourcePath is the generator source file holding the embedded templates
	// (default "internal/generator/generator.go").
	SourcePath string `json:"source" yaml:"source"`

	// OutputDir is the directory that receives one file per matched job
	// (default "internal/generator/templates").
	OutputDir string `json:"output_dir" yaml:"output_dir"`

	// JobsFile is an optional YAML manifest that replaces the default jobs.
	JobsFile string `json:"jobs_file,omitempty" yaml:"jobs_file,omitempty"`

	// MarkerDelimiter is split on once in the marker line; everything after
	// it becomes the first captured line (default "`").
	MarkerDelimiter string `json:"marker_delimiter" yaml:"marker_delimiter"`

	// CreateDirs creates missing parent directories of output files. When
	// false a missing output directory is reported as a write failure.
	CreateDirs bool `json:"create_dirs" yaml:"create_dirs"`

	// Check compares captured blocks with the files on disk instead of
	// writing them.
	Check bool `json:"check" yaml:"check"`

	// HistoryDB is the SQLite database that records runs. Empty disables
	// history.
	HistoryDB string `json:"history_db,omitempty" yaml:"history_db,omitempty"`
}

// RunMode reports whether the run writes outputs or only checks them.
func (c ExtractorConfig) RunMode() string {
	if c.Check {
		return "check"
	}
	return "write"
}
