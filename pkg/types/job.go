// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types holds the records shared between the extractor, the job
// manifest, the run history, and the CLI.
package types

// ExtractionJob describes one embedded template to pull out of the source
// document. Jobs are values; nothing mutates them after they are defined.
type ExtractionJob struct {
	// StartMarker is the prefix that identifies the line opening the
	// template (e.g. "const contractTemplate ="). It must match at column 0.
	StartMarker string `json:"start_marker" yaml:"start_marker" validate:"required"`

	// EndDelimiter is the exact text that, after trimming surrounding
	// whitespace, marks the closing line. The closing line is not captured.
	EndDelimiter string `json:"end_delimiter" yaml:"end_delimiter" validate:"required"`

	// OutputName is the file name, relative to the output directory, that
	// receives the captured block.
	OutputName string `json:"output_name" yaml:"output_name" validate:"required"`
}

// JobStatus is the outcome of running one ExtractionJob.
type JobStatus string

const (
	// JobWritten means the output file was created or its content changed.
	JobWritten JobStatus = "written"
	// JobUnchanged means the output already held identical bytes.
	JobUnchanged JobStatus = "unchanged"
	// JobStale means check mode found the output missing or different.
	JobStale JobStatus = "stale"
	// JobSkipped means the start marker was not found. This is not an error.
	JobSkipped JobStatus = "skipped"
	// JobFailed means a configuration or write error stopped the job.
	JobFailed JobStatus = "failed"
)
