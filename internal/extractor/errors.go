// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extractor

import (
	"errors"
	"fmt"
)

// ErrStale is returned by a check-mode run when at least one output file is
// missing or differs from the block captured from the source.
var ErrStale = errors.New("generated templates are out of date")

// SourceError reports that the source document could not be read. It is
// fatal: no job runs without a document.
type SourceError struct {
	Path string
	Err  error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("reading source %s: %v", e.Path, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }

// ConfigError reports a job whose definition does not fit the document,
// such as a marker line without the marker delimiter.
type ConfigError struct {
	Marker string
	Line   string
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Line == "" {
		return fmt.Sprintf("job %q: %s", e.Marker, e.Reason)
	}
	return fmt.Sprintf("job %q: %s in line %q", e.Marker, e.Reason, e.Line)
}

// OutputError reports an I/O failure on the output side of a job. Op is one
// of "mkdir", "read", or "write".
type OutputError struct {
	Op     string
	Path   string
	Marker string
	Err    error
}

func (e *OutputError) Error() string {
	return fmt.Sprintf("%s %s for job %q: %v", e.Op, e.Path, e.Marker, e.Err)
}

func (e *OutputError) Unwrap() error { return e.Err }
