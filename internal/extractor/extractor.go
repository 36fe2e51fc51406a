// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extractor pulls embedded text templates out of a generator source
// file and writes each one to its own file.
//
// A job names a start marker, an end delimiter, and an output file. The
// extractor finds the first line that begins with the marker, keeps what
// follows the marker delimiter on that line, copies the following lines
// verbatim until a line that trims to the end delimiter, and writes the
// result under the output directory. A job whose marker is absent is
// skipped without error.
package extractor

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/pdiddy/tmplextract/pkg/types"
)

// Options controls where and how blocks are written.
type Options struct {
	// OutputDir receives one file per matched job.
	OutputDir string

	// MarkerDelimiter separates the start marker from the first template
	// line (default "`").
	MarkerDelimiter string

	// CreateDirs creates missing parent directories of output files.
	CreateDirs bool

	// Check compares blocks with existing outputs without writing.
	Check bool
}

// JobResult is the outcome of one job.
type JobResult struct {
	Job        types.ExtractionJob
	Status     types.JobStatus
	Path       string
	Bytes      int
	SHA256     string
	Terminated bool
	Err        error
}

// RunResult holds the outcome of every job in a run, in job order.
type RunResult struct {
	Jobs      []JobResult
	Written   int
	Unchanged int
	Stale     int
	Skipped   int
	Failed    int
}

// Total returns the number of jobs processed.
func (r RunResult) Total() int {
	return r.Written + r.Unchanged + r.Stale + r.Skipped + r.Failed
}

// HasFailures reports whether any job failed.
func (r RunResult) HasFailures() bool {
	return r.Failed > 0
}

// Err joins the errors of failed jobs, and ErrStale when a check found
// out-of-date outputs. It returns nil for a clean run.
func (r RunResult) Err() error {
	var errs []error
	for _, jr := range r.Jobs {
		if jr.Err != nil {
			errs = append(errs, jr.Err)
		}
	}
	if r.Stale > 0 {
		errs = append(errs, fmt.Errorf("%d of %d output(s) stale: %w", r.Stale, r.Total(), ErrStale))
	}
	return errors.Join(errs...)
}

func (r *RunResult) add(jr JobResult) {
	r.Jobs = append(r.Jobs, jr)
	switch jr.Status {
	case types.JobWritten:
		r.Written++
	case types.JobUnchanged:
		r.Unchanged++
	case types.JobStale:
		r.Stale++
	case types.JobSkipped:
		r.Skipped++
	case types.JobFailed:
		r.Failed++
	}
}

// Extractor runs extraction jobs against a loaded Document.
type Extractor struct {
	opts Options
	log  *zap.Logger
}

// New returns an Extractor. A nil logger discards diagnostics.
func New(opts Options, logger *zap.Logger) *Extractor {
	if opts.MarkerDelimiter == "" {
		opts.MarkerDelimiter = types.DefaultMarkerDelimiter
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{opts: opts, log: logger.Named("extractor")}
}

// Extract runs one job. It writes OutputDir/job.OutputName, or in check mode
// compares against it, and never touches the filesystem for a skipped job.
func (e *Extractor) Extract(doc *Document, job types.ExtractionJob) JobResult {
	path := filepath.Join(e.opts.OutputDir, job.OutputName)
	res := JobResult{Job: job, Path: path}
	log := e.log.With(zap.String("marker", job.StartMarker), zap.String("output", path))

	block, found, err := Capture(doc, job, e.opts.MarkerDelimiter)
	if err != nil {
		res.Status = types.JobFailed
		res.Err = err
		return res
	}
	if !found {
		log.Debug("start marker not found, skipping")
		res.Status = types.JobSkipped
		return res
	}
	if !block.Terminated {
		log.Warn("end delimiter not found, block runs to end of document",
			zap.String("delimiter", job.EndDelimiter), zap.Int("start_line", block.Start+1))
	}

	content := block.Bytes()
	res.Bytes = len(content)
	res.SHA256 = block.SHA256()
	res.Terminated = block.Terminated

	existing, readErr := os.ReadFile(path)
	if readErr != nil && !errors.Is(readErr, fs.ErrNotExist) {
		log.Debug("existing output unreadable", zap.Error(readErr))
	}
	same := readErr == nil && bytes.Equal(existing, content)

	if e.opts.Check {
		switch {
		case same:
			res.Status = types.JobUnchanged
		case readErr != nil && !errors.Is(readErr, fs.ErrNotExist):
			res.Status = types.JobFailed
			res.Err = &OutputError{Op: "read", Path: path, Marker: job.StartMarker, Err: readErr}
		default:
			res.Status = types.JobStale
		}
		return res
	}

	if e.opts.CreateDirs {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			res.Status = types.JobFailed
			res.Err = &OutputError{Op: "mkdir", Path: filepath.Dir(path), Marker: job.StartMarker, Err: err}
			return res
		}
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		res.Status = types.JobFailed
		res.Err = &OutputError{Op: "write", Path: path, Marker: job.StartMarker, Err: err}
		return res
	}

	if same {
		res.Status = types.JobUnchanged
	} else {
		res.Status = types.JobWritten
	}
	log.Debug("output written", zap.Int("bytes", res.Bytes), zap.Int("lines", len(block.Lines)))
	return res
}

// Run executes jobs in order against doc, printing one status line per job
// and a summary to w. A failing job does not stop the jobs after it; the
// caller inspects the result or calls RunResult.Err.
func (e *Extractor) Run(doc *Document, jobs []types.ExtractionJob, w io.Writer) RunResult {
	var result RunResult
	for _, job := range jobs {
		jr := e.Extract(doc, job)
		result.add(jr)
		printJob(w, jr)
	}

	if e.opts.Check {
		fmt.Fprintf(w, "\nCheck summary: %d up to date, %d stale, %d skipped, %d failed (total: %d)\n",
			result.Unchanged, result.Stale, result.Skipped, result.Failed, result.Total())
	} else {
		fmt.Fprintf(w, "\nExtraction summary: %d written, %d unchanged, %d skipped, %d failed (total: %d)\n",
			result.Written, result.Unchanged, result.Skipped, result.Failed, result.Total())
	}
	return result
}

func printJob(w io.Writer, jr JobResult) {
	switch jr.Status {
	case types.JobWritten, types.JobUnchanged:
		fmt.Fprintf(w, "%-10s %s (%d bytes)\n", string(jr.Status)+":", jr.Path, jr.Bytes)
	case types.JobStale:
		fmt.Fprintf(w, "%-10s %s (out of date with %q)\n", "stale:", jr.Path, jr.Job.StartMarker)
	case types.JobSkipped:
		fmt.Fprintf(w, "%-10s %s (marker %q not found)\n", "skipped:", jr.Job.OutputName, jr.Job.StartMarker)
	case types.JobFailed:
		fmt.Fprintf(w, "%-10s %s (%v)\n", "failed:", jr.Path, jr.Err)
	}
}
