// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package manifest defines the extraction jobs: the built-in list for the
// ERC-20 generator and an optional YAML file that replaces it.
package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/tmplextract/pkg/types"
)

const (
	// DefaultSource is the generator file that embeds the templates.
	DefaultSource = "internal/generator/generator.go"
	// DefaultOutputDir is where the generator's embed.FS expects them.
	DefaultOutputDir = "internal/generator/templates"

	rawStringEnd = "`"
)

// DefaultJobs returns the contract, deploy script, and test script jobs.
// Each template is a Go raw string whose closing back-tick sits alone on
// its line.
func DefaultJobs() []types.ExtractionJob {
	return []types.ExtractionJob{
		{StartMarker: "const contractTemplate =", EndDelimiter: rawStringEnd, OutputName: "contract.sol.tmpl"},
		{StartMarker: "const deployTemplate =", EndDelimiter: rawStringEnd, OutputName: "deploy.js.tmpl"},
		{StartMarker: "const testTemplate =", EndDelimiter: rawStringEnd, OutputName: "test.js.tmpl"},
	}
}

// File is the on-disk form of a job manifest.
type File struct {
	Jobs []types.ExtractionJob `yaml:"jobs"`
}

// Load reads and validates the manifest at path.
func Load(path string) ([]types.ExtractionJob, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading job manifest %s: %w", path, err)
	}
	jobs, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("job manifest %s: %w", path, err)
	}
	return jobs, nil
}

// Parse decodes manifest YAML, rejecting unknown fields, and validates the
// jobs it holds.
func Parse(data []byte) ([]types.ExtractionJob, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing: %w", err)
	}
	if len(f.Jobs) == 0 {
		return nil, &ValidationError{Problems: []string{"no jobs defined"}}
	}
	if err := Validate(f.Jobs); err != nil {
		return nil, err
	}
	return f.Jobs, nil
}

// ValidationError lists every problem found in a job list.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid jobs:\n  - " + strings.Join(e.Problems, "\n  - ")
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks that every job has its fields set, that output names stay
// inside the output directory, and that no two jobs write the same file.
func Validate(jobs []types.ExtractionJob) error {
	var problems []string
	seen := make(map[string]int)

	for i, job := range jobs {
		label := fmt.Sprintf("job %d", i+1)
		if job.StartMarker != "" {
			label = fmt.Sprintf("job %d (%q)", i+1, job.StartMarker)
		}

		if err := validate.Struct(job); err != nil {
			var fieldErrs validator.ValidationErrors
			if !errors.As(err, &fieldErrs) {
				return fmt.Errorf("validating %s: %w", label, err)
			}
			for _, fe := range fieldErrs {
				problems = append(problems, fmt.Sprintf("%s: %s is %s", label, fieldName(fe.Field()), fe.Tag()))
			}
		}

		if job.OutputName == "" {
			continue
		}
		if !isLocal(job.OutputName) {
			problems = append(problems, fmt.Sprintf("%s: output_name %q must be a relative path inside the output directory", label, job.OutputName))
			continue
		}
		clean := filepath.Clean(job.OutputName)
		if prev, ok := seen[clean]; ok {
			problems = append(problems, fmt.Sprintf("%s: output_name %q already used by job %d", label, job.OutputName, prev))
			continue
		}
		seen[clean] = i + 1
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

func isLocal(name string) bool {
	return filepath.IsLocal(name) && filepath.Clean(name) != "."
}

// fieldName maps a struct field to its manifest key.
func fieldName(field string) string {
	switch field {
	case "StartMarker":
		return "start_marker"
	case "EndDelimiter":
		return "end_delimiter"
	case "OutputName":
		return "output_name"
	}
	return field
}
