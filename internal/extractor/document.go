// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extractor

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// Document is the source file split into lines. Every line keeps its
// original terminator so captured blocks can be written back byte for byte.
// A Document is never modified after it is loaded.
type Document struct {
	path  string
	lines []string
	sum   string
}

// LoadDocument reads the whole file at path and closes it before returning.
// Any failure is reported as a *SourceError.
func LoadDocument(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &SourceError{Path: path, Err: err}
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, &SourceError{Path: path, Err: fmt.Errorf("reading: %w", err)}
	}
	return ParseDocument(path, data), nil
}

// ParseDocument splits data into lines after each '\n'. A final line without
// a terminator is kept as is.
func ParseDocument(path string, data []byte) *Document {
	var lines []string
	start := 0
	for i, b := range data {
		if b == '\n' {
			lines = append(lines, string(data[start:i+1]))
			start = i + 1
		}
	}
	if start < len(data) {
		lines = append(lines, string(data[start:]))
	}

	sum := sha256.Sum256(data)
	return &Document{
		path:  path,
		lines: lines,
		sum:   hex.EncodeToString(sum[:]),
	}
}

// Path returns the file the document was loaded from.
func (d *Document) Path() string { return d.path }

// Len returns the number of lines.
func (d *Document) Len() int { return len(d.lines) }

// Line returns line i including its terminator.
func (d *Document) Line(i int) string { return d.lines[i] }

// SHA256 returns the hex digest of the raw document bytes.
func (d *Document) SHA256() string { return d.sum }
