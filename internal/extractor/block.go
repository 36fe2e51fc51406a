// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extractor

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/pdiddy/tmplextract/pkg/types"
)

// Block is the run of lines captured for one job.
type Block struct {
	// Lines holds the captured lines in document order. Lines[0] is the
	// remainder of the marker line; the rest are verbatim.
	Lines []string

	// Start is the index of the marker line in the document.
	Start int

	// End is the index of the terminator line, or the document length when
	// the block was never closed.
	End int

	// Terminated reports whether the end delimiter was found.
	Terminated bool
}

// Bytes returns the captured lines concatenated in order.
func (b Block) Bytes() []byte {
	var sb strings.Builder
	for _, l := range b.Lines {
		sb.WriteString(l)
	}
	return []byte(sb.String())
}

// SHA256 returns the hex digest of Bytes.
func (b Block) SHA256() string {
	sum := sha256.Sum256(b.Bytes())
	return hex.EncodeToString(sum[:])
}

// FindMarker returns the index of the first line that starts with marker,
// or -1. The marker must sit at column 0.
func FindMarker(doc *Document, marker string) int {
	for i := 0; i < doc.Len(); i++ {
		if strings.HasPrefix(doc.Line(i), marker) {
			return i
		}
	}
	return -1
}

// StripMarkerPrefix returns everything in line after the first occurrence
// of delim. A line without delim gives a *ConfigError.
func StripMarkerPrefix(marker, line, delim string) (string, error) {
	_, rest, ok := strings.Cut(line, delim)
	if !ok {
		return "", &ConfigError{
			Marker: marker,
			Line:   strings.TrimRight(line, "\r\n"),
			Reason: "marker line has no " + quoteDelim(delim) + " delimiter",
		}
	}
	return rest, nil
}

// Capture locates the block for job in doc. It reports found=false with a
// nil error when the start marker is absent. A block whose end delimiter
// never appears runs to the end of the document.
func Capture(doc *Document, job types.ExtractionJob, delim string) (Block, bool, error) {
	start := FindMarker(doc, job.StartMarker)
	if start < 0 {
		return Block{}, false, nil
	}

	first, err := StripMarkerPrefix(job.StartMarker, doc.Line(start), delim)
	if err != nil {
		return Block{}, true, err
	}

	b := Block{
		Lines: []string{first},
		Start: start,
		End:   doc.Len(),
	}
	for i := start + 1; i < doc.Len(); i++ {
		line := doc.Line(i)
		if strings.TrimSpace(line) == job.EndDelimiter {
			b.End = i
			b.Terminated = true
			break
		}
		b.Lines = append(b.Lines, line)
	}
	return b, true, nil
}

func quoteDelim(delim string) string {
	if delim == "`" {
		return "back-tick"
	}
	return "\"" + delim + "\""
}
