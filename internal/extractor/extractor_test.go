// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extractor

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/tmplextract/pkg/types"
)

var jobA = types.ExtractionJob{StartMarker: "A_MARKER", EndDelimiter: "END", OutputName: "a.tmpl"}

func doc(lines ...string) *Document {
	return ParseDocument("generator.go", []byte(strings.Join(lines, "")))
}

func readOutput(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestParseDocument(t *testing.T) {
	tests := []struct {
		name string
		data string
		want []string
	}{
		{name: "empty", data: "", want: nil},
		{name: "terminated lines", data: "a\nb\n", want: []string{"a\n", "b\n"}},
		{name: "unterminated last line", data: "a\nb", want: []string{"a\n", "b"}},
		{name: "crlf kept", data: "a\r\nb\r\n", want: []string{"a\r\n", "b\r\n"}},
		{name: "blank lines", data: "\n\nx\n", want: []string{"\n", "\n", "x\n"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := ParseDocument("src", []byte(tt.data))
			var got []string
			for i := 0; i < d.Len(); i++ {
				got = append(got, d.Line(i))
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("lines mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLoadDocument(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "generator.go")
	require.NoError(t, os.WriteFile(path, []byte("package generator\n"), 0o644))

	d, err := LoadDocument(path)
	require.NoError(t, err)
	assert.Equal(t, path, d.Path())
	assert.Equal(t, 1, d.Len())
	assert.Len(t, d.SHA256(), 64)
}

func TestLoadDocument_Missing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope.go")

	_, err := LoadDocument(path)
	require.Error(t, err)

	var srcErr *SourceError
	require.True(t, errors.As(err, &srcErr))
	assert.Equal(t, path, srcErr.Path)
	assert.True(t, errors.Is(err, os.ErrNotExist))
	assert.Contains(t, err.Error(), path)
}

func TestFindMarker(t *testing.T) {
	d := doc(
		"  A_MARKER here\n",
		"x A_MARKER\n",
		"A_MARKER`one\n",
		"A_MARKER`two\n",
	)
	assert.Equal(t, 2, FindMarker(d, "A_MARKER"))
	assert.Equal(t, -1, FindMarker(d, "B_MARKER"))
}

func TestStripMarkerPrefix(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		delim   string
		want    string
		wantErr bool
	}{
		{name: "text after backtick", line: "const t = `pragma solidity\n", delim: "`", want: "pragma solidity\n"},
		{name: "only newline after backtick", line: "const t = `\n", delim: "`", want: "\n"},
		{name: "splits at first occurrence", line: "x = `a`b`\n", delim: "`", want: "a`b`\n"},
		{name: "custom delimiter", line: "BEGIN|body\n", delim: "|", want: "body\n"},
		{name: "missing delimiter", line: "const t = \"nope\"\n", delim: "`", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := StripMarkerPrefix("const t =", tt.line, tt.delim)
			if tt.wantErr {
				var cfgErr *ConfigError
				require.True(t, errors.As(err, &cfgErr))
				assert.Equal(t, "const t =", cfgErr.Marker)
				assert.Equal(t, strings.TrimRight(tt.line, "\n"), cfgErr.Line)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCapture(t *testing.T) {
	tests := []struct {
		name           string
		doc            *Document
		wantFound      bool
		wantContent    string
		wantTerminated bool
	}{
		{
			name:           "exact capture excludes terminator and trailer",
			doc:            doc("A_MARKER`first\n", "middle1\n", "middle2\n", "END\n", "trailer\n"),
			wantFound:      true,
			wantContent:    "first\nmiddle1\nmiddle2\n",
			wantTerminated: true,
		},
		{
			name:      "missing marker",
			doc:       doc("nothing\n", "END\n"),
			wantFound: false,
		},
		{
			name:      "marker not at column zero",
			doc:       doc("  A_MARKER here`x\n", "END\n"),
			wantFound: false,
		},
		{
			name:           "terminator with surrounding whitespace",
			doc:            doc("A_MARKER`first\n", "body\n", "   END  \n", "after\n"),
			wantFound:      true,
			wantContent:    "first\nbody\n",
			wantTerminated: true,
		},
		{
			name:           "terminator only counts after the marker line",
			doc:            doc("END\n", "A_MARKER`first\n", "body\n", "END\n"),
			wantFound:      true,
			wantContent:    "first\nbody\n",
			wantTerminated: true,
		},
		{
			name:           "unterminated block runs to end of document",
			doc:            doc("A_MARKER`first\n", "body\n", "last"),
			wantFound:      true,
			wantContent:    "first\nbody\nlast",
			wantTerminated: false,
		},
		{
			name:           "indented lines are verbatim",
			doc:            doc("A_MARKER`\n", "\tindented  \n", "  END_NOT\n", "END\n"),
			wantFound:      true,
			wantContent:    "\n\tindented  \n  END_NOT\n",
			wantTerminated: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, found, err := Capture(tt.doc, jobA, "`")
			require.NoError(t, err)
			assert.Equal(t, tt.wantFound, found)
			if !found {
				return
			}
			if diff := cmp.Diff(tt.wantContent, string(b.Bytes())); diff != "" {
				t.Errorf("content mismatch (-want +got):\n%s", diff)
			}
			assert.Equal(t, tt.wantTerminated, b.Terminated)
		})
	}
}

func TestCapture_MalformedMarkerLine(t *testing.T) {
	d := doc("A_MARKER no delimiter\n", "body\n", "END\n")

	_, found, err := Capture(d, jobA, "`")
	assert.True(t, found)

	var cfgErr *ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "A_MARKER", cfgErr.Marker)
	assert.Equal(t, "A_MARKER no delimiter", cfgErr.Line)
}

func TestExtract_WritesBlock(t *testing.T) {
	outDir := t.TempDir()
	e := New(Options{OutputDir: outDir}, nil)
	d := doc("A_MARKER`first\n", "middle1\n", "middle2\n", "END\n", "trailer\n")

	res := e.Extract(d, jobA)
	require.NoError(t, res.Err)
	assert.Equal(t, types.JobWritten, res.Status)
	assert.Equal(t, filepath.Join(outDir, "a.tmpl"), res.Path)
	assert.Equal(t, len("first\nmiddle1\nmiddle2\n"), res.Bytes)
	assert.Equal(t, "first\nmiddle1\nmiddle2\n", readOutput(t, res.Path))
}

func TestExtract_MissingMarkerWritesNothing(t *testing.T) {
	outDir := t.TempDir()
	e := New(Options{OutputDir: outDir}, nil)

	res := e.Extract(doc("no markers here\n"), jobA)
	assert.NoError(t, res.Err)
	assert.Equal(t, types.JobSkipped, res.Status)

	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestExtract_Overwrites(t *testing.T) {
	outDir := t.TempDir()
	path := filepath.Join(outDir, "a.tmpl")
	require.NoError(t, os.WriteFile(path, []byte("old content that is longer\n"), 0o644))

	e := New(Options{OutputDir: outDir}, nil)
	res := e.Extract(doc("A_MARKER`new\n", "END\n"), jobA)
	require.NoError(t, res.Err)
	assert.Equal(t, types.JobWritten, res.Status)
	assert.Equal(t, "new\n", readOutput(t, path))
}

func TestExtract_Idempotent(t *testing.T) {
	outDir := t.TempDir()
	e := New(Options{OutputDir: outDir}, nil)
	d := doc("A_MARKER`first\n", "body\r\n", "END\n")

	first := e.Extract(d, jobA)
	require.NoError(t, first.Err)
	firstBytes := readOutput(t, first.Path)

	second := e.Extract(d, jobA)
	require.NoError(t, second.Err)
	assert.Equal(t, types.JobWritten, first.Status)
	assert.Equal(t, types.JobUnchanged, second.Status)
	assert.Equal(t, first.SHA256, second.SHA256)
	assert.Equal(t, firstBytes, readOutput(t, second.Path))
}

func TestExtract_MissingOutputDir(t *testing.T) {
	outDir := filepath.Join(t.TempDir(), "templates")
	d := doc("A_MARKER`x\n", "END\n")

	res := New(Options{OutputDir: outDir}, nil).Extract(d, jobA)
	assert.Equal(t, types.JobFailed, res.Status)

	var outErr *OutputError
	require.True(t, errors.As(res.Err, &outErr))
	assert.Equal(t, "write", outErr.Op)
	assert.Equal(t, filepath.Join(outDir, "a.tmpl"), outErr.Path)
	assert.Equal(t, "A_MARKER", outErr.Marker)

	res = New(Options{OutputDir: outDir, CreateDirs: true}, nil).Extract(d, jobA)
	require.NoError(t, res.Err)
	assert.Equal(t, "x\n", readOutput(t, filepath.Join(outDir, "a.tmpl")))
}

func TestExtract_CheckMode(t *testing.T) {
	outDir := t.TempDir()
	path := filepath.Join(outDir, "a.tmpl")
	d := doc("A_MARKER`x\n", "END\n")
	e := New(Options{OutputDir: outDir, Check: true}, nil)

	res := e.Extract(d, jobA)
	assert.Equal(t, types.JobStale, res.Status, "missing output is stale")
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "check mode must not write")

	require.NoError(t, os.WriteFile(path, []byte("y\n"), 0o644))
	assert.Equal(t, types.JobStale, e.Extract(d, jobA).Status)

	require.NoError(t, os.WriteFile(path, []byte("x\n"), 0o644))
	assert.Equal(t, types.JobUnchanged, e.Extract(d, jobA).Status)
}

func TestExtract_CustomDelimiter(t *testing.T) {
	outDir := t.TempDir()
	e := New(Options{OutputDir: outDir, MarkerDelimiter: "|"}, nil)

	res := e.Extract(doc("A_MARKER|body\n", "END\n"), jobA)
	require.NoError(t, res.Err)
	assert.Equal(t, "body\n", readOutput(t, res.Path))
}

func TestRun_IndependentJobs(t *testing.T) {
	outDir := t.TempDir()
	d := doc(
		"package generator\n",
		"\n",
		"const contractTemplate = `// SPDX\n",
		"contract {{.Name}} {}\n",
		"`\n",
		"\n",
		"const deployTemplate = `const hre = require(\"hardhat\");\n",
		"main();\n",
		"`\n",
		"\n",
		"const testTemplate = `describe(\"{{.Name}}\", () => {\n",
		"});\n",
		"  `  \n",
	)
	jobs := []types.ExtractionJob{
		{StartMarker: "const contractTemplate =", EndDelimiter: "`", OutputName: "contract.sol.tmpl"},
		{StartMarker: "const deployTemplate =", EndDelimiter: "`", OutputName: "deploy.js.tmpl"},
		{StartMarker: "const testTemplate =", EndDelimiter: "`", OutputName: "test.js.tmpl"},
	}

	var log bytes.Buffer
	result := New(Options{OutputDir: outDir}, nil).Run(d, jobs, &log)
	require.NoError(t, result.Err())
	assert.Equal(t, 3, result.Written)
	assert.Equal(t, 3, result.Total())

	want := map[string]string{
		"contract.sol.tmpl": "// SPDX\ncontract {{.Name}} {}\n",
		"deploy.js.tmpl":    "const hre = require(\"hardhat\");\nmain();\n",
		"test.js.tmpl":      "describe(\"{{.Name}}\", () => {\n});\n",
	}
	for name, content := range want {
		assert.Equal(t, content, readOutput(t, filepath.Join(outDir, name)), name)
	}
	assert.Contains(t, log.String(), "3 written, 0 unchanged, 0 skipped, 0 failed (total: 3)")
}

func TestRun_ContinuesAfterFailure(t *testing.T) {
	outDir := t.TempDir()
	d := doc("BAD no delimiter\n", "END\n", "GOOD`ok\n", "END\n")
	jobs := []types.ExtractionJob{
		{StartMarker: "BAD", EndDelimiter: "END", OutputName: "bad.tmpl"},
		{StartMarker: "MISSING", EndDelimiter: "END", OutputName: "missing.tmpl"},
		{StartMarker: "GOOD", EndDelimiter: "END", OutputName: "good.tmpl"},
	}

	var log bytes.Buffer
	result := New(Options{OutputDir: outDir}, nil).Run(d, jobs, &log)

	assert.True(t, result.HasFailures())
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 1, result.Written)
	assert.Equal(t, "ok\n", readOutput(t, filepath.Join(outDir, "good.tmpl")))

	err := result.Err()
	var cfgErr *ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "BAD", cfgErr.Marker)

	out := log.String()
	assert.Contains(t, out, "failed:")
	assert.Contains(t, out, "skipped:")
	assert.Contains(t, out, "written:")
}

func TestRun_SkippedOnlyIsSuccess(t *testing.T) {
	result := New(Options{OutputDir: t.TempDir()}, nil).Run(doc("nothing\n"), []types.ExtractionJob{jobA}, &bytes.Buffer{})
	assert.NoError(t, result.Err())
	assert.Equal(t, 1, result.Skipped)
}

func TestRun_CheckReportsStale(t *testing.T) {
	outDir := t.TempDir()
	d := doc("A_MARKER`x\n", "END\n")

	var log bytes.Buffer
	result := New(Options{OutputDir: outDir, Check: true}, nil).Run(d, []types.ExtractionJob{jobA}, &log)
	assert.Equal(t, 1, result.Stale)
	assert.True(t, errors.Is(result.Err(), ErrStale))
	assert.Contains(t, log.String(), "Check summary: 0 up to date, 1 stale")
}
