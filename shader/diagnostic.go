// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package shader

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// Stage identifies the compilation step that rejected a shader.
type Stage uint8

const (
	StageRead Stage = iota
	StageParse
	StageLower
	StageValidate
	StageGenerate
)

// String returns a short lowercase stage name.
func (s Stage) String() string {
	switch s {
	case StageRead:
		return "read"
	case StageParse:
		return "parse"
	case StageLower:
		return "lower"
	case StageValidate:
		return "validate"
	case StageGenerate:
		return "generate"
	default:
		return "unknown"
	}
}

// Diagnostic is a structured compile failure. It is returned as an error
// from Compile and CompileSource; use errors.As to recover it.
type Diagnostic struct {
	// File is the path the source was read from, or the name passed to
	// CompileSource.
	File string

	// Stage is the step that failed.
	Stage Stage

	// Message is the human-readable failure text.
	Message string

	// Line and Column locate the error in the source (1-based).
	// Both are zero when the compiler did not report a position.
	Line   int
	Column int

	// Snippet is the offending source line, without trailing newline.
	Snippet string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface as "file:line:col: stage: message".
func (d *Diagnostic) Error() string {
	var b strings.Builder
	b.WriteString(d.File)
	if d.Line > 0 {
		fmt.Fprintf(&b, ":%d", d.Line)
		if d.Column > 0 {
			fmt.Fprintf(&b, ":%d", d.Column)
		}
	}
	fmt.Fprintf(&b, ": %s: %s", d.Stage, d.Message)
	return b.String()
}

// Unwrap returns the underlying error.
func (d *Diagnostic) Unwrap() error { return d.Err }

// HasLocation reports whether the diagnostic points at a source line.
func (d *Diagnostic) HasLocation() bool { return d.Line > 0 }

// Name returns the base name of the file.
func (d *Diagnostic) Name() string { return filepath.Base(d.File) }

// Pointer returns a caret line aligned under Column of Snippet, or "" when
// the column is unknown. Tabs in the snippet are preserved so the caret
// lines up in a terminal.
func (d *Diagnostic) Pointer() string {
	if d.Column <= 0 || d.Snippet == "" {
		return ""
	}
	var b strings.Builder
	for i, r := range d.Snippet {
		if i >= d.Column-1 {
			break
		}
		if r == '\t' {
			b.WriteByte('\t')
		} else {
			b.WriteByte(' ')
		}
	}
	b.WriteByte('^')
	return b.String()
}

// positionPatterns match the position formats naga uses in its messages.
var positionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`line (\d+)(?:,? col(?:umn)? (\d+))?`),
	regexp.MustCompile(`(\d+):(\d+)`),
}

// newDiagnostic builds a Diagnostic for err, locating it in source when the
// message carries a position.
func newDiagnostic(file string, stage Stage, err error, source string) *Diagnostic {
	d := &Diagnostic{
		File:    file,
		Stage:   stage,
		Message: err.Error(),
		Err:     err,
	}
	d.Line, d.Column = findPosition(d.Message)
	if d.Line > 0 {
		d.Snippet = sourceLine(source, d.Line)
		if d.Snippet == "" {
			// Position outside the source; it was not a real location.
			d.Line, d.Column = 0, 0
		}
	}
	return d
}

func findPosition(msg string) (line, col int) {
	for _, re := range positionPatterns {
		m := re.FindStringSubmatch(msg)
		if m == nil {
			continue
		}
		line, _ = strconv.Atoi(m[1])
		if len(m) > 2 && m[2] != "" {
			col, _ = strconv.Atoi(m[2])
		}
		return line, col
	}
	return 0, 0
}

// sourceLine returns the 1-based line n of src without its newline.
func sourceLine(src string, n int) string {
	if n <= 0 {
		return ""
	}
	for i := 1; ; i++ {
		idx := strings.IndexByte(src, '\n')
		if i == n {
			if idx < 0 {
				return strings.TrimRight(src, "\r")
			}
			return strings.TrimRight(src[:idx], "\r")
		}
		if idx < 0 {
			return ""
		}
		src = src[idx+1:]
	}
}
