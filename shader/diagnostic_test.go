// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package shader

import (
	"errors"
	"testing"
)

const sampleSource = "fn main() {\n\tlet x = 1;\n\tlet y = ;\n}\n"

func TestNewDiagnosticLocatesPosition(t *testing.T) {
	tests := []struct {
		msg      string
		wantLine int
		wantCol  int
		snippet  string
	}{
		{"expected expression at 3:10", 3, 10, "\tlet y = ;"},
		{"unexpected token at line 2, column 5", 2, 5, "\tlet x = 1;"},
		{"unexpected token at line 1", 1, 0, "fn main() {"},
		{"no position here", 0, 0, ""},
		{"bogus position 99:1", 0, 0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			d := newDiagnostic("a.wgsl", StageParse, errors.New(tt.msg), sampleSource)
			if d.Line != tt.wantLine || d.Column != tt.wantCol {
				t.Errorf("position = %d:%d, want %d:%d", d.Line, d.Column, tt.wantLine, tt.wantCol)
			}
			if d.Snippet != tt.snippet {
				t.Errorf("Snippet = %q, want %q", d.Snippet, tt.snippet)
			}
		})
	}
}

func TestDiagnosticError(t *testing.T) {
	d := &Diagnostic{File: "shaders/a.wgsl", Stage: StageValidate, Message: "type mismatch", Line: 4, Column: 2}
	if got, want := d.Error(), "shaders/a.wgsl:4:2: validate: type mismatch"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	d = &Diagnostic{File: "a.wgsl", Stage: StageRead, Message: "no such file"}
	if got, want := d.Error(), "a.wgsl: read: no such file"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if d.HasLocation() {
		t.Error("HasLocation() = true for diagnostic without line")
	}
	if d.Name() != "a.wgsl" {
		t.Errorf("Name() = %q", d.Name())
	}
}

func TestDiagnosticPointer(t *testing.T) {
	d := &Diagnostic{Snippet: "\tlet y = ;", Column: 10}
	if got, want := d.Pointer(), "\t        ^"; got != want {
		t.Errorf("Pointer() = %q, want %q", got, want)
	}
	d.Column = 0
	if d.Pointer() != "" {
		t.Error("Pointer() should be empty without a column")
	}
}

func TestDiagnosticUnwrap(t *testing.T) {
	base := errors.New("boom")
	d := newDiagnostic("a.wgsl", StageGenerate, base, "")
	if !errors.Is(d, base) {
		t.Error("errors.Is should see the wrapped error")
	}
}

func TestStageString(t *testing.T) {
	for s, want := range map[Stage]string{
		StageRead:     "read",
		StageParse:    "parse",
		StageLower:    "lower",
		StageValidate: "validate",
		StageGenerate: "generate",
		Stage(42):     "unknown",
	} {
		if got := s.String(); got != want {
			t.Errorf("Stage(%d).String() = %q, want %q", s, got, want)
		}
	}
}

func TestSourceLine(t *testing.T) {
	src := "a\r\nb\nc"
	for n, want := range map[int]string{0: "", 1: "a", 2: "b", 3: "c", 4: ""} {
		if got := sourceLine(src, n); got != want {
			t.Errorf("sourceLine(%d) = %q, want %q", n, got, want)
		}
	}
}
