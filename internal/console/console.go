// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package console renders reload feedback for the operator terminal.
package console

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/gogpu/shaderplay/shader"
)

// DefaultFlashDuration is how long the success flash stays lit.
const DefaultFlashDuration = 50 * time.Millisecond

// Flasher briefly lights a green status line on every successful compile.
// It is safe for concurrent use.
type Flasher struct {
	mu       sync.Mutex
	w        io.Writer
	duration time.Duration
	lit      *color.Color
	plain    *color.Color
	pending  sync.WaitGroup
}

// NewFlasher creates a Flasher that writes to w. A nil w means stderr.
func NewFlasher(w io.Writer) *Flasher {
	if w == nil {
		w = os.Stderr
	}
	return &Flasher{
		w:        w,
		duration: DefaultFlashDuration,
		lit:      color.New(color.BgGreen, color.FgBlack),
		plain:    color.New(color.FgGreen),
	}
}

// SetDuration changes how long the flash stays lit. Zero prints the plain
// line without flashing.
func (f *Flasher) SetDuration(d time.Duration) {
	f.mu.Lock()
	f.duration = d
	f.mu.Unlock()
}

// Success flashes "reloaded <name>" and returns without waiting for the
// flash to end.
func (f *Flasher) Success(path string) {
	msg := "reloaded " + filepath.Base(path)

	f.mu.Lock()
	d := f.duration
	if d <= 0 {
		f.plain.Fprintln(f.w, msg)
		f.mu.Unlock()
		return
	}
	f.lit.Fprint(f.w, "\r "+msg+" ")
	f.mu.Unlock()

	f.pending.Add(1)
	time.AfterFunc(d, func() {
		defer f.pending.Done()
		f.mu.Lock()
		defer f.mu.Unlock()
		fmt.Fprint(f.w, "\r\x1b[2K")
		f.plain.Fprintln(f.w, msg)
	})
}

// Wait blocks until every started flash has been reset.
func (f *Flasher) Wait() { f.pending.Wait() }

// Reporter prints compile diagnostics in red, with the offending source
// line and a caret when the position is known. It is safe for concurrent
// use.
type Reporter struct {
	mu      sync.Mutex
	w       io.Writer
	label   *color.Color
	file    *color.Color
	pointer *color.Color
}

// NewReporter creates a Reporter that writes to w. A nil w means stderr.
func NewReporter(w io.Writer) *Reporter {
	if w == nil {
		w = os.Stderr
	}
	return &Reporter{
		w:       w,
		label:   color.New(color.FgHiRed, color.Bold),
		file:    color.New(color.Bold),
		pointer: color.New(color.FgHiCyan),
	}
}

// Failure prints d.
func (r *Reporter) Failure(d *shader.Diagnostic) {
	if d == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.label.Fprint(r.w, "shader error")
	fmt.Fprint(r.w, " in ")
	r.file.Fprint(r.w, d.Name())
	if d.HasLocation() {
		fmt.Fprintf(r.w, ":%d", d.Line)
		if d.Column > 0 {
			fmt.Fprintf(r.w, ":%d", d.Column)
		}
	}
	fmt.Fprintf(r.w, " (%s)\n  %s\n", d.Stage, d.Message)
	if d.Snippet != "" {
		fmt.Fprintf(r.w, "  | %s\n", d.Snippet)
		if p := d.Pointer(); p != "" {
			fmt.Fprint(r.w, "  | ")
			r.pointer.Fprintln(r.w, p)
		}
	}
}

// Banner prints the startup help: the canonical shader directory and the
// watched extension.
func Banner(w io.Writer, shaderDir, ext string) {
	if w == nil {
		w = os.Stderr
	}
	title := color.New(color.FgHiGreen, color.Bold)
	title.Fprintln(w, "shaderplay")
	fmt.Fprintf(w, "  watching %s for *%s changes\n", shaderDir, ext)
	fmt.Fprintln(w, "  save a shader to recompile it; errors are printed here")
	fmt.Fprintln(w, "  press Ctrl+C to quit")
}

// TargetRow describes one registered reload target.
type TargetRow struct {
	Shader     string
	Label      string
	Generation uint64
}

// Targets prints the registered targets as a table, shader paths relative
// to shaderDir where possible.
func Targets(w io.Writer, shaderDir string, rows []TargetRow) error {
	if w == nil {
		w = os.Stderr
	}
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, "  no pipelines registered")
		return err
	}

	table := tablewriter.NewWriter(w)
	if err := table.Append([]string{"SHADER", "PIPELINE", "GEN"}); err != nil {
		return err
	}
	for _, r := range rows {
		name := r.Shader
		if rel, err := filepath.Rel(shaderDir, r.Shader); err == nil {
			name = rel
		}
		if err := table.Append([]string{name, r.Label, fmt.Sprint(r.Generation)}); err != nil {
			return err
		}
	}
	return table.Render()
}
