// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package shader

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/gogpu/naga/spirv"
)

func TestCompileValidShaders(t *testing.T) {
	tests := []string{"triangle.wgsl", "xor.wgsl"}
	c := NewCompiler()
	for _, name := range tests {
		t.Run(name, func(t *testing.T) {
			m, err := c.Compile(filepath.Join("testdata", name))
			if err != nil {
				t.Fatalf("Compile(%s) failed: %v", name, err)
			}
			if len(m.Code) == 0 {
				t.Fatal("expected non-empty module")
			}
			if m.Code[0] != SPIRVMagic {
				t.Errorf("first word = %#08x, want SPIR-V magic %#08x", m.Code[0], SPIRVMagic)
			}
			if m.Size() != len(m.Code)*4 {
				t.Errorf("Size() = %d, want %d", m.Size(), len(m.Code)*4)
			}
		})
	}
}

func TestCompileIsDeterministic(t *testing.T) {
	c := NewCompiler()
	path := filepath.Join("testdata", "triangle.wgsl")

	first, err := c.Compile(path)
	if err != nil {
		t.Fatalf("first Compile failed: %v", err)
	}
	second, err := c.Compile(path)
	if err != nil {
		t.Fatalf("second Compile failed: %v", err)
	}
	if !slices.Equal(first.Code, second.Code) {
		t.Error("recompiling an unchanged file produced a different module")
	}
}

func TestCompileParseError(t *testing.T) {
	c := NewCompiler()
	path := filepath.Join("testdata", "broken.wgsl")

	m, err := c.Compile(path)
	if m != nil {
		t.Fatal("expected nil module for malformed source")
	}
	var diag *Diagnostic
	if !errors.As(err, &diag) {
		t.Fatalf("expected *Diagnostic, got %T: %v", err, err)
	}
	if diag.Stage == StageRead {
		t.Errorf("stage = %v, want a compile stage", diag.Stage)
	}
	if diag.File != path {
		t.Errorf("File = %q, want %q", diag.File, path)
	}
	if !strings.Contains(diag.Error(), "broken.wgsl") {
		t.Errorf("Error() = %q, want it to name the file", diag.Error())
	}
	if diag.Message == "" {
		t.Error("expected non-empty message")
	}
}

func TestCompileMissingFile(t *testing.T) {
	c := NewCompiler()
	path := filepath.Join(t.TempDir(), "gone.wgsl")

	_, err := c.Compile(path)
	var diag *Diagnostic
	if !errors.As(err, &diag) {
		t.Fatalf("expected *Diagnostic, got %T", err)
	}
	if diag.Stage != StageRead {
		t.Errorf("stage = %v, want %v", diag.Stage, StageRead)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected wrapped fs.ErrNotExist, got %v", err)
	}
}

func TestCompileRecoversAfterFailure(t *testing.T) {
	c := NewCompiler()
	dir := t.TempDir()
	path := filepath.Join(dir, "edit.wgsl")

	good, err := os.ReadFile(filepath.Join("testdata", "triangle.wgsl"))
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("fn broken( {"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Compile(path); err == nil {
		t.Fatal("expected failure for malformed source")
	}

	if err := os.WriteFile(path, good, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Compile(path); err != nil {
		t.Fatalf("compile after fixing the file failed: %v", err)
	}
}

func TestCompileSourceNamesDiagnostic(t *testing.T) {
	c := NewCompiler()
	_, err := c.CompileSource("inline.wgsl", "this is not wgsl")
	var diag *Diagnostic
	if !errors.As(err, &diag) {
		t.Fatalf("expected *Diagnostic, got %T", err)
	}
	if diag.File != "inline.wgsl" {
		t.Errorf("File = %q, want inline.wgsl", diag.File)
	}
}

func TestCompilerOptions(t *testing.T) {
	o := NewCompiler().Options()
	if !o.Debug || !o.PreserveNames {
		t.Errorf("default options should enable debug labels and names: %+v", o)
	}
	if o.BoundsCheck != BoundsCheckUnchecked {
		t.Errorf("BoundsCheck = %v, want unchecked", o.BoundsCheck)
	}

	o = NewCompiler(WithDebug(false)).Options()
	if o.Debug || o.PreserveNames {
		t.Errorf("WithDebug(false) left debug enabled: %+v", o)
	}
	if o.BoundsCheck != BoundsCheckUnchecked {
		t.Error("bounds check policy must stay unchecked")
	}
}

func TestCompilerPassesUncheckedPoliciesToNaga(t *testing.T) {
	unchecked := spirv.BoundsCheckPolicies{
		ImageLoad:  spirv.BoundsCheckUnchecked,
		ImageStore: spirv.BoundsCheckUnchecked,
		Index:      spirv.BoundsCheckUnchecked,
	}
	restrict := func(o *Options) { o.BoundsCheck = BoundsCheckRestrict }

	for _, c := range []*Compiler{NewCompiler(), NewCompiler(WithDebug(false)), NewCompiler(restrict)} {
		got := c.Options().spirv()
		if got.BoundsCheckPolicies != unchecked {
			t.Errorf("BoundsCheckPolicies = %+v, want all unchecked", got.BoundsCheckPolicies)
		}
		if got.Version != c.Options().Version {
			t.Errorf("Version = %v, want %v", got.Version, c.Options().Version)
		}
	}

	// Policies are forwarded, not dropped.
	o := DefaultOptions()
	o.BoundsCheck = BoundsCheckReadZeroSkipWrite
	if p := o.spirv().BoundsCheckPolicies; p.Index != spirv.BoundsCheckReadZeroSkipWrite || p.ImageLoad != spirv.BoundsCheckReadZeroSkipWrite {
		t.Errorf("policies = %+v, want read-zero-skip-write", p)
	}
}

func TestModuleBytes(t *testing.T) {
	m := &Module{Code: []uint32{SPIRVMagic, 0x00010300}}
	b := m.Bytes()
	want := []byte{0x03, 0x02, 0x23, 0x07, 0x00, 0x03, 0x01, 0x00}
	if !slices.Equal(b, want) {
		t.Errorf("Bytes() = %x, want %x", b, want)
	}
	if got := wordsFromBytes(b); !slices.Equal(got, m.Code) {
		t.Errorf("wordsFromBytes(Bytes()) = %x, want %x", got, m.Code)
	}
}
