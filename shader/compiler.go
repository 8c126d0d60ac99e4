// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package shader

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/gogpu/naga"
)

// errEmptyModule is reported when code generation yields no words.
var errEmptyModule = errors.New("generated SPIR-V module is empty")

// Compiler translates WGSL sources into SPIR-V modules.
//
// A Compiler is not safe for concurrent use.
type Compiler struct {
	opts Options
}

// NewCompiler creates a compiler with DefaultOptions modified by opts.
func NewCompiler(opts ...Option) *Compiler {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	o.BoundsCheck = BoundsCheckUnchecked
	return &Compiler{opts: o}
}

// Options returns the compiler configuration.
func (c *Compiler) Options() Options { return c.opts }

// Compile reads the file at path and compiles it. The returned error, if
// any, is a *Diagnostic.
func (c *Compiler) Compile(path string) (*Module, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, &Diagnostic{
			File:    path,
			Stage:   StageRead,
			Message: err.Error(),
			Err:     err,
		}
	}
	return c.CompileSource(path, string(src))
}

// CompileSource compiles WGSL source text. name identifies the source in
// diagnostics.
func (c *Compiler) CompileSource(name, source string) (*Module, error) {
	if c.opts.cache == nil {
		return c.compile(name, source)
	}
	key := cacheKey(c.opts, source)
	if m, ok := c.opts.cache.lru.Get(key); ok {
		return m, nil
	}
	m, err := c.compile(name, source)
	if err != nil {
		return nil, err
	}
	c.opts.cache.lru.Add(key, m)
	return m, nil
}

func (c *Compiler) compile(name, source string) (*Module, error) {
	ast, err := naga.Parse(source)
	if err != nil {
		return nil, newDiagnostic(name, StageParse, err, source)
	}

	module, err := naga.Lower(ast)
	if err != nil {
		return nil, newDiagnostic(name, StageLower, err, source)
	}

	verrs, err := naga.Validate(module)
	if err != nil {
		return nil, newDiagnostic(name, StageValidate, err, source)
	}
	if len(verrs) > 0 {
		msgs := make([]string, len(verrs))
		for i := range verrs {
			msgs[i] = fmt.Sprint(verrs[i])
		}
		return nil, newDiagnostic(name, StageValidate, errors.New(strings.Join(msgs, "; ")), source)
	}

	spirvBytes, err := naga.GenerateSPIRV(module, c.opts.spirv())
	if err != nil {
		return nil, newDiagnostic(name, StageGenerate, err, source)
	}
	if len(spirvBytes) < 4 {
		return nil, newDiagnostic(name, StageGenerate, errEmptyModule, source)
	}

	return &Module{Code: wordsFromBytes(spirvBytes), Bindings: collectBindings(module)}, nil
}
