// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package config loads the shaderplay HCL manifest.
//
// A manifest names the shader directory, watcher settings and the
// pipelines to build at startup:
//
//	shader_dir = "shaders"
//	debounce   = "50ms"
//
//	render "present" {
//	  shader  = "present.wgsl"
//	  formats = ["bgra8unorm"]
//	}
//
//	compute "xor" {
//	  shader      = "xor.wgsl"
//	  entry       = "cs_xor"
//	  bind_groups = [["storage"]]
//	}
//
// present names the render pipeline the window backend draws each frame;
// its color target follows the window surface format.
//
// bind_groups lists, per group, the resource kind at each binding
// (uniform, storage, storage_read, texture, sampler). Without it the
// layout is derived from the shader.
//
// Expressions may read the process environment through env, for example
// shader_dir = "${env.HOME}/shaders".
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"

	"github.com/gogpu/shaderplay/shader"
)

// DefaultFile is the manifest name looked up by the CLI.
const DefaultFile = "shaderplay.hcl"

// Defaults applied to omitted attributes.
const (
	DefaultShaderDir = "shaders"
	DefaultExtension = ".wgsl"
	DefaultDebounce  = 50 * time.Millisecond
	DefaultBackend   = "noop"
	DefaultPresent   = "present"
)

// ErrInvalid is wrapped by every Validate error.
var ErrInvalid = errors.New("config: invalid manifest")

// Config is a decoded manifest.
type Config struct {
	// ShaderDir is the watched directory. A relative path is resolved
	// against the manifest's directory.
	ShaderDir string
	Extension string
	Debounce  time.Duration
	Backend   string

	// Present names the render pipeline drawn into the window.
	Present string

	Render  []Render
	Compute []Compute
}

// Render describes a render pipeline built at startup.
type Render struct {
	Name     string
	Shader   string
	Vertex   string
	Fragment string
	Formats  []gputypes.TextureFormat

	// BindGroups is the declared layout, nil to derive it from the shader.
	BindGroups [][]shader.BindingKind
}

// Compute describes a compute pipeline built at startup.
type Compute struct {
	Name   string
	Shader string
	Entry  string

	// BindGroups is the declared layout, nil to derive it from the shader.
	BindGroups [][]shader.BindingKind
}

// hclManifest mirrors the file layout for gohcl.
type hclManifest struct {
	ShaderDir string        `hcl:"shader_dir,optional"`
	Extension string        `hcl:"extension,optional"`
	Debounce  string        `hcl:"debounce,optional"`
	Backend   string        `hcl:"backend,optional"`
	Present   string        `hcl:"present,optional"`
	Render    []*hclRender  `hcl:"render,block"`
	Compute   []*hclCompute `hcl:"compute,block"`
}

type hclRender struct {
	Name     string     `hcl:"name,label"`
	Shader   string     `hcl:"shader"`
	Vertex   string     `hcl:"vertex,optional"`
	Fragment string     `hcl:"fragment,optional"`
	Formats  []string   `hcl:"formats,optional"`
	Groups   [][]string `hcl:"bind_groups,optional"`
}

type hclCompute struct {
	Name   string     `hcl:"name,label"`
	Shader string     `hcl:"shader"`
	Entry  string     `hcl:"entry,optional"`
	Groups [][]string `hcl:"bind_groups,optional"`
}

// Default returns the configuration used when no manifest exists: the
// shaders directory and no startup pipelines.
func Default() *Config {
	return &Config{
		ShaderDir: DefaultShaderDir,
		Extension: DefaultExtension,
		Debounce:  DefaultDebounce,
		Backend:   DefaultBackend,
		Present:   DefaultPresent,
	}
}

// Load reads and validates the manifest at path. A relative shader_dir is
// made relative to the manifest's directory.
func Load(path string) (*Config, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, diags)
	}
	cfg, err := decode(file.Body, path)
	if err != nil {
		return nil, err
	}
	if !filepath.IsAbs(cfg.ShaderDir) {
		cfg.ShaderDir = filepath.Join(filepath.Dir(path), cfg.ShaderDir)
	}
	return cfg, nil
}

// Parse decodes and validates manifest source. filename is used in
// diagnostics only.
func Parse(src []byte, filename string) (*Config, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", filename, diags)
	}
	return decode(file.Body, filename)
}

func decode(body hcl.Body, filename string) (*Config, error) {
	var m hclManifest
	if diags := gohcl.DecodeBody(body, evalContext(), &m); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode manifest %s: %w", filename, diags)
	}

	cfg := Default()
	if m.ShaderDir != "" {
		cfg.ShaderDir = m.ShaderDir
	}
	if m.Extension != "" {
		cfg.Extension = m.Extension
	}
	if m.Backend != "" {
		cfg.Backend = m.Backend
	}
	if m.Present != "" {
		cfg.Present = m.Present
	}
	if m.Debounce != "" {
		d, err := time.ParseDuration(m.Debounce)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: debounce: %w", ErrInvalid, filename, err)
		}
		cfg.Debounce = d
	}

	for _, r := range m.Render {
		formats, err := parseFormats(r.Formats)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: render %q: %w", ErrInvalid, filename, r.Name, err)
		}
		groups, err := parseBindGroups(r.Groups)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: render %q: %w", ErrInvalid, filename, r.Name, err)
		}
		cfg.Render = append(cfg.Render, Render{
			Name:       r.Name,
			Shader:     r.Shader,
			Vertex:     r.Vertex,
			Fragment:   r.Fragment,
			Formats:    formats,
			BindGroups: groups,
		})
	}
	for _, c := range m.Compute {
		groups, err := parseBindGroups(c.Groups)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: compute %q: %w", ErrInvalid, filename, c.Name, err)
		}
		cfg.Compute = append(cfg.Compute, Compute{Name: c.Name, Shader: c.Shader, Entry: c.Entry, BindGroups: groups})
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return cfg, nil
}

// evalContext exposes the environment as the env object.
func evalContext() *hcl.EvalContext {
	env := make(map[string]cty.Value)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok && hclsyntax.ValidIdentifier(k) {
			env[k] = cty.StringVal(v)
		}
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{"env": cty.ObjectVal(env)},
	}
}

// Validate checks the configuration for empty shader paths, duplicate
// pipeline names, a negative debounce and unknown backends.
func (c *Config) Validate() error {
	var errs []error
	if c.ShaderDir == "" {
		errs = append(errs, errors.New("shader_dir is empty"))
	}
	if !strings.HasPrefix(c.Extension, ".") || len(c.Extension) < 2 {
		errs = append(errs, fmt.Errorf("extension %q must start with a dot", c.Extension))
	}
	if c.Debounce < 0 {
		errs = append(errs, fmt.Errorf("debounce %v is negative", c.Debounce))
	}
	switch c.Backend {
	case "noop", "vulkan", "window":
	default:
		errs = append(errs, fmt.Errorf("unknown backend %q", c.Backend))
	}

	seen := make(map[string]string)
	check := func(kind, name, file string) {
		if name == "" {
			errs = append(errs, fmt.Errorf("%s block without a name", kind))
		}
		if prev, ok := seen[name]; ok {
			errs = append(errs, fmt.Errorf("%s %q: name already used by a %s block", kind, name, prev))
		}
		seen[name] = kind
		if strings.TrimSpace(file) == "" {
			errs = append(errs, fmt.Errorf("%s %q: shader is empty", kind, name))
		}
	}
	for _, r := range c.Render {
		check("render", r.Name, r.Shader)
	}
	for _, cp := range c.Compute {
		check("compute", cp.Name, cp.Shader)
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
	}
	return nil
}

// PresentRender returns the render block named by Present.
func (c *Config) PresentRender() (Render, bool) {
	for _, r := range c.Render {
		if r.Name == c.Present {
			return r, true
		}
	}
	return Render{}, false
}

// UseSurfaceFormat makes the present pipeline render to a single target of
// format. It reports whether the manifest asked for something else.
func (c *Config) UseSurfaceFormat(format gputypes.TextureFormat) bool {
	for i := range c.Render {
		r := &c.Render[i]
		if r.Name != c.Present {
			continue
		}
		if len(r.Formats) == 1 && r.Formats[0] == format {
			return false
		}
		r.Formats = []gputypes.TextureFormat{format}
		return true
	}
	return false
}

// ShaderPath resolves a shader file name from the manifest against
// ShaderDir. Absolute names are returned unchanged.
func (c *Config) ShaderPath(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.ShaderDir, name)
}

// textureFormats maps manifest format names to texture formats.
var textureFormats = map[string]gputypes.TextureFormat{
	"bgra8unorm":      gputypes.TextureFormatBGRA8Unorm,
	"bgra8unorm-srgb": gputypes.TextureFormatBGRA8UnormSrgb,
	"rgba8unorm":      gputypes.TextureFormatRGBA8Unorm,
	"rgba8unorm-srgb": gputypes.TextureFormatRGBA8UnormSrgb,
	"r8unorm":         gputypes.TextureFormatR8Unorm,
}

// ParseFormat returns the texture format for a manifest format name.
// Names are case-insensitive.
func ParseFormat(name string) (gputypes.TextureFormat, error) {
	f, ok := textureFormats[strings.ToLower(name)]
	if !ok {
		return gputypes.TextureFormatUndefined, fmt.Errorf("unknown texture format %q", name)
	}
	return f, nil
}

func parseFormats(names []string) ([]gputypes.TextureFormat, error) {
	formats := make([]gputypes.TextureFormat, 0, len(names))
	for _, n := range names {
		f, err := ParseFormat(n)
		if err != nil {
			return nil, err
		}
		formats = append(formats, f)
	}
	return formats, nil
}

func parseBindGroups(groups [][]string) ([][]shader.BindingKind, error) {
	if groups == nil {
		return nil, nil
	}
	out := make([][]shader.BindingKind, len(groups))
	for g, names := range groups {
		out[g] = make([]shader.BindingKind, len(names))
		for b, n := range names {
			k, err := shader.ParseBindingKind(strings.ToLower(n))
			if err != nil {
				return nil, fmt.Errorf("bind_groups[%d][%d]: %w", g, b, err)
			}
			out[g][b] = k
		}
	}
	return out, nil
}
