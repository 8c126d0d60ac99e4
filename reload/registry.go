// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package reload

import (
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"slices"
)

var (
	// ErrNilTarget is returned when registering a nil target.
	ErrNilTarget = errors.New("reload: nil target")

	// ErrNotComparable is returned for targets whose dynamic type cannot be
	// compared (func, map or slice types). Register pointers instead.
	ErrNotComparable = errors.New("reload: target type is not comparable")

	// ErrPathConflict is returned when a target is registered under a second
	// path. A target depends on exactly one shader file.
	ErrPathConflict = errors.New("reload: target already registered under another path")
)

// Canonicalize returns the absolute, symlink-free, cleaned form of path.
// The file must exist.
func Canonicalize(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("reload: canonicalize %q: %w", path, err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", fmt.Errorf("reload: canonicalize %q: %w", path, err)
	}
	return filepath.Clean(resolved), nil
}

// Registry is a multimap from canonical shader path to the targets built
// from that file.
//
// A Registry is not safe for concurrent use; it belongs to the owning
// goroutine.
type Registry struct {
	entries map[string][]Target
	owners  map[Target]string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string][]Target),
		owners:  make(map[Target]string),
	}
}

// Register stores t under the canonical form of path and returns t as the
// caller's handle. Registering the same target twice under one path is
// allowed and makes it reload twice per event.
func (r *Registry) Register(path string, t Target) (Target, error) {
	if t == nil {
		return nil, ErrNilTarget
	}
	if !reflect.TypeOf(t).Comparable() {
		return nil, fmt.Errorf("%w: %T", ErrNotComparable, t)
	}
	key, err := Canonicalize(path)
	if err != nil {
		return nil, err
	}
	if owner, ok := r.owners[t]; ok && owner != key {
		return nil, fmt.Errorf("%w: %s", ErrPathConflict, owner)
	}
	r.entries[key] = append(r.entries[key], t)
	r.owners[t] = key
	slogger().Debug("reload: registered target", "path", key, "type", fmt.Sprintf("%T", t))
	return t, nil
}

// Register stores t in r and returns it with its concrete type preserved.
func Register[T Target](r *Registry, path string, t T) (T, error) {
	if _, err := r.Register(path, t); err != nil {
		var zero T
		return zero, err
	}
	return t, nil
}

// Lookup returns the targets registered under path. Events carry canonical
// paths; a non-canonical path is canonicalized on a miss. The returned slice
// is a copy.
func (r *Registry) Lookup(path string) []Target {
	if ts, ok := r.entries[path]; ok {
		return slices.Clone(ts)
	}
	key, err := Canonicalize(path)
	if err != nil || key == path {
		return nil
	}
	return slices.Clone(r.entries[key])
}

// Unregister removes every registration of t under path. It reports whether
// anything was removed.
func (r *Registry) Unregister(path string, t Target) bool {
	if t == nil || !reflect.TypeOf(t).Comparable() {
		return false
	}
	key, ok := r.owners[t]
	if !ok {
		return false
	}
	if key != path {
		if c, err := Canonicalize(path); err != nil || c != key {
			return false
		}
	}
	ts := slices.DeleteFunc(r.entries[key], func(x Target) bool { return x == t })
	if len(ts) == 0 {
		delete(r.entries, key)
	} else {
		r.entries[key] = ts
	}
	delete(r.owners, t)
	return true
}

// PathOf returns the canonical path t is registered under.
func (r *Registry) PathOf(t Target) (string, bool) {
	if t == nil || !reflect.TypeOf(t).Comparable() {
		return "", false
	}
	p, ok := r.owners[t]
	return p, ok
}

// Paths returns the registered canonical paths in sorted order.
func (r *Registry) Paths() []string {
	paths := make([]string, 0, len(r.entries))
	for p := range r.entries {
		paths = append(paths, p)
	}
	slices.Sort(paths)
	return paths
}

// Len returns the number of registrations.
func (r *Registry) Len() int {
	n := 0
	for _, ts := range r.entries {
		n += len(ts)
	}
	return n
}
