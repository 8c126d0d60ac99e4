// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package shader

import "encoding/binary"

// SPIRVMagic is the first word of every SPIR-V module.
const SPIRVMagic uint32 = 0x07230203

// Module is a validated SPIR-V binary. It carries no reference to the
// source it was compiled from and is immutable once returned.
type Module struct {
	// Code holds the SPIR-V words.
	Code []uint32

	// Bindings lists the resources the shader declares, ordered by group
	// and binding.
	Bindings []Binding
}

// Size returns the module size in bytes.
func (m *Module) Size() int { return len(m.Code) * 4 }

// Bytes returns the module as little-endian bytes.
func (m *Module) Bytes() []byte {
	out := make([]byte, m.Size())
	for i, w := range m.Code {
		binary.LittleEndian.PutUint32(out[i*4:], w)
	}
	return out
}

// wordsFromBytes converts little-endian SPIR-V bytes into words.
// Trailing bytes that do not form a full word are dropped.
func wordsFromBytes(b []byte) []uint32 {
	words := make([]uint32, len(b)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(b[i*4:])
	}
	return words
}
