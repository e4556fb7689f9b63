// Copyright 2025 The metadump Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

// Package meta implements the typed, bounds-checked reader over the in-image
// object graph: RiotVector, Class, Property, TypeTag, Container descriptor
// and default-value decoding.
package meta

import (
	"encoding/binary"
	"errors"
	"math"

	"github.com/leaguetoolkit/metadump/internal/loader"
	"github.com/leaguetoolkit/metadump/internal/log"
)

// ErrInvalidRef is returned whenever a pointer read from the image would
// dereference outside the mapping. Callers annotate the owning entity with
// a decode_error instead of propagating this upward, except at the
// classes-root level where it is structural.
var ErrInvalidRef = errors.New("meta: invalid in-image reference")

// ErrUnknownType is returned for a TypeTag the core does not recognise.
var ErrUnknownType = errors.New("meta: unknown type tag")

// ErrUnknownContainer is returned when a container's vtable offset has not
// been seen before and cannot be classified.
var ErrUnknownContainer = errors.New("meta: unknown container shape")

// maxContainerDepth bounds List/Map/Option recursion against cyclic or
// adversarially deep default-value graphs.
const maxContainerDepth = 32

// Reader is a bounds-checked, lazily-dereferencing view over a mapped image.
// It also owns the per-image container-shape registry discovered at first
// sighting.
type Reader struct {
	data      []byte
	imageBase uint64
	shapes    *shapeRegistry
	logger    *log.Helper
}

// NewReader wraps a mapping for graph traversal.
func NewReader(m *loader.Mapping, logger *log.Helper) *Reader {
	if logger == nil {
		logger = log.NewNopHelper()
	}
	return &Reader{
		data:      m.Data(),
		imageBase: m.ImageBase(),
		shapes:    newShapeRegistry(),
		logger:    logger,
	}
}

// Len returns the size of the underlying mapping.
func (r *Reader) Len() uint64 { return uint64(len(r.data)) }

// InBounds reports whether [addr, addr+size) lies entirely within the image.
func (r *Reader) InBounds(addr, size uint64) bool {
	if size == 0 {
		return addr <= uint64(len(r.data))
	}
	end := addr + size
	if end < addr {
		return false
	}
	return addr < uint64(len(r.data)) && end <= uint64(len(r.data))
}

func (r *Reader) validate(addr, size uint64) error {
	if !r.InBounds(addr, size) {
		return ErrInvalidRef
	}
	return nil
}

// Uint8 reads a byte at addr.
func (r *Reader) Uint8(addr uint64) (uint8, error) {
	if err := r.validate(addr, 1); err != nil {
		return 0, err
	}
	return r.data[addr], nil
}

// Uint16 reads a little-endian uint16 at addr.
func (r *Reader) Uint16(addr uint64) (uint16, error) {
	if err := r.validate(addr, 2); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(r.data[addr:]), nil
}

// Uint32 reads a little-endian uint32 at addr.
func (r *Reader) Uint32(addr uint64) (uint32, error) {
	if err := r.validate(addr, 4); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(r.data[addr:]), nil
}

// Uint64 reads a little-endian uint64 at addr.
func (r *Reader) Uint64(addr uint64) (uint64, error) {
	if err := r.validate(addr, 8); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(r.data[addr:]), nil
}

// Float32 reads a little-endian IEEE-754 single at addr.
func (r *Reader) Float32(addr uint64) (float32, error) {
	bits, err := r.Uint32(addr)
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(bits), nil
}

// Float64 reads a little-endian IEEE-754 double at addr.
func (r *Reader) Float64(addr uint64) (float64, error) {
	bits, err := r.Uint64(addr)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(bits), nil
}

// Ptr reads a native 8-byte pointer field at addr and rebases it from an
// absolute virtual address to an offset into the mapping. Every pointer
// baked into the object graph's data (vector begin/end, name pointers,
// container/default-value pointers, ...) is compiled against the image's
// preferred load address, unlike the RIP-relative displacement used to
// locate the classes root, which is already mapping-relative and must not
// go through Ptr.
func (r *Reader) Ptr(addr uint64) (uint64, error) {
	raw, err := r.Uint64(addr)
	if err != nil {
		return 0, err
	}
	if raw == 0 {
		return 0, nil
	}
	if raw < r.imageBase {
		return 0, ErrInvalidRef
	}
	return raw - r.imageBase, nil
}

// ClassifyContainer resolves c's list/map/option shape through this
// Reader's per-image shapeRegistry.
func (r *Reader) ClassifyContainer(c Container) (string, error) {
	return r.shapes.Classify(c)
}

// Bytes returns a read-only slice of the image in [addr, addr+size).
func (r *Reader) Bytes(addr, size uint64) ([]byte, error) {
	if err := r.validate(addr, size); err != nil {
		return nil, err
	}
	return r.data[addr : addr+size], nil
}

// CString reads a nul-terminated UTF-8 string starting at addr. Every string
// pointer must have a nul terminator inside the mapping.
func (r *Reader) CString(addr uint64) (string, error) {
	if addr == 0 {
		return "", nil
	}
	if !r.InBounds(addr, 0) {
		return "", ErrInvalidRef
	}
	end := addr
	for end < uint64(len(r.data)) && r.data[end] != 0 {
		end++
	}
	if end >= uint64(len(r.data)) {
		return "", ErrInvalidRef
	}
	return string(r.data[addr:end]), nil
}
