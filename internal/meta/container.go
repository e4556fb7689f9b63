// Copyright 2025 The metadump Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package meta

// containerSize is the size in bytes of a Container descriptor: a
// vtable-like pointer followed by the fixed/element/key layout fields.
const containerSize = 32

// Container is the decoded view of a list, map, or option descriptor. Shape
// is resolved separately, via the per-image shapeRegistry dispatch keyed by
// VTableOffset.
type Container struct {
	VTableOffset    uint64
	FixedSize       uint32
	ElementType     TypeTag
	ElementClassRef uint32
	KeyType         TypeTag
	KeyClassRef     uint32
}

// ReadContainer decodes a Container descriptor at addr. The vtable field is
// read with Ptr so it is already rebased to a mapping offset before being
// used as the shape-registry key.
func ReadContainer(r *Reader, addr uint64) (Container, error) {
	if err := r.validate(addr, containerSize); err != nil {
		return Container{}, err
	}
	vtableOff, err := r.Ptr(addr)
	if err != nil {
		return Container{}, err
	}
	fixedSize, err := r.Uint32(addr + 8)
	if err != nil {
		return Container{}, err
	}
	elemType, err := r.Uint16(addr + 12)
	if err != nil {
		return Container{}, err
	}
	elemClassRef, err := r.Uint32(addr + 16)
	if err != nil {
		return Container{}, err
	}
	keyType, err := r.Uint16(addr + 20)
	if err != nil {
		return Container{}, err
	}
	keyClassRef, err := r.Uint32(addr + 24)
	if err != nil {
		return Container{}, err
	}
	return Container{
		VTableOffset:    vtableOff,
		FixedSize:       fixedSize,
		ElementType:     TypeTag(elemType),
		ElementClassRef: elemClassRef,
		KeyType:         TypeTag(keyType),
		KeyClassRef:     keyClassRef,
	}, nil
}

// structuralShape guesses a container's shape from its own trailing layout,
// used only the first time a given vtable offset is sighted: a non-zero
// fixed_size marks a list (fixed-capacity inline array), a known non-zero
// key_type marks a map, and anything else with a known element_type falls
// to option. An unrecognised layout returns "".
func (c Container) structuralShape() string {
	switch {
	case c.FixedSize > 0:
		return "list"
	case c.KeyClassRef != 0 || (c.KeyType != TypeBool && c.KeyType.Known()):
		return "map"
	case c.ElementType.Known():
		return "option"
	default:
		return ""
	}
}

// shapeRegistry records, per image, the list/map/option shape first
// observed at a given container vtable offset. Once a shape is recorded for
// an offset it is never revised; later descriptors sharing that vtable
// reuse the recorded shape even if their own trailing fields look
// ambiguous — a small table populated on first sighting.
type shapeRegistry struct {
	byOffset map[uint64]string
}

func newShapeRegistry() *shapeRegistry {
	return &shapeRegistry{byOffset: make(map[uint64]string)}
}

// Classify returns the shape name ("list", "map", "option") for c's vtable
// offset, recording a first sighting via structuralShape when the offset is
// new. Returns "unknown" (and ErrUnknownContainer) when neither a prior
// sighting nor the structural guess can resolve it.
func (s *shapeRegistry) Classify(c Container) (string, error) {
	if shape, ok := s.byOffset[c.VTableOffset]; ok {
		return shape, nil
	}
	shape := c.structuralShape()
	if shape == "" {
		return "unknown", ErrUnknownContainer
	}
	s.byOffset[c.VTableOffset] = shape
	return shape, nil
}
