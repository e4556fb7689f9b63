// Copyright 2025 The metadump Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package meta

// propertySize is the size in bytes of a Property descriptor.
const propertySize = 48

// Property is the decoded view of a single field on a Class.
type Property struct {
	Hash           uint32
	Name           string
	Offset         uint32
	Type           TypeTag
	OtherClassHash uint32
	ContainerAddr  uint64 // 0 when Type is not a container shape
	Bitmask        uint8
	HasBitmask     bool
	DefaultAddr    uint64 // 0 when the property has no default value
}

// ReadProperty decodes the Property descriptor at addr. Pointer fields are
// resolved to mapping offsets (via Ptr) but left undereferenced: the caller
// decides whether and how to follow ContainerAddr/DefaultAddr.
func ReadProperty(r *Reader, addr uint64) (Property, error) {
	if err := r.validate(addr, propertySize); err != nil {
		return Property{}, err
	}
	hash, err := r.Uint32(addr)
	if err != nil {
		return Property{}, err
	}
	namePtr, err := r.Ptr(addr + 8)
	if err != nil {
		return Property{}, err
	}
	name, err := r.CString(namePtr)
	if err != nil {
		name = ""
	}
	offset, err := r.Uint32(addr + 16)
	if err != nil {
		return Property{}, err
	}
	typeTag, err := r.Uint16(addr + 20)
	if err != nil {
		return Property{}, err
	}
	otherClassHash, err := r.Uint32(addr + 24)
	if err != nil {
		return Property{}, err
	}
	bitmask, err := r.Uint8(addr + 28)
	if err != nil {
		return Property{}, err
	}

	prop := Property{
		Hash:           hash,
		Name:           name,
		Offset:         offset,
		Type:           TypeTag(typeTag),
		OtherClassHash: otherClassHash,
		Bitmask:        bitmask,
		HasBitmask:     bitmask != 0,
	}

	if prop.Type.IsContainer() {
		containerAddr, err := r.Ptr(addr + 32)
		if err == nil {
			prop.ContainerAddr = containerAddr
		}
	}

	defaultAddr, err := r.Ptr(addr + 40)
	if err == nil {
		prop.DefaultAddr = defaultAddr
	}

	return prop, nil
}
