// Copyright 2025 The metadump Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package meta

// classSize is the size in bytes of a Class descriptor.
const classSize = 72

// classPtrSize is sizeof(ptr<Class>) inside the registry root and a class's
// own base_classes vector.
const classPtrSize = 8

// propertyPtrSize is sizeof(ptr<Property>); a class's properties vector
// stores property pointers rather than inline Property values.
const propertyPtrSize = 8

// Class is the decoded view of a single metaclass descriptor.
type Class struct {
	Hash        uint32
	Name        string
	Size        uint32
	Alignment   uint32
	BaseHashes  []uint32
	PropertyPtr []uint64
}

// ReadClass decodes the Class descriptor at addr, including its base-class
// hashes (resolved from base_classes' Class pointers so cycles serialize by
// hash) and the Property addresses stored in its properties vector (the
// Property descriptors themselves are left unread; the caller reads each
// Property lazily).
func ReadClass(r *Reader, addr uint64) (Class, error) {
	if err := r.validate(addr, classSize); err != nil {
		return Class{}, err
	}
	hash, err := r.Uint32(addr)
	if err != nil {
		return Class{}, err
	}
	namePtr, err := r.Ptr(addr + 8)
	if err != nil {
		return Class{}, err
	}
	name, err := r.CString(namePtr)
	if err != nil {
		name = ""
	}

	baseVec, err := ReadRiotVector(r, addr+16)
	if err != nil {
		return Class{}, err
	}
	baseHashes := make([]uint32, 0, baseVec.Count(classPtrSize))
	for i := uint64(0); i < baseVec.Count(classPtrSize); i++ {
		elemAddr := baseVec.ElemAddr(classPtrSize, i)
		classPtr, err := r.Ptr(elemAddr)
		if err != nil || classPtr == 0 {
			continue
		}
		baseHash, err := r.Uint32(classPtr)
		if err != nil {
			continue
		}
		baseHashes = append(baseHashes, baseHash)
	}

	propVec, err := ReadRiotVector(r, addr+40)
	if err != nil {
		return Class{}, err
	}
	propPtrs := make([]uint64, 0, propVec.Count(propertyPtrSize))
	for i := uint64(0); i < propVec.Count(propertyPtrSize); i++ {
		elemAddr := propVec.ElemAddr(propertyPtrSize, i)
		p, err := r.Ptr(elemAddr)
		if err != nil || p == 0 {
			continue
		}
		propPtrs = append(propPtrs, p)
	}

	size, err := r.Uint32(addr + 64)
	if err != nil {
		return Class{}, err
	}
	alignment, err := r.Uint32(addr + 68)
	if err != nil {
		return Class{}, err
	}

	return Class{
		Hash:        hash,
		Name:        name,
		Size:        size,
		Alignment:   alignment,
		BaseHashes:  baseHashes,
		PropertyPtr: propPtrs,
	}, nil
}
