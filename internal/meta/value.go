// Copyright 2025 The metadump Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package meta

import "fmt"

// Value is the decoded form of a property's default value. Exactly one of
// the fields below is populated, chosen by the TypeTag that produced it.
type Value struct {
	Bool    *bool
	Int     *int64
	Uint    *uint64
	Float   *float64
	Floats  []float64 // Vec2/Vec3/Vec4/Mat4/Color
	Bytes   []byte     // RGBA
	Str     *string    // String/File
	Hash    *uint32     // Hash, and class-ref tags (Pointer/Embed/Link/WadEntryLink)
	List    []Value
	Pairs   []MapEntry
	Option  *Value // nil means "none"
}

// MapEntry is one key/value pair of a decoded Map default value, in
// insertion order.
type MapEntry struct {
	Key   Value
	Value Value
}

// primitiveSize returns the in-image byte width of a fixed-size leaf type,
// and false for types that are not laid out as a flat, directly-sized
// value (String/File/containers/class refs).
func primitiveSize(t TypeTag) (uint64, bool) {
	switch t {
	case TypeBool, TypeI8, TypeU8:
		return 1, true
	case TypeI16, TypeU16, TypeEnum, TypeFlagBits:
		return 2, true
	case TypeI32, TypeU32, TypeF32, TypeHash, TypeFlag, TypeBitmask:
		return 4, true
	case TypeI64, TypeU64:
		return 8, true
	case TypeVec2:
		return 8, true
	case TypeVec3:
		return 12, true
	case TypeVec4, TypeColor:
		return 16, true
	case TypeMat4:
		return 64, true
	case TypeRGBA:
		return 4, true
	default:
		return 0, false
	}
}

// DecodeValue decodes the default-value bytes at addr according to t,
// recursing through container descriptors up to maxContainerDepth.
func DecodeValue(r *Reader, t TypeTag, addr uint64, container *Container, depth int) (Value, error) {
	if depth > maxContainerDepth {
		return Value{}, ErrInvalidRef
	}

	switch t {
	case TypeBool:
		b, err := r.Uint8(addr)
		if err != nil {
			return Value{}, err
		}
		v := b != 0
		return Value{Bool: &v}, nil

	case TypeI8, TypeI16, TypeI32, TypeI64:
		n, err := readSignedInt(r, t, addr)
		if err != nil {
			return Value{}, err
		}
		return Value{Int: &n}, nil

	case TypeU8, TypeU16, TypeU32, TypeU64, TypeFlag, TypeBitmask, TypeEnum, TypeFlagBits:
		n, err := readUnsignedInt(r, t, addr)
		if err != nil {
			return Value{}, err
		}
		return Value{Uint: &n}, nil

	case TypeHash, TypePointer, TypeEmbed, TypeLink, TypeWadEntryLink:
		h, err := r.Uint32(addr)
		if err != nil {
			return Value{}, err
		}
		return Value{Hash: &h}, nil

	case TypeF32:
		f, err := r.Float32(addr)
		if err != nil {
			return Value{}, err
		}
		fv := float64(f)
		return Value{Float: &fv}, nil

	case TypeVec2, TypeVec3, TypeVec4, TypeMat4, TypeColor:
		n, _ := primitiveSize(t)
		count := n / 4
		floats := make([]float64, 0, count)
		for i := uint64(0); i < count; i++ {
			f, err := r.Float32(addr + i*4)
			if err != nil {
				return Value{}, err
			}
			floats = append(floats, float64(f))
		}
		return Value{Floats: floats}, nil

	case TypeRGBA:
		b, err := r.Bytes(addr, 4)
		if err != nil {
			return Value{}, err
		}
		cp := make([]byte, 4)
		copy(cp, b)
		return Value{Bytes: cp}, nil

	case TypeString, TypeFile:
		s, err := ReadRiotString(r, addr)
		if err != nil {
			return Value{}, err
		}
		return Value{Str: &s}, nil

	case TypeList:
		return decodeList(r, container, addr, depth)

	case TypeMap:
		return decodeMap(r, container, addr, depth)

	case TypeOption:
		return decodeOption(r, container, addr, depth)

	default:
		return Value{}, fmt.Errorf("%w: %d", ErrUnknownType, t)
	}
}

func readSignedInt(r *Reader, t TypeTag, addr uint64) (int64, error) {
	switch t {
	case TypeI8:
		b, err := r.Uint8(addr)
		return int64(int8(b)), err
	case TypeI16:
		b, err := r.Uint16(addr)
		return int64(int16(b)), err
	case TypeI32:
		b, err := r.Uint32(addr)
		return int64(int32(b)), err
	default:
		b, err := r.Uint64(addr)
		return int64(b), err
	}
}

func readUnsignedInt(r *Reader, t TypeTag, addr uint64) (uint64, error) {
	switch t {
	case TypeU8:
		b, err := r.Uint8(addr)
		return uint64(b), err
	case TypeU16, TypeEnum, TypeFlagBits:
		b, err := r.Uint16(addr)
		return uint64(b), err
	case TypeU32, TypeFlag, TypeBitmask:
		b, err := r.Uint32(addr)
		return uint64(b), err
	default:
		return r.Uint64(addr)
	}
}

// decodeList reads a RiotVector of container.ElementType-sized elements
// starting at addr, recursing into each.
func decodeList(r *Reader, c *Container, addr uint64, depth int) (Value, error) {
	if c == nil {
		return Value{}, ErrUnknownContainer
	}
	elemSize, ok := primitiveSize(c.ElementType)
	if !ok {
		return Value{}, fmt.Errorf("%w: list element type %s", ErrUnknownType, c.ElementType)
	}
	vec, err := ReadRiotVector(r, addr)
	if err != nil {
		return Value{}, err
	}
	n := vec.Count(elemSize)
	items := make([]Value, 0, n)
	for i := uint64(0); i < n; i++ {
		v, err := DecodeValue(r, c.ElementType, vec.ElemAddr(elemSize, i), nil, depth+1)
		if err != nil {
			continue
		}
		items = append(items, v)
	}
	return Value{List: items}, nil
}

// decodeMap reads a RiotVector of {key, value} pairs, key_type-then-
// element_type, in insertion order.
func decodeMap(r *Reader, c *Container, addr uint64, depth int) (Value, error) {
	if c == nil {
		return Value{}, ErrUnknownContainer
	}
	keySize, kOK := primitiveSize(c.KeyType)
	valSize, vOK := primitiveSize(c.ElementType)
	if !kOK || !vOK {
		return Value{}, fmt.Errorf("%w: map key/value type", ErrUnknownType)
	}
	pairSize := keySize + valSize
	vec, err := ReadRiotVector(r, addr)
	if err != nil {
		return Value{}, err
	}
	n := vec.Count(pairSize)
	pairs := make([]MapEntry, 0, n)
	for i := uint64(0); i < n; i++ {
		pairAddr := vec.ElemAddr(pairSize, i)
		k, err := DecodeValue(r, c.KeyType, pairAddr, nil, depth+1)
		if err != nil {
			continue
		}
		v, err := DecodeValue(r, c.ElementType, pairAddr+keySize, nil, depth+1)
		if err != nil {
			continue
		}
		pairs = append(pairs, MapEntry{Key: k, Value: v})
	}
	return Value{Pairs: pairs}, nil
}

// decodeOption reads a {flag byte, inline value} pair: a present option
// carries its element inline in the next 8-byte slot after the flag
// (addr+8).
func decodeOption(r *Reader, c *Container, addr uint64, depth int) (Value, error) {
	if c == nil {
		return Value{}, ErrUnknownContainer
	}
	flag, err := r.Uint8(addr)
	if err != nil {
		return Value{}, err
	}
	if flag == 0 {
		return Value{Option: nil}, nil
	}
	elemSize, ok := primitiveSize(c.ElementType)
	if !ok {
		return Value{}, fmt.Errorf("%w: option element type %s", ErrUnknownType, c.ElementType)
	}
	valueAddr := addr + 8 // flag byte occupies its own aligned slot
	if !r.InBounds(valueAddr, elemSize) {
		return Value{}, ErrInvalidRef
	}
	v, err := DecodeValue(r, c.ElementType, valueAddr, nil, depth+1)
	if err != nil {
		return Value{}, err
	}
	return Value{Option: &v}, nil
}
