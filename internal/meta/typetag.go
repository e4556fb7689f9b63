// Copyright 2025 The metadump Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package meta

import "fmt"

// TypeTag is an opaque numeric code burned into the target binary at
// compile time. The real numeric values are not published anywhere and
// must be recovered empirically from a target binary or companion
// metadata; the module-level values below are a placeholder ordering,
// compared only by numeric identity read from the image — see DESIGN.md
// for how to repoint these once the real values are recovered.
type TypeTag uint16

// Leaf type tags, in enumeration order.
const (
	TypeBool TypeTag = iota
	TypeI8
	TypeU8
	TypeI16
	TypeU16
	TypeI32
	TypeU32
	TypeI64
	TypeU64
	TypeF32
	TypeVec2
	TypeVec3
	TypeVec4
	TypeMat4
	TypeColor
	TypeString
	TypeHash
	TypeFile
	TypeList
	TypeMap
	TypePointer
	TypeEmbed
	TypeLink
	TypeFlag
	TypeBitmask
	TypeEnum
	TypeFlagBits
	TypeWadEntryLink
	TypeOption
	TypeRGBA
	TypePrimary
)

var typeTagNames = map[TypeTag]string{
	TypeBool: "Bool", TypeI8: "I8", TypeU8: "U8", TypeI16: "I16", TypeU16: "U16",
	TypeI32: "I32", TypeU32: "U32", TypeI64: "I64", TypeU64: "U64", TypeF32: "F32",
	TypeVec2: "Vec2", TypeVec3: "Vec3", TypeVec4: "Vec4", TypeMat4: "Mat4",
	TypeColor: "Color", TypeString: "String", TypeHash: "Hash", TypeFile: "File",
	TypeList: "List", TypeMap: "Map", TypePointer: "Pointer", TypeEmbed: "Embed",
	TypeLink: "Link", TypeFlag: "Flag", TypeBitmask: "Bitmask", TypeEnum: "Enum",
	TypeFlagBits: "FlagBits", TypeWadEntryLink: "WadEntryLink", TypeOption: "Option",
	TypeRGBA: "RGBA", TypePrimary: "Primary",
}

// String renders the tag's name, or a numeric fallback for an unrecognised
// value, still emitted faithfully rather than dropped.
func (t TypeTag) String() string {
	if name, ok := typeTagNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Unknown(%d)", uint16(t))
}

// Known reports whether t is one of the recognised leaf codes.
func (t TypeTag) Known() bool {
	_, ok := typeTagNames[t]
	return ok
}

// IsContainer reports whether t denotes one of the three container shapes
// (list, map, option) that carry a Container descriptor pointer.
func (t TypeTag) IsContainer() bool {
	return t == TypeList || t == TypeMap || t == TypeOption
}

// IsClassRef reports whether t references another class by hash
// (Pointer, Embed, Link).
func (t TypeTag) IsClassRef() bool {
	return t == TypePointer || t == TypeEmbed || t == TypeLink
}

// ContainerKindName maps a TypeTag that IsContainer() to the JSON shape name
// used in the "container" field of a <type-node>.
func (t TypeTag) ContainerKindName() string {
	switch t {
	case TypeList:
		return "list"
	case TypeMap:
		return "map"
	case TypeOption:
		return "option"
	default:
		return ""
	}
}
