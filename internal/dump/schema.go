// Copyright 2025 The metadump Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

// Package dump walks the decoded class graph and renders it into the
// documented JSON schema.
package dump

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/leaguetoolkit/metadump/internal/meta"
)

// Document is the top-level JSON object produced by WalkClasses.
type Document struct {
	Version string        `json:"version"`
	Classes []ClassRecord `json:"classes"`
}

// ClassRecord is one entry of Document.Classes.
type ClassRecord struct {
	Hash       uint32           `json:"hash"`
	Name       string           `json:"name"`
	Size       uint32           `json:"size"`
	Align      uint32           `json:"align"`
	Bases      []uint32         `json:"bases"`
	Properties []PropertyRecord `json:"properties"`
}

// PropertyRecord is one entry of ClassRecord.Properties. It implements
// json.Marshaler directly rather than relying on struct tags, because the
// "default"/"nonfinite"/"decode_error" fields are each conditionally
// present in ways plain `omitempty` cannot express (an absent default omits
// the field entirely, a non-finite default emits an explicit JSON null
// alongside a sibling field).
type PropertyRecord struct {
	Hash           uint32
	Name           string
	Offset         uint32
	Type           TypeNode
	Bitmask        *uint8
	HasDefault     bool
	Default        *ValueNode
	Nonfinite      string // "nan" | "inf" | "-inf"; "" when Default is finite or absent
	DecodeError    string
}

// MarshalJSON renders the property in field order: hash, name, offset,
// type, bitmask (if set), default (if any), nonfinite (if set),
// decode_error (if set).
func (p PropertyRecord) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	writeField(&buf, "hash", p.Hash, true)
	writeField(&buf, "name", p.Name, false)
	writeField(&buf, "offset", p.Offset, false)

	buf.WriteString(`,"type":`)
	typeBytes, err := json.Marshal(p.Type)
	if err != nil {
		return nil, err
	}
	buf.Write(typeBytes)

	if p.Bitmask != nil {
		buf.WriteString(fmt.Sprintf(`,"bitmask":%d`, *p.Bitmask))
	}
	if p.HasDefault {
		if p.Nonfinite != "" {
			buf.WriteString(`,"default":null`)
			buf.WriteString(fmt.Sprintf(`,"nonfinite":%q`, p.Nonfinite))
		} else if p.Default != nil {
			buf.WriteString(`,"default":`)
			valBytes, err := json.Marshal(p.Default)
			if err != nil {
				return nil, err
			}
			buf.Write(valBytes)
		}
	}
	if p.DecodeError != "" {
		buf.WriteString(fmt.Sprintf(`,"decode_error":%q`, p.DecodeError))
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeField(buf *bytes.Buffer, key string, v interface{}, first bool) {
	if !first {
		buf.WriteByte(',')
	}
	buf.WriteByte('"')
	buf.WriteString(key)
	buf.WriteString(`":`)
	switch t := v.(type) {
	case uint32:
		buf.WriteString(strconv.FormatUint(uint64(t), 10))
	case string:
		b, _ := json.Marshal(t)
		buf.Write(b)
	}
}

// TypeNode is the polymorphic <type-node> shape: a bare string for a
// primitive tag, {"class": hash} for a class reference, or
// {"container": ..., "element": ..., "key": ..., "fixed_size": ...} for a
// list/map/option.
type TypeNode struct {
	Primitive string // set when this is a leaf primitive tag name
	ClassHash *uint32
	Container string // "list" | "map" | "option" | "unknown"; "" when not a container
	Element   *TypeNode
	Key       *TypeNode
	FixedSize *uint32
}

// MarshalJSON implements the three TypeNode shapes by a type switch over
// which field is populated.
func (t TypeNode) MarshalJSON() ([]byte, error) {
	switch {
	case t.ClassHash != nil:
		return json.Marshal(struct {
			Class uint32 `json:"class"`
		}{Class: *t.ClassHash})
	case t.Container != "":
		out := struct {
			Container string    `json:"container"`
			Element   *TypeNode `json:"element"`
			Key       *TypeNode `json:"key,omitempty"`
			FixedSize *uint32   `json:"fixed_size,omitempty"`
		}{Container: t.Container, Element: t.Element, Key: t.Key, FixedSize: t.FixedSize}
		return json.Marshal(out)
	default:
		return json.Marshal(t.Primitive)
	}
}

// ValueNode is the polymorphic <value-node> shape produced from a decoded
// meta.Value: numbers for scalars, a hex string for Hash, arrays for List,
// objects for Map, null for an absent Option.
type ValueNode struct {
	v meta.Value
}

// NewValueNode wraps a decoded meta.Value for serialization.
func NewValueNode(v meta.Value) *ValueNode { return &ValueNode{v: v} }

// IsNonfinite reports whether v is a float (scalar or a Vec2/Vec3/Vec4/
// Mat4/Color component) that cannot round-trip through JSON, and if so
// which sibling tag to emit for it. A single non-finite component taints
// the whole value, the same as a non-finite scalar.
func IsNonfinite(v meta.Value) (string, bool) {
	if v.Float != nil {
		return nonfiniteTag(*v.Float)
	}
	for _, f := range v.Floats {
		if tag, ok := nonfiniteTag(f); ok {
			return tag, true
		}
	}
	return "", false
}

func nonfiniteTag(f float64) (string, bool) {
	switch {
	case math.IsNaN(f):
		return "nan", true
	case math.IsInf(f, 1):
		return "inf", true
	case math.IsInf(f, -1):
		return "-inf", true
	default:
		return "", false
	}
}

// MarshalJSON renders the wrapped value per its populated field.
func (n *ValueNode) MarshalJSON() ([]byte, error) {
	v := n.v
	switch {
	case v.Bool != nil:
		return json.Marshal(*v.Bool)
	case v.Int != nil:
		return json.Marshal(*v.Int)
	case v.Uint != nil:
		return json.Marshal(*v.Uint)
	case v.Hash != nil:
		return json.Marshal(fmt.Sprintf("0x%08x", *v.Hash))
	case v.Float != nil:
		return json.Marshal(*v.Float)
	case v.Floats != nil:
		return json.Marshal(v.Floats)
	case v.Bytes != nil:
		return json.Marshal(v.Bytes)
	case v.Str != nil:
		return json.Marshal(*v.Str)
	case v.List != nil:
		items := make([]*ValueNode, len(v.List))
		for i := range v.List {
			items[i] = NewValueNode(v.List[i])
		}
		return json.Marshal(items)
	case v.Pairs != nil:
		// encoding/json sorts map[string]V keys alphabetically, which would
		// silently reorder the registry/insertion order DecodeValue
		// preserved in Pairs; render the object by hand instead.
		var buf bytes.Buffer
		buf.WriteByte('{')
		for i, pair := range v.Pairs {
			if i > 0 {
				buf.WriteByte(',')
			}
			keyBytes, err := json.Marshal(mapKeyString(pair.Key))
			if err != nil {
				return nil, err
			}
			buf.Write(keyBytes)
			buf.WriteByte(':')
			valBytes, err := json.Marshal(NewValueNode(pair.Value))
			if err != nil {
				return nil, err
			}
			buf.Write(valBytes)
		}
		buf.WriteByte('}')
		return buf.Bytes(), nil
	case v.Option != nil:
		return json.Marshal(NewValueNode(*v.Option))
	default:
		return []byte("null"), nil
	}
}

// mapKeyString renders a decoded map key as a JSON object key string, the
// way encoding/json requires non-string map keys to be stringified.
func mapKeyString(v meta.Value) string {
	switch {
	case v.Str != nil:
		return *v.Str
	case v.Hash != nil:
		return fmt.Sprintf("0x%08x", *v.Hash)
	case v.Int != nil:
		return strconv.FormatInt(*v.Int, 10)
	case v.Uint != nil:
		return strconv.FormatUint(*v.Uint, 10)
	case v.Bool != nil:
		return strconv.FormatBool(*v.Bool)
	default:
		return ""
	}
}
