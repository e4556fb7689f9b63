// Copyright 2025 The metadump Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package dump

import (
	"errors"

	"github.com/leaguetoolkit/metadump/internal/log"
	"github.com/leaguetoolkit/metadump/internal/meta"
)

// maxClassGraphDepth is not referenced by WalkClasses: classes are walked
// flat (registry order) and base classes are recorded by hash, so the walk
// does not recurse through the class graph.
const maxClassGraphDepth = 64

// WalkClasses walks the registry root vector in order and renders each
// reachable Class into a ClassRecord without aborting the walk: a class
// slot or class descriptor that cannot be read is skipped (and logged), an
// unreadable property descriptor is skipped, and a property's type or
// default-value decode failure is annotated in-band as decode_error.
func WalkClasses(r *meta.Reader, classesRoot uint64, version string, logger *log.Helper) (*Document, error) {
	if logger == nil {
		logger = log.NewNopHelper()
	}

	vec, err := meta.ReadRiotVector(r, classesRoot)
	if err != nil {
		return nil, err
	}

	const classPtrSize = 8
	count := vec.Count(classPtrSize)
	classes := make([]ClassRecord, 0, count)

	for i := uint64(0); i < count; i++ {
		elemAddr := vec.ElemAddr(classPtrSize, i)
		classAddr, err := r.Ptr(elemAddr)
		if err != nil || classAddr == 0 {
			logger.Debugf("skipping class slot %d: %v", i, err)
			continue
		}
		rec, err := walkOneClass(r, classAddr, logger)
		if err != nil {
			logger.Warnf("skipping class at slot %d: %v", i, err)
			continue
		}
		classes = append(classes, rec)
	}

	return &Document{Version: version, Classes: classes}, nil
}

func walkOneClass(r *meta.Reader, classAddr uint64, logger *log.Helper) (ClassRecord, error) {
	class, err := meta.ReadClass(r, classAddr)
	if err != nil {
		return ClassRecord{}, err
	}

	props := make([]PropertyRecord, 0, len(class.PropertyPtr))
	for _, propAddr := range class.PropertyPtr {
		prop, err := meta.ReadProperty(r, propAddr)
		if err != nil {
			logger.Debugf("class %#x: skipping unreadable property at %#x: %v", class.Hash, propAddr, err)
			continue
		}
		props = append(props, renderProperty(r, prop, logger))
	}

	return ClassRecord{
		Hash:       class.Hash,
		Name:       class.Name,
		Size:       class.Size,
		Align:      class.Alignment,
		Bases:      class.BaseHashes,
		Properties: props,
	}, nil
}

func renderProperty(r *meta.Reader, prop meta.Property, logger *log.Helper) PropertyRecord {
	rec := PropertyRecord{
		Hash:   prop.Hash,
		Name:   prop.Name,
		Offset: prop.Offset,
	}
	if prop.HasBitmask {
		b := prop.Bitmask
		rec.Bitmask = &b
	}

	typeNode, container, decodeErr := buildTypeNode(r, prop)
	rec.Type = typeNode
	if decodeErr != "" {
		rec.DecodeError = decodeErr
	}

	if prop.DefaultAddr == 0 {
		return rec // boundary scenario 5: no default field, no error
	}

	value, err := meta.DecodeValue(r, prop.Type, prop.DefaultAddr, container, 0)
	if err != nil {
		if rec.DecodeError == "" {
			rec.DecodeError = classifyErr(err)
		}
		return rec
	}

	rec.HasDefault = true
	if tag, ok := IsNonfinite(value); ok {
		rec.Nonfinite = tag
	} else {
		rec.Default = NewValueNode(value)
	}
	return rec
}

// buildTypeNode renders a Property's TypeTag into the polymorphic
// <type-node> shape, resolving container shape via the Reader's
// shapeRegistry when the tag denotes a container. Returns the Container
// descriptor too (nil when not applicable) so the caller can pass it
// straight to DecodeValue without re-reading it.
func buildTypeNode(r *meta.Reader, prop meta.Property) (TypeNode, *meta.Container, string) {
	switch {
	case prop.Type.IsClassRef():
		hash := prop.OtherClassHash
		return TypeNode{ClassHash: &hash}, nil, ""

	case prop.Type.IsContainer():
		if prop.ContainerAddr == 0 {
			return TypeNode{Container: "unknown"}, nil, "UnknownContainer"
		}
		c, err := meta.ReadContainer(r, prop.ContainerAddr)
		if err != nil {
			return TypeNode{Container: "unknown"}, nil, classifyErr(err)
		}
		shape, err := r.ClassifyContainer(c)
		elemNode, _, _ := buildTypeNode(r, meta.Property{Type: c.ElementType, OtherClassHash: c.ElementClassRef})
		node := TypeNode{Container: shape, Element: &elemNode}
		if shape == "map" {
			keyNode, _, _ := buildTypeNode(r, meta.Property{Type: c.KeyType, OtherClassHash: c.KeyClassRef})
			node.Key = &keyNode
		}
		if c.FixedSize > 0 {
			fs := c.FixedSize
			node.FixedSize = &fs
		}
		if err != nil {
			return node, &c, "UnknownContainer"
		}
		return node, &c, ""

	default:
		return TypeNode{Primitive: prop.Type.String()}, nil, ""
	}
}

func classifyErr(err error) string {
	switch {
	case errors.Is(err, meta.ErrInvalidRef):
		return "InvalidRef"
	case errors.Is(err, meta.ErrUnknownContainer):
		return "UnknownContainer"
	case errors.Is(err, meta.ErrUnknownType):
		return "UnknownType"
	default:
		return "InvalidRef"
	}
}
