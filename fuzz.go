// Copyright 2025 The metadump Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

//go:build gofuzz

package metadump

import (
	"github.com/leaguetoolkit/metadump/internal/dump"
	"github.com/leaguetoolkit/metadump/internal/loader"
	"github.com/leaguetoolkit/metadump/internal/meta"
	"github.com/leaguetoolkit/metadump/internal/signature"
)

// Fuzz exercises the same pipeline as DumpClassesFromFile (loader ->
// signature -> meta -> dump) over raw bytes, following the standard
// go-fuzz harness convention.
func Fuzz(data []byte) int {
	mapping, err := loader.MapImageBytes(data)
	if err != nil {
		return 0
	}

	classesRoot, err := signature.FindClassesRoot(mapping.Data())
	if err != nil {
		return 0
	}

	version := signature.FindVersion(mapping.Data())
	if version == "" {
		version = "unknown"
	}

	reader := meta.NewReader(mapping, nil)
	if _, err := dump.WalkClasses(reader, classesRoot, version, nil); err != nil {
		return 0
	}
	return 1
}
