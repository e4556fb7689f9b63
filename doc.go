// Copyright 2025 The metadump Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

// Package metadump locates and walks the metaclass reflection registry
// embedded in a shipped League of Legends client executable (PE or
// Mach-O) and renders it as a JSON document describing every class, its
// properties, their types, and their compiled-in default values.
//
// The single public entry point is DumpClassesFromFile. Everything else —
// image loading, signature scanning, and in-image graph traversal — lives
// under internal/ and is not part of this module's API.
package metadump
