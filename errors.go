// Copyright 2025 The metadump Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package metadump

import "errors"

// ErrClassesRootNotFound is returned when the classes-root signature does
// not match anywhere in the image. Unlike the recoverable per-entity
// decode failures (surfaced in-band as "decode_error" in the produced
// JSON), this is structural and fatal: there is no registry to walk.
var ErrClassesRootNotFound = errors.New("metadump: classes root signature not found")
