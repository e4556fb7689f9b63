// Copyright 2025 The metadump Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package metadump

import (
	"os"

	"github.com/leaguetoolkit/metadump/internal/dump"
	"github.com/leaguetoolkit/metadump/internal/loader"
	"github.com/leaguetoolkit/metadump/internal/log"
	"github.com/leaguetoolkit/metadump/internal/meta"
	"github.com/leaguetoolkit/metadump/internal/signature"
)

// Document is the decoded class registry, re-exported from internal/dump so
// callers can consume DumpClassesFromFile's result without importing an
// internal package.
type Document = dump.Document

// SetLogger overrides the package's stderr logger used to report pipeline
// progress (mapping, version, classes root, class walk). Passing nil
// restores the default.
func SetLogger(h *log.Helper) {
	logger = h
	if logger == nil {
		logger = log.NewDefault()
	}
	loader.SetLogger(logger)
}

var logger = log.NewDefault()

// DumpClassesFromFile maps path, locates the metaclass registry root, walks
// it, and returns the decoded document. This is the module's only public
// entry point.
//
// Structural failures fail the whole dump: an unreadable or unsupported
// image (the loader's errors), a missing classes-root signature
// (ErrClassesRootNotFound), or an unreadable registry root vector. Below
// that level, a class that cannot be read is skipped, and a property's
// type or default-value decode failure is annotated in-band on that
// property.
func DumpClassesFromFile(path string) (*Document, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}

	logger.Infof("mapping image %s", path)
	mapping, err := loader.MapImage(path)
	if err != nil {
		return nil, err
	}

	logger.Infof("resolving version string")
	version := signature.FindVersion(mapping.Data())
	if version == "" {
		version = "unknown"
		logger.Debugf("version signatures missed, reporting %q", version)
	}

	logger.Infof("locating classes root")
	classesRoot, err := signature.FindClassesRoot(mapping.Data())
	if err != nil {
		return nil, ErrClassesRootNotFound
	}

	reader := meta.NewReader(mapping, logger)

	logger.Infof("walking class registry at %#x", classesRoot)
	doc, err := dump.WalkClasses(reader, classesRoot, version, logger)
	if err != nil {
		return nil, err
	}

	logger.Infof("walked %d classes", len(doc.Classes))
	return doc, nil
}
