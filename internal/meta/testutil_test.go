// Copyright 2025 The metadump Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package meta

import (
	"encoding/binary"
	"testing"

	"github.com/leaguetoolkit/metadump/internal/loader"
)

// testSectionVA is the virtual address newTestMapping places its single
// section at; tests address their fixtures as testSectionVA+localOffset to
// avoid colliding with the header region the loader also copies to VA 0.
const testSectionVA = 0x1000

// newTestMapping builds a minimal well-formed PE64 image with imageBase and
// one section covering [testSectionVA, testSectionVA+len(body)), then wraps
// it in a *loader.Mapping. Tests write their object graph fixtures into
// body and address them as testSectionVA+offset.
func newTestMapping(t *testing.T, imageBase uint64, body []byte) *loader.Mapping {
	t.Helper()

	const (
		dosHeaderSize = 66
		ntOffset      = dosHeaderSize + 16
		fileHdrSize   = 20
		optHdrSize    = 48
		sectionHdrLen = 40
	)

	headerLen := ntOffset + 4 + fileHdrSize + optHdrSize + sectionHdrLen
	raw := make([]byte, headerLen+len(body))

	binary.LittleEndian.PutUint16(raw[0:], 0x5A4D) // "MZ"
	binary.LittleEndian.PutUint32(raw[62:], uint32(ntOffset))

	binary.LittleEndian.PutUint32(raw[ntOffset:], 0x00004550) // "PE\0\0"

	fh := ntOffset + 4
	binary.LittleEndian.PutUint16(raw[fh+2:], 1)           // NumberOfSections
	binary.LittleEndian.PutUint16(raw[fh+16:], optHdrSize) // SizeOfOptionalHeader

	opt := fh + fileHdrSize
	binary.LittleEndian.PutUint16(raw[opt:], 0x20b) // PE64 magic
	binary.LittleEndian.PutUint64(raw[opt+24:], imageBase)

	sectionOff := opt + optHdrSize
	rawDataOff := uint32(headerLen)
	binary.LittleEndian.PutUint32(raw[sectionOff+8:], uint32(len(body)))  // VirtualSize
	binary.LittleEndian.PutUint32(raw[sectionOff+12:], testSectionVA)     // VirtualAddress
	binary.LittleEndian.PutUint32(raw[sectionOff+16:], uint32(len(body))) // SizeOfRawData
	binary.LittleEndian.PutUint32(raw[sectionOff+20:], rawDataOff)        // PointerToRawData

	copy(raw[headerLen:], body)

	m, err := loader.MapImageBytes(raw)
	if err != nil {
		t.Fatalf("MapImageBytes() error = %v", err)
	}
	return m
}
