// Copyright 2025 The metadump Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

// Package loader memory-maps a PE or Mach-O executable image into a flat,
// read-only virtual buffer whose layout mirrors the image a normal OS loader
// would produce: section/segment virtual addresses resolve by simple offset
// from the mapping base, rather than by file offset.
package loader

import (
	"encoding/binary"
	"errors"
	"os"

	mmap "github.com/edsrzf/mmap-go"

	"github.com/leaguetoolkit/metadump/internal/log"
)

// Format identifies the binary container the image was loaded from.
type Format int

// Recognised container formats.
const (
	FormatUnknown Format = iota
	FormatPE
	FormatMachO
)

func (f Format) String() string {
	switch f {
	case FormatPE:
		return "PE"
	case FormatMachO:
		return "MachO"
	default:
		return "Unknown"
	}
}

// Errors returned by MapImage, covering the observable failure kinds of the
// loading pipeline: I/O, unsupported format, truncated header, section
// overflow.
var (
	// ErrUnsupportedFormat is returned when the magic does not match a known
	// binary format, or a fat Mach-O has no x86_64 slice.
	ErrUnsupportedFormat = errors.New("loader: unsupported or unrecognized image format")

	// ErrTruncatedHeader is returned when the file is too small to contain
	// the headers its magic implies.
	ErrTruncatedHeader = errors.New("loader: truncated image header")

	// ErrSectionOverflow is returned when a PE section header lies past the
	// end of the file, or a Mach-O image has no loadable segments or its
	// x86_64 fat slice extends past the file. Section/segment data that
	// extends past the file or the virtual buffer is clamped or skipped,
	// not reported.
	ErrSectionOverflow = errors.New("loader: section or segment overflows image bounds")
)

// minHeaderSize is the smallest size any image in a supported format could
// sanely have; shorter input is rejected outright as truncated.
const minHeaderSize = 64

// Mapping is an immutable, virtually-laid-out view of an executable image.
// The byte at Data()[section.VirtualAddress+k] equals the byte the OS loader
// would place at that virtual offset once section headers are applied.
type Mapping struct {
	data      []byte
	format    Format
	imageBase uint64
}

// Data returns the backing byte slice. Callers must not mutate it.
func (m *Mapping) Data() []byte { return m.data }

// Len returns the length of the mapping in bytes.
func (m *Mapping) Len() int { return len(m.data) }

// Format reports which container format the image was parsed as.
func (m *Mapping) Format() Format { return m.format }

// ImageBase returns the preferred load address the image's compile-time
// absolute pointers (vtables, string literals, vector begin/end, ...) are
// relative to. Data()[k] corresponds to runtime virtual address
// ImageBase()+k, so absolute pointers read out of the image must have
// ImageBase subtracted before they can be used to index Data().
//
// RIP-relative references (computed from an instruction's own position) are
// already position-independent and need no such rebasing.
func (m *Mapping) ImageBase() uint64 { return m.imageBase }

// InBounds reports whether the half-open range [addr, addr+size) lies
// entirely within the mapping.
func (m *Mapping) InBounds(addr, size uint64) bool {
	if size == 0 {
		return addr <= uint64(len(m.data))
	}
	end := addr + size
	if end < addr {
		return false // overflow
	}
	return addr < uint64(len(m.data)) && end <= uint64(len(m.data))
}

// logger is shared across loader helpers; callers may override it with
// SetLogger for diagnostics, defaulting to a quiet stderr logger.
var logger = log.NewDefault()

// SetLogger overrides the package-level logger used for loader diagnostics.
func SetLogger(h *log.Helper) {
	if h != nil {
		logger = h
	}
}

// MapImage opens path read-only, memory-maps it, detects its container
// format by magic, and relays it out into a virtual buffer per §4.1.
func MapImage(path string) (*Mapping, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	raw, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return nil, err
	}
	defer raw.Unmap()

	logger.Debugf("mapped %d bytes from %s", len(raw), path)
	return MapImageBytes(raw)
}

// MapImageBytes relays an already-read image buffer the same way MapImage
// does, without touching the filesystem — the bytes-in counterpart tests
// and the fuzz harness use instead of mmap-ing a real file, mirroring the
// teacher's New/NewBytes split in file.go.
func MapImageBytes(raw []byte) (*Mapping, error) {
	if len(raw) < minHeaderSize {
		return nil, ErrTruncatedHeader
	}
	switch {
	case isPEMagic(raw):
		return mapPE(raw)
	case isMachOMagic(raw):
		return mapMachO(raw)
	default:
		return nil, ErrUnsupportedFormat
	}
}

func isPEMagic(data []byte) bool {
	return len(data) >= 2 && binary.LittleEndian.Uint16(data) == 0x5A4D // "MZ"
}

func isMachOMagic(data []byte) bool {
	if len(data) < 4 {
		return false
	}
	magic := binary.BigEndian.Uint32(data)
	switch magic {
	case 0xFEEDFACE, 0xFEEDFACF, 0xCEFAEDFE, 0xCFFAEDFE, // 32/64-bit, either endian
		0xCAFEBABE, 0xBEBAFECA: // fat binary, either endian
		return true
	default:
		return false
	}
}
