// Copyright 2025 The metadump Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package loader

import (
	"bytes"
	"encoding/binary"

	macho "github.com/blacktop/go-macho"
)

// Mach-O fat-binary constants (see mach-o/fat.h). Fat-arch selection is done
// against the raw bytes directly rather than through the library, so the
// library's own parsing (github.com/blacktop/go-macho) is reserved for
// decoding the chosen x86_64 slice into segments/sections — the concern the
// example pack's Mach-O reference material (blacktop-go-macho files) shows it
// handling well.
const (
	fatMagic         = 0xCAFEBABE
	fatMagic64       = 0xCAFEBABF
	machCPUTypeX8664 = 0x01000007
	fatArchHeaderLen = 20
)

// mapMachO relays a Mach-O (or fat Mach-O) image's segments out into a
// virtual buffer so that buffer[segment.Addr+k] matches the runtime image,
// per §4.1. Fat binaries select the x86_64 slice.
func mapMachO(raw []byte) (*Mapping, error) {
	magic := binary.BigEndian.Uint32(raw)

	slice := raw
	if magic == fatMagic || magic == fatMagic64 {
		s, err := selectX8664FatSlice(raw, magic == fatMagic64)
		if err != nil {
			return nil, err
		}
		slice = s
	}

	f, err := macho.NewFile(bytes.NewReader(slice))
	if err != nil {
		return nil, ErrTruncatedHeader
	}
	defer f.Close()

	segments := f.Segments()
	if len(segments) == 0 {
		return nil, ErrSectionOverflow
	}

	// __TEXT (and every other non-__PAGEZERO segment) is linked against a
	// fixed preferred address — commonly 0x100000000 for 64-bit user
	// binaries — which would force a multi-gigabyte virtual buffer if used
	// directly as a buffer offset. Rebase so the lowest non-__PAGEZERO
	// segment address becomes offset 0, and record that address as
	// ImageBase so absolute in-image pointers can be rebased the same way.
	var base uint64 = ^uint64(0)
	for _, seg := range segments {
		if seg.Name == "__PAGEZERO" {
			continue
		}
		if seg.Addr < base {
			base = seg.Addr
		}
	}
	if base == ^uint64(0) {
		return nil, ErrSectionOverflow
	}

	var maxEnd uint64
	for _, seg := range segments {
		if seg.Name == "__PAGEZERO" {
			continue
		}
		end := (seg.Addr - base) + seg.Memsz
		if end > maxEnd {
			maxEnd = end
		}
	}
	if maxEnd == 0 {
		return nil, ErrSectionOverflow
	}

	buf := make([]byte, maxEnd)
	for _, seg := range segments {
		if seg.Name == "__PAGEZERO" || seg.Filesz == 0 {
			continue
		}
		data, err := seg.Data()
		if err != nil {
			continue
		}
		n := uint64(len(data))
		if n > seg.Memsz {
			n = seg.Memsz
		}
		dstOff := seg.Addr - base
		dstEnd := dstOff + n
		if dstEnd > uint64(len(buf)) {
			if dstOff >= uint64(len(buf)) {
				continue
			}
			n = uint64(len(buf)) - dstOff
			dstEnd = uint64(len(buf))
		}
		copy(buf[dstOff:dstEnd], data[:n])
	}

	return &Mapping{data: buf, format: FormatMachO, imageBase: base}, nil
}

// selectX8664FatSlice parses a fat (universal) Mach-O header directly and
// returns the byte range of the x86_64 architecture slice.
func selectX8664FatSlice(raw []byte, is64 bool) ([]byte, error) {
	if len(raw) < 8 {
		return nil, ErrTruncatedHeader
	}
	nArch := binary.BigEndian.Uint32(raw[4:8])
	archHeaderLen := fatArchHeaderLen
	if is64 {
		archHeaderLen = 32
	}

	off := 8
	for i := uint32(0); i < nArch; i++ {
		if off+archHeaderLen > len(raw) {
			return nil, ErrTruncatedHeader
		}
		cpuType := binary.BigEndian.Uint32(raw[off:])
		var offset, size uint64
		if is64 {
			offset = binary.BigEndian.Uint64(raw[off+16:])
			size = binary.BigEndian.Uint64(raw[off+24:])
		} else {
			offset = uint64(binary.BigEndian.Uint32(raw[off+8:]))
			size = uint64(binary.BigEndian.Uint32(raw[off+12:]))
		}
		if cpuType == machCPUTypeX8664 {
			if offset+size > uint64(len(raw)) {
				return nil, ErrSectionOverflow
			}
			return raw[offset : offset+size], nil
		}
		off += archHeaderLen
	}
	return nil, ErrUnsupportedFormat
}
