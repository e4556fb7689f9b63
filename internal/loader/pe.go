// Copyright 2025 The metadump Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package loader

import (
	"bytes"
	"encoding/binary"
)

// The structures below decode the same ImageDOSHeader/ImageNtHeader/
// ImageSectionHeader fields as a full PE parser would, with
// encoding/binary field-by-field reads, but are used here only to discover
// section virtual addresses/sizes for the virtual-layout copy, not to
// build a queryable directory-aware File.

const (
	imageDOSSignature   = 0x5A4D // "MZ"
	imageNTSignature    = 0x00004550
	imageOptHdr32Magic  = 0x10b
	imageOptHdr64Magic  = 0x20b
	sectionHeaderSize   = 40
	fileHeaderSize      = 20
	dataDirectoryCount  = 16
	dataDirectoryRecLen = 8
)

type peDOSHeader struct {
	Magic                 uint16
	BytesOnLastPageOfFile uint16
	PagesInFile           uint16
	Relocations           uint16
	SizeOfHeader          uint16
	_                     [8]uint16 // Min/MaxExtraParagraphs, SS, SP, Checksum, IP, CS
	AddressOfReloc        uint16
	OverlayNumber         uint16
	_                     [4]uint16 // reserved
	OEMIdentifier         uint16
	OEMInformation        uint16
	_                     [10]uint16 // reserved
	AddressOfNewEXEHeader uint32
}

type peFileHeader struct {
	Machine              uint16
	NumberOfSections     uint16
	TimeDateStamp        uint32
	PointerToSymbolTable uint32
	NumberOfSymbols      uint32
	SizeOfOptionalHeader uint16
	Characteristics      uint16
}

type peSectionHeader struct {
	Name                 [8]byte
	VirtualSize          uint32
	VirtualAddress       uint32
	SizeOfRawData        uint32
	PointerToRawData     uint32
	PointerToRelocations uint32
	PointerToLineNumbers uint32
	NumberOfRelocations  uint16
	NumberOfLineNumbers  uint16
	Characteristics      uint32
}

// mapPE relays a PE image's sections out into a virtual buffer so that
// buffer[section.VirtualAddress+k] matches the runtime image, per §4.1.
func mapPE(raw []byte) (*Mapping, error) {
	var dos peDOSHeader
	if err := unpack(raw, 0, &dos); err != nil {
		return nil, ErrTruncatedHeader
	}
	if dos.Magic != imageDOSSignature {
		return nil, ErrUnsupportedFormat
	}
	if dos.AddressOfNewEXEHeader < 4 || uint64(dos.AddressOfNewEXEHeader) >= uint64(len(raw)) {
		return nil, ErrTruncatedHeader
	}

	ntOffset := dos.AddressOfNewEXEHeader
	if uint64(ntOffset)+4 > uint64(len(raw)) {
		return nil, ErrTruncatedHeader
	}
	signature := binary.LittleEndian.Uint32(raw[ntOffset:])
	if signature != imageNTSignature {
		return nil, ErrUnsupportedFormat
	}

	var fh peFileHeader
	if err := unpack(raw, ntOffset+4, &fh); err != nil {
		return nil, ErrTruncatedHeader
	}

	optHeaderOffset := ntOffset + 4 + fileHeaderSize
	if uint64(optHeaderOffset)+2 > uint64(len(raw)) {
		return nil, ErrTruncatedHeader
	}
	optMagic := binary.LittleEndian.Uint16(raw[optHeaderOffset:])

	var imageBase uint64
	switch optMagic {
	case imageOptHdr32Magic:
		if uint64(optHeaderOffset)+28+4 > uint64(len(raw)) {
			return nil, ErrTruncatedHeader
		}
		imageBase = uint64(binary.LittleEndian.Uint32(raw[optHeaderOffset+28:]))
	case imageOptHdr64Magic:
		if uint64(optHeaderOffset)+24+8 > uint64(len(raw)) {
			return nil, ErrTruncatedHeader
		}
		imageBase = binary.LittleEndian.Uint64(raw[optHeaderOffset+24:])
	default:
		return nil, ErrUnsupportedFormat
	}

	sectionOffset := optHeaderOffset + uint32(fh.SizeOfOptionalHeader)

	type secSpan struct {
		vaddr, vsize, rawOff, rawSize uint32
	}
	spans := make([]secSpan, 0, fh.NumberOfSections)
	maxEnd := uint64(sectionOffset) + uint64(fh.NumberOfSections)*sectionHeaderSize

	var sh peSectionHeader
	for i := uint16(0); i < fh.NumberOfSections; i++ {
		off := sectionOffset + uint32(i)*sectionHeaderSize
		if err := unpack(raw, off, &sh); err != nil {
			return nil, ErrSectionOverflow
		}
		spans = append(spans, secSpan{
			vaddr:   sh.VirtualAddress,
			vsize:   sh.VirtualSize,
			rawOff:  sh.PointerToRawData,
			rawSize: sh.SizeOfRawData,
		})
		end := uint64(sh.VirtualAddress) + uint64(sh.VirtualSize)
		if end > maxEnd {
			maxEnd = end
		}
	}

	// Headers themselves are addressable at their file offset too (loader
	// convention: the first section's preferred load is usually above the
	// headers, but some tools reference header data via a 0-based RVA).
	if uint64(sectionOffset) > maxEnd {
		maxEnd = uint64(sectionOffset)
	}

	buf := make([]byte, maxEnd)
	copy(buf, raw[:min64(uint64(len(raw)), uint64(sectionOffset))])

	for _, s := range spans {
		n := uint64(s.rawSize)
		if uint64(s.vsize) < n {
			n = uint64(s.vsize)
		}
		if n == 0 {
			continue
		}
		srcEnd := uint64(s.rawOff) + n
		if srcEnd > uint64(len(raw)) {
			if uint64(s.rawOff) >= uint64(len(raw)) {
				continue
			}
			srcEnd = uint64(len(raw))
			n = srcEnd - uint64(s.rawOff)
		}
		dstEnd := uint64(s.vaddr) + n
		if dstEnd > uint64(len(buf)) {
			continue
		}
		copy(buf[s.vaddr:dstEnd], raw[s.rawOff:srcEnd])
	}

	return &Mapping{data: buf, format: FormatPE, imageBase: imageBase}, nil
}

func unpack(data []byte, offset uint32, out interface{}) error {
	size := binary.Size(out)
	if size < 0 {
		return ErrTruncatedHeader
	}
	end := uint64(offset) + uint64(size)
	if end > uint64(len(data)) {
		return ErrTruncatedHeader
	}
	r := bytes.NewReader(data[offset:uint32(end)])
	return binary.Read(r, binary.LittleEndian, out)
}

func min64(a, b uint64) uint64 {
	if a < b {
		return a
	}
	return b
}
