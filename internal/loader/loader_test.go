// Copyright 2025 The metadump Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package loader

import (
	"bytes"
	"encoding/binary"
	"testing"
)

// buildPE64 assembles a minimal well-formed PE64 image: DOS header, NT
// signature, file header, a 64-bit optional header with the given
// imageBase, and one section whose raw bytes are sectionData.
func buildPE64(t *testing.T, imageBase uint64, sectionVAddr, sectionVSize uint32, sectionData []byte) []byte {
	t.Helper()

	var buf bytes.Buffer

	dos := peDOSHeader{Magic: imageDOSSignature}
	dosSize := binary.Size(dos)
	ntOffset := uint32(dosSize) + 16 // arbitrary slack between dos header and NT header
	dos.AddressOfNewEXEHeader = ntOffset

	if err := binary.Write(&buf, binary.LittleEndian, dos); err != nil {
		t.Fatalf("encode dos header: %v", err)
	}
	buf.Write(make([]byte, int(ntOffset)-dosSize))

	if err := binary.Write(&buf, binary.LittleEndian, uint32(imageNTSignature)); err != nil {
		t.Fatalf("encode nt signature: %v", err)
	}

	const optHeaderLen = 24 + 8 + 16 // enough room for the 64-bit ImageBase field plus slack
	fh := peFileHeader{
		NumberOfSections:     1,
		SizeOfOptionalHeader: optHeaderLen,
	}
	if err := binary.Write(&buf, binary.LittleEndian, fh); err != nil {
		t.Fatalf("encode file header: %v", err)
	}

	optHeader := make([]byte, optHeaderLen)
	binary.LittleEndian.PutUint16(optHeader[0:], imageOptHdr64Magic)
	binary.LittleEndian.PutUint64(optHeader[24:], imageBase)
	buf.Write(optHeader)

	rawOff := uint32(buf.Len()) + sectionHeaderSize
	sh := peSectionHeader{
		VirtualSize:      sectionVSize,
		VirtualAddress:   sectionVAddr,
		SizeOfRawData:    uint32(len(sectionData)),
		PointerToRawData: rawOff,
	}
	if err := binary.Write(&buf, binary.LittleEndian, sh); err != nil {
		t.Fatalf("encode section header: %v", err)
	}
	buf.Write(sectionData)

	return buf.Bytes()
}

func TestMapPE(t *testing.T) {
	raw := buildPE64(t, 0x140000000, 0x2000, 16, []byte("hello, classes!!"))

	m, err := MapImageBytes(raw)
	if err != nil {
		t.Fatalf("MapImageBytes() error = %v", err)
	}
	if m.Format() != FormatPE {
		t.Fatalf("Format() = %v, want FormatPE", m.Format())
	}
	if m.ImageBase() != 0x140000000 {
		t.Fatalf("ImageBase() = %#x, want 0x140000000", m.ImageBase())
	}
	if !m.InBounds(0x2000, 16) {
		t.Fatalf("expected section virtual range to be in bounds")
	}
	got := m.Data()[0x2000:0x2010]
	if string(got) != "hello, classes!!" {
		t.Fatalf("section data = %q, want %q", got, "hello, classes!!")
	}
}

func TestMapImageTruncated(t *testing.T) {
	if _, err := MapImageBytes([]byte{1, 2, 3}); err != ErrTruncatedHeader {
		t.Fatalf("error = %v, want ErrTruncatedHeader", err)
	}
}

func TestMapImageUnsupportedFormat(t *testing.T) {
	raw := make([]byte, 128)
	if _, err := MapImageBytes(raw); err != ErrUnsupportedFormat {
		t.Fatalf("error = %v, want ErrUnsupportedFormat", err)
	}
}
