// Copyright 2025 The metadump Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package signature

import (
	"encoding/binary"
	"errors"
)

// ErrClassesRootNotFound is fatal: the classes-root signature did not match
// anywhere in the image.
var ErrClassesRootNotFound = errors.New("signature: classes root pattern not found")

// classesRootPatternWithREX matches:
//
//	lea rdi, [rip+disp32]   ; 48 8D 3D disp32
//	48 89 DE                ; mov rsi, rbx  (REX prefix present)
//	e8 disp32               ; call ...
//	48 83 C4 08             ; add rsp, 8
//	5B                      ; pop rbx
//	5D                      ; pop rbp
//	FF 60 10                ; jmp qword ptr [rax+10h]
var classesRootPatternWithREX = NewPattern("classes_root_rex", []Token{
	B(0x48), B(0x8D), B(0x3D), W(), W(), W(), W(),
	B(0x48), B(0x89), B(0xDE),
	B(0xE8), W(), W(), W(), W(),
	B(0x48), B(0x83), B(0xC4), B(0x08),
	B(0x5B), B(0x5D),
	B(0xFF), B(0x60), B(0x10),
})

// classesRootPatternNoREX is the same shape without the optional REX prefix
// before "89 DE" (the Rust source's "48?" optional-byte quantifier).
var classesRootPatternNoREX = NewPattern("classes_root_norex", []Token{
	B(0x48), B(0x8D), B(0x3D), W(), W(), W(), W(),
	B(0x89), B(0xDE),
	B(0xE8), W(), W(), W(), W(),
	B(0x48), B(0x83), B(0xC4), B(0x08),
	B(0x5B), B(0x5D),
	B(0xFF), B(0x60), B(0x10),
})

// dispOffset is the offset, within either classes-root pattern, of the first
// byte of the captured 32-bit RIP-relative displacement (right after "48 8D 3D").
const dispOffset = 3

// FindClassesRoot locates the classes-root signature in data and resolves
// its captured RIP-relative displacement to an absolute offset into data:
// target = address_of_byte_after_disp32 + sign_extend(disp32).
func FindClassesRoot(data []byte) (uint64, error) {
	// Try the REX-prefixed shape first: it is the more specific (longer)
	// match and, when present, is the one the compiler actually emitted.
	for _, p := range []Pattern{classesRootPatternWithREX, classesRootPatternNoREX} {
		at := p.FindFirst(data)
		if at < 0 {
			continue
		}
		return resolveRIPDisp32(data, at+dispOffset)
	}
	return 0, ErrClassesRootNotFound
}

// resolveRIPDisp32 reads a little-endian 32-bit displacement at dispAt and
// resolves it relative to the address of the byte immediately following it.
func resolveRIPDisp32(data []byte, dispAt int) (uint64, error) {
	if dispAt < 0 || dispAt+4 > len(data) {
		return 0, ErrClassesRootNotFound
	}
	disp := int32(binary.LittleEndian.Uint32(data[dispAt:]))
	base := int64(dispAt) + 4
	target := base + int64(disp)
	if target < 0 || target > int64(len(data)) {
		return 0, ErrClassesRootNotFound
	}
	return uint64(target), nil
}

// versionReleasesPrefix is the primary version pattern's literal prefix:
// "\0Releases/". The variable-length "digits-and-dots" capture and the
// trailing nul are scanned by hand since they are not a fixed-width pattern.
var versionReleasesPrefix = []byte("\x00Releases/")

const maxVersionStringLen = 64

// FindVersion tries the primary "Releases/<version>" pattern, then the
// "VersionInfoTag!" fallback, returning "" if neither is found — callers
// downgrade that to "unknown".
func FindVersion(data []byte) string {
	if v, ok := findVersionPrimary(data); ok {
		return v
	}
	if v, ok := findVersionFallback(data); ok {
		return v
	}
	return ""
}

func findVersionPrimary(data []byte) (string, bool) {
	at := indexOf(data, versionReleasesPrefix, 0)
	if at < 0 {
		return "", false
	}
	start := at + len(versionReleasesPrefix)
	end := start
	for end < len(data) && end-start < maxVersionStringLen {
		c := data[end]
		if c == 0 {
			break
		}
		if !isDigitOrDot(c) {
			return "", false
		}
		end++
	}
	if end >= len(data) || data[end] != 0 || end == start {
		return "", false
	}
	return string(data[start:end]), true
}

func isDigitOrDot(c byte) bool {
	return (c >= '0' && c <= '9') || c == '.'
}

var versionTagPrefix = []byte("VersionInfoTag!\x00")

// findVersionFallback matches the secondary version-info pattern:
//
//	"VersionInfoTag!\0" patch:u32LE  <time-ascii> \0  <date-ascii> \0  0x02  major:u16LE  minor:u16LE  00{8}
func findVersionFallback(data []byte) (string, bool) {
	at := indexOf(data, versionTagPrefix, 0)
	if at < 0 {
		return "", false
	}
	cursor := at + len(versionTagPrefix)
	if cursor+4 > len(data) {
		return "", false
	}
	patch := binary.LittleEndian.Uint32(data[cursor:])
	cursor += 4

	timeEnd := indexOfByte(data, 0, cursor, cursor+maxVersionStringLen)
	if timeEnd < 0 {
		return "", false
	}
	cursor = timeEnd + 1

	dateEnd := indexOfByte(data, 0, cursor, cursor+maxVersionStringLen)
	if dateEnd < 0 {
		return "", false
	}
	cursor = dateEnd + 1

	if cursor >= len(data) || data[cursor] != 0x02 {
		return "", false
	}
	cursor++

	if cursor+4 > len(data) {
		return "", false
	}
	major := binary.LittleEndian.Uint16(data[cursor:])
	minor := binary.LittleEndian.Uint16(data[cursor+2:])
	cursor += 4

	if cursor+8 > len(data) {
		return "", false
	}
	for _, b := range data[cursor : cursor+8] {
		if b != 0 {
			return "", false
		}
	}

	return formatVersion(major, minor, patch), true
}

func formatVersion(major, minor uint16, patch uint32) string {
	return itoa(uint64(major)) + "." + itoa(uint64(minor)) + "." + itoa(uint64(patch))
}

func itoa(v uint64) string {
	if v == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	return string(buf[i:])
}

func indexOf(data, needle []byte, from int) int {
	if from < 0 {
		from = 0
	}
	if len(needle) == 0 || from+len(needle) > len(data) {
		return -1
	}
	for i := from; i <= len(data)-len(needle); i++ {
		if matchSlice(data[i:i+len(needle)], needle) {
			return i
		}
	}
	return -1
}

func matchSlice(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// indexOfByte finds b in data[from:upTo), clamped to data's length.
func indexOfByte(data []byte, b byte, from, upTo int) int {
	if from < 0 {
		from = 0
	}
	if upTo > len(data) {
		upTo = len(data)
	}
	for i := from; i < upTo; i++ {
		if data[i] == b {
			return i
		}
	}
	return -1
}
