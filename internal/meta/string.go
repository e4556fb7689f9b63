// Copyright 2025 The metadump Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package meta

// stringSize is the size in bytes of the game's small-string-optimised
// string object.
const stringSize = 32

// stringInlineCap is the number of bytes available for an inline (SSO)
// string payload before the flag byte.
const stringInlineCap = 23

// stringLongFlagOffset is the offset of the flag byte within the object:
// the low byte of the last 8-byte word.
const stringLongFlagOffset = 24

// stringLongFlagBit marks the string as heap-allocated when set; when clear
// the first stringInlineCap bytes hold the inline buffer directly.
const stringLongFlagBit = 0x01

// ReadRiotString decodes the game's 32-byte SSO string object at addr.
func ReadRiotString(r *Reader, addr uint64) (string, error) {
	raw, err := r.Bytes(addr, stringSize)
	if err != nil {
		return "", err
	}
	flag := raw[stringLongFlagOffset]
	if flag&stringLongFlagBit == 0 {
		end := 0
		for end < stringInlineCap && raw[end] != 0 {
			end++
		}
		return string(raw[:end]), nil
	}

	heapPtr, err := r.Ptr(addr)
	if err != nil {
		return "", err
	}
	length, err := r.Uint64(addr + 8)
	if err != nil {
		return "", err
	}
	if heapPtr == 0 {
		return "", nil
	}
	data, err := r.Bytes(heapPtr, length)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
