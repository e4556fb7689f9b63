// Copyright 2025 The metadump Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package meta

import (
	"encoding/binary"
	"testing"
)

func TestReadRiotVector(t *testing.T) {
	body := make([]byte, 64)
	begin := testImageBase + testSectionVA + 24
	end := begin + 3*8
	capEnd := begin + 5*8
	binary.LittleEndian.PutUint64(body[0:], begin)
	binary.LittleEndian.PutUint64(body[8:], end)
	binary.LittleEndian.PutUint64(body[16:], capEnd)

	m := newTestMapping(t, testImageBase, body)
	r := NewReader(m, nil)

	vec, err := ReadRiotVector(r, testSectionVA)
	if err != nil {
		t.Fatalf("ReadRiotVector() error = %v", err)
	}
	if got, want := vec.Count(8), uint64(3); got != want {
		t.Fatalf("Count() = %d, want %d", got, want)
	}
	if got, want := vec.ElemAddr(8, 1), begin-testImageBase+8; got != want {
		t.Fatalf("ElemAddr(1) = %#x, want %#x", got, want)
	}
}

func TestReadRiotVectorInvalidOrder(t *testing.T) {
	body := make([]byte, 32)
	begin := testImageBase + testSectionVA + 16
	end := begin + 8
	capEnd := begin // capacity_end before end: invalid
	binary.LittleEndian.PutUint64(body[0:], begin)
	binary.LittleEndian.PutUint64(body[8:], end)
	binary.LittleEndian.PutUint64(body[16:], capEnd)

	m := newTestMapping(t, testImageBase, body)
	r := NewReader(m, nil)

	if _, err := ReadRiotVector(r, testSectionVA); err != ErrInvalidRef {
		t.Fatalf("ReadRiotVector() error = %v, want ErrInvalidRef", err)
	}
}
