// Copyright 2025 The metadump Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package meta

import (
	"encoding/binary"
	"testing"
)

func TestReadRiotStringInline(t *testing.T) {
	body := make([]byte, 64)
	copy(body[0:], "ChampionData")
	// flag byte left 0 -> inline

	m := newTestMapping(t, testImageBase, body)
	r := NewReader(m, nil)

	got, err := ReadRiotString(r, testSectionVA)
	if err != nil {
		t.Fatalf("ReadRiotString() error = %v", err)
	}
	if got != "ChampionData" {
		t.Fatalf("ReadRiotString() = %q, want %q", got, "ChampionData")
	}
}

func TestReadRiotStringHeap(t *testing.T) {
	body := make([]byte, 64)
	heapPayload := "mPerksStatModsExtraData"
	heapLocalOff := uint64(32)
	copy(body[heapLocalOff:], heapPayload)

	binary.LittleEndian.PutUint64(body[0:], testImageBase+testSectionVA+heapLocalOff)
	binary.LittleEndian.PutUint64(body[8:], uint64(len(heapPayload)))
	body[stringLongFlagOffset] = stringLongFlagBit

	m := newTestMapping(t, testImageBase, body)
	r := NewReader(m, nil)

	got, err := ReadRiotString(r, testSectionVA)
	if err != nil {
		t.Fatalf("ReadRiotString() error = %v", err)
	}
	if got != heapPayload {
		t.Fatalf("ReadRiotString() = %q, want %q", got, heapPayload)
	}
}
