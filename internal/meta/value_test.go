// Copyright 2025 The metadump Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package meta

import (
	"encoding/binary"
	"math"
	"testing"
)

func TestDecodeValueBool(t *testing.T) {
	body := []byte{1}
	m := newTestMapping(t, testImageBase, body)
	r := NewReader(m, nil)
	v, err := DecodeValue(r, TypeBool, testSectionVA, nil, 0)
	if err != nil || v.Bool == nil || !*v.Bool {
		t.Fatalf("got %+v, err = %v", v, err)
	}
}

func TestDecodeValueSignedInt(t *testing.T) {
	body := make([]byte, 8)
	binary.LittleEndian.PutUint32(body, uint32(int32(-42)))
	m := newTestMapping(t, testImageBase, body)
	r := NewReader(m, nil)
	v, err := DecodeValue(r, TypeI32, testSectionVA, nil, 0)
	if err != nil || v.Int == nil || *v.Int != -42 {
		t.Fatalf("got %+v, err = %v", v, err)
	}
}

func TestDecodeValueUnsignedInt(t *testing.T) {
	body := make([]byte, 8)
	binary.LittleEndian.PutUint64(body, 0xFFFFFFFFFFFFFFFF)
	m := newTestMapping(t, testImageBase, body)
	r := NewReader(m, nil)
	v, err := DecodeValue(r, TypeU64, testSectionVA, nil, 0)
	if err != nil || v.Uint == nil || *v.Uint != math.MaxUint64 {
		t.Fatalf("got %+v, err = %v", v, err)
	}
}

func TestDecodeValueHash(t *testing.T) {
	body := make([]byte, 8)
	binary.LittleEndian.PutUint32(body, 0xCAFEF00D)
	m := newTestMapping(t, testImageBase, body)
	r := NewReader(m, nil)
	v, err := DecodeValue(r, TypeHash, testSectionVA, nil, 0)
	if err != nil || v.Hash == nil || *v.Hash != 0xCAFEF00D {
		t.Fatalf("got %+v, err = %v", v, err)
	}
}

func TestDecodeValueFloatNaN(t *testing.T) {
	body := make([]byte, 8)
	binary.LittleEndian.PutUint32(body, math.Float32bits(float32(math.NaN())))
	m := newTestMapping(t, testImageBase, body)
	r := NewReader(m, nil)
	v, err := DecodeValue(r, TypeF32, testSectionVA, nil, 0)
	if err != nil || v.Float == nil || !math.IsNaN(*v.Float) {
		t.Fatalf("got %+v, err = %v", v, err)
	}
}

func TestDecodeValueFloatInf(t *testing.T) {
	body := make([]byte, 8)
	binary.LittleEndian.PutUint32(body, math.Float32bits(float32(math.Inf(1))))
	m := newTestMapping(t, testImageBase, body)
	r := NewReader(m, nil)
	v, err := DecodeValue(r, TypeF32, testSectionVA, nil, 0)
	if err != nil || v.Float == nil || !math.IsInf(*v.Float, 1) {
		t.Fatalf("got %+v, err = %v", v, err)
	}
}

func TestDecodeValueVec3(t *testing.T) {
	body := make([]byte, 16)
	binary.LittleEndian.PutUint32(body[0:], math.Float32bits(1))
	binary.LittleEndian.PutUint32(body[4:], math.Float32bits(2))
	binary.LittleEndian.PutUint32(body[8:], math.Float32bits(3))
	m := newTestMapping(t, testImageBase, body)
	r := NewReader(m, nil)
	v, err := DecodeValue(r, TypeVec3, testSectionVA, nil, 0)
	if err != nil || len(v.Floats) != 3 || v.Floats[0] != 1 || v.Floats[2] != 3 {
		t.Fatalf("got %+v, err = %v", v, err)
	}
}

func TestDecodeValueRGBA(t *testing.T) {
	body := []byte{0x11, 0x22, 0x33, 0x44}
	m := newTestMapping(t, testImageBase, body)
	r := NewReader(m, nil)
	v, err := DecodeValue(r, TypeRGBA, testSectionVA, nil, 0)
	if err != nil || len(v.Bytes) != 4 || v.Bytes[3] != 0x44 {
		t.Fatalf("got %+v, err = %v", v, err)
	}
}

func TestDecodeValueString(t *testing.T) {
	body := make([]byte, 32)
	copy(body, "ItemData")
	m := newTestMapping(t, testImageBase, body)
	r := NewReader(m, nil)
	v, err := DecodeValue(r, TypeString, testSectionVA, nil, 0)
	if err != nil || v.Str == nil || *v.Str != "ItemData" {
		t.Fatalf("got %+v, err = %v", v, err)
	}
}

func TestDecodeValueList(t *testing.T) {
	body := make([]byte, 64)
	begin := testImageBase + testSectionVA + 24
	end := begin + 3*4
	capEnd := end
	binary.LittleEndian.PutUint64(body[0:], begin)
	binary.LittleEndian.PutUint64(body[8:], end)
	binary.LittleEndian.PutUint64(body[16:], capEnd)
	binary.LittleEndian.PutUint32(body[24:], 10)
	binary.LittleEndian.PutUint32(body[28:], 20)
	binary.LittleEndian.PutUint32(body[32:], 30)

	m := newTestMapping(t, testImageBase, body)
	r := NewReader(m, nil)
	c := &Container{ElementType: TypeI32}
	v, err := DecodeValue(r, TypeList, testSectionVA, c, 0)
	if err != nil {
		t.Fatalf("DecodeValue() error = %v", err)
	}
	if len(v.List) != 3 || *v.List[0].Int != 10 || *v.List[2].Int != 30 {
		t.Fatalf("got %+v", v.List)
	}
}

func TestDecodeValueMap(t *testing.T) {
	body := make([]byte, 64)
	begin := testImageBase + testSectionVA + 24
	pairSize := uint64(8) // U32 key + U32 value
	end := begin + 2*pairSize
	binary.LittleEndian.PutUint64(body[0:], begin)
	binary.LittleEndian.PutUint64(body[8:], end)
	binary.LittleEndian.PutUint64(body[16:], end)
	binary.LittleEndian.PutUint32(body[24:], 1) // key0
	binary.LittleEndian.PutUint32(body[28:], 100) // val0
	binary.LittleEndian.PutUint32(body[32:], 2) // key1
	binary.LittleEndian.PutUint32(body[36:], 200) // val1

	m := newTestMapping(t, testImageBase, body)
	r := NewReader(m, nil)
	c := &Container{KeyType: TypeU32, ElementType: TypeU32}
	v, err := DecodeValue(r, TypeMap, testSectionVA, c, 0)
	if err != nil {
		t.Fatalf("DecodeValue() error = %v", err)
	}
	if len(v.Pairs) != 2 || *v.Pairs[0].Key.Uint != 1 || *v.Pairs[0].Value.Uint != 100 {
		t.Fatalf("got %+v", v.Pairs)
	}
}

func TestDecodeValueOptionPresent(t *testing.T) {
	body := make([]byte, 16)
	body[0] = 1
	binary.LittleEndian.PutUint32(body[8:], 77)

	m := newTestMapping(t, testImageBase, body)
	r := NewReader(m, nil)
	c := &Container{ElementType: TypeU32}
	v, err := DecodeValue(r, TypeOption, testSectionVA, c, 0)
	if err != nil || v.Option == nil || *v.Option.Uint != 77 {
		t.Fatalf("got %+v, err = %v", v, err)
	}
}

func TestDecodeValueOptionAbsent(t *testing.T) {
	body := make([]byte, 16)
	m := newTestMapping(t, testImageBase, body)
	r := NewReader(m, nil)
	c := &Container{ElementType: TypeU32}
	v, err := DecodeValue(r, TypeOption, testSectionVA, c, 0)
	if err != nil || v.Option != nil {
		t.Fatalf("got %+v, err = %v, want Option == nil", v, err)
	}
}

func TestDecodeValueDepthGuard(t *testing.T) {
	body := make([]byte, 16)
	m := newTestMapping(t, testImageBase, body)
	r := NewReader(m, nil)
	if _, err := DecodeValue(r, TypeBool, testSectionVA, nil, maxContainerDepth+1); err != ErrInvalidRef {
		t.Fatalf("DecodeValue() error = %v, want ErrInvalidRef", err)
	}
}

func TestDecodeValueUnknownType(t *testing.T) {
	body := make([]byte, 16)
	m := newTestMapping(t, testImageBase, body)
	r := NewReader(m, nil)
	if _, err := DecodeValue(r, TypeTag(9999), testSectionVA, nil, 0); err == nil {
		t.Fatalf("DecodeValue() error = nil, want ErrUnknownType")
	}
}
