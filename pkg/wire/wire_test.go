package wire

import (
	"bytes"
	"testing"
)

func TestVarIntRoundTrip(t *testing.T) {
	tests := []struct {
		value    int32
		expected []byte
	}{
		{0, []byte{0x00}},
		{1, []byte{0x01}},
		{127, []byte{0x7F}},
		{128, []byte{0x80, 0x01}},
		{255, []byte{0xFF, 0x01}},
		{25565, []byte{0xDD, 0xC7, 0x01}},
		{2097151, []byte{0xFF, 0xFF, 0x7F}},
		{2147483647, []byte{0xFF, 0xFF, 0xFF, 0xFF, 0x07}},
		{-1, []byte{0xFF, 0xFF, 0xFF, 0xFF, 0x0F}},
	}

	for _, tt := range tests {
		w := NewWriter()
		w.PutVarInt(tt.value)
		if !bytes.Equal(w.Bytes(), tt.expected) {
			t.Errorf("PutVarInt(%d) = %v, want %v", tt.value, w.Bytes(), tt.expected)
		}

		r := NewReader(tt.expected)
		got, err := r.VarInt()
		if err != nil {
			t.Fatalf("VarInt() error: %v", err)
		}
		if got != tt.value {
			t.Errorf("VarInt() = %d, want %d", got, tt.value)
		}
		if r.Remaining() != 0 {
			t.Errorf("expected VarInt to consume the whole buffer, %d bytes left", r.Remaining())
		}
	}
}

func TestPrimitiveRoundTrip(t *testing.T) {
	w := NewWriter()
	w.PutUint16(4242)
	w.PutInt32(-12345)
	w.PutInt64(9876543210)
	w.PutFloat32(3.5)
	w.PutFloat64(-2.25)
	w.PutBool(true)
	w.PutBool(false)
	w.PutString("furnace")
	w.PutUUID([16]byte{1, 2, 3})

	r := NewReader(w.Bytes())

	if v, err := r.Uint16(); err != nil || v != 4242 {
		t.Fatalf("Uint16() = (%d, %v), want 4242", v, err)
	}
	if v, err := r.Int32(); err != nil || v != -12345 {
		t.Fatalf("Int32() = (%d, %v), want -12345", v, err)
	}
	if v, err := r.Int64(); err != nil || v != 9876543210 {
		t.Fatalf("Int64() = (%d, %v), want 9876543210", v, err)
	}
	if v, err := r.Float32(); err != nil || v != 3.5 {
		t.Fatalf("Float32() = (%f, %v), want 3.5", v, err)
	}
	if v, err := r.Float64(); err != nil || v != -2.25 {
		t.Fatalf("Float64() = (%f, %v), want -2.25", v, err)
	}
	if v, err := r.Bool(); err != nil || v != true {
		t.Fatalf("Bool() = (%v, %v), want true", v, err)
	}
	if v, err := r.Bool(); err != nil || v != false {
		t.Fatalf("Bool() = (%v, %v), want false", v, err)
	}
	if v, err := r.String(); err != nil || v != "furnace" {
		t.Fatalf("String() = (%q, %v), want \"furnace\"", v, err)
	}
	id, err := r.UUID()
	if err != nil || id != ([16]byte{1, 2, 3}) {
		t.Fatalf("UUID() = (%v, %v), want {1,2,3,...}", id, err)
	}
	if r.Remaining() != 0 {
		t.Errorf("expected all bytes consumed, %d left", r.Remaining())
	}
}

func TestReaderShortReadError(t *testing.T) {
	r := NewReader([]byte{0x01})
	if _, err := r.Int64(); err == nil {
		t.Fatal("expected a short-read error")
	}
}
