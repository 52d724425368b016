package wayland

import (
	"bytes"
	"testing"
)

func TestEncodeDecodeString(t *testing.T) {
	tests := []string{"", "wl_seat", "zwlr_data_control_manager_v1", "text/plain;charset=utf-8"}
	for _, s := range tests {
		encoded := encodeString(s)
		if len(encoded)%4 != 0 {
			t.Errorf("encodeString(%q) length %d not 4-byte aligned", s, len(encoded))
		}
		decoded, rest, err := decodeString(encoded)
		if err != nil {
			t.Fatalf("decodeString(encodeString(%q)) failed: %v", s, err)
		}
		if decoded != s {
			t.Errorf("round trip = %q, want %q", decoded, s)
		}
		if len(rest) != 0 {
			t.Errorf("rest = %d bytes, want 0", len(rest))
		}
	}
}

func TestDecodeStringTrailingData(t *testing.T) {
	encoded := encodeString("hi")
	tail := []byte{0xAA, 0xBB, 0xCC, 0xDD}
	decoded, rest, err := decodeString(append(encoded, tail...))
	if err != nil {
		t.Fatalf("decodeString failed: %v", err)
	}
	if decoded != "hi" {
		t.Errorf("decoded = %q, want %q", decoded, "hi")
	}
	if !bytes.Equal(rest, tail) {
		t.Errorf("rest = %v, want %v", rest, tail)
	}
}

func TestDecodeStringShort(t *testing.T) {
	if _, _, err := decodeString([]byte{1, 2}); err == nil {
		t.Error("decodeString on a too-short buffer should error")
	}
	if _, _, err := decodeString(encodeUint32(100)); err == nil {
		t.Error("decodeString should error when the declared length exceeds the buffer")
	}
}

func TestEncodeUint32(t *testing.T) {
	b := encodeUint32(0x01020304)
	want := []byte{0x04, 0x03, 0x02, 0x01}
	if !bytes.Equal(b, want) {
		t.Errorf("encodeUint32 = %v, want %v (little endian)", b, want)
	}
}

func TestConcat(t *testing.T) {
	got := concat([]byte{1, 2}, nil, []byte{3}, []byte{4, 5})
	want := []byte{1, 2, 3, 4, 5}
	if !bytes.Equal(got, want) {
		t.Errorf("concat = %v, want %v", got, want)
	}
}

func TestMessageFraming(t *testing.T) {
	// send()'s header layout is objectID:uint32, then (opcode:uint16 |
	// size:uint16<<16); verify a manually built frame matches what recv()
	// expects to parse by round-tripping it through a conn whose inBuf is
	// preloaded with the frame, so no socket is read.
	args := concat(encodeUint32(42), encodeString("wl_seat"))
	size := uint16(8 + len(args))
	buf := make([]byte, size)
	le.PutUint32(buf[0:], idRegistry)
	le.PutUint32(buf[4:], uint32(0)|uint32(size)<<16)
	copy(buf[8:], args)

	c := &conn{inBuf: append([]byte(nil), buf...)}
	objectID, opcode, payload, fd, err := c.recv()
	if err != nil {
		t.Fatalf("recv() failed: %v", err)
	}
	if objectID != idRegistry {
		t.Errorf("objectID = %d, want %d", objectID, idRegistry)
	}
	if opcode != 0 {
		t.Errorf("opcode = %d, want 0", opcode)
	}
	if fd != -1 {
		t.Errorf("fd = %d, want -1 (no ancillary data)", fd)
	}
	if !bytes.Equal(payload, args) {
		t.Errorf("payload = %v, want %v", payload, args)
	}
	if len(c.inBuf) != 0 {
		t.Errorf("inBuf should be fully drained, got %d bytes left", len(c.inBuf))
	}
}
