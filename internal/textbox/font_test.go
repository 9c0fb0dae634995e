package textbox

import "testing"

func TestEncodeKnownGlyphs(t *testing.T) {
	out := Encode("A9 a?")
	want := []byte{0xBB, 0xAA, 0x00, 0xD5, 0xAC, 0xFF}
	if len(out) != len(want) {
		t.Fatalf("length mismatch: got %d want %d", len(out), len(want))
	}
	for i := range want {
		if out[i] != want[i] {
			t.Fatalf("byte %d: got %#x want %#x", i, out[i], want[i])
		}
	}
}

func TestEncodeUnknownCharMapsToZero(t *testing.T) {
	out := Encode("@")
	if out[0] != 0x00 {
		t.Fatalf("expected unknown char to map to 0x00, got %#x", out[0])
	}
}
