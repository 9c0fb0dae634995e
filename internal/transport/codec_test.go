package transport

import "testing"

func TestEncodeDecodePositionRoundTrip(t *testing.T) {
	borderX := uint16(20)
	p := Position{X: 12, Y: 10, MapID: 2, MapGroup: 1, Facing: 1, TimeMS: 1000, MapRev: 3, MetaStable: true, MetaHash: 0xAB, BorderX: &borderX}
	raw, err := Encode(TypePosition, p)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	msg, err := Decode(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if msg.Type != TypePosition || msg.Position == nil {
		t.Fatalf("expected decoded position message, got %+v", msg)
	}
	if msg.Position.X != 12 || msg.Position.Y != 10 || msg.Position.MapID != 2 || msg.Position.MapGroup != 1 {
		t.Fatalf("position fields lost in round-trip: %+v", msg.Position)
	}
	if msg.Position.BorderX == nil || *msg.Position.BorderX != 20 {
		t.Fatalf("expected borderX=20, got %+v", msg.Position.BorderX)
	}
}

func TestEncodeDecodeBufferCmdRoundTrip(t *testing.T) {
	cmd := BufferCmd{Battler: 1, Ctx: BufferCmdCtx{Attacker: 1, Target: 0}}
	cmd.BufA[0] = 0x07
	raw, err := Encode(TypeBufferCmd, cmd)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	msg, err := Decode(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if msg.BufferCmd == nil || msg.BufferCmd.BufA[0] != 0x07 || msg.BufferCmd.Battler != 1 {
		t.Fatalf("buffer cmd round-trip mismatch: %+v", msg.BufferCmd)
	}
}

func TestDecodeUnknownTypeErrors(t *testing.T) {
	if _, err := Decode([]byte(`{"type":"bogus"}`)); err == nil {
		t.Fatalf("expected error for unknown message type")
	}
}
