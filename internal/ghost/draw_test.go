package ghost

import (
	"testing"

	"github.com/linkcore/overlay-core/internal/memory"
)

func newTestGatewayOAMVRAM() *memory.Gateway {
	gw := memory.New(nil)
	gw.Bind(memory.OAM, make([]byte, 1024))
	gw.Bind(memory.VRAM, make([]byte, 0x18000))
	return gw
}

func TestDrawWritesOAMEntryAtAssignedSlot(t *testing.T) {
	gw := newTestGatewayOAMVRAM()
	r := NewRenderer(4)

	rec, ok := r.Draw(gw, memory.Base(memory.OAM), 1, DrawInput{
		PlayerID: "alex", ScreenX: 100, ScreenY: 80, Width: 16, Height: 32,
		BackPriority: Back, SpriteHash: 7,
	}, false)
	if !ok {
		t.Fatalf("expected a free OAM slot")
	}
	if rec.VRAMSlot != 0 {
		t.Fatalf("expected first assignment to take slot 0, got %d", rec.VRAMSlot)
	}

	a0, _ := gw.ReadU16(memory.OAM, memory.Base(memory.OAM))
	if a0 != rec.Attr0 {
		t.Fatalf("expected attr0 written at entry 0, got %#x want %#x", a0, rec.Attr0)
	}
}

func TestDrawRunsOutOfSlots(t *testing.T) {
	gw := newTestGatewayOAMVRAM()
	r := NewRenderer(1)

	if _, ok := r.Draw(gw, memory.Base(memory.OAM), 1, DrawInput{PlayerID: "a"}, false); !ok {
		t.Fatalf("expected first player to get the only slot")
	}
	if _, ok := r.Draw(gw, memory.Base(memory.OAM), 1, DrawInput{PlayerID: "b"}, false); ok {
		t.Fatalf("expected second player to be refused a slot")
	}
}

func TestDrawAppliesFrontHysteresis(t *testing.T) {
	gw := newTestGatewayOAMVRAM()
	r := NewRenderer(2)

	rec, _ := r.Draw(gw, memory.Base(memory.OAM), 1, DrawInput{PlayerID: "a", BackPriority: Back}, true)
	if rec.Front {
		t.Fatalf("expected front not yet active on first desiring frame")
	}
	rec, _ = r.Draw(gw, memory.Base(memory.OAM), 2, DrawInput{PlayerID: "a", BackPriority: Back}, true)
	if !rec.Front {
		t.Fatalf("expected front active after two consecutive desiring frames")
	}
}

func TestDrawRefreshesVRAMOnHashChange(t *testing.T) {
	gw := newTestGatewayOAMVRAM()
	r := NewRenderer(1)
	tile := []byte{1, 2, 3, 4}

	r.Draw(gw, memory.Base(memory.OAM), 1, DrawInput{PlayerID: "a", SpriteHash: 1, TileData: tile, VRAMAddr: memory.Base(memory.VRAM)}, false)
	got, _ := gw.ReadRange(memory.VRAM, memory.Base(memory.VRAM), len(tile))
	for i, b := range tile {
		if got[i] != b {
			t.Fatalf("expected VRAM tile bytes written, byte %d = %d want %d", i, got[i], b)
		}
	}
}

func TestHideDisablesWithoutReleasingSlot(t *testing.T) {
	gw := newTestGatewayOAMVRAM()
	r := NewRenderer(1)
	r.Draw(gw, memory.Base(memory.OAM), 1, DrawInput{PlayerID: "a"}, false)

	r.Hide(gw, memory.Base(memory.OAM), "a")
	a0, _ := gw.ReadU16(memory.OAM, memory.Base(memory.OAM))
	if a0&oamDisableBit0 == 0 {
		t.Fatalf("expected OBJ-disable bit set, got attr0=%#x", a0)
	}
	if _, ok := r.assigned["a"]; !ok {
		t.Fatalf("expected slot to remain assigned after Hide")
	}
}
