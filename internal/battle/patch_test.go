package battle

import (
	"fmt"
	"testing"

	"github.com/linkcore/overlay-core/internal/config"
	"github.com/linkcore/overlay-core/internal/memory"
)

func TestApplyPatchRestoreRoundTrip(t *testing.T) {
	gw := memory.New(nil)
	gw.Bind(memory.Cart, make([]byte, 0x1000))
	addr := memory.Base(memory.Cart) + 0x10
	gw.WriteU8(memory.Cart, addr, 0xAB)

	p, ok := applyPatch(gw, memory.Cart, addr, config.Width8, 0x12)
	if !ok {
		t.Fatalf("applyPatch failed")
	}
	if v, _ := gw.ReadU8(memory.Cart, addr); v != 0x12 {
		t.Fatalf("patched value not written: got %#x", v)
	}
	if !restorePatch(gw, p) {
		t.Fatalf("restorePatch failed")
	}
	if v, _ := gw.ReadU8(memory.Cart, addr); v != 0xAB {
		t.Fatalf("original value not restored: got %#x", v)
	}
}

func TestRestoreAllRestoresEveryPatchRegardlessOfOrder(t *testing.T) {
	gw := memory.New(nil)
	gw.Bind(memory.Cart, make([]byte, 0x1000))
	base := memory.Base(memory.Cart)

	var patches []appliedPatch
	for i := uint32(0); i < 5; i++ {
		addr := base + i*4
		gw.WriteU8(memory.Cart, addr, uint8(0x10+i))
		p, ok := applyPatch(gw, memory.Cart, addr, config.Width8, uint32(0x90+i))
		if !ok {
			t.Fatalf("applyPatch %d failed", i)
		}
		patches = append(patches, p)
	}

	restoreAll(gw, patches)

	for i := uint32(0); i < 5; i++ {
		addr := base + i*4
		v, _ := gw.ReadU8(memory.Cart, addr)
		if v != uint8(0x10+i) {
			t.Fatalf("patch %d not restored: got %#x want %#x", i, v, 0x10+i)
		}
	}
}

// TestApplyROMPatchesRejectsUnverifiableAndKeepsOthers exercises the
// "patch round-trip / restore" invariant (spec.md §5, §7 "Patch
// verification failure"): a named patch whose write cannot be verified
// by read-back is rejected — never recorded, never applied — while
// every other patch in the table is still applied, recorded, and fully
// restorable.
func TestApplyROMPatchesRejectsUnverifiableAndKeepsOthers(t *testing.T) {
	cartSize := uint32(0x2000)
	gw := memory.New(nil)
	gw.Bind(memory.Cart, make([]byte, cartSize))
	cartBase := memory.Base(memory.Cart)

	var patches []config.Patch
	var goodAddrs []uint32
	for i := 0; i < 9; i++ {
		addr := cartBase + uint32(i)*8
		goodAddrs = append(goodAddrs, addr)
		patches = append(patches, config.Patch{
			Name:      fmt.Sprintf("patch-%d", i),
			ROMOffset: addr,
			Value:     uint32(0x1000 + i),
			Width:     config.Width32,
		})
	}
	// A Width32 write 2 bytes from the end of the bound buffer can never
	// read back cleanly; applyPatch rejects it before ever writing.
	patches = append(patches, config.Patch{
		Name:      "patch-unverifiable",
		ROMOffset: cartBase + cartSize - 2,
		Value:     0xDEAD,
		Width:     config.Width32,
	})

	cfg := &config.AddressMap{Const: config.DefaultConstants(), Patches: patches}
	c := New(gw, cfg, nil, nil)
	c.state.IsMaster = true

	if c.applyROMPatches() {
		t.Fatalf("applyROMPatches should report failure when a named patch is rejected")
	}
	if len(c.state.ROMPatches) != len(goodAddrs) {
		t.Fatalf("expected %d recorded patches, got %d", len(goodAddrs), len(c.state.ROMPatches))
	}
	for i, addr := range goodAddrs {
		v, ok := gw.ReadU32(memory.Cart, addr)
		if !ok || v != uint32(0x1000+i) {
			t.Fatalf("patch %d not applied: got %#x ok=%v", i, v, ok)
		}
	}

	c.restorePatches()

	if len(c.state.ROMPatches) != 0 || len(c.state.RAMPatches) != 0 {
		t.Fatalf("restorePatches should clear both patch lists")
	}
	for i, addr := range goodAddrs {
		v, ok := gw.ReadU32(memory.Cart, addr)
		if !ok || v != 0 {
			t.Fatalf("patch %d not restored to original: got %#x ok=%v", i, v, ok)
		}
	}
}

// TestStaleSweepRestoresOnlyPatchesStillAtTheirAppliedValue covers the
// pre-battle stale-patch sweep (spec.md §5): a named patch whose byte(s)
// still carry the session's applied value is swept back to Original; a
// patch whose address has since moved on (someone else wrote over it,
// or it was never applied this run) is left alone.
func TestStaleSweepRestoresOnlyPatchesStillAtTheirAppliedValue(t *testing.T) {
	gw := memory.New(nil)
	gw.Bind(memory.Cart, make([]byte, 0x100))
	cartBase := memory.Base(memory.Cart)

	staleAddr := cartBase + 0x10
	freshAddr := cartBase + 0x20
	gw.WriteU8(memory.Cart, staleAddr, 0x12) // left over from a crashed session
	gw.WriteU8(memory.Cart, freshAddr, 0x99) // untouched vanilla byte

	cfg := &config.AddressMap{
		Const: config.DefaultConstants(),
		Patches: []config.Patch{
			{Name: "stale", ROMOffset: staleAddr, Value: 0x12, Original: 0xAB, Width: config.Width8},
			{Name: "fresh", ROMOffset: freshAddr, Value: 0x12, Original: 0x99, Width: config.Width8},
		},
	}
	c := New(gw, cfg, nil, nil)

	c.staleSweep()

	if v, _ := gw.ReadU8(memory.Cart, staleAddr); v != 0xAB {
		t.Fatalf("stale patch not swept: got %#x want %#x", v, 0xAB)
	}
	if v, _ := gw.ReadU8(memory.Cart, freshAddr); v != 0x99 {
		t.Fatalf("fresh byte should be untouched: got %#x", v)
	}
}
