package ghost

import "testing"

func TestShapeSizeKnownAndFallback(t *testing.T) {
	if shape, size := ShapeSize(16, 32); shape != 2 || size != 2 {
		t.Fatalf("expected vertical 16x32 -> shape=2,size=2, got shape=%d size=%d", shape, size)
	}
	if shape, size := ShapeSize(3, 3); shape != 2 || size != 2 {
		t.Fatalf("expected unknown dims to fall back to shape=2,size=2, got shape=%d size=%d", shape, size)
	}
}

func TestAttrPackingWrapsNegativeCoords(t *testing.T) {
	a0 := PackAttr0(-4, 2)
	if a0 != (252 | 2<<14) {
		t.Fatalf("expected y=-4 wrapped to 252, got attr0=%#x", a0)
	}
	a1 := PackAttr1(-8, true, false, 2)
	if a1 != (504 | 1<<12 | 2<<14) {
		t.Fatalf("expected x=-8 wrapped to 504 with hflip, got attr1=%#x", a1)
	}
}

func TestAttrPackingPriorityAndPalBank(t *testing.T) {
	a2 := PackAttr2(0x123, Front, 14)
	want := uint16(0x123) | 1<<10 | 14<<12
	if a2 != want {
		t.Fatalf("expected attr2=%#x, got %#x", want, a2)
	}
}

func TestRendererSlotAssignmentAndRelease(t *testing.T) {
	r := NewRenderer(2)
	s1, ok := r.AssignSlot("p1")
	if !ok || s1 < 0 {
		t.Fatalf("expected slot assigned, got ok=%v slot=%d", ok, s1)
	}
	s1again, _ := r.AssignSlot("p1")
	if s1again != s1 {
		t.Fatalf("expected sticky slot assignment, got %d then %d", s1, s1again)
	}
	if _, ok := r.AssignSlot("p2"); !ok {
		t.Fatalf("expected second slot to be available")
	}
	if _, ok := r.AssignSlot("p3"); ok {
		t.Fatalf("expected slot pool exhausted at capacity 2")
	}
	r.ReleaseSlot("p1")
	if _, ok := r.AssignSlot("p3"); !ok {
		t.Fatalf("expected released slot to become available")
	}
}

func TestRendererPaletteNativeVsReserved(t *testing.T) {
	r := NewRenderer(4)
	native := uint8(5)
	if bank := r.AssignPalette("p1", &native); bank != 5 {
		t.Fatalf("expected native bank 5, got %d", bank)
	}
	b2 := r.AssignPalette("p2", nil)
	b3 := r.AssignPalette("p3", nil)
	if b2 != 13 || b3 != 14 {
		t.Fatalf("expected reserved banks to round-robin 13,14, got %d,%d", b2, b3)
	}
	if again := r.AssignPalette("p2", nil); again != b2 {
		t.Fatalf("expected palette assignment to stay sticky, got %d then %d", b2, again)
	}
}

func TestFrontHysteresisEnableAndDisable(t *testing.T) {
	r := NewRenderer(1)
	if r.UpdateFrontDesire("p1", true, 0) {
		t.Fatalf("one desiring frame should not yet enable front")
	}
	if !r.UpdateFrontDesire("p1", true, 1) {
		t.Fatalf("two consecutive desiring frames should enable front")
	}
	if !r.UpdateFrontDesire("p1", false, 2) {
		t.Fatalf("front should remain active immediately after desire ends")
	}
	for f := uint64(3); f < 7; f++ {
		if !r.UpdateFrontDesire("p1", false, f) {
			t.Fatalf("front should stay active before the 6-frame grace elapses, frame=%d", f)
		}
	}
	if r.UpdateFrontDesire("p1", false, 8) {
		t.Fatalf("front should disable once 6 frames have elapsed since desire ended")
	}
}

func TestVRAMRefreshOnHashChangeOrInterval(t *testing.T) {
	r := NewRenderer(1)
	if !r.ShouldRefreshVRAM("p1", 1, 0) {
		t.Fatalf("first write should always refresh")
	}
	if r.ShouldRefreshVRAM("p1", 1, 1) {
		t.Fatalf("unchanged hash within interval should not refresh")
	}
	if !r.ShouldRefreshVRAM("p1", 2, 2) {
		t.Fatalf("changed hash should refresh")
	}
	if !r.ShouldRefreshVRAM("p1", 2, 10) {
		t.Fatalf("8-frame periodic interval should force a refresh even with unchanged hash")
	}
}

func TestFlickerGraceHidesAfterTenFrames(t *testing.T) {
	r := NewRenderer(1)
	r.Touch("p1", 0)
	if r.ShouldHide("p1", 9) {
		t.Fatalf("should not hide before 10 frames of silence")
	}
	if !r.ShouldHide("p1", 10) {
		t.Fatalf("should hide once 10 frames of silence have elapsed")
	}
}

func TestSeamCacheTTLAndSettleGrace(t *testing.T) {
	c := NewSeamCache()
	x, y, ok := c.Resolve("p1", 0, 1.5, 2.5, true, false)
	if !ok || x != 1.5 || y != 2.5 {
		t.Fatalf("expected fresh projection to be stored and returned")
	}
	if _, _, ok := c.Resolve("p1", 2, 0, 0, false, false); !ok {
		t.Fatalf("expected cached value to serve within non-seam TTL of 2 frames")
	}
	if _, _, ok := c.Resolve("p1", 3, 0, 0, false, false); ok {
		t.Fatalf("expected cache to expire past non-seam TTL")
	}

	c2 := NewSeamCache()
	c2.Resolve("p1", 0, 1, 1, true, true)
	if _, _, ok := c2.Resolve("p1", 12, 0, 0, false, true); !ok {
		t.Fatalf("expected cache to survive within the 12-frame seam settle grace")
	}
	if _, _, ok := c2.Resolve("p1", 13, 0, 0, false, true); ok {
		t.Fatalf("expected cache to expire past the seam settle grace")
	}
}
