package ghost

import "github.com/linkcore/overlay-core/internal/memory"

// oamEntryStride is one GBA OAM entry's byte size: three packed
// attribute halfwords plus a two-byte rotation/scale parameter index,
// unused by these sprites.
const oamEntryStride = 8

// oamDisableBit0 is attr0's OBJ-disable bit (rotation/scaling off, OBJ
// disable on) — the standard way to hide a sprite without touching its
// slot assignment.
const oamDisableBit0 = 1 << 9

// DrawInput is the per-frame, per-player data the Renderer needs to
// produce one ghost's OAM/VRAM/palette writes. Sprite pixel decoding is
// out of scope (§1 Non-goals); TileData is the embedder's already-4bpp-
// encoded tile bytes for whichever frame of animation is current.
type DrawInput struct {
	PlayerID         string
	ScreenX, ScreenY int32
	Width, Height    int32
	HFlip, VFlip     bool
	BackPriority     Priority
	NativePalBank    *uint8
	SpriteHash       uint64
	TileData         []byte
	VRAMAddr         uint32
	TileIndex        uint16
}

// Draw resolves one visible ghost's writes for the current frame: OAM
// slot assignment, palette assignment, occlusion/front hysteresis, and
// conditional VRAM tile refresh (spec.md §4.E "OAM/VRAM injection").
// ok is false only when no OAM slot remains.
func (r *Renderer) Draw(gw *memory.Gateway, oamBase uint32, frame uint64, in DrawInput, desiredFront bool) (rec Record, ok bool) {
	slot, ok := r.AssignSlot(in.PlayerID)
	if !ok {
		return Record{}, false
	}
	r.Touch(in.PlayerID, frame)

	priority := in.BackPriority
	front := r.UpdateFrontDesire(in.PlayerID, desiredFront, frame)
	if front {
		priority = Front
	}

	palBank := r.AssignPalette(in.PlayerID, in.NativePalBank)

	hash := in.SpriteHash
	if len(in.TileData) > 0 {
		hash = HashTileData(in.TileData)
		if r.ShouldRefreshVRAM(in.PlayerID, hash, frame) {
			gw.WriteRange(memory.VRAM, in.VRAMAddr, in.TileData)
		}
	}

	shape, size := ShapeSize(in.Width, in.Height)
	attr0 := PackAttr0(in.ScreenY, shape)
	attr1 := PackAttr1(in.ScreenX, in.HFlip, in.VFlip, size)
	attr2 := PackAttr2(in.TileIndex, priority, palBank)

	entry := oamBase + uint32(slot)*oamEntryStride
	gw.WriteU16(memory.OAM, entry, attr0)
	gw.WriteU16(memory.OAM, entry+2, attr1)
	gw.WriteU16(memory.OAM, entry+4, attr2)

	return Record{
		PlayerID:   in.PlayerID,
		VRAMSlot:   slot,
		PalBank:    palBank,
		Attr0:      attr0,
		Attr1:      attr1,
		Attr2:      attr2,
		SpriteHash: hash,
		Front:      front,
	}, true
}

// Hide disables playerID's OAM entry in place, keeping its slot
// reserved so a brief packet drop doesn't cause a slot reassignment
// (spec.md §4.E "Grace for flicker" — callers gate this on ShouldHide).
func (r *Renderer) Hide(gw *memory.Gateway, oamBase uint32, playerID string) {
	slot, ok := r.assigned[playerID]
	if !ok {
		return
	}
	entry := oamBase + uint32(slot)*oamEntryStride
	gw.WriteU16(memory.OAM, entry, oamDisableBit0)
}
