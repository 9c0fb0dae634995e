package ghost

import "github.com/linkcore/overlay-core/internal/camera"

// screenOriginX/Y is the fixed screen-space anchor a local-tile-space
// position is mapped onto: the local player always draws at this pixel
// (spec.md §4.E "screen mapping").
const (
	screenOriginX = 112
	screenOriginY = 72

	vramRefreshFrames   = 8
	flickerGraceFrames  = 10
	frontEnableFrames   = 2
	frontDisableFrames  = 6
	seamCacheTTL        = 2
	seamCacheSettleGrace = 12
)

var reservedPalBanks = [3]uint8{13, 14, 15}

// ScreenPosition maps a local-tile-space position, relative to the local
// player's own tile position, onto screen pixels.
func ScreenPosition(localX, localY, ghostX, ghostY float32) (x, y int32) {
	dx := (ghostX - localX) * camera.Tile
	dy := (ghostY - localY) * camera.Tile
	return screenOriginX + int32(dx), screenOriginY + int32(dy)
}

// Record is one player's fully-resolved render state for the current
// frame: OAM attribute words plus the bookkeeping the Renderer needs to
// decide whether to rewrite them.
type Record struct {
	PlayerID    string
	VRAMSlot    int
	PalBank     uint8
	Attr0, Attr1, Attr2 uint16
	SpriteHash  uint64
	Front       bool
	Hidden      bool
}

type slotPalette struct {
	native  *uint8
	bank    uint8
	sticky  bool
}

type frontState struct {
	desireStreak int
	active       bool
	endedAtFrame uint64
	haveEndedAt  bool
}

type seamEntry struct {
	x, y  float32
	frame uint64
}

// SeamCache smooths over single-frame projection failures at a seam
// crossing, holding the last good blended position for a short TTL
// rather than letting the sprite flash out (spec.md §4.E "seam blend
// cache").
type SeamCache struct {
	entries map[string]seamEntry
}

// NewSeamCache returns an empty SeamCache.
func NewSeamCache() *SeamCache {
	return &SeamCache{entries: make(map[string]seamEntry)}
}

// Resolve records a successful projection, or serves a cached one for up
// to the applicable TTL when the current frame's projection failed.
// duringSeam extends the TTL from 2 frames to the 12-frame settle grace,
// since seam transitions are exactly where single-frame gaps happen.
func (c *SeamCache) Resolve(playerID string, frame uint64, x, y float32, ok, duringSeam bool) (float32, float32, bool) {
	if ok {
		c.entries[playerID] = seamEntry{x: x, y: y, frame: frame}
		return x, y, true
	}
	e, found := c.entries[playerID]
	if !found {
		return 0, 0, false
	}
	ttl := uint64(seamCacheTTL)
	if duringSeam {
		ttl = seamCacheSettleGrace
	}
	if frame-e.frame > ttl {
		return 0, 0, false
	}
	return e.x, e.y, true
}

// Renderer owns OAM slot, palette, and front/back hysteresis state for
// every tracked ghost sprite (spec.md §4.E).
type Renderer struct {
	maxSlots int
	assigned map[string]int
	freeSlots []int

	palettes map[string]*slotPalette
	nextReservedIdx int

	front map[string]*frontState

	lastWriteFrame map[string]uint64
	lastHash       map[string]uint64
	lastSeenFrame  map[string]uint64

	Seam *SeamCache
}

// NewRenderer returns a Renderer with maxSlots OAM slots to allocate from.
func NewRenderer(maxSlots int) *Renderer {
	free := make([]int, maxSlots)
	for i := range free {
		free[i] = i
	}
	return &Renderer{
		maxSlots:       maxSlots,
		assigned:       make(map[string]int),
		freeSlots:      free,
		palettes:       make(map[string]*slotPalette),
		front:          make(map[string]*frontState),
		lastWriteFrame: make(map[string]uint64),
		lastHash:       make(map[string]uint64),
		lastSeenFrame:  make(map[string]uint64),
		Seam:           NewSeamCache(),
	}
}

// AssignSlot gives playerID an OAM slot, reusing one already held.
func (r *Renderer) AssignSlot(playerID string) (slot int, ok bool) {
	if s, have := r.assigned[playerID]; have {
		return s, true
	}
	if len(r.freeSlots) == 0 {
		return 0, false
	}
	s := r.freeSlots[len(r.freeSlots)-1]
	r.freeSlots = r.freeSlots[:len(r.freeSlots)-1]
	r.assigned[playerID] = s
	return s, true
}

// ReleaseSlot returns playerID's OAM slot to the free pool and clears its
// render bookkeeping.
func (r *Renderer) ReleaseSlot(playerID string) {
	if s, ok := r.assigned[playerID]; ok {
		r.freeSlots = append(r.freeSlots, s)
		delete(r.assigned, playerID)
	}
	delete(r.palettes, playerID)
	delete(r.front, playerID)
	delete(r.lastWriteFrame, playerID)
	delete(r.lastHash, playerID)
	delete(r.lastSeenFrame, playerID)
}

// AssignPalette returns playerID's palette bank, preferring its native
// bank (the bank its own sprite tiles were authored against) and
// otherwise round-robining across the three reserved overlay banks
// {13,14,15}; the choice is sticky for the player's lifetime.
func (r *Renderer) AssignPalette(playerID string, native *uint8) uint8 {
	if p, ok := r.palettes[playerID]; ok {
		return p.bank
	}
	var bank uint8
	if native != nil {
		bank = *native
	} else {
		bank = reservedPalBanks[r.nextReservedIdx%len(reservedPalBanks)]
		r.nextReservedIdx++
	}
	r.palettes[playerID] = &slotPalette{native: native, bank: bank, sticky: true}
	return bank
}

// UpdateFrontDesire applies the force_overlay_front hysteresis rule:
// two consecutive desiring frames to enable, six frames after desire
// ends to disable, so a single flickering frame doesn't visibly pop the
// sprite across the overworld layer boundary.
func (r *Renderer) UpdateFrontDesire(playerID string, desired bool, frame uint64) bool {
	fs, ok := r.front[playerID]
	if !ok {
		fs = &frontState{}
		r.front[playerID] = fs
	}

	if desired {
		fs.desireStreak++
		fs.haveEndedAt = false
		if fs.desireStreak >= frontEnableFrames {
			fs.active = true
		}
		return fs.active
	}

	fs.desireStreak = 0
	if !fs.active {
		return false
	}
	if !fs.haveEndedAt {
		fs.endedAtFrame = frame
		fs.haveEndedAt = true
	}
	if frame-fs.endedAtFrame >= frontDisableFrames {
		fs.active = false
	}
	return fs.active
}

// ShouldRefreshVRAM reports whether the sprite's tile data should be
// rewritten this frame: its content hash changed, or the periodic
// refresh interval elapsed regardless (guards against a missed write
// leaving stale tiles on screen indefinitely).
func (r *Renderer) ShouldRefreshVRAM(playerID string, hash uint64, frame uint64) bool {
	lastHash, hadHash := r.lastHash[playerID]
	lastFrame := r.lastWriteFrame[playerID]
	refresh := !hadHash || lastHash != hash || frame-lastFrame >= vramRefreshFrames
	if refresh {
		r.lastHash[playerID] = hash
		r.lastWriteFrame[playerID] = frame
	}
	return refresh
}

// Touch marks playerID as seen this frame, resetting its flicker-grace
// clock.
func (r *Renderer) Touch(playerID string, frame uint64) {
	r.lastSeenFrame[playerID] = frame
}

// ShouldHide reports whether playerID has gone unseen long enough that
// its slot should be hidden (not yet released) to avoid flicker from a
// transient drop in packets.
func (r *Renderer) ShouldHide(playerID string, frame uint64) bool {
	last, ok := r.lastSeenFrame[playerID]
	if !ok {
		return true
	}
	return frame-last >= flickerGraceFrames
}
