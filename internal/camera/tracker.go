// Package camera derives the local player's sub-tile screen offset from
// their tile coordinates and the engine's camera registers (spec.md §4.C).
package camera

// Tile is the GBA overworld tile size in pixels.
const Tile = 16

// WarmupFrames is the number of frames a freshly-entered map publishes a
// zero offset while the tracker only records the baseline (spec.md §4.C
// step 2).
const WarmupFrames = 2

// teleportDelta is the tile-coordinate jump beyond which a frame-to-frame
// move is treated as a teleport rather than a step, resetting offsets
// (spec.md §4.C step 3).
const teleportDelta = 2

// Input is what the Frame Scheduler samples every frame and feeds to the
// tracker.
type Input struct {
	PlayerX, PlayerY   int32
	CameraX, CameraY   int16
	CameraValid        bool
	MapGroup, MapID    uint8
}

// Offset is the tracker's per-frame output: the sub-tile pixel offset to
// add to the player's screen-space draw position.
type Offset struct {
	SubX, SubY int32
}

// Tracker holds one local player's camera-tracking state across frames.
type Tracker struct {
	subX, subY       int32
	stepDirX, stepDirY int32

	haveBaseline bool
	lastX, lastY int32
	curMapGroup, curMapID uint8
	warmup       int
}

// NewTracker returns a Tracker with no baseline recorded yet; the first
// Update call arms the warm-up period as if a map had just been entered.
func NewTracker() *Tracker {
	t := &Tracker{}
	t.warmup = WarmupFrames
	return t
}

// Update advances the tracker by one frame and returns the published
// sub-tile offset, following the algorithm in spec.md §4.C.
func (t *Tracker) Update(in Input) Offset {
	// Step 1: camera bytes unavailable resets everything to zero.
	if !in.CameraValid {
		t.reset()
		return Offset{}
	}

	// Step 2: entering a new map arms the warm-up.
	if !t.haveBaseline || in.MapGroup != t.curMapGroup || in.MapID != t.curMapID {
		t.haveBaseline = true
		t.curMapGroup = in.MapGroup
		t.curMapID = in.MapID
		t.lastX, t.lastY = in.PlayerX, in.PlayerY
		t.subX, t.subY = 0, 0
		t.stepDirX, t.stepDirY = 0, 0
		t.warmup = WarmupFrames
	}

	if t.warmup > 0 {
		t.warmup--
		t.lastX, t.lastY = in.PlayerX, in.PlayerY
		return Offset{}
	}

	// Step 3: phase from camera registers.
	phaseX := mod16(256 - mod256(int32(in.CameraX)))
	phaseY := mod16(256 - mod256(int32(in.CameraY)))

	dx := in.PlayerX - t.lastX
	dy := in.PlayerY - t.lastY

	t.axis(dx, phaseX, &t.stepDirX)
	t.axis(dy, phaseY, &t.stepDirY)

	t.lastX, t.lastY = in.PlayerX, in.PlayerY

	// Step 4: publish remaining step magnitude for the active axis.
	t.subX = remaining(t.stepDirX, phaseX)
	t.subY = remaining(t.stepDirY, phaseY)

	return Offset{SubX: t.subX, SubY: t.subY}
}

// axis updates dir for one axis given the frame's tile delta and phase,
// implementing spec.md §4.C steps 3 and 5.
func (t *Tracker) axis(delta, phase int32, dir *int32) {
	switch {
	case delta > teleportDelta || delta < -teleportDelta:
		// teleport: reset this axis entirely.
		*dir = 0
	case delta > 0:
		*dir = 1
	case delta < 0:
		*dir = -1
	case delta == 0 && phase == 0:
		// step 5: clear direction once the tile boundary is crossed.
		*dir = 0
	}
}

func remaining(dir, phase int32) int32 {
	switch {
	case dir > 0:
		return Tile - phase
	case dir < 0:
		return phase
	default:
		return 0
	}
}

func (t *Tracker) reset() {
	t.subX, t.subY = 0, 0
	t.stepDirX, t.stepDirY = 0, 0
	t.haveBaseline = false
}

func mod16(v int32) int32 {
	m := v % Tile
	if m < 0 {
		m += Tile
	}
	return m
}

func mod256(v int32) int32 {
	const m = 256
	r := v % m
	if r < 0 {
		r += m
	}
	return r
}
