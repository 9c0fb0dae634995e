// Package interp consumes remote-player position packets at whatever rate
// the network delivers them — including the 250x emulator speedhack — and
// smooths them into a per-frame render position (spec.md §4.D).
package interp

import "github.com/linkcore/overlay-core/internal/config"

// TransitionKind classifies how a cross-map position update relates to a
// map-border connection (spec.md §3 Waypoint).
type TransitionKind uint8

const (
	TransitionNone TransitionKind = iota
	TransitionLikelySeam
	TransitionSeamConnected
)

// State is the coarse interpolation state of one remote player.
type State uint8

const (
	Idle State = iota
	Interpolating
)

// TransitionPoint is the map/tile the player was at immediately before a
// seam crossing, used by the Ghost Projector to blend the visual step.
type TransitionPoint struct {
	MapGroup, MapID uint8
	X, Y            float32
}

// Position is one packet as received from the network for a remote
// player (spec.md §6 "position" message, already decoded).
type Position struct {
	X, Y             float32
	MapGroup, MapID  uint8
	Facing           uint8
	MapRev           uint32
	MetaStable       bool
	MetaHash         uint32
	BorderX, BorderY uint16
	Connections      []config.Connection
	TransitionFrom   *TransitionPoint
	TransitionKind   TransitionKind
}

// hasMetadata reports whether pos itself carries projection metadata, as
// opposed to relying on the interpolator's per-map-rev cache.
func (p Position) hasMetadata() bool {
	return p.BorderX != 0 || p.BorderY != 0 || p.Connections != nil
}

// Waypoint is one queued (or current) render target for a remote player
// (spec.md §3 Waypoint).
type Waypoint struct {
	X, Y             float32
	MapGroup, MapID  uint8
	Facing           uint8
	MapRev           uint32
	MetaStable       bool
	MetaHash         uint32
	BorderX, BorderY uint16
	Connections      []config.Connection

	TransitionFrom     *TransitionPoint
	TransitionKind     TransitionKind
	CrossMapSeam       bool
	TransitionProgress float32

	DurationMS float64
}

// outOfBounds reports whether the waypoint's own (x,y) lies outside its
// own map's border rectangle — the condition seam-fusion looks for on a
// queue tail (spec.md §4.D "Seam continuation fusion").
func (w *Waypoint) outOfBounds() bool {
	if w.BorderX == 0 && w.BorderY == 0 {
		return false
	}
	return w.X < 0 || w.Y < 0 || w.X >= float32(w.BorderX) || w.Y >= float32(w.BorderY)
}

func manhattan(ax, ay, bx, by float32) float32 {
	dx := ax - bx
	if dx < 0 {
		dx = -dx
	}
	dy := ay - by
	if dy < 0 {
		dy = -dy
	}
	return dx + dy
}

func lerp(a, b, t float32) float32 {
	return a + (b-a)*t
}
