package interp

import (
	"container/list"

	"github.com/linkcore/overlay-core/internal/config"
)

// Constants from spec.md §4.D.
const (
	MaxQueueSize        = 1000
	TeleportThreshold   = 10
	DefaultDurationMS   = 266.0
	MinVisualDurationMS = 64.0
	jitterPadding       = 1.08
	fusionRadius        = 2
)

type mapKey struct {
	mapGroup, mapID uint8
	mapRev          uint32
}

// connCache is what the interpolator remembers about a map's projection
// metadata once a packet has carried it (spec.md §4.D "Metadata caching").
type connCache struct {
	borderX, borderY uint16
	connections      []config.Connection
}

type playerState struct {
	current   Waypoint
	everMoved bool
	queue     *list.List // of *Waypoint
	animFrom  *Waypoint
	animElapsedMS float64
	animProgress  float32
	state     State

	lastMoveTimestampMS *uint64
	metaByMapRev        map[mapKey]connCache
}

// Interpolator owns one playerState per remote player. It is the sole
// owner of that state (spec.md §3 Ownership).
type Interpolator struct {
	players map[string]*playerState
}

// New returns an empty Interpolator.
func New() *Interpolator {
	return &Interpolator{players: make(map[string]*playerState)}
}

func (ip *Interpolator) get(playerID string) *playerState {
	ps, ok := ip.players[playerID]
	if !ok {
		ps = &playerState{
			queue:        list.New(),
			state:        Idle,
			metaByMapRev: make(map[mapKey]connCache),
		}
		ip.players[playerID] = ps
	}
	return ps
}

// Remove discards a player's interpolation state (spec.md §3 Lifecycle:
// "destroyed on explicit removal or disconnect").
func (ip *Interpolator) Remove(playerID string) {
	delete(ip.players, playerID)
}

// StateOf returns the coarse interpolation state of playerID.
func (ip *Interpolator) StateOf(playerID string) (State, bool) {
	ps, ok := ip.players[playerID]
	if !ok {
		return Idle, false
	}
	return ps.state, true
}

// AnimProgress returns the current segment's [0,1) progress and whether a
// segment is in progress at all (spec.md §8 invariant 1).
func (ip *Interpolator) AnimProgress(playerID string) (progress float32, inProgress bool) {
	ps, ok := ip.players[playerID]
	if !ok {
		return 0, false
	}
	return ps.animProgress, ps.animFrom != nil
}

// PlayerIDs returns every remote player id currently tracked, in no
// particular order. Used by callers (the Frame Scheduler) that need to
// iterate all ghosts for a frame rather than look one up by id.
func (ip *Interpolator) PlayerIDs() []string {
	ids := make([]string, 0, len(ip.players))
	for id := range ip.players {
		ids = append(ids, id)
	}
	return ids
}

// PositionOf returns the current render Waypoint for playerID.
func (ip *Interpolator) PositionOf(playerID string) (Waypoint, bool) {
	ps, ok := ip.players[playerID]
	if !ok {
		return Waypoint{}, false
	}
	return ps.current, true
}
