// Package ghost projects a remote player's (map, x, y) into the local
// camera's tile space and drives the OAM/VRAM/palette writes that make
// them visible as a sprite (spec.md §4.E).
package ghost

import "github.com/linkcore/overlay-core/internal/config"

// MapView is the border/connection metadata Project needs about one side
// of a projection (either the local map or the remote one).
type MapView struct {
	MapGroup, MapID uint8
	BorderX, BorderY uint16
	Connections      []config.Connection
}

// Project maps a remote tile position into the local map's tile space.
// Same-map projection is the identity (spec.md §8 invariant 2). Cross-map
// projection looks for a local connection pointing at the remote map and
// applies the matching direction formula (spec.md §4.E).
func Project(local MapView, remote MapView, rx, ry float32) (x, y float32, ok bool) {
	if local.MapGroup == remote.MapGroup && local.MapID == remote.MapID {
		return rx, ry, true
	}
	for _, c := range local.Connections {
		if c.MapGroup != remote.MapGroup || c.MapID != remote.MapID {
			continue
		}
		return applyDirection(c.Direction, float32(c.Offset), rx, ry, local.BorderX, local.BorderY, remote.BorderX, remote.BorderY), true
	}
	return 0, 0, false
}

func applyDirection(dir config.Direction, offset, rx, ry float32, localBX, localBY, remoteBX, remoteBY uint16) (x, y float32) {
	switch dir {
	case config.North:
		return rx + offset, ry + float32(localBY)
	case config.South:
		return rx + offset, ry - float32(remoteBY)
	case config.West:
		return rx - float32(remoteBX), ry + offset
	case config.East:
		return rx + float32(localBX), ry + offset
	}
	return rx, ry
}

func opposite(d config.Direction) config.Direction {
	switch d {
	case config.North:
		return config.South
	case config.South:
		return config.North
	case config.West:
		return config.East
	case config.East:
		return config.West
	}
	return d
}

// ProjectFallback implements the disabled-by-default fallback: a
// connection recorded on the REMOTE map that points back at the local
// map, used when the local map's own connection table doesn't have the
// matching entry. Gated by TrustTracker — callers must check Observe
// before calling this (spec.md §4.E).
func ProjectFallback(local MapView, remote MapView, rx, ry float32) (x, y float32, ok bool) {
	for _, c := range remote.Connections {
		if c.MapGroup != local.MapGroup || c.MapID != local.MapID {
			continue
		}
		mirror := opposite(c.Direction)
		return applyDirection(mirror, float32(c.Offset), rx, ry, local.BorderX, local.BorderY, remote.BorderX, remote.BorderY), true
	}
	return 0, 0, false
}

// TrustTracker implements the metadata-trust predicate gating
// ProjectFallback: meta_stable, no more than two consecutive meta_hash
// mismatches for a given map_rev, and the map_rev not already flagged
// "ignored" by prior mismatches.
type TrustTracker struct {
	states map[uint32]*trustState
}

type trustState struct {
	lastHash            uint32
	hasLast              bool
	consecutiveMismatch  int
	ignored              bool
}

// NewTrustTracker returns an empty TrustTracker.
func NewTrustTracker() *TrustTracker {
	return &TrustTracker{states: make(map[uint32]*trustState)}
}

// Observe records one packet's (map_rev, meta_hash, meta_stable) and
// reports whether the fallback projection may currently be trusted for
// that map_rev.
func (tt *TrustTracker) Observe(mapRev uint32, metaHash uint32, metaStable bool) bool {
	st, ok := tt.states[mapRev]
	if !ok {
		st = &trustState{}
		tt.states[mapRev] = st
	}

	if st.hasLast && st.lastHash != metaHash {
		st.consecutiveMismatch++
		if st.consecutiveMismatch > 2 {
			st.ignored = true
		}
	} else {
		st.consecutiveMismatch = 0
	}
	st.lastHash = metaHash
	st.hasLast = true

	return metaStable && !st.ignored && st.consecutiveMismatch <= 2
}
