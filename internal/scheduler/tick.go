package scheduler

import (
	"github.com/linkcore/overlay-core/internal/battle"
	"github.com/linkcore/overlay-core/internal/camera"
	"github.com/linkcore/overlay-core/internal/duel"
	"github.com/linkcore/overlay-core/internal/ghost"
	"github.com/linkcore/overlay-core/internal/interp"
	"github.com/linkcore/overlay-core/internal/warp"
)

// Buttons is the subset of controller input the duel flow reacts to
// (spec.md §4.H).
type Buttons struct {
	APressed, AReleased bool
	BPressed            bool
	Up, Down            bool
}

// GhostSprite is the embedder-supplied per-player sprite metadata the
// Ghost Renderer needs to draw a remote player this frame. Sprite pixel
// decoding itself stays the embedder's job (§1 Non-goals).
type GhostSprite struct {
	Width, Height int32
	HFlip, VFlip  bool
	NativePalBank *uint8
	SpriteHash    uint64
	TileData      []byte
	VRAMAddr      uint32
	TileIndex     uint16
}

// Tick drives one frame in the order spec.md §4.J fixes. Inbound
// transport messages are assumed already delivered via onInbound before
// Tick runs (spec.md §5 "consumer-ordering"); this only advances the
// ticked components. spriteOf supplies sprite metadata for a remote
// player id, or false to skip drawing it this frame.
func (s *Scheduler) Tick(local LocalSample, dtMS float64, btn Buttons, nowUnixNano int64, spriteOf func(playerID string) (GhostSprite, bool)) []duel.Action {
	s.frame++

	off := s.camTracker.Update(camera.Input{
		PlayerX: local.X, PlayerY: local.Y,
		CameraX: local.CameraX, CameraY: local.CameraY,
		CameraValid: local.CameraValid,
		MapGroup:    local.MapGroup, MapID: local.MapID,
	})
	s.interp.Step(dtMS)

	if local.InOverworld && !s.inBattle {
		s.renderGhosts(local, off, spriteOf)
	}

	actions := s.duelMC.Tick(s.duelInput(local, btn))
	for _, a := range actions {
		s.applyDuelAction(a)
	}

	stage := s.battleC.Stage()
	if stage != battle.Idle && stage != battle.Done {
		s.battleC.Tick(nowUnixNano)
		s.inBattle = s.battleC.Stage() != battle.Done
	} else {
		s.inBattle = false
	}

	return actions
}

// RemovePlayer tears down a disconnected remote player's interpolation
// and render state (spec.md §3 Lifecycle "destroyed on explicit removal
// or disconnect").
func (s *Scheduler) RemovePlayer(playerID string) {
	s.interp.Remove(playerID)
	s.renderer.ReleaseSlot(playerID)
}

func (s *Scheduler) duelInput(local LocalSample, btn Buttons) duel.Input {
	in := duel.Input{
		Frame:      s.frame,
		LocalX:     local.X,
		LocalY:     local.Y,
		APressed:   btn.APressed,
		AReleased:  btn.AReleased,
		BPressed:   btn.BPressed,
		Up:         btn.Up,
		Down:       btn.Down,
	}
	for _, id := range s.interp.PlayerIDs() {
		wp, ok := s.interp.PositionOf(id)
		if !ok || wp.MapGroup != local.MapGroup || wp.MapID != local.MapID {
			continue
		}
		// No wire message carries a stable display name keyed by player
		// id (duel_player_info is scoped to the active duel partner, not
		// a directory); the id doubles as the name shown in challenge
		// prompts until the embedder wires a richer roster.
		in.Ghosts = append(in.Ghosts, duel.GhostPosition{PlayerID: id, PlayerName: id, X: int32(wp.X), Y: int32(wp.Y)})
	}
	return in
}

func (s *Scheduler) applyDuelAction(a duel.Action) {
	switch a.Kind {
	case duel.ActionSend:
		if s.tp != nil {
			if err := s.tp.Send(a.MessageType, a.Payload); err != nil {
				s.log.Errorf("scheduler: send %s failed: %v", a.MessageType, err)
			}
		}
	case duel.ActionWarp:
		if !s.warpPlaced {
			s.warpPlaced = s.warpEngine.Place(s.cfg.LoadCurrentMapData)
		}
		dest := warp.Destination{
			MapGroup: a.Warp.MapGroup,
			MapID:    a.Warp.MapID,
			X:        uint16(a.Warp.X),
			Y:        uint16(a.Warp.Y),
		}
		if !s.warpPlaced || !s.warpEngine.Execute(dest) {
			s.log.Errorf("scheduler: warp execute failed")
		}
	case duel.ActionStartBattle:
		s.log.Infof("scheduler: duel requested battle start for %s (handled by embedder once party bytes arrive)", a.OpponentID)
	}
}

func (s *Scheduler) renderGhosts(local LocalSample, off camera.Offset, spriteOf func(string) (GhostSprite, bool)) {
	localView := ghost.MapView{
		MapGroup: local.MapGroup, MapID: local.MapID,
		BorderX: local.BorderX, BorderY: local.BorderY,
		Connections: local.Connections,
	}

	for _, id := range s.interp.PlayerIDs() {
		wp, ok := s.interp.PositionOf(id)
		if !ok {
			continue
		}
		gx, gy, projected := s.projectWaypoint(id, localView, wp)
		if !projected {
			if s.renderer.ShouldHide(id, s.frame) {
				s.renderer.Hide(s.gw, s.oamBase, id)
			}
			continue
		}

		sprite, have := spriteOf(id)
		if !have {
			continue
		}

		sx, sy := ghost.ScreenPosition(float32(local.X), float32(local.Y), gx, gy)
		sx += off.SubX
		sy += off.SubY

		desiredFront := gy > float32(local.Y)
		s.renderer.Draw(s.gw, s.oamBase, s.frame, ghost.DrawInput{
			PlayerID: id,
			ScreenX:  sx, ScreenY: sy,
			Width: sprite.Width, Height: sprite.Height,
			HFlip: sprite.HFlip, VFlip: sprite.VFlip,
			BackPriority:  ghost.Back,
			NativePalBank: sprite.NativePalBank,
			SpriteHash:    sprite.SpriteHash,
			TileData:      sprite.TileData,
			VRAMAddr:      sprite.VRAMAddr,
			TileIndex:     sprite.TileIndex,
		}, desiredFront)
	}
}

// projectWaypoint resolves one ghost's local-tile-space position,
// covering the same-map identity, direct cross-map connection, the
// trust-gated fallback connection, and the seam blend (spec.md §4.E).
func (s *Scheduler) projectWaypoint(id string, localView ghost.MapView, wp interp.Waypoint) (x, y float32, ok bool) {
	remoteView := ghost.MapView{
		MapGroup: wp.MapGroup, MapID: wp.MapID,
		BorderX: wp.BorderX, BorderY: wp.BorderY,
		Connections: wp.Connections,
	}

	duringSeam := wp.CrossMapSeam && wp.TransitionProgress > 0 && wp.TransitionProgress < 1 && wp.TransitionFrom != nil
	if duringSeam {
		toX, toY, toOK := ghost.Project(localView, remoteView, wp.X, wp.Y)
		if !toOK {
			toX, toY, toOK = s.trustedFallback(localView, remoteView, wp)
		}
		fromX, fromY, fromOK := ghost.Project(localView,
			ghost.MapView{MapGroup: wp.TransitionFrom.MapGroup, MapID: wp.TransitionFrom.MapID, BorderX: wp.BorderX, BorderY: wp.BorderY, Connections: wp.Connections},
			wp.TransitionFrom.X, wp.TransitionFrom.Y)
		if !fromOK && toOK {
			dx := toX - wp.TransitionFrom.X
			dy := toY - wp.TransitionFrom.Y
			fromX, fromY, fromOK = toX-dx, toY-dy, true
		}
		if toOK && fromOK {
			t := wp.TransitionProgress
			bx := fromX + (toX-fromX)*t
			by := fromY + (toY-fromY)*t
			return s.renderer.Seam.Resolve(id, s.frame, bx, by, true, true)
		}
		return s.renderer.Seam.Resolve(id, s.frame, 0, 0, false, true)
	}

	gx, gy, pOK := ghost.Project(localView, remoteView, wp.X, wp.Y)
	if !pOK {
		gx, gy, pOK = s.trustedFallback(localView, remoteView, wp)
	}
	return s.renderer.Seam.Resolve(id, s.frame, gx, gy, pOK, false)
}

func (s *Scheduler) trustedFallback(localView, remoteView ghost.MapView, wp interp.Waypoint) (x, y float32, ok bool) {
	if !s.trust.Observe(wp.MapRev, wp.MetaHash, wp.MetaStable) {
		return 0, 0, false
	}
	return ghost.ProjectFallback(localView, remoteView, wp.X, wp.Y)
}
