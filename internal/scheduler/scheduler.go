// Package scheduler drives one frame of the whole core: route inbound
// transport messages, sample local position/camera, step the
// interpolator, project and render ghosts, tick the duel flow and the
// battle controller, and poll the text-box injector (spec.md §4.J).
package scheduler

import (
	"github.com/linkcore/overlay-core/internal/battle"
	"github.com/linkcore/overlay-core/internal/camera"
	"github.com/linkcore/overlay-core/internal/config"
	"github.com/linkcore/overlay-core/internal/duel"
	"github.com/linkcore/overlay-core/internal/ghost"
	"github.com/linkcore/overlay-core/internal/interp"
	"github.com/linkcore/overlay-core/internal/memory"
	"github.com/linkcore/overlay-core/internal/textbox"
	"github.com/linkcore/overlay-core/internal/transport"
	"github.com/linkcore/overlay-core/internal/warp"
	"github.com/linkcore/overlay-core/pkg/log"
)

// LocalSample is what the embedder (or a small sampling helper the
// embedder calls into) reads from the local player's own memory each
// frame (spec.md §3 "Local player position").
type LocalSample struct {
	X, Y             int32
	CameraX, CameraY int16
	CameraValid      bool
	MapGroup, MapID  uint8
	Facing           uint8
	BorderX, BorderY uint16
	Connections      []config.Connection
	MetaStable       bool
	MetaHash         uint32
	MapRev           uint32

	// InOverworld is false while any other callback2 (battle, map load,
	// script) owns the frame; ghost rendering and position sampling
	// both gate on it (spec.md §4.J step 4).
	InOverworld bool
}

// Scheduler owns every other component and wires them together in the
// fixed per-frame order (spec.md §4.J, §3 "Ownership").
type Scheduler struct {
	gw   *memory.Gateway
	cfg  *config.AddressMap
	tp   transport.Adapter
	log  log.Logger

	camTracker *camera.Tracker
	interp     *interp.Interpolator
	renderer   *ghost.Renderer
	trust      *ghost.TrustTracker
	tb         *textbox.Injector
	duelMC     *duel.Machine
	warpEngine *warp.Engine
	battleC    *battle.Controller

	frame       uint64
	localID     string
	oamBase     uint32
	inBattle    bool
	warpPlaced  bool
}

// New wires a Scheduler over gw/cfg/tp. localID is this client's own
// player id, used to exclude itself from ghost rendering proximity
// checks. maxGhostSlots bounds the Ghost Renderer's OAM allocation.
func New(gw *memory.Gateway, cfg *config.AddressMap, tp transport.Adapter, logger log.Logger, localID string, maxGhostSlots int) *Scheduler {
	if logger == nil {
		logger = log.NewNullLogger()
	}
	tbAddrs := textbox.Addrs{
		ScriptLoad: cfg.BattleLink.ScriptLoad,
		ScriptData: cfg.BattleLink.ScriptData,
		TextData:   cfg.BattleLink.TextData,
		VarResult:  cfg.BattleLink.VarResult,
		Var8001:    cfg.BattleLink.Var8001,
	}
	tb := textbox.New(gw, tbAddrs)

	s := &Scheduler{
		gw:         gw,
		cfg:        cfg,
		tp:         tp,
		log:        logger,
		camTracker: camera.NewTracker(),
		interp:     interp.New(),
		renderer:   ghost.NewRenderer(maxGhostSlots),
		trust:      ghost.NewTrustTracker(),
		tb:         tb,
		duelMC:     duel.New(tb),
		warpEngine: warp.New(gw, cfg, logger),
		battleC:    battle.New(gw, cfg, tp, logger),
		localID:    localID,
		oamBase:    memory.Base(memory.OAM),
	}

	if tp != nil {
		tp.RegisterInbound(s.onInbound)
	}
	return s
}

// Battle exposes the owned Battle Controller so the embedder can read
// its stage/outcome or force it to reset.
func (s *Scheduler) Battle() *battle.Controller { return s.battleC }

// Duel exposes the owned Duel Machine's current state for UI purposes.
func (s *Scheduler) Duel() *duel.Machine { return s.duelMC }

// Interp exposes the Interpolator so a renderer frontend can read
// remote players' current positions.
func (s *Scheduler) Interp() *interp.Interpolator { return s.interp }

// StartBattle begins a battle once the embedder has obtained the
// opponent's party bytes through its own channel (spec.md §6 lists no
// wire message carrying raw party bytes; this hand-off is left to the
// embedder, matching §1's "configuration loading is out of scope").
func (s *Scheduler) StartBattle(isMaster bool, opponentParty [600]byte, nowUnixNano int64) bool {
	return s.battleC.Start(isMaster, opponentParty, nowUnixNano)
}

// onInbound is the Transport Adapter's single delivery point; messages
// are routed to their owning component before anything is ticked this
// frame (spec.md §5 "consumer-ordering").
func (s *Scheduler) onInbound(msg transport.Message) {
	switch msg.Type {
	case transport.TypePosition:
		if msg.Position != nil {
			s.routePosition(*msg.Position)
		}
	case transport.TypeDuelRequest:
		if msg.DuelRequest != nil {
			s.duelMC.OnIncomingRequest(msg.DuelRequest.TargetID, msg.DuelRequest.TargetID)
		}
	case transport.TypeDuelAccept:
		s.duelMC.OnAccepted()
	case transport.TypeDuelDecline, transport.TypeDuelDeclined:
		s.duelMC.OnDeclined()
	case transport.TypeDuelWarp:
		if msg.DuelWarp != nil {
			s.duelMC.OnWarp(*msg.DuelWarp)
		}
	case transport.TypeDuelStage:
		if msg.DuelStage != nil {
			if stage, ok := msg.DuelStage.Stage.(string); ok && stage == "mainloop_ready" {
				s.battleC.OnRemoteMainloopReady()
			}
		}
	case transport.TypeBufferCmd:
		if msg.BufferCmd != nil {
			c := msg.BufferCmd
			s.battleC.OnBufferCmd(c.Battler, c.BufA, c.BufB, c.Ctx)
		}
	case transport.TypeBufferResp:
		if msg.BufferResp != nil {
			s.battleC.OnBufferResp(msg.BufferResp.Battler, msg.BufferResp.BufB)
		}
	case transport.TypeBufferAck:
		if msg.BufferAck != nil {
			s.battleC.OnBufferAck(msg.BufferAck.Battler)
		}
	}
}

func (s *Scheduler) routePosition(p transport.Position) {
	pos := interp.Position{
		X: float32(p.X), Y: float32(p.Y),
		MapGroup: p.MapGroup, MapID: p.MapID,
		Facing:   p.Facing,
		MapRev:   p.MapRev,
		MetaStable: p.MetaStable,
		MetaHash:   p.MetaHash,
	}
	if p.BorderX != nil {
		pos.BorderX = *p.BorderX
	}
	if p.BorderY != nil {
		pos.BorderY = *p.BorderY
	}
	for _, c := range p.Connections {
		pos.Connections = append(pos.Connections, config.Connection{
			Direction: directionFromWire(c.Direction),
			Offset:    c.Offset,
			MapGroup:  c.MapGroup,
			MapID:     c.MapID,
		})
	}
	if p.TransitionFrom != nil {
		pos.TransitionFrom = &interp.TransitionPoint{
			MapGroup: p.TransitionFrom.MapGroup,
			MapID:    p.TransitionFrom.MapID,
			X:        p.TransitionFrom.X,
			Y:        p.TransitionFrom.Y,
		}
	}
	pos.TransitionKind = transitionKindFromWire(p.TransitionKind)

	var ts *uint64
	if p.TimeMS != 0 {
		t := p.TimeMS
		ts = &t
	}
	if p.PlayerID == "" || p.PlayerID == s.localID {
		return
	}
	s.interp.Update(p.PlayerID, pos, ts, nil)
}

func directionFromWire(d string) config.Direction {
	switch d {
	case "N":
		return config.North
	case "S":
		return config.South
	case "W":
		return config.West
	case "E":
		return config.East
	default:
		return config.North
	}
}

func transitionKindFromWire(k string) interp.TransitionKind {
	switch k {
	case "seam_connected":
		return interp.TransitionSeamConnected
	case "likely_seam":
		return interp.TransitionLikelySeam
	default:
		return interp.TransitionNone
	}
}

