package battle

import (
	"github.com/linkcore/overlay-core/internal/config"
	"github.com/linkcore/overlay-core/internal/memory"
	"github.com/linkcore/overlay-core/internal/transport"
	"github.com/linkcore/overlay-core/pkg/log"
)

const (
	startingTimeoutSeconds = 45
	endingTimeoutFrames    = 90
)

// Controller owns one battle session's full lifecycle (spec.md §4.I).
type Controller struct {
	gw  *memory.Gateway
	cfg *config.AddressMap
	tp  transport.Adapter
	log log.Logger

	state State
}

// New returns an idle Controller.
func New(gw *memory.Gateway, cfg *config.AddressMap, tp transport.Adapter, logger log.Logger) *Controller {
	if logger == nil {
		logger = log.NewNullLogger()
	}
	return &Controller{gw: gw, cfg: cfg, tp: tp, log: logger, state: State{Stage: Idle}}
}

// Stage returns the controller's current lifecycle stage.
func (c *Controller) Stage() Stage { return c.state.Stage }

// Outcome returns the finished battle's decoded outcome, if any.
func (c *Controller) Outcome() *Outcome { return c.state.CachedOutcome }

// Start begins a battle session, applying patches and transitioning to
// Starting (spec.md §4.I "Start"). Preconditions (master/slave agreed,
// opponent party received) are the caller's responsibility.
func (c *Controller) Start(isMaster bool, opponentParty [600]byte, nowUnixNano int64) bool {
	if c.state.Stage != Idle {
		c.log.Errorf("battle: Start called while stage=%s", c.state.Stage)
		return false
	}

	c.state = State{Stage: Idle, IsMaster: isMaster}
	c.state.OpponentParty = new([600]byte)
	*c.state.OpponentParty = opponentParty

	c.staleSweep()

	if !c.backupLocalParty() {
		return false
	}
	if !c.writeBattleTypeFlags() {
		return false
	}
	if !c.applyRAMPatches() || !c.applyROMPatches() {
		c.restorePatches()
		return false
	}
	if !c.clearBattlerControllerState() {
		c.restorePatches()
		return false
	}
	if !c.saveAndNullCallback1() {
		c.restorePatches()
		return false
	}
	c.setSavedCallback(c.cfg.CB2ReturnToField)
	c.writeMainState(0)
	c.initLinkPlayerFromSaveBlock()
	c.setCallback2(c.cfg.CB2BattleEntry)

	c.state.Relay.LocalSlot = boolToSlot(isMaster)
	c.state.Relay.RemoteSlot = 1 - c.state.Relay.LocalSlot
	c.state.Stage = Starting
	c.state.StageClockStartNano = nowUnixNano
	c.state.FrameCounter = 0
	c.state.StageTimer = 0
	return true
}

// enterStage transitions to next, resetting the stage-relative frame
// timer (spec.md §8 invariant 4: "stages only advance forward").
func (c *Controller) enterStage(next Stage) {
	c.state.Stage = next
	c.state.StageTimer = 0
}

func boolToSlot(isMaster bool) uint8 {
	if isMaster {
		return 0
	}
	return 1
}

// ForceEnd begins a forced exit (forfeit / remote disconnect) from any
// in-progress stage (spec.md §4.I "Forfeit / force-exit").
func (c *Controller) ForceEnd(outcome Outcome) {
	if c.state.Stage != Starting && c.state.Stage != MainLoop {
		return
	}
	c.state.ForceEndPending = true
	c.state.ForceEndFrame = c.state.FrameCounter
	c.state.ForceEndOutcome = outcome
}

// Reset restores any applied patches and returns the controller to Idle
// regardless of its current stage (spec.md §3 "reset returns it to
// Idle and restores all patches").
func (c *Controller) Reset() {
	c.restorePatches()
	c.state.reset()
}

// Tick advances the controller by one frame, dispatching to the
// current stage's handler (spec.md §4.I, §4.J step 6).
func (c *Controller) Tick(nowUnixNano int64) {
	if c.state.Stage == Idle || c.state.Stage == Done {
		return
	}
	c.state.FrameCounter++
	c.state.StageTimer++

	switch c.state.Stage {
	case Starting:
		c.tickStarting(nowUnixNano)
	case MainLoop:
		c.tickMainLoop()
	case Ending:
		c.tickEnding()
	}
}

// resolve walks ref and classifies the result's domain in one step; the
// pattern every memory touch in this package goes through.
func (c *Controller) resolve(ref config.AddressRef) (memory.Domain, uint32, bool) {
	addr, ok := config.Resolve(c.gw, ref)
	if !ok {
		return 0, 0, false
	}
	d, ok := memory.DomainForAddress(addr)
	if !ok {
		return 0, 0, false
	}
	return d, addr, true
}

func (c *Controller) readU32Ref(ref config.AddressRef) (uint32, bool) {
	d, addr, ok := c.resolve(ref)
	if !ok {
		return 0, false
	}
	return c.gw.ReadU32(d, addr)
}

func (c *Controller) writeU32Ref(ref config.AddressRef, v uint32) bool {
	d, addr, ok := c.resolve(ref)
	if !ok {
		return false
	}
	return c.gw.WriteU32(d, addr, v)
}

func (c *Controller) writeU8Ref(ref config.AddressRef, v uint8) bool {
	d, addr, ok := c.resolve(ref)
	if !ok {
		return false
	}
	return c.gw.WriteU8(d, addr, v)
}

func (c *Controller) setCallback2(addr uint32) {
	d, ok := memory.DomainForAddress(c.cfg.Callback2Addr)
	if !ok {
		return
	}
	c.gw.WriteU32(d, c.cfg.Callback2Addr, addr)
}

func (c *Controller) writeMainState(v uint8) {
	d, ok := memory.DomainForAddress(c.cfg.MainStateOffset)
	if !ok {
		return
	}
	c.gw.WriteU8(d, c.cfg.MainStateOffset, v)
}

func (c *Controller) setSavedCallback(addr uint32) {
	d, ok := memory.DomainForAddress(c.cfg.SavedCallbackOffset)
	if !ok {
		return
	}
	c.gw.WriteU32(d, c.cfg.SavedCallbackOffset, addr)
}
