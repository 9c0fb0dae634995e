package battle

import (
	"time"

	"github.com/linkcore/overlay-core/internal/config"
	"github.com/linkcore/overlay-core/internal/memory"
	"github.com/linkcore/overlay-core/internal/transport"
)

const (
	blockStatusPreSkip  = 0x0F
	blockStatusPostSkip = 0x03
	commAdvanceValue    = 2
	commSkipTarget      = 7 // overridden by cfg.Const.SkipTargetState when set
	taskSweepEarlyFrames = 5
	taskSweepInterval    = 30
	reinjectInterval     = 10
)

// tickStarting drives one frame of the Starting stage (spec.md §4.I
// "During Starting, each frame").
func (c *Controller) tickStarting(nowUnixNano int64) {
	if c.state.ForceEndPending {
		c.tickForceEnd()
		return
	}
	if c.startingTimedOut(nowUnixNano) {
		c.log.Errorf("battle: Starting stage timed out after %ds", startingTimeoutSeconds)
		c.restorePatches()
		c.enterStage(Done)
		return
	}

	status := uint8(blockStatusPreSkip)
	if c.state.CommAdvanced {
		status = blockStatusPostSkip
	}
	c.maintainLinkState(1, status)
	c.maintainLinkPlayerNames()
	c.orMergeBattleTypeFlags()

	if c.state.StageTimer <= taskSweepEarlyFrames || c.state.StageTimer%taskSweepInterval == 0 {
		c.killLinkTasks()
	}

	c.reinjectDuringHandleStartBattle()
	c.checkCommAdvance()

	if !c.state.IsMaster {
		if addr, ok := config.Resolve(c.gw, c.cfg.BattleLink.BattleMainFunc); ok {
			if d, dok := memory.DomainForAddress(addr); dok {
				c.gw.WriteU32(d, addr, c.cfg.BattleLink.BeginBattleIntro)
			}
		}
	}

	c.checkBattleMainReached()

	if c.state.BattleMainReached && c.state.RemoteMainloopReady {
		c.enterStage(MainLoop)
	}
}

func (c *Controller) startingTimedOut(nowUnixNano int64) bool {
	elapsed := time.Duration(nowUnixNano-c.state.StageClockStartNano) * time.Nanosecond
	return elapsed >= startingTimeoutSeconds*time.Second
}

// reinjectDuringHandleStartBattle re-injects both parties on every 10th
// frame while callback2 is still the battle-entry callback (spec.md
// §4.I "On every 10th frame while in the ROM's HandleStartBattle
// callback, re-inject both parties").
func (c *Controller) reinjectDuringHandleStartBattle() {
	if c.state.StageTimer%reinjectInterval != 0 {
		return
	}
	cb2, ok := c.gw.ReadU32(memory.IWRAM, c.cfg.Callback2Addr)
	if !ok || cb2 != c.cfg.CB2BattleEntry {
		return
	}
	c.reinjectParties()
}

// checkCommAdvance watches battle_communication[0] and, the first time
// it reaches commAdvanceValue, re-injects parties once and forces it to
// the ROM-specific skip target (spec.md §4.I "When the engine's
// battle_communication[0] reaches value 2...").
func (c *Controller) checkCommAdvance() {
	if c.state.CommAdvanced {
		return
	}
	addr, ok := config.Resolve(c.gw, c.cfg.BattleLink.BattleCommunication)
	if !ok {
		return
	}
	d, ok := memory.DomainForAddress(addr)
	if !ok {
		return
	}
	v, ok := c.gw.ReadU8(d, addr)
	if !ok || v < commAdvanceValue {
		return
	}

	c.reinjectParties()

	target := c.cfg.Const.SkipTargetState
	if target == 0 {
		target = commSkipTarget
	}
	c.gw.WriteU8(d, addr, target)

	c.maintainLinkState(1, blockStatusPostSkip)

	if execAddr, eok := config.Resolve(c.gw, c.cfg.Battle.ExecFlags); eok {
		if ed, edok := memory.DomainForAddress(execAddr); edok {
			c.gw.WriteU32(ed, execAddr, 0)
		}
	}
	c.clearBufferAFirstByte(0)
	c.clearBufferAFirstByte(1)

	if c.state.SavedCallback1 != nil {
		if cbd, cbok := memory.DomainForAddress(c.cfg.Callback2Addr - 4); cbok {
			c.gw.WriteU32(cbd, c.cfg.Callback2Addr-4, *c.state.SavedCallback1)
		}
	}

	c.state.CommAdvanced = true
}

func (c *Controller) clearBufferAFirstByte(battler uint8) {
	addr, ok := c.bufferAAddr(battler)
	if !ok {
		return
	}
	d, ok := memory.DomainForAddress(addr)
	if !ok {
		return
	}
	c.gw.WriteU8(d, addr, 0)
}

// checkBattleMainReached detects callback2 == CB2_BattleMain, marks
// "battle-main reached", re-injects parties, and notifies the peer
// (spec.md §4.I "Detect callback2 == CB2_BattleMain").
func (c *Controller) checkBattleMainReached() {
	if c.state.BattleMainReached {
		return
	}
	cb2, ok := c.gw.ReadU32(memory.IWRAM, c.cfg.Callback2Addr)
	if !ok || cb2 != c.cfg.CB2BattleMain {
		return
	}
	c.reinjectParties()
	c.state.BattleMainReached = true
	if c.tp != nil {
		c.tp.Send(transport.TypeDuelStage, transport.DuelStage{Stage: "mainloop_ready"})
	}
}

// OnRemoteMainloopReady records the peer's mainloop_ready notice.
func (c *Controller) OnRemoteMainloopReady() {
	c.state.RemoteMainloopReady = true
}
