package battle

import (
	"github.com/linkcore/overlay-core/internal/config"
	"github.com/linkcore/overlay-core/internal/memory"
)

const (
	endingPhase1Frames = 30
	endingPhase2Frame  = 31
)

// tickEnding drives the Ending stage's three phases over at most
// endingTimeoutFrames (spec.md §4.I "Ending (2–3 phases over ≤90
// frames)").
func (c *Controller) tickEnding() {
	switch {
	case c.state.StageTimer <= endingPhase1Frames:
		c.endingPhase1()
	case c.state.StageTimer == endingPhase2Frame:
		c.endingPhase2()
	}

	if c.endingPhase3Ready() || c.state.StageTimer >= endingTimeoutFrames {
		c.endingPhase3()
	}
}

// endingPhase1 re-injects GetAwayExit into bufferA[0] every frame and
// activates battler 0 once, on the first frame.
func (c *Controller) endingPhase1() {
	var buf [256]byte
	buf[0] = getAwayExitOpcode
	c.writeBufferA(0, buf)
	if c.state.StageTimer == 1 {
		flags, ok := c.readExecFlags()
		if ok {
			flags.SetActive(0, true)
			c.writeExecFlags(flags)
		}
	}
}

// endingPhase2 zeroes exec-flags and strips the link bits from the live
// battle-type-flags word, then lets received_remote_link_players go to
// zero so the engine's exit path can run (spec.md §4.I "Ending" phase 2).
func (c *Controller) endingPhase2() {
	c.writeExecFlags(ExecFlags{})

	if addr, ok := config.Resolve(c.gw, c.cfg.Battle.Flags); ok {
		if d, dok := memory.DomainForAddress(addr); dok {
			cur, rok := c.gw.ReadU32(d, addr)
			if rok {
				cur &^= c.cfg.Const.BattleTypeLink
				cur &^= c.cfg.Const.BattleTypeLinkInBattle
				cur &^= c.cfg.Const.BattleTypeIsMaster
				cur &^= c.cfg.Const.BattleTypeRecorded
				c.gw.WriteU32(d, addr, cur)
			}
		}
	}

	if addr, ok := config.Resolve(c.gw, c.cfg.BattleLink.ReceivedRemote); ok {
		if d, dok := memory.DomainForAddress(addr); dok {
			c.gw.WriteU8(d, addr, 0)
		}
	}
}

// endingPhase3Ready reports whether callback2 has settled on a post-battle
// overworld callback.
func (c *Controller) endingPhase3Ready() bool {
	cb2, ok := c.gw.ReadU32(memory.IWRAM, c.cfg.Callback2Addr)
	if !ok {
		return false
	}
	return cb2 == c.cfg.CB2Overworld || cb2 == c.cfg.CB2ReturnToField
}

// endingPhase3 restores every patch, forces the engine back to
// CB2_ReturnToField, restores callback1, clears residual link/script
// state, and transitions to Done (spec.md §4.I "Ending" phase 3).
func (c *Controller) endingPhase3() {
	c.restorePatches()
	c.restoreLocalParty()

	cb2, _ := c.gw.ReadU32(memory.IWRAM, c.cfg.Callback2Addr)
	if cb2 != c.cfg.CB2ReturnToField {
		c.setCallback2(c.cfg.CB2ReturnToField)
	}
	if c.state.SavedCallback1 != nil {
		if d, ok := memory.DomainForAddress(c.cfg.Callback2Addr - 4); ok {
			c.gw.WriteU32(d, c.cfg.Callback2Addr-4, *c.state.SavedCallback1)
		}
	}
	if addr, ok := config.Resolve(c.gw, c.cfg.BattleLink.BlockRecvBuffer); ok {
		if d, ok := memory.DomainForAddress(addr); ok {
			c.gw.WriteU32(d, addr, 0)
		}
	}
	if addr, ok := config.Resolve(c.gw, c.cfg.BattleLink.BlockSendBuffer); ok {
		if d, ok := memory.DomainForAddress(addr); ok {
			c.gw.WriteU32(d, addr, 0)
		}
	}
	if addr, ok := config.Resolve(c.gw, c.cfg.BattleLink.ScriptContext); ok {
		if d, ok := memory.DomainForAddress(addr); ok {
			c.gw.WriteU32(d, addr, 0)
		}
	}
	c.setSavedCallback(c.cfg.CB2ReturnToField)

	if addr, ok := config.Resolve(c.gw, c.cfg.Battle.Flags); ok {
		if d, ok := memory.DomainForAddress(addr); ok {
			c.gw.WriteU32(d, addr, 0)
		}
	}

	c.state.BattleFlags = nil
	c.state.SavedCallback1 = nil
	c.enterStage(Done)
}
