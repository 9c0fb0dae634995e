package battle

import (
	"github.com/linkcore/overlay-core/internal/config"
	"github.com/linkcore/overlay-core/internal/memory"
)

// maintainLinkState re-asserts the link-cable illusion every frame:
// wireless_comm_type stays 0, received_remote_link_players and
// block_received_status take the caller-supplied values (spec.md §4.I
// "Starting" and "Main loop" per-frame maintenance).
func (c *Controller) maintainLinkState(receivedRemote, blockReceivedStatus uint8) {
	if addr, ok := config.Resolve(c.gw, c.cfg.BattleLink.WirelessCommType); ok {
		if d, dok := memory.DomainForAddress(addr); dok {
			c.gw.WriteU8(d, addr, 0)
		}
	}
	if addr, ok := config.Resolve(c.gw, c.cfg.BattleLink.ReceivedRemote); ok {
		if d, dok := memory.DomainForAddress(addr); dok {
			c.gw.WriteU8(d, addr, receivedRemote)
		}
	}
	if addr, ok := config.Resolve(c.gw, c.cfg.BattleLink.BlockReceivedStatus); ok {
		if d, dok := memory.DomainForAddress(addr); dok {
			c.gw.WriteU8(d, addr, blockReceivedStatus)
		}
	}
}

// killLinkTasks scans the engine's scheduled-task table and replaces any
// function pointer inside the configured link-operations range with a
// no-op dummy task, preventing queued link-cable routines from racing
// the controller (spec.md §4.I "Start": "Kill any scheduled tasks whose
// function pointer lies in the ROM's link-operations range"). A zero
// task count disables the sweep entirely — not every ROM profile needs
// it configured.
func (c *Controller) killLinkTasks() {
	tasks := c.cfg.Tasks
	if tasks.Count == 0 {
		return
	}
	base, ok := config.Resolve(c.gw, tasks.ListAddr)
	if !ok {
		return
	}
	d, ok := memory.DomainForAddress(base)
	if !ok {
		return
	}
	lo, hi := c.cfg.Const.LinkOpsRangeStart, c.cfg.Const.LinkOpsRangeEnd
	if lo == 0 && hi == 0 {
		return
	}
	for i := uint32(0); i < tasks.Count; i++ {
		entry := base + i*tasks.Stride
		funcAddr := entry + tasks.FuncOffset
		ptr, ok := c.gw.ReadU32(d, funcAddr)
		if !ok {
			continue
		}
		if ptr >= lo && ptr < hi {
			c.gw.WriteU32(d, funcAddr, tasks.DummyFunc)
		}
	}
}
