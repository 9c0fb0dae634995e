package battle

import (
	"github.com/linkcore/overlay-core/internal/config"
	"github.com/linkcore/overlay-core/internal/memory"
)

// backupLocalParty saves the local party bytes before the engine's
// init path overwrites them (spec.md §4.I "Start" step 1).
func (c *Controller) backupLocalParty() bool {
	addr, ok := config.Resolve(c.gw, c.cfg.Battle.PlayerParty)
	if !ok {
		return false
	}
	d, ok := memory.DomainForAddress(addr)
	if !ok {
		return false
	}
	buf, ok := c.gw.ReadRange(d, addr, c.cfg.Const.PartySizeBytes)
	if !ok {
		return false
	}
	backup := new([600]byte)
	copy(backup[:], buf)
	c.state.LocalPartyBackup = backup
	return true
}

// injectParty writes party bytes into ref's address, used both for the
// opponent's party (during Starting re-injection) and for restoring the
// local party on teardown.
func (c *Controller) injectParty(ref config.AddressRef, party *[600]byte) bool {
	if party == nil {
		return false
	}
	addr, ok := config.Resolve(c.gw, ref)
	if !ok {
		return false
	}
	d, ok := memory.DomainForAddress(addr)
	if !ok {
		return false
	}
	return c.gw.WriteRange(d, addr, party[:c.cfg.Const.PartySizeBytes])
}

// readParty reads PartySizeBytes from ref's address.
func (c *Controller) readParty(ref config.AddressRef) (*[600]byte, bool) {
	addr, ok := config.Resolve(c.gw, ref)
	if !ok {
		return nil, false
	}
	d, ok := memory.DomainForAddress(addr)
	if !ok {
		return nil, false
	}
	buf, ok := c.gw.ReadRange(d, addr, c.cfg.Const.PartySizeBytes)
	if !ok {
		return nil, false
	}
	out := new([600]byte)
	copy(out[:], buf)
	return out, true
}

// reinjectParties re-writes both the opponent's and the local player's
// party bytes, defeating the engine's link-exchange DMA scribbling
// (spec.md §4.I "Start": "the engine's case 4/6/8 copy from the
// block-receive buffer and overwrites them").
func (c *Controller) reinjectParties() {
	c.injectParty(c.cfg.Battle.EnemyParty, c.state.OpponentParty)
	c.injectParty(c.cfg.Battle.PlayerParty, c.state.LocalPartyBackup)
}

// restoreLocalParty writes the pre-battle local party back, used during
// teardown.
func (c *Controller) restoreLocalParty() {
	c.injectParty(c.cfg.Battle.PlayerParty, c.state.LocalPartyBackup)
}
