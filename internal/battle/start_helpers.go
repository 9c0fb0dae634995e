package battle

import (
	"github.com/linkcore/overlay-core/internal/config"
	"github.com/linkcore/overlay-core/internal/memory"
)

// writeBattleTypeFlags computes LINK|TRAINER, plus IS_MASTER for the
// master, and writes it (spec.md §4.I "Start" step 2).
func (c *Controller) writeBattleTypeFlags() bool {
	flags := c.cfg.Const.BattleTypeLink | c.cfg.Const.BattleTypeTrainer
	if c.state.IsMaster {
		flags |= c.cfg.Const.BattleTypeIsMaster
	}
	if !c.writeU32Ref(c.cfg.Battle.Flags, flags) {
		return false
	}
	c.state.BattleFlags = &flags
	return true
}

// orMergeBattleTypeFlags ORs extra bits into the live flags word without
// clobbering bits the engine itself may have set, such as
// LINK_IN_BATTLE (spec.md §4.I "Starting" maintenance, "never clobber
// it").
func (c *Controller) orMergeBattleTypeFlags() {
	if c.state.BattleFlags == nil {
		return
	}
	cur, ok := c.readU32Ref(c.cfg.Battle.Flags)
	if !ok {
		return
	}
	merged := cur | *c.state.BattleFlags
	c.writeU32Ref(c.cfg.Battle.Flags, merged)
}

// clearBattlerControllerState clears the per-battler controller function
// pointers and block-received-status bytes (spec.md §4.I "Start" step 4).
func (c *Controller) clearBattlerControllerState() bool {
	ok := true
	if addr, rok := config.Resolve(c.gw, c.cfg.BattleLink.BattlerControllerFuncs); rok {
		if d, dok := memory.DomainForAddress(addr); dok {
			for b := 0; b < 4; b++ {
				if !c.gw.WriteU32(d, addr+uint32(b)*4, 0) {
					ok = false
				}
			}
		}
	}
	if addr, rok := config.Resolve(c.gw, c.cfg.BattleLink.BlockReceivedStatus); rok {
		if d, dok := memory.DomainForAddress(addr); dok {
			if !c.gw.WriteU8(d, addr, 0) {
				ok = false
			}
		}
	}
	if addr, rok := config.Resolve(c.gw, c.cfg.BattleLink.BlockRecvBuffer); rok {
		if d, dok := memory.DomainForAddress(addr); dok {
			c.gw.WriteU32(d, addr, 0)
		}
	}
	if addr, rok := config.Resolve(c.gw, c.cfg.BattleLink.BlockSendBuffer); rok {
		if d, dok := memory.DomainForAddress(addr); dok {
			c.gw.WriteU32(d, addr, 0)
		}
	}
	return ok
}

// saveAndNullCallback1 saves the caller's callback1 and nulls it, and
// nulls the script-engine hook (spec.md §4.I "Start" step 5). The
// block-send buffer is cleared earlier, by clearBattlerControllerState.
func (c *Controller) saveAndNullCallback1() bool {
	// callback1 lives at the same struct as callback2, one slot before
	// it in every ROM profile this core targets.
	cb1Addr := c.cfg.Callback2Addr - 4
	d, ok := memory.DomainForAddress(cb1Addr)
	if !ok {
		return false
	}
	v, ok := c.gw.ReadU32(d, cb1Addr)
	if !ok {
		return false
	}
	c.state.SavedCallback1 = &v
	if !c.gw.WriteU32(d, cb1Addr, 0) {
		return false
	}
	if addr, rok := config.Resolve(c.gw, c.cfg.BattleLink.ScriptContext); rok {
		if sd, sok := memory.DomainForAddress(addr); sok {
			c.gw.WriteU32(sd, addr, 0)
		}
	}
	return true
}

// initLinkPlayerFromSaveBlock reads the local trainer's name, gender, and
// trainer id out of the primary save block and writes a link-player
// struct for local slot (spec.md §4.I "Start" step 7, §6 "Persisted
// state layout").
func (c *Controller) initLinkPlayerFromSaveBlock() bool {
	saveAddr, ok := config.Resolve(c.gw, c.cfg.BattleLink.SaveBlock2Ptr)
	if !ok {
		return false
	}
	saveDomain, ok := memory.DomainForAddress(saveAddr)
	if !ok {
		return false
	}

	nameAddr := saveAddr + c.cfg.Const.SaveBlockNameOffset
	name, ok := c.gw.ReadRange(saveDomain, nameAddr, c.cfg.Const.LinkPlayerNameLen)
	if !ok {
		return false
	}
	gender, _ := c.gw.ReadU8(saveDomain, saveAddr+c.cfg.Const.SaveBlockGenderOffset)
	trainerID, _ := c.gw.ReadU32(saveDomain, saveAddr+c.cfg.Const.SaveBlockTrainerIDOffset)

	return c.writeLinkPlayerName(c.state.Relay.LocalSlot, name, gender, trainerID)
}

// writeLinkPlayerName writes one link-player name-struct entry: name
// bytes (any unused tail filled with 0xFF), gender, language=English,
// trainer id and the slot index (spec.md §4.I "Start" step 7, "Starting"
// maintenance "Maintain link-player name structs"). No game-version
// field is written.
func (c *Controller) writeLinkPlayerName(slot uint8, name []byte, gender uint8, trainerID uint32) bool {
	base, ok := config.Resolve(c.gw, c.cfg.BattleLink.LinkPlayers)
	if !ok {
		return false
	}
	d, ok := memory.DomainForAddress(base)
	if !ok {
		return false
	}
	entry := base + uint32(slot)*c.cfg.Const.LinkPlayerStructSize

	nameBuf := make([]byte, c.cfg.Const.LinkPlayerNameLen)
	n := copy(nameBuf, name)
	for i := n; i < len(nameBuf); i++ {
		nameBuf[i] = 0xFF
	}
	if !c.gw.WriteRange(d, entry, nameBuf) {
		return false
	}
	off := uint32(len(nameBuf))
	c.gw.WriteU8(d, entry+off, gender)
	c.gw.WriteU8(d, entry+off+1, c.cfg.Const.LanguageEnglish)
	c.gw.WriteU32(d, entry+off+4, trainerID)
	c.gw.WriteU8(d, entry+off+8, slot)
	return true
}

// maintainLinkPlayerNames re-writes the local slot's name struct from
// the save block on every call, since DMA may zero it mid-intro (spec.md
// §4.I "During the intro animation"). The remote slot's entry is not
// written.
func (c *Controller) maintainLinkPlayerNames() {
	saveAddr, ok := config.Resolve(c.gw, c.cfg.BattleLink.SaveBlock2Ptr)
	if !ok {
		return
	}
	saveDomain, ok := memory.DomainForAddress(saveAddr)
	if !ok {
		return
	}
	name, ok := c.gw.ReadRange(saveDomain, saveAddr+c.cfg.Const.SaveBlockNameOffset, c.cfg.Const.LinkPlayerNameLen)
	if !ok {
		return
	}
	gender, _ := c.gw.ReadU8(saveDomain, saveAddr+c.cfg.Const.SaveBlockGenderOffset)
	trainerID, _ := c.gw.ReadU32(saveDomain, saveAddr+c.cfg.Const.SaveBlockTrainerIDOffset)
	c.writeLinkPlayerName(c.state.Relay.LocalSlot, name, gender, trainerID)
}
