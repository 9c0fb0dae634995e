package battle

import (
	"github.com/linkcore/overlay-core/internal/config"
	"github.com/linkcore/overlay-core/internal/memory"
)

const outcomeLinkBattleRanMask = 0x80

// decodeOutcome reads the engine's 1-byte outcome field and decodes it,
// falling back to a party-HP comparison when the primary byte is
// unreadable or carries an unrecognized code (spec.md §4.I "Outcome").
func (c *Controller) decodeOutcome() Outcome {
	if addr, ok := config.Resolve(c.gw, c.cfg.Battle.Outcome); ok {
		if d, ok := memory.DomainForAddress(addr); ok {
			if raw, ok := c.gw.ReadU8(d, addr); ok {
				code := raw &^ outcomeLinkBattleRanMask
				switch code {
				case 1:
					return OutcomeWin
				case 2:
					return OutcomeLose
				case 3:
					return OutcomeDraw
				case 4, 7:
					return OutcomeFlee
				case 9:
					return OutcomeForfeit
				}
			}
		}
	}
	return c.decodeOutcomeFromHP()
}

// decodeOutcomeFromHP sums each party's six HP words at the configured
// HP offset and infers a result when the primary outcome byte is
// unavailable (spec.md §4.I "Outcome" fallback).
func (c *Controller) decodeOutcomeFromHP() Outcome {
	localHP, localOK := c.sumPartyHP(c.cfg.Battle.PlayerParty)
	enemyHP, enemyOK := c.sumPartyHP(c.cfg.Battle.EnemyParty)
	switch {
	case localOK && localHP == 0:
		return OutcomeLose
	case enemyOK && enemyHP == 0:
		return OutcomeWin
	default:
		return OutcomeCompleted
	}
}

func (c *Controller) sumPartyHP(ref config.AddressRef) (uint32, bool) {
	addr, ok := config.Resolve(c.gw, ref)
	if !ok {
		return 0, false
	}
	d, ok := memory.DomainForAddress(addr)
	if !ok {
		return 0, false
	}
	var total uint32
	read := false
	for slot := 0; slot < 6; slot++ {
		hpAddr := addr + uint32(slot*c.cfg.Const.PokemonSizeBytes+c.cfg.Const.HPOffset)
		hp, ok := c.gw.ReadU16(d, hpAddr)
		if !ok {
			continue
		}
		total += uint32(hp)
		read = true
	}
	return total, read
}
