package battle

import (
	"github.com/linkcore/overlay-core/internal/config"
	"github.com/linkcore/overlay-core/internal/memory"
	"github.com/linkcore/overlay-core/internal/transport"
)

const (
	bufferReadSize        = 256
	defaultBattlerStride  = 512
	verifiedBufferGap     = 0x800
	introPokeInterval     = 15
	introDetectAfterFrame = 10
	getAwayExitOpcode     = 0x37
	forfeitFrames         = 30
)

// resolveBufferBases derives bufferA/bufferB base addresses from the
// dynamically allocated BattleResources pointer, trying the configured
// offsets and their swap as the two candidate pairs (spec.md §4.I
// "Buffer-base derivation"). Once verified, the result is cached.
func (c *Controller) resolveBufferBases() bool {
	if c.state.Relay.BuffersResolved {
		return true
	}
	resAddr, ok := config.Resolve(c.gw, c.cfg.BattleLink.BattleResources)
	if !ok {
		return false
	}
	resDomain, ok := memory.DomainForAddress(resAddr)
	if !ok {
		return false
	}
	resources, ok := c.gw.ReadU32(resDomain, resAddr)
	if !ok || resources == 0 {
		return false
	}

	candidates := [][2]uint32{
		{c.cfg.BattleLink.BufferAOffset, c.cfg.BattleLink.BufferBOffset},
		{c.cfg.BattleLink.BufferBOffset, c.cfg.BattleLink.BufferAOffset},
	}
	for _, cand := range candidates {
		a := resources + cand[0]
		b := resources + cand[1]
		if b-a == verifiedBufferGap {
			c.state.Relay.BufferABase = a
			c.state.Relay.BufferBBase = b
			c.state.Relay.BuffersResolved = true
			return true
		}
	}
	return false
}

func (c *Controller) battlerStride() uint32 {
	if c.cfg.BattleLink.BufferStride != 0 {
		return c.cfg.BattleLink.BufferStride
	}
	return defaultBattlerStride
}

func (c *Controller) bufferAAddr(battler uint8) (uint32, bool) {
	if !c.state.Relay.BuffersResolved {
		return 0, false
	}
	return c.state.Relay.BufferABase + uint32(battler)*c.battlerStride(), true
}

func (c *Controller) bufferBAddr(battler uint8) (uint32, bool) {
	if !c.state.Relay.BuffersResolved {
		return 0, false
	}
	return c.state.Relay.BufferBBase + uint32(battler)*c.battlerStride(), true
}

func (c *Controller) readBufferA(battler uint8) ([256]byte, bool) {
	var out [256]byte
	addr, ok := c.bufferAAddr(battler)
	if !ok {
		return out, false
	}
	d, ok := memory.DomainForAddress(addr)
	if !ok {
		return out, false
	}
	buf, ok := c.gw.ReadRange(d, addr, bufferReadSize)
	if !ok {
		return out, false
	}
	copy(out[:], buf)
	return out, true
}

func (c *Controller) writeBufferA(battler uint8, data [256]byte) bool {
	addr, ok := c.bufferAAddr(battler)
	if !ok {
		return false
	}
	d, ok := memory.DomainForAddress(addr)
	if !ok {
		return false
	}
	return c.gw.WriteRange(d, addr, data[:])
}

func (c *Controller) readBufferB(battler uint8) ([256]byte, bool) {
	var out [256]byte
	addr, ok := c.bufferBAddr(battler)
	if !ok {
		return out, false
	}
	d, ok := memory.DomainForAddress(addr)
	if !ok {
		return out, false
	}
	buf, ok := c.gw.ReadRange(d, addr, bufferReadSize)
	if !ok {
		return out, false
	}
	copy(out[:], buf)
	return out, true
}

func (c *Controller) writeBufferB(battler uint8, data [256]byte) bool {
	addr, ok := c.bufferBAddr(battler)
	if !ok {
		return false
	}
	d, ok := memory.DomainForAddress(addr)
	if !ok {
		return false
	}
	return c.gw.WriteRange(d, addr, data[:])
}

func (c *Controller) readExecFlags() (ExecFlags, bool) {
	addr, ok := config.Resolve(c.gw, c.cfg.Battle.ExecFlags)
	if !ok {
		return ExecFlags{}, false
	}
	d, ok := memory.DomainForAddress(addr)
	if !ok {
		return ExecFlags{}, false
	}
	return ReadExecFlags(c.gw, d, addr)
}

func (c *Controller) writeExecFlags(e ExecFlags) bool {
	addr, ok := config.Resolve(c.gw, c.cfg.Battle.ExecFlags)
	if !ok {
		return false
	}
	d, ok := memory.DomainForAddress(addr)
	if !ok {
		return false
	}
	return WriteExecFlags(c.gw, d, addr, e)
}

func (c *Controller) readContext() transport.BufferCmdCtx {
	attacker, _ := c.readU8Ref(c.cfg.BattleLink.BattlerAttacker)
	target, _ := c.readU8Ref(c.cfg.BattleLink.BattlerTarget)
	absent, _ := c.readU8Ref(c.cfg.BattleLink.AbsentBattlerFlags)
	effect, _ := c.readU8Ref(c.cfg.BattleLink.EffectBattler)
	return transport.BufferCmdCtx{Attacker: attacker, Target: target, Absent: absent, Effect: effect}
}

func (c *Controller) readU8Ref(ref config.AddressRef) (uint8, bool) {
	d, addr, ok := c.resolve(ref)
	if !ok {
		return 0, false
	}
	return c.gw.ReadU8(d, addr)
}

func (c *Controller) writeContext(ctx transport.BufferCmdCtx) {
	c.writeU8Ref(c.cfg.BattleLink.BattlerAttacker, ctx.Attacker)
	c.writeU8Ref(c.cfg.BattleLink.BattlerTarget, ctx.Target)
	c.writeU8Ref(c.cfg.BattleLink.AbsentBattlerFlags, ctx.Absent)
	c.writeU8Ref(c.cfg.BattleLink.EffectBattler, ctx.Effect)
}

// tickMainLoop drives one frame of the MainLoop stage (spec.md §4.I
// "Main loop (stage MainLoop) — BUFFER RELAY PROTOCOL").
func (c *Controller) tickMainLoop() {
	if c.state.StageTimer == 1 {
		c.resolveBufferBases()
		c.reinjectParties()
		c.state.Relay.PendingRelay = [2]bool{}
		c.state.Relay.PendingAck = [2]bool{}
		c.state.Relay.ProcessingCmd = [2]bool{}
		c.state.Relay.CtxWritten = [2]bool{}
		if c.tp != nil {
			c.tp.Send(transport.TypeDuelStage, transport.DuelStage{Stage: "mainloop_entered"})
		}
	}

	c.maintainLinkState(0, blockStatusPostSkip)
	c.orMergeBattleTypeFlags()

	introFunc, ok := c.readU32Ref(c.cfg.BattleLink.BattleMainFunc)
	inIntro := ok && introFunc == c.cfg.BattleLink.DoBattleIntro
	if inIntro {
		c.maintainLinkPlayerNames()
	}
	if !c.state.IntroComplete && c.state.StageTimer > introDetectAfterFrame && ok && introFunc != c.cfg.BattleLink.DoBattleIntro && introFunc != 0 {
		c.state.IntroComplete = true
	}

	if c.state.Relay.BuffersResolved {
		if c.state.IsMaster {
			c.hostRelayTick()
		} else {
			c.clientRelayTick()
		}
	}

	if c.state.ForceEndPending {
		c.tickForceEnd()
		return
	}

	c.checkNaturalEnd()
}

// IntroWantsKeyPress reports whether this frame should synthesize an A
// press to advance an automated intro animation, per the 15-frame cadence
// spec.md §4.I names. The Frame Scheduler owns actually asserting the
// button; the controller only tells it when.
func (c *Controller) IntroWantsKeyPress() bool {
	if c.state.IntroComplete || c.state.Stage != MainLoop {
		return false
	}
	return c.state.StageTimer%introPokeInterval == 0
}

// hostRelayTick runs the master side of the buffer-relay protocol for
// both battlers (spec.md §4.I "Host (master) relay per frame").
func (c *Controller) hostRelayTick() {
	flags, ok := c.readExecFlags()
	if !ok {
		return
	}
	for b := 0; b < 2; b++ {
		c.hostRelayBattler(&flags, b)
	}
	// Byte 2 is cleared every frame regardless of relay activity
	// (spec.md §3 "Byte 2 is cleared every frame", §8 invariant 5).
	flags.ClearByte2()
	c.writeExecFlags(flags)
}

// hostRelayBattler advances one battler's relay state machine. The
// network-wait bit doubles as "we are watching this battler for engine
// completion" — it is set the instant we activate a battler (local
// immediately, remote only after the peer's ack) and cleared only once
// we have finalized the command (spec.md §4.I "Host (master) relay per
// frame").
func (c *Controller) hostRelayBattler(flags *ExecFlags, b int) {
	relay := &c.state.Relay
	isLocal := uint8(b) == relay.LocalSlot

	// Per-frame re-assertion of the last delivered remote response,
	// stable until the next command cycle begins (spec.md §4.I "Per-
	// frame re-write of cached remote bufB keeps it stable until the
	// next command cycle").
	if !isLocal && !relay.PendingRelay[b] && relay.LastClientBufB[b] != nil {
		c.writeBufferB(uint8(b), *relay.LastClientBufB[b])
	}

	// Step 1: detect a freshly dispatched command.
	if flags.LinkDispatch(b) && !relay.PendingRelay[b] {
		bufA, aok := c.readBufferA(uint8(b))
		if !aok {
			return
		}
		ctx := c.readContext()

		var cmdBufB *[256]byte
		if isLocal {
			bufB, _ := c.readBufferB(uint8(b))
			cmdBufB = &bufB
		}
		if c.tp != nil {
			c.tp.Send(transport.TypeBufferCmd, transport.BufferCmd{
				Battler: uint8(b), BufA: bufA, BufB: cmdBufB, Ctx: ctx,
			})
		}
		relay.PendingRelay[b] = true
		relay.PendingAck[b] = false
		relay.LastClientBufB[b] = nil

		if isLocal {
			flags.ClearLinkDispatch(b)
			flags.SetActive(b, true)
			flags.SetNetworkWait(b, true)
		}
		return
	}

	// Step 2: the peer acked a remote-battler dispatch — activate it now.
	if relay.PendingRelay[b] && !isLocal && relay.PendingAck[b] && !flags.NetworkWait(b) {
		flags.ClearLinkDispatch(b)
		flags.SetActive(b, true)
		flags.SetNetworkWait(b, true)
		relay.PendingAck[b] = false
		return
	}

	// Step 3: completion — the engine cleared active(b) while we were
	// watching it.
	if flags.NetworkWait(b) && !flags.Active(b) {
		if isLocal {
			flags.SetNetworkWait(b, false)
			relay.PendingRelay[b] = false
			return
		}
		cached := relay.RemoteBufBQueue[b]
		if cached == nil {
			// Response not in hand yet; keep waiting (spec.md §4.I
			// "If activated but no bufB received yet, re-set
			// network-wait(b) to signal waiting").
			flags.SetNetworkWait(b, true)
			return
		}
		c.writeBufferB(uint8(b), *cached)
		relay.LastClientBufB[b] = cached
		relay.RemoteBufBQueue[b] = nil
		flags.SetNetworkWait(b, false)
		relay.PendingRelay[b] = false
	}
}

// OnBufferAck records a client's acknowledgement of a host-relayed
// command for battler b (spec.md §4.I host relay step 2).
func (c *Controller) OnBufferAck(battler uint8) {
	if int(battler) >= 2 {
		return
	}
	c.state.Relay.PendingAck[battler] = true
}

// OnBufferResp records the client's finished bufferB for battler b,
// caching it for per-frame re-writes (spec.md §4.I host relay step 3-4).
func (c *Controller) OnBufferResp(battler uint8, bufB [256]byte) {
	if int(battler) >= 2 {
		return
	}
	cp := bufB
	c.state.Relay.RemoteBufBQueue[battler] = &cp
}

// clientRelayTick runs the slave side of the buffer-relay protocol
// (spec.md §4.I "Client (slave) relay per frame").
func (c *Controller) clientRelayTick() {
	flags, ok := c.readExecFlags()
	if !ok {
		return
	}
	for b := 0; b < 2; b++ {
		c.clientRelayBattler(&flags, b)
	}
	flags.ClearByte2()
	c.writeExecFlags(flags)
}

func (c *Controller) clientRelayBattler(flags *ExecFlags, b int) {
	relay := &c.state.Relay

	if relay.PendingCmd[b] != nil && !relay.ProcessingCmd[b] {
		cmd := relay.PendingCmd[b]
		c.writeBufferA(uint8(b), cmd.BufA)
		if cmd.BufB != nil {
			c.writeBufferB(uint8(b), *cmd.BufB)
		}
		c.writeContext(cmd.Ctx)
		flags.SetActive(b, true)
		flags.ClearLinkDispatch(b)
		relay.ProcessingCmd[b] = true
		relay.ActiveCmd[b] = cmd
		relay.CtxWritten[b] = true
		if c.tp != nil {
			c.tp.Send(transport.TypeBufferAck, transport.BufferAck{Battler: uint8(b)})
		}
		return
	}

	if relay.ProcessingCmd[b] {
		if cmd := relay.ActiveCmd[b]; cmd != nil {
			c.writeBufferA(uint8(b), cmd.BufA)
		}
		if !flags.Active(b) {
			bufB, _ := c.readBufferB(uint8(b))
			if c.tp != nil {
				c.tp.Send(transport.TypeBufferResp, transport.BufferResp{Battler: uint8(b), BufB: bufB})
			}
			relay.ProcessingCmd[b] = false
			relay.ActiveCmd[b] = nil
			relay.CtxWritten[b] = false
			relay.PendingCmd[b] = nil
		}
	}
}

// OnBufferCmd queues an inbound host command for battler b to be applied
// on the client's next relay tick (spec.md §4.I client relay step 1).
func (c *Controller) OnBufferCmd(battler uint8, bufA [256]byte, bufB *[256]byte, ctx transport.BufferCmdCtx) {
	if int(battler) >= 2 {
		return
	}
	c.state.Relay.PendingCmd[battler] = &PendingCmd{BufA: bufA, BufB: bufB, Ctx: ctx}
}

// tickForceEnd drives the 30-frame forfeit hammer that injects
// GetAwayExit into bufferA[0] (spec.md §4.I "Forfeit / force-exit").
func (c *Controller) tickForceEnd() {
	elapsed := c.state.FrameCounter - c.state.ForceEndFrame
	if elapsed > forfeitFrames {
		outcome := c.state.ForceEndOutcome
		c.state.CachedOutcome = &outcome
		c.enterEnding()
		return
	}
	var buf [256]byte
	buf[0] = getAwayExitOpcode
	c.writeBufferA(0, buf)
	flags, ok := c.readExecFlags()
	if ok {
		flags.SetActive(0, true)
		c.writeExecFlags(flags)
	}
}

// checkNaturalEnd captures the outcome the instant callback2 leaves
// CB2_BattleMain, and fast-forwards past the link "results" screen
// (spec.md §4.I "Natural end").
func (c *Controller) checkNaturalEnd() {
	if c.state.StageTimer <= introDetectAfterFrame {
		return
	}
	cb2, ok := c.gw.ReadU32(memory.IWRAM, c.cfg.Callback2Addr)
	if !ok || cb2 == c.cfg.CB2BattleMain {
		return
	}

	outcome := c.decodeOutcome()
	c.state.CachedOutcome = &outcome

	if c.cfg.CB2LinkBattleEnd != 0 && cb2 == c.cfg.CB2LinkBattleEnd {
		c.setCallback2(c.cfg.CB2ReturnToField)
		c.writeMainState(0)
	}

	if c.state.BattleFlags != nil {
		cur, ok := c.readU32Ref(c.cfg.Battle.Flags)
		if ok {
			cur &^= c.cfg.Const.BattleTypeLinkInBattle
			c.writeU32Ref(c.cfg.Battle.Flags, cur)
		}
	}

	c.enterEnding()
}

func (c *Controller) enterEnding() {
	c.enterStage(Ending)
}
