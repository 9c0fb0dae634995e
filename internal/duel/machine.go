package duel

import (
	"fmt"

	"github.com/linkcore/overlay-core/internal/textbox"
	"github.com/linkcore/overlay-core/internal/transport"
)

// GhostPosition is one remote player's tile position, as sampled by the
// Frame Scheduler from the Interpolator/Ghost Projector, used only for
// the proximity trigger.
type GhostPosition struct {
	PlayerID, PlayerName string
	X, Y                 int32
}

// Input is what the Frame Scheduler feeds the Machine every tick.
type Input struct {
	Frame uint64

	LocalX, LocalY int32
	Ghosts         []GhostPosition

	APressed, AReleased bool
	BPressed            bool
	Up, Down            bool
}

// Machine is the duel flow's single state holder (spec.md §4.H).
type Machine struct {
	tb  *textbox.Injector
	ctx Context

	lastRequestFrame uint64
	haveLastRequest  bool

	pendingIncoming *incomingRequest
	pendingAccepted bool
	pendingDeclined bool
	pendingWarp     *transport.DuelWarp
}

type incomingRequest struct {
	id, name string
}

// New returns an idle Machine that drives tb for its Yes/No and message
// prompts.
func New(tb *textbox.Injector) *Machine {
	return &Machine{tb: tb, ctx: Context{State: Idle}}
}

// State returns the machine's current node.
func (m *Machine) State() State { return m.ctx.State }

// OnIncomingRequest records a remote challenge; busy states discard it
// per §7's protocol-desync rule (the requester will time out and retry).
func (m *Machine) OnIncomingRequest(requesterID, requesterName string) {
	if m.ctx.State != Idle {
		return
	}
	m.pendingIncoming = &incomingRequest{id: requesterID, name: requesterName}
}

// OnAccepted records the peer's acceptance of our outstanding request.
func (m *Machine) OnAccepted() {
	if m.ctx.State == WaitingResponse {
		m.pendingAccepted = true
	}
}

// OnDeclined records the peer's decline of our outstanding request.
func (m *Machine) OnDeclined() {
	if m.ctx.State == WaitingResponse {
		m.pendingDeclined = true
	}
}

// OnWarp records an inbound duel_warp instruction to forward to G on the
// next Tick, regardless of the flow state (the handshake that produced
// it already completed on both sides).
func (m *Machine) OnWarp(w transport.DuelWarp) {
	m.pendingWarp = &w
}

// Tick advances the machine by one frame and returns any side effects
// for the Frame Scheduler to carry out (spec.md §4.J step 5).
func (m *Machine) Tick(in Input) []Action {
	var actions []Action

	if m.pendingWarp != nil {
		w := m.pendingWarp
		m.pendingWarp = nil
		actions = append(actions, Action{
			Kind: ActionWarp,
			Warp: WarpInstruction{
				IsMaster: w.IsMaster,
				X:        w.OriginPos.X,
				Y:        w.OriginPos.Y,
				MapGroup: w.OriginPos.MapGroup,
				MapID:    w.OriginPos.MapID,
			},
		})
	}

	var done, yes bool
	if m.tb.Active() {
		done, yes = m.tb.Poll()
	}

	switch m.ctx.State {
	case Idle:
		actions = append(actions, m.tickIdle(in)...)
	case PreChallengeWait:
		actions = append(actions, m.tickPreChallengeWait(in)...)
	case ConfirmingChallenge:
		actions = append(actions, m.tickConfirmingChallenge(in, done, yes)...)
	case WaitingResponse:
		actions = append(actions, m.tickWaitingResponse(in)...)
	case ShowingResult:
		actions = append(actions, m.tickShowingResult(in, done)...)
	case ShowingIncoming:
		actions = append(actions, m.tickShowingIncoming(in, done, yes)...)
	}
	return actions
}

func (m *Machine) tickIdle(in Input) []Action {
	if m.pendingIncoming != nil {
		req := m.pendingIncoming
		m.pendingIncoming = nil
		m.ctx = Context{
			State:          ShowingIncoming,
			RequesterID:    req.id,
			RequesterName:  req.name,
			StateFrame:     in.Frame,
			FlowStartFrame: in.Frame,
		}
		m.tb.ShowYesNo(fmt.Sprintf("%s wants to battle!", req.name))
		return nil
	}

	if !in.APressed {
		return nil
	}
	if m.haveLastRequest && in.Frame-m.lastRequestFrame < cooldownFrames {
		return nil
	}
	g := nearestGhost(in)
	if g == nil {
		return nil
	}

	m.ctx = Context{
		State:          PreChallengeWait,
		TargetID:       g.PlayerID,
		TargetName:     g.PlayerName,
		StateFrame:     in.Frame,
		FlowStartFrame: in.Frame,
	}
	return nil
}

func (m *Machine) tickPreChallengeWait(in Input) []Action {
	elapsed := in.Frame - m.ctx.FlowStartFrame
	if elapsed < preChallengeMinFrames {
		return nil
	}
	if !in.AReleased && elapsed < preChallengeMaxFrames {
		return nil
	}

	m.ctx.State = ConfirmingChallenge
	m.ctx.StateFrame = in.Frame
	m.tb.ShowYesNo(fmt.Sprintf("Challenge %s?", m.ctx.TargetName))
	return nil
}

func (m *Machine) tickConfirmingChallenge(in Input, done, yes bool) []Action {
	result, ready := m.resolveYesNo(in, done, yes)
	if !ready {
		return nil
	}

	m.tb.Clear()
	target := m.ctx
	m.ctx = Context{State: Idle}
	if !result {
		return nil
	}

	m.ctx = Context{
		State:          WaitingResponse,
		TargetID:       target.TargetID,
		TargetName:     target.TargetName,
		StateFrame:     in.Frame,
		FlowStartFrame: in.Frame,
	}
	m.lastRequestFrame = in.Frame
	m.haveLastRequest = true
	m.tb.ShowMessage("Waiting...")
	return []Action{sendAction(transport.TypeDuelRequest, transport.DuelRequest{TargetID: target.TargetID})}
}

func (m *Machine) tickWaitingResponse(in Input) []Action {
	elapsed := in.Frame - m.ctx.StateFrame
	switch {
	case m.pendingAccepted:
		m.pendingAccepted = false
		m.tb.Clear()
		m.ctx = Context{State: Idle}
	case m.pendingDeclined:
		m.pendingDeclined = false
		name := m.ctx.TargetName
		m.ctx = Context{State: ShowingResult, StateFrame: in.Frame}
		m.tb.ShowMessage(name + " declined.")
	case elapsed >= responseTimeoutFrames:
		m.tb.Clear()
		m.ctx = Context{State: Idle}
	}
	return nil
}

func (m *Machine) tickShowingResult(in Input, done bool) []Action {
	elapsed := in.Frame - m.ctx.StateFrame
	if done || elapsed >= resultDisplayFrames {
		m.tb.Clear()
		m.ctx = Context{State: Idle}
	}
	return nil
}

func (m *Machine) tickShowingIncoming(in Input, done, yes bool) []Action {
	result, ready := m.resolveYesNo(in, done, yes)
	if !ready {
		elapsed := in.Frame - m.ctx.StateFrame
		if elapsed >= requestTimeoutFrames {
			result, ready = false, true
		}
	}
	if !ready {
		return nil
	}

	m.tb.Clear()
	requesterID := m.ctx.RequesterID
	m.ctx = Context{State: Idle}

	if result {
		return []Action{sendAction(transport.TypeDuelAccept, transport.DuelAccept{RequesterID: requesterID})}
	}
	return []Action{sendAction(transport.TypeDuelDecline, transport.DuelDecline{RequesterID: requesterID})}
}

// resolveYesNo shares the "native script result, or manual fallback
// after the script appears stuck" decision between confirming_challenge
// and showing_incoming (spec.md §4.H "Manual Yes/No fallback").
func (m *Machine) resolveYesNo(in Input, done, yes bool) (result bool, ready bool) {
	if done {
		return yes, true
	}

	elapsed := in.Frame - m.ctx.StateFrame
	if elapsed < manualFallbackFrames {
		return false, false
	}
	if in.Up || in.Down {
		m.ctx.YesNoFallbackSelection = !m.ctx.YesNoFallbackSelection
	}
	switch {
	case in.APressed:
		return m.ctx.YesNoFallbackSelection, true
	case in.BPressed:
		return false, true
	default:
		return false, false
	}
}

// nearestGhost returns the closest remote player within proximityTiles
// (Chebyshev distance), or nil if none qualifies.
func nearestGhost(in Input) *GhostPosition {
	var best *GhostPosition
	bestDist := int32(proximityTiles + 1)
	for i := range in.Ghosts {
		g := &in.Ghosts[i]
		dx := g.X - in.LocalX
		if dx < 0 {
			dx = -dx
		}
		dy := g.Y - in.LocalY
		if dy < 0 {
			dy = -dy
		}
		dist := dx
		if dy > dist {
			dist = dy
		}
		if dist <= proximityTiles && dist < bestDist {
			best, bestDist = g, dist
		}
	}
	return best
}
