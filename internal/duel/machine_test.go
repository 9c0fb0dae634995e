package duel

import (
	"testing"

	"github.com/linkcore/overlay-core/internal/config"
	"github.com/linkcore/overlay-core/internal/memory"
	"github.com/linkcore/overlay-core/internal/textbox"
	"github.com/linkcore/overlay-core/internal/transport"
)

func newTestMachine() *Machine {
	gw := memory.New(nil)
	gw.Bind(memory.EWRAM, make([]byte, 1024))
	gw.Bind(memory.IWRAM, make([]byte, 1024))
	addrs := textbox.Addrs{
		ScriptLoad: config.Static(memory.IWRAM, 0x03000000),
		ScriptData: config.Static(memory.EWRAM, 0x02000100),
		TextData:   config.Static(memory.EWRAM, 0x02000200),
		VarResult:  config.Static(memory.EWRAM, 0x02000300),
		Var8001:    config.Static(memory.EWRAM, 0x02000302),
	}
	return New(textbox.New(gw, addrs))
}

func TestIdleArmsOnNearbyPressWithinProximity(t *testing.T) {
	m := newTestMachine()
	in := Input{
		Frame:    10,
		APressed: true,
		Ghosts:   []GhostPosition{{PlayerID: "alex", PlayerName: "Alex", X: 1, Y: 0}},
	}
	m.Tick(in)
	if m.State() != PreChallengeWait {
		t.Fatalf("expected PreChallengeWait, got %s", m.State())
	}
}

func TestIdleIgnoresPressBeyondProximity(t *testing.T) {
	m := newTestMachine()
	in := Input{
		Frame:    10,
		APressed: true,
		Ghosts:   []GhostPosition{{PlayerID: "alex", PlayerName: "Alex", X: 5, Y: 0}},
	}
	m.Tick(in)
	if m.State() != Idle {
		t.Fatalf("expected Idle, got %s", m.State())
	}
}

func TestCooldownBlocksSecondChallenge(t *testing.T) {
	m := newTestMachine()
	m.lastRequestFrame = 100
	m.haveLastRequest = true
	in := Input{
		Frame:    150, // only 50 frames since last request, cooldown is 120
		APressed: true,
		Ghosts:   []GhostPosition{{PlayerID: "alex", PlayerName: "Alex", X: 0, Y: 0}},
	}
	m.Tick(in)
	if m.State() != Idle {
		t.Fatalf("expected cooldown to hold Idle, got %s", m.State())
	}
}

func TestPreChallengeWaitAdvancesOnRelease(t *testing.T) {
	m := newTestMachine()
	m.ctx = Context{State: PreChallengeWait, TargetName: "Alex", StateFrame: 0, FlowStartFrame: 0}
	m.Tick(Input{Frame: 4, AReleased: true})
	if m.State() != ConfirmingChallenge {
		t.Fatalf("expected ConfirmingChallenge, got %s", m.State())
	}
}

func TestPreChallengeWaitNeverFiresBeforeMinFrames(t *testing.T) {
	m := newTestMachine()
	m.ctx = Context{State: PreChallengeWait, TargetName: "Alex", StateFrame: 0, FlowStartFrame: 0}
	m.Tick(Input{Frame: 1, AReleased: true})
	if m.State() != PreChallengeWait {
		t.Fatalf("expected to still be waiting before min frames, got %s", m.State())
	}
}

func TestPreChallengeWaitTimesOutAtMaxFrames(t *testing.T) {
	m := newTestMachine()
	m.ctx = Context{State: PreChallengeWait, TargetName: "Alex", StateFrame: 0, FlowStartFrame: 0}
	m.Tick(Input{Frame: preChallengeMaxFrames})
	if m.State() != ConfirmingChallenge {
		t.Fatalf("expected ConfirmingChallenge at max frames without release, got %s", m.State())
	}
}

func TestConfirmingChallengeManualFallbackSendsRequest(t *testing.T) {
	m := newTestMachine()
	m.ctx = Context{State: ConfirmingChallenge, TargetID: "alex", TargetName: "Alex", StateFrame: 0}
	m.tb.ShowYesNo("Challenge Alex?")

	actions := m.Tick(Input{Frame: manualFallbackFrames, Up: true})
	if len(actions) != 0 {
		t.Fatalf("toggling selection should not itself emit an action, got %+v", actions)
	}
	if !m.ctx.YesNoFallbackSelection {
		t.Fatalf("expected fallback selection toggled to true (Yes)")
	}

	actions = m.Tick(Input{Frame: manualFallbackFrames + 1, APressed: true})
	if len(actions) != 1 || actions[0].Kind != ActionSend || actions[0].MessageType != transport.TypeDuelRequest {
		t.Fatalf("expected one duel_request send action, got %+v", actions)
	}
	if m.State() != WaitingResponse {
		t.Fatalf("expected WaitingResponse, got %s", m.State())
	}
}

func TestConfirmingChallengeManualFallbackDeclineReturnsIdle(t *testing.T) {
	m := newTestMachine()
	m.ctx = Context{State: ConfirmingChallenge, TargetID: "alex", TargetName: "Alex", StateFrame: 0}
	m.tb.ShowYesNo("Challenge Alex?")

	actions := m.Tick(Input{Frame: manualFallbackFrames, BPressed: true})
	if len(actions) != 0 {
		t.Fatalf("decline should emit no action, got %+v", actions)
	}
	if m.State() != Idle {
		t.Fatalf("expected Idle after manual decline, got %s", m.State())
	}
}

func TestWaitingResponseAcceptedReturnsIdle(t *testing.T) {
	m := newTestMachine()
	m.ctx = Context{State: WaitingResponse, TargetID: "alex", TargetName: "Alex", StateFrame: 0}
	m.OnAccepted()
	m.Tick(Input{Frame: 1})
	if m.State() != Idle {
		t.Fatalf("expected Idle on accept, got %s", m.State())
	}
}

func TestWaitingResponseDeclinedShowsResult(t *testing.T) {
	m := newTestMachine()
	m.ctx = Context{State: WaitingResponse, TargetID: "alex", TargetName: "Alex", StateFrame: 0}
	m.OnDeclined()
	m.Tick(Input{Frame: 1})
	if m.State() != ShowingResult {
		t.Fatalf("expected ShowingResult on decline, got %s", m.State())
	}
}

func TestWaitingResponseTimesOut(t *testing.T) {
	m := newTestMachine()
	m.ctx = Context{State: WaitingResponse, TargetID: "alex", StateFrame: 0}
	m.Tick(Input{Frame: responseTimeoutFrames})
	if m.State() != Idle {
		t.Fatalf("expected Idle after response timeout, got %s", m.State())
	}
}

func TestShowingResultSafetyTimeout(t *testing.T) {
	m := newTestMachine()
	m.ctx = Context{State: ShowingResult, StateFrame: 0}
	m.Tick(Input{Frame: resultDisplayFrames})
	if m.State() != Idle {
		t.Fatalf("expected Idle after result safety timeout, got %s", m.State())
	}
}

func TestIncomingRequestIgnoredWhenBusy(t *testing.T) {
	m := newTestMachine()
	m.ctx = Context{State: WaitingResponse}
	m.OnIncomingRequest("bob", "Bob")
	if m.pendingIncoming != nil {
		t.Fatalf("expected busy machine to discard incoming request")
	}
}

func TestIncomingRequestTransitionsToShowingIncoming(t *testing.T) {
	m := newTestMachine()
	m.OnIncomingRequest("bob", "Bob")
	m.Tick(Input{Frame: 1})
	if m.State() != ShowingIncoming {
		t.Fatalf("expected ShowingIncoming, got %s", m.State())
	}
}

func TestShowingIncomingTimesOutAsDecline(t *testing.T) {
	m := newTestMachine()
	m.ctx = Context{State: ShowingIncoming, RequesterID: "bob", StateFrame: 0}
	actions := m.Tick(Input{Frame: requestTimeoutFrames})
	if m.State() != Idle {
		t.Fatalf("expected Idle after incoming timeout, got %s", m.State())
	}
	if len(actions) != 1 || actions[0].MessageType != transport.TypeDuelDecline {
		t.Fatalf("expected a duel_decline action, got %+v", actions)
	}
}

func TestWarpForwardsRegardlessOfState(t *testing.T) {
	m := newTestMachine()
	var w transport.DuelWarp
	w.IsMaster = true
	w.OriginPos.X, w.OriginPos.Y = 5, 6
	w.OriginPos.MapGroup, w.OriginPos.MapID = 1, 2
	m.OnWarp(w)

	actions := m.Tick(Input{Frame: 1})
	if len(actions) != 1 || actions[0].Kind != ActionWarp {
		t.Fatalf("expected one warp action, got %+v", actions)
	}
	if actions[0].Warp.X != 5 || actions[0].Warp.MapID != 2 {
		t.Fatalf("unexpected warp payload: %+v", actions[0].Warp)
	}
}
