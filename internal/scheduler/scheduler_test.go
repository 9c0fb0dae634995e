package scheduler

import (
	"testing"

	"github.com/linkcore/overlay-core/internal/config"
	"github.com/linkcore/overlay-core/internal/duel"
	"github.com/linkcore/overlay-core/internal/memory"
	"github.com/linkcore/overlay-core/internal/transport"
)

type fakeAdapter struct {
	sent    []transport.Type
	inbound func(transport.Message)
}

func (f *fakeAdapter) Send(t transport.Type, payload interface{}) error {
	f.sent = append(f.sent, t)
	return nil
}

func (f *fakeAdapter) RegisterInbound(cb func(transport.Message)) {
	f.inbound = cb
}

func newTestScheduler(t *testing.T, localID string) (*Scheduler, *fakeAdapter) {
	t.Helper()
	gw := memory.New(nil)
	gw.Bind(memory.EWRAM, make([]byte, 4096))
	gw.Bind(memory.IWRAM, make([]byte, 4096))
	gw.Bind(memory.OAM, make([]byte, 1024))
	gw.Bind(memory.VRAM, make([]byte, 0x1000))

	cfg := &config.AddressMap{
		Const: config.DefaultConstants(),
		BattleLink: config.BattleLink{
			ScriptLoad: config.Static(memory.IWRAM, 0x03000000),
			ScriptData: config.Static(memory.EWRAM, 0x02000100),
			TextData:   config.Static(memory.EWRAM, 0x02000200),
			VarResult:  config.Static(memory.EWRAM, 0x02000300),
			Var8001:    config.Static(memory.EWRAM, 0x02000302),
		},
	}
	tp := &fakeAdapter{}
	s := New(gw, cfg, tp, nil, localID, 4)
	return s, tp
}

func TestOnInboundRoutesPositionToInterpolator(t *testing.T) {
	s, _ := newTestScheduler(t, "me")

	s.onInbound(transport.Message{
		Type:     transport.TypePosition,
		Position: &transport.Position{PlayerID: "alex", X: 3, Y: 4, MapGroup: 1, MapID: 1},
	})

	ids := s.Interp().PlayerIDs()
	if len(ids) != 1 || ids[0] != "alex" {
		t.Fatalf("expected interpolator to track alex, got %v", ids)
	}
}

func TestOnInboundIgnoresOwnPosition(t *testing.T) {
	s, _ := newTestScheduler(t, "me")

	s.onInbound(transport.Message{
		Type:     transport.TypePosition,
		Position: &transport.Position{PlayerID: "me", X: 3, Y: 4},
	})

	if ids := s.Interp().PlayerIDs(); len(ids) != 0 {
		t.Fatalf("expected local player's own position to be ignored, got %v", ids)
	}
}

func TestOnInboundIgnoresPositionWithoutPlayerID(t *testing.T) {
	s, _ := newTestScheduler(t, "me")

	s.onInbound(transport.Message{
		Type:     transport.TypePosition,
		Position: &transport.Position{X: 3, Y: 4},
	})

	if ids := s.Interp().PlayerIDs(); len(ids) != 0 {
		t.Fatalf("expected position with no playerId to be ignored, got %v", ids)
	}
}

func TestOnInboundDuelRequestTransitionsToShowingIncoming(t *testing.T) {
	s, _ := newTestScheduler(t, "me")

	s.onInbound(transport.Message{
		Type:        transport.TypeDuelRequest,
		DuelRequest: &transport.DuelRequest{TargetID: "me"},
	})

	local := LocalSample{InOverworld: true}
	s.Tick(local, 16.6, Buttons{}, 1, func(string) (GhostSprite, bool) { return GhostSprite{}, false })

	if got := s.Duel().State(); got != duel.ShowingIncoming {
		t.Fatalf("expected ShowingIncoming after an inbound duel_request, got %s", got)
	}
}

func TestTickIncomingDeclineSendsOverTransport(t *testing.T) {
	s, tp := newTestScheduler(t, "me")

	s.onInbound(transport.Message{
		Type:        transport.TypeDuelRequest,
		DuelRequest: &transport.DuelRequest{TargetID: "alex"},
	})

	local := LocalSample{InOverworld: true}
	btn := Buttons{BPressed: true}
	noSprite := func(string) (GhostSprite, bool) { return GhostSprite{}, false }

	// First tick: native script starts (not yet done), so B is not
	// resolved until the manual-fallback window elapses.
	for i := 0; i < 200; i++ {
		s.Tick(local, 16.6, btn, int64(i), noSprite)
	}

	found := false
	for _, ty := range tp.sent {
		if ty == transport.TypeDuelDecline {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a duel_decline to have been sent, got %v", tp.sent)
	}
	if got := s.Duel().State(); got != duel.Idle {
		t.Fatalf("expected duel machine back to Idle after resolving incoming request, got %s", got)
	}
}

func TestTickSkipsGhostRenderingOutOfOverworld(t *testing.T) {
	s, _ := newTestScheduler(t, "me")
	s.onInbound(transport.Message{
		Type:     transport.TypePosition,
		Position: &transport.Position{PlayerID: "alex", X: 0, Y: 0, MapGroup: 1, MapID: 1},
	})

	local := LocalSample{InOverworld: false, MapGroup: 1, MapID: 1}
	calls := 0
	s.Tick(local, 16.6, Buttons{}, 1, func(string) (GhostSprite, bool) {
		calls++
		return GhostSprite{}, false
	})

	if calls != 0 {
		t.Fatalf("expected spriteOf not to be consulted while not in the overworld, got %d calls", calls)
	}
}

func TestTickRendersGhostsInOverworld(t *testing.T) {
	s, _ := newTestScheduler(t, "me")
	s.onInbound(transport.Message{
		Type:     transport.TypePosition,
		Position: &transport.Position{PlayerID: "alex", X: 0, Y: 0, MapGroup: 1, MapID: 1},
	})

	local := LocalSample{InOverworld: true, MapGroup: 1, MapID: 1}
	calls := 0
	s.Tick(local, 16.6, Buttons{}, 1, func(id string) (GhostSprite, bool) {
		calls++
		if id != "alex" {
			t.Fatalf("expected spriteOf called for alex, got %s", id)
		}
		return GhostSprite{Width: 16, Height: 32}, true
	})

	if calls != 1 {
		t.Fatalf("expected spriteOf consulted once for the tracked ghost, got %d calls", calls)
	}
}

func TestRemovePlayerClearsInterpolatorAndSlot(t *testing.T) {
	s, _ := newTestScheduler(t, "me")
	s.onInbound(transport.Message{
		Type:     transport.TypePosition,
		Position: &transport.Position{PlayerID: "alex", X: 0, Y: 0, MapGroup: 1, MapID: 1},
	})

	s.RemovePlayer("alex")

	if ids := s.Interp().PlayerIDs(); len(ids) != 0 {
		t.Fatalf("expected alex removed from interpolator, got %v", ids)
	}
}
