package duel

import "github.com/linkcore/overlay-core/internal/transport"

// ActionKind discriminates the Action tagged union the Frame Scheduler
// consumes (spec.md §9 "Actions are a tagged union").
type ActionKind uint8

const (
	// ActionSend asks the scheduler to forward Message/Payload to the
	// Transport Adapter.
	ActionSend ActionKind = iota
	// ActionWarp asks the scheduler to drive the Warp Engine into the
	// shared battle map.
	ActionWarp
	// ActionStartBattle asks the scheduler to start the Battle
	// Controller once both players have warped in.
	ActionStartBattle
)

// Action is one side effect the Machine wants performed. Exactly the
// field matching Kind is meaningful.
type Action struct {
	Kind ActionKind

	MessageType transport.Type
	Payload     interface{}

	Warp WarpInstruction

	IsMaster        bool
	OpponentID      string
	OpponentName    string
}

// WarpInstruction carries the data an ActionWarp needs to hand to the
// Warp Engine (spec.md §6 "duel_warp").
type WarpInstruction struct {
	IsMaster bool
	X, Y     int16
	MapGroup, MapID uint8
}

func sendAction(t transport.Type, payload interface{}) Action {
	return Action{Kind: ActionSend, MessageType: t, Payload: payload}
}
