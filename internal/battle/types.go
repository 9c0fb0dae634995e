// Package battle drives the multi-stage link-battle controller: patch
// the ROM's link-cable state, walk the engine through start-up, relay
// its two communication buffers between host and client, and tear down
// cleanly (spec.md §4.I — the heart of the core).
package battle

import (
	"github.com/linkcore/overlay-core/internal/transport"
)

// Stage is the battle controller's coarse lifecycle state (spec.md §3).
// Stages only advance forward; Reset is the sole edge back to Idle.
type Stage uint8

const (
	Idle Stage = iota
	Starting
	MainLoop
	Ending
	Restoring
	Done
)

func (s Stage) String() string {
	switch s {
	case Idle:
		return "idle"
	case Starting:
		return "starting"
	case MainLoop:
		return "main_loop"
	case Ending:
		return "ending"
	case Restoring:
		return "restoring"
	case Done:
		return "done"
	default:
		return "stage(?)"
	}
}

// Outcome is the decoded result of a finished battle (spec.md §4.I
// "Outcome").
type Outcome string

const (
	OutcomeWin       Outcome = "win"
	OutcomeLose      Outcome = "lose"
	OutcomeDraw      Outcome = "draw"
	OutcomeFlee      Outcome = "flee"
	OutcomeForfeit   Outcome = "forfeit"
	OutcomeCompleted Outcome = "completed"
)

// PendingCmd is one in-flight buffer-relay command, cached so its
// fields can be re-written every frame to defeat DMA scribbling
// (spec.md §9).
type PendingCmd struct {
	BufA [256]byte
	BufB *[256]byte
	Ctx  transport.BufferCmdCtx
}

// RelayState is the buffer-relay protocol's per-battler bookkeeping
// (spec.md §3 "BufferRelayState").
type RelayState struct {
	LocalSlot, RemoteSlot uint8

	PendingRelay [2]bool
	PendingAck   [2]bool
	PendingCmd   [2]*PendingCmd
	ProcessingCmd [2]bool
	ActiveCmd    [2]*PendingCmd
	LastClientBufB [2]*[256]byte
	RemoteBufBQueue [2]*[256]byte
	CtxWritten   [2]bool

	BufferABase, BufferBBase uint32
	BuffersResolved          bool
}

// State is the Battle Controller's full per-session state (spec.md §3
// "Battle state (I)").
type State struct {
	Stage Stage

	IsMaster bool

	FrameCounter        uint64
	StageTimer          uint64
	StageClockStartNano int64

	PrevInBattle      bool
	BattleDetected    bool
	BattleMainReached bool
	CachedOutcome     *Outcome

	ForceEndPending bool
	ForceEndFrame   uint64
	ForceEndOutcome Outcome

	OpponentParty    *[600]byte
	LocalPartyBackup *[600]byte
	SavedCallback1   *uint32
	BattleFlags      *uint32

	CommAdvanced        bool
	RemoteMainloopReady bool
	IntroComplete       bool

	Relay RelayState

	ROMPatches []appliedPatch
	RAMPatches []appliedPatch
}

// reset clears all session state back to a fresh Idle battle, leaving
// the ROM/RAM patch lists empty (callers must restore patches before
// calling reset if any are still applied).
func (s *State) reset() {
	*s = State{Stage: Idle}
}
