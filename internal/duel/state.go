// Package duel implements the proximity-triggered challenge flow: press A
// near a remote ghost, confirm, and wait for the peer's answer, returning
// to Idle on acceptance (spec.md §4.H). An inbound duel_warp is forwarded
// as an ActionWarp in any state; no ActionStartBattle is emitted.
package duel

// State is one node of the duel flow's state machine (spec.md §3 "Duel
// context").
type State uint8

const (
	Idle State = iota
	PreChallengeWait
	ConfirmingChallenge
	WaitingResponse
	ShowingResult
	ShowingIncoming
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case PreChallengeWait:
		return "pre_challenge_wait"
	case ConfirmingChallenge:
		return "confirming_challenge"
	case WaitingResponse:
		return "waiting_response"
	case ShowingResult:
		return "showing_result"
	case ShowingIncoming:
		return "showing_incoming"
	default:
		return "unknown"
	}
}

const (
	// proximityTiles is the maximum Chebyshev distance to a remote
	// ghost that arms a challenge (spec.md §4.H "within 2 tiles").
	proximityTiles = 2

	// cooldownFrames is the minimum gap between two challenges this
	// player initiates (spec.md §3 "min gap 120 frames").
	cooldownFrames = 120

	// preChallengeMinFrames/MaxFrames bound pre_challenge_wait: it
	// ends on A-release, or at 10 frames regardless, never before 3
	// (spec.md §4.H "A released OR 10 frames elapsed, min 3").
	preChallengeMinFrames = 3
	preChallengeMaxFrames = 10

	// responseTimeoutFrames/requestTimeoutFrames are the two
	// server-round-trip timeouts (spec.md §3).
	responseTimeoutFrames = 900
	requestTimeoutFrames  = 600

	// resultDisplayFrames is showing_result's safety timeout when the
	// player never dismisses the message (spec.md §4.H "600 frame
	// safety").
	resultDisplayFrames = 600

	// manualFallbackFrames is how long confirming_challenge/
	// showing_incoming wait for the native Yes/No script before
	// switching to directional-key manual selection (spec.md §4.H
	// "Manual Yes/No fallback" — the ROM script never runs if the
	// engine is mid-transition; not a spec-named constant, chosen to
	// comfortably exceed the textbox injector's own startup delay).
	manualFallbackFrames = 180
)

// Context mirrors spec.md §3's duel context record.
type Context struct {
	State State

	TargetID, TargetName       string
	RequesterID, RequesterName string

	StateFrame    uint64
	FlowStartFrame uint64

	YesNoFallbackSelection bool // true = "Yes" currently highlighted
}
