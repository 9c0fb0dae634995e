// Package transport is the minimal contract between the Frame Scheduler
// and the external network client: send a typed message, and receive
// inbound ones through a registered callback (spec.md §4.K, §6).
package transport

// Type is the wire discriminator every message carries under the JSON
// key "type".
type Type string

const (
	TypePosition       Type = "position"
	TypeDuelRequest    Type = "duel_request"
	TypeDuelAccept     Type = "duel_accept"
	TypeDuelDecline    Type = "duel_decline"
	TypeDuelDeclined   Type = "duel_declined"
	TypeDuelPlayerInfo Type = "duel_player_info"
	TypeDuelStage      Type = "duel_stage"
	TypeDuelWarp       Type = "duel_warp"
	TypeBufferCmd      Type = "duel_buffer_cmd"
	TypeBufferResp     Type = "duel_buffer_resp"
	TypeBufferAck      Type = "duel_buffer_ack"
)

// Connection describes one map-border connection as it travels over the
// wire alongside a Position message.
type Connection struct {
	Direction string `json:"direction"`
	Offset    int32  `json:"offset"`
	MapGroup  uint8  `json:"mapGroup"`
	MapID     uint8  `json:"mapId"`
}

// TransitionPoint is the optional seam-crossing origin carried on a
// Position message (spec.md §6 "transitionFrom").
type TransitionPoint struct {
	MapGroup uint8   `json:"mapGroup"`
	MapID    uint8   `json:"mapId"`
	X        float32 `json:"x"`
	Y        float32 `json:"y"`
}

// Position is the outbound per-frame (or on-change) local position
// report. PlayerID is left empty on outbound messages (the server
// already knows the sending connection) and populated by the server on
// relay to other clients, the same convention as duel_declined's "from".
type Position struct {
	PlayerID   string  `json:"playerId,omitempty"`
	X          int16   `json:"x"`
	Y          int16   `json:"y"`
	MapID      uint8   `json:"mapId"`
	MapGroup   uint8   `json:"mapGroup"`
	Facing     uint8   `json:"facing"`
	TimeMS     uint64  `json:"timeMs"`
	MapRev     uint32  `json:"mapRev"`
	MetaStable bool    `json:"metaStable"`
	MetaHash   uint32  `json:"metaHash"`
	BorderX    *uint16 `json:"borderX,omitempty"`
	BorderY    *uint16 `json:"borderY,omitempty"`

	Connections     []Connection     `json:"connections,omitempty"`
	TransitionFrom  *TransitionPoint `json:"transitionFrom,omitempty"`
	TransitionKind  string           `json:"transitionKind,omitempty"`
	TransitionToken uint32           `json:"transitionToken,omitempty"`
}

// DuelRequest challenges targetId.
type DuelRequest struct {
	TargetID string `json:"targetId"`
}

// DuelAccept/DuelDecline answer an incoming challenge.
type DuelAccept struct {
	RequesterID string `json:"requesterId"`
}

type DuelDecline struct {
	RequesterID string `json:"requesterId"`
}

// DuelDeclined is the inbound notice that the remote side declined.
type DuelDeclined struct {
	From string `json:"from"`
}

// DuelPlayerInfo is sent once per duel to let the opponent build a
// local link-player record.
type DuelPlayerInfo struct {
	Name       []byte `json:"name"`
	Gender     uint8  `json:"gender"`
	TrainerID  uint32 `json:"trainerId"`
}

// DuelStage reports a named or numeric battle-controller milestone.
type DuelStage struct {
	Stage interface{} `json:"stage"`
}

// DuelWarp is the inbound instruction to warp into the shared battle map.
type DuelWarp struct {
	IsMaster  bool `json:"isMaster"`
	OriginPos struct {
		X        int16 `json:"x"`
		Y        int16 `json:"y"`
		MapGroup uint8 `json:"mapGroup"`
		MapID    uint8 `json:"mapId"`
	} `json:"originPos"`
}

// BufferCmdCtx carries the per-battler context fields the host relays
// alongside a buffer command.
type BufferCmdCtx struct {
	Attacker uint8 `json:"attacker"`
	Target   uint8 `json:"target"`
	Absent   uint8 `json:"absent"`
	Effect   uint8 `json:"effect"`
}

// BufferCmd is the host→client buffer relay message.
type BufferCmd struct {
	Battler uint8         `json:"battler"`
	BufA    [256]byte     `json:"bufA"`
	BufB    *[256]byte    `json:"bufB,omitempty"`
	Ctx     BufferCmdCtx  `json:"ctx"`
}

// BufferResp is the client→host response carrying the controller's
// finished bufferB.
type BufferResp struct {
	Battler uint8     `json:"battler"`
	BufB    [256]byte `json:"bufB"`
}

// BufferAck is the client→host acknowledgement that it has applied a
// BufferCmd and the host may activate the battler.
type BufferAck struct {
	Battler uint8 `json:"battler"`
}

// Message is the decoded tagged union dispatched to inbound handlers.
// Exactly one of the typed fields is non-nil, matching Type.
type Message struct {
	Type Type

	Position       *Position
	DuelRequest    *DuelRequest
	DuelAccept     *DuelAccept
	DuelDecline    *DuelDecline
	DuelDeclined   *DuelDeclined
	DuelPlayerInfo *DuelPlayerInfo
	DuelStage      *DuelStage
	DuelWarp       *DuelWarp
	BufferCmd      *BufferCmd
	BufferResp     *BufferResp
	BufferAck      *BufferAck
}
