package transport

import (
	"encoding/json"
	"fmt"
)

type envelope struct {
	Type Type `json:"type"`
}

// Encode marshals an outbound payload alongside its type discriminator.
// payload must be one of the typed structs in messages.go.
func Encode(t Type, payload interface{}) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("transport: marshal %s: %w", t, err)
	}
	merged := make(map[string]json.RawMessage)
	if err := json.Unmarshal(body, &merged); err != nil {
		return nil, fmt.Errorf("transport: flatten %s: %w", t, err)
	}
	typeJSON, _ := json.Marshal(t)
	merged["type"] = typeJSON
	return json.Marshal(merged)
}

// Decode parses raw wire bytes into a Message, dispatching on the type
// discriminator (spec.md §9 "tagged-variant enumeration").
func Decode(raw []byte) (Message, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Message{}, fmt.Errorf("transport: decode envelope: %w", err)
	}

	msg := Message{Type: env.Type}
	var err error
	switch env.Type {
	case TypePosition:
		var p Position
		err = json.Unmarshal(raw, &p)
		msg.Position = &p
	case TypeDuelRequest:
		var v DuelRequest
		err = json.Unmarshal(raw, &v)
		msg.DuelRequest = &v
	case TypeDuelAccept:
		var v DuelAccept
		err = json.Unmarshal(raw, &v)
		msg.DuelAccept = &v
	case TypeDuelDecline:
		var v DuelDecline
		err = json.Unmarshal(raw, &v)
		msg.DuelDecline = &v
	case TypeDuelDeclined:
		var v DuelDeclined
		err = json.Unmarshal(raw, &v)
		msg.DuelDeclined = &v
	case TypeDuelPlayerInfo:
		var v DuelPlayerInfo
		err = json.Unmarshal(raw, &v)
		msg.DuelPlayerInfo = &v
	case TypeDuelStage:
		var v DuelStage
		err = json.Unmarshal(raw, &v)
		msg.DuelStage = &v
	case TypeDuelWarp:
		var v DuelWarp
		err = json.Unmarshal(raw, &v)
		msg.DuelWarp = &v
	case TypeBufferCmd:
		var v BufferCmd
		err = json.Unmarshal(raw, &v)
		msg.BufferCmd = &v
	case TypeBufferResp:
		var v BufferResp
		err = json.Unmarshal(raw, &v)
		msg.BufferResp = &v
	case TypeBufferAck:
		var v BufferAck
		err = json.Unmarshal(raw, &v)
		msg.BufferAck = &v
	default:
		return Message{}, fmt.Errorf("transport: unknown message type %q", env.Type)
	}
	if err != nil {
		return Message{}, fmt.Errorf("transport: decode %s: %w", env.Type, err)
	}
	return msg, nil
}
