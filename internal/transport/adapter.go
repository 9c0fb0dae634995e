package transport

// Adapter is the contract the Frame Scheduler drives: send a typed
// outbound message, and register the callback inbound messages are
// delivered to (spec.md §4.K). It deliberately says nothing about the
// underlying wire — that's an external collaborator (spec.md §1).
type Adapter interface {
	Send(t Type, payload interface{}) error
	RegisterInbound(cb func(Message))
}
