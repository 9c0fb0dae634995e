package transport

import (
	"sync"

	"github.com/gorilla/websocket"

	"github.com/linkcore/overlay-core/pkg/log"
)

// WSAdapter is a concrete Adapter backed by a single gorilla/websocket
// connection to the relay server. Reads and writes run on their own
// goroutines (ReadPump/WritePump), handing decoded messages to the
// registered inbound callback and queuing outbound ones on a channel.
type WSAdapter struct {
	conn *websocket.Conn
	send chan []byte
	log  log.Logger

	mu     sync.Mutex
	inbound func(Message)

	closed chan struct{}
}

// DialWS connects to url and returns a running WSAdapter.
func DialWS(url string, logger log.Logger) (*WSAdapter, error) {
	if logger == nil {
		logger = log.NewNullLogger()
	}
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, err
	}
	a := &WSAdapter{
		conn:   conn,
		send:   make(chan []byte, 64),
		log:    logger,
		closed: make(chan struct{}),
	}
	go a.readPump()
	go a.writePump()
	return a, nil
}

// RegisterInbound sets the callback invoked for every decoded inbound
// message. Only one callback is supported; the Frame Scheduler owns
// dispatch to components from there.
func (a *WSAdapter) RegisterInbound(cb func(Message)) {
	a.mu.Lock()
	a.inbound = cb
	a.mu.Unlock()
}

// Send encodes and queues an outbound message. Non-blocking: if the send
// buffer is full the message is dropped and logged, matching the "never
// surfaces to the user" error posture for non-critical I/O (spec.md §7).
func (a *WSAdapter) Send(t Type, payload interface{}) error {
	body, err := Encode(t, payload)
	if err != nil {
		return err
	}
	select {
	case a.send <- body:
		return nil
	default:
		a.log.Errorf("transport: send buffer full, dropping %s", t)
		return nil
	}
}

func (a *WSAdapter) readPump() {
	defer close(a.closed)
	for {
		_, raw, err := a.conn.ReadMessage()
		if err != nil {
			a.log.Infof("transport: read pump closing: %v", err)
			return
		}
		msg, err := Decode(raw)
		if err != nil {
			a.log.Debugf("transport: %v", err)
			continue
		}
		a.mu.Lock()
		cb := a.inbound
		a.mu.Unlock()
		if cb != nil {
			cb(msg)
		}
	}
}

func (a *WSAdapter) writePump() {
	for {
		select {
		case body, ok := <-a.send:
			if !ok {
				a.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := a.conn.WriteMessage(websocket.TextMessage, body); err != nil {
				a.log.Infof("transport: write pump closing: %v", err)
				return
			}
		case <-a.closed:
			return
		}
	}
}

// Close shuts down the connection and both pumps.
func (a *WSAdapter) Close() error {
	close(a.send)
	return a.conn.Close()
}
