// Copyright 2026 The Mapgrab Authors
// SPDX-License-Identifier: Apache-2.0

package cdp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/mapgrab/mapgrab/lib/netutil"
)

// Session is one DevTools WebSocket connection to a target. Commands
// are correlated by monotonically increasing ids; protocol events are
// dispatched inline on the read loop, in wire order (see the package
// comment for why order matters here).
//
// Session is safe for concurrent use: any goroutine may Call while
// the read loop dispatches events.
type Session struct {
	conn   *websocket.Conn
	logger *slog.Logger

	// writeMu serializes writes; gorilla/websocket allows at most
	// one concurrent writer.
	writeMu sync.Mutex

	mu       sync.Mutex
	nextID   int64
	pending  map[int64]chan wireMessage
	handlers map[string][]func(params json.RawMessage)

	// closed is closed by the read loop on exit; readErr holds the
	// terminating error (nil for a clean close).
	closed  chan struct{}
	readErr error
}

func newSession(conn *websocket.Conn, logger *slog.Logger) *Session {
	return &Session{
		conn:     conn,
		logger:   logger,
		pending:  make(map[int64]chan wireMessage),
		handlers: make(map[string][]func(json.RawMessage)),
		closed:   make(chan struct{}),
	}
}

// Call sends a protocol command and waits for its reply. params may
// be nil for commands without parameters; result may be nil when the
// caller does not care about the reply payload. A protocol-level
// error reply comes back as an error carrying the browser's message.
func (s *Session) Call(ctx context.Context, method string, params, result any) error {
	message := wireMessage{Method: method}
	if params != nil {
		encoded, err := json.Marshal(params)
		if err != nil {
			return fmt.Errorf("cdp: encoding %s params: %w", method, err)
		}
		message.Params = encoded
	}

	reply := make(chan wireMessage, 1)
	s.mu.Lock()
	s.nextID++
	message.ID = s.nextID
	s.pending[message.ID] = reply
	s.mu.Unlock()

	if err := s.writeMessage(message); err != nil {
		s.mu.Lock()
		delete(s.pending, message.ID)
		s.mu.Unlock()
		return fmt.Errorf("cdp: sending %s: %w", method, err)
	}

	select {
	case response := <-reply:
		if response.Error != nil {
			return fmt.Errorf("cdp: %s failed: %s (code %d)",
				method, response.Error.Message, response.Error.Code)
		}
		if result != nil && len(response.Result) > 0 {
			if err := json.Unmarshal(response.Result, result); err != nil {
				return fmt.Errorf("cdp: decoding %s result: %w", method, err)
			}
		}
		return nil
	case <-ctx.Done():
		s.mu.Lock()
		delete(s.pending, message.ID)
		s.mu.Unlock()
		return fmt.Errorf("cdp: %s: %w", method, ctx.Err())
	case <-s.closed:
		if s.readErr != nil {
			return fmt.Errorf("cdp: %s: connection closed: %w", method, s.readErr)
		}
		return fmt.Errorf("cdp: %s: connection closed", method)
	}
}

// Handle registers a handler for a protocol event method (e.g.,
// "Debugger.scriptParsed"). Handlers registered for the same method
// run in registration order, inline on the read loop. Register
// handlers before enabling the domain that emits them, or early
// events are silently missed.
func (s *Session) Handle(method string, handler func(params json.RawMessage)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[method] = append(s.handlers[method], handler)
}

// Close tears down the WebSocket connection. The read loop exits and
// all pending Calls fail. Safe to call more than once.
func (s *Session) Close() error {
	return s.conn.Close()
}

// Done is closed when the read loop has exited, whether by Close or
// by a transport failure. Err reports which.
func (s *Session) Done() <-chan struct{} {
	return s.closed
}

// Err returns the error that terminated the read loop, or nil for a
// clean close. Only meaningful after Done is closed.
func (s *Session) Err() error {
	select {
	case <-s.closed:
		if netutil.IsExpectedCloseError(s.readErr) || websocket.IsCloseError(s.readErr,
			websocket.CloseNormalClosure, websocket.CloseGoingAway) {
			return nil
		}
		return s.readErr
	default:
		return nil
	}
}

// writeMessage sends one frame under the write lock.
func (s *Session) writeMessage(message wireMessage) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteJSON(message)
}

// readLoop pumps frames until the connection dies: replies are routed
// to their pending Call, events to their handlers in wire order.
func (s *Session) readLoop() {
	defer close(s.closed)
	for {
		var message wireMessage
		if err := s.conn.ReadJSON(&message); err != nil {
			s.readErr = err
			s.failPending(err)
			if !netutil.IsExpectedCloseError(err) && !websocket.IsCloseError(err,
				websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Warn("devtools read loop terminated", "error", err)
			}
			return
		}

		if message.ID != 0 {
			s.mu.Lock()
			reply, ok := s.pending[message.ID]
			delete(s.pending, message.ID)
			s.mu.Unlock()
			if ok {
				reply <- message
			}
			continue
		}

		s.mu.Lock()
		handlers := append(([]func(json.RawMessage))(nil), s.handlers[message.Method]...)
		s.mu.Unlock()
		for _, handler := range handlers {
			handler(message.Params)
		}
	}
}

// failPending drops all outstanding calls when the connection dies.
// Each waiting Call observes the closed channel and reports the read
// error; clearing the map here just releases the reply channels.
func (s *Session) failPending(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.pending) > 0 {
		s.logger.Debug("dropping pending devtools calls", "count", len(s.pending), "error", err)
	}
	s.pending = make(map[int64]chan wireMessage)
}
