// Package transport carries protocol frames between the client and the game
// server.
package transport

import (
	"context"
	"errors"
)

var ErrNotConnected = errors.New("ws not connected")

type WebSocketState int

const (
	WSStateDisconnected WebSocketState = iota
	WSStateConnecting
	WSStateConnected
	WSStateReconnecting
	WSStateFailed
)

func (s WebSocketState) String() string {
	switch s {
	case WSStateDisconnected:
		return "disconnected"
	case WSStateConnecting:
		return "connecting"
	case WSStateConnected:
		return "connected"
	case WSStateReconnecting:
		return "reconnecting"
	case WSStateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// MessageCallback receives one text frame. The slice is owned by the callee.
type MessageCallback func(frame []byte)

type StateCallback func(state WebSocketState)

// HeaderProvider allows injecting handshake headers
type HeaderProvider func() map[string]string

type WSClient interface {
	Connect(ctx context.Context) error
	OnMessage(cb MessageCallback) int
	RemoveMessageCallback(id int)
	OnStateChange(cb StateCallback) int
	RemoveStateCallback(id int)
	WriteText(ctx context.Context, frame []byte) error
	State() WebSocketState
	Close(ctx context.Context) error
}
