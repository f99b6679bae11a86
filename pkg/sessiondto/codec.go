package sessiondto

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrEmptyFrame   = errors.New("empty frame")
	ErrEmptyEvent   = errors.New("envelope has no event")
	ErrEmptyPayload = errors.New("envelope has no data")
)

// Envelope is the single frame shape on the wire: {"event": ..., "data": ...}.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func Encode(event string, payload any) ([]byte, error) {
	if event == "" {
		return nil, ErrEmptyEvent
	}
	if payload == nil {
		return nil, fmt.Errorf("encode %s: %w", event, ErrEmptyPayload)
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", event, err)
	}
	return json.Marshal(Envelope{Event: event, Data: raw})
}

func DecodeEnvelope(b []byte) (Envelope, error) {
	if len(b) == 0 {
		return Envelope{}, ErrEmptyFrame
	}
	var env Envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return Envelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	if env.Event == "" {
		return Envelope{}, ErrEmptyEvent
	}
	return env, nil
}

// DecodePayload unmarshals the envelope data into T.
func DecodePayload[T any](env Envelope) (T, error) {
	var out T
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return out, fmt.Errorf("%s: %w", env.Event, ErrEmptyPayload)
	}
	if err := json.Unmarshal(env.Data, &out); err != nil {
		return out, fmt.Errorf("decode %s payload: %w", env.Event, err)
	}
	return out, nil
}
