package session

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/park285/cheese-board-client/pkg/sessiondto"
)

// HandleFrame decodes one raw frame and dispatches it.
func (c *Client) HandleFrame(frame []byte) error {
	env, err := sessiondto.DecodeEnvelope(frame)
	if err != nil {
		return c.malformed("frame", err)
	}
	return c.Dispatch(env)
}

// Dispatch routes a server envelope to its handler.
func (c *Client) Dispatch(env sessiondto.Envelope) error {
	switch env.Event {
	case sessiondto.EventUpdateBoard:
		u, err := sessiondto.DecodePayload[sessiondto.BoardUpdate](env)
		if err != nil {
			return c.malformed(env.Event, err)
		}
		return c.OnServerUpdate(u)
	case sessiondto.EventGameOver:
		g, err := sessiondto.DecodePayload[sessiondto.GameOver](env)
		if err != nil {
			return c.malformed(env.Event, err)
		}
		return c.OnGameOver(g)
	case sessiondto.EventError:
		e, err := sessiondto.DecodePayload[sessiondto.ServerError](env)
		if err != nil {
			return c.malformed(env.Event, err)
		}
		return c.OnServerError(e)
	case sessiondto.EventPlayerJoined:
		p, err := sessiondto.DecodePayload[sessiondto.PlayerJoined](env)
		if err != nil {
			return c.malformed(env.Event, err)
		}
		return c.OnPlayerJoined(p)
	case sessiondto.EventPlayerLeft:
		p, err := sessiondto.DecodePayload[sessiondto.PlayerLeft](env)
		if err != nil {
			return c.malformed(env.Event, err)
		}
		return c.OnPlayerLeft(p)
	default:
		c.logger.Debug("unknown_event", zap.String("event", env.Event))
		return fmt.Errorf("%w: %s", ErrUnknownEvent, env.Event)
	}
}
