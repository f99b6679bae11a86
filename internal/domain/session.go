package domain

// PlayerIdentity is the opaque token a client presents on join.
type PlayerIdentity string

// SessionState is the client's view of the authoritative game.
type SessionState struct {
	Board      Board
	TurnOwner  Color
	LocalColor Color
}

// MyTurn reports whether the local player may move.
func (s SessionState) MyTurn() bool {
	return s.LocalColor.Valid() && s.LocalColor == s.TurnOwner
}

// Selection is the chosen move origin, if any.
type Selection struct {
	Coord  Coord
	Active bool
}
