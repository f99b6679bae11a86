package sessiondto

// Event names carried in Envelope.Event.
const (
	EventJoin         = "join"
	EventMakeMove     = "make_move"
	EventUpdateBoard  = "update_board"
	EventGameOver     = "game_over"
	EventError        = "error"
	EventPlayerJoined = "player_joined"
	EventPlayerLeft   = "player_left"
)

// WinnerDraw is the winner value the server sends when nobody won.
const WinnerDraw = "draw"

// Client -> Server

type JoinRequest struct {
	PlayerID string `json:"playerId"`
}

type Coord struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

type MoveRequest struct {
	From         Coord  `json:"from"`
	To           Coord  `json:"to"`
	ClaimedColor string `json:"claimedColor"`
}

// Server -> Client

// BoardUpdate is a full authoritative state push. PlayerColor is only present
// around seat assignment.
type BoardUpdate struct {
	Board         [][]string `json:"board"`
	CurrentPlayer string     `json:"currentPlayer"`
	PlayerColor   *string    `json:"playerColor,omitempty"`
}

type GameOver struct {
	Result string `json:"result"`
	Winner string `json:"winner"`
}

type ServerError struct {
	Message string `json:"message"`
}

type PlayerJoined struct {
	PlayerID string `json:"playerId"`
	Color    string `json:"color"`
}

type PlayerLeft struct {
	PlayerID string `json:"playerId"`
}
