package entity

// Player is the server-side identity of one connection. The ID is an
// opaque handle issued at accept time; it is not tied to the socket.
type Player struct {
	ID     string `json:"id"`
	Name   string `json:"name,omitempty"`
	Mark   string `json:"mark,omitempty"`
	GameID string `json:"game_id,omitempty"`
}

// IsEnrolled - reports whether the player has completed the name handshake.
func (that *Player) IsEnrolled() bool {
	return that.Name != ""
}
