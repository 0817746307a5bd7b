package domain

// Event is one inbound text from a player.
type Event struct {
	UserID   int64
	Username string
	Text     string
}

// HasHandle reports whether the sender has a public @username.
func (e Event) HasHandle() bool { return e.Username != "" }
