package transport

import (
	"context"
	"sync"
)

// Message is one recorded send.
type Message struct {
	To       int64
	Text     string
	Keyboard Keyboard
}

// Recorder is an in-memory Transport that keeps every message.
type Recorder struct {
	mu   sync.Mutex
	msgs []Message
	// Err, when set, is returned by every Send.
	Err error
}

func (r *Recorder) Send(_ context.Context, playerID int64, text string, kb Keyboard) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.msgs = append(r.msgs, Message{To: playerID, Text: text, Keyboard: kb})
	return nil
}

// Messages returns a copy of everything sent so far.
func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.msgs...)
}

// To returns the messages addressed to playerID.
func (r *Recorder) To(playerID int64) []Message {
	var out []Message
	for _, m := range r.Messages() {
		if m.To == playerID {
			out = append(out, m)
		}
	}
	return out
}

// Last returns the most recent message, if any.
func (r *Recorder) Last() (Message, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.msgs) == 0 {
		return Message{}, false
	}
	return r.msgs[len(r.msgs)-1], true
}

// Reset drops recorded messages.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = nil
}
