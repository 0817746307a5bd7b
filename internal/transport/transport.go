// Package transport delivers outbound bot messages.
package transport

import "context"

// Keyboard is the reply markup hint attached to a message.
type Keyboard int

const (
	KeyboardNone Keyboard = iota
	KeyboardRegistrationStart
	KeyboardGamePicker
	KeyboardTeammateActions
	KeyboardClear
)

var keyboardNames = [...]string{"none", "registration_start", "game_picker", "teammate_actions", "clear"}

func (k Keyboard) String() string {
	if k < 0 || int(k) >= len(keyboardNames) {
		return "unknown"
	}
	return keyboardNames[k]
}

// Transport sends one message to a player. Delivery is fire-and-forget:
// a nil error means the message was accepted, not that it arrived.
type Transport interface {
	Send(ctx context.Context, playerID int64, text string, kb Keyboard) error
}

// Callback keys of the teammate-actions inline buttons.
const (
	CallbackNext   = "next"
	CallbackInvite = "invite"
)

// RegistrationCommand is the label of the registration-start button.
const RegistrationCommand = "/registration"
