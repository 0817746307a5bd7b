package bot

const (
	msgPleaseRegister = "Hi! Press /registration to create your player card."
	msgNotUnderstood  = "Sorry, I didn't understand that."
	msgCommandList    = "Available commands:"
	msgTextOnly       = "I only understand text messages."
	msgFailure        = "Something went wrong on our side. Please try again later."
	msgUnknownAction  = "This button is no longer active."
	msgSlowDown       = "You are sending messages too fast. Your last message was skipped, please send it again."
)
