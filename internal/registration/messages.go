package registration

const (
	msgEnterName      = "Enter your Steam nickname."
	msgEnterBio       = "Tell us a little about yourself: roles you play, rank, when you are online."
	msgPickGame       = "Pick your favourite game from the list."
	msgUnknownGame    = "I don't know that game. Please pick one from the list."
	msgDone           = "Registration complete! Use /find to look for teammates."
	msgNameEmpty      = "The nickname can't be empty!"
	msgNameTooLongFmt = "The nickname can't be longer than %d characters!"
	msgBioTooLongFmt  = "The description can't be longer than %d characters!"
	msgSearchEnabled  = "Search enabled: other players can find you now."
	msgSearchDisabled = "Search disabled: you are hidden from other players."
)
