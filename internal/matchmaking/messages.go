package matchmaking

const (
	msgSetUsername    = "Set a Telegram username in your profile settings, otherwise teammates won't be able to contact you."
	msgPickGame       = "Which game are you looking for teammates in?"
	msgNoPlayers      = "No players found for this game yet. Try again later!"
	msgNoMorePlayers  = "No more players. Use /find to start a new search."
	msgNothingToInv   = "There is nobody to invite yet. Use /find first."
	msgInviteFmt      = "Player @%s liked your card for %s. Write to them!"
	msgInviteSentFmt  = "Invitation sent to %s!"
	msgCardFmt        = "Player: %s.\nFavourite game: %s.\nAbout: %s"
	msgSearchCanceled = "Search cancelled."
	msgNoSearch       = "There is no search to cancel."
)
