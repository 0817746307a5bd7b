package domain

// Step is the registration progress of a player.
// The zero value is StepNew.
type Step int

const (
	StepNew Step = iota
	StepNamePending
	StepBioPending
	StepGamePending
	StepDone
)

var stepNames = [...]string{"new", "name_pending", "bio_pending", "game_pending", "done"}

func (s Step) String() string {
	if s < 0 || int(s) >= len(stepNames) {
		return "unknown"
	}
	return stepNames[s]
}

// StepOf returns StepNew for players without a directory record.
func StepOf(p *Player) Step {
	if p == nil {
		return StepNew
	}
	return p.Step()
}

// FieldFor maps a pending step to the field it collects.
func FieldFor(s Step) (Field, bool) {
	switch s {
	case StepNamePending:
		return FieldName, true
	case StepBioPending:
		return FieldBio, true
	case StepGamePending:
		return FieldPreferredGame, true
	}
	return "", false
}
