package domain

import (
	"strconv"
	"strings"
)

// ParseGameToken reads the leading integer of picker input such as "3 Dota2".
func ParseGameToken(input string) (int64, error) {
	fields := strings.Fields(input)
	if len(fields) == 0 {
		return 0, Unresolved("empty game selection", nil)
	}
	id, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil || id <= 0 {
		return 0, Unresolved("game id is not a number", err)
	}
	return id, nil
}

// PickerLabel is the button text the game picker shows; ParseGameToken accepts it.
func PickerLabel(g Game) string {
	return strconv.FormatInt(g.ID, 10) + " " + g.Title
}
