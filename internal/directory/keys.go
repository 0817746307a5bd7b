package directory

import "fmt"

// Key prefix for all cached catalog data
const keyPrefix = "gamerbot"

// gamesKey holds the whole catalog ordered by id
func gamesKey() string {
	return fmt.Sprintf("%s:games", keyPrefix)
}

// gameKey holds one catalog entry
func gameKey(id int64) string {
	return fmt.Sprintf("%s:game:%d", keyPrefix, id)
}

// gamePattern matches every gameKey for invalidation scans
func gamePattern() string {
	return fmt.Sprintf("%s:game:*", keyPrefix)
}
