package redis

import (
	"fmt"

	"github.com/mcoot/pirateclash/internal/model"
)

// Key prefix for all game-related data
const keyPrefix = "pirateclash"

// Key generation functions for each entity type

// playerKey returns the Redis key for a Player
func playerKey(id model.PlayerID) string {
	return fmt.Sprintf("%s:player:%s", keyPrefix, id)
}

// registeredPlayerKey returns the Redis key for a RegisteredPlayer
func registeredPlayerKey(playerID model.PlayerID) string {
	return fmt.Sprintf("%s:registered_player:%s", keyPrefix, playerID)
}

// usernameIndexKey returns the Redis key for the username -> player_id index
func usernameIndexKey(username string) string {
	return fmt.Sprintf("%s:idx:username:%s", keyPrefix, username)
}

// sessionKey returns the Redis key for a Session
func sessionKey(token string) string {
	return fmt.Sprintf("%s:session:%s", keyPrefix, token)
}

// sessionKeyPattern matches every Session key for SCAN
func sessionKeyPattern() string {
	return fmt.Sprintf("%s:session:*", keyPrefix)
}

// profileKey returns the Redis key for a PlayerProfile
func profileKey(id model.PlayerID) string {
	return fmt.Sprintf("%s:profile:%s", keyPrefix, id)
}

// profilesIndexKey returns the Redis key for the SET of all profile IDs
func profilesIndexKey() string {
	return fmt.Sprintf("%s:idx:profiles", keyPrefix)
}

// matchesKey returns the Redis key for a player's match LIST, newest at the head
func matchesKey(id model.PlayerID) string {
	return fmt.Sprintf("%s:matches:%s", keyPrefix, id)
}

// leaderboardEntryKey returns the Redis key for a LeaderboardEntry
func leaderboardEntryKey(id model.PlayerID) string {
	return fmt.Sprintf("%s:leaderboard:entry:%s", keyPrefix, id)
}

// leaderboardIndexKey returns the Redis key for the ZSET of player IDs scored by best streak
func leaderboardIndexKey() string {
	return fmt.Sprintf("%s:idx:leaderboard", keyPrefix)
}
