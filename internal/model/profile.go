package model

import "time"

// DefaultUsernamePrefix is used for generated usernames, e.g. "Pirate1234"
const DefaultUsernamePrefix = "Pirate"

// LeaderboardSize is the number of entries returned by leaderboard queries
const LeaderboardSize = 10

// RecentMatchesLimit is the number of match records returned by history queries
const RecentMatchesLimit = 10

// PlayerProfile holds the game stats of one identity
type PlayerProfile struct {
	PlayerID          PlayerID
	Username          string
	TotalWins         int
	TotalLosses       int
	CurrentStreak     int // consecutive wins, reset on any loss
	BestStreak        int
	FavoriteCharacter CharacterID // last character played
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// MatchesPlayed returns the number of recorded matches
func (p *PlayerProfile) MatchesPlayed() int {
	return p.TotalWins + p.TotalLosses
}

// ApplyMatch updates the stats for a finished match
func (p *PlayerProfile) ApplyMatch(summary MatchSummary, at time.Time) {
	if summary.PlayerWon {
		p.TotalWins++
		p.CurrentStreak++
	} else {
		p.TotalLosses++
		p.CurrentStreak = 0
	}
	p.BestStreak = max(p.BestStreak, p.CurrentStreak)
	p.FavoriteCharacter = summary.PlayerCharacter
	p.UpdatedAt = at
}

// MatchRecord is an immutable log entry for one completed match
type MatchRecord struct {
	ID                string
	PlayerID          PlayerID
	PlayerCharacter   CharacterID
	OpponentCharacter CharacterID
	PlayerWon         bool
	RoundsWon         int
	RoundsLost        int
	PerfectRounds     int
	PlayedAt          time.Time
}

// NewMatchRecord builds the record for a summary
func NewMatchRecord(id string, playerID PlayerID, summary MatchSummary, at time.Time) *MatchRecord {
	return &MatchRecord{
		ID:                id,
		PlayerID:          playerID,
		PlayerCharacter:   summary.PlayerCharacter,
		OpponentCharacter: summary.OpponentCharacter,
		PlayerWon:         summary.PlayerWon,
		RoundsWon:         summary.RoundsWon,
		RoundsLost:        summary.RoundsLost,
		PerfectRounds:     summary.PerfectRounds,
		PlayedAt:          at,
	}
}

// LeaderboardEntry is a denormalized projection of a PlayerProfile
type LeaderboardEntry struct {
	PlayerID   PlayerID
	Username   string
	BestStreak int
	TotalWins  int
	UpdatedAt  time.Time
}

// LeaderboardEntryFromProfile projects a profile onto its leaderboard entry
func LeaderboardEntryFromProfile(p *PlayerProfile, at time.Time) *LeaderboardEntry {
	return &LeaderboardEntry{
		PlayerID:   p.PlayerID,
		Username:   p.Username,
		BestStreak: p.BestStreak,
		TotalWins:  p.TotalWins,
		UpdatedAt:  at,
	}
}

// MatchesProfile returns true if the entry agrees with the profile's stats
func (e *LeaderboardEntry) MatchesProfile(p *PlayerProfile) bool {
	return e.PlayerID == p.PlayerID &&
		e.Username == p.Username &&
		e.BestStreak == p.BestStreak &&
		e.TotalWins == p.TotalWins
}

// RanksAbove orders leaderboard entries: best streak descending,
// ties broken by player ID descending
func (e *LeaderboardEntry) RanksAbove(other *LeaderboardEntry) bool {
	if e.BestStreak != other.BestStreak {
		return e.BestStreak > other.BestStreak
	}
	return e.PlayerID > other.PlayerID
}

// MatchResult is returned after recording a match
type MatchResult struct {
	NewStreak     int
	NewBestStreak int
}
