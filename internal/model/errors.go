package model

import "errors"

// Common errors used across the application
var (
	// Identity errors
	ErrPlayerNotFound         = errors.New("player not found")
	ErrAuthenticationRequired = errors.New("authentication required")
	ErrSessionNotFound        = errors.New("session not found")

	// Profile errors
	ErrProfileNotFound = errors.New("profile not found")
	ErrInvalidUsername = errors.New("invalid username")

	// Match errors
	ErrInvalidMatchSummary = errors.New("invalid match summary")

	// Leaderboard errors
	ErrLeaderboardEntryNotFound = errors.New("leaderboard entry not found")

	// Catalog errors
	ErrCharacterNotFound = errors.New("character not found")
	ErrInvalidMove       = errors.New("invalid move")
	ErrNoOpponents       = errors.New("no opponents available")

	// Bot errors
	ErrUnknownBotStrategy = errors.New("unknown bot strategy")

	// Battle errors
	ErrInvalidPhase    = errors.New("action not allowed in current phase")
	ErrNotPlayerTurn   = errors.New("not the player's turn")
	ErrRoundOver       = errors.New("round is over")
	ErrRoundInProgress = errors.New("round is still in progress")
	ErrSpecialNotReady = errors.New("special move is not charged")
)
