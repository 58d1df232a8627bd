package storage

import (
	"context"
	"time"

	"github.com/mcoot/pirateclash/internal/model"
)

// ApplyFunc mutates a freshly loaded profile inside RecordMatch.
// Implementations may call it more than once when a transaction is retried.
type ApplyFunc func(profile *model.PlayerProfile)

// Storage defines the interface for data persistence
type Storage interface {
	// Player operations
	SavePlayer(ctx context.Context, player *model.Player) error
	GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error)
	DeletePlayer(ctx context.Context, id model.PlayerID) error

	// Registered player operations
	SaveRegisteredPlayer(ctx context.Context, rp *model.RegisteredPlayer) error
	GetRegisteredPlayer(ctx context.Context, playerID model.PlayerID) (*model.RegisteredPlayer, error)
	GetRegisteredPlayerByUsername(ctx context.Context, username string) (*model.RegisteredPlayer, error)

	// Session operations
	SaveSession(ctx context.Context, session *model.Session) error
	GetSession(ctx context.Context, token string) (*model.Session, error)
	DeleteSession(ctx context.Context, token string) error
	// DeleteExpiredSessions removes every session expired at now and
	// returns how many were removed
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int, error)

	// Profile operations

	// CreateProfile stores profile unless one already exists for the player.
	// It returns the stored profile and whether it was created by this call.
	CreateProfile(ctx context.Context, profile *model.PlayerProfile) (*model.PlayerProfile, bool, error)
	GetProfile(ctx context.Context, id model.PlayerID) (*model.PlayerProfile, error)
	// UpdateUsername renames a profile and its leaderboard entry, if any
	UpdateUsername(ctx context.Context, id model.PlayerID, username string, at time.Time) (*model.PlayerProfile, error)
	ListProfiles(ctx context.Context) ([]*model.PlayerProfile, error)

	// Match operations

	// RecordMatch atomically applies a match to the player's profile, appends
	// the record and upserts the leaderboard entry projected from the result.
	RecordMatch(ctx context.Context, record *model.MatchRecord, apply ApplyFunc) (*model.PlayerProfile, error)
	// GetRecentMatches returns up to limit records, most recent first
	GetRecentMatches(ctx context.Context, id model.PlayerID, limit int) ([]*model.MatchRecord, error)

	// Leaderboard operations
	SaveLeaderboardEntry(ctx context.Context, entry *model.LeaderboardEntry) error
	GetLeaderboardEntry(ctx context.Context, id model.PlayerID) (*model.LeaderboardEntry, error)
	// GetTopLeaderboard returns up to limit entries ordered by LeaderboardEntry.RanksAbove
	GetTopLeaderboard(ctx context.Context, limit int) ([]*model.LeaderboardEntry, error)
	// RepairLeaderboardEntry reloads the player's profile and rewrites its
	// leaderboard entry when the two disagree, holding off concurrent
	// RecordMatch calls for that player. Profiles without matches are left
	// alone. It reports whether an entry was written.
	RepairLeaderboardEntry(ctx context.Context, id model.PlayerID) (bool, error)
}
