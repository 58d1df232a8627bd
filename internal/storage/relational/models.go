package relational

import (
	"time"

	"github.com/mcoot/pirateclash/internal/model"
)

// Timestamps come from the application clock, so gorm's automatic
// tracking is disabled on every table.

type playerRow struct {
	ID          string `gorm:"primaryKey;size:64"`
	DisplayName string
	IsGuest     bool
	CreatedAt   time.Time `gorm:"autoCreateTime:false"`
}

func (playerRow) TableName() string { return "players" }

func newPlayerRow(p *model.Player) *playerRow {
	return &playerRow{
		ID:          string(p.ID),
		DisplayName: p.DisplayName,
		IsGuest:     p.IsGuest,
		CreatedAt:   p.CreatedAt,
	}
}

func (r *playerRow) toModel() *model.Player {
	return &model.Player{
		ID:          model.PlayerID(r.ID),
		DisplayName: r.DisplayName,
		IsGuest:     r.IsGuest,
		CreatedAt:   r.CreatedAt,
	}
}

type registeredPlayerRow struct {
	PlayerID     string `gorm:"primaryKey;size:64"`
	Username     string `gorm:"uniqueIndex;size:64"`
	PasswordHash string
	CreatedAt    time.Time `gorm:"autoCreateTime:false"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime:false"`
}

func (registeredPlayerRow) TableName() string { return "registered_players" }

func newRegisteredPlayerRow(rp *model.RegisteredPlayer) *registeredPlayerRow {
	return &registeredPlayerRow{
		PlayerID:     string(rp.PlayerID),
		Username:     rp.Username,
		PasswordHash: rp.PasswordHash,
		CreatedAt:    rp.CreatedAt,
		UpdatedAt:    rp.UpdatedAt,
	}
}

func (r *registeredPlayerRow) toModel() *model.RegisteredPlayer {
	return &model.RegisteredPlayer{
		PlayerID:     model.PlayerID(r.PlayerID),
		Username:     r.Username,
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

type sessionRow struct {
	Token     string    `gorm:"primaryKey;size:64"`
	PlayerID  string    `gorm:"index;size:64"`
	CreatedAt time.Time `gorm:"autoCreateTime:false"`
	ExpiresAt time.Time `gorm:"index"`
}

func (sessionRow) TableName() string { return "sessions" }

func newSessionRow(s *model.Session) *sessionRow {
	return &sessionRow{
		Token:     s.Token,
		PlayerID:  string(s.PlayerID),
		CreatedAt: s.CreatedAt,
		ExpiresAt: s.ExpiresAt,
	}
}

func (r *sessionRow) toModel() *model.Session {
	return &model.Session{
		Token:     r.Token,
		PlayerID:  model.PlayerID(r.PlayerID),
		CreatedAt: r.CreatedAt,
		ExpiresAt: r.ExpiresAt,
	}
}

type profileRow struct {
	PlayerID          string `gorm:"primaryKey;size:64"`
	Username          string
	TotalWins         int
	TotalLosses       int
	CurrentStreak     int
	BestStreak        int
	FavoriteCharacter string    `gorm:"size:64"`
	CreatedAt         time.Time `gorm:"autoCreateTime:false"`
	UpdatedAt         time.Time `gorm:"autoUpdateTime:false"`
}

func (profileRow) TableName() string { return "player_profiles" }

func newProfileRow(p *model.PlayerProfile) *profileRow {
	return &profileRow{
		PlayerID:          string(p.PlayerID),
		Username:          p.Username,
		TotalWins:         p.TotalWins,
		TotalLosses:       p.TotalLosses,
		CurrentStreak:     p.CurrentStreak,
		BestStreak:        p.BestStreak,
		FavoriteCharacter: string(p.FavoriteCharacter),
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
}

func (r *profileRow) toModel() *model.PlayerProfile {
	return &model.PlayerProfile{
		PlayerID:          model.PlayerID(r.PlayerID),
		Username:          r.Username,
		TotalWins:         r.TotalWins,
		TotalLosses:       r.TotalLosses,
		CurrentStreak:     r.CurrentStreak,
		BestStreak:        r.BestStreak,
		FavoriteCharacter: model.CharacterID(r.FavoriteCharacter),
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}
}

// matchRow is keyed by an insertion sequence so recent-match queries keep
// insertion order when PlayedAt ties.
type matchRow struct {
	Seq               uint64 `gorm:"primaryKey;autoIncrement"`
	ID                string `gorm:"uniqueIndex;size:64"`
	PlayerID          string `gorm:"index:idx_match_records_player_seq;size:64"`
	PlayerCharacter   string `gorm:"size:64"`
	OpponentCharacter string `gorm:"size:64"`
	PlayerWon         bool
	RoundsWon         int
	RoundsLost        int
	PerfectRounds     int
	PlayedAt          time.Time
}

func (matchRow) TableName() string { return "match_records" }

func newMatchRow(r *model.MatchRecord) *matchRow {
	return &matchRow{
		ID:                r.ID,
		PlayerID:          string(r.PlayerID),
		PlayerCharacter:   string(r.PlayerCharacter),
		OpponentCharacter: string(r.OpponentCharacter),
		PlayerWon:         r.PlayerWon,
		RoundsWon:         r.RoundsWon,
		RoundsLost:        r.RoundsLost,
		PerfectRounds:     r.PerfectRounds,
		PlayedAt:          r.PlayedAt,
	}
}

func (r *matchRow) toModel() *model.MatchRecord {
	return &model.MatchRecord{
		ID:                r.ID,
		PlayerID:          model.PlayerID(r.PlayerID),
		PlayerCharacter:   model.CharacterID(r.PlayerCharacter),
		OpponentCharacter: model.CharacterID(r.OpponentCharacter),
		PlayerWon:         r.PlayerWon,
		RoundsWon:         r.RoundsWon,
		RoundsLost:        r.RoundsLost,
		PerfectRounds:     r.PerfectRounds,
		PlayedAt:          r.PlayedAt,
	}
}

type leaderboardRow struct {
	PlayerID   string `gorm:"primaryKey;size:64"`
	Username   string
	BestStreak int `gorm:"index"`
	TotalWins  int
	UpdatedAt  time.Time `gorm:"autoUpdateTime:false"`
}

func (leaderboardRow) TableName() string { return "leaderboard_entries" }

func newLeaderboardRow(e *model.LeaderboardEntry) *leaderboardRow {
	return &leaderboardRow{
		PlayerID:   string(e.PlayerID),
		Username:   e.Username,
		BestStreak: e.BestStreak,
		TotalWins:  e.TotalWins,
		UpdatedAt:  e.UpdatedAt,
	}
}

func (r *leaderboardRow) toModel() *model.LeaderboardEntry {
	return &model.LeaderboardEntry{
		PlayerID:   model.PlayerID(r.PlayerID),
		Username:   r.Username,
		BestStreak: r.BestStreak,
		TotalWins:  r.TotalWins,
		UpdatedAt:  r.UpdatedAt,
	}
}
