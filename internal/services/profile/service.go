// Package profile manages player stats, match history and the leaderboard.
package profile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/mcoot/pirateclash/internal/dependencies/clock"
	"github.com/mcoot/pirateclash/internal/dependencies/random"
	"github.com/mcoot/pirateclash/internal/model"
	"github.com/mcoot/pirateclash/internal/storage"
)

// MaxUsernameLength bounds profile usernames in runes
const MaxUsernameLength = 32

// usernameSuffixRange is the exclusive bound of generated username numbers
const usernameSuffixRange = 9999

// Service handles profile, match history and leaderboard operations
type Service struct {
	storage storage.Storage
	clock   clock.Clock
	random  random.Random
	newID   func() string
	logger  *slog.Logger
}

// New creates a new profile Service
func New(store storage.Storage, clk clock.Clock, rnd random.Random, logger *slog.Logger) *Service {
	return &Service{
		storage: store,
		clock:   clk,
		random:  rnd,
		newID:   uuid.NewString,
		logger:  logger.With(slog.String("component", "profile-service")),
	}
}

func normalizeUsername(username string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" || utf8.RuneCountInString(username) > MaxUsernameLength {
		return "", model.ErrInvalidUsername
	}
	return username, nil
}

// GetOrCreatePlayer returns the caller's profile, creating it on first access.
// An empty username is replaced by a generated "Pirate<n>" name.
func (s *Service) GetOrCreatePlayer(ctx context.Context, id model.PlayerID, username string) (*model.PlayerProfile, error) {
	if id == "" {
		return nil, model.ErrAuthenticationRequired
	}

	if strings.TrimSpace(username) == "" {
		username = fmt.Sprintf("%s%d", model.DefaultUsernamePrefix, s.random.Intn(usernameSuffixRange))
	}
	username, err := normalizeUsername(username)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	profile, created, err := s.storage.CreateProfile(ctx, &model.PlayerProfile{
		PlayerID:  id,
		Username:  username,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return nil, err
	}

	if created {
		s.logger.Info("profile created",
			slog.String("player_id", string(id)),
			slog.String("username", profile.Username),
		)
	}
	return profile, nil
}

// GetCurrentPlayer returns the caller's profile, or nil when there is none
func (s *Service) GetCurrentPlayer(ctx context.Context, id model.PlayerID) (*model.PlayerProfile, error) {
	if id == "" {
		return nil, nil
	}

	profile, err := s.storage.GetProfile(ctx, id)
	if errors.Is(err, model.ErrProfileNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return profile, nil
}

// UpdateUsername renames the caller's profile and leaderboard entry
func (s *Service) UpdateUsername(ctx context.Context, id model.PlayerID, username string) (*model.PlayerProfile, error) {
	if id == "" {
		return nil, model.ErrAuthenticationRequired
	}

	username, err := normalizeUsername(username)
	if err != nil {
		return nil, err
	}

	profile, err := s.storage.UpdateUsername(ctx, id, username, s.clock.Now())
	if err != nil {
		return nil, err
	}

	s.logger.Info("username updated",
		slog.String("player_id", string(id)),
		slog.String("username", username),
	)
	return profile, nil
}

func validateSummary(summary model.MatchSummary) error {
	if summary.PlayerCharacter == "" || summary.OpponentCharacter == "" {
		return fmt.Errorf("%w: characters are required", model.ErrInvalidMatchSummary)
	}
	if summary.RoundsWon < 0 || summary.RoundsLost < 0 || summary.PerfectRounds < 0 {
		return fmt.Errorf("%w: counts must not be negative", model.ErrInvalidMatchSummary)
	}
	return nil
}

// RecordMatchResult logs a finished match and updates stats and leaderboard
// in one atomic storage call
func (s *Service) RecordMatchResult(ctx context.Context, id model.PlayerID, summary model.MatchSummary) (*model.MatchResult, error) {
	if id == "" {
		return nil, model.ErrAuthenticationRequired
	}
	if err := validateSummary(summary); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	record := model.NewMatchRecord(s.newID(), id, summary, now)

	profile, err := s.storage.RecordMatch(ctx, record, func(p *model.PlayerProfile) {
		p.ApplyMatch(summary, now)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("match recorded",
		slog.String("player_id", string(id)),
		slog.String("match_id", record.ID),
		slog.Bool("won", summary.PlayerWon),
		slog.Int("streak", profile.CurrentStreak),
		slog.Int("best_streak", profile.BestStreak),
	)

	return &model.MatchResult{
		NewStreak:     profile.CurrentStreak,
		NewBestStreak: profile.BestStreak,
	}, nil
}

// GetLeaderboard returns the top entries by best streak
func (s *Service) GetLeaderboard(ctx context.Context) ([]*model.LeaderboardEntry, error) {
	return s.storage.GetTopLeaderboard(ctx, model.LeaderboardSize)
}

// GetRecentMatches returns the caller's latest matches, most recent first
func (s *Service) GetRecentMatches(ctx context.Context, id model.PlayerID) ([]*model.MatchRecord, error) {
	if id == "" {
		return []*model.MatchRecord{}, nil
	}
	return s.storage.GetRecentMatches(ctx, id, model.RecentMatchesLimit)
}

// RebuildLeaderboard re-projects every profile with at least one match and
// returns the number of entries that were missing or stale. Each comparison
// reloads the profile inside storage, so a match recorded after the listing
// is never overwritten by older stats.
func (s *Service) RebuildLeaderboard(ctx context.Context) (int, error) {
	profiles, err := s.storage.ListProfiles(ctx)
	if err != nil {
		return 0, err
	}

	repaired := 0
	for _, p := range profiles {
		if p.MatchesPlayed() == 0 {
			continue
		}

		ok, err := s.storage.RepairLeaderboardEntry(ctx, p.PlayerID)
		if errors.Is(err, model.ErrProfileNotFound) {
			continue
		}
		if err != nil {
			return repaired, err
		}
		if ok {
			repaired++
		}
	}

	if repaired > 0 {
		s.logger.Warn("leaderboard entries repaired", slog.Int("count", repaired))
	}
	return repaired, nil
}
