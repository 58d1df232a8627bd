package profile

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/pirateclash/internal/dependencies/mocks"
	"github.com/mcoot/pirateclash/internal/model"
	"github.com/mcoot/pirateclash/internal/storage"
	"github.com/mcoot/pirateclash/internal/storage/memory"
	"github.com/mcoot/pirateclash/internal/testutil"
)

type ServiceSuite struct {
	suite.Suite
	storage *memory.Storage
	clock   *mocks.MockClock
	random  *mocks.MockRandom
	service *Service
	ctx     context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.storage = memory.New()
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.random = mocks.NewMockRandom()
	s.service = New(s.storage, s.clock, s.random, testutil.NopLogger())

	n := 0
	s.service.newID = func() string {
		n++
		return fmt.Sprintf("match-%d", n)
	}
	s.ctx = context.Background()
}

func win(character model.CharacterID) model.MatchSummary {
	return model.MatchSummary{
		PlayerCharacter:   character,
		OpponentCharacter: "zoro",
		PlayerWon:         true,
		RoundsWon:         2,
		RoundsLost:        1,
	}
}

func loss() model.MatchSummary {
	return model.MatchSummary{
		PlayerCharacter:   "luffy",
		OpponentCharacter: "zoro",
		PlayerWon:         false,
		RoundsWon:         0,
		RoundsLost:        2,
	}
}

// GetOrCreatePlayer tests

func (s *ServiceSuite) TestGetOrCreatePlayerRequiresIdentity() {
	_, err := s.service.GetOrCreatePlayer(s.ctx, "", "Alice")
	s.ErrorIs(err, model.ErrAuthenticationRequired)
}

func (s *ServiceSuite) TestGetOrCreatePlayerWithUsername() {
	p, err := s.service.GetOrCreatePlayer(s.ctx, "p1", "  Alice ")
	s.Require().NoError(err)
	s.Equal("Alice", p.Username)
	s.Zero(p.TotalWins)
	s.Zero(p.BestStreak)
	s.Equal(s.clock.Now(), p.CreatedAt)
}

func (s *ServiceSuite) TestGetOrCreatePlayerGeneratesUsername() {
	s.random.QueueIntn(1234)

	p, err := s.service.GetOrCreatePlayer(s.ctx, "p1", "")
	s.Require().NoError(err)
	s.Equal("Pirate1234", p.Username)
}

func (s *ServiceSuite) TestGetOrCreatePlayerIsIdempotent() {
	first, err := s.service.GetOrCreatePlayer(s.ctx, "p1", "Alice")
	s.Require().NoError(err)

	second, err := s.service.GetOrCreatePlayer(s.ctx, "p1", "Bob")
	s.Require().NoError(err)
	s.Equal(first.Username, second.Username)
	s.Equal("Alice", second.Username)
}

func (s *ServiceSuite) TestGetOrCreatePlayerRejectsLongUsername() {
	_, err := s.service.GetOrCreatePlayer(s.ctx, "p1", "abcdefghijklmnopqrstuvwxyz0123456789")
	s.ErrorIs(err, model.ErrInvalidUsername)
}

// GetCurrentPlayer tests

func (s *ServiceSuite) TestGetCurrentPlayerWithoutIdentity() {
	p, err := s.service.GetCurrentPlayer(s.ctx, "")
	s.Require().NoError(err)
	s.Nil(p)
}

func (s *ServiceSuite) TestGetCurrentPlayerWithoutProfile() {
	p, err := s.service.GetCurrentPlayer(s.ctx, "p1")
	s.Require().NoError(err)
	s.Nil(p)
}

func (s *ServiceSuite) TestGetCurrentPlayer() {
	_, _ = s.service.GetOrCreatePlayer(s.ctx, "p1", "Alice")

	p, err := s.service.GetCurrentPlayer(s.ctx, "p1")
	s.Require().NoError(err)
	s.Require().NotNil(p)
	s.Equal("Alice", p.Username)
}

// UpdateUsername tests

func (s *ServiceSuite) TestUpdateUsernameRequiresIdentity() {
	_, err := s.service.UpdateUsername(s.ctx, "", "Bob")
	s.ErrorIs(err, model.ErrAuthenticationRequired)
}

func (s *ServiceSuite) TestUpdateUsernameRequiresProfile() {
	_, err := s.service.UpdateUsername(s.ctx, "p1", "Bob")
	s.ErrorIs(err, model.ErrProfileNotFound)
}

func (s *ServiceSuite) TestUpdateUsernameRejectsBlank() {
	_, _ = s.service.GetOrCreatePlayer(s.ctx, "p1", "Alice")

	_, err := s.service.UpdateUsername(s.ctx, "p1", "   ")
	s.ErrorIs(err, model.ErrInvalidUsername)
}

func (s *ServiceSuite) TestUpdateUsernamePatchesLeaderboard() {
	_, _ = s.service.GetOrCreatePlayer(s.ctx, "p1", "Alice")
	_, err := s.service.RecordMatchResult(s.ctx, "p1", win("luffy"))
	s.Require().NoError(err)

	p, err := s.service.UpdateUsername(s.ctx, "p1", "Captain Alice")
	s.Require().NoError(err)
	s.Equal("Captain Alice", p.Username)

	board, err := s.service.GetLeaderboard(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(board, 1)
	s.Equal("Captain Alice", board[0].Username)
}

// RecordMatchResult tests

func (s *ServiceSuite) TestRecordMatchResultRequiresIdentity() {
	_, err := s.service.RecordMatchResult(s.ctx, "", win("luffy"))
	s.ErrorIs(err, model.ErrAuthenticationRequired)
}

func (s *ServiceSuite) TestRecordMatchResultRequiresProfile() {
	_, err := s.service.RecordMatchResult(s.ctx, "p1", win("luffy"))
	s.ErrorIs(err, model.ErrProfileNotFound)
}

func (s *ServiceSuite) TestRecordMatchResultRejectsBadSummary() {
	_, _ = s.service.GetOrCreatePlayer(s.ctx, "p1", "Alice")

	_, err := s.service.RecordMatchResult(s.ctx, "p1", model.MatchSummary{PlayerCharacter: "luffy"})
	s.ErrorIs(err, model.ErrInvalidMatchSummary)

	bad := win("luffy")
	bad.RoundsLost = -1
	_, err = s.service.RecordMatchResult(s.ctx, "p1", bad)
	s.ErrorIs(err, model.ErrInvalidMatchSummary)
}

func (s *ServiceSuite) TestRecordMatchResultStreakSequence() {
	_, _, err := s.storage.CreateProfile(s.ctx, &model.PlayerProfile{
		PlayerID:      "p1",
		Username:      "Alice",
		TotalWins:     5,
		CurrentStreak: 2,
		BestStreak:    3,
	})
	s.Require().NoError(err)

	result, err := s.service.RecordMatchResult(s.ctx, "p1", win("nami"))
	s.Require().NoError(err)
	s.Equal(3, result.NewStreak)
	s.Equal(3, result.NewBestStreak)

	p, _ := s.service.GetCurrentPlayer(s.ctx, "p1")
	s.Equal(6, p.TotalWins)

	result, err = s.service.RecordMatchResult(s.ctx, "p1", win("nami"))
	s.Require().NoError(err)
	s.Equal(4, result.NewStreak)
	s.Equal(4, result.NewBestStreak)

	p, _ = s.service.GetCurrentPlayer(s.ctx, "p1")
	s.Equal(7, p.TotalWins)
	s.Equal(model.CharacterID("nami"), p.FavoriteCharacter)
}

func (s *ServiceSuite) TestRecordMatchResultLossResetsStreak() {
	_, _ = s.service.GetOrCreatePlayer(s.ctx, "p1", "Alice")
	_, _ = s.service.RecordMatchResult(s.ctx, "p1", win("luffy"))
	_, _ = s.service.RecordMatchResult(s.ctx, "p1", win("luffy"))

	result, err := s.service.RecordMatchResult(s.ctx, "p1", loss())
	s.Require().NoError(err)
	s.Equal(0, result.NewStreak)
	s.Equal(2, result.NewBestStreak)

	p, _ := s.service.GetCurrentPlayer(s.ctx, "p1")
	s.Equal(2, p.TotalWins)
	s.Equal(1, p.TotalLosses)
}

func (s *ServiceSuite) TestRecordMatchResultAppendsHistory() {
	_, _ = s.service.GetOrCreatePlayer(s.ctx, "p1", "Alice")

	_, _ = s.service.RecordMatchResult(s.ctx, "p1", win("luffy"))
	s.clock.Advance(time.Minute)
	_, _ = s.service.RecordMatchResult(s.ctx, "p1", loss())

	matches, err := s.service.GetRecentMatches(s.ctx, "p1")
	s.Require().NoError(err)
	s.Require().Len(matches, 2)
	s.Equal("match-2", matches[0].ID)
	s.False(matches[0].PlayerWon)
	s.Equal("match-1", matches[1].ID)
	s.Equal(s.clock.Now(), matches[0].PlayedAt)
}

// Query tests

func (s *ServiceSuite) TestGetRecentMatchesWithoutIdentity() {
	matches, err := s.service.GetRecentMatches(s.ctx, "")
	s.Require().NoError(err)
	s.Empty(matches)
}

func (s *ServiceSuite) TestGetRecentMatchesLimit() {
	_, _ = s.service.GetOrCreatePlayer(s.ctx, "p1", "Alice")
	for i := 0; i < 15; i++ {
		s.clock.Advance(time.Minute)
		_, err := s.service.RecordMatchResult(s.ctx, "p1", win("luffy"))
		s.Require().NoError(err)
	}

	matches, err := s.service.GetRecentMatches(s.ctx, "p1")
	s.Require().NoError(err)
	s.Len(matches, model.RecentMatchesLimit)
	s.Equal("match-15", matches[0].ID)
}

func (s *ServiceSuite) TestGetLeaderboardOrderedAndCapped() {
	for i := 0; i < 12; i++ {
		id := model.PlayerID(fmt.Sprintf("p%02d", i))
		_, _ = s.service.GetOrCreatePlayer(s.ctx, id, fmt.Sprintf("Player%d", i))
		for w := 0; w < i%4; w++ {
			_, err := s.service.RecordMatchResult(s.ctx, id, win("ace"))
			s.Require().NoError(err)
		}
		_, err := s.service.RecordMatchResult(s.ctx, id, loss())
		s.Require().NoError(err)
	}

	board, err := s.service.GetLeaderboard(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(board, model.LeaderboardSize)
	s.Equal(3, board[0].BestStreak)
	for i := 1; i < len(board); i++ {
		s.GreaterOrEqual(board[i-1].BestStreak, board[i].BestStreak)
	}
}

// RebuildLeaderboard tests

func (s *ServiceSuite) TestRebuildLeaderboardRestoresMissingAndStale() {
	_, _ = s.service.GetOrCreatePlayer(s.ctx, "p1", "Alice")
	_, _ = s.service.GetOrCreatePlayer(s.ctx, "p2", "Bob")
	_, _ = s.service.GetOrCreatePlayer(s.ctx, "p3", "Idle")
	_, _ = s.service.RecordMatchResult(s.ctx, "p1", win("luffy"))
	_, _ = s.service.RecordMatchResult(s.ctx, "p2", win("luffy"))

	// p2's entry drifts
	s.Require().NoError(s.storage.SaveLeaderboardEntry(s.ctx, &model.LeaderboardEntry{PlayerID: "p2", Username: "Bob", BestStreak: 0}))

	// A profile with matches but no entry
	_, _, err := s.storage.CreateProfile(s.ctx, &model.PlayerProfile{PlayerID: "p4", Username: "Imported", TotalWins: 4, BestStreak: 4})
	s.Require().NoError(err)

	repaired, err := s.service.RebuildLeaderboard(s.ctx)
	s.Require().NoError(err)
	s.Equal(2, repaired)

	board, err := s.service.GetLeaderboard(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(board, 3)
	s.Equal(model.PlayerID("p4"), board[0].PlayerID)

	entry, err := s.storage.GetLeaderboardEntry(s.ctx, "p2")
	s.Require().NoError(err)
	s.Equal(1, entry.BestStreak)

	_, err = s.storage.GetLeaderboardEntry(s.ctx, "p3")
	s.ErrorIs(err, model.ErrLeaderboardEntryNotFound)

	repaired, err = s.service.RebuildLeaderboard(s.ctx)
	s.Require().NoError(err)
	s.Zero(repaired)
}

// listHookStorage runs afterList once ListProfiles has returned
type listHookStorage struct {
	storage.Storage
	afterList func()
}

func (l *listHookStorage) ListProfiles(ctx context.Context) ([]*model.PlayerProfile, error) {
	profiles, err := l.Storage.ListProfiles(ctx)
	if l.afterList != nil {
		l.afterList()
	}
	return profiles, err
}

func (s *ServiceSuite) TestRebuildLeaderboardKeepsMatchRecordedMidRebuild() {
	_, _ = s.service.GetOrCreatePlayer(s.ctx, "p1", "Alice")
	_, _ = s.service.RecordMatchResult(s.ctx, "p1", win("luffy"))

	// p1's entry drifts so the rebuild has work to do
	s.Require().NoError(s.storage.SaveLeaderboardEntry(s.ctx, &model.LeaderboardEntry{PlayerID: "p1", Username: "Alice"}))

	hooked := &listHookStorage{Storage: s.storage}
	rebuilder := New(hooked, s.clock, s.random, testutil.NopLogger())
	hooked.afterList = func() {
		_, err := s.service.RecordMatchResult(s.ctx, "p1", win("luffy"))
		s.Require().NoError(err)
	}

	// The mid-rebuild match already rewrote the entry
	repaired, err := rebuilder.RebuildLeaderboard(s.ctx)
	s.Require().NoError(err)
	s.Zero(repaired)

	p, err := s.storage.GetProfile(s.ctx, "p1")
	s.Require().NoError(err)
	s.Equal(2, p.BestStreak)

	entry, err := s.storage.GetLeaderboardEntry(s.ctx, "p1")
	s.Require().NoError(err)
	s.Equal(2, entry.BestStreak)
	s.Equal(2, entry.TotalWins)
	s.True(entry.MatchesProfile(p))
}
