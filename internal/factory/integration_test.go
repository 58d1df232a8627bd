package factory

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/pirateclash/internal/catalog/catalogtest"
	"github.com/mcoot/pirateclash/internal/jobs"
	"github.com/mcoot/pirateclash/internal/model"
	"github.com/mcoot/pirateclash/internal/services/battle"
	"github.com/mcoot/pirateclash/internal/storage/relational"
	"github.com/mcoot/pirateclash/internal/stream"
)

type IntegrationSuite struct {
	suite.Suite
	app *TestApp
	ctx context.Context
}

func TestIntegrationSuite(t *testing.T) {
	suite.Run(t, new(IntegrationSuite))
}

func (s *IntegrationSuite) SetupTest() {
	s.app = NewTestAppWithCatalog(catalogtest.Fixture())
	s.ctx = context.Background()
}

func (s *IntegrationSuite) TearDownTest() {
	s.NoError(s.app.Close())
}

func (s *IntegrationSuite) guest(name string) model.PlayerID {
	session, err := s.app.AuthService.CreateGuestPlayer(s.ctx, name)
	s.Require().NoError(err)
	_, err = s.app.ProfileService.GetOrCreatePlayer(s.ctx, session.Player.ID, name)
	s.Require().NoError(err)
	return session.Player.ID
}

func (s *IntegrationSuite) winRound(id model.PlayerID) *model.BattleState {
	_, err := s.app.BattleController.PlayerMove(s.ctx, id, model.MoveTypeHeavy)
	s.Require().NoError(err)
	st, err := s.app.BattleController.EndRound(s.ctx, id)
	s.Require().NoError(err)
	return st
}

func (s *IntegrationSuite) loseRound(id model.PlayerID) *model.BattleState {
	_, err := s.app.BattleController.PlayerMove(s.ctx, id, model.MoveTypeLight)
	s.Require().NoError(err)
	s.app.MockRandom.QueueFloat64(0.7) // AI answers with its heavy
	s.app.AdvanceAITurn()
	st, err := s.app.BattleController.EndRound(s.ctx, id)
	s.Require().NoError(err)
	return st
}

// Test: a won match lands in the profile, match history and leaderboard
func (s *IntegrationSuite) TestCompleteMatchFlow() {
	id := s.guest("Jack")

	st, err := s.app.BattleController.SelectCharacter(s.ctx, id, "hero")
	s.Require().NoError(err)
	s.Equal(model.PhaseBattle, st.Phase)

	s.winRound(id)
	st = s.winRound(id)
	s.Equal(model.PhaseResult, st.Phase)
	s.Equal(model.SidePlayer, *st.MatchWinner)

	p, err := s.app.ProfileService.GetCurrentPlayer(s.ctx, id)
	s.Require().NoError(err)
	s.Equal(1, p.TotalWins)
	s.Equal(1, p.CurrentStreak)
	s.Equal(1, p.BestStreak)
	s.Equal(model.CharacterID("hero"), p.FavoriteCharacter)

	matches, err := s.app.ProfileService.GetRecentMatches(s.ctx, id)
	s.Require().NoError(err)
	s.Require().Len(matches, 1)
	s.Equal(model.CharacterID("villain"), matches[0].OpponentCharacter)
	s.Equal(2, matches[0].RoundsWon)
	s.Equal(0, matches[0].RoundsLost)
	s.Equal(2, matches[0].PerfectRounds)

	board, err := s.app.ProfileService.GetLeaderboard(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(board, 1)
	s.Equal("Jack", board[0].Username)
	s.Equal(1, board[0].BestStreak)
}

// Test: streaks carry across matches and reset on a loss
func (s *IntegrationSuite) TestStreakAcrossMatches() {
	id := s.guest("Nami")

	_, err := s.app.BattleController.SelectCharacter(s.ctx, id, "hero")
	s.Require().NoError(err)
	s.winRound(id)
	s.winRound(id)

	_, err = s.app.BattleController.PlayAgain(s.ctx, id)
	s.Require().NoError(err)
	s.winRound(id)
	s.loseRound(id)
	st := s.winRound(id)
	s.Equal(model.PhaseResult, st.Phase)

	p, err := s.app.ProfileService.GetCurrentPlayer(s.ctx, id)
	s.Require().NoError(err)
	s.Equal(2, p.CurrentStreak)
	s.Equal(2, p.BestStreak)

	_, err = s.app.BattleController.PlayAgain(s.ctx, id)
	s.Require().NoError(err)
	s.loseRound(id)
	st = s.loseRound(id)
	s.Equal(model.SideOpponent, *st.MatchWinner)

	p, err = s.app.ProfileService.GetCurrentPlayer(s.ctx, id)
	s.Require().NoError(err)
	s.Equal(2, p.TotalWins)
	s.Equal(1, p.TotalLosses)
	s.Equal(0, p.CurrentStreak)
	s.Equal(2, p.BestStreak)

	matches, err := s.app.ProfileService.GetRecentMatches(s.ctx, id)
	s.Require().NoError(err)
	s.Require().Len(matches, 3)
	s.False(matches[0].PlayerWon)
}

// Test: the deferred AI turn is pushed to the player's event stream
func (s *IntegrationSuite) TestAITurnReachesEventStream() {
	id := s.guest("Zoro")
	client := s.app.HubManager.Subscribe(id, stream.TransportSSE)
	defer client.Close()

	_, err := s.app.BattleController.SelectCharacter(s.ctx, id, "hero")
	s.Require().NoError(err)
	_, err = s.app.BattleController.PlayerMove(s.ctx, id, model.MoveTypeLight)
	s.Require().NoError(err)
	s.app.AdvanceAITurn()

	var events []string
	for len(events) < 3 {
		select {
		case msg := <-client.Messages():
			events = append(events, msg.Event)
		case <-time.After(time.Second):
			s.FailNow("timed out waiting for events", "got %v", events)
		}
	}
	s.Equal([]string{"battle_started", "player_attack", "ai_attack"}, events)
}

// Test: a missing profile surfaces on match completion and can be retried
func (s *IntegrationSuite) TestMatchWithoutProfileCanBeRetried() {
	session, err := s.app.AuthService.CreateGuestPlayer(s.ctx, "Usopp")
	s.Require().NoError(err)
	id := session.Player.ID

	_, err = s.app.BattleController.SelectCharacter(s.ctx, id, "hero")
	s.Require().NoError(err)
	s.winRound(id)
	_, err = s.app.BattleController.PlayerMove(s.ctx, id, model.MoveTypeHeavy)
	s.Require().NoError(err)

	_, err = s.app.BattleController.EndRound(s.ctx, id)
	s.ErrorIs(err, model.ErrProfileNotFound)

	_, err = s.app.ProfileService.GetOrCreatePlayer(s.ctx, id, "")
	s.Require().NoError(err)
	st, err := s.app.BattleController.EndRound(s.ctx, id)
	s.Require().NoError(err)
	s.Equal(model.PhaseResult, st.Phase)
}

func TestNewDefaultsToMemory(t *testing.T) {
	app, err := New(Config{})
	require.NoError(t, err)
	defer func() { assert.NoError(t, app.Close()) }()

	assert.Nil(t, app.Jobs)
	assert.Len(t, app.Catalog.All(), 6)
}

func TestNewWithSQLite(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "pirateclash.db")
	app, err := New(Config{
		StorageType: StorageTypeSQLite,
		SQLConfig:   &relational.Config{DSN: dsn},
	})
	require.NoError(t, err)
	defer func() { assert.NoError(t, app.Close()) }()

	ctx := context.Background()
	p, err := app.ProfileService.GetOrCreatePlayer(ctx, "p1", "Luffy")
	require.NoError(t, err)
	assert.Equal(t, "Luffy", p.Username)
}

func TestSQLiteSessionSurvivesRestart(t *testing.T) {
	cfg := Config{
		StorageType: StorageTypeSQLite,
		SQLConfig:   &relational.Config{DSN: filepath.Join(t.TempDir(), "pirateclash.db")},
	}
	ctx := context.Background()

	first, err := New(cfg)
	require.NoError(t, err)
	session, err := first.AuthService.CreateGuestPlayer(ctx, "Chopper")
	require.NoError(t, err)
	_, err = first.ProfileService.GetOrCreatePlayer(ctx, session.PlayerID, "Chopper")
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := New(cfg)
	require.NoError(t, err)
	defer func() { assert.NoError(t, second.Close()) }()

	restored, err := second.AuthService.ValidateSession(ctx, session.Token)
	require.NoError(t, err)
	assert.Equal(t, session.PlayerID, restored.PlayerID)
	assert.True(t, restored.Player.IsGuest)

	p, err := second.ProfileService.GetCurrentPlayer(ctx, restored.PlayerID)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "Chopper", p.Username)
}

func TestNewWithJobs(t *testing.T) {
	app, err := New(Config{JobsEnabled: true, JobsConfig: jobs.DefaultConfig()})
	require.NoError(t, err)

	require.NotNil(t, app.Jobs)
	assert.Len(t, app.Jobs.JobNames(), 4)
	app.Start()
	assert.NoError(t, app.Close())
}

func TestNewRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"unknown storage", Config{StorageType: "mongo"}},
		{"redis without config", Config{StorageType: StorageTypeRedis}},
		{"postgres without dsn", Config{StorageType: StorageTypePostgres}},
		{"missing catalog file", Config{CatalogPath: "/does/not/exist.yaml"}},
		{"unknown strategy", Config{BattleConfig: battle.Config{Strategy: "hard"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg)
			assert.Error(t, err)
		})
	}
}
