package battle

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/pirateclash/internal/catalog/catalogtest"
	"github.com/mcoot/pirateclash/internal/dependencies/mocks"
	"github.com/mcoot/pirateclash/internal/model"
	"github.com/mcoot/pirateclash/internal/services/bot"
	"github.com/mcoot/pirateclash/internal/services/combat"
	"github.com/mcoot/pirateclash/internal/testutil"
)

type fakeRecorder struct {
	mu        sync.Mutex
	calls     int
	summaries []model.MatchSummary
	err       error
}

func (r *fakeRecorder) RecordMatchResult(ctx context.Context, id model.PlayerID, summary model.MatchSummary) (*model.MatchResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	r.summaries = append(r.summaries, summary)
	return &model.MatchResult{NewStreak: 1, NewBestStreak: 1}, nil
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []model.BattleEvent
}

func (n *fakeNotifier) Publish(event model.BattleEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

func (n *fakeNotifier) types() []model.EventType {
	n.mu.Lock()
	defer n.mu.Unlock()
	var result []model.EventType
	for _, e := range n.events {
		result = append(result, e.Type)
	}
	return result
}

type ControllerSuite struct {
	suite.Suite
	clock      *mocks.MockClock
	random     *mocks.MockRandom
	recorder   *fakeRecorder
	notifier   *fakeNotifier
	controller *Controller
	ctx        context.Context
}

func TestControllerSuite(t *testing.T) {
	suite.Run(t, new(ControllerSuite))
}

func (s *ControllerSuite) SetupTest() {
	cat := catalogtest.Fixture()

	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.random = mocks.NewMockRandom()
	s.recorder = &fakeRecorder{}
	s.notifier = &fakeNotifier{}
	logger := testutil.NopLogger()

	calculator := combat.NewCalculator(s.random)
	bots := bot.NewService(bot.DefaultStrategies(s.random), calculator, logger)

	s.controller = NewController(cat, bots, calculator, s.recorder, s.notifier,
		s.clock, s.random, DefaultConfig(), logger)
	s.ctx = context.Background()
}

func (s *ControllerSuite) selectHero() *model.BattleState {
	st, err := s.controller.SelectCharacter(s.ctx, "p1", "hero")
	s.Require().NoError(err)
	return st
}

func (s *ControllerSuite) move(t model.MoveType) *model.BattleState {
	st, err := s.controller.PlayerMove(s.ctx, "p1", t)
	s.Require().NoError(err)
	return st
}

func (s *ControllerSuite) aiTurn() *model.BattleState {
	s.clock.Advance(DefaultConfig().AITurnDelay)
	st, err := s.controller.GetState(s.ctx, "p1")
	s.Require().NoError(err)
	return st
}

func (s *ControllerSuite) endRound() *model.BattleState {
	st, err := s.controller.EndRound(s.ctx, "p1")
	s.Require().NoError(err)
	return st
}

// Identity and menu

func (s *ControllerSuite) TestOperationsRequireIdentity() {
	_, err := s.controller.GetState(s.ctx, "")
	s.ErrorIs(err, model.ErrAuthenticationRequired)
	_, err = s.controller.SelectCharacter(s.ctx, "", "hero")
	s.ErrorIs(err, model.ErrAuthenticationRequired)
	_, err = s.controller.PlayerMove(s.ctx, "", model.MoveTypeLight)
	s.ErrorIs(err, model.ErrAuthenticationRequired)
	_, err = s.controller.EndRound(s.ctx, "")
	s.ErrorIs(err, model.ErrAuthenticationRequired)
}

func (s *ControllerSuite) TestGetStateUnknownPlayerIsMenu() {
	st, err := s.controller.GetState(s.ctx, "p1")
	s.Require().NoError(err)
	s.Equal(model.PhaseMenu, st.Phase)
	s.Nil(st.PlayerCharacter)
	s.Equal(0, s.controller.SessionCount())
}

// SelectCharacter

func (s *ControllerSuite) TestSelectCharacterStartsBattle() {
	st := s.selectHero()

	s.Equal(model.PhaseBattle, st.Phase)
	s.Equal(model.CharacterID("hero"), st.PlayerCharacter.ID)
	s.Equal(model.CharacterID("villain"), st.OpponentCharacter.ID)
	s.Equal(100, st.PlayerHealth)
	s.Equal(100, st.OpponentHealth)
	s.Equal(1, st.CurrentRound)
	s.True(st.IsPlayerTurn)
	s.Empty(st.BattleLog)
	s.Nil(st.MatchWinner)
	s.Equal([]model.EventType{model.EventBattleStarted}, s.notifier.types())
}

func (s *ControllerSuite) TestSelectCharacterRandomOpponentExcludesPlayer() {
	s.random.QueueIntn(3)

	st, err := s.controller.SelectCharacter(s.ctx, "p1", "feather")
	s.Require().NoError(err)
	s.Equal(model.CharacterID("pebble"), st.OpponentCharacter.ID)
}

func (s *ControllerSuite) TestSelectCharacterUnknown() {
	_, err := s.controller.SelectCharacter(s.ctx, "p1", "nobody")
	s.ErrorIs(err, model.ErrCharacterNotFound)
}

func (s *ControllerSuite) TestSelectCharacterOutsideMenu() {
	s.selectHero()

	_, err := s.controller.SelectCharacter(s.ctx, "p1", "villain")
	s.ErrorIs(err, model.ErrInvalidPhase)
}

// PlayerMove

func (s *ControllerSuite) TestPlayerMoveInMenu() {
	_, err := s.controller.PlayerMove(s.ctx, "p1", model.MoveTypeLight)
	s.ErrorIs(err, model.ErrInvalidPhase)
}

func (s *ControllerSuite) TestPlayerMoveInvalidType() {
	s.selectHero()

	_, err := s.controller.PlayerMove(s.ctx, "p1", "kick")
	s.ErrorIs(err, model.ErrInvalidMove)
}

func (s *ControllerSuite) TestPlayerMoveAppliesDamageAndPassesTurn() {
	s.selectHero()

	st := s.move(model.MoveTypeLight)
	s.Equal(50, st.OpponentHealth)
	s.Equal(100, st.PlayerHealth)
	s.Equal(20, st.SpecialCharge)
	s.False(st.IsPlayerTurn)
	s.True(st.AIPending)
	s.False(st.RoundOver)
	s.Equal([]string{"Hero uses Jab! Hits for 50 damage! 👊"}, st.BattleLog)
	s.Equal("Hero uses Jab! Hits for 50 damage! 👊", st.LastAction)
	s.Equal(1, s.clock.PendingTimers())

	_, err := s.controller.PlayerMove(s.ctx, "p1", model.MoveTypeLight)
	s.ErrorIs(err, model.ErrNotPlayerTurn)
}

func (s *ControllerSuite) TestAITurnFiresAfterDelay() {
	s.selectHero()
	s.move(model.MoveTypeLight)

	s.clock.Advance(time.Second)
	st, _ := s.controller.GetState(s.ctx, "p1")
	s.True(st.AIPending)
	s.Equal(100, st.PlayerHealth)

	s.clock.Advance(500 * time.Millisecond)
	st, _ = s.controller.GetState(s.ctx, "p1")
	s.False(st.AIPending)
	s.True(st.IsPlayerTurn)
	s.Equal(50, st.PlayerHealth)
	s.Equal(20, st.OpponentSpecialCharge)
	s.Equal("Villain uses Poke! Hits for 50 damage! 👉", st.LastAction)
	s.Len(st.BattleLog, 2)
	s.Equal([]model.EventType{
		model.EventBattleStarted,
		model.EventPlayerAttack,
		model.EventAIAttack,
	}, s.notifier.types())
}

func (s *ControllerSuite) TestReturnedStateIsSnapshot() {
	st := s.selectHero()
	st.PlayerHealth = 1
	st.BattleLog = append(st.BattleLog, "tampered")

	fresh, _ := s.controller.GetState(s.ctx, "p1")
	s.Equal(100, fresh.PlayerHealth)
	s.Empty(fresh.BattleLog)
}

// Rounds

func (s *ControllerSuite) TestLethalHitAtFullHealthIsPerfect() {
	s.selectHero()

	st := s.move(model.MoveTypeHeavy)
	s.Equal(0, st.OpponentHealth)
	s.True(st.RoundOver)
	s.False(st.IsPlayerTurn)
	s.False(st.AIPending)
	s.Equal(1, st.PlayerRoundsWon)
	s.Equal(1, st.PerfectRounds)
	s.Equal("Villain is down! Round goes to Hero!", st.BattleLog[len(st.BattleLog)-1])
	s.Equal(0, s.clock.PendingTimers())
}

func (s *ControllerSuite) TestLethalHitAfterTakingDamageIsNotPerfect() {
	s.random.QueueIntn(1) // sparrer
	s.selectHero()

	s.move(model.MoveTypeLight)
	st := s.aiTurn()
	s.Equal(80, st.PlayerHealth)

	st = s.move(model.MoveTypeLight)
	s.Equal(0, st.OpponentHealth)
	s.Equal(1, st.PlayerRoundsWon)
	s.Equal(0, st.PerfectRounds)
}

func (s *ControllerSuite) TestAILethalHitWinsRound() {
	s.selectHero()
	s.move(model.MoveTypeLight)
	s.random.QueueFloat64(0.7) // AI picks heavy

	st := s.aiTurn()
	s.Equal(0, st.PlayerHealth)
	s.True(st.RoundOver)
	s.False(st.IsPlayerTurn)
	s.Equal(1, st.OpponentRoundsWon)
	s.Equal("Hero is down! Round goes to Villain!", st.BattleLog[len(st.BattleLog)-1])
}

func (s *ControllerSuite) TestMoveAfterRoundOver() {
	s.selectHero()
	s.move(model.MoveTypeHeavy)

	_, err := s.controller.PlayerMove(s.ctx, "p1", model.MoveTypeLight)
	s.ErrorIs(err, model.ErrRoundOver)
}

func (s *ControllerSuite) TestEndRoundWhileInProgress() {
	s.selectHero()

	_, err := s.controller.EndRound(s.ctx, "p1")
	s.ErrorIs(err, model.ErrRoundInProgress)
}

func (s *ControllerSuite) TestEndRoundStartsNextRound() {
	s.selectHero()
	s.move(model.MoveTypeLight)
	s.aiTurn()
	s.move(model.MoveTypeLight)

	st := s.endRound()
	s.Equal(model.PhaseBattle, st.Phase)
	s.Equal(2, st.CurrentRound)
	s.Equal(100, st.PlayerHealth)
	s.Equal(100, st.OpponentHealth)
	s.True(st.IsPlayerTurn)
	s.False(st.RoundOver)
	s.Equal("--- ROUND 2 ---", st.BattleLog[len(st.BattleLog)-1])
	// special charge carries over between rounds
	s.Equal(40, st.SpecialCharge)
	s.Equal(20, st.OpponentSpecialCharge)
}

// Match end

func (s *ControllerSuite) TestMatchEndsAtTwoRoundWins() {
	s.selectHero()

	// Round 1: perfect win
	s.move(model.MoveTypeHeavy)
	s.endRound()

	// Round 2: lost to an AI heavy
	s.move(model.MoveTypeLight)
	s.random.QueueFloat64(0.7)
	st := s.aiTurn()
	s.Equal(1, st.OpponentRoundsWon)
	s.endRound()

	// Round 3: perfect win
	st = s.move(model.MoveTypeHeavy)
	s.Equal(2, st.PlayerRoundsWon)
	s.Equal(model.PhaseBattle, st.Phase)
	s.Equal(0, s.recorder.calls)

	st = s.endRound()
	s.Equal(model.PhaseResult, st.Phase)
	s.Require().NotNil(st.MatchWinner)
	s.Equal(model.SidePlayer, *st.MatchWinner)

	s.Equal(1, s.recorder.calls)
	s.Equal(model.MatchSummary{
		PlayerCharacter:   "hero",
		OpponentCharacter: "villain",
		PlayerWon:         true,
		RoundsWon:         2,
		RoundsLost:        1,
		PerfectRounds:     2,
	}, s.recorder.summaries[0])

	_, err := s.controller.EndRound(s.ctx, "p1")
	s.ErrorIs(err, model.ErrInvalidPhase)
	s.Equal(1, s.recorder.calls)
}

func (s *ControllerSuite) TestMatchLost() {
	s.selectHero()
	for round := 0; round < 2; round++ {
		s.move(model.MoveTypeLight)
		s.random.QueueFloat64(0.7)
		s.aiTurn()
		s.endRound()
	}

	st, _ := s.controller.GetState(s.ctx, "p1")
	s.Equal(model.PhaseResult, st.Phase)
	s.Equal(model.SideOpponent, *st.MatchWinner)
	s.Require().Len(s.recorder.summaries, 1)
	s.False(s.recorder.summaries[0].PlayerWon)
	s.Equal(0, s.recorder.summaries[0].RoundsWon)
	s.Equal(2, s.recorder.summaries[0].RoundsLost)
}

func (s *ControllerSuite) TestRecorderFailureLeavesStateForRetry() {
	s.selectHero()
	s.move(model.MoveTypeHeavy)
	s.endRound()
	s.move(model.MoveTypeHeavy)

	s.recorder.err = errors.New("storage unavailable")
	_, err := s.controller.EndRound(s.ctx, "p1")
	s.Require().Error(err)

	st, _ := s.controller.GetState(s.ctx, "p1")
	s.Equal(model.PhaseBattle, st.Phase)
	s.True(st.RoundOver)
	s.Nil(st.MatchWinner)

	s.recorder.err = nil
	st = s.endRound()
	s.Equal(model.PhaseResult, st.Phase)
	s.Len(s.recorder.summaries, 1)
}

// Special moves

func (s *ControllerSuite) TestSpecialRequiresFullCharge() {
	s.random.QueueIntn(3) // pebble
	_, err := s.controller.SelectCharacter(s.ctx, "p1", "feather")
	s.Require().NoError(err)

	_, err = s.controller.PlayerMove(s.ctx, "p1", model.MoveTypeSpecial)
	s.ErrorIs(err, model.ErrSpecialNotReady)

	for i := 0; i < 4; i++ {
		s.move(model.MoveTypeLight)
		s.aiTurn()
	}
	st := s.move(model.MoveTypeLight)
	s.Equal(100, st.SpecialCharge)
	s.Equal(90, st.OpponentHealth)
	st = s.aiTurn()
	s.Equal(90, st.PlayerHealth)

	// further standard moves stay capped
	st = s.move(model.MoveTypeHeavy)
	s.Equal(100, st.SpecialCharge)
	s.Equal(86, st.OpponentHealth)
	s.aiTurn()

	st = s.move(model.MoveTypeSpecial)
	s.Equal(0, st.SpecialCharge)
	s.Equal(76, st.OpponentHealth)
	s.Equal("Feather uses Gust! Hits for 10 damage! 🌬️", st.LastAction)
}

// Cancellation

func (s *ControllerSuite) TestBackToMenuCancelsPendingAI() {
	s.selectHero()
	s.move(model.MoveTypeLight)

	st, err := s.controller.BackToMenu(s.ctx, "p1")
	s.Require().NoError(err)
	s.Equal(model.PhaseMenu, st.Phase)
	s.Nil(st.PlayerCharacter)
	s.Equal(0, s.clock.PendingTimers())

	s.clock.Advance(time.Minute)
	st, _ = s.controller.GetState(s.ctx, "p1")
	s.Equal(model.PhaseMenu, st.Phase)
	s.NotContains(s.notifier.types(), model.EventAIAttack)
}

func (s *ControllerSuite) TestBackToMenuFromMenu() {
	st, err := s.controller.BackToMenu(s.ctx, "p1")
	s.Require().NoError(err)
	s.Equal(model.PhaseMenu, st.Phase)
}

func (s *ControllerSuite) TestStaleAITurnIsIgnored() {
	s.selectHero()
	s.move(model.MoveTypeLight)

	sess := s.controller.sessions["p1"]
	sess.mu.Lock()
	staleToken := sess.aiToken - 1
	sess.mu.Unlock()

	s.controller.runAITurn(sess, staleToken)

	st, _ := s.controller.GetState(s.ctx, "p1")
	s.True(st.AIPending)
	s.Equal(100, st.PlayerHealth)
}

func (s *ControllerSuite) TestAITurnRevalidatesState() {
	s.selectHero()
	s.move(model.MoveTypeLight)

	// Simulate the round ending underneath the pending timer
	sess := s.controller.sessions["p1"]
	sess.mu.Lock()
	sess.state.RoundOver = true
	token := sess.aiToken
	sess.mu.Unlock()

	s.controller.runAITurn(sess, token)

	st, _ := s.controller.GetState(s.ctx, "p1")
	s.False(st.AIPending)
	s.Equal(100, st.PlayerHealth)
	s.Len(st.BattleLog, 1)
}

// PlayAgain

func (s *ControllerSuite) TestPlayAgainRequiresResult() {
	s.selectHero()

	_, err := s.controller.PlayAgain(s.ctx, "p1")
	s.ErrorIs(err, model.ErrInvalidPhase)
}

func (s *ControllerSuite) TestPlayAgainKeepsCharacter() {
	s.selectHero()
	s.move(model.MoveTypeHeavy)
	s.endRound()
	s.move(model.MoveTypeHeavy)
	s.endRound()

	s.random.QueueIntn(1)
	st, err := s.controller.PlayAgain(s.ctx, "p1")
	s.Require().NoError(err)
	s.Equal(model.PhaseBattle, st.Phase)
	s.Equal(model.CharacterID("hero"), st.PlayerCharacter.ID)
	s.Equal(model.CharacterID("sparrer"), st.OpponentCharacter.ID)
	s.Equal(0, st.PlayerRoundsWon)
	s.Equal(0, st.PerfectRounds)
	s.Equal(0, st.SpecialCharge)
	s.Equal(1, st.CurrentRound)
	s.Empty(st.BattleLog)
	s.Nil(st.MatchWinner)
}

// Strategy and housekeeping

func (s *ControllerSuite) TestSetStrategy() {
	s.ErrorIs(s.controller.SetStrategy(s.ctx, "p1", "hard"), model.ErrUnknownBotStrategy)
	s.Require().NoError(s.controller.SetStrategy(s.ctx, "p1", model.BotStrategyEasy))

	s.selectHero()
	s.move(model.MoveTypeLight)
	s.random.QueueIntn(1) // easy strategy picks heavy
	st := s.aiTurn()
	s.Equal(0, st.PlayerHealth)
}

func (s *ControllerSuite) TestEvictIdle() {
	s.selectHero()
	s.Equal(1, s.controller.SessionCount())

	s.clock.Advance(10 * time.Minute)
	s.Equal(0, s.controller.EvictIdle())

	s.clock.Advance(25 * time.Minute)
	s.Equal(1, s.controller.EvictIdle())
	s.Equal(0, s.controller.SessionCount())

	st, _ := s.controller.GetState(s.ctx, "p1")
	s.Equal(model.PhaseMenu, st.Phase)
}

func (s *ControllerSuite) TestSessionEvictedWhileWaitingIsReplaced() {
	s.selectHero()

	s.controller.mu.Lock()
	old := s.controller.sessions["p1"]
	s.controller.mu.Unlock()

	old.mu.Lock()
	done := make(chan error, 1)
	go func() { done <- s.controller.SetStrategy(s.ctx, "p1", "easy") }()
	// Let SetStrategy look up the old session and block on its mutex
	time.Sleep(20 * time.Millisecond)

	s.controller.mu.Lock()
	s.controller.evict("p1", old)
	s.controller.mu.Unlock()
	old.mu.Unlock()

	s.Require().NoError(<-done)
	s.NotEqual("easy", old.strategy)

	s.controller.mu.Lock()
	current, ok := s.controller.sessions["p1"]
	s.controller.mu.Unlock()
	s.Require().True(ok)
	s.NotSame(old, current)
	s.Equal("easy", current.strategy)

	st, err := s.controller.GetState(s.ctx, "p1")
	s.Require().NoError(err)
	s.Equal(model.PhaseMenu, st.Phase)
}

func (s *ControllerSuite) TestShutdownStopsTimers() {
	s.selectHero()
	s.move(model.MoveTypeLight)
	s.Equal(1, s.clock.PendingTimers())

	s.controller.Shutdown()
	s.Equal(0, s.clock.PendingTimers())
}
