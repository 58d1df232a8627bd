// Package battle runs the per-player match against the AI opponent.
package battle

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/mcoot/pirateclash/internal/catalog"
	"github.com/mcoot/pirateclash/internal/dependencies/clock"
	"github.com/mcoot/pirateclash/internal/dependencies/random"
	"github.com/mcoot/pirateclash/internal/model"
	"github.com/mcoot/pirateclash/internal/services/bot"
	"github.com/mcoot/pirateclash/internal/services/combat"
)

// MatchRecorder receives the summary of every finished match
type MatchRecorder interface {
	RecordMatchResult(ctx context.Context, id model.PlayerID, summary model.MatchSummary) (*model.MatchResult, error)
}

// Notifier is told about every state change, including deferred AI turns
type Notifier interface {
	Publish(event model.BattleEvent)
}

type noopNotifier struct{}

func (noopNotifier) Publish(model.BattleEvent) {}

// Config holds battle tuning
type Config struct {
	// AITurnDelay is the pause between the player's attack and the AI reply
	AITurnDelay time.Duration
	// Strategy is the bot strategy name used for new sessions
	Strategy string
	// IdleTimeout is how long an untouched session survives EvictIdle
	IdleTimeout time.Duration
}

// DefaultConfig returns default battle configuration
func DefaultConfig() Config {
	return Config{
		AITurnDelay: 1500 * time.Millisecond,
		Strategy:    model.BotStrategyMedium,
		IdleTimeout: 30 * time.Minute,
	}
}

// Controller manages battle sessions keyed by player
type Controller struct {
	catalog    *catalog.Catalog
	bots       *bot.Service
	calculator *combat.Calculator
	recorder   MatchRecorder
	notifier   Notifier
	clock      clock.Clock
	random     random.Random
	cfg        Config
	logger     *slog.Logger

	mu       sync.Mutex
	sessions map[model.PlayerID]*session
}

// NewController creates a new battle Controller. notifier may be nil.
func NewController(
	cat *catalog.Catalog,
	bots *bot.Service,
	calculator *combat.Calculator,
	recorder MatchRecorder,
	notifier Notifier,
	clk clock.Clock,
	rnd random.Random,
	cfg Config,
	logger *slog.Logger,
) *Controller {
	defaults := DefaultConfig()
	if cfg.AITurnDelay < 0 {
		cfg.AITurnDelay = 0
	}
	if cfg.Strategy == "" {
		cfg.Strategy = defaults.Strategy
	}
	if cfg.IdleTimeout == 0 {
		cfg.IdleTimeout = defaults.IdleTimeout
	}
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &Controller{
		catalog:    cat,
		bots:       bots,
		calculator: calculator,
		recorder:   recorder,
		notifier:   notifier,
		clock:      clk,
		random:     rnd,
		cfg:        cfg,
		logger:     logger.With(slog.String("component", "battle-controller")),
		sessions:   make(map[model.PlayerID]*session),
	}
}

// lockSession returns the player's live session, creating it if needed,
// with its mutex held. A session evicted while the caller waited for its
// mutex is skipped and the lookup retried.
func (c *Controller) lockSession(id model.PlayerID) *session {
	for {
		c.mu.Lock()
		sess, ok := c.sessions[id]
		if !ok {
			sess = newSession(id, c.cfg.Strategy, c.clock.Now())
			c.sessions[id] = sess
		}
		c.mu.Unlock()

		sess.mu.Lock()
		if sess.evicted {
			sess.mu.Unlock()
			continue
		}
		sess.lastActive = c.clock.Now()
		return sess
	}
}

func (c *Controller) publish(id model.PlayerID, eventType model.EventType, state *model.BattleState) {
	c.notifier.Publish(model.BattleEvent{
		Type:      eventType,
		Timestamp: c.clock.Now(),
		PlayerID:  id,
		State:     state,
	})
}

// GetState returns a snapshot of the player's battle. Unknown players are in the menu.
func (c *Controller) GetState(ctx context.Context, id model.PlayerID) (*model.BattleState, error) {
	if id == "" {
		return nil, model.ErrAuthenticationRequired
	}

	c.mu.Lock()
	sess, ok := c.sessions[id]
	c.mu.Unlock()
	if !ok {
		return model.NewBattleState(), nil
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.evicted {
		return model.NewBattleState(), nil
	}
	return sess.state.Clone(), nil
}

func (c *Controller) pickOpponent(playerChar model.CharacterID) (*model.Character, error) {
	opponents := c.catalog.Opponents(playerChar)
	if len(opponents) == 0 {
		return nil, model.ErrNoOpponents
	}
	return opponents[c.random.Intn(len(opponents))], nil
}

// SelectCharacter starts a match with the chosen fighter against a random opponent
func (c *Controller) SelectCharacter(ctx context.Context, id model.PlayerID, characterID model.CharacterID) (*model.BattleState, error) {
	if id == "" {
		return nil, model.ErrAuthenticationRequired
	}

	character, err := c.catalog.Get(characterID)
	if err != nil {
		return nil, err
	}

	sess := c.lockSession(id)
	if !sess.can(eventSelect) {
		sess.mu.Unlock()
		return nil, model.ErrInvalidPhase
	}

	opponent, err := c.pickOpponent(character.ID)
	if err != nil {
		sess.mu.Unlock()
		return nil, err
	}

	sess.cancelAI()
	sess.resetMatch(character, opponent)
	if err := sess.transition(ctx, eventSelect); err != nil {
		sess.mu.Unlock()
		return nil, err
	}
	snapshot := sess.state.Clone()
	sess.mu.Unlock()

	c.logger.Info("battle started",
		slog.String("player_id", string(id)),
		slog.String("character", string(character.ID)),
		slog.String("opponent", string(opponent.ID)),
	)
	c.publish(id, model.EventBattleStarted, snapshot)
	return snapshot, nil
}

// PlayerMove applies the player's chosen move and schedules the AI reply
func (c *Controller) PlayerMove(ctx context.Context, id model.PlayerID, moveType model.MoveType) (*model.BattleState, error) {
	if id == "" {
		return nil, model.ErrAuthenticationRequired
	}

	sess := c.lockSession(id)
	st := sess.state

	if st.Phase != model.PhaseBattle {
		sess.mu.Unlock()
		return nil, model.ErrInvalidPhase
	}
	if st.RoundOver {
		sess.mu.Unlock()
		return nil, model.ErrRoundOver
	}
	if !st.IsPlayerTurn || st.AIPending {
		sess.mu.Unlock()
		return nil, model.ErrNotPlayerTurn
	}

	move, err := st.PlayerCharacter.MoveFor(moveType)
	if err != nil {
		sess.mu.Unlock()
		return nil, err
	}
	if move.Type == model.MoveTypeSpecial && st.SpecialCharge != model.MaxSpecialCharge {
		sess.mu.Unlock()
		return nil, model.ErrSpecialNotReady
	}

	hit := c.calculator.Resolve(move, st.PlayerCharacter, st.OpponentCharacter)
	lethal := sess.applyAttack(model.SidePlayer, move, hit.Damage)
	if !lethal {
		c.scheduleAI(sess)
	}
	snapshot := st.Clone()
	sess.mu.Unlock()

	c.logger.Debug("player attack",
		slog.String("player_id", string(id)),
		slog.String("move", move.Name),
		slog.Int("damage", hit.Damage),
		slog.Bool("critical", hit.Critical),
		slog.Bool("round_over", lethal),
	)
	c.publish(id, model.EventPlayerAttack, snapshot)
	return snapshot, nil
}

// scheduleAI arms the deferred AI turn. Caller holds sess.mu.
func (c *Controller) scheduleAI(sess *session) {
	sess.cancelAI()
	token := sess.aiToken
	sess.state.AIPending = true
	sess.aiTimer = c.clock.AfterFunc(c.cfg.AITurnDelay, func() {
		c.runAITurn(sess, token)
	})
}

// runAITurn is the deferred AI reply. It re-checks the session before acting
// since the match may have moved on while the timer was pending.
func (c *Controller) runAITurn(sess *session, token uint64) {
	sess.mu.Lock()
	if sess.aiToken != token || !sess.state.AIPending {
		sess.mu.Unlock()
		return
	}
	sess.aiTimer = nil
	sess.state.AIPending = false

	st := sess.state
	if st.Phase != model.PhaseBattle || st.IsPlayerTurn || st.RoundOver ||
		st.PlayerCharacter == nil || st.OpponentCharacter == nil {
		sess.mu.Unlock()
		return
	}

	turn, err := c.bots.TakeTurn(sess.strategy, st.OpponentCharacter, st.PlayerCharacter,
		st.OpponentHealth, st.PlayerHealth, st.OpponentSpecialCharge)
	if err != nil {
		// Hand the turn back rather than stalling the match
		st.IsPlayerTurn = true
		snapshot := st.Clone()
		sess.mu.Unlock()
		c.logger.Error("ai turn failed",
			slog.String("player_id", string(sess.playerID)),
			slog.String("error", err.Error()),
		)
		c.publish(sess.playerID, model.EventAIAttack, snapshot)
		return
	}

	lethal := sess.applyAttack(model.SideOpponent, turn.Move, turn.Hit.Damage)
	snapshot := st.Clone()
	sess.mu.Unlock()

	c.logger.Debug("ai attack",
		slog.String("player_id", string(sess.playerID)),
		slog.String("move", turn.Move.Name),
		slog.Int("damage", turn.Hit.Damage),
		slog.Bool("round_over", lethal),
	)
	c.publish(sess.playerID, model.EventAIAttack, snapshot)
}

// EndRound acknowledges a finished round, starting the next one or
// recording the match once a side has enough round wins
func (c *Controller) EndRound(ctx context.Context, id model.PlayerID) (*model.BattleState, error) {
	if id == "" {
		return nil, model.ErrAuthenticationRequired
	}

	sess := c.lockSession(id)
	defer sess.mu.Unlock()
	st := sess.state

	if st.Phase != model.PhaseBattle {
		return nil, model.ErrInvalidPhase
	}
	if !st.RoundOver {
		return nil, model.ErrRoundInProgress
	}

	if !st.MatchOver() {
		sess.startNextRound()
		snapshot := st.Clone()
		c.publish(id, model.EventRoundStarted, snapshot)
		return snapshot, nil
	}

	summary := sess.summary()
	result, err := c.recorder.RecordMatchResult(ctx, id, summary)
	if err != nil {
		c.logger.Error("failed to record match",
			slog.String("player_id", string(id)),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	if err := sess.transition(ctx, eventFinish); err != nil {
		return nil, err
	}
	winner := model.SideOpponent
	if summary.PlayerWon {
		winner = model.SidePlayer
	}
	st.MatchWinner = &winner
	st.RoundOver = false

	c.logger.Info("match complete",
		slog.String("player_id", string(id)),
		slog.String("winner", string(winner)),
		slog.Int("rounds_won", summary.RoundsWon),
		slog.Int("rounds_lost", summary.RoundsLost),
		slog.Int("perfect_rounds", summary.PerfectRounds),
		slog.Int("streak", result.NewStreak),
	)

	snapshot := st.Clone()
	c.publish(id, model.EventMatchComplete, snapshot)
	return snapshot, nil
}

// PlayAgain starts a new match with the same fighter and a new random opponent
func (c *Controller) PlayAgain(ctx context.Context, id model.PlayerID) (*model.BattleState, error) {
	if id == "" {
		return nil, model.ErrAuthenticationRequired
	}

	sess := c.lockSession(id)
	if !sess.can(eventPlayAgain) || sess.state.PlayerCharacter == nil {
		sess.mu.Unlock()
		return nil, model.ErrInvalidPhase
	}

	character := sess.state.PlayerCharacter
	opponent, err := c.pickOpponent(character.ID)
	if err != nil {
		sess.mu.Unlock()
		return nil, err
	}

	sess.cancelAI()
	sess.resetMatch(character, opponent)
	if err := sess.transition(ctx, eventPlayAgain); err != nil {
		sess.mu.Unlock()
		return nil, err
	}
	snapshot := sess.state.Clone()
	sess.mu.Unlock()

	c.logger.Info("battle restarted",
		slog.String("player_id", string(id)),
		slog.String("character", string(character.ID)),
		slog.String("opponent", string(opponent.ID)),
	)
	c.publish(id, model.EventBattleStarted, snapshot)
	return snapshot, nil
}

// BackToMenu abandons any match in progress and returns to the menu
func (c *Controller) BackToMenu(ctx context.Context, id model.PlayerID) (*model.BattleState, error) {
	if id == "" {
		return nil, model.ErrAuthenticationRequired
	}

	sess := c.lockSession(id)
	sess.cancelAI()
	if sess.can(eventMenu) {
		if err := sess.transition(ctx, eventMenu); err != nil {
			sess.mu.Unlock()
			return nil, err
		}
	}
	sess.state = model.NewBattleState()
	snapshot := sess.state.Clone()
	sess.mu.Unlock()

	c.publish(id, model.EventReturnedMenu, snapshot)
	return snapshot, nil
}

// EvictIdle drops sessions untouched for longer than the idle timeout and
// returns how many were removed
func (c *Controller) EvictIdle() int {
	cutoff := c.clock.Now().Add(-c.cfg.IdleTimeout)

	c.mu.Lock()
	defer c.mu.Unlock()

	evicted := 0
	for id, sess := range c.sessions {
		sess.mu.Lock()
		if sess.lastActive.Before(cutoff) {
			c.evict(id, sess)
			evicted++
		}
		sess.mu.Unlock()
	}

	if evicted > 0 {
		c.logger.Info("idle battles evicted", slog.Int("count", evicted))
	}
	return evicted
}

// evict drops a session. The caller holds c.mu and sess.mu.
func (c *Controller) evict(id model.PlayerID, sess *session) {
	sess.cancelAI()
	sess.evicted = true
	delete(c.sessions, id)
}

// SessionCount returns the number of live sessions
func (c *Controller) SessionCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sessions)
}

// Shutdown cancels every pending AI turn
func (c *Controller) Shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, sess := range c.sessions {
		sess.mu.Lock()
		sess.cancelAI()
		sess.mu.Unlock()
	}
}

// Strategies lists the available bot strategy names
func (c *Controller) Strategies() []string {
	return c.bots.Strategies()
}

// SetStrategy changes the bot strategy for the player's next AI turns
func (c *Controller) SetStrategy(ctx context.Context, id model.PlayerID, strategy string) error {
	if id == "" {
		return model.ErrAuthenticationRequired
	}
	if !c.bots.HasStrategy(strategy) {
		return model.ErrUnknownBotStrategy
	}
	sess := c.lockSession(id)
	sess.strategy = strategy
	sess.mu.Unlock()
	return nil
}
