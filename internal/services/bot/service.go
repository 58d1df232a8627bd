package bot

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/mcoot/pirateclash/internal/dependencies/random"
	"github.com/mcoot/pirateclash/internal/model"
	"github.com/mcoot/pirateclash/internal/services/combat"
)

// Turn is a resolved AI attack
type Turn struct {
	Move model.Move
	Hit  combat.Hit
}

// Service runs AI turns using named strategies
type Service struct {
	strategies map[string]Strategy
	calculator *combat.Calculator
	logger     *slog.Logger
}

// DefaultStrategies returns every built-in strategy keyed by name
func DefaultStrategies(rnd random.Random) map[string]Strategy {
	return map[string]Strategy{
		model.BotStrategyEasy:   NewEasyStrategy(rnd),
		model.BotStrategyMedium: NewMediumStrategy(rnd),
	}
}

// NewService creates a new bot Service
func NewService(strategies map[string]Strategy, calculator *combat.Calculator, logger *slog.Logger) *Service {
	return &Service{
		strategies: strategies,
		calculator: calculator,
		logger:     logger.With(slog.String("component", "bot-service")),
	}
}

// HasStrategy reports whether a strategy is registered under name
func (s *Service) HasStrategy(name string) bool {
	_, ok := s.strategies[name]
	return ok
}

// Strategies returns the registered strategy names in sorted order
func (s *Service) Strategies() []string {
	names := make([]string, 0, len(s.strategies))
	for name := range s.strategies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// TakeTurn chooses and resolves one AI attack against the player
func (s *Service) TakeTurn(strategy string, ai, player *model.Character, aiHealth, playerHealth, aiCharge int) (Turn, error) {
	strat, ok := s.strategies[strategy]
	if !ok {
		return Turn{}, fmt.Errorf("%w: %s", model.ErrUnknownBotStrategy, strategy)
	}

	move := strat.ChooseMove(ai, aiHealth, playerHealth, aiCharge)
	hit := s.calculator.Resolve(move, ai, player)

	s.logger.Debug("ai turn resolved",
		slog.String("strategy", strategy),
		slog.String("character", string(ai.ID)),
		slog.String("move", move.Name),
		slog.Int("damage", hit.Damage),
	)

	return Turn{Move: move, Hit: hit}, nil
}
