package bot

import (
	"github.com/mcoot/pirateclash/internal/dependencies/random"
	"github.com/mcoot/pirateclash/internal/model"
)

// EasyStrategy picks uniformly among the moves currently available
type EasyStrategy struct {
	random random.Random
}

// NewEasyStrategy creates a new EasyStrategy
func NewEasyStrategy(rnd random.Random) *EasyStrategy {
	return &EasyStrategy{random: rnd}
}

// ChooseMove ignores health and only uses the special when charged
func (s *EasyStrategy) ChooseMove(ai *model.Character, aiHealth, playerHealth, aiCharge int) model.Move {
	moves := []model.Move{ai.LightMove(), ai.HeavyMove()}
	if aiCharge >= model.MaxSpecialCharge {
		moves = append(moves, ai.SpecialMove)
	}
	return moves[s.random.Intn(len(moves))]
}
