package bot

import (
	"github.com/mcoot/pirateclash/internal/dependencies/random"
	"github.com/mcoot/pirateclash/internal/model"
)

// Branch thresholds for MediumStrategy
const (
	specialChance      = 0.3
	lowHealthThreshold = 30
	desperateHeavyOdds = 0.4
	finishingHeavyOdds = 0.5
	lightMoveChance    = 0.6
)

// MediumStrategy weighs its health, the player's health and its special charge.
// Each rule draws once, and only when its precondition holds.
type MediumStrategy struct {
	random random.Random
}

// NewMediumStrategy creates a new MediumStrategy
func NewMediumStrategy(rnd random.Random) *MediumStrategy {
	return &MediumStrategy{random: rnd}
}

// ChooseMove picks special, heavy or light in priority order
func (s *MediumStrategy) ChooseMove(ai *model.Character, aiHealth, playerHealth, aiCharge int) model.Move {
	if aiCharge >= model.MaxSpecialCharge && s.random.Float64() < specialChance {
		return ai.SpecialMove
	}
	if aiHealth < lowHealthThreshold && s.random.Float64() < desperateHeavyOdds {
		return ai.HeavyMove()
	}
	if playerHealth < lowHealthThreshold && s.random.Float64() < finishingHeavyOdds {
		return ai.HeavyMove()
	}
	if s.random.Float64() < lightMoveChance {
		return ai.LightMove()
	}
	return ai.HeavyMove()
}
