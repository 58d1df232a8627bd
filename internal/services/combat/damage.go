// Package combat computes the damage a move deals.
package combat

import (
	"math"

	"github.com/mcoot/pirateclash/internal/dependencies/random"
	"github.com/mcoot/pirateclash/internal/model"
)

const (
	speedBonusMultiplier = 1.2
	critMultiplier       = 1.5
	varianceMin          = 0.9
	varianceSpread       = 0.2
)

// Hit describes a resolved attack
type Hit struct {
	Damage     int
	SpeedBonus bool
	Critical   bool
}

// Calculator resolves damage using an injectable random source.
// Three draws are taken per call, in order: speed bonus, variance, critical.
type Calculator struct {
	random random.Random
}

// NewCalculator creates a new Calculator
func NewCalculator(rnd random.Random) *Calculator {
	return &Calculator{random: rnd}
}

// CalculateDamage returns the damage dealt by move from attacker to defender
func CalculateDamage(move model.Move, attacker, defender *model.Character, rnd random.Random) int {
	return NewCalculator(rnd).Damage(move, attacker, defender)
}

// Damage returns the damage dealt by move from attacker to defender
func (c *Calculator) Damage(move model.Move, attacker, defender *model.Character) int {
	return c.Resolve(move, attacker, defender).Damage
}

// Resolve computes damage and reports which bonuses applied
func (c *Calculator) Resolve(move model.Move, attacker, defender *model.Character) Hit {
	attackMultiplier := float64(attacker.Stats.Attack) / 100
	defenseMitigation := 1 - float64(defender.Stats.Defense)/200

	var hit Hit
	speedMultiplier := 1.0
	if c.random.Float64() < float64(attacker.Stats.Speed)/200 {
		speedMultiplier = speedBonusMultiplier
		hit.SpeedBonus = true
	}

	variance := varianceMin + c.random.Float64()*varianceSpread

	crit := 1.0
	if c.random.Float64() < float64(attacker.Stats.Speed)/400 {
		crit = critMultiplier
		hit.Critical = true
	}

	raw := float64(move.Damage) * attackMultiplier * defenseMitigation * speedMultiplier * variance * crit
	hit.Damage = max(0, int(math.Round(raw)))
	return hit
}
