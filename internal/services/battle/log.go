package battle

import (
	"fmt"

	"github.com/mcoot/pirateclash/internal/model"
)

func attackLine(attacker *model.Character, move model.Move, damage int) string {
	return fmt.Sprintf("%s uses %s! Hits for %d damage! %s", attacker.Name, move.Name, damage, move.Emoji)
}

func knockoutLine(loser, winner *model.Character) string {
	return fmt.Sprintf("%s is down! Round goes to %s!", loser.Name, winner.Name)
}

func roundLine(round int) string {
	return fmt.Sprintf("--- ROUND %d ---", round)
}
