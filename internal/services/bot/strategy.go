package bot

import "github.com/mcoot/pirateclash/internal/model"

// Strategy defines how the AI opponent picks its next move
type Strategy interface {
	// ChooseMove selects a move for the AI given the current fight situation.
	// A special move is only returned when aiCharge has reached the maximum.
	ChooseMove(ai *model.Character, aiHealth, playerHealth, aiCharge int) model.Move
}
