package battle

import (
	"context"
	"errors"

	"github.com/looplab/fsm"

	"github.com/mcoot/pirateclash/internal/model"
)

// Phase machine events
const (
	eventSelect    = "select"
	eventFinish    = "finish"
	eventPlayAgain = "play-again"
	eventMenu      = "menu"
)

func newPhaseMachine() *fsm.FSM {
	return fsm.NewFSM(
		string(model.PhaseMenu),
		fsm.Events{
			{Name: eventSelect, Src: []string{string(model.PhaseMenu)}, Dst: string(model.PhaseBattle)},
			{Name: eventFinish, Src: []string{string(model.PhaseBattle)}, Dst: string(model.PhaseResult)},
			{Name: eventPlayAgain, Src: []string{string(model.PhaseResult)}, Dst: string(model.PhaseBattle)},
			{Name: eventMenu, Src: []string{string(model.PhaseBattle), string(model.PhaseResult)}, Dst: string(model.PhaseMenu)},
		},
		fsm.Callbacks{},
	)
}

// transition fires event on the session's phase machine and mirrors the
// resulting phase into the battle state
func (s *session) transition(ctx context.Context, event string) error {
	if err := s.phase.Event(ctx, event); err != nil {
		var noTransition fsm.NoTransitionError
		if errors.As(err, &noTransition) {
			return nil
		}
		var invalid fsm.InvalidEventError
		if errors.As(err, &invalid) {
			return model.ErrInvalidPhase
		}
		return err
	}
	s.state.Phase = model.Phase(s.phase.Current())
	return nil
}

// can reports whether event is allowed from the current phase
func (s *session) can(event string) bool {
	return s.phase.Can(event)
}
