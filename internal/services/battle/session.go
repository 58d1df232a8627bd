package battle

import (
	"sync"
	"time"

	"github.com/looplab/fsm"

	"github.com/mcoot/pirateclash/internal/dependencies/clock"
	"github.com/mcoot/pirateclash/internal/model"
)

// session owns one player's battle. Every field is guarded by mu.
type session struct {
	mu sync.Mutex

	playerID model.PlayerID
	state    *model.BattleState
	phase    *fsm.FSM
	strategy string

	aiTimer clock.Timer
	aiToken uint64

	lastActive time.Time
	// evicted is set once the session is dropped from the controller
	evicted bool
}

func newSession(playerID model.PlayerID, strategy string, now time.Time) *session {
	return &session{
		playerID:   playerID,
		state:      model.NewBattleState(),
		phase:      newPhaseMachine(),
		strategy:   strategy,
		lastActive: now,
	}
}

// cancelAI stops any scheduled AI turn. A callback already waiting on mu
// sees the bumped token and does nothing.
func (s *session) cancelAI() {
	if s.aiTimer != nil {
		s.aiTimer.Stop()
		s.aiTimer = nil
	}
	s.aiToken++
	s.state.AIPending = false
}

// resetMatch starts a fresh match between the given fighters
func (s *session) resetMatch(player, opponent *model.Character) {
	phase := s.state.Phase
	s.state = model.NewBattleState()
	s.state.Phase = phase
	s.state.PlayerCharacter = player
	s.state.OpponentCharacter = opponent
}

// applyAttack resolves a hit from one side and reports whether it was lethal
func (s *session) applyAttack(attacker model.Side, move model.Move, damage int) bool {
	st := s.state

	var attackerChar, defenderChar *model.Character
	var defenderHealth *int
	var charge *int
	if attacker == model.SidePlayer {
		attackerChar, defenderChar = st.PlayerCharacter, st.OpponentCharacter
		defenderHealth = &st.OpponentHealth
		charge = &st.SpecialCharge
	} else {
		attackerChar, defenderChar = st.OpponentCharacter, st.PlayerCharacter
		defenderHealth = &st.PlayerHealth
		charge = &st.OpponentSpecialCharge
	}

	*defenderHealth = max(0, *defenderHealth-damage)
	*charge = model.ChargeAfter(*charge, move.Type)

	line := attackLine(attackerChar, move, damage)
	st.BattleLog = append(st.BattleLog, line)
	st.LastAction = line

	if *defenderHealth > 0 {
		st.IsPlayerTurn = attacker == model.SideOpponent
		return false
	}

	st.RoundOver = true
	st.IsPlayerTurn = false
	st.BattleLog = append(st.BattleLog, knockoutLine(defenderChar, attackerChar))
	if attacker == model.SidePlayer {
		st.PlayerRoundsWon++
		if st.PlayerHealth == model.MaxHealth {
			st.PerfectRounds++
		}
	} else {
		st.OpponentRoundsWon++
	}
	return true
}

// startNextRound resets health for the next round of the current match
func (s *session) startNextRound() {
	st := s.state
	st.PlayerHealth = model.MaxHealth
	st.OpponentHealth = model.MaxHealth
	st.CurrentRound++
	st.IsPlayerTurn = true
	st.RoundOver = false
	st.BattleLog = append(st.BattleLog, roundLine(st.CurrentRound))
}

// summary describes the finished match for the profile service
func (s *session) summary() model.MatchSummary {
	st := s.state
	return model.MatchSummary{
		PlayerCharacter:   st.PlayerCharacter.ID,
		OpponentCharacter: st.OpponentCharacter.ID,
		PlayerWon:         st.PlayerRoundsWon >= model.RoundsToWin,
		RoundsWon:         st.PlayerRoundsWon,
		RoundsLost:        st.OpponentRoundsWon,
		PerfectRounds:     st.PerfectRounds,
	}
}
