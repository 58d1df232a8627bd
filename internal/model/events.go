package model

import "time"

// EventType identifies the type of battle event
type EventType string

const (
	EventBattleStarted EventType = "battle_started"
	EventPlayerAttack  EventType = "player_attack"
	EventAIAttack      EventType = "ai_attack"
	EventRoundStarted  EventType = "round_started"
	EventMatchComplete EventType = "match_complete"
	EventReturnedMenu  EventType = "returned_to_menu"
)

// BattleEvent is published to a player's event stream after a state change
type BattleEvent struct {
	Type      EventType
	Timestamp time.Time
	PlayerID  PlayerID
	State     *BattleState
}
