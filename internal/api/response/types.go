package response

import (
	"time"

	"github.com/mcoot/pirateclash/internal/model"
	"github.com/mcoot/pirateclash/internal/services/auth"
)

// Player represents an identity in API responses
type Player struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	IsGuest     bool   `json:"is_guest"`
}

// PlayerFromModel converts a model.Player to a response Player
func PlayerFromModel(p *model.Player) Player {
	return Player{
		ID:          string(p.ID),
		DisplayName: p.DisplayName,
		IsGuest:     p.IsGuest,
	}
}

// AuthResponse is the response for authentication endpoints
type AuthResponse struct {
	Player       Player `json:"player"`
	SessionToken string `json:"session_token"`
}

// AuthResponseFromSession creates an AuthResponse from a session
func AuthResponseFromSession(s *auth.Session) AuthResponse {
	return AuthResponse{
		Player:       PlayerFromModel(s.Player),
		SessionToken: s.Token,
	}
}

// Move represents a fighter's move
type Move struct {
	Name        string `json:"name"`
	Damage      int    `json:"damage"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Emoji       string `json:"emoji"`
}

// MoveFromModel converts model.Move
func MoveFromModel(m model.Move) Move {
	return Move{
		Name:        m.Name,
		Damage:      m.Damage,
		Type:        string(m.Type),
		Description: m.Description,
		Emoji:       m.Emoji,
	}
}

// Stats represents a fighter's base attributes
type Stats struct {
	Health  int `json:"health"`
	Attack  int `json:"attack"`
	Defense int `json:"defense"`
	Speed   int `json:"speed"`
	Special int `json:"special"`
}

// Character represents a catalog entry
type Character struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Title       string `json:"title"`
	Emoji       string `json:"emoji"`
	Color       string `json:"color"`
	Portrait    string `json:"portrait"`
	Stats       Stats  `json:"stats"`
	Moves       []Move `json:"moves"`
	SpecialMove Move   `json:"special_move"`
}

// CharacterFromModel converts model.Character
func CharacterFromModel(c *model.Character) Character {
	return Character{
		ID:       string(c.ID),
		Name:     c.Name,
		Title:    c.Title,
		Emoji:    c.Emoji,
		Color:    c.Color,
		Portrait: c.Portrait,
		Stats: Stats{
			Health:  c.Stats.Health,
			Attack:  c.Stats.Attack,
			Defense: c.Stats.Defense,
			Speed:   c.Stats.Speed,
			Special: c.Stats.Special,
		},
		Moves:       []Move{MoveFromModel(c.LightMove()), MoveFromModel(c.HeavyMove())},
		SpecialMove: MoveFromModel(c.SpecialMove),
	}
}

// CharactersFromModel converts a list of characters
func CharactersFromModel(chars []*model.Character) []Character {
	result := make([]Character, len(chars))
	for i, c := range chars {
		result[i] = CharacterFromModel(c)
	}
	return result
}

// BattleState represents a player's battle
type BattleState struct {
	Phase                 string     `json:"phase"`
	PlayerCharacter       *Character `json:"player_character"`
	OpponentCharacter     *Character `json:"opponent_character"`
	PlayerHealth          int        `json:"player_health"`
	OpponentHealth        int        `json:"opponent_health"`
	CurrentRound          int        `json:"current_round"`
	PlayerRoundsWon       int        `json:"player_rounds_won"`
	OpponentRoundsWon     int        `json:"opponent_rounds_won"`
	BattleLog             []string   `json:"battle_log"`
	LastAction            string     `json:"last_action"`
	IsPlayerTurn          bool       `json:"is_player_turn"`
	RoundOver             bool       `json:"round_over"`
	AIPending             bool       `json:"ai_pending"`
	SpecialCharge         int        `json:"special_charge"`
	OpponentSpecialCharge int        `json:"opponent_special_charge"`
	PerfectRounds         int        `json:"perfect_rounds"`
	MatchWinner           *string    `json:"match_winner"`
}

// BattleStateFromModel converts model.BattleState
func BattleStateFromModel(b *model.BattleState) BattleState {
	result := BattleState{
		Phase:                 string(b.Phase),
		PlayerHealth:          b.PlayerHealth,
		OpponentHealth:        b.OpponentHealth,
		CurrentRound:          b.CurrentRound,
		PlayerRoundsWon:       b.PlayerRoundsWon,
		OpponentRoundsWon:     b.OpponentRoundsWon,
		BattleLog:             b.BattleLog,
		LastAction:            b.LastAction,
		IsPlayerTurn:          b.IsPlayerTurn,
		RoundOver:             b.RoundOver,
		AIPending:             b.AIPending,
		SpecialCharge:         b.SpecialCharge,
		OpponentSpecialCharge: b.OpponentSpecialCharge,
		PerfectRounds:         b.PerfectRounds,
	}
	if result.BattleLog == nil {
		result.BattleLog = []string{}
	}
	if b.PlayerCharacter != nil {
		c := CharacterFromModel(b.PlayerCharacter)
		result.PlayerCharacter = &c
	}
	if b.OpponentCharacter != nil {
		c := CharacterFromModel(b.OpponentCharacter)
		result.OpponentCharacter = &c
	}
	if b.MatchWinner != nil {
		w := string(*b.MatchWinner)
		result.MatchWinner = &w
	}
	return result
}

// BattleEvent is pushed over the battle event stream
type BattleEvent struct {
	Type      string      `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	State     BattleState `json:"state"`
}

// BattleEventFromModel converts model.BattleEvent
func BattleEventFromModel(e model.BattleEvent) BattleEvent {
	result := BattleEvent{
		Type:      string(e.Type),
		Timestamp: e.Timestamp,
	}
	if e.State != nil {
		result.State = BattleStateFromModel(e.State)
	}
	return result
}

// Profile represents a player's stats
type Profile struct {
	PlayerID          string    `json:"player_id"`
	Username          string    `json:"username"`
	TotalWins         int       `json:"total_wins"`
	TotalLosses       int       `json:"total_losses"`
	CurrentStreak     int       `json:"current_streak"`
	BestStreak        int       `json:"best_streak"`
	FavoriteCharacter string    `json:"favorite_character,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// ProfileFromModel converts model.PlayerProfile
func ProfileFromModel(p *model.PlayerProfile) Profile {
	return Profile{
		PlayerID:          string(p.PlayerID),
		Username:          p.Username,
		TotalWins:         p.TotalWins,
		TotalLosses:       p.TotalLosses,
		CurrentStreak:     p.CurrentStreak,
		BestStreak:        p.BestStreak,
		FavoriteCharacter: string(p.FavoriteCharacter),
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
}

// MatchRecord represents one logged match
type MatchRecord struct {
	ID                string    `json:"id"`
	PlayerCharacter   string    `json:"player_character"`
	OpponentCharacter string    `json:"opponent_character"`
	PlayerWon         bool      `json:"player_won"`
	RoundsWon         int       `json:"rounds_won"`
	RoundsLost        int       `json:"rounds_lost"`
	PerfectRounds     int       `json:"perfect_rounds"`
	PlayedAt          time.Time `json:"played_at"`
}

// MatchRecordsFromModel converts a list of match records
func MatchRecordsFromModel(records []*model.MatchRecord) []MatchRecord {
	result := make([]MatchRecord, len(records))
	for i, r := range records {
		result[i] = MatchRecord{
			ID:                r.ID,
			PlayerCharacter:   string(r.PlayerCharacter),
			OpponentCharacter: string(r.OpponentCharacter),
			PlayerWon:         r.PlayerWon,
			RoundsWon:         r.RoundsWon,
			RoundsLost:        r.RoundsLost,
			PerfectRounds:     r.PerfectRounds,
			PlayedAt:          r.PlayedAt,
		}
	}
	return result
}

// MatchResult is returned after recording a match
type MatchResult struct {
	NewStreak     int `json:"new_streak"`
	NewBestStreak int `json:"new_best_streak"`
}

// MatchResultFromModel converts model.MatchResult
func MatchResultFromModel(r *model.MatchResult) MatchResult {
	return MatchResult{
		NewStreak:     r.NewStreak,
		NewBestStreak: r.NewBestStreak,
	}
}

// LeaderboardEntry represents one leaderboard row
type LeaderboardEntry struct {
	Rank       int       `json:"rank"`
	PlayerID   string    `json:"player_id"`
	Username   string    `json:"username"`
	BestStreak int       `json:"best_streak"`
	TotalWins  int       `json:"total_wins"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// LeaderboardFromModel converts ranked leaderboard entries
func LeaderboardFromModel(entries []*model.LeaderboardEntry) []LeaderboardEntry {
	result := make([]LeaderboardEntry, len(entries))
	for i, e := range entries {
		result[i] = LeaderboardEntry{
			Rank:       i + 1,
			PlayerID:   string(e.PlayerID),
			Username:   e.Username,
			BestStreak: e.BestStreak,
			TotalWins:  e.TotalWins,
			UpdatedAt:  e.UpdatedAt,
		}
	}
	return result
}

// BotStrategies lists the available AI strategies
type BotStrategies struct {
	Strategies []string `json:"strategies"`
}
