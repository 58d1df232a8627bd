package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
}

// NewOutput creates a new Output formatter
func NewOutput(format string) *Output {
	return &Output{format: format}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		errData := map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		}
		data, _ := json.Marshal(errData)
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Println(string(data))
	} else {
		fmt.Println(msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case Player:
		o.printPlayer(v)
	case AuthResult:
		o.printAuthResult(v)
	case *Profile:
		o.printProfile(v)
	case []MatchRecord:
		o.printMatches(v)
	case MatchResult:
		fmt.Printf("Match recorded. Streak: %d (best %d)\n", v.NewStreak, v.NewBestStreak)
	case []LeaderboardEntry:
		o.printLeaderboard(v)
	case []Character:
		o.printCharacters(v)
	case Character:
		o.printCharacter(v)
	case BattleState:
		o.printBattleState(v)
	case Strategies:
		fmt.Printf("Strategies: %s\n", strings.Join(v.Strategies, ", "))
	case HealthResult:
		fmt.Printf("Status: %s\n", v.Status)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// Player response type (matches API)
type Player struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	IsGuest     bool   `json:"is_guest"`
}

// AuthResult combines player and token
type AuthResult struct {
	Player       Player `json:"player"`
	SessionToken string `json:"session_token"`
}

// Profile response type
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

// MatchRecord response type
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

// MatchResult response type
type MatchResult struct {
	NewStreak     int `json:"new_streak"`
	NewBestStreak int `json:"new_best_streak"`
}

// LeaderboardEntry response type
type LeaderboardEntry struct {
	Rank       int       `json:"rank"`
	PlayerID   string    `json:"player_id"`
	Username   string    `json:"username"`
	BestStreak int       `json:"best_streak"`
	TotalWins  int       `json:"total_wins"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Move response type
type Move struct {
	Name        string `json:"name"`
	Damage      int    `json:"damage"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Emoji       string `json:"emoji"`
}

// Stats response type
type Stats struct {
	Health  int `json:"health"`
	Attack  int `json:"attack"`
	Defense int `json:"defense"`
	Speed   int `json:"speed"`
	Special int `json:"special"`
}

// Character response type
type Character struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Title       string `json:"title"`
	Emoji       string `json:"emoji"`
	Stats       Stats  `json:"stats"`
	Moves       []Move `json:"moves"`
	SpecialMove Move   `json:"special_move"`
}

// BattleState response type
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

// Strategies response type
type Strategies struct {
	Strategies []string `json:"strategies"`
}

// HealthResult response type
type HealthResult struct {
	Status string `json:"status"`
}

func (o *Output) printPlayer(p Player) {
	guestStr := "no"
	if p.IsGuest {
		guestStr = "yes"
	}
	fmt.Printf("Player: %s (%s)\n", p.DisplayName, p.ID)
	fmt.Printf("Guest: %s\n", guestStr)
}

func (o *Output) printAuthResult(a AuthResult) {
	o.printPlayer(a.Player)
	fmt.Printf("Token: %s\n", a.SessionToken)
}

func (o *Output) printProfile(p *Profile) {
	if p == nil {
		fmt.Println("No profile yet")
		return
	}
	fmt.Printf("Captain: %s\n", p.Username)
	fmt.Printf("Record: %d wins, %d losses\n", p.TotalWins, p.TotalLosses)
	fmt.Printf("Streak: %d (best %d)\n", p.CurrentStreak, p.BestStreak)
	if p.FavoriteCharacter != "" {
		fmt.Printf("Favorite: %s\n", p.FavoriteCharacter)
	}
}

func (o *Output) printMatches(matches []MatchRecord) {
	if len(matches) == 0 {
		fmt.Println("No matches played")
		return
	}
	for _, m := range matches {
		result := "LOSS"
		if m.PlayerWon {
			result = "WIN "
		}
		fmt.Printf("%s %s  %s vs %s  %d-%d", m.PlayedAt.Format("2006-01-02 15:04"), result,
			m.PlayerCharacter, m.OpponentCharacter, m.RoundsWon, m.RoundsLost)
		if m.PerfectRounds > 0 {
			fmt.Printf("  (%d perfect)", m.PerfectRounds)
		}
		fmt.Println()
	}
}

func (o *Output) printLeaderboard(entries []LeaderboardEntry) {
	if len(entries) == 0 {
		fmt.Println("Leaderboard is empty")
		return
	}
	fmt.Printf("%-4s %-24s %6s %6s\n", "#", "Captain", "Best", "Wins")
	for _, e := range entries {
		fmt.Printf("%-4d %-24s %6d %6d\n", e.Rank, e.Username, e.BestStreak, e.TotalWins)
	}
}

func (o *Output) printCharacters(chars []Character) {
	for _, c := range chars {
		fmt.Printf("%s %-10s %-26s HP %3d  ATK %3d  DEF %3d  SPD %3d\n",
			c.Emoji, c.ID, c.Name+" "+c.Title, c.Stats.Health, c.Stats.Attack, c.Stats.Defense, c.Stats.Speed)
	}
}

func (o *Output) printCharacter(c Character) {
	fmt.Printf("%s %s, %s (%s)\n", c.Emoji, c.Name, c.Title, c.ID)
	fmt.Printf("HP %d  ATK %d  DEF %d  SPD %d  SPECIAL %d\n",
		c.Stats.Health, c.Stats.Attack, c.Stats.Defense, c.Stats.Speed, c.Stats.Special)
	fmt.Println("Moves:")
	for _, m := range c.Moves {
		fmt.Printf("  %-7s %s %s (%d)\n", m.Type, m.Emoji, m.Name, m.Damage)
	}
	fmt.Printf("  %-7s %s %s (%d)\n", c.SpecialMove.Type, c.SpecialMove.Emoji, c.SpecialMove.Name, c.SpecialMove.Damage)
}

func (o *Output) printBattleState(b BattleState) {
	fmt.Printf("Phase: %s\n", b.Phase)
	if b.PlayerCharacter == nil || b.OpponentCharacter == nil {
		return
	}

	fmt.Printf("Round %d  (%d - %d)\n", b.CurrentRound, b.PlayerRoundsWon, b.OpponentRoundsWon)
	fmt.Printf("  %-12s %s %3d/%d  special %d%%\n", b.PlayerCharacter.Name,
		healthBar(b.PlayerHealth, b.PlayerCharacter.Stats.Health), b.PlayerHealth, b.PlayerCharacter.Stats.Health, b.SpecialCharge)
	fmt.Printf("  %-12s %s %3d/%d  special %d%%\n", b.OpponentCharacter.Name,
		healthBar(b.OpponentHealth, b.OpponentCharacter.Stats.Health), b.OpponentHealth, b.OpponentCharacter.Stats.Health, b.OpponentSpecialCharge)

	if b.LastAction != "" {
		fmt.Printf("\n%s\n", b.LastAction)
	}

	switch {
	case b.MatchWinner != nil:
		fmt.Printf("\nMatch over, winner: %s (%d perfect rounds)\n", *b.MatchWinner, b.PerfectRounds)
	case b.RoundOver:
		fmt.Println("\nRound over, run 'battle end-round' to continue")
	case b.AIPending:
		fmt.Println("\nOpponent is thinking...")
	case b.IsPlayerTurn:
		fmt.Println("\nYour turn")
	}
}

const healthBarWidth = 20

func healthBar(current, total int) string {
	if total <= 0 {
		return ""
	}
	filled := min(max(current*healthBarWidth/total, 0), healthBarWidth)
	return "[" + strings.Repeat("#", filled) + strings.Repeat("-", healthBarWidth-filled) + "]"
}
