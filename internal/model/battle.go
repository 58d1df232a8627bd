package model

// Battle tuning constants
const (
	MaxHealth         = 100
	MaxSpecialCharge  = 100
	SpecialChargeGain = 20
	RoundsToWin       = 2
)

// Phase is the current screen of a battle session
type Phase string

const (
	PhaseMenu   Phase = "menu"   // No fighter chosen
	PhaseBattle Phase = "battle" // Rounds in progress
	PhaseResult Phase = "result" // Match decided
)

// Side identifies a combatant
type Side string

const (
	SidePlayer   Side = "player"
	SideOpponent Side = "opponent"
)

// BattleState is the full state of one player's match against the AI
type BattleState struct {
	Phase             Phase
	PlayerCharacter   *Character
	OpponentCharacter *Character

	PlayerHealth   int
	OpponentHealth int

	CurrentRound      int
	PlayerRoundsWon   int
	OpponentRoundsWon int

	BattleLog  []string
	LastAction string

	IsPlayerTurn bool
	RoundOver    bool // A lethal hit landed and has not been acknowledged
	AIPending    bool // An AI turn is scheduled

	SpecialCharge         int
	OpponentSpecialCharge int

	PerfectRounds int
	MatchWinner   *Side
}

// NewBattleState returns the initial menu state
func NewBattleState() *BattleState {
	return &BattleState{
		Phase:          PhaseMenu,
		PlayerHealth:   MaxHealth,
		OpponentHealth: MaxHealth,
		CurrentRound:   1,
		BattleLog:      []string{},
		IsPlayerTurn:   true,
	}
}

// MatchOver returns true once either side has reached the round-win threshold
func (b *BattleState) MatchOver() bool {
	return b.PlayerRoundsWon >= RoundsToWin || b.OpponentRoundsWon >= RoundsToWin
}

// Clone returns a deep copy safe to hand outside the owning session.
// Characters are immutable and shared.
func (b *BattleState) Clone() *BattleState {
	c := *b
	c.BattleLog = make([]string, len(b.BattleLog))
	copy(c.BattleLog, b.BattleLog)
	if b.MatchWinner != nil {
		w := *b.MatchWinner
		c.MatchWinner = &w
	}
	return &c
}

// MatchSummary is what a finished match reports to the profile service
type MatchSummary struct {
	PlayerCharacter   CharacterID
	OpponentCharacter CharacterID
	PlayerWon         bool
	RoundsWon         int
	RoundsLost        int
	PerfectRounds     int
}

// ChargeAfter returns a special charge value after using a move of type t
func ChargeAfter(charge int, t MoveType) int {
	if t == MoveTypeSpecial {
		return 0
	}
	return min(MaxSpecialCharge, charge+SpecialChargeGain)
}
