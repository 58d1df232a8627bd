package model

// CharacterID uniquely identifies a fighter in the catalog
type CharacterID string

// MoveType classifies a move
type MoveType string

const (
	MoveTypeLight   MoveType = "light"
	MoveTypeHeavy   MoveType = "heavy"
	MoveTypeSpecial MoveType = "special"
)

// ParseMoveType validates a move type name
func ParseMoveType(s string) (MoveType, error) {
	switch MoveType(s) {
	case MoveTypeLight, MoveTypeHeavy, MoveTypeSpecial:
		return MoveType(s), nil
	default:
		return "", ErrInvalidMove
	}
}

// Move is a single attack a fighter can perform
type Move struct {
	Name        string
	Damage      int
	Type        MoveType
	Description string
	Emoji       string
}

// Stats are a fighter's base attributes, conventionally 0-100
type Stats struct {
	Health  int
	Attack  int
	Defense int
	Speed   int
	Special int
}

// Character is an immutable catalog entry
type Character struct {
	ID          CharacterID
	Name        string
	Title       string
	Emoji       string
	Color       string
	Portrait    string
	Stats       Stats
	Moves       [2]Move // light first, heavy second
	SpecialMove Move
}

// LightMove returns the first standard move
func (c *Character) LightMove() Move {
	return c.Moves[0]
}

// HeavyMove returns the second standard move
func (c *Character) HeavyMove() Move {
	return c.Moves[1]
}

// MoveFor returns the move of the given type
func (c *Character) MoveFor(t MoveType) (Move, error) {
	switch t {
	case MoveTypeLight:
		return c.LightMove(), nil
	case MoveTypeHeavy:
		return c.HeavyMove(), nil
	case MoveTypeSpecial:
		return c.SpecialMove, nil
	default:
		return Move{}, ErrInvalidMove
	}
}
