// Package catalog holds the static fighter definitions.
package catalog

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mcoot/pirateclash/internal/model"
)

//go:embed characters.yaml
var defaultCatalog []byte

type moveEntry struct {
	Name        string `yaml:"name"`
	Damage      int    `yaml:"damage"`
	Type        string `yaml:"type"`
	Description string `yaml:"description"`
	Emoji       string `yaml:"emoji"`
}

type statsEntry struct {
	Health  int `yaml:"health"`
	Attack  int `yaml:"attack"`
	Defense int `yaml:"defense"`
	Speed   int `yaml:"speed"`
	Special int `yaml:"special"`
}

type characterEntry struct {
	ID       string      `yaml:"id"`
	Name     string      `yaml:"name"`
	Title    string      `yaml:"title"`
	Emoji    string      `yaml:"emoji"`
	Color    string      `yaml:"color"`
	Portrait string      `yaml:"portrait"`
	Stats    statsEntry  `yaml:"stats"`
	Moves    []moveEntry `yaml:"moves"`
	Special  moveEntry   `yaml:"special"`
}

type document struct {
	Characters []characterEntry `yaml:"characters"`
}

// Catalog is the immutable, ordered set of playable characters
type Catalog struct {
	characters []*model.Character
	byID       map[model.CharacterID]*model.Character
}

// Default returns the catalog embedded in the binary
func Default() (*Catalog, error) {
	return Parse(defaultCatalog)
}

// LoadFromFile reads a catalog from a YAML file
func LoadFromFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog %s: %w", path, err)
	}
	return Parse(data)
}

// Parse builds a catalog from a YAML document
func Parse(data []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	if len(doc.Characters) < 2 {
		return nil, fmt.Errorf("catalog needs at least 2 characters, got %d", len(doc.Characters))
	}

	c := &Catalog{byID: make(map[model.CharacterID]*model.Character, len(doc.Characters))}
	for _, entry := range doc.Characters {
		character, err := entry.toModel()
		if err != nil {
			return nil, err
		}
		if _, dup := c.byID[character.ID]; dup {
			return nil, fmt.Errorf("duplicate character id %q", character.ID)
		}
		c.characters = append(c.characters, character)
		c.byID[character.ID] = character
	}
	return c, nil
}

func (e characterEntry) toModel() (*model.Character, error) {
	if e.ID == "" {
		return nil, fmt.Errorf("character %q has no id", e.Name)
	}
	if len(e.Moves) != 2 {
		return nil, fmt.Errorf("character %q must have exactly 2 moves, got %d", e.ID, len(e.Moves))
	}

	light, err := e.Moves[0].toModel(model.MoveTypeLight)
	if err != nil {
		return nil, fmt.Errorf("character %q: %w", e.ID, err)
	}
	heavy, err := e.Moves[1].toModel(model.MoveTypeHeavy)
	if err != nil {
		return nil, fmt.Errorf("character %q: %w", e.ID, err)
	}
	special, err := e.Special.toModel(model.MoveTypeSpecial)
	if err != nil {
		return nil, fmt.Errorf("character %q: %w", e.ID, err)
	}

	return &model.Character{
		ID:       model.CharacterID(e.ID),
		Name:     e.Name,
		Title:    e.Title,
		Emoji:    e.Emoji,
		Color:    e.Color,
		Portrait: e.Portrait,
		Stats: model.Stats{
			Health:  e.Stats.Health,
			Attack:  e.Stats.Attack,
			Defense: e.Stats.Defense,
			Speed:   e.Stats.Speed,
			Special: e.Stats.Special,
		},
		Moves:       [2]model.Move{light, heavy},
		SpecialMove: special,
	}, nil
}

func (e moveEntry) toModel(want model.MoveType) (model.Move, error) {
	t, err := model.ParseMoveType(e.Type)
	if err != nil {
		return model.Move{}, fmt.Errorf("move %q: unknown type %q", e.Name, e.Type)
	}
	if t != want {
		return model.Move{}, fmt.Errorf("move %q: expected type %s, got %s", e.Name, want, t)
	}
	if e.Damage < 0 {
		return model.Move{}, fmt.Errorf("move %q: negative damage", e.Name)
	}
	return model.Move{
		Name:        e.Name,
		Damage:      e.Damage,
		Type:        t,
		Description: e.Description,
		Emoji:       e.Emoji,
	}, nil
}

// All returns every character in catalog order
func (c *Catalog) All() []*model.Character {
	result := make([]*model.Character, len(c.characters))
	copy(result, c.characters)
	return result
}

// Get returns the character with the given ID
func (c *Catalog) Get(id model.CharacterID) (*model.Character, error) {
	character, ok := c.byID[id]
	if !ok {
		return nil, model.ErrCharacterNotFound
	}
	return character, nil
}

// Opponents returns every character except the excluded one
func (c *Catalog) Opponents(exclude model.CharacterID) []*model.Character {
	var result []*model.Character
	for _, character := range c.characters {
		if character.ID != exclude {
			result = append(result, character)
		}
	}
	return result
}
