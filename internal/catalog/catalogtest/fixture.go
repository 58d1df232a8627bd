// Package catalogtest provides a small deterministic catalog for tests.
package catalogtest

import "github.com/mcoot/pirateclash/internal/catalog"

// fixtureYAML holds five fighters with speed 0. With a mock random source
// returning 0.5 every hit deals exactly its base damage scaled by attack, and
// the medium AI picks its light move.
//
// hero and villain kill with one heavy or two lights; sparrer hits for 20;
// feather and pebble hit for a tenth of their move damage.
const fixtureYAML = `
characters:
  - id: hero
    name: Hero
    stats: { health: 100, attack: 100, defense: 0, speed: 0, special: 50 }
    moves:
      - { name: Jab, damage: 50, type: light, emoji: "👊" }
      - { name: Slam, damage: 100, type: heavy, emoji: "💥" }
    special: { name: Meteor, damage: 150, type: special, emoji: "☄️" }
  - id: villain
    name: Villain
    stats: { health: 100, attack: 100, defense: 0, speed: 0, special: 50 }
    moves:
      - { name: Poke, damage: 50, type: light, emoji: "👉" }
      - { name: Crush, damage: 100, type: heavy, emoji: "🔨" }
    special: { name: Doom, damage: 150, type: special, emoji: "💀" }
  - id: sparrer
    name: Sparrer
    stats: { health: 100, attack: 100, defense: 0, speed: 0, special: 50 }
    moves:
      - { name: Tap, damage: 20, type: light, emoji: "✋" }
      - { name: Shove, damage: 40, type: heavy, emoji: "🤚" }
    special: { name: Flurry, damage: 60, type: special, emoji: "🌀" }
  - id: feather
    name: Feather
    stats: { health: 100, attack: 10, defense: 0, speed: 0, special: 50 }
    moves:
      - { name: Brush, damage: 20, type: light, emoji: "🪶" }
      - { name: Sweep, damage: 40, type: heavy, emoji: "🧹" }
    special: { name: Gust, damage: 100, type: special, emoji: "🌬️" }
  - id: pebble
    name: Pebble
    stats: { health: 100, attack: 10, defense: 0, speed: 0, special: 50 }
    moves:
      - { name: Roll, damage: 20, type: light, emoji: "🪨" }
      - { name: Drop, damage: 40, type: heavy, emoji: "⬇️" }
    special: { name: Landslide, damage: 100, type: special, emoji: "⛰️" }
`

// Fixture returns the test catalog: hero, villain, sparrer, feather, pebble
func Fixture() *catalog.Catalog {
	cat, err := catalog.Parse([]byte(fixtureYAML))
	if err != nil {
		panic(err)
	}
	return cat
}
