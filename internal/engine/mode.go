package engine

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
)

// Mode parameterises a game: how many slots the row has and the upper bound
// of the drawn numbers.
type Mode struct {
	Name        string `json:"name"`
	BoardSize   int    `json:"boardSize"`
	NumberRange int    `json:"numberRange"`
}

var (
	Easy   = Mode{Name: "easy", BoardSize: 5, NumberRange: 10}
	Normal = Mode{Name: "normal", BoardSize: 10, NumberRange: 100}
	Hard   = Mode{Name: "hard", BoardSize: 20, NumberRange: 1000}
)

// Modes returns the built-in presets from easiest to hardest.
func Modes() []Mode {
	return []Mode{Easy, Normal, Hard}
}

// ModeByName looks up a preset, ignoring case and surrounding space.
func ModeByName(name string) (Mode, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	return lo.Find(Modes(), func(m Mode) bool {
		return m.Name == name
	})
}

// Validate checks that a game can be built from the mode.
func (m Mode) Validate() error {
	if m.BoardSize < 1 {
		return fmt.Errorf("%w: got %d", ErrBoardSize, m.BoardSize)
	}
	if m.NumberRange < 2 {
		return fmt.Errorf("%w: got %d", ErrNumberRange, m.NumberRange)
	}
	return nil
}
