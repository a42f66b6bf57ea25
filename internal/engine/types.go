package engine

import (
	"errors"
	"fmt"
)

// Status is the derived state of a game.
type Status int

const (
	StatusInProgress Status = iota
	StatusWon
	StatusLost
)

var statusNames = map[Status]string{
	StatusInProgress: "in_progress",
	StatusWon:        "won",
	StatusLost:       "lost",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// MarshalText encodes the status by name.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a status name.
func (s *Status) UnmarshalText(text []byte) error {
	for k, v := range statusNames {
		if v == string(text) {
			*s = k
			return nil
		}
	}
	return fmt.Errorf("engine: unknown status %q", text)
}

// Outcome tags the result of a single intent. Rejections are expected,
// user-facing results and never mutate the game.
type Outcome int

const (
	Accepted Outcome = iota
	RejectedInvalidPlacement
	RejectedSlotOccupied
	RejectedOutOfRange
	RejectedExhausted
	RejectedUnavailable
	RejectedGameOver
)

var outcomeNames = map[Outcome]string{
	Accepted:                 "accepted",
	RejectedInvalidPlacement: "rejected_invalid_placement",
	RejectedSlotOccupied:     "rejected_slot_occupied",
	RejectedOutOfRange:       "rejected_out_of_range",
	RejectedExhausted:        "rejected_exhausted",
	RejectedUnavailable:      "rejected_unavailable",
	RejectedGameOver:         "rejected_game_over",
}

func (o Outcome) String() string {
	if name, ok := outcomeNames[o]; ok {
		return name
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// Rejected reports whether the intent was refused.
func (o Outcome) Rejected() bool { return o != Accepted }

func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

func (o *Outcome) UnmarshalText(text []byte) error {
	for k, v := range outcomeNames {
		if v == string(text) {
			*o = k
			return nil
		}
	}
	return fmt.Errorf("engine: unknown outcome %q", text)
}

// DeleteState is the single-delete power-up: Idle ⇄ Armed → Consumed.
type DeleteState int

const (
	DeleteIdle DeleteState = iota
	DeleteArmed
	DeleteConsumed
)

func (d DeleteState) String() string {
	switch d {
	case DeleteIdle:
		return "idle"
	case DeleteArmed:
		return "armed"
	case DeleteConsumed:
		return "consumed"
	}
	return fmt.Sprintf("delete(%d)", int(d))
}

// IntentKind names a caller intent.
type IntentKind string

const (
	IntentPlace        IntentKind = "place"
	IntentReroll       IntentKind = "reroll"
	IntentToggleDelete IntentKind = "toggle_delete"
	IntentDeleteAt     IntentKind = "delete_at"
	IntentDeleteThree  IntentKind = "delete_three"
	IntentReset        IntentKind = "reset"
)

// Intent is one user action. Index is used by IntentPlace and
// IntentDeleteAt only.
type Intent struct {
	Kind  IntentKind `json:"kind"`
	Index int        `json:"index"`
}

// Event is delivered to an Observer after every intent.
type Event struct {
	Intent   Intent
	Outcome  Outcome
	Previous Status
	Status   Status
	Cleared  []int
}

// Observer reacts to engine events. It must not call back into the engine.
type Observer func(Event)

var (
	ErrBoardSize       = errors.New("engine: board size must be at least 1")
	ErrNumberRange     = errors.New("engine: number range must be at least 2")
	ErrNilSource       = errors.New("engine: random source is nil")
	ErrBoardLength     = errors.New("engine: board length does not match mode")
	ErrValueOutOfRange = errors.New("engine: value outside number range")
	ErrUnsorted        = errors.New("engine: board is not in non-decreasing order")
	ErrDeleteState     = errors.New("engine: delete cannot be both used and active")
)
