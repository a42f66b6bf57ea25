package engine

import (
	"fmt"

	"github.com/samber/lo"
)

// Snapshot is a copy of the game state as handed to a renderer. A nil board
// entry is an empty slot.
type Snapshot struct {
	Mode             Mode   `json:"mode"`
	Board            []*int `json:"board"`
	Pending          int    `json:"pending"`
	RerollUsed       bool   `json:"rerollUsed"`
	DeleteUsed       bool   `json:"deleteUsed"`
	Delete3Used      bool   `json:"delete3Used"`
	DeleteModeActive bool   `json:"deleteModeActive"`
	Status           Status `json:"status"`
	Placeable        []int  `json:"placeable"`
}

// Result is returned by every intent.
type Result struct {
	Outcome Outcome `json:"outcome"`
	// Cleared lists the slots emptied by a delete, ascending.
	Cleared []int `json:"cleared,omitempty"`
	Snapshot
}

// Snapshot copies the current state.
func (e *Engine) Snapshot() Snapshot {
	return Snapshot{
		Mode: e.mode,
		Board: lo.Map(e.board, func(v int, _ int) *int {
			if v == empty {
				return nil
			}
			return lo.ToPtr(v)
		}),
		Pending:          e.pending,
		RerollUsed:       e.rerollUsed,
		DeleteUsed:       e.deleteState == DeleteConsumed,
		Delete3Used:      e.delete3Used,
		DeleteModeActive: e.deleteState == DeleteArmed,
		Status:           e.status,
		Placeable:        e.PlaceableSlots(),
	}
}

// Restore rebuilds a game from a snapshot. The snapshot's Status and
// Placeable fields are ignored and derived again.
func Restore(mode Mode, snap Snapshot, rng Source, opts ...Option) (*Engine, error) {
	e, err := build(mode, rng, opts)
	if err != nil {
		return nil, err
	}
	if len(snap.Board) != mode.BoardSize {
		return nil, fmt.Errorf("%w: %d slots for board size %d", ErrBoardLength, len(snap.Board), mode.BoardSize)
	}
	if !e.inRange(snap.Pending) {
		return nil, fmt.Errorf("%w: pending %d", ErrValueOutOfRange, snap.Pending)
	}
	if snap.DeleteUsed && snap.DeleteModeActive {
		return nil, ErrDeleteState
	}

	board := lo.Map(snap.Board, func(p *int, _ int) int { return lo.FromPtr(p) })
	last := 0
	for i, v := range board {
		if snap.Board[i] == nil {
			continue
		}
		if !e.inRange(v) {
			return nil, fmt.Errorf("%w: slot %d holds %d", ErrValueOutOfRange, i, v)
		}
		if v < last {
			return nil, fmt.Errorf("%w: slot %d holds %d after %d", ErrUnsorted, i, v, last)
		}
		last = v
	}

	e.board = board
	e.pending = snap.Pending
	e.rerollUsed = snap.RerollUsed
	e.delete3Used = snap.Delete3Used
	switch {
	case snap.DeleteUsed:
		e.deleteState = DeleteConsumed
	case snap.DeleteModeActive:
		e.deleteState = DeleteArmed
	default:
		e.deleteState = DeleteIdle
	}
	e.status = e.evaluate()
	return e, nil
}

func (e *Engine) inRange(v int) bool {
	return v >= 1 && v <= e.mode.NumberRange
}
