// Package engine implements the number-row puzzle: randomly drawn numbers are
// placed into a fixed row of slots that must stay in non-decreasing order,
// with three one-shot power-ups to escape stuck positions.
//
// An Engine is not safe for concurrent use.
package engine

import (
	"slices"

	"github.com/samber/lo"
)

// empty marks an unfilled slot. Drawn numbers are always >= 1.
const empty = 0

// Engine owns the state of a single game.
type Engine struct {
	mode        Mode
	rng         Source
	observer    Observer
	board       []int
	pending     int
	rerollUsed  bool
	deleteState DeleteState
	delete3Used bool
	status      Status
}

// Option configures an Engine.
type Option func(*Engine)

// WithObserver registers a subscriber for intent events.
func WithObserver(o Observer) Option {
	return func(e *Engine) {
		e.observer = o
	}
}

// New starts a game in the given mode.
func New(mode Mode, rng Source, opts ...Option) (*Engine, error) {
	e, err := build(mode, rng, opts)
	if err != nil {
		return nil, err
	}
	e.init()
	return e, nil
}

func build(mode Mode, rng Source, opts []Option) (*Engine, error) {
	if err := mode.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		return nil, ErrNilSource
	}
	e := &Engine{mode: mode, rng: rng}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

func (e *Engine) init() {
	e.board = lo.Times(e.mode.BoardSize, func(_ int) int { return empty })
	e.pending = e.draw()
	e.rerollUsed = false
	e.deleteState = DeleteIdle
	e.delete3Used = false
	e.status = StatusInProgress
}

func (e *Engine) draw() int {
	return e.rng.IntN(e.mode.NumberRange) + 1
}

// Mode returns the parameters the game was built with.
func (e *Engine) Mode() Mode { return e.mode }

// Pending returns the number currently offered for placement.
func (e *Engine) Pending() int { return e.pending }

// Status returns the game status as of the last mutation.
func (e *Engine) Status() Status { return e.status }

// IsGameOver reports whether the game was lost.
func (e *Engine) IsGameOver() bool { return e.status == StatusLost }

// IsGameWon reports whether every slot is filled.
func (e *Engine) IsGameWon() bool { return e.status == StatusWon }

// DeleteState returns the single-delete power-up state.
func (e *Engine) DeleteState() DeleteState { return e.deleteState }

// IsPlaceable reports whether the pending number may go into the slot at
// index: the nearest filled slot before it must hold a value <= pending and
// the nearest filled slot after it a value >= pending. Whether index itself is
// occupied is not checked.
func (e *Engine) IsPlaceable(index int) bool {
	if !e.inBounds(index) {
		return false
	}
	return fits(e.board, index, e.pending)
}

func fits(board []int, index, value int) bool {
	for i := index - 1; i >= 0; i-- {
		if board[i] != empty {
			if board[i] > value {
				return false
			}
			break
		}
	}
	for i := index + 1; i < len(board); i++ {
		if board[i] != empty {
			return board[i] >= value
		}
	}
	return true
}

// PlaceableSlots lists the empty slots that accept the pending number.
func (e *Engine) PlaceableSlots() []int {
	return lo.FilterMap(e.board, func(v int, i int) (int, bool) {
		return i, v == empty && fits(e.board, i, e.pending)
	})
}

func (e *Engine) filledSlots() []int {
	return lo.FilterMap(e.board, func(v int, i int) (int, bool) {
		return i, v != empty
	})
}

func (e *Engine) inBounds(index int) bool {
	return index >= 0 && index < len(e.board)
}

// Place puts the pending number into the slot at index and draws the next one.
func (e *Engine) Place(index int) Result {
	intent := Intent{Kind: IntentPlace, Index: index}
	switch {
	case e.status != StatusInProgress:
		return e.reject(intent, RejectedGameOver)
	case !e.inBounds(index):
		return e.reject(intent, RejectedOutOfRange)
	case e.deleteState == DeleteArmed:
		return e.reject(intent, RejectedUnavailable)
	case e.board[index] != empty:
		return e.reject(intent, RejectedSlotOccupied)
	case !fits(e.board, index, e.pending):
		return e.reject(intent, RejectedInvalidPlacement)
	}
	e.board[index] = e.pending
	e.pending = e.draw()
	return e.accept(intent, nil)
}

// Reroll replaces the pending number with a different one. Usable once.
func (e *Engine) Reroll() Result {
	intent := Intent{Kind: IntentReroll}
	switch {
	case e.status != StatusInProgress:
		return e.reject(intent, RejectedGameOver)
	case e.rerollUsed:
		return e.reject(intent, RejectedExhausted)
	}
	next := e.draw()
	for next == e.pending {
		next = e.draw()
	}
	e.pending = next
	e.rerollUsed = true
	return e.accept(intent, nil)
}

// ToggleDelete arms the single-delete power-up, or disarms it when already
// armed. Disarming consumes nothing.
func (e *Engine) ToggleDelete() Result {
	intent := Intent{Kind: IntentToggleDelete}
	if e.status != StatusInProgress {
		return e.reject(intent, RejectedGameOver)
	}
	switch e.deleteState {
	case DeleteConsumed:
		return e.reject(intent, RejectedExhausted)
	case DeleteArmed:
		e.deleteState = DeleteIdle
		return e.emit(intent, Accepted, e.status, nil)
	}
	if len(e.filledSlots()) == 0 {
		return e.reject(intent, RejectedUnavailable)
	}
	e.deleteState = DeleteArmed
	return e.emit(intent, Accepted, e.status, nil)
}

// DeleteAt clears the filled slot at index while delete is armed.
func (e *Engine) DeleteAt(index int) Result {
	intent := Intent{Kind: IntentDeleteAt, Index: index}
	switch {
	case e.status != StatusInProgress:
		return e.reject(intent, RejectedGameOver)
	case e.deleteState == DeleteConsumed:
		return e.reject(intent, RejectedExhausted)
	case e.deleteState != DeleteArmed:
		return e.reject(intent, RejectedUnavailable)
	case !e.inBounds(index):
		return e.reject(intent, RejectedOutOfRange)
	case e.board[index] == empty:
		return e.reject(intent, RejectedUnavailable)
	}
	e.board[index] = empty
	e.deleteState = DeleteConsumed
	return e.accept(intent, []int{index})
}

// DeleteThree clears up to three filled slots picked at random without
// replacement. Usable once.
func (e *Engine) DeleteThree() Result {
	intent := Intent{Kind: IntentDeleteThree}
	switch {
	case e.status != StatusInProgress:
		return e.reject(intent, RejectedGameOver)
	case e.delete3Used:
		return e.reject(intent, RejectedExhausted)
	}
	filled := e.filledSlots()
	if len(filled) == 0 {
		return e.reject(intent, RejectedUnavailable)
	}

	n := min(3, len(filled))
	// partial Fisher-Yates: the first n entries end up a uniform sample
	for i := 0; i < n; i++ {
		j := i + e.rng.IntN(len(filled)-i)
		filled[i], filled[j] = filled[j], filled[i]
	}
	cleared := filled[:n]
	slices.Sort(cleared)
	for _, idx := range cleared {
		e.board[idx] = empty
	}
	e.delete3Used = true
	return e.accept(intent, cleared)
}

// Reset starts a fresh game in the same mode. It always succeeds.
func (e *Engine) Reset() Result {
	previous := e.status
	e.init()
	return e.emit(Intent{Kind: IntentReset}, Accepted, previous, nil)
}

// Apply dispatches an intent to the matching operation.
func (e *Engine) Apply(intent Intent) Result {
	switch intent.Kind {
	case IntentPlace:
		return e.Place(intent.Index)
	case IntentReroll:
		return e.Reroll()
	case IntentToggleDelete:
		return e.ToggleDelete()
	case IntentDeleteAt:
		return e.DeleteAt(intent.Index)
	case IntentDeleteThree:
		return e.DeleteThree()
	case IntentReset:
		return e.Reset()
	}
	return e.reject(intent, RejectedUnavailable)
}

// evaluate derives the status from the board and power-up state. A full
// board is won even if it would otherwise count as stuck.
func (e *Engine) evaluate() Status {
	if lo.EveryBy(e.board, func(v int) bool { return v != empty }) {
		return StatusWon
	}
	spent := e.rerollUsed && e.deleteState == DeleteConsumed && e.delete3Used
	if spent && len(e.PlaceableSlots()) == 0 {
		return StatusLost
	}
	return StatusInProgress
}

func (e *Engine) accept(intent Intent, cleared []int) Result {
	previous := e.status
	e.status = e.evaluate()
	return e.emit(intent, Accepted, previous, cleared)
}

func (e *Engine) reject(intent Intent, outcome Outcome) Result {
	return e.emit(intent, outcome, e.status, nil)
}

func (e *Engine) emit(intent Intent, outcome Outcome, previous Status, cleared []int) Result {
	res := Result{Outcome: outcome, Cleared: cleared, Snapshot: e.Snapshot()}
	if e.observer != nil {
		e.observer(Event{
			Intent:   intent,
			Outcome:  outcome,
			Previous: previous,
			Status:   e.status,
			Cleared:  cleared,
		})
	}
	return res
}
