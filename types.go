package main

import (
	"sync/atomic"
	"time"

	"numberline/internal/engine"
)

// Session holds a browser session's games, one per mode.
type Session struct {
	Games          map[string]*engine.Engine
	LastAccessTime time.Time
}

// newSession returns an empty session touched now.
func newSession() *Session {
	return &Session{
		Games:          make(map[string]*engine.Engine),
		LastAccessTime: time.Now(),
	}
}

// GameStats counts game lifecycle events across all sessions.
type GameStats struct {
	started atomic.Int64
	won     atomic.Int64
	lost    atomic.Int64
}

// Started returns the number of games created or reset.
func (s *GameStats) Started() int64 { return s.started.Load() }

// Won returns the number of games that ended with a full row.
func (s *GameStats) Won() int64 { return s.won.Load() }

// Lost returns the number of games that ended stuck.
func (s *GameStats) Lost() int64 { return s.lost.Load() }

// record updates the counters from an engine event.
func (s *GameStats) record(ev engine.Event) {
	if ev.Intent.Kind == engine.IntentReset {
		s.started.Add(1)
		return
	}
	if ev.Previous == ev.Status {
		return
	}
	switch ev.Status {
	case engine.StatusWon:
		s.won.Add(1)
	case engine.StatusLost:
		s.lost.Add(1)
	}
}
