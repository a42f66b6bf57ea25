package types

import "numberline/internal/engine"

type IntentRequest struct {
	Index *int `json:"index" form:"index" binding:"required"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type ModesResponse struct {
	Default string        `json:"default"`
	Modes   []engine.Mode `json:"modes"`
}

type HealthResponse struct {
	Status         string   `json:"status"`
	Env            string   `json:"env"`
	Modes          []string `json:"modes"`
	ActiveSessions int      `json:"active_sessions"`
	GamesStarted   int64    `json:"games_started"`
	GamesWon       int64    `json:"games_won"`
	GamesLost      int64    `json:"games_lost"`
	Uptime         string   `json:"uptime"`
	Timestamp      string   `json:"timestamp"`
}

// RejectionTrigger is sent as an HX-Trigger payload so the page can shake
// the slot or button that refused the intent.
type RejectionTrigger struct {
	Rejected RejectionDetail `json:"intent-rejected"`
}

type RejectionDetail struct {
	Intent  engine.IntentKind `json:"intent"`
	Outcome engine.Outcome    `json:"outcome"`
	Slot    *int              `json:"slot,omitempty"`
}
