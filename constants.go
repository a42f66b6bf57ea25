package main

// Session configuration constants
const (
	SessionCookieName = "session_id"
	minSessionIDLen   = 10
)

// Route constants
const (
	RouteHome    = "/"
	RoutePlay    = "/play"
	RouteGames   = "/games"
	RouteHealthz = "/healthz"
)

// Error message constants
const (
	ErrorUnknownMode    = "Unknown game mode."
	ErrorMissingIndex   = "A slot index is required."
	ErrorInvalidIndex   = "Slot index must be a whole number."
	ErrorGameCreation   = "Could not start a game."
	ErrorTooManyRequest = "Too many requests. Please slow down."
)

// HTMX headers
const (
	headerHXRequest = "HX-Request"
	headerHXTrigger = "HX-Trigger"
)

// Context key constants
const (
	requestIDKey contextKey = "request_id"
)

type contextKey string
