package main

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"

	"numberline/internal/engine"
	"numberline/internal/types"
)

// homeHandler sends the player to the default mode's board.
func (app *App) homeHandler(c *gin.Context) {
	c.Redirect(http.StatusSeeOther, playPath(app.Config.DefaultMode))
}

// playHandler renders the full page for a mode.
func (app *App) playHandler(c *gin.Context) {
	mode, ok := app.modeParam(c)
	if !ok {
		return
	}
	sessionID := app.getOrCreateSession(c)
	snap, err := app.gameSnapshot(c.Request.Context(), sessionID, mode)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, types.ErrorResponse{Error: ErrorGameCreation})
		return
	}
	c.HTML(http.StatusOK, "index.html", pageData(mode, snap, nil))
}

// stateHandler returns the current game as JSON, or as the board fragment.
func (app *App) stateHandler(c *gin.Context) {
	mode, ok := app.modeParam(c)
	if !ok {
		return
	}
	sessionID := app.getOrCreateSession(c)
	snap, err := app.gameSnapshot(c.Request.Context(), sessionID, mode)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, types.ErrorResponse{Error: ErrorGameCreation})
		return
	}
	if wantsJSON(c) {
		c.JSON(http.StatusOK, snap)
		return
	}
	c.HTML(http.StatusOK, "game-content", pageData(mode, snap, nil))
}

// intentHandler returns a handler that applies one kind of intent to the
// session's game for the :mode parameter.
func (app *App) intentHandler(kind engine.IntentKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		mode, ok := app.modeParam(c)
		if !ok {
			return
		}
		intent, ok := bindIntent(c, kind)
		if !ok {
			return
		}
		sessionID := app.getOrCreateSession(c)
		res, err := app.applyIntent(c.Request.Context(), sessionID, mode, intent)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, types.ErrorResponse{Error: ErrorGameCreation})
			return
		}
		app.respond(c, mode, intent, res)
	}
}

// respond answers an intent with JSON, the board fragment for HTMX, or a
// redirect back to the board for plain form posts. Rejections are normal
// game results and keep status 200.
func (app *App) respond(c *gin.Context, mode engine.Mode, intent engine.Intent, res engine.Result) {
	switch {
	case wantsJSON(c):
		c.JSON(http.StatusOK, res)
	case isHTMX(c):
		if res.Outcome.Rejected() {
			setRejectionTrigger(c, intent, res.Outcome)
		}
		c.HTML(http.StatusOK, "game-content", pageData(mode, res.Snapshot, &res))
	default:
		c.Redirect(http.StatusSeeOther, playPath(mode))
	}
}

// modesHandler lists the playable modes.
func (app *App) modesHandler(c *gin.Context) {
	c.JSON(http.StatusOK, types.ModesResponse{
		Default: app.Config.DefaultMode.Name,
		Modes:   engine.Modes(),
	})
}

// healthzHandler returns a JSON health check with server stats.
func (app *App) healthzHandler(c *gin.Context) {
	c.JSON(http.StatusOK, types.HealthResponse{
		Status:         "ok",
		Env:            app.Config.envName(),
		Modes:          lo.Map(engine.Modes(), func(m engine.Mode, _ int) string { return m.Name }),
		ActiveSessions: app.activeSessions(),
		GamesStarted:   app.Stats.Started(),
		GamesWon:       app.Stats.Won(),
		GamesLost:      app.Stats.Lost(),
		Uptime:         formatUptime(time.Since(app.StartTime)),
		Timestamp:      time.Now().UTC().Format(time.RFC3339),
	})
}

// modeParam resolves the :mode path parameter and answers 404 when unknown.
func (app *App) modeParam(c *gin.Context) (engine.Mode, bool) {
	mode, ok := engine.ModeByName(c.Param("mode"))
	if !ok {
		logWarnCtx(c.Request.Context(), "Unknown mode requested: %q", c.Param("mode"))
		c.AbortWithStatusJSON(http.StatusNotFound, types.ErrorResponse{Error: ErrorUnknownMode})
	}
	return mode, ok
}

// bindIntent reads the slot index an intent needs, answering 400 when it is
// missing or malformed. Range checks are left to the engine.
func bindIntent(c *gin.Context, kind engine.IntentKind) (engine.Intent, bool) {
	intent := engine.Intent{Kind: kind}
	switch kind {
	case engine.IntentPlace:
		var req types.IntentRequest
		if err := c.ShouldBind(&req); err != nil {
			logWarnCtx(c.Request.Context(), "Bad place request: %v", err)
			c.AbortWithStatusJSON(http.StatusBadRequest, types.ErrorResponse{Error: ErrorMissingIndex})
			return intent, false
		}
		intent.Index = *req.Index
	case engine.IntentDeleteAt:
		idx, err := strconv.Atoi(c.Param("index"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, types.ErrorResponse{Error: ErrorInvalidIndex})
			return intent, false
		}
		intent.Index = idx
	}
	return intent, true
}

// setRejectionTrigger tells the page which slot or button to shake.
func setRejectionTrigger(c *gin.Context, intent engine.Intent, outcome engine.Outcome) {
	detail := types.RejectionDetail{Intent: intent.Kind, Outcome: outcome}
	if intent.Kind == engine.IntentPlace || intent.Kind == engine.IntentDeleteAt {
		detail.Slot = lo.ToPtr(intent.Index)
	}
	b, err := json.Marshal(types.RejectionTrigger{Rejected: detail})
	if err != nil {
		logWarn("Failed to marshal HX-Trigger payload: %v", err)
		return
	}
	c.Header(headerHXTrigger, string(b))
}

func isHTMX(c *gin.Context) bool {
	return c.GetHeader(headerHXRequest) == "true"
}

func wantsJSON(c *gin.Context) bool {
	if c.ContentType() == gin.MIMEJSON {
		return true
	}
	return c.NegotiateFormat(gin.MIMEHTML, gin.MIMEJSON) == gin.MIMEJSON
}

func playPath(mode engine.Mode) string {
	return RoutePlay + "/" + mode.Name
}

// pageData builds the template data shared by the page and the fragment.
func pageData(mode engine.Mode, snap engine.Snapshot, res *engine.Result) gin.H {
	data := gin.H{
		"title": "Numberline - " + modeTitle(mode),
		"mode":  mode,
		"modes": engine.Modes(),
		"game":  snap,
	}
	if res != nil && res.Outcome.Rejected() {
		data["outcome"] = res.Outcome.String()
	}
	return data
}

func modeTitle(mode engine.Mode) string {
	if mode.Name == "" {
		return ""
	}
	return strings.ToUpper(mode.Name[:1]) + mode.Name[1:]
}

// slotLabel renders a board slot for templates.
func slotLabel(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func isPlaceableSlot(placeable []int, index int) bool {
	return lo.Contains(placeable, index)
}
