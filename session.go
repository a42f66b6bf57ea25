package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

// getOrCreateSession retrieves the session ID from the cookie or creates a new one.
func (app *App) getOrCreateSession(c *gin.Context) string {
	sessionID, err := c.Cookie(SessionCookieName)
	if err != nil || len(sessionID) < minSessionIDLen {
		sessionID = uuid.NewString()
		c.SetSameSite(http.SameSiteStrictMode)
		c.SetCookie(SessionCookieName, sessionID, int(app.Config.CookieMaxAge.Seconds()), "/", "", app.Config.IsProduction, true)
		logInfoCtx(c.Request.Context(), "Created new session: %s", sessionID)
	}
	return sessionID
}

// sessionLocked returns the session for sessionID, creating it if needed.
// The caller must hold SessionMutex for writing.
func (app *App) sessionLocked(sessionID string) *Session {
	sess, ok := app.GameSessions[sessionID]
	if !ok {
		sess = newSession()
		app.GameSessions[sessionID] = sess
	}
	sess.LastAccessTime = time.Now()
	return sess
}

// activeSessions returns how many sessions are held in memory.
func (app *App) activeSessions() int {
	app.SessionMutex.RLock()
	defer app.SessionMutex.RUnlock()
	return len(app.GameSessions)
}

// cleanupExpiredSessions drops sessions idle for longer than maxAge and
// returns how many were removed.
func (app *App) cleanupExpiredSessions(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)

	app.SessionMutex.Lock()
	expired := lo.Keys(lo.PickBy(app.GameSessions, func(_ string, sess *Session) bool {
		return sess.LastAccessTime.Before(cutoff)
	}))
	for _, id := range expired {
		delete(app.GameSessions, id)
	}
	remaining := len(app.GameSessions)
	app.SessionMutex.Unlock()

	if len(expired) > 0 {
		logInfo("Session cleanup completed: removed %d idle sessions, %d remaining", len(expired), remaining)
	}
	return len(expired)
}

// runSessionJanitor evicts idle sessions every interval until ctx is done.
func (app *App) runSessionJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			app.cleanupExpiredSessions(app.Config.SessionTimeout)
			app.pruneLimiters()
		}
	}
}
