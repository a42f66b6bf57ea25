package main

import (
	"context"
	"fmt"

	"numberline/internal/engine"
)

// newGame starts a game for a session, wired to the server's event observer.
func (app *App) newGame(sessionID string, mode engine.Mode) (*engine.Engine, error) {
	game, err := engine.New(mode, app.NewSource(), engine.WithObserver(app.gameObserver(sessionID, mode)))
	if err != nil {
		return nil, fmt.Errorf("new %s game: %w", mode.Name, err)
	}
	app.Stats.started.Add(1)
	logInfo("New %s game created for session %s (pending: %d)", mode.Name, sessionID, game.Pending())
	return game, nil
}

// gameLocked returns the session's game for mode, creating session and game
// as needed. The caller must hold SessionMutex for writing.
func (app *App) gameLocked(sessionID string, mode engine.Mode) (*engine.Engine, error) {
	sess := app.sessionLocked(sessionID)
	if game, ok := sess.Games[mode.Name]; ok {
		return game, nil
	}
	game, err := app.newGame(sessionID, mode)
	if err != nil {
		return nil, err
	}
	sess.Games[mode.Name] = game
	return game, nil
}

// gameSnapshot returns the current state of the session's game for mode.
func (app *App) gameSnapshot(ctx context.Context, sessionID string, mode engine.Mode) (engine.Snapshot, error) {
	app.SessionMutex.Lock()
	defer app.SessionMutex.Unlock()
	game, err := app.gameLocked(sessionID, mode)
	if err != nil {
		logWarnCtx(ctx, "Failed to load game for session %s: %v", sessionID, err)
		return engine.Snapshot{}, err
	}
	return game.Snapshot(), nil
}

// applyIntent runs one intent against the session's game for mode. Games
// are only touched with SessionMutex held, so each sees one intent at a time.
func (app *App) applyIntent(ctx context.Context, sessionID string, mode engine.Mode, intent engine.Intent) (engine.Result, error) {
	app.SessionMutex.Lock()
	defer app.SessionMutex.Unlock()
	game, err := app.gameLocked(sessionID, mode)
	if err != nil {
		logWarnCtx(ctx, "Failed to load game for session %s: %v", sessionID, err)
		return engine.Result{}, err
	}

	res := game.Apply(intent)
	if res.Outcome.Rejected() {
		logInfoCtx(ctx, "Session %s %s %s rejected: %s", sessionID, mode.Name, describeIntent(intent), res.Outcome)
	} else {
		logInfoCtx(ctx, "Session %s %s %s accepted (pending: %d, status: %s)", sessionID, mode.Name, describeIntent(intent), res.Pending, res.Status)
	}
	return res, nil
}

// gameObserver counts finished games and logs status changes.
func (app *App) gameObserver(sessionID string, mode engine.Mode) engine.Observer {
	return func(ev engine.Event) {
		app.Stats.record(ev)
		if ev.Previous == ev.Status {
			return
		}
		switch ev.Status {
		case engine.StatusWon:
			logInfo("Player won! Session %s filled the %s row", sessionID, mode.Name)
		case engine.StatusLost:
			logInfo("Player lost. Session %s is stuck on the %s row with no power-ups left", sessionID, mode.Name)
		}
	}
}

func describeIntent(intent engine.Intent) string {
	switch intent.Kind {
	case engine.IntentPlace, engine.IntentDeleteAt:
		return fmt.Sprintf("%s(%d)", intent.Kind, intent.Index)
	}
	return string(intent.Kind)
}
