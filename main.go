package main

import (
	"context"
	"errors"
	"html/template"
	"net/http"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	ginGzip "github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	cachecontrol "go.eigsys.de/gin-cachecontrol/v2"
	"golang.org/x/time/rate"

	"numberline/internal/engine"
)

// App holds the server state shared by all handlers.
type App struct {
	Config       Config
	GameSessions map[string]*Session
	SessionMutex sync.RWMutex
	LimiterMap   map[string]*rate.Limiter
	LimiterMutex sync.Mutex
	Stats        *GameStats
	StartTime    time.Time
	// NewSource supplies the random source for each new game.
	NewSource func() engine.Source
}

func newApp(cfg Config) *App {
	return &App{
		Config:       cfg,
		GameSessions: make(map[string]*Session),
		LimiterMap:   make(map[string]*rate.Limiter),
		Stats:        &GameStats{},
		StartTime:    time.Now(),
		NewSource:    func() engine.Source { return cryptoSource{} },
	}
}

func main() {
	cfg := loadConfig()
	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}
	logInfo("Starting Numberline in %s mode (default game: %s)", cfg.envName(), cfg.DefaultMode.Name)

	app := newApp(cfg)

	templateGlob, staticDir := "templates/*.html", "./static"
	if cfg.IsProduction && dirExists("dist") {
		logInfo("Serving assets from dist/ directory")
		templateGlob, staticDir = "dist/templates/*.html", "./dist/static"
	} else {
		logInfo("Serving development assets from source directories")
	}
	router := app.setupRouter(templateGlob, staticDir)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go app.runSessionJanitor(ctx, cfg.CleanupInterval)
	app.startServer(ctx, router)
}

// setupRouter wires middleware, templates and routes.
func (app *App) setupRouter(templateGlob, staticDir string) *gin.Engine {
	router := gin.Default()
	router.Use(requestIDMiddleware())
	router.Use(ginGzip.Gzip(ginGzip.DefaultCompression,
		ginGzip.WithExcludedExtensions([]string{".svg", ".ico", ".png", ".jpg", ".jpeg", ".gif"})))

	if err := router.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		logWarn("Failed to set trusted proxies: %v", err)
	}

	router.Use(func(c *gin.Context) {
		app.applyCacheHeaders(c)
	})

	router.SetFuncMap(template.FuncMap{
		"slot":      slotLabel,
		"placeable": isPlaceableSlot,
	})
	router.LoadHTMLGlob(templateGlob)
	router.Static("/static", staticDir)

	router.GET(RouteHome, app.homeHandler)
	router.GET(RouteHealthz, app.healthzHandler)
	router.GET("/modes", app.modesHandler)
	router.GET(RoutePlay+"/:mode", app.playHandler)

	games := router.Group(RouteGames + "/:mode")
	games.GET("", app.stateHandler)

	intents := games.Group("", app.rateLimitMiddleware())
	intents.POST("/place", app.intentHandler(engine.IntentPlace))
	intents.POST("/reroll", app.intentHandler(engine.IntentReroll))
	intents.POST("/delete", app.intentHandler(engine.IntentToggleDelete))
	intents.POST("/delete/:index", app.intentHandler(engine.IntentDeleteAt))
	intents.POST("/delete-three", app.intentHandler(engine.IntentDeleteThree))
	intents.POST("/reset", app.intentHandler(engine.IntentReset))

	return router
}

func (app *App) startServer(ctx context.Context, router *gin.Engine) {
	srv := &http.Server{
		Addr:              ":" + app.Config.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	idleConnsClosed := make(chan struct{})
	go func() {
		<-ctx.Done()
		logInfo("Shutdown signal received, shutting down server gracefully...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logWarn("HTTP server Shutdown: %v", err)
		}
		close(idleConnsClosed)
	}()

	logInfo("Server starting on http://localhost:%s", app.Config.Port)
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		logFatal("Server failed to start: %v", err)
	}
	<-idleConnsClosed
	logInfo("Server shutdown complete")
}

// applyCacheHeaders lets browsers cache static assets in production and
// keeps every game response out of caches.
func (app *App) applyCacheHeaders(c *gin.Context) {
	if app.Config.IsProduction && strings.HasPrefix(c.Request.URL.Path, "/static/") {
		cachecontrol.New(cachecontrol.Config{
			Public: true,
			MaxAge: cachecontrol.Duration(app.Config.StaticCacheAge),
		})(c)
		c.Header("Vary", "Accept-Encoding")
		return
	}
	cachecontrol.New(cachecontrol.Config{
		NoStore:        true,
		NoCache:        true,
		MustRevalidate: true,
	})(c)
}
