package api

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/eddie-kann/astrokiddo/internal/app"
	"github.com/eddie-kann/astrokiddo/internal/handlers"
	"github.com/eddie-kann/astrokiddo/internal/middleware"
	"github.com/eddie-kann/astrokiddo/internal/services"
)

// Services bundles the wired application services the router exposes.
type Services struct {
	Decks *services.DeckService
	Apod  *services.ApodService
	TTS   *services.TTSAudioService // nil when audio is not configured
}

// NewRouter builds the Gin engine, wires middleware and registers routes.
func NewRouter(db *gorm.DB, cfg *app.Config, svcs Services) (*gin.Engine, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle must be provided")
	}
	if cfg == nil {
		return nil, fmt.Errorf("config must be provided")
	}
	if svcs.Decks == nil {
		return nil, fmt.Errorf("deck service must be provided")
	}
	if svcs.Apod == nil {
		return nil, fmt.Errorf("apod service must be provided")
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.CORS())

	if cfg.Monitoring.Health.Enabled {
		r.GET("/health", handlers.Health(db))
	}
	if cfg.Monitoring.Prometheus.Enabled {
		endpoint := cfg.Monitoring.Prometheus.Endpoint
		if endpoint == "" {
			endpoint = "/metrics"
		}
		r.GET(endpoint, gin.WrapH(promhttp.Handler()))
	}

	deckHandler := handlers.NewDeckHandler(svcs.Decks)
	apodHandler := handlers.NewApodHandler(svcs.Apod)
	ttsHandler := handlers.NewTTSHandler(svcs.TTS)

	api := r.Group("/api")

	decks := api.Group("/decks")
	{
		decks.POST("/generate", deckHandler.Generate)
		decks.GET("", deckHandler.List)
		decks.GET("/:id", deckHandler.Get)
	}

	apod := api.Group("/apod")
	{
		apod.GET("", apodHandler.Get)
		apod.GET("/history", apodHandler.History)
	}

	api.POST("/tts/slide/:slideId", ttsHandler.SlideAudio)

	r.NoRoute(middleware.NotFoundHandler)

	return r, nil
}
