// Package server exposes the client engine over a local HTTP API so a
// thin view layer can drive it. State reads are plain GETs; live updates
// (nearby feed, playback clock, chat replies) stream over a websocket.
package server

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jaki95/music-radar/config"
	"github.com/jaki95/music-radar/internal/app"
	"github.com/jaki95/music-radar/internal/domain"
	"github.com/jaki95/music-radar/internal/playback"
)

// Server handles HTTP requests against a running app instance.
type Server struct {
	cfg    *config.Config
	app    *app.App
	router *gin.Engine
	hub    *Hub
}

// New creates a new HTTP server wrapping the given app.
func New(cfg *config.Config, a *app.App) *Server {
	router := gin.Default()

	server := &Server{
		cfg:    cfg,
		app:    a,
		router: router,
		hub:    NewHub(),
	}

	server.setupRoutes()
	server.wireEvents()
	return server
}

// setupRoutes configures the HTTP routes
func (s *Server) setupRoutes() {
	// Add CORS middleware
	s.router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// Health check endpoint
	s.router.GET("/health", s.healthCheck)

	// Websocket event stream
	s.router.GET("/ws", s.hub.Serve)

	// API endpoints
	api := s.router.Group("/api/v1")
	{
		api.POST("/session", s.signIn)
		api.POST("/session/signup", s.signUp)
		api.DELETE("/session", s.logout)

		api.GET("/state", s.getState)
		api.GET("/charts", s.getCharts)
		api.GET("/search", s.search)
		api.GET("/nearby", s.getNearby)

		api.POST("/playback", s.play)
		api.POST("/playback/pause", s.pause)
		api.POST("/playback/resume", s.resume)
		api.POST("/playback/seek", s.seek)
		api.POST("/playback/skip", s.skip)
		api.PUT("/playback/expanded", s.setExpanded)

		api.GET("/playlists", s.listPlaylists)
		api.POST("/playlists", s.createPlaylist)
		api.GET("/playlists/:id", s.openPlaylist)
		api.POST("/playlists/:id/tracks", s.addPlaylistTrack)
		api.DELETE("/playlists/:id/tracks/:videoId", s.removePlaylistTrack)
		api.DELETE("/playlists/:id", s.deletePlaylist)

		api.POST("/profile", s.openProfile)
		api.DELETE("/profile", s.closeProfile)
		api.GET("/profile", s.getProfile)
		api.POST("/follow", s.toggleFollow)
		api.GET("/favorites", s.getFavorites)
		api.GET("/messages/:user", s.getTranscript)
		api.POST("/messages/:user", s.sendMessage)

		api.PUT("/tab", s.setTab)
		api.PUT("/modal", s.setModal)
		api.DELETE("/modal", s.closeModal)
	}
}

// wireEvents forwards component updates to connected websocket clients.
func (s *Server) wireEvents() {
	s.app.Presence.AddListener(func(nearby []domain.SharedTrack) {
		s.hub.Broadcast(Event{Type: "nearby", Payload: nearby})
	})
	s.app.Playback.AddListener(func(state playback.State) {
		s.hub.Broadcast(Event{Type: "playback", Payload: state})
	})
	s.app.Social.AddListener(func(user string, msg domain.ChatMessage) {
		s.hub.Broadcast(Event{Type: "message", Payload: gin.H{"user": user, "message": msg}})
	})
}

// Start starts the HTTP server and the websocket hub.
func (s *Server) Start(port string) error {
	go s.hub.Run()
	slog.Info("starting server", "port", port)
	return s.router.Run(":" + port)
}

// healthCheck handles health check requests
func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(200, gin.H{
		"status":    "healthy",
		"timestamp": time.Now(),
		"service":   "music-radar",
	})
}
