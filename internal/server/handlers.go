package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jaki95/music-radar/internal/app"
	"github.com/jaki95/music-radar/internal/catalog"
	"github.com/jaki95/music-radar/internal/domain"
	"github.com/jaki95/music-radar/internal/playlists"
	"github.com/jaki95/music-radar/internal/session"
)

// CredentialsRequest carries a sign-in or sign-up form.
type CredentialsRequest struct {
	Email       string `json:"email" binding:"required"`
	Password    string `json:"password" binding:"required"`
	DisplayName string `json:"displayName,omitempty"`
}

// writeError maps component errors onto HTTP statuses. Anything
// unrecognised is treated as a failed backend call.
func writeError(c *gin.Context, err error) {
	status := http.StatusBadGateway
	switch {
	case errors.Is(err, session.ErrBadCredentials):
		status = http.StatusUnauthorized
	case errors.Is(err, catalog.ErrEmptyQuery),
		errors.Is(err, playlists.ErrEmptyTitle),
		errors.Is(err, domain.ErrNoPlayableID):
		status = http.StatusBadRequest
	case errors.Is(err, playlists.ErrNotSynced):
		status = http.StatusConflict
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func (s *Server) signIn(c *gin.Context) {
	var req CredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": fmt.Sprintf("invalid request: %v", err)})
		return
	}

	if err := s.app.SignIn(c.Request.Context(), req.Email, req.Password); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(200, gin.H{"username": s.app.Session.Username()})
}

func (s *Server) signUp(c *gin.Context) {
	var req CredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": fmt.Sprintf("invalid request: %v", err)})
		return
	}

	if err := s.app.SignUp(c.Request.Context(), req.Email, req.Password, req.DisplayName); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(201, gin.H{"username": s.app.Session.Username()})
}

func (s *Server) logout(c *gin.Context) {
	s.app.Logout()
	c.JSON(200, gin.H{"message": "logged out"})
}

// getState returns the full client snapshot in one response, for view
// layers that hydrate on connect instead of issuing per-panel GETs.
func (s *Server) getState(c *gin.Context) {
	c.JSON(200, gin.H{
		"tab":       s.app.ActiveTab(),
		"modal":     s.app.ActiveModal(),
		"loggedIn":  s.app.Session.LoggedIn(),
		"username":  s.app.Session.Username(),
		"charts":    s.app.Charts(),
		"nearby":    s.app.Presence.Nearby(),
		"playback":  s.app.Playback.Snapshot(),
		"playlists": s.app.Playlists.Playlists(),
		"favorites": s.app.Social.Favorites(),
	})
}

func (s *Server) getCharts(c *gin.Context) {
	c.JSON(200, s.app.Charts())
}

func (s *Server) search(c *gin.Context) {
	tracks, err := s.app.Catalog.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(200, tracks)
}

func (s *Server) getNearby(c *gin.Context) {
	c.JSON(200, s.app.Presence.Nearby())
}

func (s *Server) play(c *gin.Context) {
	var req struct {
		Track  domain.RawTrack `json:"track" binding:"required"`
		Expand bool            `json:"expand"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": fmt.Sprintf("invalid request: %v", err)})
		return
	}

	if err := s.app.Playback.Play(req.Track, req.Expand); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(200, s.app.Playback.Snapshot())
}

func (s *Server) pause(c *gin.Context) {
	s.app.Playback.Pause()
	c.JSON(200, s.app.Playback.Snapshot())
}

func (s *Server) resume(c *gin.Context) {
	s.app.Playback.Resume()
	c.JSON(200, s.app.Playback.Snapshot())
}

func (s *Server) seek(c *gin.Context) {
	var req struct {
		Seconds float64 `json:"seconds"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": fmt.Sprintf("invalid request: %v", err)})
		return
	}
	s.app.Playback.Seek(req.Seconds)
	c.JSON(200, s.app.Playback.Snapshot())
}

func (s *Server) skip(c *gin.Context) {
	var req struct {
		Delta float64 `json:"delta"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": fmt.Sprintf("invalid request: %v", err)})
		return
	}
	s.app.Playback.Skip(req.Delta)
	c.JSON(200, s.app.Playback.Snapshot())
}

func (s *Server) setExpanded(c *gin.Context) {
	var req struct {
		Expanded bool `json:"expanded"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": fmt.Sprintf("invalid request: %v", err)})
		return
	}
	s.app.Playback.SetExpanded(req.Expanded)
	c.JSON(200, s.app.Playback.Snapshot())
}

func (s *Server) listPlaylists(c *gin.Context) {
	c.JSON(200, s.app.Playlists.Playlists())
}

func (s *Server) createPlaylist(c *gin.Context) {
	var req struct {
		Title string `json:"title"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": fmt.Sprintf("invalid request: %v", err)})
		return
	}

	created, err := s.app.Playlists.Create(c.Request.Context(), req.Title)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(201, created)
}

func (s *Server) openPlaylist(c *gin.Context) {
	id := c.Param("id")

	var target *domain.Playlist
	for _, p := range s.app.Playlists.Playlists() {
		if p.ID == id {
			target = &p
			break
		}
	}
	if target == nil {
		c.JSON(404, gin.H{"error": fmt.Sprintf("playlist not found: %s", id)})
		return
	}

	detail, err := s.app.Playlists.Open(c.Request.Context(), *target)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(200, detail)
}

func (s *Server) addPlaylistTrack(c *gin.Context) {
	var raw domain.RawTrack
	if err := c.ShouldBindJSON(&raw); err != nil {
		c.JSON(400, gin.H{"error": fmt.Sprintf("invalid request: %v", err)})
		return
	}

	track, err := raw.Normalize()
	if err != nil {
		writeError(c, err)
		return
	}

	if err := s.app.Playlists.AddTrack(c.Request.Context(), c.Param("id"), track); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(200, gin.H{"message": "track added"})
}

func (s *Server) removePlaylistTrack(c *gin.Context) {
	if err := s.app.Playlists.RemoveTrack(c.Request.Context(), c.Param("id"), c.Param("videoId")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(200, gin.H{"message": "track removed"})
}

func (s *Server) deletePlaylist(c *gin.Context) {
	if err := s.app.Playlists.Delete(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(200, gin.H{"message": "playlist deleted"})
}

func (s *Server) openProfile(c *gin.Context) {
	var rec domain.SharedTrack
	if err := c.ShouldBindJSON(&rec); err != nil {
		c.JSON(400, gin.H{"error": fmt.Sprintf("invalid request: %v", err)})
		return
	}
	if rec.SharedBy == "" {
		c.JSON(400, gin.H{"error": "sharedBy is required"})
		return
	}

	// Augmentation outlives this request, so it runs on the app context.
	s.app.OpenProfile(rec)
	c.JSON(200, s.app.Social.Profile())
}

func (s *Server) closeProfile(c *gin.Context) {
	s.app.Social.CloseProfile()
	s.app.CloseModal()
	c.JSON(200, gin.H{"message": "profile closed"})
}

func (s *Server) getProfile(c *gin.Context) {
	profile := s.app.Social.Profile()
	if profile == nil {
		c.JSON(404, gin.H{"error": "no profile open"})
		return
	}
	c.JSON(200, profile)
}

func (s *Server) toggleFollow(c *gin.Context) {
	var req struct {
		User string `json:"user" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": fmt.Sprintf("invalid request: %v", err)})
		return
	}

	following := s.app.Social.ToggleFollow(req.User)
	c.JSON(200, gin.H{"user": req.User, "following": following})
}

func (s *Server) getFavorites(c *gin.Context) {
	c.JSON(200, s.app.Social.Favorites())
}

func (s *Server) getTranscript(c *gin.Context) {
	c.JSON(200, s.app.Social.Transcript(c.Param("user")))
}

func (s *Server) sendMessage(c *gin.Context) {
	var req struct {
		Text string `json:"text" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": fmt.Sprintf("invalid request: %v", err)})
		return
	}

	msg := s.app.Social.SendMessage(c.Param("user"), req.Text)
	c.JSON(201, msg)
}

func (s *Server) setTab(c *gin.Context) {
	var req struct {
		Tab string `json:"tab" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": fmt.Sprintf("invalid request: %v", err)})
		return
	}

	s.app.SetTab(app.Tab(req.Tab))
	c.JSON(200, gin.H{"tab": s.app.ActiveTab()})
}

func (s *Server) setModal(c *gin.Context) {
	var req struct {
		Modal string `json:"modal" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": fmt.Sprintf("invalid request: %v", err)})
		return
	}

	s.app.OpenModal(app.Modal(req.Modal))
	c.JSON(200, gin.H{"modal": s.app.ActiveModal()})
}

func (s *Server) closeModal(c *gin.Context) {
	s.app.CloseModal()
	c.JSON(200, gin.H{"modal": s.app.ActiveModal()})
}
