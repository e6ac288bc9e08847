package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vidtube/backend/internal/apperr"
	"github.com/vidtube/backend/internal/models"
)

// PlaylistHandler implements playlist endpoints.
type PlaylistHandler struct {
	Playlists PlaylistStore
	NowFunc   func() time.Time
}

func (h PlaylistHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}

// Create handles POST /api/v1/playlists.
func (h PlaylistHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, err := requireUser(ctx)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(ctx, w, apperr.Wrap(apperr.Validation, "invalid request body", err))
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		respondError(ctx, w, apperr.New(apperr.Validation, "name is required"))
		return
	}

	now := h.now()
	playlist := models.Playlist{
		ID:          uuid.NewString(),
		OwnerID:     user.ID,
		Name:        req.Name,
		Description: strings.TrimSpace(req.Description),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := h.Playlists.Create(ctx, playlist); err != nil {
		respondError(ctx, w, storeError(err, "owner not found", "playlist already exists"))
		return
	}

	respondJSON(ctx, w, http.StatusCreated, playlist, "playlist created")
}

// Get handles GET /api/v1/playlists/{playlistId}.
func (h PlaylistHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	playlistID, err := parseID(r.PathValue("playlistId"), "playlist id")
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	playlist, err := h.Playlists.FindByID(ctx, playlistID)
	if err != nil {
		respondError(ctx, w, storeError(err, "playlist not found", ""))
		return
	}
	if playlist.Videos == nil {
		playlist.Videos = []models.VideoSummary{}
	}

	respondJSON(ctx, w, http.StatusOK, playlist, "playlist fetched")
}

// List handles GET /api/v1/playlists.
func (h PlaylistHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, err := requireUser(ctx)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	playlists, err := h.Playlists.ListByOwner(ctx, user.ID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	if playlists == nil {
		playlists = []models.Playlist{}
	}

	respondJSON(ctx, w, http.StatusOK, playlists, "playlists fetched")
}

// Update handles PATCH /api/v1/playlists/{playlistId}.
func (h PlaylistHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	playlist, err := h.ownedPlaylist(r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(ctx, w, apperr.Wrap(apperr.Validation, "invalid request body", err))
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		respondError(ctx, w, apperr.New(apperr.Validation, "name is required"))
		return
	}

	updated, err := h.Playlists.Update(ctx, playlist.ID, req.Name, strings.TrimSpace(req.Description))
	if err != nil {
		respondError(ctx, w, storeError(err, "playlist not found", ""))
		return
	}

	respondJSON(ctx, w, http.StatusOK, updated, "playlist updated")
}

// Delete handles DELETE /api/v1/playlists/{playlistId}.
func (h PlaylistHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	playlist, err := h.ownedPlaylist(r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	if err := h.Playlists.Delete(ctx, playlist.ID); err != nil {
		respondError(ctx, w, storeError(err, "playlist not found", ""))
		return
	}

	respondJSON(ctx, w, http.StatusOK, struct{}{}, "playlist deleted")
}

// AddVideo handles POST /api/v1/playlists/{playlistId}/videos/{videoId}.
func (h PlaylistHandler) AddVideo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	playlist, videoID, err := h.ownedPlaylistAndVideo(r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	if err := h.Playlists.AddVideo(ctx, playlist.ID, videoID); err != nil {
		respondError(ctx, w, storeError(err, "playlist or video not found", "video already in playlist"))
		return
	}

	respondJSON(ctx, w, http.StatusOK, struct{}{}, "video added to playlist")
}

// RemoveVideo handles DELETE /api/v1/playlists/{playlistId}/videos/{videoId}.
func (h PlaylistHandler) RemoveVideo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	playlist, videoID, err := h.ownedPlaylistAndVideo(r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	if err := h.Playlists.RemoveVideo(ctx, playlist.ID, videoID); err != nil {
		respondError(ctx, w, storeError(err, "video not in playlist", ""))
		return
	}

	respondJSON(ctx, w, http.StatusOK, struct{}{}, "video removed from playlist")
}

func (h PlaylistHandler) ownedPlaylist(r *http.Request) (models.PlaylistWithVideos, error) {
	ctx := r.Context()

	user, err := requireUser(ctx)
	if err != nil {
		return models.PlaylistWithVideos{}, err
	}

	playlistID, err := parseID(r.PathValue("playlistId"), "playlist id")
	if err != nil {
		return models.PlaylistWithVideos{}, err
	}

	playlist, err := h.Playlists.FindByID(ctx, playlistID)
	if err != nil {
		return models.PlaylistWithVideos{}, storeError(err, "playlist not found", "")
	}

	if playlist.OwnerID != user.ID {
		return models.PlaylistWithVideos{}, apperr.New(apperr.Auth, "only the owner may modify this playlist")
	}

	return playlist, nil
}

func (h PlaylistHandler) ownedPlaylistAndVideo(r *http.Request) (models.PlaylistWithVideos, string, error) {
	playlist, err := h.ownedPlaylist(r)
	if err != nil {
		return models.PlaylistWithVideos{}, "", err
	}

	videoID, err := parseID(r.PathValue("videoId"), "video id")
	if err != nil {
		return models.PlaylistWithVideos{}, "", err
	}

	return playlist, videoID, nil
}
