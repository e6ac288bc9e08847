package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vidtube/backend/internal/apperr"
	"github.com/vidtube/backend/internal/logging"
	"github.com/vidtube/backend/internal/media"
	"github.com/vidtube/backend/internal/models"
)

// VideoHandler implements video publishing and catalog endpoints.
type VideoHandler struct {
	Videos   VideoStore
	Users    UserStore
	Storage  AssetStorage
	Ingestor VideoIngestor
	TempDir  string
	NowFunc  func() time.Time
}

func (h VideoHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}

// Publish handles POST /api/v1/videos. The multipart body carries the title,
// description, a required video file, and a required thumbnail. The video
// file is spilled to a temp file and ingested asynchronously; the row stays
// pending until a worker finishes.
func (h VideoHandler) Publish(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	user, err := requireUser(ctx)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		respondError(ctx, w, apperr.Wrap(apperr.Validation, "invalid multipart body", err))
		return
	}

	title := strings.TrimSpace(r.FormValue("title"))
	description := strings.TrimSpace(r.FormValue("description"))
	if title == "" {
		respondError(ctx, w, apperr.New(apperr.Validation, "title is required"))
		return
	}

	videoFile, videoHeader, err := r.FormFile("videoFile")
	if err != nil {
		respondError(ctx, w, apperr.Wrap(apperr.Validation, "videoFile file is required", err))
		return
	}
	defer videoFile.Close()

	thumbnailURL, err := uploadFormFile(ctx, h.Storage, r, "thumbnail", "thumbnails", true)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	tempDir := h.TempDir
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	temp, err := os.CreateTemp(tempDir, "vidtube-upload-*")
	if err != nil {
		respondError(ctx, w, fmt.Errorf("create temp upload: %w", err))
		return
	}
	if _, err := io.Copy(temp, videoFile); err != nil {
		temp.Close()
		os.Remove(temp.Name())
		respondError(ctx, w, fmt.Errorf("spill upload to disk: %w", err))
		return
	}
	if err := temp.Close(); err != nil {
		os.Remove(temp.Name())
		respondError(ctx, w, fmt.Errorf("close temp upload: %w", err))
		return
	}

	now := h.now()
	video := models.Video{
		ID:          uuid.NewString(),
		OwnerID:     user.ID,
		Title:       title,
		Description: description,
		Thumbnail:   thumbnailURL,
		IsPublished: true,
		AssetStatus: models.AssetStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := h.Videos.Create(ctx, video); err != nil {
		os.Remove(temp.Name())
		respondError(ctx, w, storeError(err, "owner not found", "video already exists"))
		return
	}

	contentName := filepath.Base(videoHeader.Filename)
	if contentName == "." || contentName == string(filepath.Separator) {
		contentName = "video"
	}

	job := media.IngestJob{VideoID: video.ID, LocalPath: temp.Name(), ContentName: contentName}
	if err := h.Ingestor.Enqueue(ctx, job); err != nil {
		logger.Error("enqueue video ingestion", "videoId", video.ID, "error", err)
		os.Remove(temp.Name())
		respondError(ctx, w, fmt.Errorf("schedule video ingestion: %w", err))
		return
	}

	respondJSON(ctx, w, http.StatusCreated, video, "video published, asset processing")
}

// List handles GET /api/v1/videos for the authenticated channel.
func (h VideoHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, err := requireUser(ctx)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	videos, err := h.Videos.ListByOwner(ctx, user.ID, pageFromQuery(r))
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	if videos == nil {
		videos = []models.Video{}
	}

	respondJSON(ctx, w, http.StatusOK, videos, "videos fetched")
}

// Get handles GET /api/v1/videos/{videoId}. Fetching a video bumps the view
// counter and appends the viewer's watch history.
func (h VideoHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	user, err := requireUser(ctx)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	videoID, err := parseID(r.PathValue("videoId"), "video id")
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	if err := h.Videos.IncrementViews(ctx, videoID); err != nil {
		respondError(ctx, w, storeError(err, "video not found", ""))
		return
	}

	video, err := h.Videos.FindByID(ctx, videoID)
	if err != nil {
		respondError(ctx, w, storeError(err, "video not found", ""))
		return
	}

	// History append is best effort; the fetch still succeeds if it fails.
	if err := h.Users.AppendWatchHistory(ctx, user.ID, videoID); err != nil {
		logger.Warn("append watch history", "userId", user.ID, "videoId", videoID, "error", err)
	}

	respondJSON(ctx, w, http.StatusOK, video, "video fetched")
}

// Update handles PATCH /api/v1/videos/{videoId}.
func (h VideoHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	video, err := h.ownedVideo(r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	var req struct {
		Title       string `json:"title"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(ctx, w, apperr.Wrap(apperr.Validation, "invalid request body", err))
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		respondError(ctx, w, apperr.New(apperr.Validation, "title is required"))
		return
	}

	updated, err := h.Videos.UpdateDetails(ctx, video.ID, req.Title, strings.TrimSpace(req.Description))
	if err != nil {
		respondError(ctx, w, storeError(err, "video not found", ""))
		return
	}

	respondJSON(ctx, w, http.StatusOK, updated, "video updated successfully")
}

// UpdateThumbnail handles PATCH /api/v1/videos/{videoId}/thumbnail.
func (h VideoHandler) UpdateThumbnail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	video, err := h.ownedVideo(r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		respondError(ctx, w, apperr.Wrap(apperr.Validation, "invalid multipart body", err))
		return
	}

	location, err := uploadFormFile(ctx, h.Storage, r, "thumbnail", "thumbnails", true)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	updated, err := h.Videos.UpdateThumbnail(ctx, video.ID, location)
	if err != nil {
		respondError(ctx, w, storeError(err, "video not found", ""))
		return
	}

	if video.Thumbnail != "" {
		if err := h.Storage.Delete(ctx, video.Thumbnail); err != nil {
			logger.Warn("delete superseded thumbnail", "videoId", video.ID, "error", err)
		}
	}

	respondJSON(ctx, w, http.StatusOK, updated, "thumbnail updated successfully")
}

// Delete handles DELETE /api/v1/videos/{videoId}. Dependent rows cascade in
// the database; stored assets are removed best effort.
func (h VideoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	video, err := h.ownedVideo(r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	if err := h.Videos.Delete(ctx, video.ID); err != nil {
		respondError(ctx, w, storeError(err, "video not found", ""))
		return
	}

	for _, location := range []string{video.VideoFile, video.Thumbnail} {
		if location == "" {
			continue
		}
		if err := h.Storage.Delete(ctx, location); err != nil {
			logger.Warn("delete video asset", "videoId", video.ID, "location", location, "error", err)
		}
	}

	respondJSON(ctx, w, http.StatusOK, struct{}{}, "video deleted successfully")
}

// TogglePublish handles PATCH /api/v1/videos/{videoId}/toggle-publish.
func (h VideoHandler) TogglePublish(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	video, err := h.ownedVideo(r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	published, err := h.Videos.TogglePublished(ctx, video.ID)
	if err != nil {
		respondError(ctx, w, storeError(err, "video not found", ""))
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]bool{"isPublished": published}, "publish status toggled")
}

// ownedVideo loads the path video and verifies the requester owns it.
func (h VideoHandler) ownedVideo(r *http.Request) (models.Video, error) {
	ctx := r.Context()

	user, err := requireUser(ctx)
	if err != nil {
		return models.Video{}, err
	}

	videoID, err := parseID(r.PathValue("videoId"), "video id")
	if err != nil {
		return models.Video{}, err
	}

	video, err := h.Videos.FindByID(ctx, videoID)
	if err != nil {
		return models.Video{}, storeError(err, "video not found", "")
	}

	if video.OwnerID != user.ID {
		return models.Video{}, apperr.New(apperr.Auth, "only the owner may modify this video")
	}

	return video, nil
}
