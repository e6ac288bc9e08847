package handlers

import (
	"net/http"

	"github.com/vidtube/backend/internal/models"
)

// LikeHandler implements like toggle endpoints. A toggle resolves to a single
// conditional write in the store; the response reports the resulting state.
type LikeHandler struct {
	Likes LikeStore
}

// ToggleVideo handles POST /api/v1/likes/toggle/v/{videoId}.
func (h LikeHandler) ToggleVideo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

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

	active, err := h.Likes.ToggleVideo(ctx, user.ID, videoID)
	if err != nil {
		respondError(ctx, w, storeError(err, "video not found", ""))
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]bool{"liked": active}, "video like toggled")
}

// ToggleComment handles POST /api/v1/likes/toggle/c/{commentId}.
func (h LikeHandler) ToggleComment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, err := requireUser(ctx)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	commentID, err := parseID(r.PathValue("commentId"), "comment id")
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	active, err := h.Likes.ToggleComment(ctx, user.ID, commentID)
	if err != nil {
		respondError(ctx, w, storeError(err, "comment not found", ""))
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]bool{"liked": active}, "comment like toggled")
}

// ListVideos handles GET /api/v1/likes/videos.
func (h LikeHandler) ListVideos(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, err := requireUser(ctx)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	liked, err := h.Likes.ListLikedVideos(ctx, user.ID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	if liked == nil {
		liked = []models.LikedVideo{}
	}

	respondJSON(ctx, w, http.StatusOK, liked, "liked videos fetched")
}
