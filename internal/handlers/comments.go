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

// CommentHandler implements comment endpoints.
type CommentHandler struct {
	Comments CommentStore
	NowFunc  func() time.Time
}

func (h CommentHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}

// List handles GET /api/v1/comments/{videoId}.
func (h CommentHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	videoID, err := parseID(r.PathValue("videoId"), "video id")
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	comments, err := h.Comments.ListByVideo(ctx, videoID, pageFromQuery(r))
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	if comments == nil {
		comments = []models.CommentWithAuthor{}
	}

	respondJSON(ctx, w, http.StatusOK, comments, "comments fetched")
}

// Create handles POST /api/v1/comments/{videoId}.
func (h CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
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

	var req struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(ctx, w, apperr.Wrap(apperr.Validation, "invalid request body", err))
		return
	}

	req.Content = strings.TrimSpace(req.Content)
	if req.Content == "" {
		respondError(ctx, w, apperr.New(apperr.Validation, "content is required"))
		return
	}

	now := h.now()
	comment := models.Comment{
		ID:        uuid.NewString(),
		VideoID:   videoID,
		OwnerID:   user.ID,
		Content:   req.Content,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := h.Comments.Create(ctx, comment); err != nil {
		respondError(ctx, w, storeError(err, "video not found", "comment already exists"))
		return
	}

	respondJSON(ctx, w, http.StatusCreated, comment, "comment added")
}

// Update handles PATCH /api/v1/comments/c/{commentId}.
func (h CommentHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	comment, err := h.ownedComment(r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	var req struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(ctx, w, apperr.Wrap(apperr.Validation, "invalid request body", err))
		return
	}

	req.Content = strings.TrimSpace(req.Content)
	if req.Content == "" {
		respondError(ctx, w, apperr.New(apperr.Validation, "content is required"))
		return
	}

	updated, err := h.Comments.UpdateContent(ctx, comment.ID, req.Content)
	if err != nil {
		respondError(ctx, w, storeError(err, "comment not found", ""))
		return
	}

	respondJSON(ctx, w, http.StatusOK, updated, "comment updated")
}

// Delete handles DELETE /api/v1/comments/c/{commentId}.
func (h CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	comment, err := h.ownedComment(r)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	if err := h.Comments.Delete(ctx, comment.ID); err != nil {
		respondError(ctx, w, storeError(err, "comment not found", ""))
		return
	}

	respondJSON(ctx, w, http.StatusOK, struct{}{}, "comment deleted")
}

func (h CommentHandler) ownedComment(r *http.Request) (models.Comment, error) {
	ctx := r.Context()

	user, err := requireUser(ctx)
	if err != nil {
		return models.Comment{}, err
	}

	commentID, err := parseID(r.PathValue("commentId"), "comment id")
	if err != nil {
		return models.Comment{}, err
	}

	comment, err := h.Comments.FindByID(ctx, commentID)
	if err != nil {
		return models.Comment{}, storeError(err, "comment not found", "")
	}

	if comment.OwnerID != user.ID {
		return models.Comment{}, apperr.New(apperr.Auth, "only the owner may modify this comment")
	}

	return comment, nil
}
