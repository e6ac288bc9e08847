package handlers

import (
	"net/http"

	"github.com/vidtube/backend/internal/apperr"
	"github.com/vidtube/backend/internal/models"
)

// SubscriptionHandler implements channel subscription endpoints.
type SubscriptionHandler struct {
	Subscriptions SubscriptionStore
}

// Toggle handles POST /api/v1/subscriptions/c/{channelId}.
func (h SubscriptionHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, err := requireUser(ctx)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	channelID, err := parseID(r.PathValue("channelId"), "channel id")
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	if channelID == user.ID {
		respondError(ctx, w, apperr.New(apperr.Validation, "you cannot subscribe to your own channel"))
		return
	}

	active, err := h.Subscriptions.Toggle(ctx, user.ID, channelID)
	if err != nil {
		respondError(ctx, w, storeError(err, "channel not found", ""))
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]bool{"subscribed": active}, "subscription toggled")
}

// ListSubscribers handles GET /api/v1/subscriptions/c/{channelId}.
func (h SubscriptionHandler) ListSubscribers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if _, err := requireUser(ctx); err != nil {
		respondError(ctx, w, err)
		return
	}

	channelID, err := parseID(r.PathValue("channelId"), "channel id")
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	subscribers, err := h.Subscriptions.ListSubscribers(ctx, channelID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	if subscribers == nil {
		subscribers = []models.PublicUser{}
	}

	respondJSON(ctx, w, http.StatusOK, subscribers, "subscribers fetched")
}

// ListSubscribed handles GET /api/v1/subscriptions.
func (h SubscriptionHandler) ListSubscribed(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, err := requireUser(ctx)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	channels, err := h.Subscriptions.ListSubscribed(ctx, user.ID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	if channels == nil {
		channels = []models.PublicUser{}
	}

	respondJSON(ctx, w, http.StatusOK, channels, "subscribed channels fetched")
}
