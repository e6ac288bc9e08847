package handlers

import "net/http"

// DashboardHandler serves channel statistics for the authenticated user.
type DashboardHandler struct {
	Stats DashboardStore
}

// ChannelStats handles GET /api/v1/dashboard/stats.
func (h DashboardHandler) ChannelStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, err := requireUser(ctx)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	stats, err := h.Stats.ChannelStats(ctx, user.ID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, stats, "channel stats fetched")
}
