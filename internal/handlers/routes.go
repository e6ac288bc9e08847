package handlers

import (
	"net/http"
	"time"

	"github.com/vidtube/backend/internal/middleware"
)

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Users         UserStore
	Tokens        TokenService
	Videos        VideoStore
	Comments      CommentStore
	Likes         LikeStore
	Subscriptions SubscriptionStore
	Playlists     PlaylistStore
	Dashboard     DashboardStore
	Storage       AssetStorage
	Ingestor      VideoIngestor
	Auth          middleware.Auth
	Limiter       RateLimiter
	BcryptCost    int
	UploadTempDir string
	NowFunc       func() time.Time
}

// RegisterRoutes wires HTTP handlers into the provided ServeMux.
func RegisterRoutes(mux *http.ServeMux, deps Dependencies) {
	health := HealthHandler{}
	users := UserHandler{
		Users:      deps.Users,
		Tokens:     deps.Tokens,
		Storage:    deps.Storage,
		Limiter:    deps.Limiter,
		BcryptCost: deps.BcryptCost,
		NowFunc:    deps.NowFunc,
	}
	videos := VideoHandler{
		Videos:   deps.Videos,
		Users:    deps.Users,
		Storage:  deps.Storage,
		Ingestor: deps.Ingestor,
		TempDir:  deps.UploadTempDir,
		NowFunc:  deps.NowFunc,
	}
	comments := CommentHandler{Comments: deps.Comments, NowFunc: deps.NowFunc}
	likes := LikeHandler{Likes: deps.Likes}
	subscriptions := SubscriptionHandler{Subscriptions: deps.Subscriptions}
	playlists := PlaylistHandler{Playlists: deps.Playlists, NowFunc: deps.NowFunc}
	dashboard := DashboardHandler{Stats: deps.Dashboard}

	authed := deps.Auth.Require

	mux.HandleFunc("GET /healthz", health.Handle)

	mux.HandleFunc("POST /api/v1/users/register", users.Register)
	mux.HandleFunc("POST /api/v1/users/login", users.Login)
	mux.HandleFunc("POST /api/v1/users/refresh-token", users.Refresh)
	mux.Handle("POST /api/v1/users/logout", authed(http.HandlerFunc(users.Logout)))
	mux.Handle("POST /api/v1/users/change-password", authed(http.HandlerFunc(users.ChangePassword)))
	mux.Handle("GET /api/v1/users/current-user", authed(http.HandlerFunc(users.CurrentUser)))
	mux.Handle("PATCH /api/v1/users/update-account", authed(http.HandlerFunc(users.UpdateAccount)))
	mux.Handle("PATCH /api/v1/users/avatar", authed(http.HandlerFunc(users.UpdateAvatar)))
	mux.Handle("PATCH /api/v1/users/cover-image", authed(http.HandlerFunc(users.UpdateCoverImage)))
	mux.Handle("GET /api/v1/users/history", authed(http.HandlerFunc(users.WatchHistory)))

	mux.Handle("POST /api/v1/videos", authed(http.HandlerFunc(videos.Publish)))
	mux.Handle("GET /api/v1/videos", authed(http.HandlerFunc(videos.List)))
	mux.Handle("GET /api/v1/videos/{videoId}", authed(http.HandlerFunc(videos.Get)))
	mux.Handle("PATCH /api/v1/videos/{videoId}", authed(http.HandlerFunc(videos.Update)))
	mux.Handle("PATCH /api/v1/videos/{videoId}/thumbnail", authed(http.HandlerFunc(videos.UpdateThumbnail)))
	mux.Handle("DELETE /api/v1/videos/{videoId}", authed(http.HandlerFunc(videos.Delete)))
	mux.Handle("PATCH /api/v1/videos/{videoId}/toggle-publish", authed(http.HandlerFunc(videos.TogglePublish)))

	mux.Handle("GET /api/v1/comments/{videoId}", authed(http.HandlerFunc(comments.List)))
	mux.Handle("POST /api/v1/comments/{videoId}", authed(http.HandlerFunc(comments.Create)))
	mux.Handle("PATCH /api/v1/comments/c/{commentId}", authed(http.HandlerFunc(comments.Update)))
	mux.Handle("DELETE /api/v1/comments/c/{commentId}", authed(http.HandlerFunc(comments.Delete)))

	mux.Handle("POST /api/v1/likes/toggle/v/{videoId}", authed(http.HandlerFunc(likes.ToggleVideo)))
	mux.Handle("POST /api/v1/likes/toggle/c/{commentId}", authed(http.HandlerFunc(likes.ToggleComment)))
	mux.Handle("GET /api/v1/likes/videos", authed(http.HandlerFunc(likes.ListVideos)))

	mux.Handle("POST /api/v1/subscriptions/c/{channelId}", authed(http.HandlerFunc(subscriptions.Toggle)))
	mux.Handle("GET /api/v1/subscriptions/c/{channelId}", authed(http.HandlerFunc(subscriptions.ListSubscribers)))
	mux.Handle("GET /api/v1/subscriptions", authed(http.HandlerFunc(subscriptions.ListSubscribed)))

	mux.Handle("POST /api/v1/playlists", authed(http.HandlerFunc(playlists.Create)))
	mux.Handle("GET /api/v1/playlists", authed(http.HandlerFunc(playlists.List)))
	mux.Handle("GET /api/v1/playlists/{playlistId}", authed(http.HandlerFunc(playlists.Get)))
	mux.Handle("PATCH /api/v1/playlists/{playlistId}", authed(http.HandlerFunc(playlists.Update)))
	mux.Handle("DELETE /api/v1/playlists/{playlistId}", authed(http.HandlerFunc(playlists.Delete)))
	mux.Handle("POST /api/v1/playlists/{playlistId}/videos/{videoId}", authed(http.HandlerFunc(playlists.AddVideo)))
	mux.Handle("DELETE /api/v1/playlists/{playlistId}/videos/{videoId}", authed(http.HandlerFunc(playlists.RemoveVideo)))

	mux.Handle("GET /api/v1/dashboard/stats", authed(http.HandlerFunc(dashboard.ChannelStats)))
}
