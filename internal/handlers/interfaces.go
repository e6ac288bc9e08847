package handlers

import (
	"context"
	"io"

	"github.com/vidtube/backend/internal/auth"
	"github.com/vidtube/backend/internal/media"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/repositories"
)

// UserStore captures the persistence operations required by the user handlers.
type UserStore interface {
	Create(ctx context.Context, user models.User) error
	FindByID(ctx context.Context, id string) (models.User, error)
	FindByLogin(ctx context.Context, login string) (models.User, error)
	UpdateProfile(ctx context.Context, id, fullName, email string) (models.User, error)
	UpdateImage(ctx context.Context, id, column, url string) (models.User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	AppendWatchHistory(ctx context.Context, userID, videoID string) error
	ListWatchHistory(ctx context.Context, userID string) ([]models.WatchEntry, error)
}

// TokenService issues, rotates, and revokes access/refresh token pairs.
type TokenService interface {
	Issue(ctx context.Context, userID, username string) (models.TokenPair, error)
	Rotate(ctx context.Context, userID, username, presented string) (models.TokenPair, error)
	Revoke(ctx context.Context, userID string) error
	ParseRefresh(token string) (auth.RefreshClaims, error)
}

// VideoStore captures persistence for video workflows.
type VideoStore interface {
	Create(ctx context.Context, video models.Video) error
	FindByID(ctx context.Context, id string) (models.Video, error)
	ListByOwner(ctx context.Context, ownerID string, page repositories.Page) ([]models.Video, error)
	UpdateDetails(ctx context.Context, id, title, description string) (models.Video, error)
	UpdateThumbnail(ctx context.Context, id, thumbnail string) (models.Video, error)
	Delete(ctx context.Context, id string) error
	IncrementViews(ctx context.Context, id string) error
	TogglePublished(ctx context.Context, id string) (bool, error)
}

// CommentStore captures persistence for comment workflows.
type CommentStore interface {
	Create(ctx context.Context, comment models.Comment) error
	FindByID(ctx context.Context, id string) (models.Comment, error)
	UpdateContent(ctx context.Context, id, content string) (models.Comment, error)
	Delete(ctx context.Context, id string) error
	ListByVideo(ctx context.Context, videoID string, page repositories.Page) ([]models.CommentWithAuthor, error)
}

// LikeStore flips and reads like relations.
type LikeStore interface {
	ToggleVideo(ctx context.Context, userID, videoID string) (bool, error)
	ToggleComment(ctx context.Context, userID, commentID string) (bool, error)
	ListLikedVideos(ctx context.Context, userID string) ([]models.LikedVideo, error)
}

// SubscriptionStore flips and reads subscription relations.
type SubscriptionStore interface {
	Toggle(ctx context.Context, subscriberID, channelID string) (bool, error)
	ListSubscribers(ctx context.Context, channelID string) ([]models.PublicUser, error)
	ListSubscribed(ctx context.Context, subscriberID string) ([]models.PublicUser, error)
}

// PlaylistStore captures persistence for playlist workflows.
type PlaylistStore interface {
	Create(ctx context.Context, playlist models.Playlist) error
	FindByID(ctx context.Context, id string) (models.PlaylistWithVideos, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.Playlist, error)
	Update(ctx context.Context, id, name, description string) (models.Playlist, error)
	Delete(ctx context.Context, id string) error
	AddVideo(ctx context.Context, playlistID, videoID string) error
	RemoveVideo(ctx context.Context, playlistID, videoID string) error
}

// DashboardStore serves channel aggregates.
type DashboardStore interface {
	ChannelStats(ctx context.Context, channelID string) (models.ChannelStats, error)
}

// AssetStorage persists uploaded files and removes superseded ones.
type AssetStorage interface {
	Save(ctx context.Context, name string, r io.Reader) (string, error)
	Delete(ctx context.Context, location string) error
}

// VideoIngestor schedules background persistence of published video files.
type VideoIngestor interface {
	Enqueue(ctx context.Context, job media.IngestJob) error
}

var (
	_ UserStore         = (*repositories.PostgresUserRepository)(nil)
	_ VideoStore        = (*repositories.PostgresVideoRepository)(nil)
	_ CommentStore      = (*repositories.PostgresCommentRepository)(nil)
	_ LikeStore         = (*repositories.PostgresLikeRepository)(nil)
	_ SubscriptionStore = (*repositories.PostgresSubscriptionRepository)(nil)
	_ PlaylistStore     = (*repositories.PostgresPlaylistRepository)(nil)
	_ DashboardStore    = (*repositories.PostgresDashboardRepository)(nil)
)
