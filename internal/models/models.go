package models

import "time"

// User represents an account within the VidTube platform. Password holds the
// bcrypt hash, never a plaintext value. RefreshToken is the single currently
// valid refresh token for the account, empty when no session is active.
type User struct {
	ID           string
	Username     string
	Email        string
	FullName     string
	Password     string
	Avatar       string
	CoverImage   string
	RefreshToken string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Public returns the user with credential material stripped, suitable for
// response payloads and request contexts.
func (u User) Public() PublicUser {
	return PublicUser{
		ID:         u.ID,
		Username:   u.Username,
		Email:      u.Email,
		FullName:   u.FullName,
		Avatar:     u.Avatar,
		CoverImage: u.CoverImage,
		CreatedAt:  u.CreatedAt,
	}
}

// PublicUser is the externally visible projection of a user record.
type PublicUser struct {
	ID         string    `json:"id"`
	Username   string    `json:"username"`
	Email      string    `json:"email,omitempty"`
	FullName   string    `json:"fullName"`
	Avatar     string    `json:"avatar"`
	CoverImage string    `json:"coverImage,omitempty"`
	CreatedAt  time.Time `json:"createdAt,omitempty"`
}

// Video is an uploaded video owned by a channel (user).
type Video struct {
	ID           string  `json:"id"`
	OwnerID      string  `json:"ownerId"`
	Title        string  `json:"title"`
	Description  string  `json:"description"`
	VideoFile    string  `json:"videoFile"`
	Thumbnail    string  `json:"thumbnail"`
	DurationSecs float64 `json:"duration"`
	Views        int64   `json:"views"`
	IsPublished  bool    `json:"isPublished"`
	AssetStatus  string  `json:"assetStatus"`
	AssetSize    int64   `json:"assetSize,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

const (
	AssetStatusPending = "pending"
	AssetStatusReady   = "ready"
	AssetStatusFailed  = "failed"
)

// VideoSummary is the minimal projection used in joins: liked videos,
// playlist contents, and watch history.
type VideoSummary struct {
	ID           string  `json:"id"`
	Title        string  `json:"title"`
	Thumbnail    string  `json:"thumbnail"`
	VideoFile    string  `json:"videoFile"`
	DurationSecs float64 `json:"duration"`
	Views        int64   `json:"views"`
}

// Comment is a user comment on a video.
type Comment struct {
	ID        string    `json:"id"`
	VideoID   string    `json:"videoId"`
	OwnerID   string    `json:"ownerId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CommentWithAuthor pairs a comment with the commenter's public profile.
type CommentWithAuthor struct {
	Comment
	Author PublicUser `json:"commentedBy"`
}

// Playlist groups videos under a named collection owned by a user.
type Playlist struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"ownerId"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// PlaylistWithVideos is a playlist joined with its video projections.
type PlaylistWithVideos struct {
	Playlist
	Videos []VideoSummary `json:"videos"`
}

// LikedVideo is an active like relation joined with the liked video.
type LikedVideo struct {
	LikedAt time.Time    `json:"likedAt"`
	Video   VideoSummary `json:"video"`
}

// WatchEntry is one watch-history record. Entries are ordered and may
// reference the same video more than once.
type WatchEntry struct {
	WatchedAt time.Time    `json:"watchedAt"`
	Video     VideoSummary `json:"video"`
}

// ChannelStats aggregates dashboard figures for a channel.
type ChannelStats struct {
	TotalVideos      int64 `json:"totalVideos"`
	TotalViews       int64 `json:"totalViews"`
	TotalLikes       int64 `json:"totalLikes"`
	TotalSubscribers int64 `json:"totalSubscribers"`
}

// TokenPair groups the bearer credentials issued to authenticated users.
type TokenPair struct {
	AccessToken      string    `json:"accessToken"`
	AccessExpiresAt  time.Time `json:"accessExpiresAt"`
	RefreshToken     string    `json:"refreshToken"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt"`
}
