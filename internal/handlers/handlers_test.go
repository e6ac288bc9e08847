package handlers

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/vidtube/backend/internal/auth"
	"github.com/vidtube/backend/internal/media"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/repositories"
)

// In-memory fakes shared by the handler tests.

type fakeUserStore struct {
	mu      sync.Mutex
	users   map[string]models.User
	history []models.WatchEntry
}

func newFakeUserStore(seed ...models.User) *fakeUserStore {
	store := &fakeUserStore{users: map[string]models.User{}}
	for _, user := range seed {
		store.users[user.ID] = user
	}
	return store
}

func (f *fakeUserStore) Create(ctx context.Context, user models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.users {
		if strings.EqualFold(existing.Username, user.Username) || strings.EqualFold(existing.Email, user.Email) {
			return repositories.ErrConflict
		}
	}
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserStore) FindByID(ctx context.Context, id string) (models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	return user, nil
}

func (f *fakeUserStore) FindByLogin(ctx context.Context, login string) (models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	login = strings.ToLower(strings.TrimSpace(login))
	for _, user := range f.users {
		if user.Username == login || user.Email == login {
			return user, nil
		}
	}
	return models.User{}, repositories.ErrNotFound
}

func (f *fakeUserStore) UpdateProfile(ctx context.Context, id, fullName, email string) (models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	user.FullName = fullName
	user.Email = strings.ToLower(email)
	f.users[id] = user
	return user, nil
}

func (f *fakeUserStore) UpdateImage(ctx context.Context, id, column, url string) (models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	if column == "cover_image" {
		user.CoverImage = url
	} else {
		user.Avatar = url
	}
	f.users[id] = user
	return user, nil
}

func (f *fakeUserStore) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[id]
	if !ok {
		return repositories.ErrNotFound
	}
	user.Password = passwordHash
	f.users[id] = user
	return nil
}

func (f *fakeUserStore) AppendWatchHistory(ctx context.Context, userID, videoID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.history = append(f.history, models.WatchEntry{
		WatchedAt: time.Now().UTC(),
		Video:     models.VideoSummary{ID: videoID},
	})
	return nil
}

func (f *fakeUserStore) ListWatchHistory(ctx context.Context, userID string) ([]models.WatchEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.WatchEntry(nil), f.history...), nil
}

type fakeTokenService struct {
	mu          sync.Mutex
	current     map[string]string
	counter     int
	revoked     []string
	parseErr    error
	parseUserID string
}

func newFakeTokenService() *fakeTokenService {
	return &fakeTokenService{current: map[string]string{}}
}

func (f *fakeTokenService) mint() models.TokenPair {
	f.counter++
	now := time.Now().UTC()
	return models.TokenPair{
		AccessToken:      fmt.Sprintf("access-%d", f.counter),
		AccessExpiresAt:  now.Add(15 * time.Minute),
		RefreshToken:     fmt.Sprintf("refresh-%d", f.counter),
		RefreshExpiresAt: now.Add(24 * time.Hour),
	}
}

func (f *fakeTokenService) Issue(ctx context.Context, userID, username string) (models.TokenPair, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	pair := f.mint()
	f.current[userID] = pair.RefreshToken
	return pair, nil
}

func (f *fakeTokenService) Rotate(ctx context.Context, userID, username, presented string) (models.TokenPair, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.current[userID] != presented {
		return models.TokenPair{}, auth.ErrTokenMismatch
	}
	pair := f.mint()
	f.current[userID] = pair.RefreshToken
	return pair, nil
}

func (f *fakeTokenService) Revoke(ctx context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.current, userID)
	f.revoked = append(f.revoked, userID)
	return nil
}

func (f *fakeTokenService) ParseRefresh(token string) (auth.RefreshClaims, error) {
	if f.parseErr != nil {
		return auth.RefreshClaims{}, f.parseErr
	}
	return auth.RefreshClaims{UserID: f.parseUserID}, nil
}

type fakeAssetStorage struct {
	mu      sync.Mutex
	saved   map[string][]byte
	deleted []string
}

func newFakeAssetStorage() *fakeAssetStorage {
	return &fakeAssetStorage{saved: map[string][]byte{}}
}

func (f *fakeAssetStorage) Save(ctx context.Context, name string, r io.Reader) (string, error) {
	contents, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved[name] = contents
	return "https://cdn.test/" + name, nil
}

func (f *fakeAssetStorage) Delete(ctx context.Context, location string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, location)
	return nil
}

func (f *fakeAssetStorage) savedKeys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	keys := make([]string, 0, len(f.saved))
	for key := range f.saved {
		keys = append(keys, key)
	}
	return keys
}

type fakeVideoStore struct {
	mu     sync.Mutex
	videos map[string]models.Video
}

func newFakeVideoStore(seed ...models.Video) *fakeVideoStore {
	store := &fakeVideoStore{videos: map[string]models.Video{}}
	for _, video := range seed {
		store.videos[video.ID] = video
	}
	return store
}

func (f *fakeVideoStore) Create(ctx context.Context, video models.Video) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.videos[video.ID] = video
	return nil
}

func (f *fakeVideoStore) FindByID(ctx context.Context, id string) (models.Video, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	video, ok := f.videos[id]
	if !ok {
		return models.Video{}, repositories.ErrNotFound
	}
	return video, nil
}

func (f *fakeVideoStore) ListByOwner(ctx context.Context, ownerID string, page repositories.Page) ([]models.Video, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var videos []models.Video
	for _, video := range f.videos {
		if video.OwnerID == ownerID {
			videos = append(videos, video)
		}
	}
	return videos, nil
}

func (f *fakeVideoStore) UpdateDetails(ctx context.Context, id, title, description string) (models.Video, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	video, ok := f.videos[id]
	if !ok {
		return models.Video{}, repositories.ErrNotFound
	}
	video.Title = title
	video.Description = description
	f.videos[id] = video
	return video, nil
}

func (f *fakeVideoStore) UpdateThumbnail(ctx context.Context, id, thumbnail string) (models.Video, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	video, ok := f.videos[id]
	if !ok {
		return models.Video{}, repositories.ErrNotFound
	}
	video.Thumbnail = thumbnail
	f.videos[id] = video
	return video, nil
}

func (f *fakeVideoStore) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.videos[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(f.videos, id)
	return nil
}

func (f *fakeVideoStore) IncrementViews(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	video, ok := f.videos[id]
	if !ok {
		return repositories.ErrNotFound
	}
	video.Views++
	f.videos[id] = video
	return nil
}

func (f *fakeVideoStore) TogglePublished(ctx context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	video, ok := f.videos[id]
	if !ok {
		return false, repositories.ErrNotFound
	}
	video.IsPublished = !video.IsPublished
	f.videos[id] = video
	return video.IsPublished, nil
}

type fakeIngestor struct {
	mu   sync.Mutex
	jobs []media.IngestJob
	err  error
}

func (f *fakeIngestor) Enqueue(ctx context.Context, job media.IngestJob) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobs = append(f.jobs, job)
	return nil
}

type fakeLikeStore struct {
	mu       sync.Mutex
	videos   map[string]bool
	comments map[string]bool
	err      error
}

func newFakeLikeStore() *fakeLikeStore {
	return &fakeLikeStore{videos: map[string]bool{}, comments: map[string]bool{}}
}

func (f *fakeLikeStore) ToggleVideo(ctx context.Context, userID, videoID string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	key := userID + ":" + videoID
	f.videos[key] = !f.videos[key]
	return f.videos[key], nil
}

func (f *fakeLikeStore) ToggleComment(ctx context.Context, userID, commentID string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	key := userID + ":" + commentID
	f.comments[key] = !f.comments[key]
	return f.comments[key], nil
}

func (f *fakeLikeStore) ListLikedVideos(ctx context.Context, userID string) ([]models.LikedVideo, error) {
	return nil, nil
}

type fakeSubscriptionStore struct {
	mu     sync.Mutex
	active map[string]bool
	err    error
}

func newFakeSubscriptionStore() *fakeSubscriptionStore {
	return &fakeSubscriptionStore{active: map[string]bool{}}
}

func (f *fakeSubscriptionStore) Toggle(ctx context.Context, subscriberID, channelID string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	key := subscriberID + ":" + channelID
	f.active[key] = !f.active[key]
	return f.active[key], nil
}

func (f *fakeSubscriptionStore) ListSubscribers(ctx context.Context, channelID string) ([]models.PublicUser, error) {
	return nil, nil
}

func (f *fakeSubscriptionStore) ListSubscribed(ctx context.Context, subscriberID string) ([]models.PublicUser, error) {
	return nil, nil
}

type fakeCommentStore struct {
	mu       sync.Mutex
	comments map[string]models.Comment
	err      error
}

func newFakeCommentStore(seed ...models.Comment) *fakeCommentStore {
	store := &fakeCommentStore{comments: map[string]models.Comment{}}
	for _, comment := range seed {
		store.comments[comment.ID] = comment
	}
	return store
}

func (f *fakeCommentStore) Create(ctx context.Context, comment models.Comment) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.comments[comment.ID] = comment
	return nil
}

func (f *fakeCommentStore) FindByID(ctx context.Context, id string) (models.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	comment, ok := f.comments[id]
	if !ok {
		return models.Comment{}, repositories.ErrNotFound
	}
	return comment, nil
}

func (f *fakeCommentStore) UpdateContent(ctx context.Context, id, content string) (models.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	comment, ok := f.comments[id]
	if !ok {
		return models.Comment{}, repositories.ErrNotFound
	}
	comment.Content = content
	f.comments[id] = comment
	return comment, nil
}

func (f *fakeCommentStore) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.comments[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(f.comments, id)
	return nil
}

func (f *fakeCommentStore) ListByVideo(ctx context.Context, videoID string, page repositories.Page) ([]models.CommentWithAuthor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []models.CommentWithAuthor
	for _, comment := range f.comments {
		if comment.VideoID == videoID {
			result = append(result, models.CommentWithAuthor{Comment: comment})
		}
	}
	return result, nil
}

type fakePlaylistStore struct {
	mu        sync.Mutex
	playlists map[string]models.PlaylistWithVideos
	addErr    error
}

func newFakePlaylistStore(seed ...models.PlaylistWithVideos) *fakePlaylistStore {
	store := &fakePlaylistStore{playlists: map[string]models.PlaylistWithVideos{}}
	for _, playlist := range seed {
		store.playlists[playlist.ID] = playlist
	}
	return store
}

func (f *fakePlaylistStore) Create(ctx context.Context, playlist models.Playlist) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.playlists[playlist.ID] = models.PlaylistWithVideos{Playlist: playlist}
	return nil
}

func (f *fakePlaylistStore) FindByID(ctx context.Context, id string) (models.PlaylistWithVideos, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	playlist, ok := f.playlists[id]
	if !ok {
		return models.PlaylistWithVideos{}, repositories.ErrNotFound
	}
	return playlist, nil
}

func (f *fakePlaylistStore) ListByOwner(ctx context.Context, ownerID string) ([]models.Playlist, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []models.Playlist
	for _, playlist := range f.playlists {
		if playlist.OwnerID == ownerID {
			result = append(result, playlist.Playlist)
		}
	}
	return result, nil
}

func (f *fakePlaylistStore) Update(ctx context.Context, id, name, description string) (models.Playlist, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	playlist, ok := f.playlists[id]
	if !ok {
		return models.Playlist{}, repositories.ErrNotFound
	}
	playlist.Name = name
	playlist.Description = description
	f.playlists[id] = playlist
	return playlist.Playlist, nil
}

func (f *fakePlaylistStore) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.playlists[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(f.playlists, id)
	return nil
}

func (f *fakePlaylistStore) AddVideo(ctx context.Context, playlistID, videoID string) error {
	if f.addErr != nil {
		return f.addErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	playlist, ok := f.playlists[playlistID]
	if !ok {
		return repositories.ErrNotFound
	}
	for _, video := range playlist.Videos {
		if video.ID == videoID {
			return repositories.ErrConflict
		}
	}
	playlist.Videos = append(playlist.Videos, models.VideoSummary{ID: videoID})
	f.playlists[playlistID] = playlist
	return nil
}

func (f *fakePlaylistStore) RemoveVideo(ctx context.Context, playlistID, videoID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	playlist, ok := f.playlists[playlistID]
	if !ok {
		return repositories.ErrNotFound
	}
	for idx, video := range playlist.Videos {
		if video.ID == videoID {
			playlist.Videos = append(playlist.Videos[:idx], playlist.Videos[idx+1:]...)
			f.playlists[playlistID] = playlist
			return nil
		}
	}
	return repositories.ErrNotFound
}

type fakeDashboardStore struct {
	stats models.ChannelStats
	err   error
}

func (f *fakeDashboardStore) ChannelStats(ctx context.Context, channelID string) (models.ChannelStats, error) {
	if f.err != nil {
		return models.ChannelStats{}, f.err
	}
	return f.stats, nil
}
