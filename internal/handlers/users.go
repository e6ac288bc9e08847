package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vidtube/backend/internal/apperr"
	"github.com/vidtube/backend/internal/auth"
	"github.com/vidtube/backend/internal/logging"
	"github.com/vidtube/backend/internal/models"
)

// UserHandler implements account and session endpoints.
type UserHandler struct {
	Users      UserStore
	Tokens     TokenService
	Storage    AssetStorage
	Limiter    RateLimiter
	BcryptCost int
	NowFunc    func() time.Time
}

func (h UserHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}

type loginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionPayload struct {
	User         models.PublicUser `json:"user"`
	AccessToken  string            `json:"accessToken"`
	RefreshToken string            `json:"refreshToken"`
}

// Register handles POST /api/v1/users/register. The body is multipart: text
// fields plus a required avatar image and an optional cover image.
func (h UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if !allowRequest(h.Limiter, r, "register") {
		respondError(ctx, w, apperr.New(apperr.Validation, "too many registration attempts, slow down"))
		return
	}

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		respondError(ctx, w, apperr.Wrap(apperr.Validation, "invalid multipart body", err))
		return
	}

	fullName := strings.TrimSpace(r.FormValue("fullName"))
	email := strings.TrimSpace(strings.ToLower(r.FormValue("email")))
	username := strings.TrimSpace(strings.ToLower(r.FormValue("username")))
	password := r.FormValue("password")

	if fullName == "" || email == "" || username == "" || password == "" {
		respondError(ctx, w, apperr.New(apperr.Validation, "all fields are required"))
		return
	}
	if _, err := mail.ParseAddress(email); err != nil {
		respondError(ctx, w, apperr.New(apperr.Validation, "invalid email address"))
		return
	}
	if len(password) < 8 {
		respondError(ctx, w, apperr.New(apperr.Validation, "password must be at least 8 characters"))
		return
	}

	avatarURL, err := uploadFormFile(ctx, h.Storage, r, "avatar", "avatars", true)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	coverURL, err := uploadFormFile(ctx, h.Storage, r, "coverImage", "covers", false)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	hash, err := auth.HashPassword(password, h.BcryptCost)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	now := h.now()
	user := models.User{
		ID:         uuid.NewString(),
		Username:   username,
		Email:      email,
		FullName:   fullName,
		Password:   hash,
		Avatar:     avatarURL,
		CoverImage: coverURL,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := h.Users.Create(ctx, user); err != nil {
		respondError(ctx, w, storeError(err, "user not found", "username or email already exists"))
		return
	}

	respondJSON(ctx, w, http.StatusCreated, user.Public(), "user registered successfully")
}

// Login handles POST /api/v1/users/login.
func (h UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if !allowRequest(h.Limiter, r, "login") {
		respondError(ctx, w, apperr.New(apperr.Validation, "too many login attempts, slow down"))
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(ctx, w, apperr.Wrap(apperr.Validation, "invalid request body", err))
		return
	}

	login := strings.TrimSpace(req.Username)
	if login == "" {
		login = strings.TrimSpace(req.Email)
	}
	if login == "" || req.Password == "" {
		respondError(ctx, w, apperr.New(apperr.Validation, "username or email and password are required"))
		return
	}

	user, err := h.Users.FindByLogin(ctx, login)
	if err != nil {
		respondError(ctx, w, storeError(err, "user does not exist", ""))
		return
	}

	if err := auth.CheckPassword(user.Password, req.Password); err != nil {
		respondError(ctx, w, apperr.New(apperr.Auth, "invalid credentials"))
		return
	}

	pair, err := h.Tokens.Issue(ctx, user.ID, user.Username)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	setAuthCookies(w, pair)
	respondJSON(ctx, w, http.StatusOK, sessionPayload{
		User:         user.Public(),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}, "logged in successfully")
}

// Logout handles POST /api/v1/users/logout. Revocation is idempotent: the
// stored refresh token is cleared and both cookies dropped. Outstanding
// access tokens stay valid until their expiry.
func (h UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, err := requireUser(ctx)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	if err := h.Tokens.Revoke(ctx, user.ID); err != nil {
		respondError(ctx, w, err)
		return
	}

	clearAuthCookies(w)
	respondJSON(ctx, w, http.StatusOK, struct{}{}, "logged out successfully")
}

// Refresh handles POST /api/v1/users/refresh-token. The presented token is
// read from the refreshToken cookie or the request body and swapped for a new
// pair only when it still matches the stored value.
func (h UserHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	presented := ""
	if cookie, err := r.Cookie("refreshToken"); err == nil {
		presented = cookie.Value
	}
	if presented == "" {
		var body struct {
			RefreshToken string `json:"refreshToken"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err == nil {
			presented = body.RefreshToken
		}
	}
	if presented == "" {
		respondError(ctx, w, apperr.New(apperr.Auth, "refresh token is required"))
		return
	}

	claims, err := h.Tokens.ParseRefresh(presented)
	if err != nil {
		respondError(ctx, w, apperr.Wrap(apperr.Auth, "invalid refresh token", err))
		return
	}

	user, err := h.Users.FindByID(ctx, claims.UserID)
	if err != nil {
		respondError(ctx, w, apperr.Wrap(apperr.Auth, "invalid refresh token", err))
		return
	}

	pair, err := h.Tokens.Rotate(ctx, user.ID, user.Username, presented)
	if err != nil {
		if errors.Is(err, auth.ErrTokenMismatch) {
			logger.Warn("stale refresh token rejected", "userId", user.ID)
			respondError(ctx, w, apperr.Wrap(apperr.Auth, "refresh token has been superseded", err))
			return
		}
		respondError(ctx, w, err)
		return
	}

	setAuthCookies(w, pair)
	respondJSON(ctx, w, http.StatusOK, models.TokenPair{
		AccessToken:      pair.AccessToken,
		AccessExpiresAt:  pair.AccessExpiresAt,
		RefreshToken:     pair.RefreshToken,
		RefreshExpiresAt: pair.RefreshExpiresAt,
	}, "access token refreshed")
}

// ChangePassword handles POST /api/v1/users/change-password.
func (h UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, err := requireUser(ctx)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	var req struct {
		OldPassword string `json:"oldPassword"`
		NewPassword string `json:"newPassword"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(ctx, w, apperr.Wrap(apperr.Validation, "invalid request body", err))
		return
	}

	if req.OldPassword == "" || req.NewPassword == "" {
		respondError(ctx, w, apperr.New(apperr.Validation, "old and new passwords are required"))
		return
	}
	if req.OldPassword == req.NewPassword {
		respondError(ctx, w, apperr.New(apperr.Validation, "new password must differ from the old one"))
		return
	}
	if len(req.NewPassword) < 8 {
		respondError(ctx, w, apperr.New(apperr.Validation, "password must be at least 8 characters"))
		return
	}

	// The context user has its hash stripped; reload it.
	stored, err := h.Users.FindByID(ctx, user.ID)
	if err != nil {
		respondError(ctx, w, storeError(err, "user not found", ""))
		return
	}

	if err := auth.CheckPassword(stored.Password, req.OldPassword); err != nil {
		respondError(ctx, w, apperr.New(apperr.Auth, "old password is incorrect"))
		return
	}

	hash, err := auth.HashPassword(req.NewPassword, h.BcryptCost)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	if err := h.Users.UpdatePassword(ctx, user.ID, hash); err != nil {
		respondError(ctx, w, storeError(err, "user not found", ""))
		return
	}

	respondJSON(ctx, w, http.StatusOK, struct{}{}, "password changed successfully")
}

// CurrentUser handles GET /api/v1/users/current-user.
func (h UserHandler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, err := requireUser(ctx)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusOK, user.Public(), "current user fetched")
}

// UpdateAccount handles PATCH /api/v1/users/update-account.
func (h UserHandler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, err := requireUser(ctx)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	var req struct {
		FullName string `json:"fullName"`
		Email    string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(ctx, w, apperr.Wrap(apperr.Validation, "invalid request body", err))
		return
	}

	req.FullName = strings.TrimSpace(req.FullName)
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.FullName == "" || req.Email == "" {
		respondError(ctx, w, apperr.New(apperr.Validation, "full name and email are required"))
		return
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		respondError(ctx, w, apperr.New(apperr.Validation, "invalid email address"))
		return
	}

	updated, err := h.Users.UpdateProfile(ctx, user.ID, req.FullName, req.Email)
	if err != nil {
		respondError(ctx, w, storeError(err, "user not found", "email already in use"))
		return
	}

	respondJSON(ctx, w, http.StatusOK, updated.Public(), "account updated successfully")
}

// UpdateAvatar handles PATCH /api/v1/users/avatar.
func (h UserHandler) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	h.updateImage(w, r, "avatar", "avatars", "avatar")
}

// UpdateCoverImage handles PATCH /api/v1/users/cover-image.
func (h UserHandler) UpdateCoverImage(w http.ResponseWriter, r *http.Request) {
	h.updateImage(w, r, "coverImage", "covers", "cover_image")
}

func (h UserHandler) updateImage(w http.ResponseWriter, r *http.Request, field, prefix, column string) {
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

	location, err := uploadFormFile(ctx, h.Storage, r, field, prefix, true)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	previous := user.Avatar
	if column == "cover_image" {
		previous = user.CoverImage
	}

	updated, err := h.Users.UpdateImage(ctx, user.ID, column, location)
	if err != nil {
		respondError(ctx, w, storeError(err, "user not found", ""))
		return
	}

	// The superseded asset is removed best effort; the new image is already live.
	if previous != "" {
		if err := h.Storage.Delete(ctx, previous); err != nil {
			logger.Warn("delete superseded image", "userId", user.ID, "location", previous, "error", err)
		}
	}

	respondJSON(ctx, w, http.StatusOK, updated.Public(), field+" updated successfully")
}

// WatchHistory handles GET /api/v1/users/history.
func (h UserHandler) WatchHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	user, err := requireUser(ctx)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	history, err := h.Users.ListWatchHistory(ctx, user.ID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	if history == nil {
		history = []models.WatchEntry{}
	}

	respondJSON(ctx, w, http.StatusOK, history, "watch history fetched")
}

func setAuthCookies(w http.ResponseWriter, pair models.TokenPair) {
	http.SetCookie(w, &http.Cookie{
		Name:     "accessToken",
		Value:    pair.AccessToken,
		Path:     "/",
		Expires:  pair.AccessExpiresAt,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     "refreshToken",
		Value:    pair.RefreshToken,
		Path:     "/",
		Expires:  pair.RefreshExpiresAt,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
}

func clearAuthCookies(w http.ResponseWriter) {
	for _, name := range []string{"accessToken", "refreshToken"} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   true,
			SameSite: http.SameSiteStrictMode,
		})
	}
}
