package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/vidtube/backend/internal/auth"
	"github.com/vidtube/backend/internal/middleware"
	"github.com/vidtube/backend/internal/models"
)

func authedRequest(method, target string, body io.Reader, user models.User) *http.Request {
	req := httptest.NewRequest(method, target, body)
	return req.WithContext(middleware.WithUser(req.Context(), user))
}

func testUser(t *testing.T, username, password string) models.User {
	t.Helper()
	hash, err := auth.HashPassword(password, bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return models.User{
		ID:       uuid.NewString(),
		Username: username,
		Email:    username + "@example.com",
		FullName: "Test " + username,
		Password: hash,
		Avatar:   "https://cdn.test/avatars/old.png",
	}
}

func multipartBody(t *testing.T, fields map[string]string, files map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			t.Fatalf("write field %s: %v", name, err)
		}
	}
	for name, filename := range files {
		part, err := writer.CreateFormFile(name, filename)
		if err != nil {
			t.Fatalf("create form file %s: %v", name, err)
		}
		if _, err := part.Write([]byte("file contents for " + name)); err != nil {
			t.Fatalf("write form file %s: %v", name, err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	return body, writer.FormDataContentType()
}

func cookieByName(t *testing.T, rec *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	res := rec.Result()
	defer res.Body.Close()
	for _, cookie := range res.Cookies() {
		if cookie.Name == name {
			return cookie
		}
	}
	return nil
}

func TestUserHandlerRegister(t *testing.T) {
	users := newFakeUserStore()
	storage := newFakeAssetStorage()
	handler := UserHandler{Users: users, Tokens: newFakeTokenService(), Storage: storage, BcryptCost: bcrypt.MinCost}

	body, contentType := multipartBody(t,
		map[string]string{
			"fullName": "Alice Example",
			"email":    "Alice@Example.com",
			"username": "Alice",
			"password": "supersecret",
		},
		map[string]string{"avatar": "avatar.png"},
	)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/register", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	handler.Register(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var envelope struct {
		StatusCode int               `json:"statusCode"`
		Success    bool              `json:"success"`
		Data       models.PublicUser `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if !envelope.Success || envelope.StatusCode != http.StatusCreated {
		t.Fatalf("unexpected envelope: %+v", envelope)
	}
	if envelope.Data.Username != "alice" || envelope.Data.Email != "alice@example.com" {
		t.Fatalf("expected lowercased identity, got %+v", envelope.Data)
	}
	if !strings.HasPrefix(envelope.Data.Avatar, "https://cdn.test/avatars/") {
		t.Fatalf("expected uploaded avatar URL, got %q", envelope.Data.Avatar)
	}

	stored, err := users.FindByLogin(req.Context(), "alice")
	if err != nil {
		t.Fatalf("find registered user: %v", err)
	}
	if err := auth.CheckPassword(stored.Password, "supersecret"); err != nil {
		t.Fatalf("stored hash does not verify: %v", err)
	}

	keys := storage.savedKeys()
	if len(keys) != 1 || !strings.HasPrefix(keys[0], "avatars/") {
		t.Fatalf("expected one avatar upload, got %v", keys)
	}
}

func TestUserHandlerRegisterValidation(t *testing.T) {
	tests := []struct {
		name   string
		fields map[string]string
		files  map[string]string
	}{
		{
			name:   "missing fields",
			fields: map[string]string{"username": "alice"},
			files:  map[string]string{"avatar": "a.png"},
		},
		{
			name: "missing avatar",
			fields: map[string]string{
				"fullName": "Alice", "email": "alice@example.com",
				"username": "alice", "password": "supersecret",
			},
		},
		{
			name: "short password",
			fields: map[string]string{
				"fullName": "Alice", "email": "alice@example.com",
				"username": "alice", "password": "short",
			},
			files: map[string]string{"avatar": "a.png"},
		},
		{
			name: "bad email",
			fields: map[string]string{
				"fullName": "Alice", "email": "not-an-email",
				"username": "alice", "password": "supersecret",
			},
			files: map[string]string{"avatar": "a.png"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			handler := UserHandler{Users: newFakeUserStore(), Tokens: newFakeTokenService(), Storage: newFakeAssetStorage()}
			body, contentType := multipartBody(t, tc.fields, tc.files)
			req := httptest.NewRequest(http.MethodPost, "/api/v1/users/register", body)
			req.Header.Set("Content-Type", contentType)
			rec := httptest.NewRecorder()

			handler.Register(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestUserHandlerRegisterConflict(t *testing.T) {
	existing := testUser(t, "alice", "supersecret")
	handler := UserHandler{Users: newFakeUserStore(existing), Tokens: newFakeTokenService(), Storage: newFakeAssetStorage(), BcryptCost: bcrypt.MinCost}

	body, contentType := multipartBody(t,
		map[string]string{
			"fullName": "Other Alice", "email": "other@example.com",
			"username": "ALICE", "password": "supersecret",
		},
		map[string]string{"avatar": "a.png"},
	)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/register", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	handler.Register(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestUserHandlerLogin(t *testing.T) {
	user := testUser(t, "alice", "supersecret")
	handler := UserHandler{Users: newFakeUserStore(user), Tokens: newFakeTokenService()}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/login",
		strings.NewReader(`{"username":"alice","password":"supersecret"}`))
	rec := httptest.NewRecorder()

	handler.Login(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var envelope struct {
		Success bool `json:"success"`
		Data    struct {
			User         map[string]any `json:"user"`
			AccessToken  string         `json:"accessToken"`
			RefreshToken string         `json:"refreshToken"`
		} `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if envelope.Data.AccessToken == "" || envelope.Data.RefreshToken == "" {
		t.Fatalf("expected tokens in body, got %+v", envelope.Data)
	}
	if _, ok := envelope.Data.User["password"]; ok {
		t.Fatalf("password leaked into response: %+v", envelope.Data.User)
	}
	if _, ok := envelope.Data.User["refreshToken"]; ok {
		t.Fatalf("refresh token leaked into user payload: %+v", envelope.Data.User)
	}

	access := cookieByName(t, rec, "accessToken")
	refresh := cookieByName(t, rec, "refreshToken")
	if access == nil || refresh == nil {
		t.Fatalf("expected both auth cookies to be set")
	}
	if !access.HttpOnly || !access.Secure || !refresh.HttpOnly || !refresh.Secure {
		t.Fatalf("expected httpOnly secure cookies")
	}
}

func TestUserHandlerLoginFailures(t *testing.T) {
	user := testUser(t, "alice", "supersecret")

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{name: "unknown user", body: `{"username":"ghost","password":"supersecret"}`, status: http.StatusNotFound},
		{name: "wrong password", body: `{"username":"alice","password":"wrong"}`, status: http.StatusUnauthorized},
		{name: "missing password", body: `{"username":"alice"}`, status: http.StatusBadRequest},
		{name: "bad json", body: `{`, status: http.StatusBadRequest},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			handler := UserHandler{Users: newFakeUserStore(user), Tokens: newFakeTokenService()}
			req := httptest.NewRequest(http.MethodPost, "/api/v1/users/login", strings.NewReader(tc.body))
			rec := httptest.NewRecorder()

			handler.Login(rec, req)

			if rec.Code != tc.status {
				t.Fatalf("expected %d, got %d: %s", tc.status, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestUserHandlerRefreshRotatesAndRejectsStale(t *testing.T) {
	user := testUser(t, "alice", "supersecret")
	tokens := newFakeTokenService()
	tokens.parseUserID = user.ID
	handler := UserHandler{Users: newFakeUserStore(user), Tokens: tokens}

	first, err := tokens.Issue(t.Context(), user.ID, user.Username)
	if err != nil {
		t.Fatalf("seed session: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/refresh-token", nil)
	req.AddCookie(&http.Cookie{Name: "refreshToken", Value: first.RefreshToken})
	rec := httptest.NewRecorder()

	handler.Refresh(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if cookieByName(t, rec, "refreshToken") == nil {
		t.Fatalf("expected rotated refresh cookie")
	}

	// Replaying the superseded token must lose the swap.
	replay := httptest.NewRequest(http.MethodPost, "/api/v1/users/refresh-token", nil)
	replay.AddCookie(&http.Cookie{Name: "refreshToken", Value: first.RefreshToken})
	rec = httptest.NewRecorder()

	handler.Refresh(rec, replay)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for stale token, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestUserHandlerRefreshFromBody(t *testing.T) {
	user := testUser(t, "alice", "supersecret")
	tokens := newFakeTokenService()
	tokens.parseUserID = user.ID
	handler := UserHandler{Users: newFakeUserStore(user), Tokens: tokens}

	first, err := tokens.Issue(t.Context(), user.ID, user.Username)
	if err != nil {
		t.Fatalf("seed session: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/refresh-token",
		strings.NewReader(`{"refreshToken":"`+first.RefreshToken+`"}`))
	rec := httptest.NewRecorder()

	handler.Refresh(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestUserHandlerRefreshMissingToken(t *testing.T) {
	handler := UserHandler{Users: newFakeUserStore(), Tokens: newFakeTokenService()}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/refresh-token", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()

	handler.Refresh(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestUserHandlerLogoutIsIdempotent(t *testing.T) {
	user := testUser(t, "alice", "supersecret")
	tokens := newFakeTokenService()
	handler := UserHandler{Users: newFakeUserStore(user), Tokens: tokens}

	for i := 0; i < 2; i++ {
		req := authedRequest(http.MethodPost, "/api/v1/users/logout", nil, user)
		rec := httptest.NewRecorder()

		handler.Logout(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("logout %d: expected 200, got %d", i, rec.Code)
		}

		access := cookieByName(t, rec, "accessToken")
		if access == nil || access.MaxAge >= 0 {
			t.Fatalf("expected cleared access cookie, got %+v", access)
		}
	}

	if len(tokens.revoked) != 2 {
		t.Fatalf("expected two revocations, got %d", len(tokens.revoked))
	}
}

func TestUserHandlerChangePassword(t *testing.T) {
	user := testUser(t, "alice", "supersecret")

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{name: "wrong old password", body: `{"oldPassword":"nope","newPassword":"newsecret1"}`, status: http.StatusUnauthorized},
		{name: "same password", body: `{"oldPassword":"supersecret","newPassword":"supersecret"}`, status: http.StatusBadRequest},
		{name: "short new password", body: `{"oldPassword":"supersecret","newPassword":"tiny"}`, status: http.StatusBadRequest},
		{name: "success", body: `{"oldPassword":"supersecret","newPassword":"newsecret1"}`, status: http.StatusOK},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			users := newFakeUserStore(user)
			handler := UserHandler{Users: users, Tokens: newFakeTokenService(), BcryptCost: bcrypt.MinCost}

			req := authedRequest(http.MethodPost, "/api/v1/users/change-password", strings.NewReader(tc.body), user)
			rec := httptest.NewRecorder()

			handler.ChangePassword(rec, req)

			if rec.Code != tc.status {
				t.Fatalf("expected %d, got %d: %s", tc.status, rec.Code, rec.Body.String())
			}

			if tc.status == http.StatusOK {
				stored, err := users.FindByID(req.Context(), user.ID)
				if err != nil {
					t.Fatalf("find user: %v", err)
				}
				if err := auth.CheckPassword(stored.Password, "newsecret1"); err != nil {
					t.Fatalf("new password does not verify: %v", err)
				}
			}
		})
	}
}

func TestUserHandlerCurrentUser(t *testing.T) {
	user := testUser(t, "alice", "supersecret")
	handler := UserHandler{Users: newFakeUserStore(user), Tokens: newFakeTokenService()}

	req := authedRequest(http.MethodGet, "/api/v1/users/current-user", nil, user)
	rec := httptest.NewRecorder()

	handler.CurrentUser(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var envelope struct {
		Data models.PublicUser `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if envelope.Data.ID != user.ID {
		t.Fatalf("unexpected user: %+v", envelope.Data)
	}
}

func TestUserHandlerUpdateAvatarDeletesOldAsset(t *testing.T) {
	user := testUser(t, "alice", "supersecret")
	users := newFakeUserStore(user)
	storage := newFakeAssetStorage()
	handler := UserHandler{Users: users, Tokens: newFakeTokenService(), Storage: storage}

	body, contentType := multipartBody(t, nil, map[string]string{"avatar": "new.png"})
	req := authedRequest(http.MethodPatch, "/api/v1/users/avatar", body, user)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	handler.UpdateAvatar(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	updated, err := users.FindByID(req.Context(), user.ID)
	if err != nil {
		t.Fatalf("find user: %v", err)
	}
	if !strings.HasPrefix(updated.Avatar, "https://cdn.test/avatars/") {
		t.Fatalf("expected new avatar URL, got %q", updated.Avatar)
	}

	storage.mu.Lock()
	defer storage.mu.Unlock()
	if len(storage.deleted) != 1 || storage.deleted[0] != user.Avatar {
		t.Fatalf("expected old avatar deleted, got %v", storage.deleted)
	}
}
