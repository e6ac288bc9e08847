package auth

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/vidtube/backend/internal/models"
)

var (
	// ErrTokenInvalid indicates a token failed signature or structural validation.
	ErrTokenInvalid = errors.New("token invalid")
	// ErrTokenExpired indicates a token is past its expiry.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenMismatch indicates the presented refresh token does not match the
	// value currently persisted for the user, i.e. it was rotated out.
	ErrTokenMismatch = errors.New("refresh token mismatch")
)

// RefreshTokenStore persists the single valid refresh token per user.
type RefreshTokenStore interface {
	// SetRefreshToken unconditionally replaces the stored token (login).
	SetRefreshToken(ctx context.Context, userID, token string) error
	// SwapRefreshToken replaces the stored token only when it still equals
	// current. Implementations must perform the comparison atomically and
	// return ErrTokenMismatch when the guard fails.
	SwapRefreshToken(ctx context.Context, userID, current, next string) error
	// ClearRefreshToken removes the stored token. Clearing an already empty
	// token is not an error.
	ClearRefreshToken(ctx context.Context, userID string) error
}

// AccessClaims is the payload carried by short-lived access tokens.
type AccessClaims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// RefreshClaims is the payload carried by refresh tokens; identity id only.
type RefreshClaims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// Config carries the signing material and lifetimes for issued tokens.
type Config struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// Manager issues, verifies, rotates, and revokes access/refresh token pairs.
// At most one refresh token is valid per user at any time; issuing a new one
// invalidates the previous.
type Manager struct {
	cfg   Config
	store RefreshTokenStore
	now   func() time.Time
}

// NewManager constructs a Manager backed by the provided store.
func NewManager(cfg Config, store RefreshTokenStore) *Manager {
	if store == nil {
		panic("auth: refresh token store must not be nil")
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = 15 * time.Minute
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = 24 * time.Hour
	}
	return &Manager{cfg: cfg, store: store, now: func() time.Time { return time.Now().UTC() }}
}

// WithNowFunc overrides the time source. Useful for tests.
func (m *Manager) WithNowFunc(now func() time.Time) *Manager {
	m.now = now
	return m
}

// Issue mints a new token pair and persists the refresh token, overwriting
// any previously stored value. This is the rotation point for login.
func (m *Manager) Issue(ctx context.Context, userID, username string) (models.TokenPair, error) {
	if userID == "" {
		return models.TokenPair{}, errors.New("auth: user id must be provided")
	}

	pair, err := m.sign(userID, username)
	if err != nil {
		return models.TokenPair{}, err
	}

	if err := m.store.SetRefreshToken(ctx, userID, pair.RefreshToken); err != nil {
		return models.TokenPair{}, err
	}

	return pair, nil
}

// Rotate mints a new token pair and swaps it in with a compare-and-swap
// against the presented refresh token. When two refreshes race on the same
// stale token, at most one wins; the rest observe ErrTokenMismatch.
func (m *Manager) Rotate(ctx context.Context, userID, username, presented string) (models.TokenPair, error) {
	if presented == "" {
		return models.TokenPair{}, ErrTokenInvalid
	}

	pair, err := m.sign(userID, username)
	if err != nil {
		return models.TokenPair{}, err
	}

	if err := m.store.SwapRefreshToken(ctx, userID, presented, pair.RefreshToken); err != nil {
		return models.TokenPair{}, err
	}

	return pair, nil
}

// Revoke clears the persisted refresh token for the user. Idempotent: revoking
// an already revoked session succeeds. Outstanding access tokens remain valid
// until their own expiry; they are not individually revocable.
func (m *Manager) Revoke(ctx context.Context, userID string) error {
	return m.store.ClearRefreshToken(ctx, userID)
}

// VerifyAccess validates an access token's signature and expiry and returns
// its claims.
func (m *Manager) VerifyAccess(token string) (AccessClaims, error) {
	var claims AccessClaims
	if err := m.parse(token, &claims, m.cfg.AccessSecret); err != nil {
		return AccessClaims{}, err
	}
	if claims.UserID == "" {
		return AccessClaims{}, ErrTokenInvalid
	}
	return claims, nil
}

// ParseRefresh validates a refresh token's signature and expiry and returns
// its claims. It does not consult the store; callers must still Rotate to
// enforce the single-valid-token invariant.
func (m *Manager) ParseRefresh(token string) (RefreshClaims, error) {
	var claims RefreshClaims
	if err := m.parse(token, &claims, m.cfg.RefreshSecret); err != nil {
		return RefreshClaims{}, err
	}
	if claims.UserID == "" {
		return RefreshClaims{}, ErrTokenInvalid
	}
	return claims, nil
}

func (m *Manager) sign(userID, username string) (models.TokenPair, error) {
	now := m.now()
	accessExpiry := now.Add(m.cfg.AccessTTL)
	refreshExpiry := now.Add(m.cfg.RefreshTTL)

	access := jwt.NewWithClaims(jwt.SigningMethodHS256, AccessClaims{
		UserID:   userID,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(accessExpiry),
		},
	})
	accessToken, err := access.SignedString(m.cfg.AccessSecret)
	if err != nil {
		return models.TokenPair{}, err
	}

	refresh := jwt.NewWithClaims(jwt.SigningMethodHS256, RefreshClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(refreshExpiry),
		},
	})
	refreshToken, err := refresh.SignedString(m.cfg.RefreshSecret)
	if err != nil {
		return models.TokenPair{}, err
	}

	return models.TokenPair{
		AccessToken:      accessToken,
		AccessExpiresAt:  accessExpiry,
		RefreshToken:     refreshToken,
		RefreshExpiresAt: refreshExpiry,
	}, nil
}

func (m *Manager) parse(token string, claims jwt.Claims, secret []byte) error {
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return secret, nil
	}, jwt.WithTimeFunc(m.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrTokenExpired
		}
		return ErrTokenInvalid
	}
	if !parsed.Valid {
		return ErrTokenInvalid
	}
	return nil
}
