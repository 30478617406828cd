package service

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"atlantic-photo/internal/auth"
	"atlantic-photo/internal/cache"
	"atlantic-photo/internal/event"
	"atlantic-photo/internal/model"
)

// AuthService owns the session lifecycle: signup, login, refresh-token
// rotation, logout and access-token resolution. Token subjects are emails.
type AuthService struct {
	users    UserStore
	sessions SessionStore
	hasher   *auth.PasswordHasher
	tokens   *auth.TokenService
	cache    cache.IdentityCache
	bus      event.Bus
}

func NewAuthService(users UserStore, sessions SessionStore, hasher *auth.PasswordHasher, tokens *auth.TokenService, identities cache.IdentityCache, bus event.Bus) *AuthService {
	return &AuthService{
		users:    users,
		sessions: sessions,
		hasher:   hasher,
		tokens:   tokens,
		cache:    identities,
		bus:      bus,
	}
}

func (s *AuthService) Signup(ctx context.Context, req model.SignupRequest) (model.User, error) {
	req, err := validateSignup(req)
	if err != nil {
		return model.User{}, err
	}

	if _, err := s.users.FindByEmail(ctx, req.Email); err == nil {
		return model.User{}, fmt.Errorf("email %s: %w", req.Email, model.ErrConflict)
	} else if !errors.Is(err, model.ErrNotFound) {
		return model.User{}, err
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return model.User{}, err
	}

	avatar := gravatarURL(req.Email)
	user, err := s.users.Create(ctx, model.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		Avatar:       &avatar,
		Role:         model.RoleUser,
	})
	if err != nil {
		return model.User{}, err
	}

	s.bus.Publish(event.New(event.TypeUserSignedUp, user.ID, user.Email, userResource(user.ID), map[string]any{
		"username": user.Username,
		"role":     user.Role,
	}))
	return user, nil
}

// Login verifies credentials and starts a new session. Unknown emails and
// wrong passwords return the same error.
func (s *AuthService) Login(ctx context.Context, email string, password string) (model.TokenPair, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, model.ErrNotFound) {
		return model.TokenPair{}, err
	}
	if err != nil || !s.hasher.Verify(password, user.PasswordHash) {
		s.bus.Publish(event.New(event.TypeLoginFailed, user.ID, email, "", nil))
		return model.TokenPair{}, model.ErrInvalidCredentials
	}

	pair, err := s.tokens.IssuePair(user.Email)
	if err != nil {
		return model.TokenPair{}, err
	}

	if err := s.sessions.Set(ctx, user.ID, pair.RefreshToken); err != nil {
		return model.TokenPair{}, err
	}
	user.Status = true
	s.cacheIdentity(ctx, user)

	s.bus.Publish(event.New(event.TypeLogin, user.ID, user.Email, userResource(user.ID), nil))
	return pair, nil
}

// Refresh rotates the refresh token. A token that is not the stored one is
// treated as a replay: the session is revoked and the caller must log in
// again.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (model.TokenPair, error) {
	user, err := s.sessionOwner(ctx, refreshToken)
	if err != nil {
		return model.TokenPair{}, err
	}

	if user.RefreshToken == nil || *user.RefreshToken != refreshToken {
		return model.TokenPair{}, s.revokeReplayed(ctx, user)
	}

	pair, err := s.tokens.IssuePair(user.Email)
	if err != nil {
		return model.TokenPair{}, err
	}

	swapped, err := s.sessions.Swap(ctx, user.ID, refreshToken, pair.RefreshToken)
	if err != nil {
		return model.TokenPair{}, err
	}
	if !swapped {
		return model.TokenPair{}, s.revokeReplayed(ctx, user)
	}

	s.bus.Publish(event.New(event.TypeTokenRefreshed, user.ID, user.Email, userResource(user.ID), nil))
	return pair, nil
}

func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	user, err := s.sessionOwner(ctx, refreshToken)
	if err != nil {
		return err
	}

	if !user.Status {
		return model.ErrAlreadyLoggedOut
	}
	if user.RefreshToken == nil || *user.RefreshToken != refreshToken {
		return model.ErrUnauthenticated
	}

	ended, err := s.sessions.EndSession(ctx, user.ID, refreshToken)
	if err != nil {
		return err
	}
	if !ended {
		return model.ErrUnauthenticated
	}
	user.Status = false
	user.RefreshToken = nil
	s.cacheIdentity(ctx, user)

	s.bus.Publish(event.New(event.TypeLogout, user.ID, user.Email, userResource(user.ID), nil))
	return nil
}

// ResolveIdentity maps an access token to its active user. Token and account
// problems are reported as model.ErrUnauthenticated; store failures are
// returned as is.
func (s *AuthService) ResolveIdentity(ctx context.Context, accessToken string) (model.User, error) {
	subject, err := s.tokens.Decode(accessToken, model.ScopeAccessToken)
	if err != nil {
		return model.User{}, model.ErrUnauthenticated
	}

	user, hit, err := s.cache.Get(ctx, subject)
	if err != nil {
		slog.Warn("identity cache read failed", "error", err)
	}

	if !hit {
		user, err = s.users.FindByEmail(ctx, subject)
		if errors.Is(err, model.ErrNotFound) {
			return model.User{}, model.ErrUnauthenticated
		}
		if err != nil {
			return model.User{}, err
		}

		if err := s.cache.Put(ctx, subject, user); err != nil {
			slog.Warn("identity cache write failed", "error", err)
		}
	}

	if !user.Status {
		return model.User{}, model.ErrUnauthenticated
	}
	return user, nil
}

func (s *AuthService) Me(ctx context.Context, current model.User) (model.User, error) {
	user, err := s.users.FindByID(ctx, current.ID)
	if errors.Is(err, model.ErrNotFound) {
		return model.User{}, model.ErrUnauthenticated
	}
	return user, err
}

func (s *AuthService) Profile(ctx context.Context, username string) (model.UserProfile, error) {
	user, err := s.users.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return model.UserProfile{}, err
	}
	return model.UserProfile{Username: user.Username, PictureCount: user.PictureCount}, nil
}

// sessionOwner decodes a refresh token and loads the user it names.
func (s *AuthService) sessionOwner(ctx context.Context, refreshToken string) (model.User, error) {
	subject, err := s.tokens.Decode(refreshToken, model.ScopeRefreshToken)
	if err != nil {
		return model.User{}, model.ErrUnauthenticated
	}

	user, err := s.users.FindByEmail(ctx, subject)
	if errors.Is(err, model.ErrNotFound) {
		return model.User{}, model.ErrUnauthenticated
	}
	if err != nil {
		return model.User{}, err
	}
	return user, nil
}

func (s *AuthService) revokeReplayed(ctx context.Context, user model.User) error {
	if err := s.sessions.Clear(ctx, user.ID); err != nil {
		slog.Error("failed to clear replayed refresh token", "user_id", user.ID, "error", err)
	}
	s.evict(ctx, user.Email)

	s.bus.Publish(event.New(event.TypeRefreshReplayed, user.ID, user.Email, userResource(user.ID), nil))
	return model.ErrUnauthenticated
}

// cacheIdentity overwrites the cached identity with the user's new state and
// falls back to eviction when the write fails.
func (s *AuthService) cacheIdentity(ctx context.Context, user model.User) {
	if err := s.cache.Put(ctx, user.Email, user); err != nil {
		slog.Warn("identity cache write failed", "error", err)
		s.evict(ctx, user.Email)
	}
}

func (s *AuthService) evict(ctx context.Context, subject string) {
	if err := s.cache.Delete(ctx, subject); err != nil {
		slog.Warn("identity cache eviction failed", "error", err)
	}
}

func userResource(id int64) string {
	return "user:" + strconv.FormatInt(id, 10)
}

func gravatarURL(email string) string {
	sum := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(email))))
	return "https://www.gravatar.com/avatar/" + hex.EncodeToString(sum[:]) + "?d=identicon"
}
