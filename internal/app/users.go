package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"casaya/pkg/auth"
	"casaya/pkg/domain"
)

// Register creates a user account with the default client role.
func (a *App) Register(ctx context.Context, name, email, phone, password string) (domain.User, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(strings.ToLower(email))
	if name == "" || email == "" || password == "" {
		return domain.User{}, ErrMissingCredentials
	}
	exists, err := a.store.HasUserEmail(email)
	if err != nil {
		return domain.User{}, fmt.Errorf("check email: %w", err)
	}
	if exists {
		return domain.User{}, ErrEmailExists
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}
	user := domain.User{
		Name:         name,
		Email:        email,
		Phone:        strings.TrimSpace(phone),
		PasswordHash: hash,
		Role:         domain.RoleClient,
		RegisteredAt: time.Now().UTC(),
	}
	id, err := a.store.SaveUser(user)
	if err != nil {
		return domain.User{}, fmt.Errorf("save user: %w", err)
	}
	user.ID = id
	return user, nil
}

// Login verifies credentials and issues a session-backed access token.
func (a *App) Login(ctx context.Context, email, password string) (domain.User, string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return domain.User{}, "", ErrMissingCredentials
	}
	user, ok, err := a.store.GetUserByEmail(email)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("lookup user: %w", err)
	}
	if !ok || !auth.CheckPassword(password, user.PasswordHash) {
		return domain.User{}, "", ErrInvalidCredentials
	}
	token, err := a.tokens.Issue(user)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("issue token: %w", err)
	}
	if err := a.sessions.Save(ctx, token, user.ID); err != nil {
		return domain.User{}, "", fmt.Errorf("save session: %w", err)
	}
	return user, token, nil
}

// Logout revokes the session behind a token.
func (a *App) Logout(ctx context.Context, token string) error {
	return a.sessions.Delete(ctx, token)
}

// Authenticate resolves a bearer token to a user ID. The token must carry a
// valid signature and an unexpired, unrevoked session.
func (a *App) Authenticate(ctx context.Context, token string) (uint, error) {
	userID, err := a.tokens.Verify(token)
	if err != nil {
		return 0, auth.ErrInvalidToken
	}
	sessionUser, ok, err := a.sessions.Check(ctx, token)
	if err != nil {
		return 0, fmt.Errorf("check session: %w", err)
	}
	if !ok || sessionUser != userID {
		return 0, auth.ErrInvalidToken
	}
	return userID, nil
}

// GetProfile returns one user's public profile.
func (a *App) GetProfile(ctx context.Context, id uint) (domain.User, error) {
	user, ok, err := a.store.GetUserByID(id)
	if err != nil {
		return domain.User{}, fmt.Errorf("get user: %w", err)
	}
	if !ok {
		return domain.User{}, ErrUserNotFound
	}
	return user, nil
}
