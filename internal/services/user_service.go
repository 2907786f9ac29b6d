package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"moneybook/internal/auth"
	"moneybook/internal/core"
	"moneybook/internal/store"
)

type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// PreferencesInput is a partial update; nil fields are left unchanged.
type PreferencesInput struct {
	Currency *string
	Locale   *string
	Theme    *string
}

type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      core.User
}

type UserService struct {
	store  store.UserStore
	issuer *auth.Issuer
}

func NewUserService(s store.UserStore, issuer *auth.Issuer) *UserService {
	return &UserService{store: s, issuer: issuer}
}

func (s *UserService) Register(ctx context.Context, in RegisterInput) (core.User, error) {
	u := core.User{
		Username:    strings.TrimSpace(in.Username),
		Email:       strings.ToLower(strings.TrimSpace(in.Email)),
		Preferences: core.DefaultPreferences(),
	}
	if err := u.Validate(); err != nil {
		return core.User{}, err
	}
	if err := core.ValidatePassword(in.Password); err != nil {
		return core.User{}, err
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return core.User{}, err
	}
	u.PasswordHash = hash

	created, err := s.store.CreateUser(ctx, u)
	if err != nil {
		return core.User{}, fmt.Errorf("register user: %w", err)
	}
	slog.InfoContext(ctx, "User registered", "user_id", created.ID)
	return created, nil
}

// Login checks the credentials and issues a bearer token. Unknown e-mails
// and wrong passwords produce the same error.
func (s *UserService) Login(ctx context.Context, email, password string) (LoginResult, error) {
	u, err := s.store.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, store.ErrNotFound) {
		return LoginResult{}, auth.ErrInvalidCredentials
	}
	if err != nil {
		return LoginResult{}, fmt.Errorf("login: %w", err)
	}
	if err := auth.CheckPassword(u.PasswordHash, password); err != nil {
		slog.WarnContext(ctx, "Failed login attempt", "user_id", u.ID)
		return LoginResult{}, err
	}

	token, exp, err := s.issuer.Issue(u.ID)
	if err != nil {
		return LoginResult{}, err
	}
	return LoginResult{Token: token, ExpiresAt: exp, User: u}, nil
}

func (s *UserService) Profile(ctx context.Context, userID int64) (core.User, error) {
	u, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return core.User{}, fmt.Errorf("profile: %w", err)
	}
	return u, nil
}

func (s *UserService) Preferences(ctx context.Context, userID int64) (core.Preferences, error) {
	u, err := s.Profile(ctx, userID)
	if err != nil {
		return core.Preferences{}, err
	}
	return u.Preferences, nil
}

func (s *UserService) UpdatePreferences(ctx context.Context, userID int64, in PreferencesInput) (core.Preferences, error) {
	prefs, err := s.Preferences(ctx, userID)
	if err != nil {
		return core.Preferences{}, err
	}
	if in.Currency != nil {
		c, err := core.ParseCurrency(*in.Currency)
		if err != nil {
			return core.Preferences{}, err
		}
		prefs.Currency = c
	}
	if in.Locale != nil {
		l, err := core.ParseLocale(*in.Locale)
		if err != nil {
			return core.Preferences{}, err
		}
		prefs.Locale = l
	}
	if in.Theme != nil {
		th, err := core.ParseTheme(*in.Theme)
		if err != nil {
			return core.Preferences{}, err
		}
		prefs.Theme = th
	}
	if err := prefs.Validate(); err != nil {
		return core.Preferences{}, err
	}
	if err := s.store.UpdatePreferences(ctx, userID, prefs); err != nil {
		return core.Preferences{}, fmt.Errorf("update preferences: %w", err)
	}
	return prefs, nil
}

// Users lists every registered user. The report worker uses it for the
// scheduled roll-up.
func (s *UserService) Users(ctx context.Context) ([]core.User, error) {
	return s.store.ListUsers(ctx)
}
