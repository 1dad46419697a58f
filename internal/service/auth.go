// Package service contains the business logic, sitting between the HTTP
// handlers and the repository/auth packages.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/pupaakdev/userd/internal/apperror"
	"github.com/pupaakdev/userd/internal/auth"
	"github.com/pupaakdev/userd/internal/model"
	"github.com/pupaakdev/userd/internal/repository"
)

// AuthService orchestrates registration, password login, and the GitHub
// account-linking flow against the user directory, hasher, and token
// service.
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

// NewAuthService creates an AuthService with all dependencies injected.
func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// RegisterParams are the inputs to Register.
type RegisterParams struct {
	Username string
	FullName string
	Email    string
	Password string
}

// LoginResult is returned by Login: the issued bearer token plus the fields
// the frontend displays.
type LoginResult struct {
	Message     string `json:"message"`
	Username    string `json:"username"`
	AccessToken string `json:"accessToken"`
	TokenType   string `json:"tokenType"`
}

// AuthResult is returned by the OAuth linking flow.
type AuthResult struct {
	User  *model.User
	Token string
}

// Register creates a local account.
//
// The username and email pre-checks give precise Conflict messages, but the
// store's unique constraints remain the authoritative guard: a concurrent
// registration that slips past the checks still fails the Create with
// Conflict. The returned view carries no credential material.
func (s *AuthService) Register(ctx context.Context, p RegisterParams) (*model.PublicUser, error) {
	if _, err := s.users.GetByUsername(ctx, p.Username); err == nil {
		return nil, apperror.Conflict("username", p.Username)
	} else if !errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("service/auth: checking username %q: %w", p.Username, err)
	}

	if _, err := s.users.GetByEmail(ctx, p.Email); err == nil {
		return nil, apperror.Conflict("email", p.Email)
	} else if !errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("service/auth: checking email %q: %w", p.Email, err)
	}

	hashed, err := s.passwords.Hash(p.Password)
	if err != nil {
		return nil, fmt.Errorf("service/auth: hashing password: %w", err)
	}

	user := &model.User{
		Username:       p.Username,
		FullName:       p.FullName,
		Email:          p.Email,
		HashedPassword: hashed,
		AuthProvider:   model.ProviderLocal,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user registered",
		slog.String("userID", user.ID),
		slog.String("username", user.Username),
	)

	return &model.PublicUser{Username: user.Username, Email: user.Email}, nil
}

// Login verifies a username/password pair and issues an access token.
//
// Every failure path (unknown username, wrong password, provider-only
// account with no password hash) returns the same Unauthorized value, so
// responses can't be used as an account-existence oracle.
func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	badCredentials := apperror.Unauthorized("invalid username or password")

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, badCredentials
		}
		return nil, fmt.Errorf("service/auth: looking up user %q: %w", username, err)
	}

	if !s.passwords.Verify(user.HashedPassword, password) {
		return nil, badCredentials
	}

	token, err := s.tokens.Issue(user.Username, user.Email)
	if err != nil {
		return nil, fmt.Errorf("service/auth: issuing token for %q: %w", username, err)
	}

	s.logger.Info("user logged in", slog.String("username", user.Username))

	return &LoginResult{
		Message:     "Login successful!",
		Username:    user.Username,
		AccessToken: token,
		TokenType:   "bearer",
	}, nil
}

// LoginOrLinkGitHub resolves a GitHub identity to a local account and
// issues a token. Resolution order:
//
//  1. by external id: a returning federated user, used as-is
//  2. by verified email: an existing local account, linked in place
//     (external id, avatar, provider set; username and password untouched)
//  3. otherwise a new provider-only account is created with the username
//     derived from the email's local part and no password hash
func (s *AuthService) LoginOrLinkGitHub(ctx context.Context, profile *auth.Profile) (*AuthResult, error) {
	if profile == nil {
		return nil, fmt.Errorf("service/auth: GitHub profile must not be nil")
	}

	externalID := strconv.FormatInt(profile.ID, 10)

	user, err := s.users.GetByExternalID(ctx, externalID)
	switch {
	case err == nil:
		// returning federated user

	case errors.Is(err, apperror.ErrNotFound):
		user, err = s.resolveByEmailOrCreate(ctx, profile, externalID)
		if err != nil {
			return nil, err
		}

	default:
		return nil, fmt.Errorf("service/auth: looking up external id %s: %w", externalID, err)
	}

	token, err := s.tokens.Issue(user.Username, user.Email)
	if err != nil {
		return nil, fmt.Errorf("service/auth: issuing token for %q: %w", user.Username, err)
	}

	s.logger.Info("user authenticated via GitHub",
		slog.String("userID", user.ID),
		slog.String("username", user.Username),
	)

	return &AuthResult{User: user, Token: token}, nil
}

func (s *AuthService) resolveByEmailOrCreate(ctx context.Context, profile *auth.Profile, externalID string) (*model.User, error) {
	user, err := s.users.GetByEmail(ctx, profile.Email)
	if err == nil {
		// Account linking: attach the provider identity to the existing
		// record. Username and password hash stay as they are.
		user.ExternalID = externalID
		user.AvatarURL = profile.AvatarURL
		user.AuthProvider = model.ProviderGitHub
		if err := s.users.Update(ctx, user); err != nil {
			return nil, fmt.Errorf("service/auth: linking user %s: %w", user.ID, err)
		}

		s.logger.Info("linked GitHub identity to existing account",
			slog.String("userID", user.ID),
			slog.String("externalID", externalID),
		)
		return user, nil
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("service/auth: looking up email %q: %w", profile.Email, err)
	}

	return s.createFromProfile(ctx, profile, externalID)
}

// createFromProfile creates a provider-only account. The username is the
// email's local part; if that name is already taken by a different account,
// we retry once with "<localpart>-<externalID>", which is unique because
// the external id is.
func (s *AuthService) createFromProfile(ctx context.Context, profile *auth.Profile, externalID string) (*model.User, error) {
	username, _, _ := strings.Cut(profile.Email, "@")

	user := &model.User{
		Username:     username,
		FullName:     profile.Name,
		Email:        profile.Email,
		AvatarURL:    profile.AvatarURL,
		AuthProvider: model.ProviderGitHub,
		ExternalID:   externalID,
	}

	err := s.users.Create(ctx, user)
	if err == nil {
		return user, nil
	}

	var appErr *apperror.AppError
	if errors.As(err, &appErr) && errors.Is(err, apperror.ErrConflict) && appErr.Field == "username" {
		user.Username = username + "-" + externalID
		if err := s.users.Create(ctx, user); err != nil {
			return nil, fmt.Errorf("service/auth: creating user %q: %w", user.Username, err)
		}
		return user, nil
	}

	return nil, fmt.Errorf("service/auth: creating user %q: %w", username, err)
}
