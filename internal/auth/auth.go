// Package auth implements the login, registration, refresh and logout flows
// against the marketplace API, feeding the shared session store.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/ugcmarket/realtime-go/internal/dto"
	"github.com/ugcmarket/realtime-go/internal/session"
)

// ErrNoRefreshToken indicates a refresh was requested without a stored session.
var ErrNoRefreshToken = errors.New("no refresh token available")

// API is the REST surface the auth flows need.
type API interface {
	Do(ctx context.Context, method, path, token string, body, out any) error
}

// Client drives the auth endpoints and keeps the session store current.
type Client struct {
	api      API
	store    *session.Store
	validate *validator.Validate
	logger   zerolog.Logger
}

// New builds an auth client around the shared REST client and session store.
func New(api API, store *session.Store, validate *validator.Validate, logger zerolog.Logger) *Client {
	return &Client{
		api:      api,
		store:    store,
		validate: validate,
		logger:   logger.With().Str("component", "auth_client").Logger(),
	}
}

// Login exchanges credentials for a session and installs it in the store.
func (c *Client) Login(ctx context.Context, email, password string) (*session.Session, error) {
	payload := dto.LoginRequest{Email: email, Password: password}
	if err := c.validate.Struct(payload); err != nil {
		return nil, fmt.Errorf("invalid login payload: %w", err)
	}

	return c.exchange(ctx, "/api/auth/login", payload)
}

// Register creates an account and installs the resulting session.
func (c *Client) Register(ctx context.Context, payload dto.RegisterRequest) (*session.Session, error) {
	if err := c.validate.Struct(payload); err != nil {
		return nil, fmt.Errorf("invalid register payload: %w", err)
	}

	return c.exchange(ctx, "/api/auth/register", payload)
}

// Refresh trades the stored refresh token for a new session.
func (c *Client) Refresh(ctx context.Context) (*session.Session, error) {
	current := c.store.Current()
	if current == nil || current.RefreshToken == "" {
		return nil, ErrNoRefreshToken
	}

	return c.exchange(ctx, "/api/auth/refresh", dto.RefreshRequest{RefreshToken: current.RefreshToken})
}

// Logout revokes the refresh token server-side and clears the session either
// way; a failed revocation must not leave the client logged in.
func (c *Client) Logout(ctx context.Context) error {
	current := c.store.Current()
	defer c.store.Clear()

	if current == nil {
		return nil
	}

	var body any
	if current.RefreshToken != "" {
		body = dto.RefreshRequest{RefreshToken: current.RefreshToken}
	}

	if err := c.api.Do(ctx, http.MethodPost, "/api/auth/logout", current.AccessToken, body, nil); err != nil {
		c.logger.Warn().Err(err).Msg("logout request failed, clearing session anyway")
		return fmt.Errorf("logout: %w", err)
	}

	return nil
}

func (c *Client) exchange(ctx context.Context, path string, body any) (*session.Session, error) {
	var response dto.AuthResponse
	if err := c.api.Do(ctx, http.MethodPost, path, "", body, &response); err != nil {
		return nil, err
	}

	sess := sessionFromResponse(response)
	if !sess.Authenticated() {
		return nil, fmt.Errorf("auth response from %s carried no usable identity", path)
	}

	c.store.Set(sess)
	c.logger.Info().Str("user_id", sess.User.ID).Str("role", sess.User.Role).Msg("session established")

	return sess, nil
}

// sessionFromResponse maps the token bundle into a session, backfilling the
// identity from token claims when the response user object is incomplete.
func sessionFromResponse(response dto.AuthResponse) *session.Session {
	profile := dto.NewUserProfile(response.User)
	if profile.Role == "" {
		profile.Role = response.UserRole
	}

	if profile.ID == "" || profile.Role == "" {
		if claims, err := session.ParseClaims(response.AccessToken); err == nil {
			if profile.ID == "" {
				profile.ID = claims.Subject
			}
			if profile.Role == "" {
				profile.Role = claims.Role
			}
		}
	}

	return &session.Session{
		User:         profile,
		AccessToken:  response.AccessToken,
		RefreshToken: response.RefreshToken,
		TokenType:    response.TokenType,
	}
}
