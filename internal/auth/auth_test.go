package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/ugcmarket/realtime-go/internal/dto"
	"github.com/ugcmarket/realtime-go/internal/models"
	"github.com/ugcmarket/realtime-go/internal/session"
)

type stubAPI struct {
	doFn  func(ctx context.Context, method, path, token string, body, out any) error
	calls []string
}

func (s *stubAPI) Do(ctx context.Context, method, path, token string, body, out any) error {
	s.calls = append(s.calls, method+" "+path)
	if s.doFn != nil {
		return s.doFn(ctx, method, path, token, body, out)
	}
	return nil
}

func respondAuth(out any, response dto.AuthResponse) {
	data, _ := json.Marshal(response)
	_ = json.Unmarshal(data, out)
}

func signedAccessToken(t *testing.T, subject, role string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  subject,
		"role": role,
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

func newTestClient(api API) (*Client, *session.Store) {
	store := session.NewStore(zerolog.Nop())
	validate := validator.New(validator.WithRequiredStructEnabled())
	return New(api, store, validate, zerolog.Nop()), store
}

func TestLoginInstallsSession(t *testing.T) {
	fullName := "Ana Brand"
	api := &stubAPI{doFn: func(_ context.Context, method, path, token string, _, out any) error {
		require.Equal(t, http.MethodPost, method)
		require.Equal(t, "/api/auth/login", path)
		require.Empty(t, token)
		respondAuth(out, dto.AuthResponse{
			AccessToken:  "access-1",
			RefreshToken: "refresh-1",
			TokenType:    "bearer",
			User: dto.AuthUserPayload{
				ID:       "user-1",
				Email:    "ana@example.com",
				FullName: &fullName,
				Role:     "brand",
			},
		})
		return nil
	}}
	client, store := newTestClient(api)

	sess, err := client.Login(context.Background(), "ana@example.com", "secret1")
	require.NoError(t, err)
	require.Equal(t, "user-1", sess.User.ID)
	require.Equal(t, "brand", sess.User.Role)
	require.Same(t, sess, store.Current())
}

func TestLoginRejectsInvalidCredentialsLocally(t *testing.T) {
	api := &stubAPI{}
	client, store := newTestClient(api)

	_, err := client.Login(context.Background(), "not-an-email", "secret1")
	require.Error(t, err)
	require.Empty(t, api.calls)
	require.Nil(t, store.Current())
}

func TestLoginBackfillsIdentityFromClaims(t *testing.T) {
	access := signedAccessToken(t, "user-9", "creator")
	api := &stubAPI{doFn: func(_ context.Context, _, _, _ string, _, out any) error {
		respondAuth(out, dto.AuthResponse{
			AccessToken:  access,
			RefreshToken: "refresh-9",
			TokenType:    "bearer",
		})
		return nil
	}}
	client, _ := newTestClient(api)

	sess, err := client.Login(context.Background(), "nina@example.com", "secret1")
	require.NoError(t, err)
	require.Equal(t, "user-9", sess.User.ID)
	require.Equal(t, "creator", sess.User.Role)
}

func TestLoginRejectsResponseWithoutIdentity(t *testing.T) {
	api := &stubAPI{doFn: func(_ context.Context, _, _, _ string, _, out any) error {
		respondAuth(out, dto.AuthResponse{AccessToken: "opaque-token"})
		return nil
	}}
	client, store := newTestClient(api)

	_, err := client.Login(context.Background(), "ana@example.com", "secret1")
	require.Error(t, err)
	require.Nil(t, store.Current())
}

func TestRegisterValidatesRole(t *testing.T) {
	api := &stubAPI{}
	client, _ := newTestClient(api)

	_, err := client.Register(context.Background(), dto.RegisterRequest{
		Email:    "ana@example.com",
		Password: "secret1",
		FullName: "Ana",
		Role:     "admin",
	})
	require.Error(t, err)
	require.Empty(t, api.calls)
}

func TestRefreshRequiresStoredToken(t *testing.T) {
	client, _ := newTestClient(&stubAPI{})

	_, err := client.Refresh(context.Background())
	require.ErrorIs(t, err, ErrNoRefreshToken)
}

func TestRefreshExchangesStoredToken(t *testing.T) {
	var sentBody any
	api := &stubAPI{doFn: func(_ context.Context, _, path, _ string, body, out any) error {
		require.Equal(t, "/api/auth/refresh", path)
		sentBody = body
		respondAuth(out, dto.AuthResponse{
			AccessToken:  "access-2",
			RefreshToken: "refresh-2",
			User:         dto.AuthUserPayload{ID: "user-1", Role: "brand"},
		})
		return nil
	}}
	client, store := newTestClient(api)
	store.Set(&session.Session{
		User:         models.UserProfile{ID: "user-1", Role: "brand"},
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
	})

	sess, err := client.Refresh(context.Background())
	require.NoError(t, err)
	require.Equal(t, dto.RefreshRequest{RefreshToken: "refresh-1"}, sentBody)
	require.Equal(t, "refresh-2", sess.RefreshToken)
	require.Equal(t, "access-2", store.Current().AccessToken)
}

func TestLogoutClearsSessionEvenOnFailure(t *testing.T) {
	api := &stubAPI{doFn: func(_ context.Context, _, path, token string, _, _ any) error {
		require.Equal(t, "/api/auth/logout", path)
		require.Equal(t, "access-1", token)
		return errors.New("server unavailable")
	}}
	client, store := newTestClient(api)
	store.Set(&session.Session{
		User:         models.UserProfile{ID: "user-1", Role: "brand"},
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
	})

	err := client.Logout(context.Background())
	require.Error(t, err)
	require.Nil(t, store.Current())
}

func TestLogoutWithoutSessionIsNoOp(t *testing.T) {
	api := &stubAPI{}
	client, _ := newTestClient(api)

	require.NoError(t, client.Logout(context.Background()))
	require.Empty(t, api.calls)
}
