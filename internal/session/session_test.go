package session

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/ugcmarket/realtime-go/internal/models"
)

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func TestAuthenticated(t *testing.T) {
	var nilSession *Session
	require.False(t, nilSession.Authenticated())
	require.False(t, (&Session{AccessToken: "tok"}).Authenticated())
	require.False(t, (&Session{User: models.UserProfile{ID: "u1"}}).Authenticated())
	require.True(t, (&Session{User: models.UserProfile{ID: "u1"}, AccessToken: "tok"}).Authenticated())
}

func TestStoreNotifiesSubscribers(t *testing.T) {
	store := NewStore(zerolog.Nop())

	var seen []*Session
	cancel := store.Subscribe(func(sess *Session) { seen = append(seen, sess) })

	active := &Session{User: models.UserProfile{ID: "u1"}, AccessToken: "tok"}
	store.Set(active)
	store.Clear()

	require.Len(t, seen, 2)
	require.Equal(t, active, seen[0])
	require.Nil(t, seen[1])

	cancel()
	store.Set(active)
	require.Len(t, seen, 2)
}

func TestParseClaimsExtractsIdentity(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	token := signedToken(t, jwt.MapClaims{
		"sub":  "user-42",
		"role": "creator",
		"exp":  exp.Unix(),
	})

	claims, err := ParseClaims(token)
	require.NoError(t, err)
	require.Equal(t, "user-42", claims.Subject)
	require.Equal(t, "creator", claims.Role)
	require.Equal(t, exp.Unix(), claims.ExpiresAt.Unix())
}

func TestParseClaimsFallsBackThroughSubjectKeys(t *testing.T) {
	token := signedToken(t, jwt.MapClaims{"user_id": "user-7"})

	claims, err := ParseClaims(token)
	require.NoError(t, err)
	require.Equal(t, "user-7", claims.Subject)
}

func TestParseClaimsRejectsGarbage(t *testing.T) {
	_, err := ParseClaims("not-a-token")
	require.Error(t, err)
}

func TestExpired(t *testing.T) {
	now := time.Now()

	live := &Session{
		User:        models.UserProfile{ID: "u1"},
		AccessToken: signedToken(t, jwt.MapClaims{"sub": "u1", "exp": now.Add(time.Hour).Unix()}),
	}
	require.False(t, live.Expired(now))

	stale := &Session{
		User:        models.UserProfile{ID: "u1"},
		AccessToken: signedToken(t, jwt.MapClaims{"sub": "u1", "exp": now.Add(-time.Hour).Unix()}),
	}
	require.True(t, stale.Expired(now))

	var missing *Session
	require.True(t, missing.Expired(now))
}
