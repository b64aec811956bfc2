package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/verone/backoffice/internal/infrastructure/config"
)

const testSecret = "test-secret-key-at-least-32-chars"

func newTestJWTService() *JWTService {
	return NewJWTService(config.JWTConfig{Secret: testSecret, Issuer: "backoffice"})
}

func TestJWTService_SignAndAuthenticate(t *testing.T) {
	svc := newTestJWTService()
	userID := uuid.New()

	token, err := svc.Sign(userID, "ops@verone.fr", time.Hour)
	require.NoError(t, err)

	actor, err := svc.Authenticate(token)
	require.NoError(t, err)
	assert.Equal(t, userID, actor.UserID)
	assert.Equal(t, "ops@verone.fr", actor.Email)
}

func TestJWTService_Verify(t *testing.T) {
	userID := uuid.New()

	t.Run("expired", func(t *testing.T) {
		svc := newTestJWTService()
		token, err := svc.Sign(userID, "", time.Minute)
		require.NoError(t, err)

		svc.now = func() time.Time { return time.Now().Add(time.Hour) }
		_, err = svc.Verify(token)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})

	t.Run("clock skew within leeway", func(t *testing.T) {
		svc := newTestJWTService()
		token, err := svc.Sign(userID, "", time.Minute)
		require.NoError(t, err)

		svc.now = func() time.Time { return time.Now().Add(time.Minute + 10*time.Second) }
		_, err = svc.Verify(token)
		assert.NoError(t, err)
	})

	t.Run("not yet valid", func(t *testing.T) {
		svc := newTestJWTService()
		svc.now = func() time.Time { return time.Now().Add(time.Hour) }
		token, err := svc.Sign(userID, "", 2*time.Hour)
		require.NoError(t, err)

		svc.now = time.Now
		_, err = svc.Verify(token)
		assert.ErrorIs(t, err, ErrTokenNotYetValid)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewJWTService(config.JWTConfig{Secret: "another-secret-key-of-enough-size", Issuer: "backoffice"})
		token, err := other.Sign(userID, "", time.Hour)
		require.NoError(t, err)

		_, err = newTestJWTService().Verify(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other := NewJWTService(config.JWTConfig{Secret: testSecret, Issuer: "someone-else"})
		token, err := other.Sign(userID, "", time.Hour)
		require.NoError(t, err)

		_, err = newTestJWTService().Verify(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("issuer check disabled", func(t *testing.T) {
		other := NewJWTService(config.JWTConfig{Secret: testSecret, Issuer: "someone-else"})
		token, err := other.Sign(userID, "", time.Hour)
		require.NoError(t, err)

		_, err = NewJWTService(config.JWTConfig{Secret: testSecret}).Verify(token)
		assert.NoError(t, err)
	})

	t.Run("rejects none algorithm", func(t *testing.T) {
		claims := &Claims{RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			Issuer:    "backoffice",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}}
		token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = newTestJWTService().Verify(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("missing expiry", func(t *testing.T) {
		claims := &Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: userID.String(), Issuer: "backoffice"}}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
		require.NoError(t, err)

		_, err = newTestJWTService().Verify(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := newTestJWTService().Verify("not.a.token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestClaims_Actor(t *testing.T) {
	_, err := (&Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "svc-importer"}}).Actor()
	assert.ErrorIs(t, err, ErrInvalidSubject)

	_, err = (&Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: uuid.Nil.String()}}).Actor()
	assert.ErrorIs(t, err, ErrInvalidSubject)
}
