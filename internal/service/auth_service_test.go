package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/lumilearn/assess-backend/internal/config"
	"github.com/lumilearn/assess-backend/internal/model"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthFixture(t *testing.T) (*AuthService, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := &config.Config{
		JWTSecret:  "test-secret",
		JWTExpiry:  time.Hour,
		BcryptCost: 4, // minimum cost keeps the tests fast
	}
	return NewAuthService(cfg, nil, rdb), rdb
}

func TestHashAndCheckPassword(t *testing.T) {
	svc, _ := newAuthFixture(t)

	hash, err := svc.HashPassword("s3cret")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret", hash)

	assert.NoError(t, svc.CheckPassword(hash, "s3cret"))
	assert.ErrorIs(t, svc.CheckPassword(hash, "wrong"), ErrInvalidCredentials)
}

func TestGenerateTokenRoundTrip(t *testing.T) {
	svc, _ := newAuthFixture(t)
	user := &model.User{ID: 7, Role: model.RoleCreator}

	token, err := svc.GenerateToken(context.Background(), user)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, 7, claims.UserID)
	assert.Equal(t, model.RoleCreator, claims.Role)
	assert.NotEmpty(t, claims.ID)
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	svc, _ := newAuthFixture(t)
	user := &model.User{ID: 7, Role: model.RoleCreator}

	token, err := svc.GenerateToken(context.Background(), user)
	require.NoError(t, err)

	other, _ := newAuthFixture(t)
	other.cfg.JWTSecret = "different-secret"
	_, err = other.ValidateToken(token)
	assert.Error(t, err)
}

func TestCandidateSingleDeviceLogin(t *testing.T) {
	svc, _ := newAuthFixture(t)
	user := &model.User{ID: 42, Role: model.RoleCandidate}

	// First device logs in.
	token, err := svc.GenerateToken(context.Background(), user)
	require.NoError(t, err)
	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	require.NoError(t, svc.ValidateCandidateLogin(context.Background(), 42, claims.ID))

	// Second device is rejected while the first login is active.
	_, err = svc.GenerateToken(context.Background(), user)
	assert.ErrorIs(t, err, ErrLoginAlreadyActive)
}

func TestLogoutFreesCandidateLogin(t *testing.T) {
	svc, _ := newAuthFixture(t)
	user := &model.User{ID: 42, Role: model.RoleCandidate}

	first, err := svc.GenerateToken(context.Background(), user)
	require.NoError(t, err)
	firstClaims, err := svc.ValidateToken(first)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), 42))

	// A new device can log in, and the old token's JTI no longer validates.
	second, err := svc.GenerateToken(context.Background(), user)
	require.NoError(t, err)
	secondClaims, err := svc.ValidateToken(second)
	require.NoError(t, err)

	assert.NoError(t, svc.ValidateCandidateLogin(context.Background(), 42, secondClaims.ID))
	assert.Error(t, svc.ValidateCandidateLogin(context.Background(), 42, firstClaims.ID))
}

func TestCreatorLoginIsNotSingleDevice(t *testing.T) {
	svc, rdb := newAuthFixture(t)
	user := &model.User{ID: 9, Role: model.RoleCreator}

	_, err := svc.GenerateToken(context.Background(), user)
	require.NoError(t, err)
	_, err = svc.GenerateToken(context.Background(), user)
	require.NoError(t, err)

	// Creators never register a login key.
	exists, err := rdb.Exists(context.Background(), config.CacheKey.CandidateLoginKey(9)).Result()
	require.NoError(t, err)
	assert.Zero(t, exists)
}
