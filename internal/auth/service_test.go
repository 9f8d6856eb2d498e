package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tashmeduni/navbat-back/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{JWTSecret: "test-secret"}
}

func TestTokenRoundTrip(t *testing.T) {
	cfg := testConfig()

	pair, err := IssueTokens(cfg, Identity{ID: 7, Role: RoleStudent, HemisID: "12345678"})
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)

	id, err := ParseToken(cfg, pair.AccessToken, false)
	require.NoError(t, err)
	assert.Equal(t, uint(7), id.ID)
	assert.Equal(t, RoleStudent, id.Role)
	assert.Equal(t, "12345678", id.HemisID)
}

func TestAdminTokenCarriesUsername(t *testing.T) {
	cfg := testConfig()

	pair, err := IssueTokens(cfg, Identity{ID: 1, Role: RoleAdmin, Username: "admin"})
	require.NoError(t, err)

	id, err := ParseToken(cfg, pair.AccessToken, false)
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, id.Role)
	assert.Equal(t, "admin", id.Username)
}

func TestRefreshTokenIsNotAnAccessToken(t *testing.T) {
	cfg := testConfig()

	pair, err := IssueTokens(cfg, Identity{ID: 7, Role: RoleStudent, HemisID: "12345678"})
	require.NoError(t, err)

	_, err = ParseToken(cfg, pair.RefreshToken, false)
	assert.Error(t, err)

	id, err := ParseToken(cfg, pair.RefreshToken, true)
	require.NoError(t, err)
	assert.Equal(t, uint(7), id.ID)

	_, err = ParseToken(cfg, pair.AccessToken, true)
	assert.Error(t, err)
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	pair, err := IssueTokens(testConfig(), Identity{ID: 7, Role: RoleStudent})
	require.NoError(t, err)

	_, err = ParseToken(&config.Config{JWTSecret: "other-secret"}, pair.AccessToken, false)
	assert.Error(t, err)
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	_, err := ParseToken(testConfig(), "not.a.token", false)
	assert.Error(t, err)
}
