package secrets

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"chat-sentiment/backend/pkg/config"
	"chat-sentiment/backend/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVaultDisabledUsesEnvironment(t *testing.T) {
	t.Setenv("DB_PASSWORD", "from-env")

	m, err := NewVaultManager(config.SecretsConfig{}, logger.NewNop())
	require.NoError(t, err)

	value, err := m.GetSecret(context.Background(), KeyDatabasePassword)
	require.NoError(t, err)
	assert.Equal(t, "from-env", value)

	_, err = m.GetSecret(context.Background(), "missing-key")
	assert.ErrorIs(t, err, ErrSecretNotFound)
	assert.Equal(t, "fallback", m.GetSecretWithDefault(context.Background(), "missing-key", "fallback"))
}

func TestVaultEnabledRequiresAddressAndToken(t *testing.T) {
	_, err := NewVaultManager(config.SecretsConfig{VaultEnabled: true, VaultToken: "t"}, logger.NewNop())
	assert.ErrorIs(t, err, ErrNoVaultAddress)

	_, err = NewVaultManager(config.SecretsConfig{VaultEnabled: true, VaultAddr: "http://127.0.0.1:8200"}, logger.NewNop())
	assert.ErrorIs(t, err, ErrNoVaultToken)
}

func TestVaultReadsKVv2(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/secret/data/chat-sentiment" {
			http.NotFound(w, r)
			return
		}
		assert.Equal(t, "root", r.Header.Get("X-Vault-Token"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"data": {
				"data": {"ai_service_token": "s3cret"},
				"metadata": {"created_time": "2024-01-01T00:00:00Z", "deletion_time": "", "destroyed": false, "version": 1}
			}
		}`))
	}))
	defer srv.Close()

	t.Setenv("DB_PASSWORD", "env-password")
	m, err := NewVaultManager(config.SecretsConfig{
		VaultEnabled: true,
		VaultAddr:    srv.URL,
		VaultToken:   "root",
		VaultPath:    "chat-sentiment",
	}, logger.NewNop())
	require.NoError(t, err)

	value, err := m.GetSecret(context.Background(), KeySentimentToken)
	require.NoError(t, err)
	assert.Equal(t, "s3cret", value)

	value, err = m.GetSecret(context.Background(), KeyDatabasePassword)
	require.NoError(t, err)
	assert.Equal(t, "env-password", value)
}
