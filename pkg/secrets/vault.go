package secrets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"chat-sentiment/backend/pkg/config"
	"chat-sentiment/backend/pkg/logger"

	vault "github.com/hashicorp/vault/api"
)

const kvMount = "secret"

// VaultManager reads secrets from a Vault KV v2 mount with a fallback to
// environment variables. Values are cached until the cache is cleared.
type VaultManager struct {
	client   *vault.Client
	config   config.SecretsConfig
	cache    map[string]string
	mu       sync.RWMutex
	log      *logger.Logger
	cacheTTL time.Duration
}

// NewVaultManager creates a manager. When Vault is disabled only the
// environment is consulted.
func NewVaultManager(cfg config.SecretsConfig, log *logger.Logger) (*VaultManager, error) {
	if log == nil {
		log = logger.GetGlobal()
	}
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	manager := &VaultManager{
		config:   cfg,
		cache:    make(map[string]string),
		log:      log.WithComponent("secrets"),
		cacheTTL: ttl,
	}
	if !cfg.VaultEnabled {
		return manager, nil
	}

	if cfg.VaultAddr == "" {
		return nil, ErrNoVaultAddress
	}
	if cfg.VaultToken == "" {
		return nil, ErrNoVaultToken
	}

	vaultConfig := vault.DefaultConfig()
	vaultConfig.Address = cfg.VaultAddr
	vaultConfig.Timeout = 10 * time.Second
	vaultConfig.MaxRetries = 3

	client, err := vault.NewClient(vaultConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}
	client.SetToken(cfg.VaultToken)
	manager.client = client

	return manager, nil
}

// Start clears the cache every TTL until ctx is done.
func (m *VaultManager) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(m.cacheTTL)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.mu.Lock()
				m.cache = make(map[string]string)
				m.mu.Unlock()
				m.log.Debug("Secret cache cleared")
			}
		}
	}()
}

// GetSecret retrieves a secret from Vault, with fallback to environment variable
func (m *VaultManager) GetSecret(ctx context.Context, key string) (string, error) {
	m.mu.RLock()
	cachedValue, found := m.cache[key]
	m.mu.RUnlock()
	if found {
		return cachedValue, nil
	}

	if m.client == nil {
		return m.getFromEnvironment(key)
	}

	value, err := m.getFromVault(ctx, key)
	if err != nil {
		if errors.Is(err, ErrSecretNotFound) {
			m.log.Debug("Secret not found in Vault, falling back to environment", "key", key)
			return m.getFromEnvironment(key)
		}
		return "", err
	}

	m.cacheSecret(key, value)
	return value, nil
}

// GetSecretWithDefault retrieves a secret with a default value if not found
func (m *VaultManager) GetSecretWithDefault(ctx context.Context, key, defaultValue string) string {
	value, err := m.GetSecret(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrSecretNotFound) {
			m.log.Warn("Failed to get secret, using default value",
				"key", key,
				"error", err.Error(),
			)
		}
		return defaultValue
	}
	return value
}

func (m *VaultManager) getFromVault(ctx context.Context, key string) (string, error) {
	secret, err := m.client.KVv2(kvMount).Get(ctx, m.config.VaultPath)
	if err != nil {
		if errors.Is(err, vault.ErrSecretNotFound) {
			return "", ErrSecretNotFound
		}
		return "", fmt.Errorf("failed to read secret %s/%s: %w", kvMount, m.config.VaultPath, err)
	}
	if secret == nil || secret.Data == nil {
		return "", ErrSecretNotFound
	}

	// KVSecret.Data already holds the inner "data" map.
	value, ok := secret.Data[key].(string)
	if !ok {
		return "", ErrSecretNotFound
	}
	return value, nil
}

func (m *VaultManager) getFromEnvironment(key string) (string, error) {
	envKey := strings.ToUpper(strings.NewReplacer("-", "_", ".", "_").Replace(key))

	value := os.Getenv(envKey)
	if value == "" {
		return "", ErrSecretNotFound
	}

	m.cacheSecret(key, value)
	return value, nil
}

func (m *VaultManager) cacheSecret(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache[key] = value
}
