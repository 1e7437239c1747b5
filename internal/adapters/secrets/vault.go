package secrets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	vault "github.com/hashicorp/vault/api"
	"github.com/kevin07696/square-checkout/internal/domain/ports"
)

// VaultConfig contains configuration for the HashiCorp Vault reader
type VaultConfig struct {
	// Vault server address (e.g., "https://vault.example.com:8200")
	Address string

	// Authentication method: "token" or "approle"
	AuthMethod string
	Token      string
	RoleID     string
	SecretID   string

	// Vault namespace (Vault Enterprise)
	Namespace string

	// KV secrets engine mount path (default: "secret")
	MountPath string

	// KV version: "v1" or "v2" (default: "v2")
	KVVersion string

	// CacheTTL <= 0 disables caching
	CacheTTL time.Duration

	TLSSkipVerify bool
}

// DefaultVaultConfig returns default configuration for the Vault reader
func DefaultVaultConfig(address string) VaultConfig {
	return VaultConfig{
		Address:    address,
		AuthMethod: "token",
		MountPath:  "secret",
		KVVersion:  "v2",
		CacheTTL:   5 * time.Minute,
	}
}

// VaultReader implements ports.SecretReader for a Vault KV engine
type VaultReader struct {
	client *vault.Client
	config VaultConfig
	logger ports.Logger
	cache  *secretCache
}

// NewVaultReader creates and authenticates a Vault reader
func NewVaultReader(ctx context.Context, cfg VaultConfig, logger ports.Logger) (*VaultReader, error) {
	if cfg.MountPath == "" {
		cfg.MountPath = "secret"
	}
	if cfg.KVVersion == "" {
		cfg.KVVersion = "v2"
	}

	vaultConfig := vault.DefaultConfig()
	vaultConfig.Address = cfg.Address
	if cfg.TLSSkipVerify {
		if err := vaultConfig.ConfigureTLS(&vault.TLSConfig{Insecure: true}); err != nil {
			return nil, fmt.Errorf("failed to configure TLS: %w", err)
		}
	}

	client, err := vault.NewClient(vaultConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Vault client: %w", err)
	}
	if cfg.Namespace != "" {
		client.SetNamespace(cfg.Namespace)
	}

	if err := authenticateVault(ctx, client, cfg); err != nil {
		return nil, fmt.Errorf("failed to authenticate with Vault: %w", err)
	}

	logger.Info("Vault reader initialized",
		ports.String("address", cfg.Address),
		ports.String("auth_method", cfg.AuthMethod),
		ports.String("mount_path", cfg.MountPath),
		ports.String("kv_version", cfg.KVVersion))

	return &VaultReader{
		client: client,
		config: cfg,
		logger: logger,
		cache:  newSecretCache(cfg.CacheTTL),
	}, nil
}

func authenticateVault(ctx context.Context, client *vault.Client, cfg VaultConfig) error {
	switch cfg.AuthMethod {
	case "", "token":
		if cfg.Token == "" {
			return errors.New("token is required for token auth")
		}
		client.SetToken(cfg.Token)
		return nil

	case "approle":
		if cfg.RoleID == "" || cfg.SecretID == "" {
			return errors.New("role_id and secret_id are required for AppRole auth")
		}
		resp, err := client.Logical().WriteWithContext(ctx, "auth/approle/login", map[string]interface{}{
			"role_id":   cfg.RoleID,
			"secret_id": cfg.SecretID,
		})
		if err != nil {
			return fmt.Errorf("AppRole login failed: %w", err)
		}
		if resp == nil || resp.Auth == nil {
			return errors.New("AppRole login returned no auth info")
		}
		client.SetToken(resp.Auth.ClientToken)
		return nil

	default:
		return fmt.Errorf("unsupported auth method: %s", cfg.AuthMethod)
	}
}

// GetSecret reads path under the configured mount
// A "value" key holds the secret; without one the whole data map is returned as JSON
func (r *VaultReader) GetSecret(ctx context.Context, path string) (*ports.Secret, error) {
	if cached := r.cache.get(path); cached != nil {
		r.logger.Debug("secret retrieved from cache", ports.String("path", path))
		return cached, nil
	}

	fullPath := fmt.Sprintf("%s/%s", r.config.MountPath, path)
	if r.config.KVVersion == "v2" {
		fullPath = fmt.Sprintf("%s/data/%s", r.config.MountPath, path)
	}

	secret, err := r.client.Logical().ReadWithContext(ctx, fullPath)
	if err != nil {
		r.logger.Error("failed to retrieve secret from Vault",
			ports.String("path", path),
			ports.Err(err))
		return nil, fmt.Errorf("failed to read secret from Vault: %w", err)
	}
	if secret == nil || secret.Data == nil {
		return nil, fmt.Errorf("%w: %s", ErrSecretNotFound, path)
	}

	data := secret.Data
	version := "1"
	createdAt := ""
	if r.config.KVVersion == "v2" {
		inner, ok := secret.Data["data"].(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("invalid secret format from Vault at %s", path)
		}
		data = inner
		if metadata, ok := secret.Data["metadata"].(map[string]interface{}); ok {
			if v, ok := metadata["version"].(json.Number); ok {
				version = v.String()
			}
			if ct, ok := metadata["created_time"].(string); ok {
				createdAt = ct
			}
		}
	}

	value, err := vaultValue(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", err, path)
	}

	result := &ports.Secret{
		Value:     value,
		Version:   version,
		CreatedAt: createdAt,
		Metadata:  make(map[string]string),
	}
	for k, v := range data {
		if str, ok := v.(string); ok && k != "value" {
			result.Metadata[k] = str
		}
	}

	r.cache.set(path, result)
	return result, nil
}

func vaultValue(data map[string]interface{}) (string, error) {
	if val, ok := data["value"].(string); ok && val != "" {
		return val, nil
	}
	if len(data) == 0 {
		return "", ErrSecretNotFound
	}
	encoded, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("encode secret data: %w", err)
	}
	return string(encoded), nil
}
