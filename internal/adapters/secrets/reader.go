package secrets

import (
	"context"
	"fmt"

	"github.com/kevin07696/square-checkout/internal/domain/ports"
)

// Backend names accepted by NewReader
const (
	BackendEnv   = "env"
	BackendLocal = "local"
	BackendAWS   = "aws"
	BackendVault = "vault"
)

// Config selects and configures a secret backend
type Config struct {
	Backend  string
	LocalDir string
	AWS      AWSConfig
	Vault    VaultConfig
}

// NewReader creates the ports.SecretReader for cfg.Backend
func NewReader(ctx context.Context, cfg Config, logger ports.Logger) (ports.SecretReader, error) {
	switch cfg.Backend {
	case "", BackendEnv:
		return EnvReader{}, nil
	case BackendLocal:
		return NewLocalReader(cfg.LocalDir, logger), nil
	case BackendAWS:
		return NewAWSReader(ctx, cfg.AWS, logger)
	case BackendVault:
		return NewVaultReader(ctx, cfg.Vault, logger)
	default:
		return nil, fmt.Errorf("unsupported secrets backend: %s", cfg.Backend)
	}
}
