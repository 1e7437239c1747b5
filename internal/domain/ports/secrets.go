package ports

import (
	"context"
)

// Secret represents a retrieved secret with metadata
type Secret struct {
	Value     string            // The secret value (JSON credential document or plain token)
	Version   string            // Secret version identifier
	Metadata  map[string]string // Additional secret metadata
	CreatedAt string            // When this version was created
}

// SecretReader retrieves secrets from a secret management backend
// Implementations: AWS Secrets Manager, HashiCorp Vault, local files
// Path format depends on the backend:
//   - AWS: "square-checkout/credentials" or a full ARN
//   - Vault: "square-checkout/credentials" under the configured KV mount
//   - Local: a file path relative to the configured directory
type SecretReader interface {
	GetSecret(ctx context.Context, path string) (*Secret, error)
}
