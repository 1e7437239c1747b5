package secrets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kevin07696/square-checkout/internal/domain/ports"
)

// ErrSecretNotFound is returned when a backend has no secret at the path
var ErrSecretNotFound = errors.New("secret not found")

// LocalReader implements ports.SecretReader over files in a directory
// For development only; use AWS Secrets Manager or Vault in production
type LocalReader struct {
	basePath string
	logger   ports.Logger
}

// NewLocalReader creates a reader rooted at basePath
func NewLocalReader(basePath string, logger ports.Logger) *LocalReader {
	return &LocalReader{basePath: basePath, logger: logger}
}

// GetSecret reads basePath/secretPath
// Files of the form {"value": "...", "tags": {...}} are unwrapped; anything else is returned verbatim
func (r *LocalReader) GetSecret(ctx context.Context, secretPath string) (*ports.Secret, error) {
	clean := filepath.Clean("/" + secretPath)
	filePath := filepath.Join(r.basePath, clean)

	r.logger.Debug("reading secret from filesystem", ports.String("path", secretPath))

	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrSecretNotFound, secretPath)
		}
		return nil, fmt.Errorf("failed to read secret: %w", err)
	}

	var wrapped struct {
		Value     string            `json:"value"`
		Tags      map[string]string `json:"tags"`
		CreatedAt string            `json:"created_at"`
	}
	if err := json.Unmarshal(data, &wrapped); err == nil && wrapped.Value != "" {
		return &ports.Secret{
			Value:     wrapped.Value,
			Version:   "v1",
			Metadata:  wrapped.Tags,
			CreatedAt: wrapped.CreatedAt,
		}, nil
	}

	return &ports.Secret{
		Value:   strings.TrimSpace(string(data)),
		Version: "v1",
	}, nil
}

// EnvReader implements ports.SecretReader over environment variables
// The path is the variable name
type EnvReader struct{}

// GetSecret returns the value of the environment variable named path
func (EnvReader) GetSecret(ctx context.Context, path string) (*ports.Secret, error) {
	value, ok := os.LookupEnv(path)
	if !ok || value == "" {
		return nil, fmt.Errorf("%w: %s", ErrSecretNotFound, path)
	}
	return &ports.Secret{Value: value, Version: "env"}, nil
}
