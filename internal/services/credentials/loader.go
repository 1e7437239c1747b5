package credentials

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kevin07696/square-checkout/internal/domain"
	"github.com/kevin07696/square-checkout/internal/domain/ports"
)

// Credentials are the Square merchant credentials the service runs with
type Credentials struct {
	AccessToken   string `json:"access_token"`
	ApplicationID string `json:"application_id,omitempty"`
	LocationID    string `json:"location_id,omitempty"`
	// Environment is "sandbox" or "production"
	Environment string `json:"environment,omitempty"`
}

// Sandbox reports whether the credentials target the Square sandbox
func (c Credentials) Sandbox() bool {
	return strings.EqualFold(c.Environment, "sandbox")
}

// Loader reads credentials from a secret backend
type Loader struct {
	reader   ports.SecretReader
	path     string
	defaults Credentials
	logger   ports.Logger
}

// NewLoader creates a loader; fields missing from the secret fall back to defaults
func NewLoader(reader ports.SecretReader, path string, defaults Credentials, logger ports.Logger) *Loader {
	return &Loader{
		reader:   reader,
		path:     path,
		defaults: defaults,
		logger:   logger,
	}
}

// Load reads the secret at the configured path
// A JSON object is decoded as Credentials; any other value is taken as the access token
func (l *Loader) Load(ctx context.Context) (Credentials, error) {
	creds := l.defaults

	if l.path != "" {
		secret, err := l.reader.GetSecret(ctx, l.path)
		if err != nil {
			if creds.AccessToken == "" {
				return Credentials{}, fmt.Errorf("load credentials from %s: %w", l.path, err)
			}
			l.logger.Warn("credentials secret unavailable, using configured credentials",
				ports.String("path", l.path),
				ports.Err(err))
		} else {
			parsed, err := parse(secret.Value)
			if err != nil {
				return Credentials{}, fmt.Errorf("parse credentials from %s: %w", l.path, err)
			}
			creds = merge(parsed, creds)
			l.logger.Info("credentials loaded",
				ports.String("path", l.path),
				ports.String("version", secret.Version),
				ports.String("environment", creds.Environment))
		}
	}

	if creds.AccessToken == "" {
		return Credentials{}, domain.ErrValidationMissingField.WithDetail("field", "access_token")
	}
	return creds, nil
}

func parse(value string) (Credentials, error) {
	value = strings.TrimSpace(value)
	if !strings.HasPrefix(value, "{") {
		return Credentials{AccessToken: value}, nil
	}
	var creds Credentials
	if err := json.Unmarshal([]byte(value), &creds); err != nil {
		return Credentials{}, err
	}
	return creds, nil
}

func merge(primary, fallback Credentials) Credentials {
	if primary.AccessToken == "" {
		primary.AccessToken = fallback.AccessToken
	}
	if primary.ApplicationID == "" {
		primary.ApplicationID = fallback.ApplicationID
	}
	if primary.LocationID == "" {
		primary.LocationID = fallback.LocationID
	}
	if primary.Environment == "" {
		primary.Environment = fallback.Environment
	}
	return primary
}
