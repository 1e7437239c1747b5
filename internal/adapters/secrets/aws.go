package secrets

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	smtypes "github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
	"github.com/kevin07696/square-checkout/internal/domain/ports"
)

// AWSConfig contains configuration for the AWS Secrets Manager reader
type AWSConfig struct {
	// AWS Region (e.g., "us-east-1")
	Region string

	// Optional: AWS profile name (for local development)
	Profile string

	// Optional: Custom endpoint (for LocalStack testing)
	Endpoint string

	// CacheTTL <= 0 disables caching
	CacheTTL time.Duration
}

// secretValueGetter is the slice of the Secrets Manager client the reader needs
type secretValueGetter interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// AWSReader implements ports.SecretReader for AWS Secrets Manager
type AWSReader struct {
	client secretValueGetter
	logger ports.Logger
	cache  *secretCache
}

// NewAWSReader loads the default credential chain and creates a reader
func NewAWSReader(ctx context.Context, cfg AWSConfig, logger ports.Logger) (*AWSReader, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.Profile != "" {
		opts = append(opts, config.WithSharedConfigProfile(cfg.Profile))
	}

	awsConfig, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var clientOptions []func(*secretsmanager.Options)
	if cfg.Endpoint != "" {
		clientOptions = append(clientOptions, func(o *secretsmanager.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		})
	}

	logger.Info("AWS Secrets Manager reader initialized",
		ports.String("region", cfg.Region),
		ports.Bool("cache_enabled", cfg.CacheTTL > 0))

	return newAWSReader(secretsmanager.NewFromConfig(awsConfig, clientOptions...), cfg.CacheTTL, logger), nil
}

func newAWSReader(client secretValueGetter, ttl time.Duration, logger ports.Logger) *AWSReader {
	return &AWSReader{
		client: client,
		logger: logger,
		cache:  newSecretCache(ttl),
	}
}

// GetSecret retrieves a secret by name or ARN
func (r *AWSReader) GetSecret(ctx context.Context, path string) (*ports.Secret, error) {
	if cached := r.cache.get(path); cached != nil {
		r.logger.Debug("secret retrieved from cache", ports.String("path", path))
		return cached, nil
	}

	result, err := r.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(path),
	})
	if err != nil {
		var notFound *smtypes.ResourceNotFoundException
		if errors.As(err, &notFound) {
			return nil, fmt.Errorf("%w: %s", ErrSecretNotFound, path)
		}
		r.logger.Error("failed to retrieve secret",
			ports.String("path", path),
			ports.Err(err))
		return nil, fmt.Errorf("failed to get secret %s: %w", path, err)
	}

	secret := &ports.Secret{
		Value:    aws.ToString(result.SecretString),
		Version:  aws.ToString(result.VersionId),
		Metadata: make(map[string]string),
	}
	if result.CreatedDate != nil {
		secret.CreatedAt = result.CreatedDate.Format(time.RFC3339)
	}
	if result.ARN != nil {
		secret.Metadata["arn"] = *result.ARN
	}
	if result.Name != nil {
		secret.Metadata["name"] = *result.Name
	}
	if secret.Value == "" {
		return nil, fmt.Errorf("%w: %s has no string value", ErrSecretNotFound, path)
	}

	r.cache.set(path, secret)
	return secret, nil
}

// Invalidate drops a cached secret so the next read goes to AWS
func (r *AWSReader) Invalidate(path string) {
	r.cache.invalidate(path)
}
