package credentials_test

import (
	"context"
	"errors"
	"testing"

	"github.com/kevin07696/square-checkout/internal/domain"
	"github.com/kevin07696/square-checkout/internal/domain/ports"
	"github.com/kevin07696/square-checkout/internal/services/credentials"
	"github.com/kevin07696/square-checkout/test/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockSecretReader struct {
	mock.Mock
}

func (m *MockSecretReader) GetSecret(ctx context.Context, path string) (*ports.Secret, error) {
	args := m.Called(ctx, path)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ports.Secret), args.Error(1)
}

func TestLoader_JSONDocument(t *testing.T) {
	reader := new(MockSecretReader)
	reader.On("GetSecret", mock.Anything, "square-checkout/credentials").Return(&ports.Secret{
		Value:   `{"access_token":"EAAAjson","application_id":"sandbox-sq0idb-app","environment":"sandbox"}`,
		Version: "3",
	}, nil)

	loader := credentials.NewLoader(reader, "square-checkout/credentials",
		credentials.Credentials{LocationID: "LOC1", Environment: "production"}, mocks.NewMockLogger())

	creds, err := loader.Load(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "EAAAjson", creds.AccessToken)
	assert.Equal(t, "sandbox-sq0idb-app", creds.ApplicationID)
	assert.Equal(t, "LOC1", creds.LocationID, "missing fields fall back to configuration")
	assert.True(t, creds.Sandbox())
	reader.AssertExpectations(t)
}

func TestLoader_PlainToken(t *testing.T) {
	reader := new(MockSecretReader)
	reader.On("GetSecret", mock.Anything, "SQUARE_ACCESS_TOKEN").Return(&ports.Secret{Value: " EAAAplain\n"}, nil)

	creds, err := credentials.NewLoader(reader, "SQUARE_ACCESS_TOKEN", credentials.Credentials{}, mocks.NewMockLogger()).
		Load(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "EAAAplain", creds.AccessToken)
	assert.False(t, creds.Sandbox())
}

func TestLoader_SecretUnavailable(t *testing.T) {
	reader := new(MockSecretReader)
	reader.On("GetSecret", mock.Anything, "path").Return(nil, errors.New("access denied"))

	_, err := credentials.NewLoader(reader, "path", credentials.Credentials{}, mocks.NewMockLogger()).
		Load(context.Background())
	assert.Error(t, err)

	logger := mocks.NewMockLogger()
	creds, err := credentials.NewLoader(reader, "path", credentials.Credentials{AccessToken: "EAAAconfig"}, logger).
		Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "EAAAconfig", creds.AccessToken)
	assert.True(t, logger.HasWarn("credentials secret unavailable"))
}

func TestLoader_InvalidJSON(t *testing.T) {
	reader := new(MockSecretReader)
	reader.On("GetSecret", mock.Anything, "path").Return(&ports.Secret{Value: `{"access_token":`}, nil)

	_, err := credentials.NewLoader(reader, "path", credentials.Credentials{}, mocks.NewMockLogger()).
		Load(context.Background())
	assert.Error(t, err)
}

func TestLoader_NoPathUsesDefaults(t *testing.T) {
	reader := new(MockSecretReader)

	_, err := credentials.NewLoader(reader, "", credentials.Credentials{}, mocks.NewMockLogger()).Load(context.Background())
	assert.True(t, domain.IsValidationError(err))

	creds, err := credentials.NewLoader(reader, "", credentials.Credentials{AccessToken: "EAAA"}, mocks.NewMockLogger()).
		Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "EAAA", creds.AccessToken)
	reader.AssertNotCalled(t, "GetSecret", mock.Anything, mock.Anything)
}
