package cai

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func Test_NewCredentialResolutionFailure(t *testing.T) {
	// point ambient credential resolution at a file that does not exist so
	// construction fails before any listing call goes out.
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", filepath.Join(t.TempDir(), "absent.json"))

	client, err := New(context.TODO(), nil, logrus.New())

	require.Error(t, err)
	assert.Nil(t, client)
	assert.ErrorIs(t, err, ErrAuthentication)
}

func Test_NewMalformedCredentialsJSON(t *testing.T) {
	client, err := New(context.TODO(), &Config{CredentialsJSON: []byte("{not json")}, logrus.New())

	require.Error(t, err)
	assert.Nil(t, client)
	assert.ErrorIs(t, err, ErrAuthentication)
}

func Test_ClientOptionsValidation(t *testing.T) {
	testcases := []struct {
		name        string
		cfg         *Config
		expectedErr error
	}{
		{
			"multiple credential sources",
			&Config{CredentialsFile: "key.json", TokenSource: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "x"})},
			ErrConfig,
		},
		{
			"no auth requires endpoint",
			&Config{WithoutAuthentication: true},
			ErrConfig,
		},
		{
			"no auth with endpoint",
			&Config{WithoutAuthentication: true, Endpoint: "localhost:1"},
			nil,
		},
		{
			"credentials file alone",
			&Config{CredentialsFile: "key.json"},
			nil,
		},
	}

	for _, tt := range testcases {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.cfg.clientOptions()

			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
				return
			}

			assert.NoError(t, err)
		})
	}
}

func Test_EffectivePageSize(t *testing.T) {
	fake := &fakeAssetService{}
	client := startFakeService(t, fake)

	assert.Equal(t, int32(defaultPageSize), client.effectivePageSize(0))
	assert.Equal(t, int32(25), client.effectivePageSize(25))
}
