// Package cai wraps the Cloud Asset Inventory API client library with a
// small facade for listing, searching and exporting cloud resource assets.
//
// The facade owns parameter marshalling and pagination iteration only,
// authentication, transport and retries stay with the wrapped SDK. Records
// pass through from the service verbatim.
package cai

import (
	"context"

	asset "cloud.google.com/go/asset/apiv1"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

const (
	pkgName = "pkg/cai"

	// records per page on listing and search calls when the caller sets none.
	defaultPageSize = 1000
)

// Config holds the client construction parameters.
//
// At most one credential source may be set, with none set credentials are
// resolved from the environment by the SDK - ADC, well known files or the
// metadata service.
//
// nolint:govet // prefer readability over field alignment optimization for this case.
type Config struct {
	// CredentialsFile is the path to a service account key file.
	CredentialsFile string

	// CredentialsJSON holds a service account key verbatim.
	CredentialsJSON []byte

	// TokenSource overrides credential resolution with a caller owned token source.
	TokenSource oauth2.TokenSource

	// Endpoint overrides the service endpoint, set this for emulators and tests.
	Endpoint string

	// WithoutAuthentication dials without any credentials, valid only along
	// with an Endpoint override.
	WithoutAuthentication bool

	// UserAgent is sent along on outgoing API calls when set.
	UserAgent string

	// PageSize caps records per page on listing and search calls,
	// defaultPageSize applies when zero.
	PageSize int32
}

// Client is the facade over the Cloud Asset Inventory API client.
//
// The upstream client is embedded so its full surface stays reachable, the
// facade hides nothing. Callers own the handle and release it with Close.
type Client struct {
	*asset.Client

	pageSize int32
	logger   *logrus.Entry
}

// New returns a facade client with credentials resolved per the given
// configuration.
//
// Credential resolution happens here, a failure yields ErrAuthentication
// before any listing call is issued.
func New(ctx context.Context, cfg *Config, logger *logrus.Logger) (*Client, error) {
	if cfg == nil {
		cfg = &Config{}
	}

	opts, err := cfg.clientOptions()
	if err != nil {
		return nil, err
	}

	apiClient, err := asset.NewClient(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(ErrAuthentication, err.Error())
	}

	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	return &Client{
		Client:   apiClient,
		pageSize: pageSize,
		logger:   logger.WithFields(logrus.Fields{"component": "cai"}),
	}, nil
}

// clientOptions assembles the SDK client options for the configured
// credential source and endpoint.
func (cfg *Config) clientOptions() ([]option.ClientOption, error) {
	sources := 0
	for _, set := range []bool{
		cfg.CredentialsFile != "",
		len(cfg.CredentialsJSON) != 0,
		cfg.TokenSource != nil,
		cfg.WithoutAuthentication,
	} {
		if set {
			sources++
		}
	}

	if sources > 1 {
		return nil, errors.Wrap(ErrConfig, "multiple credential sources set")
	}

	opts := []option.ClientOption{}

	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}

	if cfg.UserAgent != "" {
		opts = append(opts, option.WithUserAgent(cfg.UserAgent))
	}

	switch {
	case cfg.WithoutAuthentication:
		if cfg.Endpoint == "" {
			return nil, errors.Wrap(ErrConfig, "WithoutAuthentication requires an Endpoint override")
		}

		opts = append(
			opts,
			option.WithoutAuthentication(),
			option.WithGRPCDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
		)
	case cfg.CredentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	case len(cfg.CredentialsJSON) != 0:
		opts = append(opts, option.WithCredentialsJSON(cfg.CredentialsJSON))
	case cfg.TokenSource != nil:
		opts = append(opts, option.WithTokenSource(cfg.TokenSource))
	}

	return opts, nil
}

// effectivePageSize returns the request page size, falling back to the client
// default when the caller sets none.
func (c *Client) effectivePageSize(n int32) int32 {
	if n > 0 {
		return n
	}

	return c.pageSize
}
