package app

import (
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/asset-toolbox/assay/internal/model"
	"github.com/jeremywohl/flatten"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"golang.org/x/exp/slices"
)

var (
	ErrConfig = errors.New("configuration error")
)

const (
	DefaultCollectInterval = 24 * time.Hour
	DefaultCollectSplay    = 1 * time.Hour
)

// Configuration holds application configuration read from a YAML or set by env variables.
//
// nolint:govet // prefer readability over field alignment optimization for this case.
type Configuration struct {
	// LogLevel is the app verbose logging level.
	// one of - info, debug, trace
	LogLevel string `mapstructure:"log_level"`

	// AppKind is either oneshot or snapshotter
	AppKind model.AppKind `mapstructure:"app_kind"`

	// GCPOptions defines the asset inventory client configuration parameters.
	GCPOptions *GCPOptions `mapstructure:"gcp"`

	// Scopes are the organization, folder or project identifiers snapshot
	// collection covers, one snapshot per scope.
	Scopes []string `mapstructure:"scopes"`

	// Query filters snapshot collection, an empty query matches every
	// searchable asset in scope.
	Query string `mapstructure:"query"`

	// AssetTypes limits snapshot collection to the given asset types.
	AssetTypes []string `mapstructure:"asset_types"`

	// SinkKind indicates the snapshot publisher to enable,
	//
	// Supported parameter values - stdout, file, inventory, nats
	SinkKind model.SinkKind `mapstructure:"sink_kind"`

	// FileSinkOptions defines the file snapshot publisher parameters.
	//
	// This parameter is required when SinkKind is set to file.
	FileSinkOptions *FileSinkOptions `mapstructure:"file_sink"`

	// InventorySinkOptions defines the inventory service publisher parameters.
	//
	// This parameter is required when SinkKind is set to inventory.
	InventorySinkOptions *InventorySinkOptions `mapstructure:"inventory_sink"`

	// NatsOptions defines the NATS JetStream publisher parameters.
	//
	// This parameter is required when SinkKind is set to nats.
	NatsOptions *NatsOptions `mapstructure:"nats"`

	// Snapshot collector concurrency
	Concurrency int `mapstructure:"concurrency"`

	CollectInterval time.Duration `mapstructure:"collect_interval"`

	CollectIntervalSplay time.Duration `mapstructure:"collect_interval_splay"`
}

// GCPOptions defines configuration for the asset inventory client.
type GCPOptions struct {
	// CredentialsFile points at a service account key, ambient credential
	// resolution applies when empty.
	CredentialsFile string `mapstructure:"credentials_file"`
	Endpoint        string `mapstructure:"endpoint"`
	UserAgent       string `mapstructure:"user_agent"`
	PageSize        int32  `mapstructure:"page_size"`
}

// FileSinkOptions defines configuration for the file snapshot publisher.
type FileSinkOptions struct {
	Directory string `mapstructure:"directory"`
}

// InventorySinkOptions defines configuration for the asset inventory service client.
type InventorySinkOptions struct {
	EndpointURL          *url.URL
	Endpoint             string   `mapstructure:"endpoint"`
	OidcIssuerEndpoint   string   `mapstructure:"oidc_issuer_endpoint"`
	OidcAudienceEndpoint string   `mapstructure:"oidc_audience_endpoint"`
	OidcClientSecret     string   `mapstructure:"oidc_client_secret"`
	OidcClientID         string   `mapstructure:"oidc_client_id"`
	OidcClientScopes     []string `mapstructure:"oidc_client_scopes"`
	DisableOAuth         bool     `mapstructure:"disable_oauth"`
}

// NatsOptions defines the NATS JetStream publisher configuration parameters.
type NatsOptions struct {
	URL            string        `mapstructure:"url"`
	CredsFile      string        `mapstructure:"creds_file"`
	StreamName     string        `mapstructure:"stream_name"`
	SubjectPrefix  string        `mapstructure:"subject_prefix"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

// LoadConfiguration loads application configuration
//
// Reads in the cfgFile when available and overrides from environment variables.
func (a *App) LoadConfiguration(cfgFile string) error {
	a.v.SetConfigType("yaml")
	a.v.SetEnvPrefix(model.AppName)
	a.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	a.v.AutomaticEnv()

	// these are initialized here so viper can read in configuration from env vars
	// once https://github.com/spf13/viper/pull/1429 is merged, this can go.
	a.Config = &Configuration{
		GCPOptions:           &GCPOptions{},
		FileSinkOptions:      &FileSinkOptions{},
		InventorySinkOptions: &InventorySinkOptions{},
		NatsOptions:          &NatsOptions{},
	}

	if cfgFile != "" {
		fh, err := os.Open(cfgFile)
		if err != nil {
			return errors.Wrap(ErrConfig, err.Error())
		}

		if err = a.v.ReadConfig(fh); err != nil {
			return errors.Wrap(ErrConfig, "ReadConfig error:"+err.Error())
		}
	}

	a.v.SetDefault("log.level", "info")
	a.v.SetDefault("sink.kind", string(model.SinkKindStdout))
	a.v.SetDefault("concurrency", model.ConcurrencyDefault)
	a.v.SetDefault("collect.interval", DefaultCollectInterval)
	a.v.SetDefault("collect.interval.splay", DefaultCollectSplay)

	if err := a.envBindVars(); err != nil {
		return errors.Wrap(ErrConfig, "env var bind error:"+err.Error())
	}

	if err := a.v.Unmarshal(a.Config); err != nil {
		return errors.Wrap(ErrConfig, "Unmarshal error: "+err.Error())
	}

	a.envVarAppOverrides()
	a.envVarGCPOverrides()

	if !slices.Contains(model.SinkKinds(), a.Config.SinkKind) {
		return errors.Wrap(ErrConfig, "unsupported sink kind: "+string(a.Config.SinkKind))
	}

	switch a.Config.SinkKind {
	case model.SinkKindFile:
		a.envVarFileSinkOverrides()
	case model.SinkKindInventory:
		if err := a.envVarInventorySinkOverrides(); err != nil {
			return errors.Wrap(ErrConfig, "inventory sink env overrides error:"+err.Error())
		}
	case model.SinkKindNats:
		if err := a.envVarNatsOverrides(); err != nil {
			return errors.Wrap(ErrConfig, "nats env overrides error:"+err.Error())
		}
	}

	return nil
}

func (a *App) envVarAppOverrides() {
	if a.v.GetString("log.level") != "" {
		a.Config.LogLevel = a.v.GetString("log.level")
	}

	if a.v.GetString("sink.kind") != "" {
		a.Config.SinkKind = model.SinkKind(a.v.GetString("sink.kind"))
	}

	if len(a.v.GetStringSlice("scopes")) != 0 {
		a.Config.Scopes = a.v.GetStringSlice("scopes")
	}

	if a.v.GetString("query") != "" {
		a.Config.Query = a.v.GetString("query")
	}

	if len(a.v.GetStringSlice("asset.types")) != 0 {
		a.Config.AssetTypes = a.v.GetStringSlice("asset.types")
	}

	if a.v.GetInt("concurrency") != 0 {
		a.Config.Concurrency = a.v.GetInt("concurrency")
	}

	if a.v.GetDuration("collect.interval") != 0 {
		a.Config.CollectInterval = a.v.GetDuration("collect.interval")
	}

	if a.v.GetDuration("collect.interval.splay") != 0 {
		a.Config.CollectIntervalSplay = a.v.GetDuration("collect.interval.splay")
	}
}

// envBindVars binds environment variables to the struct
// without a configuration file being unmarshalled,
// this is a workaround for a viper bug,
//
// This can be replaced by the solution in https://github.com/spf13/viper/pull/1429
// once that PR is merged.
func (a *App) envBindVars() error {
	envKeysMap := map[string]interface{}{}
	if err := mapstructure.Decode(a.Config, &envKeysMap); err != nil {
		return err
	}

	// Flatten nested conf map
	flat, err := flatten.Flatten(envKeysMap, "", flatten.DotStyle)
	if err != nil {
		return errors.Wrap(err, "Unable to flatten config")
	}

	for k := range flat {
		if err := a.v.BindEnv(k); err != nil {
			return errors.Wrap(ErrConfig, "env var bind error: "+err.Error())
		}
	}

	return nil
}

// GCP client configuration options, all optional
func (a *App) envVarGCPOverrides() {
	if a.Config.GCPOptions == nil {
		a.Config.GCPOptions = &GCPOptions{}
	}

	if a.v.GetString("gcp.credentials.file") != "" {
		a.Config.GCPOptions.CredentialsFile = a.v.GetString("gcp.credentials.file")
	}

	if a.v.GetString("gcp.endpoint") != "" {
		a.Config.GCPOptions.Endpoint = a.v.GetString("gcp.endpoint")
	}

	if a.v.GetString("gcp.user.agent") != "" {
		a.Config.GCPOptions.UserAgent = a.v.GetString("gcp.user.agent")
	}

	if a.v.GetInt32("gcp.page.size") != 0 {
		a.Config.GCPOptions.PageSize = a.v.GetInt32("gcp.page.size")
	}
}

func (a *App) envVarFileSinkOverrides() {
	if a.Config.FileSinkOptions == nil {
		a.Config.FileSinkOptions = &FileSinkOptions{}
	}

	if a.v.GetString("file_sink.directory") != "" {
		a.Config.FileSinkOptions.Directory = a.v.GetString("file_sink.directory")
	}

	if a.Config.FileSinkOptions.Directory == "" {
		a.Config.FileSinkOptions.Directory = "."
	}
}

// Inventory sink configuration options
// nolint:gocyclo // parameter validation is cyclomatic
func (a *App) envVarInventorySinkOverrides() error {
	if a.Config.InventorySinkOptions == nil {
		a.Config.InventorySinkOptions = &InventorySinkOptions{}
	}

	if a.v.GetString("inventory_sink.endpoint") != "" {
		a.Config.InventorySinkOptions.Endpoint = a.v.GetString("inventory_sink.endpoint")
	}

	if a.Config.InventorySinkOptions.Endpoint == "" {
		return errors.New("inventory sink endpoint not defined")
	}

	endpointURL, err := url.Parse(a.Config.InventorySinkOptions.Endpoint)
	if err != nil {
		return errors.New("inventory sink endpoint URL error: " + err.Error())
	}

	a.Config.InventorySinkOptions.EndpointURL = endpointURL

	if a.v.GetString("inventory_sink.disable.oauth") != "" {
		a.Config.InventorySinkOptions.DisableOAuth = a.v.GetBool("inventory_sink.disable.oauth")
	}

	if a.Config.InventorySinkOptions.DisableOAuth {
		return nil
	}

	if a.v.GetString("inventory_sink.oidc.issuer.endpoint") != "" {
		a.Config.InventorySinkOptions.OidcIssuerEndpoint = a.v.GetString("inventory_sink.oidc.issuer.endpoint")
	}

	if a.Config.InventorySinkOptions.OidcIssuerEndpoint == "" {
		return errors.New("inventory_sink oidc.issuer.endpoint not defined")
	}

	if a.v.GetString("inventory_sink.oidc.audience.endpoint") != "" {
		a.Config.InventorySinkOptions.OidcAudienceEndpoint = a.v.GetString("inventory_sink.oidc.audience.endpoint")
	}

	if a.Config.InventorySinkOptions.OidcAudienceEndpoint == "" {
		return errors.New("inventory_sink oidc.audience.endpoint not defined")
	}

	if a.v.GetString("inventory_sink.oidc.client.secret") != "" {
		a.Config.InventorySinkOptions.OidcClientSecret = a.v.GetString("inventory_sink.oidc.client.secret")
	}

	if a.Config.InventorySinkOptions.OidcClientSecret == "" {
		return errors.New("inventory_sink.oidc.client.secret not defined")
	}

	if a.v.GetString("inventory_sink.oidc.client.id") != "" {
		a.Config.InventorySinkOptions.OidcClientID = a.v.GetString("inventory_sink.oidc.client.id")
	}

	if a.Config.InventorySinkOptions.OidcClientID == "" {
		return errors.New("inventory_sink.oidc.client.id not defined")
	}

	if a.v.GetString("inventory_sink.oidc.client.scopes") != "" {
		a.Config.InventorySinkOptions.OidcClientScopes = a.v.GetStringSlice("inventory_sink.oidc.client.scopes")
	}

	if len(a.Config.InventorySinkOptions.OidcClientScopes) == 0 {
		return errors.New("inventory_sink oidc.client.scopes not defined")
	}

	return nil
}

// NATS streaming configuration
var (
	defaultNatsConnectTimeout = 100 * time.Millisecond
)

func (a *App) envVarNatsOverrides() error {
	if a.Config.NatsOptions == nil {
		a.Config.NatsOptions = &NatsOptions{}
	}

	if a.v.GetString("nats.url") != "" {
		a.Config.NatsOptions.URL = a.v.GetString("nats.url")
	}

	if a.Config.NatsOptions.URL == "" {
		return errors.New("missing parameter: nats.url")
	}

	if a.v.GetString("nats.creds.file") != "" {
		a.Config.NatsOptions.CredsFile = a.v.GetString("nats.creds.file")
	}

	if a.v.GetString("nats.stream.name") != "" {
		a.Config.NatsOptions.StreamName = a.v.GetString("nats.stream.name")
	}

	if a.Config.NatsOptions.StreamName == "" {
		return errors.New("missing parameter: nats.stream.name")
	}

	if a.v.GetString("nats.subject.prefix") != "" {
		a.Config.NatsOptions.SubjectPrefix = a.v.GetString("nats.subject.prefix")
	}

	if a.Config.NatsOptions.SubjectPrefix == "" {
		return errors.New("missing parameter: nats.subject.prefix")
	}

	if a.v.GetDuration("nats.connect.timeout") != 0 {
		a.Config.NatsOptions.ConnectTimeout = a.v.GetDuration("nats.connect.timeout")
	}

	if a.Config.NatsOptions.ConnectTimeout == 0 {
		a.Config.NatsOptions.ConnectTimeout = defaultNatsConnectTimeout
	}

	return nil
}
