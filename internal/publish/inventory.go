package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/asset-toolbox/assay/internal/app"
	"github.com/asset-toolbox/assay/internal/metrics"
	"github.com/asset-toolbox/assay/internal/model"
	"github.com/asset-toolbox/assay/types"
	"github.com/coreos/go-oidc"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	r3diff "github.com/r3labs/diff/v3"
	"github.com/sanity-io/litter"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/oauth2/clientcredentials"
)

var (
	// timeout for requests made by the inventory sink client.
	inventoryTimeout = 30 * time.Second

	ErrInventoryConfig = errors.New("error in inventory sink client configuration")
	ErrInventoryAPI    = errors.New("error in inventory service query")
	ErrRecordChanges   = errors.New("error building record change list")

	// The inventory publisher tracer
	tracer trace.Tracer
)

func init() {
	tracer = otel.Tracer("publisher-inventory")
}

// inventoryPublisher upserts collected asset records into the asset inventory service.
type inventoryPublisher struct {
	logger   *logrus.Entry
	client   *http.Client
	endpoint string
}

// NewInventoryPublisher returns an inventory service publisher to submit asset records.
func NewInventoryPublisher(ctx context.Context, assay *app.App) (Publisher, error) {
	logger := app.NewLogrusEntryFromLogger(
		logrus.Fields{"component": "publisher-inventory"},
		assay.Logger,
	)

	cfg := assay.Config.InventorySinkOptions
	if cfg == nil {
		return nil, errors.Wrap(ErrInventoryConfig, "configuration is nil")
	}

	if cfg.Endpoint == "" {
		return nil, errors.Wrap(ErrInventoryConfig, "missing inventory service endpoint")
	}

	client, err := newInventoryClient(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	return &inventoryPublisher{
		logger:   logger,
		client:   client,
		endpoint: strings.TrimSuffix(cfg.Endpoint, "/"),
	}, nil
}

// newInventoryClient returns an inventory service retryable http client with Otel,
// with OAuth wrapped in unless disabled.
func newInventoryClient(ctx context.Context, cfg *app.InventorySinkOptions, logger *logrus.Entry) (*http.Client, error) {
	// init retryable http client
	retryableClient := retryablehttp.NewClient()

	// log hook for 500 errors since the retryablehttp client masks them
	logHookFunc := func(_ retryablehttp.Logger, r *http.Response) {
		if r.StatusCode == http.StatusInternalServerError {
			b, err := io.ReadAll(r.Body)
			if err != nil {
				logger.Warn("inventory query returned 500 error, got error reading body: ", err.Error())
				return
			}

			logger.Warn("inventory query returned 500 error, body: ", string(b))
		}
	}

	retryableClient.ResponseLogHook = logHookFunc

	// set retryable HTTP client to be the otel http client to collect telemetry
	retryableClient.HTTPClient = otelhttp.DefaultClient

	// disable default debug logging on the retryable client
	if logger.Level < logrus.DebugLevel {
		retryableClient.Logger = nil
	} else {
		retryableClient.Logger = logger
	}

	if !cfg.DisableOAuth {
		// setup oidc provider
		provider, err := oidc.NewProvider(ctx, cfg.OidcIssuerEndpoint)
		if err != nil {
			return nil, err
		}

		// clientID defaults to 'assay'
		clientID := model.AppName

		if cfg.OidcClientID != "" {
			clientID = cfg.OidcClientID
		}

		// setup oauth configuration
		oauthConfig := clientcredentials.Config{
			ClientID:       clientID,
			ClientSecret:   cfg.OidcClientSecret,
			TokenURL:       provider.Endpoint().TokenURL,
			Scopes:         cfg.OidcClientScopes,
			EndpointParams: url.Values{"audience": []string{cfg.OidcAudienceEndpoint}},
		}

		// wrap OAuth transport, cookie jar in the retryable client
		oAuthclient := oauthConfig.Client(ctx)

		retryableClient.HTTPClient.Transport = oAuthclient.Transport
		retryableClient.HTTPClient.Jar = oAuthclient.Jar
	}

	// requests taking longer than timeout value should be canceled.
	client := retryableClient.StandardClient()
	client.Timeout = inventoryTimeout

	return client, nil
}

// PublishRecord upserts the record in the inventory service, records comparing
// equal to the stored version are skipped.
//
// PublishRecord implements the Publisher interface
func (p *inventoryPublisher) PublishRecord(ctx context.Context, record *types.AssetRecord) error {
	if record == nil {
		return nil
	}

	// attach child span
	ctx, span := tracer.Start(ctx, "PublishRecord()")
	defer span.End()

	current, err := p.assetByName(ctx, record.Name)
	if err != nil {
		span.SetStatus(codes.Error, "assetByName() failed")

		return err
	}

	changeKind := "record-created"

	if current != nil {
		changes, err := recordChanges(current, record)
		if err != nil {
			return errors.Wrap(ErrRecordChanges, err.Error())
		}

		// no changes in the record data
		if len(changes) == 0 {
			p.logger.WithField("record", record.Name).Trace("no changes, skipped upsert")

			return nil
		}

		// For debugging dump differ data
		if os.Getenv(model.EnvVarDumpDiffers) == "true" {
			changesf := dumpFilename(record.Name)

			// nolint:gomnd // file permissions are clearer in this form.
			_ = os.WriteFile(changesf, []byte(litter.Sdump(changes)), 0o600)
		}

		changeKind = "record-updated"
	}

	if err := p.upsertAsset(ctx, record); err != nil {
		span.SetStatus(codes.Error, "upsertAsset() failed")

		return err
	}

	// count records added, updated in the inventory
	metricInventoryDataChanges.With(
		metrics.AddLabels(
			stageLabel,
			prometheus.Labels{"change_kind": changeKind},
		),
	).Add(1)

	// count records written to the sink
	metricSinkRecordsWritten.With(
		metrics.AddLabels(stageLabel, prometheus.Labels{"sink": string(model.SinkKindInventory)}),
	).Inc()

	return nil
}

// PublishSnapshot registers the snapshot metadata with the inventory service,
// the records were upserted individually as they were collected.
//
// PublishSnapshot implements the Publisher interface
func (p *inventoryPublisher) PublishSnapshot(ctx context.Context, snapshot *types.Snapshot) error {
	if snapshot == nil {
		return nil
	}

	// attach child span
	ctx, span := tracer.Start(ctx, "PublishSnapshot()")
	defer span.End()

	meta := *snapshot
	meta.Records = nil

	out, err := json.Marshal(&meta)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint+"/api/v1/snapshots", bytes.NewReader(out))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		span.SetStatus(codes.Error, "snapshot registration failed")

		return errors.Wrap(ErrInventoryAPI, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		return errors.Wrap(ErrInventoryAPI, "snapshot registration returned: "+resp.Status)
	}

	p.logger.WithFields(logrus.Fields{
		"snapshot.id": snapshot.ID,
		"records":     len(snapshot.Records),
	}).Info("snapshot registered")

	return nil
}

// assetByName returns the record stored in the inventory service, nil when none exists.
func (p *inventoryPublisher) assetByName(ctx context.Context, name string) (*types.AssetRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.recordURL(name), http.NoBody)
	if err != nil {
		return nil, err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(ErrInventoryAPI, err.Error())
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, nil
	default:
		return nil, errors.Wrap(ErrInventoryAPI, "asset query returned: "+resp.Status)
	}

	record := &types.AssetRecord{}
	if err := json.NewDecoder(resp.Body).Decode(record); err != nil {
		return nil, errors.Wrap(ErrInventoryAPI, err.Error())
	}

	return record, nil
}

// upsertAsset creates or replaces the record in the inventory service.
func (p *inventoryPublisher) upsertAsset(ctx context.Context, record *types.AssetRecord) error {
	out, err := json.Marshal(record)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, p.recordURL(record.Name), bytes.NewReader(out))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return errors.Wrap(ErrInventoryAPI, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		return errors.Wrap(ErrInventoryAPI, "asset upsert returned: "+resp.Status)
	}

	return nil
}

func (p *inventoryPublisher) recordURL(name string) string {
	return p.endpoint + "/api/v1/assets/" + url.PathEscape(name)
}

// diffFilter is a filter passed to the r3 diff method for comparing records
//
// nolint:gocritic // r3diff requires the field attribute to be passed by value
func diffFilter(_ []string, _ reflect.Type, field reflect.StructField) bool {
	switch field.Name {
	case "CreatedAt", "UpdatedAt":
		return false
	default:
		return true
	}
}

// recordChanges compares the stored record with the newly collected one.
func recordChanges(currentObj, newObj *types.AssetRecord) (r3diff.Changelog, error) {
	differ, err := r3diff.NewDiffer(r3diff.Filter(diffFilter))
	if err != nil {
		return nil, err
	}

	return differ.Diff(currentObj, newObj)
}

// dumpFilename flattens a full resource name into a diff dump file name.
func dumpFilename(name string) string {
	return strings.ReplaceAll(strings.TrimPrefix(name, "//"), "/", "_") + ".objchanges.diff"
}
