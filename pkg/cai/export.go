package cai

import (
	"context"
	"time"

	"cloud.google.com/go/asset/apiv1/assetpb"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"google.golang.org/protobuf/types/known/timestamppb"
)

// ExportParams are the parameters to an inventory export call, exactly one
// destination must be set.
//
// nolint:govet // prefer readability over field alignment optimization for this case.
type ExportParams struct {
	// Scope is the organization, folder or project to export.
	Scope string

	// AssetTypes limits the export to the given asset types, all types when empty.
	AssetTypes []string

	// ContentType selects the asset content exported.
	ContentType assetpb.ContentType

	// ReadTime exports asset state at the given time instead of now.
	ReadTime time.Time

	// GcsURI is a gs://bucket/object destination.
	GcsURI string

	// BigQueryDataset is a projects/P/datasets/D destination, requires BigQueryTable.
	BigQueryDataset string

	// BigQueryTable is the table written under BigQueryDataset.
	BigQueryTable string

	// BigQueryForce overwrites the destination table when set.
	BigQueryForce bool
}

// Validate checks required export parameters are present.
func (p *ExportParams) Validate() error {
	if p == nil || p.Scope == "" {
		return errors.Wrap(ErrInvalidScope, "export requires a scope")
	}

	if _, err := ParseScope(p.Scope); err != nil {
		return err
	}

	if (p.GcsURI == "") == (p.BigQueryDataset == "") {
		return errors.Wrap(ErrConfig, "export requires exactly one destination, a GCS URI or a BigQuery dataset")
	}

	if p.BigQueryDataset != "" && p.BigQueryTable == "" {
		return errors.Wrap(ErrConfig, "BigQuery export requires a table")
	}

	return nil
}

func (p *ExportParams) outputConfig() *assetpb.OutputConfig {
	if p.GcsURI != "" {
		return &assetpb.OutputConfig{
			Destination: &assetpb.OutputConfig_GcsDestination{
				GcsDestination: &assetpb.GcsDestination{
					ObjectUri: &assetpb.GcsDestination_Uri{Uri: p.GcsURI},
				},
			},
		}
	}

	return &assetpb.OutputConfig{
		Destination: &assetpb.OutputConfig_BigqueryDestination{
			BigqueryDestination: &assetpb.BigQueryDestination{
				Dataset: p.BigQueryDataset,
				Table:   p.BigQueryTable,
				Force:   p.BigQueryForce,
			},
		},
	}
}

// Export runs an inventory export to the configured destination and blocks
// until the long running operation completes.
func (c *Client) Export(ctx context.Context, p *ExportParams) (*assetpb.ExportAssetsResponse, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	ctx, span := otel.Tracer(pkgName).Start(ctx, "Cai.Export")
	defer span.End()

	req := &assetpb.ExportAssetsRequest{
		Parent:       p.Scope,
		AssetTypes:   p.AssetTypes,
		ContentType:  p.ContentType,
		OutputConfig: p.outputConfig(),
	}

	if !p.ReadTime.IsZero() {
		req.ReadTime = timestamppb.New(p.ReadTime)
	}

	op, err := c.Client.ExportAssets(ctx, req)
	if err != nil {
		span.SetStatus(codes.Error, "ExportAssets() failed")

		return nil, errors.Wrap(ErrRemoteService, err.Error())
	}

	c.logger.WithFields(logrus.Fields{
		"scope":     p.Scope,
		"operation": op.Name(),
	}).Debug("export operation started")

	resp, err := op.Wait(ctx)
	if err != nil {
		span.SetStatus(codes.Error, "ExportAssets() wait failed")

		return nil, errors.Wrap(ErrRemoteService, err.Error())
	}

	return resp, nil
}
