package collector

import (
	"context"
	"time"

	"cloud.google.com/go/asset/apiv1/assetpb"
	"github.com/asset-toolbox/assay/internal/metrics"
	"github.com/asset-toolbox/assay/internal/model"
	"github.com/asset-toolbox/assay/pkg/cai"
	"github.com/asset-toolbox/assay/types"
	gax "github.com/googleapis/gax-go/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
)

var stageLabelFetcher = prometheus.Labels{"stage": "fetcher"}

// InventoryQueryor is the method set of the inventory facade the record iterator requires.
type InventoryQueryor interface {
	ResourcePage(ctx context.Context, p *cai.SearchParams, pageToken string, opts ...gax.CallOption) ([]*assetpb.ResourceSearchResult, string, error)
}

// RecordIterator holds methods to page through asset records in a scope and return them over the record channel.
type RecordIterator struct {
	client   InventoryQueryor
	recordCh chan *types.AssetRecord
	logger   *logrus.Logger
}

// NewRecordIterator is a constructor method that returns a RecordIterator.
//
// The returned RecordIterator will page through all records matching the search parameters
// and send them over the record channel, the caller of this method should invoke Channel()
// to retrieve the channel to read records from.
func NewRecordIterator(client InventoryQueryor, logger *logrus.Logger) *RecordIterator {
	return &RecordIterator{client: client, logger: logger, recordCh: make(chan *types.AssetRecord, 1)}
}

// Channel returns the channel to read records from when the iterator is invoked through its Iter* method.
func (s *RecordIterator) Channel() <-chan *types.AssetRecord {
	return s.recordCh
}

// IterPages queries the inventory API for records page by page, returning them over the recordCh.
//
// A query error terminates the iteration, pages retrieved up to that point
// have been sent over the channel.
func (s *RecordIterator) IterPages(ctx context.Context, params *cai.SearchParams, pauser *Pauser) error {
	defer close(s.recordCh)

	tracer := otel.Tracer("collector.RecordIterator")
	ctx, span := tracer.Start(ctx, "IterPages()")

	defer span.End()

	var pageToken string

	for {
		// the first page is fetched unconditionally, further pages idle
		// while the pause flag is set and the context isn't canceled.
		if pageToken != "" {
			for pauser.Value() && ctx.Err() == nil {
				time.Sleep(1 * time.Second)
			}
		}

		// context canceled
		if ctx.Err() != nil {
			s.logger.WithError(ctx.Err()).Error("aborting record iteration")

			return ctx.Err()
		}

		startTS := time.Now()

		page, next, err := s.client.ResourcePage(ctx, params, pageToken)
		if err != nil {
			metrics.IncrementInventoryQueryErrorCount(params.Scope, "resource_search")

			s.logger.WithError(err).Error(model.ErrInventoryQuery)

			return err
		}

		// measure inventory API query time
		metrics.ObserveInventoryQueryTimeSummary(params.Scope, "resource_search", startTS)

		// count records retrieved
		metrics.RecordsRetrieved.With(stageLabelFetcher).Add(float64(len(page)))

		for _, result := range page {
			s.recordCh <- types.RecordFromSearchResult(result)

			// count records sent to the collector
			metrics.RecordsSent.With(stageLabelFetcher).Inc()
		}

		s.logger.WithFields(logrus.Fields{
			"scope": params.Scope,
			"got":   len(page),
		}).Trace()

		if next == "" {
			return nil
		}

		pageToken = next
	}
}
