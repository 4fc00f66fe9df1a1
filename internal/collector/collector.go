package collector

import (
	"context"
	"math/rand"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/asset-toolbox/assay/internal/app"
	"github.com/asset-toolbox/assay/internal/metrics"
	"github.com/asset-toolbox/assay/internal/model"
	"github.com/asset-toolbox/assay/internal/publish"
	"github.com/asset-toolbox/assay/pkg/cai"
	"github.com/asset-toolbox/assay/types"
	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
)

var (
	ErrSnapshotCollect = errors.New("error collecting asset snapshot")
)

// SnapshotCollector iterates over the asset records in the configured scopes
// and publishes them to the configured sink, each run is stamped as a snapshot.
type SnapshotCollector struct {
	client      InventoryQueryor
	publisher   publish.Publisher
	syncWG      *sync.WaitGroup
	logger      *logrus.Logger
	scopes      []string
	query       string
	assetTypes  []string
	concurrency int32
}

// NewSnapshotCollector is a constructor method that returns a SnapshotCollector.
func NewSnapshotCollector(ctx context.Context, assay *app.App, publisher publish.Publisher) (*SnapshotCollector, error) {
	cfg := assay.Config

	client, err := cai.New(
		ctx,
		&cai.Config{
			CredentialsFile: cfg.GCPOptions.CredentialsFile,
			Endpoint:        cfg.GCPOptions.Endpoint,
			UserAgent:       cfg.GCPOptions.UserAgent,
			PageSize:        cfg.GCPOptions.PageSize,
		},
		assay.Logger,
	)
	if err != nil {
		return nil, err
	}

	return &SnapshotCollector{
		client:      client,
		publisher:   publisher,
		syncWG:      assay.SyncWg,
		logger:      assay.Logger,
		scopes:      cfg.Scopes,
		query:       cfg.Query,
		assetTypes:  cfg.AssetTypes,
		concurrency: int32(cfg.Concurrency),
	}, nil
}

// NewSnapshotCollectorWithClient is a constructor method that accepts an initialized
// inventory queryor - to return a SnapshotCollector.
func NewSnapshotCollectorWithClient(
	client InventoryQueryor,
	cfg *app.Configuration,
	publisher publish.Publisher,
	syncWG *sync.WaitGroup,
	logger *logrus.Logger,
) *SnapshotCollector {
	concurrency := cfg.Concurrency
	if concurrency == 0 {
		concurrency = model.ConcurrencyDefault
	}

	return &SnapshotCollector{
		client:      client,
		publisher:   publisher,
		syncWG:      syncWG,
		logger:      logger,
		scopes:      cfg.Scopes,
		query:       cfg.Query,
		assetTypes:  cfg.AssetTypes,
		concurrency: int32(concurrency),
	}
}

// Collect runs one snapshot collection across the configured scopes, records are
// published to the configured sink as they are retrieved.
//
// Scope failures are accumulated, a failed scope terminates its own iteration
// but does not keep the remaining scopes from being collected.
func (c *SnapshotCollector) Collect(ctx context.Context) (*types.Snapshot, error) {
	tracer := otel.Tracer("collector.SnapshotCollector")
	ctx, span := tracer.Start(ctx, "Collect()")

	defer span.End()

	snapshot := &types.Snapshot{
		ID:         uuid.New().String(),
		Scope:      strings.Join(c.scopes, ","),
		Query:      c.query,
		AssetTypes: c.assetTypes,
		TakenAt:    time.Now().UTC(),
	}

	var errs error

	for _, scope := range c.scopes {
		if err := c.collectScope(ctx, scope, snapshot); err != nil {
			errs = multierror.Append(errs, errors.Wrap(err, scope))
		}
	}

	if errs != nil {
		return nil, errors.Wrap(ErrSnapshotCollect, errs.Error())
	}

	snapshot.Sort()

	if err := c.publisher.PublishSnapshot(ctx, snapshot); err != nil {
		return nil, err
	}

	c.logger.WithFields(logrus.Fields{
		"snapshot.id": snapshot.ID,
		"records":     len(snapshot.Records),
	}).Info("snapshot collected")

	return snapshot, nil
}

// CollectScheduled runs snapshot collections on the configured interval until the
// context is canceled or a signal is received on the term channel, a SIGHUP kicks
// off an immediate collection.
func (c *SnapshotCollector) CollectScheduled(ctx context.Context, interval, splay time.Duration, kickCh <-chan struct{}) {
	tickerCollect := time.NewTicker(splayInterval(interval, splay))
	defer tickerCollect.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-kickCh:
			c.syncWG.Add(1)

			go func() { defer c.syncWG.Done(); c.collectAndLog(ctx) }()

		case <-tickerCollect.C:
			c.syncWG.Add(1)

			go func() { defer c.syncWG.Done(); c.collectAndLog(ctx) }()
		}
	}
}

func (c *SnapshotCollector) collectAndLog(ctx context.Context) {
	if _, err := c.Collect(ctx); err != nil {
		c.logger.WithError(err).Error("scheduled snapshot collection failed")
	}
}

// splayInterval randomizes to the given splay value and adds it to the interval
func splayInterval(interval, splay time.Duration) time.Duration {
	if splay == 0 {
		return interval
	}

	// nolint:gosec // the generated random value here is just used to add
	//                 jitter/splay to the interval value and is not used outside
	//                 of this context.
	return interval + time.Duration(rand.Int63n(int64(splay)))
}

// collectScope runs a record iterator for the given scope, dispatching a publish
// task for each record received and appending it to the snapshot.
//
// nolint:gocyclo // the dispatch loop is clearer in one method
func (c *SnapshotCollector) collectScope(ctx context.Context, scope string, snapshot *types.Snapshot) error {
	// pauser helps throttle record retrieval to match the publish rate.
	pauser := NewPauser()

	params := &cai.SearchParams{
		Scope:      scope,
		Query:      c.query,
		AssetTypes: c.assetTypes,
	}

	recordIterator := NewRecordIterator(c.client, c.logger)

	var iterErr error

	var iterWG sync.WaitGroup

	iterWG.Add(1)

	// record fetcher routine
	go func() {
		defer iterWG.Done()

		iterErr = recordIterator.IterPages(ctx, params, pauser)
	}()

	// count of routines spawned to publish records
	var dispatched int32

	// bool set when the record iterator closes its channel.
	var done bool

	// interval to check collection completion
	var checkCompletionInterval = 1 * time.Second

	tickerCheckComplete := time.NewTicker(checkCompletionInterval)
	defer tickerCheckComplete.Stop()

	// routines spawned by the loop below indicate on doneCh when complete.
	doneCh := make(chan struct{})

Loop:
	for {
		select {
		case <-tickerCheckComplete.C:

			// tasks dispatched were completed and the record iterator is done.
			if dispatched == 0 && done {
				break Loop
			}

		case <-doneCh:
			// count tasks completed
			metrics.TasksCompleted.With(metrics.StageLabelCollector).Add(1)

			active := atomic.AddInt32(&dispatched, ^int32(0))

			// resume a paused record iterator once active tasks drain below the limit
			c.throttle(pauser, active)

		// spawn routines to publish records
		case record, ok := <-recordIterator.Channel():
			// recordCh closed - iterator returned.
			if !ok {
				done = true

				continue
			}

			if record == nil {
				continue
			}

			snapshot.Records = append(snapshot.Records, record)

			// increment wait group
			c.syncWG.Add(1)

			// increment spawned count
			active := atomic.AddInt32(&dispatched, 1)

			// throttle record iterator based on dispatched vs concurrency limit
			c.throttle(pauser, active)

			// run publish in routine
			go func(ctx context.Context, record *types.AssetRecord) {
				defer c.syncWG.Done()
				defer func() {
					doneCh <- struct{}{}
				}()

				// count dispatched publish task
				metrics.TasksDispatched.With(metrics.StageLabelCollector).Add(1)

				c.publishRecord(ctx, record)
			}(ctx, record)
		}
	}

	iterWG.Wait()

	return iterErr
}

func (c *SnapshotCollector) publishRecord(ctx context.Context, record *types.AssetRecord) {
	c.logger.WithFields(
		logrus.Fields{
			"name":       record.Name,
			"asset.type": record.AssetType,
		},
	).Debug("publishing record")

	if err := c.publisher.PublishRecord(ctx, record); err != nil {
		// count publish errors
		metrics.PublishErrorCount.With(metrics.StageLabelPublisher).Inc()

		c.logger.WithFields(logrus.Fields{
			"name": record.Name,
			"err":  err.Error(),
		}).Warn("record publish error")

		return
	}

	// count records published to the sink
	metrics.RecordsPublished.With(metrics.StageLabelPublisher).Inc()
}

// throttle allows this collector to 'push back' on the record iterator
// to throttle records being sent based on the routines dispatched and the configured concurrency value.
func (c *SnapshotCollector) throttle(pauser *Pauser, dispatched int32) {
	// measure tasks waiting queue size
	metrics.TaskQueueSize.With(metrics.StageLabelCollector).Set(float64(dispatched))

	if dispatched > c.concurrency {
		if pauser.Value() {
			// iterator was previously paused
			return
		}

		pauser.Pause()

		c.logger.WithFields(logrus.Fields{
			"component":   "snapshot collector",
			"active":      dispatched,
			"concurrency": c.concurrency,
		}).Trace("paused record iterator.")

		return
	}

	if pauser.Value() {
		pauser.UnPause()

		c.logger.WithFields(logrus.Fields{
			"component":   "snapshot collector",
			"active":      dispatched,
			"concurrency": c.concurrency,
		}).Trace("resumed record iterator.")
	}
}
