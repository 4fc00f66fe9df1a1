package publish

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/asset-toolbox/assay/internal/app"
	"github.com/asset-toolbox/assay/internal/metrics"
	"github.com/asset-toolbox/assay/internal/model"
	"github.com/asset-toolbox/assay/types"
	"github.com/nats-io/nats.go"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

var (
	ErrNatsConfig = errors.New("error in NATS publisher configuration")
)

// natsPublisher publishes collected asset records on a JetStream stream, one
// subject per asset type under the configured subject prefix.
type natsPublisher struct {
	logger        *logrus.Entry
	js            nats.JetStreamContext
	streamName    string
	subjectPrefix string
}

// NewNatsPublisher returns a publisher that submits asset records to a NATS
// JetStream stream.
func NewNatsPublisher(_ context.Context, assay *app.App) (Publisher, error) {
	logger := app.NewLogrusEntryFromLogger(logrus.Fields{"component": "publisher-nats"}, assay.Logger)

	cfg := assay.Config.NatsOptions
	if cfg == nil {
		return nil, errors.Wrap(ErrNatsConfig, "configuration is nil")
	}

	opts := []nats.Option{
		nats.Name(model.AppName),
		nats.Timeout(cfg.ConnectTimeout),
	}

	if cfg.CredsFile != "" {
		opts = append(opts, nats.UserCredentials(cfg.CredsFile))
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, errors.Wrap(ErrNatsConfig, err.Error())
	}

	js, err := nc.JetStream()
	if err != nil {
		return nil, errors.Wrap(ErrNatsConfig, err.Error())
	}

	// bind to the stream, adding it when none exists.
	if _, err := js.StreamInfo(cfg.StreamName); err != nil {
		if !errors.Is(err, nats.ErrStreamNotFound) {
			return nil, errors.Wrap(ErrNatsConfig, err.Error())
		}

		_, err = js.AddStream(&nats.StreamConfig{
			Name:     cfg.StreamName,
			Subjects: []string{cfg.SubjectPrefix + ".>"},
		})
		if err != nil {
			return nil, errors.Wrap(ErrNatsConfig, err.Error())
		}
	}

	logger.WithFields(logrus.Fields{
		"url":    cfg.URL,
		"stream": cfg.StreamName,
	}).Info("connected to NATS JetStream")

	return &natsPublisher{
		logger:        logger,
		js:            js,
		streamName:    cfg.StreamName,
		subjectPrefix: cfg.SubjectPrefix,
	}, nil
}

// PublishRecord publishes the record on the asset type subject and waits on
// the stream ack.
//
// PublishRecord implements the Publisher interface
func (p *natsPublisher) PublishRecord(ctx context.Context, record *types.AssetRecord) error {
	if record == nil {
		return nil
	}

	out, err := json.Marshal(record)
	if err != nil {
		return err
	}

	subject := p.subjectPrefix + "." + subjectToken(record.AssetType)

	if _, err := p.js.Publish(subject, out, nats.Context(ctx)); err != nil {
		return errors.Wrap(model.ErrPublish, subject+": "+err.Error())
	}

	// count records written to the sink
	metricSinkRecordsWritten.With(
		metrics.AddLabels(stageLabel, prometheus.Labels{"sink": string(model.SinkKindNats)}),
	).Inc()

	return nil
}

// PublishSnapshot publishes the snapshot metadata on the snapshots subject,
// the records went out individually as they were collected.
//
// PublishSnapshot implements the Publisher interface
func (p *natsPublisher) PublishSnapshot(ctx context.Context, snapshot *types.Snapshot) error {
	if snapshot == nil {
		return nil
	}

	meta := *snapshot
	meta.Records = nil

	out, err := json.Marshal(&meta)
	if err != nil {
		return err
	}

	if _, err := p.js.Publish(p.subjectPrefix+".snapshots", out, nats.Context(ctx)); err != nil {
		return errors.Wrap(model.ErrPublish, "snapshot publish error: "+err.Error())
	}

	p.logger.WithFields(logrus.Fields{
		"snapshot.id": snapshot.ID,
		"records":     len(snapshot.Records),
	}).Info("snapshot published")

	return nil
}

// subjectToken flattens an asset type into a single subject token,
// compute.googleapis.com/Instance -> compute-googleapis-com-instance.
func subjectToken(assetType string) string {
	if assetType == "" {
		return "unknown"
	}

	return strings.ToLower(strings.NewReplacer(".", "-", "/", "-").Replace(assetType))
}
