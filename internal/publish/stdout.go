package publish

import (
	"context"
	"encoding/json"
	"io"
	"os"

	"github.com/asset-toolbox/assay/internal/app"
	"github.com/asset-toolbox/assay/internal/metrics"
	"github.com/asset-toolbox/assay/internal/model"
	"github.com/asset-toolbox/assay/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

// stdoutPublisher publishes collected asset records to stdout
type stdoutPublisher struct {
	logger *logrus.Entry
	out    io.Writer
}

// NewStdoutPublisher returns a new publisher that prints received records to stdout.
func NewStdoutPublisher(_ context.Context, assay *app.App) (Publisher, error) {
	logger := app.NewLogrusEntryFromLogger(logrus.Fields{"component": "publisher-stdout"}, assay.Logger)

	p := &stdoutPublisher{
		logger: logger,
		out:    os.Stdout,
	}

	return p, nil
}

// PublishRecord writes the record to stdout as one JSON document per line.
//
// PublishRecord implements the Publisher interface
func (p *stdoutPublisher) PublishRecord(_ context.Context, record *types.AssetRecord) error {
	if record == nil {
		return nil
	}

	if err := json.NewEncoder(p.out).Encode(record); err != nil {
		return err
	}

	// count records written to the sink
	metricSinkRecordsWritten.With(
		metrics.AddLabels(stageLabel, prometheus.Labels{"sink": string(model.SinkKindStdout)}),
	).Inc()

	return nil
}

// PublishSnapshot logs the run summary, the records were already written line by line.
//
// PublishSnapshot implements the Publisher interface
func (p *stdoutPublisher) PublishSnapshot(_ context.Context, snapshot *types.Snapshot) error {
	if snapshot == nil {
		return nil
	}

	p.logger.WithFields(logrus.Fields{
		"snapshot.id": snapshot.ID,
		"scope":       snapshot.Scope,
		"records":     len(snapshot.Records),
	}).Info("snapshot complete")

	return nil
}
