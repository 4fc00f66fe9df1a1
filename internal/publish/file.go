package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/asset-toolbox/assay/internal/app"
	"github.com/asset-toolbox/assay/internal/metrics"
	"github.com/asset-toolbox/assay/internal/model"
	"github.com/asset-toolbox/assay/types"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

// filePublisher writes assembled snapshots as JSON files into the configured directory
type filePublisher struct {
	logger    *logrus.Entry
	directory string
}

// NewFilePublisher returns a new publisher that writes snapshot files.
func NewFilePublisher(_ context.Context, assay *app.App) (Publisher, error) {
	logger := app.NewLogrusEntryFromLogger(logrus.Fields{"component": "publisher-file"}, assay.Logger)

	cfg := assay.Config.FileSinkOptions
	if cfg == nil || cfg.Directory == "" {
		return nil, errors.Wrap(ErrSink, "file sink requires a directory")
	}

	// nolint:gomnd // directory permissions are clearer in this form.
	if err := os.MkdirAll(cfg.Directory, 0o750); err != nil {
		return nil, err
	}

	return &filePublisher{logger: logger, directory: cfg.Directory}, nil
}

// PublishRecord is a no-op for the file sink, records are written with the assembled snapshot.
//
// PublishRecord implements the Publisher interface
func (p *filePublisher) PublishRecord(_ context.Context, _ *types.AssetRecord) error {
	return nil
}

// PublishSnapshot writes the snapshot to a timestamped JSON file in the configured directory.
//
// PublishSnapshot implements the Publisher interface
func (p *filePublisher) PublishSnapshot(_ context.Context, snapshot *types.Snapshot) error {
	if snapshot == nil {
		return nil
	}

	out, err := json.MarshalIndent(snapshot, "", " ")
	if err != nil {
		return err
	}

	name := fmt.Sprintf("assets-%s-%s.json", snapshot.TakenAt.UTC().Format("20060102T150405Z"), snapshot.ID)
	path := filepath.Join(p.directory, name)

	// nolint:gomnd // file permissions are clearer in this form.
	if err := os.WriteFile(path, out, 0o600); err != nil {
		return err
	}

	// count records written to the sink
	metricSinkRecordsWritten.With(
		metrics.AddLabels(stageLabel, prometheus.Labels{"sink": string(model.SinkKindFile)}),
	).Add(float64(len(snapshot.Records)))

	p.logger.WithFields(logrus.Fields{
		"file":    path,
		"records": len(snapshot.Records),
	}).Info("snapshot written")

	return nil
}

// ReadSnapshotFile loads a snapshot written by the file sink.
func ReadSnapshotFile(path string) (*types.Snapshot, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	snapshot := &types.Snapshot{}
	if err := json.Unmarshal(b, snapshot); err != nil {
		return nil, errors.Wrap(err, path)
	}

	return snapshot, nil
}
