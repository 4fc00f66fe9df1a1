package publish

import (
	"context"

	"github.com/asset-toolbox/assay/types"
)

// Publisher defines an interface for collected asset records to be published to a sink.
type Publisher interface {
	// PublishRecord publishes the given asset record to the configured sink as it is collected.
	PublishRecord(ctx context.Context, record *types.AssetRecord) error

	// PublishSnapshot publishes the assembled snapshot to the configured sink at the end of a collect run.
	PublishSnapshot(ctx context.Context, snapshot *types.Snapshot) error
}
