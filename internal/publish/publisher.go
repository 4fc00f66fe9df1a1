package publish

import (
	"context"

	"github.com/asset-toolbox/assay/internal/app"
	"github.com/asset-toolbox/assay/internal/model"
	"github.com/pkg/errors"
)

var (
	ErrSink = errors.New("sink error")
)

// NewPublisher returns a publisher for the sink kind configured on the app.
func NewPublisher(ctx context.Context, assay *app.App) (Publisher, error) {
	switch assay.Config.SinkKind {
	case model.SinkKindStdout:
		return NewStdoutPublisher(ctx, assay)

	case model.SinkKindFile:
		return NewFilePublisher(ctx, assay)

	case model.SinkKindInventory:
		return NewInventoryPublisher(ctx, assay)

	case model.SinkKindNats:
		return NewNatsPublisher(ctx, assay)

	default:
		return nil, errors.Wrap(ErrSink, "unsupported sink kind: "+string(assay.Config.SinkKind))
	}
}
