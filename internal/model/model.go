package model

type (
	AppKind  string
	SinkKind string
	LogLevel string
)

const (
	AppName = "assay"

	// AppKindOneshot runs a single facade operation and exits.
	AppKindOneshot AppKind = "oneshot"
	// AppKindSnapshotter runs the snapshot collection pipeline.
	AppKindSnapshotter AppKind = "snapshotter"

	// SinkKindStdout streams records to stdout as NDJSON.
	SinkKindStdout SinkKind = "stdout"
	// SinkKindFile writes a snapshot document to a local file.
	SinkKindFile SinkKind = "file"
	// SinkKindInventory publishes records to the asset inventory service.
	SinkKindInventory SinkKind = "inventory"
	// SinkKindNats publishes records on a NATS JetStream subject.
	SinkKindNats SinkKind = "nats"

	LogLevelInfo  LogLevel = "info"
	LogLevelDebug LogLevel = "debug"
	LogLevelTrace LogLevel = "trace"

	ConcurrencyDefault = 5

	MetricsEndpoint   = "0.0.0.0:9090"
	ProfilingEndpoint = "localhost:9091"

	// EnvVarDumpDiffers when set to true dumps record differences
	// identified by the inventory sink before it registers updates.
	EnvVarDumpDiffers = "ASSAY_DUMP_DIFFERS"
)

// SinkKinds returns the supported snapshot publisher kinds.
func SinkKinds() []SinkKind {
	return []SinkKind{SinkKindStdout, SinkKindFile, SinkKindInventory, SinkKindNats}
}
