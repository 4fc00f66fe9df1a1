package publish

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/asset-toolbox/assay/internal/app"
	"github.com/asset-toolbox/assay/internal/fixtures"
	"github.com/asset-toolbox/assay/internal/model"
	"github.com/asset-toolbox/assay/types"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_NewPublisher(t *testing.T) {
	// nolint:govet // test struct is clearer to read in this alignment
	testcases := []struct {
		name        string
		config      *app.Configuration
		expectedErr error
	}{
		{
			"stdout sink",
			&app.Configuration{SinkKind: model.SinkKindStdout},
			nil,
		},
		{
			"file sink requires a directory",
			&app.Configuration{SinkKind: model.SinkKindFile, FileSinkOptions: &app.FileSinkOptions{}},
			ErrSink,
		},
		{
			"inventory sink requires configuration",
			&app.Configuration{SinkKind: model.SinkKindInventory},
			ErrInventoryConfig,
		},
		{
			"nats sink requires configuration",
			&app.Configuration{SinkKind: model.SinkKindNats},
			ErrNatsConfig,
		},
		{
			"unsupported sink kind",
			&app.Configuration{SinkKind: model.SinkKind("carrier-pigeon")},
			ErrSink,
		},
	}

	for _, tc := range testcases {
		t.Run(tc.name, func(t *testing.T) {
			assay := &app.App{Config: tc.config, Logger: logrus.New()}

			publisher, err := NewPublisher(context.TODO(), assay)
			if tc.expectedErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tc.expectedErr)
				assert.Nil(t, publisher)

				return
			}

			require.NoError(t, err)
			assert.NotNil(t, publisher)
		})
	}
}

func Test_StdoutPublishRecord(t *testing.T) {
	var buf bytes.Buffer

	publisher := &stdoutPublisher{
		logger: app.NewLogrusEntryFromLogger(logrus.Fields{"component": "publisher-stdout"}, logrus.New()),
		out:    &buf,
	}

	published := fixtures.RecordSlice("bucket-bar", "instance-foo")
	for _, record := range published {
		require.NoError(t, publisher.PublishRecord(context.TODO(), record))
	}

	// nil records are dropped without output
	require.NoError(t, publisher.PublishRecord(context.TODO(), nil))

	var got []*types.AssetRecord

	scanner := bufio.NewScanner(&buf)
	for scanner.Scan() {
		record := &types.AssetRecord{}
		require.NoError(t, json.Unmarshal(scanner.Bytes(), record))

		got = append(got, record)
	}

	require.NoError(t, scanner.Err())
	require.Len(t, got, len(published))

	// one JSON document per line, in publish order
	for i, record := range published {
		assert.Equal(t, record, got[i])
	}
}
