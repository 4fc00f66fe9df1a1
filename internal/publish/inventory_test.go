package publish

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/asset-toolbox/assay/internal/app"
	"github.com/asset-toolbox/assay/internal/fixtures"
	"github.com/asset-toolbox/assay/internal/model"
	"github.com/asset-toolbox/assay/types"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeInventory is an in-memory inventory service for publisher tests.
type fakeInventory struct {
	mu        sync.Mutex
	records   map[string]*types.AssetRecord
	upserts   int
	snapshots int
}

func newFakeInventory(records ...*types.AssetRecord) *fakeInventory {
	f := &fakeInventory{records: map[string]*types.AssetRecord{}}

	for _, record := range records {
		f.records[record.Name] = record
	}

	return f
}

// handler serves the record and snapshot endpoints the publisher calls,
// record names arrive percent encoded in the URL path.
func (f *fakeInventory) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()

		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/api/v1/snapshots":
			snapshot := &types.Snapshot{}
			if err := json.NewDecoder(r.Body).Decode(snapshot); err != nil {
				w.WriteHeader(http.StatusBadRequest)

				return
			}

			f.snapshots++

			w.WriteHeader(http.StatusCreated)

		case strings.HasPrefix(r.URL.EscapedPath(), "/api/v1/assets/"):
			name, err := url.PathUnescape(strings.TrimPrefix(r.URL.EscapedPath(), "/api/v1/assets/"))
			if err != nil {
				w.WriteHeader(http.StatusBadRequest)

				return
			}

			switch r.Method {
			case http.MethodGet:
				record, exists := f.records[name]
				if !exists {
					w.WriteHeader(http.StatusNotFound)

					return
				}

				_ = json.NewEncoder(w).Encode(record)

			case http.MethodPut:
				record := &types.AssetRecord{}
				if err := json.NewDecoder(r.Body).Decode(record); err != nil {
					w.WriteHeader(http.StatusBadRequest)

					return
				}

				f.records[name] = record
				f.upserts++

			default:
				w.WriteHeader(http.StatusMethodNotAllowed)
			}

		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
}

func (f *fakeInventory) upsertCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.upserts
}

func (f *fakeInventory) snapshotCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.snapshots
}

func newTestInventoryPublisher(t *testing.T, endpoint string) Publisher {
	t.Helper()

	assay := &app.App{
		Config: &app.Configuration{
			SinkKind: model.SinkKindInventory,
			InventorySinkOptions: &app.InventorySinkOptions{
				Endpoint:     endpoint,
				DisableOAuth: true,
			},
		},
		Logger: logrus.New(),
	}

	publisher, err := NewInventoryPublisher(context.TODO(), assay)
	require.NoError(t, err)

	return publisher
}

func Test_InventoryPublishRecord(t *testing.T) {
	record := fixtures.MockRecords["instance-foo"]

	changed := fixtures.CopyRecord(record)
	changed.State = "STOPPING"

	touched := fixtures.CopyRecord(record)
	touched.UpdatedAt = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	// nolint:govet // test struct is clearer to read in this alignment
	testcases := []struct {
		name            string
		current         *types.AssetRecord
		expectedUpserts int
	}{
		{
			"missing record is created",
			nil,
			1,
		},
		{
			"unchanged record is skipped",
			fixtures.CopyRecord(record),
			0,
		},
		{
			"changed record is upserted",
			changed,
			1,
		},
		{
			"timestamp only changes are skipped",
			touched,
			0,
		},
	}

	for _, tc := range testcases {
		t.Run(tc.name, func(t *testing.T) {
			fake := newFakeInventory()
			if tc.current != nil {
				fake = newFakeInventory(tc.current)
			}

			server := httptest.NewServer(fake.handler())
			defer server.Close()

			publisher := newTestInventoryPublisher(t, server.URL)

			err := publisher.PublishRecord(context.TODO(), fixtures.CopyRecord(record))
			require.NoError(t, err)

			assert.Equal(t, tc.expectedUpserts, fake.upsertCount())
		})
	}
}

func Test_InventoryPublishSnapshot(t *testing.T) {
	fake := newFakeInventory()

	server := httptest.NewServer(fake.handler())
	defer server.Close()

	publisher := newTestInventoryPublisher(t, server.URL)

	snapshot := &types.Snapshot{
		ID:      "ec7a50b9-0b41-4e82-a29b-fbd9eef3be2e",
		Scope:   "projects/assay-dev",
		TakenAt: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		Records: fixtures.RecordSlice("bucket-bar", "instance-foo"),
	}

	require.NoError(t, publisher.PublishSnapshot(context.TODO(), snapshot))
	assert.Equal(t, 1, fake.snapshotCount())

	// records go out individually, registration covers metadata only
	assert.Len(t, snapshot.Records, 2)
}

func Test_InventoryPublishRecordServiceError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	publisher := newTestInventoryPublisher(t, server.URL)

	err := publisher.PublishRecord(context.TODO(), fixtures.CopyRecord(fixtures.MockRecords["instance-foo"]))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInventoryAPI)
}
