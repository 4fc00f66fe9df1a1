package fixtures

import (
	"fmt"
	"time"

	"cloud.google.com/go/asset/apiv1/assetpb"
	"github.com/asset-toolbox/assay/types"
	"google.golang.org/protobuf/types/known/timestamppb"
)

var (
	// MockRecords holds flattened asset records for tests, keyed by display name.
	MockRecords = map[string]*types.AssetRecord{
		"instance-foo": {
			Name:                   "//compute.googleapis.com/projects/assay-dev/zones/us-east4-a/instances/instance-foo",
			AssetType:              "compute.googleapis.com/Instance",
			Project:                "projects/1111111111",
			DisplayName:            "instance-foo",
			Location:               "us-east4-a",
			Labels:                 map[string]string{"env": "dev"},
			NetworkTags:            []string{"ssh", "internal"},
			State:                  "RUNNING",
			ParentFullResourceName: "//cloudresourcemanager.googleapis.com/projects/assay-dev",
			ParentAssetType:        "cloudresourcemanager.googleapis.com/Project",
			CreatedAt:              time.Date(2023, 11, 2, 10, 30, 0, 0, time.UTC),
		},
		"bucket-bar": {
			Name:                   "//storage.googleapis.com/bucket-bar",
			AssetType:              "storage.googleapis.com/Bucket",
			Project:                "projects/1111111111",
			DisplayName:            "bucket-bar",
			Location:               "us",
			Labels:                 map[string]string{"team": "infra"},
			State:                  "ACTIVE",
			ParentFullResourceName: "//cloudresourcemanager.googleapis.com/projects/assay-dev",
			ParentAssetType:        "cloudresourcemanager.googleapis.com/Project",
			CreatedAt:              time.Date(2022, 5, 17, 8, 0, 0, 0, time.UTC),
		},
		"borky": {
			Name:      "",
			AssetType: "compute.googleapis.com/Instance",
		},
	}
)

// RecordSlice returns the named mock records as a slice, in the given order.
func RecordSlice(names ...string) []*types.AssetRecord {
	records := make([]*types.AssetRecord, 0, len(names))

	for _, name := range names {
		records = append(records, CopyRecord(MockRecords[name]))
	}

	return records
}

// MockSearchResults generates the given count of resource search results under the scope.
func MockSearchResults(scope string, total int) []*assetpb.ResourceSearchResult {
	results := make([]*assetpb.ResourceSearchResult, 0, total)

	for i := 0; i < total; i++ {
		results = append(results, &assetpb.ResourceSearchResult{
			Name:        fmt.Sprintf("//compute.googleapis.com/%s/zones/us-east4-a/instances/instance-%04d", scope, i),
			AssetType:   "compute.googleapis.com/Instance",
			Project:     scope,
			DisplayName: fmt.Sprintf("instance-%04d", i),
			Location:    "us-east4-a",
			State:       "RUNNING",
			CreateTime:  timestamppb.New(time.Date(2023, 11, 2, 10, 30, 0, 0, time.UTC)),
		})
	}

	return results
}
