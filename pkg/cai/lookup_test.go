package cai

import (
	"context"
	"testing"

	"cloud.google.com/go/asset/apiv1/assetpb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/structpb"
)

const testOrgScope = "organizations/600"

// lookupFixture seeds a small resource hierarchy under testOrgScope:
//
//	projects/1234567 owns a storage bucket, projects/7654321 is reachable
//	only by walking parent resource names, folders/111 holds a firewall
//	policy with no project above it.
func lookupFixture() *fakeAssetService {
	project1 := &assetpb.ResourceSearchResult{
		Name:        "//cloudresourcemanager.googleapis.com/projects/1234567",
		AssetType:   assetTypeProject,
		Project:     "projects/1234567",
		DisplayName: "assay-prod",
	}

	project2 := &assetpb.ResourceSearchResult{
		Name:      "//cloudresourcemanager.googleapis.com/projects/7654321",
		AssetType: assetTypeProject,
		Project:   "projects/7654321",
	}

	folder := &assetpb.ResourceSearchResult{
		Name:      "//cloudresourcemanager.googleapis.com/folders/111",
		AssetType: assetTypeFolder,
	}

	bucket := &assetpb.ResourceSearchResult{
		Name:                   "//storage.googleapis.com/assay-logs",
		AssetType:              "storage.googleapis.com/Bucket",
		Project:                "projects/1234567",
		ParentFullResourceName: project1.GetName(),
		ParentAssetType:        assetTypeProject,
	}

	// the project field is empty on this one, resolution must walk the parent
	instance := &assetpb.ResourceSearchResult{
		Name:                   "//compute.googleapis.com/projects/walk/zones/z1/instances/vm-1",
		AssetType:              "compute.googleapis.com/Instance",
		ParentFullResourceName: project2.GetName(),
		ParentAssetType:        assetTypeProject,
	}

	firewallPolicy := &assetpb.ResourceSearchResult{
		Name:                   "//compute.googleapis.com/locations/global/firewallPolicies/fp-1",
		AssetType:              "compute.googleapis.com/FirewallPolicy",
		ParentFullResourceName: folder.GetName(),
		ParentAssetType:        assetTypeFolder,
	}

	orphan := &assetpb.ResourceSearchResult{
		Name:      "//example.googleapis.com/orphans/o-1",
		AssetType: "example.googleapis.com/Orphan",
	}

	bucketData, _ := structpb.NewStruct(map[string]interface{}{"locationType": "multi-region"})

	return &fakeAssetService{
		resources: map[string][]*assetpb.ResourceSearchResult{
			testOrgScope: {project1, project2, folder, bucket, instance, firewallPolicy, orphan},
		},
		assets: map[string][]*assetpb.Asset{
			"projects/1234567": {
				{
					Name:      "//storage.googleapis.com/assay-other",
					AssetType: "storage.googleapis.com/Bucket",
				},
				{
					Name:      bucket.GetName(),
					AssetType: bucket.GetAssetType(),
					Resource:  &assetpb.Resource{Data: bucketData},
				},
			},
		},
	}
}

func Test_FindResource(t *testing.T) {
	testcases := []struct {
		name         string
		assetName    string
		assetTypes   []string
		expectedName string
		expectedErr  error
	}{
		{
			"hit by name",
			"//storage.googleapis.com/assay-logs",
			nil,
			"//storage.googleapis.com/assay-logs",
			nil,
		},
		{
			"project by number resolves through the project field",
			"//cloudresourcemanager.googleapis.com/projects/1234567",
			nil,
			"//cloudresourcemanager.googleapis.com/projects/1234567",
			nil,
		},
		{
			"asset type filter excludes the record",
			"//storage.googleapis.com/assay-logs",
			[]string{"compute.googleapis.com/Instance"},
			"",
			ErrNotFound,
		},
		{
			"no match",
			"//storage.googleapis.com/absent",
			nil,
			"",
			ErrNotFound,
		},
	}

	for _, tt := range testcases {
		t.Run(tt.name, func(t *testing.T) {
			client := startFakeService(t, lookupFixture())

			got, err := client.FindResource(context.TODO(), testOrgScope, tt.assetName, tt.assetTypes...)

			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expectedName, got.GetName())
		})
	}
}

func Test_Asset(t *testing.T) {
	client := startFakeService(t, lookupFixture())

	got, err := client.Asset(context.TODO(), testOrgScope, "//storage.googleapis.com/assay-logs")

	require.NoError(t, err)
	assert.Equal(t, "//storage.googleapis.com/assay-logs", got.GetName())
	require.NotNil(t, got.GetResource())
	assert.Equal(t, "multi-region", got.GetResource().GetData().GetFields()["locationType"].GetStringValue())
}

func Test_AssetNotListable(t *testing.T) {
	// searchable but absent from the listing backend
	client := startFakeService(t, lookupFixture())

	_, err := client.Asset(context.TODO(), testOrgScope, "//compute.googleapis.com/projects/walk/zones/z1/instances/vm-1")

	assert.ErrorIs(t, err, ErrNotFound)
}

func Test_ParentProject(t *testing.T) {
	testcases := []struct {
		name         string
		assetName    string
		expectedName string
		expectedErr  error
	}{
		{
			"project resolves to itself",
			"//cloudresourcemanager.googleapis.com/projects/1234567",
			"//cloudresourcemanager.googleapis.com/projects/1234567",
			nil,
		},
		{
			"asset under a project resolves through the project field",
			"//storage.googleapis.com/assay-logs",
			"//cloudresourcemanager.googleapis.com/projects/1234567",
			nil,
		},
		{
			"asset without a project field walks the parent chain",
			"//compute.googleapis.com/projects/walk/zones/z1/instances/vm-1",
			"//cloudresourcemanager.googleapis.com/projects/7654321",
			nil,
		},
		{
			"folder has no parent project",
			"//cloudresourcemanager.googleapis.com/folders/111",
			"",
			ErrNoParentProject,
		},
		{
			"walk reaching a folder stops",
			"//compute.googleapis.com/locations/global/firewallPolicies/fp-1",
			"",
			ErrNoParentProject,
		},
		{
			"no project anywhere above",
			"//example.googleapis.com/orphans/o-1",
			"",
			ErrNotFound,
		},
	}

	for _, tt := range testcases {
		t.Run(tt.name, func(t *testing.T) {
			client := startFakeService(t, lookupFixture())

			res, err := client.FindResource(context.TODO(), testOrgScope, tt.assetName)
			require.NoError(t, err)

			got, err := client.ParentProject(context.TODO(), testOrgScope, res)

			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expectedName, got.GetName())
			assert.Equal(t, assetTypeProject, got.GetAssetType())
		})
	}
}
