package cai

import (
	"context"
	"testing"

	"cloud.google.com/go/asset/apiv1/assetpb"
	"cloud.google.com/go/iam/apiv1/iampb"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/iterator"
)

func Test_SearchResourcesPagination(t *testing.T) {
	seeded := []*assetpb.ResourceSearchResult{}
	for _, a := range fakeAssets(testScope, 25) {
		seeded = append(seeded, &assetpb.ResourceSearchResult{
			Name:      a.GetName(),
			AssetType: a.GetAssetType(),
			Project:   testScope,
		})
	}

	fake := &fakeAssetService{resources: map[string][]*assetpb.ResourceSearchResult{testScope: seeded}}
	client := startFakeService(t, fake)

	it, err := client.SearchResources(context.TODO(), &SearchParams{Scope: testScope, PageSize: 10})
	require.NoError(t, err)

	names := []string{}

	for {
		res, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}

		require.NoError(t, err)
		names = append(names, res.GetName())
	}

	require.Len(t, names, 25)

	for idx, r := range seeded {
		assert.Equal(t, r.GetName(), names[idx])
	}
}

func Test_SearchResourcesSecondPageFailure(t *testing.T) {
	seeded := []*assetpb.ResourceSearchResult{}
	for _, a := range fakeAssets(testScope, 6) {
		seeded = append(seeded, &assetpb.ResourceSearchResult{Name: a.GetName()})
	}

	fake := &fakeAssetService{
		resources:      map[string][]*assetpb.ResourceSearchResult{testScope: seeded},
		failSearchPage: 2,
	}
	client := startFakeService(t, fake)

	it, err := client.SearchResources(context.TODO(), &SearchParams{Scope: testScope, PageSize: 3})
	require.NoError(t, err)

	var (
		got     int
		iterErr error
	)

	for {
		_, err := it.Next()
		if err != nil {
			iterErr = err
			break
		}

		got++
	}

	assert.Equal(t, 3, got)
	assert.ErrorIs(t, iterErr, ErrRemoteService)
}

func Test_SearchIamPolicies(t *testing.T) {
	seeded := []*assetpb.IamPolicySearchResult{
		{
			Resource: "//cloudresourcemanager.googleapis.com/projects/1234567",
			Project:  "projects/1234567",
			Policy: &iampb.Policy{
				Bindings: []*iampb.Binding{
					{Role: "roles/owner", Members: []string{"user:admin@example.com"}},
				},
			},
		},
		{
			Resource: "//storage.googleapis.com/assay-logs",
			Project:  "projects/1234567",
			Policy: &iampb.Policy{
				Bindings: []*iampb.Binding{
					{Role: "roles/storage.objectViewer", Members: []string{"group:auditors@example.com"}},
				},
			},
		},
	}

	fake := &fakeAssetService{policies: map[string][]*assetpb.IamPolicySearchResult{testOrgScope: seeded}}
	client := startFakeService(t, fake)

	it, err := client.SearchIamPolicies(context.TODO(), &PolicySearchParams{Scope: testOrgScope, Query: "policy:admin@example.com"})
	require.NoError(t, err)

	resources := []string{}

	for {
		res, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}

		require.NoError(t, err)
		require.NotNil(t, res.GetPolicy())
		resources = append(resources, res.GetResource())
	}

	assert.Equal(t, []string{
		"//cloudresourcemanager.googleapis.com/projects/1234567",
		"//storage.googleapis.com/assay-logs",
	}, resources)
}

func Test_SearchParamValidation(t *testing.T) {
	fake := &fakeAssetService{}
	client := startFakeService(t, fake)

	_, err := client.SearchResources(context.TODO(), &SearchParams{})
	assert.ErrorIs(t, err, ErrInvalidScope)

	_, err = client.SearchIamPolicies(context.TODO(), &PolicySearchParams{Scope: "nope"})
	assert.ErrorIs(t, err, ErrInvalidScope)

	assert.Zero(t, fake.searchCalls)
}
