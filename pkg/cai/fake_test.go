package cai

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"testing"

	"cloud.google.com/go/asset/apiv1/assetpb"
	longrunningpb "cloud.google.com/go/longrunning/autogen/longrunningpb"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/anypb"
)

// fakeAssetService is an in process AssetService backend for facade tests,
// records are keyed by scope and served in pages split by the request page
// size, with positional page tokens.
type fakeAssetService struct {
	assetpb.UnimplementedAssetServiceServer

	mu sync.Mutex

	assets    map[string][]*assetpb.Asset
	resources map[string][]*assetpb.ResourceSearchResult
	policies  map[string][]*assetpb.IamPolicySearchResult

	// failListPage fails list calls serving the given 1 based page and after.
	failListPage int

	// failSearchPage fails search calls serving the given 1 based page and after.
	failSearchPage int

	failExport bool

	listCalls   int
	searchCalls int
}

const fakePageSizeDefault = 100

func pageBounds(tok string, pageSize, total int) (start, end, pageNum int, err error) {
	start = 0

	if tok != "" {
		start, err = strconv.Atoi(tok)
		if err != nil {
			return 0, 0, 0, status.Error(codes.InvalidArgument, "malformed page token")
		}
	}

	if pageSize <= 0 {
		pageSize = fakePageSizeDefault
	}

	end = start + pageSize
	if end > total {
		end = total
	}

	return start, end, start/pageSize + 1, nil
}

func (f *fakeAssetService) ListAssets(_ context.Context, req *assetpb.ListAssetsRequest) (*assetpb.ListAssetsResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.listCalls++

	all := f.assets[req.GetParent()]

	start, end, pageNum, err := pageBounds(req.GetPageToken(), int(req.GetPageSize()), len(all))
	if err != nil {
		return nil, err
	}

	if f.failListPage != 0 && pageNum >= f.failListPage {
		return nil, status.Error(codes.Internal, "backend failed serving page "+strconv.Itoa(pageNum))
	}

	resp := &assetpb.ListAssetsResponse{Assets: all[start:end]}
	if end < len(all) {
		resp.NextPageToken = strconv.Itoa(end)
	}

	return resp, nil
}

func (f *fakeAssetService) SearchAllResources(_ context.Context, req *assetpb.SearchAllResourcesRequest) (*assetpb.SearchAllResourcesResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.searchCalls++

	matched := []*assetpb.ResourceSearchResult{}

	for _, r := range f.resources[req.GetScope()] {
		if matchesQuery(r, req.GetQuery()) && matchesTypes(r.GetAssetType(), req.GetAssetTypes()) {
			matched = append(matched, r)
		}
	}

	start, end, pageNum, err := pageBounds(req.GetPageToken(), int(req.GetPageSize()), len(matched))
	if err != nil {
		return nil, err
	}

	if f.failSearchPage != 0 && pageNum >= f.failSearchPage {
		return nil, status.Error(codes.Internal, "backend failed serving page "+strconv.Itoa(pageNum))
	}

	resp := &assetpb.SearchAllResourcesResponse{Results: matched[start:end]}
	if end < len(matched) {
		resp.NextPageToken = strconv.Itoa(end)
	}

	return resp, nil
}

func (f *fakeAssetService) SearchAllIamPolicies(_ context.Context, req *assetpb.SearchAllIamPoliciesRequest) (*assetpb.SearchAllIamPoliciesResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	all := f.policies[req.GetScope()]

	start, end, _, err := pageBounds(req.GetPageToken(), int(req.GetPageSize()), len(all))
	if err != nil {
		return nil, err
	}

	resp := &assetpb.SearchAllIamPoliciesResponse{Results: all[start:end]}
	if end < len(all) {
		resp.NextPageToken = strconv.Itoa(end)
	}

	return resp, nil
}

func (f *fakeAssetService) ExportAssets(_ context.Context, req *assetpb.ExportAssetsRequest) (*longrunningpb.Operation, error) {
	if f.failExport {
		return nil, status.Error(codes.PermissionDenied, "export denied")
	}

	result, err := anypb.New(&assetpb.ExportAssetsResponse{
		ReadTime:     req.GetReadTime(),
		OutputConfig: req.GetOutputConfig(),
	})
	if err != nil {
		return nil, err
	}

	return &longrunningpb.Operation{
		Name:   "operations/export/" + req.GetParent(),
		Done:   true,
		Result: &longrunningpb.Operation_Response{Response: result},
	}, nil
}

// the fake understands the two query shapes the facade generates plus the
// match everything empty query.
func matchesQuery(r *assetpb.ResourceSearchResult, q string) bool {
	switch {
	case q == "":
		return true
	case strings.HasPrefix(q, `name="`):
		return r.GetName() == strings.TrimSuffix(strings.TrimPrefix(q, `name="`), `"`)
	case strings.HasPrefix(q, `project="`):
		return r.GetProject() == strings.TrimSuffix(strings.TrimPrefix(q, `project="`), `"`)
	default:
		return false
	}
}

func matchesTypes(assetType string, want []string) bool {
	if len(want) == 0 {
		return true
	}

	for _, t := range want {
		if t == assetType {
			return true
		}
	}

	return false
}

// startFakeService serves the fake on a local listener and returns a facade
// client dialed against it without credentials.
func startFakeService(t *testing.T, fake *fakeAssetService) *Client {
	t.Helper()

	lis, err := net.Listen("tcp", "localhost:0")
	require.NoError(t, err)

	srv := grpc.NewServer()
	assetpb.RegisterAssetServiceServer(srv, fake)

	go func() {
		_ = srv.Serve(lis)
	}()

	t.Cleanup(srv.Stop)

	client, err := New(context.Background(), &Config{
		Endpoint:              lis.Addr().String(),
		WithoutAuthentication: true,
	}, logrus.New())
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = client.Close()
	})

	return client
}

func fakeAssets(scope string, total int) []*assetpb.Asset {
	assets := make([]*assetpb.Asset, 0, total)

	for i := 0; i < total; i++ {
		assets = append(assets, &assetpb.Asset{
			Name:      fmt.Sprintf("//compute.googleapis.com/%s/instances/instance-%03d", scope, i),
			AssetType: "compute.googleapis.com/Instance",
			Ancestors: []string{scope},
		})
	}

	return assets
}

func assetNames(assets []*assetpb.Asset) []string {
	names := make([]string, 0, len(assets))
	for _, a := range assets {
		names = append(names, a.GetName())
	}

	return names
}
