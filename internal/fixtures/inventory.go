package fixtures

import (
	"context"
	"strconv"

	"cloud.google.com/go/asset/apiv1/assetpb"
	"github.com/asset-toolbox/assay/pkg/cai"
	gax "github.com/googleapis/gax-go/v2"
	"github.com/pkg/errors"
)

// MockInventoryClient implements the collector InventoryQueryor interface,
// serving canned resource search results page by page.
type MockInventoryClient struct {
	results  map[string][]*assetpb.ResourceSearchResult
	pageSize int
	failPage int
}

// NewMockInventoryClient returns a mock inventory queryor serving the given results per scope.
func NewMockInventoryClient(results map[string][]*assetpb.ResourceSearchResult, pageSize int) *MockInventoryClient {
	return &MockInventoryClient{results: results, pageSize: pageSize}
}

// FailPage rigs the mock to fail requests for the given page and the pages after, pages index from 1.
func (c *MockInventoryClient) FailPage(page int) {
	c.failPage = page
}

// ResourcePage returns one page of canned results for the scope in the search parameters.
func (c *MockInventoryClient) ResourcePage(_ context.Context, p *cai.SearchParams, pageToken string, _ ...gax.CallOption) ([]*assetpb.ResourceSearchResult, string, error) {
	var offset int

	if pageToken != "" {
		var err error

		offset, err = strconv.Atoi(pageToken)
		if err != nil {
			return nil, "", errors.Wrap(cai.ErrRemoteService, "malformed page token: "+pageToken)
		}
	}

	if c.failPage > 0 && offset/c.pageSize+1 >= c.failPage {
		return nil, "", errors.Wrap(cai.ErrRemoteService, "rigged page failure")
	}

	all := c.results[p.Scope]
	if offset >= len(all) {
		return nil, "", nil
	}

	end := offset + c.pageSize
	if end > len(all) {
		end = len(all)
	}

	next := ""
	if end < len(all) {
		next = strconv.Itoa(end)
	}

	return all[offset:end], next, nil
}
