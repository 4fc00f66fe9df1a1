package cai

import (
	"context"

	"cloud.google.com/go/asset/apiv1/assetpb"
	gax "github.com/googleapis/gax-go/v2"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// SearchParams are the parameters to a resource search call.
//
// nolint:govet // prefer readability over field alignment optimization for this case.
type SearchParams struct {
	// Scope is the organization, folder or project to search under.
	Scope string

	// Query is a search expression, opaque to the facade, an empty query
	// matches every searchable resource in scope.
	// https://cloud.google.com/asset-inventory/docs/query-syntax
	Query string

	// AssetTypes limits the search to the given asset types, all searchable
	// types when empty.
	AssetTypes []string

	// OrderBy is a comma separated list of result fields to sort on.
	OrderBy string

	// PageSize caps records per page, the client default applies when zero.
	PageSize int32
}

// Validate checks required search parameters are present.
func (p *SearchParams) Validate() error {
	if p == nil || p.Scope == "" {
		return errors.Wrap(ErrInvalidScope, "search requires a scope")
	}

	if _, err := ParseScope(p.Scope); err != nil {
		return err
	}

	return nil
}

func (p *SearchParams) request(pageSize int32) *assetpb.SearchAllResourcesRequest {
	return &assetpb.SearchAllResourcesRequest{
		Scope:      p.Scope,
		Query:      p.Query,
		AssetTypes: p.AssetTypes,
		OrderBy:    p.OrderBy,
		PageSize:   pageSize,
	}
}

// PolicySearchParams are the parameters to an IAM policy search call.
//
// nolint:govet // prefer readability over field alignment optimization for this case.
type PolicySearchParams struct {
	// Scope is the organization, folder or project to search under.
	Scope string

	// Query is a policy search expression, opaque to the facade.
	// https://cloud.google.com/asset-inventory/docs/searching-iam-policies
	Query string

	// AssetTypes limits the search to policies attached to the given asset types.
	AssetTypes []string

	// OrderBy is a comma separated list of result fields to sort on.
	OrderBy string

	// PageSize caps records per page, the client default applies when zero.
	PageSize int32
}

// Validate checks required policy search parameters are present.
func (p *PolicySearchParams) Validate() error {
	if p == nil || p.Scope == "" {
		return errors.Wrap(ErrInvalidScope, "policy search requires a scope")
	}

	if _, err := ParseScope(p.Scope); err != nil {
		return err
	}

	return nil
}

// SearchResources issues a paginated resource search request and returns the
// record iterator.
func (c *Client) SearchResources(ctx context.Context, p *SearchParams, opts ...gax.CallOption) (*ResourceIterator, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	c.logger.WithFields(logrus.Fields{
		"scope": p.Scope,
		"query": p.Query,
	}).Trace("search resources")

	return &ResourceIterator{it: c.Client.SearchAllResources(ctx, p.request(c.effectivePageSize(p.PageSize)), opts...)}, nil
}

// SearchIamPolicies issues a paginated IAM policy search request and returns
// the record iterator.
func (c *Client) SearchIamPolicies(ctx context.Context, p *PolicySearchParams, opts ...gax.CallOption) (*PolicyIterator, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	req := &assetpb.SearchAllIamPoliciesRequest{
		Scope:      p.Scope,
		Query:      p.Query,
		AssetTypes: p.AssetTypes,
		OrderBy:    p.OrderBy,
		PageSize:   c.effectivePageSize(p.PageSize),
	}

	c.logger.WithFields(logrus.Fields{
		"scope": p.Scope,
		"query": p.Query,
	}).Trace("search IAM policies")

	return &PolicyIterator{it: c.Client.SearchAllIamPolicies(ctx, req, opts...)}, nil
}
