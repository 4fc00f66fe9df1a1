package cai

import (
	"context"
	"strings"
	"time"

	"cloud.google.com/go/asset/apiv1/assetpb"
	gax "github.com/googleapis/gax-go/v2"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"google.golang.org/api/iterator"
	"google.golang.org/protobuf/types/known/timestamppb"
)

// ParseContentType maps a content type name onto its request enum, the empty
// string leaves the content type unspecified.
func ParseContentType(s string) (assetpb.ContentType, error) {
	switch strings.ToLower(s) {
	case "":
		return assetpb.ContentType_CONTENT_TYPE_UNSPECIFIED, nil
	case "resource":
		return assetpb.ContentType_RESOURCE, nil
	case "iam-policy":
		return assetpb.ContentType_IAM_POLICY, nil
	case "org-policy":
		return assetpb.ContentType_ORG_POLICY, nil
	case "access-policy":
		return assetpb.ContentType_ACCESS_POLICY, nil
	case "os-inventory":
		return assetpb.ContentType_OS_INVENTORY, nil
	case "relationship":
		return assetpb.ContentType_RELATIONSHIP, nil
	default:
		return assetpb.ContentType_CONTENT_TYPE_UNSPECIFIED, errors.Wrap(ErrConfig, "unknown content type: "+s)
	}
}

// ListParams are the parameters to an asset listing call.
//
// nolint:govet // prefer readability over field alignment optimization for this case.
type ListParams struct {
	// Scope is the organization, folder or project to list under.
	Scope string

	// AssetTypes limits the listing to the given asset types, all types when empty.
	// https://cloud.google.com/asset-inventory/docs/supported-asset-types
	AssetTypes []string

	// ContentType selects the asset content returned.
	ContentType assetpb.ContentType

	// ReadTime lists asset state at the given time instead of now.
	ReadTime time.Time

	// RelationshipTypes limits relationship listings, valid only with
	// ContentType RELATIONSHIP.
	RelationshipTypes []string

	// PageSize caps records per page, the client default applies when zero.
	PageSize int32
}

// Validate checks required listing parameters are present.
func (p *ListParams) Validate() error {
	if p == nil || p.Scope == "" {
		return errors.Wrap(ErrInvalidScope, "listing requires a scope")
	}

	if _, err := ParseScope(p.Scope); err != nil {
		return err
	}

	return nil
}

func (p *ListParams) request(pageSize int32) *assetpb.ListAssetsRequest {
	req := &assetpb.ListAssetsRequest{
		Parent:            p.Scope,
		AssetTypes:        p.AssetTypes,
		ContentType:       p.ContentType,
		RelationshipTypes: p.RelationshipTypes,
		PageSize:          pageSize,
	}

	if !p.ReadTime.IsZero() {
		req.ReadTime = timestamppb.New(p.ReadTime)
	}

	return req
}

// Assets issues a paginated asset listing request and returns the record
// iterator, pagination tokens are followed transparently until exhaustion.
func (c *Client) Assets(ctx context.Context, p *ListParams, opts ...gax.CallOption) (*AssetIterator, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	c.logger.WithFields(logrus.Fields{
		"scope":       p.Scope,
		"asset.types": len(p.AssetTypes),
		"contentType": p.ContentType.String(),
	}).Trace("list assets")

	return &AssetIterator{it: c.Client.ListAssets(ctx, p.request(c.effectivePageSize(p.PageSize)), opts...)}, nil
}

// AssetPage returns a single page of asset records along with the token for
// the page that follows, an empty token means the listing is complete.
func (c *Client) AssetPage(ctx context.Context, p *ListParams, pageToken string, opts ...gax.CallOption) ([]*assetpb.Asset, string, error) {
	if err := p.Validate(); err != nil {
		return nil, "", err
	}

	ctx, span := otel.Tracer(pkgName).Start(ctx, "Cai.AssetPage")
	defer span.End()

	pageSize := c.effectivePageSize(p.PageSize)
	it := c.Client.ListAssets(ctx, p.request(pageSize), opts...)

	var page []*assetpb.Asset

	next, err := iterator.NewPager(it, int(pageSize), pageToken).NextPage(&page)
	if err != nil {
		span.SetStatus(codes.Error, "ListAssets() failed")

		return nil, "", wrapIterErr(err)
	}

	span.SetAttributes(attribute.Int("assets.returned", len(page)))

	return page, next, nil
}

// ResourcePage returns a single page of resource search records along with
// the token for the page that follows, an empty token means the search is
// complete.
func (c *Client) ResourcePage(ctx context.Context, p *SearchParams, pageToken string, opts ...gax.CallOption) ([]*assetpb.ResourceSearchResult, string, error) {
	if err := p.Validate(); err != nil {
		return nil, "", err
	}

	ctx, span := otel.Tracer(pkgName).Start(ctx, "Cai.ResourcePage")
	defer span.End()

	pageSize := c.effectivePageSize(p.PageSize)
	it := c.Client.SearchAllResources(ctx, p.request(pageSize), opts...)

	var page []*assetpb.ResourceSearchResult

	next, err := iterator.NewPager(it, int(pageSize), pageToken).NextPage(&page)
	if err != nil {
		span.SetStatus(codes.Error, "SearchAllResources() failed")

		return nil, "", wrapIterErr(err)
	}

	span.SetAttributes(attribute.Int("resources.returned", len(page)))

	return page, next, nil
}
