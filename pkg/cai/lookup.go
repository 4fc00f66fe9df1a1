package cai

import (
	"context"
	"fmt"

	"cloud.google.com/go/asset/apiv1/assetpb"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"google.golang.org/api/iterator"
)

const (
	assetTypeProject      = "cloudresourcemanager.googleapis.com/Project"
	assetTypeFolder       = "cloudresourcemanager.googleapis.com/Folder"
	assetTypeOrganization = "cloudresourcemanager.googleapis.com/Organization"

	// single record lookups request one result per page.
	lookupPageSize = 1
)

// FindResource returns the first search hit for the asset with the given
// full resource name, ErrNotFound when the scope holds no match.
func (c *Client) FindResource(ctx context.Context, scope, name string, assetTypes ...string) (*assetpb.ResourceSearchResult, error) {
	ctx, span := otel.Tracer(pkgName).Start(ctx, "Cai.FindResource")
	defer span.End()

	span.SetAttributes(attribute.String("asset.name", name))

	it, err := c.SearchResources(ctx, &SearchParams{
		Scope:      scope,
		Query:      searchQueryForName(name),
		AssetTypes: assetTypes,
		PageSize:   lookupPageSize,
	})
	if err != nil {
		return nil, err
	}

	res, err := it.Next()
	if err != nil {
		if errors.Is(err, iterator.Done) {
			return nil, errors.Wrap(ErrNotFound, name)
		}

		span.SetStatus(codes.Error, "SearchAllResources() failed")

		return nil, err
	}

	return res, nil
}

// Asset returns the full asset record for the given full resource name.
//
// The name resolves through search first, the asset is then read back with a
// RESOURCE content listing on its owning project so the returned record
// carries the complete resource payload. Some searchable types are not
// listable, those return ErrNotFound here, FindResource still returns their
// search record.
func (c *Client) Asset(ctx context.Context, scope, name string, assetTypes ...string) (*assetpb.Asset, error) {
	ctx, span := otel.Tracer(pkgName).Start(ctx, "Cai.Asset")
	defer span.End()

	res, err := c.FindResource(ctx, scope, name, assetTypes...)
	if err != nil {
		return nil, err
	}

	parent := res.GetProject()
	if parent == "" {
		parent = scope
	}

	it, err := c.Assets(ctx, &ListParams{
		Scope:       parent,
		AssetTypes:  []string{res.GetAssetType()},
		ContentType: assetpb.ContentType_RESOURCE,
	})
	if err != nil {
		return nil, err
	}

	for {
		rec, err := it.Next()
		if err != nil {
			if errors.Is(err, iterator.Done) {
				break
			}

			span.SetStatus(codes.Error, "ListAssets() failed")

			return nil, err
		}

		if rec.GetName() == res.GetName() {
			return rec, nil
		}
	}

	return nil, errors.Wrap(ErrNotFound, "no listable record under "+parent+" for "+name)
}

// ParentProject resolves the project a resource lives under.
//
// Projects resolve to themselves, folders and organizations return
// ErrNoParentProject. Other assets resolve through their project field
// first, then by walking parent resource names upward, ErrNotFound surfaces
// when the walk exhausts without reaching a project.
func (c *Client) ParentProject(ctx context.Context, scope string, res *assetpb.ResourceSearchResult) (*assetpb.ResourceSearchResult, error) {
	switch res.GetAssetType() {
	case assetTypeFolder, assetTypeOrganization:
		return nil, errors.Wrap(ErrNoParentProject, res.GetAssetType())
	case assetTypeProject:
		return res, nil
	}

	ctx, span := otel.Tracer(pkgName).Start(ctx, "Cai.ParentProject")
	defer span.End()

	span.SetAttributes(attribute.String("asset.name", res.GetName()))

	// assets directly under a project resolve in one search on the project field
	if project := res.GetProject(); project != "" {
		hit, err := c.findOne(ctx, &SearchParams{
			Scope:      scope,
			Query:      fmt.Sprintf("project=%q", project),
			AssetTypes: []string{assetTypeProject},
			PageSize:   lookupPageSize,
		})
		if err == nil {
			return hit, nil
		}

		if !errors.Is(err, ErrNotFound) {
			span.SetStatus(codes.Error, "project field lookup failed")

			return nil, err
		}
	}

	parentName := res.GetParentFullResourceName()
	if parentName == "" {
		return nil, errors.Wrap(ErrNotFound, "no parent project for "+res.GetName())
	}

	p := &SearchParams{
		Scope:    scope,
		Query:    searchQueryForName(parentName),
		PageSize: lookupPageSize,
	}
	if res.GetParentAssetType() != "" {
		p.AssetTypes = []string{res.GetParentAssetType()}
	}

	parent, err := c.findOne(ctx, p)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, errors.Wrap(ErrNotFound, "no parent project for "+res.GetName())
		}

		span.SetStatus(codes.Error, "parent resource lookup failed")

		return nil, err
	}

	return c.ParentProject(ctx, scope, parent)
}

// findOne returns the first hit of a search, ErrNotFound on none.
func (c *Client) findOne(ctx context.Context, p *SearchParams) (*assetpb.ResourceSearchResult, error) {
	it, err := c.SearchResources(ctx, p)
	if err != nil {
		return nil, err
	}

	res, err := it.Next()
	if err != nil {
		if errors.Is(err, iterator.Done) {
			return nil, errors.Wrap(ErrNotFound, p.Query)
		}

		return nil, err
	}

	return res, nil
}
