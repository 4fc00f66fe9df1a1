package types

import (
	"time"

	"cloud.google.com/go/asset/apiv1/assetpb"
)

// AssetRecord is the flattened form of a resource search record, the shape
// snapshot sinks publish and snapshot files persist.
//
// nolint:govet // prefer readability over field alignment optimization for this case.
type AssetRecord struct {
	Name                   string            `json:"name"`
	AssetType              string            `json:"asset_type"`
	Project                string            `json:"project,omitempty"`
	Folders                []string          `json:"folders,omitempty"`
	Organization           string            `json:"organization,omitempty"`
	DisplayName            string            `json:"display_name,omitempty"`
	Description            string            `json:"description,omitempty"`
	Location               string            `json:"location,omitempty"`
	Labels                 map[string]string `json:"labels,omitempty"`
	NetworkTags            []string          `json:"network_tags,omitempty"`
	KmsKeys                []string          `json:"kms_keys,omitempty"`
	State                  string            `json:"state,omitempty"`
	ParentFullResourceName string            `json:"parent_full_resource_name,omitempty"`
	ParentAssetType        string            `json:"parent_asset_type,omitempty"`
	CreatedAt              time.Time         `json:"created_at,omitempty"`
	UpdatedAt              time.Time         `json:"updated_at,omitempty"`
}

// RecordFromSearchResult flattens a resource search record.
func RecordFromSearchResult(res *assetpb.ResourceSearchResult) *AssetRecord {
	rec := &AssetRecord{
		Name:                   res.GetName(),
		AssetType:              res.GetAssetType(),
		Project:                res.GetProject(),
		Folders:                res.GetFolders(),
		Organization:           res.GetOrganization(),
		DisplayName:            res.GetDisplayName(),
		Description:            res.GetDescription(),
		Location:               res.GetLocation(),
		Labels:                 res.GetLabels(),
		NetworkTags:            res.GetNetworkTags(),
		KmsKeys:                res.GetKmsKeys(),
		State:                  res.GetState(),
		ParentFullResourceName: res.GetParentFullResourceName(),
		ParentAssetType:        res.GetParentAssetType(),
	}

	// the deprecated singular key still comes back on older records
	if len(rec.KmsKeys) == 0 && res.GetKmsKey() != "" {
		rec.KmsKeys = []string{res.GetKmsKey()}
	}

	if res.GetCreateTime() != nil {
		rec.CreatedAt = res.GetCreateTime().AsTime()
	}

	if res.GetUpdateTime() != nil {
		rec.UpdatedAt = res.GetUpdateTime().AsTime()
	}

	return rec
}
