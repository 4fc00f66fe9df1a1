package fixtures

import (
	"github.com/asset-toolbox/assay/types"
	"github.com/jinzhu/copier"
)

// CopyRecord returns a pointer to a copy of the given asset record object
func CopyRecord(src *types.AssetRecord) *types.AssetRecord {
	dst := &types.AssetRecord{}

	copyOptions := copier.Option{IgnoreEmpty: true, DeepCopy: true}

	err := copier.CopyWithOption(&dst, &src, copyOptions)
	if err != nil {
		panic(err)
	}

	return dst
}

// CopyRecordSlice returns a copy of the given asset record slice
func CopyRecordSlice(src []*types.AssetRecord) []*types.AssetRecord {
	dst := []*types.AssetRecord{}

	copyOptions := copier.Option{IgnoreEmpty: true, DeepCopy: true}

	err := copier.CopyWithOption(&dst, &src, copyOptions)
	if err != nil {
		panic(err)
	}

	return dst
}

// CopySnapshot returns a pointer to a copy of the given snapshot object
func CopySnapshot(src *types.Snapshot) *types.Snapshot {
	dst := &types.Snapshot{}

	copyOptions := copier.Option{IgnoreEmpty: true, DeepCopy: true}

	err := copier.CopyWithOption(&dst, &src, copyOptions)
	if err != nil {
		panic(err)
	}

	return dst
}
