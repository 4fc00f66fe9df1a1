package cai

import (
	asset "cloud.google.com/go/asset/apiv1"
	"cloud.google.com/go/asset/apiv1/assetpb"
	"github.com/pkg/errors"
	"google.golang.org/api/iterator"
)

// The iterators wrap their SDK counterparts one to one. A sequence is lazy,
// finite and not restartable, re-running a query takes a fresh iterator.
// Next returns iterator.Done once the last record is consumed and
// ErrRemoteService when the service fails mid way, records retrieved before
// the failure are yielded first.

// AssetIterator yields asset records from a listing call.
type AssetIterator struct {
	it *asset.AssetIterator
}

func (i *AssetIterator) Next() (*assetpb.Asset, error) {
	rec, err := i.it.Next()
	if err != nil {
		return nil, wrapIterErr(err)
	}

	return rec, nil
}

// ResourceIterator yields resource records from a search call.
type ResourceIterator struct {
	it *asset.ResourceSearchResultIterator
}

func (i *ResourceIterator) Next() (*assetpb.ResourceSearchResult, error) {
	rec, err := i.it.Next()
	if err != nil {
		return nil, wrapIterErr(err)
	}

	return rec, nil
}

// PolicyIterator yields IAM policy records from a policy search call.
type PolicyIterator struct {
	it *asset.IamPolicySearchResultIterator
}

func (i *PolicyIterator) Next() (*assetpb.IamPolicySearchResult, error) {
	rec, err := i.it.Next()
	if err != nil {
		return nil, wrapIterErr(err)
	}

	return rec, nil
}

// wrapIterErr maps SDK iteration failures onto ErrRemoteService, the
// iterator.Done terminator passes through untouched.
func wrapIterErr(err error) error {
	if errors.Is(err, iterator.Done) {
		return iterator.Done
	}

	return errors.Wrap(ErrRemoteService, err.Error())
}
