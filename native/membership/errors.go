package membership

import "errors"

var (
	ErrBrandNotFound       = errors.New("membership: caller has no registered brand")
	ErrAssetNotFound       = errors.New("membership: asset not found")
	ErrCollectionNotFound  = errors.New("membership: collection not found")
	ErrNotOwner            = errors.New("membership: caller does not own the record")
	ErrDuplicateAsset      = errors.New("membership: asset id collision")
	ErrDuplicateCollection = errors.New("membership: collection id collision")
	ErrTokenInCollection   = errors.New("membership: collection still referenced by assets")
	ErrTransferToSelf      = errors.New("membership: buyer already owns the asset")
	ErrNotSelling          = errors.New("membership: asset is not listed for sale")
	ErrInvalidRedemption   = errors.New("membership: only primary-market assets are credit-redeemable")
	ErrNotPayExactAmount   = errors.New("membership: renewal fee must be paid exactly")
	ErrInvalidPrice        = errors.New("membership: price outside the redeemable range")
)
