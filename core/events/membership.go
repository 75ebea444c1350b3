package events

import "math/big"

const (
	// TypeAssetCreated is emitted when a brand mints a new collectible.
	TypeAssetCreated = "membership.asset.created"
	// TypeAssetEdited is emitted when a collectible's content changes.
	TypeAssetEdited = "membership.asset.edited"
	// TypeAssetPriceSet is emitted when a listed collectible is repriced.
	TypeAssetPriceSet = "membership.asset.price_set"
	// TypeAssetBurned is emitted when a collectible is destroyed.
	TypeAssetBurned = "membership.asset.burned"
	// TypeAssetBought is emitted when a collectible changes hands for value.
	TypeAssetBought = "membership.asset.bought"
	// TypeAssetTransferred is emitted alongside TypeAssetBought once the
	// ownership change is persisted.
	TypeAssetTransferred = "membership.asset.transferred"
	// TypeAssetRenewed is emitted when the holder pays the renewal fee.
	TypeAssetRenewed = "membership.asset.renewed"
	// TypeAssetReturnedOverdue is emitted by the expiry sweep for each
	// collectible reclaimed by its issuing brand.
	TypeAssetReturnedOverdue = "membership.asset.returned_overdue"
	// TypeCollectionCreated is emitted when a collection is registered.
	TypeCollectionCreated = "membership.collection.created"
	// TypeCollectionEdited is emitted when a collection's content changes.
	TypeCollectionEdited = "membership.collection.edited"
	// TypeCollectionDestroyed is emitted when an empty collection is removed.
	TypeCollectionDestroyed = "membership.collection.destroyed"
)

// AssetCreated captures a freshly minted collectible.
type AssetCreated struct {
	Asset [16]byte
	Owner [20]byte
}

// EventType implements the Event interface.
func (AssetCreated) EventType() string { return TypeAssetCreated }

// AssetEdited reports a content update on a collectible.
type AssetEdited struct {
	Asset [16]byte
	Owner [20]byte
}

// EventType implements the Event interface.
func (AssetEdited) EventType() string { return TypeAssetEdited }

// AssetPriceSet reports the new listing price of a collectible.
type AssetPriceSet struct {
	Asset [16]byte
	Price *big.Int
}

// EventType implements the Event interface.
func (AssetPriceSet) EventType() string { return TypeAssetPriceSet }

// AssetBurned reports a destroyed collectible.
type AssetBurned struct {
	Asset [16]byte
}

// EventType implements the Event interface.
func (AssetBurned) EventType() string { return TypeAssetBurned }

// AssetBought reports a completed sale.
type AssetBought struct {
	Asset  [16]byte
	Seller [20]byte
	Buyer  [20]byte
	Price  *big.Int
}

// EventType implements the Event interface.
func (AssetBought) EventType() string { return TypeAssetBought }

// AssetTransferred reports the ownership change of a sold collectible.
type AssetTransferred struct {
	Asset [16]byte
	From  [20]byte
	To    [20]byte
}

// EventType implements the Event interface.
func (AssetTransferred) EventType() string { return TypeAssetTransferred }

// AssetRenewed reports a paid renewal.
type AssetRenewed struct {
	Asset [16]byte
	Paid  *big.Int
}

// EventType implements the Event interface.
func (AssetRenewed) EventType() string { return TypeAssetRenewed }

// AssetReturnedOverdue reports a collectible reclaimed by the expiry sweep.
type AssetReturnedOverdue struct {
	Asset [16]byte
}

// EventType implements the Event interface.
func (AssetReturnedOverdue) EventType() string { return TypeAssetReturnedOverdue }

// CollectionCreated captures a freshly registered collection.
type CollectionCreated struct {
	Collection [16]byte
	Owner      [20]byte
}

// EventType implements the Event interface.
func (CollectionCreated) EventType() string { return TypeCollectionCreated }

// CollectionEdited reports a content update on a collection.
type CollectionEdited struct {
	Collection [16]byte
	Owner      [20]byte
}

// EventType implements the Event interface.
func (CollectionEdited) EventType() string { return TypeCollectionEdited }

// CollectionDestroyed reports a removed collection.
type CollectionDestroyed struct {
	Collection [16]byte
}

// EventType implements the Event interface.
func (CollectionDestroyed) EventType() string { return TypeCollectionDestroyed }
