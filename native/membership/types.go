package membership

import (
	"math/big"

	"brandchain/core/identifier"
)

// Collection groups collectibles issued by a single brand. The deposit is
// currency reserved against the creator in proportion to the stored content
// size, released when the collection is destroyed.
type Collection struct {
	Title        string
	Description  string
	Creator      [20]byte
	Deposit      *big.Int
	ExpireMonths uint8
	CreatedAt    int64
}

// Clone returns a deep copy of the collection so callers can safely mutate the
// copy without affecting the stored instance.
func (c *Collection) Clone() *Collection {
	if c == nil {
		return nil
	}
	clone := *c
	if c.Deposit != nil {
		clone.Deposit = new(big.Int).Set(c.Deposit)
	} else {
		clone.Deposit = big.NewInt(0)
	}
	return &clone
}

// Asset is a unique, tradable collectible. A zero price means the asset is not
// listed; owner == creator means it is still held by its issuing brand (the
// primary market state required for credit redemption).
type Asset struct {
	ID           identifier.ID
	Title        string
	Description  string
	Media        string
	Creator      [20]byte
	Owner        [20]byte
	CollectionID identifier.ID
	Deposit      *big.Int
	Price        *big.Int
	ExpireMonths uint8
	CreatedAt    int64
	RenewTime    int64
	RenewFee     *big.Int
}

// Clone returns a deep copy of the asset.
func (a *Asset) Clone() *Asset {
	if a == nil {
		return nil
	}
	clone := *a
	if a.Deposit != nil {
		clone.Deposit = new(big.Int).Set(a.Deposit)
	} else {
		clone.Deposit = big.NewInt(0)
	}
	if a.Price != nil {
		clone.Price = new(big.Int).Set(a.Price)
	} else {
		clone.Price = big.NewInt(0)
	}
	if a.RenewFee != nil {
		clone.RenewFee = new(big.Int).Set(a.RenewFee)
	} else {
		clone.RenewFee = big.NewInt(0)
	}
	return &clone
}

// Listed reports whether the asset is offered for sale.
func (a *Asset) Listed() bool {
	return a != nil && a.Price != nil && a.Price.Sign() != 0
}

const (
	// assetOverheadBytes is the fixed struct overhead charged on top of the
	// variable-length asset content.
	assetOverheadBytes = 32
	// collectionOverheadBytes is the fixed overhead charged per collection.
	collectionOverheadBytes = 16
)

func assetContentSize(title, description, media string) int {
	return len(title) + len(description) + len(media) + len(identifier.ID{}) + assetOverheadBytes
}

func collectionContentSize(title, description string) int {
	return len(title) + len(description) + collectionOverheadBytes
}
