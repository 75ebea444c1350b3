package membership

import (
	"errors"
	"math/big"
	"time"

	"brandchain/core/events"
	"brandchain/core/identifier"
	"brandchain/native/brand"
	"brandchain/native/common"
	"brandchain/native/currency"
)

const moduleName = "membership"

var (
	errNilState = errors.New("membership: state not configured")
	errNilIDs   = errors.New("membership: id source not configured")
)

type engineState interface {
	CollectionGet(id identifier.ID) (*Collection, bool, error)
	CollectionPut(id identifier.ID, c *Collection) error
	CollectionDelete(id identifier.ID) error
	AssetGet(id identifier.ID) (*Asset, bool, error)
	AssetPut(a *Asset) error
	AssetDelete(id identifier.ID) error
	AssetIterate(fn func(a *Asset) bool) error
}

// IDSource produces fresh identifiers for minted records.
type IDSource interface {
	Next() (identifier.ID, error)
}

// CreditRedeemer is the capability the marketplace borrows from the token
// ledger for credit-based purchases.
type CreditRedeemer interface {
	Redeem(from, to, brandID [20]byte, amount uint32) error
}

// Engine implements the collectible marketplace: minting, collection
// grouping, deposit-metered edits, trading, renewal and the periodic expiry
// sweep.
type Engine struct {
	state          engineState
	brands         brand.Directory
	bank           currency.Ledger
	credits        CreditRedeemer
	ids            IDSource
	emitter        events.Emitter
	nowFn          func() int64
	pauses         common.PauseView
	depositPerByte *big.Int
}

// NewEngine constructs a marketplace engine bound to the supplied
// collaborators. The deposit rate defaults to one currency unit per byte.
func NewEngine(st engineState, brands brand.Directory, bank currency.Ledger, credits CreditRedeemer, ids IDSource) *Engine {
	return &Engine{
		state:          st,
		brands:         brands,
		bank:           bank,
		credits:        credits,
		ids:            ids,
		emitter:        events.NoopEmitter{},
		nowFn:          func() int64 { return time.Now().Unix() },
		depositPerByte: big.NewInt(1),
	}
}

// SetEmitter configures the event emitter used by the engine.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetNowFunc overrides the time source, primarily used in tests.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

// SetPauses installs the host's pause view, consulted before every operation.
// A nil view leaves the engine unpaused.
func (e *Engine) SetPauses(p common.PauseView) {
	if e == nil {
		return
	}
	e.pauses = p
}

// SetDepositPerByte overrides the per-byte deposit rate. Nil or negative
// values reset it to the default.
func (e *Engine) SetDepositPerByte(rate *big.Int) {
	if rate == nil || rate.Sign() < 0 {
		e.depositPerByte = big.NewInt(1)
		return
	}
	e.depositPerByte = new(big.Int).Set(rate)
}

func (e *Engine) emit(evt events.Event) {
	if e == nil || e.emitter == nil {
		return
	}
	e.emitter.Emit(evt)
}

func (e *Engine) now() int64 {
	if e == nil || e.nowFn == nil {
		return time.Now().Unix()
	}
	return e.nowFn()
}

func (e *Engine) deposit(contentSize int) *big.Int {
	return new(big.Int).Mul(e.depositPerByte, big.NewInt(int64(contentSize)))
}

func (e *Engine) requireBrand(caller [20]byte) error {
	_, ok, err := e.brands.BrandOf(caller)
	if err != nil {
		return err
	}
	if !ok {
		return ErrBrandNotFound
	}
	return nil
}

// requireCollection checks that a nonzero collection reference resolves. The
// zero identifier means the asset belongs to no collection.
func (e *Engine) requireCollection(id identifier.ID) error {
	if id.Zero() {
		return nil
	}
	_, ok, err := e.state.CollectionGet(id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrCollectionNotFound
	}
	return nil
}

// MintAsset creates a collectible owned by the issuing brand, reserving a
// deposit proportional to the serialized content size. A nonzero collectionID
// must reference an existing collection.
func (e *Engine) MintAsset(caller [20]byte, title, description, media string, collectionID identifier.ID, price *big.Int, expireMonths uint8, renewFee *big.Int) (identifier.ID, error) {
	if e == nil || e.state == nil {
		return identifier.ID{}, errNilState
	}
	if e.ids == nil {
		return identifier.ID{}, errNilIDs
	}
	if err := common.Guard(e.pauses, moduleName); err != nil {
		return identifier.ID{}, err
	}
	if err := e.requireBrand(caller); err != nil {
		return identifier.ID{}, err
	}
	if err := e.requireCollection(collectionID); err != nil {
		return identifier.ID{}, err
	}
	id, err := e.ids.Next()
	if err != nil {
		return identifier.ID{}, err
	}
	if _, exists, err := e.state.AssetGet(id); err != nil {
		return identifier.ID{}, err
	} else if exists {
		return identifier.ID{}, ErrDuplicateAsset
	}
	deposit := e.deposit(assetContentSize(title, description, media))
	if err := e.bank.Reserve(caller, deposit); err != nil {
		return identifier.ID{}, err
	}
	now := e.now()
	asset := &Asset{
		ID:           id,
		Title:        title,
		Description:  description,
		Media:        media,
		Creator:      caller,
		Owner:        caller,
		CollectionID: collectionID,
		Deposit:      deposit,
		Price:        copyAmount(price),
		ExpireMonths: expireMonths,
		CreatedAt:    now,
		RenewTime:    now,
		RenewFee:     copyAmount(renewFee),
	}
	if err := e.state.AssetPut(asset); err != nil {
		return identifier.ID{}, err
	}
	e.emit(events.AssetCreated{Asset: id, Owner: caller})
	return id, nil
}

// CreateCollection registers a collection for the issuing brand.
func (e *Engine) CreateCollection(caller [20]byte, title, description string, expireMonths uint8) (identifier.ID, error) {
	if e == nil || e.state == nil {
		return identifier.ID{}, errNilState
	}
	if e.ids == nil {
		return identifier.ID{}, errNilIDs
	}
	if err := common.Guard(e.pauses, moduleName); err != nil {
		return identifier.ID{}, err
	}
	if err := e.requireBrand(caller); err != nil {
		return identifier.ID{}, err
	}
	id, err := e.ids.Next()
	if err != nil {
		return identifier.ID{}, err
	}
	if _, exists, err := e.state.CollectionGet(id); err != nil {
		return identifier.ID{}, err
	} else if exists {
		return identifier.ID{}, ErrDuplicateCollection
	}
	deposit := e.deposit(collectionContentSize(title, description))
	if err := e.bank.Reserve(caller, deposit); err != nil {
		return identifier.ID{}, err
	}
	collection := &Collection{
		Title:        title,
		Description:  description,
		Creator:      caller,
		Deposit:      deposit,
		ExpireMonths: expireMonths,
		CreatedAt:    e.now(),
	}
	if err := e.state.CollectionPut(id, collection); err != nil {
		return identifier.ID{}, err
	}
	e.emit(events.CollectionCreated{Collection: id, Owner: caller})
	return id, nil
}

// DestroyCollection removes an empty collection and releases its deposit.
func (e *Engine) DestroyCollection(caller [20]byte, id identifier.ID) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if err := common.Guard(e.pauses, moduleName); err != nil {
		return err
	}
	collection, ok, err := e.state.CollectionGet(id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrCollectionNotFound
	}
	if collection.Creator != caller {
		return ErrNotOwner
	}
	var referenced bool
	if err := e.state.AssetIterate(func(a *Asset) bool {
		if a != nil && a.CollectionID == id {
			referenced = true
			return false
		}
		return true
	}); err != nil {
		return err
	}
	if referenced {
		return ErrTokenInCollection
	}
	e.bank.Unreserve(caller, collection.Deposit)
	if err := e.state.CollectionDelete(id); err != nil {
		return err
	}
	e.emit(events.CollectionDestroyed{Collection: id})
	return nil
}

// EditAsset replaces the mutable content of an owned asset. The old deposit is
// released and a new one reserved against the updated content size; the host
// rolls both back if the operation fails midway.
func (e *Engine) EditAsset(caller [20]byte, id identifier.ID, title, description, media string, collectionID identifier.ID) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if err := common.Guard(e.pauses, moduleName); err != nil {
		return err
	}
	asset, ok, err := e.state.AssetGet(id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrAssetNotFound
	}
	if asset.Owner != caller {
		return ErrNotOwner
	}
	if err := e.requireCollection(collectionID); err != nil {
		return err
	}
	e.bank.Unreserve(caller, asset.Deposit)
	deposit := e.deposit(assetContentSize(title, description, media))
	if err := e.bank.Reserve(caller, deposit); err != nil {
		return err
	}
	asset.Title = title
	asset.Description = description
	asset.Media = media
	asset.CollectionID = collectionID
	asset.Deposit = deposit
	if err := e.state.AssetPut(asset); err != nil {
		return err
	}
	e.emit(events.AssetEdited{Asset: id, Owner: caller})
	return nil
}

// EditCollection replaces the mutable content of an owned collection,
// re-metering the deposit.
func (e *Engine) EditCollection(caller [20]byte, id identifier.ID, title, description string) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if err := common.Guard(e.pauses, moduleName); err != nil {
		return err
	}
	collection, ok, err := e.state.CollectionGet(id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrCollectionNotFound
	}
	if collection.Creator != caller {
		return ErrNotOwner
	}
	e.bank.Unreserve(caller, collection.Deposit)
	deposit := e.deposit(collectionContentSize(title, description))
	if err := e.bank.Reserve(caller, deposit); err != nil {
		return err
	}
	collection.Title = title
	collection.Description = description
	collection.Deposit = deposit
	if err := e.state.CollectionPut(id, collection); err != nil {
		return err
	}
	e.emit(events.CollectionEdited{Collection: id, Owner: caller})
	return nil
}

// BuyAsset executes a primary native-currency sale. The buyer pays the listed
// price with keep-alive semantics, the seller's deposit is released once, and
// ownership moves to the buyer with the listing cleared.
func (e *Engine) BuyAsset(buyer [20]byte, id identifier.ID) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if err := common.Guard(e.pauses, moduleName); err != nil {
		return err
	}
	asset, ok, err := e.state.AssetGet(id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrAssetNotFound
	}
	if !asset.Listed() {
		return ErrNotSelling
	}
	seller := asset.Owner
	if seller == buyer {
		return ErrTransferToSelf
	}
	if err := e.bank.Transfer(buyer, seller, asset.Price, true); err != nil {
		return err
	}
	e.emit(events.AssetBought{Asset: id, Seller: seller, Buyer: buyer, Price: new(big.Int).Set(asset.Price)})

	e.bank.Unreserve(seller, asset.Deposit)
	asset.Owner = buyer
	asset.Price = big.NewInt(0)
	asset.Deposit = big.NewInt(0)
	if err := e.state.AssetPut(asset); err != nil {
		return err
	}
	e.emit(events.AssetTransferred{Asset: id, From: seller, To: buyer})
	return nil
}

// RedeemAsset executes a brand-credit sale. Only primary-market holdings
// (creator == owner) are credit-redeemable; payment is delegated to the token
// ledger with the owning brand as both recipient and credit issuer.
func (e *Engine) RedeemAsset(buyer [20]byte, id identifier.ID) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if err := common.Guard(e.pauses, moduleName); err != nil {
		return err
	}
	asset, ok, err := e.state.AssetGet(id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrAssetNotFound
	}
	if !asset.Listed() {
		return ErrNotSelling
	}
	seller := asset.Owner
	if seller == buyer {
		return ErrTransferToSelf
	}
	if asset.Creator != asset.Owner {
		return ErrInvalidRedemption
	}
	price, ok := creditPrice(asset.Price)
	if !ok {
		return ErrInvalidPrice
	}
	if err := e.credits.Redeem(buyer, seller, seller, price); err != nil {
		return err
	}
	e.emit(events.AssetBought{Asset: id, Seller: seller, Buyer: buyer, Price: new(big.Int).Set(asset.Price)})

	e.bank.Unreserve(seller, asset.Deposit)
	asset.Owner = buyer
	asset.Price = big.NewInt(0)
	asset.Deposit = big.NewInt(0)
	if err := e.state.AssetPut(asset); err != nil {
		return err
	}
	e.emit(events.AssetTransferred{Asset: id, From: seller, To: buyer})
	return nil
}

// SetPrice overwrites the listing price of an already-listed asset. An asset
// at price zero cannot be (re)listed through this call; listing happens at
// mint time via the initial price.
func (e *Engine) SetPrice(caller [20]byte, id identifier.ID, newPrice *big.Int) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if err := common.Guard(e.pauses, moduleName); err != nil {
		return err
	}
	asset, ok, err := e.state.AssetGet(id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrAssetNotFound
	}
	if asset.Owner != caller {
		return ErrNotOwner
	}
	if !asset.Listed() {
		return ErrNotSelling
	}
	asset.Price = copyAmount(newPrice)
	if err := e.state.AssetPut(asset); err != nil {
		return err
	}
	e.emit(events.AssetPriceSet{Asset: id, Price: copyAmount(newPrice)})
	return nil
}

// BurnAsset destroys an owned asset and releases its deposit.
func (e *Engine) BurnAsset(caller [20]byte, id identifier.ID) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if err := common.Guard(e.pauses, moduleName); err != nil {
		return err
	}
	asset, ok, err := e.state.AssetGet(id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrAssetNotFound
	}
	if asset.Owner != caller {
		return ErrNotOwner
	}
	e.bank.Unreserve(caller, asset.Deposit)
	if err := e.state.AssetDelete(id); err != nil {
		return err
	}
	e.emit(events.AssetBurned{Asset: id})
	return nil
}

// RenewAsset extends the expiry of an owned asset for the exact renewal fee,
// paid to the asset's original creator.
func (e *Engine) RenewAsset(caller [20]byte, expireMonths uint8, paid *big.Int, id identifier.ID) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if err := common.Guard(e.pauses, moduleName); err != nil {
		return err
	}
	asset, ok, err := e.state.AssetGet(id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrAssetNotFound
	}
	if paid == nil || asset.RenewFee.Cmp(paid) != 0 {
		return ErrNotPayExactAmount
	}
	if asset.Owner != caller {
		return ErrNotOwner
	}
	if err := e.bank.Transfer(caller, asset.Creator, paid, true); err != nil {
		return err
	}
	asset.ExpireMonths = expireMonths
	asset.RenewTime = e.now()
	if err := e.state.AssetPut(asset); err != nil {
		return err
	}
	e.emit(events.AssetRenewed{Asset: id, Paid: new(big.Int).Set(paid)})
	return nil
}

func copyAmount(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}

func creditPrice(price *big.Int) (uint32, bool) {
	if price == nil || price.Sign() < 0 || !price.IsUint64() {
		return 0, false
	}
	v := price.Uint64()
	if v > uint64(^uint32(0)) {
		return 0, false
	}
	return uint32(v), true
}
