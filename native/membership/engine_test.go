package membership

import (
	"errors"
	"math/big"
	"testing"

	"brandchain/core/events"
	"brandchain/core/identifier"
	"brandchain/native/brand"
	"brandchain/native/common"
	"brandchain/native/currency"
	"brandchain/native/loyalty"
)

type mockState struct {
	collections map[identifier.ID]*Collection
	assets      map[identifier.ID]*Asset
}

func newMockState() *mockState {
	return &mockState{
		collections: make(map[identifier.ID]*Collection),
		assets:      make(map[identifier.ID]*Asset),
	}
}

func (m *mockState) CollectionGet(id identifier.ID) (*Collection, bool, error) {
	c, ok := m.collections[id]
	if !ok {
		return nil, false, nil
	}
	return c.Clone(), true, nil
}

func (m *mockState) CollectionPut(id identifier.ID, c *Collection) error {
	m.collections[id] = c.Clone()
	return nil
}

func (m *mockState) CollectionDelete(id identifier.ID) error {
	delete(m.collections, id)
	return nil
}

func (m *mockState) AssetGet(id identifier.ID) (*Asset, bool, error) {
	a, ok := m.assets[id]
	if !ok {
		return nil, false, nil
	}
	return a.Clone(), true, nil
}

func (m *mockState) AssetPut(a *Asset) error {
	m.assets[a.ID] = a.Clone()
	return nil
}

func (m *mockState) AssetDelete(id identifier.ID) error {
	delete(m.assets, id)
	return nil
}

func (m *mockState) AssetIterate(fn func(a *Asset) bool) error {
	for _, a := range m.assets {
		if !fn(a.Clone()) {
			return nil
		}
	}
	return nil
}

type staticDirectory struct {
	brands map[[20]byte]string
}

func (d *staticDirectory) BrandOf(addr [20]byte) (*brand.Brand, bool, error) {
	name, ok := d.brands[addr]
	if !ok {
		return nil, false, nil
	}
	return &brand.Brand{Name: name}, true, nil
}

type seqIDs struct {
	next byte
}

func (s *seqIDs) Next() (identifier.ID, error) {
	s.next++
	var id identifier.ID
	id[0] = s.next
	return id, nil
}

type fixedIDs struct {
	id identifier.ID
}

func (f *fixedIDs) Next() (identifier.ID, error) { return f.id, nil }

type mockRedeemer struct {
	err   error
	calls []redeemCall
}

type redeemCall struct {
	from, to, brand [20]byte
	amount          uint32
}

func (m *mockRedeemer) Redeem(from, to, brandID [20]byte, amount uint32) error {
	if m.err != nil {
		return m.err
	}
	m.calls = append(m.calls, redeemCall{from: from, to: to, brand: brandID, amount: amount})
	return nil
}

func testAddr(fill byte) [20]byte {
	var addr [20]byte
	for i := range addr {
		addr[i] = fill
	}
	return addr
}

type fixture struct {
	engine   *Engine
	state    *mockState
	bank     *currency.MemoryLedger
	redeemer *mockRedeemer
	events   *events.Recorder
	now      int64
}

func newFixture(t *testing.T, brandAddr [20]byte) *fixture {
	t.Helper()
	st := newMockState()
	bank := currency.NewMemoryLedger(nil)
	bank.Credit(brandAddr, big.NewInt(10_000))
	dir := &staticDirectory{brands: map[[20]byte]string{brandAddr: "acme"}}
	redeemer := &mockRedeemer{}
	eng := NewEngine(st, dir, bank, redeemer, &seqIDs{})
	f := &fixture{engine: eng, state: st, bank: bank, redeemer: redeemer, events: &events.Recorder{}, now: 1_000_000}
	eng.SetEmitter(f.events)
	eng.SetNowFunc(func() int64 { return f.now })
	return f
}

func (f *fixture) mint(t *testing.T, creator [20]byte, title string, price int64) identifier.ID {
	t.Helper()
	id, err := f.engine.MintAsset(creator, title, "desc", "ipfs://media", identifier.ID{}, big.NewInt(price), 1, big.NewInt(3))
	if err != nil {
		t.Fatalf("mint asset: %v", err)
	}
	return id
}

func TestMintAssetReservesDeposit(t *testing.T) {
	creator := testAddr(0x01)
	f := newFixture(t, creator)

	id := f.mint(t, creator, "title", 10)
	asset, ok, _ := f.state.AssetGet(id)
	if !ok {
		t.Fatalf("asset not stored")
	}
	if asset.Owner != creator || asset.Creator != creator {
		t.Fatalf("mint should leave the asset in the primary market")
	}
	wantDeposit := int64(len("title") + len("desc") + len("ipfs://media") + 16 + 32)
	if asset.Deposit.Int64() != wantDeposit {
		t.Fatalf("deposit = %v, want %d", asset.Deposit, wantDeposit)
	}
	if got := f.bank.ReservedBalance(creator).Int64(); got != wantDeposit {
		t.Fatalf("reserved = %d, want %d", got, wantDeposit)
	}
}

func TestMintAssetRequiresBrand(t *testing.T) {
	f := newFixture(t, testAddr(0x01))
	_, err := f.engine.MintAsset(testAddr(0x09), "t", "", "m", identifier.ID{}, big.NewInt(1), 1, big.NewInt(0))
	if !errors.Is(err, ErrBrandNotFound) {
		t.Fatalf("expected ErrBrandNotFound, got %v", err)
	}
}

func TestMintAssetRejectsIDCollision(t *testing.T) {
	creator := testAddr(0x01)
	f := newFixture(t, creator)
	var fixed identifier.ID
	fixed[0] = 0x77
	f.engine.ids = &fixedIDs{id: fixed}

	if _, err := f.engine.MintAsset(creator, "a", "", "m", identifier.ID{}, big.NewInt(1), 1, big.NewInt(0)); err != nil {
		t.Fatalf("first mint: %v", err)
	}
	if _, err := f.engine.MintAsset(creator, "b", "", "m", identifier.ID{}, big.NewInt(1), 1, big.NewInt(0)); !errors.Is(err, ErrDuplicateAsset) {
		t.Fatalf("expected ErrDuplicateAsset, got %v", err)
	}
}

func TestMintAssetRejectsUnknownCollection(t *testing.T) {
	creator := testAddr(0x01)
	f := newFixture(t, creator)

	var dangling identifier.ID
	dangling[0] = 0x42
	if _, err := f.engine.MintAsset(creator, "t", "", "m", dangling, big.NewInt(1), 1, big.NewInt(0)); !errors.Is(err, ErrCollectionNotFound) {
		t.Fatalf("expected ErrCollectionNotFound, got %v", err)
	}
	if got := f.bank.ReservedBalance(creator).Int64(); got != 0 {
		t.Fatalf("reserved = %d, want 0 after rejected mint", got)
	}

	// The zero identifier means "no collection" and is always accepted.
	id := f.mint(t, creator, "t", 0)
	if err := f.engine.EditAsset(creator, id, "t", "", "m", dangling); !errors.Is(err, ErrCollectionNotFound) {
		t.Fatalf("expected ErrCollectionNotFound, got %v", err)
	}
	asset, _, _ := f.state.AssetGet(id)
	if !asset.CollectionID.Zero() {
		t.Fatalf("edit must not attach a missing collection")
	}
}

func TestCollectionLifecycle(t *testing.T) {
	creator := testAddr(0x01)
	f := newFixture(t, creator)

	id, err := f.engine.CreateCollection(creator, "season one", "first drop", 6)
	if err != nil {
		t.Fatalf("create collection: %v", err)
	}
	wantDeposit := int64(len("season one") + len("first drop") + 16)
	if got := f.bank.ReservedBalance(creator).Int64(); got != wantDeposit {
		t.Fatalf("reserved = %d, want %d", got, wantDeposit)
	}

	if err := f.engine.DestroyCollection(testAddr(0x09), id); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}

	// A referencing asset blocks destruction.
	assetID, err := f.engine.MintAsset(creator, "t", "", "m", id, big.NewInt(0), 1, big.NewInt(0))
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := f.engine.DestroyCollection(creator, id); !errors.Is(err, ErrTokenInCollection) {
		t.Fatalf("expected ErrTokenInCollection, got %v", err)
	}
	if err := f.engine.BurnAsset(creator, assetID); err != nil {
		t.Fatalf("burn: %v", err)
	}

	if err := f.engine.DestroyCollection(creator, id); err != nil {
		t.Fatalf("destroy: %v", err)
	}
	if got := f.bank.ReservedBalance(creator).Int64(); got != 0 {
		t.Fatalf("reserved = %d, want 0 after destroy", got)
	}
	if err := f.engine.DestroyCollection(creator, id); !errors.Is(err, ErrCollectionNotFound) {
		t.Fatalf("expected ErrCollectionNotFound, got %v", err)
	}
}

func TestEditAssetDepositRoundTrip(t *testing.T) {
	creator := testAddr(0x01)
	f := newFixture(t, creator)
	id := f.mint(t, creator, "short", 0)

	before := f.bank.ReservedBalance(creator).Int64()
	longer := "a considerably longer title"
	if err := f.engine.EditAsset(creator, id, longer, "desc", "ipfs://media", identifier.ID{}); err != nil {
		t.Fatalf("edit: %v", err)
	}
	after := f.bank.ReservedBalance(creator).Int64()
	if delta := after - before; delta != int64(len(longer)-len("short")) {
		t.Fatalf("reserve delta = %d, want %d", delta, len(longer)-len("short"))
	}

	// Several edits later the net reserve matches the final content size only.
	if err := f.engine.EditAsset(creator, id, "x", "", "", identifier.ID{}); err != nil {
		t.Fatalf("edit: %v", err)
	}
	want := int64(len("x") + 16 + 32)
	if got := f.bank.ReservedBalance(creator).Int64(); got != want {
		t.Fatalf("reserved = %d, want %d", got, want)
	}
}

func TestBuyAsset(t *testing.T) {
	creator := testAddr(0x01)
	buyer := testAddr(0x02)
	f := newFixture(t, creator)
	f.bank.Credit(buyer, big.NewInt(100))

	id := f.mint(t, creator, "title", 10)
	deposit := f.bank.ReservedBalance(creator).Int64()
	if deposit == 0 {
		t.Fatalf("expected nonzero deposit")
	}

	if err := f.engine.BuyAsset(creator, id); !errors.Is(err, ErrTransferToSelf) {
		t.Fatalf("expected ErrTransferToSelf, got %v", err)
	}

	sellerFreeBefore := f.bank.FreeBalance(creator).Int64()
	if err := f.engine.BuyAsset(buyer, id); err != nil {
		t.Fatalf("buy: %v", err)
	}

	asset, _, _ := f.state.AssetGet(id)
	if asset.Owner != buyer {
		t.Fatalf("owner not transferred")
	}
	if asset.Price.Sign() != 0 || asset.Deposit.Sign() != 0 {
		t.Fatalf("price/deposit not cleared: %+v", asset)
	}
	// Seller receives the price and the deposit back exactly once.
	if got := f.bank.FreeBalance(creator).Int64(); got != sellerFreeBefore+10+deposit {
		t.Fatalf("seller free = %d, want %d", got, sellerFreeBefore+10+deposit)
	}
	if got := f.bank.ReservedBalance(creator).Int64(); got != 0 {
		t.Fatalf("seller reserved = %d, want 0", got)
	}
	if got := f.bank.FreeBalance(buyer).Int64(); got != 90 {
		t.Fatalf("buyer free = %d, want 90", got)
	}

	// The asset is no longer listed.
	if err := f.engine.BuyAsset(creator, id); !errors.Is(err, ErrNotSelling) {
		t.Fatalf("expected ErrNotSelling, got %v", err)
	}

	var sawBought, sawTransferred bool
	for _, evt := range f.events.Events {
		switch evt.EventType() {
		case events.TypeAssetBought:
			sawBought = true
		case events.TypeAssetTransferred:
			sawTransferred = true
		}
	}
	if !sawBought || !sawTransferred {
		t.Fatalf("expected Bought and Transferred events, got %v", f.events.Events)
	}
}

func TestBuyAssetInsufficientFundsLeavesStateUntouched(t *testing.T) {
	creator := testAddr(0x01)
	buyer := testAddr(0x02)
	f := newFixture(t, creator)
	f.bank.Credit(buyer, big.NewInt(5))

	id := f.mint(t, creator, "title", 10)
	if err := f.engine.BuyAsset(buyer, id); !errors.Is(err, currency.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	asset, _, _ := f.state.AssetGet(id)
	if asset.Owner != creator {
		t.Fatalf("ownership changed on failed purchase")
	}
}

func TestRedeemAsset(t *testing.T) {
	creator := testAddr(0x01)
	buyer := testAddr(0x02)
	f := newFixture(t, creator)

	id := f.mint(t, creator, "title", 10)
	if err := f.engine.RedeemAsset(buyer, id); err != nil {
		t.Fatalf("redeem: %v", err)
	}
	if len(f.redeemer.calls) != 1 {
		t.Fatalf("expected one redeem call, got %d", len(f.redeemer.calls))
	}
	call := f.redeemer.calls[0]
	if call.from != buyer || call.to != creator || call.brand != creator || call.amount != 10 {
		t.Fatalf("unexpected redeem call %+v", call)
	}
	asset, _, _ := f.state.AssetGet(id)
	if asset.Owner != buyer || asset.Price.Sign() != 0 {
		t.Fatalf("redeem did not transfer ownership: %+v", asset)
	}
	if got := f.bank.ReservedBalance(creator).Int64(); got != 0 {
		t.Fatalf("seller deposit not released, reserved = %d", got)
	}
}

func TestRedeemAssetRequiresPrimaryMarket(t *testing.T) {
	creator := testAddr(0x01)
	buyer := testAddr(0x02)
	third := testAddr(0x03)
	f := newFixture(t, creator)
	f.bank.Credit(buyer, big.NewInt(100))

	id := f.mint(t, creator, "title", 10)
	if err := f.engine.BuyAsset(buyer, id); err != nil {
		t.Fatalf("buy: %v", err)
	}
	// Relist through the secondary owner and attempt a credit redemption.
	asset, _, _ := f.state.AssetGet(id)
	asset.Price = big.NewInt(5)
	if err := f.state.AssetPut(asset); err != nil {
		t.Fatalf("relist: %v", err)
	}
	if err := f.engine.RedeemAsset(third, id); !errors.Is(err, ErrInvalidRedemption) {
		t.Fatalf("expected ErrInvalidRedemption, got %v", err)
	}
}

func TestRedeemAssetInsufficientCredit(t *testing.T) {
	creator := testAddr(0x01)
	buyer := testAddr(0x02)
	f := newFixture(t, creator)
	f.redeemer.err = loyalty.ErrInsufficientBalance

	id := f.mint(t, creator, "title", 10)
	if err := f.engine.RedeemAsset(buyer, id); !errors.Is(err, loyalty.ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
	asset, _, _ := f.state.AssetGet(id)
	if asset.Owner != creator {
		t.Fatalf("ownership changed on failed redemption")
	}
}

func TestSetPriceRequiresExistingListing(t *testing.T) {
	creator := testAddr(0x01)
	f := newFixture(t, creator)

	unlisted := f.mint(t, creator, "one", 0)
	if err := f.engine.SetPrice(creator, unlisted, big.NewInt(5)); !errors.Is(err, ErrNotSelling) {
		t.Fatalf("expected ErrNotSelling for unlisted asset, got %v", err)
	}

	listed := f.mint(t, creator, "two", 10)
	if err := f.engine.SetPrice(testAddr(0x09), listed, big.NewInt(5)); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}
	if err := f.engine.SetPrice(creator, listed, big.NewInt(25)); err != nil {
		t.Fatalf("set price: %v", err)
	}
	asset, _, _ := f.state.AssetGet(listed)
	if asset.Price.Int64() != 25 {
		t.Fatalf("price = %v, want 25", asset.Price)
	}
}

func TestRenewAsset(t *testing.T) {
	creator := testAddr(0x01)
	buyer := testAddr(0x02)
	f := newFixture(t, creator)
	f.bank.Credit(buyer, big.NewInt(100))

	id := f.mint(t, creator, "title", 10)
	if err := f.engine.BuyAsset(buyer, id); err != nil {
		t.Fatalf("buy: %v", err)
	}

	if err := f.engine.RenewAsset(buyer, 2, big.NewInt(4), id); !errors.Is(err, ErrNotPayExactAmount) {
		t.Fatalf("expected ErrNotPayExactAmount, got %v", err)
	}

	creatorFree := f.bank.FreeBalance(creator).Int64()
	f.now += 1_000
	if err := f.engine.RenewAsset(buyer, 2, big.NewInt(3), id); err != nil {
		t.Fatalf("renew: %v", err)
	}
	asset, _, _ := f.state.AssetGet(id)
	if asset.ExpireMonths != 2 || asset.RenewTime != f.now {
		t.Fatalf("renewal not recorded: %+v", asset)
	}
	if got := f.bank.FreeBalance(creator).Int64(); got != creatorFree+3 {
		t.Fatalf("creator free = %d, want %d", got, creatorFree+3)
	}
}

func TestSweepExpired(t *testing.T) {
	creator := testAddr(0x01)
	buyer := testAddr(0x02)
	f := newFixture(t, creator)
	f.bank.Credit(buyer, big.NewInt(100))

	sold := f.mint(t, creator, "sold", 10)
	held := f.mint(t, creator, "held", 0)
	if err := f.engine.BuyAsset(buyer, sold); err != nil {
		t.Fatalf("buy: %v", err)
	}

	// Not yet overdue: one month expiry plus grace has not elapsed.
	f.now += secondsPerMonth
	n, err := f.engine.SweepExpired()
	if err != nil || n != 0 {
		t.Fatalf("sweep = %d, %v; want 0", n, err)
	}

	f.now += sweepGraceSeconds + 1
	n, err = f.engine.SweepExpired()
	if err != nil || n != 1 {
		t.Fatalf("sweep = %d, %v; want 1", n, err)
	}
	asset, _, _ := f.state.AssetGet(sold)
	if asset.Owner != creator {
		t.Fatalf("overdue asset not returned to brand")
	}
	heldAsset, _, _ := f.state.AssetGet(held)
	if heldAsset.Owner != creator {
		t.Fatalf("primary-market asset should be untouched")
	}

	// Second run is a no-op: no state change, no extra events.
	f.events.Reset()
	n, err = f.engine.SweepExpired()
	if err != nil || n != 0 {
		t.Fatalf("second sweep = %d, %v; want 0", n, err)
	}
	if len(f.events.Events) != 0 {
		t.Fatalf("second sweep emitted events: %v", f.events.Events)
	}
}

func TestSweepDeferredByRenewal(t *testing.T) {
	creator := testAddr(0x01)
	buyer := testAddr(0x02)
	f := newFixture(t, creator)
	f.bank.Credit(buyer, big.NewInt(100))

	id := f.mint(t, creator, "sold", 10)
	if err := f.engine.BuyAsset(buyer, id); err != nil {
		t.Fatalf("buy: %v", err)
	}

	// Renewing with a longer expiry window shifts the creation-anchored
	// deadline.
	if err := f.engine.RenewAsset(buyer, 2, big.NewInt(3), id); err != nil {
		t.Fatalf("renew: %v", err)
	}

	f.now += secondsPerMonth + sweepGraceSeconds + 1
	n, err := f.engine.SweepExpired()
	if err != nil || n != 0 {
		t.Fatalf("sweep = %d, %v; want 0 inside the extended window", n, err)
	}

	f.now += secondsPerMonth
	n, err = f.engine.SweepExpired()
	if err != nil || n != 1 {
		t.Fatalf("sweep = %d, %v; want 1 once the extended window lapses", n, err)
	}
}

func TestSweepDeadlineAnchoredAtCreation(t *testing.T) {
	creator := testAddr(0x01)
	buyer := testAddr(0x02)
	f := newFixture(t, creator)
	f.bank.Credit(buyer, big.NewInt(100))

	id := f.mint(t, creator, "sold", 10)
	if err := f.engine.BuyAsset(buyer, id); err != nil {
		t.Fatalf("buy: %v", err)
	}

	// A renewal that keeps the same expiry window does not move the deadline:
	// overdue is measured from creation time, not from the renewal.
	f.now += secondsPerMonth + sweepGraceSeconds
	if err := f.engine.RenewAsset(buyer, 1, big.NewInt(3), id); err != nil {
		t.Fatalf("renew: %v", err)
	}

	f.now++
	n, err := f.engine.SweepExpired()
	if err != nil || n != 1 {
		t.Fatalf("sweep = %d, %v; want 1", n, err)
	}
	asset, _, _ := f.state.AssetGet(id)
	if asset.Owner != creator {
		t.Fatalf("overdue asset not returned to brand")
	}
}

type staticPauses map[string]struct{}

func (p staticPauses) IsPaused(module string) bool {
	_, ok := p[module]
	return ok
}

func TestPausedEngineRejectsOperations(t *testing.T) {
	creator := testAddr(0x01)
	buyer := testAddr(0x02)
	f := newFixture(t, creator)
	f.bank.Credit(buyer, big.NewInt(100))
	id := f.mint(t, creator, "title", 10)

	f.engine.SetPauses(staticPauses{"membership": {}})
	if _, err := f.engine.MintAsset(creator, "t", "", "m", identifier.ID{}, big.NewInt(1), 1, big.NewInt(0)); !errors.Is(err, common.ErrModulePaused) {
		t.Fatalf("expected ErrModulePaused, got %v", err)
	}
	if err := f.engine.BuyAsset(buyer, id); !errors.Is(err, common.ErrModulePaused) {
		t.Fatalf("expected ErrModulePaused, got %v", err)
	}
	if _, err := f.engine.SweepExpired(); !errors.Is(err, common.ErrModulePaused) {
		t.Fatalf("expected ErrModulePaused from sweep, got %v", err)
	}
	asset, _, _ := f.state.AssetGet(id)
	if asset.Owner != creator {
		t.Fatalf("paused engine mutated state")
	}

	f.engine.SetPauses(nil)
	if err := f.engine.BuyAsset(buyer, id); err != nil {
		t.Fatalf("buy after unpause: %v", err)
	}
}
