package loyalty

import (
	"errors"
	"math/big"
	"strings"
	"time"

	"brandchain/core/events"
	"brandchain/native/brand"
	"brandchain/native/common"
	"brandchain/native/currency"
)

const (
	moduleName = "loyalty"

	// secondsPerMonth is the 30 day month used for credit lifetimes.
	secondsPerMonth int64 = 2_592_000
)

var errNilState = errors.New("loyalty: state not configured")

type engineState interface {
	BrandTokenGet(brandID [20]byte) (*BrandToken, bool, error)
	BrandTokenPut(brandID [20]byte, token *BrandToken) error
	CreditsGet(brandID, holder [20]byte) ([]CreditEntry, error)
	CreditsPut(brandID, holder [20]byte, entries []CreditEntry) error
}

// Engine implements the brand token ledger: issuance, staking, earning and the
// FIFO-expiry credit redemption used by the marketplace.
type Engine struct {
	state   engineState
	brands  brand.Directory
	bank    currency.Ledger
	emitter events.Emitter
	nowFn   func() int64
	pauses  common.PauseView
}

// NewEngine constructs a ledger engine bound to the supplied collaborators.
func NewEngine(st engineState, brands brand.Directory, bank currency.Ledger) *Engine {
	return &Engine{
		state:   st,
		brands:  brands,
		bank:    bank,
		emitter: events.NoopEmitter{},
		nowFn:   func() int64 { return time.Now().Unix() },
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

// CreateToken registers the caller's brand token and stakes the initial
// supply. The caller must hold a registered brand and may create at most one
// token.
func (e *Engine) CreateToken(caller [20]byte, symbol string, stakeAmount uint32, defaultLifetimeMonths uint8) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if err := common.Guard(e.pauses, moduleName); err != nil {
		return err
	}
	if _, ok, err := e.brands.BrandOf(caller); err != nil {
		return err
	} else if !ok {
		return ErrBrandNotFound
	}
	if _, exists, err := e.state.BrandTokenGet(caller); err != nil {
		return err
	} else if exists {
		return ErrAlreadyCreated
	}
	if err := e.bank.Reserve(caller, amountToBalance(stakeAmount)); err != nil {
		return err
	}
	token := &BrandToken{
		Symbol:                strings.TrimSpace(symbol),
		TotalAmount:           stakeAmount,
		StakedAmount:          stakeAmount,
		DefaultLifetimeMonths: defaultLifetimeMonths,
	}
	if err := e.state.BrandTokenPut(caller, token); err != nil {
		return err
	}
	e.emit(events.BrandTokenCreated{Brand: caller, Symbol: token.Symbol, Staked: stakeAmount})
	return nil
}

// Mint stakes additional currency and grows the brand's pool by amount.
func (e *Engine) Mint(caller [20]byte, amount uint32) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if err := common.Guard(e.pauses, moduleName); err != nil {
		return err
	}
	token, ok, err := e.state.BrandTokenGet(caller)
	if err != nil {
		return err
	}
	if !ok {
		return ErrTokenNotFound
	}
	if uint64(token.TotalAmount)+uint64(amount) > uint64(^uint32(0)) {
		return ErrInvalidAmount
	}
	if err := e.bank.Reserve(caller, amountToBalance(amount)); err != nil {
		return err
	}
	token.StakedAmount += amount
	token.TotalAmount += amount
	if err := e.state.BrandTokenPut(caller, token); err != nil {
		return err
	}
	e.emit(events.TokenMinted{Brand: caller, Amount: amount})
	return nil
}

// Burn releases staked currency and shrinks the brand's pool by amount.
func (e *Engine) Burn(caller [20]byte, amount uint32) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if err := common.Guard(e.pauses, moduleName); err != nil {
		return err
	}
	token, ok, err := e.state.BrandTokenGet(caller)
	if err != nil {
		return err
	}
	if !ok {
		return ErrTokenNotFound
	}
	if amount > token.TotalAmount {
		return ErrInsufficientAmount
	}
	e.bank.Unreserve(caller, amountToBalance(amount))
	token.StakedAmount -= amount
	token.TotalAmount -= amount
	if err := e.state.BrandTokenPut(caller, token); err != nil {
		return err
	}
	e.emit(events.TokenBurned{Brand: caller, Amount: amount})
	return nil
}

// Earn moves amount out of the brand's pool into a fresh credit entry owned by
// the caller, timestamped now.
func (e *Engine) Earn(caller [20]byte, amount uint32, brandID [20]byte) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if err := common.Guard(e.pauses, moduleName); err != nil {
		return err
	}
	token, ok, err := e.state.BrandTokenGet(brandID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrTokenNotFound
	}
	if amount > token.TotalAmount {
		return ErrInsufficientAmount
	}
	entries, err := e.state.CreditsGet(brandID, caller)
	if err != nil {
		return err
	}
	now := e.now()
	token.TotalAmount -= amount
	if err := e.state.BrandTokenPut(brandID, token); err != nil {
		return err
	}
	entries = append(entries, CreditEntry{Amount: amount, IssuedAt: now})
	if err := e.state.CreditsPut(brandID, caller, entries); err != nil {
		return err
	}
	e.emit(events.CreditEarned{Brand: brandID, Holder: caller, Amount: amount, IssuedAt: now})
	return nil
}

// Balance returns the raw sum of the holder's credit entries for the brand,
// including entries that have expired but have not yet been reclaimed.
func (e *Engine) Balance(brandID, holder [20]byte) (uint32, error) {
	if e == nil || e.state == nil {
		return 0, errNilState
	}
	entries, err := e.state.CreditsGet(brandID, holder)
	if err != nil {
		return 0, err
	}
	var sum uint64
	for _, entry := range entries {
		sum += uint64(entry.Amount)
	}
	if sum > uint64(^uint32(0)) {
		sum = uint64(^uint32(0))
	}
	return uint32(sum), nil
}

// Redeem spends amount of the holder's credit against the issuing brand,
// oldest entries first. A zero amount is rejected with ErrInvalidAmount rather
// than treated as a no-op. Expired entries are reclaimed into the brand pool
// and never count toward the spend; the full redeemed amount flows back into
// the pool because credit is spent back to the brand rather than destroyed.
func (e *Engine) Redeem(from, to, brandID [20]byte, amount uint32) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if err := common.Guard(e.pauses, moduleName); err != nil {
		return err
	}
	if amount == 0 {
		return ErrInvalidAmount
	}
	entries, err := e.state.CreditsGet(brandID, from)
	if err != nil {
		return err
	}
	token, ok, err := e.state.BrandTokenGet(brandID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotSupportedYet
	}

	now := e.now()
	lifetime := secondsPerMonth * int64(token.DefaultLifetimeMonths)

	var spendable uint64
	for _, entry := range entries {
		if now-entry.IssuedAt >= lifetime {
			continue
		}
		spendable += uint64(entry.Amount)
	}
	if spendable < uint64(amount) {
		return ErrInsufficientBalance
	}

	remaining := amount
	for i := range entries {
		if now-entries[i].IssuedAt >= lifetime {
			// Expired vouchers return to the brand pool untouched by
			// the spend.
			token.TotalAmount += entries[i].Amount
			entries[i].Amount = 0
			continue
		}
		if remaining == 0 {
			continue
		}
		if entries[i].Amount >= remaining {
			entries[i].Amount -= remaining
			remaining = 0
		} else {
			remaining -= entries[i].Amount
			entries[i].Amount = 0
		}
	}
	token.TotalAmount += amount

	pruned := entries[:0]
	for _, entry := range entries {
		if entry.Amount != 0 {
			pruned = append(pruned, entry)
		}
	}
	if err := e.state.CreditsPut(brandID, from, pruned); err != nil {
		return err
	}
	if err := e.state.BrandTokenPut(brandID, token); err != nil {
		return err
	}
	e.emit(events.CreditTransferred{Amount: amount, From: from, To: to})
	return nil
}

func amountToBalance(amount uint32) *big.Int {
	return new(big.Int).SetUint64(uint64(amount))
}
