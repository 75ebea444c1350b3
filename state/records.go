package state

import (
	"encoding/hex"
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"

	"brandchain/core/identifier"
	"brandchain/native/brand"
	"brandchain/native/loyalty"
	"brandchain/native/membership"
)

const (
	brandKeyPrefix      = "brand/record/"
	brandIndexKey       = "brand/index"
	tokenKeyPrefix      = "loyalty/token/"
	creditsKeyPrefix    = "loyalty/credits/"
	collectionKeyPrefix = "membership/collection/"
	assetKeyPrefix      = "membership/asset/record/"
	assetIndexKey       = "membership/asset/index"
)

func brandKey(addr [20]byte) []byte {
	return []byte(brandKeyPrefix + hex.EncodeToString(addr[:]))
}

func tokenKey(addr [20]byte) []byte {
	return []byte(tokenKeyPrefix + hex.EncodeToString(addr[:]))
}

func creditsKey(brandID, holder [20]byte) []byte {
	return []byte(creditsKeyPrefix + hex.EncodeToString(brandID[:]) + "/" + hex.EncodeToString(holder[:]))
}

func collectionKey(id identifier.ID) []byte {
	return []byte(collectionKeyPrefix + hex.EncodeToString(id[:]))
}

func assetKey(id identifier.ID) []byte {
	return []byte(assetKeyPrefix + hex.EncodeToString(id[:]))
}

// Stored record shapes. RLP has no signed integers, so timestamps are stored
// as uint64 and addresses as byte slices.

type storedBrand struct {
	Name string
}

type storedBrandToken struct {
	Symbol                string
	TotalAmount           uint32
	StakedAmount          uint32
	DefaultLifetimeMonths uint8
}

type storedCreditEntry struct {
	Amount   uint32
	IssuedAt uint64
}

type storedCollection struct {
	Title        string
	Description  string
	Creator      []byte
	Deposit      []byte
	ExpireMonths uint8
	CreatedAt    uint64
}

type storedAsset struct {
	ID           []byte
	Title        string
	Description  string
	Media        string
	Creator      []byte
	Owner        []byte
	CollectionID []byte
	Deposit      []byte
	Price        []byte
	ExpireMonths uint8
	CreatedAt    uint64
	RenewTime    uint64
	RenewFee     []byte
}

func bigFromBytes(raw []byte) *big.Int {
	if len(raw) == 0 {
		return big.NewInt(0)
	}
	return new(big.Int).SetBytes(raw)
}

func bigToBytes(v *big.Int) []byte {
	if v == nil {
		return nil
	}
	return v.Bytes()
}

// --- brand registry state ---

func (tx *Transaction) BrandPut(addr [20]byte, b *brand.Brand) error {
	encoded, err := rlp.EncodeToBytes(storedBrand{Name: b.Name})
	if err != nil {
		return err
	}
	if err := tx.put(brandKey(addr), encoded); err != nil {
		return err
	}
	return tx.indexAdd(brandIndexKey, addr[:])
}

func (tx *Transaction) BrandGet(addr [20]byte) (*brand.Brand, bool, error) {
	data, ok, err := tx.get(brandKey(addr))
	if err != nil || !ok {
		return nil, false, err
	}
	var stored storedBrand
	if err := rlp.DecodeBytes(data, &stored); err != nil {
		return nil, false, err
	}
	return &brand.Brand{Name: stored.Name}, true, nil
}

func (tx *Transaction) BrandDelete(addr [20]byte) error {
	if err := tx.delete(brandKey(addr)); err != nil {
		return err
	}
	return tx.indexRemove(brandIndexKey, addr[:])
}

func (tx *Transaction) BrandIterate(fn func(addr [20]byte, b *brand.Brand) bool) error {
	index, err := tx.indexLoad(brandIndexKey)
	if err != nil {
		return err
	}
	for _, raw := range index {
		var addr [20]byte
		copy(addr[:], raw)
		record, ok, err := tx.BrandGet(addr)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		if !fn(addr, record) {
			return nil
		}
	}
	return nil
}

// --- token ledger state ---

func (tx *Transaction) BrandTokenGet(brandID [20]byte) (*loyalty.BrandToken, bool, error) {
	data, ok, err := tx.get(tokenKey(brandID))
	if err != nil || !ok {
		return nil, false, err
	}
	var stored storedBrandToken
	if err := rlp.DecodeBytes(data, &stored); err != nil {
		return nil, false, err
	}
	return &loyalty.BrandToken{
		Symbol:                stored.Symbol,
		TotalAmount:           stored.TotalAmount,
		StakedAmount:          stored.StakedAmount,
		DefaultLifetimeMonths: stored.DefaultLifetimeMonths,
	}, true, nil
}

func (tx *Transaction) BrandTokenPut(brandID [20]byte, token *loyalty.BrandToken) error {
	encoded, err := rlp.EncodeToBytes(storedBrandToken{
		Symbol:                token.Symbol,
		TotalAmount:           token.TotalAmount,
		StakedAmount:          token.StakedAmount,
		DefaultLifetimeMonths: token.DefaultLifetimeMonths,
	})
	if err != nil {
		return err
	}
	return tx.put(tokenKey(brandID), encoded)
}

func (tx *Transaction) CreditsGet(brandID, holder [20]byte) ([]loyalty.CreditEntry, error) {
	data, ok, err := tx.get(creditsKey(brandID, holder))
	if err != nil || !ok {
		return nil, err
	}
	var stored []storedCreditEntry
	if err := rlp.DecodeBytes(data, &stored); err != nil {
		return nil, err
	}
	entries := make([]loyalty.CreditEntry, len(stored))
	for i, entry := range stored {
		entries[i] = loyalty.CreditEntry{Amount: entry.Amount, IssuedAt: int64(entry.IssuedAt)}
	}
	return entries, nil
}

func (tx *Transaction) CreditsPut(brandID, holder [20]byte, entries []loyalty.CreditEntry) error {
	key := creditsKey(brandID, holder)
	if len(entries) == 0 {
		return tx.delete(key)
	}
	stored := make([]storedCreditEntry, len(entries))
	for i, entry := range entries {
		stored[i] = storedCreditEntry{Amount: entry.Amount, IssuedAt: uint64(entry.IssuedAt)}
	}
	encoded, err := rlp.EncodeToBytes(stored)
	if err != nil {
		return err
	}
	return tx.put(key, encoded)
}

// --- marketplace state ---

func (tx *Transaction) CollectionGet(id identifier.ID) (*membership.Collection, bool, error) {
	data, ok, err := tx.get(collectionKey(id))
	if err != nil || !ok {
		return nil, false, err
	}
	var stored storedCollection
	if err := rlp.DecodeBytes(data, &stored); err != nil {
		return nil, false, err
	}
	record := &membership.Collection{
		Title:        stored.Title,
		Description:  stored.Description,
		Deposit:      bigFromBytes(stored.Deposit),
		ExpireMonths: stored.ExpireMonths,
		CreatedAt:    int64(stored.CreatedAt),
	}
	copy(record.Creator[:], stored.Creator)
	return record, true, nil
}

func (tx *Transaction) CollectionPut(id identifier.ID, c *membership.Collection) error {
	encoded, err := rlp.EncodeToBytes(storedCollection{
		Title:        c.Title,
		Description:  c.Description,
		Creator:      append([]byte(nil), c.Creator[:]...),
		Deposit:      bigToBytes(c.Deposit),
		ExpireMonths: c.ExpireMonths,
		CreatedAt:    uint64(c.CreatedAt),
	})
	if err != nil {
		return err
	}
	return tx.put(collectionKey(id), encoded)
}

func (tx *Transaction) CollectionDelete(id identifier.ID) error {
	return tx.delete(collectionKey(id))
}

func (tx *Transaction) AssetGet(id identifier.ID) (*membership.Asset, bool, error) {
	data, ok, err := tx.get(assetKey(id))
	if err != nil || !ok {
		return nil, false, err
	}
	var stored storedAsset
	if err := rlp.DecodeBytes(data, &stored); err != nil {
		return nil, false, err
	}
	record := &membership.Asset{
		Title:        stored.Title,
		Description:  stored.Description,
		Media:        stored.Media,
		Deposit:      bigFromBytes(stored.Deposit),
		Price:        bigFromBytes(stored.Price),
		ExpireMonths: stored.ExpireMonths,
		CreatedAt:    int64(stored.CreatedAt),
		RenewTime:    int64(stored.RenewTime),
		RenewFee:     bigFromBytes(stored.RenewFee),
	}
	copy(record.ID[:], stored.ID)
	copy(record.Creator[:], stored.Creator)
	copy(record.Owner[:], stored.Owner)
	copy(record.CollectionID[:], stored.CollectionID)
	return record, true, nil
}

func (tx *Transaction) AssetPut(a *membership.Asset) error {
	encoded, err := rlp.EncodeToBytes(storedAsset{
		ID:           append([]byte(nil), a.ID[:]...),
		Title:        a.Title,
		Description:  a.Description,
		Media:        a.Media,
		Creator:      append([]byte(nil), a.Creator[:]...),
		Owner:        append([]byte(nil), a.Owner[:]...),
		CollectionID: append([]byte(nil), a.CollectionID[:]...),
		Deposit:      bigToBytes(a.Deposit),
		Price:        bigToBytes(a.Price),
		ExpireMonths: a.ExpireMonths,
		CreatedAt:    uint64(a.CreatedAt),
		RenewTime:    uint64(a.RenewTime),
		RenewFee:     bigToBytes(a.RenewFee),
	})
	if err != nil {
		return err
	}
	if err := tx.put(assetKey(a.ID), encoded); err != nil {
		return err
	}
	return tx.indexAdd(assetIndexKey, a.ID[:])
}

func (tx *Transaction) AssetDelete(id identifier.ID) error {
	if err := tx.delete(assetKey(id)); err != nil {
		return err
	}
	return tx.indexRemove(assetIndexKey, id[:])
}

// AssetIterate walks assets in insertion order, which keeps full scans such as
// the expiry sweep deterministic across replicas.
func (tx *Transaction) AssetIterate(fn func(a *membership.Asset) bool) error {
	index, err := tx.indexLoad(assetIndexKey)
	if err != nil {
		return err
	}
	for _, raw := range index {
		var id identifier.ID
		copy(id[:], raw)
		record, ok, err := tx.AssetGet(id)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		if !fn(record) {
			return nil
		}
	}
	return nil
}

// --- index maintenance ---

func (tx *Transaction) indexLoad(key string) ([][]byte, error) {
	data, ok, err := tx.get([]byte(key))
	if err != nil || !ok {
		return nil, err
	}
	var index [][]byte
	if err := rlp.DecodeBytes(data, &index); err != nil {
		return nil, err
	}
	return index, nil
}

func (tx *Transaction) indexSave(key string, index [][]byte) error {
	encoded, err := rlp.EncodeToBytes(index)
	if err != nil {
		return err
	}
	return tx.put([]byte(key), encoded)
}

func (tx *Transaction) indexAdd(key string, member []byte) error {
	index, err := tx.indexLoad(key)
	if err != nil {
		return err
	}
	for _, existing := range index {
		if string(existing) == string(member) {
			return nil
		}
	}
	index = append(index, append([]byte(nil), member...))
	return tx.indexSave(key, index)
}

func (tx *Transaction) indexRemove(key string, member []byte) error {
	index, err := tx.indexLoad(key)
	if err != nil {
		return err
	}
	filtered := index[:0]
	for _, existing := range index {
		if string(existing) != string(member) {
			filtered = append(filtered, existing)
		}
	}
	if len(filtered) == len(index) {
		return nil
	}
	return tx.indexSave(key, filtered)
}
