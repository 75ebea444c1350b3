package loyalty

// BrandToken is the per-brand loyalty token record. TotalAmount tracks the
// brand's unissued pool; StakedAmount mirrors the currency reserved for the
// brand, so every mint pairs with a reserve and every burn with an unreserve.
type BrandToken struct {
	Symbol                string
	TotalAmount           uint32
	StakedAmount          uint32
	DefaultLifetimeMonths uint8
}

// Clone returns a copy of the token record.
func (t *BrandToken) Clone() *BrandToken {
	if t == nil {
		return nil
	}
	clone := *t
	return &clone
}

// CreditEntry is a decaying voucher of earned brand credit. Entries live in an
// ordered sequence per (brand, holder) pair; insertion order doubles as FIFO
// priority for both expiry and consumption.
type CreditEntry struct {
	Amount   uint32
	IssuedAt int64
}

func cloneEntries(entries []CreditEntry) []CreditEntry {
	if entries == nil {
		return nil
	}
	return append([]CreditEntry(nil), entries...)
}
