package events

const (
	// TypeBrandTokenCreated is emitted when a brand registers its loyalty
	// token for the first time.
	TypeBrandTokenCreated = "loyalty.token.created"
	// TypeTokenMinted is emitted when a brand mints additional supply.
	TypeTokenMinted = "loyalty.token.minted"
	// TypeTokenBurned is emitted when a brand burns staked supply.
	TypeTokenBurned = "loyalty.token.burned"
	// TypeCreditEarned is emitted when a holder earns credit from a brand's
	// pool.
	TypeCreditEarned = "loyalty.credit.earned"
	// TypeCreditTransferred is emitted when credit is redeemed against the
	// issuing brand.
	TypeCreditTransferred = "loyalty.credit.transferred"
)

// BrandTokenCreated captures the initial stake of a freshly created brand
// token.
type BrandTokenCreated struct {
	Brand  [20]byte
	Symbol string
	Staked uint32
}

// EventType implements the Event interface.
func (BrandTokenCreated) EventType() string { return TypeBrandTokenCreated }

// TokenMinted reports additional supply staked by the brand.
type TokenMinted struct {
	Brand  [20]byte
	Amount uint32
}

// EventType implements the Event interface.
func (TokenMinted) EventType() string { return TypeTokenMinted }

// TokenBurned reports supply removed from the brand's pool.
type TokenBurned struct {
	Brand  [20]byte
	Amount uint32
}

// EventType implements the Event interface.
func (TokenBurned) EventType() string { return TypeTokenBurned }

// CreditEarned reports credit moved from the brand pool to a holder.
type CreditEarned struct {
	Brand    [20]byte
	Holder   [20]byte
	Amount   uint32
	IssuedAt int64
}

// EventType implements the Event interface.
func (CreditEarned) EventType() string { return TypeCreditEarned }

// CreditTransferred reports a completed credit redemption.
type CreditTransferred struct {
	Amount uint32
	From   [20]byte
	To     [20]byte
}

// EventType implements the Event interface.
func (CreditTransferred) EventType() string { return TypeCreditTransferred }
