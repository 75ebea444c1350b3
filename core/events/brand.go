package events

const (
	// TypeBrandCreated is emitted when an account registers a brand name.
	TypeBrandCreated = "brand.created"
	// TypeBrandRemoved is emitted when an account gives up its brand name.
	TypeBrandRemoved = "brand.removed"
)

// BrandCreated captures a newly registered brand.
type BrandCreated struct {
	Account [20]byte
	Name    string
}

// EventType implements the Event interface.
func (BrandCreated) EventType() string { return TypeBrandCreated }

// BrandRemoved captures a deregistered brand.
type BrandRemoved struct {
	Account [20]byte
	Name    string
}

// EventType implements the Event interface.
func (BrandRemoved) EventType() string { return TypeBrandRemoved }
