package brand

import (
	"errors"
	"strings"

	"brandchain/core/events"
	"brandchain/native/common"
)

const moduleName = "brand"

var (
	ErrInvalidName    = errors.New("brand: invalid name")
	ErrBrandNameTaken = errors.New("brand: name already registered")
	ErrNoBrand        = errors.New("brand: account has no brand")
)

// Brand is the issuer identity bound to an account. One account holds at most
// one brand, and names are unique across all accounts.
type Brand struct {
	Name string
}

// Clone returns a copy of the brand record.
func (b *Brand) Clone() *Brand {
	if b == nil {
		return nil
	}
	clone := *b
	return &clone
}

// Directory is the lookup surface the ledger and marketplace engines need from
// the registry.
type Directory interface {
	BrandOf(addr [20]byte) (*Brand, bool, error)
}

type registryState interface {
	BrandPut(addr [20]byte, b *Brand) error
	BrandGet(addr [20]byte) (*Brand, bool, error)
	BrandDelete(addr [20]byte) error
	BrandIterate(fn func(addr [20]byte, b *Brand) bool) error
}

// Registry manages persistence and retrieval of brand records.
type Registry struct {
	st      registryState
	emitter events.Emitter
	pauses  common.PauseView
}

// NewRegistry creates a registry backed by the provided state manager.
func NewRegistry(st registryState) *Registry {
	return &Registry{st: st, emitter: events.NoopEmitter{}}
}

// SetEmitter configures the event emitter used to broadcast registry updates.
// Passing nil resets the emitter to a no-op implementation.
func (r *Registry) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		r.emitter = events.NoopEmitter{}
		return
	}
	r.emitter = emitter
}

// SetPauses installs the host's pause view, consulted before every mutation.
// A nil view leaves the registry unpaused.
func (r *Registry) SetPauses(p common.PauseView) {
	if r == nil {
		return
	}
	r.pauses = p
}

// CreateBrand registers a brand name for the caller. The name must be unique
// across every registered account.
func (r *Registry) CreateBrand(caller [20]byte, name string) error {
	if err := common.Guard(r.pauses, moduleName); err != nil {
		return err
	}
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return ErrInvalidName
	}
	var taken bool
	if err := r.st.BrandIterate(func(_ [20]byte, b *Brand) bool {
		if b != nil && b.Name == trimmed {
			taken = true
			return false
		}
		return true
	}); err != nil {
		return err
	}
	if taken {
		return ErrBrandNameTaken
	}
	if err := r.st.BrandPut(caller, &Brand{Name: trimmed}); err != nil {
		return err
	}
	r.emit(events.BrandCreated{Account: caller, Name: trimmed})
	return nil
}

// RemoveBrand deletes the caller's brand record.
func (r *Registry) RemoveBrand(caller [20]byte) error {
	if err := common.Guard(r.pauses, moduleName); err != nil {
		return err
	}
	existing, ok, err := r.st.BrandGet(caller)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNoBrand
	}
	if err := r.st.BrandDelete(caller); err != nil {
		return err
	}
	r.emit(events.BrandRemoved{Account: caller, Name: existing.Name})
	return nil
}

// BrandOf implements the Directory interface.
func (r *Registry) BrandOf(addr [20]byte) (*Brand, bool, error) {
	b, ok, err := r.st.BrandGet(addr)
	if err != nil || !ok {
		return nil, false, err
	}
	return b.Clone(), true, nil
}

func (r *Registry) emit(evt events.Event) {
	if r == nil || r.emitter == nil {
		return
	}
	r.emitter.Emit(evt)
}
