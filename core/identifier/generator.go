package identifier

import (
	"encoding/binary"
	"errors"
	"io"

	"lukechampine.com/blake3"
)

// ID is a fixed-width identifier for marketplace records.
type ID [16]byte

// Zero reports whether the identifier is the all-zero value.
func (id ID) Zero() bool { return id == ID{} }

var errNilEntropy = errors.New("identifier: entropy source not configured")

// Generator derives collision-resistant identifiers from an injected entropy
// source mixed with a host-supplied epoch and a monotonic per-epoch call
// counter, so that multiple identifiers generated within the same epoch remain
// unique even when the entropy source repeats.
type Generator struct {
	entropy io.Reader
	epoch   uint64
	calls   uint64
}

// New constructs a generator reading randomness from the supplied source.
func New(entropy io.Reader) *Generator {
	return &Generator{entropy: entropy}
}

// SetEpoch records the current replay epoch and resets the call counter.
func (g *Generator) SetEpoch(epoch uint64) {
	if g == nil {
		return
	}
	g.epoch = epoch
	g.calls = 0
}

// Next returns a fresh identifier. The returned value is the truncated blake3
// hash of (entropy, epoch, call counter).
func (g *Generator) Next() (ID, error) {
	if g == nil || g.entropy == nil {
		return ID{}, errNilEntropy
	}
	var payload [48]byte
	if _, err := io.ReadFull(g.entropy, payload[:32]); err != nil {
		return ID{}, err
	}
	binary.BigEndian.PutUint64(payload[32:40], g.epoch)
	binary.BigEndian.PutUint64(payload[40:48], g.calls)
	g.calls++

	sum := blake3.Sum256(payload[:])
	var id ID
	copy(id[:], sum[:16])
	return id, nil
}
