package currency

import (
	"errors"
	"math/big"
)

var (
	ErrInsufficientFunds = errors.New("currency: insufficient free balance")
	ErrKeepAlive         = errors.New("currency: transfer would reap the payer")
	ErrInvalidAmount     = errors.New("currency: amount must be non-negative")
)

// Ledger is the reservable balance surface the engines require from the host
// currency system. Reservations back deposits and staked token supply; the
// engines keep their own accounting in lockstep with it.
type Ledger interface {
	// Reserve moves amount from the free balance of addr into its reserved
	// balance.
	Reserve(addr [20]byte, amount *big.Int) error
	// Unreserve releases up to amount from the reserved balance of addr and
	// returns how much was actually released.
	Unreserve(addr [20]byte, amount *big.Int) *big.Int
	// Transfer moves amount of free balance between accounts. With keepAlive
	// set the payer's remaining free balance must not drop below the
	// existential minimum.
	Transfer(from, to [20]byte, amount *big.Int, keepAlive bool) error
}

type account struct {
	free     *big.Int
	reserved *big.Int
}

func (a *account) clone() *account {
	return &account{free: new(big.Int).Set(a.free), reserved: new(big.Int).Set(a.reserved)}
}

// MemoryLedger is an in-process Ledger with snapshot support, used by tests and
// by the local runner. It is not safe for concurrent use; operations are
// replayed serially by the host.
type MemoryLedger struct {
	accounts  map[[20]byte]*account
	minimum   *big.Int
	snapshots []map[[20]byte]*account
}

// NewMemoryLedger constructs an empty ledger with the given existential
// minimum. A nil minimum means zero.
func NewMemoryLedger(minimum *big.Int) *MemoryLedger {
	if minimum == nil {
		minimum = big.NewInt(0)
	}
	return &MemoryLedger{
		accounts: make(map[[20]byte]*account),
		minimum:  new(big.Int).Set(minimum),
	}
}

func (l *MemoryLedger) account(addr [20]byte) *account {
	acc, ok := l.accounts[addr]
	if !ok {
		acc = &account{free: big.NewInt(0), reserved: big.NewInt(0)}
		l.accounts[addr] = acc
	}
	return acc
}

// Credit adds amount to the free balance of addr. Intended for genesis and
// test setup.
func (l *MemoryLedger) Credit(addr [20]byte, amount *big.Int) {
	if amount == nil || amount.Sign() <= 0 {
		return
	}
	acc := l.account(addr)
	acc.free.Add(acc.free, amount)
}

// FreeBalance returns the spendable balance of addr.
func (l *MemoryLedger) FreeBalance(addr [20]byte) *big.Int {
	acc, ok := l.accounts[addr]
	if !ok {
		return big.NewInt(0)
	}
	return new(big.Int).Set(acc.free)
}

// ReservedBalance returns the reserved balance of addr.
func (l *MemoryLedger) ReservedBalance(addr [20]byte) *big.Int {
	acc, ok := l.accounts[addr]
	if !ok {
		return big.NewInt(0)
	}
	return new(big.Int).Set(acc.reserved)
}

// Reserve implements the Ledger interface.
func (l *MemoryLedger) Reserve(addr [20]byte, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidAmount
	}
	if amount.Sign() == 0 {
		return nil
	}
	acc := l.account(addr)
	if acc.free.Cmp(amount) < 0 {
		return ErrInsufficientFunds
	}
	acc.free.Sub(acc.free, amount)
	acc.reserved.Add(acc.reserved, amount)
	return nil
}

// Unreserve implements the Ledger interface.
func (l *MemoryLedger) Unreserve(addr [20]byte, amount *big.Int) *big.Int {
	if amount == nil || amount.Sign() <= 0 {
		return big.NewInt(0)
	}
	acc := l.account(addr)
	released := new(big.Int).Set(amount)
	if acc.reserved.Cmp(released) < 0 {
		released.Set(acc.reserved)
	}
	acc.reserved.Sub(acc.reserved, released)
	acc.free.Add(acc.free, released)
	return released
}

// Transfer implements the Ledger interface.
func (l *MemoryLedger) Transfer(from, to [20]byte, amount *big.Int, keepAlive bool) error {
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidAmount
	}
	if amount.Sign() == 0 || from == to {
		return nil
	}
	payer := l.account(from)
	if payer.free.Cmp(amount) < 0 {
		return ErrInsufficientFunds
	}
	remaining := new(big.Int).Sub(payer.free, amount)
	if keepAlive && remaining.Cmp(l.minimum) < 0 {
		return ErrKeepAlive
	}
	payee := l.account(to)
	payer.free.Set(remaining)
	payee.free.Add(payee.free, amount)
	return nil
}

// Snapshot records the current ledger state and returns a revision handle.
func (l *MemoryLedger) Snapshot() int {
	copied := make(map[[20]byte]*account, len(l.accounts))
	for addr, acc := range l.accounts {
		copied[addr] = acc.clone()
	}
	l.snapshots = append(l.snapshots, copied)
	return len(l.snapshots) - 1
}

// RevertToSnapshot restores the state captured by Snapshot. Later snapshots
// are discarded.
func (l *MemoryLedger) RevertToSnapshot(rev int) {
	if rev < 0 || rev >= len(l.snapshots) {
		return
	}
	l.accounts = l.snapshots[rev]
	l.snapshots = l.snapshots[:rev]
}

// DiscardSnapshot drops the revision without reverting, keeping all changes.
func (l *MemoryLedger) DiscardSnapshot(rev int) {
	if rev < 0 || rev >= len(l.snapshots) {
		return
	}
	l.snapshots = l.snapshots[:rev]
}
