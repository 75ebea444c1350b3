package currency

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func addr(fill byte) [20]byte {
	var a [20]byte
	for i := range a {
		a[i] = fill
	}
	return a
}

func TestReserveUnreserveRoundTrip(t *testing.T) {
	ledger := NewMemoryLedger(nil)
	owner := addr(0x01)
	ledger.Credit(owner, big.NewInt(100))

	require.NoError(t, ledger.Reserve(owner, big.NewInt(60)))
	require.Equal(t, int64(40), ledger.FreeBalance(owner).Int64())
	require.Equal(t, int64(60), ledger.ReservedBalance(owner).Int64())

	released := ledger.Unreserve(owner, big.NewInt(60))
	require.Equal(t, int64(60), released.Int64())
	require.Equal(t, int64(100), ledger.FreeBalance(owner).Int64())
	require.Zero(t, ledger.ReservedBalance(owner).Sign())
}

func TestReserveInsufficient(t *testing.T) {
	ledger := NewMemoryLedger(nil)
	owner := addr(0x01)
	ledger.Credit(owner, big.NewInt(10))
	require.ErrorIs(t, ledger.Reserve(owner, big.NewInt(11)), ErrInsufficientFunds)
	require.Equal(t, int64(10), ledger.FreeBalance(owner).Int64())
}

func TestUnreserveCapsAtReserved(t *testing.T) {
	ledger := NewMemoryLedger(nil)
	owner := addr(0x01)
	ledger.Credit(owner, big.NewInt(50))
	require.NoError(t, ledger.Reserve(owner, big.NewInt(20)))

	released := ledger.Unreserve(owner, big.NewInt(100))
	require.Equal(t, int64(20), released.Int64())
	require.Equal(t, int64(50), ledger.FreeBalance(owner).Int64())
}

func TestTransferKeepAlive(t *testing.T) {
	ledger := NewMemoryLedger(big.NewInt(5))
	payer, payee := addr(0x01), addr(0x02)
	ledger.Credit(payer, big.NewInt(20))

	require.ErrorIs(t, ledger.Transfer(payer, payee, big.NewInt(16), true), ErrKeepAlive)
	require.Equal(t, int64(20), ledger.FreeBalance(payer).Int64())
	require.Zero(t, ledger.FreeBalance(payee).Sign())

	require.NoError(t, ledger.Transfer(payer, payee, big.NewInt(15), true))
	require.Equal(t, int64(5), ledger.FreeBalance(payer).Int64())
	require.Equal(t, int64(15), ledger.FreeBalance(payee).Int64())
}

func TestSnapshotRevert(t *testing.T) {
	ledger := NewMemoryLedger(nil)
	owner := addr(0x01)
	ledger.Credit(owner, big.NewInt(100))

	rev := ledger.Snapshot()
	require.NoError(t, ledger.Reserve(owner, big.NewInt(30)))
	require.NoError(t, ledger.Transfer(owner, addr(0x02), big.NewInt(10), false))

	ledger.RevertToSnapshot(rev)
	require.Equal(t, int64(100), ledger.FreeBalance(owner).Int64())
	require.Zero(t, ledger.ReservedBalance(owner).Sign())
	require.Zero(t, ledger.FreeBalance(addr(0x02)).Sign())
}

func TestSnapshotDiscardKeepsChanges(t *testing.T) {
	ledger := NewMemoryLedger(nil)
	owner := addr(0x01)
	ledger.Credit(owner, big.NewInt(100))

	rev := ledger.Snapshot()
	require.NoError(t, ledger.Reserve(owner, big.NewInt(30)))
	ledger.DiscardSnapshot(rev)

	require.Equal(t, int64(70), ledger.FreeBalance(owner).Int64())
	require.Equal(t, int64(30), ledger.ReservedBalance(owner).Int64())
}
