// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package collateral

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/dpos/builtin/solidity"
	"github.com/vechain/dpos/lvldb"
	"github.com/vechain/dpos/state"
	"github.com/vechain/dpos/test/datagen"
	"github.com/vechain/dpos/thor"
)

var testLock = NewLockID("staking")

func newTestLedger(t *testing.T) *Ledger {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(solidity.NewContext(thor.Address{9}, state.New(db)), Config{MinimumBalance: 5, MaxConsumers: 2})
}

func TestLockID(t *testing.T) {
	assert.Equal(t, "staking", testLock.String())
	assert.Equal(t, "abcdefgh", NewLockID("abcdefghij").String())
}

func TestMintAndTransfer(t *testing.T) {
	l := newTestLedger(t)
	a, b := datagen.RandAddress(), datagen.RandAddress()

	assert.Equal(t, uint64(5), l.MinimumBalance())
	require.NoError(t, l.Mint(a, 100))
	assert.ErrorIs(t, l.Transfer(a, b, 101), ErrInsufficientBalance)
	require.NoError(t, l.Transfer(a, b, 40))

	free, err := l.FreeBalance(a)
	require.NoError(t, err)
	assert.Equal(t, uint64(60), free)
	free, _ = l.FreeBalance(b)
	assert.Equal(t, uint64(40), free)
}

func TestLocks(t *testing.T) {
	l := newTestLedger(t)
	a, b := datagen.RandAddress(), datagen.RandAddress()
	require.NoError(t, l.Mint(a, 100))

	require.NoError(t, l.SetLock(testLock, a, 70, AllReasons))
	require.NoError(t, l.SetLock(NewLockID("other"), a, 20, ReasonTransfer))

	locked, err := l.Locked(a, ReasonTransfer)
	require.NoError(t, err)
	assert.Equal(t, uint64(70), locked)

	assert.ErrorIs(t, l.Transfer(a, b, 31), ErrLiquidityRestrictions)
	require.NoError(t, l.Transfer(a, b, 30))

	// replacing keeps one lock per id
	require.NoError(t, l.SetLock(testLock, a, 10, AllReasons))
	locked, _ = l.Locked(a, AllReasons)
	assert.Equal(t, uint64(20), locked)

	require.NoError(t, l.RemoveLock(testLock, a))
	locked, _ = l.Locked(a, ReasonReserve)
	assert.Equal(t, uint64(0), locked)
	// removing an absent lock is fine
	require.NoError(t, l.RemoveLock(testLock, a))
}

func TestReserve(t *testing.T) {
	l := newTestLedger(t)
	a := datagen.RandAddress()
	require.NoError(t, l.Mint(a, 50))

	assert.ErrorIs(t, l.Reserve(a, 51), ErrInsufficientBalance)
	require.NoError(t, l.Reserve(a, 30))

	bal, err := l.Balance(a)
	require.NoError(t, err)
	assert.Equal(t, &Balance{Free: 20, Reserved: 30}, bal)

	// lock on free balance restricts reserving
	require.NoError(t, l.SetLock(testLock, a, 15, AllReasons))
	assert.ErrorIs(t, l.Reserve(a, 6), ErrLiquidityRestrictions)

	left, err := l.Unreserve(a, 40)
	require.NoError(t, err)
	assert.Equal(t, uint64(10), left)

	reserved, _ := l.ReservedBalance(a)
	assert.Equal(t, uint64(0), reserved)
	free, _ := l.FreeBalance(a)
	assert.Equal(t, uint64(50), free)
}

func TestConsumers(t *testing.T) {
	l := newTestLedger(t)
	a := datagen.RandAddress()

	assert.ErrorIs(t, l.DecConsumers(a), ErrNoConsumers)
	require.NoError(t, l.IncConsumers(a))
	require.NoError(t, l.IncConsumers(a))
	assert.ErrorIs(t, l.IncConsumers(a), ErrTooManyConsumers)

	n, err := l.Consumers(a)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), n)

	require.NoError(t, l.DecConsumers(a))
	require.NoError(t, l.DecConsumers(a))
	n, _ = l.Consumers(a)
	assert.Equal(t, uint32(0), n)
}
