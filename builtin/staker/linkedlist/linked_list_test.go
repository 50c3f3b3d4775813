// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package linkedlist

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

func newTestList(t *testing.T) *LinkedList {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	sctx := solidity.NewContext(thor.Address{7}, state.New(db))
	return NewLinkedList(sctx, thor.Bytes32{1}, thor.Bytes32{2}, thor.Bytes32{3})
}

func assertList(t *testing.T, l *LinkedList, want ...thor.Address) {
	t.Helper()
	got, err := l.All()
	require.NoError(t, err)
	if len(want) == 0 {
		assert.Empty(t, got)
	} else {
		assert.Equal(t, want, got)
	}
	n, err := l.Len()
	require.NoError(t, err)
	assert.Equal(t, uint64(len(want)), n)
}

func TestLinkedList(t *testing.T) {
	l := newTestList(t)
	addrs := datagen.RandAddresses(4)
	a, b, c, d := addrs[0], addrs[1], addrs[2], addrs[3]

	assert.Error(t, l.Add(thor.Address{}))
	assertList(t, l)

	for _, addr := range addrs {
		require.NoError(t, l.Add(addr))
	}
	assertList(t, l, a, b, c, d)

	// middle
	require.NoError(t, l.Remove(b))
	assertList(t, l, a, c, d)

	// head
	require.NoError(t, l.Remove(a))
	assertList(t, l, c, d)
	head, err := l.Head()
	require.NoError(t, err)
	assert.Equal(t, c, head)

	// tail
	require.NoError(t, l.Remove(d))
	assertList(t, l, c)

	// absent and zero are ignored
	require.NoError(t, l.Remove(a))
	require.NoError(t, l.Remove(thor.Address{}))
	assertList(t, l, c)

	require.NoError(t, l.Remove(c))
	assertList(t, l)

	// re-added goes to the end
	require.NoError(t, l.Add(b))
	require.NoError(t, l.Add(a))
	assertList(t, l, b, a)
	next, err := l.Next(b)
	require.NoError(t, err)
	assert.Equal(t, a, next)
}
