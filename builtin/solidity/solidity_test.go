// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package solidity

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/dpos/lvldb"
	"github.com/vechain/dpos/state"
	"github.com/vechain/dpos/test/datagen"
	"github.com/vechain/dpos/thor"
)

type TestStruct struct {
	Field1 uint64
	Field2 uint64
	Addr1  thor.Address
	Bytes1 thor.Bytes32
}

func newTestContext(t *testing.T) *Context {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewContext(thor.Address{1}, state.New(db))
}

func TestMapping(t *testing.T) {
	ctx := newTestContext(t)
	m := NewMapping[thor.Address, *TestStruct](ctx, thor.Bytes32{1})
	key := datagen.RandAddress()

	v, err := m.Get(key)
	require.NoError(t, err)
	assert.NotNil(t, v)
	assert.Equal(t, &TestStruct{}, v)

	_, ok, err := m.Lookup(key)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.ErrorIs(t, m.Update(key, &TestStruct{}), ErrKeyNotFound)

	val := &TestStruct{Field1: 100, Field2: 200, Addr1: datagen.RandAddress(), Bytes1: datagen.RandomHash()}
	require.NoError(t, m.Insert(key, val))
	assert.ErrorIs(t, m.Insert(key, val), ErrKeyExists)

	got, ok, err := m.Lookup(key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, val, got)

	val.Field1 = 1
	require.NoError(t, m.Update(key, val))
	got, err = m.Get(key)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), got.Field1)

	m.Delete(key)
	exists, err := m.Exists(key)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestMappingZeroValueIsPresent(t *testing.T) {
	ctx := newTestContext(t)
	m := NewMapping[thor.Address, uint64](ctx, thor.Bytes32{2})
	key := datagen.RandAddress()

	require.NoError(t, m.Set(key, 0))
	v, ok, err := m.Lookup(key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, uint64(0), v)
}

func TestMappingSeparatedByPosition(t *testing.T) {
	ctx := newTestContext(t)
	a := NewMapping[thor.Address, uint64](ctx, thor.Bytes32{1})
	b := NewMapping[thor.Address, uint64](ctx, thor.Bytes32{2})
	key := datagen.RandAddress()

	require.NoError(t, a.Set(key, 10))
	exists, err := b.Exists(key)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestRaw(t *testing.T) {
	ctx := newTestContext(t)
	r := NewRaw[uint32](ctx, thor.Bytes32{3})

	_, ok, err := r.Get()
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, r.Set(7))
	v, ok, err := r.Get()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, uint32(7), v)

	r.Delete()
	_, ok, _ = r.Get()
	assert.False(t, ok)
}

func TestAddress(t *testing.T) {
	ctx := newTestContext(t)
	a := NewAddress(ctx, thor.Bytes32{4})

	v, err := a.Get()
	require.NoError(t, err)
	assert.True(t, v.IsZero())

	addr := datagen.RandAddress()
	a.Set(&addr)
	v, err = a.Get()
	require.NoError(t, err)
	assert.Equal(t, addr, v)

	a.Set(nil)
	v, _ = a.Get()
	assert.True(t, v.IsZero())
}

func TestUint256(t *testing.T) {
	ctx := newTestContext(t)
	u := NewUint256(ctx, thor.Bytes32{5})

	v, err := u.Get()
	require.NoError(t, err)
	assert.True(t, v.IsZero())

	require.NoError(t, u.Add(uint256.NewInt(5)))
	require.NoError(t, u.Sub(uint256.NewInt(2)))
	v, _ = u.Get()
	assert.Equal(t, uint64(3), v.Uint64())

	assert.ErrorIs(t, u.Sub(uint256.NewInt(4)), ErrUnderflow)

	maxVal := new(uint256.Int).SetAllOne()
	u.Set(maxVal)
	assert.ErrorIs(t, u.Add(uint256.NewInt(1)), ErrOverflow)
}
