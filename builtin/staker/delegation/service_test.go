// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package delegation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/dpos/builtin/solidity"
	"github.com/vechain/dpos/builtin/staker/reverts"
	"github.com/vechain/dpos/lvldb"
	"github.com/vechain/dpos/state"
	"github.com/vechain/dpos/test/datagen"
	"github.com/vechain/dpos/thor"
)

func newTestService(t *testing.T) *Service {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(solidity.NewContext(thor.Address{1}, state.New(db)))
}

type voterAmount struct {
	voter  thor.Address
	amount uint64
}

func listVoters(t *testing.T, svc *Service, target thor.Address) []voterAmount {
	var out []voterAmount
	require.NoError(t, svc.IterVoters(target, func(voter thor.Address, amount uint64) error {
		out = append(out, voterAmount{voter, amount})
		return nil
	}))
	return out
}

func TestID(t *testing.T) {
	a, b := datagen.RandAddress(), datagen.RandAddress()
	assert.Equal(t, ID(a, b), ID(a, b))
	assert.NotEqual(t, ID(a, b), ID(b, a))
}

func TestService(t *testing.T) {
	svc := newTestService(t)
	addrs := datagen.RandAddresses(4)
	v1, v2, t1, t2 := addrs[0], addrs[1], addrs[2], addrs[3]

	require.NoError(t, svc.Add(v1, t1, 10))
	require.NoError(t, svc.Add(v2, t1, 20))
	require.NoError(t, svc.Add(v1, t2, 5))
	assert.ErrorIs(t, svc.Add(v1, t1, 1), reverts.ErrAlreadyVoted)

	amount, ok, err := svc.Get(v1, t2)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, uint64(5), amount)

	assert.Equal(t, []voterAmount{{v1, 10}, {v2, 20}}, listVoters(t, svc, t1))
	assert.Equal(t, []voterAmount{{v1, 5}}, listVoters(t, svc, t2))

	removed, ok, err := svc.Remove(v1, t1)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, uint64(10), removed)

	_, ok, err = svc.Remove(v1, t1)
	require.NoError(t, err)
	assert.False(t, ok)

	n, err := svc.VoterCount(t1)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), n)
	assert.Equal(t, []voterAmount{{v2, 20}}, listVoters(t, svc, t1))

	// the delegation from v1 to t2 is untouched
	_, ok, _ = svc.Get(v1, t2)
	assert.True(t, ok)
}
