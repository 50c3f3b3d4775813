// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/dpos/builtin/collateral"
	"github.com/vechain/dpos/builtin/solidity"
	"github.com/vechain/dpos/lvldb"
	"github.com/vechain/dpos/state"
	"github.com/vechain/dpos/thor"
)

var (
	stakerAddr     = thor.BytesToAddress([]byte("staker"))
	collateralAddr = thor.BytesToAddress([]byte("collateral"))
)

type StakerTest struct {
	*Staker
	t      *testing.T
	db     *lvldb.LevelDB
	ledger *collateral.Ledger
}

func newTest(t *testing.T) *StakerTest {
	return newTestWithConfig(t, collateral.Config{MinimumBalance: 1}, DefaultConfig())
}

func newTestWithConfig(t *testing.T, collateralCfg collateral.Config, cfg Config) *StakerTest {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	st := state.New(db)
	ledger := collateral.New(solidity.NewContext(collateralAddr, st), collateralCfg)
	staker, err := New(stakerAddr, st, ledger, ledger, cfg)
	require.NoError(t, err)
	t.Cleanup(staker.Close)

	return &StakerTest{Staker: staker, t: t, db: db, ledger: ledger}
}

// reopen builds a fresh staker over the persisted state of ts.
func (ts *StakerTest) reopen() (*Staker, *collateral.Ledger) {
	st := state.New(ts.db)
	ledger := collateral.New(solidity.NewContext(collateralAddr, st), collateral.Config{MinimumBalance: 1})
	reopened, err := New(stakerAddr, st, ledger, ledger, DefaultConfig())
	require.NoError(ts.t, err)
	ts.t.Cleanup(reopened.Close)
	return reopened, ledger
}

// Mint endows every account with amount of free balance.
func (ts *StakerTest) Mint(amount uint64, accounts ...thor.Address) *StakerTest {
	for _, a := range accounts {
		require.NoError(ts.t, ts.ledger.Mint(a, amount), "failed to mint")
	}
	return ts
}

func (ts *StakerTest) Bond(stash thor.Address, amount uint64) *StakerTest {
	require.NoError(ts.t, ts.Staker.Bond(Signed(stash), amount), "failed to bond")
	return ts
}

func (ts *StakerTest) Unbond(stash thor.Address) *StakerTest {
	require.NoError(ts.t, ts.Staker.Unbond(Signed(stash)), "failed to unbond")
	return ts
}

func (ts *StakerTest) Vote(voter, target thor.Address, amount uint64) *StakerTest {
	require.NoError(ts.t, ts.Staker.Vote(Signed(voter), target, amount), "failed to vote")
	return ts
}

func (ts *StakerTest) Unvote(voter, target thor.Address) *StakerTest {
	require.NoError(ts.t, ts.Staker.Unvote(Signed(voter), target), "failed to unvote")
	return ts
}

// SetBounds writes the validator count bounds through governance.
func (ts *StakerTest) SetBounds(minimum, maximum uint32) *StakerTest {
	current, err := ts.Staker.MaximumValidatorCount()
	require.NoError(ts.t, err)
	if minimum > current {
		require.NoError(ts.t, ts.SetMaximumValidatorCount(Root(), maximum))
		require.NoError(ts.t, ts.SetMinimumValidatorCount(Root(), minimum))
	} else {
		require.NoError(ts.t, ts.SetMinimumValidatorCount(Root(), minimum))
		require.NoError(ts.t, ts.SetMaximumValidatorCount(Root(), maximum))
	}
	return ts
}

func (ts *StakerTest) AssertBonded(stash thor.Address, expected uint64) *StakerTest {
	amount, ok, err := ts.Staker.Bonded(stash)
	assert.NoError(ts.t, err, "failed to get bond")
	assert.True(ts.t, ok, "stash %v not bonded", stash)
	assert.Equal(ts.t, expected, amount, "bonded amount mismatch")
	return ts
}

func (ts *StakerTest) AssertNotBonded(stash thor.Address) *StakerTest {
	_, ok, err := ts.Staker.Bonded(stash)
	assert.NoError(ts.t, err, "failed to get bond")
	assert.False(ts.t, ok, "stash %v still bonded", stash)
	return ts
}

func (ts *StakerTest) AssertStaked(target thor.Address, expected uint64) *StakerTest {
	staked, _, err := ts.Staker.Staked(target)
	assert.NoError(ts.t, err, "failed to get aggregate stake")
	assert.Equal(ts.t, expected, staked, "aggregate stake mismatch")
	return ts
}

func (ts *StakerTest) AssertUserStaked(voter, target thor.Address, expected uint64, live bool) *StakerTest {
	amount, ok, err := ts.Staker.UserStaked(voter, target)
	assert.NoError(ts.t, err, "failed to get delegation")
	assert.Equal(ts.t, live, ok, "delegation liveness mismatch")
	assert.Equal(ts.t, expected, amount, "delegated amount mismatch")
	return ts
}

// AssertBalance checks free, reserved and locked balances of account.
func (ts *StakerTest) AssertBalance(account thor.Address, free, reserved, locked uint64) *StakerTest {
	bal, err := ts.ledger.Balance(account)
	require.NoError(ts.t, err, "failed to get balance")
	assert.Equal(ts.t, free, bal.Free, "free balance mismatch")
	assert.Equal(ts.t, reserved, bal.Reserved, "reserved balance mismatch")
	assert.Equal(ts.t, locked, bal.Locked, "locked balance mismatch")
	return ts
}

func (ts *StakerTest) AssertConsumers(account thor.Address, expected uint32) *StakerTest {
	n, err := ts.ledger.Consumers(account)
	require.NoError(ts.t, err)
	assert.Equal(ts.t, expected, n, "consumers mismatch")
	return ts
}

func (ts *StakerTest) AssertSession(index uint32, expected ...thor.Address) *StakerTest {
	elected, ok, err := ts.Staker.NewSession(index)
	require.NoError(ts.t, err, "failed to plan session")
	assert.True(ts.t, ok, "expected a new validator set")
	assert.Equal(ts.t, expected, elected, "elected validators mismatch")
	return ts
}

func (ts *StakerTest) AssertNoSession(index uint32) *StakerTest {
	elected, ok, err := ts.Staker.NewSession(index)
	require.NoError(ts.t, err, "failed to plan session")
	assert.False(ts.t, ok, "expected the current set to be kept")
	assert.Nil(ts.t, elected)
	return ts
}
