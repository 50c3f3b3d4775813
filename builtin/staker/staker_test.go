// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/dpos/builtin/collateral"
	"github.com/vechain/dpos/builtin/staker/reverts"
	"github.com/vechain/dpos/test/datagen"
	"github.com/vechain/dpos/thor"
)

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
	assert.Error(t, Config{MinimumValidatorCount: 0, MaximumValidatorCount: 1}.Validate())
	assert.Error(t, Config{MinimumValidatorCount: 3, MaximumValidatorCount: 2}.Validate())

	_, err := New(stakerAddr, nil, nil, nil, Config{})
	assert.Error(t, err)
}

func TestOrigin(t *testing.T) {
	addr := datagen.RandAddress()
	ts := newTest(t).Mint(100, addr)

	assert.ErrorIs(t, ts.Staker.Bond(Root(), 10), reverts.ErrBadOrigin)
	assert.ErrorIs(t, ts.Staker.Bond(Origin{}, 10), reverts.ErrBadOrigin)
	assert.ErrorIs(t, ts.Staker.Vote(Root(), addr, 10), reverts.ErrBadOrigin)
	assert.ErrorIs(t, ts.SetMinimumValidatorCount(Signed(addr), 2), reverts.ErrBadOrigin)
	assert.ErrorIs(t, ts.SetMaximumValidatorCount(Origin{}, 2), reverts.ErrBadOrigin)

	assert.Equal(t, "root", Root().String())
	assert.Equal(t, "none", Origin{}.String())
	assert.Equal(t, addr.String(), Signed(addr).String())
}

func TestBond(t *testing.T) {
	addrs := datagen.RandAddresses(2)
	stash, poor := addrs[0], addrs[1]

	ts := newTestWithConfig(t, collateral.Config{MinimumBalance: 10}, DefaultConfig()).
		Mint(100, stash).
		Mint(30, poor)

	assert.ErrorIs(t, ts.Staker.Bond(Signed(stash), 9), reverts.ErrInsufficientBond)
	ts.AssertNotBonded(stash).AssertConsumers(stash, 0)

	ts.Bond(stash, 60).
		AssertBonded(stash, 60).
		AssertBalance(stash, 100, 0, 60).
		AssertConsumers(stash, 1)

	assert.ErrorIs(t, ts.Staker.Bond(Signed(stash), 10), reverts.ErrAlreadyBonded)
	ts.AssertBonded(stash, 60).AssertConsumers(stash, 1)

	// the locked amount is capped to the free balance
	ts.Bond(poor, 50).
		AssertBonded(poor, 30).
		AssertBalance(poor, 30, 0, 30)

	count, err := ts.StashCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), count)
}

func TestBondChecksAlreadyBondedFirst(t *testing.T) {
	stash := datagen.RandAddress()
	ts := newTestWithConfig(t, collateral.Config{MinimumBalance: 10}, DefaultConfig()).
		Mint(100, stash).
		Bond(stash, 20)

	// both preconditions fail, the first one is reported
	assert.ErrorIs(t, ts.Staker.Bond(Signed(stash), 1), reverts.ErrAlreadyBonded)
}

func TestBondBadState(t *testing.T) {
	stash := datagen.RandAddress()
	ts := newTestWithConfig(t, collateral.Config{MinimumBalance: 1, MaxConsumers: 1}, DefaultConfig()).
		Mint(100, stash)
	require.NoError(t, ts.ledger.IncConsumers(stash))

	assert.ErrorIs(t, ts.Staker.Bond(Signed(stash), 50), reverts.ErrBadState)
	ts.AssertNotBonded(stash).
		AssertBalance(stash, 100, 0, 0).
		AssertConsumers(stash, 1)
}

func TestBondUnbondRoundTrip(t *testing.T) {
	stash := datagen.RandAddress()
	ts := newTest(t).Mint(100, stash)

	assert.ErrorIs(t, ts.Staker.Unbond(Signed(stash)), reverts.ErrNotStash)

	ts.Bond(stash, 100).
		Unbond(stash).
		AssertNotBonded(stash).
		AssertBalance(stash, 100, 0, 0).
		AssertConsumers(stash, 0)

	assert.ErrorIs(t, ts.Staker.Unbond(Signed(stash)), reverts.ErrNotStash)

	// can bond again after unbonding
	ts.Bond(stash, 40).AssertBonded(stash, 40)
}

func TestVote(t *testing.T) {
	addrs := datagen.RandAddresses(3)
	voter, other, target := addrs[0], addrs[1], addrs[2]
	ts := newTest(t).Mint(100, voter, other)

	// a target does not need to be a stash
	ts.Vote(voter, target, 40).
		AssertUserStaked(voter, target, 40, true).
		AssertStaked(target, 40).
		AssertBalance(voter, 60, 40, 0)

	assert.ErrorIs(t, ts.Staker.Vote(Signed(voter), target, 10), reverts.ErrAlreadyVoted)
	ts.AssertStaked(target, 40).AssertBalance(voter, 60, 40, 0)

	ts.Vote(other, target, 25).AssertStaked(target, 65)

	votes, err := ts.Voters(target)
	require.NoError(t, err)
	assert.Equal(t, []Vote{{voter, 40}, {other, 25}}, votes)
}

func TestVoteInsufficientBalance(t *testing.T) {
	addrs := datagen.RandAddresses(3)
	voter, target, earlier := addrs[0], addrs[1], addrs[2]
	ts := newTest(t).Mint(9, voter).Mint(5, earlier).Vote(earlier, target, 5)

	err := ts.Staker.Vote(Signed(voter), target, 10)
	assert.ErrorIs(t, err, collateral.ErrInsufficientBalance)
	assert.False(t, reverts.IsRevertErr(err))

	ts.AssertUserStaked(voter, target, 0, false).
		AssertStaked(target, 5).
		AssertBalance(voter, 9, 0, 0)
}

func TestVoteUnvoteRoundTrip(t *testing.T) {
	addrs := datagen.RandAddresses(3)
	voter, other, target := addrs[0], addrs[1], addrs[2]
	ts := newTest(t).Mint(100, voter, other).Vote(other, target, 7)

	ts.Vote(voter, target, 30).
		Unvote(voter, target).
		AssertUserStaked(voter, target, 0, false).
		AssertStaked(target, 7).
		AssertBalance(voter, 100, 0, 0)

	// unvoting twice, or without ever voting, is a no-op
	ts.Unvote(voter, target).
		Unvote(voter, datagen.RandAddress()).
		AssertStaked(target, 7)

	votes, err := ts.Voters(target)
	require.NoError(t, err)
	assert.Equal(t, []Vote{{other, 7}}, votes)
}

func TestTargetMatchesVoters(t *testing.T) {
	addrs := datagen.RandAddresses(4)
	keep, voter, target, nobody := addrs[0], addrs[1], addrs[2], addrs[3]
	ts := newTest(t).Mint(100, keep, voter).Vote(keep, target, 7)

	_, ok, votes, err := ts.Target(nobody)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, votes)

	stop := make(chan struct{})
	var wg sync.WaitGroup
	defer func() {
		close(stop)
		wg.Wait()
	}()
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
			}
			assert.NoError(t, ts.Staker.Vote(Signed(voter), target, 5))
			assert.NoError(t, ts.Staker.Unvote(Signed(voter), target))
		}
	}()

	for range 500 {
		staked, ok, votes, err := ts.Target(target)
		require.NoError(t, err)
		require.True(t, ok)
		var sum uint64
		for _, v := range votes {
			sum += v.Amount
		}
		require.Equal(t, staked, sum, "torn read: %v", votes)
	}
}

func TestValidatorCountBounds(t *testing.T) {
	ts := newTest(t).SetBounds(2, 5)

	err := ts.SetMaximumValidatorCount(Root(), 1)
	assert.ErrorIs(t, err, reverts.ErrInvalidNumberOfValidators)
	assert.ErrorIs(t, ts.SetMinimumValidatorCount(Root(), 0), reverts.ErrInvalidNumberOfValidators)
	assert.ErrorIs(t, ts.SetMinimumValidatorCount(Root(), 6), reverts.ErrInvalidNumberOfValidators)

	minimum, err := ts.MinimumValidatorCount()
	require.NoError(t, err)
	maximum, err := ts.MaximumValidatorCount()
	require.NoError(t, err)
	assert.Equal(t, uint32(2), minimum)
	assert.Equal(t, uint32(5), maximum)
}

func TestNewSession(t *testing.T) {
	addrs := datagen.RandAddresses(4)
	a, b, c, d := addrs[0], addrs[1], addrs[2], addrs[3]

	ts := newTest(t).
		Mint(1000, a, b, c, d).
		SetBounds(2, 2).
		Bond(a, 100).
		Bond(b, 200).
		Bond(c, 50).
		Vote(d, a, 500)

	ts.AssertSession(1, a, b)

	// the selector reads but never writes
	ts.AssertBonded(a, 100).AssertStaked(a, 500)
	ts.StartSession(1)
	ts.EndSession(1)
}

func TestNewSessionShortfall(t *testing.T) {
	addrs := datagen.RandAddresses(2)
	a, b := addrs[0], addrs[1]

	ts := newTest(t).
		Mint(1000, a, b).
		SetBounds(2, 10).
		Bond(a, 100)

	// delegations do not make a target a candidate
	ts.Vote(b, datagen.RandAddress(), 100)
	ts.AssertNoSession(1)

	ts.Bond(b, 10).AssertSession(2, a, b)
	ts.Unbond(a).AssertNoSession(3)
}

func TestNewSessionTieKeepsBondingOrder(t *testing.T) {
	addrs := datagen.RandAddresses(4)
	ts := newTest(t).Mint(1000, addrs...).SetBounds(1, 3)
	for _, a := range addrs {
		ts.Bond(a, 10)
	}
	ts.AssertSession(1, addrs[0], addrs[1], addrs[2])

	// a stash that unbonds and bonds again moves to the end
	ts.Unbond(addrs[0]).Bond(addrs[0], 10)
	ts.AssertSession(2, addrs[1], addrs[2], addrs[3])
}

func TestStashes(t *testing.T) {
	addrs := datagen.RandAddresses(3)
	ts := newTest(t).Mint(100, addrs...)
	for i, a := range addrs {
		ts.Bond(a, uint64(10*(i+1)))
	}
	ts.Unbond(addrs[1])

	stashes, err := ts.Stashes()
	require.NoError(t, err)
	assert.Equal(t, []Stash{{addrs[0], 10}, {addrs[2], 30}}, stashes)
}

func TestEvents(t *testing.T) {
	addrs := datagen.RandAddresses(3)
	stash, voter, target := addrs[0], addrs[1], addrs[2]
	ts := newTest(t).Mint(100, stash, voter)

	ch := make(chan *Event, 16)
	sub := ts.SubscribeEvents(ch)
	defer sub.Unsubscribe()

	ts.Bond(stash, 50)
	assert.ErrorIs(t, ts.Staker.Bond(Signed(stash), 50), reverts.ErrAlreadyBonded)
	ts.Vote(voter, target, 20)
	ts.Unvote(voter, target)
	ts.Unvote(voter, target) // no-op, no event
	ts.Unbond(stash)

	expected := []*Event{
		{Kind: EventBonded, Account: stash, Amount: 50},
		{Kind: EventVoted, Account: voter, Target: target, Amount: 20},
		{Kind: EventUnvoted, Account: voter, Target: target},
		{Kind: EventUnbonded, Account: stash},
	}
	for _, want := range expected {
		select {
		case got := <-ch:
			assert.Equal(t, want, got)
		case <-time.After(time.Second):
			t.Fatalf("missing event %v", want)
		}
	}
	select {
	case ev := <-ch:
		t.Fatalf("unexpected event %v", ev)
	default:
	}

	assert.Equal(t, "Bonded", EventBonded.String())
	assert.Equal(t, "Unbonded("+stash.String()+")", expected[3].String())
}

func TestEventsPrecedeCommit(t *testing.T) {
	stash := datagen.RandAddress()
	ts := newTest(t).Mint(100, stash)

	ch := make(chan *Event, 1)
	sub := ts.SubscribeEvents(ch)
	defer sub.Unsubscribe()

	ts.Bond(stash, 50)
	select {
	case ev := <-ch:
		assert.Equal(t, &Event{Kind: EventBonded, Account: stash, Amount: 50}, ev)
	case <-time.After(time.Second):
		t.Fatal("missing bonded event")
	}

	// delivered events are visible to queries but not yet durable
	ts.AssertBonded(stash, 50)
	reopened, _ := ts.reopen()
	_, ok, err := reopened.Bonded(stash)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, ts.Commit())
	reopened, _ = ts.reopen()
	amount, ok, err := reopened.Bonded(stash)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, uint64(50), amount)
}

func TestConcurrentCalls(t *testing.T) {
	addrs := datagen.RandAddresses(32)
	target := datagen.RandAddress()
	ts := newTest(t).Mint(100, addrs...)

	ch := make(chan *Event, 2*len(addrs))
	sub := ts.SubscribeEvents(ch)
	defer sub.Unsubscribe()

	var wg sync.WaitGroup
	for _, a := range addrs {
		wg.Add(1)
		go func(a thor.Address) {
			defer wg.Done()
			assert.NoError(t, ts.Staker.Bond(Signed(a), 50))
			assert.NoError(t, ts.Staker.Vote(Signed(a), target, 10))
			_, _, err := ts.Staker.Staked(target)
			assert.NoError(t, err)
		}(a)
	}
	wg.Wait()

	count, err := ts.StashCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(len(addrs)), count)
	ts.AssertStaked(target, uint64(10*len(addrs)))
	assert.Len(t, ch, 2*len(addrs))
}

func TestCommit(t *testing.T) {
	addrs := datagen.RandAddresses(2)
	stash, voter := addrs[0], addrs[1]
	ts := newTest(t).Mint(100, stash, voter).Bond(stash, 50).Vote(voter, stash, 30)
	require.NoError(t, ts.Commit())

	// a fresh staker over the same db sees the committed ledgers
	reopened, ledger := ts.reopen()

	amount, ok, err := reopened.Bonded(stash)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, uint64(50), amount)

	staked, _, err := reopened.Staked(stash)
	require.NoError(t, err)
	assert.Equal(t, uint64(30), staked)

	free, err := ledger.FreeBalance(voter)
	require.NoError(t, err)
	assert.Equal(t, uint64(70), free)
}
