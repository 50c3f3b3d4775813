// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"sync"

	"github.com/ethereum/go-ethereum/event"
	"github.com/pkg/errors"

	"github.com/vechain/dpos/builtin/collateral"
	"github.com/vechain/dpos/builtin/solidity"
	"github.com/vechain/dpos/builtin/staker/aggregation"
	"github.com/vechain/dpos/builtin/staker/bond"
	"github.com/vechain/dpos/builtin/staker/bounds"
	"github.com/vechain/dpos/builtin/staker/delegation"
	"github.com/vechain/dpos/builtin/staker/reverts"
	"github.com/vechain/dpos/log"
	"github.com/vechain/dpos/state"
	"github.com/vechain/dpos/thor"
)

var logger = log.WithContext("pkg", "staker")

// StakingID is the lock placed on bonded funds.
var StakingID = collateral.NewLockID("staking")

func SetLogger(l log.Logger) {
	logger = l
}

// Currency is the part of the collateral ledger the staker moves funds with.
type Currency interface {
	MinimumBalance() uint64
	FreeBalance(addr thor.Address) (uint64, error)
	SetLock(id collateral.LockID, addr thor.Address, amount uint64, reasons collateral.WithdrawReasons) error
	RemoveLock(id collateral.LockID, addr thor.Address) error
	Reserve(addr thor.Address, amount uint64) error
	Unreserve(addr thor.Address, amount uint64) (uint64, error)
}

// AccountLifecycle keeps accounts alive while they hold staking state.
type AccountLifecycle interface {
	IncConsumers(addr thor.Address) error
	DecConsumers(addr thor.Address) error
}

// Staker keeps bonds, delegations and validator bounds, and selects the validators of new sessions.
// Currency and AccountLifecycle must write to the same state as the staker so
// that a failed call leaves no trace in any of them.
// Staker is safe for concurrent use.
type Staker struct {
	mu     sync.RWMutex
	sendMu sync.Mutex
	state  *state.State

	currency Currency
	accounts AccountLifecycle

	bondService        *bond.Service
	delegationService  *delegation.Service
	aggregationService *aggregation.Service
	boundsService      *bounds.Service

	feed  event.Feed
	scope event.SubscriptionScope
}

// New create a new instance.
func New(addr thor.Address, st *state.State, currency Currency, accounts AccountLifecycle, cfg Config) (*Staker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	sctx := solidity.NewContext(addr, st)
	return &Staker{
		state:              st,
		currency:           currency,
		accounts:           accounts,
		bondService:        bond.New(sctx),
		delegationService:  delegation.New(sctx),
		aggregationService: aggregation.New(sctx),
		boundsService:      bounds.New(sctx, cfg.MinimumValidatorCount, cfg.MaximumValidatorCount),
	}, nil
}

// Commit persists all changes made by successful calls.
func (s *Staker) Commit() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Commit()
}

// Close ends all event subscriptions.
func (s *Staker) Close() {
	s.scope.Close()
}

// execute runs fn as one all-or-nothing call. On failure the state is rolled back.
// On success the event, if any, is sent after the state lock is released.
func (s *Staker) execute(method string, fn func() (*Event, error)) (*Event, error) {
	s.mu.Lock()
	checkpoint := s.state.NewCheckpoint()
	ev, err := fn()
	if err != nil {
		s.state.RevertTo(checkpoint)
		s.mu.Unlock()
		countCall(method, err)
		return nil, err
	}

	s.sendMu.Lock()
	s.mu.Unlock()
	if ev != nil {
		s.feed.Send(ev)
	}
	s.sendMu.Unlock()

	countCall(method, nil)
	return ev, nil
}

func (s *Staker) updateStashesGauge() {
	if n, err := s.bondService.Count(); err == nil {
		metricStashes().Set(int64(n))
	}
}

//
// Bond ledger
//

// Bond locks amount of the signer's free balance, capped to what is free, and makes it a stash.
func (s *Staker) Bond(origin Origin, amount uint64) error {
	logger.Debug("bonding", "origin", origin, "amount", amount)

	ev, err := s.execute("bond", func() (*Event, error) {
		stash, err := origin.ensureSigned()
		if err != nil {
			return nil, err
		}
		if _, bonded, err := s.bondService.Get(stash); err != nil {
			return nil, err
		} else if bonded {
			return nil, reverts.ErrAlreadyBonded
		}
		if amount < s.currency.MinimumBalance() {
			return nil, reverts.ErrInsufficientBond
		}
		if err := s.accounts.IncConsumers(stash); err != nil {
			var stateErr *state.Error
			if errors.As(err, &stateErr) {
				return nil, err
			}
			return nil, reverts.ErrBadState
		}

		free, err := s.currency.FreeBalance(stash)
		if err != nil {
			return nil, err
		}
		locked := min(amount, free)
		if err := s.bondService.Add(stash, locked); err != nil {
			return nil, err
		}
		if err := s.currency.SetLock(StakingID, stash, locked, collateral.AllReasons); err != nil {
			return nil, err
		}
		s.updateStashesGauge()
		return &Event{Kind: EventBonded, Account: stash, Amount: locked}, nil
	})
	if err != nil {
		logger.Info("bond failed", "origin", origin, "error", err)
		return err
	}
	logger.Info("bonded", "stash", ev.Account, "amount", ev.Amount)
	return nil
}

// Unbond removes the signer's stash and releases its lock immediately.
func (s *Staker) Unbond(origin Origin) error {
	logger.Debug("unbonding", "origin", origin)

	ev, err := s.execute("unbond", func() (*Event, error) {
		stash, err := origin.ensureSigned()
		if err != nil {
			return nil, err
		}
		if _, err := s.bondService.Remove(stash); err != nil {
			return nil, err
		}
		if err := s.currency.RemoveLock(StakingID, stash); err != nil {
			return nil, err
		}
		if err := s.accounts.DecConsumers(stash); err != nil {
			var stateErr *state.Error
			if errors.As(err, &stateErr) {
				return nil, err
			}
			logger.Warn("consumer already released", "stash", stash, "error", err)
		}
		s.updateStashesGauge()
		return &Event{Kind: EventUnbonded, Account: stash}, nil
	})
	if err != nil {
		logger.Info("unbond failed", "origin", origin, "error", err)
		return err
	}
	logger.Info("unbonded", "stash", ev.Account)
	return nil
}

//
// Delegation ledger
//

// Vote reserves amount of the signer's balance and delegates it to target.
// Target does not need to be a stash.
func (s *Staker) Vote(origin Origin, target thor.Address, amount uint64) error {
	logger.Debug("voting", "origin", origin, "target", target, "amount", amount)

	ev, err := s.execute("vote", func() (*Event, error) {
		voter, err := origin.ensureSigned()
		if err != nil {
			return nil, err
		}
		if _, voted, err := s.delegationService.Get(voter, target); err != nil {
			return nil, err
		} else if voted {
			return nil, reverts.ErrAlreadyVoted
		}
		if err := s.currency.Reserve(voter, amount); err != nil {
			return nil, err
		}
		if err := s.delegationService.Add(voter, target, amount); err != nil {
			return nil, err
		}
		if err := s.aggregationService.Add(target, amount); err != nil {
			return nil, err
		}
		return &Event{Kind: EventVoted, Account: voter, Target: target, Amount: amount}, nil
	})
	if err != nil {
		logger.Info("vote failed", "origin", origin, "target", target, "error", err)
		return err
	}
	logger.Info("voted", "voter", ev.Account, "target", target, "amount", amount)
	return nil
}

// Unvote withdraws the signer's delegation to target and unreserves it.
// Unvoting an absent delegation succeeds without effect.
func (s *Staker) Unvote(origin Origin, target thor.Address) error {
	logger.Debug("unvoting", "origin", origin, "target", target)

	ev, err := s.execute("unvote", func() (*Event, error) {
		voter, err := origin.ensureSigned()
		if err != nil {
			return nil, err
		}
		staked, ok, err := s.delegationService.Remove(voter, target)
		if err != nil || !ok {
			return nil, err
		}
		remaining, err := s.currency.Unreserve(voter, staked)
		if err != nil {
			return nil, err
		}
		if remaining > 0 {
			logger.Warn("delegation partially unreserved", "voter", voter, "target", target, "remaining", remaining)
		}
		if err := s.aggregationService.Sub(target, staked); err != nil {
			return nil, err
		}
		return &Event{Kind: EventUnvoted, Account: voter, Target: target}, nil
	})
	if err != nil {
		logger.Info("unvote failed", "origin", origin, "target", target, "error", err)
		return err
	}
	if ev == nil {
		logger.Debug("nothing to unvote", "origin", origin, "target", target)
		return nil
	}
	logger.Info("unvoted", "voter", ev.Account, "target", target)
	return nil
}

//
// Parameter store
//

// SetMinimumValidatorCount requires root and 0 < value <= maximum.
func (s *Staker) SetMinimumValidatorCount(origin Origin, value uint32) error {
	logger.Debug("setting minimum validator count", "origin", origin, "value", value)

	_, err := s.execute("set_minimum_validator_count", func() (*Event, error) {
		if err := origin.ensureRoot(); err != nil {
			return nil, err
		}
		return nil, s.boundsService.SetMinimum(value)
	})
	if err != nil {
		logger.Info("set minimum validator count failed", "value", value, "error", err)
		return err
	}
	logger.Info("set minimum validator count", "value", value)
	return nil
}

// SetMaximumValidatorCount requires root and value >= minimum.
func (s *Staker) SetMaximumValidatorCount(origin Origin, value uint32) error {
	logger.Debug("setting maximum validator count", "origin", origin, "value", value)

	_, err := s.execute("set_maximum_validator_count", func() (*Event, error) {
		if err := origin.ensureRoot(); err != nil {
			return nil, err
		}
		return nil, s.boundsService.SetMaximum(value)
	})
	if err != nil {
		logger.Info("set maximum validator count failed", "value", value, "error", err)
		return err
	}
	logger.Info("set maximum validator count", "value", value)
	return nil
}
