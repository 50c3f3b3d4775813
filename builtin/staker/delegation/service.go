// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package delegation

import (
	"github.com/pkg/errors"

	"github.com/vechain/dpos/builtin/solidity"
	"github.com/vechain/dpos/builtin/staker/linkedlist"
	"github.com/vechain/dpos/builtin/staker/reverts"
	"github.com/vechain/dpos/thor"
)

var (
	slotUserStaked  = thor.BytesToBytes32([]byte("user-staked"))
	slotVotersHead  = thor.BytesToBytes32([]byte("voters-head"))
	slotVotersTail  = thor.BytesToBytes32([]byte("voters-tail"))
	slotVotersCount = thor.BytesToBytes32([]byte("voters-size"))
)

// ID identifies the delegation of voter to target.
func ID(voter, target thor.Address) thor.Bytes32 {
	return thor.Blake2b(voter.Bytes(), target.Bytes())
}

// Service keeps the amount each voter delegated to each target.
// Voters of a target are listed in voting order.
type Service struct {
	sctx       *solidity.Context
	userStaked *solidity.Mapping[thor.Bytes32, uint64]
}

func New(sctx *solidity.Context) *Service {
	return &Service{
		sctx:       sctx,
		userStaked: solidity.NewMapping[thor.Bytes32, uint64](sctx, slotUserStaked),
	}
}

func (s *Service) voters(target thor.Address) *linkedlist.LinkedList {
	return linkedlist.NewLinkedList(
		s.sctx,
		thor.Blake2b(target.Bytes(), slotVotersHead.Bytes()),
		thor.Blake2b(target.Bytes(), slotVotersTail.Bytes()),
		thor.Blake2b(target.Bytes(), slotVotersCount.Bytes()),
	)
}

// Get returns the delegated amount, ok is false if voter has not voted for target.
func (s *Service) Get(voter, target thor.Address) (uint64, bool, error) {
	amount, ok, err := s.userStaked.Lookup(ID(voter, target))
	if err != nil {
		return 0, false, errors.Wrap(err, "failed to get delegation")
	}
	return amount, ok, nil
}

// Add creates the delegation record.
func (s *Service) Add(voter, target thor.Address, amount uint64) error {
	id := ID(voter, target)
	exists, err := s.userStaked.Exists(id)
	if err != nil {
		return errors.Wrap(err, "failed to get delegation")
	}
	if exists {
		return reverts.ErrAlreadyVoted
	}
	if err := s.userStaked.Set(id, amount); err != nil {
		return errors.Wrap(err, "failed to set delegation")
	}
	if err := s.voters(target).Add(voter); err != nil {
		return errors.Wrap(err, "failed to list voter")
	}
	return nil
}

// Remove takes the delegation out, ok is false if there was none.
func (s *Service) Remove(voter, target thor.Address) (uint64, bool, error) {
	amount, ok, err := s.Get(voter, target)
	if err != nil || !ok {
		return 0, false, err
	}
	s.userStaked.Delete(ID(voter, target))
	if err := s.voters(target).Remove(voter); err != nil {
		return 0, false, errors.Wrap(err, "failed to unlist voter")
	}
	return amount, true, nil
}

// VoterCount returns the number of live delegations to target.
func (s *Service) VoterCount(target thor.Address) (uint64, error) {
	return s.voters(target).Len()
}

// IterVoters calls fn for every voter of target in voting order.
func (s *Service) IterVoters(target thor.Address, fn func(voter thor.Address, amount uint64) error) error {
	return s.voters(target).Iter(func(voter thor.Address) error {
		amount, err := s.userStaked.Get(ID(voter, target))
		if err != nil {
			return errors.Wrap(err, "failed to get delegation")
		}
		return fn(voter, amount)
	})
}
