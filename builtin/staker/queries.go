// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"github.com/vechain/dpos/thor"
)

// Stash is a bonded account.
type Stash struct {
	Address thor.Address
	Bonded  uint64
}

// Vote is a live delegation to some target.
type Vote struct {
	Voter  thor.Address
	Amount uint64
}

//
// Getters - no state change
//

// Bonded returns the bonded amount of stash, ok is false if it is not a stash.
func (s *Staker) Bonded(stash thor.Address) (uint64, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bondService.Get(stash)
}

// UserStaked returns the amount voter delegated to target.
func (s *Staker) UserStaked(voter, target thor.Address) (uint64, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.delegationService.Get(voter, target)
}

// Staked returns the aggregate stake delegated to target.
func (s *Staker) Staked(target thor.Address) (uint64, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.aggregationService.Get(target)
}

func (s *Staker) MinimumValidatorCount() (uint32, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.boundsService.Minimum()
}

func (s *Staker) MaximumValidatorCount() (uint32, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.boundsService.Maximum()
}

// Stashes lists all stashes in bonding order.
func (s *Staker) Stashes() ([]Stash, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var stashes []Stash
	err := s.bondService.Iter(func(stash thor.Address, amount uint64) error {
		stashes = append(stashes, Stash{Address: stash, Bonded: amount})
		return nil
	})
	return stashes, err
}

func (s *Staker) StashCount() (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bondService.Count()
}

// Voters lists the live delegations to target in voting order.
func (s *Staker) Voters(target thor.Address) ([]Vote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.voters(target)
}

// Target reads the aggregate stake of target together with its voters, so
// staked always equals the sum of the listed amounts.
func (s *Staker) Target(target thor.Address) (staked uint64, ok bool, votes []Vote, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	staked, ok, err = s.aggregationService.Get(target)
	if err != nil || !ok {
		return staked, ok, nil, err
	}
	votes, err = s.voters(target)
	return staked, true, votes, err
}

func (s *Staker) voters(target thor.Address) ([]Vote, error) {
	var votes []Vote
	err := s.delegationService.IterVoters(target, func(voter thor.Address, amount uint64) error {
		votes = append(votes, Vote{Voter: voter, Amount: amount})
		return nil
	})
	return votes, err
}
