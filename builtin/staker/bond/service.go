// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package bond

import (
	"github.com/pkg/errors"

	"github.com/vechain/dpos/builtin/solidity"
	"github.com/vechain/dpos/builtin/staker/linkedlist"
	"github.com/vechain/dpos/builtin/staker/reverts"
	"github.com/vechain/dpos/thor"
)

var (
	slotBonded       = thor.BytesToBytes32([]byte("bonded"))
	slotStashesHead  = thor.BytesToBytes32([]byte("stashes-head"))
	slotStashesTail  = thor.BytesToBytes32([]byte("stashes-tail"))
	slotStashesCount = thor.BytesToBytes32([]byte("stashes-size"))
)

// Service keeps the bonded amount of every stash, and the stashes in bonding order.
type Service struct {
	bonded  *solidity.Mapping[thor.Address, uint64]
	stashes *linkedlist.LinkedList
}

func New(sctx *solidity.Context) *Service {
	return &Service{
		bonded:  solidity.NewMapping[thor.Address, uint64](sctx, slotBonded),
		stashes: linkedlist.NewLinkedList(sctx, slotStashesHead, slotStashesTail, slotStashesCount),
	}
}

// Get returns the bonded amount of stash, ok is false if stash is not bonded.
func (s *Service) Get(stash thor.Address) (uint64, bool, error) {
	amount, ok, err := s.bonded.Lookup(stash)
	if err != nil {
		return 0, false, errors.Wrap(err, "failed to get stash")
	}
	return amount, ok, nil
}

// Add records a new stash. A zero amount is a valid record.
func (s *Service) Add(stash thor.Address, amount uint64) error {
	exists, err := s.bonded.Exists(stash)
	if err != nil {
		return errors.Wrap(err, "failed to get stash")
	}
	if exists {
		return reverts.ErrAlreadyBonded
	}
	if err := s.bonded.Set(stash, amount); err != nil {
		return errors.Wrap(err, "failed to set stash")
	}
	if err := s.stashes.Add(stash); err != nil {
		return errors.Wrap(err, "failed to list stash")
	}
	return nil
}

// Remove takes the stash record out, returning what was bonded.
func (s *Service) Remove(stash thor.Address) (uint64, error) {
	amount, ok, err := s.Get(stash)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, reverts.ErrNotStash
	}
	s.bonded.Delete(stash)
	if err := s.stashes.Remove(stash); err != nil {
		return 0, errors.Wrap(err, "failed to unlist stash")
	}
	return amount, nil
}

// Count returns the number of bonded stashes.
func (s *Service) Count() (uint64, error) {
	return s.stashes.Len()
}

// Iter calls fn for every stash in bonding order.
func (s *Service) Iter(fn func(stash thor.Address, amount uint64) error) error {
	return s.stashes.Iter(func(stash thor.Address) error {
		amount, err := s.bonded.Get(stash)
		if err != nil {
			return errors.Wrap(err, "failed to get stash")
		}
		return fn(stash, amount)
	})
}
