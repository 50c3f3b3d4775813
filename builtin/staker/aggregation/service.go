// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package aggregation

import (
	"math"

	"github.com/pkg/errors"

	"github.com/vechain/dpos/builtin/solidity"
	"github.com/vechain/dpos/thor"
)

var slotStaked = thor.BytesToBytes32([]byte("staked"))

// Service keeps the sum of live delegations for each target.
type Service struct {
	staked *solidity.Mapping[thor.Address, uint64]
}

func New(sctx *solidity.Context) *Service {
	return &Service{
		staked: solidity.NewMapping[thor.Address, uint64](sctx, slotStaked),
	}
}

// Get returns the aggregate stake of target, ok is false if target never received a delegation.
func (s *Service) Get(target thor.Address) (uint64, bool, error) {
	staked, ok, err := s.staked.Lookup(target)
	if err != nil {
		return 0, false, errors.Wrap(err, "failed to get aggregate stake")
	}
	return staked, ok, nil
}

// Add increases the aggregate of target, initializing it on the first delegation.
func (s *Service) Add(target thor.Address, amount uint64) error {
	staked, _, err := s.Get(target)
	if err != nil {
		return err
	}
	if staked > math.MaxUint64-amount {
		return errors.New("aggregate stake overflow")
	}
	return s.staked.Set(target, staked+amount)
}

// Sub decreases the aggregate of target. The record stays at zero when emptied.
func (s *Service) Sub(target thor.Address, amount uint64) error {
	staked, ok, err := s.Get(target)
	if err != nil {
		return err
	}
	if !ok || staked < amount {
		return errors.New("aggregate stake underflow")
	}
	return s.staked.Set(target, staked-amount)
}
