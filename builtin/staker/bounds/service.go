// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package bounds

import (
	"github.com/pkg/errors"

	"github.com/vechain/dpos/builtin/solidity"
	"github.com/vechain/dpos/builtin/staker/reverts"
	"github.com/vechain/dpos/thor"
)

var (
	slotMinimum = thor.BytesToBytes32([]byte("minimum-validator-count"))
	slotMaximum = thor.BytesToBytes32([]byte("maximum-validator-count"))
)

// Service stores the validator count bounds.
// Until a bound is written the configured default applies.
type Service struct {
	minimum    *solidity.Raw[uint32]
	maximum    *solidity.Raw[uint32]
	defaultMin uint32
	defaultMax uint32
}

func New(sctx *solidity.Context, defaultMin, defaultMax uint32) *Service {
	return &Service{
		minimum:    solidity.NewRaw[uint32](sctx, slotMinimum),
		maximum:    solidity.NewRaw[uint32](sctx, slotMaximum),
		defaultMin: defaultMin,
		defaultMax: defaultMax,
	}
}

func (s *Service) Minimum() (uint32, error) {
	v, ok, err := s.minimum.Get()
	if err != nil {
		return 0, errors.Wrap(err, "failed to get minimum validator count")
	}
	if !ok {
		return s.defaultMin, nil
	}
	return v, nil
}

func (s *Service) Maximum() (uint32, error) {
	v, ok, err := s.maximum.Get()
	if err != nil {
		return 0, errors.Wrap(err, "failed to get maximum validator count")
	}
	if !ok {
		return s.defaultMax, nil
	}
	return v, nil
}

// SetMinimum requires 0 < value <= maximum.
func (s *Service) SetMinimum(value uint32) error {
	maximum, err := s.Maximum()
	if err != nil {
		return err
	}
	if value == 0 || value > maximum {
		return reverts.ErrInvalidNumberOfValidators
	}
	return s.minimum.Set(value)
}

// SetMaximum requires value >= minimum.
func (s *Service) SetMaximum(value uint32) error {
	minimum, err := s.Minimum()
	if err != nil {
		return err
	}
	if value < minimum {
		return reverts.ErrInvalidNumberOfValidators
	}
	return s.maximum.Set(value)
}
