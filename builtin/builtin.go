// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package builtin

import (
	"github.com/vechain/dpos/builtin/collateral"
	"github.com/vechain/dpos/builtin/solidity"
	"github.com/vechain/dpos/builtin/staker"
	"github.com/vechain/dpos/state"
	"github.com/vechain/dpos/thor"
)

// Builtin contracts binding.
var (
	Collateral = &collateralContract{contract{thor.BytesToAddress([]byte("Collateral"))}}
	Staker     = &stakerContract{contract{thor.BytesToAddress([]byte("Staker"))}}
)

type contract struct {
	Address thor.Address
}

type (
	collateralContract struct{ contract }
	stakerContract     struct{ contract }
)

func (c *collateralContract) WithState(st *state.State, cfg collateral.Config) *collateral.Ledger {
	return collateral.New(solidity.NewContext(c.Address, st), cfg)
}

// WithState binds the staker to st, moving funds through ledger.
func (s *stakerContract) WithState(st *state.State, ledger *collateral.Ledger, cfg staker.Config) (*staker.Staker, error) {
	return staker.New(s.Address, st, ledger, ledger, cfg)
}
