// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/vechain/dpos/builtin"
	"github.com/vechain/dpos/builtin/collateral"
	"github.com/vechain/dpos/builtin/solidity"
	"github.com/vechain/dpos/builtin/staker"
	"github.com/vechain/dpos/state"
	"github.com/vechain/dpos/thor"
)

var (
	// Address holds the genesis marker.
	Address = thor.BytesToAddress([]byte("Genesis"))

	slotGenesisID = thor.BytesToBytes32([]byte("genesis-id"))
)

// Genesis describes the initial ledgers.
type Genesis struct {
	Collateral collateral.Config `yaml:"collateral"`
	Staker     staker.Config     `yaml:"staker"`
	Accounts   []Account         `yaml:"accounts"`
	Bonds      []Bond            `yaml:"bonds"`
	Votes      []Vote            `yaml:"votes"`
}

// Account is endowed with Balance of free funds.
type Account struct {
	Address thor.Address `yaml:"address"`
	Balance uint64       `yaml:"balance"`
}

type Bond struct {
	Stash  thor.Address `yaml:"stash"`
	Amount uint64       `yaml:"amount"`
}

type Vote struct {
	Voter  thor.Address `yaml:"voter"`
	Target thor.Address `yaml:"target"`
	Amount uint64       `yaml:"amount"`
}

// Load reads and validates the genesis file at path.
func Load(path string) (*Genesis, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read genesis file")
	}
	return Parse(data)
}

// Parse decodes and validates a YAML genesis.
func Parse(data []byte) (*Genesis, error) {
	var gen Genesis
	if err := yaml.Unmarshal(data, &gen); err != nil {
		return nil, errors.Wrap(err, "decode genesis")
	}
	if err := gen.Validate(); err != nil {
		return nil, err
	}
	return &gen, nil
}

func (g *Genesis) Validate() error {
	if err := g.Staker.Validate(); err != nil {
		return errors.Wrap(err, "staker")
	}
	seen := make(map[thor.Address]bool, len(g.Accounts))
	for _, acc := range g.Accounts {
		if acc.Address.IsZero() {
			return errors.New("accounts: zero address")
		}
		if seen[acc.Address] {
			return errors.Errorf("accounts: duplicated %v", acc.Address)
		}
		seen[acc.Address] = true
	}
	for _, b := range g.Bonds {
		if b.Stash.IsZero() {
			return errors.New("bonds: zero stash")
		}
	}
	for _, v := range g.Votes {
		if v.Voter.IsZero() {
			return errors.New("votes: zero voter")
		}
	}
	return nil
}

// ID identifies the genesis by its canonical encoding.
func (g *Genesis) ID() (thor.Bytes32, error) {
	data, err := yaml.Marshal(g)
	if err != nil {
		return thor.Bytes32{}, errors.Wrap(err, "encode genesis")
	}
	return thor.Blake2b(data), nil
}

// Build binds the ledgers to st. On an empty state the genesis is applied and
// committed. A state built from another genesis is rejected.
func (g *Genesis) Build(st *state.State) (*staker.Staker, *collateral.Ledger, error) {
	id, err := g.ID()
	if err != nil {
		return nil, nil, err
	}

	ledger := builtin.Collateral.WithState(st, g.Collateral)
	stk, err := builtin.Staker.WithState(st, ledger, g.Staker)
	if err != nil {
		return nil, nil, err
	}

	marker := solidity.NewRaw[thor.Bytes32](solidity.NewContext(Address, st), slotGenesisID)
	existing, ok, err := marker.Get()
	if err != nil {
		return nil, nil, err
	}
	if ok {
		if existing != id {
			return nil, nil, errors.Errorf("genesis mismatch: state built from %v, want %v", existing.AbbrevString(), id.AbbrevString())
		}
		return stk, ledger, nil
	}

	if err := g.apply(stk, ledger); err != nil {
		return nil, nil, err
	}
	if err := marker.Set(id); err != nil {
		return nil, nil, err
	}
	if err := stk.Commit(); err != nil {
		return nil, nil, errors.Wrap(err, "commit genesis")
	}
	logger.Info("genesis applied", "id", id.AbbrevString(), "accounts", len(g.Accounts), "bonds", len(g.Bonds), "votes", len(g.Votes))
	return stk, ledger, nil
}

func (g *Genesis) apply(stk *staker.Staker, ledger *collateral.Ledger) error {
	for _, acc := range g.Accounts {
		if err := ledger.Mint(acc.Address, acc.Balance); err != nil {
			return errors.Wrapf(err, "endow %v", acc.Address)
		}
	}
	for _, b := range g.Bonds {
		if err := stk.Bond(staker.Signed(b.Stash), b.Amount); err != nil {
			return errors.Wrapf(err, "bond %v", b.Stash)
		}
	}
	for _, v := range g.Votes {
		if err := stk.Vote(staker.Signed(v.Voter), v.Target, v.Amount); err != nil {
			return errors.Wrapf(err, "vote %v -> %v", v.Voter, v.Target)
		}
	}
	return nil
}
