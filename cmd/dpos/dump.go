// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"os"

	"github.com/davecgh/go-spew/spew"
	"github.com/pkg/errors"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/vechain/dpos/builtin/collateral"
	"github.com/vechain/dpos/builtin/staker"
	"github.com/vechain/dpos/genesis"
	"github.com/vechain/dpos/thor"
)

// Dump is a snapshot of the ledgers.
type Dump struct {
	Bounds   [2]uint32
	Stashes  []staker.Stash
	Targets  map[thor.Address]TargetDump
	Balances map[thor.Address]*collateral.Balance
	Elected  []thor.Address
}

type TargetDump struct {
	Staked uint64
	Voters []staker.Vote
}

func dumpAction(ctx *cli.Context) error {
	initLogger(ctx)

	gene, err := selectGenesis(ctx)
	if err != nil {
		return err
	}
	db, _, err := openDB(ctx, gene)
	if err != nil {
		return err
	}
	defer db.Close()

	stk, ledger, err := buildLedgers(ctx, gene, db)
	if err != nil {
		return err
	}
	defer stk.Close()

	dump, err := takeDump(stk, ledger, gene)
	if err != nil {
		return err
	}
	cfg := spew.ConfigState{Indent: "    ", SortKeys: true}
	cfg.Fdump(os.Stdout, dump)
	return nil
}

// takeDump reads the stashes, the stake voted to them and the balances of the
// genesis accounts. Elected previews the set an election would pick now.
func takeDump(stk *staker.Staker, ledger *collateral.Ledger, gene *genesis.Genesis) (*Dump, error) {
	minimum, err := stk.MinimumValidatorCount()
	if err != nil {
		return nil, err
	}
	maximum, err := stk.MaximumValidatorCount()
	if err != nil {
		return nil, err
	}
	stashes, err := stk.Stashes()
	if err != nil {
		return nil, err
	}

	dump := &Dump{
		Bounds:   [2]uint32{minimum, maximum},
		Stashes:  stashes,
		Targets:  make(map[thor.Address]TargetDump),
		Balances: make(map[thor.Address]*collateral.Balance),
	}
	for _, s := range stashes {
		staked, ok, voters, err := stk.Target(s.Address)
		if err != nil {
			return nil, errors.WithMessagef(err, "target %v", s.Address)
		}
		if !ok {
			continue
		}
		dump.Targets[s.Address] = TargetDump{Staked: staked, Voters: voters}
	}
	for _, acc := range gene.Accounts {
		bal, err := ledger.Balance(acc.Address)
		if err != nil {
			return nil, errors.WithMessagef(err, "balance %v", acc.Address)
		}
		dump.Balances[acc.Address] = bal
	}
	elected, ok, err := stk.NewSession(0)
	if err != nil {
		return nil, err
	}
	if ok {
		dump.Elected = elected
	}
	return dump, nil
}
