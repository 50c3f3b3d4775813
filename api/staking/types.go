// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"github.com/vechain/dpos/builtin/staker"
	"github.com/vechain/dpos/thor"
)

type Stash struct {
	Address thor.Address `json:"address"`
	Bonded  uint64       `json:"bonded"`
}

type Stashes struct {
	Count   uint64  `json:"count"`
	Stashes []Stash `json:"stashes"`
}

type Vote struct {
	Voter  thor.Address `json:"voter"`
	Amount uint64       `json:"amount"`
}

// Target is the aggregate stake voted to a target and its voters.
type Target struct {
	Target thor.Address `json:"target"`
	Staked uint64       `json:"staked"`
	Voters []Vote       `json:"voters"`
}

type Delegation struct {
	Voter  thor.Address `json:"voter"`
	Target thor.Address `json:"target"`
	Amount uint64       `json:"amount"`
}

type Bounds struct {
	Minimum uint32 `json:"minimum"`
	Maximum uint32 `json:"maximum"`
}

func convertStashes(stashes []staker.Stash) []Stash {
	out := make([]Stash, 0, len(stashes))
	for _, s := range stashes {
		out = append(out, Stash{Address: s.Address, Bonded: s.Bonded})
	}
	return out
}

func convertVotes(votes []staker.Vote) []Vote {
	out := make([]Vote, 0, len(votes))
	for _, v := range votes {
		out = append(out, Vote{Voter: v.Voter, Amount: v.Amount})
	}
	return out
}
