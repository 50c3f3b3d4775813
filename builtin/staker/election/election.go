// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package election

import (
	"math"
	"slices"

	"github.com/vechain/dpos/thor"
)

// Candidate is a bonded stash with the stake delegated to it.
type Candidate struct {
	Address   thor.Address
	Bonded    uint64
	Delegated uint64
}

// Weight is the bonded plus delegated stake, saturating at the max uint64.
func (c Candidate) Weight() uint64 {
	if c.Bonded > math.MaxUint64-c.Delegated {
		return math.MaxUint64
	}
	return c.Bonded + c.Delegated
}

// Elect ranks candidates by weight and keeps at most maxCount of them.
// It returns false when fewer than minCount candidates are given, in which case the
// current set must be kept. Equal weights keep the given order.
func Elect(candidates []Candidate, minCount, maxCount uint32) ([]thor.Address, bool) {
	if uint64(len(candidates)) < uint64(minCount) {
		return nil, false
	}

	ranked := slices.Clone(candidates)
	slices.SortStableFunc(ranked, func(a, b Candidate) int {
		wa, wb := a.Weight(), b.Weight()
		switch {
		case wa > wb:
			return -1
		case wa < wb:
			return 1
		}
		return 0
	})

	if uint64(len(ranked)) > uint64(maxCount) {
		ranked = ranked[:maxCount]
	}
	elected := make([]thor.Address, 0, len(ranked))
	for _, c := range ranked {
		elected = append(elected, c.Address)
	}
	return elected, true
}
