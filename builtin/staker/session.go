// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"time"

	"github.com/vechain/dpos/builtin/staker/election"
	"github.com/vechain/dpos/thor"
)

// candidates snapshots every stash with its aggregate stake, in bonding order.
func (s *Staker) candidates() ([]election.Candidate, uint32, uint32, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var candidates []election.Candidate
	if err := s.bondService.Iter(func(stash thor.Address, bonded uint64) error {
		delegated, _, err := s.aggregationService.Get(stash)
		if err != nil {
			return err
		}
		candidates = append(candidates, election.Candidate{Address: stash, Bonded: bonded, Delegated: delegated})
		return nil
	}); err != nil {
		return nil, 0, 0, err
	}

	minimum, err := s.boundsService.Minimum()
	if err != nil {
		return nil, 0, 0, err
	}
	maximum, err := s.boundsService.Maximum()
	if err != nil {
		return nil, 0, 0, err
	}
	return candidates, minimum, maximum, nil
}

// NewSession plans the validator set of session index.
// It returns false when there are fewer stashes than the minimum validator count,
// meaning the current set stays. It never changes state.
func (s *Staker) NewSession(index uint32) ([]thor.Address, bool, error) {
	logger.Debug("planning new session", "index", index)
	start := time.Now()

	candidates, minimum, maximum, err := s.candidates()
	if err != nil {
		logger.Warn("failed to collect candidates", "index", index, "error", err)
		metricSessions().AddWithLabel(1, map[string]string{"decision": "error"})
		return nil, false, err
	}

	elected, ok := election.Elect(candidates, minimum, maximum)
	if !ok {
		logger.Warn("not enough candidates, keeping current validators",
			"index", index, "candidates", len(candidates), "minimum", minimum)
		metricSessions().AddWithLabel(1, map[string]string{"decision": "kept"})
		return nil, false, nil
	}

	metricSessions().AddWithLabel(1, map[string]string{"decision": "elected"})
	metricElected().Set(int64(len(elected)))
	metricElectionDuration().Observe(time.Since(start).Milliseconds())
	logger.Debug("elected validators", "index", index, "count", len(elected), "candidates", len(candidates))
	return elected, true, nil
}

// StartSession is called when session index begins.
func (s *Staker) StartSession(index uint32) {
	logger.Debug("starting session", "index", index)
}

// EndSession is called when session index ends.
func (s *Staker) EndSession(index uint32) {
	logger.Debug("ending session", "index", index)
}
