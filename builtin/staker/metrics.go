// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"github.com/vechain/dpos/metrics"
)

var (
	metricCalls            = metrics.LazyLoadCounterVec("staker_calls_count", []string{"method", "status"})
	metricStashes          = metrics.LazyLoadGauge("staker_stashes")
	metricElected          = metrics.LazyLoadGauge("staker_elected_validators")
	metricSessions         = metrics.LazyLoadCounterVec("staker_sessions_count", []string{"decision"})
	metricElectionDuration = metrics.LazyLoadHistogram("staker_election_duration_ms", metrics.Bucket10s)
)

func countCall(method string, err error) {
	status := "success"
	if err != nil {
		status = "failed"
	}
	metricCalls().AddWithLabel(1, map[string]string{"method": method, "status": status})
}
