// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package subscriptions

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/vechain/dpos/builtin/staker"
	"github.com/vechain/dpos/thor"
)

// StakerEvent is the message pushed for every staker event.
type StakerEvent struct {
	Kind    string        `json:"kind"`
	Account thor.Address  `json:"account"`
	Target  *thor.Address `json:"target,omitempty"`
	Amount  uint64        `json:"amount"`
}

func convertEvent(ev *staker.Event) *StakerEvent {
	msg := &StakerEvent{
		Kind:    strings.ToLower(ev.Kind.String()),
		Account: ev.Account,
		Amount:  ev.Amount,
	}
	if !ev.Target.IsZero() {
		target := ev.Target
		msg.Target = &target
	}
	return msg
}

// EventFilter matches events by kind and by the account involved.
// Zero fields match everything.
type EventFilter struct {
	Kind    staker.EventKind
	Account *thor.Address
}

func parseKind(s string) (staker.EventKind, error) {
	for _, k := range []staker.EventKind{staker.EventBonded, staker.EventUnbonded, staker.EventVoted, staker.EventUnvoted} {
		if strings.EqualFold(k.String(), s) {
			return k, nil
		}
	}
	return 0, errors.Errorf("unknown event kind %q", s)
}

func (f *EventFilter) Match(ev *staker.Event) bool {
	if f.Kind != 0 && f.Kind != ev.Kind {
		return false
	}
	if f.Account != nil && *f.Account != ev.Account && *f.Account != ev.Target {
		return false
	}
	return true
}
