// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"fmt"

	"github.com/ethereum/go-ethereum/event"

	"github.com/vechain/dpos/thor"
)

type EventKind uint8

const (
	EventBonded EventKind = iota + 1
	EventUnbonded
	EventVoted
	EventUnvoted
)

func (k EventKind) String() string {
	switch k {
	case EventBonded:
		return "Bonded"
	case EventUnbonded:
		return "Unbonded"
	case EventVoted:
		return "Voted"
	case EventUnvoted:
		return "Unvoted"
	}
	return fmt.Sprintf("EventKind(%d)", uint8(k))
}

// Event is emitted once for every successful bond, unbond, vote and unvote.
// Account is the stash or the voter. Target is zero for bond events, and
// Amount is zero for unbond and unvote.
type Event struct {
	Kind    EventKind
	Account thor.Address
	Target  thor.Address
	Amount  uint64
}

func (e *Event) String() string {
	switch e.Kind {
	case EventBonded:
		return fmt.Sprintf("Bonded(%v, %d)", e.Account, e.Amount)
	case EventUnbonded:
		return fmt.Sprintf("Unbonded(%v)", e.Account)
	case EventVoted:
		return fmt.Sprintf("Voted(%v, %v, %d)", e.Account, e.Target, e.Amount)
	case EventUnvoted:
		return fmt.Sprintf("Unvoted(%v, %v)", e.Account, e.Target)
	}
	return e.Kind.String()
}

// SubscribeEvents registers ch to receive events of successful calls.
// Events are delivered in call order once the call's change is applied in
// memory, so queries already reflect it. The change becomes durable only at
// the next Commit; changes lost before that keep their delivered events.
// Receivers must keep draining ch, otherwise mutating calls block.
func (s *Staker) SubscribeEvents(ch chan<- *Event) event.Subscription {
	return s.scope.Track(s.feed.Subscribe(ch))
}
