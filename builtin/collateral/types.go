// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package collateral

import (
	"strings"
)

// LockID names a lock, so that the same owner can hold one lock per id.
type LockID [8]byte

// NewLockID makes a lock id from name, truncated or zero padded to 8 bytes.
func NewLockID(name string) (id LockID) {
	copy(id[:], name)
	return
}

func (id LockID) String() string {
	return strings.TrimRight(string(id[:]), "\x00")
}

// WithdrawReasons is a bitmask of the operations a lock restricts.
type WithdrawReasons uint8

const (
	ReasonTransfer WithdrawReasons = 1 << iota
	ReasonReserve
	ReasonFee
	ReasonTip

	AllReasons = ReasonTransfer | ReasonReserve | ReasonFee | ReasonTip
)

func (r WithdrawReasons) Intersects(other WithdrawReasons) bool {
	return r&other != 0
}

type lock struct {
	ID      LockID
	Amount  uint64
	Reasons WithdrawReasons
}

type account struct {
	Free      uint64
	Reserved  uint64
	Consumers uint32
	Locks     []lock
}

func (a *account) isEmpty() bool {
	return a.Free == 0 && a.Reserved == 0 && a.Consumers == 0 && len(a.Locks) == 0
}

// locked returns the largest lock amount among locks restricting any of reasons.
func (a *account) locked(reasons WithdrawReasons) uint64 {
	var largest uint64
	for _, l := range a.Locks {
		if l.Reasons.Intersects(reasons) && l.Amount > largest {
			largest = l.Amount
		}
	}
	return largest
}

// Balance is the read-only view of an account.
type Balance struct {
	Free      uint64 `json:"free"`
	Reserved  uint64 `json:"reserved"`
	Locked    uint64 `json:"locked"`
	Consumers uint32 `json:"consumers"`
}
