// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package solidity

import (
	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/vechain/dpos/thor"
)

var (
	ErrOverflow  = errors.New("uint256: overflow")
	ErrUnderflow = errors.New("uint256: underflow")
)

// Uint256 is a wrapper for storage and retrieval of an uint256. Similar to storing an uint256 in a smart contract.
// Zero is stored as an empty slot.
type Uint256 struct {
	context *Context
	pos     thor.Bytes32
}

func NewUint256(context *Context, pos thor.Bytes32) *Uint256 {
	return &Uint256{context: context, pos: pos}
}

func (u *Uint256) Get() (*uint256.Int, error) {
	raw, err := u.context.state.GetRawStorage(u.context.address, u.pos)
	if err != nil {
		return nil, err
	}
	return new(uint256.Int).SetBytes(raw), nil
}

func (u *Uint256) Set(value *uint256.Int) {
	var raw []byte
	if value != nil && !value.IsZero() {
		raw = value.Bytes()
	}
	u.context.state.SetRawStorage(u.context.address, u.pos, raw)
}

func (u *Uint256) Add(value *uint256.Int) error {
	v, err := u.Get()
	if err != nil {
		return err
	}
	if _, overflow := v.AddOverflow(v, value); overflow {
		return ErrOverflow
	}
	u.Set(v)
	return nil
}

func (u *Uint256) Sub(value *uint256.Int) error {
	v, err := u.Get()
	if err != nil {
		return err
	}
	if _, underflow := v.SubOverflow(v, value); underflow {
		return ErrUnderflow
	}
	u.Set(v)
	return nil
}
