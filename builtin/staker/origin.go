// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staker

import (
	"github.com/vechain/dpos/builtin/staker/reverts"
	"github.com/vechain/dpos/thor"
)

// Origin is the authority a call is made with.
// The zero Origin is neither signed nor root, and every call fails with it.
type Origin struct {
	signer thor.Address
	root   bool
}

// Signed returns the origin of a call signed by account.
func Signed(account thor.Address) Origin {
	return Origin{signer: account}
}

// Root returns the governance origin.
func Root() Origin {
	return Origin{root: true}
}

func (o Origin) String() string {
	if o.root {
		return "root"
	}
	if o.signer.IsZero() {
		return "none"
	}
	return o.signer.String()
}

func (o Origin) ensureSigned() (thor.Address, error) {
	if o.root || o.signer.IsZero() {
		return thor.Address{}, reverts.ErrBadOrigin
	}
	return o.signer, nil
}

func (o Origin) ensureRoot() error {
	if !o.root {
		return reverts.ErrBadOrigin
	}
	return nil
}
