// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package sessions

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/vechain/dpos/api/utils"
	"github.com/vechain/dpos/thor"
)

// Tracker reports the current session index and its validator set.
type Tracker interface {
	Current() (uint32, []thor.Address)
}

// Session is the current session and its active validator set.
type Session struct {
	Index      uint32         `json:"index"`
	Validators []thor.Address `json:"validators"`
}

type Sessions struct {
	tracker Tracker
}

func New(tracker Tracker) *Sessions {
	return &Sessions{tracker}
}

func (s *Sessions) handleGetSession(w http.ResponseWriter, _ *http.Request) error {
	index, validators := s.tracker.Current()
	if validators == nil {
		validators = []thor.Address{}
	}
	return utils.WriteJSON(w, &Session{
		Index:      index,
		Validators: validators,
	})
}

func (s *Sessions) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("").
		Methods(http.MethodGet).
		Name("GET /session").
		HandlerFunc(utils.WrapHandlerFunc(s.handleGetSession))
}
