// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package subscriptions

import (
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/event"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"github.com/vechain/dpos/api/utils"
	"github.com/vechain/dpos/builtin/staker"
	"github.com/vechain/dpos/log"
	"github.com/vechain/dpos/thor"
)

var logger = log.WithContext("pkg", "subscriptions")

const (
	eventBufferSize = 64

	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 7) / 10
)

// EventSource feeds staker events.
type EventSource interface {
	SubscribeEvents(ch chan<- *staker.Event) event.Subscription
}

type Subscriptions struct {
	source   EventSource
	upgrader *websocket.Upgrader
	done     chan struct{}
	wg       sync.WaitGroup
	closeMu  sync.Mutex
	closed   bool
}

func New(source EventSource, allowedOrigins []string) *Subscriptions {
	return &Subscriptions{
		source: source,
		upgrader: &websocket.Upgrader{
			EnableCompression: true,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				return slices.Contains(allowedOrigins, "*") || slices.Contains(allowedOrigins, origin)
			},
		},
		done: make(chan struct{}),
	}
}

func parseFilter(req *http.Request) (*EventFilter, error) {
	var filter EventFilter
	query := req.URL.Query()
	if s := query.Get("kind"); s != "" {
		kind, err := parseKind(s)
		if err != nil {
			return nil, utils.BadRequest(errors.WithMessage(err, "kind"))
		}
		filter.Kind = kind
	}
	if s := query.Get("account"); s != "" {
		addr, err := thor.ParseAddress(s)
		if err != nil {
			return nil, utils.BadRequest(errors.WithMessage(err, "account"))
		}
		filter.Account = &addr
	}
	return &filter, nil
}

func (s *Subscriptions) handleSubscribeStaker(w http.ResponseWriter, req *http.Request) error {
	filter, err := parseFilter(req)
	if err != nil {
		return err
	}

	s.closeMu.Lock()
	if s.closed {
		s.closeMu.Unlock()
		return utils.HTTPError(errors.New("service closed"), http.StatusServiceUnavailable)
	}
	s.wg.Add(1)
	s.closeMu.Unlock()
	defer s.wg.Done()

	// subscribed before the upgrade, so nothing after the handshake is missed
	events := make(chan *staker.Event, eventBufferSize)
	sub := s.source.SubscribeEvents(events)
	defer sub.Unsubscribe()

	conn, err := s.upgrader.Upgrade(w, req, nil)
	// since the conn is hijacked here, no error should be returned in lines below
	if err != nil {
		logger.Debug("upgrade to websocket", "err", err)
		return nil
	}
	defer conn.Close()

	if err := s.pipe(conn, filter, events, sub); err != nil {
		logger.Debug("error in websocket", "err", err)
	}
	return nil
}

// pipe relays matched events to conn until the peer goes away, the subscriber
// falls behind or the service is closed. The feed is never blocked by conn.
func (s *Subscriptions) pipe(conn *websocket.Conn, filter *EventFilter, events <-chan *staker.Event, sub event.Subscription) error {
	out := make(chan *staker.Event, eventBufferSize)
	overflow := make(chan struct{})
	ended := make(chan struct{})
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		for {
			select {
			case ev := <-events:
				if !filter.Match(ev) {
					continue
				}
				select {
				case out <- ev:
				default:
					sub.Unsubscribe()
					close(overflow)
					return
				}
			case <-sub.Err():
				close(ended)
				return
			case <-stop:
				return
			}
		}
	}()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	pingTicker := time.NewTicker(pingPeriod)
	defer pingTicker.Stop()

	for {
		select {
		case ev := <-out:
			if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return err
			}
			if err := conn.WriteJSON(convertEvent(ev)); err != nil {
				return err
			}
		case <-pingTicker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return err
			}
		case <-overflow:
			msg := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "subscriber too slow")
			return conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
		case <-ended:
			msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "feed closed")
			return conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
		case <-s.done:
			msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "service closed")
			return conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
		case <-closed:
			return nil
		}
	}
}

// Close ends every open subscription and waits for them to return.
func (s *Subscriptions) Close() {
	s.closeMu.Lock()
	if s.closed {
		s.closeMu.Unlock()
		return
	}
	s.closed = true
	close(s.done)
	s.closeMu.Unlock()

	s.wg.Wait()
}

func (s *Subscriptions) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/staker").
		Methods(http.MethodGet).
		Name("WS /subscriptions/staker").
		HandlerFunc(utils.WrapHandlerFunc(s.handleSubscribeStaker))
}
