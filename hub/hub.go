// Package hub fans events out to live sessions. Sessions are registered
// under their owning account identity, giving two publish paths: a global
// broadcast for market data and a targeted push for one account's portfolio
// and trade events.
package hub

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/rustyeddy/paperdesk/metrics"
)

type Hub struct {
	mu        sync.RWMutex
	sessions  map[*Session]struct{}
	byAccount map[string]map[*Session]struct{}
}

func New() *Hub {
	return &Hub{
		sessions:  make(map[*Session]struct{}),
		byAccount: make(map[string]map[*Session]struct{}),
	}
}

// Register adds a session to the fan-out set. Catch-up pushes for a freshly
// connected session are the trade processor's job (it owns the state to
// snapshot); see desk.Attach.
func (h *Hub) Register(s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.sessions[s] = struct{}{}
	acct := h.byAccount[s.Account]
	if acct == nil {
		acct = make(map[*Session]struct{})
		h.byAccount[s.Account] = acct
	}
	acct[s] = struct{}{}
	metrics.SessionOpened()
}

// Unregister removes a session and marks it dead. It has no effect on ledger
// or market state.
func (h *Hub) Unregister(s *Session) {
	h.mu.Lock()
	if _, live := h.sessions[s]; !live {
		h.mu.Unlock()
		return
	}
	delete(h.sessions, s)
	if acct := h.byAccount[s.Account]; acct != nil {
		delete(acct, s)
		if len(acct) == 0 {
			delete(h.byAccount, s.Account)
		}
	}
	h.mu.Unlock()

	s.Close()
	metrics.SessionClosed()
}

// Sessions reports the number of live sessions.
func (h *Hub) Sessions() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// PublishGlobal sends event to every live session.
func (h *Hub) PublishGlobal(event any) {
	msg, err := json.Marshal(event)
	if err != nil {
		log.Printf("hub: marshal broadcast: %v", err)
		return
	}

	h.mu.RLock()
	stale := h.offerAll(h.sessions, msg)
	h.mu.RUnlock()

	metrics.Broadcast("global")
	h.drop(stale)
}

// PublishToAccount sends event only to the sessions owned by account.
func (h *Hub) PublishToAccount(account string, event any) {
	msg, err := json.Marshal(event)
	if err != nil {
		log.Printf("hub: marshal push for %s: %v", account, err)
		return
	}

	h.mu.RLock()
	stale := h.offerAll(h.byAccount[account], msg)
	h.mu.RUnlock()

	metrics.Broadcast("account")
	h.drop(stale)
}

// Push sends event to a single session, used for catch-up on connect.
func (h *Hub) Push(s *Session, event any) {
	msg, err := json.Marshal(event)
	if err != nil {
		log.Printf("hub: marshal push: %v", err)
		return
	}
	if !s.enqueue(msg) {
		h.drop([]*Session{s})
	}
}

// offerAll enqueues msg on every session in set and returns the ones that
// could not take it. Called with at least the read lock held.
func (h *Hub) offerAll(set map[*Session]struct{}, msg []byte) []*Session {
	var stale []*Session
	for s := range set {
		if !s.enqueue(msg) {
			stale = append(stale, s)
		}
	}
	return stale
}

// drop unregisters sessions that fell too far behind. A slow consumer loses
// its connection rather than receiving a reordered or gappy stream.
func (h *Hub) drop(stale []*Session) {
	for _, s := range stale {
		log.Printf("hub: dropping slow session %s (account %s)", s.ID, s.Account)
		h.Unregister(s)
	}
}
