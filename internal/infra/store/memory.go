// Package store holds the in-process session and application stores.
// Sessions are bounded: a capacity cap evicts least-recently-active
// sessions and a background sweeper drops idle ones. Applications are
// kept for the process lifetime.
package store

import (
	"container/list"
	"sync"
	"time"

	"github.com/loanease/loanease-go/internal/domain"
)

// SessionStoreConfig bounds the session store.
type SessionStoreConfig struct {
	// MaxSessions caps live sessions; 0 means unbounded.
	MaxSessions int
	// MaxIdle is how long a session may sit untouched before the sweeper
	// drops it; 0 disables idle eviction.
	MaxIdle time.Duration
	// SweepInterval is how often the sweeper runs.
	SweepInterval time.Duration
	// OnEvict is called once per evicted session. May be nil.
	OnEvict func()
}

// SessionStore is a bounded LRU map of conversation sessions with
// per-session turn locks.
type SessionStore struct {
	mu       sync.Mutex
	cfg      SessionStoreConfig
	sessions map[string]*list.Element
	order    *list.List // front = most recently active
	locks    map[string]*sync.Mutex
	done     chan struct{}
	stopOnce sync.Once
}

// NewSessionStore builds the store and starts the idle sweeper when
// configured. Call Stop to end the sweeper.
func NewSessionStore(cfg SessionStoreConfig) *SessionStore {
	s := &SessionStore{
		cfg:      cfg,
		sessions: make(map[string]*list.Element),
		order:    list.New(),
		locks:    make(map[string]*sync.Mutex),
		done:     make(chan struct{}),
	}
	if cfg.MaxIdle > 0 && cfg.SweepInterval > 0 {
		go s.sweepLoop()
	}
	return s
}

// Get returns the session if present. Recency is only refreshed by Put,
// so a read-only peek does not keep a session alive.
func (s *SessionStore) Get(id string) (*domain.ConversationSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	el, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	return el.Value.(*domain.ConversationSession), true
}

// Put upserts the session, marks it most recently active, and evicts the
// least-recently-active session while over capacity.
func (s *SessionStore) Put(session *domain.ConversationSession) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if el, ok := s.sessions[session.ID]; ok {
		el.Value = session
		s.order.MoveToFront(el)
	} else {
		s.sessions[session.ID] = s.order.PushFront(session)
	}

	if s.cfg.MaxSessions <= 0 {
		return
	}
	for s.order.Len() > s.cfg.MaxSessions {
		oldest := s.order.Back()
		if oldest == nil {
			break
		}
		s.evictLocked(oldest)
	}
}

// Lock serializes processing on one session; the returned func unlocks it.
// A lock held during eviction outlives it: the in-flight turn finishes
// cleanly and requests arriving for the evicted id queue behind it.
func (s *SessionStore) Lock(id string) func() {
	s.mu.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	s.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// Len returns the number of live sessions.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.order.Len()
}

// Stop ends the idle sweeper. Idempotent.
func (s *SessionStore) Stop() {
	s.stopOnce.Do(func() { close(s.done) })
}

func (s *SessionStore) sweepLoop() {
	ticker := time.NewTicker(s.cfg.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.sweep(time.Now())
		}
	}
}

// sweep drops sessions idle past MaxIdle. Walks from the back since the
// list is recency-ordered.
func (s *SessionStore) sweep(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for {
		oldest := s.order.Back()
		if oldest == nil {
			break
		}
		sess := oldest.Value.(*domain.ConversationSession)
		if now.Sub(sess.LastActivityAt) < s.cfg.MaxIdle {
			break
		}
		s.evictLocked(oldest)
	}
}

func (s *SessionStore) evictLocked(el *list.Element) {
	sess := s.order.Remove(el).(*domain.ConversationSession)
	delete(s.sessions, sess.ID)
	// Drop the lock entry only when no turn holds it. A held lock stays
	// registered so a later request for the same id serializes behind the
	// in-flight turn instead of minting a fresh mutex.
	if l, ok := s.locks[sess.ID]; ok && l.TryLock() {
		l.Unlock()
		delete(s.locks, sess.ID)
	}
	if s.cfg.OnEvict != nil {
		s.cfg.OnEvict()
	}
}

// ApplicationStore keeps loan applications for the process lifetime,
// indexed by ID and by customer.
type ApplicationStore struct {
	mu         sync.RWMutex
	apps       map[string]*domain.LoanApplication
	byCustomer map[string][]string // customerID -> app IDs in insertion order
}

// NewApplicationStore builds an empty application store.
func NewApplicationStore() *ApplicationStore {
	return &ApplicationStore{
		apps:       make(map[string]*domain.LoanApplication),
		byCustomer: make(map[string][]string),
	}
}

// Get returns the application if present.
func (s *ApplicationStore) Get(id string) (*domain.LoanApplication, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	app, ok := s.apps[id]
	return app, ok
}

// Put upserts the application.
func (s *ApplicationStore) Put(app *domain.LoanApplication) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.apps[app.ID]; !exists {
		s.byCustomer[app.CustomerID] = append(s.byCustomer[app.CustomerID], app.ID)
	}
	s.apps[app.ID] = app
}

// ListByCustomer returns a customer's applications in insertion order.
func (s *ApplicationStore) ListByCustomer(customerID string) []*domain.LoanApplication {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.byCustomer[customerID]
	out := make([]*domain.LoanApplication, 0, len(ids))
	for _, id := range ids {
		if app, ok := s.apps[id]; ok {
			out = append(out, app)
		}
	}
	return out
}
