package store_test

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/loanease/loanease-go/internal/domain"
	"github.com/loanease/loanease-go/internal/infra/store"
)

func newSession(id string) *domain.ConversationSession {
	now := time.Now()
	return &domain.ConversationSession{
		ID:             id,
		CurrentStep:    domain.StepGreeting,
		StartedAt:      now,
		LastActivityAt: now,
	}
}

func TestSessionStore_PutGet(t *testing.T) {
	s := store.NewSessionStore(store.SessionStoreConfig{})
	defer s.Stop()

	s.Put(newSession("s1"))

	got, ok := s.Get("s1")
	if !ok || got.ID != "s1" {
		t.Fatalf("expected s1, got %v ok=%v", got, ok)
	}
	if _, ok := s.Get("missing"); ok {
		t.Error("expected miss for unknown session")
	}
	if s.Len() != 1 {
		t.Errorf("expected Len 1, got %d", s.Len())
	}
}

func TestSessionStore_CapacityEvictsOldest(t *testing.T) {
	var evicted int64
	s := store.NewSessionStore(store.SessionStoreConfig{
		MaxSessions: 3,
		OnEvict:     func() { atomic.AddInt64(&evicted, 1) },
	})
	defer s.Stop()

	for i := 1; i <= 3; i++ {
		s.Put(newSession(fmt.Sprintf("s%d", i)))
	}
	// Touch s1 so s2 becomes the eviction candidate.
	if sess, ok := s.Get("s1"); ok {
		s.Put(sess)
	}

	s.Put(newSession("s4"))

	if _, ok := s.Get("s2"); ok {
		t.Error("expected s2 evicted as least recently active")
	}
	for _, id := range []string{"s1", "s3", "s4"} {
		if _, ok := s.Get(id); !ok {
			t.Errorf("expected %s to survive", id)
		}
	}
	if got := atomic.LoadInt64(&evicted); got != 1 {
		t.Errorf("expected 1 eviction callback, got %d", got)
	}
	if s.Len() != 3 {
		t.Errorf("expected Len 3, got %d", s.Len())
	}
}

func TestSessionStore_IdleSweep(t *testing.T) {
	var evicted int64
	s := store.NewSessionStore(store.SessionStoreConfig{
		MaxIdle:       30 * time.Millisecond,
		SweepInterval: 10 * time.Millisecond,
		OnEvict:       func() { atomic.AddInt64(&evicted, 1) },
	})
	defer s.Stop()

	stale := newSession("stale")
	stale.LastActivityAt = time.Now().Add(-time.Minute)
	s.Put(stale)

	deadline := time.After(500 * time.Millisecond)
	for {
		if _, ok := s.Get("stale"); !ok {
			break
		}
		select {
		case <-deadline:
			t.Fatal("idle session was never swept")
		case <-time.After(10 * time.Millisecond):
		}
	}
	if atomic.LoadInt64(&evicted) == 0 {
		t.Error("expected eviction callback from sweep")
	}
}

func TestSessionStore_LockSerializesTurns(t *testing.T) {
	s := store.NewSessionStore(store.SessionStoreConfig{})
	defer s.Stop()

	unlock := s.Lock("s1")

	acquired := make(chan struct{})
	go func() {
		u := s.Lock("s1")
		close(acquired)
		u()
	}()

	select {
	case <-acquired:
		t.Fatal("second Lock acquired while first still held")
	case <-time.After(50 * time.Millisecond):
	}

	unlock()

	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("second Lock never acquired after release")
	}
}

func TestSessionStore_HeldLockSurvivesEviction(t *testing.T) {
	s := store.NewSessionStore(store.SessionStoreConfig{MaxSessions: 1})
	defer s.Stop()

	s.Put(newSession("s1"))
	unlock := s.Lock("s1")

	// Force s1 out mid-turn.
	s.Put(newSession("s2"))
	if _, ok := s.Get("s1"); ok {
		t.Fatal("expected s1 evicted")
	}

	// A request for the evicted id must queue behind the in-flight turn,
	// not mint a fresh lock and interleave with it.
	acquired := make(chan struct{})
	go func() {
		u := s.Lock("s1")
		close(acquired)
		u()
	}()

	select {
	case <-acquired:
		t.Fatal("Lock on evicted id acquired while the first turn was in flight")
	case <-time.After(50 * time.Millisecond):
	}

	unlock()

	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("Lock never acquired after the in-flight turn released")
	}
}

func TestApplicationStore(t *testing.T) {
	s := store.NewApplicationStore()

	a1 := &domain.LoanApplication{ID: "APP-1", CustomerID: "CUST004", Status: domain.StatusInitiated}
	a2 := &domain.LoanApplication{ID: "APP-2", CustomerID: "CUST004", Status: domain.StatusInitiated}
	s.Put(a1)
	s.Put(a2)

	got, ok := s.Get("APP-1")
	if !ok || got.ID != "APP-1" {
		t.Fatalf("expected APP-1, got %v ok=%v", got, ok)
	}

	// Re-Put mutated record must not duplicate the customer index.
	a1.Status = domain.StatusApproved
	s.Put(a1)

	apps := s.ListByCustomer("CUST004")
	if len(apps) != 2 {
		t.Fatalf("expected 2 applications, got %d", len(apps))
	}
	if apps[0].ID != "APP-1" || apps[1].ID != "APP-2" {
		t.Errorf("expected insertion order APP-1, APP-2; got %s, %s", apps[0].ID, apps[1].ID)
	}
	if apps[0].Status != domain.StatusApproved {
		t.Errorf("expected updated status, got %s", apps[0].Status)
	}

	if got := s.ListByCustomer("CUST999"); len(got) != 0 {
		t.Errorf("expected no applications, got %d", len(got))
	}
}
