package notify

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

func TestNotifyStoreRecordCapsAtTwenty(t *testing.T) {
	s := NewStore()
	for i := 0; i < 25; i++ {
		s.Record("prod", Notification{ID: string(rune('a' + i%26)), Status: StatusInProgress, InitiatedTime: time.Now()})
	}
	if got := len(s.logFor("prod").entries); got != capacity {
		t.Fatalf("expected %d entries, got %d", capacity, got)
	}
}

func TestNotifyStoreUpdateAtomicPreservesPosition(t *testing.T) {
	s := NewStore()
	base := time.Now()
	s.Record("prod", Notification{ID: "a", Status: StatusInProgress, InitiatedTime: base})
	s.Record("prod", Notification{ID: "b", Status: StatusInProgress, InitiatedTime: base.Add(time.Second)})

	updated, ok := s.UpdateAtomic("prod", "a", func(n Notification) Notification {
		n.Status = StatusSuccess
		return n
	})
	if !ok || updated.Status != StatusSuccess {
		t.Fatalf("expected update to apply, got %+v, ok=%v", updated, ok)
	}

	l := s.logFor("prod")
	if l.entries[0].ID != "a" || l.entries[0].Status != StatusSuccess {
		t.Fatalf("expected position preserved with updated status, got %+v", l.entries[0])
	}
}

func TestNotifyStoreUpdateAtomicMissingReturnsFalse(t *testing.T) {
	s := NewStore()
	_, ok := s.UpdateAtomic("prod", "missing", func(n Notification) Notification { return n })
	if ok {
		t.Fatalf("expected not-found for missing id")
	}
}

func TestNotifyStoreRecentSortedDescending(t *testing.T) {
	s := NewStore()
	base := time.Now()
	s.Record("prod", Notification{ID: "old", InitiatedTime: base})
	s.Record("prod", Notification{ID: "new", InitiatedTime: base.Add(time.Minute)})

	recent := s.Recent("prod", 10)
	if len(recent) != 2 || recent[0].ID != "new" {
		t.Fatalf("expected newest first, got %+v", recent)
	}
}

func TestSendRefreshWithNoCallbackMarksSuccessImmediately(t *testing.T) {
	store := NewStore()
	n := New(store, map[string]string{}, prometheus.NewRegistry(), zap.NewNop())
	defer n.Shutdown()

	n.SendRefresh("prod", "user-svc", "abc1234")

	recent := store.Recent("prod", 1)
	if len(recent) != 1 || recent[0].Status != StatusSuccess {
		t.Fatalf("expected immediate SUCCESS, got %+v", recent)
	}
}

func TestSendRefreshWithCallbackDeliversAndMarksSuccess(t *testing.T) {
	done := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		close(done)
	}))
	defer server.Close()

	store := NewStore()
	n := New(store, map[string]string{"prod": server.URL}, prometheus.NewRegistry(), zap.NewNop())
	defer n.Shutdown()

	n.SendRefresh("prod", "user-svc", "abc1234")

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for callback delivery")
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		recent := store.Recent("prod", 1)
		if len(recent) == 1 && recent[0].Status == StatusSuccess {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("expected notification to transition to SUCCESS")
}

func TestSendRefreshWithFailingCallbackMarksFailed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	store := NewStore()
	n := New(store, map[string]string{"prod": server.URL}, prometheus.NewRegistry(), zap.NewNop())
	defer n.Shutdown()

	n.SendRefresh("prod", "user-svc", "abc1234")

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		recent := store.Recent("prod", 1)
		if len(recent) == 1 && recent[0].Status == StatusFailed {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("expected notification to transition to FAILED")
}
