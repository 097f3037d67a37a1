package session_test

import (
	"sync"
	"testing"

	"github.com/kryli/TgAnalyzer/internal/session"
)

func TestDefaultState(t *testing.T) {
	t.Parallel()

	m := session.NewManager()
	got := m.Get(42)
	if got.Status != session.StatusNoChat {
		t.Errorf("unknown user status = %v, want %v", got.Status, session.StatusNoChat)
	}
}

func TestSetGetReset(t *testing.T) {
	t.Parallel()

	m := session.NewManager()
	charts := map[string]string{"user_activity.png": "/data/run/user_activity.png"}

	m.Set(1, session.State{Status: session.StatusReady, ChartPaths: charts})

	got := m.Get(1)
	if got.Status != session.StatusReady {
		t.Errorf("status = %v, want %v", got.Status, session.StatusReady)
	}
	if got.ChartPaths["user_activity.png"] == "" {
		t.Error("chart paths not stored")
	}

	// Other users are unaffected.
	if other := m.Get(2); other.Status != session.StatusNoChat {
		t.Errorf("other user status = %v, want %v", other.Status, session.StatusNoChat)
	}

	m.Reset(1)
	if got := m.Get(1); got.Status != session.StatusNoChat {
		t.Errorf("status after reset = %v, want %v", got.Status, session.StatusNoChat)
	}
}

func TestConcurrentAccess(t *testing.T) {
	t.Parallel()

	m := session.NewManager()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			m.Set(id, session.State{Status: session.StatusProcessing})
			m.Get(id)
			m.Reset(id)
		}(int64(i))
	}
	wg.Wait()
}
