package state

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryManagerDefaults(t *testing.T) {
	m := NewMemoryManager()
	assert.Equal(t, StateIdle, m.GetState(1))
	_, ok := m.SelectedYear(1)
	assert.False(t, ok)
}

func TestMemoryManagerIsolatesUsers(t *testing.T) {
	m := NewMemoryManager()
	m.SetState(1, "files")
	m.SetSelectedYear(1, "2022")
	m.SetState(2, "years")

	year, ok := m.SelectedYear(1)
	require.True(t, ok)
	assert.Equal(t, "2022", year)
	assert.Equal(t, State("files"), m.GetState(1))

	_, ok = m.SelectedYear(2)
	assert.False(t, ok)
	assert.Equal(t, State("years"), m.GetState(2))

	m.Clear(1)
	assert.Equal(t, Session{State: StateIdle}, m.Get(1))
}

func TestMemoryManagerGetReturnsCopy(t *testing.T) {
	m := NewMemoryManager()
	m.SetSelectedYear(5, "2023")
	s := m.Get(5)
	s.SelectedYear = "1999"
	year, _ := m.SelectedYear(5)
	assert.Equal(t, "2023", year)
}

func TestLockSerializesOneConversation(t *testing.T) {
	m := NewMemoryManager()
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		active  int
		maxSeen int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := m.Lock(42)
			defer unlock()
			mu.Lock()
			active++
			maxSeen = max(maxSeen, active)
			mu.Unlock()
			time.Sleep(time.Millisecond)
			mu.Lock()
			active--
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, maxSeen)

	mm := m.(*memoryManager)
	assert.Empty(t, mm.locks)
}

func TestLockDoesNotBlockOtherConversations(t *testing.T) {
	m := NewMemoryManager()
	unlock := m.Lock(1)
	defer unlock()

	done := make(chan struct{})
	go func() {
		release := m.Lock(2)
		release()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock for another conversation blocked")
	}
}
