package store

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu     sync.Mutex
	writes []string
	done   chan struct{}
}

func newRecorder() *recorder {
	return &recorder{done: make(chan struct{}, 16)}
}

func (r *recorder) write(v []byte) error {
	r.mu.Lock()
	r.writes = append(r.writes, string(v))
	r.mu.Unlock()
	r.done <- struct{}{}
	return nil
}

func (r *recorder) got() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.writes...)
}

func TestDebouncerCollapsesBurst(t *testing.T) {
	r := newRecorder()
	d := NewDebouncer(30*time.Millisecond, r.write, nil)

	d.Trigger([]byte("1"))
	d.Trigger([]byte("2"))
	d.Trigger([]byte("3"))

	state, deadline := d.State()
	assert.Equal(t, Pending, state)
	assert.False(t, deadline.IsZero())

	select {
	case <-r.done:
	case <-time.After(2 * time.Second):
		t.Fatal("debounced write never happened")
	}
	time.Sleep(60 * time.Millisecond)

	assert.Equal(t, []string{"3"}, r.got())
	state, _ = d.State()
	assert.Equal(t, Idle, state)
}

func TestDebouncerTriggerResetsDeadline(t *testing.T) {
	r := newRecorder()
	d := NewDebouncer(time.Hour, r.write, nil)

	d.Trigger([]byte("a"))
	_, first := d.State()
	time.Sleep(5 * time.Millisecond)
	d.Trigger([]byte("b"))
	_, second := d.State()

	assert.True(t, second.After(first))
	require.NoError(t, d.Flush())
	assert.Equal(t, []string{"b"}, r.got())
}

func TestDebouncerFlushWhenIdle(t *testing.T) {
	r := newRecorder()
	d := NewDebouncer(time.Hour, r.write, nil)
	require.NoError(t, d.Flush())
	assert.Empty(t, r.got())
}

func TestDebouncerZeroWindowWritesImmediately(t *testing.T) {
	r := newRecorder()
	d := NewDebouncer(0, r.write, nil)
	d.Trigger([]byte("now"))
	assert.Equal(t, []string{"now"}, r.got())
}

func TestDebouncerReportsErrors(t *testing.T) {
	boom := errors.New("boom")
	errs := make(chan error, 1)
	d := NewDebouncer(5*time.Millisecond, func([]byte) error { return boom }, func(err error) { errs <- err })

	d.Trigger([]byte("x"))
	select {
	case err := <-errs:
		assert.ErrorIs(t, err, boom)
	case <-time.After(2 * time.Second):
		t.Fatal("error was not reported")
	}
}

func TestDebouncerFlushReturnsError(t *testing.T) {
	boom := errors.New("boom")
	d := NewDebouncer(time.Hour, func([]byte) error { return boom }, nil)
	d.Trigger([]byte("x"))
	assert.ErrorIs(t, d.Flush(), boom)
	state, _ := d.State()
	assert.Equal(t, Idle, state)
}

func TestDebouncerFlushWaitsForTimerWrite(t *testing.T) {
	var mu sync.Mutex
	var writes []string
	started := make(chan struct{})
	release := make(chan struct{})
	write := func(v []byte) error {
		if string(v) == "old" {
			close(started)
			<-release
		}
		mu.Lock()
		writes = append(writes, string(v))
		mu.Unlock()
		return nil
	}
	d := NewDebouncer(10*time.Millisecond, write, nil)

	d.Trigger([]byte("old"))
	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("timer write never started")
	}

	d.Trigger([]byte("new"))
	flushed := make(chan error, 1)
	go func() { flushed <- d.Flush() }()

	select {
	case <-flushed:
		t.Fatal("flush finished while the older write was still running")
	case <-time.After(50 * time.Millisecond):
	}
	close(release)
	require.NoError(t, <-flushed)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"old", "new"}, writes)
}
