package store

import (
	"sync"
	"time"
)

// WriteState is the state of a Debouncer.
type WriteState int

const (
	Idle WriteState = iota
	Pending
)

func (s WriteState) String() string {
	if s == Pending {
		return "pending"
	}
	return "idle"
}

// Debouncer coalesces rapid writes of one key. Every Trigger replaces the
// pending value and pushes the deadline out by the window; when the deadline
// passes the latest value is written once and the state returns to Idle.
type Debouncer struct {
	mu       sync.Mutex
	window   time.Duration
	write    func([]byte) error
	onError  func(error)
	value    []byte
	state    WriteState
	deadline time.Time
	timer    *time.Timer
	seq      uint64

	// writeMu is held from taking a value until it is written, so an older
	// value never lands after a newer one.
	writeMu sync.Mutex
}

// NewDebouncer writes through write after window of quiet. A zero window
// writes synchronously on every Trigger.
func NewDebouncer(window time.Duration, write func([]byte) error, onError func(error)) *Debouncer {
	return &Debouncer{window: window, write: write, onError: onError}
}

// Trigger schedules value to be written.
func (d *Debouncer) Trigger(value []byte) {
	if d.window <= 0 {
		d.run(value)
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.value = value
	d.state = Pending
	d.deadline = time.Now().Add(d.window)
	d.seq++
	if d.timer != nil {
		d.timer.Stop()
	}
	seq := d.seq
	d.timer = time.AfterFunc(d.window, func() { d.fire(seq) })
}

// State reports whether a write is pending and its deadline.
func (d *Debouncer) State() (WriteState, time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state, d.deadline
}

// Flush writes the pending value now, if any, and returns the write error.
func (d *Debouncer) Flush() error {
	d.writeMu.Lock()
	defer d.writeMu.Unlock()
	value, ok := d.take(0)
	if !ok {
		return nil
	}
	return d.write(value)
}

func (d *Debouncer) fire(seq uint64) {
	d.writeMu.Lock()
	value, ok := d.take(seq)
	var err error
	if ok {
		err = d.write(value)
	}
	d.writeMu.Unlock()
	if err != nil && d.onError != nil {
		d.onError(err)
	}
}

// take moves the state to Idle and hands out the pending value. A non-zero
// seq only matches the timer armed by the latest Trigger.
func (d *Debouncer) take(seq uint64) ([]byte, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state != Pending || (seq != 0 && seq != d.seq) {
		return nil, false
	}
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	value := d.value
	d.value = nil
	d.state = Idle
	d.deadline = time.Time{}
	return value, true
}

func (d *Debouncer) run(value []byte) {
	if err := d.writeOnce(value); err != nil && d.onError != nil {
		d.onError(err)
	}
}

func (d *Debouncer) writeOnce(value []byte) error {
	d.writeMu.Lock()
	defer d.writeMu.Unlock()
	return d.write(value)
}
