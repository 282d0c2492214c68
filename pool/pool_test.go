package pool

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/seamdb/seam/driver"
)

type fakeConn struct {
	id     int
	closed bool
}

func (c *fakeConn) Prepare(string) (driver.Statement, error) { return nil, errors.New("not implemented") }
func (c *fakeConn) Begin() error                             { return nil }
func (c *fakeConn) Commit() error                            { return nil }
func (c *fakeConn) Rollback() error                          { return nil }
func (c *fakeConn) LastInsertID() (uint64, error)            { return 0, errors.New("no insert id") }
func (c *fakeConn) Close() error                             { c.closed = true; return nil }

// countingFactory counts invocations and can be told to fail.
type countingFactory struct {
	mu    sync.Mutex
	calls int
	fail  bool
}

func (f *countingFactory) factory() (driver.Connection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.fail {
		return nil, errors.New("connect refused")
	}
	return &fakeConn{id: f.calls}, nil
}

func (f *countingFactory) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestInvalidConfig(t *testing.T) {
	f := &countingFactory{}
	cases := []Config{
		{Min: -1, Max: 4},
		{Min: 5, Max: 2},
		{Min: 2, Max: -3},
	}
	for _, cfg := range cases {
		if _, err := New(f.factory, cfg); err == nil {
			t.Errorf("New(%+v) should fail", cfg)
		}
	}
	if _, err := New(nil, Config{}); err == nil {
		t.Error("New with nil factory should fail")
	}
}

func TestAcquireReuse(t *testing.T) {
	f := &countingFactory{}
	p, err := New(f.factory, Config{Min: 1, Max: 1})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	c, err := p.Acquire()
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	p.Release(c)

	c2, err := p.Acquire()
	if err != nil {
		t.Fatalf("second Acquire failed: %v", err)
	}
	if c2 != c {
		t.Error("expected the released connection to be reused")
	}
	if f.count() != 1 {
		t.Errorf("factory called %d times, want 1", f.count())
	}
}

func TestIdleQueueIsFIFO(t *testing.T) {
	f := &countingFactory{}
	p, _ := New(f.factory, Config{Min: 1, Max: 3})

	a, _ := p.Acquire()
	b, _ := p.Acquire()
	c, _ := p.Acquire()
	p.Release(a)
	p.Release(b)
	p.Release(c)

	got, _ := p.Acquire()
	if got != a {
		t.Error("expected the oldest released connection first")
	}
}

func TestWarmup(t *testing.T) {
	f := &countingFactory{}
	p, _ := New(f.factory, Config{Min: 3, Max: 5})

	if err := p.Warmup(); err != nil {
		t.Fatalf("Warmup failed: %v", err)
	}
	total, idle := p.Stats()
	if total != 3 || idle != 3 {
		t.Errorf("after Warmup total=%d idle=%d, want 3/3", total, idle)
	}
	if f.count() != 3 {
		t.Errorf("factory called %d times, want 3", f.count())
	}
}

func TestAcquireBlocksUntilRelease(t *testing.T) {
	f := &countingFactory{}
	p, _ := New(f.factory, Config{Min: 1, Max: 1})

	c, err := p.Acquire()
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}

	got := make(chan driver.Connection)
	go func() {
		c2, err := p.Acquire()
		if err != nil {
			t.Errorf("blocked Acquire failed: %v", err)
		}
		got <- c2
	}()

	select {
	case <-got:
		t.Fatal("second Acquire returned while the pool was exhausted")
	case <-time.After(50 * time.Millisecond):
	}

	p.Release(c)

	select {
	case c2 := <-got:
		if c2 != c {
			t.Error("unblocked Acquire should receive the released connection")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Acquire still blocked after Release")
	}
}

func TestFactoryFailureRestoresCapacity(t *testing.T) {
	f := &countingFactory{fail: true}
	p, _ := New(f.factory, Config{Min: 1, Max: 1})

	if _, err := p.Acquire(); err == nil {
		t.Fatal("Acquire should propagate factory failure")
	}

	// The speculative slot reservation must have been rolled back,
	// otherwise this second Acquire would block forever.
	f.mu.Lock()
	f.fail = false
	f.mu.Unlock()

	done := make(chan error, 1)
	go func() {
		_, err := p.Acquire()
		done <- err
	}()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Acquire after factory failure: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("pool lost capacity after factory failure")
	}
}

func TestCapacityInvariantUnderLoad(t *testing.T) {
	const max = 4
	f := &countingFactory{}
	p, _ := New(f.factory, Config{Min: 1, Max: max})

	var borrowed atomic.Int32
	var peak atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				c, err := p.Acquire()
				if err != nil {
					t.Errorf("Acquire failed: %v", err)
					return
				}
				n := borrowed.Add(1)
				for {
					old := peak.Load()
					if n <= old || peak.CompareAndSwap(old, n) {
						break
					}
				}
				borrowed.Add(-1)
				p.Release(c)
			}
		}()
	}
	wg.Wait()

	if got := peak.Load(); got > max {
		t.Errorf("%d connections borrowed simultaneously, max is %d", got, max)
	}
	if f.count() > max {
		t.Errorf("factory called %d times, cap is %d", f.count(), max)
	}
	total, _ := p.Stats()
	if total > max {
		t.Errorf("total=%d exceeds max=%d", total, max)
	}
}

func TestReleaseNilIgnored(t *testing.T) {
	f := &countingFactory{}
	p, _ := New(f.factory, Config{Min: 1, Max: 2})
	p.Release(nil)
	if _, idle := p.Stats(); idle != 0 {
		t.Error("nil release should not grow the idle queue")
	}
}

func TestPooledConnReleaseIdempotent(t *testing.T) {
	f := &countingFactory{}
	p, _ := New(f.factory, Config{Min: 1, Max: 2})

	pc, err := p.Get()
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	pc.Release()
	pc.Release()

	if _, idle := p.Stats(); idle != 1 {
		t.Errorf("idle=%d after double release, want 1", idle)
	}
	if pc.Conn() != nil {
		t.Error("Conn should be nil after Release")
	}
}

func TestCloseUnblocksWaiters(t *testing.T) {
	f := &countingFactory{}
	p, _ := New(f.factory, Config{Min: 1, Max: 1})

	c, _ := p.Acquire()

	done := make(chan error, 1)
	go func() {
		_, err := p.Acquire()
		done <- err
	}()
	time.Sleep(20 * time.Millisecond)

	if err := p.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	select {
	case err := <-done:
		if !errors.Is(err, ErrClosed) {
			t.Errorf("blocked Acquire got %v, want ErrClosed", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Close did not unblock waiter")
	}

	// Borrowed connections are closed on release after Close.
	p.Release(c)
	if fc := c.(*fakeConn); !fc.closed {
		t.Error("connection released into a closed pool should be closed")
	}
	if _, err := p.Acquire(); !errors.Is(err, ErrClosed) {
		t.Errorf("Acquire after Close got %v, want ErrClosed", err)
	}
}
