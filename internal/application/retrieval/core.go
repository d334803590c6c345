package retrieval

import (
	"context"
	"sync"
	"time"

	"property-portal/internal/pkg/debounce"

	"github.com/rs/zerolog"
)

// descriptor describes one retrieval intent to the shared core.
type descriptor[T any, P comparable] struct {
	name  string
	empty T
	fetch func(ctx context.Context, p P) (T, error)
	// blank reports parameters that must not reach the API. Nil means every
	// parameter is fetched.
	blank func(p P) bool
	// clearOnBlank resets Result to empty when a blank parameter is bound.
	clearOnBlank bool
	// delay debounces parameter changes; zero fetches immediately.
	delay time.Duration
}

// core holds the state machine shared by every retriever.
//
// Each issued request takes the next sequence number; a response is applied
// only while its number is still the latest. Binding a new parameter, binding
// a blank one and Close all advance past in-flight requests.
type core[T any, P comparable] struct {
	desc descriptor[T, P]
	log  zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	timer  debounce.Slot

	// setMu orders parameter changes so requests are issued in the order
	// the parameters were bound.
	setMu sync.Mutex
	// notifyMu keeps listener calls in state-change order.
	notifyMu sync.Mutex

	mu        sync.Mutex
	state     State[T]
	param     P
	seq       uint64
	closed    bool
	listeners map[int]Listener[T]
	nextID    int
}

func newCore[T any, P comparable](parent context.Context, s descriptor[T, P], p P, o options) *core[T, P] {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	c := &core[T, P]{
		desc:      s,
		log:       o.logger.With().Str("retriever", s.name).Logger(),
		ctx:       ctx,
		cancel:    cancel,
		state:     State[T]{Result: s.empty},
		param:     p,
		listeners: make(map[int]Listener[T]),
	}
	if !c.isBlank(p) && s.delay == 0 {
		c.state.Loading = true
	}
	return c
}

// activate performs the initial fetch for the bound parameter.
func (c *core[T, P]) activate() {
	c.setMu.Lock()
	defer c.setMu.Unlock()
	c.dispatch(c.Param())
}

func (c *core[T, P]) isBlank(p P) bool {
	return c.desc.blank != nil && c.desc.blank(p)
}

// State returns the current snapshot.
func (c *core[T, P]) State() State[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Param returns the currently bound parameter.
func (c *core[T, P]) Param() P {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.param
}

// Subscribe registers l, hands it the current snapshot and then every future
// state change. It returns a function that removes l.
func (c *core[T, P]) Subscribe(l Listener[T]) func() {
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return func() {}
	}
	id := c.nextID
	c.nextID++
	c.listeners[id] = l
	snapshot := c.state
	c.mu.Unlock()

	l(snapshot)
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.listeners, id)
	}
}

// Refetch repeats the fetch for the bound parameter and blocks until it
// settles. A blank parameter issues no request. A pending debounced fetch is
// dropped since the refetch already covers the bound parameter.
func (c *core[T, P]) Refetch(ctx context.Context) State[T] {
	if c.desc.delay > 0 {
		c.timer.Cancel()
	}
	p := c.Param()
	if c.isBlank(p) {
		c.applyBlank()
		return c.State()
	}
	seq, ok := c.begin()
	if !ok {
		return c.State()
	}
	c.complete(ctx, seq, p)
	return c.State()
}

// Close detaches the retriever: pending debounced work is dropped, in-flight
// requests are cancelled and no listener is called again.
func (c *core[T, P]) Close() {
	c.timer.Cancel()
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.seq++
	c.listeners = make(map[int]Listener[T])
	c.mu.Unlock()
	c.cancel()
}

// bind changes the parameter and reacts like a dependency change: nothing
// happens when the value is unchanged.
func (c *core[T, P]) bind(p P) {
	c.setMu.Lock()
	defer c.setMu.Unlock()

	c.mu.Lock()
	if c.closed || c.param == p {
		c.mu.Unlock()
		return
	}
	c.param = p
	c.mu.Unlock()

	c.dispatch(p)
}

// dispatch must be called with setMu held.
func (c *core[T, P]) dispatch(p P) {
	if c.isBlank(p) {
		c.timer.Cancel()
		c.applyBlank()
		return
	}
	if c.desc.delay > 0 {
		c.supersede()
		c.timer.Schedule(c.desc.delay, func() {
			seq, ok := c.begin()
			if !ok {
				return
			}
			c.complete(c.ctx, seq, p)
		})
		return
	}
	seq, ok := c.begin()
	if !ok {
		return
	}
	go c.complete(c.ctx, seq, p)
}

// supersede drops any in-flight response without touching the visible state.
func (c *core[T, P]) supersede() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
}

// applyBlank drops in-flight responses, stops loading and, for filters that
// clear on blank input, empties the result.
func (c *core[T, P]) applyBlank() {
	c.update(func(s *State[T]) bool {
		c.seq++
		changed := s.Loading
		s.Loading = false
		if c.desc.clearOnBlank {
			s.Result = c.desc.empty
			changed = true
		}
		return changed
	})
}

// begin opens a new attempt and returns its sequence number.
func (c *core[T, P]) begin() (uint64, bool) {
	var seq uint64
	ok := c.update(func(s *State[T]) bool {
		c.seq++
		seq = c.seq
		s.Loading = true
		s.Error = ""
		return true
	})
	return seq, ok
}

func (c *core[T, P]) complete(ctx context.Context, seq uint64, p P) {
	result, err := c.desc.fetch(ctx, p)
	applied := c.update(func(s *State[T]) bool {
		if seq != c.seq {
			return false
		}
		s.Loading = false
		if err != nil {
			s.Result = c.desc.empty
			s.Error = err.Error()
			return true
		}
		s.Result = result
		s.Error = ""
		return true
	})
	if !applied {
		c.log.Debug().Uint64("seq", seq).Msg("discarded superseded response")
		return
	}
	if err != nil {
		c.log.Warn().Err(err).Uint64("seq", seq).Msg("retrieval failed")
	}
}

// update mutates the state under the lock and, when fn reports a change,
// hands the new snapshot to every listener. It returns false when nothing
// was applied, including after Close.
func (c *core[T, P]) update(fn func(s *State[T]) bool) bool {
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()

	c.mu.Lock()
	if c.closed || !fn(&c.state) {
		c.mu.Unlock()
		return false
	}
	snapshot := c.state
	listeners := make([]Listener[T], 0, len(c.listeners))
	for _, l := range c.listeners {
		listeners = append(listeners, l)
	}
	c.mu.Unlock()

	for _, l := range listeners {
		l(snapshot)
	}
	return true
}
