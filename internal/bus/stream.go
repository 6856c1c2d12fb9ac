package bus

import "sync"

// streamer is the type-independent side of a stream used by the bus.
type streamer interface {
	signal()
	onClose(fn func())
	closed() <-chan struct{}
	Close()
}

// stream delivers the latest rendered state of a subscription.
// Signals coalesce: while the consumer is not receiving, any number of
// changes collapse into one delivery of the newest state.
type stream[T any] struct {
	render func() T
	out    chan T
	notify chan struct{}
	done   chan struct{}

	mu       sync.Mutex
	once     sync.Once
	cleanups []func()
}

func newStream[T any](render func() T) *stream[T] {
	s := &stream[T]{
		render: render,
		out:    make(chan T),
		notify: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	go s.pump()
	return s
}

// C returns the delivery channel. It is closed after Close.
func (s *stream[T]) C() <-chan T {
	return s.out
}

// Close ends the stream. It is safe to call more than once.
func (s *stream[T]) Close() {
	s.once.Do(func() {
		s.mu.Lock()
		cleanups := s.cleanups
		s.cleanups = nil
		s.mu.Unlock()
		for _, fn := range cleanups {
			fn()
		}
		close(s.done)
	})
}

func (s *stream[T]) signal() {
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

func (s *stream[T]) onClose(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cleanups = append(s.cleanups, fn)
}

func (s *stream[T]) closed() <-chan struct{} {
	return s.done
}

func (s *stream[T]) pump() {
	defer close(s.out)

	var (
		value   T
		pending bool
	)
	for {
		var out chan<- T
		if pending {
			out = s.out
		}
		select {
		case <-s.done:
			return
		case <-s.notify:
			value = s.render()
			pending = true
		case out <- value:
			pending = false
		}
	}
}
