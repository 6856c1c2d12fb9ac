package ih

import (
	"sync"

	"ih-go/internal/model"
)

// Tally counts applications per status. It always has an entry for every status.
type Tally map[model.Status]int

// NewTally counts apps by status.
func NewTally(apps []model.Application) Tally {
	t := make(Tally, len(model.AllStatuses()))
	for _, s := range model.AllStatuses() {
		t[s] = 0
	}
	for i := range apps {
		t[apps[i].Status]++
	}
	return t
}

// Total returns the sum of all counts.
func (t Tally) Total() int {
	n := 0
	for _, c := range t {
		n += c
	}
	return n
}

// View is a filtered list plus the tally of the unfiltered set.
type View struct {
	Items  []model.Application
	Tally  Tally
	Filter model.Status // zero means no filter
}

// Project filters apps by status, keeping received order, and tallies the
// unfiltered set. A zero filter keeps everything.
func Project(apps []model.Application, filter model.Status) View {
	items := make([]model.Application, 0, len(apps))
	for i := range apps {
		if filter == 0 || apps[i].Status == filter {
			items = append(items, apps[i])
		}
	}
	return View{Items: items, Tally: NewTally(apps), Filter: filter}
}

// Projector turns list deliveries into views. It recomputes only when the
// stream delivers or the filter changes; it never queries the store.
type Projector struct {
	stream ListStream
	views  chan View

	mu      sync.Mutex
	latest  []model.Application
	filter  model.Status
	ready   bool
	pending chan struct{}

	done      chan struct{}
	closeOnce sync.Once
}

// NewProjector starts projecting deliveries from stream.
// Closing the projector closes the stream.
func NewProjector(stream ListStream, filter model.Status) *Projector {
	p := &Projector{
		stream:  stream,
		views:   make(chan View),
		filter:  filter,
		pending: make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	go p.receive()
	go p.emit()
	return p
}

// Views delivers the latest view after every change. Intermediate views may
// be skipped when the reader is slow.
func (p *Projector) Views() <-chan View { return p.views }

// SetFilter changes the status filter and recomputes from the last delivery.
func (p *Projector) SetFilter(filter model.Status) {
	p.mu.Lock()
	p.filter = filter
	ready := p.ready
	p.mu.Unlock()
	if ready {
		p.signal()
	}
}

// Close stops the projector and releases the underlying stream.
func (p *Projector) Close() {
	p.closeOnce.Do(func() {
		close(p.done)
		p.stream.Close()
	})
}

func (p *Projector) receive() {
	for {
		select {
		case <-p.done:
			return
		case list, ok := <-p.stream.C():
			if !ok {
				p.Close()
				return
			}
			p.mu.Lock()
			p.latest = list
			p.ready = true
			p.mu.Unlock()
			p.signal()
		}
	}
}

func (p *Projector) signal() {
	select {
	case p.pending <- struct{}{}:
	default:
	}
}

func (p *Projector) emit() {
	defer close(p.views)

	var (
		view    View
		pending bool
	)
	for {
		var out chan<- View
		if pending {
			out = p.views
		}
		select {
		case <-p.done:
			return
		case <-p.pending:
			p.mu.Lock()
			view = Project(p.latest, p.filter)
			p.mu.Unlock()
			pending = true
		case out <- view:
			pending = false
		}
	}
}
