// Package bus fans committed store changes out to live subscriptions.
//
// Every subscription owns a materialized copy of its result set. Changes
// are applied by version: anything not newer than what the subscription has
// already seen for that document (deletes included) is dropped, so late or
// duplicate deliveries can never roll a view back. Consumers always receive
// the latest state; intermediate states may be skipped.
package bus

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync"

	"ih-go/internal/ih"
	"ih-go/internal/model"
)

type scopeKind int

const (
	scopeID scopeKind = iota
	scopeStudent
	scopePosting
	scopeCompany
)

func (k scopeKind) String() string {
	switch k {
	case scopeID:
		return "id"
	case scopeStudent:
		return "student"
	case scopePosting:
		return "posting"
	case scopeCompany:
		return "company"
	default:
		return "unknown"
	}
}

type scope struct {
	kind scopeKind
	key  string
}

func scopesOf(app *model.Application) [4]scope {
	return [4]scope{
		{scopeID, app.ID},
		{scopeStudent, app.StudentID},
		{scopePosting, app.PostingID},
		{scopeCompany, app.CompanyName},
	}
}

// Bus implements ih.Publisher and ih.Subscriber in process.
type Bus struct {
	querier ih.Querier
	logger  ih.Logger

	mu     sync.Mutex
	subs   map[scope]map[*subscription]struct{}
	closed bool
}

// New creates a Bus that loads subscription snapshots from querier.
func New(querier ih.Querier, logger ih.Logger) *Bus {
	if logger == nil {
		logger = ih.NewNopLogger()
	}
	return &Bus{
		querier: querier,
		logger:  logger,
		subs:    make(map[scope]map[*subscription]struct{}),
	}
}

// ErrClosed is returned when subscribing to a closed bus.
var ErrClosed = errors.New("bus is closed")

// Publish applies a committed change to every subscription whose scope
// contains the document. It never blocks on consumers.
func (b *Bus) Publish(change ih.Change) {
	var targets []*subscription
	b.mu.Lock()
	for _, sc := range scopesOf(&change.Application) {
		for sub := range b.subs[sc] {
			targets = append(targets, sub)
		}
	}
	b.mu.Unlock()

	for _, sub := range targets {
		if !sub.apply(change) {
			b.logger.Debug("stale change dropped", "id", change.Application.ID, "version", change.Version,
				"scope", sub.scope.kind.String(), "key", sub.scope.key)
		}
	}
}

// SubscribeOne opens a live view of one application.
// It fails with ih.ErrNotFound if the application does not exist.
func (b *Bus) SubscribeOne(ctx context.Context, id string) (ih.DocStream, error) {
	sub := newSubscription(scope{scopeID, id})
	s := newStream(sub.renderDoc)
	if err := b.open(ctx, sub, s, func() ([]*model.Application, error) {
		app, err := b.querier.Get(ctx, id)
		if errors.Is(err, ih.ErrNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return []*model.Application{app}, nil
	}); err != nil {
		return nil, err
	}

	if !sub.hasDocument() {
		s.Close()
		return nil, fmt.Errorf("application %s: %w", id, ih.ErrNotFound)
	}
	return s, nil
}

// SubscribeByStudent opens a live view of a student's applications.
func (b *Bus) SubscribeByStudent(ctx context.Context, studentID string) (ih.ListStream, error) {
	return b.subscribeList(ctx, scope{scopeStudent, studentID}, func() ([]*model.Application, error) {
		return b.querier.QueryByStudent(ctx, studentID)
	})
}

// SubscribeByPosting opens a live view of one posting's applications.
func (b *Bus) SubscribeByPosting(ctx context.Context, postingID string) (ih.ListStream, error) {
	return b.subscribeList(ctx, scope{scopePosting, postingID}, func() ([]*model.Application, error) {
		return b.querier.QueryByPosting(ctx, postingID)
	})
}

// SubscribeByCompany opens a live view of a company's applications.
func (b *Bus) SubscribeByCompany(ctx context.Context, companyName string) (ih.ListStream, error) {
	return b.subscribeList(ctx, scope{scopeCompany, companyName}, func() ([]*model.Application, error) {
		return b.querier.QueryByCompany(ctx, companyName)
	})
}

func (b *Bus) subscribeList(ctx context.Context, sc scope, load func() ([]*model.Application, error)) (ih.ListStream, error) {
	sub := newSubscription(sc)
	s := newStream(sub.renderList)
	if err := b.open(ctx, sub, s, load); err != nil {
		return nil, err
	}
	return s, nil
}

// open registers sub before loading its snapshot so that no change committed
// in between is missed, then seeds it and starts delivery. On error s is
// closed, which stops its pump.
func (b *Bus) open(ctx context.Context, sub *subscription, s streamer, load func() ([]*model.Application, error)) error {
	if err := ctx.Err(); err != nil {
		s.Close()
		return err
	}
	sub.notify = s.signal
	sub.stop = s.Close
	if err := b.register(sub); err != nil {
		s.Close()
		return err
	}
	s.onClose(func() {
		b.unregister(sub)
		b.logger.Debug("subscription closed", "scope", sub.scope.kind.String(), "key", sub.scope.key)
	})

	snapshot, err := load()
	if err != nil {
		s.Close()
		return fmt.Errorf("loading %s %s snapshot: %w", sub.scope.kind, sub.scope.key, err)
	}
	sub.seed(snapshot)

	go func() {
		select {
		case <-ctx.Done():
			s.Close()
		case <-s.closed():
		}
	}()

	b.logger.Debug("subscription opened", "scope", sub.scope.kind.String(), "key", sub.scope.key, "size", len(snapshot))
	return nil
}

func (b *Bus) register(sub *subscription) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrClosed
	}
	set := b.subs[sub.scope]
	if set == nil {
		set = make(map[*subscription]struct{})
		b.subs[sub.scope] = set
	}
	set[sub] = struct{}{}
	return nil
}

func (b *Bus) unregister(sub *subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	set := b.subs[sub.scope]
	delete(set, sub)
	if len(set) == 0 {
		delete(b.subs, sub.scope)
	}
}

// Subscriptions returns the number of open subscriptions.
func (b *Bus) Subscriptions() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, set := range b.subs {
		n += len(set)
	}
	return n
}

// Close ends every open subscription and rejects new ones.
func (b *Bus) Close() {
	b.mu.Lock()
	b.closed = true
	var all []*subscription
	for _, set := range b.subs {
		for sub := range set {
			all = append(all, sub)
		}
	}
	b.mu.Unlock()

	for _, sub := range all {
		sub.close()
	}
}

var (
	_ ih.Publisher  = (*Bus)(nil)
	_ ih.Subscriber = (*Bus)(nil)
)

// subscription is the materialized state behind one stream.
type subscription struct {
	scope scope

	mu       sync.Mutex
	seeded   bool
	order    []string
	docs     map[string]model.Application
	versions map[string]int64 // latest seen per id, tombstones included
	deleted  bool             // single-document scope only
	last     model.Application

	notify func()
	stop   func()
}

func newSubscription(sc scope) *subscription {
	return &subscription{
		scope:    sc,
		docs:     make(map[string]model.Application),
		versions: make(map[string]int64),
	}
}

// apply folds a change into the state. Stale changes are ignored and
// reported as false.
func (s *subscription) apply(change ih.Change) bool {
	s.mu.Lock()
	id := change.Application.ID
	if seen, ok := s.versions[id]; ok && change.Version <= seen {
		s.mu.Unlock()
		return false
	}
	s.versions[id] = change.Version

	changed := true
	if change.Kind == ih.ChangeDeleted {
		_, had := s.docs[id]
		delete(s.docs, id)
		s.removeLocked(id)
		if s.scope.kind == scopeID {
			s.deleted = true
			s.last = change.Application
		} else {
			changed = had
		}
	} else {
		s.upsertLocked(change.Application)
	}
	ready := s.seeded
	s.mu.Unlock()

	if changed && ready && s.notify != nil {
		s.notify()
	}
	return true
}

// seed merges the snapshot under anything newer already received.
func (s *subscription) seed(snapshot []*model.Application) {
	s.mu.Lock()
	for _, app := range snapshot {
		if seen, ok := s.versions[app.ID]; ok && app.Version() <= seen {
			continue
		}
		s.versions[app.ID] = app.Version()
		s.upsertLocked(*app)
	}
	s.seeded = true
	s.mu.Unlock()

	if s.notify != nil {
		s.notify()
	}
}

// upsertLocked keeps order sorted by submission time, ties by arrival.
func (s *subscription) upsertLocked(app model.Application) {
	if _, ok := s.docs[app.ID]; !ok {
		i := sort.Search(len(s.order), func(i int) bool {
			return s.docs[s.order[i]].AppliedDate.After(app.AppliedDate)
		})
		s.order = slices.Insert(s.order, i, app.ID)
	}
	s.docs[app.ID] = app
}

func (s *subscription) removeLocked(id string) {
	if i := slices.Index(s.order, id); i >= 0 {
		s.order = slices.Delete(s.order, i, i+1)
	}
}

func (s *subscription) hasDocument() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.docs) > 0
}

func (s *subscription) renderList() []model.Application {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Application, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.docs[id])
	}
	return out
}

func (s *subscription) renderDoc() ih.DocUpdate {
	s.mu.Lock()
	defer s.mu.Unlock()
	if doc, ok := s.docs[s.scope.key]; ok {
		return ih.DocUpdate{Application: doc}
	}
	return ih.DocUpdate{Application: s.last, Deleted: s.deleted}
}

func (s *subscription) close() {
	if s.stop != nil {
		s.stop()
	}
}
