package ih_test

import (
	"testing"
	"time"

	"ih-go/internal/ih"
	"ih-go/internal/model"
)

type fakeListStream struct {
	ch     chan []model.Application
	closed chan struct{}
}

func newFakeListStream() *fakeListStream {
	return &fakeListStream{ch: make(chan []model.Application), closed: make(chan struct{})}
}

func (s *fakeListStream) C() <-chan []model.Application { return s.ch }

func (s *fakeListStream) Close() {
	select {
	case <-s.closed:
	default:
		close(s.closed)
	}
}

func apps(statuses ...model.Status) []model.Application {
	out := make([]model.Application, len(statuses))
	for i, s := range statuses {
		out[i] = model.Application{ID: string(rune('a' + i)), Status: s}
	}
	return out
}

func nextView(t *testing.T, p *ih.Projector) ih.View {
	t.Helper()
	select {
	case v, ok := <-p.Views():
		if !ok {
			t.Fatal("views closed")
		}
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for view")
	}
	return ih.View{}
}

func TestNewTally(t *testing.T) {
	tally := ih.NewTally(apps(model.StatusPending, model.StatusPending, model.StatusAccepted))

	for _, s := range model.AllStatuses() {
		if _, ok := tally[s]; !ok {
			t.Errorf("tally missing %v", s)
		}
	}
	if tally[model.StatusPending] != 2 || tally[model.StatusAccepted] != 1 || tally[model.StatusRejected] != 0 {
		t.Errorf("tally = %v", tally)
	}
	if tally.Total() != 3 {
		t.Errorf("Total() = %d, want 3", tally.Total())
	}
}

func TestProject(t *testing.T) {
	list := apps(model.StatusPending, model.StatusShortlisted, model.StatusPending, model.StatusRejected)

	tests := []struct {
		name    string
		filter  model.Status
		wantIDs []string
	}{
		{"no filter", 0, []string{"a", "b", "c", "d"}},
		{"pending keeps order", model.StatusPending, []string{"a", "c"}},
		{"no matches", model.StatusAccepted, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := ih.Project(list, tt.filter)
			if len(v.Items) != len(tt.wantIDs) {
				t.Fatalf("len(Items) = %d, want %d", len(v.Items), len(tt.wantIDs))
			}
			for i, id := range tt.wantIDs {
				if v.Items[i].ID != id {
					t.Errorf("Items[%d].ID = %s, want %s", i, v.Items[i].ID, id)
				}
			}
			if v.Tally.Total() != len(list) {
				t.Errorf("tally covers %d, want the unfiltered %d", v.Tally.Total(), len(list))
			}
		})
	}
}

func TestProjector(t *testing.T) {
	t.Run("projects each delivery", func(t *testing.T) {
		stream := newFakeListStream()
		p := ih.NewProjector(stream, model.StatusPending)
		defer p.Close()

		stream.ch <- apps(model.StatusPending, model.StatusReviewed)
		v := nextView(t, p)
		if len(v.Items) != 1 || v.Tally.Total() != 2 {
			t.Errorf("view = %d items, tally %v", len(v.Items), v.Tally)
		}

		stream.ch <- apps(model.StatusReviewed, model.StatusReviewed)
		v = nextView(t, p)
		if len(v.Items) != 0 || v.Tally[model.StatusReviewed] != 2 {
			t.Errorf("view = %d items, tally %v", len(v.Items), v.Tally)
		}
	})

	t.Run("filter change reuses last delivery", func(t *testing.T) {
		stream := newFakeListStream()
		p := ih.NewProjector(stream, 0)
		defer p.Close()

		stream.ch <- apps(model.StatusPending, model.StatusAccepted, model.StatusAccepted)
		if v := nextView(t, p); len(v.Items) != 3 {
			t.Fatalf("len(Items) = %d, want 3", len(v.Items))
		}

		p.SetFilter(model.StatusAccepted)
		v := nextView(t, p)
		if v.Filter != model.StatusAccepted || len(v.Items) != 2 {
			t.Errorf("view = filter %v, %d items", v.Filter, len(v.Items))
		}
	})

	t.Run("filter before first delivery emits nothing", func(t *testing.T) {
		stream := newFakeListStream()
		p := ih.NewProjector(stream, 0)
		defer p.Close()

		p.SetFilter(model.StatusRejected)
		select {
		case v := <-p.Views():
			t.Errorf("unexpected view before any delivery: %+v", v)
		case <-time.After(50 * time.Millisecond):
		}
	})

	t.Run("close releases stream", func(t *testing.T) {
		stream := newFakeListStream()
		p := ih.NewProjector(stream, 0)
		p.Close()
		p.Close()

		select {
		case <-stream.closed:
		default:
			t.Error("stream not closed")
		}
		select {
		case _, ok := <-p.Views():
			if ok {
				t.Error("Views() delivered after Close")
			}
		case <-time.After(2 * time.Second):
			t.Error("Views() not closed")
		}
	})

	t.Run("stream end closes views", func(t *testing.T) {
		stream := newFakeListStream()
		p := ih.NewProjector(stream, 0)
		close(stream.ch)

		select {
		case _, ok := <-p.Views():
			if ok {
				t.Error("Views() delivered after stream end")
			}
		case <-time.After(2 * time.Second):
			t.Error("Views() not closed after stream end")
		}
	})
}
