package ih_test

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"ih-go/internal/ih"
)

func TestRealClock(t *testing.T) {
	if loc := (ih.RealClock{}).Now().Location(); loc != time.UTC {
		t.Errorf("Now() location = %v, want UTC", loc)
	}
}

func TestUUIDGenerator(t *testing.T) {
	gen := ih.UUIDGenerator{}
	a, b := gen.New(), gen.New()
	if a == b {
		t.Fatalf("New() returned %q twice", a)
	}
	if _, err := uuid.Parse(a); err != nil {
		t.Errorf("New() = %q, not a UUID: %v", a, err)
	}
}
