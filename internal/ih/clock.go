package ih

import (
	"time"

	"github.com/google/uuid"
)

// Clock is the store's source of AppliedDate and LastUpdated. LastUpdated
// doubles as the application version, so the store bumps a reading that is
// not after the previous one by a nanosecond.
type Clock interface {
	Now() time.Time
}

// RealClock reads the wall clock in UTC.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now().UTC() }

// IDGenerator names new applications.
type IDGenerator interface {
	New() string
}

// UUIDGenerator issues random (version 4) UUIDs, unique across every
// process writing to the same database.
type UUIDGenerator struct{}

func (UUIDGenerator) New() string { return uuid.NewString() }
