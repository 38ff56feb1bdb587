package verification

import (
	"context"
	"time"

	"riotlink/internal/common"
	"riotlink/internal/riotapi"
)

// Pending is a claimed identity waiting for its owner to set the challenge icon
type Pending struct {
	UserID    string
	RiotId    riotapi.RiotId
	Puuid     riotapi.Puuid
	Region    riotapi.Region
	IconId    int
	CreatedAt time.Time
}

// PendingStore keeps at most one pending verification per user and forgets
// it once its time to live is over
type PendingStore struct {
	entries *common.TTLMap[string, Pending]
	clock   common.Clock
}

func NewPendingStore(ttl time.Duration, clock common.Clock) *PendingStore {
	return &PendingStore{entries: common.NewTTLMap[string, Pending](ttl, clock), clock: clock}
}

func (s *PendingStore) Put(p Pending) Pending {
	p.CreatedAt = s.clock.Now()
	s.entries.Put(p.UserID, p)
	return p
}

// Get the pending verification of a user if it has not expired
func (s *PendingStore) Get(userID string) (Pending, bool) {
	return s.entries.Get(userID)
}

func (s *PendingStore) Delete(userID string) {
	s.entries.Delete(userID)
}

func (s *PendingStore) Len() int {
	return s.entries.Len()
}

// Drop every expired entry, returning how many were dropped
func (s *PendingStore) Sweep() int {
	return s.entries.Sweep()
}

// Sweep every half time to live until the context is done
func (s *PendingStore) Run(ctx context.Context) {
	s.entries.Run(ctx, s.entries.TTL()/2, "verifications")
}
