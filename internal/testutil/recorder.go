package testutil

import (
	"context"
	"sync"

	"riotlink/internal/riotapi"
	"riotlink/internal/roles"
)

type ApplyCall struct {
	Member roles.Member
	Region riotapi.Region
	Solo   riotapi.Tier
	Flex   riotapi.Tier
}

// RoleRecorder records every reconciliation before handing it to the
// wrapped reconciler
type RoleRecorder struct {
	mu      sync.Mutex
	next    *roles.Reconciler
	Applies []ApplyCall
	Clears  []roles.Member
}

func NewRoleRecorder(next *roles.Reconciler) *RoleRecorder {
	return &RoleRecorder{next: next}
}

func (r *RoleRecorder) Apply(ctx context.Context, member roles.Member, region riotapi.Region, solo riotapi.Tier, flex riotapi.Tier) (roles.Delta, error) {
	r.mu.Lock()
	r.Applies = append(r.Applies, ApplyCall{Member: member, Region: region, Solo: solo, Flex: flex})
	r.mu.Unlock()
	return r.next.Apply(ctx, member, region, solo, flex)
}

func (r *RoleRecorder) Clear(ctx context.Context, member roles.Member) (roles.Delta, error) {
	r.mu.Lock()
	r.Clears = append(r.Clears, member)
	r.mu.Unlock()
	return r.next.Clear(ctx, member)
}
