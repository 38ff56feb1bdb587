// Package testutil holds in-memory stand-ins for the chat platform, the
// Riot API and the account store, shared by the package tests.
package testutil

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"riotlink/internal/riotapi"
	"riotlink/internal/roles"
)

type RoleCall struct {
	Op      string
	GuildID string
	UserID  string
	RoleID  string
}

// FakeGuild keeps member roles in memory and records every role call
type FakeGuild struct {
	mu       sync.Mutex
	existing map[string]bool // nil means every role exists
	members  map[string][]string
	Calls    []RoleCall
	FailRole string // role id whose calls fail
}

func NewFakeGuild() *FakeGuild {
	return &FakeGuild{members: make(map[string][]string)}
}

// Restrict the roles that exist in every guild
func (g *FakeGuild) WithRoles(ids ...string) *FakeGuild {
	g.existing = make(map[string]bool, len(ids))
	for _, id := range ids {
		g.existing[id] = true
	}
	return g
}

func key(guildID, userID string) string {
	return guildID + "/" + userID
}

func (g *FakeGuild) SetMember(guildID, userID string, roleIDs ...string) roles.Member {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.members[key(guildID, userID)] = slices.Clone(roleIDs)
	return roles.Member{GuildID: guildID, UserID: userID, Roles: slices.Clone(roleIDs)}
}

// Current view of a member, as the platform would report it
func (g *FakeGuild) Member(guildID, userID string) roles.Member {
	g.mu.Lock()
	defer g.mu.Unlock()
	current := slices.Clone(g.members[key(guildID, userID)])
	slices.Sort(current)
	return roles.Member{GuildID: guildID, UserID: userID, Roles: current}
}

func (g *FakeGuild) ResetCalls() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Calls = nil
}

func (g *FakeGuild) CallCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.Calls)
}

func (g *FakeGuild) RoleExists(guildID, roleID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.existing == nil || g.existing[roleID]
}

func (g *FakeGuild) AddRole(ctx context.Context, guildID, userID, roleID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Calls = append(g.Calls, RoleCall{Op: "add", GuildID: guildID, UserID: userID, RoleID: roleID})
	if roleID == g.FailRole {
		return fmt.Errorf("missing permissions for role %s", roleID)
	}
	k := key(guildID, userID)
	if !slices.Contains(g.members[k], roleID) {
		g.members[k] = append(g.members[k], roleID)
	}
	return nil
}

func (g *FakeGuild) RemoveRole(ctx context.Context, guildID, userID, roleID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Calls = append(g.Calls, RoleCall{Op: "remove", GuildID: guildID, UserID: userID, RoleID: roleID})
	if roleID == g.FailRole {
		return fmt.Errorf("missing permissions for role %s", roleID)
	}
	k := key(guildID, userID)
	g.members[k] = slices.DeleteFunc(g.members[k], func(id string) bool { return id == roleID })
	return nil
}

// Every guild the user belongs to, for the periodic refresh
func (g *FakeGuild) MemberGuilds(ctx context.Context, userID string) ([]roles.Member, error) {
	g.mu.Lock()
	var guildIDs []string
	for k := range g.members {
		guildID, uid, _ := strings.Cut(k, "/")
		if uid == userID {
			guildIDs = append(guildIDs, guildID)
		}
	}
	g.mu.Unlock()

	slices.Sort(guildIDs)
	members := make([]roles.Member, 0, len(guildIDs))
	for _, guildID := range guildIDs {
		members = append(members, g.Member(guildID, userID))
	}
	return members, nil
}

// Role table used across tests: region roles are "region-<REGION>",
// tier roles are "solo-<TIER>" and "flex-<TIER>"
func Table() roles.Table {
	table := roles.Table{
		Regions: make(map[riotapi.Region]string),
		Solo:    make(map[riotapi.Tier]string),
		Flex:    make(map[riotapi.Tier]string),
	}
	for region := range riotapi.DefaultRoutes {
		table.Regions[region] = "region-" + string(region)
	}
	for _, tier := range riotapi.Tiers {
		table.Solo[tier] = "solo-" + string(tier)
		table.Flex[tier] = "flex-" + string(tier)
	}
	return table
}
