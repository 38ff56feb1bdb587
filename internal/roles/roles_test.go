package roles_test

import (
	"context"
	"testing"

	"riotlink/internal/riotapi"
	"riotlink/internal/roles"
	"riotlink/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyIsIdempotent(t *testing.T) {
	guild := testutil.NewFakeGuild()
	reconciler := roles.NewReconciler(guild, testutil.Table(), nil)
	ctx := context.Background()
	guild.SetMember("g1", "u1", "unrelated")

	delta, err := reconciler.Apply(ctx, guild.Member("g1", "u1"), "KR", riotapi.Gold, riotapi.Silver)
	require.NoError(t, err)
	assert.Equal(t, []string{"flex-SILVER", "region-KR", "solo-GOLD"}, delta.Add)
	assert.Empty(t, delta.Remove)
	assert.Equal(t, 3, guild.CallCount())

	guild.ResetCalls()
	delta, err = reconciler.Apply(ctx, guild.Member("g1", "u1"), "KR", riotapi.Gold, riotapi.Silver)
	require.NoError(t, err)
	assert.True(t, delta.Empty())
	assert.Zero(t, guild.CallCount(), "second apply must not touch any role")
	assert.ElementsMatch(t, []string{"unrelated", "region-KR", "solo-GOLD", "flex-SILVER"}, guild.Member("g1", "u1").Roles)
}

func TestApplyComputesDifference(t *testing.T) {
	guild := testutil.NewFakeGuild()
	reconciler := roles.NewReconciler(guild, testutil.Table(), nil)
	member := guild.SetMember("g1", "u1", "region-EUW", "solo-GOLD", "flex-GOLD", "booster")

	delta, err := reconciler.Apply(context.Background(), member, "EUW", riotapi.Platinum, riotapi.Gold)
	require.NoError(t, err)
	assert.Equal(t, roles.Delta{Add: []string{"solo-PLATINUM"}, Remove: []string{"solo-GOLD"}}, delta)

	// Removes go first
	require.Len(t, guild.Calls, 2)
	assert.Equal(t, "remove", guild.Calls[0].Op)
	assert.Equal(t, "add", guild.Calls[1].Op)
	assert.ElementsMatch(t, []string{"region-EUW", "solo-PLATINUM", "flex-GOLD", "booster"}, guild.Member("g1", "u1").Roles)
}

func TestApplySkipsRolesMissingFromGuild(t *testing.T) {
	guild := testutil.NewFakeGuild().WithRoles("region-KR", "solo-GOLD")
	reconciler := roles.NewReconciler(guild, testutil.Table(), nil)
	member := guild.SetMember("g1", "u1")

	delta, err := reconciler.Apply(context.Background(), member, "KR", riotapi.Gold, riotapi.Silver)
	require.NoError(t, err)
	assert.Equal(t, []string{"region-KR", "solo-GOLD"}, delta.Add)
}

func TestApplyContinuesAfterFailure(t *testing.T) {
	guild := testutil.NewFakeGuild()
	guild.FailRole = "region-KR"
	reconciler := roles.NewReconciler(guild, testutil.Table(), nil)
	member := guild.SetMember("g1", "u1")

	_, err := reconciler.Apply(context.Background(), member, "KR", riotapi.Gold, riotapi.Silver)
	assert.Error(t, err)
	assert.Equal(t, 3, guild.CallCount())
	assert.ElementsMatch(t, []string{"solo-GOLD", "flex-SILVER"}, guild.Member("g1", "u1").Roles)
}

func TestClearRemovesOnlyManagedRoles(t *testing.T) {
	guild := testutil.NewFakeGuild()
	reconciler := roles.NewReconciler(guild, testutil.Table(), nil)
	member := guild.SetMember("g1", "u1", "region-NA", "solo-IRON", "flex-UNRANKED", "moderator")

	delta, err := reconciler.Clear(context.Background(), member)
	require.NoError(t, err)
	assert.Len(t, delta.Remove, 3)
	assert.Empty(t, delta.Add)
	assert.Equal(t, []string{"moderator"}, guild.Member("g1", "u1").Roles)
}

func TestRegionOf(t *testing.T) {
	table := testutil.Table()

	region, ok := table.RegionOf(roles.Member{Roles: []string{"x", "region-LAS"}})
	assert.True(t, ok)
	assert.Equal(t, riotapi.Region("LAS"), region)

	_, ok = table.RegionOf(roles.Member{Roles: []string{"solo-GOLD"}})
	assert.False(t, ok)
}
