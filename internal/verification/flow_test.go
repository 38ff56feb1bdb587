package verification_test

import (
	"context"
	"testing"
	"time"

	"riotlink/internal/accounts"
	"riotlink/internal/common"
	"riotlink/internal/riotapi"
	"riotlink/internal/roles"
	"riotlink/internal/testutil"
	"riotlink/internal/verification"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ttl = 5 * time.Minute

type fixture struct {
	clock    *common.FakeClock
	riot     *testutil.FakeRiot
	store    *testutil.MemoryStore
	guild    *testutil.FakeGuild
	recorder *testutil.RoleRecorder
	flow     *verification.Flow
}

func newFixture() *fixture {
	f := &fixture{
		clock: common.NewFakeClock(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)),
		riot:  testutil.NewFakeRiot(),
		store: testutil.NewMemoryStore(),
		guild: testutil.NewFakeGuild(),
	}
	f.recorder = testutil.NewRoleRecorder(roles.NewReconciler(f.guild, testutil.Table(), nil))
	manager := accounts.NewManager(f.store, f.riot, f.recorder)
	challenge := func(string, riotapi.Puuid, int) int { return 29 }
	f.flow = verification.NewFlow(f.riot, manager, verification.NewPendingStore(ttl, f.clock), challenge, nil)
	f.riot.AddAccount("Faker#KR1", "KR", "abc123")
	return f
}

func TestLinkScenario(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.store.Seed("u1", accounts.LinkedAccount{RiotId: "Old#EUW", Puuid: "old", Region: "EUW", SoloTier: riotapi.Iron, FlexTier: riotapi.Iron, Primary: true})
	member := f.guild.SetMember("g1", "u1", "region-EUW", "solo-IRON", "flex-IRON")

	riotid, err := riotapi.ParseRiotId("Faker#KR1")
	require.NoError(t, err)
	pending, err := f.flow.Begin(ctx, "u1", riotid, "KR")
	require.NoError(t, err)
	assert.Equal(t, "Faker#KR1", pending.RiotId.String())
	assert.Equal(t, riotapi.Puuid("abc123"), pending.Puuid)
	assert.Equal(t, riotapi.Region("KR"), pending.Region)
	assert.Equal(t, 29, pending.IconId)

	f.riot.SetIcon("abc123", 29)
	f.riot.SetRanks("abc123", riotapi.Gold, riotapi.Silver)
	linked, err := f.flow.Confirm(ctx, "u1", member)
	require.NoError(t, err)

	want := accounts.LinkedAccount{RiotId: "Faker#KR1", Puuid: "abc123", Region: "KR", SoloTier: riotapi.Gold, FlexTier: riotapi.Silver, Primary: true}
	assert.Equal(t, want, linked)

	accs, err := f.store.Get(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, accs, 2)
	assert.False(t, accs[0].Primary)
	assert.Equal(t, want, accs[1])

	require.Len(t, f.recorder.Applies, 1)
	assert.Equal(t, testutil.ApplyCall{Member: member, Region: "KR", Solo: riotapi.Gold, Flex: riotapi.Silver}, f.recorder.Applies[0])

	_, ok := f.flow.Pending().Get("u1")
	assert.False(t, ok, "pending verification is consumed")
}

func TestConfirmRequiresExactIcon(t *testing.T) {
	tests := []struct {
		icon     int
		verified bool
	}{
		{icon: 28},
		{icon: 30},
		{icon: 0},
		{icon: 29, verified: true},
	}
	for _, tt := range tests {
		f := newFixture()
		ctx := context.Background()
		member := f.guild.SetMember("g1", "u1")

		_, err := f.flow.Begin(ctx, "u1", riotapi.RiotId{GameName: "Faker", TagLine: "KR1"}, "KR")
		require.NoError(t, err)
		f.riot.SetIcon("abc123", tt.icon)

		_, err = f.flow.Confirm(ctx, "u1", member)
		_, stillPending := f.flow.Pending().Get("u1")
		if tt.verified {
			assert.NoError(t, err)
			assert.False(t, stillPending)
			assert.Equal(t, 1, f.store.PutCount())
		} else {
			assert.ErrorIs(t, err, verification.ErrOwnershipMismatch, "icon %d", tt.icon)
			assert.True(t, stillPending, "icon %d keeps the verification pending", tt.icon)
			assert.Zero(t, f.store.PutCount())
			assert.Empty(t, f.recorder.Applies)
		}
	}
}

func TestMismatchIsRetryable(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	member := f.guild.SetMember("g1", "u1")

	_, err := f.flow.Begin(ctx, "u1", riotapi.RiotId{GameName: "Faker", TagLine: "KR1"}, "KR")
	require.NoError(t, err)

	f.riot.SetIcon("abc123", 4)
	_, err = f.flow.Confirm(ctx, "u1", member)
	require.ErrorIs(t, err, verification.ErrOwnershipMismatch)

	f.riot.SetIcon("abc123", 29)
	_, err = f.flow.Confirm(ctx, "u1", member)
	assert.NoError(t, err)
}

func TestBeginRejectsUnknownIdentity(t *testing.T) {
	f := newFixture()

	_, err := f.flow.Begin(context.Background(), "u1", riotapi.RiotId{GameName: "Nobody", TagLine: "000"}, "KR")
	assert.ErrorIs(t, err, verification.ErrInvalidIdentity)
	assert.Zero(t, f.flow.Pending().Len())

	// Right name, wrong region
	_, err = f.flow.Begin(context.Background(), "u1", riotapi.RiotId{GameName: "Faker", TagLine: "KR1"}, "EUW")
	assert.ErrorIs(t, err, verification.ErrInvalidIdentity)
}

func TestConfirmByAnotherUserHasNoEffect(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.flow.Begin(ctx, "u1", riotapi.RiotId{GameName: "Faker", TagLine: "KR1"}, "KR")
	require.NoError(t, err)
	f.riot.SetIcon("abc123", 29)

	intruder := f.guild.SetMember("g1", "u2")
	_, err = f.flow.Confirm(ctx, "u1", intruder)
	assert.ErrorIs(t, err, verification.ErrNotFlowOwner)
	assert.ErrorIs(t, f.flow.Cancel("u1", "u2"), verification.ErrNotFlowOwner)

	_, ok := f.flow.Pending().Get("u1")
	assert.True(t, ok)
	assert.Zero(t, f.store.PutCount())
	assert.Zero(t, f.guild.CallCount())
}

func TestConfirmWithUpstreamDown(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	member := f.guild.SetMember("g1", "u1")

	_, err := f.flow.Begin(ctx, "u1", riotapi.RiotId{GameName: "Faker", TagLine: "KR1"}, "KR")
	require.NoError(t, err)
	f.riot.SetIcon("abc123", 29)
	f.riot.SummonerDown = true

	_, err = f.flow.Confirm(ctx, "u1", member)
	assert.ErrorIs(t, err, verification.ErrUpstreamUnavailable)
	_, ok := f.flow.Pending().Get("u1")
	assert.True(t, ok)

	f.riot.SummonerDown = false
	_, err = f.flow.Confirm(ctx, "u1", member)
	assert.NoError(t, err)
}

func TestStoreFailureKeepsPending(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	member := f.guild.SetMember("g1", "u1")

	_, err := f.flow.Begin(ctx, "u1", riotapi.RiotId{GameName: "Faker", TagLine: "KR1"}, "KR")
	require.NoError(t, err)
	f.riot.SetIcon("abc123", 29)
	f.store.FailPut = true

	_, err = f.flow.Confirm(ctx, "u1", member)
	assert.Error(t, err)
	_, ok := f.flow.Pending().Get("u1")
	assert.True(t, ok)
}

func TestPendingExpires(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	member := f.guild.SetMember("g1", "u1")

	_, err := f.flow.Begin(ctx, "u1", riotapi.RiotId{GameName: "Faker", TagLine: "KR1"}, "KR")
	require.NoError(t, err)
	f.riot.SetIcon("abc123", 29)

	f.clock.Advance(ttl)
	_, err = f.flow.Confirm(ctx, "u1", member)
	assert.ErrorIs(t, err, verification.ErrNoPendingVerification)
	assert.Zero(t, f.store.PutCount())
}

func TestCancel(t *testing.T) {
	f := newFixture()
	_, err := f.flow.Begin(context.Background(), "u1", riotapi.RiotId{GameName: "Faker", TagLine: "KR1"}, "KR")
	require.NoError(t, err)

	require.NoError(t, f.flow.Cancel("u1", "u1"))
	assert.Zero(t, f.flow.Pending().Len())
}

func TestHashChallenger(t *testing.T) {
	icons := []int{3, 7, 11, 29}
	challenge := verification.HashChallenger(icons)

	first := challenge("u1", "abc123", 0)
	assert.Contains(t, icons, first)
	assert.Equal(t, first, challenge("u1", "abc123", 0), "same user and account get the same icon")
	assert.Equal(t, 0, verification.HashChallenger(nil)("u1", "abc123", 0))

	other := challenge("u1", "abc123", first)
	assert.Contains(t, icons, other)
	assert.NotEqual(t, first, other, "never the icon already set")
}

func TestBeginNeverAsksForTheCurrentIcon(t *testing.T) {
	f := newFixture()
	challenge := verification.HashChallenger([]int{3, 7})
	flow := verification.NewFlow(f.riot, accounts.NewManager(f.store, f.riot, f.recorder), verification.NewPendingStore(ttl, f.clock), challenge, nil)
	riotid := riotapi.RiotId{GameName: "Faker", TagLine: "KR1"}

	f.riot.SetIcon("abc123", challenge("u1", "abc123", 0))
	pending, err := flow.Begin(context.Background(), "u1", riotid, "KR")
	require.NoError(t, err)
	assert.NotEqual(t, challenge("u1", "abc123", 0), pending.IconId)

	_, err = flow.Confirm(context.Background(), "u1", f.guild.SetMember("g1", "u1"))
	assert.ErrorIs(t, err, verification.ErrOwnershipMismatch, "the icon already set proves nothing")
}

func TestBeginRejectsChallengeEqualToCurrentIcon(t *testing.T) {
	f := newFixture()
	f.riot.SetIcon("abc123", 29)

	_, err := f.flow.Begin(context.Background(), "u1", riotapi.RiotId{GameName: "Faker", TagLine: "KR1"}, "KR")

	assert.ErrorIs(t, err, verification.ErrNoChallenge)
	assert.Zero(t, f.flow.Pending().Len())
}

func TestBeginWithUpstreamDown(t *testing.T) {
	f := newFixture()
	f.riot.SummonerDown = true

	_, err := f.flow.Begin(context.Background(), "u1", riotapi.RiotId{GameName: "Faker", TagLine: "KR1"}, "KR")

	assert.ErrorIs(t, err, verification.ErrUpstreamUnavailable)
	assert.Zero(t, f.flow.Pending().Len())
}
