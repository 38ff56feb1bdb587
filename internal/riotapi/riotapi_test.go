package riotapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApi(t *testing.T, handler http.HandlerFunc) *RiotApi {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewRiotApi("key", DefaultRoutes, nil, nil).WithBaseUrl(server.URL)
}

func TestGetAccount(t *testing.T) {
	var gotPath string
	api := newTestApi(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		assert.Equal(t, "key", r.Header.Get("X-Riot-Token"))
		if r.URL.Path == "/riot/account/v1/accounts/by-riot-id/Hide on bush/KR1" {
			w.Write([]byte(`{"puuid":"abc123","gameName":"Hide on bush","tagLine":"KR1"}`))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	})
	ctx := context.Background()

	account, err := api.GetAccount(ctx, RiotId{GameName: "Hide on bush", TagLine: "KR1"}, "KR")
	require.NoError(t, err)
	assert.Equal(t, Puuid("abc123"), account.Puuid)
	assert.Equal(t, "Hide on bush#KR1", account.RiotId().String())
	assert.Equal(t, "/riot/account/v1/accounts/by-riot-id/Hide%20on%20bush/KR1", gotPath)

	_, err = api.GetAccount(ctx, RiotId{GameName: "nobody", TagLine: "0000"}, "KR")
	assert.ErrorIs(t, err, ErrNoResponse)

	_, err = api.GetAccount(ctx, RiotId{GameName: "x", TagLine: "y"}, "MOON")
	assert.ErrorIs(t, err, ErrUnknownRegion)
}

func TestGetSummoner(t *testing.T) {
	api := newTestApi(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/lol/summoner/v4/summoners/by-puuid/abc123", r.URL.Path)
		w.Write([]byte(`{"puuid":"abc123","profileIconId":29,"summonerLevel":512}`))
	})

	summoner, err := api.GetSummoner(context.Background(), "abc123", "EUW")
	require.NoError(t, err)
	assert.Equal(t, 29, summoner.ProfileIconId)
	assert.Equal(t, int64(512), summoner.SummonerLevel)
}

func TestGetRanks(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   Ranks
	}{
		{
			name:   "both queues",
			status: http.StatusOK,
			body:   `[{"queueType":"RANKED_FLEX_SR","tier":"SILVER"},{"queueType":"RANKED_SOLO_5x5","tier":"GOLD","rank":"II","leaguePoints":40,"wins":3,"losses":1}]`,
			want:   Ranks{Solo: Gold, Flex: Silver},
		},
		{
			name:   "only solo",
			status: http.StatusOK,
			body:   `[{"queueType":"RANKED_SOLO_5x5","tier":"EMERALD"},{"queueType":"CHERRY","tier":"GOLD"}]`,
			want:   Ranks{Solo: Emerald, Flex: Unranked},
		},
		{
			name:   "no entries",
			status: http.StatusOK,
			body:   `[]`,
			want:   UnrankedRanks(),
		},
		{
			name:   "upstream failure",
			status: http.StatusServiceUnavailable,
			want:   UnrankedRanks(),
		},
		{
			name:   "garbage",
			status: http.StatusOK,
			body:   `{"not":"a list"}`,
			want:   UnrankedRanks(),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newTestApi(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/lol/league/v4/entries/by-puuid/abc123", r.URL.Path)
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})
			assert.Equal(t, tt.want, api.GetRanks(context.Background(), "abc123", "KR"))
		})
	}
}

func TestUnmarshalLeaguesWinrate(t *testing.T) {
	leagues, err := UnmarshalLeagues([]byte(`[{"queueType":"RANKED_SOLO_5x5","tier":"GOLD","wins":3,"losses":1,"leaguePoints":12}]`))
	require.NoError(t, err)
	require.Len(t, leagues, 1)
	assert.InDelta(t, 75.0, leagues[0].Winrate, 0.01)
	assert.Equal(t, 12, leagues[0].Lps)
}

func TestParseRiotId(t *testing.T) {
	tests := []struct {
		input   string
		want    RiotId
		wantErr bool
	}{
		{input: "Faker#KR1", want: RiotId{GameName: "Faker", TagLine: "KR1"}},
		{input: " Hide on bush # KR1 ", want: RiotId{GameName: "Hide on bush", TagLine: "KR1"}},
		{input: "Name#Tag#Extra", want: RiotId{GameName: "Name", TagLine: "Tag#Extra"}},
		{input: "Faker", wantErr: true},
		{input: "#KR1", wantErr: true},
		{input: "Faker#", wantErr: true},
		{input: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseRiotId(tt.input)
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrNotARiotId))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseTier(t *testing.T) {
	assert.Equal(t, Gold, ParseTier("gold"))
	assert.Equal(t, Grandmaster, ParseTier(" GRANDMASTER "))
	assert.Equal(t, Unranked, ParseTier("WOOD"))
	assert.Equal(t, Unranked, ParseTier(""))
}
