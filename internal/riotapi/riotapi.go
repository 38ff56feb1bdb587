package riotapi

import (
	"context"
	"fmt"
	"net/url"

	"riotlink/internal/common"

	"github.com/rs/zerolog/log"
)

// Riot schema
const RIOT_SCHEMA = "https://%s.api.riotgames.com"

// Routes inside the riot API
const ROUTE_ACCOUNT_PUUID = "/riot/account/v1/accounts/by-riot-id/%s/%s"
const ROUTE_SUMMONER = "/lol/summoner/v4/summoners/by-puuid/%s"
const ROUTE_LEAGUE = "/lol/league/v4/entries/by-puuid/%s"

type RiotApi struct {
	proxy  *common.Proxy
	routes Routes
	schema func(host string) string
}

func NewRiotApi(apiKey string, routes Routes, rateLimiter *common.RateLimiter, metrics *common.Metrics) *RiotApi {
	return &RiotApi{
		proxy:  common.NewProxy(map[string]string{"X-Riot-Token": apiKey}, rateLimiter, metrics),
		routes: routes,
		schema: func(host string) string { return fmt.Sprintf(RIOT_SCHEMA, host) },
	}
}

// Send every request to the provided base url regardless of the host.
// Used to point the client at a local server
func (riotapi *RiotApi) WithBaseUrl(baseUrl string) *RiotApi {
	riotapi.schema = func(string) string { return baseUrl }
	return riotapi
}

// Check that a riot id exists in the provided region and get its account
func (riotapi *RiotApi) GetAccount(ctx context.Context, riotid RiotId, region Region) (Account, error) {

	route, err := riotapi.routes.Get(region)
	if err != nil {
		return Account{}, err
	}

	// Request
	url := riotapi.schema(route.Regional) + fmt.Sprintf(ROUTE_ACCOUNT_PUUID, url.PathEscape(riotid.GameName), url.PathEscape(riotid.TagLine))
	data := riotapi.request(ctx, url)
	if data == nil {
		return Account{}, fmt.Errorf("%w: could not find puuid for riot id %s", ErrNoResponse, riotid)
	}

	// Decode
	account, err := UnmarshalAccount(data)
	if err != nil {
		return Account{}, err
	}
	if account.Puuid == "" {
		return Account{}, fmt.Errorf("%w: empty puuid for riot id %s", ErrNoResponse, riotid)
	}
	log.Debug().Msg(fmt.Sprintf("Found puuid %s for riot id %s", account.Puuid, riotid))

	return account, nil
}

func (riotapi *RiotApi) GetSummoner(ctx context.Context, puuid Puuid, region Region) (Summoner, error) {

	route, err := riotapi.routes.Get(region)
	if err != nil {
		return Summoner{}, err
	}

	// Request
	url := riotapi.schema(route.Platform) + fmt.Sprintf(ROUTE_SUMMONER, puuid)
	data := riotapi.request(ctx, url)
	if data == nil {
		return Summoner{}, fmt.Errorf("%w: could not find summoner for puuid %s", ErrNoResponse, puuid)
	}

	return UnmarshalSummoner(data)
}

func (riotapi *RiotApi) GetLeagues(ctx context.Context, puuid Puuid, region Region) ([]League, error) {

	route, err := riotapi.routes.Get(region)
	if err != nil {
		return nil, err
	}

	// Request
	url := riotapi.schema(route.Platform) + fmt.Sprintf(ROUTE_LEAGUE, puuid)
	data := riotapi.request(ctx, url)
	if data == nil {
		return nil, fmt.Errorf("%w: no leagues found for puuid %s", ErrNoResponse, puuid)
	}

	return UnmarshalLeagues(data)
}

// Current solo and flex tiers. Never fails: anything that goes
// wrong leaves the affected queue unranked
func (riotapi *RiotApi) GetRanks(ctx context.Context, puuid Puuid, region Region) Ranks {

	leagues, err := riotapi.GetLeagues(ctx, puuid, region)
	if err != nil {
		log.Warn().Msg(fmt.Sprintf("Defaulting to unranked for puuid %s: %s", puuid, err))
		return UnrankedRanks()
	}
	return RanksFromLeagues(leagues)
}

func (riotapi *RiotApi) request(ctx context.Context, url string) []byte {

	log.Debug().Msg(fmt.Sprintf("Requesting to url %s", url))
	return riotapi.proxy.Request(ctx, url)
}
