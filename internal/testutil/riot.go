package testutil

import (
	"context"
	"fmt"
	"sync"

	"riotlink/internal/riotapi"
)

// Profile icon of an account added without one
const DefaultIcon = 1

// FakeRiot answers the calls made to the Riot API from in-memory tables
type FakeRiot struct {
	mu           sync.Mutex
	accounts     map[string]riotapi.Account
	icons        map[riotapi.Puuid]int
	ranks        map[riotapi.Puuid]riotapi.Ranks
	SummonerDown bool
	PanicOn      riotapi.Puuid
	RankCalls    []riotapi.Puuid
	// Called with every rank lookup, before it answers
	OnRanks func(puuid riotapi.Puuid)
}

func NewFakeRiot() *FakeRiot {
	return &FakeRiot{
		accounts: make(map[string]riotapi.Account),
		icons:    make(map[riotapi.Puuid]int),
		ranks:    make(map[riotapi.Puuid]riotapi.Ranks),
	}
}

func (f *FakeRiot) AddAccount(riotid string, region riotapi.Region, puuid riotapi.Puuid) {
	f.mu.Lock()
	defer f.mu.Unlock()
	parsed, _ := riotapi.ParseRiotId(riotid)
	f.accounts[string(region)+"/"+parsed.String()] = riotapi.Account{Puuid: puuid, GameName: parsed.GameName, TagLine: parsed.TagLine}
	if _, ok := f.icons[puuid]; !ok {
		f.icons[puuid] = DefaultIcon
	}
}

func (f *FakeRiot) SetIcon(puuid riotapi.Puuid, icon int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.icons[puuid] = icon
}

func (f *FakeRiot) SetRanks(puuid riotapi.Puuid, solo, flex riotapi.Tier) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ranks[puuid] = riotapi.Ranks{Solo: solo, Flex: flex}
}

func (f *FakeRiot) GetAccount(ctx context.Context, riotid riotapi.RiotId, region riotapi.Region) (riotapi.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	account, ok := f.accounts[string(region)+"/"+riotid.String()]
	if !ok {
		return riotapi.Account{}, fmt.Errorf("%w: %s", riotapi.ErrNoResponse, riotid)
	}
	return account, nil
}

func (f *FakeRiot) GetSummoner(ctx context.Context, puuid riotapi.Puuid, region riotapi.Region) (riotapi.Summoner, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	icon, ok := f.icons[puuid]
	if f.SummonerDown || !ok {
		return riotapi.Summoner{}, fmt.Errorf("%w: summoner %s", riotapi.ErrNoResponse, puuid)
	}
	return riotapi.Summoner{Puuid: puuid, ProfileIconId: icon}, nil
}

func (f *FakeRiot) GetRanks(ctx context.Context, puuid riotapi.Puuid, region riotapi.Region) riotapi.Ranks {
	if f.OnRanks != nil {
		f.OnRanks(puuid)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.RankCalls = append(f.RankCalls, puuid)
	if puuid != "" && puuid == f.PanicOn {
		panic(fmt.Sprintf("lookup exploded for %s", puuid))
	}
	ranks, ok := f.ranks[puuid]
	if !ok {
		return riotapi.UnrankedRanks()
	}
	return ranks
}
