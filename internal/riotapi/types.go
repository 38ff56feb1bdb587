package riotapi

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNoResponse    = errors.New("no response from riot api")
	ErrNotARiotId    = errors.New("not a riot id")
	ErrUnknownRegion = errors.New("unknown region")
)

type Puuid string

type RiotId struct {
	GameName string
	TagLine  string
}

func (riotid RiotId) String() string {
	return fmt.Sprintf("%s#%s", riotid.GameName, riotid.TagLine)
}

// Parse a riot id of the form Name#Tag. Spaces inside the game name are kept
func ParseRiotId(input string) (RiotId, error) {
	hashtagPos := strings.Index(input, "#")
	if hashtagPos == -1 {
		return RiotId{}, fmt.Errorf("%w: `%s` has no #", ErrNotARiotId, input)
	}
	gameName := strings.TrimSpace(input[:hashtagPos])
	tagLine := strings.TrimSpace(input[hashtagPos+1:])
	if gameName == "" || tagLine == "" {
		return RiotId{}, fmt.Errorf("%w: `%s`", ErrNotARiotId, input)
	}
	return RiotId{GameName: gameName, TagLine: tagLine}, nil
}

type Tier string

const (
	Unranked    Tier = "UNRANKED"
	Iron        Tier = "IRON"
	Bronze      Tier = "BRONZE"
	Silver      Tier = "SILVER"
	Gold        Tier = "GOLD"
	Platinum    Tier = "PLATINUM"
	Emerald     Tier = "EMERALD"
	Diamond     Tier = "DIAMOND"
	Master      Tier = "MASTER"
	Grandmaster Tier = "GRANDMASTER"
	Challenger  Tier = "CHALLENGER"
)

// Ordered from lowest to highest
var Tiers = []Tier{Unranked, Iron, Bronze, Silver, Gold, Platinum, Emerald, Diamond, Master, Grandmaster, Challenger}

// Normalise a tier coming from the API or from configuration.
// Anything not known is considered unranked
func ParseTier(s string) Tier {
	tier := Tier(strings.ToUpper(strings.TrimSpace(s)))
	for _, t := range Tiers {
		if t == tier {
			return t
		}
	}
	return Unranked
}

const (
	QueueSolo = "RANKED_SOLO_5x5"
	QueueFlex = "RANKED_FLEX_SR"
)

type Region string

// Hosts used to reach the API for a region: the platform one serves
// summoner and league data, the regional one serves accounts
type Route struct {
	Platform string `yaml:"platform"`
	Regional string `yaml:"regional"`
}

type Routes map[Region]Route

var DefaultRoutes = Routes{
	"EUW":  {Platform: "euw1", Regional: "europe"},
	"EUNE": {Platform: "eun1", Regional: "europe"},
	"TR":   {Platform: "tr1", Regional: "europe"},
	"RU":   {Platform: "ru", Regional: "europe"},
	"ME":   {Platform: "me1", Regional: "europe"},
	"NA":   {Platform: "na1", Regional: "americas"},
	"LAN":  {Platform: "la1", Regional: "americas"},
	"LAS":  {Platform: "la2", Regional: "americas"},
	"BR":   {Platform: "br1", Regional: "americas"},
	"KR":   {Platform: "kr", Regional: "asia"},
	"JP":   {Platform: "jp1", Regional: "asia"},
	"OCE":  {Platform: "oc1", Regional: "sea"},
}

func (routes Routes) Get(region Region) (Route, error) {
	route, ok := routes[region]
	if !ok {
		return Route{}, fmt.Errorf("%w: %s", ErrUnknownRegion, region)
	}
	return route, nil
}

type Account struct {
	Puuid    Puuid
	GameName string
	TagLine  string
}

func (account Account) RiotId() RiotId {
	return RiotId{GameName: account.GameName, TagLine: account.TagLine}
}

type Summoner struct {
	Puuid         Puuid
	ProfileIconId int
	SummonerLevel int64
}

type League struct {
	QueueType string
	Tier      string
	Rank      string
	Lps       int
	Wins      int
	Losses    int
	Winrate   float32
}

type Ranks struct {
	Solo Tier
	Flex Tier
}

func UnrankedRanks() Ranks {
	return Ranks{Solo: Unranked, Flex: Unranked}
}

// Pick the tiers of the two ranked queues, unranked when absent
func RanksFromLeagues(leagues []League) Ranks {
	ranks := UnrankedRanks()
	for _, league := range leagues {
		switch league.QueueType {
		case QueueSolo:
			ranks.Solo = ParseTier(league.Tier)
		case QueueFlex:
			ranks.Flex = ParseTier(league.Tier)
		}
	}
	return ranks
}
