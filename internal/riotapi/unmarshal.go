package riotapi

import (
	"encoding/json"
)

func UnmarshalAccount(data []byte) (Account, error) {

	var raw struct {
		Puuid    string
		GameName string
		TagLine  string
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return Account{}, err
	}

	return Account{Puuid: Puuid(raw.Puuid), GameName: raw.GameName, TagLine: raw.TagLine}, nil
}

func UnmarshalSummoner(data []byte) (Summoner, error) {

	var raw struct {
		Puuid         string
		ProfileIconId int
		SummonerLevel int64
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return Summoner{}, err
	}

	return Summoner{Puuid: Puuid(raw.Puuid), ProfileIconId: raw.ProfileIconId, SummonerLevel: raw.SummonerLevel}, nil
}

func UnmarshalLeagues(data []byte) ([]League, error) {

	// unmarshal
	var raw []struct {
		QueueType    string
		Tier         string
		Rank         string
		LeaguePoints int
		Wins         int
		Losses       int
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	leagues := make([]League, 0, len(raw))
	for _, r := range raw {
		league := League{QueueType: r.QueueType, Tier: r.Tier, Rank: r.Rank, Lps: r.LeaguePoints, Wins: r.Wins, Losses: r.Losses}

		// winrate
		games := league.Wins + league.Losses
		if games > 0 {
			league.Winrate = 100.0 * float32(league.Wins) / float32(games)
		}
		leagues = append(leagues, league)
	}

	return leagues, nil
}
