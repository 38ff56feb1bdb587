package accounts

import (
	"errors"

	"riotlink/internal/riotapi"
)

var (
	ErrNoAccounts      = errors.New("no linked accounts")
	ErrNoPrimary       = errors.New("no primary account")
	ErrIndexOutOfRange = errors.New("account index out of range")
)

// LinkedAccount is a Riot account proven to belong to a Discord user
type LinkedAccount struct {
	RiotId   string         `json:"riot_id"`
	Puuid    riotapi.Puuid  `json:"puuid"`
	Region   riotapi.Region `json:"region"`
	SoloTier riotapi.Tier   `json:"solo_tier"`
	FlexTier riotapi.Tier   `json:"flex_tier"`
	Primary  bool           `json:"primary"`
}

func (account LinkedAccount) Ranks() riotapi.Ranks {
	return riotapi.Ranks{Solo: account.SoloTier, Flex: account.FlexTier}
}

// Accounts of one user, in the order they were linked
type Accounts []LinkedAccount

// Index of the primary account, -1 if there is none
func (accs Accounts) PrimaryIndex() int {
	for i := range accs {
		if accs[i].Primary {
			return i
		}
	}
	return -1
}

// Make index the only primary account
func (accs Accounts) SetPrimary(index int) {
	for i := range accs {
		accs[i].Primary = i == index
	}
}

func (accs Accounts) IndexOf(puuid riotapi.Puuid) int {
	for i := range accs {
		if accs[i].Puuid == puuid {
			return i
		}
	}
	return -1
}

// Normalize repairs lists that break the primary invariant: the first
// primary wins, and a non-empty list without one promotes the first entry.
// Reports whether anything changed
func Normalize(accs Accounts) bool {
	if len(accs) == 0 {
		return false
	}
	primaries := 0
	for i := range accs {
		if accs[i].Primary {
			primaries++
		}
	}
	if primaries == 1 {
		return false
	}
	index := accs.PrimaryIndex()
	if index == -1 {
		index = 0
	}
	accs.SetPrimary(index)
	return true
}
