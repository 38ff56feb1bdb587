package verification

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"

	"riotlink/internal/accounts"
	"riotlink/internal/common"
	"riotlink/internal/riotapi"
	"riotlink/internal/roles"

	"github.com/rs/zerolog/log"
)

var (
	ErrInvalidIdentity       = errors.New("riot id not found")
	ErrNoPendingVerification = errors.New("no pending verification")
	ErrNotFlowOwner          = errors.New("verification belongs to another user")
	ErrUpstreamUnavailable   = errors.New("could not reach riot api")
	ErrOwnershipMismatch     = errors.New("profile icon does not match the challenge")
	ErrNoChallenge           = errors.New("no challenge icon differs from the current one")
)

type Riot interface {
	GetAccount(ctx context.Context, riotid riotapi.RiotId, region riotapi.Region) (riotapi.Account, error)
	GetSummoner(ctx context.Context, puuid riotapi.Puuid, region riotapi.Region) (riotapi.Summoner, error)
	GetRanks(ctx context.Context, puuid riotapi.Puuid, region riotapi.Region) riotapi.Ranks
}

type Linker interface {
	Link(ctx context.Context, member roles.Member, account accounts.LinkedAccount) (accounts.LinkedAccount, error)
}

// Challenger picks the icon a user must set to prove ownership. It must
// not be the icon the account already shows
type Challenger func(userID string, puuid riotapi.Puuid, current int) int

// Always the same icon for the same user and account, taken from the pool.
// When that is the current icon of the account the next one is used
func HashChallenger(icons []int) Challenger {
	return func(userID string, puuid riotapi.Puuid, current int) int {
		if len(icons) == 0 {
			return 0
		}
		h := fnv.New32a()
		h.Write([]byte(userID + "/" + string(puuid)))
		index := int(h.Sum32() % uint32(len(icons)))
		for range icons {
			if icons[index] != current {
				break
			}
			index = (index + 1) % len(icons)
		}
		return icons[index]
	}
}

type Flow struct {
	riot      Riot
	linker    Linker
	pending   *PendingStore
	challenge Challenger
	metrics   *common.Metrics
}

func NewFlow(riot Riot, linker Linker, pending *PendingStore, challenge Challenger, metrics *common.Metrics) *Flow {
	return &Flow{riot: riot, linker: linker, pending: pending, challenge: challenge, metrics: metrics}
}

func (flow *Flow) Pending() *PendingStore {
	return flow.pending
}

// Begin a verification: check the riot id exists in the region and hand
// out the icon challenge. Replaces any earlier verification of the user
func (flow *Flow) Begin(ctx context.Context, userID string, riotid riotapi.RiotId, region riotapi.Region) (Pending, error) {

	account, err := flow.riot.GetAccount(ctx, riotid, region)
	if err != nil {
		log.Info().Msg(fmt.Sprintf("User %s claimed unknown riot id %s in %s", userID, riotid, region))
		flow.metrics.Verification("invalid_identity")
		return Pending{}, fmt.Errorf("%w: %s", ErrInvalidIdentity, err)
	}

	// The challenge has to differ from the icon shown now, or the claim
	// would pass without any action of the owner
	summoner, err := flow.riot.GetSummoner(ctx, account.Puuid, region)
	if err != nil {
		log.Warn().Msg(fmt.Sprintf("Could not read the current icon of %s: %s", riotid, err))
		flow.metrics.Verification("upstream_unavailable")
		return Pending{}, fmt.Errorf("%w: %s", ErrUpstreamUnavailable, err)
	}
	icon := flow.challenge(userID, account.Puuid, summoner.ProfileIconId)
	if icon == summoner.ProfileIconId {
		log.Error().Msg(fmt.Sprintf("Challenge icon %d of user %s is already set on %s", icon, userID, riotid))
		flow.metrics.Verification("no_challenge")
		return Pending{}, ErrNoChallenge
	}

	pending := flow.pending.Put(Pending{
		UserID: userID,
		RiotId: riotid,
		Puuid:  account.Puuid,
		Region: region,
		IconId: icon,
	})
	log.Info().Msg(fmt.Sprintf("User %s must set icon %d on %s", userID, pending.IconId, riotid))
	flow.metrics.Verification("started")

	return pending, nil
}

// Confirm that the owner of the flow has set the challenge icon. Only the
// owner may confirm. A mismatch or an unreachable API keeps the
// verification pending so the user can retry
func (flow *Flow) Confirm(ctx context.Context, ownerID string, actor roles.Member) (accounts.LinkedAccount, error) {
	if actor.UserID != ownerID {
		log.Warn().Msg(fmt.Sprintf("User %s tried to confirm the verification of user %s", actor.UserID, ownerID))
		flow.metrics.Verification("not_owner")
		return accounts.LinkedAccount{}, ErrNotFlowOwner
	}

	pending, ok := flow.pending.Get(ownerID)
	if !ok {
		flow.metrics.Verification("expired")
		return accounts.LinkedAccount{}, ErrNoPendingVerification
	}

	summoner, err := flow.riot.GetSummoner(ctx, pending.Puuid, pending.Region)
	if err != nil {
		flow.metrics.Verification("upstream_unavailable")
		return accounts.LinkedAccount{}, fmt.Errorf("%w: %s", ErrUpstreamUnavailable, err)
	}
	if summoner.ProfileIconId != pending.IconId {
		log.Info().Msg(fmt.Sprintf("User %s has icon %d, expected %d", ownerID, summoner.ProfileIconId, pending.IconId))
		flow.metrics.Verification("mismatch")
		return accounts.LinkedAccount{}, fmt.Errorf("%w: found %d, expected %d", ErrOwnershipMismatch, summoner.ProfileIconId, pending.IconId)
	}

	ranks := flow.riot.GetRanks(ctx, pending.Puuid, pending.Region)
	linked, err := flow.linker.Link(ctx, actor, accounts.LinkedAccount{
		RiotId:   pending.RiotId.String(),
		Puuid:    pending.Puuid,
		Region:   pending.Region,
		SoloTier: ranks.Solo,
		FlexTier: ranks.Flex,
	})
	if err != nil {
		flow.metrics.Verification("store_error")
		return accounts.LinkedAccount{}, err
	}

	flow.pending.Delete(ownerID)
	flow.metrics.Verification("verified")
	return linked, nil
}

// Abandon the verification of the owner. Other users cannot cancel it
func (flow *Flow) Cancel(ownerID string, actorID string) error {
	if actorID != ownerID {
		return ErrNotFlowOwner
	}
	flow.pending.Delete(ownerID)
	return nil
}
