package accounts

import (
	"context"
	"fmt"
	"slices"

	"riotlink/internal/riotapi"
	"riotlink/internal/roles"

	"github.com/moby/locker"
	"github.com/rs/zerolog/log"
)

type RankFetcher interface {
	GetRanks(ctx context.Context, puuid riotapi.Puuid, region riotapi.Region) riotapi.Ranks
}

type RoleApplier interface {
	Apply(ctx context.Context, member roles.Member, region riotapi.Region, solo riotapi.Tier, flex riotapi.Tier) (roles.Delta, error)
	Clear(ctx context.Context, member roles.Member) (roles.Delta, error)
}

// Manager owns every change to the linked accounts. Changes for the same
// user are serialized; the role projection is reconciled after each one
type Manager struct {
	store Store
	riot  RankFetcher
	roles RoleApplier
	locks *locker.Locker
}

func NewManager(store Store, riot RankFetcher, roles RoleApplier) *Manager {
	return &Manager{store: store, riot: riot, roles: roles, locks: locker.New()}
}

func (m *Manager) load(ctx context.Context, userID string) (Accounts, error) {
	accs, err := m.store.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if Normalize(accs) {
		log.Warn().Msg(fmt.Sprintf("Repaired primary flag of the accounts of user %s", userID))
	}
	return accs, nil
}

// Accounts of a user, ErrNoAccounts if there are none
func (m *Manager) Accounts(ctx context.Context, userID string) (Accounts, error) {
	accs, err := m.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(accs) == 0 {
		return nil, ErrNoAccounts
	}
	return accs, nil
}

func (m *Manager) Primary(ctx context.Context, userID string) (int, LinkedAccount, error) {
	accs, err := m.load(ctx, userID)
	if err != nil {
		return -1, LinkedAccount{}, err
	}
	index := accs.PrimaryIndex()
	if index == -1 {
		return -1, LinkedAccount{}, ErrNoPrimary
	}
	return index, accs[index], nil
}

// Link a verified account as the new primary of the member. Linking an
// account that is already there replaces it instead of adding a duplicate
func (m *Manager) Link(ctx context.Context, member roles.Member, account LinkedAccount) (LinkedAccount, error) {
	m.locks.Lock(member.UserID)
	defer m.locks.Unlock(member.UserID)

	accs, err := m.load(ctx, member.UserID)
	if err != nil {
		return LinkedAccount{}, err
	}

	account.Primary = true
	if index := accs.IndexOf(account.Puuid); index != -1 {
		accs[index] = account
		accs.SetPrimary(index)
	} else {
		accs.SetPrimary(-1)
		accs = append(accs, account)
	}

	if err := m.store.Put(ctx, member.UserID, accs); err != nil {
		return LinkedAccount{}, err
	}
	log.Info().Msg(fmt.Sprintf("User %s linked %s (%s) as primary", member.UserID, account.RiotId, account.Region))

	m.apply(ctx, member, account)
	return account, nil
}

func (m *Manager) SetPrimary(ctx context.Context, member roles.Member, index int) (LinkedAccount, error) {
	m.locks.Lock(member.UserID)
	defer m.locks.Unlock(member.UserID)

	accs, err := m.load(ctx, member.UserID)
	if err != nil {
		return LinkedAccount{}, err
	}
	if len(accs) == 0 {
		return LinkedAccount{}, ErrNoAccounts
	}
	if index < 0 || index >= len(accs) {
		return LinkedAccount{}, fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}

	accs.SetPrimary(index)
	if err := m.store.Put(ctx, member.UserID, accs); err != nil {
		return LinkedAccount{}, err
	}
	log.Info().Msg(fmt.Sprintf("User %s switched primary to %s", member.UserID, accs[index].RiotId))

	m.apply(ctx, member, accs[index])
	return accs[index], nil
}

// Delete an account. If it was the primary one, the first remaining account
// is promoted and its roles applied; with nothing left, the managed roles
// of the member are cleared. Returns the removed and the promoted account
func (m *Manager) Delete(ctx context.Context, member roles.Member, index int) (LinkedAccount, *LinkedAccount, error) {
	m.locks.Lock(member.UserID)
	defer m.locks.Unlock(member.UserID)

	accs, err := m.load(ctx, member.UserID)
	if err != nil {
		return LinkedAccount{}, nil, err
	}
	if len(accs) == 0 {
		return LinkedAccount{}, nil, ErrNoAccounts
	}
	if index < 0 || index >= len(accs) {
		return LinkedAccount{}, nil, fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}

	removed := accs[index]
	accs = slices.Delete(accs, index, index+1)

	var promoted *LinkedAccount
	if len(accs) > 0 && accs.PrimaryIndex() == -1 {
		accs.SetPrimary(0)
		promoted = &accs[0]
	}

	if err := m.store.Put(ctx, member.UserID, accs); err != nil {
		return LinkedAccount{}, nil, err
	}
	log.Info().Msg(fmt.Sprintf("User %s deleted %s, %d accounts left", member.UserID, removed.RiotId, len(accs)))

	switch {
	case len(accs) == 0:
		if _, err := m.roles.Clear(ctx, member); err != nil {
			log.Error().Err(err).Msg(fmt.Sprintf("Could not clear roles of user %s", member.UserID))
		}
	case promoted != nil:
		m.apply(ctx, member, *promoted)
	}

	if promoted != nil {
		p := *promoted
		promoted = &p
	}
	return removed, promoted, nil
}

// Fetch the ranks of the primary account again and store them if they
// changed. The roles of the member are reconciled either way, which repairs
// an earlier failed apply and costs no role call when they are in sync.
// Returns whether the ranks changed and the primary account
func (m *Manager) Refresh(ctx context.Context, member roles.Member) (bool, LinkedAccount, error) {
	m.locks.Lock(member.UserID)
	defer m.locks.Unlock(member.UserID)

	accs, err := m.load(ctx, member.UserID)
	if err != nil {
		return false, LinkedAccount{}, err
	}
	index := accs.PrimaryIndex()
	if index == -1 {
		return false, LinkedAccount{}, ErrNoPrimary
	}

	ranks := m.riot.GetRanks(ctx, accs[index].Puuid, accs[index].Region)
	if ranks == accs[index].Ranks() {
		log.Debug().Msg(fmt.Sprintf("Ranks of %s did not change", accs[index].RiotId))
		m.apply(ctx, member, accs[index])
		return false, accs[index], nil
	}

	accs[index].SoloTier = ranks.Solo
	accs[index].FlexTier = ranks.Flex
	if err := m.store.Put(ctx, member.UserID, accs); err != nil {
		return false, LinkedAccount{}, err
	}
	log.Info().Msg(fmt.Sprintf("Ranks of %s are now %s/%s", accs[index].RiotId, ranks.Solo, ranks.Flex))

	m.apply(ctx, member, accs[index])
	return true, accs[index], nil
}

// Store new tiers for one account of a user. If the account is still the
// primary one, onPrimary runs with the new tiers before the lock of the
// user is released, so a concurrent switch of primary cannot be undone by
// it. Reports false, with no write, when the tiers are the ones already
// stored or the account is gone. The error of onPrimary is returned as is
func (m *Manager) UpdateTiers(ctx context.Context, userID string, puuid riotapi.Puuid, ranks riotapi.Ranks, onPrimary func(account LinkedAccount) error) (bool, LinkedAccount, error) {
	m.locks.Lock(userID)
	defer m.locks.Unlock(userID)

	accs, err := m.load(ctx, userID)
	if err != nil {
		return false, LinkedAccount{}, err
	}
	index := accs.IndexOf(puuid)
	if index == -1 || accs[index].Ranks() == ranks {
		return false, LinkedAccount{}, nil
	}

	accs[index].SoloTier = ranks.Solo
	accs[index].FlexTier = ranks.Flex
	if err := m.store.Put(ctx, userID, accs); err != nil {
		return false, LinkedAccount{}, err
	}

	if !accs[index].Primary {
		log.Debug().Msg(fmt.Sprintf("%s of user %s is no longer primary, its roles are left alone", accs[index].RiotId, userID))
		return true, accs[index], nil
	}
	if onPrimary != nil {
		return true, accs[index], onPrimary(accs[index])
	}
	return true, accs[index], nil
}

// Role failures are logged and do not undo the stored change. The refresh
// button reconciles the roles again even when the ranks did not move
func (m *Manager) apply(ctx context.Context, member roles.Member, account LinkedAccount) {
	if _, err := m.roles.Apply(ctx, member, account.Region, account.SoloTier, account.FlexTier); err != nil {
		log.Error().Err(err).Msg(fmt.Sprintf("Could not apply roles of %s to user %s", account.RiotId, member.UserID))
	}
}
