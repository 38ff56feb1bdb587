package refresh

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"riotlink/internal/accounts"
	"riotlink/internal/common"
	"riotlink/internal/riotapi"
	"riotlink/internal/roles"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type RankFetcher interface {
	GetRanks(ctx context.Context, puuid riotapi.Puuid, region riotapi.Region) riotapi.Ranks
}

type TierUpdater interface {
	UpdateTiers(ctx context.Context, userID string, puuid riotapi.Puuid, ranks riotapi.Ranks, onPrimary func(account accounts.LinkedAccount) error) (bool, accounts.LinkedAccount, error)
}

type RoleApplier interface {
	Apply(ctx context.Context, member roles.Member, region riotapi.Region, solo riotapi.Tier, flex riotapi.Tier) (roles.Delta, error)
}

// Members finds every guild membership of a user
type Members interface {
	MemberGuilds(ctx context.Context, userID string) ([]roles.Member, error)
}

// Notifier announces rank changes, usually in the log channel
type Notifier interface {
	Notify(ctx context.Context, message string)
}

type Config struct {
	Interval time.Duration // time between two full runs
	Tick     time.Duration // how often the loop checks whether a run is due
	Delay    time.Duration // pause between two accounts
}

type Report struct {
	RunID   uuid.UUID
	Checked int
	Changed int
	Failed  int
}

func (r Report) String() string {
	return fmt.Sprintf("run %s: %d checked, %d changed, %d failed", r.RunID, r.Checked, r.Changed, r.Failed)
}

// Job periodically brings the tiers of every primary account, and the roles
// derived from them, up to date
type Job struct {
	config   Config
	store    accounts.Store
	riot     RankFetcher
	updater  TierUpdater
	roles    RoleApplier
	members  Members
	notifier Notifier
	clock    common.Clock
	metrics  *common.Metrics
	executor common.TimedExecutor

	mu   sync.Mutex
	last Report
}

func NewJob(config Config, store accounts.Store, riot RankFetcher, updater TierUpdater, roles RoleApplier, members Members, notifier Notifier, clock common.Clock, metrics *common.Metrics) *Job {
	job := &Job{
		config:   config,
		store:    store,
		riot:     riot,
		updater:  updater,
		roles:    roles,
		members:  members,
		notifier: notifier,
		clock:    clock,
		metrics:  metrics,
	}
	job.executor = common.NewTimedExecutor(config.Interval, clock, job.run)
	return job
}

// Run until the context is done. The first run happens straight away
func (job *Job) Run(ctx context.Context) {
	log.Info().Msg(fmt.Sprintf("Refreshing ranks every %s", job.config.Interval))
	for {
		if !job.Tick(ctx) {
			log.Debug().Msg(fmt.Sprintf("Next rank refresh in %s", job.executor.Remaining().Round(time.Second)))
		}
		if err := common.Sleep(ctx, job.clock, job.config.Tick); err != nil {
			log.Info().Msg("Stopping rank refresh")
			return
		}
	}
}

// Run the refresh if it is due, reporting whether it ran
func (job *Job) Tick(ctx context.Context) bool {
	return job.executor.Execute(ctx)
}

// Report of the last completed run
func (job *Job) Last() Report {
	job.mu.Lock()
	defer job.mu.Unlock()
	return job.last
}

func (job *Job) run(ctx context.Context) {
	report := job.RunOnce(ctx)
	job.mu.Lock()
	job.last = report
	job.mu.Unlock()
}

type target struct {
	userID  string
	account accounts.LinkedAccount
}

// Visit every primary account once
func (job *Job) RunOnce(ctx context.Context) Report {
	report := Report{RunID: uuid.New()}
	data, err := job.store.Load(ctx)
	if err != nil {
		log.Error().Err(err).Msg(fmt.Sprintf("Refresh %s could not load the accounts", report.RunID))
		return report
	}

	userIDs := make([]string, 0, len(data))
	for userID := range data {
		userIDs = append(userIDs, userID)
	}
	slices.Sort(userIDs)

	var targets []target
	for _, userID := range userIDs {
		accs := data[userID]
		accounts.Normalize(accs)
		if index := accs.PrimaryIndex(); index != -1 {
			targets = append(targets, target{userID, accs[index]})
		}
	}
	log.Debug().Msg(fmt.Sprintf("Refresh %s visiting %d primary accounts", report.RunID, len(targets)))

	for i, t := range targets {
		if i > 0 {
			if err := common.Sleep(ctx, job.clock, job.config.Delay); err != nil {
				break
			}
		} else if ctx.Err() != nil {
			break
		}

		report.Checked++
		changed, err := job.refresh(ctx, t)
		switch {
		case err != nil:
			report.Failed++
			job.metrics.Refreshed("failed")
			log.Error().Err(err).Msg(fmt.Sprintf("Could not refresh %s of user %s", t.account.RiotId, t.userID))
		case changed:
			report.Changed++
			job.metrics.Refreshed("changed")
		default:
			job.metrics.Refreshed("unchanged")
		}
	}

	log.Info().Msg(fmt.Sprintf("Refresh finished, %s", report))
	return report
}

// Refresh one account. A panic in here is turned into an error so the
// remaining accounts are still visited
func (job *Job) refresh(ctx context.Context, t target) (changed bool, err error) {

	defer func() {
		if r := recover(); r != nil {
			changed = false
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	ranks := job.riot.GetRanks(ctx, t.account.Puuid, t.account.Region)
	if ranks == t.account.Ranks() {
		return false, nil
	}

	changed, account, err := job.updater.UpdateTiers(ctx, t.userID, t.account.Puuid, ranks, func(account accounts.LinkedAccount) error {
		return job.applyRoles(ctx, t.userID, account)
	})
	if !changed {
		return false, err
	}
	log.Info().Msg(fmt.Sprintf("Ranks of %s went from %s/%s to %s/%s", account.RiotId, t.account.SoloTier, t.account.FlexTier, ranks.Solo, ranks.Flex))

	if job.notifier != nil {
		job.notifier.Notify(ctx, fmt.Sprintf("<@%s> %s is now %s in solo and %s in flex", t.userID, account.RiotId, account.SoloTier, account.FlexTier))
	}
	return true, err
}

// Apply the tiers of the primary account in every guild of the user,
// returning the first failure
func (job *Job) applyRoles(ctx context.Context, userID string, account accounts.LinkedAccount) error {
	members, err := job.members.MemberGuilds(ctx, userID)
	if err != nil {
		return fmt.Errorf("could not list guilds of user %s: %w", userID, err)
	}
	var roleErr error
	for _, member := range members {
		if _, err := job.roles.Apply(ctx, member, account.Region, account.SoloTier, account.FlexTier); err != nil && roleErr == nil {
			roleErr = err
		}
	}
	return roleErr
}
