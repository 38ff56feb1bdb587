package roles

import (
	"context"
	"fmt"
	"slices"

	"riotlink/internal/common"
	"riotlink/internal/riotapi"

	"github.com/rs/zerolog/log"
)

// Member of a guild as far as roles are concerned
type Member struct {
	GuildID string
	UserID  string
	Roles   []string
}

// Guild is what the reconciler needs from the chat platform
type Guild interface {
	RoleExists(guildID, roleID string) bool
	AddRole(ctx context.Context, guildID, userID, roleID string) error
	RemoveRole(ctx context.Context, guildID, userID, roleID string) error
}

// Role ids under the exclusive control of the bot
type Table struct {
	Regions map[riotapi.Region]string
	Solo    map[riotapi.Tier]string
	Flex    map[riotapi.Tier]string
}

func (table Table) Managed() map[string]struct{} {
	managed := make(map[string]struct{})
	for _, ids := range []map[string]struct{}{set(table.Regions), set(table.Solo), set(table.Flex)} {
		for id := range ids {
			managed[id] = struct{}{}
		}
	}
	return managed
}

// Region whose role the member holds, if any
func (table Table) RegionOf(member Member) (riotapi.Region, bool) {
	for region, roleID := range table.Regions {
		if roleID != "" && slices.Contains(member.Roles, roleID) {
			return region, true
		}
	}
	return "", false
}

func set[K comparable](m map[K]string) map[string]struct{} {
	s := make(map[string]struct{}, len(m))
	for _, id := range m {
		if id != "" {
			s[id] = struct{}{}
		}
	}
	return s
}

// Roles added and removed by one reconciliation
type Delta struct {
	Add    []string
	Remove []string
}

func (delta Delta) Empty() bool {
	return len(delta.Add) == 0 && len(delta.Remove) == 0
}

type Reconciler struct {
	guild   Guild
	table   Table
	metrics *common.Metrics
}

func NewReconciler(guild Guild, table Table, metrics *common.Metrics) *Reconciler {
	return &Reconciler{guild: guild, table: table, metrics: metrics}
}

// Bring the managed roles of the member in line with the region and tiers.
// Only the difference is applied, so repeating a call changes nothing
func (r *Reconciler) Apply(ctx context.Context, member Member, region riotapi.Region, solo riotapi.Tier, flex riotapi.Tier) (Delta, error) {

	desired := make(map[string]struct{})
	for _, id := range []string{r.table.Regions[region], r.table.Solo[solo], r.table.Flex[flex]} {
		if id == "" || !r.guild.RoleExists(member.GuildID, id) {
			continue
		}
		desired[id] = struct{}{}
	}
	return r.reconcile(ctx, member, desired)
}

// Remove every managed role from the member
func (r *Reconciler) Clear(ctx context.Context, member Member) (Delta, error) {
	return r.reconcile(ctx, member, map[string]struct{}{})
}

func (r *Reconciler) reconcile(ctx context.Context, member Member, desired map[string]struct{}) (Delta, error) {

	managed := r.table.Managed()
	current := make(map[string]struct{})
	for _, id := range member.Roles {
		if _, ok := managed[id]; ok {
			current[id] = struct{}{}
		}
	}

	var delta Delta
	for id := range current {
		if _, ok := desired[id]; !ok {
			delta.Remove = append(delta.Remove, id)
		}
	}
	for id := range desired {
		if _, ok := current[id]; !ok {
			delta.Add = append(delta.Add, id)
		}
	}
	slices.Sort(delta.Remove)
	slices.Sort(delta.Add)

	if delta.Empty() {
		log.Debug().Msg(fmt.Sprintf("Roles of user %s in guild %s already up to date", member.UserID, member.GuildID))
		return delta, nil
	}

	// Remove first, then add. Keep going after a failure so that one
	// missing permission does not leave the rest untouched
	var firstErr error
	removed, added := 0, 0
	for _, id := range delta.Remove {
		if err := r.guild.RemoveRole(ctx, member.GuildID, member.UserID, id); err != nil {
			log.Error().Err(err).Msg(fmt.Sprintf("Could not remove role %s from user %s", id, member.UserID))
			if firstErr == nil {
				firstErr = fmt.Errorf("remove role %s: %w", id, err)
			}
			continue
		}
		removed++
	}
	for _, id := range delta.Add {
		if err := r.guild.AddRole(ctx, member.GuildID, member.UserID, id); err != nil {
			log.Error().Err(err).Msg(fmt.Sprintf("Could not add role %s to user %s", id, member.UserID))
			if firstErr == nil {
				firstErr = fmt.Errorf("add role %s: %w", id, err)
			}
			continue
		}
		added++
	}
	r.metrics.RoleChange("remove", removed)
	r.metrics.RoleChange("add", added)
	log.Info().Msg(fmt.Sprintf("Roles of user %s in guild %s: +%v -%v", member.UserID, member.GuildID, delta.Add, delta.Remove))

	return delta, firstErr
}
