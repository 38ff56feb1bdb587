package bot

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"riotlink/internal/roles"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"
)

// Discord puts the Discord session behind the interfaces of the role
// reconciler, the refresh task and the log channel
type Discord struct {
	session      *discordgo.Session
	logChannelId string
}

func NewDiscord(session *discordgo.Session, logChannelId string) *Discord {
	return &Discord{session: session, logChannelId: logChannelId}
}

func (d *Discord) RoleExists(guildID, roleID string) bool {
	if _, err := d.session.State.Role(guildID, roleID); err == nil {
		return true
	}
	roles, err := d.session.GuildRoles(guildID)
	if err != nil {
		log.Warn().Msg(fmt.Sprintf("Could not list roles of guild %s: %s", guildID, err))
		return false
	}
	for _, role := range roles {
		if role.ID == roleID {
			return true
		}
	}
	return false
}

func (d *Discord) AddRole(ctx context.Context, guildID, userID, roleID string) error {
	return d.session.GuildMemberRoleAdd(guildID, userID, roleID, discordgo.WithContext(ctx))
}

func (d *Discord) RemoveRole(ctx context.Context, guildID, userID, roleID string) error {
	return d.session.GuildMemberRoleRemove(guildID, userID, roleID, discordgo.WithContext(ctx))
}

// Memberships of the user in every guild the bot is in
func (d *Discord) MemberGuilds(ctx context.Context, userID string) ([]roles.Member, error) {
	var members []roles.Member
	for _, guild := range d.session.State.Guilds {
		member, err := d.session.GuildMember(guild.ID, userID, discordgo.WithContext(ctx))
		if isNotFound(err) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("could not get member %s of guild %s: %w", userID, guild.ID, err)
		}
		members = append(members, roles.Member{GuildID: guild.ID, UserID: userID, Roles: member.Roles})
	}
	return members, nil
}

func isNotFound(err error) bool {
	var restErr *discordgo.RESTError
	return errors.As(err, &restErr) && restErr.Response != nil && restErr.Response.StatusCode == http.StatusNotFound
}

// Post a line in the log channel, if there is one
func (d *Discord) Notify(ctx context.Context, message string) {
	if d.logChannelId == "" {
		return
	}
	if _, err := d.session.ChannelMessageSend(d.logChannelId, message, discordgo.WithContext(ctx)); err != nil {
		log.Error().Err(err).Msg(fmt.Sprintf("Could not post to log channel %s", d.logChannelId))
	}
}
