package bot

import (
	"context"
	"fmt"

	"riotlink/internal/roles"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"
)

// How far back the panel channel is searched for an earlier panel
const panelLookback = 50

type Bot struct {
	session        *discordgo.Session
	handlers       *Handlers
	guildId        string
	panelChannelId string
	ctx            context.Context
	commands       []*discordgo.ApplicationCommand
}

func NewSession(token string) (*discordgo.Session, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("could not create discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMembers | discordgo.IntentsGuildMessages
	session.SyncEvents = false
	return session, nil
}

func NewBot(session *discordgo.Session, handlers *Handlers, guildId string, panelChannelId string) *Bot {
	return &Bot{
		session:        session,
		handlers:       handlers,
		guildId:        guildId,
		panelChannelId: panelChannelId,
	}
}

func Commands() []*discordgo.ApplicationCommand {
	manageServer := int64(discordgo.PermissionManageServer)
	return []*discordgo.ApplicationCommand{
		{
			Name:        COMMAND_DUO,
			Description: "Buscar compañero para DuoQ",
		},
		{
			Name:                     COMMAND_PANEL,
			Description:              "Publicar el panel de vinculación de cuentas",
			DefaultMemberPermissions: &manageServer,
		},
	}
}

// Run the bot until the context is done
func (bot *Bot) Run(ctx context.Context) error {

	bot.ctx = ctx
	bot.session.AddHandler(bot.ready)
	bot.session.AddHandler(bot.receive)

	if err := bot.session.Open(); err != nil {
		return fmt.Errorf("could not open discord session: %w", err)
	}
	defer bot.session.Close()

	<-ctx.Done()
	log.Info().Msg("Disconnecting from Discord")
	bot.removeCommands()
	return nil
}

func (bot *Bot) ready(s *discordgo.Session, r *discordgo.Ready) {

	log.Info().Msg(fmt.Sprintf("Connected as %s to %d guilds", r.User.Username, len(r.Guilds)))

	for _, cmd := range Commands() {
		registered, err := s.ApplicationCommandCreate(r.User.ID, bot.guildId, cmd)
		if err != nil {
			log.Error().Err(err).Msg(fmt.Sprintf("Could not register command %s", cmd.Name))
			continue
		}
		bot.commands = append(bot.commands, registered)
	}

	if bot.panelChannelId != "" {
		bot.postPanel(s, r.User.ID)
	}
}

// Post the panel unless one of the last messages of the channel already is
func (bot *Bot) postPanel(s *discordgo.Session, botId string) {

	messages, err := s.ChannelMessages(bot.panelChannelId, panelLookback, "", "", "")
	if err != nil {
		log.Error().Err(err).Msg(fmt.Sprintf("Could not read panel channel %s", bot.panelChannelId))
		return
	}
	for _, message := range messages {
		if message.Author != nil && message.Author.ID == botId && IsPanel(message) {
			log.Debug().Msg("Panel already posted")
			return
		}
	}

	if _, err := s.ChannelMessageSendComplex(bot.panelChannelId, &discordgo.MessageSend{
		Embeds:     []*discordgo.MessageEmbed{PanelEmbed()},
		Components: PanelComponents(),
	}); err != nil {
		log.Error().Err(err).Msg(fmt.Sprintf("Could not post panel to channel %s", bot.panelChannelId))
		return
	}
	log.Info().Msg(fmt.Sprintf("Posted panel to channel %s", bot.panelChannelId))
}

func (bot *Bot) removeCommands() {
	for _, cmd := range bot.commands {
		if err := bot.session.ApplicationCommandDelete(cmd.ApplicationID, bot.guildId, cmd.ID); err != nil {
			log.Warn().Msg(fmt.Sprintf("Could not remove command %s: %s", cmd.Name, err))
		}
	}
}

func (bot *Bot) receive(s *discordgo.Session, i *discordgo.InteractionCreate) {

	// Only guild interactions carry the roles the bot works with
	if i.Member == nil {
		log.Debug().Msg("Ignoring interaction outside a guild")
		return
	}

	in, ok := Translate(i)
	if !ok {
		return
	}
	ctx := bot.ctx
	if ctx == nil {
		ctx = context.Background()
	}

	deferral := Deferral(in)
	if deferral != DEFER_NONE {
		if err := s.InteractionRespond(i.Interaction, deferredResponse(deferral)); err != nil {
			log.Error().Err(err).Msg(fmt.Sprintf("Could not acknowledge interaction of user %s", in.Member.UserID))
			return
		}
	}

	response := bot.handlers.Handle(ctx, in)
	if err := bot.answer(s, i.Interaction, deferral, response); err != nil {
		log.Error().Err(err).Msg(fmt.Sprintf("Could not answer interaction of user %s", in.Member.UserID))
		return
	}
	if response.Announce != "" {
		if _, err := s.ChannelMessageSend(i.ChannelID, response.Announce); err != nil {
			log.Error().Err(err).Msg(fmt.Sprintf("Could not announce in channel %s", i.ChannelID))
		}
	}
}

// Send the response, through the interaction webhook if it was deferred
func (bot *Bot) answer(s *discordgo.Session, interaction *discordgo.Interaction, deferral int, response Response) error {
	var err error
	switch {
	case deferral == DEFER_NONE:
		err = s.InteractionRespond(interaction, response.interactionResponse())
	case deferral == DEFER_UPDATE && !response.Update:
		// Errors after a deferred update go to a new message, the control stays
		_, err = s.FollowupMessageCreate(interaction, true, response.followup())
	default:
		_, err = s.InteractionResponseEdit(interaction, response.webhookEdit())
	}
	return err
}

// Translate a guild interaction into what the handlers understand
func Translate(i *discordgo.InteractionCreate) (Interaction, bool) {

	in := Interaction{
		Member: roles.Member{
			GuildID: i.GuildID,
			UserID:  i.Member.User.ID,
			Roles:   i.Member.Roles,
		},
		ChannelID:   i.ChannelID,
		DisplayName: displayName(i.Member),
		AvatarUrl:   i.Member.User.AvatarURL(""),
	}

	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		in.Kind = INTERACTION_COMMAND
		in.Command = i.ApplicationCommandData().Name
	case discordgo.InteractionMessageComponent:
		data := i.MessageComponentData()
		in.Kind = INTERACTION_COMPONENT
		in.CustomId = data.CustomID
		in.Values = data.Values
	case discordgo.InteractionModalSubmit:
		data := i.ModalSubmitData()
		in.Kind = INTERACTION_MODAL
		in.CustomId = data.CustomID
		in.Inputs = textInputs(data.Components)
	default:
		return Interaction{}, false
	}
	return in, true
}

func displayName(member *discordgo.Member) string {
	if member.Nick != "" {
		return member.Nick
	}
	if member.User.GlobalName != "" {
		return member.User.GlobalName
	}
	return member.User.Username
}

// Values of the text inputs of a submitted modal, by custom id
func textInputs(components []discordgo.MessageComponent) map[string]string {
	inputs := make(map[string]string)
	for _, component := range components {
		row, ok := component.(*discordgo.ActionsRow)
		if !ok {
			continue
		}
		for _, c := range row.Components {
			if input, ok := c.(*discordgo.TextInput); ok {
				inputs[input.CustomID] = input.Value
			}
		}
	}
	return inputs
}
