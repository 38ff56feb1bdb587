package bot

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// Modal asked from the user instead of a message
type Modal struct {
	CustomId   string
	Title      string
	Components []discordgo.MessageComponent
}

// Response to one interaction
type Response struct {
	Content    string
	Embeds     []*discordgo.MessageEmbed
	Components []discordgo.MessageComponent
	// Only visible to the user that interacted
	Ephemeral bool
	// Edit the message holding the control instead of sending a new one
	Update bool
	Modal  *Modal
	// Plain message posted to the channel once the interaction is answered
	Announce string
}

func ResponseString(content string) Response {
	return Response{Content: content, Ephemeral: true}
}

func ResponseEmbed(embed *discordgo.MessageEmbed, components ...discordgo.MessageComponent) Response {
	return Response{Embeds: []*discordgo.MessageEmbed{embed}, Components: components, Ephemeral: true}
}

// Same response, editing the message of the control
func (response Response) Updating() Response {
	response.Update = true
	return response
}

func (response Response) Public() Response {
	response.Ephemeral = false
	return response
}

func (response Response) interactionResponse() *discordgo.InteractionResponse {

	if response.Modal != nil {
		return &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseModal,
			Data: &discordgo.InteractionResponseData{
				CustomID:   response.Modal.CustomId,
				Title:      response.Modal.Title,
				Components: response.Modal.Components,
			},
		}
	}

	data := &discordgo.InteractionResponseData{
		Content:    response.Content,
		Embeds:     response.Embeds,
		Components: response.Components,
	}
	if response.Update {
		// An empty list removes the controls of the edited message
		if data.Components == nil {
			data.Components = []discordgo.MessageComponent{}
		}
		if data.Embeds == nil {
			data.Embeds = []*discordgo.MessageEmbed{}
		}
		return &discordgo.InteractionResponse{Type: discordgo.InteractionResponseUpdateMessage, Data: data}
	}
	if response.Ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}
	return &discordgo.InteractionResponse{Type: discordgo.InteractionResponseChannelMessageWithSource, Data: data}
}

// How an interaction is acknowledged before its handler runs. Discord
// drops interactions left unanswered for three seconds
const (
	DEFER_NONE = iota
	DEFER_MESSAGE
	DEFER_UPDATE
)

// Acknowledgement sent before a slow handler runs. A deferred message is
// always ephemeral since every slow handler answers privately
func deferredResponse(deferral int) *discordgo.InteractionResponse {
	switch deferral {
	case DEFER_MESSAGE:
		return &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
			Data: &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral},
		}
	case DEFER_UPDATE:
		return &discordgo.InteractionResponse{Type: discordgo.InteractionResponseDeferredMessageUpdate}
	default:
		panic(fmt.Sprintf("deferral %d is not one of the possible ones", deferral))
	}
}

// The response as an edit of the deferred message, or of the message of
// the control after a deferred update
func (response Response) webhookEdit() *discordgo.WebhookEdit {
	content := response.Content
	embeds := response.Embeds
	if embeds == nil {
		embeds = []*discordgo.MessageEmbed{}
	}
	components := response.Components
	if components == nil {
		components = []discordgo.MessageComponent{}
	}
	return &discordgo.WebhookEdit{Content: &content, Embeds: &embeds, Components: &components}
}

// The response as a new message after a deferred update
func (response Response) followup() *discordgo.WebhookParams {
	params := &discordgo.WebhookParams{
		Content:    response.Content,
		Embeds:     response.Embeds,
		Components: response.Components,
	}
	if response.Ephemeral {
		params.Flags = discordgo.MessageFlagsEphemeral
	}
	return params
}
