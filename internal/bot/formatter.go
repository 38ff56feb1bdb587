package bot

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"riotlink/internal/accounts"
	"riotlink/internal/duo"
	"riotlink/internal/riotapi"
	"riotlink/internal/verification"

	"github.com/bwmarrin/discordgo"
)

// Use "teal" color for the bot
const color int = 0x008080

// Blurple for duo posts
const duoColor int = 0x5865F2

const ddragonIconUrl = "https://ddragon.leagueoflegends.com/cdn/%s/img/profileicon/%d.png"

func ProfileIconUrl(version string, iconId int) string {
	return fmt.Sprintf(ddragonIconUrl, version, iconId)
}

func button(label string, style discordgo.ButtonStyle, customId string) discordgo.Button {
	return discordgo.Button{Label: label, Style: style, CustomID: customId}
}

func row(components ...discordgo.MessageComponent) discordgo.ActionsRow {
	return discordgo.ActionsRow{Components: components}
}

func PanelEmbed() *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "🔗 Vincular cuenta de League of Legends",
		Description: "Vincula tu Riot ID para recibir automáticamente los roles de región y rango.",
		Color:       color,
		Footer:      &discordgo.MessageEmbedFooter{Text: "Los rangos se actualizan solos cada pocas horas"},
	}
}

func PanelComponents() []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		row(
			button("Vincular cuenta", discordgo.SuccessButton, CustomId(COMPONENT_PANEL_LINK, "")),
			button("Mis cuentas", discordgo.SecondaryButton, CustomId(COMPONENT_PANEL_ACCOUNTS, "")),
			button("Cambiar principal", discordgo.PrimaryButton, CustomId(COMPONENT_PANEL_PRIMARY, "")),
			button("Eliminar cuenta", discordgo.DangerButton, CustomId(COMPONENT_PANEL_DELETE, "")),
			button("Actualizar rango", discordgo.SecondaryButton, CustomId(COMPONENT_PANEL_REFRESH, "")),
		),
	}
}

func Panel() Response {
	return ResponseEmbed(PanelEmbed(), PanelComponents()...).Public()
}

// Tell whether a message is the panel
func IsPanel(message *discordgo.Message) bool {
	for _, embed := range message.Embeds {
		if embed.Title == PanelEmbed().Title {
			return true
		}
	}
	return false
}

func LinkModal() Response {
	return Response{Modal: &Modal{
		CustomId: CustomId(COMPONENT_LINK_MODAL, ""),
		Title:    "Vincular cuenta",
		Components: []discordgo.MessageComponent{
			row(discordgo.TextInput{
				CustomID:    riotIdInput,
				Label:       "Riot ID",
				Style:       discordgo.TextInputShort,
				Placeholder: "Nombre#TAG",
				Required:    true,
				MinLength:   3,
				MaxLength:   40,
			}),
		},
	}}
}

func RegionSelect(token string, riotid riotapi.RiotId, regions []riotapi.Region) Response {
	options := make([]discordgo.SelectMenuOption, 0, len(regions))
	for _, region := range regions {
		options = append(options, discordgo.SelectMenuOption{Label: string(region), Value: string(region)})
	}
	return Response{
		Content: fmt.Sprintf("¿En qué región juega **%s**?", riotid),
		Components: []discordgo.MessageComponent{
			row(discordgo.SelectMenu{
				CustomID:    CustomId(COMPONENT_LINK_REGION, token),
				Placeholder: "Selecciona región",
				Options:     options,
			}),
		},
		Ephemeral: true,
	}
}

func Challenge(pending verification.Pending, ddragonVersion string) Response {
	embed := &discordgo.MessageEmbed{
		Title: fmt.Sprintf("Verifica %s (%s)", pending.RiotId, pending.Region),
		Description: "Pon este icono de perfil en tu cuenta y pulsa **Confirmar**.\n" +
			fmt.Sprintf("Icono número **%d**.", pending.IconId),
		Color: color,
		Image: &discordgo.MessageEmbedImage{URL: ProfileIconUrl(ddragonVersion, pending.IconId)},
	}
	return ResponseEmbed(embed,
		row(
			button("Confirmar", discordgo.SuccessButton, CustomId(COMPONENT_VERIFY_CONFIRM, pending.UserID)),
			button("Cancelar", discordgo.DangerButton, CustomId(COMPONENT_VERIFY_CANCEL, pending.UserID)),
		),
	)
}

func AccountLine(account accounts.LinkedAccount) string {
	return fmt.Sprintf("%s (%s) · Solo %s · Flex %s", account.RiotId, account.Region, account.SoloTier, account.FlexTier)
}

func Linked(account accounts.LinkedAccount) Response {
	embed := &discordgo.MessageEmbed{
		Title:       "✅ Cuenta vinculada",
		Description: AccountLine(account),
		Color:       color,
		Footer:      &discordgo.MessageEmbedFooter{Text: "Es tu cuenta principal"},
	}
	return ResponseEmbed(embed)
}

func AccountList(accs accounts.Accounts) Response {
	lines := make([]string, 0, len(accs))
	for i, account := range accs {
		marker := "▫️"
		if account.Primary {
			marker = "★"
		}
		lines = append(lines, fmt.Sprintf("%d. %s %s", i+1, marker, AccountLine(account)))
	}
	embed := &discordgo.MessageEmbed{
		Title:       "Tus cuentas",
		Description: strings.Join(lines, "\n"),
		Color:       color,
		Footer:      &discordgo.MessageEmbedFooter{Text: "★ cuenta principal"},
	}
	return ResponseEmbed(embed)
}

// Ephemeral select of the accounts, the value of each option is its index
func AccountSelect(comp int, owner string, placeholder string, accs accounts.Accounts) Response {
	options := make([]discordgo.SelectMenuOption, 0, len(accs))
	for i, account := range accs {
		options = append(options, discordgo.SelectMenuOption{
			Label:       account.RiotId,
			Value:       strconv.Itoa(i),
			Description: fmt.Sprintf("%s · Solo %s", account.Region, account.SoloTier),
			Default:     account.Primary && comp == COMPONENT_PRIMARY_SELECT,
		})
	}
	return Response{
		Components: []discordgo.MessageComponent{
			row(discordgo.SelectMenu{CustomID: CustomId(comp, owner), Placeholder: placeholder, Options: options}),
		},
		Ephemeral: true,
	}
}

func PrimaryChanged(account accounts.LinkedAccount) Response {
	return ResponseString(fmt.Sprintf("★ Cuenta principal: %s", AccountLine(account)))
}

func AccountDeleted(removed accounts.LinkedAccount, promoted *accounts.LinkedAccount, left int) Response {
	content := fmt.Sprintf("🗑️ Eliminada %s.", removed.RiotId)
	switch {
	case promoted != nil:
		content += fmt.Sprintf("\n★ Nueva cuenta principal: %s", AccountLine(*promoted))
	case left == 0:
		content += "\nYa no tienes cuentas vinculadas, se han retirado tus roles."
	}
	return ResponseString(content)
}

func RefreshResult(changed bool, account accounts.LinkedAccount) Response {
	if !changed {
		return ResponseString(fmt.Sprintf("Sin cambios: %s", AccountLine(account)))
	}
	return ResponseString(fmt.Sprintf("🔄 Rango actualizado: %s", AccountLine(account)))
}

func Cancelled() Response {
	return ResponseString("Verificación cancelada.")
}

func LinkedLogLine(userID string, account accounts.LinkedAccount) string {
	return fmt.Sprintf("🔗 <@%s> vinculó %s", userID, AccountLine(account))
}

func voiceValue(voice *bool) string {
	switch {
	case voice == nil:
		return "❓"
	case *voice:
		return "✅"
	default:
		return "❌"
	}
}

func orUnknown(value string) string {
	if value == "" {
		return "❓"
	}
	return value
}

func DuoEmbed(post duo.Post, name string, avatarUrl string) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("🔎 %s busca DUO", name),
		Description: fmt.Sprintf("**%s · %s**", post.Elo, post.Region),
		Color:       duoColor,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "🧭 Posición", Value: orUnknown(string(post.Position)), Inline: true},
			{Name: "🔥 Actitud", Value: orUnknown(string(post.Attitude)), Inline: true},
			{Name: "🎧 Voz", Value: voiceValue(post.Voice), Inline: true},
			{Name: "🏆 Rank", Value: string(post.Elo), Inline: true},
			{Name: "🌍 Región", Value: string(post.Region), Inline: true},
			{Name: "⭐ Duo Rating", Value: "—", Inline: true},
		},
		Footer: &discordgo.MessageEmbedFooter{Text: "DuoQ System"},
	}
	if avatarUrl != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: avatarUrl}
	}
	return embed
}

func DuoComponents(post duo.Post) []discordgo.MessageComponent {
	options := make([]discordgo.SelectMenuOption, 0, len(duo.Positions))
	for _, position := range duo.Positions {
		options = append(options, discordgo.SelectMenuOption{
			Label:   string(position),
			Value:   string(position),
			Default: position == post.Position,
		})
	}
	return []discordgo.MessageComponent{
		row(discordgo.SelectMenu{
			CustomID:    CustomId(COMPONENT_DUO_POSITION, post.ID),
			Placeholder: "Selecciona posición",
			Options:     options,
		}),
		row(
			button("😌 Chill", discordgo.SecondaryButton, CustomId(COMPONENT_DUO_CHILL, post.ID)),
			button("🔥 Tryhard", discordgo.SecondaryButton, CustomId(COMPONENT_DUO_TRYHARD, post.ID)),
			button("🎧 Voz", discordgo.PrimaryButton, CustomId(COMPONENT_DUO_VOICE, post.ID)),
			button("Buscar Duo", discordgo.SuccessButton, CustomId(COMPONENT_DUO_FINALIZE, post.ID)),
		),
	}
}

func DuoPost(post duo.Post, name string, avatarUrl string) Response {
	return ResponseEmbed(DuoEmbed(post, name, avatarUrl), DuoComponents(post)...).Public()
}

func MissingEloRole(elo riotapi.Tier) Response {
	return ResponseString(fmt.Sprintf("❌ Necesitas el rol **%s** para usar este canal.", elo))
}

var errorMessages = []struct {
	err     error
	message string
}{
	{verification.ErrNotFlowOwner, "❌ Esta verificación pertenece a otro usuario."},
	{errNotOwner, "❌ Solo quien abrió este menú puede usarlo."},
	{duo.ErrNotAuthor, "❌ Solo el autor puede usar estos botones."},
	{verification.ErrOwnershipMismatch, "❌ El icono de perfil no coincide. Cámbialo, espera unos segundos y vuelve a pulsar **Confirmar**."},
	{verification.ErrUpstreamUnavailable, "⚠️ No se pudo contactar con Riot. Inténtalo de nuevo en unos segundos."},
	{riotapi.ErrNoResponse, "⚠️ No se pudo contactar con Riot. Inténtalo de nuevo en unos segundos."},
	{verification.ErrInvalidIdentity, "❌ No existe ese Riot ID en la región elegida."},
	{verification.ErrNoPendingVerification, "⌛ La verificación ha caducado. Empieza de nuevo desde el panel."},
	{errLinkExpired, "⌛ La solicitud ha caducado. Empieza de nuevo desde el panel."},
	{riotapi.ErrNotARiotId, "❌ Riot ID no válido. Usa el formato **Nombre#TAG**."},
	{riotapi.ErrUnknownRegion, "❌ Región desconocida."},
	{accounts.ErrNoAccounts, "No tienes cuentas vinculadas. Usa **Vincular cuenta**."},
	{accounts.ErrNoPrimary, "No tienes cuenta principal."},
	{accounts.ErrIndexOutOfRange, "❌ Esa cuenta ya no existe."},
	{duo.ErrNotDuoChannel, "❌ Este comando solo funciona en canales de DuoQ."},
	{duo.ErrNoRegion, "❌ No tienes región asignada."},
	{duo.ErrExpired, "⌛ Esta búsqueda ha caducado."},
	{duo.ErrIncomplete, "❌ Completa todas las opciones antes de buscar duo."},
	{duo.ErrUnknownOption, "❌ Opción no válida."},
}

// User facing text for an error, never the error itself
func ErrorMessage(err error) string {
	for _, e := range errorMessages {
		if errors.Is(err, e.err) {
			return e.message
		}
	}
	return "❌ Algo ha fallado. Inténtalo de nuevo más tarde."
}

func ErrorResponse(err error) Response {
	return ResponseString(ErrorMessage(err))
}
