package bot

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"slices"
	"strconv"

	"riotlink/internal/accounts"
	"riotlink/internal/duo"
	"riotlink/internal/riotapi"
	"riotlink/internal/roles"
	"riotlink/internal/verification"

	"github.com/rs/zerolog/log"
)

var (
	errNotOwner    = errors.New("control belongs to another user")
	errLinkExpired = errors.New("link request expired")
)

const (
	INTERACTION_COMMAND = iota
	INTERACTION_COMPONENT
	INTERACTION_MODAL
)

const (
	COMMAND_PANEL = "panel"
	COMMAND_DUO   = "duo"
)

// Interaction is what the handlers need from an incoming Discord interaction
type Interaction struct {
	Kind        int
	Command     string
	CustomId    string
	Values      []string
	Inputs      map[string]string
	Member      roles.Member
	ChannelID   string
	DisplayName string
	AvatarUrl   string
}

type AccountManager interface {
	Accounts(ctx context.Context, userID string) (accounts.Accounts, error)
	SetPrimary(ctx context.Context, member roles.Member, index int) (accounts.LinkedAccount, error)
	Delete(ctx context.Context, member roles.Member, index int) (accounts.LinkedAccount, *accounts.LinkedAccount, error)
	Refresh(ctx context.Context, member roles.Member) (bool, accounts.LinkedAccount, error)
}

type Notifier interface {
	Notify(ctx context.Context, message string)
}

type Handlers struct {
	manager        AccountManager
	flow           *verification.Flow
	board          *duo.Board
	links          *LinkRequests
	regions        []riotapi.Region
	ddragonVersion string
	notifier       Notifier
}

func NewHandlers(manager AccountManager, flow *verification.Flow, board *duo.Board, links *LinkRequests, regions []riotapi.Region, ddragonVersion string, notifier Notifier) *Handlers {
	return &Handlers{
		manager:        manager,
		flow:           flow,
		board:          board,
		links:          links,
		regions:        regions,
		ddragonVersion: ddragonVersion,
		notifier:       notifier,
	}
}

// Handle one interaction. Never panics: a failing handler answers with a
// generic error
func (h *Handlers) Handle(ctx context.Context, in Interaction) (response Response) {

	defer func() {
		if r := recover(); r != nil {
			log.Error().Msg(fmt.Sprintf("Handler panicked on %q for user %s: %v\n%s", in.CustomId+in.Command, in.Member.UserID, r, debug.Stack()))
			response = ErrorResponse(fmt.Errorf("panic: %v", r))
		}
	}()

	switch in.Kind {
	case INTERACTION_COMMAND:
		return h.command(ctx, in)
	case INTERACTION_COMPONENT, INTERACTION_MODAL:
		return h.component(ctx, in)
	default:
		panic(fmt.Sprintf("interaction kind %d is not one of the possible ones", in.Kind))
	}
}

// How the interaction is acknowledged. Controls whose handler goes to the
// Riot API, the database or the role endpoints are deferred
func Deferral(in Interaction) int {
	if in.Kind == INTERACTION_COMMAND {
		return DEFER_NONE
	}
	parseResult := Parse(in.CustomId)
	if parseResult.parseid != PARSEID_OK {
		return DEFER_NONE
	}
	switch parseResult.component {
	case COMPONENT_PANEL_ACCOUNTS, COMPONENT_PANEL_PRIMARY, COMPONENT_PANEL_DELETE, COMPONENT_PANEL_REFRESH:
		return DEFER_MESSAGE
	case COMPONENT_LINK_REGION, COMPONENT_VERIFY_CONFIRM, COMPONENT_PRIMARY_SELECT, COMPONENT_DELETE_SELECT:
		return DEFER_UPDATE
	default:
		return DEFER_NONE
	}
}

func (h *Handlers) command(ctx context.Context, in Interaction) Response {
	log.Debug().Msg(fmt.Sprintf("User %s ran /%s", in.Member.UserID, in.Command))
	switch in.Command {
	case COMMAND_PANEL:
		return Panel()
	case COMMAND_DUO:
		return h.duoOpen(in)
	default:
		log.Warn().Msg(fmt.Sprintf("Unknown command %s", in.Command))
		return ErrorResponse(fmt.Errorf("unknown command %s", in.Command))
	}
}

func (h *Handlers) component(ctx context.Context, in Interaction) Response {

	parseResult := Parse(in.CustomId)
	if parseResult.parseid != PARSEID_OK {
		return ErrorResponse(fmt.Errorf("custom id %s not understood", in.CustomId))
	}
	log.Debug().Msg(fmt.Sprintf("User %s used %s", in.Member.UserID, in.CustomId))

	switch parseResult.component {
	case COMPONENT_PANEL_LINK:
		return LinkModal()
	case COMPONENT_PANEL_ACCOUNTS:
		return h.accounts(ctx, in)
	case COMPONENT_PANEL_PRIMARY:
		return h.accountSelect(ctx, in, COMPONENT_PRIMARY_SELECT, "Elige tu cuenta principal")
	case COMPONENT_PANEL_DELETE:
		return h.accountSelect(ctx, in, COMPONENT_DELETE_SELECT, "Elige la cuenta a eliminar")
	case COMPONENT_PANEL_REFRESH:
		return h.refresh(ctx, in)
	case COMPONENT_LINK_MODAL:
		return h.linkSubmit(in)
	case COMPONENT_LINK_REGION:
		return h.linkRegion(ctx, in, parseResult.argument)
	case COMPONENT_VERIFY_CONFIRM:
		return h.confirm(ctx, in, parseResult.argument)
	case COMPONENT_VERIFY_CANCEL:
		return h.cancel(in, parseResult.argument)
	case COMPONENT_PRIMARY_SELECT:
		return h.setPrimary(ctx, in, parseResult.argument)
	case COMPONENT_DELETE_SELECT:
		return h.delete(ctx, in, parseResult.argument)
	case COMPONENT_DUO_POSITION:
		return h.duoPosition(in, parseResult.argument)
	case COMPONENT_DUO_CHILL:
		return h.duoPress(in, parseResult.argument, duo.ActionChill)
	case COMPONENT_DUO_TRYHARD:
		return h.duoPress(in, parseResult.argument, duo.ActionTryhard)
	case COMPONENT_DUO_VOICE:
		return h.duoPress(in, parseResult.argument, duo.ActionVoice)
	case COMPONENT_DUO_FINALIZE:
		return h.duoFinalize(in, parseResult.argument)
	default:
		panic(fmt.Sprintf("component %d is not one of the possible ones", parseResult.component))
	}
}

func (h *Handlers) accounts(ctx context.Context, in Interaction) Response {
	accs, err := h.manager.Accounts(ctx, in.Member.UserID)
	if err != nil {
		return ErrorResponse(err)
	}
	return AccountList(accs)
}

func (h *Handlers) accountSelect(ctx context.Context, in Interaction, comp int, placeholder string) Response {
	accs, err := h.manager.Accounts(ctx, in.Member.UserID)
	if err != nil {
		return ErrorResponse(err)
	}
	return AccountSelect(comp, in.Member.UserID, placeholder, accs)
}

func (h *Handlers) refresh(ctx context.Context, in Interaction) Response {
	changed, account, err := h.manager.Refresh(ctx, in.Member)
	if err != nil {
		return ErrorResponse(err)
	}
	return RefreshResult(changed, account)
}

func (h *Handlers) linkSubmit(in Interaction) Response {
	riotid, err := ParseRiotId(in.Inputs[riotIdInput])
	if err != nil {
		log.Info().Msg(fmt.Sprintf("User %s typed an invalid riot id %q", in.Member.UserID, in.Inputs[riotIdInput]))
		return ErrorResponse(err)
	}
	token := h.links.Put(in.Member.UserID, riotid)
	return RegionSelect(token, riotid, h.regions)
}

func (h *Handlers) linkRegion(ctx context.Context, in Interaction, token string) Response {
	if len(in.Values) != 1 || !slices.Contains(h.regions, riotapi.Region(in.Values[0])) {
		return ErrorResponse(riotapi.ErrUnknownRegion)
	}
	request, err := h.links.Take(token, in.Member.UserID)
	if err != nil {
		return ErrorResponse(err)
	}
	pending, err := h.flow.Begin(ctx, in.Member.UserID, request.RiotId, riotapi.Region(in.Values[0]))
	if err != nil {
		return ErrorResponse(err)
	}
	return Challenge(pending, h.ddragonVersion).Updating()
}

func (h *Handlers) confirm(ctx context.Context, in Interaction, owner string) Response {
	linked, err := h.flow.Confirm(ctx, owner, in.Member)
	if err != nil {
		// The challenge stays on screen so the user can retry
		return ErrorResponse(err)
	}
	if h.notifier != nil {
		h.notifier.Notify(ctx, LinkedLogLine(in.Member.UserID, linked))
	}
	return Linked(linked).Updating()
}

func (h *Handlers) cancel(in Interaction, owner string) Response {
	if err := h.flow.Cancel(owner, in.Member.UserID); err != nil {
		return ErrorResponse(err)
	}
	return Cancelled().Updating()
}

// Index picked in an account select of the owner
func selectedIndex(in Interaction, owner string) (int, error) {
	if in.Member.UserID != owner {
		return -1, errNotOwner
	}
	if len(in.Values) != 1 {
		return -1, accounts.ErrIndexOutOfRange
	}
	index, err := strconv.Atoi(in.Values[0])
	if err != nil {
		return -1, fmt.Errorf("%w: %s", accounts.ErrIndexOutOfRange, in.Values[0])
	}
	return index, nil
}

func (h *Handlers) setPrimary(ctx context.Context, in Interaction, owner string) Response {
	index, err := selectedIndex(in, owner)
	if err != nil {
		return ErrorResponse(err)
	}
	account, err := h.manager.SetPrimary(ctx, in.Member, index)
	if err != nil {
		return ErrorResponse(err)
	}
	return PrimaryChanged(account).Updating()
}

func (h *Handlers) delete(ctx context.Context, in Interaction, owner string) Response {
	index, err := selectedIndex(in, owner)
	if err != nil {
		return ErrorResponse(err)
	}
	removed, promoted, err := h.manager.Delete(ctx, in.Member, index)
	if err != nil {
		return ErrorResponse(err)
	}
	left := 0
	if accs, err := h.manager.Accounts(ctx, in.Member.UserID); err == nil {
		left = len(accs)
	}
	return AccountDeleted(removed, promoted, left).Updating()
}

func (h *Handlers) duoOpen(in Interaction) Response {
	post, err := h.board.Open(in.Member, in.ChannelID)
	if errors.Is(err, duo.ErrMissingEloRole) {
		elo, _ := h.board.Elo(in.ChannelID)
		return MissingEloRole(elo)
	}
	if err != nil {
		return ErrorResponse(err)
	}
	return DuoPost(post, in.DisplayName, in.AvatarUrl)
}

func (h *Handlers) duoPosition(in Interaction, id string) Response {
	if len(in.Values) != 1 {
		return ErrorResponse(duo.ErrUnknownOption)
	}
	post, err := h.board.SetPosition(id, in.Member.UserID, duo.Position(in.Values[0]))
	if err != nil {
		return ErrorResponse(err)
	}
	return DuoPost(post, in.DisplayName, in.AvatarUrl).Updating()
}

func (h *Handlers) duoPress(in Interaction, id string, action duo.Action) Response {
	post, err := h.board.Press(id, in.Member.UserID, action)
	if err != nil {
		return ErrorResponse(err)
	}
	return DuoPost(post, in.DisplayName, in.AvatarUrl).Updating()
}

func (h *Handlers) duoFinalize(in Interaction, id string) Response {
	post, call, err := h.board.Finalize(id, in.Member.UserID)
	if err != nil {
		return ErrorResponse(err)
	}
	response := ResponseEmbed(DuoEmbed(post, in.DisplayName, in.AvatarUrl)).Updating()
	response.Announce = call.Mention()
	return response
}
