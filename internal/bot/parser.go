package bot

import (
	"fmt"
	"strings"

	"riotlink/internal/riotapi"

	"github.com/rs/zerolog/log"
)

// Every control the bot puts on a message or modal. The custom id of a
// control is its prefix, plus an argument for the controls that carry one
const (
	COMPONENT_PANEL_LINK = iota
	COMPONENT_PANEL_ACCOUNTS
	COMPONENT_PANEL_PRIMARY
	COMPONENT_PANEL_DELETE
	COMPONENT_PANEL_REFRESH
	COMPONENT_LINK_MODAL
	COMPONENT_LINK_REGION
	COMPONENT_VERIFY_CONFIRM
	COMPONENT_VERIFY_CANCEL
	COMPONENT_PRIMARY_SELECT
	COMPONENT_DELETE_SELECT
	COMPONENT_DUO_POSITION
	COMPONENT_DUO_CHILL
	COMPONENT_DUO_TRYHARD
	COMPONENT_DUO_VOICE
	COMPONENT_DUO_FINALIZE
)

const (
	PARSEID_OK = iota
	PARSEID_UNKNOWN_COMPONENT
	PARSEID_NO_ARGUMENT
)

type component struct {
	prefix      string
	hasArgument bool
}

var components = map[int]component{
	COMPONENT_PANEL_LINK:     {"panel:link", false},
	COMPONENT_PANEL_ACCOUNTS: {"panel:accounts", false},
	COMPONENT_PANEL_PRIMARY:  {"panel:primary", false},
	COMPONENT_PANEL_DELETE:   {"panel:delete", false},
	COMPONENT_PANEL_REFRESH:  {"panel:refresh", false},
	COMPONENT_LINK_MODAL:     {"link:modal", false},
	COMPONENT_LINK_REGION:    {"link:region", true},
	COMPONENT_VERIFY_CONFIRM: {"verify:confirm", true},
	COMPONENT_VERIFY_CANCEL:  {"verify:cancel", true},
	COMPONENT_PRIMARY_SELECT: {"primary:select", true},
	COMPONENT_DELETE_SELECT:  {"delete:select", true},
	COMPONENT_DUO_POSITION:   {"duo:position", true},
	COMPONENT_DUO_CHILL:      {"duo:chill", true},
	COMPONENT_DUO_TRYHARD:    {"duo:tryhard", true},
	COMPONENT_DUO_VOICE:      {"duo:voice", true},
	COMPONENT_DUO_FINALIZE:   {"duo:finalize", true},
}

// Text input of the link modal
const riotIdInput = "riot_id"

type ParseResult struct {
	component int
	parseid   int
	argument  string
}

// Build the custom id of a control
func CustomId(comp int, argument string) string {
	c, ok := components[comp]
	if !ok {
		panic(fmt.Sprintf("component %d does not exist", comp))
	}
	if !c.hasArgument {
		return c.prefix
	}
	return c.prefix + ":" + argument
}

// Parse the custom id of an incoming interaction. Ids are matched by
// prefix, so controls posted before a restart keep working
func Parse(customId string) ParseResult {

	for comp, c := range components {
		if !c.hasArgument {
			if customId == c.prefix {
				return ParseResult{component: comp, parseid: PARSEID_OK}
			}
			continue
		}
		argument, found := strings.CutPrefix(customId, c.prefix+":")
		if !found {
			continue
		}
		if argument == "" {
			return ParseResult{component: comp, parseid: PARSEID_NO_ARGUMENT}
		}
		return ParseResult{component: comp, parseid: PARSEID_OK, argument: argument}
	}

	log.Debug().Msg(fmt.Sprintf("Custom id %s does not belong to the bot", customId))
	return ParseResult{parseid: PARSEID_UNKNOWN_COMPONENT}
}

// Riot id typed by the user, before any request is made
func ParseRiotId(input string) (riotapi.RiotId, error) {
	return riotapi.ParseRiotId(strings.Join(strings.Fields(input), " "))
}
