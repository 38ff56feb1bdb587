// Package duo runs the duo queue search posts: one post per author,
// editable only by its author, that ends by pinging the players of the
// same region and tier.
package duo

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"riotlink/internal/common"
	"riotlink/internal/riotapi"
	"riotlink/internal/roles"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const DefaultTTL = 15 * time.Minute

var (
	ErrNotDuoChannel  = errors.New("channel is not a duo queue channel")
	ErrMissingEloRole = errors.New("member lacks the tier role of the channel")
	ErrNoRegion       = errors.New("member has no region role")
	ErrNotAuthor      = errors.New("only the author can edit the post")
	ErrExpired        = errors.New("duo post expired")
	ErrIncomplete     = errors.New("position, attitude and voice are required")
	ErrUnknownOption  = errors.New("unknown option")
)

type Position string

const (
	Top     Position = "Toplane"
	Jungle  Position = "Jungla"
	Mid     Position = "Midlane"
	Adc     Position = "ADC"
	Support Position = "Support"
)

var Positions = []Position{Top, Jungle, Mid, Adc, Support}

type Attitude string

const (
	Chill   Attitude = "Chill"
	Tryhard Attitude = "Tryhard"
)

// Button presses
type Action string

const (
	ActionChill    Action = "chill"
	ActionTryhard  Action = "tryhard"
	ActionVoice    Action = "voice"
	ActionFinalize Action = "finalize"
)

// Post is the state of one duo search
type Post struct {
	ID        string
	AuthorID  string
	ChannelID string
	Elo       riotapi.Tier
	Region    riotapi.Region
	Position  Position
	Attitude  Attitude
	Voice     *bool // nil until chosen
	CreatedAt time.Time
}

func (post Post) Complete() bool {
	return post.Position != "" && post.Attitude != "" && post.Voice != nil
}

// Call is the ping posted when the author finalizes the search
type Call struct {
	RegionRoleID string
	EloRoleID    string
	UserID       string
}

func (call Call) Mention() string {
	return fmt.Sprintf("<@&%s> <@&%s> <@%s>", call.RegionRoleID, call.EloRoleID, call.UserID)
}

type Board struct {
	posts    *common.TTLMap[string, Post]
	channels map[string]riotapi.Tier
	table    roles.Table
	clock    common.Clock
}

func NewBoard(channels map[string]riotapi.Tier, table roles.Table, ttl time.Duration, clock common.Clock) *Board {
	return &Board{
		posts:    common.NewTTLMap[string, Post](ttl, clock),
		channels: channels,
		table:    table,
		clock:    clock,
	}
}

// Tier served by a channel, if it is a duo queue channel
func (board *Board) Elo(channelID string) (riotapi.Tier, bool) {
	elo, ok := board.channels[channelID]
	return elo, ok
}

// Open a search in a channel. The member needs the solo role of the
// channel tier and a region role
func (board *Board) Open(member roles.Member, channelID string) (Post, error) {

	elo, ok := board.Elo(channelID)
	if !ok {
		return Post{}, ErrNotDuoChannel
	}
	roleID := board.table.Solo[elo]
	if roleID == "" || !slices.Contains(member.Roles, roleID) {
		return Post{}, fmt.Errorf("%w: %s", ErrMissingEloRole, elo)
	}
	region, ok := board.table.RegionOf(member)
	if !ok {
		return Post{}, ErrNoRegion
	}

	post := Post{
		ID:        uuid.NewString(),
		AuthorID:  member.UserID,
		ChannelID: channelID,
		Elo:       elo,
		Region:    region,
		CreatedAt: board.clock.Now(),
	}
	board.posts.Put(post.ID, post)

	log.Debug().Msg(fmt.Sprintf("User %s opened duo post %s (%s %s)", member.UserID, post.ID, elo, region))
	return post, nil
}

// Run fn on a live post owned by actorID, storing the result
func (board *Board) edit(id string, actorID string, fn func(post *Post) error) (Post, error) {
	post, ok, err := board.posts.Update(id, func(post *Post) error {
		if post.AuthorID != actorID {
			return ErrNotAuthor
		}
		return fn(post)
	})
	if !ok {
		return Post{}, ErrExpired
	}
	return post, err
}

func (board *Board) SetPosition(id string, actorID string, position Position) (Post, error) {
	return board.edit(id, actorID, func(post *Post) error {
		if !slices.Contains(Positions, position) {
			return fmt.Errorf("%w: %s", ErrUnknownOption, position)
		}
		post.Position = position
		return nil
	})
}

// Apply a button press other than finalize
func (board *Board) Press(id string, actorID string, action Action) (Post, error) {
	return board.edit(id, actorID, func(post *Post) error {
		switch action {
		case ActionChill:
			post.Attitude = Chill
		case ActionTryhard:
			post.Attitude = Tryhard
		case ActionVoice:
			voice := post.Voice == nil || !*post.Voice
			post.Voice = &voice
		default:
			return fmt.Errorf("%w: %s", ErrUnknownOption, action)
		}
		return nil
	})
}

// Close a complete post and build the ping for it
func (board *Board) Finalize(id string, actorID string) (Post, Call, error) {
	post, ok, err := board.posts.Take(id, func(post Post) error {
		if post.AuthorID != actorID {
			return ErrNotAuthor
		}
		if !post.Complete() {
			return ErrIncomplete
		}
		return nil
	})
	if !ok {
		return Post{}, Call{}, ErrExpired
	}
	if err != nil {
		return post, Call{}, err
	}

	call := Call{
		RegionRoleID: board.table.Regions[post.Region],
		EloRoleID:    board.table.Solo[post.Elo],
		UserID:       post.AuthorID,
	}
	log.Info().Msg(fmt.Sprintf("User %s is looking for a duo as %s", post.AuthorID, post.Position))
	return post, call, nil
}

func (board *Board) Len() int {
	return board.posts.Len()
}

// Forget expired posts, returning how many were dropped
func (board *Board) Sweep() int {
	return board.posts.Sweep()
}

// Sweep every minute until the context is done
func (board *Board) Run(ctx context.Context) {
	board.posts.Run(ctx, time.Minute, "duo posts")
}
