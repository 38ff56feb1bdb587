package bot

import (
	"context"
	"time"

	"riotlink/internal/common"
	"riotlink/internal/riotapi"

	"github.com/google/uuid"
)

// Riot id typed in the link modal, waiting for the region select
type LinkRequest struct {
	OwnerID   string
	RiotId    riotapi.RiotId
	CreatedAt time.Time
}

// Link requests are referenced from the region select by a random token
type LinkRequests struct {
	requests *common.TTLMap[string, LinkRequest]
}

func NewLinkRequests(ttl time.Duration, clock common.Clock) *LinkRequests {
	return &LinkRequests{requests: common.NewTTLMap[string, LinkRequest](ttl, clock)}
}

func (lr *LinkRequests) Put(ownerID string, riotid riotapi.RiotId) string {
	token := uuid.NewString()
	request := LinkRequest{OwnerID: ownerID, RiotId: riotid}
	request.CreatedAt = lr.requests.Put(token, request)
	return token
}

// Take the request out if it is alive and belongs to the actor. A request
// of another user is left in place
func (lr *LinkRequests) Take(token string, actorID string) (LinkRequest, error) {
	request, ok, err := lr.requests.Take(token, func(request LinkRequest) error {
		if request.OwnerID != actorID {
			return errNotOwner
		}
		return nil
	})
	if !ok {
		return LinkRequest{}, errLinkExpired
	}
	if err != nil {
		return LinkRequest{}, err
	}
	return request, nil
}

func (lr *LinkRequests) Len() int {
	return lr.requests.Len()
}

// Forget abandoned requests until the context is done
func (lr *LinkRequests) Run(ctx context.Context) {
	lr.requests.Run(ctx, lr.requests.TTL(), "link requests")
}
