package attendance

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"EEOS-client/internal/client/paging"
	"EEOS-client/internal/client/transport"
	"EEOS-client/internal/platform/apierr"
)

// Member is one entry of a program's roster bucket.
type Member struct {
	MemberID   int64  `json:"memberId"`
	Name       string `json:"name"`
	Generation int    `json:"generation"`
	Status     Status `json:"status"`
}

// Caller sends authenticated requests; *session.Manager implements it.
type Caller interface {
	Call(ctx context.Context, req *transport.Request, out any) error
}

// NewRosterFetcher returns a paging.Fetcher backed by
// GET /programs/{id}/attendees.
func NewRosterFetcher(c Caller) paging.Fetcher[Member] {
	return func(ctx context.Context, q paging.Query) ([]Member, error) {
		if q.Category != RosterCategory || q.SubjectID <= 0 || !Status(q.Status).Valid() {
			return nil, apierr.Business(0, apierr.CodeInvalidArgument, fmt.Sprintf("not a roster context: %s", q.FilterContext))
		}
		var out []Member
		err := c.Call(ctx, &transport.Request{
			Method: http.MethodGet,
			Path:   "/programs/" + strconv.FormatInt(q.SubjectID, 10) + "/attendees",
			Query: url.Values{
				"status": {q.Status},
				"page":   {strconv.Itoa(q.Page)},
				"size":   {strconv.Itoa(q.PageSize)},
			},
		}, &out)
		if err != nil {
			return nil, err
		}
		return out, nil
	}
}
