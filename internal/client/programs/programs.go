// Package programs lists club programs page by page.
package programs

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"EEOS-client/internal/client/paging"
	"EEOS-client/internal/client/transport"
	"EEOS-client/internal/platform/apierr"
)

// Caller sends authenticated requests; *session.Manager implements it.
type Caller interface {
	Call(ctx context.Context, req *transport.Request, out any) error
}

type Category string

const (
	CategoryAll               Category = "all"
	CategoryWeekly            Category = "weekly"
	CategoryEvent             Category = "event"
	CategoryPresidentsMeeting Category = "presidentsMeeting"
	CategoryEtc               Category = "etc"
)

type Status string

const (
	StatusActive Status = "active"
	StatusEnd    Status = "end"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryAll, CategoryWeekly, CategoryEvent, CategoryPresidentsMeeting, CategoryEtc:
		return true
	}
	return false
}

func (s Status) Valid() bool { return s == StatusActive || s == StatusEnd }

// Program is one entry of the program list.
type Program struct {
	ProgramID int64     `json:"programId"`
	Title     string    `json:"title"`
	Category  Category  `json:"category"`
	Status    Status    `json:"status"`
	DeadLine  time.Time `json:"deadLine"`
}

// Detail is one program as the detail screen shows it. MyStatus is the
// caller's own attendance status, empty when they are not on the roster.
type Detail struct {
	Program
	MyStatus string `json:"myStatus"`
}

// Context is the list context for one category/status pair.
func Context(c Category, s Status) paging.FilterContext {
	return paging.FilterContext{Category: string(c), Status: string(s)}
}

// DefaultContext is the list shown right after start-up.
var DefaultContext = Context(CategoryAll, StatusActive)

// Get fetches one program with the caller's own status.
func Get(ctx context.Context, c Caller, programID int64) (Detail, error) {
	if programID <= 0 {
		return Detail{}, apierr.Business(0, apierr.CodeInvalidArgument, "program id must be positive")
	}
	var out Detail
	err := c.Call(ctx, &transport.Request{
		Method: http.MethodGet,
		Path:   "/programs/" + strconv.FormatInt(programID, 10),
	}, &out)
	if err != nil {
		return Detail{}, err
	}
	return out, nil
}

// NewFetcher returns a paging.Fetcher backed by GET /programs.
func NewFetcher(c Caller) paging.Fetcher[Program] {
	return func(ctx context.Context, q paging.Query) ([]Program, error) {
		if !Category(q.Category).Valid() || !Status(q.Status).Valid() {
			return nil, apierr.Business(0, apierr.CodeInvalidArgument, fmt.Sprintf("unknown list context %s", q.FilterContext))
		}
		var out []Program
		err := c.Call(ctx, &transport.Request{
			Method: http.MethodGet,
			Path:   "/programs",
			Query: url.Values{
				"category": {q.Category},
				"status":   {q.Status},
				"page":     {strconv.Itoa(q.Page)},
				"size":     {strconv.Itoa(q.PageSize)},
			},
		}, &out)
		if err != nil {
			return nil, err
		}
		return out, nil
	}
}
