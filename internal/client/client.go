// Package client is the surface the presentation layer talks to. It wires
// the token store, transport, session manager, list engines and the
// attendance coordinator together and turns user intents into calls on
// them.
package client

import (
	"context"
	"errors"
	"fmt"
	"log"

	"golang.org/x/text/language"

	"EEOS-client/internal/client/attendance"
	"EEOS-client/internal/client/paging"
	"EEOS-client/internal/client/programs"
	"EEOS-client/internal/client/session"
	"EEOS-client/internal/client/tokenstore"
	"EEOS-client/internal/client/transport"
	"EEOS-client/internal/platform/apierr"
	"EEOS-client/internal/platform/config"
)

type Client struct {
	store    tokenstore.Store
	session  *session.Manager
	programs *paging.Engine[programs.Program]
	rosters  *paging.Engine[attendance.Member]
	attend   *attendance.Coordinator
	lang     language.Tag
	logger   *log.Logger

	unsubscribe func()
}

// Open builds a Client from configuration, opening the configured token store.
func Open(ctx context.Context, cfg config.ClientConfig, logger *log.Logger, opts ...transport.Option) (*Client, error) {
	store, err := tokenstore.Open(cfg.TokenStore.Driver, cfg.TokenStore.Path)
	if err != nil {
		return nil, err
	}
	c, err := New(ctx, cfg, store, logger, opts...)
	if err != nil {
		_ = tokenstore.Close(store)
		return nil, err
	}
	return c, nil
}

// New builds a Client on top of an already opened token store. Close
// closes the store.
func New(ctx context.Context, cfg config.ClientConfig, store tokenstore.Store, logger *log.Logger, opts ...transport.Option) (*Client, error) {
	if logger == nil {
		logger = log.Default()
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = config.DefaultPageSize
	}

	tr, err := transport.New(cfg.BaseURL, cfg.Timeout, store, opts...)
	if err != nil {
		return nil, err
	}
	sm, err := session.New(ctx, tr, store, logger)
	if err != nil {
		return nil, err
	}
	rosters := paging.NewEngine(attendance.NewRosterFetcher(sm), pageSize)
	coord, err := attendance.NewCoordinator(sm, rosters, attendance.Dependencies, logger)
	if err != nil {
		return nil, err
	}

	c := &Client{
		store:    store,
		session:  sm,
		programs: paging.NewEngine(programs.NewFetcher(sm), pageSize),
		rosters:  rosters,
		attend:   coord,
		lang:     apierr.ResolveTag(cfg.Lang),
		logger:   logger,
	}
	// whatever ends the session, nothing loaded under it stays visible
	c.unsubscribe = sm.Subscribe(func(s session.State) {
		if s == session.StateLoggedOut {
			c.programs.ResetAll()
			c.rosters.ResetAll()
			c.attend.Forget()
		}
	})
	return c, nil
}

// Start loads the first page of the default program list when a session
// was restored.
func (c *Client) Start(ctx context.Context) error {
	if c.session.State() != session.StateAuthenticated {
		return nil
	}
	_, err := c.programs.Load(ctx, programs.DefaultContext, 0)
	return err
}

func (c *Client) Close() error {
	c.unsubscribe()
	c.attend.Wait()
	return tokenstore.Close(c.store)
}

func (c *Client) State() session.State { return c.session.State() }

// SubscribeSession registers fn for session state transitions.
func (c *Client) SubscribeSession(fn func(session.State)) (cancel func()) {
	return c.session.Subscribe(fn)
}

// SubscribePrograms registers fn for changes of any program list.
func (c *Client) SubscribePrograms(fn func(paging.FilterContext, paging.PagedList[programs.Program])) (cancel func()) {
	return c.programs.Subscribe(fn)
}

// SubscribeRosters registers fn for changes of any roster bucket.
func (c *Client) SubscribeRosters(fn func(paging.FilterContext, paging.PagedList[attendance.Member])) (cancel func()) {
	return c.rosters.Subscribe(fn)
}

func (c *Client) Login(ctx context.Context, code string) error {
	if code == "" {
		return apierr.Business(0, apierr.CodeInvalidArgument, "authorization code is required")
	}
	return c.session.Login(ctx, code)
}

func (c *Client) Logout(ctx context.Context) error { return c.session.Logout(ctx) }

func (c *Client) DeleteAccount(ctx context.Context) error { return c.session.DeleteAccount(ctx) }

// LoadList loads one page of the program list for category and status.
func (c *Client) LoadList(ctx context.Context, category programs.Category, status programs.Status, page int) (paging.PagedList[programs.Program], error) {
	if !category.Valid() || !status.Valid() {
		return paging.PagedList[programs.Program]{}, apierr.Business(0, apierr.CodeInvalidArgument,
			fmt.Sprintf("unknown program list %s/%s", category, status))
	}
	return c.programs.Load(ctx, programs.Context(category, status), page)
}

// LoadNextList loads the page after the last one shown.
func (c *Client) LoadNextList(ctx context.Context, category programs.Category, status programs.Status) (paging.PagedList[programs.Program], error) {
	fc := programs.Context(category, status)
	return c.LoadList(ctx, category, status, c.programs.Snapshot(fc).NextPage)
}

// ResetList discards the accumulated state of a program list or roster
// bucket.
func (c *Client) ResetList(fc paging.FilterContext) {
	if fc.Category == attendance.RosterCategory {
		c.rosters.Reset(fc)
		return
	}
	c.programs.Reset(fc)
}

func (c *Client) Programs(category programs.Category, status programs.Status) paging.PagedList[programs.Program] {
	return c.programs.Snapshot(programs.Context(category, status))
}

// LoadRoster loads one page of a program's status bucket.
func (c *Client) LoadRoster(ctx context.Context, programID int64, status attendance.Status, page int) (paging.PagedList[attendance.Member], error) {
	if programID <= 0 || !status.Valid() {
		return paging.PagedList[attendance.Member]{}, apierr.Business(0, apierr.CodeInvalidArgument,
			fmt.Sprintf("unknown roster %d/%s", programID, status))
	}
	return c.rosters.Load(ctx, attendance.RosterContext(programID, status), page)
}

func (c *Client) Roster(programID int64, status attendance.Status) paging.PagedList[attendance.Member] {
	return c.rosters.Snapshot(attendance.RosterContext(programID, status))
}

// ProgramDetail fetches one program and records the member's own status,
// which later becomes the "from" of SubmitAttendanceStatus.
func (c *Client) ProgramDetail(ctx context.Context, programID int64) (programs.Detail, error) {
	d, err := programs.Get(ctx, c.session, programID)
	if err != nil {
		return programs.Detail{}, err
	}
	c.attend.Observe(programID, attendance.Status(d.MyStatus))
	return d, nil
}

// SubmitAttendanceStatus changes the member's status for a program. The
// roster buckets refresh in the background; WaitRefreshes blocks on them.
func (c *Client) SubmitAttendanceStatus(ctx context.Context, subjectID int64, from, to attendance.Status) error {
	return c.attend.SubmitAttendanceStatus(ctx, subjectID, from, to)
}

func (c *Client) CurrentStatus(subjectID int64) (attendance.Status, bool) {
	return c.attend.CurrentStatus(subjectID)
}

func (c *Client) WaitRefreshes() { c.attend.Wait() }

// Message renders err for the user in the configured language. Stale
// loads are not worth telling anyone about and render empty.
func (c *Client) Message(err error) string {
	if errors.Is(err, paging.ErrStale) {
		return ""
	}
	return apierr.UserMessage(c.lang, err)
}
