// Package attendance submits a member's attendance status and keeps the
// roster buckets of the affected program in step with it.
package attendance

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"

	"golang.org/x/sync/errgroup"

	"EEOS-client/internal/client/paging"
	"EEOS-client/internal/client/transport"
	"EEOS-client/internal/platform/apierr"
)

type updateRequest struct {
	SubjectID    int64  `json:"subjectId"`
	BeforeStatus Status `json:"beforeStatus"`
	Status       Status `json:"status"`
}

type Coordinator struct {
	caller  Caller
	rosters *paging.Engine[Member]
	deps    DependencyTable
	logger  *log.Logger

	mu      sync.Mutex
	current map[int64]Status

	refreshes sync.WaitGroup
}

func NewCoordinator(caller Caller, rosters *paging.Engine[Member], deps DependencyTable, logger *log.Logger) (*Coordinator, error) {
	if deps == nil {
		deps = Dependencies
	}
	if err := deps.validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Coordinator{
		caller:  caller,
		rosters: rosters,
		deps:    deps,
		logger:  logger,
		current: make(map[int64]Status),
	}, nil
}

// CurrentStatus is the last confirmed status of the member for subjectID.
func (c *Coordinator) CurrentStatus(subjectID int64) (Status, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.current[subjectID]
	return s, ok
}

// Observe records the member's status as last read from the backend. An
// unknown status is ignored.
func (c *Coordinator) Observe(subjectID int64, s Status) {
	if !s.Valid() {
		return
	}
	c.mu.Lock()
	c.current[subjectID] = s
	c.mu.Unlock()
}

// Forget drops every recorded status.
func (c *Coordinator) Forget() {
	c.mu.Lock()
	clear(c.current)
	c.mu.Unlock()
}

// SubmitAttendanceStatus moves the member from one status to another.
//
// It returns once the backend has confirmed the change. The dependent
// roster buckets are then reset and reloaded in the background; Wait blocks
// until they are done. If the mutation fails nothing is reset and
// CurrentStatus keeps its previous value.
func (c *Coordinator) SubmitAttendanceStatus(ctx context.Context, subjectID int64, from, to Status) error {
	if err := validateMove(subjectID, from, to); err != nil {
		return err
	}

	err := c.caller.Call(ctx, &transport.Request{
		Method: http.MethodPut,
		Path:   "/attendance",
		Body:   updateRequest{SubjectID: subjectID, BeforeStatus: from, Status: to},
	}, nil)
	if err != nil {
		c.logger.Printf("[WARN] attendance %d %s->%s rejected: %v", subjectID, from, to, err)
		return err
	}

	c.Observe(subjectID, to)
	c.logger.Printf("[INFO] attendance %d %s->%s", subjectID, from, to)

	fcs := c.deps.Contexts(subjectID, from, to)
	// the caller's ctx may end as soon as we return
	bg := context.WithoutCancel(ctx)
	c.refreshes.Add(1)
	go func() {
		defer c.refreshes.Done()
		c.refresh(bg, fcs)
	}()
	return nil
}

// Wait blocks until every background refresh started so far has finished.
func (c *Coordinator) Wait() { c.refreshes.Wait() }

func (c *Coordinator) refresh(ctx context.Context, fcs []paging.FilterContext) {
	var g errgroup.Group
	for _, fc := range fcs {
		fc := fc
		g.Go(func() error {
			_, err := c.rosters.Reload(ctx, fc)
			if errors.Is(err, paging.ErrStale) {
				return nil
			}
			if err != nil {
				return fmt.Errorf("reload %s: %w", fc, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		// the failed bucket carries the error in its PagedList.Err
		c.logger.Printf("[WARN] roster refresh: %v", err)
	}
}

func validateMove(subjectID int64, from, to Status) error {
	switch {
	case subjectID <= 0:
		return apierr.Business(0, apierr.CodeInvalidArgument, "subject id must be positive")
	case !from.Valid():
		return apierr.Business(0, apierr.CodeInvalidStatus, fmt.Sprintf("unknown status %q", from))
	case !to.Settable():
		return apierr.Business(0, apierr.CodeInvalidStatus, fmt.Sprintf("cannot move to %q", to))
	case from == to:
		return apierr.Business(0, apierr.CodeSameStatus, fmt.Sprintf("already %s", to))
	}
	return nil
}
