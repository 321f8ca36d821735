package attendance

import (
	"fmt"

	"EEOS-client/internal/client/paging"
)

type Status string

const (
	StatusAttend      Status = "attend"
	StatusAbsent      Status = "absent"
	StatusLate        Status = "late"
	StatusNonResponse Status = "nonResponse"
)

// Buckets lists every status a member can be in, in display order.
var Buckets = []Status{StatusAttend, StatusAbsent, StatusLate, StatusNonResponse}

func (s Status) Valid() bool {
	switch s {
	case StatusAttend, StatusAbsent, StatusLate, StatusNonResponse:
		return true
	}
	return false
}

// Settable reports whether a member may move into s. nonResponse is only
// ever a starting bucket.
func (s Status) Settable() bool { return s.Valid() && s != StatusNonResponse }

// RosterCategory marks roster streams in a paging.FilterContext.
const RosterCategory = "roster"

// RosterContext is the list context of one status bucket of one program.
func RosterContext(programID int64, s Status) paging.FilterContext {
	return paging.FilterContext{Category: RosterCategory, Status: string(s), SubjectID: programID}
}

// DependencyTable maps the status a member leaves or enters to the
// buckets whose contents change with it.
type DependencyTable map[Status][]Status

// Dependencies is the table used by the app: moving a member in or out of
// any bucket refreshes all four, since the roster counts shown beside each
// bucket change together.
var Dependencies = DependencyTable{
	StatusAttend:      Buckets,
	StatusAbsent:      Buckets,
	StatusLate:        Buckets,
	StatusNonResponse: Buckets,
}

// Contexts returns the roster contexts of subjectID affected by a move
// from one status to another, without duplicates and in Buckets order.
func (d DependencyTable) Contexts(subjectID int64, from, to Status) []paging.FilterContext {
	hit := make(map[Status]bool, len(Buckets))
	for _, s := range d[from] {
		hit[s] = true
	}
	for _, s := range d[to] {
		hit[s] = true
	}
	out := make([]paging.FilterContext, 0, len(hit))
	for _, s := range Buckets {
		if hit[s] {
			out = append(out, RosterContext(subjectID, s))
		}
	}
	return out
}

func (d DependencyTable) validate() error {
	for from, deps := range d {
		if !from.Valid() {
			return fmt.Errorf("attendance: dependency on unknown status %q", from)
		}
		for _, s := range deps {
			if !s.Valid() {
				return fmt.Errorf("attendance: %s depends on unknown status %q", from, s)
			}
		}
	}
	return nil
}
