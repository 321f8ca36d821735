package paging

import (
	"errors"
	"fmt"
)

var (
	// ErrStale is returned by a load whose context was reset while it ran.
	ErrStale = errors.New("paging: context was reset during load")
	// ErrPageOutOfOrder is returned for a page other than 0 or NextPage.
	ErrPageOutOfOrder = errors.New("paging: page out of order")
)

// FilterContext identifies one independent paginated stream. SubjectID
// scopes the stream to one resource (a program's roster) and is zero for
// top-level lists.
type FilterContext struct {
	Category  string
	Status    string
	SubjectID int64
}

func (fc FilterContext) String() string {
	if fc.SubjectID != 0 {
		return fmt.Sprintf("%s/%s#%d", fc.Category, fc.Status, fc.SubjectID)
	}
	return fc.Category + "/" + fc.Status
}

// Query is one page request.
type Query struct {
	FilterContext
	Page     int
	PageSize int
}

// PagedList is an immutable snapshot of one stream.
type PagedList[T any] struct {
	Items     []T
	NextPage  int
	Exhausted bool

	Loading    bool
	Err        error  // last failed load, cleared by the next success
	Generation uint64 // bumped by every Reset
}
