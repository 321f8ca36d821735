package attendance

import "time"

type Program struct {
	ProgramID int64
	Title     string
	Category  string
	Status    string
	DeadLine  time.Time
}

// Attendee is a member's row on a program's roster.
type Attendee struct {
	ProgramID  int64
	MemberID   int64
	Name       string
	Generation int
	Status     string
}

func (p Program) toDTO() ProgramResponse {
	return ProgramResponse{
		ProgramID: p.ProgramID,
		Title:     p.Title,
		Category:  p.Category,
		Status:    p.Status,
		DeadLine:  p.DeadLine.UTC(),
	}
}

func (a Attendee) toDTO() AttendeeResponse {
	return AttendeeResponse{
		MemberID:   a.MemberID,
		Name:       a.Name,
		Generation: a.Generation,
		Status:     a.Status,
	}
}

func validAttendeeStatus(s string) bool {
	switch s {
	case StatusAttend, StatusAbsent, StatusLate, StatusNonResponse:
		return true
	}
	return false
}

// settable: nonResponse is only a starting state
func settable(s string) bool { return validAttendeeStatus(s) && s != StatusNonResponse }
