package attendance

import "time"

const (
	DefaultPageSize = 7
	MaxPageSize     = 50

	CategoryAll = "all"

	StatusAttend      = "attend"
	StatusAbsent      = "absent"
	StatusLate        = "late"
	StatusNonResponse = "nonResponse"

	ProgramActive = "active"
	ProgramEnd    = "end"
)

var categories = map[string]bool{
	CategoryAll:         true,
	"weekly":            true,
	"event":             true,
	"presidentsMeeting": true,
	"etc":               true,
}

type ProgramResponse struct {
	ProgramID int64     `json:"programId"`
	Title     string    `json:"title"`
	Category  string    `json:"category"`
	Status    string    `json:"status"`
	DeadLine  time.Time `json:"deadLine"`
}

// ProgramDetailResponse adds the caller's own status; MyStatus is empty
// when the caller is not on the roster.
type ProgramDetailResponse struct {
	ProgramResponse
	MyStatus string `json:"myStatus,omitempty"`
}

type AttendeeResponse struct {
	MemberID   int64  `json:"memberId"`
	Name       string `json:"name"`
	Generation int    `json:"generation"`
	Status     string `json:"status"`
}

type UpdateStatusRequest struct {
	SubjectID    int64  `json:"subjectId" binding:"required"`
	BeforeStatus string `json:"beforeStatus" binding:"required"`
	Status       string `json:"status" binding:"required"`
}

type ProgramQuery struct {
	Category string
	Status   string
	Page     int
	Size     int
}

type AttendeeQuery struct {
	ProgramID int64
	Status    string
	Page      int
	Size      int
}

func (q ProgramQuery) offset() int  { return q.Page * q.Size }
func (q AttendeeQuery) offset() int { return q.Page * q.Size }
