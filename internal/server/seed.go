package server

import (
	"fmt"
	"time"

	"EEOS-client/internal/attendance"
	"EEOS-client/internal/platform/auth"
)

type devMember struct {
	id         int64
	name       string
	generation int
}

var devMembers = []devMember{
	{1, "kim", 3},
	{2, "lee", 3},
	{3, "park", 2},
	{4, "choi", 1},
}

// SeedDev fills memory stores with a small club: four members, each with
// the authorization code "dev-<id>", and ten programs across categories.
func SeedDev(a *auth.MemoryStore, p *attendance.MemoryStore) {
	for _, m := range devMembers {
		a.AddMember(m.id, fmt.Sprintf("dev-%d", m.id))
	}

	cats := []string{"weekly", "event", "presidentsMeeting", "etc"}
	start := time.Date(2026, 3, 2, 19, 0, 0, 0, time.UTC)
	statuses := []string{
		attendance.StatusNonResponse, attendance.StatusAttend,
		attendance.StatusLate, attendance.StatusAbsent,
	}
	for i := int64(1); i <= 10; i++ {
		status := attendance.ProgramActive
		if i <= 2 {
			status = attendance.ProgramEnd
		}
		p.AddProgram(attendance.Program{
			ProgramID: i,
			Title:     fmt.Sprintf("%s #%d", cats[int(i)%len(cats)], i),
			Category:  cats[int(i)%len(cats)],
			Status:    status,
			DeadLine:  start.AddDate(0, 0, 7*int(i)),
		})
		for j, m := range devMembers {
			p.AddAttendee(attendance.Attendee{
				ProgramID:  i,
				MemberID:   m.id,
				Name:       m.name,
				Generation: m.generation,
				Status:     statuses[(int(i)+j)%len(statuses)],
			})
		}
	}
}
