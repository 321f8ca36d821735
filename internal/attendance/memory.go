package attendance

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore serves programs and rosters from memory, for development
// and tests.
type MemoryStore struct {
	mu        sync.RWMutex
	programs  map[int64]Program
	attendees map[int64][]Attendee // by program, in roster order
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		programs:  make(map[int64]Program),
		attendees: make(map[int64][]Attendee),
	}
}

func (s *MemoryStore) AddProgram(p Program) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.programs[p.ProgramID] = p
}

func (s *MemoryStore) AddAttendee(a Attendee) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.attendees[a.ProgramID]
	for i := range list {
		if list[i].MemberID == a.MemberID {
			list[i] = a
			return
		}
	}
	s.attendees[a.ProgramID] = append(list, a)
}

func (s *MemoryStore) ListPrograms(_ context.Context, q ProgramQuery) ([]Program, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var all []Program
	for _, p := range s.programs {
		if q.Category != "" && q.Category != CategoryAll && p.Category != q.Category {
			continue
		}
		if q.Status != "" && p.Status != q.Status {
			continue
		}
		all = append(all, p)
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].DeadLine.Equal(all[j].DeadLine) {
			return all[i].DeadLine.After(all[j].DeadLine)
		}
		return all[i].ProgramID > all[j].ProgramID
	})
	return window(all, q.offset(), q.Size), nil
}

func (s *MemoryStore) GetProgram(_ context.Context, id int64) (*Program, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.programs[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (s *MemoryStore) ListAttendees(_ context.Context, q AttendeeQuery) ([]Attendee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var hit []Attendee
	for _, a := range s.attendees[q.ProgramID] {
		if a.Status == q.Status {
			hit = append(hit, a)
		}
	}
	return window(hit, q.offset(), q.Size), nil
}

func (s *MemoryStore) UpdateStatus(_ context.Context, programID, memberID int64, before, to string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.attendees[programID]
	for i := range list {
		if list[i].MemberID == memberID && list[i].Status == before {
			list[i].Status = to
			return 1, nil
		}
	}
	return 0, nil
}

func (s *MemoryStore) CurrentStatus(_ context.Context, programID, memberID int64) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.attendees[programID] {
		if a.MemberID == memberID {
			return a.Status, true, nil
		}
	}
	return "", false, nil
}

func window[T any](all []T, offset, size int) []T {
	if offset >= len(all) {
		return nil
	}
	end := offset + size
	if end > len(all) {
		end = len(all)
	}
	return append([]T(nil), all[offset:end]...)
}
