package attendance

import (
	"context"
	"fmt"
	"strconv"

	"EEOS-client/internal/platform/apierr"
	"EEOS-client/internal/platform/httpx"
)

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// GET /programs
func (s *Service) ListPrograms(ctx context.Context, q ProgramQuery) ([]ProgramResponse, error) {
	if q.Category == "" {
		q.Category = CategoryAll
	}
	if q.Status == "" {
		q.Status = ProgramActive
	}
	if !categories[q.Category] {
		return nil, httpx.NewInvalidArgumentError("unknown category " + strconv.Quote(q.Category))
	}
	if q.Status != ProgramActive && q.Status != ProgramEnd {
		return nil, httpx.NewInvalidArgumentError("status must be active or end")
	}
	size, err := clampPage(q.Page, q.Size)
	if err != nil {
		return nil, err
	}
	q.Size = size

	rows, err := s.store.ListPrograms(ctx, q)
	if err != nil {
		return nil, err
	}
	out := make([]ProgramResponse, 0, len(rows))
	for i := 0; i < len(rows); i++ {
		out = append(out, rows[i].toDTO())
	}
	return out, nil
}

// GET /programs/:programId
func (s *Service) GetProgram(ctx context.Context, id, memberID int64) (ProgramDetailResponse, error) {
	p, err := s.store.GetProgram(ctx, id)
	if err != nil {
		return ProgramDetailResponse{}, err
	}
	if p == nil {
		return ProgramDetailResponse{}, httpx.NewNotFoundError("program not found")
	}
	res := ProgramDetailResponse{ProgramResponse: p.toDTO()}
	cur, ok, err := s.store.CurrentStatus(ctx, id, memberID)
	if err != nil {
		return ProgramDetailResponse{}, err
	}
	if ok {
		res.MyStatus = cur
	}
	return res, nil
}

// GET /programs/:programId/attendees
func (s *Service) ListAttendees(ctx context.Context, q AttendeeQuery) ([]AttendeeResponse, error) {
	if !validAttendeeStatus(q.Status) {
		return nil, httpx.NewError(apierr.CodeInvalidStatus, "unknown status "+strconv.Quote(q.Status))
	}
	size, err := clampPage(q.Page, q.Size)
	if err != nil {
		return nil, err
	}
	q.Size = size
	if p, err := s.store.GetProgram(ctx, q.ProgramID); err != nil {
		return nil, err
	} else if p == nil {
		return nil, httpx.NewNotFoundError("program not found")
	}

	rows, err := s.store.ListAttendees(ctx, q)
	if err != nil {
		return nil, err
	}
	out := make([]AttendeeResponse, 0, len(rows))
	for i := 0; i < len(rows); i++ {
		out = append(out, rows[i].toDTO())
	}
	return out, nil
}

// PUT /attendance
//
// The change only applies while the member is still in BeforeStatus.
func (s *Service) UpdateStatus(ctx context.Context, memberID int64, in UpdateStatusRequest) error {
	if !validAttendeeStatus(in.BeforeStatus) {
		return httpx.NewError(apierr.CodeInvalidStatus, "unknown beforeStatus "+strconv.Quote(in.BeforeStatus))
	}
	if !settable(in.Status) {
		return httpx.NewError(apierr.CodeInvalidStatus, "cannot change status to "+strconv.Quote(in.Status))
	}
	if in.BeforeStatus == in.Status {
		return httpx.NewError(apierr.CodeSameStatus, "status is unchanged")
	}

	p, err := s.store.GetProgram(ctx, in.SubjectID)
	if err != nil {
		return err
	}
	if p == nil {
		return httpx.NewNotFoundError("program not found")
	}
	if p.Status != ProgramActive {
		return httpx.NewConflictError("program has ended")
	}

	n, err := s.store.UpdateStatus(ctx, in.SubjectID, memberID, in.BeforeStatus, in.Status)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	cur, ok, err := s.store.CurrentStatus(ctx, in.SubjectID, memberID)
	if err != nil {
		return err
	}
	if !ok {
		return httpx.NewNotFoundError("not on this program's roster")
	}
	return httpx.NewConflictError(fmt.Sprintf("status is %s, not %s", cur, in.BeforeStatus))
}

func clampPage(page, size int) (int, error) {
	if page < 0 {
		return 0, httpx.NewInvalidArgumentError("page must be >= 0")
	}
	if size <= 0 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return size, nil
}
