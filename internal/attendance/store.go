package attendance

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"EEOS-client/internal/platform/db"
)

type Store interface {
	ListPrograms(ctx context.Context, q ProgramQuery) ([]Program, error)
	GetProgram(ctx context.Context, id int64) (*Program, error)
	ListAttendees(ctx context.Context, q AttendeeQuery) ([]Attendee, error)
	// UpdateStatus moves the member from before to to and reports how many
	// rows changed; 0 means the member is not in before (or not listed).
	UpdateStatus(ctx context.Context, programID, memberID int64, before, to string) (int64, error)
	CurrentStatus(ctx context.Context, programID, memberID int64) (string, bool, error)
}

// MySQLStore reads the tables
//
//	programs(program_id PK, title, category, status, dead_line)
//	attendees(program_id, member_id, status, updated_at, PK(program_id, member_id))
//	members(member_id PK, name, generation)
type MySQLStore struct{ db db.DBTX }

func NewMySQLStore(conn db.DBTX) *MySQLStore { return &MySQLStore{db: conn} }

// ListPrograms: 条件に応じて動的WHERE + ORDER + LIMIT/OFFSET
func (s *MySQLStore) ListPrograms(ctx context.Context, q ProgramQuery) ([]Program, error) {
	var (
		buf    bytes.Buffer
		args   []any
		wheres []string
	)
	buf.WriteString(`
	SELECT program_id, title, category, status, dead_line
	FROM programs
	`)
	if q.Category != "" && q.Category != CategoryAll {
		wheres = append(wheres, "category = ?")
		args = append(args, q.Category)
	}
	if q.Status != "" {
		wheres = append(wheres, "status = ?")
		args = append(args, q.Status)
	}
	if len(wheres) > 0 {
		buf.WriteString(" WHERE " + strings.Join(wheres, " AND "))
	}
	buf.WriteString(" ORDER BY dead_line DESC, program_id DESC")
	buf.WriteString(fmt.Sprintf(" LIMIT %d OFFSET %d", q.Size, q.offset()))

	rows, err := s.db.QueryContext(ctx, buf.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Program
	for rows.Next() {
		var p Program
		if err := rows.Scan(&p.ProgramID, &p.Title, &p.Category, &p.Status, &p.DeadLine); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *MySQLStore) GetProgram(ctx context.Context, id int64) (*Program, error) {
	var p Program
	err := s.db.QueryRowContext(ctx, `
	SELECT program_id, title, category, status, dead_line
	FROM programs WHERE program_id = ?`, id,
	).Scan(&p.ProgramID, &p.Title, &p.Category, &p.Status, &p.DeadLine)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *MySQLStore) ListAttendees(ctx context.Context, q AttendeeQuery) ([]Attendee, error) {
	var buf bytes.Buffer
	buf.WriteString(`
	SELECT a.program_id, a.member_id, m.name, m.generation, a.status
	FROM attendees a
	JOIN members m ON m.member_id = a.member_id
	WHERE a.program_id = ? AND a.status = ?
	ORDER BY m.generation DESC, m.name ASC, a.member_id ASC`)
	buf.WriteString(fmt.Sprintf(" LIMIT %d OFFSET %d", q.Size, q.offset()))

	rows, err := s.db.QueryContext(ctx, buf.String(), q.ProgramID, q.Status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Attendee
	for rows.Next() {
		var a Attendee
		if err := rows.Scan(&a.ProgramID, &a.MemberID, &a.Name, &a.Generation, &a.Status); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *MySQLStore) UpdateStatus(ctx context.Context, programID, memberID int64, before, to string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
	UPDATE attendees SET status = ?, updated_at = UTC_TIMESTAMP(6)
	WHERE program_id = ? AND member_id = ? AND status = ?`,
		to, programID, memberID, before)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *MySQLStore) CurrentStatus(ctx context.Context, programID, memberID int64) (string, bool, error) {
	var st string
	err := s.db.QueryRowContext(ctx, `
	SELECT status FROM attendees WHERE program_id = ? AND member_id = ?`, programID, memberID,
	).Scan(&st)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return st, true, nil
}
