package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"EEOS-client/internal/platform/db"
)

var ErrNotFound = errors.New("not found")

type Store interface {
	// ConsumeCode resolves an authorization code to its member and marks it
	// used. Unknown or used codes yield ErrNotFound.
	ConsumeCode(ctx context.Context, code string) (int64, error)
	MemberExists(ctx context.Context, memberID int64) (bool, error)
	// DeleteMember removes the member and every refresh session it holds.
	DeleteMember(ctx context.Context, memberID int64) (int64, error)

	CreateSession(ctx context.Context, s RefreshSession) error
	SessionByHash(ctx context.Context, hash string) (*RefreshSession, error)
	RevokeSession(ctx context.Context, id string, at time.Time) (int64, error)
}

// ===== memory =====

type MemoryStore struct {
	mu       sync.Mutex
	members  map[int64]bool
	codes    map[string]int64
	sessions map[string]RefreshSession // by hash
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		members:  make(map[int64]bool),
		codes:    make(map[string]int64),
		sessions: make(map[string]RefreshSession),
	}
}

// AddMember registers memberID and an authorization code that logs it in.
func (s *MemoryStore) AddMember(memberID int64, code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.members[memberID] = true
	if code != "" {
		s.codes[code] = memberID
	}
}

// AddCode issues another authorization code for an existing member.
func (s *MemoryStore) AddCode(memberID int64, code string) { s.AddMember(memberID, code) }

func (s *MemoryStore) ConsumeCode(_ context.Context, code string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.codes[code]
	if !ok || !s.members[id] {
		return 0, ErrNotFound
	}
	delete(s.codes, code)
	return id, nil
}

func (s *MemoryStore) MemberExists(_ context.Context, memberID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.members[memberID], nil
}

func (s *MemoryStore) DeleteMember(_ context.Context, memberID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.members[memberID] {
		return 0, nil
	}
	delete(s.members, memberID)
	for h, sess := range s.sessions {
		if sess.MemberID == memberID {
			delete(s.sessions, h)
		}
	}
	return 1, nil
}

func (s *MemoryStore) CreateSession(_ context.Context, sess RefreshSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.sessions[sess.TokenHash]; dup {
		return fmt.Errorf("refresh session %s: duplicate token hash", sess.ID)
	}
	s.sessions[sess.TokenHash] = sess
	return nil
}

func (s *MemoryStore) SessionByHash(_ context.Context, hash string) (*RefreshSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[hash]
	if !ok {
		return nil, nil
	}
	return &sess, nil
}

func (s *MemoryStore) RevokeSession(_ context.Context, id string, at time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for h, sess := range s.sessions {
		if sess.ID == id && sess.RevokedAt == nil {
			sess.RevokedAt = &at
			s.sessions[h] = sess
			return 1, nil
		}
	}
	return 0, nil
}

// ===== mysql =====

// MySQLStore keeps members and sessions in the tables
//
//	members(member_id PK, name, generation, created_at)
//	auth_codes(code PK, member_id, used_at NULL)
//	refresh_sessions(session_id PK, member_id, token_hash UNIQUE, expires_at, revoked_at NULL, created_at)
type MySQLStore struct{ db *sql.DB }

func NewMySQLStore(conn *sql.DB) *MySQLStore { return &MySQLStore{db: conn} }

func (s *MySQLStore) ConsumeCode(ctx context.Context, code string) (int64, error) {
	var memberID int64
	err := db.RunInTx(ctx, s.db, nil, func(ctx context.Context, tx db.DBTX) error {
		err := tx.QueryRowContext(ctx, `
SELECT c.member_id
FROM auth_codes c
JOIN members m ON m.member_id = c.member_id
WHERE c.code = ? AND c.used_at IS NULL
LIMIT 1
FOR UPDATE`, code).Scan(&memberID)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `UPDATE auth_codes SET used_at = UTC_TIMESTAMP(6) WHERE code = ?`, code)
		return err
	})
	if err != nil {
		return 0, err
	}
	return memberID, nil
}

func (s *MySQLStore) MemberExists(ctx context.Context, memberID int64) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM members WHERE member_id = ? LIMIT 1`, memberID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *MySQLStore) DeleteMember(ctx context.Context, memberID int64) (int64, error) {
	var n int64
	err := db.RunInTx(ctx, s.db, nil, func(ctx context.Context, tx db.DBTX) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM refresh_sessions WHERE member_id = ?`, memberID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM auth_codes WHERE member_id = ?`, memberID); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM members WHERE member_id = ?`, memberID)
		if err != nil {
			return err
		}
		n, err = res.RowsAffected()
		return err
	})
	return n, err
}

func (s *MySQLStore) CreateSession(ctx context.Context, sess RefreshSession) error {
	const q = `
INSERT INTO refresh_sessions (session_id, member_id, token_hash, expires_at, created_at)
VALUES (?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, q, sess.ID, sess.MemberID, sess.TokenHash, sess.ExpiresAt.UTC(), sess.CreatedAt.UTC())
	if db.IsDuplicateKey(err) {
		return fmt.Errorf("refresh session %s: duplicate token hash", sess.ID)
	}
	return err
}

func (s *MySQLStore) SessionByHash(ctx context.Context, hash string) (*RefreshSession, error) {
	const q = `
SELECT session_id, member_id, token_hash, expires_at, revoked_at, created_at
FROM refresh_sessions
WHERE token_hash = ?
LIMIT 1`
	var (
		r       RefreshSession
		revoked sql.NullTime
	)
	err := s.db.QueryRowContext(ctx, q, hash).Scan(&r.ID, &r.MemberID, &r.TokenHash, &r.ExpiresAt, &revoked, &r.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if revoked.Valid {
		t := revoked.Time
		r.RevokedAt = &t
	}
	return &r, nil
}

func (s *MySQLStore) RevokeSession(ctx context.Context, id string, at time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE refresh_sessions SET revoked_at = ? WHERE session_id = ? AND revoked_at IS NULL`, at.UTC(), id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
