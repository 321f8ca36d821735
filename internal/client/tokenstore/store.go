// Package tokenstore holds the access/refresh token pair durably.
//
// Implementations make every Write and Clear atomic with respect to Read:
// a reader sees the old pair, the new pair, or no pair, never a mix.
package tokenstore

import (
	"context"
	"errors"
	"fmt"
)

// Session is the persisted credential pair. Both tokens are set or neither is.
type Session struct {
	AccessToken  string `yaml:"access_token"`
	RefreshToken string `yaml:"refresh_token"`
}

// Valid reports whether both tokens are present. A half-set pair counts as
// no session.
func (s Session) Valid() bool {
	return s.AccessToken != "" && s.RefreshToken != ""
}

var ErrIncompleteSession = errors.New("tokenstore: access and refresh token must both be set")

type Store interface {
	Read(ctx context.Context) (Session, error)
	Write(ctx context.Context, s Session) error
	Clear(ctx context.Context) error
}

// Open builds the Store named by driver ("memory", "file" or "sqlite").
func Open(driver, path string) (Store, error) {
	switch driver {
	case "memory":
		return NewMemory(), nil
	case "file":
		return NewFile(path)
	case "sqlite":
		return OpenSQLite(path)
	default:
		return nil, fmt.Errorf("tokenstore: unknown driver %q", driver)
	}
}

// Close releases resources held by s, if it holds any.
func Close(s Store) error {
	if c, ok := s.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}

func checkWrite(s Session) error {
	if !s.Valid() {
		return ErrIncompleteSession
	}
	return nil
}
