package auth

import "time"

// RefreshSession is one issued refresh token. Only its hash is stored.
type RefreshSession struct {
	ID        string // ULID
	MemberID  int64
	TokenHash string
	ExpiresAt time.Time
	RevokedAt *time.Time
	CreatedAt time.Time
}

func (s RefreshSession) Active(now time.Time) bool {
	return s.RevokedAt == nil && now.Before(s.ExpiresAt)
}

// TokenPair is what login and reissue hand back. RefreshToken is empty
// when a reissue keeps the old refresh token.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken,omitempty"`
}

type loginRequest struct {
	Code string `json:"code" binding:"required"`
}

type reissueRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}
