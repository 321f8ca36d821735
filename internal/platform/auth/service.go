package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"
	"golang.org/x/crypto/blake2b"

	"EEOS-client/internal/platform/apierr"
	"EEOS-client/internal/platform/httpx"
)

type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

type IDGen interface {
	New() (string, error)
}

type ulidGen struct{}

func (ulidGen) New() (string, error) {
	id, err := ulid.New(ulid.Timestamp(time.Now().UTC()), ulid.Monotonic(rand.Reader, 0))
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

type TokenConfig struct {
	Secret     []byte
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	// Rotate hands out a new refresh token on every reissue and revokes
	// the one presented.
	Rotate bool
}

type Service struct {
	store Store
	cfg   TokenConfig
	clock Clock
	id    IDGen
}

type Option func(*Service)

func WithClock(c Clock) Option { return func(s *Service) { s.clock = c } }

func WithIDGen(g IDGen) Option { return func(s *Service) { s.id = g } }

func NewService(store Store, cfg TokenConfig, opts ...Option) *Service {
	s := &Service{store: store, cfg: cfg, clock: realClock{}, id: ulidGen{}}
	for _, o := range opts {
		o(s)
	}
	return s
}

var (
	errInvalidCode    = httpx.NewError(apierr.CodeInvalidCode, "authorization code is invalid or used")
	errInvalidRefresh = httpx.NewError(apierr.CodeInvalidRefreshToken, "refresh token is invalid or expired")
)

// Login exchanges a one-time authorization code for a token pair.
func (s *Service) Login(ctx context.Context, code string) (TokenPair, error) {
	memberID, err := s.store.ConsumeCode(ctx, code)
	if errors.Is(err, ErrNotFound) {
		return TokenPair{}, errInvalidCode
	}
	if err != nil {
		return TokenPair{}, err
	}
	return s.issuePair(ctx, memberID)
}

// Reissue trades a refresh token for a new access token. With rotation on,
// the presented token is revoked and a new one returned.
func (s *Service) Reissue(ctx context.Context, refresh string) (TokenPair, error) {
	sess, err := s.store.SessionByHash(ctx, HashToken(refresh))
	if err != nil {
		return TokenPair{}, err
	}
	now := s.clock.Now()
	if sess == nil || !sess.Active(now) {
		return TokenPair{}, errInvalidRefresh
	}
	ok, err := s.store.MemberExists(ctx, sess.MemberID)
	if err != nil {
		return TokenPair{}, err
	}
	if !ok {
		return TokenPair{}, errInvalidRefresh
	}

	if !s.cfg.Rotate {
		access, err := s.signAccess(sess.MemberID, now)
		if err != nil {
			return TokenPair{}, err
		}
		return TokenPair{AccessToken: access}, nil
	}

	n, err := s.store.RevokeSession(ctx, sess.ID, now)
	if err != nil {
		return TokenPair{}, err
	}
	if n == 0 {
		// lost a race with another reissue of the same token
		return TokenPair{}, errInvalidRefresh
	}
	return s.issuePair(ctx, sess.MemberID)
}

func (s *Service) DeleteAccount(ctx context.Context, memberID int64) error {
	n, err := s.store.DeleteMember(ctx, memberID)
	if err != nil {
		return err
	}
	if n == 0 {
		return httpx.NewNotFoundError("account not found")
	}
	return nil
}

// ParseAccess validates an access token and returns its member id.
func (s *Service) ParseAccess(token string) (int64, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return s.cfg.Secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.cfg.Issuer),
		jwt.WithTimeFunc(s.clock.Now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return 0, err
	}
	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid subject %q", claims.Subject)
	}
	return id, nil
}

func (s *Service) issuePair(ctx context.Context, memberID int64) (TokenPair, error) {
	now := s.clock.Now()
	access, err := s.signAccess(memberID, now)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := NewRefreshToken()
	if err != nil {
		return TokenPair{}, err
	}
	id, err := s.id.New()
	if err != nil {
		return TokenPair{}, err
	}
	err = s.store.CreateSession(ctx, RefreshSession{
		ID:        id,
		MemberID:  memberID,
		TokenHash: HashToken(refresh),
		ExpiresAt: now.Add(s.cfg.RefreshTTL),
		CreatedAt: now,
	})
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *Service) signAccess(memberID int64, now time.Time) (string, error) {
	jti, err := s.id.New()
	if err != nil {
		return "", err
	}
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(memberID, 10),
		Issuer:    s.cfg.Issuer,
		ID:        jti,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.AccessTTL)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.cfg.Secret)
}

// NewRefreshToken returns 32 random bytes, base64url encoded.
func NewRefreshToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// HashToken is the at-rest form of a refresh token.
func HashToken(token string) string {
	sum := blake2b.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
