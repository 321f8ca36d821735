// Package session owns login, token reissue, logout and account deletion,
// and hides access-token expiry from every caller that goes through Call.
package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"

	"golang.org/x/sync/singleflight"

	"EEOS-client/internal/client/tokenstore"
	"EEOS-client/internal/client/transport"
	"EEOS-client/internal/platform/apierr"
)

var ErrLoginInProgress = errors.New("session: login already in progress")

var ErrLoginAbandoned = errors.New("session: logged out during login")

var errSessionEnded = errors.New("session: ended")

// Caller is the transport capability the manager drives.
type Caller interface {
	Call(ctx context.Context, req *transport.Request, out any) error
}

type Manager struct {
	tr     Caller
	store  tokenstore.Store
	logger *log.Logger

	mu    sync.Mutex
	state State
	subs  map[int]func(State)
	next  int

	// storeMu orders store mutations; epoch counts ended sessions so a
	// reissue or login that outlives a logout never writes its result.
	storeMu sync.Mutex
	epoch   uint64

	reissue singleflight.Group
}

// New restores the session from store: a complete pair starts the manager
// Authenticated, anything else LoggedOut.
func New(ctx context.Context, tr Caller, store tokenstore.Store, logger *log.Logger) (*Manager, error) {
	if logger == nil {
		logger = log.Default()
	}
	m := &Manager{
		tr:     tr,
		store:  store,
		logger: logger,
		state:  StateLoggedOut,
		subs:   make(map[int]func(State)),
	}
	sess, err := store.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("session: restore: %w", err)
	}
	if sess.Valid() {
		m.state = StateAuthenticated
	}
	return m, nil
}

func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Subscribe registers fn for every state transition. fn runs on the
// goroutine that caused the transition and must not block.
func (m *Manager) Subscribe(fn func(State)) (cancel func()) {
	m.mu.Lock()
	id := m.next
	m.next++
	m.subs[id] = fn
	m.mu.Unlock()
	return func() {
		m.mu.Lock()
		delete(m.subs, id)
		m.mu.Unlock()
	}
}

func (m *Manager) transition(to State) {
	notify(to, m.swap(to))
}

// swap sets the state and returns the subscribers to notify, or nil when
// the state did not change.
func (m *Manager) swap(to State) []func(State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == to {
		return nil
	}
	m.state = to
	subs := make([]func(State), 0, len(m.subs))
	for _, fn := range m.subs {
		subs = append(subs, fn)
	}
	return subs
}

func notify(to State, subs []func(State)) {
	for _, fn := range subs {
		fn(to)
	}
}

// endSession bumps the epoch, clears the store and moves to LoggedOut.
func (m *Manager) endSession(ctx context.Context) error {
	m.storeMu.Lock()
	m.epoch++
	err := m.store.Clear(ctx)
	var subs []func(State)
	if err == nil {
		subs = m.swap(StateLoggedOut)
	}
	m.storeMu.Unlock()
	notify(StateLoggedOut, subs)
	return err
}

// commit writes sess and moves to Authenticated, unless the session ended
// after epoch was taken.
func (m *Manager) commit(ctx context.Context, epoch uint64, sess tokenstore.Session) error {
	m.storeMu.Lock()
	if m.epoch != epoch {
		m.storeMu.Unlock()
		return errSessionEnded
	}
	if err := m.store.Write(ctx, sess); err != nil {
		m.storeMu.Unlock()
		return err
	}
	subs := m.swap(StateAuthenticated)
	m.storeMu.Unlock()
	notify(StateAuthenticated, subs)
	return nil
}

// restore moves back to Authenticated after a transient reissue failure,
// unless the session ended meanwhile.
func (m *Manager) restore(epoch uint64) bool {
	m.storeMu.Lock()
	if m.epoch != epoch {
		m.storeMu.Unlock()
		return false
	}
	subs := m.swap(StateAuthenticated)
	m.storeMu.Unlock()
	notify(StateAuthenticated, subs)
	return true
}

// Login exchanges an authorization code for a token pair. A logout that
// lands before the pair arrives wins and Login returns ErrLoginAbandoned.
func (m *Manager) Login(ctx context.Context, code string) error {
	m.storeMu.Lock()
	m.mu.Lock()
	if m.state == StateLoggingIn {
		m.mu.Unlock()
		m.storeMu.Unlock()
		return ErrLoginInProgress
	}
	prev := m.state
	m.mu.Unlock()

	if prev.HasSession() {
		// a fresh login replaces whatever was stored
		if err := m.store.Clear(ctx); err != nil {
			m.storeMu.Unlock()
			return fmt.Errorf("session: clear before login: %w", err)
		}
	}
	m.epoch++
	epoch := m.epoch
	subs := m.swap(StateLoggingIn)
	m.storeMu.Unlock()
	notify(StateLoggingIn, subs)

	var out tokenResponse
	err := m.tr.Call(ctx, &transport.Request{
		Method: http.MethodPost,
		Path:   "/login",
		Body:   loginRequest{Code: code},
		Public: true,
	}, &out)
	if err == nil && (out.AccessToken == "" || out.RefreshToken == "") {
		err = apierr.Unknown(http.StatusOK, "login response without token pair", nil)
	}
	if err == nil {
		err = m.commit(ctx, epoch, tokenstore.Session{AccessToken: out.AccessToken, RefreshToken: out.RefreshToken})
	}
	if errors.Is(err, errSessionEnded) {
		m.logger.Printf("[INFO] login abandoned: logged out meanwhile")
		return ErrLoginAbandoned
	}
	if err != nil {
		m.logger.Printf("[WARN] login failed: %v", err)
		m.finishLogin(epoch)
		return err
	}

	m.logger.Printf("[INFO] logged in")
	return nil
}

// finishLogin returns a failed login to LoggedOut unless a newer session
// owns the state.
func (m *Manager) finishLogin(epoch uint64) {
	m.storeMu.Lock()
	var subs []func(State)
	if m.epoch == epoch {
		subs = m.swap(StateLoggedOut)
	}
	m.storeMu.Unlock()
	notify(StateLoggedOut, subs)
}

// Reissue exchanges the stored refresh token for a new access token.
// Concurrent calls share one exchange.
func (m *Manager) Reissue(ctx context.Context) error {
	return m.reissueAfter(ctx, "")
}

// reissueAfter reissues unless the stored access token already differs from
// failed, which means another caller refreshed it in the meantime. An empty
// failed always reissues.
func (m *Manager) reissueAfter(ctx context.Context, failed string) error {
	_, err, _ := m.reissue.Do("reissue", func() (any, error) {
		// shared by every waiter, so it must outlive the first caller's ctx
		return nil, m.doReissue(context.WithoutCancel(ctx), failed)
	})
	return err
}

func (m *Manager) doReissue(ctx context.Context, failed string) error {
	m.storeMu.Lock()
	epoch := m.epoch
	sess, err := m.store.Read(ctx)
	if err != nil {
		m.storeMu.Unlock()
		return fmt.Errorf("session: read for reissue: %w", err)
	}
	if !sess.Valid() {
		subs := m.swap(StateLoggedOut)
		m.storeMu.Unlock()
		notify(StateLoggedOut, subs)
		return apierr.RefreshRejected("no refresh token", nil)
	}
	if failed != "" && sess.AccessToken != failed {
		m.storeMu.Unlock()
		return nil
	}
	subs := m.swap(StateReissuing)
	m.storeMu.Unlock()
	notify(StateReissuing, subs)

	var out tokenResponse
	err = m.tr.Call(ctx, &transport.Request{
		Method: http.MethodPost,
		Path:   "/token/reissue",
		Body:   reissueRequest{RefreshToken: sess.RefreshToken},
		Public: true,
	}, &out)
	if err == nil && out.AccessToken == "" {
		err = apierr.Unknown(http.StatusOK, "reissue response without access token", nil)
	}
	if err != nil {
		switch apierr.KindOf(err) {
		case apierr.KindUnauthorized, apierr.KindBusiness:
			m.logger.Printf("[WARN] refresh token rejected, logging out: %v", err)
			m.dropSessionAt(ctx, epoch)
			return apierr.RefreshRejected("refresh token rejected", err)
		default:
			// transient: keep the session and let the caller decide
			m.logger.Printf("[WARN] reissue failed: %v", err)
			if !m.restore(epoch) {
				return apierr.RefreshRejected("session ended during reissue", err)
			}
			return err
		}
	}

	next := tokenstore.Session{AccessToken: out.AccessToken, RefreshToken: sess.RefreshToken}
	if out.RefreshToken != "" {
		next.RefreshToken = out.RefreshToken
	}
	if err := m.commit(ctx, epoch, next); err != nil {
		if errors.Is(err, errSessionEnded) {
			m.logger.Printf("[INFO] reissued tokens discarded: session ended meanwhile")
			return apierr.RefreshRejected("session ended during reissue", nil)
		}
		m.restore(epoch)
		return fmt.Errorf("session: store reissued tokens: %w", err)
	}
	m.logger.Printf("[INFO] access token reissued (rotated=%t)", out.RefreshToken != "")
	return nil
}

// Call sends req with the current access token. An Unauthorized answer
// triggers one shared reissue and exactly one retry; if the reissue fails
// its error is returned instead of the Unauthorized.
func (m *Manager) Call(ctx context.Context, req *transport.Request, out any) error {
	err := m.tr.Call(ctx, req, out)
	if !apierr.IsUnauthorized(err) {
		return err
	}

	if rerr := m.reissueAfter(ctx, req.AuthToken()); rerr != nil {
		return rerr
	}

	err = m.tr.Call(ctx, req, out)
	if apierr.IsUnauthorized(err) {
		// a token we just obtained was refused: the account is gone
		m.logger.Printf("[WARN] reissued token refused, logging out: %v", err)
		m.dropSession(ctx)
		return apierr.RefreshRejected("reissued token refused", err)
	}
	return err
}

// Logout clears the stored session. Calling it while logged out is a no-op.
// A reissue still in flight is discarded when it returns.
func (m *Manager) Logout(ctx context.Context) error {
	if m.State() == StateLoggedOut {
		return nil
	}
	if err := m.endSession(ctx); err != nil {
		return fmt.Errorf("session: clear: %w", err)
	}
	m.logger.Printf("[INFO] logged out")
	return nil
}

// DeleteAccount deletes the account on the backend, then logs out. A failed
// deletion leaves the session in place. Calling it while logged out is a
// no-op.
func (m *Manager) DeleteAccount(ctx context.Context) error {
	if m.State() == StateLoggedOut {
		return nil
	}
	if err := m.Call(ctx, &transport.Request{Method: http.MethodDelete, Path: "/account"}, nil); err != nil {
		m.logger.Printf("[WARN] account deletion failed: %v", err)
		return err
	}
	m.logger.Printf("[INFO] account deleted")
	return m.Logout(ctx)
}

// dropSessionAt drops the session only if it is still the one of epoch; a
// newer login is left alone.
func (m *Manager) dropSessionAt(ctx context.Context, epoch uint64) {
	m.storeMu.Lock()
	if m.epoch != epoch {
		m.storeMu.Unlock()
		return
	}
	m.epoch++
	if err := m.store.Clear(ctx); err != nil {
		m.logger.Printf("[ERROR] clear session: %v", err)
	}
	subs := m.swap(StateLoggedOut)
	m.storeMu.Unlock()
	notify(StateLoggedOut, subs)
}

func (m *Manager) dropSession(ctx context.Context) {
	if err := m.endSession(ctx); err != nil {
		m.logger.Printf("[ERROR] clear session: %v", err)
		m.transition(StateLoggedOut)
	}
}
