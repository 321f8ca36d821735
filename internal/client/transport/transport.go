// Package transport sends JSON requests to the EEOS backend, attaches the
// current access token and classifies every failure into an apierr.Kind.
//
// The transport never re-authenticates on its own. A 401 comes back as
// apierr.KindUnauthorized and the session layer decides what to do.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"EEOS-client/internal/client/tokenstore"
	"EEOS-client/internal/platform/apierr"
)

const maxBodyBytes = 4 << 20

// TokenSource yields the session whose access token is attached to calls.
type TokenSource interface {
	Read(ctx context.Context) (tokenstore.Session, error)
}

// Request describes one backend call. It can be sent more than once.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   any
	// Public requests go out without an Authorization header.
	Public bool

	authToken string
}

// AuthToken is the access token attached on the most recent send.
func (r *Request) AuthToken() string { return r.authToken }

type Transport struct {
	baseURL *url.URL
	client  *http.Client
	tokens  TokenSource
}

type Option func(*Transport)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(c *http.Client) Option {
	return func(t *Transport) { t.client = c }
}

func New(baseURL string, timeout time.Duration, tokens TokenSource, opts ...Option) (*Transport, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("transport: parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("transport: base url must be http(s), got %q", baseURL)
	}
	t := &Transport{
		baseURL: u,
		client:  &http.Client{Timeout: timeout},
		tokens:  tokens,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Call sends req and decodes the envelope's data into out (which may be nil).
func (t *Transport) Call(ctx context.Context, req *Request, out any) error {
	httpReq, err := t.build(ctx, req)
	if err != nil {
		return err
	}

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return apierr.Network(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return apierr.Network(fmt.Errorf("read body: %w", err))
	}
	return decode(resp.StatusCode, body, out)
}

func (t *Transport) build(ctx context.Context, req *Request) (*http.Request, error) {
	u := *t.baseURL
	u.Path = u.Path + "/" + strings.TrimLeft(req.Path, "/")
	if len(req.Query) > 0 {
		u.RawQuery = req.Query.Encode()
	}

	var body io.Reader
	if req.Body != nil {
		buf, err := json.Marshal(req.Body)
		if err != nil {
			return nil, apierr.Unknown(0, "encode request body", err)
		}
		body = bytes.NewReader(buf)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, u.String(), body)
	if err != nil {
		return nil, apierr.Unknown(0, "build request", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Request-Id", uuid.NewString())
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	req.authToken = ""
	if !req.Public && t.tokens != nil {
		sess, err := t.tokens.Read(ctx)
		if err != nil {
			return nil, apierr.Unknown(0, "read session", err)
		}
		if sess.Valid() {
			req.authToken = sess.AccessToken
			httpReq.Header.Set("Authorization", "Bearer "+sess.AccessToken)
		}
	}
	return httpReq, nil
}

func decode(status int, body []byte, out any) error {
	var env apierr.Envelope
	envErr := json.Unmarshal(body, &env)

	if status == http.StatusUnauthorized {
		return apierr.Unauthorized(env.Code, env.Message)
	}

	if status >= 400 || (envErr == nil && !env.Success) {
		switch status {
		case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return apierr.Network(fmt.Errorf("upstream status %d", status))
		}
		if envErr != nil || env.Code == "" {
			return apierr.Unknown(status, fmt.Sprintf("unexpected status %d", status), envErr)
		}
		if status >= 500 {
			// a server fault is not a domain rejection even when it carries a code
			e := apierr.Unknown(status, env.Message, nil)
			e.Code = env.Code
			return e
		}
		return apierr.Business(status, env.Code, env.Message)
	}

	if envErr != nil {
		return apierr.Unknown(status, "malformed response envelope", envErr)
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return apierr.Unknown(status, "malformed response data", err)
	}
	return nil
}

// IsCanceled reports whether err came from the caller's context ending.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
