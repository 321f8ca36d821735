package transport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"EEOS-client/internal/client/tokenstore"
	"EEOS-client/internal/platform/apierr"
)

func newTransport(t *testing.T, h http.HandlerFunc, tokens TokenSource) *Transport {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	tr, err := New(srv.URL, 2*time.Second, tokens)
	if err != nil {
		t.Fatalf("new transport: %v", err)
	}
	return tr
}

func writeEnvelope(w http.ResponseWriter, status int, env apierr.Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(env)
}

func TestCallAttachesTokenAndDecodesData(t *testing.T) {
	store := tokenstore.NewMemory()
	_ = store.Write(context.Background(), tokenstore.Session{AccessToken: "A1", RefreshToken: "R1"})

	tr := newTransport(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer A1" {
			t.Errorf("expected bearer A1, got %q", got)
		}
		if r.Header.Get("X-Request-Id") == "" {
			t.Errorf("expected request id header")
		}
		if r.URL.Path != "/programs" || r.URL.Query().Get("page") != "2" {
			t.Errorf("unexpected url %s", r.URL)
		}
		writeEnvelope(w, http.StatusOK, apierr.Envelope{Success: true, Data: json.RawMessage(`[{"id":1},{"id":2}]`)})
	}, store)

	req := &Request{Method: http.MethodGet, Path: "programs", Query: url.Values{"page": {"2"}}}
	var out []struct {
		ID int `json:"id"`
	}
	if err := tr.Call(context.Background(), req, &out); err != nil {
		t.Fatalf("call: %v", err)
	}
	if len(out) != 2 || out[1].ID != 2 {
		t.Fatalf("unexpected data %+v", out)
	}
	if req.AuthToken() != "A1" {
		t.Fatalf("expected request to record token A1, got %q", req.AuthToken())
	}
}

func TestPublicRequestHasNoAuthorization(t *testing.T) {
	store := tokenstore.NewMemory()
	_ = store.Write(context.Background(), tokenstore.Session{AccessToken: "A1", RefreshToken: "R1"})

	tr := newTransport(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "" {
			t.Errorf("public request must not carry a token")
		}
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["code"] != "abc" {
			t.Errorf("unexpected body %v", body)
		}
		writeEnvelope(w, http.StatusOK, apierr.Envelope{Success: true})
	}, store)

	req := &Request{Method: http.MethodPost, Path: "/login", Body: map[string]string{"code": "abc"}, Public: true}
	if err := tr.Call(context.Background(), req, nil); err != nil {
		t.Fatalf("call: %v", err)
	}
	if req.AuthToken() != "" {
		t.Fatalf("public request must not record a token")
	}
}

func TestCallClassifiesFailures(t *testing.T) {
	cases := []struct {
		name    string
		handler http.HandlerFunc
		kind    apierr.Kind
		code    string
	}{
		{
			name: "unauthorized",
			handler: func(w http.ResponseWriter, r *http.Request) {
				writeEnvelope(w, http.StatusUnauthorized, apierr.Envelope{Code: apierr.CodeUnauthorized, Message: "expired"})
			},
			kind: apierr.KindUnauthorized,
			code: apierr.CodeUnauthorized,
		},
		{
			name: "unauthorized without envelope",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
			},
			kind: apierr.KindUnauthorized,
		},
		{
			name: "business",
			handler: func(w http.ResponseWriter, r *http.Request) {
				writeEnvelope(w, http.StatusConflict, apierr.Envelope{Code: apierr.CodeConflict, Message: "stale"})
			},
			kind: apierr.KindBusiness,
			code: apierr.CodeConflict,
		},
		{
			name: "business with 200",
			handler: func(w http.ResponseWriter, r *http.Request) {
				writeEnvelope(w, http.StatusOK, apierr.Envelope{Success: false, Code: apierr.CodeInvalidStatus})
			},
			kind: apierr.KindBusiness,
			code: apierr.CodeInvalidStatus,
		},
		{
			name: "server fault with code",
			handler: func(w http.ResponseWriter, r *http.Request) {
				writeEnvelope(w, http.StatusInternalServerError, apierr.Envelope{Code: apierr.CodeInternal, Message: "db down"})
			},
			kind: apierr.KindUnknown,
			code: apierr.CodeInternal,
		},
		{
			name: "gateway",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusServiceUnavailable)
			},
			kind: apierr.KindNetwork,
		},
		{
			name: "html error page",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte("<html>oops</html>"))
			},
			kind: apierr.KindUnknown,
		},
		{
			name: "malformed success",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte("not json"))
			},
			kind: apierr.KindUnknown,
		},
		{
			name: "malformed data",
			handler: func(w http.ResponseWriter, r *http.Request) {
				writeEnvelope(w, http.StatusOK, apierr.Envelope{Success: true, Data: json.RawMessage(`{"id":"x"}`)})
			},
			kind: apierr.KindUnknown,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tr := newTransport(t, tc.handler, nil)
			var out []int
			err := tr.Call(context.Background(), &Request{Method: http.MethodGet, Path: "/programs"}, &out)
			if apierr.KindOf(err) != tc.kind {
				t.Fatalf("expected kind %s, got %v", tc.kind, err)
			}
			var e *apierr.Error
			if !errors.As(err, &e) || e.Code != tc.code {
				t.Fatalf("expected code %q, got %v", tc.code, err)
			}
		})
	}
}

func TestCallNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	tr, err := New(base, time.Second, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	err = tr.Call(context.Background(), &Request{Method: http.MethodGet, Path: "/programs"}, nil)
	if !errors.Is(err, apierr.ErrNetwork) {
		t.Fatalf("expected network error, got %v", err)
	}
}

func TestCallCanceledContext(t *testing.T) {
	tr := newTransport(t, func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusOK, apierr.Envelope{Success: true})
	}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := tr.Call(ctx, &Request{Method: http.MethodGet, Path: "/programs"}, nil)
	if !IsCanceled(err) {
		t.Fatalf("expected canceled error, got %v", err)
	}
	if apierr.KindOf(err) != apierr.KindNetwork {
		t.Fatalf("expected network kind, got %v", err)
	}
}

func TestNewRejectsBadBaseURL(t *testing.T) {
	if _, err := New("ftp://example.com", time.Second, nil); err == nil {
		t.Fatalf("expected error for non-http scheme")
	}
}
