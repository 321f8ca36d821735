package auth

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"EEOS-client/internal/platform/apierr"
)

func newRouter(svc *Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterRoutes(r, svc)
	return r
}

func do(r http.Handler, method, path, token string, body any) (*httptest.ResponseRecorder, apierr.Envelope) {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var env apierr.Envelope
	_ = json.Unmarshal(w.Body.Bytes(), &env)
	return w, env
}

func TestLoginHandler(t *testing.T) {
	svc, _, _ := newTestService(true)
	r := newRouter(svc)

	w, env := do(r, http.MethodPost, "/login", "", gin.H{"code": "code-1"})
	if w.Code != http.StatusOK || !env.Success {
		t.Fatalf("login: %d %s", w.Code, w.Body.String())
	}
	var pair TokenPair
	if err := json.Unmarshal(env.Data, &pair); err != nil || pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatalf("unexpected data %s (%v)", env.Data, err)
	}

	w, env = do(r, http.MethodPost, "/login", "", gin.H{"code": "code-1"})
	if w.Code != http.StatusBadRequest || env.Code != apierr.CodeInvalidCode {
		t.Fatalf("reused code: %d %s", w.Code, w.Body.String())
	}

	w, env = do(r, http.MethodPost, "/login", "", gin.H{})
	if w.Code != http.StatusBadRequest || env.Code != apierr.CodeInvalidArgument {
		t.Fatalf("missing code: %d %s", w.Code, w.Body.String())
	}
}

func TestReissueHandlerOmitsRefreshWithoutRotation(t *testing.T) {
	svc, _, _ := newTestService(false)
	r := newRouter(svc)
	_, env := do(r, http.MethodPost, "/login", "", gin.H{"code": "code-1"})
	var pair TokenPair
	_ = json.Unmarshal(env.Data, &pair)

	w, env := do(r, http.MethodPost, "/token/reissue", "", gin.H{"refreshToken": pair.RefreshToken})
	if w.Code != http.StatusOK {
		t.Fatalf("reissue: %d %s", w.Code, w.Body.String())
	}
	var raw map[string]any
	_ = json.Unmarshal(env.Data, &raw)
	if _, ok := raw["refreshToken"]; ok {
		t.Fatalf("refreshToken must be omitted, got %s", env.Data)
	}
}

func TestDeleteAccountRequiresToken(t *testing.T) {
	svc, _, _ := newTestService(true)
	r := newRouter(svc)

	w, env := do(r, http.MethodDelete, "/account", "", nil)
	if w.Code != http.StatusUnauthorized || env.Code != apierr.CodeUnauthorized {
		t.Fatalf("no token: %d %s", w.Code, w.Body.String())
	}
	w, _ = do(r, http.MethodDelete, "/account", "garbage", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("bad token: %d", w.Code)
	}

	_, env = do(r, http.MethodPost, "/login", "", gin.H{"code": "code-1"})
	var pair TokenPair
	_ = json.Unmarshal(env.Data, &pair)
	w, env = do(r, http.MethodDelete, "/account", pair.AccessToken, nil)
	if w.Code != http.StatusOK || !env.Success {
		t.Fatalf("delete: %d %s", w.Code, w.Body.String())
	}
}
