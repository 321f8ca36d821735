package apierr

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"golang.org/x/text/language"
)

func TestIsMatchesByKind(t *testing.T) {
	err := fmt.Errorf("load programs: %w", Business(409, CodeConflict, "stale status"))

	if !errors.Is(err, ErrBusiness) {
		t.Fatalf("expected business error to match ErrBusiness")
	}
	if errors.Is(err, ErrNetwork) {
		t.Fatalf("business error must not match ErrNetwork")
	}
	if KindOf(err) != KindBusiness {
		t.Fatalf("expected kind %s, got %s", KindBusiness, KindOf(err))
	}
}

func TestNetworkUnwrapsCause(t *testing.T) {
	err := Network(context.DeadlineExceeded)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected cause to be reachable through Unwrap")
	}
	if !Retryable(err) {
		t.Fatalf("network errors are retryable")
	}
	if Retryable(Unknown(200, "bad body", nil)) {
		t.Fatalf("unknown errors are not retryable")
	}
}

func TestKindOfPlainError(t *testing.T) {
	if KindOf(errors.New("boom")) != "" {
		t.Fatalf("expected empty kind for foreign errors")
	}
	if KindOf(nil) != "" {
		t.Fatalf("expected empty kind for nil")
	}
}

func TestErrorString(t *testing.T) {
	err := Business(409, CodeConflict, "stale status")
	if got := err.Error(); got != "BUSINESS(CONFLICT): stale status" {
		t.Fatalf("unexpected message %q", got)
	}
	err = Network(errors.New("dial tcp: refused"))
	if !strings.Contains(err.Error(), "network failure") {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestUserMessage(t *testing.T) {
	cases := []struct {
		name string
		tag  language.Tag
		err  error
		want string
	}{
		{"network en", language.English, Network(nil), "Could not reach the server"},
		{"refresh ko", language.Korean, RefreshRejected("expired", nil), "다시 로그인"},
		{"business en", language.English, Business(409, CodeConflict, "stale status"), "The request was rejected: stale status"},
		{"foreign error", language.English, errors.New("boom"), "Something went wrong"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := UserMessage(tc.tag, tc.err)
			if !strings.Contains(got, tc.want) {
				t.Fatalf("expected %q to contain %q", got, tc.want)
			}
		})
	}
	if UserMessage(language.English, nil) != "" {
		t.Fatalf("expected empty message for nil error")
	}
}

func TestResolveTag(t *testing.T) {
	cases := map[string]language.Tag{
		"ko-KR":          language.Korean,
		"ko":             language.Korean,
		"en-US":          language.English,
		"fr-FR":          language.English,
		"":               language.English,
		"ko;q=0.9,en":    language.English,
		"not a language": language.English,
	}
	for in, want := range cases {
		if got := ResolveTag(in); got != want {
			t.Fatalf("ResolveTag(%q) = %s, want %s", in, got, want)
		}
	}
}
