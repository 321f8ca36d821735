package tokenstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func openStores(t *testing.T) map[string]Store {
	t.Helper()
	dir := t.TempDir()

	file, err := NewFile(filepath.Join(dir, "session.yaml"))
	if err != nil {
		t.Fatalf("file store: %v", err)
	}
	lite, err := OpenSQLite(filepath.Join(dir, "session.db"))
	if err != nil {
		t.Fatalf("sqlite store: %v", err)
	}
	t.Cleanup(func() { _ = lite.Close() })

	return map[string]Store{
		"memory": NewMemory(),
		"file":   file,
		"sqlite": lite,
	}
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, st := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			got, err := st.Read(ctx)
			if err != nil {
				t.Fatalf("read empty: %v", err)
			}
			if got.Valid() {
				t.Fatalf("expected no session, got %+v", got)
			}

			if err := st.Write(ctx, Session{AccessToken: "A1", RefreshToken: "R1"}); err != nil {
				t.Fatalf("write: %v", err)
			}
			if err := st.Write(ctx, Session{AccessToken: "A2", RefreshToken: "R1"}); err != nil {
				t.Fatalf("overwrite: %v", err)
			}
			got, err = st.Read(ctx)
			if err != nil {
				t.Fatalf("read: %v", err)
			}
			if got != (Session{AccessToken: "A2", RefreshToken: "R1"}) {
				t.Fatalf("unexpected session %+v", got)
			}

			if err := st.Clear(ctx); err != nil {
				t.Fatalf("clear: %v", err)
			}
			if err := st.Clear(ctx); err != nil {
				t.Fatalf("second clear: %v", err)
			}
			got, _ = st.Read(ctx)
			if got != (Session{}) {
				t.Fatalf("expected empty session after clear, got %+v", got)
			}
		})
	}
}

func TestStoreRejectsHalfSession(t *testing.T) {
	ctx := context.Background()
	for name, st := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			if err := st.Write(ctx, Session{AccessToken: "A1", RefreshToken: "R1"}); err != nil {
				t.Fatalf("write: %v", err)
			}
			for _, half := range []Session{{AccessToken: "A2"}, {RefreshToken: "R2"}, {}} {
				if err := st.Write(ctx, half); !errors.Is(err, ErrIncompleteSession) {
					t.Fatalf("expected ErrIncompleteSession for %+v, got %v", half, err)
				}
			}
			got, _ := st.Read(ctx)
			if got != (Session{AccessToken: "A1", RefreshToken: "R1"}) {
				t.Fatalf("rejected write must not change the stored pair, got %+v", got)
			}
		})
	}
}

func TestDurableStoresSurviveReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	f1, _ := NewFile(filepath.Join(dir, "nested", "session.yaml"))
	if err := f1.Write(ctx, Session{AccessToken: "A1", RefreshToken: "R1"}); err != nil {
		t.Fatalf("file write: %v", err)
	}
	f2, _ := NewFile(filepath.Join(dir, "nested", "session.yaml"))
	if got, _ := f2.Read(ctx); got.AccessToken != "A1" {
		t.Fatalf("file store lost session: %+v", got)
	}
	info, err := os.Stat(filepath.Join(dir, "nested", "session.yaml"))
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("expected 0600, got %v", info.Mode().Perm())
	}

	path := filepath.Join(dir, "session.db")
	s1, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s1.Write(ctx, Session{AccessToken: "A1", RefreshToken: "R1"}); err != nil {
		t.Fatalf("sqlite write: %v", err)
	}
	_ = s1.Close()
	s2, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()
	if got, _ := s2.Read(ctx); got.RefreshToken != "R1" {
		t.Fatalf("sqlite store lost session: %+v", got)
	}
}

func TestFileReadTreatsHalfDocumentAsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.yaml")
	if err := os.WriteFile(path, []byte("access_token: A1\n"), 0o600); err != nil {
		t.Fatalf("seed: %v", err)
	}
	f, _ := NewFile(path)
	got, err := f.Read(context.Background())
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got.Valid() || got.AccessToken != "" {
		t.Fatalf("expected half document to read as empty, got %+v", got)
	}
}

func TestConcurrentReadsNeverSeeHalfPair(t *testing.T) {
	ctx := context.Background()
	for name, st := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			pairs := []Session{{AccessToken: "A1", RefreshToken: "R1"}, {AccessToken: "A2", RefreshToken: "R2"}}
			var wg sync.WaitGroup
			for i := 0; i < 4; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					for j := 0; j < 25; j++ {
						_ = st.Write(ctx, pairs[(i+j)%2])
					}
				}(i)
			}
			errs := make(chan string, 100)
			for i := 0; i < 4; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for j := 0; j < 25; j++ {
						got, err := st.Read(ctx)
						if err != nil {
							errs <- err.Error()
							return
						}
						if got.Valid() && got.AccessToken[1] != got.RefreshToken[1] {
							errs <- "mixed pair " + got.AccessToken + "/" + got.RefreshToken
							return
						}
					}
				}()
			}
			wg.Wait()
			close(errs)
			for e := range errs {
				t.Fatal(e)
			}
		})
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	if _, err := Open("keychain", ""); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
	st, err := Open("memory", "")
	if err != nil {
		t.Fatalf("memory: %v", err)
	}
	if err := Close(st); err != nil {
		t.Fatalf("close memory: %v", err)
	}
}
