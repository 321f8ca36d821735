package programs

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"EEOS-client/internal/client/paging"
	"EEOS-client/internal/client/transport"
	"EEOS-client/internal/platform/apierr"
)

type fakeCaller struct {
	reqs []transport.Request
	data string
	err  error
}

func (f *fakeCaller) Call(_ context.Context, req *transport.Request, out any) error {
	f.reqs = append(f.reqs, *req)
	if f.err != nil {
		return f.err
	}
	return json.Unmarshal([]byte(f.data), out)
}

func TestFetcherBuildsListQuery(t *testing.T) {
	f := &fakeCaller{data: `[{"programId":4,"title":"etc #4","category":"etc","status":"active"}]`}
	fetch := NewFetcher(f)
	got, err := fetch(context.Background(), paging.Query{FilterContext: Context(CategoryEtc, StatusActive), Page: 2, PageSize: 7})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(got) != 1 || got[0].ProgramID != 4 {
		t.Fatalf("unexpected programs %+v", got)
	}
	q := f.reqs[0].Query
	if f.reqs[0].Path != "/programs" || q.Get("category") != "etc" || q.Get("status") != "active" || q.Get("page") != "2" || q.Get("size") != "7" {
		t.Fatalf("unexpected request %+v", f.reqs[0])
	}
}

func TestFetcherRejectsForeignContext(t *testing.T) {
	f := &fakeCaller{}
	fetch := NewFetcher(f)
	_, err := fetch(context.Background(), paging.Query{
		FilterContext: paging.FilterContext{Category: "roster", Status: "late", SubjectID: 3},
		PageSize:      7,
	})
	if !errors.Is(err, apierr.ErrBusiness) {
		t.Fatalf("expected business error, got %v", err)
	}
	var ae *apierr.Error
	if !errors.As(err, &ae) || ae.Code != apierr.CodeInvalidArgument {
		t.Fatalf("expected INVALID_ARGUMENT, got %v", err)
	}
	if len(f.reqs) != 0 {
		t.Fatalf("foreign context reached the backend")
	}
}

func TestGetDecodesOwnStatus(t *testing.T) {
	f := &fakeCaller{data: `{"programId":3,"title":"etc #3","category":"etc","status":"active","myStatus":"absent"}`}
	d, err := Get(context.Background(), f, 3)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if d.ProgramID != 3 || d.Category != CategoryEtc || d.MyStatus != "absent" {
		t.Fatalf("unexpected detail %+v", d)
	}
	if f.reqs[0].Method != http.MethodGet || f.reqs[0].Path != "/programs/3" {
		t.Fatalf("unexpected request %+v", f.reqs[0])
	}

	if _, err := Get(context.Background(), f, 0); !errors.Is(err, apierr.ErrBusiness) {
		t.Fatalf("expected business error for id 0, got %v", err)
	}
	if len(f.reqs) != 1 {
		t.Fatalf("invalid id reached the backend")
	}
}
