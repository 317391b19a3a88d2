package api

import (
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/mwhitten/shelfmark/internal/domain"
	"github.com/mwhitten/shelfmark/internal/log"
)

func TestSearchBooksSendsQueryParams(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/books/search" {
			t.Errorf("path = %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("q") != "dune" || q.Get("page") != "2" || q.Get("pageSize") != "20" {
			t.Errorf("query = %v", q)
		}
		w.Write([]byte(`{"books":[{"id":"B1","title":"Dune"}],"totalCount":41,"page":2,"pageSize":20}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, log.NullLogger())
	result, err := c.SearchBooks(t.Context(), "dune", 2, 20)
	if err != nil {
		t.Fatalf("SearchBooks: %v", err)
	}
	if len(result.Books) != 1 || result.Books[0].ID != "B1" {
		t.Fatalf("result = %+v", result)
	}
	if !result.HasNextPage() {
		t.Fatal("HasNextPage = false for page 2 of 41/20")
	}
}

func TestBearerTokenAttached(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, log.NullLogger())
	c.SetToken("tok-123")
	if _, err := c.ListMyLibraries(t.Context()); err != nil {
		t.Fatalf("ListMyLibraries: %v", err)
	}
	if gotAuth != "Bearer tok-123" {
		t.Fatalf("Authorization = %q", gotAuth)
	}

	c.ClearToken()
	if _, err := c.ListMyLibraries(t.Context()); err != nil {
		t.Fatalf("ListMyLibraries: %v", err)
	}
	if gotAuth != "" {
		t.Fatalf("Authorization after ClearToken = %q", gotAuth)
	}
}

func TestRejectionCarriesServerMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"message":"book already tracked"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, log.NullLogger())
	_, err := c.CreateReadingRecord(t.Context(), "B1")
	if !domain.IsRemoteRejection(err) {
		t.Fatalf("err = %v, want remote rejection", err)
	}
	var re *domain.RemoteError
	errors.As(err, &re)
	if re.Status != 409 || re.Message != "book already tracked" {
		t.Fatalf("RemoteError = %+v", re)
	}
}

func TestRejectionWithoutBodyGetsDefaultMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, log.NullLogger())
	err := c.AddMyLibrary(t.Context(), "L1")
	var re *domain.RemoteError
	if !errors.As(err, &re) {
		t.Fatalf("err = %v, want RemoteError", err)
	}
	if re.Error() != "server error" {
		t.Fatalf("message = %q", re.Error())
	}
}

func TestUnauthorizedMapsToAuthRequired(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, log.NullLogger())
	if _, err := c.Me(t.Context()); !errors.Is(err, domain.ErrAuthRequired) {
		t.Fatalf("err = %v, want ErrAuthRequired", err)
	}
}

func TestGetReadingRecordAbsent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, log.NullLogger())
	_, ok, err := c.GetReadingRecord(t.Context(), "B1")
	if err != nil {
		t.Fatalf("GetReadingRecord: %v", err)
	}
	if ok {
		t.Fatal("absent record reported as present")
	}
}

func TestGetRetriesOnceOnTransportFailure(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			// Kill the connection mid-request to simulate a transport fault.
			hj, ok := w.(http.Hijacker)
			if !ok {
				t.Fatal("response writer does not support hijacking")
			}
			conn, _, _ := hj.Hijack()
			conn.(*net.TCPConn).SetLinger(0)
			conn.Close()
			return
		}
		w.Write([]byte(`[{"id":"L1","name":"Central"}]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, log.NullLogger())
	libs, err := c.ListMyLibraries(t.Context())
	if err != nil {
		t.Fatalf("ListMyLibraries: %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("server saw %d calls, want 2", calls.Load())
	}
	if len(libs) != 1 || libs[0].ID != "L1" {
		t.Fatalf("libs = %v", libs)
	}
}

func TestWritesAreNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		hj := w.(http.Hijacker)
		conn, _, _ := hj.Hijack()
		conn.(*net.TCPConn).SetLinger(0)
		conn.Close()
	}))
	defer srv.Close()

	c := NewClient(srv.URL, log.NullLogger())
	_, err := c.CreateReadingRecord(t.Context(), "B1")
	if !errors.Is(err, domain.ErrRemoteUnavailable) {
		t.Fatalf("err = %v, want ErrRemoteUnavailable", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("server saw %d calls for a write, want 1", calls.Load())
	}
}

func TestUnreachableHostIsRemoteUnavailable(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", log.NullLogger())
	if _, err := c.Me(t.Context()); !errors.Is(err, domain.ErrRemoteUnavailable) {
		t.Fatalf("err = %v, want ErrRemoteUnavailable", err)
	}
}

func TestLoginStoresToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/auth/login":
			w.Write([]byte(`{"accessToken":"tok-9","user":{"id":"u1","email":"a@b.c"}}`))
		case "/api/me":
			if r.Header.Get("Authorization") != "Bearer tok-9" {
				t.Errorf("Authorization = %q", r.Header.Get("Authorization"))
			}
			w.Write([]byte(`{"id":"u1","email":"a@b.c"}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, log.NullLogger())
	session, err := c.Login(t.Context(), domain.LoginRequest{Email: "a@b.c", Password: "secret123"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if session.AccessToken != "tok-9" {
		t.Fatalf("session = %+v", session)
	}
	if _, err := c.Me(t.Context()); err != nil {
		t.Fatalf("Me: %v", err)
	}
}

func TestListReadingRecordsFiltersByState(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("state"); got != "READING" {
			t.Errorf("state = %q", got)
		}
		w.Write([]byte(`[{"bookId":"B1","state":"READING","recordId":"r1"}]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, log.NullLogger())
	records, err := c.ListReadingRecords(t.Context(), domain.StateReading)
	if err != nil {
		t.Fatalf("ListReadingRecords: %v", err)
	}
	if len(records) != 1 || records[0].BookID != "B1" || !records[0].Synced() {
		t.Fatalf("records = %+v", records)
	}
}
