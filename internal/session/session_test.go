package session

import (
	"context"
	"errors"
	"testing"

	"github.com/mwhitten/shelfmark/internal/domain"
	"github.com/mwhitten/shelfmark/internal/log"
	"github.com/mwhitten/shelfmark/internal/mylibrary"
	"github.com/mwhitten/shelfmark/internal/shelf"
	"github.com/mwhitten/shelfmark/internal/store"
)

type authAPIFake struct {
	loginFn  func(ctx context.Context, req domain.LoginRequest) (domain.Session, error)
	signupFn func(ctx context.Context, req domain.SignupRequest) (domain.User, error)
	logoutFn func(ctx context.Context) error
	meFn     func(ctx context.Context) (domain.User, error)

	loginCalls int
}

func (f *authAPIFake) Login(ctx context.Context, req domain.LoginRequest) (domain.Session, error) {
	f.loginCalls++
	return f.loginFn(ctx, req)
}
func (f *authAPIFake) Signup(ctx context.Context, req domain.SignupRequest) (domain.User, error) {
	return f.signupFn(ctx, req)
}
func (f *authAPIFake) Logout(ctx context.Context) error { return f.logoutFn(ctx) }
func (f *authAPIFake) Me(ctx context.Context) (domain.User, error) {
	return f.meFn(ctx)
}

type tokenStoreFake struct {
	token, email string
	saved        int
	cleared      int
}

func (t *tokenStoreFake) SaveSession(token, email string) error {
	t.token, t.email = token, email
	t.saved++
	return nil
}

func (t *tokenStoreFake) ClearSession() error {
	t.token, t.email = "", ""
	t.cleared++
	return nil
}

type fixture struct {
	api    *authAPIFake
	tokens *tokenStoreFake
	shelf  *shelf.Cache
	libs   *mylibrary.Cache
	mirror *store.MirrorStore
	svc    *Service
}

func newFixture(t *testing.T, api *authAPIFake) *fixture {
	t.Helper()
	mirror, err := store.NewMirrorStore("")
	if err != nil {
		t.Fatalf("NewMirrorStore: %v", err)
	}
	f := &fixture{
		api:    api,
		tokens: &tokenStoreFake{},
		shelf:  shelf.NewCache(),
		libs:   mylibrary.NewCache(),
		mirror: mirror,
	}
	f.svc = NewService(api, f.tokens, f.shelf, f.libs, mirror, log.NullLogger())
	return f
}

func TestLoginValidatesBeforeNetwork(t *testing.T) {
	api := &authAPIFake{
		loginFn: func(_ context.Context, _ domain.LoginRequest) (domain.Session, error) {
			return domain.Session{}, nil
		},
	}
	f := newFixture(t, api)

	if _, err := f.svc.Login(context.Background(), "not-an-email", "secret"); err == nil {
		t.Fatal("expected validation error for a malformed email")
	}
	if _, err := f.svc.Login(context.Background(), "a@b.c", ""); err == nil {
		t.Fatal("expected validation error for an empty password")
	}
	if api.loginCalls != 0 {
		t.Fatalf("remote login called %d times for invalid input, want 0", api.loginCalls)
	}
}

func TestLoginPersistsSession(t *testing.T) {
	api := &authAPIFake{
		loginFn: func(_ context.Context, req domain.LoginRequest) (domain.Session, error) {
			return domain.Session{
				AccessToken: "tok-1",
				User:        domain.User{ID: "u1", Email: req.Email, Nickname: "reader"},
			}, nil
		},
	}
	f := newFixture(t, api)

	sess, err := f.svc.Login(context.Background(), "a@b.c", "secret")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if sess.AccessToken != "tok-1" {
		t.Fatalf("session = %+v", sess)
	}
	if f.tokens.token != "tok-1" || f.tokens.email != "a@b.c" {
		t.Fatalf("persisted session = %q %q", f.tokens.token, f.tokens.email)
	}
}

func TestSignupValidatesRequest(t *testing.T) {
	api := &authAPIFake{
		signupFn: func(_ context.Context, _ domain.SignupRequest) (domain.User, error) {
			t.Fatal("remote signup must not run for invalid input")
			return domain.User{}, nil
		},
	}
	f := newFixture(t, api)

	// Password below the minimum length.
	_, err := f.svc.Signup(context.Background(), domain.SignupRequest{
		Email:    "a@b.c",
		Password: "short",
		Nickname: "reader",
	})
	if err == nil {
		t.Fatal("expected validation error")
	}
}

func TestSignupPassesThrough(t *testing.T) {
	api := &authAPIFake{
		signupFn: func(_ context.Context, req domain.SignupRequest) (domain.User, error) {
			return domain.User{ID: "u1", Email: req.Email, Nickname: req.Nickname}, nil
		},
	}
	f := newFixture(t, api)

	user, err := f.svc.Signup(context.Background(), domain.SignupRequest{
		Email:    "a@b.c",
		Password: "longenough",
		Nickname: "reader",
	})
	if err != nil {
		t.Fatalf("Signup: %v", err)
	}
	if user.ID != "u1" {
		t.Fatalf("user = %+v", user)
	}
}

func TestLogoutClearsEverything(t *testing.T) {
	api := &authAPIFake{
		logoutFn: func(_ context.Context) error { return nil },
	}
	f := newFixture(t, api)
	seedLocalState(t, f)

	if err := f.svc.Logout(context.Background()); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	assertLocalStateCleared(t, f)
}

func TestLogoutClearsLocalEvenWhenRemoteFails(t *testing.T) {
	api := &authAPIFake{
		logoutFn: func(_ context.Context) error { return domain.ErrRemoteUnavailable },
	}
	f := newFixture(t, api)
	seedLocalState(t, f)

	if err := f.svc.Logout(context.Background()); err != nil {
		t.Fatalf("Logout must not surface the remote failure, got %v", err)
	}
	assertLocalStateCleared(t, f)
}

func TestHandleAuthFailureSkipsRemote(t *testing.T) {
	api := &authAPIFake{
		logoutFn: func(_ context.Context) error {
			t.Fatal("remote logout must not run on auth failure")
			return nil
		},
	}
	f := newFixture(t, api)
	seedLocalState(t, f)

	f.svc.HandleAuthFailure()
	assertLocalStateCleared(t, f)
}

func TestMePassesThrough(t *testing.T) {
	wantErr := errors.New("boom")
	api := &authAPIFake{
		meFn: func(_ context.Context) (domain.User, error) {
			return domain.User{}, wantErr
		},
	}
	f := newFixture(t, api)
	if _, err := f.svc.Me(context.Background()); !errors.Is(err, wantErr) {
		t.Fatalf("err = %v, want %v", err, wantErr)
	}
}

func seedLocalState(t *testing.T, f *fixture) {
	t.Helper()
	f.tokens.SaveSession("tok-1", "a@b.c")
	f.shelf.Upsert(domain.ReadingRecord{BookID: "B1", State: domain.StateRead})
	f.libs.ReplaceAll([]domain.Library{{ID: "L1", Name: "Central"}})
	if err := f.mirror.SaveReadingRecords([]domain.ReadingRecord{{BookID: "B1", State: domain.StateRead}}); err != nil {
		t.Fatalf("SaveReadingRecords: %v", err)
	}
}

func assertLocalStateCleared(t *testing.T, f *fixture) {
	t.Helper()
	if f.tokens.cleared == 0 || f.tokens.token != "" {
		t.Fatal("persisted session not cleared")
	}
	if f.shelf.Len() != 0 {
		t.Fatal("shelf cache not cleared")
	}
	if f.libs.Len() != 0 {
		t.Fatal("library cache not cleared")
	}
	if _, ok := f.mirror.ReadingRecords(); ok {
		t.Fatal("mirror not cleared")
	}
}
