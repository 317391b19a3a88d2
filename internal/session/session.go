package session

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"

	"github.com/mwhitten/shelfmark/internal/domain"
	"github.com/mwhitten/shelfmark/internal/mylibrary"
	"github.com/mwhitten/shelfmark/internal/shelf"
)

// TokenStore persists the access token between runs. Implemented by the
// config package.
type TokenStore interface {
	SaveSession(token, email string) error
	ClearSession() error
}

// Service orchestrates the account lifecycle. Signing out, or losing the
// session to a 401, clears the access token, both caches and the durable
// mirror so the next user starts clean.
type Service struct {
	api      domain.AuthAPI
	tokens   TokenStore
	shelf    *shelf.Cache
	libs     *mylibrary.Cache
	mirror   domain.Mirror
	logger   *slog.Logger
	validate *validator.Validate
}

// NewService creates a new session service.
func NewService(api domain.AuthAPI, tokens TokenStore, shelfCache *shelf.Cache, libCache *mylibrary.Cache, mirror domain.Mirror, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		api:      api,
		tokens:   tokens,
		shelf:    shelfCache,
		libs:     libCache,
		mirror:   mirror,
		logger:   logger,
		validate: validator.New(),
	}
}

// Login authenticates and persists the session. Input is validated
// before any network call.
func (s *Service) Login(ctx context.Context, email, password string) (domain.Session, error) {
	req := domain.LoginRequest{Email: email, Password: password}
	if err := s.validate.Struct(req); err != nil {
		return domain.Session{}, fmt.Errorf("invalid credentials: %w", err)
	}

	sess, err := s.api.Login(ctx, req)
	if err != nil {
		s.logger.Error("login failed", "email", email, "error", err)
		return domain.Session{}, err
	}

	if err := s.tokens.SaveSession(sess.AccessToken, sess.User.Email); err != nil {
		// The session still works for this run.
		s.logger.Error("failed to persist session", "error", err)
	}
	s.logger.Info("signed in", "user", sess.User.Nickname)
	return sess, nil
}

// Signup creates an account. The caller signs in separately afterwards.
func (s *Service) Signup(ctx context.Context, req domain.SignupRequest) (domain.User, error) {
	if err := s.validate.Struct(req); err != nil {
		return domain.User{}, fmt.Errorf("invalid signup request: %w", err)
	}
	user, err := s.api.Signup(ctx, req)
	if err != nil {
		s.logger.Error("signup failed", "email", req.Email, "error", err)
		return domain.User{}, err
	}
	return user, nil
}

// Logout tells the server goodbye best-effort and always clears local
// state.
func (s *Service) Logout(ctx context.Context) error {
	if err := s.api.Logout(ctx); err != nil {
		s.logger.Warn("remote logout failed", "error", err)
	}
	s.clearLocal()
	s.logger.Info("signed out")
	return nil
}

// HandleAuthFailure clears local state after the server rejected the
// session (401). No remote call is made.
func (s *Service) HandleAuthFailure() {
	s.logger.Warn("session rejected by server, clearing local state")
	s.clearLocal()
}

// Me returns the signed-in profile.
func (s *Service) Me(ctx context.Context) (domain.User, error) {
	return s.api.Me(ctx)
}

func (s *Service) clearLocal() {
	if err := s.tokens.ClearSession(); err != nil {
		s.logger.Error("failed to clear persisted session", "error", err)
	}
	s.shelf.Clear()
	s.libs.Clear()
	if err := s.mirror.Clear(); err != nil {
		s.logger.Error("failed to clear mirror", "error", err)
	}
}
