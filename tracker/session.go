package tracker

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
)

// Session is the locally persisted login state. An empty UserID means
// nobody is logged in.
type Session struct {
	UserID string
}

// Sessions establishes, checks and clears the session identity.
type Sessions struct {
	repo   Repository
	logger *slog.Logger
}

// NewSessions returns a session manager backed by repo. A nil logger
// discards output.
func NewSessions(repo Repository, logger *slog.Logger) *Sessions {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Sessions{repo: repo, logger: logger}
}

// Login finds the user owning secret, creating one when none exists, and
// records it in sess. Any unrecognised secret becomes a new account.
func (s *Sessions) Login(ctx context.Context, sess *Session, secret string) (UserID, error) {
	user, found, err := s.repo.FindUserBySecret(ctx, secret)
	if err != nil {
		return uuid.Nil, fmt.Errorf("login: %w", err)
	}
	if !found {
		user, err = s.repo.CreateUser(ctx, secret)
		if err != nil {
			return uuid.Nil, fmt.Errorf("login: %w", err)
		}
		s.logger.Info("user created", "user", user)
	}

	sess.UserID = user.String()
	s.logger.Info("logged in", "user", user)
	return user, nil
}

// Logout forgets the stored identifier. Calling it while logged out is
// fine.
func (s *Sessions) Logout(sess *Session) {
	sess.UserID = ""
}

// CurrentUser parses the stored identifier.
func (s *Sessions) CurrentUser(sess Session) (UserID, error) {
	raw := strings.TrimSpace(sess.UserID)
	if raw == "" {
		return uuid.Nil, ErrNotLoggedIn
	}
	user, err := uuid.Parse(raw)
	if err != nil {
		s.logger.Debug("malformed session identifier", "value", raw, "error", err)
		return uuid.Nil, ErrNotLoggedIn
	}
	return user, nil
}

// Validate confirms that user still exists in the store. Local state goes
// stale when an account is removed server-side.
func (s *Sessions) Validate(ctx context.Context, user UserID) error {
	exists, err := s.repo.UserExists(ctx, user)
	if err != nil {
		return fmt.Errorf("validate session: %w", err)
	}
	if !exists {
		return ErrAccountDeleted
	}
	return nil
}

// Authenticate combines CurrentUser and Validate. It is what every command
// other than login and logout runs first.
func (s *Sessions) Authenticate(ctx context.Context, sess Session) (UserID, error) {
	user, err := s.CurrentUser(sess)
	if err != nil {
		return uuid.Nil, err
	}
	if err := s.Validate(ctx, user); err != nil {
		return uuid.Nil, err
	}
	return user, nil
}
