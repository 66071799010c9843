package service

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/iliyamo/conductor/internal/apperr"
	"github.com/iliyamo/conductor/internal/auth"
	"github.com/iliyamo/conductor/internal/lock"
	"github.com/iliyamo/conductor/internal/model"
	"github.com/iliyamo/conductor/internal/queue"
	"github.com/iliyamo/conductor/internal/repository"
)

// Client-facing authentication messages.
const (
	MsgInvalidCredentials = "Invalid email or password"
	MsgRefreshMissing     = "Refresh token not found"
	MsgRefreshInvalid     = "Invalid refresh token"
	MsgRefreshExpired     = "Refresh token has expired"
	MsgTokenExpired       = "Token has expired"
	MsgTokenInvalid       = "Invalid token"
	MsgUserNotFound       = "User not found"
)

// SessionUsers is the credential store the session service reads.
type SessionUsers interface {
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
	GetByRefreshHash(ctx context.Context, hash string) (model.User, error)
}

// SessionTokens writes the refresh-token fields of a user.
type SessionTokens interface {
	StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error
	ClearRefresh(ctx context.Context, userID uint64, jti string) error
}

// SessionService runs login, refresh, logout and access-token verification.
// Writes to a user's refresh-token fields are serialised per user through
// the locker.
type SessionService struct {
	users  SessionUsers
	tokens SessionTokens
	issuer *auth.Issuer
	locker lock.Locker
	events queue.Publisher
	log    *zap.Logger
	now    Clock
}

func NewSessionService(users SessionUsers, tokens SessionTokens, issuer *auth.Issuer, locker lock.Locker, events queue.Publisher, log *zap.Logger, now Clock) *SessionService {
	return &SessionService{
		users:  users,
		tokens: tokens,
		issuer: issuer,
		locker: locker,
		events: events,
		log:    log.Named("session"),
		now:    now.orDefault(),
	}
}

// Session is the outcome of a successful login.
type Session struct {
	User    model.User
	Access  auth.AccessToken
	Refresh auth.RefreshToken
}

func sessionKey(userID uint64) string { return "session:" + strconv.FormatUint(userID, 10) }

// Login checks the credentials and starts a new session. The new refresh
// token replaces any previous one, which stops working immediately.
func (s *SessionService) Login(ctx context.Context, email, password, remoteIP string) (Session, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		auth.BurnCompare(password)
		return Session{}, apperr.Unauthorized(MsgInvalidCredentials)
	}
	if err != nil {
		return Session{}, err
	}
	if !auth.VerifyPassword(u.PasswordHash, password) {
		return Session{}, apperr.Unauthorized(MsgInvalidCredentials)
	}

	unlock, err := s.locker.Lock(ctx, sessionKey(u.ID))
	if err != nil {
		return Session{}, err
	}
	defer unlock()

	access, err := s.issuer.IssueAccess(u)
	if err != nil {
		return Session{}, err
	}
	refresh, err := s.issuer.NewRefresh()
	if err != nil {
		return Session{}, err
	}
	if err := s.tokens.StoreRefresh(ctx, u.ID, refresh.Hash, refresh.Exp); err != nil {
		return Session{}, err
	}
	u.RefreshTokenHash = refresh.Hash
	u.RefreshTokenExpiresAt = &refresh.Exp

	s.log.Info("login", zap.Uint64("user_id", u.ID))
	publish(ctx, s.events, s.log, queue.Event{Type: queue.EventLogin, UserID: u.ID, RemoteIP: remoteIP, OccurredAt: s.now().UTC()})
	return Session{User: u, Access: access, Refresh: refresh}, nil
}

// Refresh mints a new access token for the holder of a valid refresh token.
// The refresh token itself is not rotated. A failed refresh leaves the
// stored token untouched; the caller clears the cookie.
func (s *SessionService) Refresh(ctx context.Context, raw string) (model.User, auth.AccessToken, error) {
	if raw == "" {
		return model.User{}, auth.AccessToken{}, apperr.Unauthorized(MsgRefreshMissing)
	}
	hash := auth.HashRefreshRaw(raw)
	u, err := s.users.GetByRefreshHash(ctx, hash)
	if errors.Is(err, repository.ErrNotFound) {
		return model.User{}, auth.AccessToken{}, apperr.Unauthorized(MsgRefreshInvalid)
	}
	if err != nil {
		return model.User{}, auth.AccessToken{}, err
	}
	if !u.HasActiveRefresh(hash, s.now()) {
		return model.User{}, auth.AccessToken{}, apperr.Unauthorized(MsgRefreshExpired)
	}
	access, err := s.issuer.IssueAccess(u)
	if err != nil {
		return model.User{}, auth.AccessToken{}, err
	}
	return u, access, nil
}

// Logout ends the session identified by the refresh cookie, or by the
// authenticated user when no cookie is present. Calling it without any
// session is not an error.
func (s *SessionService) Logout(ctx context.Context, raw string, userID uint64) error {
	if raw != "" {
		u, err := s.users.GetByRefreshHash(ctx, auth.HashRefreshRaw(raw))
		switch {
		case err == nil:
			userID = u.ID
		case !errors.Is(err, repository.ErrNotFound):
			return err
		}
	}
	if userID == 0 {
		return nil
	}

	unlock, err := s.locker.Lock(ctx, sessionKey(userID))
	if err != nil {
		return err
	}
	defer unlock()

	err = s.tokens.ClearRefresh(ctx, userID, uuid.NewString())
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	s.log.Info("logout", zap.Uint64("user_id", userID))
	publish(ctx, s.events, s.log, queue.Event{Type: queue.EventLogout, UserID: userID, OccurredAt: s.now().UTC()})
	return nil
}

// Authenticate validates an access token and loads its user. Every failure
// is an Authentication error; a deleted user is never reported as 404.
func (s *SessionService) Authenticate(ctx context.Context, raw string) (model.User, *auth.Claims, error) {
	claims, err := s.issuer.ParseAccess(raw)
	if errors.Is(err, auth.ErrTokenExpired) {
		return model.User{}, nil, apperr.Unauthorized(MsgTokenExpired)
	}
	if err != nil {
		return model.User{}, nil, apperr.Unauthorized(MsgTokenInvalid)
	}
	id, _ := claims.UserID()
	u, err := s.users.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return model.User{}, nil, apperr.Unauthorized(MsgUserNotFound)
	}
	if err != nil {
		s.log.Error("load token user", zap.Uint64("user_id", id), zap.Error(err))
		return model.User{}, nil, apperr.Unauthorized(MsgTokenInvalid)
	}
	return u, claims, nil
}
