package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/d60-Lab/ideahub/internal/model"
	"github.com/d60-Lab/ideahub/internal/repository"
	"github.com/d60-Lab/ideahub/pkg/apperr"
	"github.com/d60-Lab/ideahub/pkg/logger"
	"github.com/d60-Lab/ideahub/pkg/validation"
)

var ErrNotSignedIn = apperr.New(apperr.KindUnauthenticated, "not signed in")

// Session holds the authenticated identity. It is established by Login or
// Restore, dropped by Logout, and invalidated when the server answers 401.
type Session struct {
	store  repository.SessionRepository
	rated  repository.RatedRepository
	ledger *RatedLedger
	now    func() time.Time

	mu    sync.RWMutex
	token string
	user  *model.User
}

type SessionOptions struct {
	// Store persists the session between runs; optional.
	Store repository.SessionRepository
	// Rated preloads the ledger with persisted marks on sign-in; optional.
	Rated  repository.RatedRepository
	Ledger *RatedLedger
	Now    func() time.Time
}

func NewSession(opts SessionOptions) *Session {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Session{store: opts.Store, rated: opts.Rated, ledger: opts.Ledger, now: opts.Now}
}

// Token implements the client's token source.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Viewer returns nil when nobody is signed in or the token has expired.
func (s *Session) Viewer() *model.Viewer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil || tokenExpired(s.token, s.now()) {
		return nil
	}
	return model.ViewerOf(*s.user)
}

func (s *Session) User() (model.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return model.User{}, false
	}
	return *s.user, true
}

// tokenExpired reads exp without verifying the signature; the server remains
// the authority. Opaque tokens never expire locally.
func tokenExpired(token string, now time.Time) bool {
	if token == "" {
		return true
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !now.Before(exp.Time)
}

func (s *Session) Login(ctx context.Context, gw AuthGateway, email, password string) (model.User, error) {
	email = strings.TrimSpace(email)
	if err := validation.Struct(model.Credentials{Email: email, Password: password}); err != nil {
		return model.User{}, err
	}
	token, err := gw.Login(ctx, email, password)
	if err != nil {
		return model.User{}, err
	}
	return s.establish(ctx, gw, token)
}

// Register creates an account and signs in with it.
func (s *Session) Register(ctx context.Context, gw AuthGateway, username, email, password string) (model.User, error) {
	creds := model.Credentials{Username: strings.TrimSpace(username), Email: strings.TrimSpace(email), Password: password}
	if err := validation.Struct(creds); err != nil {
		return model.User{}, err
	}
	if creds.Username == "" {
		return model.User{}, apperr.New(apperr.KindValidation, "username is required")
	}
	if _, err := gw.Register(ctx, creds.Username, creds.Email, creds.Password); err != nil {
		return model.User{}, err
	}
	return s.Login(ctx, gw, creds.Email, creds.Password)
}

// Restore re-establishes a persisted session. It returns ErrNotSignedIn when
// nothing usable is stored.
func (s *Session) Restore(ctx context.Context, gw AuthGateway) (model.User, error) {
	if s.store == nil {
		return model.User{}, ErrNotSignedIn
	}
	rec, err := s.store.Load(ctx)
	if err != nil {
		return model.User{}, err
	}
	if rec == nil || tokenExpired(rec.Token, s.now()) {
		return model.User{}, ErrNotSignedIn
	}
	return s.establish(ctx, gw, rec.Token)
}

// Adopt signs in with a token obtained elsewhere, e.g. from configuration.
func (s *Session) Adopt(ctx context.Context, gw AuthGateway, token string) (model.User, error) {
	token = strings.TrimSpace(token)
	if token == "" || tokenExpired(token, s.now()) {
		return model.User{}, ErrNotSignedIn
	}
	return s.establish(ctx, gw, token)
}

func (s *Session) establish(ctx context.Context, gw AuthGateway, token string) (model.User, error) {
	s.mu.Lock()
	s.token = token
	s.user = nil
	s.mu.Unlock()

	user, err := gw.CurrentUser(ctx)
	if err != nil {
		s.clear()
		return model.User{}, err
	}

	s.mu.Lock()
	if s.token != token {
		s.mu.Unlock()
		return model.User{}, ErrSuperseded
	}
	s.user = &user
	s.mu.Unlock()

	if s.store != nil {
		if err := s.store.Save(ctx, token, user); err != nil {
			logger.Warn("persist session failed", zap.Error(err))
		}
	}
	if s.rated != nil && s.ledger != nil {
		if err := s.ledger.Preload(ctx, s.rated, user.ID); err != nil {
			logger.Warn("preload rated marks failed", zap.Int64("user", user.ID), zap.Error(err))
		}
	}
	logger.Info("session established", zap.Int64("user", user.ID), zap.String("username", user.Username))
	return user, nil
}

func (s *Session) UpdateProfile(ctx context.Context, gw AuthGateway, in model.ProfileInput) (model.User, error) {
	if s.Viewer() == nil {
		return model.User{}, ErrNotSignedIn
	}
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	if err := validation.Struct(in); err != nil {
		return model.User{}, err
	}
	user, err := gw.UpdateProfile(ctx, in)
	if err != nil {
		return model.User{}, err
	}
	s.mu.Lock()
	s.user = &user
	token := s.token
	s.mu.Unlock()
	if s.store != nil {
		if err := s.store.Save(ctx, token, user); err != nil {
			logger.Warn("persist session failed", zap.Error(err))
		}
	}
	return user, nil
}

// Logout forgets the identity locally and in the store.
func (s *Session) Logout(ctx context.Context) error {
	s.clear()
	if s.store == nil {
		return nil
	}
	return s.store.Clear(ctx)
}

// Invalidate is called when the server rejects the token.
func (s *Session) Invalidate() {
	if s.Token() == "" {
		return
	}
	logger.Info("session invalidated by server")
	if err := s.Logout(context.Background()); err != nil && !errors.Is(err, context.Canceled) {
		logger.Warn("clear stored session failed", zap.Error(err))
	}
}

func (s *Session) clear() {
	s.mu.Lock()
	s.token = ""
	s.user = nil
	s.mu.Unlock()
}
