package service

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/d60-Lab/ideahub/internal/model"
	"github.com/d60-Lab/ideahub/internal/repository"
	"github.com/d60-Lab/ideahub/pkg/apperr"
	"github.com/d60-Lab/ideahub/pkg/database"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.OpenMemory()
	require.NoError(t, err)
	require.NoError(t, repository.InitSchema(db))
	return db
}

func signed(t *testing.T, exp time.Time) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "7", "exp": exp.Unix()}).SignedString([]byte("k"))
	require.NoError(t, err)
	return tok
}

func TestSessionLoginLogout(t *testing.T) {
	p := newFakePlatform(model.User{ID: 7, Username: "grace", Email: "grace@example.com"})
	s := NewSession(SessionOptions{})
	ctx := context.Background()

	_, err := s.Login(ctx, p, "grace@example.com", "wrong")
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
	assert.Nil(t, s.Viewer())

	_, err = s.Login(ctx, p, "not-an-email", "secret")
	assert.ErrorIs(t, err, apperr.ErrValidation)

	u, err := s.Login(ctx, p, "grace@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, int64(7), u.ID)
	require.NotNil(t, s.Viewer())
	assert.Equal(t, "opaque-token", s.Token())

	require.NoError(t, s.Logout(ctx))
	assert.Nil(t, s.Viewer())
	assert.Empty(t, s.Token())
}

func TestSessionRestore(t *testing.T) {
	db := setupDB(t)
	store := repository.NewSessionRepository(db)
	rated := repository.NewRatedRepository(db)
	ctx := context.Background()
	require.NoError(t, rated.Mark(ctx, 7, 42))

	p := newFakePlatform(model.User{ID: 7, Username: "grace", Email: "grace@example.com"})
	p.token = signed(t, time.Now().Add(time.Hour))

	first := NewSession(SessionOptions{Store: store})
	_, err := first.Login(ctx, p, "grace@example.com", "secret")
	require.NoError(t, err)

	ledger := NewRatedLedger(nil)
	second := NewSession(SessionOptions{Store: store, Rated: rated, Ledger: ledger})
	u, err := second.Restore(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, "grace", u.Username)
	assert.Equal(t, p.token, second.Token())
	assert.True(t, ledger.Has(7, 42), "persisted marks are preloaded")

	second.Invalidate()
	assert.Nil(t, second.Viewer())
	_, err = NewSession(SessionOptions{Store: store}).Restore(ctx, p)
	assert.ErrorIs(t, err, ErrNotSignedIn)
}

func TestSessionExpiredToken(t *testing.T) {
	db := setupDB(t)
	store := repository.NewSessionRepository(db)
	ctx := context.Background()
	expired := signed(t, time.Now().Add(-time.Minute))
	require.NoError(t, store.Save(ctx, expired, model.User{ID: 7}))

	p := newFakePlatform(model.User{ID: 7})
	_, err := NewSession(SessionOptions{Store: store}).Restore(ctx, p)
	assert.ErrorIs(t, err, ErrNotSignedIn)

	now := time.Now()
	p.token = signed(t, now.Add(time.Minute))
	clock := now
	s := NewSession(SessionOptions{Now: func() time.Time { return clock }})
	_, err = s.Login(ctx, p, "grace@example.com", "secret")
	require.NoError(t, err)
	assert.NotNil(t, s.Viewer())
	clock = now.Add(2 * time.Minute)
	assert.Nil(t, s.Viewer())
}

func TestSessionRegisterAndProfile(t *testing.T) {
	p := newFakePlatform(model.User{ID: 9})
	s := NewSession(SessionOptions{})
	ctx := context.Background()

	_, err := s.UpdateProfile(ctx, p, model.ProfileInput{Username: "x", Email: "x@example.com"})
	assert.ErrorIs(t, err, ErrNotSignedIn)

	u, err := s.Register(ctx, p, "linus", "linus@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, "linus", u.Username)

	u, err = s.UpdateProfile(ctx, p, model.ProfileInput{Username: " torvalds ", Email: "t@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "torvalds", u.Username)
	got, ok := s.User()
	require.True(t, ok)
	assert.Equal(t, "t@example.com", got.Email)
}

func TestSessionAdoptToken(t *testing.T) {
	p := newFakePlatform(model.User{ID: 7, Username: "grace"})
	s := NewSession(SessionOptions{})
	ctx := context.Background()

	_, err := s.Adopt(ctx, p, "   ")
	assert.ErrorIs(t, err, ErrNotSignedIn)
	_, err = s.Adopt(ctx, p, signed(t, time.Now().Add(-time.Minute)))
	assert.ErrorIs(t, err, ErrNotSignedIn)

	tok := signed(t, time.Now().Add(time.Hour))
	u, err := s.Adopt(ctx, p, tok)
	require.NoError(t, err)
	assert.Equal(t, "grace", u.Username)
	assert.Equal(t, tok, s.Token())
}
