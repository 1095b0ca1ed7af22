package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/d60-Lab/ideahub/internal/api/handler"
	"github.com/d60-Lab/ideahub/internal/api/router"
	"github.com/d60-Lab/ideahub/internal/devserver"
	"github.com/d60-Lab/ideahub/internal/model"
	"github.com/d60-Lab/ideahub/internal/repository"
	"github.com/d60-Lab/ideahub/internal/service"
	"github.com/d60-Lab/ideahub/pkg/apperr"
	"github.com/d60-Lab/ideahub/pkg/database"
)

var _ service.Collaborator = (*Client)(nil)

func startDevServer(t *testing.T) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db, err := database.OpenMemory()
	require.NoError(t, err)
	require.NoError(t, repository.InitServerSchema(db))
	auth := devserver.NewAuth("client-test", time.Hour)
	auth.SetHashCost(bcrypt.MinCost)
	srv := httptest.NewServer(router.New(router.Config{
		ServiceName: "ideahub-test",
		Handler:     handler.NewHandler(devserver.NewServiceFromDB(db, auth)),
		Auth:        auth,
	}))
	t.Cleanup(srv.Close)
	return srv
}

// signedIn returns a client bound to a fresh session for a new account.
func signedIn(t *testing.T, srv *httptest.Server, name string) (*Client, *service.Session) {
	t.Helper()
	sess := service.NewSession(service.SessionOptions{})
	c, err := New(Options{BaseURL: srv.URL + "/api", Tokens: sess, OnUnauthorized: sess.Invalidate})
	require.NoError(t, err)
	_, err = sess.Register(context.Background(), c, name, name+"@example.com", "pw-"+name)
	require.NoError(t, err)
	require.NotNil(t, sess.Viewer())
	return c, sess
}

func TestNewRequiresBaseURL(t *testing.T) {
	_, err := New(Options{BaseURL: "  "})
	assert.Error(t, err)

	c, err := New(Options{BaseURL: "http://localhost:8080/api/"})
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/api", c.BaseURL())
}

func TestRatingAgainstDevServer(t *testing.T) {
	srv := startDevServer(t)
	ctx := context.Background()
	authorClient, _ := signedIn(t, srv, "ada")
	raterClient, raterSess := signedIn(t, srv, "grace")

	idea, err := authorClient.CreateIdea(ctx, model.IdeaInput{Title: "Solar kites", Description: "kites that charge phones"})
	require.NoError(t, err)
	assert.Equal(t, "ada", idea.Author.Username)
	assert.Equal(t, model.TrendNeutral, idea.Trend)

	_, err = authorClient.RateIdea(ctx, idea.ID, model.RatingInput{Novelty: 5, Feasibility: 5})
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	detail := service.NewIdeaDetail(raterClient, service.NewRatedLedger(nil))
	require.NoError(t, detail.Open(ctx, idea.ID, raterSess.Viewer()))
	assert.Equal(t, service.RatingEligible, detail.View().Rating.State)

	wf, err := detail.Rating()
	require.NoError(t, err)
	require.NoError(t, wf.OpenModal())
	require.NoError(t, wf.SetNovelty(4))
	require.NoError(t, wf.SetFeasibility(5))
	shown, err := detail.SubmitRating(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4.5, shown.CombinedScore)
	assert.Equal(t, "★ 4.5", shown.ScoreLabel())

	_, err = raterClient.RateIdea(ctx, idea.ID, model.RatingInput{Novelty: 1, Feasibility: 1})
	assert.ErrorIs(t, err, apperr.ErrAlreadyRated)

	rated, err := raterClient.HasRated(ctx, idea.ID)
	require.NoError(t, err)
	assert.True(t, rated)

	_, err = raterClient.GetIdea(ctx, 9999)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.Equal(t, "idea not found", apperr.UserMessage(err))
}

func TestCommentsAndFeedAgainstDevServer(t *testing.T) {
	srv := startDevServer(t)
	ctx := context.Background()
	c, _ := signedIn(t, srv, "ada")

	first, err := c.CreateIdea(ctx, model.IdeaInput{Title: "first", Description: "d"})
	require.NoError(t, err)
	_, err = c.CreateIdea(ctx, model.IdeaInput{Title: "second", Description: "d"})
	require.NoError(t, err)

	list, err := c.ListComments(ctx, first.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.NotNil(t, list)

	for _, text := range []string{"one", "two"} {
		_, err := c.AddComment(ctx, first.ID, text)
		require.NoError(t, err)
	}
	list, err = c.ListComments(ctx, first.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "one", list[0].Text)

	_, err = c.AddComment(ctx, first.ID, "")
	assert.ErrorIs(t, err, apperr.ErrValidation)

	feed := service.NewFeedController(c, service.FeedOptions{Tab: model.OrderingNew, RefetchOnTabChange: true})
	require.NoError(t, feed.Mount(ctx))
	ideas := feed.View().Ideas
	require.Len(t, ideas, 2)
	assert.Equal(t, "second", ideas[0].Title)
	assert.Equal(t, 2, ideas[1].Comments)
}

func TestUnauthorizedDropsSession(t *testing.T) {
	srv := startDevServer(t)
	ctx := context.Background()
	_, sess := signedIn(t, srv, "ada")

	var fired atomic.Int32
	stale, err := New(Options{
		BaseURL: srv.URL + "/api",
		Tokens:  staticToken("not-a-jwt"),
		OnUnauthorized: func() {
			fired.Add(1)
			sess.Invalidate()
		},
	})
	require.NoError(t, err)
	_, err = stale.CurrentUser(ctx)
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
	assert.Equal(t, int32(1), fired.Load())
	assert.Nil(t, sess.Viewer())
	assert.Empty(t, sess.Token())

	_, err = stale.GetIdea(ctx, 1)
	assert.ErrorIs(t, err, apperr.ErrNotFound, "public routes ignore the token")
	assert.Equal(t, int32(1), fired.Load())
}

type staticToken string

func (s staticToken) Token() string { return string(s) }

func TestErrorBodies(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		want   error
		msg    string
	}{
		{"message object", http.StatusBadRequest, `{"message":"title is required","code":"validation"}`, apperr.ErrValidation, "title is required"},
		{"error object", http.StatusForbidden, `{"error":"own idea"}`, apperr.ErrForbidden, "own idea"},
		{"json string", http.StatusConflict, `"already rated"`, apperr.ErrAlreadyRated, "already rated"},
		{"plain text", http.StatusBadRequest, "description too short", apperr.ErrValidation, "description too short"},
		{"empty", http.StatusNotFound, "", apperr.ErrNotFound, "Not Found"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()
			c, err := New(Options{BaseURL: srv.URL})
			require.NoError(t, err)

			_, err = c.GetIdea(context.Background(), 1)
			require.ErrorIs(t, err, tc.want)
			var e *apperr.Error
			require.ErrorAs(t, err, &e)
			assert.Equal(t, tc.msg, e.Message)
			assert.Equal(t, tc.status, e.Status)
		})
	}
}

func TestLoginTokenShapes(t *testing.T) {
	for name, body := range map[string]string{
		"object":     `{"token":"abc"}`,
		"json":       `"abc"`,
		"plain text": "abc\n",
	} {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/auth/login", r.URL.Path)
				_, _ = w.Write([]byte(body))
			}))
			defer srv.Close()
			c, err := New(Options{BaseURL: srv.URL})
			require.NoError(t, err)
			tok, err := c.Login(context.Background(), "a@example.com", "pw")
			require.NoError(t, err)
			assert.Equal(t, "abc", tok)
		})
	}
}

func TestHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "ideahub-test", r.Header.Get("User-Agent"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		assert.Equal(t, "trending", r.URL.Query().Get("sort"))
		_, _ = w.Write([]byte("null"))
	}))
	defer srv.Close()
	c, err := New(Options{BaseURL: srv.URL, UserAgent: "ideahub-test", Tokens: staticToken("tok")})
	require.NoError(t, err)
	ideas, err := c.ListIdeas(context.Background(), "trending")
	require.NoError(t, err)
	assert.NotNil(t, ideas)
	assert.Empty(t, ideas)
}

func TestTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := New(Options{BaseURL: url, Timeout: time.Second})
	require.NoError(t, err)
	_, err = c.ListIdeas(context.Background(), "")
	assert.ErrorIs(t, err, apperr.ErrTransport)
}
