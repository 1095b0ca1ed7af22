package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/d60-Lab/ideahub/config"
	"github.com/d60-Lab/ideahub/internal/api/client"
	"github.com/d60-Lab/ideahub/internal/repository"
	"github.com/d60-Lab/ideahub/internal/service"
	"github.com/d60-Lab/ideahub/pkg/apperr"
	"github.com/d60-Lab/ideahub/pkg/database"
	"github.com/d60-Lab/ideahub/pkg/logger"
	"github.com/d60-Lab/ideahub/pkg/telemetry"
)

const usage = `usage: ideahub <command> [args]

  register <username> <email>          create an account and sign in
  login <email>                        sign in (password from IDEAHUB_PASSWORD or stdin)
  logout
  whoami
  profile <username> <email>           update your profile
  feed [trending|new|best]
  show <id>
  rate <id> <novelty> <feasibility>    both 1..5
  comment <id> <text>
  post <title> <description>
  edit <id> <title> <description>
  delete <id>
`

// app holds the wired client core for one CLI invocation.
type app struct {
	cfg     *config.Config
	client  *client.Client
	session *service.Session
	ledger  *service.RatedLedger
	feed    *service.FeedController
	detail  *service.IdeaDetail
	editor  *service.IdeaEditor

	closers []func(context.Context) error
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := logger.Init(cfg.Log.Level, cfg.Log.Mode); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx := context.Background()
	a, err := newApp(ctx, cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	runErr := a.run(ctx, os.Args[1], os.Args[2:])

	closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	a.close(closeCtx)

	if runErr != nil {
		if errors.Is(runErr, errUsage) {
			fmt.Fprint(os.Stderr, usage)
			os.Exit(2)
		}
		logger.Debug("command failed", zap.String("command", os.Args[1]), zap.Error(runErr))
		fmt.Fprintln(os.Stderr, userMessage(runErr))
		os.Exit(1)
	}
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{cfg: cfg}

	shutdownTelemetry, err := telemetry.Init(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("telemetry: %w", err)
	}
	a.closers = append(a.closers, shutdownTelemetry)

	db, err := database.InitDB(cfg)
	if err != nil {
		return nil, err
	}
	if err := repository.InitSchema(db); err != nil {
		return nil, err
	}

	ratedRepo := repository.NewRatedRepository(db)
	replicator := service.NewMarkReplicator(ratedRepo, 64)
	a.closers = append([]func(context.Context) error{replicator.Start(1)}, a.closers...)
	a.ledger = service.NewRatedLedger(replicator)

	a.session = service.NewSession(service.SessionOptions{
		Store:  repository.NewSessionRepository(db),
		Rated:  ratedRepo,
		Ledger: a.ledger,
	})

	a.client, err = client.NewFromConfig(cfg, a.session, a.session.Invalidate)
	if err != nil {
		return nil, err
	}

	var snapshots repository.FeedSnapshotRepository
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn("feed snapshot cache unavailable", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
			_ = rdb.Close()
		} else {
			snapshots = repository.NewRedisFeedSnapshot(rdb, cfg.Redis.SnapshotTTL)
			a.closers = append(a.closers, func(context.Context) error { return rdb.Close() })
		}
	}

	tab, err := parseTab(cfg.Feed.DefaultTab)
	if err != nil {
		return nil, err
	}
	a.feed = service.NewFeedController(a.client, service.FeedOptions{
		Tab:                tab,
		RefetchOnTabChange: cfg.Feed.RefetchOnTabChange,
		Snapshots:          snapshots,
	})
	a.detail = service.NewIdeaDetail(a.client, a.ledger)
	a.editor = service.NewIdeaEditor(a.client, a.client, a.feed)

	a.restoreSession(ctx)
	return a, nil
}

// restoreSession signs in from the stored session, falling back to the
// configured token. Failures leave the CLI anonymous.
func (a *app) restoreSession(ctx context.Context) {
	_, err := a.session.Restore(ctx, a.client)
	if err == nil {
		return
	}
	if !errors.Is(err, service.ErrNotSignedIn) {
		logger.Warn("restore session failed", zap.Error(err))
	}
	if a.cfg.API.Token == "" {
		return
	}
	if _, err := a.session.Adopt(ctx, a.client, a.cfg.API.Token); err != nil {
		logger.Warn("configured token rejected", zap.Error(err))
	}
}

func (a *app) close(ctx context.Context) {
	for _, fn := range a.closers {
		if err := fn(ctx); err != nil {
			logger.Warn("shutdown step failed", zap.Error(err))
		}
	}
}

// userMessage matches sentinels by identity: apperr kinds alone cannot tell an
// edit by a non-author from any other 403.
func userMessage(err error) string {
	var ae *apperr.Error
	switch {
	case !errors.As(err, &ae):
		return err.Error()
	case ae == service.ErrNotSignedIn:
		return "please sign in first: ideahub login <email>"
	case ae == service.ErrNotAuthor:
		return ae.Message
	}
	return apperr.UserMessage(err)
}
