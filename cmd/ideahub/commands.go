package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/d60-Lab/ideahub/internal/model"
	"github.com/d60-Lab/ideahub/internal/service"
	"github.com/d60-Lab/ideahub/pkg/logger"
)

var errUsage = errors.New("usage")

func (a *app) run(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "register":
		return a.register(ctx, args)
	case "login":
		return a.login(ctx, args)
	case "logout":
		return a.session.Logout(ctx)
	case "whoami":
		return a.whoami()
	case "profile":
		return a.profile(ctx, args)
	case "feed":
		return a.showFeed(ctx, args)
	case "show":
		return a.show(ctx, args)
	case "rate":
		return a.rate(ctx, args)
	case "comment":
		return a.comment(ctx, args)
	case "post":
		return a.post(ctx, args)
	case "edit":
		return a.edit(ctx, args)
	case "delete":
		return a.remove(ctx, args)
	case "help", "-h", "--help":
		fmt.Print(usage)
		return nil
	}
	return errUsage
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid idea id %q", s)
	}
	return id, nil
}

func parseTab(s string) (model.Ordering, error) {
	return model.ParseOrdering(s)
}

// password reads IDEAHUB_PASSWORD or one line from stdin.
func password() (string, error) {
	if pw := os.Getenv("IDEAHUB_PASSWORD"); pw != "" {
		return pw, nil
	}
	fmt.Fprint(os.Stderr, "password: ")
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (a *app) register(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return errUsage
	}
	pw, err := password()
	if err != nil {
		return err
	}
	u, err := a.session.Register(ctx, a.client, args[0], args[1], pw)
	if err != nil {
		return err
	}
	fmt.Printf("welcome, %s\n", u.Username)
	return nil
}

func (a *app) login(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	pw, err := password()
	if err != nil {
		return err
	}
	u, err := a.session.Login(ctx, a.client, args[0], pw)
	if err != nil {
		return err
	}
	fmt.Printf("signed in as %s\n", u.Username)
	return nil
}

func (a *app) whoami() error {
	u, ok := a.session.User()
	if !ok || a.session.Viewer() == nil {
		return service.ErrNotSignedIn
	}
	fmt.Printf("%s <%s> (id %d)\n", u.Username, u.Email, u.ID)
	return nil
}

func (a *app) profile(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return errUsage
	}
	u, err := a.session.UpdateProfile(ctx, a.client, model.ProfileInput{Username: args[0], Email: args[1]})
	if err != nil {
		return err
	}
	fmt.Printf("profile updated: %s <%s>\n", u.Username, u.Email)
	return nil
}

func (a *app) showFeed(ctx context.Context, args []string) error {
	tab := a.feed.Tab()
	if len(args) > 0 {
		var err error
		if tab, err = parseTab(args[0]); err != nil {
			return err
		}
	}
	if warm, err := a.feed.Warm(ctx); err == nil && warm {
		renderFeed(os.Stdout, a.feed.View())
	}
	if err := a.feed.SelectTab(ctx, tab); err != nil {
		return err
	}
	if tab != model.OrderingTrending && !a.cfg.Feed.RefetchOnTabChange {
		// No fetch happened yet in this process.
		if err := a.feed.Refresh(ctx); err != nil {
			return err
		}
	}
	renderFeed(os.Stdout, a.feed.View())
	return nil
}

func (a *app) open(ctx context.Context, raw string) (int64, error) {
	id, err := parseID(raw)
	if err != nil {
		return 0, err
	}
	return id, a.detail.Open(ctx, id, a.session.Viewer())
}

func (a *app) show(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	if _, err := a.open(ctx, args[0]); err != nil {
		return err
	}
	renderDetail(os.Stdout, a.detail.View())
	return nil
}

func (a *app) rate(ctx context.Context, args []string) error {
	if len(args) != 3 {
		return errUsage
	}
	novelty, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("novelty must be a number 1..5")
	}
	feasibility, err := strconv.Atoi(args[2])
	if err != nil {
		return fmt.Errorf("feasibility must be a number 1..5")
	}
	if _, err := a.open(ctx, args[0]); err != nil {
		return err
	}
	wf, err := a.detail.Rating()
	if err != nil {
		return err
	}
	if st := wf.Status(); st.State == service.RatingIneligible {
		return errors.New(st.Reason.Message())
	}
	if err := wf.OpenModal(); err != nil {
		return err
	}
	if err := wf.SetNovelty(novelty); err != nil {
		return err
	}
	if err := wf.SetFeasibility(feasibility); err != nil {
		return err
	}
	shown, err := a.detail.SubmitRating(ctx)
	if err != nil {
		return ratingRejection(wf.Status(), err)
	}
	fmt.Printf("rated %q: %s (novelty %.1f, feasibility %.1f)\n", shown.Title, shown.ScoreLabel(), shown.AvgNovelty, shown.AvgFeasibility)
	return nil
}

// ratingRejection explains a failed submit with the reason the workflow
// settled on, when the server made the idea ineligible.
func ratingRejection(st service.RatingStatus, err error) error {
	if st.State == service.RatingIneligible && st.Reason != service.ReasonNone {
		logger.Debug("rating rejected", zap.Error(err))
		return errors.New(st.Reason.Message())
	}
	return err
}

func (a *app) comment(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return errUsage
	}
	if _, err := a.open(ctx, args[0]); err != nil {
		return err
	}
	if a.session.Viewer() == nil {
		return service.ErrNotSignedIn
	}
	c, err := a.detail.AddComment(ctx, strings.Join(args[1:], " "))
	if err != nil {
		return err
	}
	fmt.Printf("comment #%d added\n", c.ID)
	return nil
}

func (a *app) post(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return errUsage
	}
	idea, err := a.editor.Create(ctx, a.session.Viewer(), model.IdeaInput{Title: args[0], Description: strings.Join(args[1:], " ")})
	if err != nil {
		return err
	}
	fmt.Printf("posted idea #%d %q\n", idea.ID, idea.Title)
	return nil
}

func (a *app) edit(ctx context.Context, args []string) error {
	if len(args) < 3 {
		return errUsage
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	idea, err := a.editor.Update(ctx, a.session.Viewer(), id, model.IdeaInput{Title: args[1], Description: strings.Join(args[2:], " ")})
	if err != nil {
		return err
	}
	fmt.Printf("updated idea #%d %q\n", idea.ID, idea.Title)
	return nil
}

func (a *app) remove(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	if err := a.editor.Delete(ctx, a.session.Viewer(), id); err != nil {
		return err
	}
	fmt.Printf("deleted idea #%d\n", id)
	return nil
}
