package main

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"os"
	"sort"
	"strconv"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/d60-Lab/ideahub/config"
	"github.com/d60-Lab/ideahub/internal/devserver"
	"github.com/d60-Lab/ideahub/internal/model"
	"github.com/d60-Lab/ideahub/internal/repository"
	"github.com/d60-Lab/ideahub/pkg/database"
)

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func pct(vs []time.Duration, p float64) time.Duration {
	if len(vs) == 0 {
		return 0
	}
	xs := append([]time.Duration(nil), vs...)
	sort.Slice(xs, func(i, j int) bool { return xs[i] < xs[j] })
	k := int(math.Ceil(p*float64(len(xs)))) - 1
	if k < 0 {
		k = 0
	}
	if k >= len(xs) {
		k = len(xs) - 1
	}
	return xs[k]
}

func avg(vs []time.Duration) time.Duration {
	if len(vs) == 0 {
		return 0
	}
	var sum time.Duration
	for _, d := range vs {
		sum += d
	}
	return sum / time.Duration(len(vs))
}

func envInt(name string, def int) int {
	if s := os.Getenv(name); s != "" {
		if v, e := strconv.Atoi(s); e == nil && v > 0 {
			return v
		}
	}
	return def
}

// ratebench seeds raters and ideas, rates concurrently through the dev server
// rules and reports write latency plus how long the trend worker takes to
// relabel after each rating.
func main() {
	cfg := must(config.Load())
	db := must(database.InitDB(cfg))
	if err := repository.InitServerSchema(db); err != nil {
		panic(err)
	}

	USERS := envInt("USERS", 200)
	IDEAS := envInt("IDEAS", 20)
	WORKERS := envInt("WORKERS", 8)

	// clean tables for a reproducible run (ok for local bench)
	for _, table := range []string{"rating_events", "ratings", "comments", "ideas", "accounts"} {
		_ = db.Exec("DELETE FROM " + table).Error
	}

	auth := devserver.NewAuth(cfg.Server.JWTSecret, cfg.Server.TokenTTL)
	auth.SetHashCost(bcrypt.MinCost)
	svc := devserver.NewServiceFromDB(db, auth)
	ctx := context.Background()

	users := make([]model.User, USERS)
	for i := range users {
		name := fmt.Sprintf("bench%05d", i)
		users[i] = must(svc.Register(ctx, model.Credentials{Username: name, Email: name + "@example.com", Password: "p"}))
	}
	ideas := make([]model.Idea, IDEAS)
	for i := range ideas {
		ideas[i] = must(svc.CreateIdea(ctx, users[i%len(users)].ID, model.IdeaInput{Title: fmt.Sprintf("idea %d", i), Description: "bench"}))
	}

	worker := devserver.NewTrendWorker(db, repository.NewIdeaRepository(db), repository.NewRatingRepository(db), cfg.Server.TrendWindow, 20*time.Millisecond)
	stop := worker.Start()
	defer stop(context.Background())

	type job struct{ user, idea int }
	jobs := make(chan job)
	var mu sync.Mutex
	rateDurations := make([]time.Duration, 0, USERS*IDEAS)
	rejected := 0

	var wg sync.WaitGroup
	for w := 0; w < WORKERS; w++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			rnd := rand.New(rand.NewSource(seed))
			for j := range jobs {
				in := model.RatingInput{Novelty: 1 + rnd.Intn(5), Feasibility: 1 + rnd.Intn(5)}
				st := time.Now()
				_, err := svc.RateIdea(ctx, users[j.user].ID, ideas[j.idea].ID, in)
				d := time.Since(st)
				mu.Lock()
				if err != nil {
					rejected++
				} else {
					rateDurations = append(rateDurations, d)
				}
				mu.Unlock()
			}
		}(int64(w))
	}
	for u := range users {
		for i := range ideas {
			jobs <- job{user: u, idea: i}
		}
	}
	close(jobs)
	wg.Wait()

	// collect relabel metrics
	want := len(rateDurations)
	relabel := make([]time.Duration, 0, want)
	timeout := time.After(2 * time.Minute)
collect:
	for len(relabel) < want {
		select {
		case d := <-worker.Metrics():
			relabel = append(relabel, d)
		case <-timeout:
			fmt.Printf("timeout while waiting for trend metrics: got=%d want=%d\n", len(relabel), want)
			break collect
		}
	}

	fmt.Printf("USERS=%d IDEAS=%d WORKERS=%d\n", USERS, IDEAS, WORKERS)
	fmt.Printf("Rate tx latency: samples=%d rejected(own idea)=%d avg=%v p95=%v p99=%v\n",
		len(rateDurations), rejected, avg(rateDurations), pct(rateDurations, 0.95), pct(rateDurations, 0.99))
	fmt.Printf("Trend relabel (event->done): samples=%d avg=%v p95=%v p99=%v\n",
		len(relabel), avg(relabel), pct(relabel, 0.95), pct(relabel, 0.99))

	st := time.Now()
	list := must(svc.ListIdeas(ctx, "trending"))
	fmt.Printf("Trending list read: %v, rows=%d\n", time.Since(st), len(list))
}
