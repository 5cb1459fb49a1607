package http

import (
	"context"
	"errors"
	"testing"
	"time"

	"blogverse/internal/domain"
	"blogverse/internal/repository"
	"blogverse/internal/service"
)

func TestFetchTracker_NewerFetchCancelsOlder(t *testing.T) {
	var canceled int
	tracker := NewFetchTracker(nil, func() { canceled++ })

	first, doneFirst := tracker.Begin(context.Background(), "s1", "home")
	second, doneSecond := tracker.Begin(context.Background(), "s1", "home")
	defer doneSecond()

	if !errors.Is(context.Cause(first), ErrFetchSuperseded) {
		t.Fatalf("expected first fetch superseded, got %v", context.Cause(first))
	}
	if second.Err() != nil {
		t.Fatalf("newest fetch must stay alive")
	}
	if canceled != 1 {
		t.Fatalf("expected one cancellation, got %d", canceled)
	}

	// done del primero no debe liberar el registro del segundo.
	doneFirst()
	if tracker.InFlight("s1") != 1 {
		t.Fatalf("expected second fetch still tracked")
	}
}

func TestFetchTracker_ViewsAndSessionsAreIndependent(t *testing.T) {
	tracker := NewFetchTracker(nil, nil)

	home, done1 := tracker.Begin(context.Background(), "s1", "home")
	defer done1()
	mine, done2 := tracker.Begin(context.Background(), "s1", "my-blogs")
	defer done2()
	other, done3 := tracker.Begin(context.Background(), "s2", "home")
	defer done3()

	for _, ctx := range []context.Context{home, mine, other} {
		if ctx.Err() != nil {
			t.Fatalf("unexpected cancellation: %v", context.Cause(ctx))
		}
	}
	if tracker.InFlight("s1") != 2 {
		t.Fatalf("expected two fetches for s1")
	}
}

func TestFetchTracker_AnonymousIsUntracked(t *testing.T) {
	tracker := NewFetchTracker(nil, nil)
	a, doneA := tracker.Begin(context.Background(), "", "landing")
	b, doneB := tracker.Begin(context.Background(), "", "landing")
	defer doneB()

	if a.Err() != nil || b.Err() != nil {
		t.Fatalf("anonymous fetches must not cancel each other")
	}
	doneA()
	if a.Err() == nil {
		t.Fatalf("done must release the derived context")
	}
}

func TestFetchTracker_LogoutCancelsSessionFetches(t *testing.T) {
	ctx := context.Background()
	sessions, err := service.NewSessionManager(nil, repository.NewMemorySessionRepository(10, time.Hour), "secret", time.Hour)
	if err != nil {
		t.Fatalf("session manager: %v", err)
	}
	tracker := NewFetchTracker(sessions, nil)
	defer tracker.Close()

	s := sessions.Load(ctx, "")
	if err := s.Login(ctx, "tok", domain.User{ID: "u1"}); err != nil {
		t.Fatalf("login: %v", err)
	}

	fetchCtx, done := tracker.Begin(ctx, s.ID(), "my-blogs")
	defer done()

	if err := s.Logout(ctx); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if !errors.Is(context.Cause(fetchCtx), ErrSessionEnded) {
		t.Fatalf("expected fetch canceled by logout, got %v", context.Cause(fetchCtx))
	}
	if tracker.InFlight(s.ID()) != 0 {
		t.Fatalf("expected no fetches left")
	}
}

func TestViewState_Load(t *testing.T) {
	ok := Load(context.Background(), func(context.Context) (int, error) { return 7, nil })
	if !ok.Loaded() || ok.Data != 7 || ok.Message() != "" {
		t.Fatalf("unexpected loaded state %+v", ok)
	}
	failed := Load(context.Background(), func(context.Context) (int, error) { return 0, errors.New("boom") })
	if !failed.Failed() || failed.Message() != "Something went wrong" {
		t.Fatalf("unexpected failed state %+v", failed)
	}
	if ViewIdle.String() != "idle" || ViewFailed.String() != "failed" {
		t.Fatalf("unexpected status names")
	}
}
