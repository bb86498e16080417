package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestAddRejectsBadSpec(t *testing.T) {
	s := New()
	defer s.Stop()
	if err := s.Add("prune", "every day", func(context.Context) error { return nil }); err == nil {
		t.Fatal("expected parse error")
	}
	if s.Jobs() != 0 {
		t.Fatal("bad spec registered")
	}
}

func TestAddReplacesByName(t *testing.T) {
	s := New()
	defer s.Stop()
	noop := func(context.Context) error { return nil }
	if err := s.Add("prune", "0 3 * * *", noop); err != nil {
		t.Fatal(err)
	}
	if err := s.Add("prune", "30 4 * * *", noop); err != nil {
		t.Fatal(err)
	}
	if s.Jobs() != 1 {
		t.Fatalf("jobs=%d", s.Jobs())
	}
	s.Start()
	next := s.Next("prune")
	if next.IsZero() || next.Hour() != 4 || next.Minute() != 30 || next.Location().String() != "UTC" {
		t.Fatalf("next=%v", next)
	}
}

func TestRunPassesContextAndSurvivesErrors(t *testing.T) {
	s := New()
	calls := 0
	s.run("ok", func(ctx context.Context) error {
		if ctx.Err() != nil {
			t.Fatal("context cancelled before stop")
		}
		calls++
		return nil
	})
	s.run("bad", func(context.Context) error {
		calls++
		return errors.New("locked")
	})
	s.Stop()
	s.run("after", func(ctx context.Context) error {
		if ctx.Err() == nil {
			t.Fatal("context should be cancelled after stop")
		}
		calls++
		return nil
	})
	if calls != 3 {
		t.Fatalf("calls=%d", calls)
	}
}

func TestStopCancelsRunningJob(t *testing.T) {
	s := New()
	started := make(chan struct{})
	var runs atomic.Int32
	err := s.Add("slow", "@every 1s", func(ctx context.Context) error {
		if runs.Add(1) > 1 {
			return nil
		}
		close(started)
		<-ctx.Done()
		return ctx.Err()
	})
	if err != nil {
		t.Fatal(err)
	}
	s.Start()
	select {
	case <-started:
	case <-time.After(5 * time.Second):
		s.Stop()
		t.Fatal("job never ran")
	}

	stopped := make(chan struct{})
	go func() {
		s.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop blocked on a job waiting for cancellation")
	}
}
