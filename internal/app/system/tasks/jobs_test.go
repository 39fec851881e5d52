package tasks_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alexb007/munaz-backend/internal/app/system/tasks"
	"go.uber.org/zap"
)

type fakePurger struct {
	before time.Time
	n      int64
	err    error
}

func (f *fakePurger) PurgeBefore(_ context.Context, before time.Time) (int64, error) {
	f.before = before
	return f.n, f.err
}

func TestLoginAttemptRetentionJob(t *testing.T) {
	p := &fakePurger{n: 4}
	job := tasks.LoginAttemptRetentionJob(p, 30*24*time.Hour, zap.NewNop())

	if job.Name != "login-attempt-retention" {
		t.Errorf("Name = %q", job.Name)
	}
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	want := time.Now().UTC().Add(-30 * 24 * time.Hour)
	if d := want.Sub(p.before); d < 0 || d > time.Minute {
		t.Errorf("cutoff = %v, want about %v", p.before, want)
	}
}

func TestLoginAttemptRetentionJob_DefaultRetention(t *testing.T) {
	p := &fakePurger{}
	job := tasks.LoginAttemptRetentionJob(p, 0, zap.NewNop())
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	want := time.Now().UTC().Add(-tasks.DefaultLoginAttemptRetention)
	if d := want.Sub(p.before); d < 0 || d > time.Minute {
		t.Errorf("cutoff = %v, want about %v", p.before, want)
	}
}

func TestLoginAttemptRetentionJob_Error(t *testing.T) {
	p := &fakePurger{err: errors.New("timeout")}
	job := tasks.LoginAttemptRetentionJob(p, time.Hour, zap.NewNop())
	if err := job.Run(context.Background()); err == nil {
		t.Error("Run() error = nil, want purge error")
	}
}
