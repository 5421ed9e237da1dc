// Copyright (c) 2026 dbakit
// Licensed under the MIT License. See LICENSE file in the project root for details.

package runner

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dbakit/cli/internal/history"
)

type fakeRecorder struct {
	mu   sync.Mutex
	rows []history.Run
}

func (f *fakeRecorder) Record(r history.Run) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows = append(f.rows, r)
	return nil
}

func okJob(name string, rows int) Job {
	return Job{Name: name, Run: func(ctx context.Context) (int, error) { return rows, nil }}
}

func failJob(name string, err error) Job {
	return Job{Name: name, Run: func(ctx context.Context) (int, error) { return 0, err }}
}

func TestRunSequentialPreservesOrder(t *testing.T) {
	var order []string
	jobs := []Job{
		{Name: "db01", Run: func(ctx context.Context) (int, error) { order = append(order, "db01"); return 1, nil }},
		{Name: "db02", Run: func(ctx context.Context) (int, error) { order = append(order, "db02"); return 2, nil }},
		{Name: "db03", Run: func(ctx context.Context) (int, error) { order = append(order, "db03"); return 3, nil }},
	}

	s := Run(context.Background(), jobs, Options{Command: "services"})

	assert.Equal(t, []string{"db01", "db02", "db03"}, order)
	require.Len(t, s.Outcomes, 3)
	assert.Equal(t, "db02", s.Outcomes[1].Target)
	assert.Equal(t, 2, s.Outcomes[1].Rows)
	assert.Equal(t, 3, s.Succeeded)
	assert.Zero(t, s.Failed)
	assert.Zero(t, s.ExitCode())
	assert.NoError(t, s.Err())
}

func TestRunContinuesAfterFailure(t *testing.T) {
	boom := errors.New("login failed")
	ran := false
	jobs := []Job{
		failJob("db01", boom),
		{Name: "db02", Run: func(ctx context.Context) (int, error) { ran = true; return 4, nil }},
	}

	s := Run(context.Background(), jobs, Options{Command: "startup"})

	assert.True(t, ran, "second target must still run")
	assert.Equal(t, 1, s.Failed)
	assert.Equal(t, 1, s.Succeeded)
	assert.Zero(t, s.ExitCode(), "partial success exits zero")
	assert.NoError(t, s.Err())
	assert.ErrorIs(t, s.Outcomes[0].Err, boom)
}

func TestRunAllFailed(t *testing.T) {
	boom := errors.New("refused")

	s := Run(context.Background(), []Job{failJob("db01", boom), failJob("db02", boom)}, Options{})
	assert.Equal(t, 1, s.ExitCode())
	require.Error(t, s.Err())
	assert.Contains(t, s.Err().Error(), "all 2 targets failed")

	single := Run(context.Background(), []Job{failJob("db01", boom)}, Options{})
	assert.ErrorIs(t, single.Err(), boom)
}

func TestRunParallelRespectsLimit(t *testing.T) {
	var current, peak atomic.Int32
	job := func(name string) Job {
		return Job{Name: name, Run: func(ctx context.Context) (int, error) {
			n := current.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(20 * time.Millisecond)
			current.Add(-1)
			return 0, nil
		}}
	}

	s := Run(context.Background(), []Job{job("a"), job("b"), job("c"), job("d")}, Options{Parallel: 2})

	assert.Equal(t, 4, s.Succeeded)
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestRunJournalsOutcomes(t *testing.T) {
	rec := &fakeRecorder{}
	jobs := []Job{
		okJob("db01", 7),
		failJob("db02", errors.New("connect failed: password=hunter2 rejected")),
	}

	Run(context.Background(), jobs, Options{
		Command:  "permissions",
		RunID:    "run-42",
		Recorder: rec,
	})

	require.Len(t, rec.rows, 2)
	assert.Equal(t, "permissions", rec.rows[0].Command)
	assert.Equal(t, "run-42", rec.rows[0].RunID)
	assert.Equal(t, history.StatusOK, rec.rows[0].Status)
	assert.Equal(t, 7, rec.rows[0].RowCount)

	assert.Equal(t, history.StatusError, rec.rows[1].Status)
	assert.Contains(t, rec.rows[1].Error, "password=***")
	assert.NotContains(t, rec.rows[1].Error, "hunter2")
}

func TestRunCanceledContextSkipsJobs(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ran := false
	jobs := []Job{{Name: "db01", Run: func(ctx context.Context) (int, error) { ran = true; return 0, nil }}}

	s := Run(ctx, jobs, Options{})
	assert.False(t, ran)
	assert.Equal(t, 1, s.Failed)
	assert.ErrorIs(t, s.Outcomes[0].Err, context.Canceled)
}

func TestRunCallsOnResult(t *testing.T) {
	var mu sync.Mutex
	var seen []string

	Run(context.Background(), []Job{okJob("db01", 0), okJob("db02", 0)}, Options{
		Parallel: 2,
		OnResult: func(o Outcome) {
			mu.Lock()
			seen = append(seen, o.Target)
			mu.Unlock()
		},
	})

	assert.ElementsMatch(t, []string{"db01", "db02"}, seen)
}
