// Copyright (c) 2026 dbakit
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package runner fans a command out over its resolved targets. A failing
// target is reported and journaled but never stops the remaining targets;
// the summary decides the process exit code afterwards.
package runner

import (
	"context"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"dbakit/cli/internal/history"
	"dbakit/cli/internal/logging"
)

// Job is one unit of work against one target.
type Job struct {
	// Name is the target's display address, used in logs and the journal.
	Name string
	// Run does the work and reports how many rows it produced or affected.
	Run func(ctx context.Context) (int, error)
}

// Outcome is the settled result of one job.
type Outcome struct {
	Target   string
	Rows     int
	Err      error
	Duration time.Duration
}

// Recorder journals settled jobs. history.Store satisfies it.
type Recorder interface {
	Record(r history.Run) error
}

// Options configure one fan-out.
type Options struct {
	// Command names the invocation in logs and the journal.
	Command string
	// RunID groups this invocation's journal rows.
	RunID string
	// Parallel caps concurrent jobs; values below two mean sequential.
	Parallel int
	// Recorder, when set, receives one journal row per job.
	Recorder Recorder
	// OnResult, when set, is called as each job settles.
	OnResult func(Outcome)
	// Log carries the invocation-scoped logger.
	Log *log.Entry
}

// Summary aggregates all outcomes of one fan-out.
type Summary struct {
	Outcomes  []Outcome
	Succeeded int
	Failed    int
}

// ExitCode is zero when at least one target succeeded.
func (s *Summary) ExitCode() int {
	if s.Failed > 0 && s.Succeeded == 0 {
		return 1
	}
	return 0
}

// Err returns a terminal error only when every target failed.
func (s *Summary) Err() error {
	if s.Failed == 0 || s.Succeeded > 0 {
		return nil
	}
	if len(s.Outcomes) == 1 {
		return s.Outcomes[0].Err
	}
	return fmt.Errorf("all %d targets failed", s.Failed)
}

// Run executes the jobs and settles every one of them.
func Run(ctx context.Context, jobs []Job, opts Options) *Summary {
	logger := opts.Log
	if logger == nil {
		logger = log.NewEntry(log.StandardLogger())
	}

	outcomes := make([]Outcome, len(jobs))
	var mu sync.Mutex

	settle := func(i int, o Outcome) {
		outcomes[i] = o
		if o.Err != nil {
			logger.WithField("target", o.Target).Warn(logging.PresentError("target failed", o.Err))
		} else {
			logger.WithField("target", o.Target).Debugf("target done in %s", o.Duration.Round(time.Millisecond))
		}
		if opts.Recorder != nil {
			row := history.Run{
				RunID:     opts.RunID,
				Command:   opts.Command,
				Target:    o.Target,
				Status:    history.StatusOK,
				RowCount:  o.Rows,
				Duration:  o.Duration,
				StartedAt: time.Now().UTC().Add(-o.Duration),
			}
			if o.Err != nil {
				row.Status = history.StatusError
				row.Error = logging.Mask(o.Err.Error())
			}
			if err := opts.Recorder.Record(row); err != nil {
				logger.Debugf("journal write failed: %v", err)
			}
		}
		if opts.OnResult != nil {
			mu.Lock()
			opts.OnResult(o)
			mu.Unlock()
		}
	}

	runOne := func(i int) {
		job := jobs[i]
		if err := ctx.Err(); err != nil {
			settle(i, Outcome{Target: job.Name, Err: err})
			return
		}
		start := time.Now()
		rows, err := job.Run(ctx)
		settle(i, Outcome{
			Target:   job.Name,
			Rows:     rows,
			Err:      err,
			Duration: time.Since(start),
		})
	}

	if opts.Parallel > 1 && len(jobs) > 1 {
		// A plain group: one target failing must not cancel its siblings.
		var g errgroup.Group
		g.SetLimit(opts.Parallel)
		for i := range jobs {
			i := i
			g.Go(func() error {
				runOne(i)
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for i := range jobs {
			runOne(i)
		}
	}

	summary := &Summary{Outcomes: outcomes}
	for _, o := range outcomes {
		if o.Err != nil {
			summary.Failed++
		} else {
			summary.Succeeded++
		}
	}
	return summary
}
