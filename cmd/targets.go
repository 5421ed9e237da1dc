// Copyright (c) 2026 dbakit
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/term"

	"dbakit/cli/internal/history"
	"dbakit/cli/internal/keychain"
	"dbakit/cli/internal/registry"
	"dbakit/cli/internal/runner"
	"dbakit/cli/internal/sqlexec"
	"dbakit/cli/internal/target"
)

// resolvedTarget is one instance a command will run against.
type resolvedTarget struct {
	inst    *target.Instance
	display string
	// database is the saved default database for this server, if any.
	database string
}

// resolveTargets turns positional arguments, --group, or the saved default
// instance into connectable targets. Arguments may be saved server names or
// raw addresses.
func resolveTargets(args []string) ([]resolvedTarget, error) {
	reg, err := registry.Load()
	if err != nil {
		return nil, err
	}

	var out []resolvedTarget
	appendEntry := func(e registry.Entry) error {
		inst, err := target.Parse(e.Address)
		if err != nil {
			return fmt.Errorf("saved server %s: %w", e.Name, err)
		}
		db := e.Database
		if db == "" {
			db = inst.Database
		}
		out = append(out, resolvedTarget{inst: inst, display: inst.DisplayName(), database: db})
		return nil
	}

	switch {
	case len(args) > 0:
		for _, arg := range args {
			if e, ok := reg.Get(arg); ok {
				if err := appendEntry(e); err != nil {
					return nil, err
				}
				continue
			}
			inst, err := target.Parse(arg)
			if err != nil {
				return nil, err
			}
			out = append(out, resolvedTarget{inst: inst, display: inst.DisplayName(), database: inst.Database})
		}
	case flagGroup != "":
		entries := reg.Group(flagGroup)
		if len(entries) == 0 {
			return nil, fmt.Errorf("no saved servers in group %q", flagGroup)
		}
		for _, e := range entries {
			if err := appendEntry(e); err != nil {
				return nil, err
			}
		}
	default:
		km, err := keychain.GetManager()
		if err != nil {
			return nil, fmt.Errorf("no target given and secure storage is unavailable: %w", err)
		}
		addr, err := km.LoadDefaultInstance()
		if err != nil || strings.TrimSpace(addr) == "" {
			return nil, fmt.Errorf("no target given and no default instance saved; pass an address or run: dbakit connect")
		}
		inst, err := target.Parse(addr)
		if err != nil {
			return nil, err
		}
		out = append(out, resolvedTarget{inst: inst, display: inst.DisplayName(), database: inst.Database})
	}
	return out, nil
}

var (
	promptOnce sync.Once
	promptedPw string
	promptErr  error
)

// promptPassword asks once per invocation so parallel targets share the
// answer instead of racing for the terminal.
func promptPassword(user string) (string, error) {
	promptOnce.Do(func() {
		fmt.Fprintf(os.Stderr, "Password for %s: ", user)
		b, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			promptErr = fmt.Errorf("failed to read password: %w", err)
			return
		}
		promptedPw = string(b)
	})
	return promptedPw, promptErr
}

// connectOptions resolves credentials for one target. An explicit --user
// wins, then the address's own credentials, then saved ones. With nothing
// stored the driver falls back to integrated auth.
func connectOptions(rt resolvedTarget, database string) (sqlexec.Options, error) {
	opts := sqlexec.Options{
		ConnectTimeout: time.Duration(flagTimeout) * time.Second,
		Database:       database,
	}
	if opts.Database == "" {
		opts.Database = rt.database
	}
	if opts.Database == "" {
		opts.Database = defaultDatabase
	}

	if flagUser != "" {
		pw := os.Getenv("DBAKIT_PASSWORD")
		if pw == "" {
			var err error
			pw, err = promptPassword(flagUser)
			if err != nil {
				return opts, err
			}
		}
		opts.User = flagUser
		opts.Password = pw
		return opts, nil
	}

	if rt.inst.User != "" {
		return opts, nil
	}

	km, err := keychain.GetManager()
	if err != nil {
		return opts, nil
	}
	if cred, err := km.LoadCredential(rt.display); err == nil && cred.User != "" {
		opts.User, opts.Password = cred.User, cred.Password
		return opts, nil
	}
	if cred, err := km.LoadCredential(""); err == nil && cred.User != "" {
		opts.User, opts.Password = cred.User, cred.Password
	}
	return opts, nil
}

// openClient connects to a target with resolved credentials.
func openClient(ctx context.Context, rt resolvedTarget, database string) (*sqlexec.Client, error) {
	opts, err := connectOptions(rt, database)
	if err != nil {
		return nil, err
	}
	return sqlexec.Connect(ctx, rt.inst, opts)
}

// openRecorder returns the journal sink for this invocation, or nil when
// journaling is off or the journal cannot be opened.
func openRecorder() (runner.Recorder, func()) {
	if flagNoHistory {
		return nil, func() {}
	}
	store, err := history.Open()
	if err != nil {
		appLog.Debugf("run journal unavailable: %v", err)
		return nil, func() {}
	}
	return store, func() { _ = store.Close() }
}

// fanResult pairs a target with what the command produced for it.
type fanResult struct {
	Display string
	Payload any
	Err     error
}

// fanOut connects to every target and runs fn against each, sequentially by
// default or bounded-parallel with --parallel. One target failing does not
// stop the others.
func fanOut(ctx context.Context, command string, targets []resolvedTarget, database string, fn func(ctx context.Context, c *sqlexec.Client, rt resolvedTarget) (any, int, error)) ([]fanResult, error) {
	if flagUser != "" && os.Getenv("DBAKIT_PASSWORD") == "" {
		// Collect the password before any job starts.
		if _, err := promptPassword(flagUser); err != nil {
			return nil, err
		}
	}

	rec, closeRec := openRecorder()
	defer closeRec()

	payloads := make([]any, len(targets))
	jobs := make([]runner.Job, len(targets))
	for i, rt := range targets {
		jobs[i] = runner.Job{
			Name: rt.display,
			Run: func(ctx context.Context) (int, error) {
				c, err := openClient(ctx, rt, database)
				if err != nil {
					return 0, err
				}
				defer c.Close()

				payload, rows, err := fn(ctx, c, rt)
				payloads[i] = payload
				return rows, err
			},
		}
	}

	var progress *progressArea
	if flagOutput == outputTable && len(jobs) > 1 {
		progress = startProgressArea(command, len(jobs))
	}

	summary := runner.Run(ctx, jobs, runner.Options{
		Command:  command,
		RunID:    runID,
		Parallel: flagParallel,
		Recorder: rec,
		Log:      appLog,
		OnResult: func(o runner.Outcome) {
			progress.Done()
		},
	})
	progress.Stop()

	results := make([]fanResult, len(targets))
	for i := range targets {
		results[i] = fanResult{Display: targets[i].display, Payload: payloads[i], Err: summary.Outcomes[i].Err}
	}
	return results, summary.Err()
}
