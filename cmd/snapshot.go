// Copyright (c) 2026 dbakit
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"dbakit/cli/internal/diskspace"
	"dbakit/cli/internal/errors"
	"dbakit/cli/internal/snapshot"
	"dbakit/cli/internal/sqlexec"
)

var (
	snapListDatabase   string
	snapCreateDatabase string
	snapCreateName     string
	snapCreatePath     string
	snapCreateScript   bool
	snapDropName       string
	snapDropDatabase   string
	snapDropAll        bool
	snapDropForce      bool
	snapRestoreName    string
	snapRestoreForce   bool
	snapYes            bool
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Manage database snapshots",
	Long: `Database snapshots are sparse, read-only copies the engine keeps in step
with the source database. The subcommands list them, create them, drop them
and revert a database to one.`,
}

var snapshotListCmd = &cobra.Command{
	Use:   "list [target ...]",
	Short: "List snapshots and their on-disk footprint",
	RunE: func(cmd *cobra.Command, args []string) error {
		targets, err := resolveTargets(args)
		if err != nil {
			return err
		}

		results, ferr := fanOut(cmd.Context(), "snapshot list", targets, "", func(ctx context.Context, c *sqlexec.Client, rt resolvedTarget) (any, int, error) {
			snaps, err := snapshot.List(ctx, c, snapListDatabase)
			if err != nil {
				return nil, 0, err
			}
			return snaps, len(snaps), nil
		})

		if err := renderAll(results, func(r fanResult) {
			snaps, _ := r.Payload.([]snapshot.Snapshot)
			targetHeader(r.Display)
			if len(snaps) == 0 {
				pterm.Println("No snapshots.")
				return
			}
			rows := make([][]string, 0, len(snaps))
			for _, s := range snaps {
				rows = append(rows, []string{
					s.Name, s.Source,
					s.CreatedAt.Format("2006-01-02 15:04:05"),
					s.State,
					formatKB(s.OnDiskKB),
				})
			}
			renderTable([]string{"Snapshot", "Source", "Created", "State", "On disk"}, rows)
		}); err != nil {
			return err
		}
		return ferr
	},
}

// snapCreated is the per-target result of snapshot create.
type snapCreated struct {
	Name      string `json:"name"`
	Source    string `json:"source"`
	Statement string `json:"statement"`
}

var snapshotCreateCmd = &cobra.Command{
	Use:   "create [target ...]",
	Short: "Create a snapshot of a database",
	Long: `Creates a snapshot of --database on each target. Data files become sparse
.ss files next to the originals, or under --path; the log is not part of a
snapshot. Without --name the snapshot is named <database>_<timestamp>.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if snapshot.IsSystemDatabase(snapCreateDatabase) {
			return errors.New(errors.NotSupported, "system databases cannot be snapshotted")
		}
		targets, err := resolveTargets(args)
		if err != nil {
			return err
		}

		results, ferr := fanOut(cmd.Context(), "snapshot create", targets, "", func(ctx context.Context, c *sqlexec.Client, rt resolvedTarget) (any, int, error) {
			name := snapCreateName
			if name == "" {
				name = snapshot.DefaultName(snapCreateDatabase, time.Now())
			}
			files, err := diskspace.Files(ctx, c, snapCreateDatabase)
			if err != nil {
				return nil, 0, err
			}
			stmt, err := snapshot.CreateStatement(snapCreateDatabase, name, snapCreatePath, files)
			if err != nil {
				return nil, 0, err
			}

			if !snapCreateScript {
				if _, err := c.Exec(ctx, stmt); err != nil {
					return nil, 0, err
				}
			}
			return &snapCreated{Name: name, Source: snapCreateDatabase, Statement: stmt}, 1, nil
		})

		if err := renderAll(results, func(r fanResult) {
			p := r.Payload.(*snapCreated)
			if snapCreateScript {
				fmt.Printf("-- %s\n%s\n", r.Display, p.Statement)
				return
			}
			pterm.Success.Printfln("✅ %s: created snapshot %s of %s", r.Display, p.Name, p.Source)
		}); err != nil {
			return err
		}
		return ferr
	},
}

// snapDropped is the per-target result of snapshot drop.
type snapDropped struct {
	Dropped []string `json:"dropped"`
}

var snapshotDropCmd = &cobra.Command{
	Use:   "drop [target ...]",
	Short: "Drop a snapshot, or all snapshots of a database",
	RunE: func(cmd *cobra.Command, args []string) error {
		hasName := snapDropName != ""
		hasAll := snapDropDatabase != "" && snapDropAll
		if hasName == hasAll {
			return errors.New(errors.ValidationFailed, "use either --name, or --database with --all")
		}
		targets, err := resolveTargets(args)
		if err != nil {
			return err
		}

		what := "snapshot " + snapDropName
		if snapDropName == "" {
			what = "all snapshots of " + snapDropDatabase
		}
		if !snapYes && !confirm(fmt.Sprintf("Drop %s on %d target(s)?", what, len(targets))) {
			pterm.Println("Aborted.")
			return nil
		}

		results, ferr := fanOut(cmd.Context(), "snapshot drop", targets, "", func(ctx context.Context, c *sqlexec.Client, rt resolvedTarget) (any, int, error) {
			snaps, err := snapshot.List(ctx, c, snapDropDatabase)
			if err != nil {
				return nil, 0, err
			}

			var doomed []string
			if snapDropName != "" {
				for _, s := range snaps {
					if strings.EqualFold(s.Name, snapDropName) {
						doomed = append(doomed, s.Name)
					}
				}
				if len(doomed) == 0 {
					return nil, 0, errors.New(errors.ValidationFailed,
						fmt.Sprintf("%s is not a database snapshot on %s", snapDropName, c.DisplayName()))
				}
			} else {
				for _, s := range snaps {
					doomed = append(doomed, s.Name)
				}
				if len(doomed) == 0 {
					return &snapDropped{}, 0, nil
				}
			}

			dropped := make([]string, 0, len(doomed))
			for _, name := range doomed {
				stmts := []string{snapshot.DropStatement(name)}
				if snapDropForce {
					stmts = snapshot.ForceDropStatements(name)
				}
				for _, stmt := range stmts {
					if _, err := c.Exec(ctx, stmt); err != nil {
						return &snapDropped{Dropped: dropped}, len(dropped), err
					}
				}
				dropped = append(dropped, name)
			}
			return &snapDropped{Dropped: dropped}, len(dropped), nil
		})

		if err := renderAll(results, func(r fanResult) {
			p := r.Payload.(*snapDropped)
			if len(p.Dropped) == 0 {
				pterm.Printfln("%s: nothing to drop", r.Display)
				return
			}
			pterm.Success.Printfln("✅ %s: dropped %s", r.Display, strings.Join(p.Dropped, ", "))
		}); err != nil {
			return err
		}
		return ferr
	},
}

// snapReverted is the per-target result of snapshot restore.
type snapReverted struct {
	Database string `json:"database"`
	Snapshot string `json:"snapshot"`
}

var snapshotRestoreCmd = &cobra.Command{
	Use:   "restore [target ...]",
	Short: "Revert a database to a snapshot",
	Long: `Reverts the snapshot's source database to the state captured in --name.
Everything since the snapshot is lost. The engine refuses to revert while
other snapshots of the same database exist, so those are reported instead
of being deleted behind your back.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		targets, err := resolveTargets(args)
		if err != nil {
			return err
		}
		if !snapYes && !confirm(fmt.Sprintf("Revert to snapshot %s on %d target(s)? Changes since the snapshot are lost", snapRestoreName, len(targets))) {
			pterm.Println("Aborted.")
			return nil
		}

		results, ferr := fanOut(cmd.Context(), "snapshot restore", targets, "", func(ctx context.Context, c *sqlexec.Client, rt resolvedTarget) (any, int, error) {
			snaps, err := snapshot.List(ctx, c, "")
			if err != nil {
				return nil, 0, err
			}
			var snap *snapshot.Snapshot
			for i := range snaps {
				if strings.EqualFold(snaps[i].Name, snapRestoreName) {
					snap = &snaps[i]
					break
				}
			}
			if snap == nil {
				return nil, 0, errors.New(errors.ValidationFailed,
					fmt.Sprintf("%s is not a database snapshot on %s", snapRestoreName, c.DisplayName()))
			}
			if siblings := snapshot.Siblings(snaps, snap.Source, snap.Name); len(siblings) > 0 {
				return nil, 0, errors.New(errors.ValidationFailed,
					fmt.Sprintf("cannot revert %s while other snapshots of it exist (%s); drop them first",
						snap.Source, strings.Join(siblings, ", ")))
			}

			stmts := snapshot.RestoreStatements(snap.Source, snap.Name, snapRestoreForce)
			for i, stmt := range stmts {
				if _, err := c.Exec(ctx, stmt); err != nil {
					if i > 0 {
						// The database may be stuck in single user; try to
						// reopen it before reporting the failure.
						_, _ = c.Exec(ctx, stmts[len(stmts)-1])
					}
					return nil, 0, err
				}
			}
			return &snapReverted{Database: snap.Source, Snapshot: snap.Name}, 1, nil
		})

		if err := renderAll(results, func(r fanResult) {
			p := r.Payload.(*snapReverted)
			pterm.Success.Printfln("✅ %s: reverted %s to %s", r.Display, p.Database, p.Snapshot)
		}); err != nil {
			return err
		}
		return ferr
	},
}

func init() {
	rootCmd.AddCommand(snapshotCmd)
	snapshotCmd.AddCommand(snapshotListCmd)
	snapshotCmd.AddCommand(snapshotCreateCmd)
	snapshotCmd.AddCommand(snapshotDropCmd)
	snapshotCmd.AddCommand(snapshotRestoreCmd)

	snapshotListCmd.Flags().StringVarP(&snapListDatabase, "database", "d", "", "Only snapshots of this database")

	snapshotCreateCmd.Flags().StringVarP(&snapCreateDatabase, "database", "d", "", "Database to snapshot (required)")
	snapshotCreateCmd.Flags().StringVar(&snapCreateName, "name", "", "Snapshot name; default is <database>_<timestamp>")
	snapshotCreateCmd.Flags().StringVar(&snapCreatePath, "path", "", "Directory on the server for the sparse files; default is next to the data files")
	snapshotCreateCmd.Flags().BoolVar(&snapCreateScript, "script", false, "Print the CREATE DATABASE statement instead of running it")
	_ = snapshotCreateCmd.MarkFlagRequired("database")

	snapshotDropCmd.Flags().StringVar(&snapDropName, "name", "", "Snapshot to drop")
	snapshotDropCmd.Flags().StringVarP(&snapDropDatabase, "database", "d", "", "Drop snapshots of this database")
	snapshotDropCmd.Flags().BoolVar(&snapDropAll, "all", false, "Drop every snapshot of --database")
	snapshotDropCmd.Flags().BoolVar(&snapDropForce, "force", false, "Kick open sessions out of the snapshot before dropping")
	snapshotDropCmd.Flags().BoolVarP(&snapYes, "yes", "y", false, "Skip the confirmation prompt")

	snapshotRestoreCmd.Flags().StringVar(&snapRestoreName, "name", "", "Snapshot to revert to (required)")
	snapshotRestoreCmd.Flags().BoolVar(&snapRestoreForce, "force", false, "Force the source to single user for the revert")
	snapshotRestoreCmd.Flags().BoolVarP(&snapYes, "yes", "y", false, "Skip the confirmation prompt")
	_ = snapshotRestoreCmd.MarkFlagRequired("name")
}
