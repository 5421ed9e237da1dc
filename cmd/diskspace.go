// Copyright (c) 2026 dbakit
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"context"
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"dbakit/cli/internal/diskspace"
	"dbakit/cli/internal/errors"
	"dbakit/cli/internal/sqlexec"
)

var (
	diskDestination string
	diskDatabases   []string
	diskDetail      bool
)

// diskPayload is the per-source result of disk-space.
type diskPayload struct {
	Destination string                   `json:"destination"`
	Summary     []diskspace.MountSummary `json:"summary"`
	Deltas      []diskspace.FileDelta    `json:"deltas,omitempty"`
}

// diskSpaceCmd sizes a migration before anybody copies a byte.
var diskSpaceCmd = &cobra.Command{
	Use:   "disk-space [source ...]",
	Short: "Check destination free space for migrating databases",
	Long: `The disk-space command compares database file sizes between each source
and the --destination instance, resolves every file to a destination volume
via sys.dm_os_volume_stats, and reports per mount whether the free space
covers the move. Files without a counterpart on the destination count at
full size; the destination's own surplus counts against the requirement.

Sizes are allocated sizes from sys.master_files, so no per-database
connection is needed on either side.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		targets, err := resolveTargets(args)
		if err != nil {
			return err
		}
		destTargets, err := resolveTargets([]string{diskDestination})
		if err != nil {
			return fmt.Errorf("destination: %w", err)
		}
		destRT := destTargets[0]

		ctx := cmd.Context()
		destClient, err := openClient(ctx, destRT, "")
		if err != nil {
			return fmt.Errorf("destination %s: %w", destRT.display, err)
		}
		defer destClient.Close()

		// One volume listing serves every source; sql.DB is safe to share
		// across the parallel jobs.
		cache := diskspace.NewVolumeCache()
		destVols, err := cache.Fetch(ctx, destClient)
		if err != nil {
			return err
		}

		results, ferr := fanOut(ctx, "disk-space", targets, "", func(ctx context.Context, c *sqlexec.Client, rt resolvedTarget) (any, int, error) {
			dbs := diskDatabases
			if len(dbs) == 0 {
				var err error
				dbs, err = c.Databases(ctx, false)
				if err != nil {
					return nil, 0, err
				}
			}

			var deltas []diskspace.FileDelta
			for _, db := range dbs {
				srcFiles, err := diskspace.Files(ctx, c, db)
				if err != nil {
					return nil, 0, err
				}
				destFiles, err := diskspace.Files(ctx, destClient, db)
				if err != nil {
					if errors.KindOf(err) != errors.ValidationFailed {
						return nil, 0, err
					}
					// Database absent on the destination: every file needs
					// its full size.
					destFiles = nil
				}
				deltas = append(deltas, diskspace.Compare(srcFiles, destFiles, destVols)...)
			}

			p := &diskPayload{
				Destination: destRT.display,
				Summary:     diskspace.Summarize(deltas, destVols),
			}
			if diskDetail {
				p.Deltas = deltas
			}
			return p, len(deltas), nil
		})

		if err := renderAll(results, func(r fanResult) {
			p := r.Payload.(*diskPayload)
			targetHeader(fmt.Sprintf("%s → %s", r.Display, p.Destination))

			rows := make([][]string, 0, len(p.Summary))
			for _, s := range p.Summary {
				freeCell := "?"
				fitsCell := "?"
				if s.KnownFree {
					freeCell = formatKB(s.FreeKB)
					if s.Fits {
						fitsCell = "✅ yes"
					} else {
						fitsCell = "❌ no"
					}
				}
				rows = append(rows, []string{s.Mount, formatKB(s.RequiredKB), freeCell, fitsCell})
			}
			renderTable([]string{"Mount", "Required", "Free", "Fits"}, rows)

			if diskDetail && len(p.Deltas) > 0 {
				pterm.Println()
				detail := make([][]string, 0, len(p.Deltas))
				for _, d := range p.Deltas {
					detail = append(detail, []string{
						d.Database, d.LogicalName, d.Type, d.Mount,
						formatKB(d.SourceKB), formatKB(d.DestKB), formatKB(d.DiffKB), d.Status,
					})
				}
				renderTable([]string{"Database", "File", "Type", "Mount", "Source", "Dest", "Diff", "Status"}, detail)
			}
		}); err != nil {
			return err
		}
		return ferr
	},
}

func init() {
	rootCmd.AddCommand(diskSpaceCmd)
	diskSpaceCmd.Flags().StringVar(&diskDestination, "destination", "", "Instance the databases would move to (required)")
	diskSpaceCmd.Flags().StringSliceVarP(&diskDatabases, "database", "d", nil, "Databases to size; default is every online user database on the source")
	diskSpaceCmd.Flags().BoolVar(&diskDetail, "detail", false, "Also list the per-file deltas")
	_ = diskSpaceCmd.MarkFlagRequired("destination")
}
