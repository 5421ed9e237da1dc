// Copyright (c) 2026 dbakit
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"context"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"dbakit/cli/internal/dirtree"
	"dbakit/cli/internal/errors"
	"dbakit/cli/internal/sqlexec"
)

var (
	filesPath  string
	filesDepth int
	filesTypes []string
)

// filesPayload is the per-target result of files.
type filesPayload struct {
	Path    string          `json:"path"`
	Entries []dirtree.Entry `json:"entries"`
}

// filesCmd lists what the server itself sees on its disks.
var filesCmd = &cobra.Command{
	Use:   "files [target ...]",
	Short: "Browse files and directories on the server's own disks",
	Long: `The files command lists a directory as the server sees it, through
xp_dirtree over the regular connection. That makes it useful exactly where
you have no shell on the host: the paths, permissions and drives are the
ones the engine service account works with. Without --path it starts at
the instance's default data path.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		targets, err := resolveTargets(args)
		if err != nil {
			return err
		}

		results, ferr := fanOut(cmd.Context(), "files", targets, "", func(ctx context.Context, c *sqlexec.Client, rt resolvedTarget) (any, int, error) {
			path := filesPath
			if path == "" {
				info, err := c.ServerInfo(ctx)
				if err != nil {
					return nil, 0, err
				}
				path = info.DefaultDataPath
				if path == "" {
					return nil, 0, errors.New(errors.ValidationFailed,
						"no --path given and the server reports no default data path")
				}
			}
			entries, err := dirtree.Collect(ctx, c, path, filesDepth)
			if err != nil {
				return nil, 0, err
			}
			entries = dirtree.FilterTypes(entries, filesTypes)
			return &filesPayload{Path: path, Entries: entries}, len(entries), nil
		})

		if err := renderAll(results, func(r fanResult) {
			p := r.Payload.(*filesPayload)
			targetHeader(r.Display)
			pterm.Printfln("📂 %s", p.Path)
			if len(filesTypes) > 0 {
				// A filtered listing has no tree shape left; print full paths.
				for _, e := range p.Entries {
					pterm.Printfln("📄 %s", e.Path)
				}
			} else {
				for _, e := range p.Entries {
					icon := "📁"
					if e.IsFile {
						icon = "📄"
					}
					pterm.Printfln("%s%s %s", strings.Repeat("  ", e.Depth), icon, e.Name)
				}
			}
			if len(p.Entries) == 0 {
				pterm.Println("   (empty)")
			}
		}); err != nil {
			return err
		}
		return ferr
	},
}

func init() {
	rootCmd.AddCommand(filesCmd)
	filesCmd.Flags().StringVar(&filesPath, "path", "", "Directory to list; default is the instance's data path")
	filesCmd.Flags().IntVar(&filesDepth, "depth", 1, "How many levels to descend")
	filesCmd.Flags().StringSliceVar(&filesTypes, "file-type", nil, "Only show files with these extensions, e.g. mdf,ldf,bak")
}
