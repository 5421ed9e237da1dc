// Copyright (c) 2026 dbakit
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/pterm/pterm"

	"dbakit/cli/internal/logging"
)

// jsonResult is the JSON envelope for one target's output.
type jsonResult struct {
	Target string `json:"target"`
	Error  string `json:"error,omitempty"`
	Data   any    `json:"data,omitempty"`
}

// renderAll prints per-target results: JSON mode emits one array for the
// whole invocation, table mode calls the command's renderer per target and
// prints failures inline.
func renderAll(results []fanResult, render func(r fanResult)) error {
	if flagOutput == outputJSON {
		arr := make([]jsonResult, 0, len(results))
		for _, r := range results {
			jr := jsonResult{Target: r.Display, Data: r.Payload}
			if r.Err != nil {
				// Partial data stays visible; the error field flags it.
				jr.Error = logging.Mask(r.Err.Error())
			}
			arr = append(arr, jr)
		}
		return printJSON(arr)
	}

	for i, r := range results {
		if i > 0 {
			pterm.Println()
		}
		if r.Err != nil {
			pterm.Error.Printfln("❌ %s: %s", r.Display, logging.Mask(r.Err.Error()))
			continue
		}
		render(r)
	}
	return nil
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

// targetHeader prints the section header for one target's output.
func targetHeader(display string) {
	pterm.NewStyle(pterm.FgCyan, pterm.Bold).Println(display)
}

// renderTable prints rows with a header row.
func renderTable(header []string, rows [][]string) {
	data := pterm.TableData{header}
	data = append(data, rows...)
	if err := pterm.DefaultTable.WithHasHeader().WithData(data).Render(); err != nil {
		pterm.Error.Println(err)
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func joinInts(ns []int) string {
	if len(ns) == 0 {
		return ""
	}
	parts := make([]string, 0, len(ns))
	for _, n := range ns {
		parts = append(parts, strconv.Itoa(n))
	}
	return strings.Join(parts, ", ")
}

// formatKB renders a kilobyte count for humans, keeping the sign.
func formatKB(kb int64) string {
	if kb < 0 {
		return "-" + humanize.IBytes(uint64(-kb)*1024)
	}
	return humanize.IBytes(uint64(kb)*1024)
}
