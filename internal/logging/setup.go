// Copyright (c) 2026 dbakit
// Licensed under the MIT License. See LICENSE file in the project root for details.

package logging

import (
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
)

// Setup configures the process-wide logger. Levels follow logrus naming
// (trace, debug, info, warn, error); unknown levels fall back to info.
// Log output goes to stderr so table and JSON output on stdout stay clean.
func Setup(level string) {
	log.SetOutput(os.Stderr)
	log.SetFormatter(&log.TextFormatter{
		DisableTimestamp: true,
	})
	lvl, err := log.ParseLevel(strings.TrimSpace(strings.ToLower(level)))
	if err != nil {
		lvl = log.InfoLevel
	}
	log.SetLevel(lvl)
}

// WithRun returns a log entry tagged with the invocation run id.
// Every per-target warning carries this field so batch output can be correlated.
func WithRun(runID string) *log.Entry {
	return log.WithField("run_id", runID)
}
