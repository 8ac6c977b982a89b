package backfill

import "os"

// ShowHelp prints usage information for the backfill tool.
func ShowHelp() {
	os.Stdout.WriteString(`gridlake backfill
=================

Replays POST /process/records one calendar year at a time. Each year is one pipeline
run whose records arrive in a single reply.

Usage:
  go run ./cmd/backfill [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:8000")
  -start string
        First day, YYYY-MM-DD (required)
  -end string
        Last day, YYYY-MM-DD (default today)
  -workers int
        Concurrent year windows (default 2)
  -timeout duration
        HTTP request timeout (default 5m)
  -output string
        Write every record as JSON lines to this file
  -verbose
        Log every window request
  -help
        Show this help message

Examples:
  go run ./cmd/backfill -start 2000-01-01 -end 2024-12-31
  go run ./cmd/backfill -start 2020-01-01 -workers 4 -output ear.jsonl
`)
}
