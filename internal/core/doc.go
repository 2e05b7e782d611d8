// Package core runs actions over a loaded table for every front end.
//
// It sits between the pure packages (csvio, table, export) and the user
// interfaces (the batch CLI, the terminal menu and the HTTP server). None of
// it depends on a particular front end.
//
// # Sessions
//
// A [Session] holds the table as loaded, the current table after every kept
// action, and the output format. Actions are applied one at a time with
// [Session.Apply]:
//
//	s, err := core.Open("people.csv", csvio.LoadOptions{})
//	a, _ := core.ParseAction("filter=moscow")
//	res, err := s.Apply(ctx, a)
//
// filter, select, dedupe and group replace the current table; count and
// head only report; split and save write files in the session's output
// format; reset returns to the loaded table.
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each category has a code for support reference:
//
//   - ENC001, READ001-READ003: loading
//   - COL001, ARG001: actions and their arguments
//   - WRITE001-WRITE002, EXP001: output files
//   - DB001-DB002: database push
//   - SES001, FILE001-FILE002, BUSY001, AUTH001: HTTP service
//
// # Concurrency
//
// Sessions are single-owner. A [Limiter] shared between sessions bounds the
// number of concurrent split exports.
package core
