// Command csvmaster loads a delimited file, sniffing its encoding and
// delimiter, and runs actions over it.
//
//	csvmaster [flags] FILE [ACTION...]
//
// With actions (or -o) it applies them in order, prints each report and
// exits. Without them it opens an interactive menu.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/JonMunkholm/csvmaster/internal/application"
	"github.com/JonMunkholm/csvmaster/internal/config"
	"github.com/JonMunkholm/csvmaster/internal/core"
	"github.com/JonMunkholm/csvmaster/internal/csvio"
	"github.com/JonMunkholm/csvmaster/internal/logging"
	"github.com/JonMunkholm/csvmaster/internal/pgsink"
	"github.com/joho/godotenv"
)

const usage = `usage: csvmaster [flags] FILE [ACTION...]

Actions:
  count                       print row and column counts
  head=N                      show the first N rows
  filter=TEXT                 keep rows with a cell containing TEXT (case-insensitive)
  select=A,B                  keep only the named columns
  dedupe                      drop repeated rows
  group=COL                   count rows per value of COL
  split=SIZE[,BASE[,OUT.zip]] write SIZE-row chunks into a ZIP archive
  save=OUT.csv                write the current table
  reset                       go back to the loaded table
  encoding=utf-8|cp1251       set the output encoding
  delimiter=NAME              set the output delimiter
  push=TABLE                  copy the current table into PostgreSQL

Flags:
`

func main() {
	// .env never overrides variables already set in the shell.
	_ = godotenv.Load()

	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("csvmaster", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprint(stderr, usage)
		fs.PrintDefaults()
	}

	inEnc := fs.String("encoding", "", "input encoding (utf-8, cp1251); sniffed when empty")
	inDelim := fs.String("delim", "", "input delimiter (comma, semicolon, tab, space, colon); sniffed when empty")
	outEnc := fs.String("out-encoding", "", "output encoding; defaults to the input encoding")
	outDelim := fs.String("out-delim", "", "output delimiter; defaults to the input delimiter")
	outFile := fs.String("o", "", "save the final table to this file")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() < 1 {
		fs.Usage()
		return 2
	}
	path, steps := fs.Arg(0), fs.Args()[1:]

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "csvmaster: %v\n", err)
		return 1
	}
	logger := logging.New(stderr, cfg.Logging.Level, cfg.Logging.Format)

	var load csvio.LoadOptions
	if *inEnc != "" {
		if load.Encoding, err = csvio.ParseEncoding(*inEnc); err != nil {
			return fail(stderr, err)
		}
	}
	if *inDelim != "" {
		if load.Delimiter, err = csvio.ParseDelimiter(*inDelim); err != nil {
			return fail(stderr, err)
		}
	}

	opts := []core.Option{
		core.WithScratchDir(cfg.Export.ScratchDir),
		core.WithBaseName(cfg.Export.BaseName),
		core.WithCRLF(cfg.CSV.CRLF),
		core.WithOutputEncoding(cfg.CSV.Encoding()),
	}
	if *outEnc != "" {
		enc, err := csvio.ParseEncoding(*outEnc)
		if err != nil {
			return fail(stderr, err)
		}
		opts = append(opts, core.WithOutputEncoding(enc))
	}
	if *outDelim != "" {
		d, err := csvio.ParseDelimiter(*outDelim)
		if err != nil {
			return fail(stderr, err)
		}
		opts = append(opts, core.WithOutputDelimiter(d))
	}

	actions, err := core.ParseActions(steps)
	if err != nil {
		return fail(stderr, err)
	}
	if *outFile != "" {
		actions = append(actions, core.Action{Kind: core.ActionSave, Text: *outFile})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if cfg.Database.Enabled() {
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		pool, err := pgsink.Connect(connectCtx, cfg.Database.URL, cfg.Database.MaxConns, cfg.Database.MinConns)
		cancel()
		if err != nil {
			logger.Error("database unavailable", "error", err)
			return 1
		}
		defer pool.Close()
		opts = append(opts, core.WithPusher(pgsink.New(pool, cfg.Database.Replace)))
	}

	sess, err := core.Open(path, load, opts...)
	if err != nil {
		return fail(stderr, err)
	}

	cur := sess.Current()
	logger.Info("file loaded",
		"file", path,
		"rows", cur.RowCount(),
		"columns", cur.ColumnCount(),
		"encoding", sess.InputEncoding().String(),
		"delimiter", sess.InputDelimiter().Name(),
	)
	if sess.DelimiterGuess().Defaulted {
		logger.Warn("no delimiter found in the sample, assuming comma", "file", path)
	}

	if len(actions) == 0 {
		err := application.Run(sess,
			application.WithPreviewRows(cfg.CSV.PreviewRows),
			application.WithPush(cfg.Database.Enabled()),
		)
		if err != nil {
			logger.Error("menu failed", "error", err)
			return 1
		}
		return 0
	}

	for i, a := range actions {
		res, err := sess.Apply(ctx, a)
		if err != nil {
			return fail(stderr, fmt.Errorf("step %d (%s): %w", i+1, a, err))
		}
		fmt.Fprint(stdout, application.FormatResult(res, cfg.CSV.PreviewRows))
	}
	return 0
}

// fail prints the user-facing message and the underlying error.
func fail(stderr io.Writer, err error) int {
	fmt.Fprintf(stderr, "csvmaster: %s\n  %v\n", core.FormatUserError(err), err)
	return 1
}
