package core

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"

	"github.com/JonMunkholm/csvmaster/internal/csvio"
	"github.com/JonMunkholm/csvmaster/internal/export"
	"github.com/JonMunkholm/csvmaster/internal/table"
)

// Pusher sends a table to an external store. *pgsink.Pusher implements it.
type Pusher interface {
	Push(ctx context.Context, name string, t *table.Table) (int64, error)
}

// Session is one working dataset: the table as loaded, the table after the
// kept actions, and the format used when writing it back.
//
// A Session is not safe for concurrent use; callers that share one must
// serialize access.
type Session struct {
	path     string
	original *table.Table
	current  *table.Table
	history  []Action

	inEncoding  csvio.Encoding
	inDelimiter csvio.Delimiter
	guess       csvio.DelimiterGuess

	out csvio.WriteOptions

	pusher     Pusher
	limiter    *Limiter
	scratchDir string
	baseName   string
}

// Option configures a Session.
type Option func(*Session)

// WithPusher enables the push action.
func WithPusher(p Pusher) Option {
	return func(s *Session) { s.pusher = p }
}

// WithLimiter bounds how many splits run at once across sessions sharing l.
func WithLimiter(l *Limiter) Option {
	return func(s *Session) { s.limiter = l }
}

// WithScratchDir sets the parent directory for export scratch space.
func WithScratchDir(dir string) Option {
	return func(s *Session) { s.scratchDir = dir }
}

// WithBaseName sets the default chunk file prefix for split.
func WithBaseName(name string) Option {
	return func(s *Session) { s.baseName = name }
}

// WithCRLF makes saved files use \r\n line endings.
func WithCRLF(crlf bool) Option {
	return func(s *Session) { s.out.CRLF = crlf }
}

// WithOutputEncoding overrides the encoding inherited from the source.
func WithOutputEncoding(enc csvio.Encoding) Option {
	return func(s *Session) {
		if enc != csvio.EncodingUnknown {
			s.out.Encoding = enc
		}
	}
}

// WithOutputDelimiter overrides the delimiter inherited from the source.
func WithOutputDelimiter(d csvio.Delimiter) Option {
	return func(s *Session) {
		if d != 0 {
			s.out.Delimiter = d
		}
	}
}

// Open loads path and starts a session on it.
func Open(path string, load csvio.LoadOptions, opts ...Option) (*Session, error) {
	src, err := csvio.Load(path, load)
	if err != nil {
		return nil, err
	}
	return NewSession(src, opts...), nil
}

// NewSession starts a session on an already loaded source. The output
// format defaults to the source's encoding and delimiter.
func NewSession(src *csvio.Source, opts ...Option) *Session {
	s := &Session{
		path:        src.Path,
		original:    src.Table,
		current:     src.Table,
		inEncoding:  src.Encoding,
		inDelimiter: src.Delimiter,
		guess:       src.Guess,
		out: csvio.WriteOptions{
			Encoding:  src.Encoding,
			Delimiter: src.Delimiter,
		},
		baseName: export.DefaultBaseName,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path is the file the session was loaded from.
func (s *Session) Path() string { return s.path }

// Current is the table after every kept action.
func (s *Session) Current() *table.Table { return s.current }

// Original is the table as loaded.
func (s *Session) Original() *table.Table { return s.original }

// History lists the actions that produced Current from Original.
func (s *Session) History() []Action { return slices.Clone(s.history) }

// InputEncoding is the encoding the source was read with.
func (s *Session) InputEncoding() csvio.Encoding { return s.inEncoding }

// InputDelimiter is the delimiter the source was read with.
func (s *Session) InputDelimiter() csvio.Delimiter { return s.inDelimiter }

// DelimiterGuess is the sniffer verdict, zero when the delimiter was given.
func (s *Session) DelimiterGuess() csvio.DelimiterGuess { return s.guess }

// WriteOptions is the format used by save, split and downloads.
func (s *Session) WriteOptions() csvio.WriteOptions { return s.out }

// Result is the outcome of one applied action.
type Result struct {
	Action Action

	// Table is the report to show: the new current table, the head
	// preview, or nil for actions without tabular output.
	Table *table.Table

	// Replaced is set when Table became the session's current table.
	Replaced bool

	Rows, Columns int
	Removed       int
	Saved         string
	Export        *export.Result
	Pushed        int64

	Message string
}

// Apply runs a on the current table. Failed actions leave the session as it was.
func (s *Session) Apply(ctx context.Context, a Action) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	res := Result{Action: a}
	cur := s.current

	switch a.Kind {
	case ActionCount:
		res.Rows, res.Columns = table.CountRows(cur)
		res.Message = fmt.Sprintf("Rows: %d, columns: %d", res.Rows, res.Columns)

	case ActionHead:
		t, err := table.FirstN(cur, a.N)
		if err != nil {
			return Result{}, err
		}
		res.Table = t
		res.Message = fmt.Sprintf("First %d of %d rows", t.RowCount(), cur.RowCount())

	case ActionFilter:
		res.Table = table.FilterByText(cur, a.Text)
		res.Message = fmt.Sprintf("%d of %d rows contain %q", res.Table.RowCount(), cur.RowCount(), a.Text)

	case ActionSelect:
		t, err := table.SelectColumns(cur, a.Columns)
		if err != nil {
			return Result{}, err
		}
		res.Table = t
		res.Message = fmt.Sprintf("Selected %d columns", t.ColumnCount())

	case ActionDedupe:
		res.Table = table.RemoveDuplicates(cur)
		res.Removed = cur.RowCount() - res.Table.RowCount()
		res.Message = fmt.Sprintf("Removed %d duplicate rows, %d left", res.Removed, res.Table.RowCount())

	case ActionGroup:
		t, err := table.GroupByColumn(cur, a.Text)
		if err != nil {
			return Result{}, err
		}
		res.Table = t
		res.Message = fmt.Sprintf("%d distinct values in %q", t.RowCount(), a.Text)

	case ActionSplit:
		er, err := s.split(ctx, a)
		if err != nil {
			return Result{}, err
		}
		res.Export = er
		res.Message = fmt.Sprintf("Wrote %d files to %s", len(er.Files), er.Archive)

	case ActionSave:
		if err := csvio.Write(a.Text, cur, s.out); err != nil {
			return Result{}, err
		}
		res.Saved = a.Text
		res.Message = fmt.Sprintf("Saved %d rows to %s (%s, %s)", cur.RowCount(), a.Text, s.out.Encoding, s.out.Delimiter.Name())

	case ActionReset:
		s.current = s.original
		s.history = nil
		res.Table = s.current
		res.Message = fmt.Sprintf("Restored original data: %d rows", s.current.RowCount())
		return res, nil

	case ActionEncoding:
		if a.Encoding == csvio.EncodingUnknown {
			return Result{}, fmt.Errorf("%w: encoding not set", ErrInvalidAction)
		}
		s.out.Encoding = a.Encoding
		res.Message = "Output encoding: " + a.Encoding.String()

	case ActionDelimiter:
		if !a.Delimiter.Valid() {
			return Result{}, fmt.Errorf("%w: %s", csvio.ErrUnsupportedDelimiter, a.Delimiter)
		}
		s.out.Delimiter = a.Delimiter
		res.Message = "Output delimiter: " + a.Delimiter.Name()

	case ActionPush:
		if s.pusher == nil {
			return Result{}, ErrNoDatabase
		}
		n, err := s.pusher.Push(ctx, a.Text, cur)
		if err != nil {
			return Result{}, err
		}
		res.Pushed = n
		res.Message = fmt.Sprintf("Copied %d rows into %s", n, a.Text)

	default:
		return Result{}, fmt.Errorf("%w: %s", ErrUnknownAction, a.Kind)
	}

	if a.Kind.Replaces() {
		s.current = res.Table
		s.history = append(s.history, a)
		res.Replaced = true
	}
	return res, nil
}

// ApplyAll runs actions in order on a copy of the session and keeps the
// outcome only when every step succeeds. On failure it returns the results
// of the steps that ran and s is unchanged. Files already written by save
// or split stay on disk.
func (s *Session) ApplyAll(ctx context.Context, actions []Action) ([]Result, error) {
	work := s.Clone()
	results := make([]Result, 0, len(actions))
	for i, a := range actions {
		res, err := work.Apply(ctx, a)
		if err != nil {
			return results, fmt.Errorf("step %d (%s): %w", i+1, a, err)
		}
		results = append(results, res)
	}
	*s = *work
	return results, nil
}

// Clone returns a session that starts where s is. The tables are shared,
// being immutable; actions applied to the clone do not affect s.
func (s *Session) Clone() *Session {
	c := *s
	c.history = slices.Clone(s.history)
	return &c
}

func (s *Session) split(ctx context.Context, a Action) (*export.Result, error) {
	chunks, err := table.SplitIntoChunks(s.current, a.N)
	if err != nil {
		return nil, err
	}

	base := a.Text
	if base == "" {
		base = s.baseName
	}
	archive := a.Archive
	if archive == "" {
		archive = base + ".zip"
	}

	if s.limiter != nil {
		if err := s.limiter.Acquire(ctx); err != nil {
			return nil, err
		}
		defer s.limiter.Release()
	}

	return export.ExportChunks(chunks, base, filepath.Clean(archive), export.Options{
		Format:     s.out,
		ScratchDir: s.scratchDir,
	})
}
