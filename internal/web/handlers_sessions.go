package web

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/JonMunkholm/csvmaster/internal/core"
	"github.com/JonMunkholm/csvmaster/internal/csvio"
	"github.com/JonMunkholm/csvmaster/internal/logging"
	"github.com/JonMunkholm/csvmaster/internal/table"
	"github.com/JonMunkholm/csvmaster/internal/web/templates"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// maxJSONBody bounds action and push request bodies.
const maxJSONBody = 1 << 20

// SessionInfo is the JSON view of a session.
type SessionInfo struct {
	ID                 string   `json:"id"`
	Name               string   `json:"name"`
	Rows               int      `json:"rows"`
	Columns            int      `json:"columns"`
	Headers            []string `json:"headers"`
	InputEncoding      string   `json:"input_encoding"`
	InputDelimiter     string   `json:"input_delimiter"`
	DelimiterDefaulted bool     `json:"delimiter_defaulted"`
	OutputEncoding     string   `json:"output_encoding"`
	OutputDelimiter    string   `json:"output_delimiter"`
	History            []string `json:"history"`
}

// TableJSON is a table, possibly truncated to its first rows.
type TableJSON struct {
	Headers   []string   `json:"headers"`
	Rows      [][]string `json:"rows"`
	TotalRows int        `json:"total_rows"`
}

// ActionRequest is the body of POST /api/sessions/{id}/actions.
type ActionRequest struct {
	Actions []string `json:"actions"`
}

// ActionResponse reports one applied action.
type ActionResponse struct {
	Action   string     `json:"action"`
	Message  string     `json:"message"`
	Replaced bool       `json:"replaced"`
	Rows     int        `json:"rows,omitempty"`
	Columns  int        `json:"columns,omitempty"`
	Removed  int        `json:"removed,omitempty"`
	Table    *TableJSON `json:"table,omitempty"`
}

// ActionsResponse is the reply to an actions request.
type ActionsResponse struct {
	Results []ActionResponse `json:"results"`
	Session SessionInfo      `json:"session"`
}

// PushRequest is the body of POST /api/sessions/{id}/push.
type PushRequest struct {
	Table string `json:"table"`
}

// PushResponse reports a finished push.
type PushResponse struct {
	Table string `json:"table"`
	Rows  int64  `json:"rows"`
}

func infoFor(id uuid.UUID, name string, sess *core.Session) SessionInfo {
	cur := sess.Current()
	out := sess.WriteOptions()

	history := make([]string, 0, len(sess.History()))
	for _, a := range sess.History() {
		history = append(history, a.String())
	}

	return SessionInfo{
		ID:                 id.String(),
		Name:               name,
		Rows:               cur.RowCount(),
		Columns:            cur.ColumnCount(),
		Headers:            cur.Headers(),
		InputEncoding:      sess.InputEncoding().String(),
		InputDelimiter:     sess.InputDelimiter().Name(),
		DelimiterDefaulted: sess.DelimiterGuess().Defaulted,
		OutputEncoding:     out.Encoding.String(),
		OutputDelimiter:    out.Delimiter.Name(),
		History:            history,
	}
}

// tableJSON returns t limited to its first limit rows; limit <= 0 keeps all.
func tableJSON(t *table.Table, limit int) *TableJSON {
	rows := t.Records()
	if len(rows) > 0 {
		rows = rows[1:]
	}
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return &TableJSON{Headers: t.Headers(), Rows: rows, TotalRows: t.RowCount()}
}

func (s *Server) sessionOptions() []core.Option {
	return []core.Option{
		core.WithPusher(s.pusher),
		core.WithLimiter(s.limiter),
		core.WithScratchDir(s.cfg.Export.ScratchDir),
		core.WithBaseName(s.cfg.Export.BaseName),
		core.WithCRLF(s.cfg.CSV.CRLF),
		core.WithOutputEncoding(s.cfg.CSV.Encoding()),
	}
}

func sessionID(r *http.Request) (uuid.UUID, error) {
	raw := chi.URLParam(r, "sessionID")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %q", core.ErrSessionNotFound, raw)
	}
	return id, nil
}

// handleCreateSession loads an uploaded file into a new session.
// Optional form fields "encoding" and "delimiter" skip sniffing.
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.CSV.MaxFileSize)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.respondError(w, r, fmt.Errorf("%w: limit is %d bytes", core.ErrFileTooLarge, s.cfg.CSV.MaxFileSize))
			return
		}
		s.respondError(w, r, fmt.Errorf("%w: %v", core.ErrNoFile, err))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, r, fmt.Errorf("%w: %v", core.ErrNoFile, err))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		s.respondError(w, r, fmt.Errorf("read upload: %w", err))
		return
	}

	var opts csvio.LoadOptions
	if v := r.FormValue("encoding"); v != "" {
		if opts.Encoding, err = csvio.ParseEncoding(v); err != nil {
			s.respondError(w, r, err)
			return
		}
	}
	if v := r.FormValue("delimiter"); v != "" {
		if opts.Delimiter, err = csvio.ParseDelimiter(v); err != nil {
			s.respondError(w, r, err)
			return
		}
	}

	name := filepath.Base(header.Filename)
	src, err := csvio.LoadBytes(name, data, opts)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	sess := core.NewSession(src, s.sessionOptions()...)
	id, err := s.store.Create(name, sess)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	logging.WithFields(r.Context(), "session_id", id, "file", name).Info("session created",
		"rows", src.Table.RowCount(),
		"columns", src.Table.ColumnCount(),
		"encoding", src.Encoding.String(),
		"delimiter", src.Delimiter.Name(),
		"delimiter_defaulted", src.DelimiterDefaulted(),
	)

	if !wantsJSON(r) && !isHTMX(r) {
		http.Redirect(w, r, "/api/sessions/"+id.String()+"/preview", http.StatusSeeOther)
		return
	}
	writeJSON(w, http.StatusCreated, infoFor(id, name, sess))
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id, err := sessionID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	var info SessionInfo
	err = s.store.With(id, func(name string, sess *core.Session) error {
		info = infoFor(id, name, sess)
		return nil
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id, err := sessionID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := s.store.Delete(id); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleActions applies a list of actions in order, all or nothing. Actions that write
// files or reach the database have their own endpoints.
func (s *Server) handleActions(w http.ResponseWriter, r *http.Request) {
	id, err := sessionID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	var req ActionRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody)).Decode(&req); err != nil {
		s.respondError(w, r, fmt.Errorf("%w: bad request body: %v", core.ErrInvalidAction, err))
		return
	}
	actions, err := core.ParseActions(req.Actions)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	for _, a := range actions {
		switch a.Kind {
		case core.ActionSave, core.ActionSplit, core.ActionPush:
			s.respondError(w, r, fmt.Errorf("%w: %s is not available here; use the download, export or push endpoint", core.ErrInvalidAction, a.Kind))
			return
		}
	}

	var resp ActionsResponse
	err = s.store.With(id, func(name string, sess *core.Session) error {
		results, err := sess.ApplyAll(r.Context(), actions)
		if err != nil {
			return err
		}
		for _, res := range results {
			ar := ActionResponse{
				Action:   res.Action.String(),
				Message:  res.Message,
				Replaced: res.Replaced,
				Rows:     res.Rows,
				Columns:  res.Columns,
				Removed:  res.Removed,
			}
			if res.Table != nil {
				ar.Table = tableJSON(res.Table, s.cfg.CSV.PreviewRows)
			}
			resp.Results = append(resp.Results, ar)
		}
		resp.Session = infoFor(id, name, sess)
		return nil
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	id, err := sessionID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	var info SessionInfo
	err = s.store.With(id, func(name string, sess *core.Session) error {
		if _, err := sess.Apply(r.Context(), core.Action{Kind: core.ActionReset}); err != nil {
			return err
		}
		info = infoFor(id, name, sess)
		return nil
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// handlePreview renders the first rows of the current table as HTML, or as
// JSON when the client asks for it. ?rows=N overrides the configured count.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	id, err := sessionID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	limit := s.cfg.CSV.PreviewRows
	if v := r.URL.Query().Get("rows"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			s.respondError(w, r, fmt.Errorf("%w: rows must be a positive number, got %q", table.ErrInvalidArgument, v))
			return
		}
		limit = n
	}

	var (
		data templates.PreviewData
		tj   *TableJSON
	)
	err = s.store.With(id, func(name string, sess *core.Session) error {
		tj = tableJSON(sess.Current(), limit)
		out := sess.WriteOptions()
		data = templates.PreviewData{
			SessionID: id.String(),
			Name:      name,
			Headers:   tj.Headers,
			Rows:      tj.Rows,
			TotalRows: tj.TotalRows,
			Encoding:  out.Encoding.String(),
			Delimiter: out.Delimiter.Name(),
		}
		for _, a := range sess.History() {
			data.History = append(data.History, a.String())
		}
		return nil
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		writeJSON(w, http.StatusOK, tj)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	templates.TablePreview(data).Render(r.Context(), w)
}

// handleDownload serializes the current table in the session's output format.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	id, err := sessionID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	var (
		buf      bytes.Buffer
		filename string
		enc      csvio.Encoding
	)
	err = s.store.With(id, func(name string, sess *core.Session) error {
		opts := sess.WriteOptions()
		enc = opts.Encoding
		filename = resultName(name)
		return csvio.Encode(&buf, sess.Current(), opts)
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	charset := "utf-8"
	if enc == csvio.Windows1251 {
		charset = "windows-1251"
	}
	w.Header().Set("Content-Type", "text/csv; charset="+charset)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Write(buf.Bytes())
}

// handleExport splits the current table into ?size=N row chunks and
// streams them back as one ZIP. ?base= sets the chunk file prefix.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	id, err := sessionID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	size, err := strconv.Atoi(r.URL.Query().Get("size"))
	if err != nil {
		s.respondError(w, r, fmt.Errorf("%w: size must be a number", table.ErrInvalidArgument))
		return
	}
	base := r.URL.Query().Get("base")
	if base == "" {
		base = s.cfg.Export.BaseName
	}

	dir, err := os.MkdirTemp(s.cfg.Export.ScratchDir, "csvmaster-export-*")
	if err != nil {
		s.respondError(w, r, fmt.Errorf("create export dir: %w", err))
		return
	}
	defer os.RemoveAll(dir)

	archive := filepath.Join(dir, "export.zip")
	var files int
	err = s.store.With(id, func(_ string, sess *core.Session) error {
		res, err := sess.Apply(r.Context(), core.Action{Kind: core.ActionSplit, N: size, Text: base, Archive: archive})
		if err != nil {
			return err
		}
		files = len(res.Export.Files)
		return nil
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	f, err := os.Open(archive)
	if err != nil {
		s.respondError(w, r, fmt.Errorf("open archive: %w", err))
		return
	}
	defer f.Close()

	logging.WithFields(r.Context(), "session_id", id).Info("export finished", "chunk_size", size, "files", files)

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": base + ".zip"}))
	if _, err := io.Copy(w, f); err != nil {
		logging.FromContext(r.Context()).Warn("export stream interrupted", "error", err)
	}
}

func (s *Server) handlePush(w http.ResponseWriter, r *http.Request) {
	id, err := sessionID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	var req PushRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody)).Decode(&req); err != nil {
		s.respondError(w, r, fmt.Errorf("%w: bad request body: %v", core.ErrInvalidAction, err))
		return
	}

	var pushed int64
	err = s.store.With(id, func(_ string, sess *core.Session) error {
		res, err := sess.Apply(r.Context(), core.Action{Kind: core.ActionPush, Text: req.Table})
		if err != nil {
			return err
		}
		pushed = res.Pushed
		return nil
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, PushResponse{Table: req.Table, Rows: pushed})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"sessions": s.store.Len(),
		"exports":  s.limiter.Status(),
		"database": s.pusher != nil,
	})
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	var rows []templates.SessionRow
	for _, sum := range s.store.List() {
		row := templates.SessionRow{ID: sum.ID.String(), Name: sum.Name, LastUsed: sum.LastUsed}
		err := s.store.With(sum.ID, func(_ string, sess *core.Session) error {
			row.Rows, row.Columns = table.CountRows(sess.Current())
			return nil
		})
		if err != nil {
			continue
		}
		rows = append(rows, row)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	templates.Dashboard(rows).Render(r.Context(), w)
}

// resultName turns "people.csv" into "people_result.csv".
func resultName(name string) string {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	if base == "" {
		base = "result"
	}
	return base + "_result.csv"
}
